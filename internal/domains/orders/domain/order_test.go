package domain

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	catalogdomain "github.com/storefront/backoffice/internal/domains/catalog/domain"
)

func TestCanTransition_PipelineOrder(t *testing.T) {
	allowed := map[Status]Status{
		StatusNew:        StatusDispatched,
		StatusDispatched: StatusShipped,
		StatusShipped:    StatusConfirmed,
	}
	for _, current := range Statuses() {
		for _, target := range Statuses() {
			got := CanTransition(current, target)
			want := false
			if target == StatusCancelled {
				want = current != StatusCancelled
			} else if next, ok := allowed[current]; ok && next == target {
				want = true
			}
			require.Equalf(t, want, got, "transition %s -> %s", current, target)
		}
	}
}

func TestPredecessor(t *testing.T) {
	from, ok := Predecessor(StatusShipped)
	require.True(t, ok)
	require.Equal(t, StatusDispatched, from)

	_, ok = Predecessor(StatusCancelled)
	require.False(t, ok)

	_, ok = Predecessor(StatusNew)
	require.False(t, ok)
}

func TestAdvance_WalksPipeline(t *testing.T) {
	order := validOrder(t)
	for _, target := range []Status{StatusDispatched, StatusShipped, StatusConfirmed} {
		require.NoError(t, order.Advance(target))
		require.Equal(t, target, order.Status)
	}
}

func TestAdvance_RejectsSkippingAhead(t *testing.T) {
	order := validOrder(t)

	err := order.Advance(StatusShipped)
	var invalid *InvalidTransitionError
	require.ErrorAs(t, err, &invalid)
	require.Equal(t, StatusNew, invalid.Current)
	require.Equal(t, StatusShipped, invalid.Requested)
	require.Equal(t, StatusNew, order.Status, "rejected transition must not move the order")
}

func TestAdvance_RejectsMovingBackwards(t *testing.T) {
	order := validOrder(t)
	require.NoError(t, order.Advance(StatusDispatched))

	err := order.Advance(StatusDispatched)
	var invalid *InvalidTransitionError
	require.ErrorAs(t, err, &invalid)
}

func TestAdvance_CancelFromAnyActiveStatus(t *testing.T) {
	for _, current := range []Status{StatusNew, StatusDispatched, StatusShipped, StatusConfirmed} {
		order := validOrder(t)
		order.Status = current
		require.NoErrorf(t, order.Advance(StatusCancelled), "cancel from %s", current)
		require.Equal(t, StatusCancelled, order.Status)
	}
}

func TestAdvance_SecondCancelRejected(t *testing.T) {
	order := validOrder(t)
	require.NoError(t, order.Advance(StatusCancelled))

	err := order.Advance(StatusCancelled)
	var already *AlreadyCancelledError
	require.ErrorAs(t, err, &already)
	require.Equal(t, StatusCancelled, order.Status)
}

func TestAdvance_NothingLeavesCancelled(t *testing.T) {
	order := validOrder(t)
	require.NoError(t, order.Advance(StatusCancelled))

	for _, target := range []Status{StatusNew, StatusDispatched, StatusShipped, StatusConfirmed} {
		err := order.Advance(target)
		var invalid *InvalidTransitionError
		require.ErrorAsf(t, err, &invalid, "transition cancelled -> %s", target)
	}
}

func TestAdvance_InvalidStatus(t *testing.T) {
	order := validOrder(t)
	require.ErrorIs(t, order.Advance(Status("archived")), ErrInvalidStatus)
}

func TestNewOrder_Validation(t *testing.T) {
	lines := []OrderLine{{ProductID: 1, Quantity: decimal.NewFromInt(2)}}

	_, err := NewOrder("", "", lines)
	require.ErrorIs(t, err, ErrEmptyUserID)

	_, err = NewOrder("user-1", "", nil)
	require.ErrorIs(t, err, ErrEmptyOrder)

	_, err = NewOrder("user-1", "", []OrderLine{{ProductID: 1, Quantity: decimal.Zero}})
	require.ErrorIs(t, err, ErrInvalidQuantity)

	order, err := NewOrder("user-1", "gift wrap", lines)
	require.NoError(t, err)
	require.Equal(t, StatusNew, order.Status)
	require.False(t, order.CreatedAt.IsZero())
}

func TestOrderTotals(t *testing.T) {
	price := decimal.RequireFromString("19.90")
	product := &catalogdomain.Product{ID: 7, Name: "mug", Price: price}
	order := &Order{
		UserID: "user-1",
		Status: StatusNew,
		Lines: []OrderLine{
			{ProductID: 7, Quantity: decimal.NewFromInt(3), Product: product},
			{ProductID: 8, Quantity: decimal.NewFromInt(2), Product: nil},
		},
	}

	require.Equal(t, 2, order.LineCount())
	require.True(t, order.TotalQuantity().Equal(decimal.NewFromInt(5)))
	require.True(t, order.TotalValue().Equal(price.Mul(decimal.NewFromInt(3))),
		"lines of deleted products contribute zero value")
}

func TestStockMovements(t *testing.T) {
	order := &Order{
		UserID: "user-1",
		Status: StatusNew,
		Lines: []OrderLine{
			{ProductID: 7, Quantity: decimal.NewFromInt(3)},
			{ProductID: 9, Quantity: decimal.RequireFromString("1.5")},
		},
	}

	movements := order.StockMovements()
	require.Len(t, movements, 2)
	require.Equal(t, int64(7), movements[0].ProductID)
	require.True(t, movements[1].Quantity.Equal(decimal.RequireFromString("1.5")))
}

func TestInvalidTransitionError_Message(t *testing.T) {
	err := &InvalidTransitionError{OrderID: 12, Current: StatusNew, Requested: StatusConfirmed}
	require.Contains(t, err.Error(), "order 12")
	require.Contains(t, err.Error(), string(StatusShipped))

	var target *InvalidTransitionError
	require.True(t, errors.As(err, &target))
}

func validOrder(t *testing.T) *Order {
	t.Helper()
	order, err := NewOrder("user-1", "", []OrderLine{{ProductID: 1, Quantity: decimal.NewFromInt(1)}})
	require.NoError(t, err)
	return order
}
