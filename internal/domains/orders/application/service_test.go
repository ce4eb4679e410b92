package application

import (
	"context"
	"sync"
	"testing"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	cartmemory "github.com/storefront/backoffice/internal/domains/cart/adapters/memory"
	cartdomain "github.com/storefront/backoffice/internal/domains/cart/domain"
	catalogmemory "github.com/storefront/backoffice/internal/domains/catalog/adapters/memory"
	catalogdomain "github.com/storefront/backoffice/internal/domains/catalog/domain"
	ordersmemory "github.com/storefront/backoffice/internal/domains/orders/adapters/memory"
	"github.com/storefront/backoffice/internal/domains/orders/domain"
	"github.com/storefront/backoffice/internal/domains/orders/ports"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type fixture struct {
	catalog *catalogmemory.Repository
	carts   *cartmemory.Repository
	service *Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	catalogRepo := catalogmemory.NewRepository()
	cartRepo := cartmemory.NewRepository()
	orderRepo := ordersmemory.NewRepository(catalogRepo, catalogRepo, cartRepo)
	return &fixture{
		catalog: catalogRepo,
		carts:   cartRepo,
		service: NewService(orderRepo, catalogRepo, cartRepo),
	}
}

func (f *fixture) addProduct(t *testing.T, id int64, price, stock string) *catalogdomain.Product {
	t.Helper()
	product, err := catalogdomain.NewProduct(id, gofakeit.ProductName(), decimal.RequireFromString(price), decimal.RequireFromString(stock))
	require.NoError(t, err)
	saved, err := f.catalog.Save(context.Background(), product)
	require.NoError(t, err)
	return saved
}

func (f *fixture) addCartLine(t *testing.T, userID string, productID int64, quantity string) *cartdomain.Line {
	t.Helper()
	line, err := cartdomain.NewLine(userID, productID, decimal.RequireFromString(quantity), "")
	require.NoError(t, err)
	added, err := f.carts.Add(context.Background(), line)
	require.NoError(t, err)
	return added
}

func (f *fixture) stockOf(t *testing.T, productID int64) decimal.Decimal {
	t.Helper()
	product, err := f.catalog.GetByID(context.Background(), productID)
	require.NoError(t, err)
	return product.Stock
}

func TestCheckout_DebitsStockAndEmptiesCart(t *testing.T) {
	f := newFixture(t)
	userID := gofakeit.UUID()
	f.addProduct(t, 1, "25.00", "10")
	f.addCartLine(t, userID, 1, "3")

	order, err := f.service.Checkout(context.Background(), ports.CheckoutInput{UserID: userID})
	require.NoError(t, err)
	require.Equal(t, domain.StatusNew, order.Status)
	require.Equal(t, 1, order.LineCount())
	require.True(t, order.TotalValue().Equal(decimal.RequireFromString("75.00")))

	require.True(t, f.stockOf(t, 1).Equal(decimal.NewFromInt(7)))

	lines, err := f.carts.LinesForUser(context.Background(), userID)
	require.NoError(t, err)
	require.Empty(t, lines, "checkout must consume the cart")
}

func TestCheckout_EmptyCart(t *testing.T) {
	f := newFixture(t)

	_, err := f.service.Checkout(context.Background(), ports.CheckoutInput{UserID: gofakeit.UUID()})
	require.ErrorIs(t, err, ErrEmptyCart)
	require.True(t, IsBusinessError(err))
}

func TestCheckout_InsufficientStock(t *testing.T) {
	f := newFixture(t)
	userID := gofakeit.UUID()
	f.addProduct(t, 1, "5.00", "2")
	f.addCartLine(t, userID, 1, "3")

	_, err := f.service.Checkout(context.Background(), ports.CheckoutInput{UserID: userID})
	var insufficient *catalogdomain.InsufficientStockError
	require.ErrorAs(t, err, &insufficient)
	require.Equal(t, int64(1), insufficient.ProductID)
	require.True(t, IsBusinessError(err))

	require.True(t, f.stockOf(t, 1).Equal(decimal.NewFromInt(2)), "failed checkout must not touch stock")
	lines, err := f.carts.LinesForUser(context.Background(), userID)
	require.NoError(t, err)
	require.Len(t, lines, 1, "failed checkout must keep the cart")
}

func TestCheckout_PartialShortfallDebitsNothing(t *testing.T) {
	f := newFixture(t)
	userID := gofakeit.UUID()
	f.addProduct(t, 1, "5.00", "10")
	f.addProduct(t, 2, "9.00", "1")
	f.addCartLine(t, userID, 1, "4")
	f.addCartLine(t, userID, 2, "2")

	_, err := f.service.Checkout(context.Background(), ports.CheckoutInput{UserID: userID})
	var insufficient *catalogdomain.InsufficientStockError
	require.ErrorAs(t, err, &insufficient)
	require.Equal(t, int64(2), insufficient.ProductID)

	require.True(t, f.stockOf(t, 1).Equal(decimal.NewFromInt(10)), "no line may debit when any line is short")
	require.True(t, f.stockOf(t, 2).Equal(decimal.NewFromInt(1)))
}

func TestCheckout_RepeatedProductLinesNeverOversell(t *testing.T) {
	f := newFixture(t)
	userID := gofakeit.UUID()
	f.addProduct(t, 1, "5.00", "10")
	f.addCartLine(t, userID, 1, "6")
	f.addCartLine(t, userID, 1, "6")

	_, err := f.service.Checkout(context.Background(), ports.CheckoutInput{UserID: userID})
	var insufficient *catalogdomain.InsufficientStockError
	require.ErrorAs(t, err, &insufficient)
	require.Equal(t, int64(1), insufficient.ProductID)
	require.True(t, insufficient.Requested.Equal(decimal.NewFromInt(12)), "shortfall must report the cart's combined demand")

	require.True(t, f.stockOf(t, 1).Equal(decimal.NewFromInt(10)), "stock must never go negative")
	lines, err := f.carts.LinesForUser(context.Background(), userID)
	require.NoError(t, err)
	require.Len(t, lines, 2, "failed checkout must keep the cart")
}

func TestCheckout_RepeatedProductLinesWithinStock(t *testing.T) {
	f := newFixture(t)
	userID := gofakeit.UUID()
	f.addProduct(t, 1, "5.00", "10")
	f.addCartLine(t, userID, 1, "4")
	f.addCartLine(t, userID, 1, "6")

	order, err := f.service.Checkout(context.Background(), ports.CheckoutInput{UserID: userID})
	require.NoError(t, err)
	require.Equal(t, 2, order.LineCount())
	require.True(t, f.stockOf(t, 1).Equal(decimal.Zero))
}

func TestCheckout_DeletedProduct(t *testing.T) {
	f := newFixture(t)
	userID := gofakeit.UUID()
	f.addProduct(t, 1, "5.00", "10")
	f.addCartLine(t, userID, 1, "2")
	require.NoError(t, f.catalog.Delete(context.Background(), 1))

	_, err := f.service.Checkout(context.Background(), ports.CheckoutInput{UserID: userID})
	var unavailable *catalogdomain.ProductUnavailableError
	require.ErrorAs(t, err, &unavailable)
	require.True(t, IsBusinessError(err))
}

func TestCheckout_ConcurrentBuyersNeverOversell(t *testing.T) {
	f := newFixture(t)
	f.addProduct(t, 1, "5.00", "10")
	userA := gofakeit.UUID()
	userB := gofakeit.UUID()
	f.addCartLine(t, userA, 1, "6")
	f.addCartLine(t, userB, 1, "6")

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i, user := range []string{userA, userB} {
		wg.Add(1)
		go func(i int, user string) {
			defer wg.Done()
			_, errs[i] = f.service.Checkout(context.Background(), ports.CheckoutInput{UserID: user})
		}(i, user)
	}
	wg.Wait()

	var failures int
	for _, err := range errs {
		if err != nil {
			var insufficient *catalogdomain.InsufficientStockError
			require.ErrorAs(t, err, &insufficient)
			failures++
		}
	}
	require.Equal(t, 1, failures, "exactly one of two competing 6-of-10 checkouts may succeed")
	require.True(t, f.stockOf(t, 1).Equal(decimal.NewFromInt(4)))
}

func TestAdvance_Pipeline(t *testing.T) {
	f := newFixture(t)
	order := f.checkout(t, "10")

	for _, target := range []domain.Status{domain.StatusDispatched, domain.StatusShipped, domain.StatusConfirmed} {
		updated, err := f.service.Advance(context.Background(), order.ID, target)
		require.NoError(t, err)
		require.Equal(t, target, updated.Status)
	}
}

func TestAdvance_SkippingAheadRejected(t *testing.T) {
	f := newFixture(t)
	order := f.checkout(t, "10")

	_, err := f.service.Advance(context.Background(), order.ID, domain.StatusShipped)
	var invalid *domain.InvalidTransitionError
	require.ErrorAs(t, err, &invalid)
	require.Equal(t, domain.StatusNew, invalid.Current)
	require.True(t, IsBusinessError(err))

	current, err := f.service.GetByID(context.Background(), order.ID)
	require.NoError(t, err)
	require.Equal(t, domain.StatusNew, current.Status)
}

func TestAdvance_UnknownOrder(t *testing.T) {
	f := newFixture(t)

	_, err := f.service.Advance(context.Background(), 404, domain.StatusDispatched)
	require.ErrorIs(t, err, ports.ErrNotFound)
}

func TestCancel_RestocksDebitedQuantities(t *testing.T) {
	f := newFixture(t)
	order := f.checkout(t, "3")
	require.True(t, f.stockOf(t, 1).Equal(decimal.NewFromInt(7)))

	cancelled, err := f.service.Cancel(context.Background(), order.ID)
	require.NoError(t, err)
	require.Equal(t, domain.StatusCancelled, cancelled.Status)
	require.True(t, f.stockOf(t, 1).Equal(decimal.NewFromInt(10)), "cancel must return the debited stock")
}

func TestCancel_SecondCancelRejectedWithoutDoubleRestock(t *testing.T) {
	f := newFixture(t)
	order := f.checkout(t, "3")

	_, err := f.service.Cancel(context.Background(), order.ID)
	require.NoError(t, err)

	_, err = f.service.Cancel(context.Background(), order.ID)
	var already *domain.AlreadyCancelledError
	require.ErrorAs(t, err, &already)
	require.True(t, IsBusinessError(err))
	require.True(t, f.stockOf(t, 1).Equal(decimal.NewFromInt(10)), "restock must not run twice")
}

func TestCancel_AfterConfirmedStillRestocks(t *testing.T) {
	f := newFixture(t)
	order := f.checkout(t, "2")
	for _, target := range []domain.Status{domain.StatusDispatched, domain.StatusShipped, domain.StatusConfirmed} {
		_, err := f.service.Advance(context.Background(), order.ID, target)
		require.NoError(t, err)
	}

	cancelled, err := f.service.Cancel(context.Background(), order.ID)
	require.NoError(t, err)
	require.Equal(t, domain.StatusCancelled, cancelled.Status)
	require.True(t, f.stockOf(t, 1).Equal(decimal.NewFromInt(10)))
}

func TestCancel_SkipsDeletedProducts(t *testing.T) {
	f := newFixture(t)
	order := f.checkout(t, "4")
	require.NoError(t, f.catalog.Delete(context.Background(), 1))

	cancelled, err := f.service.Cancel(context.Background(), order.ID)
	require.NoError(t, err)
	require.Equal(t, domain.StatusCancelled, cancelled.Status)

	_, err = f.catalog.GetByID(context.Background(), 1)
	require.Error(t, err, "cancel must not resurrect a deleted product")
}

func TestAdvanceToCancelled_DelegatesToCancel(t *testing.T) {
	f := newFixture(t)
	order := f.checkout(t, "3")

	cancelled, err := f.service.Advance(context.Background(), order.ID, domain.StatusCancelled)
	require.NoError(t, err)
	require.Equal(t, domain.StatusCancelled, cancelled.Status)
	require.True(t, f.stockOf(t, 1).Equal(decimal.NewFromInt(10)), "cancelling via advance must restock")
}

func TestListByUser(t *testing.T) {
	f := newFixture(t)
	f.addProduct(t, 1, "5.00", "100")
	userA := gofakeit.UUID()
	userB := gofakeit.UUID()
	f.addCartLine(t, userA, 1, "1")
	_, err := f.service.Checkout(context.Background(), ports.CheckoutInput{UserID: userA})
	require.NoError(t, err)
	f.addCartLine(t, userB, 1, "2")
	_, err = f.service.Checkout(context.Background(), ports.CheckoutInput{UserID: userB})
	require.NoError(t, err)

	orders, err := f.service.ListByUser(context.Background(), userA)
	require.NoError(t, err)
	require.Len(t, orders, 1)
	require.Equal(t, userA, orders[0].UserID)

	all, err := f.service.List(context.Background())
	require.NoError(t, err)
	require.Len(t, all, 2)
}

func TestSummary(t *testing.T) {
	f := newFixture(t)
	f.addProduct(t, 1, "5.00", "100")

	userA := gofakeit.UUID()
	f.addCartLine(t, userA, 1, "2")
	orderA, err := f.service.Checkout(context.Background(), ports.CheckoutInput{UserID: userA})
	require.NoError(t, err)
	_, err = f.service.Advance(context.Background(), orderA.ID, domain.StatusDispatched)
	require.NoError(t, err)

	userB := gofakeit.UUID()
	f.addCartLine(t, userB, 1, "3")
	_, err = f.service.Checkout(context.Background(), ports.CheckoutInput{UserID: userB})
	require.NoError(t, err)

	summary, err := f.service.Summary(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, summary[domain.StatusNew].Orders)
	require.True(t, summary[domain.StatusNew].TotalQuantity.Equal(decimal.NewFromInt(3)))
	require.Equal(t, 1, summary[domain.StatusDispatched].Orders)
	require.True(t, summary[domain.StatusDispatched].TotalQuantity.Equal(decimal.NewFromInt(2)))
	require.Equal(t, 0, summary[domain.StatusCancelled].Orders)
}

// checkout seeds product 1 with stock 10 at 5.00 and checks out the given quantity.
func (f *fixture) checkout(t *testing.T, quantity string) *domain.Order {
	t.Helper()
	userID := gofakeit.UUID()
	f.addProduct(t, 1, "5.00", "10")
	f.addCartLine(t, userID, 1, quantity)
	order, err := f.service.Checkout(context.Background(), ports.CheckoutInput{UserID: userID})
	require.NoError(t, err)
	return order
}
