package memory

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/storefront/backoffice/internal/domains/catalog/domain"
	"github.com/storefront/backoffice/internal/domains/catalog/ports"
)

func TestSave_AssignsAndTracksIDs(t *testing.T) {
	repo := NewRepository()

	first := save(t, repo, 0, "10")
	require.Equal(t, int64(1), first.ID)

	explicit := save(t, repo, 42, "5")
	require.Equal(t, int64(42), explicit.ID)

	next := save(t, repo, 0, "1")
	require.Equal(t, int64(43), next.ID, "generated ids must not collide with explicit ones")
}

func TestGetByID_ReturnsClone(t *testing.T) {
	repo := NewRepository()
	save(t, repo, 1, "10")

	product, err := repo.GetByID(context.Background(), 1)
	require.NoError(t, err)
	product.Stock = decimal.Zero

	again, err := repo.GetByID(context.Background(), 1)
	require.NoError(t, err)
	require.True(t, again.Stock.Equal(decimal.NewFromInt(10)), "callers must not mutate stored state")
}

func TestDebit_AllOrNothing(t *testing.T) {
	repo := NewRepository()
	save(t, repo, 1, "10")
	save(t, repo, 2, "1")

	err := repo.Debit(context.Background(), []domain.StockMovement{
		{ProductID: 1, Quantity: decimal.NewFromInt(4)},
		{ProductID: 2, Quantity: decimal.NewFromInt(2)},
	})
	var insufficient *domain.InsufficientStockError
	require.ErrorAs(t, err, &insufficient)
	require.Equal(t, int64(2), insufficient.ProductID)

	stock(t, repo, 1, "10")
	stock(t, repo, 2, "1")
}

func TestDebit_SumsMovementsPerProduct(t *testing.T) {
	repo := NewRepository()
	save(t, repo, 1, "10")

	err := repo.Debit(context.Background(), []domain.StockMovement{
		{ProductID: 1, Quantity: decimal.NewFromInt(6)},
		{ProductID: 1, Quantity: decimal.NewFromInt(6)},
	})
	var insufficient *domain.InsufficientStockError
	require.ErrorAs(t, err, &insufficient)
	require.Equal(t, int64(1), insufficient.ProductID)
	require.True(t, insufficient.Requested.Equal(decimal.NewFromInt(12)), "shortfall must report the combined quantity")
	stock(t, repo, 1, "10")

	err = repo.Debit(context.Background(), []domain.StockMovement{
		{ProductID: 1, Quantity: decimal.NewFromInt(4)},
		{ProductID: 1, Quantity: decimal.NewFromInt(6)},
	})
	require.NoError(t, err)
	stock(t, repo, 1, "0")
}

func TestDebit_UnknownProduct(t *testing.T) {
	repo := NewRepository()
	save(t, repo, 1, "10")

	err := repo.Debit(context.Background(), []domain.StockMovement{
		{ProductID: 1, Quantity: decimal.NewFromInt(1)},
		{ProductID: 99, Quantity: decimal.NewFromInt(1)},
	})
	var unavailable *domain.ProductUnavailableError
	require.ErrorAs(t, err, &unavailable)
	require.Equal(t, int64(99), unavailable.ProductID)
	stock(t, repo, 1, "10")
}

func TestDebit_ExactStockAllowed(t *testing.T) {
	repo := NewRepository()
	save(t, repo, 1, "3")

	err := repo.Debit(context.Background(), []domain.StockMovement{
		{ProductID: 1, Quantity: decimal.NewFromInt(3)},
	})
	require.NoError(t, err)
	stock(t, repo, 1, "0")
}

func TestCredit_SkipsDeletedProducts(t *testing.T) {
	repo := NewRepository()
	save(t, repo, 1, "5")
	save(t, repo, 2, "5")
	require.NoError(t, repo.Delete(context.Background(), 2))

	skipped, err := repo.Credit(context.Background(), []domain.StockMovement{
		{ProductID: 1, Quantity: decimal.NewFromInt(2)},
		{ProductID: 2, Quantity: decimal.NewFromInt(2)},
	})
	require.NoError(t, err)
	require.Equal(t, []int64{2}, skipped)
	stock(t, repo, 1, "7")
}

func TestDelete_Unknown(t *testing.T) {
	repo := NewRepository()
	require.ErrorIs(t, repo.Delete(context.Background(), 7), ports.ErrNotFound)
}

func save(t *testing.T, repo *Repository, id int64, stock string) *domain.Product {
	t.Helper()
	product, err := domain.NewProduct(id, "widget", decimal.RequireFromString("9.99"), decimal.RequireFromString(stock))
	require.NoError(t, err)
	saved, err := repo.Save(context.Background(), product)
	require.NoError(t, err)
	return saved
}

func stock(t *testing.T, repo *Repository, id int64, want string) {
	t.Helper()
	product, err := repo.GetByID(context.Background(), id)
	require.NoError(t, err)
	require.Truef(t, product.Stock.Equal(decimal.RequireFromString(want)), "product %d stock = %s, want %s", id, product.Stock, want)
}
