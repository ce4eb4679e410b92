package memory

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/storefront/backoffice/internal/domains/cart/domain"
	"github.com/storefront/backoffice/internal/domains/cart/ports"
)

func TestAdd_AssignsIDsPerRepository(t *testing.T) {
	repo := NewRepository()

	first := add(t, repo, "user-1", 10, "2")
	second := add(t, repo, "user-1", 11, "1")
	require.Equal(t, int64(1), first.ID)
	require.Equal(t, int64(2), second.ID)
}

func TestLinesForUser_OnlyOwnLines(t *testing.T) {
	repo := NewRepository()
	add(t, repo, "user-1", 10, "2")
	add(t, repo, "user-2", 10, "5")
	add(t, repo, "user-1", 11, "1")

	lines, err := repo.LinesForUser(context.Background(), "user-1")
	require.NoError(t, err)
	require.Len(t, lines, 2)
	for _, line := range lines {
		require.Equal(t, "user-1", line.UserID)
	}
}

func TestRemove_RejectsForeignLine(t *testing.T) {
	repo := NewRepository()
	line := add(t, repo, "user-1", 10, "2")

	require.ErrorIs(t, repo.Remove(context.Background(), "user-2", line.ID), ports.ErrNotFound)
	require.NoError(t, repo.Remove(context.Background(), "user-1", line.ID))
	require.ErrorIs(t, repo.Remove(context.Background(), "user-1", line.ID), ports.ErrNotFound)
}

func TestRemoveLines_IgnoresMissing(t *testing.T) {
	repo := NewRepository()
	kept := add(t, repo, "user-1", 10, "2")
	gone := add(t, repo, "user-1", 11, "1")

	require.NoError(t, repo.RemoveLines(context.Background(), "user-1", []int64{gone.ID, 99}))

	lines, err := repo.LinesForUser(context.Background(), "user-1")
	require.NoError(t, err)
	require.Len(t, lines, 1)
	require.Equal(t, kept.ID, lines[0].ID)
}

func TestAdd_Validation(t *testing.T) {
	repo := NewRepository()

	_, err := repo.Add(context.Background(), &domain.Line{UserID: "", ProductID: 1, Quantity: decimal.NewFromInt(1)})
	require.ErrorIs(t, err, domain.ErrEmptyUserID)

	_, err = repo.Add(context.Background(), &domain.Line{UserID: "user-1", ProductID: 1, Quantity: decimal.Zero})
	require.ErrorIs(t, err, domain.ErrInvalidQuantity)
}

func add(t *testing.T, repo *Repository, userID string, productID int64, quantity string) *domain.Line {
	t.Helper()
	line, err := domain.NewLine(userID, productID, decimal.RequireFromString(quantity), "")
	require.NoError(t, err)
	added, err := repo.Add(context.Background(), line)
	require.NoError(t, err)
	return added
}
