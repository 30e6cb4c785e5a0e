package sqlite

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/davicafu/boletolab/internal/debt/domain"
)

func setupRepo(t *testing.T) *DebtRepoSQLite {
	t.Helper()
	db, err := Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, InitSQLite(db))
	return NewDebtRepoSQLite(db)
}

func sampleDebts(n int) []*domain.Debt {
	debts := make([]*domain.Debt, n)
	for i := range debts {
		debts[i] = &domain.Debt{
			ID:           uuid.New(),
			Name:         fmt.Sprintf("Debtor %d", i),
			GovernmentID: fmt.Sprintf("%011d", i),
			Email:        fmt.Sprintf("debtor%d@example.com", i),
			Amount:       decimal.RequireFromString(fmt.Sprintf("%d.25", 10*i)),
			DueDate:      time.Date(2022, 10, 12, 0, 0, 0, 0, time.UTC),
			Status:       domain.StatusPending,
		}
	}
	return debts
}

func TestInsertIgnore_SkipsExistingIDs(t *testing.T) {
	repo := setupRepo(t)
	ctx := context.Background()
	debts := sampleDebts(5)

	inserted, err := repo.InsertIgnore(ctx, debts)
	require.NoError(t, err)
	assert.Equal(t, int64(5), inserted)

	changed := *debts[0]
	changed.Name = "Should Not Overwrite"
	inserted, err = repo.InsertIgnore(ctx, append(sampleDebts(2), &changed))
	require.NoError(t, err)
	assert.Equal(t, int64(2), inserted)

	got, err := repo.GetByID(ctx, debts[0].ID)
	require.NoError(t, err)
	assert.Equal(t, "Debtor 0", got.Name)
}

func TestGetByID_RoundTrip(t *testing.T) {
	repo := setupRepo(t)
	ctx := context.Background()
	d := sampleDebts(2)[1]
	_, err := repo.InsertIgnore(ctx, []*domain.Debt{d})
	require.NoError(t, err)

	got, err := repo.GetByID(ctx, d.ID)
	require.NoError(t, err)
	assert.Equal(t, d.ID, got.ID)
	assert.Equal(t, "10.25", got.FormattedAmount())
	assert.Equal(t, "2022-10-12", got.FormattedDueDate())
	assert.Equal(t, domain.StatusPending, got.Status)

	_, err = repo.GetByID(ctx, uuid.New())
	assert.ErrorIs(t, err, domain.ErrDebtNotFound)
}

func TestMarkProcessed_OnlyPendingRows(t *testing.T) {
	repo := setupRepo(t)
	ctx := context.Background()
	debts := sampleDebts(3)
	_, err := repo.InsertIgnore(ctx, debts)
	require.NoError(t, err)

	require.NoError(t, repo.MarkFailed(ctx, debts[0].ID))

	updated, err := repo.MarkProcessed(ctx, []uuid.UUID{debts[0].ID, debts[1].ID, debts[2].ID})
	require.NoError(t, err)
	assert.Equal(t, int64(2), updated)

	first, _ := repo.GetByID(ctx, debts[0].ID)
	assert.Equal(t, domain.StatusFailed, first.Status)

	// FAILED y PROCESSED son finales para el procesamiento.
	require.NoError(t, repo.MarkFailed(ctx, debts[1].ID))
	second, _ := repo.GetByID(ctx, debts[1].ID)
	assert.Equal(t, domain.StatusProcessed, second.Status)
}

func TestMarkProcessed_LargeBatchIsChunked(t *testing.T) {
	repo := setupRepo(t)
	ctx := context.Background()
	debts := sampleDebts(maxIDsPerStatement*2 + 7)
	_, err := repo.InsertIgnore(ctx, debts)
	require.NoError(t, err)

	ids := make([]uuid.UUID, len(debts))
	for i, d := range debts {
		ids[i] = d.ID
	}
	updated, err := repo.MarkProcessed(ctx, ids)
	require.NoError(t, err)
	assert.Equal(t, int64(len(debts)), updated)

	pending, err := repo.ListByStatus(ctx, domain.StatusPending)
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestListByCriteria_Filters(t *testing.T) {
	repo := setupRepo(t)
	ctx := context.Background()
	debts := sampleDebts(6) // importes 0.25, 10.25, ..., 50.25
	_, err := repo.InsertIgnore(ctx, debts)
	require.NoError(t, err)
	require.NoError(t, repo.MarkFailed(ctx, debts[2].ID))

	status := domain.StatusPending
	minAmount := decimal.RequireFromString("10.25")
	maxAmount := decimal.RequireFromString("40")
	got, err := repo.ListByCriteria(ctx, domain.DebtFilter{Status: &status, MinAmount: &minAmount, MaxAmount: &maxAmount}.Criteria())
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, debts[1].ID, got[0].ID)
	assert.Equal(t, debts[3].ID, got[1].ID)

	byID, err := repo.ListByCriteria(ctx, domain.DebtFilter{IDContains: debts[4].ID.String()[:8]}.Criteria())
	require.NoError(t, err)
	require.Len(t, byID, 1)
	assert.Equal(t, debts[4].ID, byID[0].ID)

	byName, err := repo.ListByCriteria(ctx, domain.DebtFilter{NameContains: "DEBTOR 5"}.Criteria())
	require.NoError(t, err)
	require.Len(t, byName, 1)

	// Los comodines del usuario se tratan como texto.
	wildcard, err := repo.ListByCriteria(ctx, domain.DebtFilter{NameContains: "%"}.Criteria())
	require.NoError(t, err)
	assert.Empty(t, wildcard)

	all, err := repo.ListByCriteria(ctx, nil)
	require.NoError(t, err)
	assert.Len(t, all, 6)
}

func TestUpdate_PartialFields(t *testing.T) {
	repo := setupRepo(t)
	ctx := context.Background()
	d := sampleDebts(1)[0]
	_, err := repo.InsertIgnore(ctx, []*domain.Debt{d})
	require.NoError(t, err)

	newDue := time.Date(2023, 1, 31, 0, 0, 0, 0, time.UTC)
	err = repo.Update(ctx, d.ID, domain.DebtUpdate{
		Amount:  domain.Some(decimal.RequireFromString("99.9")),
		DueDate: domain.Some(newDue),
	})
	require.NoError(t, err)

	got, err := repo.GetByID(ctx, d.ID)
	require.NoError(t, err)
	assert.Equal(t, d.Name, got.Name)
	assert.Equal(t, "99.90", got.FormattedAmount())
	assert.Equal(t, "2023-01-31", got.FormattedDueDate())

	assert.ErrorIs(t, repo.Update(ctx, uuid.New(), domain.DebtUpdate{Name: domain.Some("x")}), domain.ErrDebtNotFound)
	assert.ErrorIs(t, repo.Update(ctx, d.ID, domain.DebtUpdate{}), domain.ErrEmptyUpdate)
}

func TestDeleteByID(t *testing.T) {
	repo := setupRepo(t)
	ctx := context.Background()
	d := sampleDebts(1)[0]
	_, err := repo.InsertIgnore(ctx, []*domain.Debt{d})
	require.NoError(t, err)

	require.NoError(t, repo.DeleteByID(ctx, d.ID))
	assert.ErrorIs(t, repo.DeleteByID(ctx, d.ID), domain.ErrDebtNotFound)
}
