package application

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/davicafu/boletolab/internal/debt/domain"
	"github.com/davicafu/boletolab/tests/mocks"
)

func TestBulkLoader_InsertsInChunks(t *testing.T) {
	repo := mocks.NewInMemoryDebtRepo()
	loader := NewBulkLoader(repo, 10, zap.NewNop())

	report, err := loader.Load(context.Background(), newPendingDebts(25))
	require.NoError(t, err)

	assert.Equal(t, 25, report.Attempted)
	assert.Equal(t, int64(25), report.Inserted)
	assert.Equal(t, 3, report.Chunks)
	assert.Equal(t, []string{"InsertIgnore:10", "InsertIgnore:10", "InsertIgnore:5"}, repo.Calls())
	assert.Equal(t, 25, repo.Count())
}

func TestBulkLoader_DuplicatesAreIgnored(t *testing.T) {
	repo := mocks.NewInMemoryDebtRepo()
	loader := NewBulkLoader(repo, 0, zap.NewNop())
	debts := newPendingDebts(5)

	_, err := loader.Load(context.Background(), debts)
	require.NoError(t, err)

	report, err := loader.Load(context.Background(), append(debts, debts[0]))
	require.NoError(t, err)
	assert.Equal(t, 6, report.Attempted)
	assert.Equal(t, int64(0), report.Inserted)
	assert.Equal(t, 5, repo.Count())
}

func TestBulkLoader_StoreErrorAbortsRemainingChunks(t *testing.T) {
	repo := mocks.NewInMemoryDebtRepo()
	repo.FailInsertOnCall = 2
	loader := NewBulkLoader(repo, 10, zap.NewNop())

	report, err := loader.Load(context.Background(), newPendingDebts(30))
	require.Error(t, err)

	var serr *domain.StoreError
	require.True(t, errors.As(err, &serr))
	assert.Equal(t, "bulk insert", serr.Op)
	assert.Equal(t, 1, report.Chunks)
	assert.Len(t, repo.Calls(), 2)
	assert.Equal(t, 10, repo.Count())
}

func TestChunk(t *testing.T) {
	items := []int{1, 2, 3, 4, 5, 6, 7}

	assert.Equal(t, [][]int{{1, 2, 3}, {4, 5, 6}, {7}}, Chunk(items, 3))
	assert.Equal(t, [][]int{items}, Chunk(items, 100))
	assert.Equal(t, [][]int{items}, Chunk(items, 0))
	assert.Nil(t, Chunk([]int{}, 3))

	// Los trozos no comparten capacidad: append no pisa el siguiente.
	chunks := Chunk(items, 3)
	_ = append(chunks[0], 99)
	assert.Equal(t, 4, chunks[1][0])
}
