package repositories

import (
	"context"
	"testing"

	"github.com/Dosada05/court-flow/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryRepository_StoresCopies(t *testing.T) {
	repo := NewMemorySnapshotRepository()
	ctx := context.Background()

	_, err := repo.Load(ctx)
	assert.ErrorIs(t, err, ErrSnapshotNotFound)

	snap := models.InitialSnapshot(2)
	require.NoError(t, repo.Save(ctx, snap))
	snap.Courts[0].Name = "changed"

	loaded, err := repo.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Court 1", loaded.Courts[0].Name)

	loaded.Courts = nil
	again, err := repo.Load(ctx)
	require.NoError(t, err)
	assert.Len(t, again.Courts, 2)
}
