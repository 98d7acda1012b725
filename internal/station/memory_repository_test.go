package station_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dearxcorex/MakeItFast/internal/station"
)

func TestInMemoryRepository_BulkInsertAssignsIDs(t *testing.T) {
	repo := station.NewInMemoryRepository()
	ctx := context.Background()

	count, err := repo.BulkInsert(ctx, []*station.Station{
		{Name: "A"},
		{ID: 10, Name: "B"},
		{Name: "C"},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)

	stations, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, stations, 3)

	seen := make(map[int64]bool)
	for _, s := range stations {
		assert.NotZero(t, s.ID)
		assert.False(t, seen[s.ID], "duplicate id %d", s.ID)
		seen[s.ID] = true
		assert.False(t, s.UpdatedAt.IsZero())
	}
	assert.True(t, seen[10])
}

func TestInMemoryRepository_ReturnsCopies(t *testing.T) {
	repo := station.NewInMemoryRepository()
	ctx := context.Background()

	_, err := repo.BulkInsert(ctx, []*station.Station{{ID: 1, Name: "Original"}})
	require.NoError(t, err)

	got, err := repo.Get(ctx, 1)
	require.NoError(t, err)
	got.Name = "mutated"

	again, err := repo.Get(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "Original", again.Name)
}

func TestInMemoryRepository_DeleteAll(t *testing.T) {
	repo := station.NewInMemoryRepository()
	ctx := context.Background()

	_, err := repo.BulkInsert(ctx, []*station.Station{{ID: 1, Name: "A"}, {ID: 2, Name: "B"}})
	require.NoError(t, err)

	require.NoError(t, repo.DeleteAll(ctx))

	stations, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, stations)

	// Ids restart after a reset, matching the truncate behavior in SQL.
	_, err = repo.BulkInsert(ctx, []*station.Station{{Name: "fresh"}})
	require.NoError(t, err)
	fresh, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, fresh, 1)
	assert.Equal(t, int64(1), fresh[0].ID)
}

func TestInMemoryRepository_ApplyPatchUnknownID(t *testing.T) {
	repo := station.NewInMemoryRepository()

	onAir := true
	_, err := repo.ApplyPatch(context.Background(), 99, station.Patch{OnAir: &onAir})
	assert.ErrorIs(t, err, station.ErrStationNotFound)
}
