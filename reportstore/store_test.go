package reportstore

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "reports.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func strptr(s string) *string { return &s }

func TestStore_SaveAndGet(t *testing.T) {
	store := openTestStore(t)

	err := store.Save(Snapshot{
		UserID:            1,
		Month:             "2024-01",
		TotalSpent:        150,
		TopCategory:       strptr("Food"),
		TopCategoryAmount: 150,
		OverBudgetEntries: []OverBudgetCategory{
			{Category: "Food", Budget: 120, Spent: 150, Overage: 30},
		},
	})
	require.NoError(t, err)

	snap, err := store.Get(1, "2024-01")
	require.NoError(t, err)
	assert.Equal(t, uint(1), snap.UserID)
	assert.Equal(t, "2024-01", snap.Month)
	assert.Equal(t, 150.0, snap.TotalSpent)
	require.NotNil(t, snap.TopCategory)
	assert.Equal(t, "Food", *snap.TopCategory)
	assert.Equal(t, 150.0, snap.TopCategoryAmount)
	require.Len(t, snap.OverBudgetEntries, 1)
	assert.Equal(t, 30.0, snap.OverBudgetEntries[0].Overage)
	assert.False(t, snap.CreatedAt.IsZero())
}

func TestStore_Get_NotFound(t *testing.T) {
	store := openTestStore(t)

	_, err := store.Get(1, "2024-01")
	assert.ErrorIs(t, err, ErrNotFound)

	// a snapshot for another owner stays invisible
	require.NoError(t, store.Save(Snapshot{UserID: 2, Month: "2024-01"}))
	_, err = store.Get(1, "2024-01")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStore_Save_ReplacesExistingRow(t *testing.T) {
	store := openTestStore(t)

	require.NoError(t, store.Save(Snapshot{
		UserID:            1,
		Month:             "2024-01",
		TotalSpent:        150,
		TopCategory:       strptr("Food"),
		TopCategoryAmount: 150,
		OverBudgetEntries: []OverBudgetCategory{
			{Category: "Food", Budget: 120, Spent: 150, Overage: 30},
		},
	}))
	first, err := store.Get(1, "2024-01")
	require.NoError(t, err)

	// regeneration after all expenses were deleted: full overwrite, no merge
	require.NoError(t, store.Save(Snapshot{
		UserID: 1,
		Month:  "2024-01",
	}))

	second, err := store.Get(1, "2024-01")
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID, "replace keeps the row identity")
	assert.Equal(t, 0.0, second.TotalSpent)
	assert.Nil(t, second.TopCategory)
	assert.Equal(t, 0.0, second.TopCategoryAmount)
	assert.Empty(t, second.OverBudgetEntries)

	all, err := store.List(1)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestStore_NilTopCategoryRoundTrips(t *testing.T) {
	store := openTestStore(t)

	require.NoError(t, store.Save(Snapshot{UserID: 1, Month: "2024-02"}))
	snap, err := store.Get(1, "2024-02")
	require.NoError(t, err)
	assert.Nil(t, snap.TopCategory)
	assert.NotNil(t, snap.OverBudgetEntries)
	assert.Empty(t, snap.OverBudgetEntries)
}

func TestStore_List(t *testing.T) {
	store := openTestStore(t)

	require.NoError(t, store.Save(Snapshot{UserID: 1, Month: "2024-01", TotalSpent: 10}))
	require.NoError(t, store.Save(Snapshot{UserID: 1, Month: "2024-03", TotalSpent: 30}))
	require.NoError(t, store.Save(Snapshot{UserID: 1, Month: "2023-12", TotalSpent: 5}))
	require.NoError(t, store.Save(Snapshot{UserID: 2, Month: "2024-01", TotalSpent: 99}))

	all, err := store.List(1)
	require.NoError(t, err)
	require.Len(t, all, 3)

	// newest month first, other owners excluded
	assert.Equal(t, "2024-03", all[0].Month)
	assert.Equal(t, "2024-01", all[1].Month)
	assert.Equal(t, "2023-12", all[2].Month)

	empty, err := store.List(42)
	require.NoError(t, err)
	assert.Empty(t, empty)
}
