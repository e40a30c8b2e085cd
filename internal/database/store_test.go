package database_test

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edgard/recallbot/internal/database"
)

// setupTestStore creates a store backed by a temporary SQLite database with
// migrations applied.
func setupTestStore(t *testing.T) database.Store {
	t.Helper()

	db, err := database.NewDB(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err, "Failed to open test database")
	t.Cleanup(func() { database.CloseDB(db) })

	return database.NewStore(db, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestInsertItemAndListItems(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	items := []*database.SavedItem{
		{
			Category:        database.CategoryContent,
			Title:           "Funny cats",
			Platform:        "youtube",
			OriginalURL:     "https://youtube.com/watch?v=abc",
			OriginalMessage: "watch this https://youtube.com/watch?v=abc",
			SavedBy:         "+15550001111",
			CreatedAt:       base,
		},
		{
			Category:        database.CategoryFood,
			Title:           "Lemon pasta",
			Ingredients:     "pasta, lemon, butter",
			OriginalMessage: "lemon pasta recipe",
			SavedBy:         "+15550001111",
			CreatedAt:       base.Add(time.Minute),
		},
		{
			Category:        database.CategoryEvents,
			Title:           "Block party",
			Location:        "Elm Street",
			EventDate:       "Saturday",
			OriginalMessage: "block party on elm street saturday",
			SavedBy:         "+15550002222",
			CreatedAt:       base.Add(2 * time.Minute),
		},
	}

	for _, item := range items {
		id, err := store.InsertItem(ctx, item)
		require.NoError(t, err)
		assert.Positive(t, id)
		assert.Equal(t, id, item.ID)
	}

	got, err := store.ListItems(ctx)
	require.NoError(t, err)
	require.Len(t, got, 3)

	// Most recent first
	assert.Equal(t, "Block party", got[0].Title)
	assert.Equal(t, "Lemon pasta", got[1].Title)
	assert.Equal(t, "Funny cats", got[2].Title)

	assert.Equal(t, "https://youtube.com/watch?v=abc", got[2].OriginalURL)
	assert.Equal(t, "pasta, lemon, butter", got[1].Ingredients)
	assert.Equal(t, "+15550002222", got[0].SavedBy)
	assert.WithinDuration(t, base, got[2].CreatedAt, time.Second)
}

func TestListItemsBreaksTiesByID(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	createdAt := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	for _, title := range []string{"first", "second", "third"} {
		_, err := store.InsertItem(ctx, &database.SavedItem{
			Category:        database.CategoryFacts,
			Title:           title,
			Caption:         title,
			OriginalMessage: title,
			SavedBy:         "+15550001111",
			CreatedAt:       createdAt,
		})
		require.NoError(t, err)
	}

	got, err := store.ListItems(ctx)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "third", got[0].Title)
	assert.Equal(t, "second", got[1].Title)
	assert.Equal(t, "first", got[2].Title)
}

func TestInsertItemValidation(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	_, err := store.InsertItem(ctx, nil)
	assert.Error(t, err)

	_, err = store.InsertItem(ctx, &database.SavedItem{SavedBy: "+15550001111"})
	assert.Error(t, err, "missing category should be rejected")

	_, err = store.InsertItem(ctx, &database.SavedItem{Category: database.CategoryFacts})
	assert.Error(t, err, "missing saved_by should be rejected")
}

func TestCountItems(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	count, err := store.CountItems(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)

	for range 2 {
		_, err := store.InsertItem(ctx, &database.SavedItem{
			Category:        database.CategoryFacts,
			Caption:         "remember this",
			OriginalMessage: "remember this",
			SavedBy:         "+15550001111",
		})
		require.NoError(t, err)
	}

	count, err = store.CountItems(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 2, count)
}

func TestPing(t *testing.T) {
	store := setupTestStore(t)
	require.NoError(t, store.Ping(context.Background()))
}

func TestRunSQLMaintenance(t *testing.T) {
	store := setupTestStore(t)
	require.NoError(t, store.RunSQLMaintenance(context.Background()))
}
