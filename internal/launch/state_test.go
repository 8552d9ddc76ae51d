package launch

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "queue.json")
	store := NewStore(path)

	saved := &State{
		Pending:          []string{"a", "b", "c"},
		LaunchedThisHour: 4,
		HourResetsAt:     time.Now().Add(30 * time.Minute).UTC().Truncate(time.Second),
		SpentTodaySOL:    0.75,
		DayResetsAt:      time.Now().Add(12 * time.Hour).UTC().Truncate(time.Second),
		TotalProcessed:   17,
		TotalFailed:      2,
	}
	require.NoError(t, store.Save(saved))

	loaded, err := store.Load()
	require.NoError(t, err)

	assert.Equal(t, saved.Pending, loaded.Pending)
	assert.Equal(t, saved.LaunchedThisHour, loaded.LaunchedThisHour)
	assert.True(t, saved.HourResetsAt.Equal(loaded.HourResetsAt))
	assert.Equal(t, saved.SpentTodaySOL, loaded.SpentTodaySOL)
	assert.True(t, saved.DayResetsAt.Equal(loaded.DayResetsAt))
	assert.Equal(t, saved.TotalProcessed, loaded.TotalProcessed)
	assert.Equal(t, saved.TotalFailed, loaded.TotalFailed)
	assert.False(t, loaded.SavedAt.IsZero())
}

func TestStore_MissingFileIsFreshStart(t *testing.T) {
	store := NewStore(filepath.Join(t.TempDir(), "nope", "queue.json"))

	state, err := store.Load()
	require.NoError(t, err)
	assert.Empty(t, state.Pending)
	assert.Zero(t, state.LaunchedThisHour)
	assert.Zero(t, state.SpentTodaySOL)
}

func TestStore_OlderFormatDefaultsMissingFields(t *testing.T) {
	path := filepath.Join(t.TempDir(), "queue.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"pending":["x"]}`), 0o644))

	state, err := NewStore(path).Load()
	require.NoError(t, err)
	assert.Equal(t, []string{"x"}, state.Pending)
	assert.Zero(t, state.LaunchedThisHour)
	assert.True(t, state.HourResetsAt.IsZero())
}

func TestStore_CorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "queue.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	_, err := NewStore(path).Load()
	assert.Error(t, err)
}

func TestStore_SaveLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	store := NewStore(filepath.Join(dir, "queue.json"))

	require.NoError(t, store.Save(&State{Pending: []string{"a"}}))
	require.NoError(t, store.Save(&State{Pending: []string{"b"}}))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1, "only the state file itself should remain")
	assert.Equal(t, "queue.json", entries[0].Name())
}

func TestStore_SaveCreatesDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "deep", "nested", "queue.json")
	require.NoError(t, NewStore(path).Save(&State{}))

	_, err := os.Stat(path)
	assert.NoError(t, err)
}
