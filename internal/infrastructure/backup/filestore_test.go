package backup

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/loser-hub/loser-challenge-hub/internal/application/command"
	"github.com/loser-hub/loser-challenge-hub/internal/domain/goal"
)

func testSnapshot(id string, createdAt time.Time) *command.Snapshot {
	return &command.Snapshot{
		ID:        id,
		CreatedAt: createdAt,
		WeekKey:   "2025-08-25",
	}
}

func writeJunk(t *testing.T, dir string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("not a snapshot"), 0o644))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "subdir"), 0o755))
}

func TestFileStore_RequiresDirectory(t *testing.T) {
	_, err := NewFileStore("")
	assert.Error(t, err)
}

func TestFileStore_SaveAndLoad(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	require.NoError(t, err)

	snapshot := testSnapshot("abc-123", time.Date(2025, 8, 31, 19, 55, 0, 0, time.UTC))
	snapshot.Goals = []*goal.Goal{
		{MemberID: 42, Name: "reading", Kind: goal.KindCount, Target: 5},
	}

	require.NoError(t, store.Save(context.Background(), snapshot))

	loaded, err := store.Load(context.Background(), "abc-123")
	require.NoError(t, err)
	assert.Equal(t, "abc-123", loaded.ID)
	assert.Equal(t, "2025-08-25", loaded.WeekKey)
	require.Len(t, loaded.Goals, 1)
	assert.Equal(t, "reading", loaded.Goals[0].Name)
}

func TestFileStore_LoadMissing(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	require.NoError(t, err)

	_, err = store.Load(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrSnapshotNotFound)
}

func TestFileStore_ListMostRecentFirst(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	require.NoError(t, err)

	base := time.Date(2025, 8, 29, 12, 0, 0, 0, time.UTC)
	require.NoError(t, store.Save(context.Background(), testSnapshot("old", base)))
	require.NoError(t, store.Save(context.Background(), testSnapshot("mid", base.Add(time.Hour))))
	require.NoError(t, store.Save(context.Background(), testSnapshot("new", base.Add(2*time.Hour))))

	ids, err := store.List(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"new", "mid", "old"}, ids)
}

func TestFileStore_ListIgnoresForeignFiles(t *testing.T) {
	dir := t.TempDir()
	store, err := NewFileStore(dir)
	require.NoError(t, err)

	require.NoError(t, store.Save(context.Background(), testSnapshot("only", time.Now())))
	writeJunk(t, dir)

	ids, err := store.List(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"only"}, ids)
}

func TestFileStore_SaveOverwritesSameID(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	require.NoError(t, err)

	createdAt := time.Date(2025, 8, 31, 19, 55, 0, 0, time.UTC)
	first := testSnapshot("dup", createdAt)
	first.WeekKey = "2025-08-18"
	require.NoError(t, store.Save(context.Background(), first))

	second := testSnapshot("dup", createdAt)
	second.WeekKey = "2025-08-25"
	require.NoError(t, store.Save(context.Background(), second))

	loaded, err := store.Load(context.Background(), "dup")
	require.NoError(t, err)
	assert.Equal(t, "2025-08-25", loaded.WeekKey)
}
