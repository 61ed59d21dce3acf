// Package backup stores exported state snapshots as JSON files.
package backup

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/loser-hub/loser-challenge-hub/internal/application/command"
)

// ErrSnapshotNotFound is returned when the requested snapshot does not exist.
var ErrSnapshotNotFound = errors.New("backup: snapshot not found")

// FileStore implements command.SnapshotStore on a local directory.
// Each snapshot is one pretty-printed JSON file named
// <created-at>_<id>.json so a directory listing reads chronologically.
type FileStore struct {
	dir string
}

// NewFileStore creates the directory if needed and returns the store.
func NewFileStore(dir string) (*FileStore, error) {
	if dir == "" {
		return nil, fmt.Errorf("backup: directory required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("backup: failed to create directory: %w", err)
	}
	return &FileStore{dir: dir}, nil
}

// Save persists the snapshot under its ID.
func (s *FileStore) Save(_ context.Context, snapshot *command.Snapshot) error {
	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return fmt.Errorf("backup: failed to encode snapshot: %w", err)
	}

	name := fmt.Sprintf("%s_%s.json", snapshot.CreatedAt.UTC().Format("20060102T150405"), snapshot.ID)
	path := filepath.Join(s.dir, name)

	// Write via temp file + rename so a crash never leaves a torn snapshot.
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("backup: failed to write snapshot: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("backup: failed to finalize snapshot: %w", err)
	}
	return nil
}

// Load returns the snapshot with the given ID.
func (s *FileStore) Load(_ context.Context, id string) (*command.Snapshot, error) {
	path, err := s.find(id)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("backup: failed to read snapshot: %w", err)
	}

	var snapshot command.Snapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return nil, fmt.Errorf("backup: failed to decode snapshot: %w", err)
	}
	return &snapshot, nil
}

// List returns stored snapshot IDs, most recent first.
func (s *FileStore) List(_ context.Context) ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("backup: failed to list snapshots: %w", err)
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		names = append(names, entry.Name())
	}
	sort.Sort(sort.Reverse(sort.StringSlice(names)))

	ids := make([]string, 0, len(names))
	for _, name := range names {
		base := strings.TrimSuffix(name, ".json")
		if idx := strings.Index(base, "_"); idx >= 0 {
			ids = append(ids, base[idx+1:])
		}
	}
	return ids, nil
}

func (s *FileStore) find(id string) (string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return "", fmt.Errorf("backup: failed to list snapshots: %w", err)
	}
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), "_"+id+".json") {
			return filepath.Join(s.dir, entry.Name()), nil
		}
	}
	return "", fmt.Errorf("%w: %s", ErrSnapshotNotFound, id)
}
