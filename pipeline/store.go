package pipeline

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/aluiziolira/go-beer-menu/models"
)

// ErrSnapshotNotFound is returned by Load when no snapshot has been written yet.
var ErrSnapshotNotFound = errors.New("snapshot: not found")

// rename is swapped in tests to simulate a failed replace.
var rename = os.Rename

// SnapshotStore persists the current beer snapshot.
type SnapshotStore interface {
	Load() (*models.ScrapeSnapshot, error)
	Save(snapshot *models.ScrapeSnapshot) error
}

// FileStore keeps the snapshot as a JSON file. Save moves the current file to
// PreviousPath before replacing it, so the changelog step can diff them.
type FileStore struct {
	Path         string
	PreviousPath string
}

// NewFileStore returns a store for path. previousPath may be empty to disable
// keeping the previous snapshot.
func NewFileStore(path, previousPath string) *FileStore {
	return &FileStore{Path: path, PreviousPath: previousPath}
}

// Load reads the current snapshot.
func (s *FileStore) Load() (*models.ScrapeSnapshot, error) {
	return loadSnapshot(s.Path)
}

// LoadPrevious reads the snapshot moved aside by the last Save.
func (s *FileStore) LoadPrevious() (*models.ScrapeSnapshot, error) {
	if s.PreviousPath == "" {
		return nil, ErrSnapshotNotFound
	}
	return loadSnapshot(s.PreviousPath)
}

// Save replaces the snapshot atomically. The current file is copied to
// PreviousPath and the new one renamed over it, so readers always find a
// complete snapshot at Path, even when Save fails.
func (s *FileStore) Save(snapshot *models.ScrapeSnapshot) error {
	if snapshot == nil {
		return fmt.Errorf("snapshot is nil")
	}

	tmpName, err := writeTemp(s.Path, snapshot)
	if err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}
	defer os.Remove(tmpName)

	if s.PreviousPath != "" {
		if err := copyAtomic(s.Path, s.PreviousPath); err != nil {
			return fmt.Errorf("keep previous snapshot: %w", err)
		}
	}

	if err := rename(tmpName, s.Path); err != nil {
		return fmt.Errorf("write snapshot: rename temp file: %w", err)
	}
	return nil
}

// copyAtomic copies src over dst through a temp file. A missing src is not an
// error.
func copyAtomic(src, dst string) error {
	data, err := os.ReadFile(src)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return err
	}
	tmpName, err := writeTempBytes(dst, data)
	if err != nil {
		return err
	}
	defer os.Remove(tmpName)
	return rename(tmpName, dst)
}

func loadSnapshot(path string) (*models.ScrapeSnapshot, error) {
	var snapshot models.ScrapeSnapshot
	if err := readJSON(path, &snapshot); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrSnapshotNotFound
		}
		return nil, fmt.Errorf("read snapshot %s: %w", path, err)
	}
	return &snapshot, nil
}

func readJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}

// writeJSONAtomic writes v as indented JSON to a temp file next to path and
// renames it into place.
func writeJSONAtomic(path string, v any) error {
	tmpName, err := writeTemp(path, v)
	if err != nil {
		return err
	}
	defer os.Remove(tmpName)

	if err := rename(tmpName, path); err != nil {
		return fmt.Errorf("rename temp file: %w", err)
	}
	return nil
}

// writeTemp encodes v into a synced temp file in path's directory and returns
// its name.
func writeTemp(path string, v any) (string, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode json: %w", err)
	}
	return writeTempBytes(path, append(data, '\n'))
}

func writeTempBytes(path string, data []byte) (string, error) {
	if err := ensureDir(path); err != nil {
		return "", err
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return "", fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return "", fmt.Errorf("sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return "", fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		os.Remove(tmpName)
		return "", fmt.Errorf("chmod temp file: %w", err)
	}
	return tmpName, nil
}

func ensureDir(filename string) error {
	dir := filepath.Dir(filename)
	if dir == "" || dir == "." {
		return nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create directory %q: %w", dir, err)
	}
	return nil
}
