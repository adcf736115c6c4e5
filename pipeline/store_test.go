package pipeline

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/aluiziolira/go-beer-menu/models"
)

func testSnapshot(names ...string) *models.ScrapeSnapshot {
	beers := make([]models.BeerRecord, 0, len(names))
	for _, name := range names {
		beers = append(beers, models.BeerRecord{
			Name:     name,
			BeerURL:  "https://untappd.com/b/" + strings.ToLower(name) + "/1",
			Category: "On Tap",
		})
	}
	return &models.ScrapeSnapshot{
		Source:    "https://untappd.com/v/the-hop-cellar/8675309",
		FetchedAt: time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC),
		Count:     len(beers),
		Stats:     models.ScrapeStats{TotalFetched: len(beers), TotalValid: len(beers), ByCategory: map[string]int{"On Tap": len(beers)}},
		Beers:     beers,
	}
}

func TestFileStoreLoadMissing(t *testing.T) {
	store := NewFileStore(filepath.Join(t.TempDir(), "beers.json"), "")
	if _, err := store.Load(); !errors.Is(err, ErrSnapshotNotFound) {
		t.Fatalf("expected ErrSnapshotNotFound, got %v", err)
	}
	if _, err := store.LoadPrevious(); !errors.Is(err, ErrSnapshotNotFound) {
		t.Fatalf("expected ErrSnapshotNotFound for previous, got %v", err)
	}
}

func TestFileStoreSaveAndMoveAside(t *testing.T) {
	dir := t.TempDir()
	store := NewFileStore(filepath.Join(dir, "data", "beers.json"), filepath.Join(dir, "data", "beers.previous.json"))

	if err := store.Save(testSnapshot("Alpha", "Beta")); err != nil {
		t.Fatalf("first save: %v", err)
	}
	if _, err := store.LoadPrevious(); !errors.Is(err, ErrSnapshotNotFound) {
		t.Fatalf("first save should not create previous, got %v", err)
	}

	if err := store.Save(testSnapshot("Gamma")); err != nil {
		t.Fatalf("second save: %v", err)
	}

	current, err := store.Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if current.Count != 1 || current.Beers[0].Name != "Gamma" {
		t.Fatalf("current = %+v", current)
	}
	previous, err := store.LoadPrevious()
	if err != nil {
		t.Fatalf("load previous: %v", err)
	}
	if previous.Count != 2 {
		t.Fatalf("previous count = %d, want 2", previous.Count)
	}

	entries, err := os.ReadDir(filepath.Join(dir, "data"))
	if err != nil {
		t.Fatalf("read dir: %v", err)
	}
	for _, e := range entries {
		if strings.HasSuffix(e.Name(), ".tmp") {
			t.Fatalf("temp file left behind: %s", e.Name())
		}
	}
}

func TestFileStoreFailedReplaceKeepsCurrent(t *testing.T) {
	dir := t.TempDir()
	store := NewFileStore(filepath.Join(dir, "beers.json"), filepath.Join(dir, "beers.previous.json"))
	if err := store.Save(testSnapshot("Alpha", "Beta")); err != nil {
		t.Fatalf("first save: %v", err)
	}

	orig := rename
	t.Cleanup(func() { rename = orig })
	rename = func(oldpath, newpath string) error {
		if newpath == store.Path {
			return errors.New("disk full")
		}
		return orig(oldpath, newpath)
	}

	if err := store.Save(testSnapshot("Gamma")); err == nil {
		t.Fatalf("expected save to fail")
	}

	current, err := store.Load()
	if err != nil {
		t.Fatalf("current snapshot should survive a failed save: %v", err)
	}
	if current.Count != 2 || current.Beers[0].Name != "Alpha" {
		t.Fatalf("current = %+v", current)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read dir: %v", err)
	}
	for _, e := range entries {
		if strings.HasSuffix(e.Name(), ".tmp") {
			t.Fatalf("temp file left behind: %s", e.Name())
		}
	}
}

func TestFileStoreWritesPrettyJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "beers.json")
	if err := NewFileStore(path, "").Save(testSnapshot("Alpha")); err != nil {
		t.Fatalf("save: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !strings.Contains(string(data), "\n  \"source\": ") {
		t.Fatalf("snapshot not indented:\n%s", data)
	}

	var decoded map[string]any
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	for _, key := range []string{"source", "fetched_at", "count", "scrape_duration_seconds", "stats", "beers"} {
		if _, ok := decoded[key]; !ok {
			t.Fatalf("snapshot missing %q", key)
		}
	}
	beer := decoded["beers"].([]any)[0].(map[string]any)
	if v, ok := beer["abv"]; !ok || v != nil {
		t.Fatalf("abv should be present and null, got %v (present=%v)", v, ok)
	}
}

func TestFileStoreLoadCorrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "beers.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	_, err := NewFileStore(path, "").Load()
	if err == nil || errors.Is(err, ErrSnapshotNotFound) {
		t.Fatalf("expected decode error, got %v", err)
	}
}
