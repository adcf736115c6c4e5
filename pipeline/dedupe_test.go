package pipeline

import (
	"testing"

	"github.com/aluiziolira/go-beer-menu/models"
)

func strp(s string) *string { return &s }

func TestDeduperCompositeKey(t *testing.T) {
	d, err := NewDeduper(1000)
	if err != nil {
		t.Fatalf("new deduper: %v", err)
	}

	url := "https://untappd.com/b/x/1"
	inputs := []models.BeerRecord{
		{Name: "First", BeerURL: url, Category: "On Tap"},
		{Name: "Same key", BeerURL: url, Category: "On Tap"},
		{Name: "Other category", BeerURL: url, Category: "Cellar"},
		{Name: "Subcategory", BeerURL: url, Category: "Bottles & Cans", Subcategory: strp("IPAs")},
		{Name: "Other subcategory", BeerURL: url, Category: "Bottles & Cans", Subcategory: strp("Sours")},
		{Name: "Same sub again", BeerURL: url, Category: "Bottles & Cans", Subcategory: strp("IPAs")},
	}

	kept := 0
	for _, rec := range inputs {
		if d.Add(rec) {
			kept++
		}
	}

	if kept != 4 {
		t.Fatalf("kept = %d, want 4", kept)
	}
	if d.Duplicates() != 2 {
		t.Fatalf("duplicates = %d, want 2", d.Duplicates())
	}
	records := d.Records()
	if records[0].Name != "First" {
		t.Fatalf("first-seen should win, got %q", records[0].Name)
	}
	want := []string{"First", "Other category", "Subcategory", "Other subcategory"}
	for i, name := range want {
		if records[i].Name != name {
			t.Fatalf("record %d = %q, want %q", i, records[i].Name, name)
		}
	}
}

func TestDeduperNilAndEmptySubcategoryCollide(t *testing.T) {
	d, err := NewDeduper(10)
	if err != nil {
		t.Fatalf("new deduper: %v", err)
	}
	d.Add(models.BeerRecord{BeerURL: "https://untappd.com/b/x/1", Category: "On Tap"})
	if d.Add(models.BeerRecord{BeerURL: "https://untappd.com/b/x/1", Category: "On Tap", Subcategory: strp("")}) {
		t.Fatalf("nil and empty subcategory should share a key")
	}
}

func TestNewDeduperRejectsZeroSize(t *testing.T) {
	if _, err := NewDeduper(0); err == nil {
		t.Fatalf("expected error for zero size")
	}
}

func TestDeduperKeepsKeysPastInitialSize(t *testing.T) {
	d, err := NewDeduper(2)
	if err != nil {
		t.Fatalf("new deduper: %v", err)
	}

	for _, slug := range []string{"a", "b", "c", "a", "d", "b"} {
		d.Add(models.BeerRecord{BeerURL: "https://untappd.com/b/" + slug + "/1", Category: "On Tap"})
	}

	if d.Duplicates() != 2 {
		t.Fatalf("duplicates = %d, want 2", d.Duplicates())
	}
	if got := len(d.Records()); got != 4 {
		t.Fatalf("records = %d, want 4", got)
	}
}
