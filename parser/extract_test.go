package parser

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/aluiziolira/go-beer-menu/models"
)

const testPageURL = "https://untappd.com/v/the-hop-cellar/8675309?menu_id=101"

type fixtureItem struct {
	href        string
	name        string
	img         string
	style       string
	meta        string
	brewery     string
	breweryHref string
	rating      string
	container   string
}

func (f fixtureItem) html() string {
	var b strings.Builder
	b.WriteString(`<li class="menu-item">`)
	if f.img != "" {
		fmt.Fprintf(&b, `<div class="beer-label"><a href="%s"><img src="%s" alt=""></a></div>`, f.href, f.img)
	}
	b.WriteString(`<div class="beer-info"><h5>`)
	if f.href != "" {
		fmt.Fprintf(&b, `<a href="%s">%s</a>`, f.href, f.name)
	} else {
		b.WriteString(f.name)
	}
	if f.style != "" {
		fmt.Fprintf(&b, ` <em>%s</em>`, f.style)
	}
	b.WriteString(`</h5><h6>`)
	if f.meta != "" {
		fmt.Fprintf(&b, `<span>%s</span>`, f.meta)
	}
	if f.brewery != "" {
		fmt.Fprintf(&b, ` &bull; <a href="%s">%s</a>`, f.breweryHref, f.brewery)
	}
	b.WriteString(`</h6></div>`)
	if f.rating != "" {
		fmt.Fprintf(&b, `<div class="beer-rating"><div class="caps" data-rating="%s"></div></div>`, f.rating)
	}
	if f.container != "" {
		fmt.Fprintf(&b, `<div class="beer-containers"><p>%s</p></div>`, f.container)
	}
	b.WriteString(`</li>`)
	return b.String()
}

func beer(id int) fixtureItem {
	return fixtureItem{
		href:        fmt.Sprintf("/b/brewery-beer-%d/%d", id, id),
		name:        fmt.Sprintf("Beer %d", id),
		img:         fmt.Sprintf("https://assets.untappd.com/site/beer_logos/beer-%d.jpeg", id),
		style:       "IPA - American",
		meta:        "6.5% ABV • 65 IBU",
		brewery:     "Test Brewing Co.",
		breweryHref: "/w/test-brewing-co/42",
		rating:      "3.8712",
		container:   "16oz Draft  $7",
	}
}

func flatPage(items []fixtureItem, activity []fixtureItem) string {
	var b strings.Builder
	b.WriteString(`<html><body><div class="menu-area"><ul class="menu-section-list">`)
	for _, it := range items {
		b.WriteString(it.html())
	}
	b.WriteString(`</ul></div><div id="activity-feed"><ul>`)
	for _, it := range activity {
		b.WriteString(it.html())
	}
	b.WriteString(`</ul></div></body></html>`)
	return b.String()
}

type fixtureSection struct {
	header string
	items  []fixtureItem
}

func sectionedPage(sections []fixtureSection, stray []fixtureItem) string {
	var b strings.Builder
	b.WriteString(`<html><body>`)
	for _, sec := range sections {
		b.WriteString(`<div class="menu-section"><div class="menu-section-header">`)
		if sec.header != "" {
			fmt.Fprintf(&b, `<h4>%s</h4><p>Some description</p>`, sec.header)
		}
		b.WriteString(`</div><ul class="menu-section-list">`)
		for _, it := range sec.items {
			b.WriteString(it.html())
		}
		b.WriteString(`</ul></div>`)
	}
	for _, it := range stray {
		b.WriteString(it.html())
	}
	b.WriteString(`</body></html>`)
	return b.String()
}

func newTestExtractor(t *testing.T, onWarnings func(*models.BeerRecord, []string)) *Extractor {
	t.Helper()
	e, err := NewExtractor(ExtractorOptions{
		BaseURL:           "https://untappd.com",
		SectionedCategory: "Bottles & Cans",
		Logger:            slog.New(slog.NewTextHandler(io.Discard, nil)),
		OnWarnings:        onWarnings,
	})
	if err != nil {
		t.Fatalf("new extractor: %v", err)
	}
	return e
}

func TestExtractFlatLayouts(t *testing.T) {
	e := newTestExtractor(t, nil)

	for _, category := range []string{"On Tap", "Cellar", "Coming Soon"} {
		t.Run(category, func(t *testing.T) {
			html := flatPage([]fixtureItem{beer(1), beer(2)}, []fixtureItem{beer(99), beer(98)})
			records, err := e.ExtractBeersFromPage(html, category, testPageURL)
			if err != nil {
				t.Fatalf("extract: %v", err)
			}
			if len(records) != 2 {
				t.Fatalf("records = %d, want 2", len(records))
			}
			for _, rec := range records {
				if strings.Contains(rec.BeerURL, "/99") || strings.Contains(rec.BeerURL, "/98") {
					t.Fatalf("activity feed item extracted: %s", rec.BeerURL)
				}
				if rec.Category != category || rec.Subcategory != nil {
					t.Fatalf("category=%q subcategory=%v", rec.Category, rec.Subcategory)
				}
				if rec.SourceMenuURL != testPageURL {
					t.Fatalf("source menu url = %q", rec.SourceMenuURL)
				}
			}
		})
	}
}

func TestExtractSectionedLayout(t *testing.T) {
	e := newTestExtractor(t, nil)
	html := sectionedPage([]fixtureSection{
		{header: `IPAs <span>(2 Items)</span>`, items: []fixtureItem{beer(1), beer(2)}},
		{header: `Stouts (1 Item)`, items: []fixtureItem{beer(3)}},
		{header: "", items: []fixtureItem{beer(4)}},
	}, []fixtureItem{beer(5)})

	records, err := e.ExtractBeersFromPage(html, "Bottles & Cans", testPageURL)
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if len(records) != 4 {
		t.Fatalf("records = %d, want 4 (items outside sections ignored)", len(records))
	}

	want := []string{"IPAs", "IPAs", "Stouts", ""}
	for i, rec := range records {
		got := ""
		if rec.Subcategory != nil {
			got = *rec.Subcategory
		}
		if got != want[i] {
			t.Fatalf("record %d (%s) subcategory = %q, want %q", i, rec.Name, got, want[i])
		}
	}
	if records[3].Subcategory != nil {
		t.Fatalf("section without header should yield nil subcategory")
	}
}

func TestExtractFields(t *testing.T) {
	e := newTestExtractor(t, nil)
	records, err := e.ExtractBeersFromPage(flatPage([]fixtureItem{beer(7)}, nil), "On Tap", testPageURL)
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("records = %d, want 1", len(records))
	}
	rec := records[0]

	if rec.Name != "Beer 7" {
		t.Fatalf("name = %q", rec.Name)
	}
	if rec.BeerURL != "https://untappd.com/b/brewery-beer-7/7" {
		t.Fatalf("beer url = %q", rec.BeerURL)
	}
	if rec.ImageURL == nil || *rec.ImageURL != "https://assets.untappd.com/site/beer_logos/beer-7.jpeg" {
		t.Fatalf("image url = %v", deref(rec.ImageURL))
	}
	if rec.Style == nil || *rec.Style != "IPA - American" {
		t.Fatalf("style = %v", deref(rec.Style))
	}
	if rec.Brewery == nil || *rec.Brewery != "Test Brewing Co." {
		t.Fatalf("brewery = %v", deref(rec.Brewery))
	}
	if rec.BreweryURL == nil || *rec.BreweryURL != "https://untappd.com/w/test-brewing-co/42" {
		t.Fatalf("brewery url = %v", deref(rec.BreweryURL))
	}
	if rec.ABV == nil || *rec.ABV != 6.5 {
		t.Fatalf("abv = %v", rec.ABV)
	}
	if rec.IBU == nil || *rec.IBU != 65 {
		t.Fatalf("ibu = %v", rec.IBU)
	}
	if rec.Rating == nil || *rec.Rating != 3.87 {
		t.Fatalf("rating = %v", rec.Rating)
	}
	if rec.Container == nil || *rec.Container != "16oz Draft $7" {
		t.Fatalf("container = %v", deref(rec.Container))
	}
}

func TestExtractBreweryFallbackHref(t *testing.T) {
	e := newTestExtractor(t, nil)
	item := beer(8)
	item.breweryHref = "/brewery/4242"
	records, err := e.ExtractBeersFromPage(flatPage([]fixtureItem{item}, nil), "On Tap", testPageURL)
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if records[0].BreweryURL == nil || *records[0].BreweryURL != "https://untappd.com/brewery/4242" {
		t.Fatalf("brewery url = %v", deref(records[0].BreweryURL))
	}
}

func TestExtractMissingFieldsAreNil(t *testing.T) {
	e := newTestExtractor(t, nil)
	bare := fixtureItem{href: "/b/plain/1", name: "Plain Lager"}
	records, err := e.ExtractBeersFromPage(flatPage([]fixtureItem{bare}, nil), "Cellar", testPageURL)
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("records = %d, want 1", len(records))
	}
	rec := records[0]
	if rec.ABV != nil || rec.IBU != nil || rec.Rating != nil || rec.ImageURL != nil {
		t.Fatalf("missing fields should be nil: %+v", rec)
	}
	if rec.Style != nil || rec.Brewery != nil || rec.BreweryURL != nil || rec.Container != nil {
		t.Fatalf("missing strings should be nil: %+v", rec)
	}

	raw, err := json.Marshal(rec)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	for _, field := range []string{`"abv":null`, `"ibu":null`, `"rating":null`, `"image_url":null`} {
		if !bytes.Contains(raw, []byte(field)) {
			t.Fatalf("json %s missing %s", raw, field)
		}
	}
}

func TestExtractSkipsNonBeersAndDedupesPage(t *testing.T) {
	e := newTestExtractor(t, nil)
	noLink := fixtureItem{name: "Cider of the Day"}
	shortName := fixtureItem{href: "/b/x/55", name: "A"}
	dup := beer(1)
	dup.name = "Beer 1 again"

	html := flatPage([]fixtureItem{beer(1), noLink, beer(2), shortName, dup, beer(3)}, nil)
	records, err := e.ExtractBeersFromPage(html, "On Tap", testPageURL)
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("records = %d, want 3", len(records))
	}
	if records[0].Name != "Beer 1" {
		t.Fatalf("first occurrence should win, got %q", records[0].Name)
	}
	for i, want := range []string{"Beer 1", "Beer 2", "Beer 3"} {
		if records[i].Name != want {
			t.Fatalf("record %d = %q, want %q", i, records[i].Name, want)
		}
	}
}

func TestExtractIdempotent(t *testing.T) {
	e := newTestExtractor(t, nil)
	html := sectionedPage([]fixtureSection{
		{header: "IPAs (2 Items)", items: []fixtureItem{beer(1), beer(2)}},
		{header: "Sours (1 Item)", items: []fixtureItem{beer(3)}},
	}, nil)

	first, err := e.ExtractBeersFromPage(html, "Bottles & Cans", testPageURL)
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	second, err := e.ExtractBeersFromPage(html, "Bottles & Cans", testPageURL)
	if err != nil {
		t.Fatalf("extract: %v", err)
	}

	a, _ := json.Marshal(first)
	b, _ := json.Marshal(second)
	if !bytes.Equal(a, b) {
		t.Fatalf("extraction not deterministic:\n%s\n%s", a, b)
	}
}

func TestExtractOutOfRangeRatingKept(t *testing.T) {
	var warned []string
	e := newTestExtractor(t, func(_ *models.BeerRecord, warnings []string) {
		warned = append(warned, warnings...)
	})
	item := beer(9)
	item.rating = "7.2"

	records, err := e.ExtractBeersFromPage(flatPage([]fixtureItem{item}, nil), "On Tap", testPageURL)
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("record should be kept, got %d", len(records))
	}
	if records[0].Rating == nil || *records[0].Rating != 7.2 {
		t.Fatalf("rating = %v, want 7.2", records[0].Rating)
	}
	if len(warned) != 1 || !strings.Contains(warned[0], "rating") {
		t.Fatalf("warnings = %v, want one rating warning", warned)
	}
}

func TestRegisterCustomLayout(t *testing.T) {
	e := newTestExtractor(t, nil)
	e.Register("Guest Taps", FlatLayout{ItemSelector: ".tap-row"})

	html := `<html><body><div class="tap-row"><div class="beer-info"><a href="/b/guest/1">Guest Ale</a></div></div>` +
		flatPage([]fixtureItem{beer(1)}, nil) + `</body></html>`
	records, err := e.ExtractBeersFromPage(html, "Guest Taps", testPageURL)
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if len(records) != 1 || records[0].Name != "Guest Ale" {
		t.Fatalf("records = %+v, want only Guest Ale", records)
	}
}

func TestNewExtractorRejectsRelativeBase(t *testing.T) {
	if _, err := NewExtractor(ExtractorOptions{BaseURL: "/relative"}); err == nil {
		t.Fatalf("expected error for relative base url")
	}
}
