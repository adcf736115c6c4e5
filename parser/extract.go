package parser

import (
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/aluiziolira/go-beer-menu/models"
)

// ItemSelectors locate the fields of a single menu item. Slices are fallbacks
// tried in order.
type ItemSelectors struct {
	Info       []string
	DetailLink string
	Image      []string
	ImageAttrs []string
	Style      []string
	Brewery    []string
	Rating     []string
	RatingAttr string
	Container  []string
}

// DefaultItemSelectors matches the venue menu item markup.
func DefaultItemSelectors() ItemSelectors {
	return ItemSelectors{
		Info:       []string{".beer-info", ".beer-details"},
		DetailLink: `a[href*="/b/"]`,
		Image:      []string{".beer-label img", "img"},
		ImageAttrs: []string{"src", "data-src", "data-original"},
		Style:      []string{"em", ".beer-style"},
		Brewery:    []string{`a[href*="/w/"]`, `a[href*="/brewery/"]`},
		Rating:     []string{".caps[data-rating]", "[data-rating]"},
		RatingAttr: "data-rating",
		Container:  []string{".beer-containers", ".container-list"},
	}
}

// ExtractorOptions configures an Extractor.
type ExtractorOptions struct {
	// BaseURL resolves relative beer and brewery hrefs.
	BaseURL string
	// BeerHost is the host every beer URL must be on. Defaults to BaseURL's host.
	BeerHost string
	// SectionedCategory, when set, gets the sectioned layout.
	SectionedCategory string
	Selectors         *ItemSelectors
	Logger            *slog.Logger
	// OnWarnings is called for every record that failed validation.
	OnWarnings func(rec *models.BeerRecord, warnings []string)
}

// Extractor turns menu page HTML into beer records using a layout per category.
type Extractor struct {
	base       *url.URL
	beerHost   string
	selectors  ItemSelectors
	layouts    map[string]Layout
	fallback   Layout
	logger     *slog.Logger
	onWarnings func(*models.BeerRecord, []string)
}

// NewExtractor builds an extractor with the flat layout as default.
func NewExtractor(opts ExtractorOptions) (*Extractor, error) {
	base, err := url.Parse(opts.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if !base.IsAbs() || base.Host == "" {
		return nil, fmt.Errorf("base url %q must be absolute", opts.BaseURL)
	}

	beerHost := opts.BeerHost
	if beerHost == "" {
		beerHost = base.Host
	}
	selectors := DefaultItemSelectors()
	if opts.Selectors != nil {
		selectors = *opts.Selectors
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	e := &Extractor{
		base:       base,
		beerHost:   beerHost,
		selectors:  selectors,
		layouts:    make(map[string]Layout),
		fallback:   DefaultFlatLayout(),
		logger:     logger,
		onWarnings: opts.OnWarnings,
	}
	if opts.SectionedCategory != "" {
		e.Register(opts.SectionedCategory, DefaultSectionedLayout())
	}
	return e, nil
}

// Register assigns a layout to a category label.
func (e *Extractor) Register(category string, layout Layout) {
	e.layouts[category] = layout
}

func (e *Extractor) layoutFor(category string) Layout {
	if layout, ok := e.layouts[category]; ok {
		return layout
	}
	return e.fallback
}

// ExtractBeersFromPage returns the beers listed in one menu page, in page
// order, keeping the first record for each beer URL. Items without a beer
// link are skipped.
func (e *Extractor) ExtractBeersFromPage(html, category, pageURL string) ([]models.BeerRecord, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("parse menu page %s: %w", pageURL, err)
	}

	records := make([]models.BeerRecord, 0)
	seen := make(map[string]struct{})
	skipped := 0
	e.layoutFor(category).Walk(doc, func(item *goquery.Selection, subcategory *string) {
		rec, ok := e.ExtractBeerFromMenuItem(item, category, subcategory, pageURL)
		if !ok {
			skipped++
			return
		}
		if _, dup := seen[rec.BeerURL]; dup {
			e.logger.Debug("duplicate beer on page",
				slog.String("beer_url", rec.BeerURL),
				slog.String("category", category),
			)
			return
		}
		seen[rec.BeerURL] = struct{}{}
		records = append(records, rec)
	})

	e.logger.Debug("extracted menu page",
		slog.String("category", category),
		slog.String("url", pageURL),
		slog.Int("beers", len(records)),
		slog.Int("skipped", skipped),
	)
	return records, nil
}

// ExtractBeerFromMenuItem reads one menu item. It reports false when the item
// is not a beer: no detail link, or a name shorter than two characters.
func (e *Extractor) ExtractBeerFromMenuItem(item *goquery.Selection, category string, subcategory *string, pageURL string) (models.BeerRecord, bool) {
	sel := e.selectors

	info := firstMatch(item, sel.Info)
	if info == nil {
		info = item
	}

	link := detailLink(info, sel.DetailLink)
	if link == nil {
		link = detailLink(item, sel.DetailLink)
	}
	if link == nil {
		return models.BeerRecord{}, false
	}
	href, _ := link.Attr("href")
	beerURL := e.resolve(href)
	if beerURL == "" {
		return models.BeerRecord{}, false
	}

	name := collapseSpace(link.Text())
	if len([]rune(name)) < MinName {
		return models.BeerRecord{}, false
	}

	rec := models.BeerRecord{
		Name:          name,
		BeerURL:       beerURL,
		Category:      category,
		Subcategory:   subcategory,
		SourceMenuURL: pageURL,
	}

	if img := firstMatch(item, sel.Image); img != nil {
		for _, attr := range sel.ImageAttrs {
			if src, ok := img.Attr(attr); ok && strings.TrimSpace(src) != "" {
				rec.ImageURL = StringPtr(e.resolve(src))
				break
			}
		}
	}

	if style := firstMatch(info, sel.Style); style != nil {
		rec.Style = StringPtr(style.Text())
	}

	if brewery := firstMatch(item, sel.Brewery); brewery != nil {
		rec.Brewery = StringPtr(brewery.Text())
		if href, ok := brewery.Attr("href"); ok {
			rec.BreweryURL = StringPtr(e.resolve(href))
		}
	}

	text := info.Text()
	rec.ABV = ParseABV(text)
	rec.IBU = ParseIBU(text)

	if rating := firstMatch(item, sel.Rating); rating != nil {
		if raw, ok := rating.Attr(sel.RatingAttr); ok {
			rec.Rating = ParseRating(raw)
		}
	}

	if container := firstMatch(item, sel.Container); container != nil {
		rec.Container = StringPtr(container.Text())
	}

	rec = Normalize(rec)
	if warnings := Validate(&rec, e.beerHost); len(warnings) > 0 {
		e.logger.Warn("beer record failed validation",
			slog.String("beer_url", rec.BeerURL),
			slog.String("category", category),
			slog.Any("warnings", warnings),
		)
		if e.onWarnings != nil {
			e.onWarnings(&rec, warnings)
		}
	}
	return rec, true
}

func (e *Extractor) resolve(href string) string {
	href = strings.TrimSpace(href)
	if href == "" {
		return ""
	}
	ref, err := url.Parse(href)
	if err != nil {
		return ""
	}
	return e.base.ResolveReference(ref).String()
}

func firstMatch(s *goquery.Selection, selectors []string) *goquery.Selection {
	for _, sel := range selectors {
		if node := s.Find(sel).First(); node.Length() > 0 {
			return node
		}
	}
	return nil
}

// detailLink prefers the first beer link with visible text, since the label
// image is often wrapped in an empty link to the same page.
func detailLink(s *goquery.Selection, selector string) *goquery.Selection {
	links := s.Find(selector)
	if links.Length() == 0 {
		return nil
	}
	var found *goquery.Selection
	links.EachWithBreak(func(_ int, link *goquery.Selection) bool {
		if strings.TrimSpace(link.Text()) != "" {
			found = link
			return false
		}
		return true
	})
	if found == nil {
		found = links.First()
	}
	return found
}
