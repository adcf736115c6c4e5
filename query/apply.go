package query

import (
	"cmp"
	"slices"
	"strings"

	"github.com/aluiziolira/go-beer-menu/models"
)

// Page is one page of a beers query.
type Page struct {
	Beers      []models.BeerRecord `json:"beers"`
	Total      int                 `json:"total"`
	Page       int                 `json:"page"`
	Limit      int                 `json:"limit"`
	TotalPages int                 `json:"total_pages"`
}

// Apply filters, sorts and paginates beers. The input slice is not modified.
func Apply(beers []models.BeerRecord, p Params) Page {
	p.normalize()

	matched := make([]models.BeerRecord, 0, len(beers))
	for i := range beers {
		if p.matches(&beers[i]) {
			matched = append(matched, beers[i])
		}
	}

	if p.Sort != SortMenu {
		slices.SortStableFunc(matched, comparator(p.Sort, p.Desc))
	}

	total := len(matched)
	page := Page{
		Beers: []models.BeerRecord{},
		Total: total,
		Page:  p.Page,
		Limit: p.Limit,
	}
	if total == 0 {
		return page
	}
	page.TotalPages = (total + p.Limit - 1) / p.Limit

	// Past the last page; checked before multiplying so huge pages cannot overflow.
	if p.Page > page.TotalPages {
		return page
	}
	start := (p.Page - 1) * p.Limit
	end := min(start+p.Limit, total)
	page.Beers = matched[start:end]
	return page
}

func (p *Params) matches(b *models.BeerRecord) bool {
	if p.Category != "" && !strings.EqualFold(b.Category, p.Category) {
		return false
	}
	if p.Subcategory != "" && (b.Subcategory == nil || !strings.EqualFold(*b.Subcategory, p.Subcategory)) {
		return false
	}
	if p.Style != "" && !containsFold(b.Style, p.Style) {
		return false
	}
	if p.Brewery != "" && !containsFold(b.Brewery, p.Brewery) {
		return false
	}
	if p.Search != "" {
		if !containsFold(&b.Name, p.Search) && !containsFold(b.Brewery, p.Search) && !containsFold(b.Style, p.Search) {
			return false
		}
	}
	if p.MinABV != nil && (b.ABV == nil || *b.ABV < *p.MinABV) {
		return false
	}
	if p.MaxABV != nil && (b.ABV == nil || *b.ABV > *p.MaxABV) {
		return false
	}
	if p.MinRating != nil && (b.Rating == nil || *b.Rating < *p.MinRating) {
		return false
	}
	return true
}

func containsFold(s *string, sub string) bool {
	if s == nil {
		return false
	}
	return strings.Contains(strings.ToLower(*s), strings.ToLower(sub))
}

// comparator orders by field. Records missing the field sort last in both
// directions.
func comparator(field SortField, desc bool) func(a, b models.BeerRecord) int {
	return func(a, b models.BeerRecord) int {
		switch field {
		case SortName:
			return compareNullable(&a.Name, &b.Name, desc, compareFold)
		case SortBrewery:
			return compareNullable(a.Brewery, b.Brewery, desc, compareFold)
		case SortStyle:
			return compareNullable(a.Style, b.Style, desc, compareFold)
		case SortABV:
			return compareNullable(a.ABV, b.ABV, desc, cmp.Compare[float64])
		case SortRating:
			return compareNullable(a.Rating, b.Rating, desc, cmp.Compare[float64])
		case SortIBU:
			return compareNullable(a.IBU, b.IBU, desc, cmp.Compare[int])
		}
		return 0
	}
}

func compareNullable[T any](a, b *T, desc bool, compare func(x, y T) int) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return 1
	case b == nil:
		return -1
	}
	c := compare(*a, *b)
	if desc {
		return -c
	}
	return c
}

func compareFold(a, b string) int {
	return strings.Compare(strings.ToLower(a), strings.ToLower(b))
}
