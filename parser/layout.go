package parser

import (
	"github.com/PuerkitoBio/goquery"
)

// Default selectors for the venue menu markup.
const (
	DefaultItemSelector     = ".menu-item"
	DefaultActivitySelector = "#activity-feed, .activity-feed, .activity"
	DefaultSectionSelector  = ".menu-section"
)

// DefaultHeaderSelectors are tried in order to find a section's title.
var DefaultHeaderSelectors = []string{".menu-section-header h4", ".menu-section-header h3", ".menu-section-header"}

// Layout walks the menu items of one page layout. visit receives each item
// and the subcategory it belongs to, if any.
type Layout interface {
	Walk(doc *goquery.Document, visit func(item *goquery.Selection, subcategory *string))
}

// FlatLayout lists items across the whole page without sections. Items inside
// ExcludeWithin are not menu entries.
type FlatLayout struct {
	ItemSelector  string
	ExcludeWithin string
}

// DefaultFlatLayout returns the layout shared by most menu pages.
func DefaultFlatLayout() FlatLayout {
	return FlatLayout{
		ItemSelector:  DefaultItemSelector,
		ExcludeWithin: DefaultActivitySelector,
	}
}

// Walk implements Layout.
func (l FlatLayout) Walk(doc *goquery.Document, visit func(*goquery.Selection, *string)) {
	doc.Find(l.ItemSelector).Each(func(_ int, item *goquery.Selection) {
		if l.ExcludeWithin != "" && item.Closest(l.ExcludeWithin).Length() > 0 {
			return
		}
		visit(item, nil)
	})
}

// SectionedLayout lists items grouped under titled sections. Every item takes
// the title of its enclosing section as subcategory.
type SectionedLayout struct {
	SectionSelector string
	HeaderSelectors []string
	ItemSelector    string
}

// DefaultSectionedLayout returns the layout of the nested menu page.
func DefaultSectionedLayout() SectionedLayout {
	return SectionedLayout{
		SectionSelector: DefaultSectionSelector,
		HeaderSelectors: DefaultHeaderSelectors,
		ItemSelector:    DefaultItemSelector,
	}
}

// Walk implements Layout.
func (l SectionedLayout) Walk(doc *goquery.Document, visit func(*goquery.Selection, *string)) {
	doc.Find(l.SectionSelector).Each(func(_ int, section *goquery.Selection) {
		subcategory := CleanSubcategory(l.header(section))
		section.Find(l.ItemSelector).Each(func(_ int, item *goquery.Selection) {
			visit(item, subcategory)
		})
	})
}

func (l SectionedLayout) header(section *goquery.Selection) string {
	for _, sel := range l.HeaderSelectors {
		if node := section.Find(sel).First(); node.Length() > 0 {
			return node.Text()
		}
	}
	return ""
}
