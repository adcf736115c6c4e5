package config

import (
	"fmt"
	"strings"

	"github.com/aluiziolira/go-beer-menu/models"
)

// ParsePages reads a "Label=URL;Label=URL" list. The first '=' splits label
// from URL so query strings survive.
func ParsePages(raw string) ([]models.MenuPage, error) {
	var pages []models.MenuPage
	for _, part := range strings.Split(raw, ";") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		label, pageURL, ok := strings.Cut(part, "=")
		if !ok {
			return nil, fmt.Errorf("menu page %q: expected Label=URL", part)
		}
		label = strings.TrimSpace(label)
		pageURL = strings.TrimSpace(pageURL)
		if label == "" || pageURL == "" {
			return nil, fmt.Errorf("menu page %q: label and URL are required", part)
		}
		pages = append(pages, models.MenuPage{Label: label, URL: pageURL})
	}
	if len(pages) == 0 {
		return nil, fmt.Errorf("no menu pages in %q", raw)
	}
	return pages, nil
}

// FormatPages is the inverse of ParsePages.
func FormatPages(pages []models.MenuPage) string {
	parts := make([]string, 0, len(pages))
	for _, page := range pages {
		parts = append(parts, page.Label+"="+page.URL)
	}
	return strings.Join(parts, ";")
}
