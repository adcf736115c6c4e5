// Package parser extracts beer records from venue menu markup and normalizes them.
package parser

import (
	"fmt"
	"math"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/aluiziolira/go-beer-menu/models"
)

// Bounds for the numeric fields of a record.
const (
	MaxABV    = 100.0
	MaxIBU    = 200
	MaxRating = 5.0
	MinName   = 2
)

var (
	abvPattern       = regexp.MustCompile(`(?i)(\d+(?:\.\d+)?)\s*%\s*ABV`)
	ibuPattern       = regexp.MustCompile(`(?i)(\d+(?:\.\d+)?)\s*IBU`)
	itemCountPattern = regexp.MustCompile(`(?i)\s*\(\s*\d+\s+items?\s*\)\s*$`)
)

// Validate reports every constraint the record breaks. It never fails: the
// caller logs the warnings and keeps the record.
func Validate(b *models.BeerRecord, beerHost string) []string {
	if b == nil {
		return []string{"record is nil"}
	}

	var warnings []string
	name := strings.TrimSpace(b.Name)
	switch {
	case name == "":
		warnings = append(warnings, "missing name")
	case len([]rune(name)) < MinName:
		warnings = append(warnings, fmt.Sprintf("name %q shorter than %d characters", name, MinName))
	}

	if strings.TrimSpace(b.BeerURL) == "" {
		warnings = append(warnings, "missing beer URL")
	} else if parsed, err := url.Parse(b.BeerURL); err != nil || !parsed.IsAbs() {
		warnings = append(warnings, fmt.Sprintf("beer URL %q is not absolute", b.BeerURL))
	} else if beerHost != "" && !strings.EqualFold(parsed.Host, beerHost) {
		warnings = append(warnings, fmt.Sprintf("beer URL %q not on %s", b.BeerURL, beerHost))
	}

	if b.ABV != nil && (*b.ABV < 0 || *b.ABV > MaxABV) {
		warnings = append(warnings, fmt.Sprintf("abv %v out of range 0-%v", *b.ABV, MaxABV))
	}
	if b.IBU != nil && (*b.IBU < 0 || *b.IBU > MaxIBU) {
		warnings = append(warnings, fmt.Sprintf("ibu %d out of range 0-%d", *b.IBU, MaxIBU))
	}
	if b.Rating != nil && (*b.Rating < 0 || *b.Rating > MaxRating) {
		warnings = append(warnings, fmt.Sprintf("rating %v out of range 0-%v", *b.Rating, MaxRating))
	}
	return warnings
}

// Normalize trims strings, nulls empty optional strings and rounds numeric
// fields. Out-of-range values are left as they are.
func Normalize(b models.BeerRecord) models.BeerRecord {
	b.Name = strings.TrimSpace(b.Name)
	b.BeerURL = strings.TrimSpace(b.BeerURL)
	b.Category = strings.TrimSpace(b.Category)
	b.SourceMenuURL = strings.TrimSpace(b.SourceMenuURL)

	b.ImageURL = CleanString(b.ImageURL)
	b.Style = CleanString(b.Style)
	b.Brewery = CleanString(b.Brewery)
	b.BreweryURL = CleanString(b.BreweryURL)
	b.Subcategory = CleanString(b.Subcategory)
	b.Container = CleanString(b.Container)

	if b.ABV != nil {
		v := RoundTo(*b.ABV, 2)
		b.ABV = &v
	}
	if b.Rating != nil {
		v := RoundTo(*b.Rating, 2)
		b.Rating = &v
	}
	return b
}

// CleanString trims s and returns nil when nothing is left.
func CleanString(s *string) *string {
	if s == nil {
		return nil
	}
	return StringPtr(*s)
}

// StringPtr returns a pointer to the trimmed, whitespace-collapsed value, or
// nil when it is empty.
func StringPtr(s string) *string {
	s = collapseSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

// CleanSubcategory strips a trailing "(12 Items)" count from a section header.
func CleanSubcategory(header string) *string {
	header = collapseSpace(header)
	header = itemCountPattern.ReplaceAllString(header, "")
	return StringPtr(header)
}

// ParseABV finds "<number>% ABV" in text.
func ParseABV(text string) *float64 {
	m := abvPattern.FindStringSubmatch(text)
	if m == nil {
		return nil
	}
	return parseFloat(m[1])
}

// ParseIBU finds "<number> IBU" in text and rounds it to an integer.
func ParseIBU(text string) *int {
	m := ibuPattern.FindStringSubmatch(text)
	if m == nil {
		return nil
	}
	v := parseFloat(m[1])
	if v == nil {
		return nil
	}
	rounded := int(math.Round(*v))
	return &rounded
}

// ParseRating reads a data-rating attribute value.
func ParseRating(attr string) *float64 {
	return parseFloat(attr)
}

// RoundTo rounds v to the given number of decimal places.
func RoundTo(v float64, places int) float64 {
	scale := math.Pow(10, float64(places))
	return math.Round(v*scale) / scale
}

func parseFloat(raw string) *float64 {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
