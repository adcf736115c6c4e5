// Package query filters, sorts, paginates and summarises a beer snapshot for
// the read-side endpoints.
package query

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// Page sizes for beers queries.
const (
	DefaultLimit = 50
	MaxLimit     = 200
)

// SortField names a sortable beer attribute. The zero value keeps menu order.
type SortField string

const (
	SortMenu    SortField = ""
	SortName    SortField = "name"
	SortABV     SortField = "abv"
	SortIBU     SortField = "ibu"
	SortRating  SortField = "rating"
	SortBrewery SortField = "brewery"
	SortStyle   SortField = "style"
)

var sortFields = map[string]SortField{
	"name":    SortName,
	"abv":     SortABV,
	"ibu":     SortIBU,
	"rating":  SortRating,
	"brewery": SortBrewery,
	"style":   SortStyle,
}

// Params are the filter, sort and paging options of a beers query.
type Params struct {
	Category    string
	Subcategory string
	Style       string
	Brewery     string
	Search      string
	MinABV      *float64
	MaxABV      *float64
	MinRating   *float64
	Sort        SortField
	Desc        bool
	Page        int
	Limit       int
}

// DefaultParams returns the first page in menu order with no filters.
func DefaultParams() Params {
	return Params{Page: 1, Limit: DefaultLimit}
}

// ParseParams reads query parameters. Unknown keys are ignored. A page below 1
// is treated as 1 and a limit above MaxLimit is capped.
func ParseParams(values url.Values) (Params, error) {
	p := DefaultParams()
	p.Category = strings.TrimSpace(values.Get("category"))
	p.Subcategory = strings.TrimSpace(values.Get("subcategory"))
	p.Style = strings.TrimSpace(values.Get("style"))
	p.Brewery = strings.TrimSpace(values.Get("brewery"))
	p.Search = strings.TrimSpace(values.Get("q"))

	var err error
	if p.MinABV, err = optionalFloat(values, "min_abv"); err != nil {
		return Params{}, err
	}
	if p.MaxABV, err = optionalFloat(values, "max_abv"); err != nil {
		return Params{}, err
	}
	if p.MinRating, err = optionalFloat(values, "min_rating"); err != nil {
		return Params{}, err
	}

	if raw := strings.ToLower(strings.TrimSpace(values.Get("sort"))); raw != "" {
		field, ok := sortFields[raw]
		if !ok {
			return Params{}, fmt.Errorf("invalid sort %q", raw)
		}
		p.Sort = field
	}
	switch order := strings.ToLower(strings.TrimSpace(values.Get("order"))); order {
	case "", "asc":
	case "desc":
		p.Desc = true
	default:
		return Params{}, fmt.Errorf("invalid order %q", order)
	}

	if p.Page, err = optionalInt(values, "page", 1); err != nil {
		return Params{}, err
	}
	if p.Limit, err = optionalInt(values, "limit", DefaultLimit); err != nil {
		return Params{}, err
	}
	p.normalize()
	return p, nil
}

// ParseMap is ParseParams for a plain key/value map.
func ParseMap(m map[string]string) (Params, error) {
	values := make(url.Values, len(m))
	for k, v := range m {
		values.Set(k, v)
	}
	return ParseParams(values)
}

func (p *Params) normalize() {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.Limit < 1 {
		p.Limit = DefaultLimit
	}
	if p.Limit > MaxLimit {
		p.Limit = MaxLimit
	}
}

func optionalFloat(values url.Values, key string) (*float64, error) {
	raw := strings.TrimSpace(values.Get(key))
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid %s %q", key, raw)
	}
	return &v, nil
}

func optionalInt(values url.Values, key string, def int) (int, error) {
	raw := strings.TrimSpace(values.Get(key))
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q", key, raw)
	}
	return v, nil
}
