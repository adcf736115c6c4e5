package query

import (
	"cmp"
	"slices"
	"time"

	"github.com/aluiziolira/go-beer-menu/models"
	"github.com/aluiziolira/go-beer-menu/parser"
)

// DefaultTopN is how many styles and breweries Stats lists.
const DefaultTopN = 10

// Bucket is a name with its number of beers.
type Bucket struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// Summary describes one numeric attribute over the beers that carry it.
type Summary struct {
	Count int      `json:"count"`
	Avg   *float64 `json:"avg"`
	Min   *float64 `json:"min"`
	Max   *float64 `json:"max"`
}

// Stats aggregates a snapshot for the stats endpoint.
type Stats struct {
	Count         int                `json:"count"`
	FetchedAt     time.Time          `json:"fetched_at"`
	ByCategory    map[string]int     `json:"by_category"`
	BySubcategory map[string]int     `json:"by_subcategory"`
	TopStyles     []Bucket           `json:"top_styles"`
	TopBreweries  []Bucket           `json:"top_breweries"`
	ABV           Summary            `json:"abv"`
	IBU           Summary            `json:"ibu"`
	Rating        Summary            `json:"rating"`
	Scrape        models.ScrapeStats `json:"scrape"`
}

// ComputeStats summarises snapshot. topN <= 0 uses DefaultTopN.
func ComputeStats(snapshot *models.ScrapeSnapshot, topN int) Stats {
	if topN <= 0 {
		topN = DefaultTopN
	}
	stats := Stats{
		ByCategory:    map[string]int{},
		BySubcategory: map[string]int{},
		TopStyles:     []Bucket{},
		TopBreweries:  []Bucket{},
	}
	if snapshot == nil {
		return stats
	}
	stats.Count = len(snapshot.Beers)
	stats.FetchedAt = snapshot.FetchedAt
	stats.Scrape = snapshot.Stats

	styles := map[string]int{}
	breweries := map[string]int{}
	var abv, ibu, rating []float64
	for i := range snapshot.Beers {
		b := &snapshot.Beers[i]
		stats.ByCategory[b.Category]++
		if b.Subcategory != nil {
			stats.BySubcategory[*b.Subcategory]++
		}
		if b.Style != nil {
			styles[*b.Style]++
		}
		if b.Brewery != nil {
			breweries[*b.Brewery]++
		}
		if b.ABV != nil {
			abv = append(abv, *b.ABV)
		}
		if b.IBU != nil {
			ibu = append(ibu, float64(*b.IBU))
		}
		if b.Rating != nil {
			rating = append(rating, *b.Rating)
		}
	}

	stats.TopStyles = topBuckets(styles, topN)
	stats.TopBreweries = topBuckets(breweries, topN)
	stats.ABV = summarize(abv)
	stats.IBU = summarize(ibu)
	stats.Rating = summarize(rating)
	return stats
}

// topBuckets sorts by count descending, then name.
func topBuckets(counts map[string]int, n int) []Bucket {
	buckets := make([]Bucket, 0, len(counts))
	for name, count := range counts {
		buckets = append(buckets, Bucket{Name: name, Count: count})
	}
	slices.SortFunc(buckets, func(a, b Bucket) int {
		if c := cmp.Compare(b.Count, a.Count); c != 0 {
			return c
		}
		return cmp.Compare(a.Name, b.Name)
	})
	if len(buckets) > n {
		buckets = buckets[:n]
	}
	return buckets
}

func summarize(values []float64) Summary {
	if len(values) == 0 {
		return Summary{}
	}
	lo, hi := slices.Min(values), slices.Max(values)
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	avg := parser.RoundTo(sum/float64(len(values)), 2)
	return Summary{Count: len(values), Avg: &avg, Min: &lo, Max: &hi}
}
