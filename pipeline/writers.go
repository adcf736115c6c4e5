package pipeline

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"sync"

	"github.com/aluiziolira/go-beer-menu/models"
)

var csvHeader = []string{
	"name", "beer_url", "image_url", "style", "brewery", "brewery_url", "category",
	"subcategory", "abv", "ibu", "rating", "container", "source_menu_url",
}

// CSVWriter writes beer records to CSV. Null fields are empty cells.
type CSVWriter struct {
	file   *os.File
	writer *csv.Writer
	mu     sync.Mutex
}

// NewCSVWriter initialises a CSV writer and writes the header row.
func NewCSVWriter(filename string) (*CSVWriter, error) {
	if err := ensureDir(filename); err != nil {
		return nil, err
	}

	f, err := os.Create(filename)
	if err != nil {
		return nil, fmt.Errorf("create csv file: %w", err)
	}

	writer := csv.NewWriter(f)
	if err := writer.Write(csvHeader); err != nil {
		f.Close()
		return nil, fmt.Errorf("write csv header: %w", err)
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		f.Close()
		return nil, fmt.Errorf("flush csv header: %w", err)
	}

	return &CSVWriter{
		file:   f,
		writer: writer,
	}, nil
}

// Write appends beers to the CSV output.
func (cw *CSVWriter) Write(beers []models.BeerRecord) error {
	cw.mu.Lock()
	defer cw.mu.Unlock()

	for i := range beers {
		b := &beers[i]
		record := []string{
			b.Name,
			b.BeerURL,
			stringOrEmpty(b.ImageURL),
			stringOrEmpty(b.Style),
			stringOrEmpty(b.Brewery),
			stringOrEmpty(b.BreweryURL),
			b.Category,
			stringOrEmpty(b.Subcategory),
			formatFloat(b.ABV),
			formatInt(b.IBU),
			formatFloat(b.Rating),
			stringOrEmpty(b.Container),
			b.SourceMenuURL,
		}
		if err := cw.writer.Write(record); err != nil {
			return fmt.Errorf("write csv record: %w", err)
		}
	}
	cw.writer.Flush()
	if err := cw.writer.Error(); err != nil {
		return fmt.Errorf("flush csv records: %w", err)
	}
	return nil
}

// Close flushes and closes the file handle.
func (cw *CSVWriter) Close() error {
	cw.mu.Lock()
	defer cw.mu.Unlock()

	cw.writer.Flush()
	if err := cw.writer.Error(); err != nil {
		cw.file.Close()
		return fmt.Errorf("flush csv writer: %w", err)
	}
	return cw.file.Close()
}

// ExportCSV writes beers to filename, replacing it.
func ExportCSV(filename string, beers []models.BeerRecord) error {
	w, err := NewCSVWriter(filename)
	if err != nil {
		return err
	}
	if err := w.Write(beers); err != nil {
		w.Close()
		return err
	}
	return w.Close()
}

func stringOrEmpty(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func formatFloat(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}

func formatInt(v *int) string {
	if v == nil {
		return ""
	}
	return strconv.Itoa(*v)
}
