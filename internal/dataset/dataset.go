package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/harees/url-classifier/internal/core"
)

const (
	urlColumn      = "url"
	categoryColumn = "category"
)

var (
	// ErrMissingColumn is returned when the header lacks URL or Category
	ErrMissingColumn = errors.New("dataset header must contain URL and Category columns")
	// ErrEmpty is returned when the source has no usable rows
	ErrEmpty = errors.New("dataset contains no entries")
)

// Dataset is an immutable mapping from normalized URL keys to trust categories
type Dataset struct {
	entries map[string]core.TrustCategory
	skipped int
}

// Row is one line of the reference table
type Row struct {
	URL      string
	Category string
}

// New builds a dataset from rows, normalizing keys the same way lookups do.
// Later rows overwrite earlier ones.
func New(rows ...Row) *Dataset {
	d := &Dataset{entries: make(map[string]core.TrustCategory, len(rows))}
	for _, row := range rows {
		d.add(row.URL, row.Category)
	}
	return d
}

func (d *Dataset) add(rawURL, category string) bool {
	key := core.NormalizeKey(rawURL)
	if key == "" {
		d.skipped++
		return false
	}
	d.entries[key] = core.ParseTrustCategory(category)
	return true
}

// Load reads a CSV document with a header row containing URL and Category
func Load(r io.Reader) (*Dataset, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		if err == io.EOF {
			return nil, ErrEmpty
		}
		return nil, fmt.Errorf("failed to read dataset header: %w", err)
	}

	urlIdx, categoryIdx := -1, -1
	for i, name := range header {
		switch strings.ToLower(strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))) {
		case urlColumn:
			urlIdx = i
		case categoryColumn:
			categoryIdx = i
		}
	}
	if urlIdx < 0 || categoryIdx < 0 {
		return nil, ErrMissingColumn
	}

	d := &Dataset{entries: make(map[string]core.TrustCategory)}
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to parse dataset: %w", err)
		}
		d.add(record[urlIdx], record[categoryIdx])
	}

	if len(d.entries) == 0 {
		return nil, ErrEmpty
	}
	return d, nil
}

// LoadFile reads a CSV dataset from disk
func LoadFile(path string) (*Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open dataset: %w", err)
	}
	defer f.Close()

	d, err := Load(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return d, nil
}

// Lookup returns the category stored under a normalized key
func (d *Dataset) Lookup(key string) (core.TrustCategory, bool) {
	if d == nil {
		return "", false
	}
	c, ok := d.entries[key]
	return c, ok
}

// Len returns the number of distinct keys
func (d *Dataset) Len() int {
	if d == nil {
		return 0
	}
	return len(d.entries)
}

// Skipped returns how many rows had no URL
func (d *Dataset) Skipped() int {
	if d == nil {
		return 0
	}
	return d.skipped
}

// Counts returns the number of entries per category
func (d *Dataset) Counts() map[core.TrustCategory]int {
	counts := make(map[core.TrustCategory]int)
	if d == nil {
		return counts
	}
	for _, c := range d.entries {
		counts[c]++
	}
	return counts
}
