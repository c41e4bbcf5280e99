package domain

import (
	"fmt"
	"slices"
	"strings"
	"time"
)

// SelectAll is the selection covering every country.
const SelectAll = "All"

// Selection is either All or one canonical country name.
type Selection struct {
	country string
}

// All selects the whole dataset.
func All() Selection { return Selection{} }

// Country selects a single country. An empty name or "All" selects everything.
func Country(name string) Selection {
	if name == SelectAll {
		return Selection{}
	}
	return Selection{country: name}
}

// IsAll reports whether the selection spans the whole dataset.
func (s Selection) IsAll() bool { return s.country == "" }

// Country returns the selected country, or "" for All.
func (s Selection) Country() string { return s.country }

func (s Selection) String() string {
	if s.IsAll() {
		return SelectAll
	}
	return s.country
}

// Dataset is the cleaned, read-only record set. It is safe for concurrent readers.
type Dataset struct {
	records   []GroupedRecord
	countries []string
	stats     CleanStats
	loadedAt  time.Time
}

// NewDataset wraps a clean result. The records are copied and sorted. Records
// for a country named SelectAll are discarded so the selector stays unambiguous.
func NewDataset(res CleanResult) *Dataset {
	records := slices.DeleteFunc(slices.Clone(res.Records), func(r GroupedRecord) bool {
		return r.CountryRegion == SelectAll
	})
	slices.SortFunc(records, compareGrouped)

	var countries []string
	for _, r := range records {
		if n := len(countries); n == 0 || countries[n-1] != r.CountryRegion {
			countries = append(countries, r.CountryRegion)
		}
	}

	return &Dataset{
		records:   records,
		countries: countries,
		stats:     res.Stats,
		loadedAt:  clock.Now(),
	}
}

// Len returns the number of grouped records.
func (d *Dataset) Len() int { return len(d.records) }

// Records returns a copy of the grouped records ordered by country, province, date.
func (d *Dataset) Records() []GroupedRecord { return slices.Clone(d.records) }

// Stats returns the cleaning counts the dataset was built from.
func (d *Dataset) Stats() CleanStats { return d.stats }

// LoadedAt returns when the dataset was built.
func (d *Dataset) LoadedAt() time.Time { return d.loadedAt }

// Countries returns the sorted canonical country names.
func (d *Dataset) Countries() []string { return slices.Clone(d.countries) }

// Selections returns "All" followed by every country, the options offered to a selector.
func (d *Dataset) Selections() []string {
	return append([]string{SelectAll}, d.countries...)
}

// HasCountry reports whether name is a canonical country in the dataset.
func (d *Dataset) HasCountry(name string) bool {
	_, ok := slices.BinarySearch(d.countries, name)
	return ok
}

// ParseSelection validates a selector value. Blank and "All" select everything;
// anything else must be an exact canonical country name.
func (d *Dataset) ParseSelection(value string) (Selection, error) {
	value = strings.TrimSpace(value)
	if value == "" || value == SelectAll {
		return All(), nil
	}
	if !d.HasCountry(value) {
		return Selection{}, fmt.Errorf("%w: %q", ErrUnknownCountry, value)
	}
	return Country(value), nil
}

// scope returns the records of one country, or all records. The result aliases
// the dataset and must not be modified.
func (d *Dataset) scope(sel Selection) []GroupedRecord {
	if sel.IsAll() {
		return d.records
	}
	lo, _ := slices.BinarySearchFunc(d.records, sel.country, func(r GroupedRecord, c string) int {
		return strings.Compare(r.CountryRegion, c)
	})
	hi := lo
	for hi < len(d.records) && d.records[hi].CountryRegion == sel.country {
		hi++
	}
	return d.records[lo:hi]
}
