package domain

import (
	"cmp"
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"
	"time"
)

// Normalized column names the cleaner reads.
const (
	ColObservationDate = "ObservationDate"
	ColCountryRegion   = "Country_Region"
	ColProvinceState   = "Province_State"
	ColConfirmed       = "Confirmed"
	ColDeaths          = "Deaths"
	ColRecovered       = "Recovered"
)

// requiredColumns must be present after normalization. Province_State is optional.
var requiredColumns = []string{ColObservationDate, ColCountryRegion, ColConfirmed, ColDeaths, ColRecovered}

// dateLayouts are tried in order. Source files mix US-style and ISO dates,
// sometimes with a time component.
var dateLayouts = []string{
	"01/02/2006",
	"1/2/2006",
	DateLayout,
	"2006-01-02 15:04:05",
	"01/02/2006 15:04:05",
	"1/2/2006 15:04",
	time.RFC3339,
}

// CleanStats counts what happened to source rows during cleaning.
type CleanStats struct {
	Rows           int `json:"rows"`
	DroppedDate    int `json:"dropped_date"`
	DroppedCountry int `json:"dropped_country"`
	Kept           int `json:"kept"`
	Grouped        int `json:"grouped"`
	Duplicates     int `json:"duplicates"`
}

// Dropped returns the number of rows excluded by the date and country checks.
func (s CleanStats) Dropped() int {
	return s.DroppedDate + s.DroppedCountry
}

// CleanResult is the deduplicated record set plus the counts that produced it.
type CleanResult struct {
	Records []GroupedRecord
	Stats   CleanStats
}

// NormalizeColumn trims a header label and replaces "/" and spaces with "_",
// e.g. "Country/Region" -> "Country_Region".
func NormalizeColumn(label string) string {
	label = strings.TrimSpace(label)
	label = strings.ReplaceAll(label, "/", "_")
	return strings.ReplaceAll(label, " ", "_")
}

// Clean turns a raw case table into the deduplicated GroupedRecord set.
//
// Rows with an unparseable ObservationDate or a blank Country_Region are dropped
// silently and counted in the returned stats. Country names are canonicalized through
// aliases, blank provinces become UnknownProvince, and rows sharing
// (country, province, date) collapse to their per-field maximum.
// Clean never mutates table.
func Clean(table RawTable, aliases AliasTable) (CleanResult, error) {
	if len(table.Header) == 0 {
		return CleanResult{}, ErrEmptyTable
	}

	idx := make(map[string]int, len(table.Header))
	for i, label := range table.Header {
		name := NormalizeColumn(label)
		if _, dup := idx[name]; !dup {
			idx[name] = i
		}
	}
	for _, col := range requiredColumns {
		if _, ok := idx[col]; !ok {
			return CleanResult{}, fmt.Errorf("%w: %s", ErrMissingColumn, col)
		}
	}
	provinceIdx, hasProvince := idx[ColProvinceState]

	stats := CleanStats{Rows: len(table.Rows)}
	records := make([]CaseRecord, 0, len(table.Rows))

	for _, row := range table.Rows {
		date, ok := parseDate(cell(row, idx[ColObservationDate]))
		if !ok {
			stats.DroppedDate++
			continue
		}
		country := aliases.Canonical(strings.TrimSpace(cell(row, idx[ColCountryRegion])))
		// SelectAll is reserved for the world scope.
		if country == "" || country == SelectAll {
			stats.DroppedCountry++
			continue
		}

		province := ""
		if hasProvince {
			province = strings.TrimSpace(cell(row, provinceIdx))
		}
		if province == "" {
			province = UnknownProvince
		}

		records = append(records, CaseRecord{
			ObservationDate: date,
			CountryRegion:   country,
			ProvinceState:   province,
			Confirmed:       parseCount(cell(row, idx[ColConfirmed])),
			Deaths:          parseCount(cell(row, idx[ColDeaths])),
			Recovered:       parseCount(cell(row, idx[ColRecovered])),
		})
	}

	grouped := Deduplicate(records)
	stats.Kept = len(records)
	stats.Grouped = len(grouped)
	stats.Duplicates = stats.Kept - stats.Grouped

	return CleanResult{Records: grouped, Stats: stats}, nil
}

type recordKey struct {
	country  string
	province string
	day      int64
}

// Deduplicate collapses records sharing (country, province, date) into one
// GroupedRecord holding the per-field maximum. Output is ordered by country,
// province, then date.
func Deduplicate(records []CaseRecord) []GroupedRecord {
	index := make(map[recordKey]int, len(records))
	out := make([]GroupedRecord, 0, len(records))

	for _, r := range records {
		k := recordKey{country: r.CountryRegion, province: r.ProvinceState, day: r.ObservationDate.Unix()}
		if i, ok := index[k]; ok {
			t := out[i].Counts()
			t.keepMax(Totals{Confirmed: r.Confirmed, Deaths: r.Deaths, Recovered: r.Recovered})
			out[i].Confirmed, out[i].Deaths, out[i].Recovered = t.Confirmed, t.Deaths, t.Recovered
			continue
		}
		index[k] = len(out)
		out = append(out, GroupedRecord{
			CountryRegion:   r.CountryRegion,
			ProvinceState:   r.ProvinceState,
			ObservationDate: r.ObservationDate,
			Confirmed:       r.Confirmed,
			Deaths:          r.Deaths,
			Recovered:       r.Recovered,
		})
	}

	slices.SortFunc(out, compareGrouped)
	return out
}

func compareGrouped(a, b GroupedRecord) int {
	return cmp.Or(
		cmp.Compare(a.CountryRegion, b.CountryRegion),
		cmp.Compare(a.ProvinceState, b.ProvinceState),
		a.ObservationDate.Compare(b.ObservationDate),
	)
}

// AsCaseRecords widens grouped records back to case records, e.g. to re-run Deduplicate.
func AsCaseRecords(records []GroupedRecord) []CaseRecord {
	out := make([]CaseRecord, len(records))
	for i, g := range records {
		out[i] = CaseRecord{
			ObservationDate: g.ObservationDate,
			CountryRegion:   g.CountryRegion,
			ProvinceState:   g.ProvinceState,
			Confirmed:       g.Confirmed,
			Deaths:          g.Deaths,
			Recovered:       g.Recovered,
		}
	}
	return out
}

// EncodeTable renders grouped records as a raw table with normalized headers.
// Feeding the result back through Clean yields the same records.
func EncodeTable(records []GroupedRecord) RawTable {
	table := RawTable{
		Header: []string{ColObservationDate, ColProvinceState, ColCountryRegion, ColConfirmed, ColDeaths, ColRecovered},
		Rows:   make([][]string, 0, len(records)),
	}
	for _, g := range records {
		table.Rows = append(table.Rows, []string{
			g.ObservationDate.Format(DateLayout),
			g.ProvinceState,
			g.CountryRegion,
			strconv.FormatInt(g.Confirmed, 10),
			strconv.FormatInt(g.Deaths, 10),
			strconv.FormatInt(g.Recovered, 10),
		})
	}
	return table
}

func cell(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return row[i]
}

// parseDate accepts any of dateLayouts and truncates to the UTC calendar day.
func parseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		t, err := time.Parse(layout, s)
		if err != nil {
			continue
		}
		return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), true
	}
	return time.Time{}, false
}

// parseCount reads an integer or float cell ("12", "12.0"). Blank, unparseable,
// negative and out-of-range values read as 0.
func parseCount(s string) int64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	if v, err := strconv.ParseInt(s, 10, 64); err == nil {
		return max(v, 0)
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) || f <= 0 {
		return 0
	}
	if f >= math.MaxInt64 {
		return 0
	}
	return int64(math.Round(f))
}
