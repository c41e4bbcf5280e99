package domain

import (
	"errors"
	"time"
)

// UnknownProvince replaces a blank Province/State value.
const UnknownProvince = "Unknown"

// DateLayout is the calendar-day format used in JSON output and exported tables.
const DateLayout = "2006-01-02"

var (
	// ErrEmptyTable is returned when the source has no header row.
	ErrEmptyTable = errors.New("case table has no header row")

	// ErrMissingColumn is returned when a required column is absent from the header.
	ErrMissingColumn = errors.New("required column missing")

	// ErrUnknownCountry is returned when a selection names a country not in the dataset.
	ErrUnknownCountry = errors.New("unknown country")
)

// RawTable is a delimited table as read from the source: one header row plus data rows.
// Rows may be shorter than the header; missing cells read as blank.
type RawTable struct {
	Header []string
	Rows   [][]string
}

// CaseRecord is one cleaned source row. Counts are cumulative as of ObservationDate.
type CaseRecord struct {
	ObservationDate time.Time
	CountryRegion   string
	ProvinceState   string
	Confirmed       int64
	Deaths          int64
	Recovered       int64
}

// GroupedRecord is the unique (country, province, date) row left after deduplication.
// Each count is the maximum over all CaseRecords sharing the key.
type GroupedRecord struct {
	CountryRegion   string    `json:"country_region"`
	ProvinceState   string    `json:"province_state"`
	ObservationDate time.Time `json:"observation_date"`
	Confirmed       int64     `json:"confirmed"`
	Deaths          int64     `json:"deaths"`
	Recovered       int64     `json:"recovered"`
}

// Counts returns the record's counts as Totals.
func (g GroupedRecord) Counts() Totals {
	return Totals{Confirmed: g.Confirmed, Deaths: g.Deaths, Recovered: g.Recovered}
}

// DailySummary sums counts for one observation date. Country is empty for world-level rows.
type DailySummary struct {
	Date      time.Time `json:"date"`
	Country   string    `json:"country,omitempty"`
	Confirmed int64     `json:"confirmed"`
	Deaths    int64     `json:"deaths"`
	Recovered int64     `json:"recovered"`
}

// LatestEntry is one group (province or country) of a snapshot.
type LatestEntry struct {
	Name      string `json:"name"`
	Confirmed int64  `json:"confirmed"`
	Deaths    int64  `json:"deaths"`
	Recovered int64  `json:"recovered"`
}

// Group names the key a snapshot was grouped by.
type Group string

const (
	GroupByProvince Group = "province"
	GroupByCountry  Group = "country"
)

// LatestSnapshot holds the top groups by confirmed count on a single date.
type LatestSnapshot struct {
	Date    time.Time     `json:"date"`
	GroupBy Group         `json:"group_by"`
	Entries []LatestEntry `json:"entries"`
}

// Totals is a confirmed/deaths/recovered triple.
type Totals struct {
	Confirmed int64 `json:"confirmed"`
	Deaths    int64 `json:"deaths"`
	Recovered int64 `json:"recovered"`
}

func (t *Totals) sum(o Totals) {
	t.Confirmed += o.Confirmed
	t.Deaths += o.Deaths
	t.Recovered += o.Recovered
}

func (t *Totals) keepMax(o Totals) {
	t.Confirmed = max(t.Confirmed, o.Confirmed)
	t.Deaths = max(t.Deaths, o.Deaths)
	t.Recovered = max(t.Recovered, o.Recovered)
}

// SummaryBatch is a group of daily summaries published together. RunID identifies
// the load pass that produced them.
type SummaryBatch struct {
	RunID     string
	Summaries []DailySummary
}
