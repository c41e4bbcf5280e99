package domain

import (
	"cmp"
	"slices"
	"time"
)

// DefaultTopN is the number of groups a snapshot keeps for display.
const DefaultTopN = 10

// WorldSummary sums every country's counts per observation date.
func WorldSummary(d *Dataset) []DailySummary {
	return sumByDate(d.records, "")
}

// CountrySummary sums counts across all provinces of country per observation date.
// An unknown country yields an empty series.
func CountrySummary(d *Dataset, country string) []DailySummary {
	return sumByDate(d.scope(Country(country)), country)
}

// Summary dispatches to WorldSummary or CountrySummary for sel.
func Summary(d *Dataset, sel Selection) []DailySummary {
	if sel.IsAll() {
		return WorldSummary(d)
	}
	return CountrySummary(d, sel.Country())
}

// CountryDailySeries sums counts per (country, date), ordered by country then date.
func CountryDailySeries(d *Dataset) []DailySummary {
	out := make([]DailySummary, 0)
	for _, country := range d.countries {
		out = append(out, CountrySummary(d, country)...)
	}
	return out
}

// LatestTopN restricts sel to its most recent observation date, groups by province
// (single country) or country (All), and returns the n largest groups by confirmed
// count. Ties on confirmed are ordered by name ascending.
func LatestTopN(d *Dataset, sel Selection, n int) LatestSnapshot {
	records := d.scope(sel)
	snap := LatestSnapshot{GroupBy: groupFor(sel), Entries: []LatestEntry{}}
	if len(records) == 0 {
		return snap
	}

	latest := latestDate(records)
	snap.Date = latest
	snap.Entries = topGroups(onDate(records, latest), snap.GroupBy, n)
	return snap
}

// Timeline returns one top-n snapshot per observation date in sel, oldest first,
// limited to the first maxDays dates. maxDays <= 0 keeps every date.
func Timeline(d *Dataset, sel Selection, n, maxDays int) []LatestSnapshot {
	records := d.scope(sel)
	byDate := make(map[time.Time][]GroupedRecord)
	var dates []time.Time
	for _, r := range records {
		if _, seen := byDate[r.ObservationDate]; !seen {
			dates = append(dates, r.ObservationDate)
		}
		byDate[r.ObservationDate] = append(byDate[r.ObservationDate], r)
	}
	slices.SortFunc(dates, time.Time.Compare)
	if maxDays > 0 && len(dates) > maxDays {
		dates = dates[:maxDays]
	}

	group := groupFor(sel)
	out := make([]LatestSnapshot, 0, len(dates))
	for _, date := range dates {
		out = append(out, LatestSnapshot{
			Date:    date,
			GroupBy: group,
			Entries: topGroups(byDate[date], group, n),
		})
	}
	return out
}

// ConfirmedByCountry returns each country's confirmed total on its own latest
// observation date, largest first.
func ConfirmedByCountry(d *Dataset) []LatestEntry {
	out := make([]LatestEntry, 0, len(d.countries))
	for _, country := range d.countries {
		records := d.scope(Country(country))
		var t Totals
		for _, r := range onDate(records, latestDate(records)) {
			t.sum(r.Counts())
		}
		out = append(out, LatestEntry{Name: country, Confirmed: t.Confirmed, Deaths: t.Deaths, Recovered: t.Recovered})
	}
	rankEntries(out)
	return out
}

// OverallTotals takes the per-field maximum over a daily series. Cumulative counts
// should be non-decreasing, but restated rows can make the last value smaller.
func OverallTotals(series []DailySummary) Totals {
	var t Totals
	for _, s := range series {
		t.keepMax(Totals{Confirmed: s.Confirmed, Deaths: s.Deaths, Recovered: s.Recovered})
	}
	return t
}

// LatestBreakdown returns the counts of the last entry in a date-ordered series.
func LatestBreakdown(series []DailySummary) Totals {
	if len(series) == 0 {
		return Totals{}
	}
	last := series[len(series)-1]
	return Totals{Confirmed: last.Confirmed, Deaths: last.Deaths, Recovered: last.Recovered}
}

func groupFor(sel Selection) Group {
	if sel.IsAll() {
		return GroupByCountry
	}
	return GroupByProvince
}

func latestDate(records []GroupedRecord) time.Time {
	var latest time.Time
	for _, r := range records {
		if r.ObservationDate.After(latest) {
			latest = r.ObservationDate
		}
	}
	return latest
}

func onDate(records []GroupedRecord, date time.Time) []GroupedRecord {
	out := make([]GroupedRecord, 0)
	for _, r := range records {
		if r.ObservationDate.Equal(date) {
			out = append(out, r)
		}
	}
	return out
}

func sumByDate(records []GroupedRecord, country string) []DailySummary {
	sums := make(map[time.Time]*DailySummary)
	out := make([]DailySummary, 0)
	var order []time.Time
	for _, r := range records {
		s, ok := sums[r.ObservationDate]
		if !ok {
			s = &DailySummary{Date: r.ObservationDate, Country: country}
			sums[r.ObservationDate] = s
			order = append(order, r.ObservationDate)
		}
		s.Confirmed += r.Confirmed
		s.Deaths += r.Deaths
		s.Recovered += r.Recovered
	}
	slices.SortFunc(order, time.Time.Compare)
	for _, date := range order {
		out = append(out, *sums[date])
	}
	return out
}

// topGroups sums records by the group key and keeps the n largest.
func topGroups(records []GroupedRecord, group Group, n int) []LatestEntry {
	sums := make(map[string]*Totals)
	var names []string
	for _, r := range records {
		name := r.ProvinceState
		if group == GroupByCountry {
			name = r.CountryRegion
		}
		t, ok := sums[name]
		if !ok {
			t = &Totals{}
			sums[name] = t
			names = append(names, name)
		}
		t.sum(r.Counts())
	}

	entries := make([]LatestEntry, 0, len(names))
	for _, name := range names {
		t := sums[name]
		entries = append(entries, LatestEntry{Name: name, Confirmed: t.Confirmed, Deaths: t.Deaths, Recovered: t.Recovered})
	}
	rankEntries(entries)
	if n < 0 {
		n = 0
	}
	if len(entries) > n {
		entries = entries[:n]
	}
	return entries
}

func rankEntries(entries []LatestEntry) {
	slices.SortFunc(entries, func(a, b LatestEntry) int {
		return cmp.Or(cmp.Compare(b.Confirmed, a.Confirmed), cmp.Compare(a.Name, b.Name))
	})
}
