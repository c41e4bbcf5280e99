// Package domain models cumulative COVID-19 case counts and the aggregations a
// dashboard draws from them.
//
// # Data Source
//
// Case records come from a delimited table with one row per (location, date)
// observation, e.g. the Kaggle covid_19_data.csv layout:
//
//	SNo,ObservationDate,Province/State,Country/Region,Last Update,Confirmed,Deaths,Recovered
//	1,01/22/2020,Anhui,Mainland China,1/22/2020 17:00,1.0,0.0,0.0
//
// Header labels are normalized before lookup: whitespace is trimmed and "/" and
// spaces become "_" ("Country/Region" -> "Country_Region").
//
// # Cleaning
//
// [Clean] drops rows with an unparseable ObservationDate or a blank
// Country_Region, canonicalizes country names through an [AliasTable]
// ("Mainland China" -> "China", "US" -> "United States"), fills blank
// provinces with [UnknownProvince], and collapses rows sharing
// (country, province, date) to their per-field maximum. Counts are cumulative,
// so a duplicate row reporting less than another for the same day is stale.
//
// # Aggregation
//
// A [Dataset] is immutable after construction. Every aggregation
// ([WorldSummary], [CountrySummary], [LatestTopN], [Timeline]) is a pure function
// of the dataset and a [Selection], either All or one canonical country.
// Rankings order by confirmed count descending, then by name ascending.
//
// Display names ([DisplayNamer]) are applied to finished snapshots only and
// never change grouping.
package domain
