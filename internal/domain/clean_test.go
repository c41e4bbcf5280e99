package domain

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var kaggleHeader = []string{"SNo", "ObservationDate", "Province/State", "Country/Region", "Last Update", "Confirmed", "Deaths", "Recovered"}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestNormalizeColumn(t *testing.T) {
	tests := []struct {
		in       string
		expected string
	}{
		{"Country/Region", "Country_Region"},
		{" Province/State ", "Province_State"},
		{"Last Update", "Last_Update"},
		{"ObservationDate", "ObservationDate"},
		{"a / b", "a___b"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.expected, NormalizeColumn(tt.in))
		})
	}
}

func TestParseDate(t *testing.T) {
	tests := []struct {
		name     string
		in       string
		expected time.Time
		ok       bool
	}{
		{"us padded", "01/22/2020", day(2020, 1, 22), true},
		{"us unpadded", "1/2/2020", day(2020, 1, 2), true},
		{"iso", "2020-03-15", day(2020, 3, 15), true},
		{"iso with time", "2020-03-15 23:59:59", day(2020, 3, 15), true},
		{"us with time", "3/13/2020 22:22", day(2020, 3, 13), true},
		{"rfc3339", "2020-04-01T10:00:00Z", day(2020, 4, 1), true},
		{"blank", "  ", time.Time{}, false},
		{"garbage", "not-a-date", time.Time{}, false},
		{"impossible day", "02/31/2020", time.Time{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := parseDate(tt.in)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestParseCount(t *testing.T) {
	tests := []struct {
		in       string
		expected int64
	}{
		{"12", 12},
		{"12.0", 12},
		{" 7 ", 7},
		{"2.6", 3},
		{"", 0},
		{"n/a", 0},
		{"-4", 0},
		{"-4.0", 0},
		{"NaN", 0},
		{"1e30", 0},
		{"9.3e18", 0},
		{"1e19", 0},
		{"99999999999999999999", 0},
		{"9.2e18", 9200000000000000000},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got := parseCount(tt.in)
			assert.Equal(t, tt.expected, got)
			assert.GreaterOrEqual(t, got, int64(0))
		})
	}
}

func TestAliasTable_Canonical(t *testing.T) {
	assert.Equal(t, "China", DefaultCountryAliases.Canonical("Mainland China"))
	assert.Equal(t, "China", DefaultCountryAliases.Canonical("Hong Kong"))
	assert.Equal(t, "United States", DefaultCountryAliases.Canonical("US"))
	assert.Equal(t, "United Kingdom", DefaultCountryAliases.Canonical("UK"))
	assert.Equal(t, "us", DefaultCountryAliases.Canonical("us"), "matching is case-sensitive")
	assert.Equal(t, "France", DefaultCountryAliases.Canonical("France"))
}

func TestClean_MaxCollapsesDuplicates(t *testing.T) {
	table := RawTable{
		Header: kaggleHeader,
		Rows: [][]string{
			{"1", "01/22/2020", "Hubei", "CN", "", "100", "1", "0"},
			{"2", "01/22/2020", "Hubei", "CN", "", "95", "1", "0"},
		},
	}

	res, err := Clean(table, AliasTable{"CN": "China"})
	require.NoError(t, err)

	expected := []GroupedRecord{{
		CountryRegion: "China", ProvinceState: "Hubei", ObservationDate: day(2020, 1, 22),
		Confirmed: 100, Deaths: 1, Recovered: 0,
	}}
	if diff := cmp.Diff(expected, res.Records); diff != "" {
		t.Fatalf("records mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, 1, res.Stats.Duplicates)
}

func TestClean_UnmappedCountryPassesThrough(t *testing.T) {
	table := RawTable{
		Header: kaggleHeader,
		Rows:   [][]string{{"1", "01/22/2020", "Hubei", "CN", "", "100", "1", "0"}},
	}

	res, err := Clean(table, DefaultCountryAliases)
	require.NoError(t, err)
	require.Len(t, res.Records, 1)
	assert.Equal(t, "CN", res.Records[0].CountryRegion)
}

func TestClean_MaxIsPerField(t *testing.T) {
	table := RawTable{
		Header: kaggleHeader,
		Rows: [][]string{
			{"1", "03/01/2020", "", "Italy", "", "50", "9", "1"},
			{"2", "03/01/2020", "", "Italy", "", "40", "12", "3"},
			{"3", "03/01/2020", "", "Italy", "", "45", "2", "2"},
		},
	}

	res, err := Clean(table, DefaultCountryAliases)
	require.NoError(t, err)
	require.Len(t, res.Records, 1)
	assert.Equal(t, int64(50), res.Records[0].Confirmed)
	assert.Equal(t, int64(12), res.Records[0].Deaths)
	assert.Equal(t, int64(3), res.Records[0].Recovered)
	assert.Equal(t, UnknownProvince, res.Records[0].ProvinceState)
}

func TestClean_DropsInvalidRowsDeterministically(t *testing.T) {
	table := RawTable{
		Header: kaggleHeader,
		Rows: [][]string{
			{"1", "01/22/2020", "Anhui", "Mainland China", "", "1.0", "0.0", "0.0"},
			{"2", "bogus", "Beijing", "Mainland China", "", "14.0", "0.0", "0.0"},
			{"3", "", "Beijing", "Mainland China", "", "14.0", "0.0", "0.0"},
			{"4", "01/22/2020", "Nowhere", "", "", "3", "0", "0"},
			{"5", "01/22/2020", "Nowhere", "   ", "", "3", "0", "0"},
			{"6", "bogus", "", "", "", "3", "0", "0"},
			{"7", "01/23/2020"},
		},
	}

	for range 2 {
		res, err := Clean(table, DefaultCountryAliases)
		require.NoError(t, err)

		assert.Equal(t, 7, res.Stats.Rows)
		assert.Equal(t, 3, res.Stats.DroppedDate)
		assert.Equal(t, 3, res.Stats.DroppedCountry)
		assert.Equal(t, 6, res.Stats.Dropped())
		assert.Equal(t, 1, res.Stats.Kept)
		require.Len(t, res.Records, 1)
		assert.Equal(t, "China", res.Records[0].CountryRegion)
	}
}

func TestClean_DropsReservedAllCountry(t *testing.T) {
	table := RawTable{
		Header: kaggleHeader,
		Rows: [][]string{
			{"1", "01/22/2020", "", "All", "", "9", "0", "0"},
			{"2", "01/22/2020", "", " All ", "", "9", "0", "0"},
			{"3", "01/22/2020", "", "Everywhere", "", "9", "0", "0"},
			{"4", "01/22/2020", "", "Japan", "", "2", "0", "0"},
		},
	}

	res, err := Clean(table, AliasTable{"Everywhere": SelectAll})
	require.NoError(t, err)

	assert.Equal(t, 3, res.Stats.DroppedCountry)
	require.Len(t, res.Records, 1)
	assert.Equal(t, "Japan", res.Records[0].CountryRegion)
}

func TestClean_EverySurvivorHasDateAndCountry(t *testing.T) {
	table := RawTable{
		Header: []string{"ObservationDate", "Country/Region", "Confirmed", "Deaths", "Recovered"},
		Rows: [][]string{
			{"01/22/2020", "Japan", "2", "0", "0"},
			{"xx", "Japan", "2", "0", "0"},
			{"01/23/2020", "", "2", "0", "0"},
			{"2020-01-24", "US", "1", "0", "0"},
		},
	}

	res, err := Clean(table, DefaultCountryAliases)
	require.NoError(t, err)
	require.Len(t, res.Records, 2)
	for _, r := range res.Records {
		assert.False(t, r.ObservationDate.IsZero())
		assert.NotEmpty(t, r.CountryRegion)
		assert.Equal(t, UnknownProvince, r.ProvinceState, "missing province column fills the sentinel")
	}
}

func TestClean_MissingRequiredColumn(t *testing.T) {
	table := RawTable{
		Header: []string{"ObservationDate", "Province/State", "Confirmed", "Deaths", "Recovered"},
		Rows:   [][]string{{"01/22/2020", "Hubei", "1", "0", "0"}},
	}

	_, err := Clean(table, DefaultCountryAliases)
	require.ErrorIs(t, err, ErrMissingColumn)
	assert.Contains(t, err.Error(), ColCountryRegion)
}

func TestClean_EmptyTable(t *testing.T) {
	_, err := Clean(RawTable{}, DefaultCountryAliases)
	require.ErrorIs(t, err, ErrEmptyTable)
}

func TestClean_DoesNotMutateInput(t *testing.T) {
	table := RawTable{
		Header: kaggleHeader,
		Rows:   [][]string{{"1", "01/22/2020", "", "US", "", "1", "0", "0"}},
	}
	before := cmp.Diff(RawTable{}, table)

	_, err := Clean(table, DefaultCountryAliases)
	require.NoError(t, err)
	assert.Equal(t, before, cmp.Diff(RawTable{}, table))
}

func TestDeduplicate_Idempotent(t *testing.T) {
	records := []CaseRecord{
		{ObservationDate: day(2020, 2, 1), CountryRegion: "China", ProvinceState: "Hubei", Confirmed: 10},
		{ObservationDate: day(2020, 2, 1), CountryRegion: "China", ProvinceState: "Hubei", Confirmed: 12, Deaths: 1},
		{ObservationDate: day(2020, 2, 2), CountryRegion: "China", ProvinceState: "Hubei", Confirmed: 15},
		{ObservationDate: day(2020, 2, 1), CountryRegion: "Austria", ProvinceState: UnknownProvince, Confirmed: 1},
	}

	once := Deduplicate(records)
	twice := Deduplicate(AsCaseRecords(once))

	if diff := cmp.Diff(once, twice); diff != "" {
		t.Fatalf("deduplicate not idempotent (-once +twice):\n%s", diff)
	}
	require.Len(t, once, 3)
	assert.Equal(t, "Austria", once[0].CountryRegion, "output is ordered by country")
}

func TestEncodeTable_RoundTrip(t *testing.T) {
	table := RawTable{
		Header: kaggleHeader,
		Rows: [][]string{
			{"1", "01/22/2020", "Hubei", "Mainland China", "", "444", "17", "28"},
			{"2", "01/22/2020", "Hubei", "Mainland China", "", "440", "17", "28"},
			{"3", "01/22/2020", "", "US", "", "1", "0", "0"},
			{"4", "01/23/2020", "Hong Kong", "Hong Kong", "", "2", "0", "0"},
		},
	}

	first, err := Clean(table, DefaultCountryAliases)
	require.NoError(t, err)

	second, err := Clean(EncodeTable(first.Records), DefaultCountryAliases)
	require.NoError(t, err)

	if diff := cmp.Diff(first.Records, second.Records); diff != "" {
		t.Fatalf("round trip mismatch (-first +second):\n%s", diff)
	}
	assert.Zero(t, second.Stats.Dropped())
	assert.Zero(t, second.Stats.Duplicates)
}
