// Command genmock writes a deterministic mock case-record CSV in the Kaggle
// layout, including duplicate revisions and a few invalid rows, then runs the
// real cleaning step over it and prints the numbers tests assert on.
//
// Usage:
//
//	go run ./cmd/genmock \
//	  -out data/mock/covid_mock.csv \
//	  -days 30 -seed 42
package main

import (
	"flag"
	"fmt"
	"log"
	"math/rand/v2"
	"strconv"
	"time"

	"github.com/couchcryptid/covid-case-etl/internal/adapter/csvfile"
	"github.com/couchcryptid/covid-case-etl/internal/domain"
)

var startDate = time.Date(2020, time.January, 22, 0, 0, 0, 0, time.UTC)

// region is one (country, province) series the generator grows day by day.
type region struct {
	country  string
	province string
	seed     int64 // day-one confirmed count
	growth   int   // upper bound of daily new cases
}

var regions = []region{
	{country: "Mainland China", province: "Hubei", seed: 444, growth: 400},
	{country: "Mainland China", province: "Guangdong", seed: 26, growth: 60},
	{country: "Mainland China", province: "Beijing", seed: 14, growth: 20},
	{country: "Mainland China", province: "Anhui", seed: 1, growth: 30},
	{country: "Hong Kong", province: "Hong Kong", seed: 0, growth: 5},
	{country: "US", province: "Washington", seed: 1, growth: 8},
	{country: "US", province: "California", seed: 0, growth: 10},
	{country: "Italy", province: "", seed: 0, growth: 50},
	{country: "Japan", province: "", seed: 2, growth: 6},
	{country: "UK", province: "", seed: 0, growth: 12},
}

var header = []string{"SNo", "ObservationDate", "Province/State", "Country/Region", "Last Update", "Confirmed", "Deaths", "Recovered"}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	out := flag.String("out", "", "output path for the mock CSV")
	days := flag.Int("days", 30, "number of observation days to generate")
	seed := flag.Uint64("seed", 42, "random seed")
	dupEvery := flag.Int("dup-every", 7, "emit a lower duplicate revision every N rows (0 disables)")
	invalid := flag.Bool("invalid", true, "append rows with an unparseable date and a blank country")
	flag.Parse()

	if *out == "" || *days < 1 {
		flag.Usage()
		return fmt.Errorf("-out is required and -days must be positive")
	}

	table := generate(*days, *seed, *dupEvery, *invalid)
	if err := csvfile.WriteFile(*out, table); err != nil {
		return fmt.Errorf("writing mock CSV: %w", err)
	}
	log.Printf("wrote %d rows: %s", len(table.Rows), *out)

	return printStats(table)
}

// generate builds the raw table. The same arguments always yield the same rows.
func generate(days int, seed uint64, dupEvery int, invalid bool) domain.RawTable {
	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))

	type counts struct{ confirmed, deaths, recovered int64 }
	state := make([]counts, len(regions))
	for i, r := range regions {
		state[i].confirmed = r.seed
	}

	table := domain.RawTable{Header: header}
	sno := 0
	emit := func(date time.Time, r region, c counts) {
		sno++
		table.Rows = append(table.Rows, []string{
			strconv.Itoa(sno),
			date.Format("01/02/2006"),
			r.province,
			r.country,
			date.Add(17 * time.Hour).Format("1/2/2006 15:04"),
			formatCount(c.confirmed),
			formatCount(c.deaths),
			formatCount(c.recovered),
		})
	}

	for d := range days {
		date := startDate.AddDate(0, 0, d)
		for i, r := range regions {
			if d > 0 {
				c := &state[i]
				c.confirmed += int64(rng.IntN(r.growth + 1))
				c.deaths += int64(rng.IntN(int(c.confirmed/50) + 1))
				c.recovered += int64(rng.IntN(int(c.confirmed/10) + 1))
				c.deaths = min(c.deaths, c.confirmed)
				c.recovered = min(c.recovered, c.confirmed-c.deaths)
			}
			emit(date, r, state[i])

			if dupEvery > 0 && sno%dupEvery == 0 {
				lower := state[i]
				lower.confirmed = max(lower.confirmed-int64(rng.IntN(5)+1), 0)
				emit(date, r, lower)
			}
		}
	}

	if invalid {
		table.Rows = append(table.Rows,
			[]string{strconv.Itoa(sno + 1), "not-a-date", "Hubei", "Mainland China", "", "999.0", "0.0", "0.0"},
			[]string{strconv.Itoa(sno + 2), startDate.Format("01/02/2006"), "Nowhere", "", "", "5.0", "0.0", "0.0"},
		)
	}
	return table
}

func formatCount(n int64) string {
	return strconv.FormatInt(n, 10) + ".0"
}

func printStats(table domain.RawTable) error {
	res, err := domain.Clean(table, domain.DefaultCountryAliases)
	if err != nil {
		return fmt.Errorf("cleaning mock table: %w", err)
	}
	ds := domain.NewDataset(res)
	world := domain.WorldSummary(ds)
	totals := domain.OverallTotals(world)

	fmt.Println("\n=== Stats for updating test assertions ===")
	fmt.Printf("Rows: %d\n", res.Stats.Rows)
	fmt.Printf("Dropped: date=%d, country=%d\n", res.Stats.DroppedDate, res.Stats.DroppedCountry)
	fmt.Printf("Duplicates collapsed: %d\n", res.Stats.Duplicates)
	fmt.Printf("Records: %d\n", ds.Len())
	fmt.Printf("Countries (%d): %v\n", len(ds.Countries()), ds.Countries())
	fmt.Printf("World totals: confirmed=%d, deaths=%d, recovered=%d\n", totals.Confirmed, totals.Deaths, totals.Recovered)
	fmt.Printf("Death rate: %s, recovery rate: %s\n", domain.DeathRate(totals), domain.RecoveryRate(totals))

	latest := domain.LatestTopN(ds, domain.All(), 5)
	fmt.Printf("\nTop countries on %s:\n", latest.Date.Format(domain.DateLayout))
	for i, e := range latest.Entries {
		fmt.Printf("  %d. %s confirmed=%d\n", i+1, e.Name, e.Confirmed)
	}
	return nil
}
