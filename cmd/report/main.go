// Command report loads a case-record CSV offline and prints the totals, rates
// and top-N ranking for one selection. It can also write the cleaned dataset
// back out as CSV and every selection's dashboard view as an xlsx workbook.
//
// Usage:
//
//	go run ./cmd/report \
//	  -data data/covid_19_data.csv \
//	  -country China -n 10 \
//	  -csv out/cleaned.csv \
//	  -xlsx out/report.xlsx
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"text/tabwriter"

	"github.com/couchcryptid/covid-case-etl/internal/adapter/csvfile"
	"github.com/couchcryptid/covid-case-etl/internal/adapter/excel"
	"github.com/couchcryptid/covid-case-etl/internal/domain"
)

type options struct {
	dataPath     string
	country      string
	topN         int
	timelineDays int
	csvOut       string
	xlsxOut      string
}

func main() {
	var opts options
	flag.StringVar(&opts.dataPath, "data", "data/covid_19_data.csv", "path to the case-record CSV")
	flag.StringVar(&opts.country, "country", domain.SelectAll, "country to report on, or All")
	flag.IntVar(&opts.topN, "n", domain.DefaultTopN, "number of groups in the latest ranking")
	flag.IntVar(&opts.timelineDays, "days", 0, "limit timeline frames in the workbook (0 keeps all)")
	flag.StringVar(&opts.csvOut, "csv", "", "optional output path for the cleaned dataset CSV")
	flag.StringVar(&opts.xlsxOut, "xlsx", "", "optional output path for the dashboard workbook")
	flag.Parse()

	if opts.topN < 1 {
		flag.Usage()
		os.Exit(2)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	if err := run(context.Background(), os.Stdout, opts, logger); err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, out io.Writer, opts options, logger *slog.Logger) error {
	table, err := csvfile.NewSource(opts.dataPath, logger).Extract(ctx)
	if err != nil {
		return err
	}
	res, err := domain.Clean(table, domain.DefaultCountryAliases)
	if err != nil {
		return fmt.Errorf("clean %s: %w", opts.dataPath, err)
	}
	ds := domain.NewDataset(res)

	sel, err := ds.ParseSelection(opts.country)
	if err != nil {
		return err
	}

	viewOpts := domain.ViewOptions{TopN: opts.topN, TimelineDays: opts.timelineDays}
	printReport(out, ds, viewFor(ds, sel, viewOpts))

	if opts.csvOut != "" {
		if err := csvfile.WriteFile(opts.csvOut, domain.EncodeTable(ds.Records())); err != nil {
			return err
		}
		fmt.Fprintf(out, "\nWrote cleaned dataset: %s\n", opts.csvOut)
	}

	if opts.xlsxOut != "" {
		selections := ds.Selections()
		views := make([]domain.View, 0, len(selections))
		for _, name := range selections {
			s, err := ds.ParseSelection(name)
			if err != nil {
				return err
			}
			views = append(views, viewFor(ds, s, viewOpts))
		}
		if err := excel.NewExporter().WriteFile(opts.xlsxOut, views, ds.Records()); err != nil {
			return err
		}
		fmt.Fprintf(out, "Wrote workbook: %s (%d selections)\n", opts.xlsxOut, len(views))
	}
	return nil
}

func viewFor(ds *domain.Dataset, sel domain.Selection, opts domain.ViewOptions) domain.View {
	opts.Namer = domain.DisplayNamerFor(sel)
	return domain.BuildView(ds, sel, opts)
}

func printReport(out io.Writer, ds *domain.Dataset, v domain.View) {
	stats := ds.Stats()

	fmt.Fprintf(out, "=== COVID-19 Case Report: %s ===\n\n", v.Label)
	fmt.Fprintf(out, "Rows: %d read, %d dropped (date=%d, country=%d), %d duplicates collapsed\n",
		stats.Rows, stats.Dropped(), stats.DroppedDate, stats.DroppedCountry, stats.Duplicates)
	fmt.Fprintf(out, "Dataset: %d records, %d countries\n\n", ds.Len(), len(ds.Countries()))

	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "\tConfirmed\tDeaths\tRecovered\t")
	fmt.Fprintf(tw, "Totals\t%d\t%d\t%d\t\n", v.Totals.Confirmed, v.Totals.Deaths, v.Totals.Recovered)
	fmt.Fprintf(tw, "Latest day\t%d\t%d\t%d\t\n", v.Breakdown.Confirmed, v.Breakdown.Deaths, v.Breakdown.Recovered)
	tw.Flush() //nolint:errcheck // stdout

	fmt.Fprintf(out, "\nDeath rate: %s  Recovery rate: %s\n", v.DeathRate, v.RecoveryRate)

	if len(v.Latest.Entries) == 0 {
		fmt.Fprintln(out, "\nNo records for this selection.")
		return
	}

	fmt.Fprintf(out, "\nTop %d by %s on %s:\n", len(v.Latest.Entries), v.Latest.GroupBy, v.Latest.Date.Format(domain.DateLayout))
	tw = tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "  #\tName\tConfirmed\tDeaths\tRecovered")
	for i, e := range v.Latest.Entries {
		fmt.Fprintf(tw, "  %d\t%s\t%d\t%d\t%d\n", i+1, e.Name, e.Confirmed, e.Deaths, e.Recovered)
	}
	tw.Flush() //nolint:errcheck // stdout
}
