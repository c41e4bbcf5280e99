// Package excel renders dashboard views into an xlsx workbook.
package excel

import (
	"fmt"
	"time"

	"github.com/couchcryptid/covid-case-etl/internal/domain"
	"github.com/xuri/excelize/v2"
)

// Sheet names of an exported workbook.
const (
	SheetOverview = "Overview"
	SheetDaily    = "Daily"
	SheetLatest   = "Latest"
	SheetRecords  = "Records"
)

// Exporter writes views and cleaned records to a workbook.
type Exporter struct{}

func NewExporter() *Exporter {
	return &Exporter{}
}

// Export builds a workbook with an overview row per view, every view's daily
// series and latest top-N, and the cleaned records when records is non-nil.
func (e *Exporter) Export(views []domain.View, records []domain.GroupedRecord) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", SheetOverview); err != nil {
		f.Close() //nolint:errcheck // already failing
		return nil, err
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#E2E8F0"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	if err != nil {
		f.Close() //nolint:errcheck // already failing
		return nil, fmt.Errorf("create header style: %w", err)
	}

	w := &sheetWriter{f: f, headerStyle: headerStyle}

	w.header(SheetOverview, "Selection", "Label", "Confirmed", "Deaths", "Recovered", "Death Rate", "Recovery Rate", "Latest Date", "Loaded At")
	for i, v := range views {
		w.row(SheetOverview, i+2,
			v.Selection, v.Label,
			v.Totals.Confirmed, v.Totals.Deaths, v.Totals.Recovered,
			v.DeathRate, v.RecoveryRate,
			formatDate(v.Latest.Date), v.LoadedAt.UTC().Format("2006-01-02 15:04:05"),
		)
	}

	w.sheet(SheetDaily)
	w.header(SheetDaily, "Selection", "Date", "Confirmed", "Deaths", "Recovered")
	row := 2
	for _, v := range views {
		for _, s := range v.Summary {
			w.row(SheetDaily, row, v.Selection, formatDate(s.Date), s.Confirmed, s.Deaths, s.Recovered)
			row++
		}
	}

	w.sheet(SheetLatest)
	w.header(SheetLatest, "Selection", "Date", "Rank", "Name", "Confirmed", "Deaths", "Recovered")
	row = 2
	for _, v := range views {
		for rank, entry := range v.Latest.Entries {
			w.row(SheetLatest, row, v.Selection, formatDate(v.Latest.Date), rank+1, entry.Name, entry.Confirmed, entry.Deaths, entry.Recovered)
			row++
		}
	}

	if records != nil {
		w.sheet(SheetRecords)
		w.header(SheetRecords, "Country/Region", "Province/State", "ObservationDate", "Confirmed", "Deaths", "Recovered")
		for i, r := range records {
			w.row(SheetRecords, i+2, r.CountryRegion, r.ProvinceState, formatDate(r.ObservationDate), r.Confirmed, r.Deaths, r.Recovered)
		}
		w.colWidth(SheetRecords, "A", "B", 22)
	}

	w.colWidth(SheetOverview, "A", "B", 18)
	w.colWidth(SheetOverview, "C", "I", 14)
	w.colWidth(SheetLatest, "D", "D", 22)

	if w.err != nil {
		f.Close() //nolint:errcheck // already failing
		return nil, w.err
	}
	return f, nil
}

// WriteFile exports and saves the workbook to path.
func (e *Exporter) WriteFile(path string, views []domain.View, records []domain.GroupedRecord) error {
	f, err := e.Export(views, records)
	if err != nil {
		return err
	}
	defer f.Close() //nolint:errcheck // saved or failed below
	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save workbook %s: %w", path, err)
	}
	return nil
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(domain.DateLayout)
}

// sheetWriter keeps the first excelize error so the export reads top to bottom.
type sheetWriter struct {
	f           *excelize.File
	headerStyle int
	err         error
}

func (w *sheetWriter) sheet(name string) {
	if w.err != nil {
		return
	}
	if _, err := w.f.NewSheet(name); err != nil {
		w.err = fmt.Errorf("create sheet %s: %w", name, err)
	}
}

func (w *sheetWriter) header(sheet string, titles ...string) {
	values := make([]any, len(titles))
	for i, t := range titles {
		values[i] = t
	}
	w.row(sheet, 1, values...)
	if w.err != nil {
		return
	}
	if err := w.f.SetRowStyle(sheet, 1, 1, w.headerStyle); err != nil {
		w.err = fmt.Errorf("style %s header: %w", sheet, err)
	}
}

func (w *sheetWriter) row(sheet string, row int, values ...any) {
	for col, v := range values {
		if w.err != nil {
			return
		}
		cell, err := excelize.CoordinatesToCellName(col+1, row)
		if err != nil {
			w.err = err
			return
		}
		if err := w.f.SetCellValue(sheet, cell, v); err != nil {
			w.err = fmt.Errorf("write %s!%s: %w", sheet, cell, err)
		}
	}
}

func (w *sheetWriter) colWidth(sheet, start, end string, width float64) {
	if w.err != nil {
		return
	}
	if err := w.f.SetColWidth(sheet, start, end, width); err != nil {
		w.err = fmt.Errorf("set %s column width: %w", sheet, err)
	}
}
