package csvfile

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/couchcryptid/covid-case-etl/internal/domain"
)

const utf8BOM = "\uFEFF"

// Source reads a case table from a CSV file on disk.
// It implements pipeline.Extractor.
type Source struct {
	path   string
	logger *slog.Logger
}

// NewSource creates a Source for the file at path.
func NewSource(path string, logger *slog.Logger) *Source {
	return &Source{path: filepath.Clean(path), logger: logger}
}

// Path returns the cleaned file path.
func (s *Source) Path() string { return s.path }

// Extract reads the whole file. A missing, unreadable, or malformed file is an error.
func (s *Source) Extract(ctx context.Context) (domain.RawTable, error) {
	if err := ctx.Err(); err != nil {
		return domain.RawTable{}, err
	}

	f, err := os.Open(s.path)
	if err != nil {
		return domain.RawTable{}, fmt.Errorf("open case file: %w", err)
	}
	defer f.Close()

	table, err := Read(f)
	if err != nil {
		return domain.RawTable{}, fmt.Errorf("read case file %s: %w", s.path, err)
	}

	s.logger.Info("case file read", "path", s.path, "columns", len(table.Header), "rows", len(table.Rows))
	return table, nil
}

// Read parses CSV from r. The first record is the header; rows may have fewer
// fields than the header.
func Read(r io.Reader) (domain.RawTable, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.ReuseRecord = false

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return domain.RawTable{}, domain.ErrEmptyTable
	}
	if err != nil {
		return domain.RawTable{}, err
	}
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], utf8BOM)
	}

	rows, err := cr.ReadAll()
	if err != nil {
		return domain.RawTable{}, err
	}
	return domain.RawTable{Header: header, Rows: rows}, nil
}

// Write renders a table as CSV to w.
func Write(w io.Writer, table domain.RawTable) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(table.Header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	if err := cw.WriteAll(table.Rows); err != nil {
		return fmt.Errorf("write rows: %w", err)
	}
	return nil
}

// WriteFile writes a table to path, creating parent directories and
// replacing any existing file.
func WriteFile(path string, table domain.RawTable) error {
	path = filepath.Clean(path)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create directory for %s: %w", path, err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := Write(f, table); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
