package sink

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/eskila/jdoc/internal/moisture"
)

// CSVSink appends one line per row. The header is written only when the file
// is empty, so an existing file keeps its original columns.
type CSVSink struct {
	f    *os.File
	w    *csv.Writer
	path string
	// empty is true until something has been written to the file.
	empty bool
}

func OpenCSV(path string) (*CSVSink, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open csv %s: %w", path, err)
	}
	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("stat csv %s: %w", path, err)
	}
	return &CSVSink{f: f, w: csv.NewWriter(f), path: path, empty: info.Size() == 0}, nil
}

// Header returns the columns for rows shaped like row.
func Header(row moisture.Row) []string {
	header := make([]string, 0, 1+2*len(row.Readings))
	header = append(header, "timestamp")
	for _, r := range row.Readings {
		header = append(header, r.Plant+"_moisture_percent", r.Plant+"_raw_value")
	}
	return header
}

// Record returns the CSV fields of row. A missing raw value is an empty field.
func Record(row moisture.Row) []string {
	record := make([]string, 0, 1+2*len(row.Readings))
	record = append(record, formatTimestamp(row.Timestamp))
	for _, r := range row.Readings {
		raw := ""
		if r.Raw != nil {
			raw = strconv.Itoa(*r.Raw)
		}
		record = append(record, formatPercent(r.Percent), raw)
	}
	return record
}

// formatPercent keeps a decimal point on whole percentages ("100.0") except
// for the unavailable sentinel, which is written as "-1".
func formatPercent(p float64) string {
	if p == moisture.Unavailable {
		return "-1"
	}
	s := strconv.FormatFloat(p, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}

func (s *CSVSink) Write(_ context.Context, row moisture.Row) error {
	if s.empty {
		if err := s.w.Write(Header(row)); err != nil {
			return fmt.Errorf("write csv header: %w", err)
		}
	}
	if err := s.w.Write(Record(row)); err != nil {
		return fmt.Errorf("write csv record: %w", err)
	}
	s.w.Flush()
	if err := s.w.Error(); err != nil {
		return fmt.Errorf("flush csv %s: %w", s.path, err)
	}
	s.empty = false
	return nil
}

func (s *CSVSink) Close() error {
	return s.f.Close()
}
