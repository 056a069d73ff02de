package export

import (
	"bytes"
	"encoding/csv"
	"fmt"
)

// Report is a titled table with an optional summary row.
type Report struct {
	Title   string
	Headers []string
	Rows    [][]string
	Footer  []string
}

func (r Report) validate() error {
	if len(r.Headers) == 0 {
		return fmt.Errorf("report requires at least one header")
	}
	for i, row := range r.Rows {
		if len(row) != len(r.Headers) {
			return fmt.Errorf("row %d has %d cells, want %d", i, len(row), len(r.Headers))
		}
	}
	if len(r.Footer) > len(r.Headers) {
		return fmt.Errorf("footer wider than header")
	}
	return nil
}

// CSVExporter renders reports as CSV.
type CSVExporter struct{}

func NewCSVExporter() *CSVExporter {
	return &CSVExporter{}
}

// ContentType of the rendered document.
func (e *CSVExporter) ContentType() string { return "text/csv" }

// Extension used in download file names.
func (e *CSVExporter) Extension() string { return "csv" }

// Render writes the header, every row and the footer when present.
func (e *CSVExporter) Render(report Report) ([]byte, error) {
	if err := report.validate(); err != nil {
		return nil, err
	}
	buf := &bytes.Buffer{}
	writer := csv.NewWriter(buf)
	if err := writer.Write(report.Headers); err != nil {
		return nil, fmt.Errorf("write csv headers: %w", err)
	}
	if err := writer.WriteAll(report.Rows); err != nil {
		return nil, fmt.Errorf("write csv rows: %w", err)
	}
	if len(report.Footer) > 0 {
		footer := make([]string, len(report.Headers))
		copy(footer, report.Footer)
		if err := writer.Write(footer); err != nil {
			return nil, fmt.Errorf("write csv footer: %w", err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("flush csv: %w", err)
	}
	return buf.Bytes(), nil
}
