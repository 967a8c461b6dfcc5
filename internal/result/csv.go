// internal/result/csv.go
package result

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

const (
	// FilePrefix starts every result file name
	FilePrefix = "HearingThreshold_"
	// StampLayout formats the session-end local time in file names
	StampLayout = "2006-01-02_15-04"
)

// Header is the first CSV row.
var Header = []string{"Frequency_Hz", "Threshold_Power"}

// BaseName returns HearingThreshold_<YYYY-MM-DD_HH-MM> for t in local time.
func BaseName(t time.Time) string {
	return FilePrefix + t.Local().Format(StampLayout)
}

// FileName returns the CSV file name for a session that ended at t.
func FileName(t time.Time) string {
	return BaseName(t) + ".csv"
}

// WriteCSV writes the header and one row per entry, in the given order.
func WriteCSV(w io.Writer, rows []Row) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, r := range rows {
		rec := []string{
			strconv.FormatFloat(r.Frequency, 'g', -1, 64),
			strconv.FormatFloat(r.Power, 'g', -1, 64),
		}
		if err := cw.Write(rec); err != nil {
			return fmt.Errorf("write row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// EncodeCSV returns the CSV document as bytes.
func EncodeCSV(rows []Row) ([]byte, error) {
	var buf bytes.Buffer
	if err := WriteCSV(&buf, rows); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// SaveCSV writes rows to dir/FileName(end) and returns the path.
func SaveCSV(dir string, end time.Time, rows []Row) (string, error) {
	data, err := EncodeCSV(rows)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}
	path := filepath.Join(dir, FileName(end))
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("write results: %w", err)
	}
	return path, nil
}

// ReadCSV parses a file written by WriteCSV.
func ReadCSV(r io.Reader) ([]Row, error) {
	records, err := csv.NewReader(r).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}
	if len(records) == 0 || len(records[0]) != 2 || records[0][0] != Header[0] || records[0][1] != Header[1] {
		return nil, fmt.Errorf("read csv: missing %s,%s header", Header[0], Header[1])
	}

	rows := make([]Row, 0, len(records)-1)
	for i, rec := range records[1:] {
		if len(rec) != 2 {
			return nil, fmt.Errorf("read csv: line %d has %d fields", i+2, len(rec))
		}
		f, err := strconv.ParseFloat(rec[0], 64)
		if err != nil {
			return nil, fmt.Errorf("read csv: line %d frequency: %w", i+2, err)
		}
		p, err := strconv.ParseFloat(rec[1], 64)
		if err != nil {
			return nil, fmt.Errorf("read csv: line %d power: %w", i+2, err)
		}
		rows = append(rows, Row{Frequency: f, Power: p})
	}
	return rows, nil
}
