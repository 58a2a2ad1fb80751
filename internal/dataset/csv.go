package dataset

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
)

// WriteCSV writes the table to path as CSV with a header row.
// This is the flat-file cache format shared across commands.
func (t *Table) WriteCSV(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(t.cols); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}

	n := t.Len()
	row := make([]string, len(t.cols))
	for i := 0; i < n; i++ {
		for j := range t.cols {
			row[j] = strconv.FormatFloat(t.data[j][i], 'g', -1, 64)
		}
		if err := w.Write(row); err != nil {
			return fmt.Errorf("writing row %d: %w", i, err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("flushing csv: %w", err)
	}
	return nil
}

// ReadCSV loads a table from a CSV file written by WriteCSV. The first
// row is the header; every cell must parse as float64.
func ReadCSV(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("reading header: %w", err)
	}

	t, err := New(header...)
	if err != nil {
		return nil, err
	}

	values := make([]float64, len(header))
	line := 1
	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", path, err)
		}
		line++
		for j, cell := range record {
			v, err := strconv.ParseFloat(cell, 64)
			if err != nil {
				return nil, fmt.Errorf("line %d column %q: %w", line, header[j], err)
			}
			values[j] = v
		}
		if err := t.AppendRow(values...); err != nil {
			return nil, err
		}
	}

	if t.Len() == 0 {
		return nil, fmt.Errorf("%s contains no data rows", path)
	}
	return t, nil
}
