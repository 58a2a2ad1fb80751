// Package dataset provides the rectangular in-memory table that flows
// through the workbench: named numeric columns, one row per observation.
// Tables round-trip through CSV flat files and convert to gonum design
// matrices and Arrow records.
package dataset

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// Table is a rectangular table of float64 columns. Columns are stored
// column-major; all columns have equal length.
type Table struct {
	cols  []string
	index map[string]int
	data  [][]float64
}

// New creates an empty table with the given column names.
// Column names must be unique and non-empty.
func New(cols ...string) (*Table, error) {
	if len(cols) == 0 {
		return nil, fmt.Errorf("table needs at least one column")
	}
	index := make(map[string]int, len(cols))
	for i, c := range cols {
		if c == "" {
			return nil, fmt.Errorf("column %d has empty name", i)
		}
		if _, dup := index[c]; dup {
			return nil, fmt.Errorf("duplicate column name %q", c)
		}
		index[c] = i
	}
	data := make([][]float64, len(cols))
	return &Table{cols: append([]string(nil), cols...), index: index, data: data}, nil
}

// Columns returns the column names in order.
func (t *Table) Columns() []string {
	return append([]string(nil), t.cols...)
}

// Len returns the number of rows.
func (t *Table) Len() int {
	if len(t.data) == 0 {
		return 0
	}
	return len(t.data[0])
}

// AppendRow appends one row. The number of values must match the number
// of columns.
func (t *Table) AppendRow(values ...float64) error {
	if len(values) != len(t.cols) {
		return fmt.Errorf("row has %d values, table has %d columns", len(values), len(t.cols))
	}
	for i, v := range values {
		t.data[i] = append(t.data[i], v)
	}
	return nil
}

// Column returns the backing slice for the named column.
// The slice is shared, not copied.
func (t *Table) Column(name string) ([]float64, error) {
	i, ok := t.index[name]
	if !ok {
		return nil, fmt.Errorf("unknown column %q (have %v)", name, t.cols)
	}
	return t.data[i], nil
}

// HasColumn reports whether the table has a column with the given name.
func (t *Table) HasColumn(name string) bool {
	_, ok := t.index[name]
	return ok
}

// Design builds a design matrix with a leading intercept column of ones
// followed by the named covariate columns, in order. Rows are observations.
func (t *Table) Design(covariates []string) (*mat.Dense, error) {
	n := t.Len()
	if n == 0 {
		return nil, fmt.Errorf("table has no rows")
	}

	p := 1 + len(covariates)
	x := mat.NewDense(n, p, nil)
	for i := 0; i < n; i++ {
		x.Set(i, 0, 1)
	}
	for j, name := range covariates {
		col, err := t.Column(name)
		if err != nil {
			return nil, err
		}
		for i := 0; i < n; i++ {
			x.Set(i, j+1, col[i])
		}
	}
	return x, nil
}

// CheckFinite returns an error if any value in the table is NaN or infinite.
func (t *Table) CheckFinite() error {
	for j, col := range t.data {
		for i, v := range col {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return fmt.Errorf("column %q row %d is not finite: %v", t.cols[j], i, v)
			}
		}
	}
	return nil
}
