package store

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"

	"github.com/apache/arrow/go/v17/arrow"
	"github.com/apache/arrow/go/v17/arrow/array"
	"github.com/apache/arrow/go/v17/arrow/ipc"
	"github.com/apache/arrow/go/v17/arrow/memory"
	"github.com/statlab/bayeslab/internal/posterior"
)

// ExportCSV writes posterior draws to path as CSV: chain and iteration
// columns followed by one column per parameter.
func ExportCSV(path string, d *posterior.Draws) error {
	if err := d.Validate(); err != nil {
		return fmt.Errorf("export: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	header := append([]string{"chain", "iteration"}, d.Params...)
	if err := w.Write(header); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}

	row := make([]string, len(header))
	for c, chain := range d.Chains {
		for i, draw := range chain {
			row[0] = strconv.Itoa(c)
			row[1] = strconv.Itoa(i)
			for j, v := range draw {
				row[2+j] = strconv.FormatFloat(v, 'g', -1, 64)
			}
			if err := w.Write(row); err != nil {
				return fmt.Errorf("writing chain %d iteration %d: %w", c, i, err)
			}
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("flushing csv: %w", err)
	}
	return nil
}

// drawsSchema is the Arrow schema for exported draws: chain and iteration
// indices plus one float64 field per parameter.
func drawsSchema(params []string) *arrow.Schema {
	fields := make([]arrow.Field, 0, len(params)+2)
	fields = append(fields,
		arrow.Field{Name: "chain", Type: arrow.PrimitiveTypes.Int64},
		arrow.Field{Name: "iteration", Type: arrow.PrimitiveTypes.Int64},
	)
	for _, p := range params {
		fields = append(fields, arrow.Field{Name: p, Type: arrow.PrimitiveTypes.Float64})
	}
	return arrow.NewSchema(fields, nil)
}

// ExportArrow writes posterior draws to path in the Arrow IPC file format,
// one row per draw with the same layout as ExportCSV.
func ExportArrow(path string, d *posterior.Draws) error {
	if err := d.Validate(); err != nil {
		return fmt.Errorf("export: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	defer f.Close()

	mem := memory.DefaultAllocator
	schema := drawsSchema(d.Params)

	b := array.NewRecordBuilder(mem, schema)
	defer b.Release()

	chainB := b.Field(0).(*array.Int64Builder)
	iterB := b.Field(1).(*array.Int64Builder)
	for c, chain := range d.Chains {
		for i, draw := range chain {
			chainB.Append(int64(c))
			iterB.Append(int64(i))
			for j, v := range draw {
				b.Field(2 + j).(*array.Float64Builder).Append(v)
			}
		}
	}

	rec := b.NewRecord()
	defer rec.Release()

	w, err := ipc.NewFileWriter(f, ipc.WithSchema(schema), ipc.WithAllocator(mem))
	if err != nil {
		return fmt.Errorf("creating arrow writer: %w", err)
	}
	if err := w.Write(rec); err != nil {
		w.Close()
		return fmt.Errorf("writing arrow record: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("closing arrow writer: %w", err)
	}
	return nil
}
