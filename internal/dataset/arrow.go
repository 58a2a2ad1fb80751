package dataset

import (
	"github.com/apache/arrow/go/v17/arrow"
	"github.com/apache/arrow/go/v17/arrow/array"
	"github.com/apache/arrow/go/v17/arrow/memory"
)

// Schema returns the Arrow schema for the table: one float64 field per column.
func (t *Table) Schema() *arrow.Schema {
	fields := make([]arrow.Field, len(t.cols))
	for i, c := range t.cols {
		fields[i] = arrow.Field{Name: c, Type: arrow.PrimitiveTypes.Float64}
	}
	return arrow.NewSchema(fields, nil)
}

// Record converts the table to an Arrow record. The caller owns the
// returned record and must Release it.
func (t *Table) Record(mem memory.Allocator) arrow.Record {
	if mem == nil {
		mem = memory.DefaultAllocator
	}

	b := array.NewRecordBuilder(mem, t.Schema())
	defer b.Release()

	for j := range t.cols {
		b.Field(j).(*array.Float64Builder).AppendValues(t.data[j], nil)
	}
	return b.NewRecord()
}
