// Package export writes tables to files for use outside the tool
package export

import (
	"fmt"
	"io"
	"time"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/apache/arrow-go/v18/parquet"
	"github.com/apache/arrow-go/v18/parquet/compress"
	"github.com/apache/arrow-go/v18/parquet/pqarrow"

	"github.com/koba/table-diff/internal/schema"
)

// ArrowSchema maps table columns onto Arrow fields. Mixed and all-null
// columns are written as strings.
func ArrowSchema(t *schema.Table) *arrow.Schema {
	fields := make([]arrow.Field, len(t.Columns))
	for i, col := range t.Columns {
		fields[i] = arrow.Field{Name: col.Name, Type: arrowType(col.Type), Nullable: true}
	}
	return arrow.NewSchema(fields, nil)
}

func arrowType(typ schema.DataType) arrow.DataType {
	switch typ {
	case schema.TypeInt:
		return arrow.PrimitiveTypes.Int64
	case schema.TypeFloat:
		return arrow.PrimitiveTypes.Float64
	case schema.TypeBool:
		return arrow.FixedWidthTypes.Boolean
	case schema.TypeDatetime:
		return arrow.FixedWidthTypes.Timestamp_us
	default:
		return arrow.BinaryTypes.String
	}
}

// WriteParquet writes the table as a snappy-compressed parquet file. w is
// left open; closing it stays with the caller.
func WriteParquet(w io.Writer, t *schema.Table) error {
	arrowSchema := ArrowSchema(t)

	builder := array.NewRecordBuilder(memory.NewGoAllocator(), arrowSchema)
	defer builder.Release()

	for c, col := range t.Columns {
		fb := builder.Field(c)
		for r, row := range t.Rows {
			if err := appendValue(fb, row[c]); err != nil {
				return fmt.Errorf("column %q row %d: %w", col.Name, r, err)
			}
		}
	}

	record := builder.NewRecord()
	defer record.Release()

	props := parquet.NewWriterProperties(parquet.WithCompression(compress.Codecs.Snappy))
	arrowProps := pqarrow.NewArrowWriterProperties(pqarrow.WithStoreSchema())

	// the parquet writer closes any sink that is an io.Closer
	sink := struct{ io.Writer }{w}

	writer, err := pqarrow.NewFileWriter(arrowSchema, sink, props, arrowProps)
	if err != nil {
		return fmt.Errorf("failed to create parquet writer: %w", err)
	}

	if err := writer.Write(record); err != nil {
		writer.Close()
		return fmt.Errorf("failed to write table to parquet: %w", err)
	}

	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to close parquet writer: %w", err)
	}
	return nil
}

func appendValue(b array.Builder, v interface{}) error {
	if v == nil {
		b.AppendNull()
		return nil
	}

	switch fb := b.(type) {
	case *array.Int64Builder:
		n, ok := v.(int64)
		if !ok {
			return fmt.Errorf("expected int64, got %T", v)
		}
		fb.Append(n)
	case *array.Float64Builder:
		switch n := v.(type) {
		case float64:
			fb.Append(n)
		case int64:
			fb.Append(float64(n))
		default:
			return fmt.Errorf("expected float64, got %T", v)
		}
	case *array.BooleanBuilder:
		flag, ok := v.(bool)
		if !ok {
			return fmt.Errorf("expected bool, got %T", v)
		}
		fb.Append(flag)
	case *array.TimestampBuilder:
		ts, ok := v.(time.Time)
		if !ok {
			return fmt.Errorf("expected time, got %T", v)
		}
		fb.Append(arrow.Timestamp(ts.UnixMicro()))
	case *array.StringBuilder:
		fb.Append(schema.FormatValue(v))
	default:
		return fmt.Errorf("unsupported builder %T", b)
	}
	return nil
}
