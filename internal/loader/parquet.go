package loader

import (
	"bytes"
	"context"
	"fmt"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/apache/arrow-go/v18/parquet/file"
	"github.com/apache/arrow-go/v18/parquet/pqarrow"

	"github.com/koba/table-diff/internal/schema"
)

// Parquet reads columnar parquet files through Arrow
type Parquet struct{}

func (Parquet) Name() string { return "parquet" }
func (Parquet) Extensions() []string { return []string{".parquet", ".pq"} }
func (p Parquet) CanHandle(name string) bool { return hasExtension(name, p.Extensions()) }
func (Parquet) Options(File) (Options, error) { return Options{}, nil }

func (Parquet) Read(f File, _ ReadOptions) (*schema.Table, error) {
	pf, err := file.NewParquetReader(bytes.NewReader(f.Data))
	if err != nil {
		return nil, fmt.Errorf("failed to create parquet reader: %w", err)
	}
	defer pf.Close()

	arrowReader, err := pqarrow.NewFileReader(pf, pqarrow.ArrowReadProperties{}, memory.NewGoAllocator())
	if err != nil {
		return nil, fmt.Errorf("failed to create arrow reader: %w", err)
	}

	table, err := arrowReader.ReadTable(context.Background())
	if err != nil {
		return nil, fmt.Errorf("failed to read parquet data: %w", err)
	}
	defer table.Release()

	fields := table.Schema().Fields()
	headers := make([]string, len(fields))
	for i, field := range fields {
		headers[i] = field.Name
	}

	rows := make([][]interface{}, table.NumRows())
	for r := range rows {
		rows[r] = make([]interface{}, len(headers))
	}
	for c := range headers {
		r := 0
		for _, chunk := range table.Column(c).Data().Chunks() {
			for pos := 0; pos < chunk.Len(); pos++ {
				rows[r][c] = arrowValue(chunk, pos)
				r++
			}
		}
	}

	return schema.FromValues(f.Name, headers, rows)
}

// arrowValue returns the Go value of one Arrow cell
func arrowValue(col arrow.Array, pos int) interface{} {
	if col.IsNull(pos) {
		return nil
	}

	switch col.DataType().ID() {
	case arrow.STRING:
		return col.(*array.String).Value(pos)
	case arrow.LARGE_STRING:
		return col.(*array.LargeString).Value(pos)
	case arrow.BINARY:
		return string(col.(*array.Binary).Value(pos))
	case arrow.BOOL:
		return col.(*array.Boolean).Value(pos)
	case arrow.INT8:
		return col.(*array.Int8).Value(pos)
	case arrow.INT16:
		return col.(*array.Int16).Value(pos)
	case arrow.INT32:
		return col.(*array.Int32).Value(pos)
	case arrow.INT64:
		return col.(*array.Int64).Value(pos)
	case arrow.UINT8:
		return col.(*array.Uint8).Value(pos)
	case arrow.UINT16:
		return col.(*array.Uint16).Value(pos)
	case arrow.UINT32:
		return col.(*array.Uint32).Value(pos)
	case arrow.UINT64:
		return col.(*array.Uint64).Value(pos)
	case arrow.FLOAT16:
		return col.(*array.Float16).Value(pos).Float32()
	case arrow.FLOAT32:
		return col.(*array.Float32).Value(pos)
	case arrow.FLOAT64:
		return col.(*array.Float64).Value(pos)
	case arrow.DATE32:
		return col.(*array.Date32).Value(pos).ToTime()
	case arrow.DATE64:
		return col.(*array.Date64).Value(pos).ToTime()
	case arrow.TIMESTAMP:
		unit := col.DataType().(*arrow.TimestampType).Unit
		return col.(*array.Timestamp).Value(pos).ToTime(unit)
	case arrow.DECIMAL128:
		scale := col.DataType().(*arrow.Decimal128Type).Scale
		return col.(*array.Decimal128).Value(pos).ToFloat64(scale)
	case arrow.DICTIONARY:
		dict := col.(*array.Dictionary)
		return arrowValue(dict.Dictionary(), dict.GetValueIndex(pos))
	default:
		return col.ValueStr(pos)
	}
}
