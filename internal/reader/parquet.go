package reader

import (
	"bytes"
	"context"
	"fmt"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/apache/arrow-go/v18/parquet/file"
	"github.com/apache/arrow-go/v18/parquet/pqarrow"
)

// parquetFormat reads columnar binary payloads. The embedded schema is
// trusted as-is; no inference happens.
type parquetFormat struct{}

func (parquetFormat) Tags() []string { return []string{"parquet"} }

func (parquetFormat) Read(raw []byte) (*Dataset, error) {
	rdr, err := file.NewParquetReader(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("opening parquet: %w", err)
	}
	defer func() { _ = rdr.Close() }()

	fr, err := pqarrow.NewFileReader(rdr, pqarrow.ArrowReadProperties{BatchSize: 1024}, memory.DefaultAllocator)
	if err != nil {
		return nil, fmt.Errorf("reading parquet schema: %w", err)
	}

	tbl, err := fr.ReadTable(context.Background())
	if err != nil {
		return nil, fmt.Errorf("reading parquet table: %w", err)
	}
	defer tbl.Release()

	ds := &Dataset{}
	for _, field := range tbl.Schema().Fields() {
		ds.Columns = append(ds.Columns, Column{Name: field.Name, Type: arrowTypeTag(field.Type)})
	}

	tr := array.NewTableReader(tbl, 1024)
	defer tr.Release()
	for tr.Next() {
		rec := tr.Record()
		n := int(rec.NumRows())
		for i := 0; i < n; i++ {
			row := make([]any, len(ds.Columns))
			for j := range ds.Columns {
				row[j] = arrowValue(rec.Column(j), i)
			}
			ds.Rows = append(ds.Rows, row)
		}
	}
	return ds, nil
}

func arrowTypeTag(dt arrow.DataType) string {
	switch dt.ID() {
	case arrow.INT8, arrow.INT16, arrow.INT32, arrow.INT64,
		arrow.UINT8, arrow.UINT16, arrow.UINT32, arrow.UINT64:
		return TypeBigint
	case arrow.FLOAT32, arrow.FLOAT64:
		return TypeDouble
	case arrow.BOOL:
		return TypeBoolean
	case arrow.TIMESTAMP, arrow.DATE32, arrow.DATE64:
		return TypeTimestamp
	default:
		return TypeString
	}
}

func arrowValue(col arrow.Array, i int) any {
	if col.IsNull(i) {
		return nil
	}
	switch arr := col.(type) {
	case *array.Int64:
		return arr.Value(i)
	case *array.Int32:
		return int64(arr.Value(i))
	case *array.Float64:
		return arr.Value(i)
	case *array.Float32:
		return float64(arr.Value(i))
	case *array.Boolean:
		return arr.Value(i)
	case *array.String:
		return arr.Value(i)
	case *array.LargeString:
		return arr.Value(i)
	case *array.Timestamp:
		unit := arr.DataType().(*arrow.TimestampType).Unit
		return arr.Value(i).ToTime(unit)
	default:
		return col.ValueStr(i)
	}
}
