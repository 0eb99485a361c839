package schema

import (
	"fmt"
	"io"

	"github.com/parquet-go/parquet-go"

	"github.com/grafana/lazyframe/pkg/engine/internal/datatype"
	"github.com/grafana/lazyframe/pkg/engine/internal/errors"
)

// FromParquet converts the top-level columns of a Parquet schema into a
// [Schema]. Repeated leaves and LIST groups become [datatype.List] columns;
// other nested groups are not supported.
func FromParquet(ps *parquet.Schema) (*Schema, error) {
	fields := make([]Field, 0, len(ps.Fields()))
	for _, pf := range ps.Fields() {
		dt, err := parquetFieldType(pf)
		if err != nil {
			return nil, fmt.Errorf("field %s: %w", pf.Name(), err)
		}
		fields = append(fields, Field{Name: pf.Name(), Type: dt})
	}
	return New(fields...)
}

// ReadParquet reads the schema from the footer of a Parquet file.
func ReadParquet(r io.ReaderAt, size int64) (*Schema, error) {
	f, err := parquet.OpenFile(r, size, parquet.SkipPageIndex(true), parquet.SkipBloomFilters(true))
	if err != nil {
		return nil, fmt.Errorf("opening parquet file: %w", err)
	}
	return FromParquet(f.Schema())
}

func parquetFieldType(pf parquet.Field) (datatype.DataType, error) {
	if !pf.Leaf() {
		lt := pf.Type().LogicalType()
		if lt == nil || lt.List == nil {
			return nil, fmt.Errorf("%w: nested group columns", errors.ErrNotImplemented)
		}
		// LIST groups are encoded as <name> (LIST) -> repeated group list -> element.
		inner := pf.Fields()
		if len(inner) != 1 || len(inner[0].Fields()) != 1 {
			return nil, fmt.Errorf("%w: malformed LIST group", errors.ErrType)
		}
		elem, err := parquetFieldType(inner[0].Fields()[0])
		if err != nil {
			return nil, err
		}
		return datatype.NewList(elem), nil
	}

	dt, err := parquetLeafType(pf.Type())
	if err != nil {
		return nil, err
	}
	if pf.Repeated() {
		return datatype.NewList(dt), nil
	}
	return dt, nil
}

func parquetLeafType(t parquet.Type) (datatype.DataType, error) {
	if lt := t.LogicalType(); lt != nil {
		switch {
		case lt.UTF8 != nil, lt.Enum != nil, lt.Json != nil:
			return datatype.String, nil
		case lt.Date != nil:
			return datatype.Date, nil
		case lt.Time != nil:
			return datatype.Time, nil
		case lt.Timestamp != nil:
			return datatype.Datetime, nil
		case lt.Integer != nil:
			return parquetIntType(int(lt.Integer.BitWidth), lt.Integer.IsSigned), nil
		}
	}

	switch t.Kind() {
	case parquet.Boolean:
		return datatype.Bool, nil
	case parquet.Int32:
		return datatype.Int32, nil
	case parquet.Int64:
		return datatype.Int64, nil
	case parquet.Int96:
		return datatype.Datetime, nil
	case parquet.Float:
		return datatype.Float32, nil
	case parquet.Double:
		return datatype.Float64, nil
	case parquet.ByteArray, parquet.FixedLenByteArray:
		return datatype.Binary, nil
	}
	return nil, fmt.Errorf("%w: parquet type %s", errors.ErrType, t)
}

func parquetIntType(bits int, signed bool) datatype.DataType {
	switch {
	case bits == 8 && signed:
		return datatype.Int8
	case bits == 8:
		return datatype.UInt8
	case bits == 16 && signed:
		return datatype.Int16
	case bits == 16:
		return datatype.UInt16
	case bits == 32 && signed:
		return datatype.Int32
	case bits == 32:
		return datatype.UInt32
	case signed:
		return datatype.Int64
	default:
		return datatype.UInt64
	}
}
