package datatype

import (
	"fmt"

	"github.com/apache/arrow-go/v18/arrow"
)

var (
	toArrow = map[ID]arrow.DataType{
		IDNull:     arrow.Null,
		IDBool:     arrow.FixedWidthTypes.Boolean,
		IDInt8:     arrow.PrimitiveTypes.Int8,
		IDInt16:    arrow.PrimitiveTypes.Int16,
		IDInt32:    arrow.PrimitiveTypes.Int32,
		IDInt64:    arrow.PrimitiveTypes.Int64,
		IDUInt8:    arrow.PrimitiveTypes.Uint8,
		IDUInt16:   arrow.PrimitiveTypes.Uint16,
		IDUInt32:   arrow.PrimitiveTypes.Uint32,
		IDUInt64:   arrow.PrimitiveTypes.Uint64,
		IDFloat32:  arrow.PrimitiveTypes.Float32,
		IDFloat64:  arrow.PrimitiveTypes.Float64,
		IDString:   arrow.BinaryTypes.String,
		IDBinary:   arrow.BinaryTypes.Binary,
		IDDate:     arrow.FixedWidthTypes.Date32,
		IDDatetime: arrow.FixedWidthTypes.Timestamp_us,
		IDDuration: arrow.FixedWidthTypes.Duration_us,
		IDTime:     arrow.FixedWidthTypes.Time64ns,
	}

	fromArrow = map[arrow.Type]DataType{
		arrow.NULL:         Null,
		arrow.BOOL:         Bool,
		arrow.INT8:         Int8,
		arrow.INT16:        Int16,
		arrow.INT32:        Int32,
		arrow.INT64:        Int64,
		arrow.UINT8:        UInt8,
		arrow.UINT16:       UInt16,
		arrow.UINT32:       UInt32,
		arrow.UINT64:       UInt64,
		arrow.FLOAT32:      Float32,
		arrow.FLOAT64:      Float64,
		arrow.STRING:       String,
		arrow.LARGE_STRING: String,
		arrow.STRING_VIEW:  String,
		arrow.BINARY:       Binary,
		arrow.LARGE_BINARY: Binary,
		arrow.BINARY_VIEW:  Binary,
		arrow.DATE32:       Date,
		arrow.DATE64:       Date,
		arrow.TIMESTAMP:    Datetime,
		arrow.DURATION:     Duration,
		arrow.TIME32:       Time,
		arrow.TIME64:       Time,
	}
)

// ToArrow returns the Arrow type used to represent dt in memory.
func ToArrow(dt DataType) (arrow.DataType, error) {
	if list, ok := dt.(*List); ok {
		elem, err := ToArrow(list.Elem)
		if err != nil {
			return nil, err
		}
		return arrow.ListOf(elem), nil
	}
	if at, ok := toArrow[dt.ID()]; ok {
		return at, nil
	}
	return nil, fmt.Errorf("no arrow representation for %s", dt)
}

// FromArrow returns the logical type of an Arrow type.
func FromArrow(at arrow.DataType) (DataType, error) {
	switch at := at.(type) {
	case *arrow.ListType:
		elem, err := FromArrow(at.Elem())
		if err != nil {
			return nil, err
		}
		return NewList(elem), nil
	case *arrow.LargeListType:
		elem, err := FromArrow(at.Elem())
		if err != nil {
			return nil, err
		}
		return NewList(elem), nil
	}
	if dt, ok := fromArrow[at.ID()]; ok {
		return dt, nil
	}
	return nil, fmt.Errorf("unsupported arrow type %s", at)
}
