// Package datatype describes the logical types of columns in a plan schema.
package datatype

import (
	"fmt"
	"strings"
)

// ID identifies the kind of a [DataType].
type ID uint8

// Recognized values of [ID].
const (
	IDNull ID = iota
	IDBool
	IDInt8
	IDInt16
	IDInt32
	IDInt64
	IDUInt8
	IDUInt16
	IDUInt32
	IDUInt64
	IDFloat32
	IDFloat64
	IDString
	IDBinary
	IDDate
	IDDatetime
	IDDuration
	IDTime
	IDList
)

var idStrings = map[ID]string{
	IDNull:     "null",
	IDBool:     "bool",
	IDInt8:     "int8",
	IDInt16:    "int16",
	IDInt32:    "int32",
	IDInt64:    "int64",
	IDUInt8:    "uint8",
	IDUInt16:   "uint16",
	IDUInt32:   "uint32",
	IDUInt64:   "uint64",
	IDFloat32:  "float32",
	IDFloat64:  "float64",
	IDString:   "string",
	IDBinary:   "binary",
	IDDate:     "date",
	IDDatetime: "datetime",
	IDDuration: "duration",
	IDTime:     "time",
	IDList:     "list",
}

// String returns the string representation of the ID.
func (id ID) String() string {
	if s, ok := idStrings[id]; ok {
		return s
	}
	return fmt.Sprintf("ID(%d)", id)
}

// DataType is the logical type of a column.
type DataType interface {
	ID() ID
	String() string
}

type primitive struct{ id ID }

func (p primitive) ID() ID         { return p.id }
func (p primitive) String() string { return p.id.String() }

// List is a variable-length list of values of a single element type.
type List struct {
	Elem DataType
}

// ID implements [DataType].
func (l *List) ID() ID { return IDList }

// String implements [DataType].
func (l *List) String() string { return fmt.Sprintf("list[%s]", l.Elem) }

// NewList returns a list type with the given element type.
func NewList(elem DataType) *List { return &List{Elem: elem} }

var (
	Null     DataType = primitive{IDNull}
	Bool     DataType = primitive{IDBool}
	Int8     DataType = primitive{IDInt8}
	Int16    DataType = primitive{IDInt16}
	Int32    DataType = primitive{IDInt32}
	Int64    DataType = primitive{IDInt64}
	UInt8    DataType = primitive{IDUInt8}
	UInt16   DataType = primitive{IDUInt16}
	UInt32   DataType = primitive{IDUInt32}
	UInt64   DataType = primitive{IDUInt64}
	Float32  DataType = primitive{IDFloat32}
	Float64  DataType = primitive{IDFloat64}
	String   DataType = primitive{IDString}
	Binary   DataType = primitive{IDBinary}
	Date     DataType = primitive{IDDate}
	Datetime DataType = primitive{IDDatetime}
	Duration DataType = primitive{IDDuration}
	Time     DataType = primitive{IDTime}
)

// Index is the type used for row counts and positions, such as the output of
// a len() or count() aggregation.
var Index = UInt32

var primitives = map[string]DataType{
	Null.String():     Null,
	Bool.String():     Bool,
	Int8.String():     Int8,
	Int16.String():    Int16,
	Int32.String():    Int32,
	Int64.String():    Int64,
	UInt8.String():    UInt8,
	UInt16.String():   UInt16,
	UInt32.String():   UInt32,
	UInt64.String():   UInt64,
	Float32.String():  Float32,
	Float64.String():  Float64,
	String.String():   String,
	Binary.String():   Binary,
	Date.String():     Date,
	Datetime.String(): Datetime,
	Duration.String(): Duration,
	Time.String():     Time,
}

// Parse parses the string form of a data type, as returned by
// [DataType.String]. Lists are written as list[elem].
func Parse(s string) (DataType, error) {
	s = strings.TrimSpace(s)
	if dt, ok := primitives[s]; ok {
		return dt, nil
	}
	if inner, ok := strings.CutPrefix(s, "list["); ok && strings.HasSuffix(inner, "]") {
		elem, err := Parse(strings.TrimSuffix(inner, "]"))
		if err != nil {
			return nil, err
		}
		return NewList(elem), nil
	}
	return nil, fmt.Errorf("unknown data type %q", s)
}

// Equal reports whether a and b describe the same type.
func Equal(a, b DataType) bool {
	if a == nil || b == nil {
		return a == b
	}
	if a.ID() != b.ID() {
		return false
	}
	if a.ID() == IDList {
		return Equal(a.(*List).Elem, b.(*List).Elem)
	}
	return true
}

// IsNull reports whether dt is the null type.
func IsNull(dt DataType) bool { return dt.ID() == IDNull }

// IsBool reports whether dt is the boolean type.
func IsBool(dt DataType) bool { return dt.ID() == IDBool }

// IsPrimitiveNumeric reports whether dt is a fixed-width integer or floating
// point type.
func IsPrimitiveNumeric(dt DataType) bool {
	switch dt.ID() {
	case IDInt8, IDInt16, IDInt32, IDInt64,
		IDUInt8, IDUInt16, IDUInt32, IDUInt64,
		IDFloat32, IDFloat64:
		return true
	}
	return false
}

// IsFloat reports whether dt is a floating point type.
func IsFloat(dt DataType) bool {
	return dt.ID() == IDFloat32 || dt.ID() == IDFloat64
}

// IsTemporal reports whether dt represents a date, time, or duration.
func IsTemporal(dt DataType) bool {
	switch dt.ID() {
	case IDDate, IDDatetime, IDDuration, IDTime:
		return true
	}
	return false
}
