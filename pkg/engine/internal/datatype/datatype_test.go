package datatype

import (
	"testing"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	for _, s := range []string{"null", "bool", "int64", "uint32", "float64", "string", "datetime", "list[int32]", "list[list[string]]"} {
		t.Run(s, func(t *testing.T) {
			dt, err := Parse(s)
			require.NoError(t, err)
			require.Equal(t, s, dt.String())
		})
	}

	_, err := Parse("decimal")
	require.Error(t, err)
	_, err = Parse("list[nope]")
	require.Error(t, err)
}

func TestPredicates(t *testing.T) {
	tests := []struct {
		dt                               DataType
		null, boolean, numeric, temporal bool
	}{
		{dt: Null, null: true},
		{dt: Bool, boolean: true},
		{dt: Int16, numeric: true},
		{dt: Float64, numeric: true},
		{dt: Datetime, temporal: true},
		{dt: Duration, temporal: true},
		{dt: String},
		{dt: NewList(Int64)},
	}
	for _, tt := range tests {
		t.Run(tt.dt.String(), func(t *testing.T) {
			require.Equal(t, tt.null, IsNull(tt.dt))
			require.Equal(t, tt.boolean, IsBool(tt.dt))
			require.Equal(t, tt.numeric, IsPrimitiveNumeric(tt.dt))
			require.Equal(t, tt.temporal, IsTemporal(tt.dt))
		})
	}
}

func TestEqual(t *testing.T) {
	require.True(t, Equal(Int64, Int64))
	require.False(t, Equal(Int64, Int32))
	require.True(t, Equal(NewList(String), NewList(String)))
	require.False(t, Equal(NewList(String), NewList(Binary)))
	require.False(t, Equal(NewList(String), String))
}

func TestArrowRoundTrip(t *testing.T) {
	for _, dt := range []DataType{Bool, Int8, UInt64, Float32, String, Binary, Date, Datetime, Duration, Time, NewList(Int64)} {
		at, err := ToArrow(dt)
		require.NoError(t, err)

		back, err := FromArrow(at)
		require.NoError(t, err)
		require.True(t, Equal(dt, back), "%s became %s", dt, back)
	}

	dt, err := FromArrow(arrow.BinaryTypes.LargeString)
	require.NoError(t, err)
	require.Equal(t, String, dt)

	_, err = FromArrow(arrow.StructOf(arrow.Field{Name: "a", Type: arrow.PrimitiveTypes.Int8}))
	require.Error(t, err)
}
