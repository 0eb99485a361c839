package logical

import (
	"fmt"

	"github.com/grafana/lazyframe/pkg/engine/internal/datatype"
	"github.com/grafana/lazyframe/pkg/engine/internal/schema"
)

// FunctionIR is the table-level function of a [MapFunction].
type FunctionIR interface {
	// AllowsProjectionPushdown reports whether the function only needs the
	// columns requested from its output plus [FunctionIR.ExtraColumns].
	AllowsProjectionPushdown() bool

	// ExtraColumns lists input columns the function reads regardless of
	// which output columns are requested.
	ExtraColumns() []string

	schema(input *schema.Schema) *schema.Schema
	String() string
}

// RenameFunction renames Existing[i] to New[i].
type RenameFunction struct {
	Existing []string
	New      []string
}

// ExplodeFunction unnests the list columns Columns, one row per element.
type ExplodeFunction struct {
	Columns []string
}

// RowIndexFunction prepends a row number column.
type RowIndexFunction struct {
	Name   string
	Offset uint32
}

// RechunkFunction makes the memory of each column contiguous.
type RechunkFunction struct{}

// OpaqueFunction is a user-defined function.
type OpaqueFunction struct {
	Name string

	// ProjectionPushdown declares that the function can run on a subset of
	// its input columns.
	ProjectionPushdown bool

	// Columns lists input columns the function always reads.
	Columns []string

	// Schema is the output schema. nil keeps the input schema.
	Schema *schema.Schema
}

var (
	_ FunctionIR = (*RenameFunction)(nil)
	_ FunctionIR = (*ExplodeFunction)(nil)
	_ FunctionIR = (*RowIndexFunction)(nil)
	_ FunctionIR = (*RechunkFunction)(nil)
	_ FunctionIR = (*OpaqueFunction)(nil)
)

func (*RenameFunction) AllowsProjectionPushdown() bool   { return true }
func (*ExplodeFunction) AllowsProjectionPushdown() bool  { return true }
func (*RowIndexFunction) AllowsProjectionPushdown() bool { return true }
func (*RechunkFunction) AllowsProjectionPushdown() bool  { return true }
func (f *OpaqueFunction) AllowsProjectionPushdown() bool { return f.ProjectionPushdown }

func (*RenameFunction) ExtraColumns() []string   { return nil }
func (f *ExplodeFunction) ExtraColumns() []string { return f.Columns }
func (*RowIndexFunction) ExtraColumns() []string { return nil }
func (*RechunkFunction) ExtraColumns() []string  { return nil }
func (f *OpaqueFunction) ExtraColumns() []string { return f.Columns }

func (f *RenameFunction) schema(input *schema.Schema) *schema.Schema {
	renames := make(map[string]string, len(f.Existing))
	for i, name := range f.Existing {
		renames[name] = f.New[i]
	}
	out := schema.WithCapacity(input.Len())
	for _, field := range input.Fields() {
		if to, ok := renames[field.Name]; ok {
			field.Name = to
		}
		out.WithColumn(field.Name, field.Type)
	}
	return out
}

func (f *ExplodeFunction) schema(input *schema.Schema) *schema.Schema {
	out := input.Clone()
	for _, name := range f.Columns {
		dt, ok := out.Get(name)
		if !ok {
			continue
		}
		if l, ok := dt.(*datatype.List); ok {
			out.WithColumn(name, l.Elem)
		}
	}
	return out
}

func (f *RowIndexFunction) schema(input *schema.Schema) *schema.Schema {
	out := input.Clone()
	// Inserting at position 0 never fails.
	_ = out.InsertAtIndex(0, f.Name, datatype.Index)
	return out
}

func (*RechunkFunction) schema(input *schema.Schema) *schema.Schema { return input }

func (f *OpaqueFunction) schema(input *schema.Schema) *schema.Schema {
	if f.Schema != nil {
		return f.Schema
	}
	return input
}

func (f *RenameFunction) String() string {
	return fmt.Sprintf("rename(%v -> %v)", f.Existing, f.New)
}

func (f *ExplodeFunction) String() string { return fmt.Sprintf("explode(%v)", f.Columns) }

func (f *RowIndexFunction) String() string {
	return fmt.Sprintf("row_index(name=%s, offset=%d)", f.Name, f.Offset)
}

func (*RechunkFunction) String() string { return "rechunk" }

func (f *OpaqueFunction) String() string { return f.Name }
