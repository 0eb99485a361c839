package logical

import (
	"fmt"

	"github.com/grafana/lazyframe/pkg/engine/internal/arena"
	"github.com/grafana/lazyframe/pkg/engine/internal/schema"
)

// IR is an operator of a logical plan stored in an [IRArena]. Operators
// reference their inputs by [arena.Node] handles into the same arena.
//
// The set of operators is closed; every implementation lives in this package
// and code walking a plan is expected to handle all of them.
type IR interface {
	isIR()
}

// IRArena stores plan operators.
type IRArena = arena.Arena[IR]

// NewIRArena returns an empty plan arena. Slots emptied with
// [arena.Arena.Take] hold an [Invalid] operator.
func NewIRArena() *IRArena { return arena.New[IR](&Invalid{}) }

// Format identifies the reader of a [Scan].
type Format int

// Supported scan formats.
const (
	FormatInvalid Format = iota
	FormatParquet
	FormatIPC
	FormatCSV
	FormatNDJSON
	FormatAnonymous
)

var formatNames = map[Format]string{
	FormatParquet:   "parquet",
	FormatIPC:       "ipc",
	FormatCSV:       "csv",
	FormatNDJSON:    "ndjson",
	FormatAnonymous: "anonymous",
}

// String returns the lowercase format name.
func (f Format) String() string {
	if s, ok := formatNames[f]; ok {
		return s
	}
	return fmt.Sprintf("Format(%d)", int(f))
}

// ParseFormat returns the format with the given name.
func ParseFormat(s string) (Format, bool) {
	for f, name := range formatNames {
		if name == s {
			return f, true
		}
	}
	return FormatInvalid, false
}

// ScanType describes the reader of a [Scan].
type ScanType struct {
	Format Format

	// AllowsProjectionPushdown is only consulted for anonymous scans. All
	// other formats can always read a subset of columns.
	AllowsProjectionPushdown bool
}

// CanProjectColumns reports whether the reader accepts a column projection.
func (t ScanType) CanProjectColumns() bool {
	return t.Format != FormatAnonymous || t.AllowsProjectionPushdown
}

// SortProjection reports whether the reader requires projected columns in
// file schema order.
func (t ScanType) SortProjection(hasRowIndex bool) bool {
	switch t.Format {
	case FormatCSV:
		return true
	case FormatIPC:
		return hasRowIndex
	default:
		return false
	}
}

// FileInfo holds what is known about the files of a [Scan] before reading
// them.
type FileInfo struct {
	// Schema is the schema of the files, including the row index column
	// (first) and the file path column (last) if the scan produces them.
	Schema *schema.Schema
}

// RowIndex configures a generated row number column.
type RowIndex struct {
	Name   string
	Offset uint32
}

// ScanArgs are the reader options of a [Scan].
type ScanArgs struct {
	// Projection lists the physical columns to read. nil reads every column.
	Projection []string

	RowIndex *RowIndex

	// IncludeFilePaths names a generated column holding the source path of
	// each row. Empty disables it.
	IncludeFilePaths string
}

// Scan reads files.
type Scan struct {
	Sources   []string
	FileInfo  FileInfo
	ScanType  ScanType
	Predicate *ExprIR
	Args      ScanArgs

	// OutputSchema is the schema after projection. nil means FileInfo.Schema.
	OutputSchema *schema.Schema
}

// DataFrameScan reads an in-memory table.
type DataFrameScan struct {
	Name   string
	Schema *schema.Schema

	// OutputSchema is the schema after projection. nil means Schema.
	OutputSchema *schema.Schema
}

// PythonScan reads from a user-defined source.
type PythonScan struct {
	Name   string
	Schema *schema.Schema

	// WithColumns lists the columns the source must produce. nil produces
	// every column.
	WithColumns []string

	// OutputSchema is the schema after projection. nil means Schema.
	OutputSchema *schema.Schema
}

// Select evaluates expressions against its input. Its output has exactly one
// column per expression.
type Select struct {
	Input  arena.Node
	Exprs  []ExprIR
	Schema *schema.Schema
}

// SimpleProjection selects and reorders input columns by name.
type SimpleProjection struct {
	Input   arena.Node
	Columns *schema.Schema
}

// Filter keeps the rows matching Predicate.
type Filter struct {
	Input     arena.Node
	Predicate ExprIR
}

// Sort orders rows by one or more expressions.
type Sort struct {
	Input      arena.Node
	ByColumn   []ExprIR
	Descending []bool
}

// Distinct removes duplicate rows.
type Distinct struct {
	Input arena.Node

	// Subset names the columns compared for equality. nil compares all
	// columns.
	Subset        []string
	MaintainOrder bool
}

// ApplyFunction replaces the aggregations of a [GroupBy] with a user function
// called once per group.
type ApplyFunction struct {
	Name   string
	Schema *schema.Schema
}

// GroupBy groups rows by Keys and evaluates Aggs per group.
type GroupBy struct {
	Input         arena.Node
	Keys          []ExprIR
	Aggs          []ExprIR
	Schema        *schema.Schema
	Apply         *ApplyFunction
	MaintainOrder bool
}

// JoinType is the kind of a [Join].
type JoinType int

// Supported joins.
const (
	JoinTypeInvalid JoinType = iota
	JoinTypeInner
	JoinTypeLeft
	JoinTypeFull
	JoinTypeCross
	JoinTypeSemi
	JoinTypeAnti
)

var joinTypeNames = map[JoinType]string{
	JoinTypeInner: "inner",
	JoinTypeLeft:  "left",
	JoinTypeFull:  "full",
	JoinTypeCross: "cross",
	JoinTypeSemi:  "semi",
	JoinTypeAnti:  "anti",
}

// String returns the lowercase join name.
func (t JoinType) String() string {
	if s, ok := joinTypeNames[t]; ok {
		return s
	}
	return fmt.Sprintf("JoinType(%d)", int(t))
}

// ParseJoinType returns the join type with the given name.
func ParseJoinType(s string) (JoinType, bool) {
	for t, name := range joinTypeNames {
		if name == s {
			return t, true
		}
	}
	return JoinTypeInvalid, false
}

// DefaultJoinSuffix is appended to right-hand column names colliding with a
// left-hand column.
const DefaultJoinSuffix = "_right"

// JoinOptions configures a [Join].
type JoinOptions struct {
	How    JoinType
	Suffix string
}

// SuffixOrDefault returns Suffix, or [DefaultJoinSuffix] if it is empty.
func (o JoinOptions) SuffixOrDefault() string {
	if o.Suffix == "" {
		return DefaultJoinSuffix
	}
	return o.Suffix
}

// Join combines the rows of two inputs.
type Join struct {
	InputLeft  arena.Node
	InputRight arena.Node
	LeftOn     []ExprIR
	RightOn    []ExprIR
	Options    JoinOptions
	Schema     *schema.Schema
}

// HStack adds or replaces columns computed from Exprs.
type HStack struct {
	Input  arena.Node
	Exprs  []ExprIR
	Schema *schema.Schema
}

// HConcat concatenates the columns of its inputs.
type HConcat struct {
	Inputs []arena.Node
	Schema *schema.Schema
}

// Union concatenates the rows of its inputs.
type Union struct {
	Inputs []arena.Node
}

// Slice keeps Len rows starting at Offset.
type Slice struct {
	Input  arena.Node
	Offset int64
	Len    uint64
}

// Sink writes its input to Path.
type Sink struct {
	Input  arena.Node
	Path   string
	Format Format
}

// SinkMultiple runs several sinks as one query.
type SinkMultiple struct {
	Inputs []arena.Node
}

// Cache materializes its input once for every consumer referencing ID.
type Cache struct {
	Input arena.Node
	ID    uint64
}

// MergeSorted merges two inputs sorted on Key.
type MergeSorted struct {
	InputLeft  arena.Node
	InputRight arena.Node
	Key        string
}

// MapFunction applies a table-level function to its input.
type MapFunction struct {
	Input    arena.Node
	Function FunctionIR
}

// ExtContext makes the columns of Contexts visible to expressions evaluated
// over Input.
type ExtContext struct {
	Input    arena.Node
	Contexts []arena.Node
	Schema   *schema.Schema
}

// Invalid fills arena slots whose operator has been taken out.
type Invalid struct{}

func (*Scan) isIR()             {}
func (*DataFrameScan) isIR()    {}
func (*PythonScan) isIR()       {}
func (*Select) isIR()           {}
func (*SimpleProjection) isIR() {}
func (*Filter) isIR()           {}
func (*Sort) isIR()             {}
func (*Distinct) isIR()         {}
func (*GroupBy) isIR()          {}
func (*Join) isIR()             {}
func (*HStack) isIR()           {}
func (*HConcat) isIR()          {}
func (*Union) isIR()            {}
func (*Slice) isIR()            {}
func (*Sink) isIR()             {}
func (*SinkMultiple) isIR()     {}
func (*Cache) isIR()            {}
func (*MergeSorted) isIR()      {}
func (*MapFunction) isIR()      {}
func (*ExtContext) isIR()       {}
func (*Invalid) isIR()          {}

// Inputs returns the input handles of ir in order.
func Inputs(ir IR) []arena.Node {
	switch ir := ir.(type) {
	case *Scan, *DataFrameScan, *PythonScan:
		return nil
	case *Select:
		return []arena.Node{ir.Input}
	case *SimpleProjection:
		return []arena.Node{ir.Input}
	case *Filter:
		return []arena.Node{ir.Input}
	case *Sort:
		return []arena.Node{ir.Input}
	case *Distinct:
		return []arena.Node{ir.Input}
	case *GroupBy:
		return []arena.Node{ir.Input}
	case *Join:
		return []arena.Node{ir.InputLeft, ir.InputRight}
	case *HStack:
		return []arena.Node{ir.Input}
	case *HConcat:
		return ir.Inputs
	case *Union:
		return ir.Inputs
	case *Slice:
		return []arena.Node{ir.Input}
	case *Sink:
		return []arena.Node{ir.Input}
	case *SinkMultiple:
		return ir.Inputs
	case *Cache:
		return []arena.Node{ir.Input}
	case *MergeSorted:
		return []arena.Node{ir.InputLeft, ir.InputRight}
	case *MapFunction:
		return []arena.Node{ir.Input}
	case *ExtContext:
		return append([]arena.Node{ir.Input}, ir.Contexts...)
	case *Invalid:
		panic("inputs of invalid operator")
	default:
		panic(fmt.Sprintf("unexpected operator type %T", ir))
	}
}

// WithInputs returns a shallow copy of ir reading from inputs instead. inputs
// must have the same length as [Inputs] of ir.
func WithInputs(ir IR, inputs []arena.Node) IR {
	if got, want := len(inputs), len(Inputs(ir)); got != want {
		panic(fmt.Sprintf("%T takes %d inputs, got %d", ir, want, got))
	}

	switch ir := ir.(type) {
	case *Scan:
		cp := *ir
		return &cp
	case *DataFrameScan:
		cp := *ir
		return &cp
	case *PythonScan:
		cp := *ir
		return &cp
	case *Select:
		cp := *ir
		cp.Input = inputs[0]
		return &cp
	case *SimpleProjection:
		cp := *ir
		cp.Input = inputs[0]
		return &cp
	case *Filter:
		cp := *ir
		cp.Input = inputs[0]
		return &cp
	case *Sort:
		cp := *ir
		cp.Input = inputs[0]
		return &cp
	case *Distinct:
		cp := *ir
		cp.Input = inputs[0]
		return &cp
	case *GroupBy:
		cp := *ir
		cp.Input = inputs[0]
		return &cp
	case *Join:
		cp := *ir
		cp.InputLeft, cp.InputRight = inputs[0], inputs[1]
		return &cp
	case *HStack:
		cp := *ir
		cp.Input = inputs[0]
		return &cp
	case *HConcat:
		cp := *ir
		cp.Inputs = inputs
		return &cp
	case *Union:
		cp := *ir
		cp.Inputs = inputs
		return &cp
	case *Slice:
		cp := *ir
		cp.Input = inputs[0]
		return &cp
	case *Sink:
		cp := *ir
		cp.Input = inputs[0]
		return &cp
	case *SinkMultiple:
		cp := *ir
		cp.Inputs = inputs
		return &cp
	case *Cache:
		cp := *ir
		cp.Input = inputs[0]
		return &cp
	case *MergeSorted:
		cp := *ir
		cp.InputLeft, cp.InputRight = inputs[0], inputs[1]
		return &cp
	case *MapFunction:
		cp := *ir
		cp.Input = inputs[0]
		return &cp
	case *ExtContext:
		cp := *ir
		cp.Input = inputs[0]
		cp.Contexts = inputs[1:]
		return &cp
	default:
		panic(fmt.Sprintf("unexpected operator type %T", ir))
	}
}

// SchemaOf returns the output schema of ir. Operators which do not store
// their schema derive it from their inputs in a.
func SchemaOf(a *IRArena, ir IR) *schema.Schema {
	switch ir := ir.(type) {
	case *Scan:
		if ir.OutputSchema != nil {
			return ir.OutputSchema
		}
		return ir.FileInfo.Schema
	case *DataFrameScan:
		if ir.OutputSchema != nil {
			return ir.OutputSchema
		}
		return ir.Schema
	case *PythonScan:
		if ir.OutputSchema != nil {
			return ir.OutputSchema
		}
		return ir.Schema
	case *Select:
		return ir.Schema
	case *SimpleProjection:
		return ir.Columns
	case *Filter:
		return SchemaOf(a, a.Get(ir.Input))
	case *Sort:
		return SchemaOf(a, a.Get(ir.Input))
	case *Distinct:
		return SchemaOf(a, a.Get(ir.Input))
	case *GroupBy:
		return ir.Schema
	case *Join:
		return ir.Schema
	case *HStack:
		return ir.Schema
	case *HConcat:
		return ir.Schema
	case *Union:
		return SchemaOf(a, a.Get(ir.Inputs[0]))
	case *Slice:
		return SchemaOf(a, a.Get(ir.Input))
	case *Sink:
		return SchemaOf(a, a.Get(ir.Input))
	case *SinkMultiple:
		return schema.WithCapacity(0)
	case *Cache:
		return SchemaOf(a, a.Get(ir.Input))
	case *MergeSorted:
		return SchemaOf(a, a.Get(ir.InputLeft))
	case *MapFunction:
		return ir.Function.schema(SchemaOf(a, a.Get(ir.Input)))
	case *ExtContext:
		return ir.Schema
	case *Invalid:
		panic("schema of invalid operator")
	default:
		panic(fmt.Sprintf("unexpected operator type %T", ir))
	}
}

// Schema returns the output schema of the operator stored at n.
func Schema(a *IRArena, n arena.Node) *schema.Schema {
	return SchemaOf(a, a.Get(n))
}
