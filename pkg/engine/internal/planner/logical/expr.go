package logical

import (
	"fmt"

	"github.com/grafana/lazyframe/pkg/engine/internal/arena"
	"github.com/grafana/lazyframe/pkg/engine/internal/datatype"
)

// Expr is an expression stored in an [ExprArena]. Expressions reference
// their operands by [arena.Node] handles into the same arena.
//
// The set of expressions is closed; every implementation lives in this
// package.
type Expr interface {
	isExpr()
}

// ExprArena stores expressions.
type ExprArena = arena.Arena[Expr]

// NewExprArena returns an empty expression arena.
func NewExprArena() *ExprArena { return arena.New[Expr](nil) }

// Column references an input column by name.
type Column struct {
	Name string
}

// Literal is a constant value.
type Literal struct {
	Value any
	Type  datatype.DataType
}

// Alias renames the output of Input.
type Alias struct {
	Input arena.Node
	Name  string
}

// BinaryOp is the operator of a [BinaryExpr].
type BinaryOp int

// Supported binary operators.
const (
	BinaryOpInvalid BinaryOp = iota
	BinaryOpEq
	BinaryOpNotEq
	BinaryOpLt
	BinaryOpLtEq
	BinaryOpGt
	BinaryOpGtEq
	BinaryOpAnd
	BinaryOpOr
	BinaryOpAdd
	BinaryOpSub
	BinaryOpMul
	BinaryOpDiv
	BinaryOpMod
)

var binaryOpSymbols = map[BinaryOp]string{
	BinaryOpEq:    "==",
	BinaryOpNotEq: "!=",
	BinaryOpLt:    "<",
	BinaryOpLtEq:  "<=",
	BinaryOpGt:    ">",
	BinaryOpGtEq:  ">=",
	BinaryOpAnd:   "&",
	BinaryOpOr:    "|",
	BinaryOpAdd:   "+",
	BinaryOpSub:   "-",
	BinaryOpMul:   "*",
	BinaryOpDiv:   "/",
	BinaryOpMod:   "%",
}

// String returns the operator symbol.
func (op BinaryOp) String() string {
	if s, ok := binaryOpSymbols[op]; ok {
		return s
	}
	return fmt.Sprintf("BinaryOp(%d)", int(op))
}

// ParseBinaryOp returns the operator for the given symbol.
func ParseBinaryOp(s string) (BinaryOp, bool) {
	for op, sym := range binaryOpSymbols {
		if sym == s {
			return op, true
		}
	}
	return BinaryOpInvalid, false
}

func (op BinaryOp) isComparison() bool {
	switch op {
	case BinaryOpEq, BinaryOpNotEq, BinaryOpLt, BinaryOpLtEq, BinaryOpGt, BinaryOpGtEq:
		return true
	}
	return false
}

func (op BinaryOp) isLogical() bool {
	return op == BinaryOpAnd || op == BinaryOpOr
}

// BinaryExpr applies Op to Left and Right.
type BinaryExpr struct {
	Left  arena.Node
	Op    BinaryOp
	Right arena.Node
}

// Cast converts Input to a different type.
type Cast struct {
	Input arena.Node
	To    datatype.DataType
}

// AggKind is the aggregation function of an [Agg].
type AggKind int

// Supported aggregations.
const (
	AggInvalid AggKind = iota
	AggMin
	AggMax
	AggSum
	AggMean
	AggCount
	AggFirst
	AggLast
	AggNUnique
	AggImplode
)

var aggNames = map[AggKind]string{
	AggMin:     "min",
	AggMax:     "max",
	AggSum:     "sum",
	AggMean:    "mean",
	AggCount:   "count",
	AggFirst:   "first",
	AggLast:    "last",
	AggNUnique: "n_unique",
	AggImplode: "implode",
}

// String returns the name of the aggregation.
func (k AggKind) String() string {
	if s, ok := aggNames[k]; ok {
		return s
	}
	return fmt.Sprintf("AggKind(%d)", int(k))
}

// ParseAggKind returns the aggregation with the given name.
func ParseAggKind(s string) (AggKind, bool) {
	for k, name := range aggNames {
		if name == s {
			return k, true
		}
	}
	return AggInvalid, false
}

// Agg reduces Input to a single value per group.
type Agg struct {
	Kind  AggKind
	Input arena.Node
}

// Len counts the rows of its context.
type Len struct{}

// Function applies a named function to its inputs. The optimizer treats the
// function as opaque.
type Function struct {
	Name   string
	Inputs []arena.Node

	// Output is the result type. When nil the type of the first input is
	// used.
	Output datatype.DataType

	// Elementwise is set for functions which produce one output row per input
	// row.
	Elementwise bool
}

// Ternary evaluates to Truthy where Predicate holds and Falsy elsewhere.
type Ternary struct {
	Predicate arena.Node
	Truthy    arena.Node
	Falsy     arena.Node
}

func (*Column) isExpr()     {}
func (*Literal) isExpr()    {}
func (*Alias) isExpr()      {}
func (*BinaryExpr) isExpr() {}
func (*Cast) isExpr()       {}
func (*Agg) isExpr()        {}
func (*Len) isExpr()        {}
func (*Function) isExpr()   {}
func (*Ternary) isExpr()    {}

// ExprInputs returns the operands of e in evaluation order.
func ExprInputs(e Expr) []arena.Node {
	switch e := e.(type) {
	case *Column, *Literal, *Len:
		return nil
	case *Alias:
		return []arena.Node{e.Input}
	case *BinaryExpr:
		return []arena.Node{e.Left, e.Right}
	case *Cast:
		return []arena.Node{e.Input}
	case *Agg:
		return []arena.Node{e.Input}
	case *Function:
		return e.Inputs
	case *Ternary:
		return []arena.Node{e.Predicate, e.Truthy, e.Falsy}
	default:
		panic(fmt.Sprintf("unexpected expression type %T", e))
	}
}
