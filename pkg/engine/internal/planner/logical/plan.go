// Package logical implements the logical plan representation: operators and
// expressions stored in arenas and addressed by handles.
package logical

import (
	"github.com/grafana/lazyframe/pkg/engine/internal/arena"
	"github.com/grafana/lazyframe/pkg/engine/internal/datatype"
	"github.com/grafana/lazyframe/pkg/engine/internal/schema"
)

// Plan is a logical plan: a root operator and the arenas holding all
// operators and expressions reachable from it.
type Plan struct {
	Root arena.Node
	LP   *IRArena
	Expr *ExprArena
}

// NewPlan returns a plan with empty arenas.
func NewPlan() *Plan {
	return &Plan{LP: NewIRArena(), Expr: NewExprArena()}
}

// RootIR returns the root operator.
func (p *Plan) RootIR() IR { return p.LP.Get(p.Root) }

// Schema returns the output schema of the root operator.
func (p *Plan) Schema() *schema.Schema { return Schema(p.LP, p.Root) }

// Col adds a column reference.
func (p *Plan) Col(name string) arena.Node { return p.Expr.Add(&Column{Name: name}) }

// Lit adds a literal. The type is inferred for Go bool, integer, float and
// string values and is null otherwise.
func (p *Plan) Lit(v any) arena.Node {
	return p.Expr.Add(&Literal{Value: v, Type: literalType(v)})
}

// Alias adds an alias of input.
func (p *Plan) Alias(input arena.Node, name string) arena.Node {
	return p.Expr.Add(&Alias{Input: input, Name: name})
}

// Binary adds a binary expression.
func (p *Plan) Binary(left arena.Node, op BinaryOp, right arena.Node) arena.Node {
	return p.Expr.Add(&BinaryExpr{Left: left, Op: op, Right: right})
}

// Agg adds an aggregation of input.
func (p *Plan) Agg(kind AggKind, input arena.Node) arena.Node {
	return p.Expr.Add(&Agg{Kind: kind, Input: input})
}

// Len adds a row count.
func (p *Plan) Len() arena.Node { return p.Expr.Add(&Len{}) }

// Cast adds a cast of input.
func (p *Plan) Cast(input arena.Node, to datatype.DataType) arena.Node {
	return p.Expr.Add(&Cast{Input: input, To: to})
}

// Function adds an elementwise function call. output may be nil.
func (p *Plan) Function(name string, output datatype.DataType, inputs ...arena.Node) arena.Node {
	return p.Expr.Add(&Function{Name: name, Inputs: inputs, Output: output, Elementwise: true})
}

// When adds a conditional expression.
func (p *Plan) When(predicate, truthy, falsy arena.Node) arena.Node {
	return p.Expr.Add(&Ternary{Predicate: predicate, Truthy: truthy, Falsy: falsy})
}

func literalType(v any) datatype.DataType {
	switch v.(type) {
	case bool:
		return datatype.Bool
	case int, int64:
		return datatype.Int64
	case int32:
		return datatype.Int32
	case uint32:
		return datatype.UInt32
	case uint64:
		return datatype.UInt64
	case float32:
		return datatype.Float32
	case float64:
		return datatype.Float64
	case string:
		return datatype.String
	default:
		return datatype.Null
	}
}
