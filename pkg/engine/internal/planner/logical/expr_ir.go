package logical

import (
	"fmt"
	"iter"
	"strings"

	"github.com/grafana/lazyframe/pkg/engine/internal/arena"
	"github.com/grafana/lazyframe/pkg/engine/internal/datatype"
	"github.com/grafana/lazyframe/pkg/engine/internal/schema"
)

// ExprIR is a root expression of an operator together with the name of the
// column it produces.
type ExprIR struct {
	Node       arena.Node
	OutputName string
}

// NewExprIR returns an ExprIR for n, deriving its output name.
func NewExprIR(ea *ExprArena, n arena.Node) ExprIR {
	return ExprIR{Node: n, OutputName: OutputName(ea, n)}
}

// OutputName derives the name of the column produced by the expression at n.
// Aliases and column references name themselves; every other expression is
// named after its left-most operand.
func OutputName(ea *ExprArena, n arena.Node) string {
	switch e := ea.Get(n).(type) {
	case *Column:
		return e.Name
	case *Alias:
		return e.Name
	case *Literal:
		return "literal"
	case *Len:
		return "len"
	case *Ternary:
		return OutputName(ea, e.Truthy)
	case *Function:
		if len(e.Inputs) == 0 {
			return e.Name
		}
		return OutputName(ea, e.Inputs[0])
	default:
		return OutputName(ea, ExprInputs(e)[0])
	}
}

// ColumnNode is a handle to a [Column] expression.
type ColumnNode struct {
	node arena.Node
}

// ColumnNodeOf returns n as a ColumnNode if the expression stored at n is a
// [Column].
func ColumnNodeOf(ea *ExprArena, n arena.Node) (ColumnNode, bool) {
	if _, ok := ea.Get(n).(*Column); !ok {
		return ColumnNode{}, false
	}
	return ColumnNode{node: n}, true
}

// MustColumnNode is like [ColumnNodeOf] but panics if n is not a column.
func MustColumnNode(ea *ExprArena, n arena.Node) ColumnNode {
	cn, ok := ColumnNodeOf(ea, n)
	if !ok {
		panic(fmt.Sprintf("expression %s is %T, not a column", n, ea.Get(n)))
	}
	return cn
}

// NewColumnNode adds a column reference to ea.
func NewColumnNode(ea *ExprArena, name string) ColumnNode {
	return ColumnNode{node: ea.Add(&Column{Name: name})}
}

// Node returns the underlying expression handle.
func (c ColumnNode) Node() arena.Node { return c.node }

// Name returns the referenced column name.
func (c ColumnNode) Name(ea *ExprArena) string {
	return ea.Get(c.node).(*Column).Name
}

// ColumnNodes yields every column reference read by the expression at n, in
// depth-first order. Duplicates are yielded once per occurrence.
func ColumnNodes(ea *ExprArena, n arena.Node) iter.Seq[ColumnNode] {
	return func(yield func(ColumnNode) bool) {
		stack := []arena.Node{n}
		for len(stack) > 0 {
			cur := stack[len(stack)-1]
			stack = stack[:len(stack)-1]

			e := ea.Get(cur)
			if _, ok := e.(*Column); ok {
				if !yield(ColumnNode{node: cur}) {
					return
				}
				continue
			}
			inputs := ExprInputs(e)
			for i := len(inputs) - 1; i >= 0; i-- {
				stack = append(stack, inputs[i])
			}
		}
	}
}

// LeafNames returns the distinct column names read by the expression at n.
func LeafNames(ea *ExprArena, n arena.Node) []string {
	var names []string
	seen := map[string]struct{}{}
	for cn := range ColumnNodes(ea, n) {
		name := cn.Name(ea)
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		names = append(names, name)
	}
	return names
}

// IsScalar reports whether the expression at n always produces a single row.
func IsScalar(ea *ExprArena, n arena.Node) bool {
	switch e := ea.Get(n).(type) {
	case *Column:
		return false
	case *Literal, *Agg, *Len:
		return true
	case *Function:
		if !e.Elementwise || len(e.Inputs) == 0 {
			return false
		}
	}
	for _, in := range ExprInputs(ea.Get(n)) {
		if !IsScalar(ea, in) {
			return false
		}
	}
	return true
}

// ToField infers the output field of the expression at n when evaluated
// against s.
func ToField(ea *ExprArena, n arena.Node, s *schema.Schema) (schema.Field, error) {
	dt, err := exprType(ea, n, s)
	if err != nil {
		return schema.Field{}, err
	}
	return schema.Field{Name: OutputName(ea, n), Type: dt}, nil
}

func exprType(ea *ExprArena, n arena.Node, s *schema.Schema) (datatype.DataType, error) {
	switch e := ea.Get(n).(type) {
	case *Column:
		_, f, err := s.TryGetFull(e.Name)
		if err != nil {
			return nil, err
		}
		return f.Type, nil
	case *Literal:
		if e.Type == nil {
			return datatype.Null, nil
		}
		return e.Type, nil
	case *Alias:
		return exprType(ea, e.Input, s)
	case *Cast:
		if _, err := exprType(ea, e.Input, s); err != nil {
			return nil, err
		}
		return e.To, nil
	case *Len:
		return datatype.Index, nil
	case *BinaryExpr:
		left, err := exprType(ea, e.Left, s)
		if err != nil {
			return nil, err
		}
		right, err := exprType(ea, e.Right, s)
		if err != nil {
			return nil, err
		}
		switch {
		case e.Op.isComparison(), e.Op.isLogical():
			return datatype.Bool, nil
		case e.Op == BinaryOpDiv:
			return datatype.Float64, nil
		}
		return supertype(left, right), nil
	case *Agg:
		in, err := exprType(ea, e.Input, s)
		if err != nil {
			return nil, err
		}
		switch e.Kind {
		case AggMean:
			return datatype.Float64, nil
		case AggCount, AggNUnique:
			return datatype.Index, nil
		case AggImplode:
			return datatype.NewList(in), nil
		case AggSum:
			if datatype.IsBool(in) {
				return datatype.Index, nil
			}
		}
		return in, nil
	case *Function:
		var first datatype.DataType = datatype.Null
		for i, in := range e.Inputs {
			dt, err := exprType(ea, in, s)
			if err != nil {
				return nil, err
			}
			if i == 0 {
				first = dt
			}
		}
		if e.Output != nil {
			return e.Output, nil
		}
		return first, nil
	case *Ternary:
		if _, err := exprType(ea, e.Predicate, s); err != nil {
			return nil, err
		}
		truthy, err := exprType(ea, e.Truthy, s)
		if err != nil {
			return nil, err
		}
		falsy, err := exprType(ea, e.Falsy, s)
		if err != nil {
			return nil, err
		}
		return supertype(truthy, falsy), nil
	default:
		panic(fmt.Sprintf("unexpected expression type %T", e))
	}
}

// supertype returns a type both a and b can be represented in. It is a
// simplification of numeric promotion: nulls adopt the other side, floats win
// over integers and otherwise the left type is kept.
func supertype(a, b datatype.DataType) datatype.DataType {
	switch {
	case datatype.IsNull(a):
		return b
	case datatype.IsNull(b), datatype.Equal(a, b):
		return a
	case datatype.IsFloat(a) || datatype.IsFloat(b):
		return datatype.Float64
	}
	return a
}

// FormatExpr renders the expression at n.
func FormatExpr(ea *ExprArena, n arena.Node) string {
	var sb strings.Builder
	formatExpr(&sb, ea, n)
	return sb.String()
}

func formatExpr(sb *strings.Builder, ea *ExprArena, n arena.Node) {
	switch e := ea.Get(n).(type) {
	case *Column:
		fmt.Fprintf(sb, "col(%s)", e.Name)
	case *Literal:
		if s, ok := e.Value.(string); ok {
			fmt.Fprintf(sb, "lit(%q)", s)
		} else {
			fmt.Fprintf(sb, "lit(%v)", e.Value)
		}
	case *Alias:
		formatExpr(sb, ea, e.Input)
		fmt.Fprintf(sb, ".alias(%s)", e.Name)
	case *BinaryExpr:
		sb.WriteString("[(")
		formatExpr(sb, ea, e.Left)
		fmt.Fprintf(sb, ") %s (", e.Op)
		formatExpr(sb, ea, e.Right)
		sb.WriteString(")]")
	case *Cast:
		formatExpr(sb, ea, e.Input)
		fmt.Fprintf(sb, ".cast(%s)", e.To)
	case *Agg:
		formatExpr(sb, ea, e.Input)
		fmt.Fprintf(sb, ".%s()", e.Kind)
	case *Len:
		sb.WriteString("len()")
	case *Function:
		sb.WriteString(e.Name)
		sb.WriteString("(")
		for i, in := range e.Inputs {
			if i > 0 {
				sb.WriteString(", ")
			}
			formatExpr(sb, ea, in)
		}
		sb.WriteString(")")
	case *Ternary:
		sb.WriteString(".when(")
		formatExpr(sb, ea, e.Predicate)
		sb.WriteString(").then(")
		formatExpr(sb, ea, e.Truthy)
		sb.WriteString(").otherwise(")
		formatExpr(sb, ea, e.Falsy)
		sb.WriteString(")")
	default:
		fmt.Fprintf(sb, "%T", e)
	}
}
