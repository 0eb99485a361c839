package plandef

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/grafana/lazyframe/pkg/engine/internal/arena"
	"github.com/grafana/lazyframe/pkg/engine/internal/datatype"
	"github.com/grafana/lazyframe/pkg/engine/internal/planner/logical"
)

func (b *builder) exprs(exprs []Expr) ([]arena.Node, error) {
	out := make([]arena.Node, len(exprs))
	for i := range exprs {
		n, err := b.expr(&exprs[i])
		if err != nil {
			return nil, err
		}
		out[i] = n
	}
	return out, nil
}

func (b *builder) expr(e *Expr) (arena.Node, error) {
	n, err := b.exprKind(e)
	if err != nil {
		return 0, err
	}
	if e.Alias != "" {
		n = b.plan.Alias(n, e.Alias)
	}
	return n, nil
}

func (b *builder) exprKind(e *Expr) (arena.Node, error) {
	p := b.plan

	switch {
	case e.Col != "":
		return p.Col(e.Col), nil

	case e.Lit != nil:
		v, err := literal(e.Lit)
		if err != nil {
			return 0, err
		}
		n := p.Lit(v)
		if e.Type != "" {
			dt, err := datatype.Parse(e.Type)
			if err != nil {
				return 0, err
			}
			n = p.Cast(n, dt)
		}
		return n, nil

	case e.Len:
		return p.Len(), nil

	case e.Op != "":
		op, ok := logical.ParseBinaryOp(e.Op)
		if !ok {
			return 0, fmt.Errorf("unknown operator %q", e.Op)
		}
		args, err := b.args(e, 2)
		if err != nil {
			return 0, err
		}
		return p.Binary(args[0], op, args[1]), nil

	case e.Agg != "":
		kind, ok := logical.ParseAggKind(e.Agg)
		if !ok {
			return 0, fmt.Errorf("unknown aggregation %q", e.Agg)
		}
		args, err := b.args(e, 1)
		if err != nil {
			return 0, err
		}
		return p.Agg(kind, args[0]), nil

	case e.Cast != "":
		dt, err := datatype.Parse(e.Cast)
		if err != nil {
			return 0, err
		}
		args, err := b.args(e, 1)
		if err != nil {
			return 0, err
		}
		return p.Cast(args[0], dt), nil

	case e.Function != "":
		var output datatype.DataType
		if e.Type != "" {
			dt, err := datatype.Parse(e.Type)
			if err != nil {
				return 0, err
			}
			output = dt
		}
		args, err := b.exprs(e.Args)
		if err != nil {
			return 0, err
		}
		return p.Function(e.Function, output, args...), nil

	case e.When != nil:
		if e.Then == nil || e.Otherwise == nil {
			return 0, fmt.Errorf("when expression needs then and otherwise")
		}
		var branches [3]arena.Node
		for i, sub := range []*Expr{e.When, e.Then, e.Otherwise} {
			n, err := b.expr(sub)
			if err != nil {
				return 0, err
			}
			branches[i] = n
		}
		return p.When(branches[0], branches[1], branches[2]), nil
	}
	return 0, fmt.Errorf("empty expression")
}

func (b *builder) args(e *Expr, want int) ([]arena.Node, error) {
	if len(e.Args) != want {
		return nil, fmt.Errorf("expression takes %d arguments, got %d", want, len(e.Args))
	}
	return b.exprs(e.Args)
}

// literal decodes a YAML scalar into the Go value matching its tag.
func literal(n *yaml.Node) (any, error) {
	if n.Kind != yaml.ScalarNode {
		return nil, fmt.Errorf("line %d: literal must be a scalar", n.Line)
	}

	var (
		v   any
		err error
	)
	switch n.ShortTag() {
	case "!!null":
		return nil, nil
	case "!!bool":
		var b bool
		err = n.Decode(&b)
		v = b
	case "!!int":
		var i int64
		err = n.Decode(&i)
		v = i
	case "!!float":
		var f float64
		err = n.Decode(&f)
		v = f
	default:
		v = n.Value
	}
	return v, err
}
