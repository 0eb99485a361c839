package projection

import (
	"github.com/grafana/lazyframe/pkg/engine/internal/arena"
	"github.com/grafana/lazyframe/pkg/engine/internal/planner/logical"
)

// processProjection handles Select and SimpleProjection. The expressions
// requested above become the new set of columns pushed into input.
func (p *pushdown) processProjection(input arena.Node, exprs []logical.ExprIR, ctx projectionContext, simple bool) (logical.IR, error) {
	if len(exprs) == 1 && isLen(p.ea, exprs[0].Node) {
		// Only the height of input is needed; the scan below picks a column.
		inner := ctx.inner
		inner.isCountStar = true
		if err := p.pushdownAndAssign(input, emptyContext(inner)); err != nil {
			return nil, err
		}
		return p.finishProjection(input, exprs, simple)
	}

	kept := exprs
	if ctx.hasPushedDown() {
		kept = nil
		var (
			firstNonScalar = -1
			keptNonScalar  bool
		)
		for i, e := range exprs {
			nonScalar := !logical.IsScalar(p.ea, e.Node)
			if nonScalar && firstNonScalar < 0 {
				firstNonScalar = i
			}
			if ctx.projectedNames.contains(e.OutputName) {
				keptNonScalar = keptNonScalar || nonScalar
				kept = append(kept, e)
			}
		}
		// A non-scalar expression determines the output height.
		if !keptNonScalar && firstNonScalar >= 0 {
			kept = append(kept, exprs[firstNonScalar])
		}
		if len(kept) == 0 && len(exprs) > 0 {
			kept = exprs[:1]
		}
	}

	var acc []logical.ColumnNode
	names := newNameSet(len(kept))
	for _, e := range kept {
		addExprToAccumulated(p.ea, e.Node, &acc, names)
	}

	// The kept expressions define exactly what is read below.
	inner := copyState{projectionsSeen: ctx.inner.projectionsSeen + 1}
	if err := p.pushdownAndAssign(input, newContext(acc, names, inner)); err != nil {
		return nil, err
	}
	return p.finishProjection(input, kept, simple)
}

// finishProjection emits the projection of exprs over input, or input itself
// when the projection would not change it.
func (p *pushdown) finishProjection(input arena.Node, exprs []logical.ExprIR, simple bool) (logical.IR, error) {
	if len(exprs) == 0 {
		return p.lp.Take(input), nil
	}

	in := logical.Schema(p.lp, input)
	if names, ok := plainColumns(p.ea, exprs); ok {
		if in.HasSameNames(names) {
			return p.lp.Take(input), nil
		}
		if simple {
			cols, err := logical.ProjectionSchema(in, names)
			if err != nil {
				return nil, err
			}
			return &logical.SimpleProjection{Input: input, Columns: cols}, nil
		}
	}

	s, err := logical.ExprsSchema(p.ea, exprs, in)
	if err != nil {
		return nil, err
	}
	return &logical.Select{Input: input, Exprs: exprs, Schema: s}, nil
}

// plainColumns returns the column names of exprs if every expression is an
// unaliased column reference.
func plainColumns(ea *logical.ExprArena, exprs []logical.ExprIR) ([]string, bool) {
	names := make([]string, 0, len(exprs))
	for _, e := range exprs {
		c, ok := ea.Get(e.Node).(*logical.Column)
		if !ok || c.Name != e.OutputName {
			return nil, false
		}
		names = append(names, c.Name)
	}
	return names, true
}

func isLen(ea *logical.ExprArena, n arena.Node) bool {
	switch e := ea.Get(n).(type) {
	case *logical.Len:
		return true
	case *logical.Alias:
		return isLen(ea, e.Input)
	}
	return false
}
