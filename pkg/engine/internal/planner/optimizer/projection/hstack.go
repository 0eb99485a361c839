package projection

import (
	"github.com/grafana/lazyframe/pkg/engine/internal/planner/logical"
)

// processHStack drops the added columns nobody reads and pushes the inputs
// of the remaining ones.
func (p *pushdown) processHStack(ir *logical.HStack, ctx projectionContext) (logical.IR, error) {
	exprs := ir.Exprs
	if ctx.hasPushedDown() {
		exprs = make([]logical.ExprIR, 0, len(ir.Exprs))
		for _, e := range ir.Exprs {
			if ctx.projectedNames.contains(e.OutputName) {
				exprs = append(exprs, e)
			}
		}
		if len(exprs) == 0 {
			if err := p.pushdownAndAssign(ir.Input, ctx); err != nil {
				return nil, err
			}
			return p.lp.Take(ir.Input), nil
		}

		// The kept columns are computed here, not read from the input.
		for _, e := range exprs {
			removeFromAccumulated(p.ea, e.OutputName, &ctx)
		}
		for _, e := range exprs {
			addExprToAccumulated(p.ea, e.Node, &ctx.accProjections, ctx.projectedNames)
		}
		if len(ctx.accProjections) == 0 {
			// Nothing is read from the input but its height.
			ctx.inner.isCountStar = true
		}
	}

	in := logical.Schema(p.lp, ir.Input)
	pushed, _, names := splitAccProjections(p.ea, ctx.accProjections, in, true)
	if err := p.pushdownAndAssign(ir.Input, newContext(pushed, names, ctx.inner)); err != nil {
		return nil, err
	}

	s, err := logical.HStackSchema(p.ea, exprs, logical.Schema(p.lp, ir.Input))
	if err != nil {
		return nil, err
	}
	ir.Exprs, ir.Schema = exprs, s
	return ir, nil
}
