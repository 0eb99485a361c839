package projection

import (
	"github.com/grafana/lazyframe/pkg/engine/internal/planner/logical"
)

// processGeneric handles operators which pass their input columns through
// unchanged. Every input receives its own copy of ctx.
func (p *pushdown) processGeneric(ir logical.IR, ctx projectionContext) (logical.IR, error) {
	inputs := logical.Inputs(ir)
	if _, ok := ir.(*logical.Union); ok && len(inputs) > 1 && ctx.hasPushedDown() && len(ctx.accProjections) == 0 {
		// Only the row count is needed. The inputs must still agree on
		// their columns, so they all keep the one picked here.
		ctx.processCountStarAtScan(logical.Schema(p.lp, inputs[0]), p.ea)
	}
	align := len(ctx.accProjections) > 0 && len(inputs) > 1

	var names []string
	if align {
		names = ctx.names(p.ea)
	}

	for _, in := range inputs {
		out, err := p.pushDown(p.lp.Take(in), ctx.clone())
		if err != nil {
			return nil, err
		}
		if align {
			// Inputs may have narrowed differently; they must agree on the
			// column order.
			if out, err = p.projectSimple(p.lp.Add(out), names); err != nil {
				return nil, err
			}
		}
		p.lp.Replace(in, out)
	}
	return ir, nil
}
