package projection

import (
	"github.com/grafana/lazyframe/pkg/engine/internal/planner/logical"
)

// processGroupBy drops aggregations nobody above reads and requires only the
// keys and the inputs of the remaining aggregations from below.
func (p *pushdown) processGroupBy(ir *logical.GroupBy, ctx projectionContext) (logical.IR, error) {
	if ir.Apply != nil {
		// The function may read any column of a group.
		return p.noPushdownRestartOpt(ir, ctx)
	}

	pushed := ctx.hasPushedDown()
	requested := ctx.names(p.ea)

	aggs := ir.Aggs
	if pushed {
		aggs = make([]logical.ExprIR, 0, len(ir.Aggs))
		for _, agg := range ir.Aggs {
			if ctx.projectedNames.contains(agg.OutputName) {
				aggs = append(aggs, agg)
			}
		}
	}

	var acc []logical.ColumnNode
	names := newNameSet(len(ir.Keys) + len(aggs))
	for _, key := range ir.Keys {
		addExprToAccumulated(p.ea, key.Node, &acc, names)
	}
	for _, agg := range aggs {
		addExprToAccumulated(p.ea, agg.Node, &acc, names)
	}

	if err := p.pushdownAndAssign(ir.Input, newContext(acc, names, ctx.inner)); err != nil {
		return nil, err
	}

	s, err := logical.GroupBySchema(p.ea, ir.Keys, aggs, logical.Schema(p.lp, ir.Input))
	if err != nil {
		return nil, err
	}
	ir.Aggs, ir.Schema = aggs, s

	// Keys are always produced; hide the ones nobody asked for.
	if pushed && len(requested) > 0 && s.Len() != len(requested) {
		return p.wrapSimpleProjection(ir, requested)
	}
	return ir, nil
}
