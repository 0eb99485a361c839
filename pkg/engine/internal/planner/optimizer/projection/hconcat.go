package projection

import (
	"github.com/grafana/lazyframe/pkg/engine/internal/planner/logical"
	"github.com/grafana/lazyframe/pkg/engine/internal/schema"
)

// processHConcat pushes to every input the accumulated columns it produces.
func (p *pushdown) processHConcat(ir *logical.HConcat, ctx projectionContext) (logical.IR, error) {
	pushed := ctx.hasPushedDown()
	for _, in := range ir.Inputs {
		if !pushed {
			if err := p.pushdownAndAssign(in, ctx.clone()); err != nil {
				return nil, err
			}
			continue
		}

		var (
			inSchema = logical.Schema(p.lp, in)
			acc      []logical.ColumnNode
			names    = newNameSet(len(ctx.accProjections))
		)
		for _, proj := range ctx.accProjections {
			if name := proj.Name(p.ea); inSchema.Contains(name) && names.insert(name) {
				acc = append(acc, proj)
			}
		}

		inner := ctx.inner
		if len(acc) == 0 {
			// The input still contributes to the output height.
			inner.isCountStar = true
		}
		if err := p.pushdownAndAssign(in, newContext(acc, names, inner)); err != nil {
			return nil, err
		}
	}

	schemas := make([]*schema.Schema, len(ir.Inputs))
	for i, in := range ir.Inputs {
		schemas[i] = logical.Schema(p.lp, in)
	}
	s, err := logical.HConcatSchema(schemas...)
	if err != nil {
		return nil, err
	}
	ir.Schema = s

	if requested := ctx.names(p.ea); len(requested) > 0 && !s.HasSameNames(requested) {
		return p.wrapSimpleProjection(ir, requested)
	}
	return ir, nil
}
