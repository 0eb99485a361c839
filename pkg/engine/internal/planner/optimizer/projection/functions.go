package projection

import (
	"github.com/grafana/lazyframe/pkg/engine/internal/planner/logical"
	"github.com/grafana/lazyframe/pkg/engine/internal/schema"
)

func (p *pushdown) processFunction(ir *logical.MapFunction, ctx projectionContext) (logical.IR, error) {
	switch fn := ir.Function.(type) {
	case *logical.RenameFunction:
		if ctx.hasPushedDown() {
			p.processRename(&ctx, fn)
		}
		return ir, p.pushdownAndAssign(ir.Input, ctx)

	case *logical.ExplodeFunction:
		for _, name := range fn.Columns {
			addStrToAccumulated(p.ea, name, &ctx)
		}
		return ir, p.pushdownAndAssign(ir.Input, ctx)
	}

	if !ir.Function.AllowsProjectionPushdown() || !ctx.hasPushedDown() {
		return p.noPushdownRestartOpt(ir, ctx)
	}

	requested := ctx.names(p.ea)
	for _, name := range ir.Function.ExtraColumns() {
		addStrToAccumulated(p.ea, name, &ctx)
	}

	local, err := p.pushdownAndAssignCheckSchema(ir.Input, ctx, false)
	if err != nil {
		return nil, err
	}
	// Columns generated by the function stay local; the rest were pushed and
	// the function output may carry more than was asked for.
	if len(local) == 0 || len(local) >= len(requested) {
		return ir, nil
	}
	return p.wrapSimpleProjection(ir, requested)
}

// processRename replaces the renamed columns of ctx by the names they have
// in the input.
func (p *pushdown) processRename(ctx *projectionContext, fn *logical.RenameFunction) {
	renamed := make(map[string]string, len(fn.New))
	for i, name := range fn.New {
		renamed[name] = fn.Existing[i]
	}

	acc := make([]logical.ColumnNode, 0, len(ctx.accProjections))
	names := newNameSet(len(ctx.accProjections))
	for _, proj := range ctx.accProjections {
		name := proj.Name(p.ea)
		existing, ok := renamed[name]
		if !ok {
			if names.insert(name) {
				acc = append(acc, proj)
			}
			continue
		}
		if names.insert(existing) {
			acc = append(acc, logical.NewColumnNode(p.ea, existing))
		}
	}
	ctx.accProjections, ctx.projectedNames = acc, names
}

// processExtContext pushes into the main input only. The contexts are
// optimized on their own since any of their columns may be referenced.
func (p *pushdown) processExtContext(ir *logical.ExtContext, ctx projectionContext) (logical.IR, error) {
	if _, err := p.pushdownAndAssignCheckSchema(ir.Input, ctx, false); err != nil {
		return nil, err
	}

	contexts := make([]*schema.Schema, len(ir.Contexts))
	for i, c := range ir.Contexts {
		if err := p.pushdownAndAssign(c, emptyContext(copyState{projectionsSeen: ctx.inner.projectionsSeen})); err != nil {
			return nil, err
		}
		contexts[i] = logical.Schema(p.lp, c)
	}

	ir.Schema = logical.ExtContextSchema(logical.Schema(p.lp, ir.Input), contexts...)
	return ir, nil
}
