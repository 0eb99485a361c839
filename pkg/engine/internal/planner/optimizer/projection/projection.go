// Package projection implements projection pushdown: a rewrite of a logical
// plan so that every operator only reads and produces the columns required
// by the operators above it.
package projection

import (
	"fmt"

	"github.com/go-kit/log"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/grafana/lazyframe/pkg/engine/internal/arena"
	"github.com/grafana/lazyframe/pkg/engine/internal/errors"
	"github.com/grafana/lazyframe/pkg/engine/internal/planner/logical"
)

// Options configures a [Pushdown] pass.
type Options struct {
	// IsCountStar is set when the caller only needs the row count of the
	// plan result.
	IsCountStar bool

	// MaxDepth bounds the depth of plans the pass accepts. Zero disables the
	// check.
	MaxDepth int

	Logger log.Logger

	// ColumnsPruned counts columns removed from scans. Optional.
	ColumnsPruned prometheus.Counter
}

// Pushdown is the projection pushdown pass.
type Pushdown struct {
	opts Options
}

// New returns a projection pushdown pass.
func New(opts Options) *Pushdown {
	if opts.Logger == nil {
		opts.Logger = log.NewNopLogger()
	}
	return &Pushdown{opts: opts}
}

// Name returns the name of the pass.
func (*Pushdown) Name() string { return "projection_pushdown" }

// Optimize rewrites plan in place. If Optimize returns an error the plan is
// left in an unspecified state and must be discarded.
func (p *Pushdown) Optimize(plan *logical.Plan) error {
	pd := &pushdown{
		lp:   plan.LP,
		ea:   plan.Expr,
		opts: p.opts,
	}

	root := plan.LP.Take(plan.Root)
	ctx := emptyContext(copyState{isCountStar: p.opts.IsCountStar})
	out, err := pd.pushDown(root, ctx)
	if err != nil {
		return err
	}
	plan.LP.Replace(plan.Root, out)
	return nil
}

// pushdown holds the state of a single run.
type pushdown struct {
	lp    *logical.IRArena
	ea    *logical.ExprArena
	opts  Options
	depth int
}

// pushDown rewrites ir, which has been taken out of its arena slot, for the
// columns required by ctx and returns the operator to put back.
func (p *pushdown) pushDown(ir logical.IR, ctx projectionContext) (logical.IR, error) {
	p.depth++
	defer func() { p.depth-- }()
	if p.opts.MaxDepth > 0 && p.depth > p.opts.MaxDepth {
		return nil, fmt.Errorf("%w: more than %d operators deep", errors.ErrPlanTooDeep, p.opts.MaxDepth)
	}

	switch ir := ir.(type) {
	case *logical.Select:
		return p.processProjection(ir.Input, ir.Exprs, ctx, false)
	case *logical.SimpleProjection:
		exprs := make([]logical.ExprIR, 0, ir.Columns.Len())
		for name := range ir.Columns.IterNames() {
			exprs = append(exprs, logical.NewExprIR(p.ea, logical.NewColumnNode(p.ea, name).Node()))
		}
		return p.processProjection(ir.Input, exprs, ctx, true)
	case *logical.DataFrameScan:
		return p.processDataFrameScan(ir, ctx)
	case *logical.PythonScan:
		return p.processPythonScan(ir, ctx)
	case *logical.Scan:
		return p.processScan(ir, ctx)
	case *logical.Sort:
		if ctx.hasPushedDown() {
			for _, by := range ir.ByColumn {
				addExprToAccumulated(p.ea, by.Node, &ctx.accProjections, ctx.projectedNames)
			}
		}
		return ir, p.pushdownAndAssign(ir.Input, ctx)
	case *logical.Distinct:
		if ctx.hasPushedDown() {
			if ir.Subset != nil {
				for _, name := range ir.Subset {
					addStrToAccumulated(p.ea, name, &ctx)
				}
			} else {
				// Rows are compared on every column.
				for name := range logical.Schema(p.lp, ir.Input).IterNames() {
					addStrToAccumulated(p.ea, name, &ctx)
				}
			}
		}
		return ir, p.pushdownAndAssign(ir.Input, ctx)
	case *logical.Filter:
		if ctx.hasPushedDown() {
			addExprToAccumulated(p.ea, ir.Predicate.Node, &ctx.accProjections, ctx.projectedNames)
		}
		return ir, p.pushdownAndAssign(ir.Input, ctx)
	case *logical.GroupBy:
		return p.processGroupBy(ir, ctx)
	case *logical.Join:
		if ir.Options.How == logical.JoinTypeSemi || ir.Options.How == logical.JoinTypeAnti {
			return p.processSemiAntiJoin(ir, ctx)
		}
		return p.processJoin(ir, ctx)
	case *logical.HStack:
		return p.processHStack(ir, ctx)
	case *logical.ExtContext:
		return p.processExtContext(ir, ctx)
	case *logical.MapFunction:
		return p.processFunction(ir, ctx)
	case *logical.HConcat:
		return p.processHConcat(ir, ctx)
	case *logical.Union, *logical.Slice, *logical.Sink, *logical.SinkMultiple:
		return p.processGeneric(ir, ctx)
	case *logical.Cache:
		// The cached subtree is shared; narrow its output instead of its
		// input.
		if len(ctx.accProjections) == 0 {
			return ir, nil
		}
		return p.wrapSimpleProjection(ir, ctx.names(p.ea))
	case *logical.MergeSorted:
		if ctx.hasPushedDown() {
			addStrToAccumulated(p.ea, ir.Key, &ctx)
		}
		if err := p.pushdownAndAssign(ir.InputLeft, ctx.clone()); err != nil {
			return nil, err
		}
		return ir, p.pushdownAndAssign(ir.InputRight, ctx)
	case *logical.Invalid:
		panic("projection pushdown reached an invalid operator: a plan slot was taken and never replaced")
	default:
		panic(fmt.Sprintf("projection pushdown: unexpected operator type %T", ir))
	}
}

// pushdownAndAssign takes the operator at n, pushes ctx into it and puts
// the result back.
func (p *pushdown) pushdownAndAssign(n arena.Node, ctx projectionContext) error {
	ir := p.lp.Take(n)
	out, err := p.pushDown(ir, ctx)
	if err != nil {
		return err
	}
	p.lp.Replace(n, out)
	return nil
}

// pushdownAndAssignCheckSchema is like pushdownAndAssign but only pushes the
// columns the operator at n produces. The remaining columns are returned
// for the caller to resolve.
func (p *pushdown) pushdownAndAssignCheckSchema(n arena.Node, ctx projectionContext, expandsSchema bool) ([]logical.ColumnNode, error) {
	ir := p.lp.Take(n)
	down := logical.SchemaOf(p.lp, ir)

	pushed, local, names := splitAccProjections(p.ea, ctx.accProjections, down, expandsSchema)
	if len(ctx.accProjections) > 0 && len(pushed) == 0 {
		// Every column of the input is needed.
		ctx.inner.isCountStar = false
	}
	ctx.accProjections, ctx.projectedNames = pushed, names

	out, err := p.pushDown(ir, ctx)
	if err != nil {
		return nil, err
	}
	p.lp.Replace(n, out)
	return local, nil
}

// noPushdownRestartOpt resolves the accumulated columns above ir and
// restarts the pass below it with nothing projected.
func (p *pushdown) noPushdownRestartOpt(ir logical.IR, ctx projectionContext) (logical.IR, error) {
	for _, in := range logical.Inputs(ir) {
		fresh := emptyContext(copyState{projectionsSeen: ctx.inner.projectionsSeen})
		if err := p.pushdownAndAssign(in, fresh); err != nil {
			return nil, err
		}
	}
	if len(ctx.accProjections) == 0 {
		return ir, nil
	}
	return p.wrapSimpleProjection(ir, ctx.names(p.ea))
}

// projectSimple returns a projection of the operator at input to names. If
// input already produces exactly names it is taken out of the arena and
// returned instead.
func (p *pushdown) projectSimple(input arena.Node, names []string) (logical.IR, error) {
	in := logical.Schema(p.lp, input)
	if in.HasSameNames(names) {
		return p.lp.Take(input), nil
	}
	cols, err := logical.ProjectionSchema(in, names)
	if err != nil {
		return nil, err
	}
	return &logical.SimpleProjection{Input: input, Columns: cols}, nil
}

// wrapSimpleProjection moves ir into a new arena slot and projects it to
// names.
func (p *pushdown) wrapSimpleProjection(ir logical.IR, names []string) (logical.IR, error) {
	return p.projectSimple(p.lp.Add(ir), names)
}
