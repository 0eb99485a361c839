package optimizer

import (
	"github.com/grafana/lazyframe/pkg/engine/internal/arena"
	"github.com/grafana/lazyframe/pkg/engine/internal/planner/logical"
)

// Simplify removes and merges the projections left behind by projection
// pushdown.
type Simplify struct {
	maxIterations int
}

// NewSimplify returns a simplify pass. maxIterations bounds the number of
// bottom-up sweeps over the plan; zero uses [DefaultMaxIterations].
func NewSimplify(maxIterations int) *Simplify {
	return &Simplify{maxIterations: maxIterations}
}

// Name returns the name of the pass.
func (*Simplify) Name() string { return "simplify_projection" }

// Optimize implements [Pass].
func (s *Simplify) Optimize(plan *logical.Plan) error {
	newOptimization(s.Name(), plan, s.maxIterations).
		withRules(
			&selectToProjection{plan: plan},
			&mergeProjections{plan: plan},
			&removeNoopProjection{plan: plan},
		).
		optimize()
	return nil
}

// selectToProjection is a rule that turns a Select of plain columns into a
// SimpleProjection.
type selectToProjection struct {
	plan *logical.Plan
}

// apply implements rule.
func (r *selectToProjection) apply(n arena.Node) bool {
	sel, ok := r.plan.LP.Get(n).(*logical.Select)
	if !ok || len(sel.Exprs) == 0 {
		return false
	}

	names := make([]string, 0, len(sel.Exprs))
	for _, e := range sel.Exprs {
		c, ok := r.plan.Expr.Get(e.Node).(*logical.Column)
		if !ok || c.Name != e.OutputName {
			return false
		}
		names = append(names, c.Name)
	}

	cols, err := logical.ProjectionSchema(logical.Schema(r.plan.LP, sel.Input), names)
	if err != nil || cols.Len() != len(names) {
		return false
	}
	r.plan.LP.Replace(n, &logical.SimpleProjection{Input: sel.Input, Columns: cols})
	return true
}

var _ rule = (*selectToProjection)(nil)

// mergeProjections is a rule that collapses a SimpleProjection over another
// SimpleProjection into one.
type mergeProjections struct {
	plan *logical.Plan
}

// apply implements rule.
func (r *mergeProjections) apply(n arena.Node) bool {
	outer, ok := r.plan.LP.Get(n).(*logical.SimpleProjection)
	if !ok {
		return false
	}
	inner, ok := r.plan.LP.Get(outer.Input).(*logical.SimpleProjection)
	if !ok {
		return false
	}
	// The outer columns are a subset of the inner ones, which are a subset
	// of the inner input.
	outer.Input = inner.Input
	return true
}

var _ rule = (*mergeProjections)(nil)

// removeNoopProjection is a rule that removes SimpleProjection nodes which
// keep every input column in order.
type removeNoopProjection struct {
	plan *logical.Plan
}

// apply implements rule.
func (r *removeNoopProjection) apply(n arena.Node) bool {
	proj, ok := r.plan.LP.Get(n).(*logical.SimpleProjection)
	if !ok {
		return false
	}
	if !logical.Schema(r.plan.LP, proj.Input).HasSameNames(proj.Columns.Names()) {
		return false
	}
	r.plan.LP.Replace(n, r.plan.LP.Take(proj.Input))
	return true
}

var _ rule = (*removeNoopProjection)(nil)
