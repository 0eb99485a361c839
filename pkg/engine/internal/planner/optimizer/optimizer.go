// Package optimizer holds the passes run over logical plans before
// execution.
package optimizer

import (
	"github.com/grafana/lazyframe/pkg/engine/internal/arena"
	"github.com/grafana/lazyframe/pkg/engine/internal/planner/logical"
)

// A Pass rewrites a logical plan in place. If Optimize returns an error the
// plan must be discarded.
type Pass interface {
	Name() string
	Optimize(plan *logical.Plan) error
}

// DefaultMaxIterations is the number of times the rules of an optimization
// are applied to a plan at most.
const DefaultMaxIterations = 3

// A rule is a transformation that can be applied on an operator.
type rule interface {
	// apply tries to apply the transformation on the operator at n.
	// It returns a boolean indicating whether the transformation has been applied.
	apply(n arena.Node) bool
}

// optimization applies a set of rules bottom-up until they stop changing
// the plan.
type optimization struct {
	plan          *logical.Plan
	name          string
	rules         []rule
	maxIterations int
}

func newOptimization(name string, plan *logical.Plan, maxIterations int) *optimization {
	if maxIterations <= 0 {
		maxIterations = DefaultMaxIterations
	}
	return &optimization{
		name:          name,
		plan:          plan,
		maxIterations: maxIterations,
	}
}

func (o *optimization) withRules(rules ...rule) *optimization {
	o.rules = append(o.rules, rules...)
	return o
}

// optimize returns the number of iterations which changed the plan.
func (o *optimization) optimize() int {
	changes := 0
	for iterations := 0; iterations < o.maxIterations; iterations++ {
		if !o.applyRules(o.plan.Root) {
			// Stop immediately if an iteration produced no changes.
			break
		}
		changes++
	}
	return changes
}

// applyRules applies every rule to each operator once, inputs first.
func (o *optimization) applyRules(root arena.Node) bool {
	anyChanged := false
	_ = logical.Walk(o.plan.LP, root, func(n arena.Node) error {
		for _, rule := range o.rules {
			if rule.apply(n) {
				anyChanged = true
			}
		}
		return nil
	}, logical.PostOrderWalk)
	return anyChanged
}
