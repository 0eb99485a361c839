package projection

import (
	"fmt"
	"strings"

	"github.com/grafana/lazyframe/pkg/engine/internal/arena"
	"github.com/grafana/lazyframe/pkg/engine/internal/planner/logical"
	"github.com/grafana/lazyframe/pkg/engine/internal/schema"
)

// joinSide is the set of columns pushed into one input of a join.
type joinSide struct {
	schema *schema.Schema
	acc    []logical.ColumnNode
	names  nameSet
}

func newJoinSide(s *schema.Schema, capacity int) *joinSide {
	return &joinSide{schema: s, names: newNameSet(capacity)}
}

func (s *joinSide) addKeys(ea *logical.ExprArena, keys []logical.ExprIR) {
	for _, k := range keys {
		addExprToAccumulated(ea, k.Node, &s.acc, s.names)
	}
}

// add pushes name into the side if its input produces it. It reports whether
// the input produces the column.
func (s *joinSide) add(ea *logical.ExprArena, name string) bool {
	if !s.schema.Contains(name) {
		return false
	}
	if s.names.insert(name) {
		s.acc = append(s.acc, logical.NewColumnNode(ea, name))
	}
	return true
}

// processJoin routes every accumulated column to the join inputs producing
// it. Suffixed names created by the join are traced back to the right input.
func (p *pushdown) processJoin(ir *logical.Join, ctx projectionContext) (logical.IR, error) {
	var (
		left  = newJoinSide(logical.Schema(p.lp, ir.InputLeft), len(ctx.accProjections)+len(ir.LeftOn))
		right = newJoinSide(logical.Schema(p.lp, ir.InputRight), len(ctx.accProjections)+len(ir.RightOn))

		requested []string
	)

	if ctx.hasPushedDown() {
		// Keys are needed to compute the join even if nobody reads them.
		left.addKeys(p.ea, ir.LeftOn)
		right.addKeys(p.ea, ir.RightOn)

		suffix := ir.Options.SuffixOrDefault()
		for _, proj := range ctx.accProjections {
			name := proj.Name(p.ea)
			requested = append(requested, name)

			inLeft := left.add(p.ea, name)
			inRight := right.add(p.ea, name)
			if inLeft || inRight {
				continue
			}

			original, ok := strings.CutSuffix(name, suffix)
			if !ok || !right.add(p.ea, original) {
				panic(fmt.Sprintf("projection pushdown: join output column %q is produced by neither input", name))
			}
			// The left column is the reason for the suffix; without it the
			// right column would lose it.
			left.add(p.ea, original)
		}
	}

	for _, side := range []struct {
		input arena.Node
		*joinSide
	}{{ir.InputLeft, left}, {ir.InputRight, right}} {
		inner := ctx.inner
		if ctx.hasPushedDown() && len(side.acc) == 0 {
			// Only the height of a keyless side matters.
			inner.isCountStar = true
		}
		if err := p.pushdownAndAssign(side.input, newContext(side.acc, side.names, inner)); err != nil {
			return nil, err
		}
	}

	s, err := logical.JoinSchema(p.ea, logical.Schema(p.lp, ir.InputLeft), logical.Schema(p.lp, ir.InputRight), ir.LeftOn, ir.RightOn, ir.Options)
	if err != nil {
		return nil, err
	}
	ir.Schema = s

	if len(requested) == 0 || s.HasSameNames(requested) {
		return ir, nil
	}
	return p.wrapSimpleProjection(ir, requested)
}

// processSemiAntiJoin handles joins which only filter their left input. The
// right input is only read for its keys.
func (p *pushdown) processSemiAntiJoin(ir *logical.Join, ctx projectionContext) (logical.IR, error) {
	var (
		left  = newJoinSide(logical.Schema(p.lp, ir.InputLeft), len(ctx.accProjections)+len(ir.LeftOn))
		right = newJoinSide(logical.Schema(p.lp, ir.InputRight), len(ir.RightOn))
	)

	right.addKeys(p.ea, ir.RightOn)
	if ctx.hasPushedDown() {
		left.addKeys(p.ea, ir.LeftOn)
		for _, proj := range ctx.accProjections {
			left.add(p.ea, proj.Name(p.ea))
		}
	}

	if err := p.pushdownAndAssign(ir.InputLeft, newContext(left.acc, left.names, ctx.inner)); err != nil {
		return nil, err
	}
	if err := p.pushdownAndAssign(ir.InputRight, newContext(right.acc, right.names, ctx.inner)); err != nil {
		return nil, err
	}

	s, err := logical.JoinSchema(p.ea, logical.Schema(p.lp, ir.InputLeft), logical.Schema(p.lp, ir.InputRight), ir.LeftOn, ir.RightOn, ir.Options)
	if err != nil {
		return nil, err
	}
	ir.Schema = s

	// Left keys not asked for are still produced.
	if requested := ctx.names(p.ea); len(requested) > 0 && !s.HasSameNames(requested) {
		return p.wrapSimpleProjection(ir, requested)
	}
	return ir, nil
}
