package projection

import (
	"github.com/dolthub/swiss"

	"github.com/grafana/lazyframe/pkg/engine/internal/datatype"
	"github.com/grafana/lazyframe/pkg/engine/internal/planner/logical"
	"github.com/grafana/lazyframe/pkg/engine/internal/schema"
)

// nameSet is a set of column names.
type nameSet struct {
	m *swiss.Map[string, struct{}]
}

func newNameSet(capacity int) nameSet {
	return nameSet{m: swiss.NewMap[string, struct{}](uint32(max(capacity, 1)))}
}

// insert adds name and reports whether it was not present before.
func (s nameSet) insert(name string) bool {
	if s.m.Has(name) {
		return false
	}
	s.m.Put(name, struct{}{})
	return true
}

func (s nameSet) contains(name string) bool { return s.m.Has(name) }

func (s nameSet) remove(name string) bool { return s.m.Delete(name) }

func (s nameSet) len() int { return s.m.Count() }

func (s nameSet) clone() nameSet {
	out := newNameSet(s.len())
	s.m.Iter(func(name string, _ struct{}) bool {
		out.m.Put(name, struct{}{})
		return false
	})
	return out
}

// copyState is carried unchanged into every branch below the node which set
// it.
type copyState struct {
	projectionsSeen int

	// isCountStar is set when the query above only needs the number of rows.
	isCountStar bool
}

// projectionContext is the set of columns required by every operator above
// the node being visited.
//
// accProjections and projectedNames always describe the same names; they
// are only changed together.
type projectionContext struct {
	accProjections []logical.ColumnNode
	projectedNames nameSet
	inner          copyState
}

func newContext(acc []logical.ColumnNode, names nameSet, inner copyState) projectionContext {
	return projectionContext{accProjections: acc, projectedNames: names, inner: inner}
}

// emptyContext returns a context requiring every column.
func emptyContext(inner copyState) projectionContext {
	return newContext(nil, newNameSet(0), inner)
}

// clone returns a context sharing nothing with c.
func (c projectionContext) clone() projectionContext {
	return newContext(append([]logical.ColumnNode(nil), c.accProjections...), c.projectedNames.clone(), c.inner)
}

// hasPushedDown reports whether an operator above restricted the columns.
// Operators only add their own column needs when this is set; an empty
// context already selects every column.
func (c projectionContext) hasPushedDown() bool {
	return len(c.accProjections) > 0 || c.inner.isCountStar
}

// names returns the accumulated column names in order.
func (c projectionContext) names(ea *logical.ExprArena) []string {
	return columnNames(ea, c.accProjections)
}

// processCountStarAtScan picks a single cheap column of s when nothing is
// projected, so that readers unable to produce zero-width rows still report
// the right height. The first column is skipped as it can be a row index.
func (c *projectionContext) processCountStarAtScan(s *schema.Schema, ea *logical.ExprArena) {
	if len(c.accProjections) > 0 {
		return
	}

	var picked schema.Field
	switch s.Len() {
	case 0:
		return
	case 1:
		picked, _ = s.GetAtIndex(0)
	default:
		picked, _ = s.GetAtIndex(s.Len() - 1)
		for i := 1; i < s.Len(); i++ {
			f, _ := s.GetAtIndex(i)
			if isCheap(f.Type) {
				picked = f
				break
			}
		}
	}

	c.accProjections = append(c.accProjections, logical.NewColumnNode(ea, picked.Name))
	c.projectedNames.insert(picked.Name)
}

func isCheap(dt datatype.DataType) bool {
	return datatype.IsNull(dt) || datatype.IsPrimitiveNumeric(dt) || datatype.IsBool(dt) || datatype.IsTemporal(dt)
}
