package projection

import (
	"slices"

	"github.com/grafana/lazyframe/pkg/engine/internal/arena"
	"github.com/grafana/lazyframe/pkg/engine/internal/planner/logical"
	"github.com/grafana/lazyframe/pkg/engine/internal/schema"
)

func columnNames(ea *logical.ExprArena, nodes []logical.ColumnNode) []string {
	names := make([]string, len(nodes))
	for i, n := range nodes {
		names[i] = n.Name(ea)
	}
	return names
}

// getScanColumns returns the physical columns a reader must produce for acc.
// Generated columns are left out. When order is set the columns follow its
// field order. It returns nil when acc is empty, meaning all columns.
func getScanColumns(ea *logical.ExprArena, acc []logical.ColumnNode, rowIndex *logical.RowIndex, filePathCol string, order *schema.Schema) []string {
	if len(acc) == 0 {
		return nil
	}

	columns := make([]string, 0, len(acc))
	for _, n := range acc {
		name := n.Name(ea)
		if rowIndex != nil && rowIndex.Name == name {
			continue
		}
		if filePathCol != "" && filePathCol == name {
			continue
		}
		columns = append(columns, name)
	}

	if order != nil {
		slices.SortFunc(columns, func(a, b string) int {
			i, _ := order.IndexOf(a)
			j, _ := order.IndexOf(b)
			return i - j
		})
	}
	return columns
}

// splitAccProjections partitions acc into the columns found in down, which
// can be pushed further, and the rest, which must be resolved locally.
//
// If acc names every column of down and down does not expand its input,
// there is nothing to prune and everything is kept local.
func splitAccProjections(ea *logical.ExprArena, acc []logical.ColumnNode, down *schema.Schema, expandsSchema bool) (pushed, local []logical.ColumnNode, names nameSet) {
	names = newNameSet(len(acc))
	for _, n := range acc {
		name := n.Name(ea)
		if down.Contains(name) {
			pushed = append(pushed, n)
			names.insert(name)
		} else {
			local = append(local, n)
		}
	}

	if !expandsSchema && len(local) == 0 && len(pushed) == down.Len() {
		return nil, acc, newNameSet(0)
	}
	return pushed, local, names
}

// addExprToAccumulated adds every column read by the expression at n which
// is not accumulated yet.
func addExprToAccumulated(ea *logical.ExprArena, n arena.Node, acc *[]logical.ColumnNode, names nameSet) {
	for cn := range logical.ColumnNodes(ea, n) {
		if names.insert(cn.Name(ea)) {
			*acc = append(*acc, cn)
		}
	}
}

// addStrToAccumulated adds a column by name. It does nothing while the
// context selects every column.
func addStrToAccumulated(ea *logical.ExprArena, name string, ctx *projectionContext) {
	if !ctx.hasPushedDown() || ctx.projectedNames.contains(name) {
		return
	}
	n := logical.NewColumnNode(ea, name)
	addExprToAccumulated(ea, n.Node(), &ctx.accProjections, ctx.projectedNames)
}

// removeFromAccumulated drops name from the context.
func removeFromAccumulated(ea *logical.ExprArena, name string, ctx *projectionContext) {
	if !ctx.projectedNames.remove(name) {
		return
	}
	ctx.accProjections = slices.DeleteFunc(ctx.accProjections, func(n logical.ColumnNode) bool {
		return n.Name(ea) == name
	})
}

// updateScanSchema returns the fields of s named by acc. With sortProjections
// the fields keep the order of s, otherwise the order of acc. It fails with
// [errors.ErrColumnNotFound] if s lacks one of the columns.
func updateScanSchema(ea *logical.ExprArena, acc []logical.ColumnNode, s *schema.Schema, sortProjections bool) (*schema.Schema, error) {
	type item struct {
		pos   int
		field schema.Field
	}

	items := make([]item, 0, len(acc))
	for _, n := range acc {
		pos, f, err := s.TryGetFull(n.Name(ea))
		if err != nil {
			return nil, err
		}
		items = append(items, item{pos: pos, field: f})
	}
	if sortProjections {
		slices.SortFunc(items, func(a, b item) int { return a.pos - b.pos })
	}

	out := schema.WithCapacity(len(items))
	for _, it := range items {
		out.WithColumn(it.field.Name, it.field.Type)
	}
	return out, nil
}
