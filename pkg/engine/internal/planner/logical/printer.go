package logical

import (
	"io"

	"github.com/grafana/lazyframe/pkg/engine/internal/arena"
	"github.com/grafana/lazyframe/pkg/engine/internal/planner/tree"
)

// BuildTree converts the operator at n and its inputs into a printable tree.
func BuildTree(p *Plan, n arena.Node) *tree.Node {
	ir := p.LP.Get(n)
	node := toTreeNode(p, ir)
	if _, ok := ir.(*Invalid); ok {
		return node
	}
	for _, child := range Inputs(ir) {
		node.Children = append(node.Children, BuildTree(p, child))
	}
	return node
}

func toTreeNode(p *Plan, ir IR) *tree.Node {
	ea := p.Expr
	switch ir := ir.(type) {
	case *Scan:
		props := []tree.Property{
			tree.NewProperty("format", false, ir.ScanType.Format),
			tree.NewProperty("sources", true, toAnySlice(ir.Sources)...),
			projectionProperty(ir.Args.Projection),
		}
		if ir.Args.RowIndex != nil {
			props = append(props, tree.NewProperty("row_index", false, ir.Args.RowIndex.Name))
		}
		if ir.Args.IncludeFilePaths != "" {
			props = append(props, tree.NewProperty("file_path_column", false, ir.Args.IncludeFilePaths))
		}
		if ir.Predicate != nil {
			props = append(props, tree.NewProperty("predicate", false, FormatExpr(ea, ir.Predicate.Node)))
		}
		return tree.NewNode("Scan", "", props...)
	case *DataFrameScan:
		var projection []string
		if ir.OutputSchema != nil {
			projection = ir.OutputSchema.Names()
		}
		return tree.NewNode("DataFrameScan", "",
			tree.NewProperty("name", false, ir.Name),
			projectionProperty(projection),
		)
	case *PythonScan:
		return tree.NewNode("PythonScan", "",
			tree.NewProperty("name", false, ir.Name),
			projectionProperty(ir.WithColumns),
		)
	case *Select:
		return tree.NewNode("Select", "", exprsProperty(ea, "exprs", ir.Exprs))
	case *SimpleProjection:
		return tree.NewNode("SimpleProjection", "", tree.NewProperty("columns", true, toAnySlice(ir.Columns.Names())...))
	case *Filter:
		return tree.NewNode("Filter", "", tree.NewProperty("predicate", false, FormatExpr(ea, ir.Predicate.Node)))
	case *Sort:
		return tree.NewNode("Sort", "", exprsProperty(ea, "by", ir.ByColumn))
	case *Distinct:
		if ir.Subset == nil {
			return tree.NewNode("Distinct", "", tree.NewProperty("subset", false, "*"))
		}
		return tree.NewNode("Distinct", "", tree.NewProperty("subset", true, toAnySlice(ir.Subset)...))
	case *GroupBy:
		props := []tree.Property{exprsProperty(ea, "keys", ir.Keys)}
		if ir.Apply != nil {
			props = append(props, tree.NewProperty("apply", false, ir.Apply.Name))
		} else {
			props = append(props, exprsProperty(ea, "aggs", ir.Aggs))
		}
		return tree.NewNode("GroupBy", "", props...)
	case *Join:
		props := []tree.Property{tree.NewProperty("how", false, ir.Options.How)}
		if len(ir.LeftOn) > 0 {
			props = append(props, exprsProperty(ea, "left_on", ir.LeftOn), exprsProperty(ea, "right_on", ir.RightOn))
		}
		if ir.Options.Suffix != "" && ir.Options.Suffix != DefaultJoinSuffix {
			props = append(props, tree.NewProperty("suffix", false, ir.Options.Suffix))
		}
		return tree.NewNode("Join", "", props...)
	case *HStack:
		return tree.NewNode("HStack", "", exprsProperty(ea, "exprs", ir.Exprs))
	case *HConcat:
		return tree.NewNode("HConcat", "")
	case *Union:
		return tree.NewNode("Union", "")
	case *Slice:
		return tree.NewNode("Slice", "",
			tree.NewProperty("offset", false, ir.Offset),
			tree.NewProperty("len", false, ir.Len),
		)
	case *Sink:
		return tree.NewNode("Sink", "",
			tree.NewProperty("path", false, ir.Path),
			tree.NewProperty("format", false, ir.Format),
		)
	case *SinkMultiple:
		return tree.NewNode("SinkMultiple", "")
	case *Cache:
		return tree.NewNode("Cache", "", tree.NewProperty("id", false, ir.ID))
	case *MergeSorted:
		return tree.NewNode("MergeSorted", "", tree.NewProperty("key", false, ir.Key))
	case *MapFunction:
		return tree.NewNode("MapFunction", "", tree.NewProperty("function", false, ir.Function))
	case *ExtContext:
		return tree.NewNode("ExtContext", "")
	default:
		return tree.NewNode("Invalid", "")
	}
}

func projectionProperty(names []string) tree.Property {
	if names == nil {
		return tree.NewProperty("projection", false, "*")
	}
	return tree.NewProperty("projection", true, toAnySlice(names)...)
}

func exprsProperty(ea *ExprArena, key string, exprs []ExprIR) tree.Property {
	values := make([]any, len(exprs))
	for i, e := range exprs {
		values[i] = FormatExpr(ea, e.Node)
	}
	return tree.NewProperty(key, true, values...)
}

func toAnySlice[T any](s []T) []any {
	ret := make([]any, len(s))
	for i := range s {
		ret[i] = s[i]
	}
	return ret
}

// PrintAsTree renders the plan rooted at p.Root.
func PrintAsTree(p *Plan) string {
	return tree.String(BuildTree(p, p.Root))
}

// WriteMermaidFormat writes the plan as a Mermaid flowchart.
func WriteMermaidFormat(w io.Writer, p *Plan) error {
	return tree.NewMermaid(w).Write(BuildTree(p, p.Root))
}

// String renders the plan as a tree.
func (p *Plan) String() string { return PrintAsTree(p) }
