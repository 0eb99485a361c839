package projection

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"github.com/grafana/lazyframe/pkg/engine/internal/arena"
	"github.com/grafana/lazyframe/pkg/engine/internal/datatype"
	"github.com/grafana/lazyframe/pkg/engine/internal/errors"
	"github.com/grafana/lazyframe/pkg/engine/internal/planner/logical"
	"github.com/grafana/lazyframe/pkg/engine/internal/schema"
)

func fields(pairs ...any) *schema.Schema {
	s := schema.WithCapacity(len(pairs) / 2)
	for i := 0; i < len(pairs); i += 2 {
		s.WithColumn(pairs[i].(string), pairs[i+1].(datatype.DataType))
	}
	return s
}

func ints(names ...string) *schema.Schema {
	s := schema.WithCapacity(len(names))
	for _, name := range names {
		s.WithColumn(name, datatype.Int64)
	}
	return s
}

// optimize runs the pass on plan and checks that the result is well formed.
func optimize(t *testing.T, plan *logical.Plan, opts Options) {
	t.Helper()
	before := plan.Schema().Names()
	require.NoError(t, New(opts).Optimize(plan))
	requireClosed(t, plan, plan.Root)
	if !opts.IsCountStar {
		require.Equal(t, before, plan.Schema().Names(), "output columns changed")
	}
}

// requireClosed checks that every column referenced by an operator is
// produced by its input.
func requireClosed(t *testing.T, plan *logical.Plan, n arena.Node) {
	t.Helper()

	ir := plan.LP.Get(n)
	require.NotPanics(t, func() { logical.SchemaOf(plan.LP, ir) })

	readsFrom := func(input arena.Node, exprs ...logical.ExprIR) {
		in := logical.Schema(plan.LP, input)
		for _, e := range exprs {
			for _, name := range logical.LeafNames(plan.Expr, e.Node) {
				require.Truef(t, in.Contains(name), "%T reads %s missing from %s", ir, name, in)
			}
		}
	}

	switch ir := ir.(type) {
	case *logical.Select:
		readsFrom(ir.Input, ir.Exprs...)
	case *logical.SimpleProjection:
		in := logical.Schema(plan.LP, ir.Input)
		for name := range ir.Columns.IterNames() {
			require.Truef(t, in.Contains(name), "projection of %s missing from %s", name, in)
		}
	case *logical.Filter:
		readsFrom(ir.Input, ir.Predicate)
	case *logical.Sort:
		readsFrom(ir.Input, ir.ByColumn...)
	case *logical.HStack:
		readsFrom(ir.Input, ir.Exprs...)
	case *logical.GroupBy:
		readsFrom(ir.Input, append(append([]logical.ExprIR(nil), ir.Keys...), ir.Aggs...)...)
	case *logical.Join:
		readsFrom(ir.InputLeft, ir.LeftOn...)
		readsFrom(ir.InputRight, ir.RightOn...)
	}

	for _, input := range logical.Inputs(ir) {
		requireClosed(t, plan, input)
	}
}

// findScan returns the in-memory scan named name.
func findScan(t *testing.T, plan *logical.Plan, name string) *logical.DataFrameScan {
	t.Helper()
	var found *logical.DataFrameScan
	var walk func(n arena.Node)
	walk = func(n arena.Node) {
		ir := plan.LP.Get(n)
		if s, ok := ir.(*logical.DataFrameScan); ok && s.Name == name {
			found = s
		}
		for _, input := range logical.Inputs(ir) {
			walk(input)
		}
	}
	walk(plan.Root)
	require.NotNilf(t, found, "no scan named %s", name)
	return found
}

// scanColumns returns the columns produced by the in-memory scan named name.
func scanColumns(t *testing.T, plan *logical.Plan, name string) []string {
	t.Helper()
	s := findScan(t, plan, name)
	return logical.SchemaOf(plan.LP, s).Names()
}

func TestPushdown_ScanNarrowing(t *testing.T) {
	p := logical.NewPlan()
	plan, err := p.DataFrame("df", ints("a", "b", "c", "d", "e")).
		Filter(p.Binary(p.Col("b"), logical.BinaryOpGt, p.Lit(0))).
		Select(p.Col("a")).
		Build()
	require.NoError(t, err)

	optimize(t, plan, Options{})

	expect := `
Select exprs=(col(a))
└── Filter predicate=[(col(b)) > (lit(0))]
    └── DataFrameScan name=df projection=(a, b)
`
	require.Equal(t, expect, "\n"+logical.PrintAsTree(plan))
}

func TestPushdown_Idempotent(t *testing.T) {
	build := func() *logical.Plan {
		p := logical.NewPlan()
		right := p.DataFrame("r", ints("id", "y", "z"))
		plan, err := p.DataFrame("l", ints("id", "x", "w")).
			WithColumns(p.Alias(p.Binary(p.Col("x"), logical.BinaryOpMul, p.Lit(2)), "x2")).
			Join(right, []arena.Node{p.Col("id")}, []arena.Node{p.Col("id")}, logical.JoinOptions{How: logical.JoinTypeLeft}).
			Filter(p.Binary(p.Col("y"), logical.BinaryOpGt, p.Lit(1))).
			Select(p.Col("x2"), p.Alias(p.Agg(logical.AggSum, p.Col("z")), "total")).
			Build()
		require.NoError(t, err)
		return plan
	}

	plan := build()
	optimize(t, plan, Options{})
	once := logical.PrintAsTree(plan)

	optimize(t, plan, Options{})
	require.Equal(t, once, logical.PrintAsTree(plan))

	require.Equal(t, []string{"id", "x"}, scanColumns(t, plan, "l"))
	require.Equal(t, []string{"id", "z", "y"}, scanColumns(t, plan, "r"))
}

func TestPushdown_Join(t *testing.T) {
	t.Run("columns are routed to the side producing them", func(t *testing.T) {
		p := logical.NewPlan()
		right := p.DataFrame("r", ints("id", "y"))
		plan, err := p.DataFrame("l", ints("id", "x", "z")).
			Join(right, []arena.Node{p.Col("id")}, []arena.Node{p.Col("id")}, logical.JoinOptions{How: logical.JoinTypeInner}).
			Select(p.Col("id"), p.Col("x")).
			Build()
		require.NoError(t, err)

		optimize(t, plan, Options{})

		require.Equal(t, []string{"id", "x"}, scanColumns(t, plan, "l"))
		require.Equal(t, []string{"id"}, scanColumns(t, plan, "r"))
		// The join now produces exactly the selected columns.
		require.IsType(t, &logical.Join{}, plan.RootIR())
	})

	t.Run("suffixed column is resolved on the right", func(t *testing.T) {
		p := logical.NewPlan()
		right := p.DataFrame("r", ints("id", "v", "other"))
		plan, err := p.DataFrame("l", ints("id", "v", "w")).
			Join(right, []arena.Node{p.Col("id")}, []arena.Node{p.Col("id")}, logical.JoinOptions{How: logical.JoinTypeInner}).
			Select(p.Col("v_right")).
			Build()
		require.NoError(t, err)

		optimize(t, plan, Options{})

		require.Equal(t, []string{"id", "v"}, scanColumns(t, plan, "l"))
		require.Equal(t, []string{"id", "v"}, scanColumns(t, plan, "r"))

		proj, ok := plan.RootIR().(*logical.SimpleProjection)
		require.True(t, ok, "got %T", plan.RootIR())
		require.Equal(t, []string{"v_right"}, proj.Columns.Names())
		require.IsType(t, &logical.Join{}, plan.LP.Get(proj.Input))
	})

	t.Run("semi join reads only keys on the right", func(t *testing.T) {
		p := logical.NewPlan()
		right := p.DataFrame("r", ints("id", "z"))
		plan, err := p.DataFrame("l", ints("id", "x", "y")).
			Join(right, []arena.Node{p.Col("id")}, []arena.Node{p.Col("id")}, logical.JoinOptions{How: logical.JoinTypeSemi}).
			Select(p.Col("x")).
			Build()
		require.NoError(t, err)

		optimize(t, plan, Options{})

		require.Equal(t, []string{"id", "x"}, scanColumns(t, plan, "l"))
		require.Equal(t, []string{"id"}, scanColumns(t, plan, "r"))
	})

	for _, how := range []logical.JoinType{logical.JoinTypeSemi, logical.JoinTypeAnti} {
		t.Run(how.String()+" join without projection above reads only keys on the right", func(t *testing.T) {
			p := logical.NewPlan()
			right := p.DataFrame("r", ints("id", "z", "w"))
			plan, err := p.DataFrame("l", ints("id", "x", "y")).
				Join(right, []arena.Node{p.Col("id")}, []arena.Node{p.Col("id")}, logical.JoinOptions{How: how}).
				Build()
			require.NoError(t, err)

			optimize(t, plan, Options{})

			require.Equal(t, []string{"id", "x", "y"}, scanColumns(t, plan, "l"))
			require.Equal(t, []string{"id"}, scanColumns(t, plan, "r"))
			require.IsType(t, &logical.Join{}, plan.RootIR())
		})
	}

	t.Run("keyless side of a cross join reads one column", func(t *testing.T) {
		p := logical.NewPlan()
		right := p.DataFrame("r", fields("s", datatype.String, "n", datatype.Int32, "t", datatype.String))
		plan, err := p.DataFrame("l", ints("a", "b")).
			Join(right, nil, nil, logical.JoinOptions{How: logical.JoinTypeCross}).
			Select(p.Col("a")).
			Build()
		require.NoError(t, err)

		optimize(t, plan, Options{})

		require.Equal(t, []string{"a"}, scanColumns(t, plan, "l"))
		require.Equal(t, []string{"n"}, scanColumns(t, plan, "r"))
	})
}

func TestPushdown_Distinct(t *testing.T) {
	t.Run("all columns", func(t *testing.T) {
		p := logical.NewPlan()
		plan, err := p.DataFrame("df", ints("a", "b", "c")).Distinct().Select(p.Col("a")).Build()
		require.NoError(t, err)

		optimize(t, plan, Options{})
		require.Equal(t, []string{"a", "b", "c"}, scanColumns(t, plan, "df"))
	})

	t.Run("subset", func(t *testing.T) {
		p := logical.NewPlan()
		plan, err := p.DataFrame("df", ints("a", "b", "c")).Distinct("b").Select(p.Col("a")).Build()
		require.NoError(t, err)

		optimize(t, plan, Options{})
		require.Equal(t, []string{"a", "b"}, scanColumns(t, plan, "df"))
	})
}

func TestPushdown_CountStar(t *testing.T) {
	t.Run("len picks one cheap column", func(t *testing.T) {
		p := logical.NewPlan()
		plan, err := p.DataFrame("df", fields(
			"s", datatype.String,
			"tags", datatype.NewList(datatype.String),
			"n", datatype.Int64,
			"f", datatype.Float64,
		)).Select(p.Len()).Build()
		require.NoError(t, err)

		optimize(t, plan, Options{})
		require.Equal(t, []string{"n"}, scanColumns(t, plan, "df"))
	})

	t.Run("falls back to the last column", func(t *testing.T) {
		p := logical.NewPlan()
		plan, err := p.DataFrame("df", fields("a", datatype.String, "b", datatype.String)).
			Select(p.Len()).
			Build()
		require.NoError(t, err)

		optimize(t, plan, Options{})
		require.Equal(t, []string{"b"}, scanColumns(t, plan, "df"))
	})

	t.Run("columns read by filters are kept", func(t *testing.T) {
		p := logical.NewPlan()
		plan, err := p.DataFrame("df", ints("a", "b", "c")).
			Filter(p.Binary(p.Col("c"), logical.BinaryOpGt, p.Lit(0))).
			Select(p.Len()).
			Build()
		require.NoError(t, err)

		optimize(t, plan, Options{})
		require.Equal(t, []string{"c"}, scanColumns(t, plan, "df"))
	})

	t.Run("file scan skips the row index", func(t *testing.T) {
		p := logical.NewPlan()
		plan, err := p.Scan(
			[]string{"data.parquet"},
			logical.ScanType{Format: logical.FormatParquet},
			fields("s", datatype.String, "n", datatype.Int32),
			logical.ScanArgs{RowIndex: &logical.RowIndex{Name: "idx"}},
		).Select(p.Len()).Build()
		require.NoError(t, err)

		optimize(t, plan, Options{})

		scan := plan.LP.Get(logical.Inputs(plan.RootIR())[0]).(*logical.Scan)
		require.Equal(t, []string{"n"}, scan.Args.Projection)
		require.Nil(t, scan.Args.RowIndex)
	})

	t.Run("option", func(t *testing.T) {
		p := logical.NewPlan()
		plan, err := p.DataFrame("df", fields("a", datatype.String, "b", datatype.Int64, "c", datatype.String)).Build()
		require.NoError(t, err)

		optimize(t, plan, Options{IsCountStar: true})
		require.Equal(t, []string{"b"}, scanColumns(t, plan, "df"))
	})

	t.Run("union inputs share one column", func(t *testing.T) {
		p := logical.NewPlan()
		plan, err := p.Union(
			p.DataFrame("one", ints("a", "b", "c")).Filter(p.Binary(p.Col("c"), logical.BinaryOpGt, p.Lit(0))),
			p.DataFrame("two", ints("a", "b", "c")),
		).Select(p.Len()).Build()
		require.NoError(t, err)

		optimize(t, plan, Options{})

		union, ok := plan.LP.Get(logical.Inputs(plan.RootIR())[0]).(*logical.Union)
		require.True(t, ok, "got %T", plan.LP.Get(logical.Inputs(plan.RootIR())[0]))
		for _, input := range union.Inputs {
			require.Equal(t, []string{"b"}, logical.Schema(plan.LP, input).Names())
		}
		require.Equal(t, []string{"b", "c"}, scanColumns(t, plan, "one"))
		require.Equal(t, []string{"b"}, scanColumns(t, plan, "two"))
	})
}

func TestPushdown_Cache(t *testing.T) {
	p := logical.NewPlan()
	plan, err := p.DataFrame("df", ints("a", "b", "c")).Cache(1).Select(p.Col("a")).Build()
	require.NoError(t, err)

	optimize(t, plan, Options{})

	expect := `
SimpleProjection columns=(a)
└── Cache id=1
    └── DataFrameScan name=df projection=*
`
	require.Equal(t, expect, "\n"+logical.PrintAsTree(plan))
}

func TestPushdown_HStack(t *testing.T) {
	t.Run("unused columns are dropped", func(t *testing.T) {
		p := logical.NewPlan()
		plan, err := p.DataFrame("df", ints("a", "b", "c")).
			WithColumns(
				p.Alias(p.Binary(p.Col("a"), logical.BinaryOpMul, p.Lit(2)), "d"),
				p.Alias(p.Binary(p.Col("c"), logical.BinaryOpAdd, p.Lit(1)), "e"),
			).
			Select(p.Col("a"), p.Col("d")).
			Build()
		require.NoError(t, err)

		optimize(t, plan, Options{})

		expect := `
HStack exprs=([(col(a)) * (lit(2))].alias(d))
└── DataFrameScan name=df projection=(a)
`
		require.Equal(t, expect, "\n"+logical.PrintAsTree(plan))
	})

	t.Run("removed when nothing added is read", func(t *testing.T) {
		p := logical.NewPlan()
		plan, err := p.DataFrame("df", ints("a", "b")).
			WithColumns(p.Alias(p.Col("a"), "d")).
			Select(p.Col("b")).
			Build()
		require.NoError(t, err)

		optimize(t, plan, Options{})
		require.IsType(t, &logical.DataFrameScan{}, plan.RootIR())
		require.Equal(t, []string{"b"}, scanColumns(t, plan, "df"))
	})

	t.Run("literal column only needs the height", func(t *testing.T) {
		p := logical.NewPlan()
		plan, err := p.DataFrame("df", fields("s", datatype.String, "n", datatype.Int64)).
			WithColumns(p.Alias(p.Lit(1), "one")).
			Select(p.Col("one")).
			Build()
		require.NoError(t, err)

		optimize(t, plan, Options{})
		require.Equal(t, []string{"n"}, scanColumns(t, plan, "df"))
	})
}

func TestPushdown_GroupBy(t *testing.T) {
	t.Run("unused aggregations are dropped", func(t *testing.T) {
		p := logical.NewPlan()
		plan, err := p.DataFrame("df", ints("k", "a", "b", "c")).
			GroupBy(
				[]arena.Node{p.Col("k")},
				[]arena.Node{p.Agg(logical.AggSum, p.Col("a")), p.Agg(logical.AggMax, p.Col("b"))},
				false,
			).
			Select(p.Col("k"), p.Col("a")).
			Build()
		require.NoError(t, err)

		optimize(t, plan, Options{})

		gb, ok := plan.RootIR().(*logical.GroupBy)
		require.True(t, ok, "got %T", plan.RootIR())
		require.Len(t, gb.Aggs, 1)
		require.Equal(t, []string{"k", "a"}, gb.Schema.Names())
		require.Equal(t, []string{"k", "a"}, scanColumns(t, plan, "df"))
	})

	t.Run("unread keys are projected away", func(t *testing.T) {
		p := logical.NewPlan()
		plan, err := p.DataFrame("df", ints("k", "a", "b")).
			GroupBy([]arena.Node{p.Col("k")}, []arena.Node{p.Agg(logical.AggSum, p.Col("a"))}, false).
			Select(p.Col("a")).
			Build()
		require.NoError(t, err)

		optimize(t, plan, Options{})

		proj, ok := plan.RootIR().(*logical.SimpleProjection)
		require.True(t, ok, "got %T", plan.RootIR())
		require.Equal(t, []string{"a"}, proj.Columns.Names())
		require.Equal(t, []string{"k", "a"}, scanColumns(t, plan, "df"))
	})

	t.Run("apply reads every column", func(t *testing.T) {
		p := logical.NewPlan()
		plan, err := p.DataFrame("df", ints("k", "a", "b")).
			GroupByApply([]arena.Node{p.Col("k")}, logical.ApplyFunction{Name: "udf", Schema: ints("k", "out", "extra")}).
			Select(p.Col("out")).
			Build()
		require.NoError(t, err)

		optimize(t, plan, Options{})
		require.Equal(t, []string{"k", "a", "b"}, scanColumns(t, plan, "df"))
	})
}

func TestPushdown_Union(t *testing.T) {
	p := logical.NewPlan()
	plan, err := p.Union(
		p.PythonScan("one", ints("a", "b", "c")),
		p.PythonScan("two", ints("a", "b", "c")),
	).Select(p.Col("c"), p.Col("a")).Build()
	require.NoError(t, err)

	optimize(t, plan, Options{})

	union, ok := plan.RootIR().(*logical.Union)
	require.True(t, ok, "got %T", plan.RootIR())
	for _, input := range union.Inputs {
		// The scans produce columns in source order; the inputs are
		// aligned to the requested order.
		proj, ok := plan.LP.Get(input).(*logical.SimpleProjection)
		require.True(t, ok, "got %T", plan.LP.Get(input))
		require.Equal(t, []string{"c", "a"}, proj.Columns.Names())

		scan := plan.LP.Get(proj.Input).(*logical.PythonScan)
		require.Equal(t, []string{"a", "c"}, scan.WithColumns)
	}
}

func TestPushdown_HConcat(t *testing.T) {
	p := logical.NewPlan()
	plan, err := p.HConcat(
		p.DataFrame("left", ints("a", "b")),
		p.DataFrame("right", ints("c", "d")),
	).Select(p.Col("a")).Build()
	require.NoError(t, err)

	optimize(t, plan, Options{})

	require.Equal(t, []string{"a"}, scanColumns(t, plan, "left"))
	// Still needed for the height of the output.
	require.Equal(t, []string{"d"}, scanColumns(t, plan, "right"))
}

func TestPushdown_Scan(t *testing.T) {
	t.Run("anonymous scan without pushdown", func(t *testing.T) {
		p := logical.NewPlan()
		plan, err := p.Scan([]string{"source"}, logical.ScanType{Format: logical.FormatAnonymous}, ints("a", "b"), logical.ScanArgs{}).
			Select(p.Col("a")).
			Build()
		require.NoError(t, err)

		optimize(t, plan, Options{})

		expect := `
SimpleProjection columns=(a)
└── Scan format=anonymous sources=(source) projection=*
`
		require.Equal(t, expect, "\n"+logical.PrintAsTree(plan))
	})

	t.Run("unread row index is dropped", func(t *testing.T) {
		p := logical.NewPlan()
		plan, err := p.Scan([]string{"a.parquet"}, logical.ScanType{Format: logical.FormatParquet}, ints("a", "b"),
			logical.ScanArgs{RowIndex: &logical.RowIndex{Name: "idx"}}).
			Select(p.Col("a")).
			Build()
		require.NoError(t, err)

		optimize(t, plan, Options{})

		scan := plan.RootIR().(*logical.Scan)
		require.Equal(t, []string{"a"}, scan.Args.Projection)
		require.Nil(t, scan.Args.RowIndex)
		require.Equal(t, []string{"a", "b"}, scan.FileInfo.Schema.Names())
	})

	t.Run("file path column comes last", func(t *testing.T) {
		p := logical.NewPlan()
		plan, err := p.Scan([]string{"a.parquet"}, logical.ScanType{Format: logical.FormatParquet}, ints("a", "b"),
			logical.ScanArgs{IncludeFilePaths: "path"}).
			Select(p.Col("path"), p.Col("a")).
			Build()
		require.NoError(t, err)

		optimize(t, plan, Options{})

		scan := plan.LP.Get(logical.Inputs(plan.RootIR())[0]).(*logical.Scan)
		require.Equal(t, []string{"a"}, scan.Args.Projection)
		require.Equal(t, "path", scan.Args.IncludeFilePaths)
		require.Equal(t, []string{"a", "path"}, scan.OutputSchema.Names())
	})

	t.Run("csv projection follows file order", func(t *testing.T) {
		p := logical.NewPlan()
		plan, err := p.Scan([]string{"a.csv"}, logical.ScanType{Format: logical.FormatCSV}, ints("a", "b", "c"), logical.ScanArgs{}).
			Select(p.Col("c"), p.Col("a")).
			Build()
		require.NoError(t, err)

		optimize(t, plan, Options{})

		scan := plan.LP.Get(logical.Inputs(plan.RootIR())[0]).(*logical.Scan)
		require.Equal(t, []string{"a", "c"}, scan.OutputSchema.Names())
	})
}

func TestPushdown_Functions(t *testing.T) {
	t.Run("rename", func(t *testing.T) {
		p := logical.NewPlan()
		plan, err := p.DataFrame("df", ints("a", "b")).
			Map(&logical.RenameFunction{Existing: []string{"a"}, New: []string{"x"}}).
			Select(p.Col("x")).
			Build()
		require.NoError(t, err)

		optimize(t, plan, Options{})
		require.Equal(t, []string{"a"}, scanColumns(t, plan, "df"))
	})

	t.Run("swapping rename", func(t *testing.T) {
		p := logical.NewPlan()
		plan, err := p.DataFrame("df", ints("a", "b", "c")).
			Map(&logical.RenameFunction{Existing: []string{"a", "b"}, New: []string{"b", "a"}}).
			Select(p.Col("a")).
			Build()
		require.NoError(t, err)

		optimize(t, plan, Options{})
		require.Equal(t, []string{"b"}, scanColumns(t, plan, "df"))
	})

	t.Run("explode", func(t *testing.T) {
		p := logical.NewPlan()
		plan, err := p.DataFrame("df", fields("a", datatype.Int64, "tags", datatype.NewList(datatype.String), "c", datatype.Int64)).
			Map(&logical.ExplodeFunction{Columns: []string{"tags"}}).
			Select(p.Col("a")).
			Build()
		require.NoError(t, err)

		optimize(t, plan, Options{})
		require.Equal(t, []string{"a", "tags"}, scanColumns(t, plan, "df"))
	})

	t.Run("row index", func(t *testing.T) {
		p := logical.NewPlan()
		plan, err := p.DataFrame("df", ints("a", "b")).
			Map(&logical.RowIndexFunction{Name: "idx"}).
			Select(p.Col("idx"), p.Col("b")).
			Build()
		require.NoError(t, err)

		optimize(t, plan, Options{})
		require.Equal(t, []string{"b"}, scanColumns(t, plan, "df"))
	})

	t.Run("opaque function reading extra columns", func(t *testing.T) {
		p := logical.NewPlan()
		plan, err := p.DataFrame("df", ints("a", "b", "c")).
			Map(&logical.OpaqueFunction{Name: "f", ProjectionPushdown: true, Columns: []string{"b"}}).
			Select(p.Col("a")).
			Build()
		require.NoError(t, err)

		optimize(t, plan, Options{})
		require.Equal(t, []string{"a", "b"}, scanColumns(t, plan, "df"))
	})

	t.Run("opaque function without pushdown", func(t *testing.T) {
		p := logical.NewPlan()
		plan, err := p.DataFrame("df", ints("a", "b", "c")).
			Map(&logical.OpaqueFunction{Name: "f"}).
			Select(p.Col("a")).
			Build()
		require.NoError(t, err)

		optimize(t, plan, Options{})

		expect := `
SimpleProjection columns=(a)
└── MapFunction function=f
    └── DataFrameScan name=df projection=*
`
		require.Equal(t, expect, "\n"+logical.PrintAsTree(plan))
	})
}

func TestPushdown_PassThrough(t *testing.T) {
	t.Run("sort keeps its keys", func(t *testing.T) {
		p := logical.NewPlan()
		plan, err := p.DataFrame("df", ints("a", "b", "c")).
			Sort([]arena.Node{p.Col("b")}, nil).
			Select(p.Col("a")).
			Build()
		require.NoError(t, err)

		optimize(t, plan, Options{})
		require.Equal(t, []string{"a", "b"}, scanColumns(t, plan, "df"))
	})

	t.Run("slice", func(t *testing.T) {
		p := logical.NewPlan()
		plan, err := p.DataFrame("df", ints("a", "b")).Slice(0, 5).Select(p.Col("b")).Build()
		require.NoError(t, err)

		optimize(t, plan, Options{})
		require.Equal(t, []string{"b"}, scanColumns(t, plan, "df"))
	})

	t.Run("merge sorted keeps its key on both sides", func(t *testing.T) {
		p := logical.NewPlan()
		other := p.DataFrame("r", ints("a", "k", "x"))
		plan, err := p.DataFrame("l", ints("a", "k", "x")).
			MergeSorted(other, "k").
			Select(p.Col("a")).
			Build()
		require.NoError(t, err)

		optimize(t, plan, Options{})
		require.Equal(t, []string{"a", "k"}, scanColumns(t, plan, "l"))
		require.Equal(t, []string{"a", "k"}, scanColumns(t, plan, "r"))
	})

	t.Run("ext context", func(t *testing.T) {
		p := logical.NewPlan()
		plan, err := p.DataFrame("main", ints("a", "b")).
			ExtContext(p.DataFrame("ctx", ints("c", "d"))).
			Select(p.Col("a")).
			Build()
		require.NoError(t, err)

		optimize(t, plan, Options{})
		require.Equal(t, []string{"a"}, scanColumns(t, plan, "main"))
		require.Nil(t, findScan(t, plan, "ctx").OutputSchema)
	})
}

func TestPushdown_Errors(t *testing.T) {
	t.Run("missing column", func(t *testing.T) {
		p := logical.NewPlan()
		input := p.LP.Add(&logical.DataFrameScan{Name: "df", Schema: ints("a")})
		expr := logical.NewExprIR(p.Expr, p.Col("missing"))
		p.Root = p.LP.Add(&logical.Select{Input: input, Exprs: []logical.ExprIR{expr}, Schema: ints("missing")})

		err := New(Options{}).Optimize(p)
		require.ErrorIs(t, err, errors.ErrColumnNotFound)
	})

	t.Run("too deep", func(t *testing.T) {
		p := logical.NewPlan()
		plan, err := p.DataFrame("df", ints("a")).Slice(0, 1).Slice(0, 1).Build()
		require.NoError(t, err)

		err = New(Options{MaxDepth: 2}).Optimize(plan)
		require.ErrorIs(t, err, errors.ErrPlanTooDeep)
	})

	t.Run("invalid operator", func(t *testing.T) {
		p := logical.NewPlan()
		input := p.LP.Add(&logical.Invalid{})
		expr := logical.NewExprIR(p.Expr, p.Col("a"))
		p.Root = p.LP.Add(&logical.Select{Input: input, Exprs: []logical.ExprIR{expr}, Schema: ints("a")})

		require.Panics(t, func() { _ = New(Options{}).Optimize(p) })
	})
}

func TestPushdown_ColumnsPrunedMetric(t *testing.T) {
	pruned := prometheus.NewCounter(prometheus.CounterOpts{Name: "pruned_total"})

	p := logical.NewPlan()
	plan, err := p.DataFrame("df", ints("a", "b", "c", "d")).Select(p.Col("a")).Build()
	require.NoError(t, err)

	optimize(t, plan, Options{ColumnsPruned: pruned})
	require.Equal(t, float64(3), testutil.ToFloat64(pruned))
}

func TestSplitAccProjections(t *testing.T) {
	ea := logical.NewExprArena()
	acc := []logical.ColumnNode{logical.NewColumnNode(ea, "a"), logical.NewColumnNode(ea, "x")}

	pushed, local, names := splitAccProjections(ea, acc, ints("a", "b", "c"), false)
	require.Equal(t, []string{"a"}, columnNames(ea, pushed))
	require.Equal(t, []string{"x"}, columnNames(ea, local))
	require.True(t, names.contains("a"))
	require.False(t, names.contains("x"))

	// Every input column is needed: everything is resolved locally.
	all := []logical.ColumnNode{logical.NewColumnNode(ea, "b"), logical.NewColumnNode(ea, "a")}
	pushed, local, _ = splitAccProjections(ea, all, ints("a", "b"), false)
	require.Empty(t, pushed)
	require.Len(t, local, 2)

	pushed, local, _ = splitAccProjections(ea, all, ints("a", "b"), true)
	require.Len(t, pushed, 2)
	require.Empty(t, local)
}

func TestContextClone(t *testing.T) {
	ea := logical.NewExprArena()
	ctx := emptyContext(copyState{})
	addStrToAccumulated(ea, "a", &ctx)
	require.Empty(t, ctx.accProjections, "nothing is added to an unrestricted context")

	ctx.inner.isCountStar = true
	addStrToAccumulated(ea, "a", &ctx)
	require.Equal(t, []string{"a"}, ctx.names(ea))

	clone := ctx.clone()
	addStrToAccumulated(ea, "b", &clone)
	require.Equal(t, []string{"a"}, ctx.names(ea))
	require.False(t, ctx.projectedNames.contains("b"))
	require.Equal(t, []string{"a", "b"}, clone.names(ea))
}
