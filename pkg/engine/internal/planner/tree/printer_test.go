package tree

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPrinter(t *testing.T) {
	root := NewNode("Root", "")
	lvl1 := root.AddChild("Join", "1", []Property{
		NewProperty("left_on", true, "a"),
		NewProperty("right_on", true, "a", "b"),
	})
	lvl2 := lvl1.AddChild("Filter", "2", []Property{
		NewProperty("predicate", false, "col(x) > 1"),
	})
	lvl2.AddChild("Scan", "3", []Property{NewProperty("path", false, "a.parquet")})
	lvl1.AddChild("Scan", "4", nil)

	b := &strings.Builder{}
	NewPrinter(b).Print(root)

	t.Log("\n" + b.String())
	expected := `
Root
└── Join #1 left_on=(a) right_on=(a, b)
    ├── Filter #2 predicate=col(x) > 1
    │   └── Scan #3 path=a.parquet
    └── Scan #4
`
	require.Equal(t, expected, "\n"+b.String())
}

func TestPrinter_Comments(t *testing.T) {
	root := NewNode("Select", "")
	root.AddComment("Expr", "", []Property{NewProperty("expr", false, "col(a)")})
	root.AddComment("Expr", "", []Property{NewProperty("expr", false, "col(b)")})
	root.AddChild("Scan", "", nil)

	expected := `
Select
│   ├── Expr expr=col(a)
│   └── Expr expr=col(b)
└── Scan
`
	require.Equal(t, expected, "\n"+String(root))

	leaf := NewNode("Scan", "")
	leaf.AddComment("Column", "", []Property{NewProperty("name", false, "a")})
	require.Equal(t, "Scan\n    └── Column name=a\n", String(leaf))
}

func TestMermaid(t *testing.T) {
	root := NewNode("Select", "")
	root.AddChild("Scan", "", []Property{NewProperty("path", false, `"x"`)})

	var sb strings.Builder
	require.NoError(t, NewMermaid(&sb).Write(root))

	expected := `graph TB
    n0["Select"]
    n1["Scan path=#quot;x#quot;"]
    n1 --> n0
`
	require.Equal(t, expected, sb.String())
}
