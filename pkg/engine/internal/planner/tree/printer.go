package tree

import (
	"fmt"
	"io"
	"strings"
)

const (
	symPrefix   = "    "
	symIndent   = "│   "
	symConn     = "├── "
	symLastConn = "└── "
)

// Printer writes a [Node] and its descendants as an indented tree.
type Printer struct {
	w io.Writer
}

// NewPrinter returns a printer writing to w.
func NewPrinter(w io.Writer) *Printer {
	return &Printer{w: w}
}

// Print writes root and all of its comments and children.
func (p *Printer) Print(root *Node) {
	p.printNode(root)
	p.printChildren(root.Comments, root.Children, "")
}

// String renders root with a new [Printer].
func String(root *Node) string {
	var sb strings.Builder
	NewPrinter(&sb).Print(root)
	return sb.String()
}

func (p *Printer) printNode(n *Node) {
	fmt.Fprint(p.w, n.Name)
	if n.ID != "" {
		fmt.Fprintf(p.w, " #%s", n.ID)
	}
	for _, prop := range n.Properties {
		fmt.Fprintf(p.w, " %s=", prop.Key)
		if prop.IsMultiValue {
			fmt.Fprint(p.w, "(")
			for i, v := range prop.Values {
				if i > 0 {
					fmt.Fprint(p.w, ", ")
				}
				fmt.Fprintf(p.w, "%v", v)
			}
			fmt.Fprint(p.w, ")")
			continue
		}
		if len(prop.Values) > 0 {
			fmt.Fprintf(p.w, "%v", prop.Values[0])
		}
	}
	fmt.Fprintln(p.w)
}

func (p *Printer) printChildren(comments, children []*Node, prefix string) {
	// Comments hang off a vertical bar when children follow them.
	indent := symPrefix
	if len(children) > 0 {
		indent = symIndent
	}
	for i, c := range comments {
		conn, next := symConn, prefix+indent+symIndent
		if i == len(comments)-1 {
			conn, next = symLastConn, prefix+indent+symPrefix
		}
		fmt.Fprint(p.w, prefix+indent+conn)
		p.printNode(c)
		p.printChildren(c.Comments, c.Children, next)
	}

	for i, c := range children {
		conn, next := symConn, prefix+symIndent
		if i == len(children)-1 {
			conn, next = symLastConn, prefix+symPrefix
		}
		fmt.Fprint(p.w, prefix+conn)
		p.printNode(c)
		p.printChildren(c.Comments, c.Children, next)
	}
}
