package tree

import (
	"fmt"
	"io"
	"strings"
)

// Mermaid writes a [Node] as a Mermaid flowchart. Comments are folded into the
// label of the node they belong to.
type Mermaid struct {
	w     io.Writer
	count int
}

// NewMermaid returns a Mermaid writer.
func NewMermaid(w io.Writer) *Mermaid {
	return &Mermaid{w: w}
}

// Write writes the flowchart for root.
func (m *Mermaid) Write(root *Node) error {
	if _, err := fmt.Fprintln(m.w, "graph TB"); err != nil {
		return err
	}
	_, err := m.write(root)
	return err
}

func (m *Mermaid) write(n *Node) (string, error) {
	id := fmt.Sprintf("n%d", m.count)
	m.count++

	if _, err := fmt.Fprintf(m.w, "    %s[\"%s\"]\n", id, escapeMermaid(label(n))); err != nil {
		return "", err
	}
	for _, c := range n.Children {
		childID, err := m.write(c)
		if err != nil {
			return "", err
		}
		if _, err := fmt.Fprintf(m.w, "    %s --> %s\n", childID, id); err != nil {
			return "", err
		}
	}
	return id, nil
}

func label(n *Node) string {
	var sb strings.Builder
	p := NewPrinter(&sb)
	p.printNode(n)
	for _, c := range n.Comments {
		sb.WriteString("  ")
		p.printNode(c)
	}
	return strings.TrimSuffix(sb.String(), "\n")
}

func escapeMermaid(s string) string {
	s = strings.ReplaceAll(s, `"`, "#quot;")
	return strings.ReplaceAll(s, "\n", "<br/>")
}
