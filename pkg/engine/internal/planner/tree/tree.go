// Package tree renders hierarchical plans as text.
package tree

// Property is a key-value pair attached to a [Node]. A single-value property
// prints as key=value, a multi-value property as key=(v1, v2, ...).
type Property struct {
	Key          string
	Values       []any
	IsMultiValue bool
}

// NewProperty returns a property. multi selects the multi-value format even
// when only one value is given.
func NewProperty(key string, multi bool, values ...any) Property {
	return Property{Key: key, Values: values, IsMultiValue: multi}
}

// Node is a printable tree node.
type Node struct {
	// ID is printed as #ID after the name when non-empty.
	ID         string
	Name       string
	Properties []Property

	// Children are the inputs of the node.
	Children []*Node

	// Comments are printed between a node and its children, indented one
	// level deeper. Plans use them to list expressions.
	Comments []*Node
}

// NewNode returns a node without children.
func NewNode(name, id string, properties ...Property) *Node {
	return &Node{ID: id, Name: name, Properties: properties}
}

// AddChild appends a new child node and returns it.
func (n *Node) AddChild(name, id string, properties []Property) *Node {
	child := NewNode(name, id, properties...)
	n.Children = append(n.Children, child)
	return child
}

// AddComment appends a new comment node and returns it.
func (n *Node) AddComment(name, id string, properties []Property) *Node {
	comment := NewNode(name, id, properties...)
	n.Comments = append(n.Comments, comment)
	return comment
}
