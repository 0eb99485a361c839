// Package arena provides a bulk-owned store of values addressed by stable
// integer handles.
package arena

import "fmt"

// Node is a handle to a value stored in an [Arena]. Nodes are only meaningful
// for the arena which returned them; equality of two nodes is handle
// equality, not equality of the values they point to.
type Node uint32

// String returns the handle formatted as %N.
func (n Node) String() string { return fmt.Sprintf("%%%d", uint32(n)) }

// Arena stores values of type T. Values are never freed individually; taking
// a value out of the arena leaves the configured placeholder in its slot until
// a new value is put back with [Arena.Replace].
//
// Arena is not goroutine-safe.
type Arena[T any] struct {
	items       []T
	placeholder T
}

// New returns an empty arena. placeholder is the value left behind by
// [Arena.Take].
func New[T any](placeholder T) *Arena[T] {
	return &Arena[T]{placeholder: placeholder}
}

// Add stores v and returns its handle.
func (a *Arena[T]) Add(v T) Node {
	a.items = append(a.items, v)
	return Node(len(a.items) - 1)
}

// Get returns the value stored at n.
func (a *Arena[T]) Get(n Node) T {
	a.check(n)
	return a.items[n]
}

// Take removes the value stored at n and returns it. The slot holds the
// placeholder value until [Arena.Replace] is called for n.
func (a *Arena[T]) Take(n Node) T {
	a.check(n)
	v := a.items[n]
	a.items[n] = a.placeholder
	return v
}

// Replace stores v at n, overwriting whatever was stored there.
func (a *Arena[T]) Replace(n Node, v T) {
	a.check(n)
	a.items[n] = v
}

// Len returns the number of slots in the arena, including slots that
// currently hold the placeholder.
func (a *Arena[T]) Len() int { return len(a.items) }

func (a *Arena[T]) check(n Node) {
	if int(n) >= len(a.items) {
		panic(fmt.Sprintf("arena: node %s out of range (len %d)", n, len(a.items)))
	}
}
