package logical

import (
	"fmt"

	"github.com/grafana/lazyframe/pkg/engine/internal/arena"
)

// WalkOrder defines the order in which an operator and its inputs are
// visited.
type WalkOrder uint8

const (
	// PreOrderWalk processes the current operator before visiting any of its
	// inputs.
	PreOrderWalk WalkOrder = iota

	// PostOrderWalk processes the current operator after visiting all of its
	// inputs.
	PostOrderWalk
)

// WalkFunc is invoked for each operator when walking a plan. Walking stops
// if WalkFunc returns a non-nil error.
type WalkFunc func(n arena.Node) error

// Walk performs a depth-first walk of the operators reachable from n,
// invoking f for each of them. Operators shared by several parents, such as
// the input of a [Cache], are visited once. Walk returns the error returned
// by f.
func Walk(lp *IRArena, n arena.Node, f WalkFunc, order WalkOrder) error {
	visited := make(map[arena.Node]struct{})
	switch order {
	case PreOrderWalk:
		return preOrderWalk(lp, n, f, visited)
	case PostOrderWalk:
		return postOrderWalk(lp, n, f, visited)
	default:
		return fmt.Errorf("unsupported walk order %d", order)
	}
}

func preOrderWalk(lp *IRArena, n arena.Node, f WalkFunc, visited map[arena.Node]struct{}) error {
	if _, ok := visited[n]; ok {
		return nil
	}
	visited[n] = struct{}{}

	if err := f(n); err != nil {
		return err
	}

	// f may have rewritten n, so its inputs are read afterwards.
	for _, child := range Inputs(lp.Get(n)) {
		if err := preOrderWalk(lp, child, f, visited); err != nil {
			return err
		}
	}
	return nil
}

func postOrderWalk(lp *IRArena, n arena.Node, f WalkFunc, visited map[arena.Node]struct{}) error {
	if _, ok := visited[n]; ok {
		return nil
	}
	visited[n] = struct{}{}

	for _, child := range Inputs(lp.Get(n)) {
		if err := postOrderWalk(lp, child, f, visited); err != nil {
			return err
		}
	}

	return f(n)
}

// NumOperators returns the number of distinct operators reachable from the
// root of p.
func (p *Plan) NumOperators() int {
	count := 0
	_ = Walk(p.LP, p.Root, func(arena.Node) error {
		count++
		return nil
	}, PreOrderWalk)
	return count
}
