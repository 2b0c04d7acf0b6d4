package phylo

import (
	"fmt"
	"math"
)

// Neighbor is a leaf found within the cutoff of a reference leaf.
type Neighbor struct {
	Leaf     NodeID
	Distance float64
}

// Walker enumerates leaves within a patristic distance of a reference point.
// It holds no mutable state, so one Walker serves any number of goroutines.
type Walker struct {
	tree    *Tree
	parents *ParentMap
}

// NewWalker returns a Walker over the tree pm was built from.
func NewWalker(pm *ParentMap) *Walker {
	return &Walker{tree: pm.tree, parents: pm}
}

// stackEntry is a pending WalkUp visit: a node and the path length
// accumulated above it.
type stackEntry struct {
	id  NodeID
	acc float64
}

// WalkUp explores strictly downward from node. The node's own branch length
// is added to accumulated on entry; once the sum reaches cutoff the subtree
// is pruned, since branch lengths never decrease a path. Leaves are returned
// in the order a left-to-right recursive descent would find them.
func (w *Walker) WalkUp(node NodeID, accumulated, cutoff float64) ([]Neighbor, error) {
	if err := ValidateCutoff(cutoff); err != nil {
		return nil, err
	}
	if math.IsNaN(accumulated) || math.IsInf(accumulated, 0) || accumulated < 0 {
		return nil, fmt.Errorf("%w: accumulated length %v", ErrInvalidParameter, accumulated)
	}
	if !w.tree.contains(node) {
		return nil, fmt.Errorf("%w: id %d", ErrNodeNotFound, node)
	}
	return w.walkUp(nil, node, accumulated, cutoff)
}

func (w *Walker) walkUp(out []Neighbor, node NodeID, accumulated, cutoff float64) ([]Neighbor, error) {
	stack := []stackEntry{{id: node, acc: accumulated}}
	for len(stack) > 0 {
		e := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		n := w.tree.nodes[e.id]
		if !n.HasLength() {
			return nil, missingLength(e.id, n)
		}
		acc := e.acc + n.BranchLength
		if acc >= cutoff {
			prunedSubtrees.Inc()
			continue
		}
		if n.IsLeaf() {
			out = append(out, Neighbor{Leaf: e.id, Distance: acc})
			continue
		}
		for i := len(n.Children) - 1; i >= 0; i-- {
			stack = append(stack, stackEntry{id: n.Children[i], acc: acc})
		}
	}
	return out, nil
}

// WalkTrunk returns every leaf other than origin whose patristic distance to
// origin is below cutoff. It ascends from origin one ancestor at a time and
// explores each sibling subtree with WalkUp, stopping at the root or when the
// trunk itself reaches cutoff. Each ancestor and each sibling subtree is
// visited once, so no leaf is reported twice.
func (w *Walker) WalkTrunk(origin NodeID, cutoff float64) ([]Neighbor, error) {
	if err := ValidateCutoff(cutoff); err != nil {
		return nil, err
	}
	if !w.tree.contains(origin) {
		return nil, fmt.Errorf("%w: id %d", ErrNodeNotFound, origin)
	}
	on := w.tree.nodes[origin]
	if !on.IsLeaf() {
		return nil, fmt.Errorf("%w: node %d is not a leaf", ErrNodeNotFound, origin)
	}
	walkTrunkTotal.Inc()

	cur := origin
	parent, ok := w.parents.Parent(cur)
	if !ok {
		// single-leaf tree
		return nil, nil
	}
	if !on.HasLength() {
		return nil, missingLength(origin, on)
	}
	acc := on.BranchLength
	if acc >= cutoff {
		return nil, nil
	}

	var (
		out []Neighbor
		err error
	)
	for {
		for _, c := range w.tree.nodes[parent].Children {
			if c == cur {
				continue
			}
			out, err = w.walkUp(out, c, acc, cutoff)
			if err != nil {
				return nil, err
			}
		}

		grand, ok := w.parents.Parent(parent)
		if !ok {
			break
		}
		pn := w.tree.nodes[parent]
		if !pn.HasLength() {
			return nil, missingLength(parent, pn)
		}
		cur = parent
		acc += pn.BranchLength
		parent = grand
		if acc >= cutoff {
			break
		}
	}
	return out, nil
}

func missingLength(id NodeID, n Node) error {
	if n.IsLeaf() {
		return fmt.Errorf("%w: leaf %q has no usable branch length (%v)", ErrMalformedTree, n.Name, n.BranchLength)
	}
	return fmt.Errorf("%w: node %d has no usable branch length (%v)", ErrMalformedTree, id, n.BranchLength)
}
