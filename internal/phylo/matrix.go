package phylo

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// RootDepths returns, for every node, the summed branch length from the root
// down to it. The root's own branch length is not counted.
func RootDepths(pm *ParentMap) ([]float64, error) {
	t := pm.tree
	depth := make([]float64, len(t.nodes))
	// Preorder guarantees parents are filled before children.
	stack := []NodeID{t.root}
	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, c := range t.nodes[id].Children {
			n := t.nodes[c]
			if !n.HasLength() {
				return nil, missingLength(c, n)
			}
			depth[c] = depth[id] + n.BranchLength
			stack = append(stack, c)
		}
	}
	return depth, nil
}

// MRCA returns the most recent common ancestor of a and b.
func MRCA(pm *ParentMap, a, b NodeID) (NodeID, error) {
	if !pm.tree.contains(a) || !pm.tree.contains(b) {
		return NoNode, fmt.Errorf("%w: mrca of %d and %d", ErrNodeNotFound, a, b)
	}
	ancestors := make(map[NodeID]bool)
	for cur, ok := a, true; ok; cur, ok = pm.Parent(cur) {
		ancestors[cur] = true
	}
	for cur, ok := b, true; ok; cur, ok = pm.Parent(cur) {
		if ancestors[cur] {
			return cur, nil
		}
	}
	return NoNode, fmt.Errorf("%w: %d and %d share no ancestor", ErrMalformedTree, a, b)
}

// PatristicMatrix computes every leaf-to-leaf distance as
// depth(a) + depth(b) - 2*depth(mrca(a, b)). Rows follow Tree.Leaves; the
// returned names label them. Cost is quadratic in the leaf count, so this is
// meant for small trees and for cross-checking the walker.
func PatristicMatrix(pm *ParentMap) (*mat.SymDense, []string, error) {
	t := pm.tree
	depth, err := RootDepths(pm)
	if err != nil {
		return nil, nil, err
	}
	leaves := t.leaves
	names := make([]string, len(leaves))
	for i, l := range leaves {
		names[i] = t.nodes[l].Name
	}

	m := mat.NewSymDense(len(leaves), nil)
	for i := range leaves {
		for j := i + 1; j < len(leaves); j++ {
			anc, err := MRCA(pm, leaves[i], leaves[j])
			if err != nil {
				return nil, nil, err
			}
			m.SetSym(i, j, depth[leaves[i]]+depth[leaves[j]]-2*depth[anc])
		}
	}
	return m, names, nil
}
