package phylo

import "fmt"

// ParentMap is the child to parent lookup for one Tree. It is read-only once
// built and safe to share between goroutines.
type ParentMap struct {
	tree    *Tree
	parents []NodeID // NoNode for the root
	size    int
}

// BuildParentMap visits t in level order and records, for every internal
// node, each of its children as mapping to it. The root has no entry.
func BuildParentMap(t *Tree) (*ParentMap, error) {
	if t == nil {
		return nil, fmt.Errorf("%w: nil tree", ErrMalformedTree)
	}
	pm := &ParentMap{
		tree:    t,
		parents: make([]NodeID, len(t.nodes)),
	}
	for i := range pm.parents {
		pm.parents[i] = NoNode
	}

	seen := make([]bool, len(t.nodes))
	seen[t.root] = true
	queue := []NodeID{t.root}
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		for _, c := range t.nodes[id].Children {
			if seen[c] {
				return nil, fmt.Errorf("%w: node %d reached twice", ErrMalformedTree, c)
			}
			seen[c] = true
			pm.parents[c] = id
			pm.size++
			queue = append(queue, c)
		}
	}
	return pm, nil
}

// Parent returns the parent of id. ok is false for the root or for an id
// that is not part of the tree.
func (pm *ParentMap) Parent(id NodeID) (parent NodeID, ok bool) {
	if !pm.tree.contains(id) {
		return NoNode, false
	}
	p := pm.parents[id]
	return p, p != NoNode
}

// Len returns the number of entries, which is the node count minus one.
func (pm *ParentMap) Len() int { return pm.size }

// Tree returns the tree the map was built from.
func (pm *ParentMap) Tree() *Tree { return pm.tree }
