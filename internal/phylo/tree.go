// Package phylo clusters the tips of a rooted phylogenetic tree by
// patristic distance.
//
// A Tree is an immutable arena of nodes addressed by NodeID. BuildParentMap
// derives the child to parent lookup once; a Walker uses both to enumerate,
// from a reference leaf, every other leaf closer than a cutoff. Clusterer
// drives the Walker over all leaves (Cluster) or over one representative
// leaf per subject (FindShortEdges).
package phylo

import (
	"fmt"
	"math"
)

// NodeID addresses a node inside a Tree.
type NodeID int

// NoNode is the NodeID returned where no node exists.
const NoNode NodeID = -1

// NoLength marks a branch without a usable length. Any negative, NaN or
// infinite length is treated the same way.
const NoLength = -1.0

// NodeKind distinguishes leaves from internal nodes.
type NodeKind uint8

const (
	KindLeaf NodeKind = iota
	KindInternal
)

func (k NodeKind) String() string {
	switch k {
	case KindLeaf:
		return "leaf"
	case KindInternal:
		return "internal"
	default:
		return "unknown"
	}
}

// Node is a clade in the tree. Leaves carry a name and no children;
// internal nodes carry one or more children.
type Node struct {
	Kind         NodeKind
	Name         string
	BranchLength float64
	Children     []NodeID
}

// IsLeaf reports whether n is a terminal node.
func (n Node) IsLeaf() bool { return n.Kind == KindLeaf }

// HasLength reports whether n carries a usable (finite, non-negative) branch length.
func (n Node) HasLength() bool { return validLength(n.BranchLength) }

func validLength(l float64) bool {
	return l >= 0 && !math.IsInf(l, 1)
}

// Tree is an immutable rooted tree. The zero value is not usable; build one
// with NewTree or a Builder.
type Tree struct {
	nodes  []Node
	root   NodeID
	leaves []NodeID
	byName map[string]NodeID
}

// NewTree validates nodes and returns a Tree rooted at root. The slice is
// copied. Every node must be reachable from root exactly once.
func NewTree(nodes []Node, root NodeID) (*Tree, error) {
	if len(nodes) == 0 {
		return nil, fmt.Errorf("%w: tree has no nodes", ErrMalformedTree)
	}
	if root < 0 || int(root) >= len(nodes) {
		return nil, fmt.Errorf("%w: root %d out of range", ErrMalformedTree, root)
	}

	t := &Tree{
		nodes:  make([]Node, len(nodes)),
		root:   root,
		byName: make(map[string]NodeID),
	}
	for i, n := range nodes {
		n.Children = append([]NodeID(nil), n.Children...)
		t.nodes[i] = n
	}

	// Preorder walk with an explicit stack; children pushed in reverse so
	// leaves come out left to right.
	seen := make([]bool, len(t.nodes))
	stack := []NodeID{root}
	reached := 0
	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if seen[id] {
			return nil, fmt.Errorf("%w: node %d reached twice", ErrMalformedTree, id)
		}
		seen[id] = true
		reached++

		n := t.nodes[id]
		switch n.Kind {
		case KindLeaf:
			if len(n.Children) > 0 {
				return nil, fmt.Errorf("%w: leaf %q has children", ErrMalformedTree, n.Name)
			}
			t.leaves = append(t.leaves, id)
			if _, dup := t.byName[n.Name]; !dup {
				t.byName[n.Name] = id
			}
		case KindInternal:
			if len(n.Children) == 0 {
				return nil, fmt.Errorf("%w: internal node %d has no children", ErrMalformedTree, id)
			}
			for i := len(n.Children) - 1; i >= 0; i-- {
				c := n.Children[i]
				if c < 0 || int(c) >= len(t.nodes) {
					return nil, fmt.Errorf("%w: node %d has child %d out of range", ErrMalformedTree, id, c)
				}
				stack = append(stack, c)
			}
		default:
			return nil, fmt.Errorf("%w: node %d has unknown kind %d", ErrMalformedTree, id, n.Kind)
		}
	}
	if reached != len(t.nodes) {
		return nil, fmt.Errorf("%w: %d nodes unreachable from root", ErrMalformedTree, len(t.nodes)-reached)
	}
	return t, nil
}

// Root returns the root node id.
func (t *Tree) Root() NodeID { return t.root }

// Len returns the number of nodes.
func (t *Tree) Len() int { return len(t.nodes) }

// Node returns the node with the given id.
func (t *Tree) Node(id NodeID) (Node, error) {
	if !t.contains(id) {
		return Node{}, fmt.Errorf("%w: id %d", ErrNodeNotFound, id)
	}
	return t.nodes[id], nil
}

// Leaves returns leaf ids in preorder (left to right). The slice is shared;
// callers must not modify it.
func (t *Tree) Leaves() []NodeID { return t.leaves }

// Name returns the name of a node, or "" for an unknown id.
func (t *Tree) Name(id NodeID) string {
	if !t.contains(id) {
		return ""
	}
	return t.nodes[id].Name
}

// LeafByName returns the first leaf (in preorder) carrying name.
func (t *Tree) LeafByName(name string) (NodeID, bool) {
	id, ok := t.byName[name]
	return id, ok
}

func (t *Tree) contains(id NodeID) bool {
	return id >= 0 && int(id) < len(t.nodes)
}

// Builder assembles a Tree bottom-up. Children must be added before their
// parent, so a Builder can never produce a cycle.
type Builder struct {
	nodes []Node
}

// AddLeaf adds a leaf and returns its id.
func (b *Builder) AddLeaf(name string, length float64) NodeID {
	b.nodes = append(b.nodes, Node{Kind: KindLeaf, Name: name, BranchLength: length})
	return NodeID(len(b.nodes) - 1)
}

// AddInternal adds an internal node over children and returns its id.
func (b *Builder) AddInternal(length float64, children ...NodeID) NodeID {
	b.nodes = append(b.nodes, Node{
		Kind:         KindInternal,
		BranchLength: length,
		Children:     append([]NodeID(nil), children...),
	})
	return NodeID(len(b.nodes) - 1)
}

// Build returns the tree rooted at root.
func (b *Builder) Build(root NodeID) (*Tree, error) {
	return NewTree(b.nodes, root)
}
