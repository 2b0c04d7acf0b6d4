package phylo

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuilder_LeavesInPreorder(t *testing.T) {
	tree := workedTree(t)

	var names []string
	for _, id := range tree.Leaves() {
		names = append(names, tree.Name(id))
	}
	assert.Equal(t, []string{"A", "B", "C", "D"}, names)
	assert.Equal(t, 7, tree.Len())

	id, ok := tree.LeafByName("C")
	require.True(t, ok)
	n, err := tree.Node(id)
	require.NoError(t, err)
	assert.True(t, n.IsLeaf())
	assert.InDelta(t, 0.01, n.BranchLength, 1e-15)

	_, ok = tree.LeafByName("nope")
	assert.False(t, ok)
}

func TestNewTree_Malformed(t *testing.T) {
	tests := []struct {
		name  string
		nodes []Node
		root  NodeID
	}{
		{
			name: "empty",
		},
		{
			name:  "root out of range",
			nodes: []Node{{Kind: KindLeaf, Name: "A"}},
			root:  3,
		},
		{
			name: "cycle",
			nodes: []Node{
				{Kind: KindInternal, Children: []NodeID{1}},
				{Kind: KindInternal, Children: []NodeID{0}},
			},
		},
		{
			name: "shared child",
			nodes: []Node{
				{Kind: KindInternal, Children: []NodeID{1, 2}},
				{Kind: KindInternal, Children: []NodeID{3}},
				{Kind: KindInternal, Children: []NodeID{3}},
				{Kind: KindLeaf, Name: "A"},
			},
		},
		{
			name: "leaf with children",
			nodes: []Node{
				{Kind: KindLeaf, Name: "A", Children: []NodeID{1}},
				{Kind: KindLeaf, Name: "B"},
			},
		},
		{
			name:  "internal without children",
			nodes: []Node{{Kind: KindInternal}},
		},
		{
			name: "child out of range",
			nodes: []Node{
				{Kind: KindInternal, Children: []NodeID{7}},
			},
		},
		{
			name: "orphan node",
			nodes: []Node{
				{Kind: KindInternal, Children: []NodeID{1}},
				{Kind: KindLeaf, Name: "A"},
				{Kind: KindLeaf, Name: "B"},
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewTree(tt.nodes, tt.root)
			assert.ErrorIs(t, err, ErrMalformedTree)
		})
	}
}

func TestNewTree_CopiesInput(t *testing.T) {
	nodes := []Node{
		{Kind: KindInternal, Children: []NodeID{1, 2}},
		{Kind: KindLeaf, Name: "A", BranchLength: 0.1},
		{Kind: KindLeaf, Name: "B", BranchLength: 0.2},
	}
	tree, err := NewTree(nodes, 0)
	require.NoError(t, err)

	nodes[0].Children[0] = 2
	nodes[1].Name = "changed"

	n, err := tree.Node(0)
	require.NoError(t, err)
	assert.Equal(t, []NodeID{1, 2}, n.Children)
	assert.Equal(t, "A", tree.Name(1))
}

func TestNode_HasLength(t *testing.T) {
	assert.True(t, Node{BranchLength: 0}.HasLength())
	assert.True(t, Node{BranchLength: 1.5}.HasLength())
	assert.False(t, Node{BranchLength: NoLength}.HasLength())
	assert.False(t, Node{BranchLength: math.NaN()}.HasLength())
	assert.False(t, Node{BranchLength: math.Inf(1)}.HasLength())
}

func TestTree_NodeNotFound(t *testing.T) {
	tree := workedTree(t)
	_, err := tree.Node(99)
	assert.ErrorIs(t, err, ErrNodeNotFound)
	assert.Equal(t, "", tree.Name(-4))
}
