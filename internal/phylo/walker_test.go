package phylo

import (
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newWalker(t *testing.T, tree *Tree) *Walker {
	t.Helper()
	pm, err := BuildParentMap(tree)
	require.NoError(t, err)
	return NewWalker(pm)
}

func TestWalkTrunk_WorkedScenario(t *testing.T) {
	tree := workedTree(t)
	w := newWalker(t, tree)
	a, _ := tree.LeafByName("A")

	got, err := w.WalkTrunk(a, 0.03)
	require.NoError(t, err)
	names := neighborNames(tree, got)
	require.Len(t, names, 1)
	assert.InDelta(t, 0.02, names["B"], 1e-12)

	got, err = w.WalkTrunk(a, 0.06)
	require.NoError(t, err)
	names = neighborNames(tree, got)
	require.Len(t, names, 3)
	assert.InDelta(t, 0.02, names["B"], 1e-12)
	assert.InDelta(t, 0.05, names["C"], 1e-12)
	assert.InDelta(t, 0.05, names["D"], 1e-12)
}

func TestWalkTrunk_StrictCutoff(t *testing.T) {
	var b Builder
	x := b.AddLeaf("X", 0.5)
	y := b.AddLeaf("Y", 0.5)
	root := b.AddInternal(0, x, y)
	tree, err := b.Build(root)
	require.NoError(t, err)
	w := newWalker(t, tree)

	got, err := w.WalkTrunk(x, 1.0)
	require.NoError(t, err)
	assert.Empty(t, got, "distance equal to cutoff must not qualify")

	got, err = w.WalkTrunk(x, 1.0000001)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, y, got[0].Leaf)
}

func TestWalkTrunk_NeverReturnsOrigin(t *testing.T) {
	tree := randomTree(t, 11, 30)
	w := newWalker(t, tree)
	for _, leaf := range tree.Leaves() {
		got, err := w.WalkTrunk(leaf, 100)
		require.NoError(t, err)
		seen := make(map[NodeID]bool)
		for _, nb := range got {
			assert.NotEqual(t, leaf, nb.Leaf, "self loop from %s", tree.Name(leaf))
			assert.False(t, seen[nb.Leaf], "duplicate neighbor %s", tree.Name(nb.Leaf))
			seen[nb.Leaf] = true
		}
		// A cutoff above every distance in the tree reaches all other leaves.
		assert.Len(t, got, len(tree.Leaves())-1)
	}
}

func TestWalkTrunk_SingleLeafTree(t *testing.T) {
	var b Builder
	only := b.AddLeaf("solo", 0)
	tree, err := b.Build(only)
	require.NoError(t, err)
	w := newWalker(t, tree)

	got, err := w.WalkTrunk(only, 10)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestWalkTrunk_Errors(t *testing.T) {
	tree := workedTree(t)
	w := newWalker(t, tree)
	a, _ := tree.LeafByName("A")

	_, err := w.WalkTrunk(a, -0.1)
	assert.ErrorIs(t, err, ErrInvalidParameter)
	_, err = w.WalkTrunk(a, math.NaN())
	assert.ErrorIs(t, err, ErrInvalidParameter)
	_, err = w.WalkTrunk(a, math.Inf(1))
	assert.ErrorIs(t, err, ErrInvalidParameter)

	_, err = w.WalkTrunk(tree.Root(), 1)
	assert.ErrorIs(t, err, ErrNodeNotFound, "internal node is not a valid origin")
	_, err = w.WalkTrunk(42, 1)
	assert.ErrorIs(t, err, ErrNodeNotFound)
}

func TestWalkTrunk_MissingBranchLength(t *testing.T) {
	var b Builder
	a := b.AddLeaf("A", 0.01)
	bb := b.AddLeaf("B", NoLength)
	c := b.AddLeaf("C", 0.01)
	ab := b.AddInternal(0.01, a, bb)
	root := b.AddInternal(0, ab, c)
	tree, err := b.Build(root)
	require.NoError(t, err)
	w := newWalker(t, tree)

	_, err = w.WalkTrunk(a, 1)
	assert.ErrorIs(t, err, ErrMalformedTree)

	// C's walk reaches B through WalkUp on the (A,B) clade.
	_, err = w.WalkTrunk(c, 1)
	assert.ErrorIs(t, err, ErrMalformedTree)

	// A small cutoff prunes before B is reached.
	got, err := w.WalkTrunk(c, 0.015)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestWalkUp_PrunesAndOrders(t *testing.T) {
	tree := workedTree(t)
	w := newWalker(t, tree)

	got, err := w.WalkUp(tree.Root(), 0, 1)
	require.NoError(t, err)
	var order []string
	for _, nb := range got {
		order = append(order, tree.Name(nb.Leaf))
	}
	assert.Equal(t, []string{"A", "B", "C", "D"}, order)

	// Root (0) -> (A,B) clade reaches 0.02, so a 0.025 cutoff prunes A and B
	// (0.03) but keeps C and D (0.02).
	got, err = w.WalkUp(tree.Root(), 0, 0.025)
	require.NoError(t, err)
	names := neighborNames(tree, got)
	assert.Len(t, names, 2)
	assert.InDelta(t, 0.02, names["C"], 1e-12)
	assert.InDelta(t, 0.02, names["D"], 1e-12)

	// Entry length alone at the cutoff prunes the whole subtree.
	got, err = w.WalkUp(tree.Root(), 0.5, 0.5)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestWalkUp_Errors(t *testing.T) {
	tree := workedTree(t)
	w := newWalker(t, tree)

	_, err := w.WalkUp(99, 0, 1)
	assert.ErrorIs(t, err, ErrNodeNotFound)
	_, err = w.WalkUp(tree.Root(), 0, -1)
	assert.ErrorIs(t, err, ErrInvalidParameter)

	for _, acc := range []float64{math.NaN(), math.Inf(1), math.Inf(-1), -0.01} {
		got, err := w.WalkUp(tree.Root(), acc, 1)
		assert.ErrorIs(t, err, ErrInvalidParameter, "accumulated %v", acc)
		assert.Nil(t, got)
	}
}

func TestWalkTrunk_DeepCaterpillar(t *testing.T) {
	// 50k levels, every branch zero length.
	const depth = 50000
	var b Builder
	cur := b.AddLeaf("deep", 0)
	deep := cur
	for i := 0; i < depth; i++ {
		s := b.AddLeaf(fmt.Sprintf("s%d", i), 0)
		cur = b.AddInternal(0, cur, s)
	}
	tree, err := b.Build(cur)
	require.NoError(t, err)
	w := newWalker(t, tree)

	got, err := w.WalkTrunk(deep, 1)
	require.NoError(t, err)
	assert.Len(t, got, depth)

	down, err := w.WalkUp(tree.Root(), 0, 1)
	require.NoError(t, err)
	assert.Len(t, down, depth+1)
	assert.Equal(t, "deep", tree.Name(down[0].Leaf))
}

func TestWalkTrunk_MatchesPatristicMatrix(t *testing.T) {
	for _, seed := range []int64{1, 2, 3, 4, 5} {
		tree := randomTree(t, seed, 25)
		pm, err := BuildParentMap(tree)
		require.NoError(t, err)
		w := NewWalker(pm)
		m, names, err := PatristicMatrix(pm)
		require.NoError(t, err)

		for _, cutoff := range []float64{0.02, 0.05, 0.1, 0.2} {
			for i, leaf := range tree.Leaves() {
				got, err := w.WalkTrunk(leaf, cutoff)
				require.NoError(t, err)
				found := neighborNames(tree, got)
				for j := range names {
					if i == j {
						continue
					}
					want := m.At(i, j)
					d, ok := found[names[j]]
					switch {
					case want < cutoff-1e-9:
						if assert.True(t, ok, "seed %d cutoff %v: %s-%s (%v) missing", seed, cutoff, names[i], names[j], want) {
							assert.InDelta(t, want, d, 1e-9)
						}
					case want > cutoff+1e-9:
						assert.False(t, ok, "seed %d cutoff %v: %s-%s (%v) over cutoff", seed, cutoff, names[i], names[j], want)
					}
				}
			}
		}
	}
}
