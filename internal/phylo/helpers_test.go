package phylo

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"
)

// workedTree builds ((A:0.01,B:0.01):0.02,(C:0.01,D:0.01):0.01);
// A-B and C-D are 0.02 apart, A-C is 0.05.
func workedTree(t *testing.T) *Tree {
	t.Helper()
	var b Builder
	a := b.AddLeaf("A", 0.01)
	bb := b.AddLeaf("B", 0.01)
	c := b.AddLeaf("C", 0.01)
	d := b.AddLeaf("D", 0.01)
	ab := b.AddInternal(0.02, a, bb)
	cd := b.AddInternal(0.01, c, d)
	root := b.AddInternal(0, ab, cd)
	tree, err := b.Build(root)
	require.NoError(t, err)
	return tree
}

// randomTree joins n leaves pairwise at random into a rooted binary tree
// with branch lengths in [0, 0.05).
func randomTree(t *testing.T, seed int64, n int) *Tree {
	t.Helper()
	rng := rand.New(rand.NewSource(seed))
	var b Builder
	pool := make([]NodeID, n)
	for i := range pool {
		pool[i] = b.AddLeaf(fmt.Sprintf("t%02d", i), rng.Float64()*0.05)
	}
	for len(pool) > 1 {
		i := rng.Intn(len(pool))
		x := pool[i]
		pool = append(pool[:i], pool[i+1:]...)
		j := rng.Intn(len(pool))
		y := pool[j]
		pool = append(pool[:j], pool[j+1:]...)
		pool = append(pool, b.AddInternal(rng.Float64()*0.05, x, y))
	}
	tree, err := b.Build(pool[0])
	require.NoError(t, err)
	return tree
}

func newClusterer(t *testing.T, tree *Tree, opts ...Option) *Clusterer {
	t.Helper()
	c, err := NewClusterer(tree, opts...)
	require.NoError(t, err)
	return c
}

type pairKey struct{ a, b string }

// edgeMap indexes directed edges by (source, target).
func edgeMap(edges []Edge) map[pairKey]float64 {
	m := make(map[pairKey]float64, len(edges))
	for _, e := range edges {
		m[pairKey{e.Source, e.Target}] = e.Distance
	}
	return m
}

func neighborNames(tree *Tree, nbs []Neighbor) map[string]float64 {
	out := make(map[string]float64, len(nbs))
	for _, nb := range nbs {
		out[tree.Name(nb.Leaf)] = nb.Distance
	}
	return out
}
