package graph

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dusk-indust/tipcluster/internal/phylo"
)

// loadChain stores tips a..f with links a-b (0.01), b-c (0.02), d-e (0.04)
// and leaves f isolated.
func loadChain(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, s.InitSchema(ctx))

	var tips []TipNode
	for _, n := range []string{"f", "e", "d", "c", "b", "a"} {
		tips = append(tips, TipNode{Name: n})
	}
	// Both orientations, as Clusterer.Cluster reports them.
	edges := []phylo.Edge{
		{Source: "a", Target: "b", Distance: 0.01},
		{Source: "b", Target: "a", Distance: 0.01},
		{Source: "c", Target: "b", Distance: 0.02},
		{Source: "b", Target: "c", Distance: 0.02},
		{Source: "e", Target: "d", Distance: 0.04},
	}
	n, err := Load(ctx, s, tips, edges)
	require.NoError(t, err)
	require.Equal(t, 3, n)
}

func TestLoad_DedupesLinks(t *testing.T) {
	s := NewMemStore()
	loadChain(t, s)

	edges, err := s.GetAllEdges(context.Background())
	require.NoError(t, err)
	require.Len(t, edges, 3)
	for _, e := range edges {
		assert.Equal(t, EdgeKindLinked, e.Kind)
		assert.Less(t, e.SourceID, e.TargetID)
	}
}

func TestLoad_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Load(ctx, NewMemStore(), nil, []phylo.Edge{{Source: "a", Target: "b"}})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestComputeClusters_NoEdges(t *testing.T) {
	ctx := context.Background()
	s := NewMemStore()
	_, err := Load(ctx, s, []TipNode{{Name: "a"}, {Name: "b"}}, nil)
	require.NoError(t, err)

	clusters, err := ComputeClusters(ctx, s, 2)
	require.NoError(t, err)
	assert.Empty(t, clusters, "singletons are below the minimum size")

	stored, err := s.GetClusters(ctx)
	require.NoError(t, err)
	assert.Empty(t, stored)
}

func TestComputeClusters_Components(t *testing.T) {
	ctx := context.Background()
	s := NewMemStore()
	loadChain(t, s)

	clusters, err := ComputeClusters(ctx, s, 0)
	require.NoError(t, err)
	require.Len(t, clusters, 2)

	assert.Equal(t, "cluster-001", clusters[0].Name)
	assert.Equal(t, []string{"a", "b", "c"}, clusters[0].Members)
	assert.InDelta(t, 0.015, clusters[0].MeanDistance, 1e-12)

	assert.Equal(t, "cluster-002", clusters[1].Name)
	assert.Equal(t, []string{"d", "e"}, clusters[1].Members)
	assert.InDelta(t, 0.04, clusters[1].MeanDistance, 1e-12)

	stats, err := s.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.ClusterCount)
	assert.Equal(t, 3+5, stats.EdgeCount, "links plus one BELONGS edge per member")
}

func TestComputeClusters_MinSizeOneKeepsSingletons(t *testing.T) {
	ctx := context.Background()
	s := NewMemStore()
	loadChain(t, s)

	clusters, err := ComputeClusters(ctx, s, 1)
	require.NoError(t, err)
	require.Len(t, clusters, 3)
	assert.Equal(t, []string{"f"}, clusters[2].Members)
	assert.Zero(t, clusters[2].MeanDistance)
}

func TestComputeClusters_EqualSizesOrderedByName(t *testing.T) {
	ctx := context.Background()
	s := NewMemStore()
	tips := []TipNode{{Name: "y"}, {Name: "z"}, {Name: "a"}, {Name: "b"}}
	_, err := Load(ctx, s, tips, []phylo.Edge{
		{Source: "y", Target: "z", Distance: 0.1},
		{Source: "a", Target: "b", Distance: 0.1},
	})
	require.NoError(t, err)

	clusters, err := ComputeClusters(ctx, s, 2)
	require.NoError(t, err)
	require.Len(t, clusters, 2)
	assert.Equal(t, []string{"a", "b"}, clusters[0].Members)
	assert.Equal(t, []string{"y", "z"}, clusters[1].Members)
}

func TestTipsFromTree(t *testing.T) {
	tree, err := phylo.ParseNewickString("(P1_2009-03-14:0.01,reference:0.02);")
	require.NoError(t, err)

	tips := TipsFromTree(tree, phylo.DefaultLabelFormat())
	require.Len(t, tips, 2)
	assert.Equal(t, TipNode{
		Name:      "P1_2009-03-14",
		Subject:   "P1",
		Collected: time.Date(2009, 3, 14, 0, 0, 0, 0, time.UTC),
	}, tips[0])
	assert.Equal(t, TipNode{Name: "reference"}, tips[1])
}
