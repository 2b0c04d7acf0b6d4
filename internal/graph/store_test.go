package graph

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testStore runs the behaviour every Store implementation shares.
func testStore(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()

	collected := time.Date(2009, 3, 14, 0, 0, 0, 0, time.UTC)
	tips := []TipNode{
		{Name: "P1_2009-03-14", Subject: "P1", Collected: collected},
		{Name: "P2_2010-01-01", Subject: "P2", Collected: time.Date(2010, 1, 1, 0, 0, 0, 0, time.UTC)},
		{Name: "ref"},
	}
	for _, tip := range tips {
		require.NoError(t, s.AddTip(ctx, tip))
	}

	got, err := s.GetTip(ctx, "P1_2009-03-14")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "P1", got.Subject)
	assert.True(t, collected.Equal(got.Collected))

	got, err = s.GetTip(ctx, "ref")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Empty(t, got.Subject)
	assert.True(t, got.Collected.IsZero())

	got, err = s.GetTip(ctx, "missing")
	require.NoError(t, err)
	assert.Nil(t, got)

	all, err := s.GetTips(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	require.NoError(t, s.AddEdge(ctx, Edge{SourceID: "P1_2009-03-14", TargetID: "P2_2010-01-01", Kind: EdgeKindLinked, Distance: 0.03}))
	require.NoError(t, s.AddEdge(ctx, Edge{SourceID: "ref", TargetID: "P1_2009-03-14", Kind: EdgeKindLinked, Distance: 0.01}))

	nbrs, err := s.GetNeighbors(ctx, "P1_2009-03-14")
	require.NoError(t, err)
	require.Len(t, nbrs, 2)
	assert.Equal(t, "ref", nbrs[0].TargetID, "closest first")
	assert.Equal(t, "P1_2009-03-14", nbrs[0].SourceID)
	assert.InDelta(t, 0.01, nbrs[0].Distance, 1e-12)
	assert.Equal(t, "P2_2010-01-01", nbrs[1].TargetID)

	nbrs, err = s.GetNeighbors(ctx, "missing")
	require.NoError(t, err)
	assert.Empty(t, nbrs)

	require.NoError(t, s.AddCluster(ctx, ClusterNode{Name: "cluster-001", MeanDistance: 0.02}))
	for _, m := range []string{"P2_2010-01-01", "P1_2009-03-14"} {
		require.NoError(t, s.AddEdge(ctx, Edge{SourceID: m, TargetID: "cluster-001", Kind: EdgeKindBelongs}))
	}

	edges, err := s.GetAllEdges(ctx)
	require.NoError(t, err)
	assert.Len(t, edges, 4)

	stats, err := s.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, GraphStats{TipCount: 3, ClusterCount: 1, EdgeCount: 4}, *stats)

	require.NoError(t, s.Clear(ctx))
	stats, err = s.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, GraphStats{}, *stats)
}
