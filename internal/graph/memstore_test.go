package graph

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemStore(t *testing.T) {
	testStore(t, NewMemStore())
}

func TestMemStore_AddTipReplaces(t *testing.T) {
	ctx := context.Background()
	s := NewMemStore()
	require.NoError(t, s.AddTip(ctx, TipNode{Name: "a"}))
	require.NoError(t, s.AddTip(ctx, TipNode{Name: "b"}))
	require.NoError(t, s.AddTip(ctx, TipNode{Name: "a", Subject: "S"}))

	tips, err := s.GetTips(ctx)
	require.NoError(t, err)
	assert.Equal(t, []TipNode{{Name: "a", Subject: "S"}, {Name: "b"}}, tips)
}

func TestMemStore_GetClustersCopiesMembers(t *testing.T) {
	ctx := context.Background()
	s := NewMemStore()
	members := []string{"a", "b"}
	require.NoError(t, s.AddCluster(ctx, ClusterNode{Name: "c", Members: members}))
	members[0] = "z"

	got, err := s.GetClusters(ctx)
	require.NoError(t, err)
	require.Len(t, got, 1)
	got[0].Members[1] = "y"

	again, err := s.GetClusters(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, again[0].Members)
}
