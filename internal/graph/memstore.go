package graph

import (
	"cmp"
	"context"
	"slices"
	"sync"
)

// Compile-time assertion: *MemStore satisfies Store.
var _ Store = (*MemStore)(nil)

// MemStore implements Store using Go maps. Thread-safe via sync.RWMutex.
type MemStore struct {
	mu       sync.RWMutex
	tips     map[string]TipNode
	order    []string // tip names in insertion order
	edges    []Edge
	clusters []ClusterNode
}

// NewMemStore returns an initialized MemStore ready for use.
func NewMemStore() *MemStore {
	return &MemStore{
		tips: make(map[string]TipNode),
	}
}

// InitSchema is a no-op for the in-memory store.
func (m *MemStore) InitSchema(_ context.Context) error {
	return nil
}

// Clear drops all tips, edges and clusters.
func (m *MemStore) Clear(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tips = make(map[string]TipNode)
	m.order = nil
	m.edges = nil
	m.clusters = nil
	return nil
}

// AddTip stores a tip keyed by its name. Adding a known name replaces it.
func (m *MemStore) AddTip(_ context.Context, node TipNode) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.tips[node.Name]; !ok {
		m.order = append(m.order, node.Name)
	}
	m.tips[node.Name] = node
	return nil
}

// AddCluster appends a cluster to the internal slice.
func (m *MemStore) AddCluster(_ context.Context, node ClusterNode) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	node.Members = slices.Clone(node.Members)
	m.clusters = append(m.clusters, node)
	return nil
}

// AddEdge appends an edge to the internal slice.
func (m *MemStore) AddEdge(_ context.Context, edge Edge) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.edges = append(m.edges, edge)
	return nil
}

// GetTip returns the tip with the given name, or nil if not found.
func (m *MemStore) GetTip(_ context.Context, name string) (*TipNode, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	t, ok := m.tips[name]
	if !ok {
		return nil, nil
	}
	return &t, nil
}

// GetTips returns all tips in insertion order.
func (m *MemStore) GetTips(_ context.Context) ([]TipNode, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]TipNode, 0, len(m.order))
	for _, name := range m.order {
		out = append(out, m.tips[name])
	}
	return out, nil
}

// GetNeighbors scans LINKED edges for those touching name.
func (m *MemStore) GetNeighbors(_ context.Context, name string) ([]Edge, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []Edge
	for _, e := range m.edges {
		if e.Kind != EdgeKindLinked {
			continue
		}
		switch name {
		case e.SourceID:
			out = append(out, e)
		case e.TargetID:
			out = append(out, Edge{SourceID: name, TargetID: e.SourceID, Kind: e.Kind, Distance: e.Distance})
		}
	}
	sortNeighbors(out)
	return out, nil
}

// GetClusters returns all stored clusters.
func (m *MemStore) GetClusters(_ context.Context) ([]ClusterNode, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]ClusterNode, len(m.clusters))
	for i, c := range m.clusters {
		c.Members = slices.Clone(c.Members)
		out[i] = c
	}
	return out, nil
}

// GetAllEdges returns a copy of all edges in the store.
func (m *MemStore) GetAllEdges(_ context.Context) ([]Edge, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Edge, len(m.edges))
	copy(out, m.edges)
	return out, nil
}

// Stats returns counts of all node and edge types in the graph.
func (m *MemStore) Stats(_ context.Context) (*GraphStats, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return &GraphStats{
		TipCount:     len(m.tips),
		ClusterCount: len(m.clusters),
		EdgeCount:    len(m.edges),
	}, nil
}

// Close is a no-op for the in-memory store.
func (m *MemStore) Close() error {
	return nil
}

// sortNeighbors orders edges by distance, then target name.
func sortNeighbors(edges []Edge) {
	slices.SortFunc(edges, func(a, b Edge) int {
		if c := cmp.Compare(a.Distance, b.Distance); c != 0 {
			return c
		}
		return cmp.Compare(a.TargetID, b.TargetID)
	})
}
