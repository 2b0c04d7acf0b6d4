package graph

import (
	"context"
	"io"
)

// Store is the interface for the transmission graph backend.
// Implementations: KuzuStore (persistent), MemStore (default and testing).
type Store interface {
	io.Closer

	// InitSchema is called once before any data is inserted.
	InitSchema(ctx context.Context) error
	// Clear removes every node and edge but keeps the schema.
	Clear(ctx context.Context) error

	// Write operations.
	AddTip(ctx context.Context, node TipNode) error
	AddCluster(ctx context.Context, node ClusterNode) error
	AddEdge(ctx context.Context, edge Edge) error

	// Read operations.
	GetTip(ctx context.Context, name string) (*TipNode, error)
	GetTips(ctx context.Context) ([]TipNode, error)
	GetClusters(ctx context.Context) ([]ClusterNode, error)
	GetAllEdges(ctx context.Context) ([]Edge, error)

	// GetNeighbors returns the LINKED edges touching name, oriented so that
	// SourceID is name, ordered by distance.
	GetNeighbors(ctx context.Context, name string) ([]Edge, error)

	// Stats.
	Stats(ctx context.Context) (*GraphStats, error)
}
