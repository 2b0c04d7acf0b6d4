//go:build cgo

package main

import (
	"fmt"

	"github.com/dusk-indust/tipcluster/internal/graph"
)

// openStore returns a KuzuDB store at path, or an in-memory store when path
// is empty.
func openStore(path string) (graph.Store, error) {
	if path == "" {
		return graph.NewMemStore(), nil
	}
	store, err := graph.NewKuzuFileStore(path)
	if err != nil {
		return nil, fmt.Errorf("open graph: %w", err)
	}
	return store, nil
}
