//go:build !cgo

package main

import (
	"fmt"

	"github.com/dusk-indust/tipcluster/internal/graph"
)

// openStore returns an in-memory store. Persisting to KuzuDB needs cgo.
func openStore(path string) (graph.Store, error) {
	if path != "" {
		return nil, fmt.Errorf("graph-path %s: KuzuDB support requires a cgo build", path)
	}
	return graph.NewMemStore(), nil
}
