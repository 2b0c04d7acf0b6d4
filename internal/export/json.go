package export

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/dusk-indust/tipcluster/internal/graph"
)

// GraphExport is the top-level JSON export structure.
type GraphExport struct {
	RunID      string              `json:"runId"`
	ExportedAt string              `json:"exportedAt"`
	Cutoff     float64             `json:"cutoff"`
	Stats      graph.GraphStats    `json:"stats"`
	Tips       []graph.TipNode     `json:"tips"`
	Links      []LinkExport        `json:"links"`
	Clusters   []graph.ClusterNode `json:"clusters,omitempty"`
}

// LinkExport is one undirected tip-to-tip link.
type LinkExport struct {
	Source   string  `json:"source"`
	Target   string  `json:"target"`
	Distance float64 `json:"distance"`
}

// ExportGraph builds a GraphExport from the contents of store.
func ExportGraph(ctx context.Context, store graph.Store, runID string, cutoff float64) (*GraphExport, error) {
	stats, err := store.Stats(ctx)
	if err != nil {
		return nil, fmt.Errorf("stats: %w", err)
	}
	tips, err := store.GetTips(ctx)
	if err != nil {
		return nil, fmt.Errorf("get tips: %w", err)
	}
	edges, err := store.GetAllEdges(ctx)
	if err != nil {
		return nil, fmt.Errorf("get edges: %w", err)
	}
	clusters, err := store.GetClusters(ctx)
	if err != nil {
		return nil, fmt.Errorf("get clusters: %w", err)
	}

	export := &GraphExport{
		RunID:      runID,
		ExportedAt: time.Now().UTC().Format(time.RFC3339),
		Cutoff:     cutoff,
		Stats:      *stats,
		Tips:       tips,
		Links:      []LinkExport{},
		Clusters:   clusters,
	}
	for _, e := range edges {
		if e.Kind != graph.EdgeKindLinked {
			continue
		}
		export.Links = append(export.Links, LinkExport{
			Source:   e.SourceID,
			Target:   e.TargetID,
			Distance: e.Distance,
		})
	}
	return export, nil
}

// WriteJSON writes v as indented JSON followed by a newline.
func WriteJSON(w io.Writer, v any) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal JSON: %w", err)
	}
	_, err = w.Write(append(out, '\n'))
	return err
}
