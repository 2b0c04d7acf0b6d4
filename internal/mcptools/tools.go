package mcptools

import (
	"github.com/dusk-indust/tipcluster/internal/graph"
	"github.com/dusk-indust/tipcluster/internal/phylo"
)

// --- MCP Tool Input Types ---
// These structs define the JSON schema for each MCP tool's input.
// The MCP Go SDK auto-generates JSON schemas from struct tags.

// ClusterTreeInput is the input for the cluster_tree MCP tool.
type ClusterTreeInput struct {
	Newick         string  `json:"newick,omitempty" jsonschema:"the tree as a Newick string"`
	Path           string  `json:"path,omitempty" jsonschema:"absolute path to a Newick file"`
	Cutoff         float64 `json:"cutoff" jsonschema:"patristic distance threshold; tips closer than this are linked"`
	MinClusterSize int     `json:"minClusterSize,omitempty" jsonschema:"smallest component reported as a cluster (default: 2)"`
}

// ClusterTreeOutput is the result of the cluster_tree MCP tool.
type ClusterTreeOutput struct {
	RunID    string              `json:"runId"`
	Stats    graph.GraphStats    `json:"stats"`
	Links    int                 `json:"links"`
	Clusters []graph.ClusterNode `json:"clusters"`
}

// FindShortEdgesInput is the input for the find_short_edges MCP tool.
type FindShortEdgesInput struct {
	Newick   string  `json:"newick,omitempty" jsonschema:"the tree as a Newick string"`
	Path     string  `json:"path,omitempty" jsonschema:"absolute path to a Newick file"`
	Cutoff   float64 `json:"cutoff" jsonschema:"patristic distance threshold"`
	Minimize bool    `json:"minimize,omitempty" jsonschema:"keep only the closest tip per subject"`
	KeepTies bool    `json:"keepTies,omitempty" jsonschema:"with minimize, keep every tip at the minimum distance"`
}

// FindShortEdgesOutput is the result of the find_short_edges MCP tool.
type FindShortEdgesOutput struct {
	Edges []phylo.ShortEdge `json:"edges"`
}

// SubjectLinksInput is the input for the subject_links MCP tool.
type SubjectLinksInput struct {
	Newick string  `json:"newick,omitempty" jsonschema:"the tree as a Newick string"`
	Path   string  `json:"path,omitempty" jsonschema:"absolute path to a Newick file"`
	Cutoff float64 `json:"cutoff" jsonschema:"patristic distance threshold"`
}

// SubjectLinksOutput is the result of the subject_links MCP tool.
type SubjectLinksOutput struct {
	Links    []phylo.SubjectLink `json:"links"`
	Subjects []SubjectOutput     `json:"subjects"`
}

// SubjectOutput summarises one linked subject. MedianDate is YYYY-MM-DD, or
// empty when no tip of the subject is dated.
type SubjectOutput struct {
	ID         string `json:"id"`
	Tips       int    `json:"tips"`
	MedianDate string `json:"medianDate,omitempty"`
}

// GetClustersInput is the input for the get_clusters MCP tool.
type GetClustersInput struct{}

// GetClustersOutput is the result of the get_clusters MCP tool.
type GetClustersOutput struct {
	Clusters []graph.ClusterNode `json:"clusters"`
}

// GetNeighborsInput is the input for the get_neighbors MCP tool.
type GetNeighborsInput struct {
	Tip string `json:"tip" jsonschema:"tip label"`
}

// GetNeighborsOutput is the result of the get_neighbors MCP tool.
type GetNeighborsOutput struct {
	Tip       TipOutput    `json:"tip"`
	Neighbors []graph.Edge `json:"neighbors"`
}

// TipOutput is a stored tip with its collection date as YYYY-MM-DD, empty
// when unknown.
type TipOutput struct {
	Name      string `json:"name"`
	Subject   string `json:"subject,omitempty"`
	Collected string `json:"collected,omitempty"`
}
