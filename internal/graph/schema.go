package graph

import "time"

// --- Enums ---

// EdgeKind classifies relationships between nodes.
type EdgeKind string

const (
	// EdgeKindLinked joins two tips whose patristic distance is below the cutoff.
	EdgeKindLinked EdgeKind = "LINKED"
	// EdgeKindBelongs joins a tip to the cluster it was assigned to.
	EdgeKindBelongs EdgeKind = "BELONGS"
)

// DefaultMinClusterSize is the smallest component ComputeClusters records
// when no size is given.
const DefaultMinClusterSize = 2

// --- Models ---

// TipNode is a tip of the phylogeny. Subject and Collected are empty when the
// label did not follow the configured label format.
type TipNode struct {
	Name      string    `json:"name"`
	Subject   string    `json:"subject,omitempty"`
	Collected time.Time `json:"collected,omitzero"`
}

// ClusterNode is a connected component of LINKED tips.
type ClusterNode struct {
	Name         string   `json:"name"`
	MeanDistance float64  `json:"meanDistance"`
	Members      []string `json:"members"` // tip names, sorted
}

// Edge is a relationship between two nodes. Distance is set for LINKED edges
// and zero otherwise.
type Edge struct {
	SourceID string   `json:"sourceId"`
	TargetID string   `json:"targetId"`
	Kind     EdgeKind `json:"kind"`
	Distance float64  `json:"distance,omitempty"`
}

// GraphStats summarizes a transmission graph.
type GraphStats struct {
	TipCount     int `json:"tipCount"`
	ClusterCount int `json:"clusterCount"`
	EdgeCount    int `json:"edgeCount"`
}
