package phylo

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// walkTrunkTotal counts WalkTrunk invocations
	walkTrunkTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tipcluster_walk_trunk_total",
		Help: "Total trunk walks started from a reference leaf",
	})

	// prunedSubtrees counts subtrees skipped because the path reached the cutoff
	prunedSubtrees = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tipcluster_pruned_subtrees_total",
		Help: "Total subtrees pruned by the distance cutoff",
	})

	// edgesEmitted counts edges produced by mode (cluster, short_edges, subject_links)
	edgesEmitted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tipcluster_edges_emitted_total",
		Help: "Total edges emitted by clustering mode",
	}, []string{"mode"})

	// clusterDuration tracks run latency by mode
	clusterDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "tipcluster_cluster_duration_seconds",
		Help:    "Clustering run duration in seconds",
		Buckets: prometheus.ExponentialBuckets(0.0001, 4, 10), // 0.1ms to ~26s
	}, []string{"mode"})
)

const (
	modeCluster      = "cluster"
	modeShortEdges   = "short_edges"
	modeSubjectLinks = "subject_links"
)
