package mcptools

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/dusk-indust/tipcluster/internal/graph"
	"github.com/dusk-indust/tipcluster/internal/phylo"
)

// ClusterService holds the graph store and clustering settings used by MCP
// tool handlers. The store reflects the most recent cluster_tree call.
type ClusterService struct {
	store   graph.Store
	labels  phylo.LabelFormat
	workers int
	logger  *slog.Logger

	mu sync.RWMutex // cluster_tree rebuilds exclude store readers
}

// NewClusterService creates a ClusterService over store. A nil logger means
// slog.Default().
func NewClusterService(store graph.Store, labels phylo.LabelFormat, workers int, logger *slog.Logger) *ClusterService {
	if logger == nil {
		logger = slog.Default()
	}
	return &ClusterService{store: store, labels: labels, workers: workers, logger: logger}
}

// clusterer loads the tree from exactly one of newick and path.
func (s *ClusterService) clusterer(newick, path string) (*phylo.Clusterer, error) {
	var (
		tree *phylo.Tree
		err  error
	)
	switch {
	case newick != "" && path != "":
		return nil, fmt.Errorf("set either newick or path, not both")
	case newick != "":
		tree, err = phylo.ParseNewickString(newick)
	case path != "":
		tree, err = phylo.LoadNewickFile(path)
	default:
		return nil, fmt.Errorf("newick or path is required")
	}
	if err != nil {
		return nil, err
	}
	return phylo.NewClusterer(tree,
		phylo.WithWorkers(s.workers),
		phylo.WithLabelFormat(s.labels),
		phylo.WithLogger(s.logger),
	)
}

// ClusterTree links every pair of tips closer than the cutoff, replaces the
// store contents with the result and computes clusters.
func (s *ClusterService) ClusterTree(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input ClusterTreeInput,
) (*mcp.CallToolResult, ClusterTreeOutput, error) {
	c, err := s.clusterer(input.Newick, input.Path)
	if err != nil {
		return nil, ClusterTreeOutput{}, err
	}
	edges, err := c.Cluster(ctx, input.Cutoff)
	if err != nil {
		return nil, ClusterTreeOutput{}, fmt.Errorf("cluster: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.store.InitSchema(ctx); err != nil {
		return nil, ClusterTreeOutput{}, fmt.Errorf("init schema: %w", err)
	}
	if err := s.store.Clear(ctx); err != nil {
		return nil, ClusterTreeOutput{}, fmt.Errorf("clear: %w", err)
	}
	links, err := graph.Load(ctx, s.store, graph.TipsFromTree(c.Tree(), s.labels), edges)
	if err != nil {
		return nil, ClusterTreeOutput{}, fmt.Errorf("load: %w", err)
	}
	clusters, err := graph.ComputeClusters(ctx, s.store, input.MinClusterSize)
	if err != nil {
		return nil, ClusterTreeOutput{}, err
	}
	stats, err := s.store.Stats(ctx)
	if err != nil {
		return nil, ClusterTreeOutput{}, fmt.Errorf("stats: %w", err)
	}

	runID := uuid.NewString()
	s.logger.Info("cluster_tree",
		"run", runID,
		"tips", stats.TipCount,
		"links", links,
		"clusters", len(clusters),
	)
	return nil, ClusterTreeOutput{
		RunID:    runID,
		Stats:    *stats,
		Links:    links,
		Clusters: clusters,
	}, nil
}

// FindShortEdges reports the closest other-subject tips for each subject's
// earliest tip.
func (s *ClusterService) FindShortEdges(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input FindShortEdgesInput,
) (*mcp.CallToolResult, FindShortEdgesOutput, error) {
	c, err := s.clusterer(input.Newick, input.Path)
	if err != nil {
		return nil, FindShortEdgesOutput{}, err
	}
	edges, err := c.FindShortEdges(ctx, phylo.ShortEdgeOptions{
		Cutoff:   input.Cutoff,
		Minimize: input.Minimize,
		KeepTies: input.KeepTies,
	})
	if err != nil {
		return nil, FindShortEdgesOutput{}, fmt.Errorf("find short edges: %w", err)
	}
	if edges == nil {
		edges = []phylo.ShortEdge{}
	}
	return nil, FindShortEdgesOutput{Edges: edges}, nil
}

// SubjectLinks reports the shortest link between each pair of subjects.
func (s *ClusterService) SubjectLinks(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input SubjectLinksInput,
) (*mcp.CallToolResult, SubjectLinksOutput, error) {
	c, err := s.clusterer(input.Newick, input.Path)
	if err != nil {
		return nil, SubjectLinksOutput{}, err
	}
	links, err := c.SubjectLinks(ctx, input.Cutoff)
	if err != nil {
		return nil, SubjectLinksOutput{}, fmt.Errorf("subject links: %w", err)
	}
	if links == nil {
		links = []phylo.SubjectLink{}
	}
	summaries, err := c.SubjectSummaries()
	if err != nil {
		return nil, SubjectLinksOutput{}, fmt.Errorf("subject summaries: %w", err)
	}
	linked := make(map[string]bool, 2*len(links))
	for _, l := range links {
		linked[l.A], linked[l.B] = true, true
	}
	subjects := []SubjectOutput{}
	for _, sum := range summaries {
		if !linked[sum.ID] {
			continue
		}
		out := SubjectOutput{ID: sum.ID, Tips: sum.Tips}
		if !sum.MedianDate.IsZero() {
			out.MedianDate = sum.MedianDate.Format(time.DateOnly)
		}
		subjects = append(subjects, out)
	}
	return nil, SubjectLinksOutput{Links: links, Subjects: subjects}, nil
}

// GetClusters returns the clusters from the last cluster_tree call.
func (s *ClusterService) GetClusters(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	_ GetClustersInput,
) (*mcp.CallToolResult, GetClustersOutput, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	clusters, err := s.store.GetClusters(ctx)
	if err != nil {
		return nil, GetClustersOutput{}, fmt.Errorf("get clusters: %w", err)
	}
	if clusters == nil {
		clusters = []graph.ClusterNode{}
	}
	return nil, GetClustersOutput{Clusters: clusters}, nil
}

// GetNeighbors returns the tips linked to the given tip.
func (s *ClusterService) GetNeighbors(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input GetNeighborsInput,
) (*mcp.CallToolResult, GetNeighborsOutput, error) {
	if input.Tip == "" {
		return nil, GetNeighborsOutput{}, fmt.Errorf("tip is required")
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	tip, err := s.store.GetTip(ctx, input.Tip)
	if err != nil {
		return nil, GetNeighborsOutput{}, fmt.Errorf("get tip: %w", err)
	}
	if tip == nil {
		return nil, GetNeighborsOutput{}, fmt.Errorf("tip %q not found; run cluster_tree first", input.Tip)
	}
	nbrs, err := s.store.GetNeighbors(ctx, input.Tip)
	if err != nil {
		return nil, GetNeighborsOutput{}, fmt.Errorf("get neighbors: %w", err)
	}
	if nbrs == nil {
		nbrs = []graph.Edge{}
	}
	out := TipOutput{Name: tip.Name, Subject: tip.Subject}
	if !tip.Collected.IsZero() {
		out.Collected = tip.Collected.Format(time.DateOnly)
	}
	return nil, GetNeighborsOutput{Tip: out, Neighbors: nbrs}, nil
}
