package phylo

import (
	"context"
	"log/slog"
	"runtime"
	"sort"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"
)

// Edge links two leaves whose patristic distance is below the cutoff.
type Edge struct {
	Source   string  `json:"source"`
	Target   string  `json:"target"`
	Distance float64 `json:"distance"`
}

// Progress reports how many origin leaves a run has finished.
type Progress struct {
	Mode  string
	Done  int
	Total int
}

// Option configures a Clusterer.
type Option func(*Clusterer)

// WithWorkers bounds the number of leaves walked concurrently. Values below
// one select GOMAXPROCS.
func WithWorkers(n int) Option {
	return func(c *Clusterer) { c.workers = n }
}

// WithLogger sets the logger used for per-run debug output.
func WithLogger(l *slog.Logger) Option {
	return func(c *Clusterer) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithLabelFormat sets how tip labels encode subject and collection date.
// Only FindShortEdges and SubjectLinks read labels.
func WithLabelFormat(f LabelFormat) Option {
	return func(c *Clusterer) { c.labels = f }
}

// WithProgress registers a callback invoked after each origin leaf or
// subject completes. It may be called from several goroutines at once.
func WithProgress(fn func(Progress)) Option {
	return func(c *Clusterer) { c.onProgress = fn }
}

// Clusterer drives a Walker over a tree. The ParentMap is built once in
// NewClusterer and shared by every run.
type Clusterer struct {
	tree       *Tree
	parents    *ParentMap
	walker     *Walker
	workers    int
	labels     LabelFormat
	logger     *slog.Logger
	onProgress func(Progress)
}

// NewClusterer indexes t and returns a Clusterer for it.
func NewClusterer(t *Tree, opts ...Option) (*Clusterer, error) {
	pm, err := BuildParentMap(t)
	if err != nil {
		return nil, err
	}
	c := &Clusterer{
		tree:    t,
		parents: pm,
		walker:  NewWalker(pm),
		labels:  DefaultLabelFormat(),
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.workers < 1 {
		c.workers = runtime.GOMAXPROCS(0)
	}
	return c, nil
}

// Tree returns the clustered tree.
func (c *Clusterer) Tree() *Tree { return c.tree }

// ParentMap returns the shared parent index.
func (c *Clusterer) ParentMap() *ParentMap { return c.parents }

// Cluster walks the trunk from every leaf and returns one edge per
// (origin, neighbor) pair. An unordered pair is therefore reported twice,
// once from each end, with the same distance; use Dedupe for an undirected
// edge set. Edges are grouped by origin leaf in tree order.
func (c *Clusterer) Cluster(ctx context.Context, cutoff float64) ([]Edge, error) {
	if err := ValidateCutoff(cutoff); err != nil {
		return nil, err
	}
	start := time.Now()
	leaves := c.tree.leaves

	perLeaf, err := c.fanOut(ctx, modeCluster, leaves, func(origin NodeID) ([]Neighbor, error) {
		return c.walker.WalkTrunk(origin, cutoff)
	})
	if err != nil {
		return nil, err
	}

	var edges []Edge
	for i, neighbors := range perLeaf {
		src := c.tree.nodes[leaves[i]].Name
		for _, nb := range neighbors {
			edges = append(edges, Edge{
				Source:   src,
				Target:   c.tree.nodes[nb.Leaf].Name,
				Distance: nb.Distance,
			})
		}
	}

	edgesEmitted.WithLabelValues(modeCluster).Add(float64(len(edges)))
	clusterDuration.WithLabelValues(modeCluster).Observe(time.Since(start).Seconds())
	c.logger.Debug("cluster complete",
		"leaves", len(leaves),
		"cutoff", cutoff,
		"edges", len(edges),
		"elapsed", time.Since(start))
	return edges, nil
}

// fanOut runs walk for each origin on a bounded errgroup. Results keep the
// order of origins. The first error cancels the remaining walks.
func (c *Clusterer) fanOut(ctx context.Context, mode string, origins []NodeID, walk func(NodeID) ([]Neighbor, error)) ([][]Neighbor, error) {
	results := make([][]Neighbor, len(origins))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.workers)

	var done progressCounter
	for i, origin := range origins {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			nbs, err := walk(origin)
			if err != nil {
				return err
			}
			results[i] = nbs
			c.emit(Progress{Mode: mode, Done: done.inc(), Total: len(origins)})
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func (c *Clusterer) emit(p Progress) {
	if c.onProgress != nil {
		c.onProgress(p)
	}
}

// Dedupe collapses edges into an undirected set. Each pair keeps the first
// distance seen and is oriented so that Source < Target. The result is sorted
// by Source, then Target.
func Dedupe(edges []Edge) []Edge {
	type pair struct{ a, b string }
	seen := make(map[pair]bool, len(edges)/2)
	out := make([]Edge, 0, len(edges)/2)
	for _, e := range edges {
		a, b := e.Source, e.Target
		if b < a {
			a, b = b, a
		}
		k := pair{a, b}
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, Edge{Source: a, Target: b, Distance: e.Distance})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Source != out[j].Source {
			return out[i].Source < out[j].Source
		}
		return out[i].Target < out[j].Target
	})
	return out
}

type progressCounter struct{ n atomic.Int64 }

func (p *progressCounter) inc() int { return int(p.n.Add(1)) }
