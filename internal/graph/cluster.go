package graph

import (
	"cmp"
	"context"
	"fmt"
	"slices"

	"github.com/dusk-indust/tipcluster/internal/phylo"
)

// TipsFromTree returns one TipNode per leaf in preorder. Leaves whose label
// does not follow format keep only their name.
func TipsFromTree(t *phylo.Tree, format phylo.LabelFormat) []TipNode {
	leaves := t.Leaves()
	tips := make([]TipNode, 0, len(leaves))
	for _, id := range leaves {
		name := t.Name(id)
		tip := TipNode{Name: name}
		if info, err := format.Parse(name); err == nil {
			tip.Subject = info.Subject
			tip.Collected = info.Collected
		}
		tips = append(tips, tip)
	}
	return tips
}

// Load writes tips and the undirected form of edges as LINKED edges. It
// returns the number of LINKED edges written.
func Load(ctx context.Context, store Store, tips []TipNode, edges []phylo.Edge) (int, error) {
	for _, tip := range tips {
		if err := store.AddTip(ctx, tip); err != nil {
			return 0, fmt.Errorf("add tip %s: %w", tip.Name, err)
		}
	}
	links := phylo.Dedupe(edges)
	for _, e := range links {
		if err := ctx.Err(); err != nil {
			return 0, err
		}
		edge := Edge{
			SourceID: e.Source,
			TargetID: e.Target,
			Kind:     EdgeKindLinked,
			Distance: e.Distance,
		}
		if err := store.AddEdge(ctx, edge); err != nil {
			return 0, fmt.Errorf("add link %s-%s: %w", e.Source, e.Target, err)
		}
	}
	return len(links), nil
}

// ComputeClusters finds connected components in the tip graph (LINKED edges
// only) and stores them as ClusterNodes.
//
// Algorithm:
//  1. Build an undirected adjacency list from LINKED edges among stored tips.
//  2. Find connected components via BFS, visiting tips in name order.
//  3. Keep components with at least minSize tips, largest first, and name
//     them cluster-001, cluster-002, ...
//  4. Store each cluster with its mean link distance and BELONGS edges.
//
// A minSize below 1 means DefaultMinClusterSize.
func ComputeClusters(ctx context.Context, store Store, minSize int) ([]ClusterNode, error) {
	if minSize < 1 {
		minSize = DefaultMinClusterSize
	}
	tips, err := store.GetTips(ctx)
	if err != nil {
		return nil, fmt.Errorf("compute clusters: %w", err)
	}
	edges, err := store.GetAllEdges(ctx)
	if err != nil {
		return nil, fmt.Errorf("compute clusters: %w", err)
	}

	names := make([]string, 0, len(tips))
	for _, t := range tips {
		names = append(names, t.Name)
	}
	slices.Sort(names)
	adj := buildAdjacency(names, edges)

	visited := make(map[string]bool, len(names))
	var components [][]string
	for _, name := range names {
		if visited[name] {
			continue
		}
		component := bfsComponent(name, adj, visited)
		if len(component) < minSize {
			continue
		}
		slices.Sort(component)
		components = append(components, component)
	}
	// Stable: equal sizes keep the order of their smallest member name.
	slices.SortStableFunc(components, func(a, b []string) int {
		return cmp.Compare(len(b), len(a))
	})

	clusters := make([]ClusterNode, 0, len(components))
	for i, component := range components {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		cluster := ClusterNode{
			Name:         fmt.Sprintf("cluster-%03d", i+1),
			MeanDistance: meanDistance(component, adj),
			Members:      component,
		}
		if err := store.AddCluster(ctx, cluster); err != nil {
			return nil, err
		}
		// Add BELONGS edges for each member.
		for _, member := range component {
			edge := Edge{
				SourceID: member,
				TargetID: cluster.Name,
				Kind:     EdgeKindBelongs,
			}
			if err := store.AddEdge(ctx, edge); err != nil {
				return nil, err
			}
		}
		clusters = append(clusters, cluster)
	}

	return clusters, nil
}

// buildAdjacency constructs a bidirectional adjacency list from LINKED edges
// between known tips. Parallel edges keep the shortest distance.
func buildAdjacency(names []string, edges []Edge) map[string]map[string]float64 {
	adj := make(map[string]map[string]float64, len(names))
	for _, n := range names {
		adj[n] = make(map[string]float64)
	}
	for _, e := range edges {
		if e.Kind != EdgeKindLinked || e.SourceID == e.TargetID {
			continue
		}
		if adj[e.SourceID] == nil || adj[e.TargetID] == nil {
			continue
		}
		if d, ok := adj[e.SourceID][e.TargetID]; ok && d <= e.Distance {
			continue
		}
		adj[e.SourceID][e.TargetID] = e.Distance
		adj[e.TargetID][e.SourceID] = e.Distance
	}
	return adj
}

// bfsComponent performs BFS from start on the adjacency list and returns
// all reachable nodes. It marks visited nodes as it goes.
func bfsComponent(start string, adj map[string]map[string]float64, visited map[string]bool) []string {
	var component []string
	queue := []string{start}
	visited[start] = true

	for len(queue) > 0 {
		node := queue[0]
		queue = queue[1:]
		component = append(component, node)
		for neighbor := range adj[node] {
			if !visited[neighbor] {
				visited[neighbor] = true
				queue = append(queue, neighbor)
			}
		}
	}

	return component
}

// meanDistance averages the distance of every link inside the component,
// counting each undirected link once. A component without links scores 0.
func meanDistance(component []string, adj map[string]map[string]float64) float64 {
	var sum float64
	var n int
	for _, m := range component {
		for neighbor, d := range adj[m] {
			if m < neighbor {
				sum += d
				n++
			}
		}
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}
