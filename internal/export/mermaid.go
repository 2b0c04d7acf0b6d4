package export

import (
	"context"
	"fmt"
	"strings"

	"github.com/dusk-indust/tipcluster/internal/graph"
)

// GenerateMermaid produces a Mermaid graph LR diagram from a graph store.
// Tips are grouped by cluster; LINKED edges become labelled lines.
func GenerateMermaid(ctx context.Context, store graph.Store) (string, error) {
	clusters, err := store.GetClusters(ctx)
	if err != nil {
		return "", fmt.Errorf("get clusters: %w", err)
	}

	edges, err := store.GetAllEdges(ctx)
	if err != nil {
		return "", fmt.Errorf("get edges: %w", err)
	}

	// Build node → ID mapping for Mermaid (alphanumeric only).
	nodeIDs := make(map[string]string)
	nextID := 0
	getID := func(name string) string {
		if id, ok := nodeIDs[name]; ok {
			return id
		}
		id := fmt.Sprintf("N%d", nextID)
		nextID++
		nodeIDs[name] = id
		return id
	}

	var sb strings.Builder
	sb.WriteString("graph LR\n")

	// Emit cluster subgraphs; members are already sorted.
	clustered := make(map[string]bool)
	for i, c := range clusters {
		if len(c.Members) == 0 {
			continue
		}
		fmt.Fprintf(&sb, "  subgraph C%d[\"%s\"]\n", i, mermaidLabel(c.Name))
		for _, member := range c.Members {
			clustered[member] = true
			fmt.Fprintf(&sb, "    %s[\"%s\"]\n", getID(member), mermaidLabel(member))
		}
		sb.WriteString("  end\n")
	}

	// Emit LINKED edges; unclustered endpoints get their node declared inline.
	node := func(name string) string {
		if clustered[name] {
			return getID(name)
		}
		if _, seen := nodeIDs[name]; seen {
			return getID(name)
		}
		return fmt.Sprintf("%s[\"%s\"]", getID(name), mermaidLabel(name))
	}
	for _, e := range edges {
		if e.Kind != graph.EdgeKindLinked {
			continue
		}
		src := node(e.SourceID)
		tgt := node(e.TargetID)
		fmt.Fprintf(&sb, "  %s ---|%.4f| %s\n", src, e.Distance, tgt)
	}

	return sb.String(), nil
}

// mermaidLabel escapes double quotes, which end a Mermaid label.
func mermaidLabel(s string) string {
	return strings.ReplaceAll(s, `"`, "#quot;")
}
