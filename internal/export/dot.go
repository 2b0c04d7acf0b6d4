package export

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"math"
	"strings"
	"time"

	"github.com/dusk-indust/tipcluster/internal/graph"
	"github.com/dusk-indust/tipcluster/internal/phylo"
)

// DOTOptions controls Graphviz rendering. Edge lengths are drawn as
// (distance/Cutoff + LengthOffset) * 4 so that links near the cutoff stretch
// the layout. Subject nodes are sized sqrt(days from Origin to the median
// collection date) / WidthScale, so later subjects draw larger.
type DOTOptions struct {
	Cutoff       float64
	EdgeColor    string
	FontName     string
	LengthOffset float64
	Origin       time.Time
	WidthScale   float64
}

// DefaultDOTOptions returns the stock styling for the given cutoff.
func DefaultDOTOptions(cutoff float64) DOTOptions {
	return DOTOptions{
		Cutoff:       cutoff,
		EdgeColor:    "#77777730",
		FontName:     "Helvetica",
		LengthOffset: 0.1,
		Origin:       time.Date(1990, time.January, 1, 0, 0, 0, 0, time.UTC),
		WidthScale:   75,
	}
}

// nodeWidth returns the node width for a median date and whether one applies.
func (o DOTOptions) nodeWidth(median time.Time) (float64, bool) {
	if median.IsZero() || o.WidthScale <= 0 {
		return 0, false
	}
	days := math.Max(0, median.Sub(o.Origin).Hours()/24)
	return math.Sqrt(days) / o.WidthScale, true
}

func (o DOTOptions) edgeLen(dist float64) float64 {
	scaled := 0.0
	if o.Cutoff > 0 {
		scaled = dist / o.Cutoff
	}
	return (scaled + o.LengthOffset) * 4
}

func (o DOTOptions) header(bw *bufio.Writer, name string) {
	fmt.Fprintf(bw, "graph %s\n{\n", name)
	bw.WriteString("\toutputorder=edgesfirst;\n")
	fmt.Fprintf(bw, "\tnode [width=0.25,height=0.25,style=\"filled\",fontname=%s,fontsize=\"9pt\"];\n", quote(o.FontName))
	fmt.Fprintf(bw, "\tedge [color=%s];\n", quote(o.EdgeColor))
}

// WriteDOT renders the tip graph held by store: one subgraph per cluster,
// then every LINKED edge.
func WriteDOT(ctx context.Context, w io.Writer, store graph.Store, opts DOTOptions) error {
	clusters, err := store.GetClusters(ctx)
	if err != nil {
		return fmt.Errorf("get clusters: %w", err)
	}
	edges, err := store.GetAllEdges(ctx)
	if err != nil {
		return fmt.Errorf("get edges: %w", err)
	}

	bw := bufio.NewWriter(w)
	opts.header(bw, "clusters")

	for _, c := range clusters {
		if len(c.Members) == 0 {
			continue
		}
		fmt.Fprintf(bw, "\tsubgraph %s {\n", quote(c.Name))
		fmt.Fprintf(bw, "\t\tlabel=%s;\n", quote(fmt.Sprintf("%s (n=%d)", c.Name, len(c.Members))))
		for _, m := range c.Members {
			fmt.Fprintf(bw, "\t\t%s;\n", quote(m))
		}
		bw.WriteString("\t}\n")
	}

	for _, e := range edges {
		if e.Kind != graph.EdgeKindLinked {
			continue
		}
		fmt.Fprintf(bw, "\t%s--%s [len=%f];\n", quote(e.SourceID), quote(e.TargetID), opts.edgeLen(e.Distance))
	}

	bw.WriteString("}\n")
	return bw.Flush()
}

// WriteSubjectDOT renders subject-level links, then one node per linked
// subject. Subjects missing from subjects still get their edges but no node
// statement.
func WriteSubjectDOT(w io.Writer, links []phylo.SubjectLink, subjects []phylo.SubjectSummary, opts DOTOptions) error {
	bw := bufio.NewWriter(w)
	opts.header(bw, "subjects")
	linked := make(map[string]bool)
	for _, l := range links {
		fmt.Fprintf(bw, "\t%s--%s [len=%f];\n", quote(l.A), quote(l.B), opts.edgeLen(l.Distance))
		linked[l.A], linked[l.B] = true, true
	}
	for _, s := range subjects {
		if !linked[s.ID] {
			continue
		}
		tooltip := fmt.Sprintf("%d tips", s.Tips)
		if !s.MedianDate.IsZero() {
			tooltip += ", median " + s.MedianDate.Format(time.DateOnly)
		}
		fmt.Fprintf(bw, "\t%s [label=\"\",tooltip=%s", quote(s.ID), quote(tooltip))
		if width, ok := opts.nodeWidth(s.MedianDate); ok {
			fmt.Fprintf(bw, ",width=%f", width)
		}
		bw.WriteString("];\n")
	}
	bw.WriteString("}\n")
	return bw.Flush()
}

// quote renders s as a DOT double-quoted ID.
func quote(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	return `"` + strings.ReplaceAll(s, `"`, `\"`) + `"`
}
