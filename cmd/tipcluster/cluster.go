package main

import (
	"bufio"
	"fmt"
	"io"
	"strconv"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/dusk-indust/tipcluster/internal/config"
	"github.com/dusk-indust/tipcluster/internal/export"
	"github.com/dusk-indust/tipcluster/internal/graph"
	"github.com/dusk-indust/tipcluster/internal/phylo"
)

func newClusterCmd(a *app) *cobra.Command {
	var (
		cutoff    float64
		format    string
		minSize   int
		graphPath string
	)
	cmd := &cobra.Command{
		Use:   "cluster <tree.nwk>",
		Short: "Link every pair of tips closer than the cutoff",
		Long: `cluster walks the tree from every tip and reports each other tip whose
patristic distance is below the cutoff.

Formats:
  edges    one "source<TAB>target<TAB>distance" line per directed edge
  dot      Graphviz graph of undirected links, grouped by cluster
  json     tips, links and clusters
  mermaid  Mermaid flowchart of the same graph`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("format") {
				a.cfg.Format = format
			}
			if cmd.Flags().Changed("min-cluster-size") {
				a.cfg.MinClusterSize = minSize
			}
			if cmd.Flags().Changed("graph-path") {
				a.cfg.GraphPath = graphPath
			}
			cut, err := a.resolveCutoff(cmd, cutoff)
			if err != nil {
				return err
			}

			c, err := a.clusterer(args[0])
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			edges, err := c.Cluster(ctx, cut)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if a.cfg.Format == config.FormatEdges || a.cfg.Format == "" {
				return writeEdges(out, edges)
			}

			store, err := openStore(a.cfg.GraphPath)
			if err != nil {
				return err
			}
			defer store.Close()
			if err := store.InitSchema(ctx); err != nil {
				return fmt.Errorf("init schema: %w", err)
			}
			if err := store.Clear(ctx); err != nil {
				return fmt.Errorf("clear graph: %w", err)
			}
			links, err := graph.Load(ctx, store, graph.TipsFromTree(c.Tree(), a.cfg.LabelFormat()), edges)
			if err != nil {
				return err
			}
			clusters, err := graph.ComputeClusters(ctx, store, a.cfg.MinClusterSize)
			if err != nil {
				return err
			}
			runID := uuid.NewString()
			a.logger.Info("graph built",
				"run", runID,
				"links", links,
				"clusters", len(clusters),
				"graphPath", a.cfg.GraphPath,
			)

			switch a.cfg.Format {
			case config.FormatDOT:
				return export.WriteDOT(ctx, out, store, a.dotOptions(cut))
			case config.FormatJSON:
				data, err := export.ExportGraph(ctx, store, runID, cut)
				if err != nil {
					return fmt.Errorf("export failed: %w", err)
				}
				return export.WriteJSON(out, data)
			default:
				mermaid, err := export.GenerateMermaid(ctx, store)
				if err != nil {
					return err
				}
				_, err = io.WriteString(out, mermaid)
				return err
			}
		},
	}
	addCutoffFlag(cmd, &cutoff)
	cmd.Flags().StringVar(&format, "format", config.FormatEdges, "output format: edges, dot, json, mermaid")
	cmd.Flags().IntVar(&minSize, "min-cluster-size", graph.DefaultMinClusterSize, "smallest component reported as a cluster")
	cmd.Flags().StringVar(&graphPath, "graph-path", "", "persist the graph to a KuzuDB directory (cgo builds only)")
	return cmd
}

// dotOptions applies the dot section of the configuration.
func (a *app) dotOptions(cutoff float64) export.DOTOptions {
	opts := export.DefaultDOTOptions(cutoff)
	if a.cfg.DOT.EdgeColor != "" {
		opts.EdgeColor = a.cfg.DOT.EdgeColor
	}
	if a.cfg.DOT.FontName != "" {
		opts.FontName = a.cfg.DOT.FontName
	}
	if a.cfg.DOT.LengthOffset != 0 {
		opts.LengthOffset = a.cfg.DOT.LengthOffset
	}
	return opts
}

func writeEdges(w io.Writer, edges []phylo.Edge) error {
	bw := bufio.NewWriter(w)
	for _, e := range edges {
		fmt.Fprintf(bw, "%s\t%s\t%s\n", e.Source, e.Target, strconv.FormatFloat(e.Distance, 'g', -1, 64))
	}
	return bw.Flush()
}
