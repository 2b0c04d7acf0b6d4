package main

import (
	"bufio"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/dusk-indust/tipcluster/internal/export"
	"github.com/dusk-indust/tipcluster/internal/phylo"
)

func newShortEdgesCmd(a *app) *cobra.Command {
	var (
		cutoff   float64
		minimize bool
		keepTies bool
		asJSON   bool
	)
	cmd := &cobra.Command{
		Use:   "short-edges <tree.nwk>",
		Short: "Link each subject's earliest tip to other subjects' tips",
		Long: `short-edges groups tips by subject using the configured label format,
takes each subject's earliest tip and lists tips of other subjects within
the cutoff. With --minimize only the closest are kept; --keep-ties then keeps
every tip at that distance instead of the first found.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("minimize") {
				a.cfg.Minimize = minimize
			}
			if cmd.Flags().Changed("keep-ties") {
				a.cfg.KeepTies = keepTies
			}
			cut, err := a.resolveCutoff(cmd, cutoff)
			if err != nil {
				return err
			}
			c, err := a.clusterer(args[0])
			if err != nil {
				return err
			}
			edges, err := c.FindShortEdges(cmd.Context(), phylo.ShortEdgeOptions{
				Cutoff:   cut,
				Minimize: a.cfg.Minimize,
				KeepTies: a.cfg.KeepTies,
			})
			if err != nil {
				return err
			}

			if asJSON {
				if edges == nil {
					edges = []phylo.ShortEdge{}
				}
				return export.WriteJSON(cmd.OutOrStdout(), edges)
			}
			bw := bufio.NewWriter(cmd.OutOrStdout())
			fmt.Fprintln(bw, "source\ttarget\tsource_subject\ttarget_subject\tdistance\ttied")
			for _, e := range edges {
				fmt.Fprintf(bw, "%s\t%s\t%s\t%s\t%s\t%t\n",
					e.Source, e.Target, e.SourceSubject, e.TargetSubject,
					strconv.FormatFloat(e.Distance, 'g', -1, 64), e.Tied)
			}
			return bw.Flush()
		},
	}
	addCutoffFlag(cmd, &cutoff)
	cmd.Flags().BoolVar(&minimize, "minimize", false, "keep only the closest other-subject tips")
	cmd.Flags().BoolVar(&keepTies, "keep-ties", true, "with --minimize, keep all tips tied at the minimum")
	cmd.Flags().BoolVar(&asJSON, "json", false, "write JSON instead of tab-separated text")
	return cmd
}

func newLinksCmd(a *app) *cobra.Command {
	var cutoff float64
	cmd := &cobra.Command{
		Use:   "links <tree.nwk>",
		Short: "Draw subject-to-subject links as Graphviz DOT",
		Long: `links reports, for each pair of subjects with any tips closer than the
cutoff, the shortest such distance, rendered as an undirected DOT graph with
one node per linked subject sized by its median collection date. Only the
subject field of each tip label is required.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cut, err := a.resolveCutoff(cmd, cutoff)
			if err != nil {
				return err
			}
			c, err := a.clusterer(args[0])
			if err != nil {
				return err
			}
			links, err := c.SubjectLinks(cmd.Context(), cut)
			if err != nil {
				return err
			}
			subjects, err := c.SubjectSummaries()
			if err != nil {
				return err
			}
			return export.WriteSubjectDOT(cmd.OutOrStdout(), links, subjects, a.dotOptions(cut))
		},
	}
	addCutoffFlag(cmd, &cutoff)
	return cmd
}

func newMatrixCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "matrix <tree.nwk>",
		Short: "Print the all-pairs patristic distance matrix",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.clusterer(args[0])
			if err != nil {
				return err
			}
			m, names, err := phylo.PatristicMatrix(c.ParentMap())
			if err != nil {
				return err
			}
			bw := bufio.NewWriter(cmd.OutOrStdout())
			for _, n := range names {
				fmt.Fprintf(bw, "\t%s", n)
			}
			bw.WriteByte('\n')
			for i, n := range names {
				bw.WriteString(n)
				for j := range names {
					fmt.Fprintf(bw, "\t%s", strconv.FormatFloat(m.At(i, j), 'g', 6, 64))
				}
				bw.WriteByte('\n')
			}
			return bw.Flush()
		},
	}
}
