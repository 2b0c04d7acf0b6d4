package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/dusk-indust/tipcluster/internal/config"
	"github.com/dusk-indust/tipcluster/internal/phylo"
)

// version is set by goreleaser at build time.
var version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		stop()
		os.Exit(1)
	}
}

// app carries state shared by every subcommand once the root pre-run has
// loaded configuration.
type app struct {
	configDir string
	verbose   bool
	workers   int

	cfg    *config.ProjectConfig
	logger *slog.Logger
	stderr io.Writer
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	root := newRootCmd(&app{stderr: stderr})
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)
	return root.ExecuteContext(ctx)
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "tipcluster",
		Short: "Cluster phylogeny tips by patristic distance",
		Long: `tipcluster links tips of a rooted phylogeny whose path length through the
tree is below a cutoff, and reports the links as edges, clusters or
per-subject summaries.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup()
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&a.configDir, "config-dir", ".", "directory holding tipcluster.yml")
	pf.BoolVar(&a.verbose, "verbose", false, "enable debug logging")
	pf.IntVar(&a.workers, "workers", 0, "parallel walks (default: config, then GOMAXPROCS)")

	root.AddCommand(
		newClusterCmd(a),
		newShortEdgesCmd(a),
		newLinksCmd(a),
		newMatrixCmd(a),
		newServeMCPCmd(a),
		&cobra.Command{
			Use:   "version",
			Short: "Print version and exit",
			Args:  cobra.NoArgs,
			Run: func(cmd *cobra.Command, _ []string) {
				fmt.Fprintln(cmd.OutOrStdout(), version)
			},
		},
	)
	return root
}

// setup loads configuration and builds the logger.
func (a *app) setup() error {
	level := slog.LevelInfo
	if a.verbose {
		level = slog.LevelDebug
	}
	a.logger = slog.New(slog.NewTextHandler(a.stderr, &slog.HandlerOptions{Level: level}))

	cfg, err := config.Load(a.configDir)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if a.workers > 0 {
		cfg.Workers = a.workers
	}
	a.cfg = cfg
	return nil
}

// clusterer loads the Newick file at path.
func (a *app) clusterer(path string) (*phylo.Clusterer, error) {
	tree, err := phylo.LoadNewickFile(path)
	if err != nil {
		return nil, err
	}
	a.logger.Debug("tree loaded", "path", path, "nodes", tree.Len(), "leaves", len(tree.Leaves()))
	return phylo.NewClusterer(tree,
		phylo.WithWorkers(a.cfg.Workers),
		phylo.WithLabelFormat(a.cfg.LabelFormat()),
		phylo.WithLogger(a.logger),
		phylo.WithProgress(a.logProgress),
	)
}

// logProgress reports walk progress at debug level, about every tenth of a
// run.
func (a *app) logProgress(p phylo.Progress) {
	step := max(p.Total/10, 1)
	if p.Done%step == 0 || p.Done == p.Total {
		a.logger.Debug("walk progress", "mode", p.Mode, "done", p.Done, "total", p.Total)
	}
}

// addCutoffFlag registers --cutoff; resolveCutoff applies it.
func addCutoffFlag(cmd *cobra.Command, cutoff *float64) {
	cmd.Flags().Float64Var(cutoff, "cutoff", 0, "patristic distance threshold (default: config, 0.02)")
}

// resolveCutoff applies the --cutoff override and validates the result.
func (a *app) resolveCutoff(cmd *cobra.Command, cutoff float64) (float64, error) {
	if cmd.Flags().Changed("cutoff") {
		a.cfg.Cutoff = cutoff
	}
	if err := a.cfg.Validate(); err != nil {
		return 0, err
	}
	return a.cfg.Cutoff, nil
}
