package config

import (
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"slices"

	"gopkg.in/yaml.v3"

	"github.com/dusk-indust/tipcluster/internal/phylo"
)

// ErrInvalidConfig reports a configuration value outside its allowed range.
var ErrInvalidConfig = errors.New("config: invalid configuration")

// Output formats accepted by the cluster command.
const (
	FormatEdges   = "edges"
	FormatDOT     = "dot"
	FormatJSON    = "json"
	FormatMermaid = "mermaid"
)

// Formats lists every supported output format.
var Formats = []string{FormatEdges, FormatDOT, FormatJSON, FormatMermaid}

// ProjectConfig holds project-level settings loaded from tipcluster.yml.
type ProjectConfig struct {
	Cutoff         float64         `yaml:"cutoff"`
	MinClusterSize int             `yaml:"minClusterSize,omitempty"`
	Workers        int             `yaml:"workers,omitempty"`
	KeepTies       bool            `yaml:"keepTies,omitempty"`
	Minimize       bool            `yaml:"minimize,omitempty"`
	TipLabels      TipLabelsConfig `yaml:"tipLabels,omitempty"`
	GraphPath      string          `yaml:"graphPath,omitempty"`
	Format         string          `yaml:"format,omitempty"`
	DOT            DOTConfig       `yaml:"dot,omitempty"`
}

// TipLabelsConfig describes how tip labels split into subject and date.
type TipLabelsConfig struct {
	Fields     []string `yaml:"fields,omitempty"`
	Separator  string   `yaml:"separator,omitempty"`
	DateLayout string   `yaml:"dateLayout,omitempty"`
}

// DOTConfig overrides Graphviz styling.
type DOTConfig struct {
	EdgeColor    string  `yaml:"edgeColor,omitempty"`
	FontName     string  `yaml:"fontName,omitempty"`
	LengthOffset float64 `yaml:"lengthOffset,omitempty"`
}

// Default returns the configuration used when no file is present.
func Default() *ProjectConfig {
	labels := phylo.DefaultLabelFormat()
	return &ProjectConfig{
		Cutoff:         0.02,
		MinClusterSize: 2,
		KeepTies:       true,
		TipLabels: TipLabelsConfig{
			Fields:     labels.Fields,
			Separator:  labels.Separator,
			DateLayout: labels.DateLayout,
		},
		Format: FormatEdges,
		DOT: DOTConfig{
			EdgeColor:    "#77777730",
			FontName:     "Helvetica",
			LengthOffset: 0.1,
		},
	}
}

// Load attempts to read tipcluster.yml or tipcluster.yaml from the given
// directory. Values present in the file override Default(); a missing file
// yields Default() and no error.
func Load(dir string) (*ProjectConfig, error) {
	cfg := Default()
	for _, name := range []string{"tipcluster.yml", "tipcluster.yaml"} {
		path := filepath.Join(dir, name)
		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
		return cfg, nil
	}
	return cfg, nil
}

// Validate checks value ranges.
func (c *ProjectConfig) Validate() error {
	if math.IsNaN(c.Cutoff) || math.IsInf(c.Cutoff, 0) || c.Cutoff < 0 {
		return fmt.Errorf("%w: cutoff %v must be a finite non-negative number", ErrInvalidConfig, c.Cutoff)
	}
	if c.MinClusterSize < 0 {
		return fmt.Errorf("%w: minClusterSize %d is negative", ErrInvalidConfig, c.MinClusterSize)
	}
	if c.Workers < 0 {
		return fmt.Errorf("%w: workers %d is negative", ErrInvalidConfig, c.Workers)
	}
	if c.Format != "" && !slices.Contains(Formats, c.Format) {
		return fmt.Errorf("%w: unknown format %q (want one of %v)", ErrInvalidConfig, c.Format, Formats)
	}
	return nil
}

// LabelFormat converts the tipLabels section, falling back to the default
// field for anything left empty.
func (c *ProjectConfig) LabelFormat() phylo.LabelFormat {
	f := phylo.DefaultLabelFormat()
	if len(c.TipLabels.Fields) > 0 {
		f.Fields = c.TipLabels.Fields
	}
	if c.TipLabels.Separator != "" {
		f.Separator = c.TipLabels.Separator
	}
	if c.TipLabels.DateLayout != "" {
		f.DateLayout = c.TipLabels.DateLayout
	}
	return f
}
