// Package cli implements the pathwaygraph command-line interface.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/pathwaygraph/pkg/buildinfo"
	"github.com/matzehuels/pathwaygraph/pkg/cache"
	"github.com/matzehuels/pathwaygraph/pkg/layout"
	"github.com/matzehuels/pathwaygraph/pkg/measure"
	"github.com/matzehuels/pathwaygraph/pkg/pathway"
	"github.com/matzehuels/pathwaygraph/pkg/pipeline"
)

// =============================================================================
// Constants
// =============================================================================

// appName is the application name used for directories and display.
const appName = "pathwaygraph"

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger
	Config Config

	configPath string
}

// New creates a new CLI instance with a default logger and configuration.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{
		Logger: newLogger(w, level),
		Config: DefaultConfig(),
	}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
// The config file is loaded before any subcommand runs.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   appName,
		Short: "Pathwaygraph lays out and renders clinical pathways",
		Long: `Pathwaygraph turns a clinical pathway (steps, branches and transitions) into
pixel geometry: node boxes centered on a viewport and routed, labeled edges.
It writes layouts and diagrams, explores pathways in the terminal and serves
the same pipeline over HTTP.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			cmd.SetContext(withLogger(ctx, c.Logger))
			return c.loadConfig()
		},
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "config file (default: $XDG_CONFIG_HOME/pathwaygraph/config.toml)")

	root.AddCommand(c.layoutCommand())
	root.AddCommand(c.renderCommand())
	root.AddCommand(c.exploreCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

func (c *CLI) loadConfig() error {
	cfg, err := LoadConfig(c.configPath)
	if err != nil {
		return err
	}
	c.Config = cfg
	return nil
}

// =============================================================================
// Runner Factory
// =============================================================================

// newRunner creates a pipeline runner for CLI use. Its engine carries the
// configured spacing.
func (c *CLI) newRunner(ctx context.Context, engineName string, noCache bool) (*pipeline.Runner, error) {
	ch, err := c.newCache(ctx, noCache)
	if err != nil {
		return nil, err
	}
	opts := c.Config.Layout.EngineOptions()
	engine, err := pipeline.NewEngineWithOptions(engineName, opts)
	if err != nil {
		ch.Close()
		return nil, err
	}
	return pipeline.NewRunner(ch, keyerFor(opts), engine, c.Logger), nil
}

// keyerFor keeps layouts computed with custom engine spacing apart from the
// default ones, since spacing is not part of the layout key.
func keyerFor(opts pipeline.EngineOptions) cache.Keyer {
	if opts == (pipeline.EngineOptions{}) {
		return cache.NewDefaultKeyer()
	}
	return cache.NewScopedKeyer(nil, fmt.Sprintf("sep-%g-%g:", opts.RankSep, opts.NodeSep))
}

// newCache builds the configured cache backend. A file cache that cannot be
// created degrades to no caching.
func (c *CLI) newCache(ctx context.Context, noCache bool) (cache.Cache, error) {
	if noCache {
		return cache.NewNullCache(), nil
	}
	cfg := c.Config.Cache
	switch cfg.Backend {
	case "none":
		return cache.NewNullCache(), nil
	case "memory":
		return cache.NewMemoryCache(), nil
	case "redis":
		rc, err := cache.NewRedisCache(ctx, cache.RedisOptions{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
			Prefix:   cfg.Prefix,
		})
		if err != nil {
			return nil, fmt.Errorf("connect cache: %w", err)
		}
		return rc, nil
	}
	dir := cfg.Dir
	if dir == "" {
		d, err := cacheDir()
		if err != nil {
			return cache.NewNullCache(), nil
		}
		dir = d
	}
	fc, err := cache.NewFileCache(dir)
	if err != nil {
		c.Logger.Warn("file cache disabled", "dir", dir, "error", err)
		return cache.NewNullCache(), nil
	}
	return fc, nil
}

// measurer returns the text measurer configured by the [measure] section.
func (c *CLI) measurer() layout.Measurer {
	return measure.NewText(c.Config.Measure.TextOptions())
}

// =============================================================================
// Paths
// =============================================================================

// cacheDir returns the cache directory using XDG standard (~/.cache/pathwaygraph/).
func cacheDir() (string, error) {
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", appName), nil
}

// =============================================================================
// Input Helpers
// =============================================================================

// pathwayFlags are the flags shared by layout, render and explore.
type pathwayFlags struct {
	expand  []string
	width   float64
	engine  string
	yOffset float64
	noCache bool
	refresh bool
}

func (c *CLI) addPathwayFlags(cmd *cobra.Command, f *pathwayFlags) {
	cmd.Flags().StringSliceVar(&f.expand, "expand", nil, "node keys to expand (comma-separated)")
	cmd.Flags().Float64Var(&f.width, "width", 0, "viewport width in pixels (default from config)")
	cmd.Flags().StringVar(&f.engine, "engine", "", "layout engine: dot, layered (default from config)")
	cmd.Flags().Float64Var(&f.yOffset, "y-offset", 0, "top margin in pixels; negative for none (default from config)")
	cmd.Flags().BoolVar(&f.noCache, "no-cache", false, "disable caching")
	cmd.Flags().BoolVar(&f.refresh, "refresh", false, "recompute even when cached")
}

// request builds a validated pipeline request for g, filling unset flags
// from the config file.
func (c *CLI) request(g *pathway.Graph, id string, f pathwayFlags) (pipeline.Request, error) {
	req := pipeline.Request{
		Graph:         g,
		PathwayID:     id,
		Measurer:      c.measurer(),
		Expansion:     layout.RestoreExpansion(expandedSet(f.expand), ""),
		ViewportWidth: f.width,
		Engine:        f.engine,
		YOffset:       f.yOffset,
		Refresh:       f.refresh,
		Logger:        c.Logger,
	}
	if req.ViewportWidth == 0 {
		req.ViewportWidth = c.Config.Layout.ViewportWidth
	}
	if req.Engine == "" {
		req.Engine = c.Config.Layout.Engine
	}
	if req.YOffset == 0 {
		req.YOffset = c.Config.Layout.YOffset
	}
	if err := req.ValidateAndSetDefaults(); err != nil {
		return req, err
	}
	for _, key := range f.expand {
		if _, ok := g.Node(key); !ok {
			c.Logger.Warn("expanded key not in pathway", "key", key)
		}
	}
	return req, nil
}

// loadPathway reads a pathway file and returns it with its id: the graph's
// own id or the file name without extension.
func loadPathway(path string) (*pathway.Graph, string, error) {
	g, err := pathway.ReadFile(path)
	if err != nil {
		return nil, "", fmt.Errorf("load pathway %s: %w", path, err)
	}
	id := g.ID
	if id == "" {
		id = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return g, id, nil
}

func expandedSet(keys []string) map[string]bool {
	set := make(map[string]bool, len(keys))
	for _, k := range keys {
		if k = strings.TrimSpace(k); k != "" {
			set[k] = true
		}
	}
	return set
}

// parseFormats parses a comma-separated format string into a slice.
func parseFormats(s string) []string {
	if s == "" {
		return []string{pipeline.FormatSVG}
	}
	parts := strings.Split(s, ",")
	for i, p := range parts {
		parts[i] = strings.TrimSpace(p)
	}
	return parts
}
