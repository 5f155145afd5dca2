package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/pathwaygraph/pkg/pipeline"
)

// renderOpts holds the render-specific flags.
type renderOpts struct {
	output  string   // output file (single format) or base path (multiple)
	formats []string // svg, png, pdf, json
	current string   // node whose outgoing branch edges are highlighted
	scale   float64  // PNG scale factor
}

// renderCommand creates the render command for generating diagrams.
func (c *CLI) renderCommand() *cobra.Command {
	var (
		formatsStr string
		opts       renderOpts
		flags      pathwayFlags
	)

	cmd := &cobra.Command{
		Use:   "render [pathway.yaml]",
		Short: "Render a pathway to SVG, PNG, PDF or JSON",
		Long: `Render a pathway to SVG, PNG, PDF or JSON.

Nodes listed with --expand are measured with their detail panel open. With
--current set to a branch node, its outgoing edges are highlighted. PNG and
PDF output requires rsvg-convert on the PATH.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.formats = parseFormats(formatsStr)
			if err := pipeline.ValidateFormats(opts.formats); err != nil {
				return err
			}
			return c.runRender(cmd.Context(), args[0], opts, flags)
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (single format) or base path (multiple)")
	cmd.Flags().StringVarP(&formatsStr, "format", "f", "", "output format(s): svg (default), json, pdf, png (comma-separated)")
	cmd.Flags().StringVar(&opts.current, "current", "", "current node; its branch edges are highlighted")
	cmd.Flags().Float64Var(&opts.scale, "scale", pipeline.DefaultScale, "PNG scale factor")
	c.addPathwayFlags(cmd, &flags)

	return cmd
}

// runRender loads the pathway, runs the pipeline, and writes one file per format.
func (c *CLI) runRender(ctx context.Context, input string, opts renderOpts, flags pathwayFlags) error {
	g, id, err := loadPathway(input)
	if err != nil {
		return err
	}
	req, err := c.request(g, id, flags)
	if err != nil {
		return err
	}
	req.Current = opts.current
	req.Scale = opts.scale
	if opts.current != "" {
		if _, ok := g.Node(opts.current); !ok {
			c.Logger.Warn("current node not in pathway", "key", opts.current)
		}
	}

	runner, err := c.newRunner(ctx, req.Engine, flags.noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	prog := newProgress(c.Logger)
	spinner := newSpinnerWithContext(ctx, "Rendering "+id+"...")
	spinner.Start()

	res, err := runner.Render(ctx, req, opts.formats)
	if err != nil {
		spinner.StopWithError("Render failed")
		return fmt.Errorf("render: %w", err)
	}
	spinner.Stop()
	prog.done("Rendered "+id, "formats", strings.Join(opts.formats, ","))

	if ctx.Err() != nil {
		return ctx.Err()
	}

	paths := outputPaths(opts.output, input, opts.formats)
	printSuccess("Render complete")
	for _, format := range opts.formats {
		path := paths[format]
		if err := writeFile(path, res.Artifacts[format]); err != nil {
			return err
		}
		printFile(path)
	}
	printStats(res.Stats.NodeCount, res.Stats.EdgeCount, res.Stats.Pending, res.CacheInfo.LayoutHit)
	return nil
}

// outputPaths maps each format to its file. A single format writes to
// output as given; several formats share output (or the input path) as a
// base with the format appended as extension.
func outputPaths(output, input string, formats []string) map[string]string {
	paths := make(map[string]string, len(formats))
	if len(formats) == 1 && output != "" {
		paths[formats[0]] = output
		return paths
	}
	base := basePath(output, input)
	for _, f := range formats {
		paths[f] = base + "." + f
	}
	return paths
}

// basePath strips a known format extension from output, or the extension
// of input when output is empty.
func basePath(output, input string) string {
	if output == "" {
		return strings.TrimSuffix(input, filepath.Ext(input))
	}
	ext := filepath.Ext(output)
	if pipeline.ValidFormats[strings.TrimPrefix(ext, ".")] {
		return strings.TrimSuffix(output, ext)
	}
	return output
}

func writeFile(path string, data []byte) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
