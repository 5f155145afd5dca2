package cli

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/pathwaygraph/pkg/layout"
)

// layoutCommand creates the layout command for computing pathway layouts.
func (c *CLI) layoutCommand() *cobra.Command {
	var (
		output string
		flags  pathwayFlags
	)

	cmd := &cobra.Command{
		Use:   "layout [pathway.yaml]",
		Short: "Compute the normalized layout of a pathway",
		Long: `Compute the normalized layout of a pathway.

The pathway file (JSON or YAML) is measured, laid out and normalized against
the viewport width. The output is a layout document with node boxes, routed
edges, the x offset correction and the nodes that were laid out at the
default size.

Results are cached locally for faster subsequent runs.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runLayout(cmd.Context(), args[0], output, flags)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: <input>.layout.json)")
	c.addPathwayFlags(cmd, &flags)

	return cmd
}

// runLayout loads the pathway, computes the layout, and writes the document.
func (c *CLI) runLayout(ctx context.Context, input, output string, flags pathwayFlags) error {
	g, id, err := loadPathway(input)
	if err != nil {
		return err
	}
	req, err := c.request(g, id, flags)
	if err != nil {
		return err
	}

	runner, err := c.newRunner(ctx, req.Engine, flags.noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	spinner := newSpinnerWithContext(ctx, fmt.Sprintf("Computing %s layout...", req.Engine))
	spinner.Start()

	l, cacheHit, err := runner.Layout(ctx, req)
	if err != nil {
		spinner.StopWithError("Layout failed")
		return fmt.Errorf("compute layout: %w", err)
	}
	spinner.Stop()

	if ctx.Err() != nil {
		return ctx.Err()
	}

	outputPath := output
	if outputPath == "" {
		outputPath = strings.TrimSuffix(input, filepath.Ext(input)) + ".layout.json"
	}

	doc := layout.NewDocument(id, req.Engine, req.ViewportWidth, req.Expansion, l)
	if err := layout.WriteDocumentFile(doc, outputPath); err != nil {
		return fmt.Errorf("write output %s: %w", outputPath, err)
	}

	printSuccess("Layout complete")
	printFile(outputPath)
	printStats(len(l.Nodes), len(l.Edges), len(l.Pending), cacheHit)
	printNewline()
	printNextStep("Render", appName+" render "+input)

	return nil
}
