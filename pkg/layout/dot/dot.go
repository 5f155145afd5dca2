package dot

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/pathwaygraph/pkg/layout"
	"github.com/matzehuels/pathwaygraph/pkg/pathway"
)

// PointsPerInch converts Graphviz inches to pixels.
const PointsPerInch = 72.0

// formatPlain is Graphviz's line-oriented layout dump.
const formatPlain graphviz.Format = "plain"

// Options configures the generated DOT graph. Separations are in pixels.
type Options struct {
	RankSep float64
	NodeSep float64
	Splines string // "spline" (default), "polyline", "ortho"
}

// Engine is a [layout.Engine] that runs Graphviz dot.
type Engine struct {
	opts Options
}

// New creates a dot engine.
func New(opts Options) *Engine {
	if opts.RankSep <= 0 {
		opts.RankSep = 36
	}
	if opts.NodeSep <= 0 {
		opts.NodeSep = 22
	}
	if opts.Splines == "" {
		opts.Splines = "spline"
	}
	return &Engine{opts: opts}
}

// Name returns "dot".
func (e *Engine) Name() string { return "dot" }

// Layout runs dot on in.
func (e *Engine) Layout(ctx context.Context, in layout.Input) (layout.Output, error) {
	src, ids := ToDOT(in, e.opts)

	gv, err := graphviz.New(ctx)
	if err != nil {
		return layout.Output{}, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(src))
	if err != nil {
		return layout.Output{}, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, formatPlain, &buf); err != nil {
		return layout.Output{}, fmt.Errorf("render: %w", err)
	}

	out, err := ParsePlain(buf.Bytes(), ids)
	if err != nil {
		return layout.Output{}, err
	}
	for _, n := range in.Nodes {
		if pos, ok := out.Nodes[n.ID]; ok {
			pos.Width, pos.Height = n.Width, n.Height
			out.Nodes[n.ID] = pos
		}
	}
	attachLabels(&out, in)
	return out, nil
}

// ToDOT converts in to DOT source. It returns the source and the mapping
// from DOT id to node key.
//
// Start is declared first and pinned to the top rank. Edges into Start do
// not constrain ranking, so a transition back to Start never pulls it below
// the nodes it leads to.
func ToDOT(in layout.Input, opts Options) (string, map[string]string) {
	ids := make(map[string]string, len(in.Nodes))
	byKey := make(map[string]string, len(in.Nodes))
	for i, n := range in.Nodes {
		id := fmt.Sprintf("n%d", i)
		ids[id] = n.ID
		byKey[n.ID] = id
	}
	startID, hasStart := byKey[pathway.StartKey]

	var buf bytes.Buffer
	buf.WriteString("digraph pathway {\n")
	buf.WriteString("  rankdir=TB;\n")
	fmt.Fprintf(&buf, "  ranksep=%.4f;\n", opts.RankSep/PointsPerInch)
	fmt.Fprintf(&buf, "  nodesep=%.4f;\n", opts.NodeSep/PointsPerInch)
	fmt.Fprintf(&buf, "  splines=%s;\n", opts.Splines)
	buf.WriteString("  node [shape=box, fixedsize=true, label=\"\"];\n")
	buf.WriteString("\n")

	declare := func(n layout.InputNode) {
		fmt.Fprintf(&buf, "  %s [width=%.4f, height=%.4f];\n", byKey[n.ID], n.Width/PointsPerInch, n.Height/PointsPerInch)
	}
	for _, n := range in.Nodes {
		if n.ID == pathway.StartKey {
			declare(n)
		}
	}
	for _, n := range in.Nodes {
		if n.ID != pathway.StartKey {
			declare(n)
		}
	}
	if hasStart {
		fmt.Fprintf(&buf, "  {rank=min; %s;}\n", startID)
	}

	buf.WriteString("\n")
	for _, e := range in.Edges {
		from, to := byKey[e.From], byKey[e.To]
		var attrs []string
		if e.Label != "" {
			attrs = append(attrs, "label="+quote(e.Label))
		}
		if hasStart && to == startID && from != startID {
			attrs = append(attrs, "constraint=false")
		}
		if len(attrs) > 0 {
			fmt.Fprintf(&buf, "  %s -> %s [%s];\n", from, to, strings.Join(attrs, ", "))
		} else {
			fmt.Fprintf(&buf, "  %s -> %s;\n", from, to)
		}
	}

	buf.WriteString("}\n")
	return buf.String(), ids
}

// quote returns s as a DOT string literal.
func quote(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `"`, `\"`, "\n", `\n`, "\r", "")
	return `"` + r.Replace(s) + `"`
}

// attachLabels copies label text from the input onto the parsed routes.
// Labeled edges dot did not give a position keep a nil label; the adapter
// falls back to the route midpoint.
func attachLabels(out *layout.Output, in layout.Input) {
	text := make(map[string]string, len(in.Edges))
	for _, e := range in.Edges {
		if e.Label != "" {
			text[layout.EdgeName(e.From, e.To)] = e.Label
		}
	}
	for i, oe := range out.Edges {
		t, ok := text[layout.EdgeName(oe.From, oe.To)]
		if !ok {
			out.Edges[i].Label = nil
			continue
		}
		if oe.Label != nil {
			out.Edges[i].Label.Text = t
		}
	}
}
