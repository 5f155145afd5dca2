// Package svg renders a normalized layout as a standalone SVG document.
//
// Nodes are drawn at their corner-anchored boxes with the display label
// and, for expanded nodes, the detail lines. Edges are drawn with
// [arrow.Build], which raises the end of every connector by
// [geom.ArrowheadClearance] below the layout's last route point, and end in
// an arrowhead marker. Edges leaving the current node are marked active
// when that node is a branch.
//
// Hosts that receive a structural error instead of a layout draw
// [RenderFallback].
package svg

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"math"

	"github.com/matzehuels/pathwaygraph/pkg/layout"
	"github.com/matzehuels/pathwaygraph/pkg/pathway"
	"github.com/matzehuels/pathwaygraph/pkg/render/arrow"
)

const style = `
    .node rect { fill: #fff; stroke: #455a64; stroke-width: 1.5; rx: 6; }
    .node.start rect { fill: #e3f2fd; }
    .node.branch rect { fill: #fff8e1; }
    .node.reference rect { stroke-dasharray: 4 3; }
    .node.expanded rect { stroke-width: 2.5; }
    .node text { font: 12px sans-serif; fill: #263238; }
    .node .detail { font-size: 11px; fill: #546e7a; }
    .edge { fill: none; stroke: #78909c; stroke-width: 1.5; }
    .edge.active { stroke: #e65100; stroke-width: 2.5; }
    .edge-label { font: 11px sans-serif; fill: #37474f; }
    .fallback { font: 14px sans-serif; fill: #90a4ae; }`

// Fallback messages.
const (
	NoPathway      = "no pathway loaded"
	NoNodeSelected = "no node selected"
)

// Option configures rendering.
type Option func(*renderer)

type renderer struct {
	current     string
	padding     float64
	lineHeight  float64
	labelOffset [2]float64
	minWidth    float64
	widthOffset float64
}

// WithCurrent sets the current node for branch highlighting.
func WithCurrent(key string) Option { return func(r *renderer) { r.current = key } }

// WithPadding sets the margin around the drawing.
func WithPadding(p float64) Option { return func(r *renderer) { r.padding = p } }

// WithMinWidth sets the minimum canvas width, typically the viewport width.
func WithMinWidth(w float64) Option { return func(r *renderer) { r.minWidth = w } }

// WithWidthOffset shifts every connector right by dx, for hosts that draw
// nodes inside a wider container than the layout viewport.
func WithWidthOffset(dx float64) Option { return func(r *renderer) { r.widthOffset = dx } }

// WithLabelOffset shifts every edge label by (dx, dy).
func WithLabelOffset(dx, dy float64) Option {
	return func(r *renderer) { r.labelOffset = [2]float64{dx, dy} }
}

func newRenderer(opts ...Option) renderer {
	r := renderer{padding: 16, lineHeight: 16, labelOffset: [2]float64{0, -4}}
	for _, opt := range opts {
		opt(&r)
	}
	return r
}

// Render draws l. g supplies labels, details and node kinds; nodes of l that
// are missing from g are drawn with their key.
func Render(l layout.Layout, g *pathway.Graph, opts ...Option) []byte {
	r := newRenderer(opts...)
	w, h := r.canvas(l)

	var buf bytes.Buffer
	fmt.Fprintf(&buf, `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.1f %.1f" width="%.0f" height="%.0f">`+"\n", w, h, w, h)
	fmt.Fprintf(&buf, "  <style>%s\n  </style>\n", style)
	buf.WriteString(`  <defs><marker id="arrowhead" viewBox="0 0 10 10" refX="1" refY="5" markerWidth="8" markerHeight="8" orient="auto-start-reverse"><path d="M 0 0 L 10 5 L 0 10 z" fill="#78909c"/></marker></defs>` + "\n")

	buf.WriteString(`  <g class="edges">` + "\n")
	for _, name := range l.EdgeNames() {
		r.renderEdge(&buf, l.Edges[name], g)
	}
	buf.WriteString("  </g>\n")

	buf.WriteString(`  <g class="nodes">` + "\n")
	for _, key := range l.NodeKeys() {
		r.renderNode(&buf, l.Nodes[key], g)
	}
	buf.WriteString("  </g>\n")

	buf.WriteString("</svg>\n")
	return buf.Bytes()
}

func (r renderer) canvas(l layout.Layout) (float64, float64) {
	ext := layout.ExtentOf(l)
	bottom := 0.0
	for _, b := range l.Nodes {
		bottom = math.Max(bottom, b.Y+b.Height)
	}
	for _, e := range l.Edges {
		for _, p := range e.Points {
			bottom = math.Max(bottom, p.Y)
		}
	}
	return math.Max(ext.MaxWidth+r.padding, r.minWidth), bottom + r.padding
}

func (r renderer) renderEdge(buf *bytes.Buffer, e layout.Edge, g *pathway.Graph) {
	class := "edge"
	if arrow.ActiveBranch(e, g, r.current) {
		class += " active"
	}
	p := arrow.Build(e.Points, r.widthOffset)
	if p.IsEmpty() {
		return
	}
	fmt.Fprintf(buf, `    <path id="edge-%s" class="%s" d="%s" marker-end="url(#arrowhead)"/>`+"\n", escape(e.Name), class, p)
	if e.Label != nil {
		buf.WriteString("    ")
		_ = arrow.RenderLabel(buf, e.Label, r.labelOffset[0], r.labelOffset[1])
		buf.WriteByte('\n')
	}
}

func (r renderer) renderNode(buf *bytes.Buffer, b layout.NodeBox, g *pathway.Graph) {
	label := b.Key
	var details []string
	if n, ok := g.Node(b.Key); ok {
		label = n.DisplayLabel()
		details = n.Details
	}

	class := "node " + kindClass(b.Kind)
	if b.Expanded {
		class += " expanded"
	}
	fmt.Fprintf(buf, `    <g id="node-%s" class="%s">`+"\n", escape(b.Key), class)
	fmt.Fprintf(buf, `      <rect x="%.2f" y="%.2f" width="%.2f" height="%.2f"/>`+"\n", b.X, b.Y, b.Width, b.Height)
	fmt.Fprintf(buf, `      <text x="%.2f" y="%.2f" text-anchor="middle">%s</text>`+"\n",
		b.X+b.Width/2, b.Y+r.lineHeight+4, escape(label))
	if b.Expanded {
		for i, d := range details {
			fmt.Fprintf(buf, `      <text class="detail" x="%.2f" y="%.2f">%s</text>`+"\n",
				b.X+8, b.Y+float64(i+2)*r.lineHeight+8, escape(d))
		}
	}
	buf.WriteString("    </g>\n")
}

func kindClass(k pathway.Kind) string {
	switch k {
	case pathway.KindStart:
		return "start"
	case pathway.KindAction:
		return "action"
	case pathway.KindBranch:
		return "branch"
	case pathway.KindReference:
		return "reference"
	case pathway.KindOther:
		return "other"
	default:
		return "other"
	}
}

// RenderFallback draws a placeholder diagram with message, for pathways
// that cannot be laid out.
func RenderFallback(message string) []byte {
	const w, h = 400.0, 120.0
	var buf bytes.Buffer
	fmt.Fprintf(&buf, `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.1f %.1f" width="%.0f" height="%.0f">`+"\n", w, h, w, h)
	fmt.Fprintf(&buf, "  <style>%s\n  </style>\n", style)
	fmt.Fprintf(&buf, `  <text class="fallback" x="%.1f" y="%.1f" text-anchor="middle">%s</text>`+"\n", w/2, h/2, escape(message))
	buf.WriteString("</svg>\n")
	return buf.Bytes()
}

func escape(s string) string {
	var buf bytes.Buffer
	xml.EscapeText(&buf, []byte(s))
	return buf.String()
}
