package measure

import (
	"math"
	"strings"

	"github.com/mattn/go-runewidth"

	"github.com/matzehuels/pathwaygraph/pkg/layout"
	"github.com/matzehuels/pathwaygraph/pkg/pathway"
)

// TextOptions sets the font metrics of the [Text] measurer. Sizes are in
// pixels; zero values fall back to the defaults.
type TextOptions struct {
	CharWidth        float64 // average advance of one terminal cell
	LineHeight       float64 // title line height
	DetailLineHeight float64 // detail line height
	Padding          float64 // inner padding on every side of a block
	MinWidth         float64
	MaxWidth         float64
}

// DefaultTextOptions approximates a 12px sans-serif label.
var DefaultTextOptions = TextOptions{
	CharWidth:        7.2,
	LineHeight:       18,
	DetailLineHeight: 16,
	Padding:          10,
	MinWidth:         120,
	MaxWidth:         260,
}

// Text estimates node sizes from label and detail text. Every node is
// treated as mounted.
type Text struct {
	opts TextOptions
}

// NewText creates a text measurer.
func NewText(opts TextOptions) *Text {
	d := DefaultTextOptions
	if opts.CharWidth <= 0 {
		opts.CharWidth = d.CharWidth
	}
	if opts.LineHeight <= 0 {
		opts.LineHeight = d.LineHeight
	}
	if opts.DetailLineHeight <= 0 {
		opts.DetailLineHeight = d.DetailLineHeight
	}
	if opts.Padding < 0 {
		opts.Padding = 0
	} else if opts.Padding == 0 {
		opts.Padding = d.Padding
	}
	if opts.MinWidth <= 0 {
		opts.MinWidth = d.MinWidth
	}
	if opts.MaxWidth < opts.MinWidth {
		opts.MaxWidth = math.Max(d.MaxWidth, opts.MinWidth)
	}
	return &Text{opts: opts}
}

// Measure implements [layout.Measurer].
func (t *Text) Measure(g *pathway.Graph, expanded func(string) bool) layout.Dimensions {
	elems := make([]Element, 0, g.NodeCount())
	for _, key := range g.Keys() {
		elems = append(elems, t.Element(g.Nodes[key], expanded != nil && expanded(key)))
	}
	return Collect(elems)
}

// Element builds the synthetic element for n: a title block and, when
// expanded and the node has details, a details block.
func (t *Text) Element(n *pathway.Node, expanded bool) Element {
	inner := t.opts.MaxWidth - 2*t.opts.Padding
	title := t.Wrap(n.DisplayLabel(), inner)

	widest := 0.0
	for _, l := range title {
		widest = math.Max(widest, t.width(l))
	}
	blocks := []Block{FixedBlock(float64(len(title))*t.opts.LineHeight + 2*t.opts.Padding)}

	if expanded && len(n.Details) > 0 {
		var lines []string
		for _, d := range n.Details {
			lines = append(lines, t.Wrap(d, inner)...)
		}
		for _, l := range lines {
			widest = math.Max(widest, t.width(l))
		}
		blocks = append(blocks, FixedBlock(float64(len(lines))*t.opts.DetailLineHeight+t.opts.Padding))
	}

	w := math.Min(math.Max(widest+2*t.opts.Padding, t.opts.MinWidth), t.opts.MaxWidth)
	return Box{ID: n.Key, Width: math.Ceil(w), Children: blocks}
}

// Wrap breaks s into lines no wider than maxWidth pixels, splitting at
// spaces. Words wider than a line are kept whole on their own line.
func (t *Text) Wrap(s string, maxWidth float64) []string {
	words := strings.Fields(s)
	if len(words) == 0 {
		return []string{""}
	}
	var lines []string
	cur := words[0]
	for _, w := range words[1:] {
		if t.width(cur+" "+w) <= maxWidth {
			cur += " " + w
			continue
		}
		lines = append(lines, cur)
		cur = w
	}
	return append(lines, cur)
}

func (t *Text) width(s string) float64 {
	return float64(runewidth.StringWidth(s)) * t.opts.CharWidth
}
