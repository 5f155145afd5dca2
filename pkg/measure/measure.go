// Package measure produces node dimensions for the layout core.
//
// Interactive hosts with a display surface report real sizes: a node's
// width is its content width and its height is the sum of its direct child
// blocks (title, and details when expanded), not the element's own box.
// [Collect] implements that rule over any element tree that satisfies
// [Element].
//
// [Static] serves sizes that were measured elsewhere, for example posted by
// a browser. [Text] estimates sizes from label and detail text for hosts
// that have no layout engine of their own (CLI, terminal UI).
package measure

import (
	"github.com/matzehuels/pathwaygraph/pkg/layout"
	"github.com/matzehuels/pathwaygraph/pkg/pathway"
)

// Block is a direct child of a mounted node element.
type Block interface {
	Height() float64
}

// Element is a mounted node element.
type Element interface {
	Key() string
	ContentWidth() float64
	Blocks() []Block
}

// Collect measures the mounted elements. Elements that are not mounted must
// not be passed; they get no entry.
func Collect(elems []Element) layout.Dimensions {
	dims := make(layout.Dimensions, len(elems))
	for _, el := range elems {
		h := 0.0
		for _, b := range el.Blocks() {
			h += b.Height()
		}
		dims[el.Key()] = layout.Size{Width: el.ContentWidth(), Height: h}
	}
	return dims
}

// Static reports externally measured sizes. Keys not in the pathway are
// dropped; pathway nodes without a size are reported as unmounted.
type Static struct {
	dims layout.Dimensions
}

// NewStatic creates a measurer over dims. dims is copied.
func NewStatic(dims layout.Dimensions) *Static {
	return &Static{dims: dims.Clone()}
}

// Set replaces the sizes.
func (s *Static) Set(dims layout.Dimensions) { s.dims = dims.Clone() }

// Measure implements [layout.Measurer].
func (s *Static) Measure(g *pathway.Graph, _ func(string) bool) layout.Dimensions {
	out := make(layout.Dimensions)
	for key := range g.Nodes {
		if size, ok := s.dims[key]; ok {
			out[key] = size
		}
	}
	return out
}

// FixedBlock is a [Block] of constant height.
type FixedBlock float64

// Height returns b.
func (b FixedBlock) Height() float64 { return float64(b) }

// Box is a plain [Element].
type Box struct {
	ID       string
	Width    float64
	Children []Block
}

func (b Box) Key() string           { return b.ID }
func (b Box) ContentWidth() float64 { return b.Width }
func (b Box) Blocks() []Block       { return b.Children }
