package layout

import (
	"context"
	"time"

	"github.com/matzehuels/pathwaygraph/pkg/pathway"
)

// View owns the interactive layout loop for one viewer: the pathway, the
// expansion state, the viewport width and the last computed layout.
//
// Click, Resize and SetGraph invalidate the layout; [View.Layout] recomputes
// it on demand. Each pass measures first and lays out second, and produces a
// fresh Layout value. A View must be driven from a single goroutine.
type View struct {
	engine   Engine
	measurer Measurer
	opts     Options

	graph     *pathway.Graph
	expansion *Expansion
	width     float64
	current   string

	layout Layout
	err    error
	dirty  bool
	passes int
}

// NewView creates a view with an empty expansion state and the default
// viewport width.
func NewView(engine Engine, measurer Measurer, opts Options) *View {
	return &View{
		engine:    engine,
		measurer:  measurer,
		opts:      opts.withDefaults(),
		expansion: NewExpansion(),
		width:     DefaultViewportWidth,
		dirty:     true,
	}
}

// SetGraph replaces the pathway. Expansion flags for keys that still exist
// are kept and the rest are dropped, along with a last selection or current
// node that is no longer in g.
func (v *View) SetGraph(g *pathway.Graph) {
	v.graph = g
	v.dirty = true
	if g == nil {
		return
	}
	kept := make(map[string]bool)
	for k := range v.expansion.State() {
		if _, ok := g.Node(k); ok {
			kept[k] = true
		}
	}
	last := v.expansion.LastSelected()
	if _, ok := g.Node(last); !ok {
		last = ""
	}
	v.expansion = RestoreExpansion(kept, last)
	if _, ok := g.Node(v.current); !ok {
		v.current = ""
	}
}

// SetExpansion replaces the expansion state, for example one restored from
// a session.
func (v *View) SetExpansion(e *Expansion) {
	if e == nil {
		e = NewExpansion()
	}
	v.expansion = e
	v.dirty = true
}

// Click applies a node click to the expansion state and invalidates the
// layout. The clicked node becomes the current node.
func (v *View) Click(key string) {
	if v.expansion.Click(key) {
		v.dirty = true
	}
	v.current = key
}

// Resize sets the viewport width. It reports whether the width changed; an
// unchanged width keeps the current layout.
func (v *View) Resize(width float64) bool {
	if width == v.width {
		return false
	}
	v.width = width
	v.dirty = true
	return true
}

// SetCurrent sets the current node used for branch highlighting. It does
// not affect geometry.
func (v *View) SetCurrent(key string) { v.current = key }

// Current returns the current node key.
func (v *View) Current() string { return v.current }

// Graph returns the pathway being viewed.
func (v *View) Graph() *pathway.Graph { return v.graph }

// Expansion returns the live expansion state.
func (v *View) Expansion() *Expansion { return v.expansion }

// Width returns the viewport width.
func (v *View) Width() float64 { return v.width }

// Dirty reports whether the next call to Layout recomputes.
func (v *View) Dirty() bool { return v.dirty }

// Passes returns the number of layout passes run so far.
func (v *View) Passes() int { return v.passes }

// Layout returns the layout for the current inputs, recomputing it if they
// changed since the last pass. Structural errors are returned with an empty
// layout; hosts render a fallback instead.
func (v *View) Layout(ctx context.Context) (Layout, error) {
	if !v.dirty {
		return v.layout, v.err
	}
	start := time.Now()

	var dims Dimensions
	if v.measurer != nil && v.graph != nil {
		dims = v.measurer.Measure(v.graph, v.expansion.IsExpanded)
	}
	v.layout, v.err = ComputeAndNormalize(ctx, v.engine, v.graph, dims, v.expansion, v.width, v.opts)
	v.dirty = false
	v.passes++

	if v.err != nil {
		v.opts.Logger.Debug("layout pass failed", "error", v.err)
	} else {
		v.opts.Logger.Debug("layout pass",
			"nodes", len(v.layout.Nodes),
			"edges", len(v.layout.Edges),
			"pending", len(v.layout.Pending),
			"duration", time.Since(start))
	}
	return v.layout, v.err
}
