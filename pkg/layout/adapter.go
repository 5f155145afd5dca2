package layout

import (
	"context"

	"github.com/matzehuels/pathwaygraph/pkg/errors"
	"github.com/matzehuels/pathwaygraph/pkg/geom"
	"github.com/matzehuels/pathwaygraph/pkg/pathway"
)

// ComputeLayout validates g, sizes its nodes from dims and delegates to the
// engine. The returned Raw is in engine space and must be passed through
// [Normalize] before rendering.
//
// Nodes without a measurement get opts.DefaultSize and are listed in
// Raw.Pending. Parallel transitions between the same pair of nodes share one
// edge; the first transition in declaration order supplies the label.
//
// Engine failures are reported with code LAYOUT_FAILED and an empty Raw;
// a partial layout is never returned.
func ComputeLayout(ctx context.Context, engine Engine, g *pathway.Graph, dims Dimensions, opts Options) (Raw, error) {
	if engine == nil {
		return Raw{}, errors.New(errors.ErrCodeInvalidEngine, "no layout engine configured")
	}
	if err := g.Validate(); err != nil {
		return Raw{}, err
	}
	opts = opts.withDefaults()

	in, pending, collapsed := buildInput(g, dims, opts.DefaultSize)
	for _, name := range collapsed {
		opts.Logger.Warn("parallel transitions collapsed", "edge", name)
	}
	if len(pending) > 0 {
		opts.Logger.Debug("laying out unmeasured nodes at default size", "nodes", len(pending))
	}

	out, err := engine.Layout(ctx, in)
	if err != nil {
		return Raw{}, errors.Wrap(errors.ErrCodeLayoutFailed, err, "%s layout", engine.Name())
	}

	raw := Raw{
		Nodes:     make(map[string]RawNode, len(in.Nodes)),
		Edges:     make(map[string]Edge, len(in.Edges)),
		Pending:   pending,
		Collapsed: collapsed,
	}
	for _, n := range in.Nodes {
		pos, ok := out.Nodes[n.ID]
		if !ok {
			return Raw{}, errors.New(errors.ErrCodeLayoutFailed, "%s layout returned no position for node %q", engine.Name(), n.ID)
		}
		raw.Nodes[n.ID] = RawNode{
			Key:    n.ID,
			Kind:   g.Nodes[n.ID].Kind,
			X:      pos.X,
			Y:      pos.Y,
			Width:  n.Width,
			Height: n.Height,
		}
	}

	routes := make(map[string]OutputEdge, len(out.Edges))
	for _, oe := range out.Edges {
		name := EdgeName(oe.From, oe.To)
		if _, dup := routes[name]; !dup {
			routes[name] = oe
		}
	}
	for _, ie := range in.Edges {
		name := EdgeName(ie.From, ie.To)
		oe, ok := routes[name]
		if !ok {
			return Raw{}, errors.New(errors.ErrCodeLayoutFailed, "%s layout returned no route for edge %q", engine.Name(), name)
		}
		if len(oe.Points) < 2 {
			return Raw{}, errors.New(errors.ErrCodeLayoutFailed, "%s layout returned %d route points for edge %q", engine.Name(), len(oe.Points), name)
		}
		pts := geom.Clone(oe.Points)
		orient(pts, raw.Nodes[ie.From], raw.Nodes[ie.To])

		edge := Edge{Name: name, Start: ie.From, End: ie.To, Points: pts}
		if ie.Label != "" {
			edge.Label = labelFor(ie.Label, oe.Label, pts)
		}
		raw.Edges[name] = edge
	}
	return raw, nil
}

func buildInput(g *pathway.Graph, dims Dimensions, def Size) (Input, []string, []string) {
	var in Input
	var pending []string
	for _, key := range g.Keys() {
		size, ok := dims[key]
		if !ok || size.Width <= 0 || size.Height <= 0 {
			size = def
			pending = append(pending, key)
		}
		in.Nodes = append(in.Nodes, InputNode{ID: key, Width: size.Width, Height: size.Height})
	}

	seen := make(map[string]int)
	var collapsed []string
	for _, e := range g.Edges() {
		name := EdgeName(e.From, e.To)
		seen[name]++
		if seen[name] == 2 {
			collapsed = append(collapsed, name)
		}
		if seen[name] > 1 {
			continue
		}
		in.Edges = append(in.Edges, InputEdge{From: e.From, To: e.To, Label: e.Transition.Label})
	}
	return in, pending, collapsed
}

// orient reverses pts in place when the engine routed the edge from target
// to source.
func orient(pts []geom.Point, from, to RawNode) {
	if from.Key == to.Key {
		return
	}
	src := geom.Point{X: from.X, Y: from.Y}.Finite()
	dst := geom.Point{X: to.X, Y: to.Y}.Finite()
	first, last := pts[0].Finite(), pts[len(pts)-1].Finite()
	if first.Dist2(dst) < first.Dist2(src) && last.Dist2(src) < last.Dist2(dst) {
		for i, j := 0, len(pts)-1; i < j; i, j = i+1, j-1 {
			pts[i], pts[j] = pts[j], pts[i]
		}
	}
}

// labelFor uses the engine's anchor and falls back to the route midpoint.
func labelFor(text string, anchor *Label, pts []geom.Point) *Label {
	if anchor != nil {
		return &Label{Text: text, X: anchor.X, Y: anchor.Y}
	}
	mid := pts[len(pts)/2]
	return &Label{Text: text, X: mid.X, Y: mid.Y}
}
