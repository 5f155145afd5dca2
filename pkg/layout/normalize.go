package layout

import (
	"math"
	"slices"

	"github.com/matzehuels/pathwaygraph/pkg/errors"
	"github.com/matzehuels/pathwaygraph/pkg/geom"
	"github.com/matzehuels/pathwaygraph/pkg/pathway"
)

// Normalize maps an engine-space layout to renderer pixel space:
//
//  1. xOffset = viewportWidth/2 - start.X re-centers the diagram on Start.
//  2. Node centers become top-left corners and YOffset is added.
//  3. If any node lands at negative x, every node is shifted right by the
//     smallest amount that makes min(x) zero. The shift is reported in
//     Layout.Correction.
//  4. Edge points and label anchors get the same offsets. Non-finite
//     coordinates are coerced to 0 first. The last point of every route is
//     raised by [geom.ArrowheadClearance].
//
// The result shares no memory with raw.
func Normalize(raw Raw, viewportWidth float64, opts Options) (Layout, error) {
	start, ok := raw.Nodes[pathway.StartKey]
	if !ok {
		return Layout{}, errors.New(errors.ErrCodeMissingStart, "raw layout has no %q node", pathway.StartKey)
	}
	if err := errors.ValidateViewportWidth(viewportWidth); err != nil {
		return Layout{}, err
	}
	opts = opts.withDefaults()

	startX := finite(start.X)
	xOffset := -startX + viewportWidth/2
	yOffset := opts.YOffset

	out := Layout{
		Nodes:   make(map[string]NodeBox, len(raw.Nodes)),
		Edges:   make(map[string]Edge, len(raw.Edges)),
		Pending: slices.Clone(raw.Pending),
	}

	minX := 0.0
	for key, n := range raw.Nodes {
		var x float64
		if key == pathway.StartKey {
			// Grouped so that x + width/2 is exactly viewportWidth/2.
			x = viewportWidth/2 - n.Width/2
		} else {
			x = finite(n.X) - n.Width/2 + xOffset
		}
		box := NodeBox{
			Key:    key,
			Kind:   n.Kind,
			X:      x,
			Y:      finite(n.Y) - n.Height/2 + yOffset,
			Width:  n.Width,
			Height: n.Height,
		}
		minX = math.Min(minX, box.X)
		out.Nodes[key] = box
	}

	correction := math.Max(0, math.Abs(math.Min(0, minX)))
	if correction > 0 {
		for key, box := range out.Nodes {
			box.X += correction
			out.Nodes[key] = box
		}
	}
	out.Correction = correction

	dx, dy := xOffset+correction, yOffset
	for name, e := range raw.Edges {
		pts := make([]geom.Point, len(e.Points))
		for i, p := range e.Points {
			pts[i] = p.Finite().Add(dx, dy)
		}
		if n := len(pts); n > 0 {
			pts[n-1].Y -= geom.ArrowheadClearance
		}
		ne := Edge{Name: name, Start: e.Start, End: e.End, Points: pts}
		if e.Label != nil {
			p := geom.Point{X: e.Label.X, Y: e.Label.Y}.Finite().Add(dx, dy)
			ne.Label = &Label{Text: e.Label.Text, X: p.X, Y: p.Y}
		}
		out.Edges[name] = ne
	}
	return out, nil
}

func finite(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}
