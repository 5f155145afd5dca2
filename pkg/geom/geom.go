// Package geom holds the small set of pixel-space primitives shared by the
// layout core and the renderers.
package geom

import "math"

// ArrowheadClearance is the vertical room, in pixels, reserved above a target
// node for the arrowhead marker at the end of an edge.
const ArrowheadClearance = 17.5

// OffCanvas is the position reported for nodes that have no coordinates yet.
var OffCanvas = Point{X: -999, Y: -999}

// Point is a pixel coordinate. Y grows downwards.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Add returns p translated by (dx, dy).
func (p Point) Add(dx, dy float64) Point {
	return Point{X: p.X + dx, Y: p.Y + dy}
}

// Finite returns p with every non-finite component replaced by 0.
func (p Point) Finite() Point {
	return Point{X: finite(p.X), Y: finite(p.Y)}
}

// Dist2 returns the squared distance between p and q.
func (p Point) Dist2(q Point) float64 {
	dx, dy := p.X-q.X, p.Y-q.Y
	return dx*dx + dy*dy
}

func finite(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

// Clone returns a copy of pts that shares no memory with it.
func Clone(pts []Point) []Point {
	if pts == nil {
		return nil
	}
	out := make([]Point, len(pts))
	copy(out, pts)
	return out
}
