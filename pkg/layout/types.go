package layout

import (
	"slices"

	"github.com/matzehuels/pathwaygraph/pkg/geom"
	"github.com/matzehuels/pathwaygraph/pkg/pathway"
)

// =============================================================================
// Measurements
// =============================================================================

// Size is a rendered node size in pixels.
type Size struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Dimensions maps node keys to measured sizes. Nodes that are not mounted
// have no entry.
type Dimensions map[string]Size

// Clone returns a copy of d.
func (d Dimensions) Clone() Dimensions {
	if d == nil {
		return nil
	}
	out := make(Dimensions, len(d))
	for k, v := range d {
		out[k] = v
	}
	return out
}

// =============================================================================
// Normalized Layout
// =============================================================================

// NodeBox is a corner-anchored node rectangle in renderer pixel space.
type NodeBox struct {
	Key      string       `json:"key"`
	Kind     pathway.Kind `json:"kind"`
	X        float64      `json:"x"`
	Y        float64      `json:"y"`
	Width    float64      `json:"width"`
	Height   float64      `json:"height"`
	Expanded bool         `json:"expanded,omitempty"`
}

// Right returns the x coordinate of the box's right edge.
func (b NodeBox) Right() float64 { return b.X + b.Width }

// Label is an edge label anchored at (X, Y).
type Label struct {
	Text string  `json:"text"`
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
}

// Edge is a routed transition. Points run from Start to End. A nil Label
// means the edge is unlabeled.
type Edge struct {
	Name   string       `json:"name"`
	Start  string       `json:"start"`
	End    string       `json:"end"`
	Points []geom.Point `json:"points"`
	Label  *Label       `json:"label,omitempty"`
}

// Layout is the pixel geometry for one render pass. Every pass produces a
// fresh value; nothing mutates a Layout after it is returned.
type Layout struct {
	Nodes map[string]NodeBox `json:"nodes"`
	Edges map[string]Edge    `json:"edges"`

	// Correction is the shift applied to every x so that no node sits left
	// of the drawing surface.
	Correction float64 `json:"x_offset_correction,omitempty"`

	// Pending lists nodes that were laid out at the default size because no
	// measurement was available yet.
	Pending []string `json:"pending,omitempty"`
}

// IsEmpty reports whether the layout holds no nodes.
func (l Layout) IsEmpty() bool { return len(l.Nodes) == 0 }

// Box returns the node's rectangle. Nodes without coordinates are reported
// at [geom.OffCanvas] with ok set to false.
func (l Layout) Box(key string) (NodeBox, bool) {
	if b, ok := l.Nodes[key]; ok {
		return b, true
	}
	return NodeBox{Key: key, X: geom.OffCanvas.X, Y: geom.OffCanvas.Y}, false
}

// EdgeNames returns the edge names in sorted order.
func (l Layout) EdgeNames() []string {
	names := make([]string, 0, len(l.Edges))
	for name := range l.Edges {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// NodeKeys returns the node keys in sorted order.
func (l Layout) NodeKeys() []string {
	keys := make([]string, 0, len(l.Nodes))
	for k := range l.Nodes {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// EdgeName synthesizes the map key of the edge from source to target.
func EdgeName(source, target string) string {
	return source + ", " + target
}

// =============================================================================
// Raw Layout (engine space)
// =============================================================================

// RawNode is a center-anchored node position as returned by an [Engine].
type RawNode struct {
	Key    string
	Kind   pathway.Kind
	X      float64 // center
	Y      float64 // center
	Width  float64
	Height float64
}

// Raw is the adapter output before normalization.
type Raw struct {
	Nodes map[string]RawNode
	Edges map[string]Edge

	// Pending nodes were sent to the engine with the default size.
	Pending []string

	// Collapsed lists edge names that absorbed more than one transition.
	Collapsed []string
}
