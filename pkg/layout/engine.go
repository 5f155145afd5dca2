package layout

import (
	"context"

	"github.com/matzehuels/pathwaygraph/pkg/geom"
)

// Engine is a layered directed-graph layout primitive.
//
// Given sized nodes and directed edges, an engine must:
//   - return a center coordinate for every input node
//   - return an ordered route of at least two points for every input edge
//   - return a label anchor for every labeled edge
//
// Coordinates may be in any engine-defined space; [Normalize] maps them to
// renderer pixels. Engines must not crash on cycles or disconnected
// components; if they cannot lay an input out they return an error and the
// caller gets an empty layout.
type Engine interface {
	Name() string
	Layout(ctx context.Context, in Input) (Output, error)
}

// InputNode is a node handed to an engine.
type InputNode struct {
	ID     string
	Width  float64
	Height float64
}

// InputEdge is a directed edge handed to an engine. Label may be empty.
type InputEdge struct {
	From  string
	To    string
	Label string
}

// Input is the engine request. Slices are in deterministic order.
type Input struct {
	Nodes []InputNode
	Edges []InputEdge
}

// OutputNode is a center-anchored position. Width and Height echo the input.
type OutputNode struct {
	X      float64
	Y      float64
	Width  float64
	Height float64
}

// OutputEdge is a routed edge.
type OutputEdge struct {
	From   string
	To     string
	Points []geom.Point
	Label  *Label
}

// Output is the engine response.
type Output struct {
	Nodes map[string]OutputNode
	Edges []OutputEdge
}
