// Package layout turns a pathway and measured node sizes into pixel
// geometry for nodes and edges.
//
// # Pipeline
//
// One layout pass runs three pure steps:
//
//	Measurer   → Dimensions        (host supplied: DOM, text metrics, ...)
//	ComputeLayout(engine, graph)   → Raw (engine space, center anchored)
//	Normalize(raw, viewportWidth)  → Layout (pixels, corner anchored)
//
// [ComputeAndNormalize] runs the last two; [View] owns the whole loop for
// an interactive host and recomputes only after an invalidating event
// (a click, a resize or a new pathway).
//
// # Engines
//
// The layered layout itself is delegated to an [Engine]. Two ship with the
// module:
//
//   - pkg/layout/dot: Graphviz dot through go-graphviz
//   - pkg/layout/layered: a pure-Go layered engine, deterministic and
//     dependency free
//
// # Coordinates
//
// After normalization the Start node is horizontally centered in the
// viewport, no node has a negative x, every y includes the top margin
// [DefaultYOffset], and the last point of every edge route sits
// [geom.ArrowheadClearance] pixels above its raw position so the arrowhead
// marker does not overlap the target node.
//
// When the layout had to be shifted right to keep nodes on-canvas, the
// shift is in [Layout.Correction] and Start is centered at
// viewportWidth/2 + Correction.
//
// # Missing data
//
// Nodes without a measurement are laid out at [DefaultNodeSize] and listed
// in [Layout.Pending]; the next pass after they are measured places them
// properly. [Layout.Box] reports unknown keys at [geom.OffCanvas].
//
// A pathway without a Start node, or with a transition to an unknown node,
// is a structural error (MISSING_START, DANGLING_TRANSITION). Engine
// failures are LAYOUT_FAILED. In every error case the returned Layout is
// empty, never partial.
//
// [geom.ArrowheadClearance]: github.com/matzehuels/pathwaygraph/pkg/geom.ArrowheadClearance
// [geom.OffCanvas]: github.com/matzehuels/pathwaygraph/pkg/geom.OffCanvas
package layout
