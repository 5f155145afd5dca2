// Package layered is a pure-Go layered (Sugiyama-style) layout engine.
//
// The engine runs the classic phases:
//
//  1. Cycle breaking: a depth-first search from every source marks back
//     edges, which are laid out as if reversed.
//  2. Layering: longest path from the sources, so every edge points at
//     least one rank down.
//  3. Subdivision: edges spanning several ranks get one virtual node per
//     intermediate rank; the route later passes through them.
//  4. Ordering: alternating barycenter sweeps; the ordering with the
//     fewest crossings seen is kept.
//  5. Placement: ranks are stacked top to bottom using the tallest node of
//     each rank, nodes are packed left to right using their widths and then
//     pulled towards the mean of their neighbors.
//
// Output is deterministic for a given [layout.Input]: node and edge order
// in the input is the only tie breaker.
//
// Engine implements [layout.Engine]. It is the default engine for tests
// and for hosts without Graphviz.
package layered
