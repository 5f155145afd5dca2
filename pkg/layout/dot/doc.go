// Package dot lays pathways out with Graphviz dot.
//
// The engine converts a [layout.Input] to DOT source with one fixed-size
// box per node, runs dot through go-graphviz (a WebAssembly build of
// Graphviz, no system install needed) and reads the positions back from
// the "plain" output format.
//
// Graphviz works in inches with the origin at the bottom left. The engine
// converts to pixels (72 per inch) with the origin at the top left, so its
// output is in the same space as any other [layout.Engine].
//
// Node keys are replaced by synthetic DOT ids (n0, n1, ...), so keys never
// need DOT quoting.
package dot
