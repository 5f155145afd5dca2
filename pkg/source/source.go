// Package source loads pathways by id for the HTTP server and the CLI.
//
// Sources are read-only: this module never writes a pathway back.
//
//   - [Files]: JSON or YAML files under a directory
//   - [Mongo]: documents in a MongoDB collection, looked up by _id
//
// Every source validates the pathway before returning it, so callers get
// structural errors (MISSING_START, DANGLING_TRANSITION) from Load.
package source

import (
	"context"

	"github.com/matzehuels/pathwaygraph/pkg/pathway"
)

// Source loads a pathway by id.
// Unknown ids return an error with code NOT_FOUND.
type Source interface {
	Load(ctx context.Context, id string) (*pathway.Graph, error)
}

// Func adapts a function to [Source].
type Func func(ctx context.Context, id string) (*pathway.Graph, error)

// Load calls f.
func (f Func) Load(ctx context.Context, id string) (*pathway.Graph, error) {
	return f(ctx, id)
}

// withID fills in the graph id when the stored pathway does not carry one.
func withID(g *pathway.Graph, id string) *pathway.Graph {
	if g.ID == "" {
		g.ID = id
	}
	return g
}
