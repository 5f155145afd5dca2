package pipeline

import (
	"github.com/matzehuels/pathwaygraph/pkg/errors"
	"github.com/matzehuels/pathwaygraph/pkg/layout"
	"github.com/matzehuels/pathwaygraph/pkg/layout/dot"
	"github.com/matzehuels/pathwaygraph/pkg/layout/layered"
)

// EngineOptions tunes the engines built by NewEngine. Separations are in
// pixels; zero values use each engine's defaults.
type EngineOptions struct {
	RankSep float64
	NodeSep float64
}

// NewEngine returns the named engine with default options.
func NewEngine(name string) (layout.Engine, error) {
	return NewEngineWithOptions(name, EngineOptions{})
}

// NewEngineWithOptions returns the named engine.
func NewEngineWithOptions(name string, opts EngineOptions) (layout.Engine, error) {
	switch name {
	case EngineDot, "":
		return dot.New(dot.Options{RankSep: opts.RankSep, NodeSep: opts.NodeSep}), nil
	case EngineLayered:
		return layered.New(layered.Options{RankSep: opts.RankSep, NodeSep: opts.NodeSep}), nil
	default:
		return nil, errors.New(errors.ErrCodeInvalidEngine, "invalid engine: %q (must be one of: dot, layered)", name)
	}
}
