package layout

import (
	"context"

	"github.com/matzehuels/pathwaygraph/pkg/pathway"
)

// Measurer reports the rendered size of every mounted node. expanded tells
// the measurer which detail panels are open. Nodes that are not mounted are
// left out of the result.
type Measurer interface {
	Measure(g *pathway.Graph, expanded func(key string) bool) Dimensions
}

// MeasurerFunc adapts a function to [Measurer].
type MeasurerFunc func(g *pathway.Graph, expanded func(key string) bool) Dimensions

// Measure calls f.
func (f MeasurerFunc) Measure(g *pathway.Graph, expanded func(key string) bool) Dimensions {
	return f(g, expanded)
}

// ComputeAndNormalize runs the adapter and the normalizer for one pass and
// stamps the expansion flags onto the node boxes. With identical inputs it
// returns identical layouts.
//
// On any error the returned Layout is empty.
func ComputeAndNormalize(ctx context.Context, engine Engine, g *pathway.Graph, dims Dimensions, exp *Expansion, viewportWidth float64, opts Options) (Layout, error) {
	raw, err := ComputeLayout(ctx, engine, g, dims, opts)
	if err != nil {
		return Layout{}, err
	}
	l, err := Normalize(raw, viewportWidth, opts)
	if err != nil {
		return Layout{}, err
	}
	for key, box := range l.Nodes {
		if exp.IsExpanded(key) {
			box.Expanded = true
			l.Nodes[key] = box
		}
	}
	return l, nil
}
