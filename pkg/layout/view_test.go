package layout

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/pathwaygraph/pkg/errors"
	"github.com/matzehuels/pathwaygraph/pkg/pathway"
)

// growingMeasurer reports the scenario sizes and doubles the height of
// expanded nodes.
func growingMeasurer(calls *int) Measurer {
	return MeasurerFunc(func(g *pathway.Graph, expanded func(string) bool) Dimensions {
		*calls++
		dims := scenarioDims()
		for k, s := range dims {
			if expanded(k) {
				s.Height *= 2
				dims[k] = s
			}
		}
		return dims
	})
}

func TestViewInvalidation(t *testing.T) {
	ctx := context.Background()
	var measured int
	eng := scenarioEngine()
	v := NewView(eng, growingMeasurer(&measured), Options{})
	v.SetGraph(scenarioGraph())
	v.Resize(800)

	first, err := v.Layout(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, v.Passes())
	assert.Equal(t, 1, measured)
	assert.Equal(t, 30.0, first.Nodes["A"].Height)

	// No invalidating event: cached layout, no new pass.
	again, err := v.Layout(ctx)
	require.NoError(t, err)
	assert.Equal(t, first, again)
	assert.Equal(t, 1, v.Passes())

	// Same width does not invalidate.
	assert.False(t, v.Resize(800))
	assert.False(t, v.Dirty())

	// A click re-measures before laying out.
	v.Click("A")
	assert.True(t, v.Dirty())
	assert.Equal(t, "A", v.Current())
	expanded, err := v.Layout(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, measured)
	assert.Equal(t, 60.0, expanded.Nodes["A"].Height)
	assert.True(t, expanded.Nodes["A"].Expanded)
	assert.Equal(t, 30.0, first.Nodes["A"].Height, "earlier layouts are not mutated")

	assert.True(t, v.Resize(1000))
	wide, err := v.Layout(ctx)
	require.NoError(t, err)
	assert.Equal(t, 500.0, wide.Nodes["Start"].X+20)
	assert.Equal(t, 3, eng.calls)
}

func TestViewStructuralError(t *testing.T) {
	var measured int
	v := NewView(scenarioEngine(), growingMeasurer(&measured), Options{})
	g := scenarioGraph()
	delete(g.Nodes, "Start")
	v.SetGraph(g)

	l, err := v.Layout(context.Background())
	assert.True(t, errors.IsStructural(err))
	assert.True(t, l.IsEmpty())

	v.SetGraph(scenarioGraph())
	l, err = v.Layout(context.Background())
	require.NoError(t, err)
	assert.False(t, l.IsEmpty())
}

func TestViewSetGraphDropsRemovedKeys(t *testing.T) {
	v := NewView(scenarioEngine(), growingMeasurer(new(int)), Options{})
	v.SetGraph(scenarioGraph())
	v.Click("B")
	v.Click("A")
	require.Equal(t, []string{"A", "B"}, v.Expansion().Expanded())

	g := scenarioGraph()
	delete(g.Nodes, "A")
	g.Nodes["Start"].Transitions = []pathway.Transition{{Target: "B"}}
	v.SetGraph(g)

	assert.Equal(t, []string{"B"}, v.Expansion().Expanded())
	assert.Empty(t, v.Expansion().LastSelected())
	assert.Empty(t, v.Current())
	assert.True(t, v.Dirty())

	// A key that comes back starts collapsed.
	v.SetGraph(scenarioGraph())
	assert.False(t, v.Expansion().IsExpanded("A"))
	assert.True(t, v.Expansion().IsExpanded("B"))
}

func TestViewNoGraph(t *testing.T) {
	v := NewView(scenarioEngine(), nil, Options{})
	_, err := v.Layout(context.Background())
	assert.True(t, errors.Is(err, errors.ErrCodeMissingStart))
}
