package layout

import (
	"context"
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/pathwaygraph/pkg/errors"
	"github.com/matzehuels/pathwaygraph/pkg/geom"
	"github.com/matzehuels/pathwaygraph/pkg/pathway"
)

// stubEngine places nodes at fixed centers and routes every edge as a
// straight segment between centers, optionally with a midpoint.
type stubEngine struct {
	centers map[string]geom.Point
	mid     bool
	reverse bool
	err     error

	calls int
	last  Input
}

func (s *stubEngine) Name() string { return "stub" }

func (s *stubEngine) Layout(_ context.Context, in Input) (Output, error) {
	s.calls++
	s.last = in
	if s.err != nil {
		return Output{}, s.err
	}
	out := Output{Nodes: make(map[string]OutputNode)}
	for _, n := range in.Nodes {
		c, ok := s.centers[n.ID]
		if !ok {
			continue
		}
		out.Nodes[n.ID] = OutputNode{X: c.X, Y: c.Y, Width: n.Width, Height: n.Height}
	}
	for _, e := range in.Edges {
		from, to := s.centers[e.From], s.centers[e.To]
		pts := []geom.Point{from}
		if s.mid {
			pts = append(pts, geom.Point{X: (from.X + to.X) / 2, Y: (from.Y + to.Y) / 2})
		}
		pts = append(pts, to)
		if s.reverse {
			pts[0], pts[len(pts)-1] = pts[len(pts)-1], pts[0]
		}
		oe := OutputEdge{From: e.From, To: e.To, Points: pts}
		if e.Label != "" {
			oe.Label = &Label{Text: e.Label, X: (from.X + to.X) / 2, Y: (from.Y + to.Y) / 2}
		}
		out.Edges = append(out.Edges, oe)
	}
	return out, nil
}

func scenarioGraph() *pathway.Graph {
	return pathway.New(
		&pathway.Node{Key: "Start", Kind: pathway.KindStart, Transitions: []pathway.Transition{{Target: "A"}}},
		&pathway.Node{Key: "A", Kind: pathway.KindBranch, Transitions: []pathway.Transition{
			{Target: "B", Label: "yes"},
			{Target: "C"},
		}},
		&pathway.Node{Key: "B", Kind: pathway.KindAction},
		&pathway.Node{Key: "C", Kind: pathway.KindAction},
	)
}

func scenarioDims() Dimensions {
	return Dimensions{
		"Start": {Width: 40, Height: 20},
		"A":     {Width: 60, Height: 30},
		"B":     {Width: 60, Height: 30},
		"C":     {Width: 60, Height: 30},
	}
}

func scenarioEngine() *stubEngine {
	return &stubEngine{
		mid: true,
		centers: map[string]geom.Point{
			"Start": {X: 100, Y: 10},
			"A":     {X: 100, Y: 60},
			"B":     {X: 50, Y: 120},
			"C":     {X: 150, Y: 120},
		},
	}
}

// =============================================================================
// Adapter
// =============================================================================

func TestComputeLayoutSizes(t *testing.T) {
	eng := scenarioEngine()
	dims := scenarioDims()
	delete(dims, "C")

	raw, err := ComputeLayout(context.Background(), eng, scenarioGraph(), dims, Options{})
	require.NoError(t, err)

	assert.Equal(t, []string{"C"}, raw.Pending)
	assert.Equal(t, DefaultNodeSize.Width, raw.Nodes["C"].Width)
	assert.Equal(t, DefaultNodeSize.Height, raw.Nodes["C"].Height)
	assert.Equal(t, 60.0, raw.Nodes["A"].Width)
	assert.Equal(t, pathway.KindBranch, raw.Nodes["A"].Kind)

	require.Len(t, eng.last.Nodes, 4)
	assert.Equal(t, "A", eng.last.Nodes[0].ID, "nodes sent in sorted order")
	assert.Equal(t, []InputEdge{
		{From: "A", To: "B", Label: "yes"},
		{From: "A", To: "C"},
		{From: "Start", To: "A"},
	}, eng.last.Edges)
}

func TestComputeLayoutCollapsesParallelTransitions(t *testing.T) {
	g := scenarioGraph()
	g.Nodes["A"].Transitions = []pathway.Transition{
		{ID: "t1", Target: "B", Label: "first"},
		{ID: "t2", Target: "C"},
		{ID: "t3", Target: "B", Label: "second"},
	}

	raw, err := ComputeLayout(context.Background(), scenarioEngine(), g, scenarioDims(), Options{})
	require.NoError(t, err)

	assert.Len(t, raw.Edges, 3)
	assert.Equal(t, []string{"A, B"}, raw.Collapsed)
	require.NotNil(t, raw.Edges["A, B"].Label)
	assert.Equal(t, "first", raw.Edges["A, B"].Label.Text)
}

func TestComputeLayoutOrientsRoutes(t *testing.T) {
	eng := scenarioEngine()
	eng.reverse = true

	raw, err := ComputeLayout(context.Background(), eng, scenarioGraph(), scenarioDims(), Options{})
	require.NoError(t, err)

	e := raw.Edges["A, B"]
	assert.Equal(t, geom.Point{X: 100, Y: 60}, e.Points[0])
	assert.Equal(t, geom.Point{X: 50, Y: 120}, e.Points[len(e.Points)-1])
}

func TestComputeLayoutErrors(t *testing.T) {
	tests := []struct {
		name   string
		graph  func() *pathway.Graph
		engine func() *stubEngine
		code   errors.Code
	}{
		{
			name: "missing start",
			graph: func() *pathway.Graph {
				g := scenarioGraph()
				delete(g.Nodes, "Start")
				return g
			},
			engine: scenarioEngine,
			code:   errors.ErrCodeMissingStart,
		},
		{
			name: "dangling transition",
			graph: func() *pathway.Graph {
				g := scenarioGraph()
				g.Nodes["B"].Transitions = []pathway.Transition{{Target: "Nowhere"}}
				return g
			},
			engine: scenarioEngine,
			code:   errors.ErrCodeDanglingTransition,
		},
		{
			name:  "engine failure",
			graph: scenarioGraph,
			engine: func() *stubEngine {
				e := scenarioEngine()
				e.err = fmt.Errorf("cycle")
				return e
			},
			code: errors.ErrCodeLayoutFailed,
		},
		{
			name:  "node without position",
			graph: scenarioGraph,
			engine: func() *stubEngine {
				e := scenarioEngine()
				delete(e.centers, "C")
				return e
			},
			code: errors.ErrCodeLayoutFailed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw, err := ComputeLayout(context.Background(), tt.engine(), tt.graph(), scenarioDims(), Options{})
			require.Error(t, err)
			assert.Equal(t, tt.code, errors.GetCode(err))
			assert.Empty(t, raw.Nodes)
			assert.Empty(t, raw.Edges)
		})
	}
}

func TestComputeLayoutNilEngine(t *testing.T) {
	_, err := ComputeLayout(context.Background(), nil, scenarioGraph(), nil, Options{})
	assert.True(t, errors.Is(err, errors.ErrCodeInvalidEngine))
}

// =============================================================================
// Normalizer
// =============================================================================

func TestScenario(t *testing.T) {
	l, err := ComputeAndNormalize(context.Background(), scenarioEngine(), scenarioGraph(), scenarioDims(), NewExpansion(), 800, Options{})
	require.NoError(t, err)

	start := l.Nodes["Start"]
	assert.Equal(t, 400.0, start.X+20)
	assert.Equal(t, 16.0, start.Y)
	assert.Zero(t, l.Correction)

	for _, k := range []string{"A", "B", "C"} {
		assert.GreaterOrEqual(t, l.Nodes[k].X, 0.0, k)
	}
	assert.Equal(t, 370.0, l.Nodes["A"].X)
	assert.Equal(t, 320.0, l.Nodes["B"].X)
	assert.Equal(t, 420.0, l.Nodes["C"].X)

	for _, name := range []string{"A, B", "A, C"} {
		e, ok := l.Edges[name]
		require.True(t, ok, name)
		require.GreaterOrEqual(t, len(e.Points), 2)
		rawLastY := 120.0 + DefaultYOffset
		assert.Equal(t, rawLastY-geom.ArrowheadClearance, e.Points[len(e.Points)-1].Y, name)
	}

	ab := l.Edges["A, B"]
	assert.Equal(t, []geom.Point{{X: 400, Y: 76}, {X: 375, Y: 106}, {X: 350, Y: 118.5}}, ab.Points)
	require.NotNil(t, ab.Label)
	assert.Equal(t, Label{Text: "yes", X: 375, Y: 106}, *ab.Label)
	assert.Nil(t, l.Edges["A, C"].Label)
}

func TestNormalizeCorrection(t *testing.T) {
	raw := Raw{
		Nodes: map[string]RawNode{
			"Start": {Key: "Start", X: 0, Y: 0, Width: 40, Height: 20},
			"Far":   {Key: "Far", X: -500, Y: 100, Width: 60, Height: 20},
		},
		Edges: map[string]Edge{
			"Start, Far": {Name: "Start, Far", Start: "Start", End: "Far", Points: []geom.Point{{X: 0, Y: 0}, {X: -500, Y: 100}}},
		},
	}

	l, err := Normalize(raw, 200, Options{})
	require.NoError(t, err)

	assert.Equal(t, 430.0, l.Correction)
	assert.Equal(t, 0.0, l.Nodes["Far"].X)
	assert.Equal(t, 510.0, l.Nodes["Start"].X)
	assert.Equal(t, 100.0+l.Correction, l.Nodes["Start"].X+l.Nodes["Start"].Width/2)
	assert.Equal(t, []geom.Point{{X: 530, Y: 16}, {X: 30, Y: 98.5}}, l.Edges["Start, Far"].Points)
}

func TestNormalizeNonFinite(t *testing.T) {
	raw := Raw{
		Nodes: map[string]RawNode{
			"Start": {Key: "Start", X: 50, Y: 10, Width: 20, Height: 20},
		},
		Edges: map[string]Edge{
			"Start, Start": {Name: "Start, Start", Start: "Start", End: "Start", Points: []geom.Point{
				{X: math.NaN(), Y: 10},
				{X: 50, Y: math.Inf(1)},
			}},
		},
	}

	l, err := Normalize(raw, 100, Options{})
	require.NoError(t, err)

	pts := l.Edges["Start, Start"].Points
	assert.Equal(t, geom.Point{X: 0, Y: 26}, pts[0])
	assert.Equal(t, geom.Point{X: 50, Y: 16 - geom.ArrowheadClearance}, pts[1])
}

func TestNormalizeMissingStart(t *testing.T) {
	raw := Raw{Nodes: map[string]RawNode{"A": {Key: "A", Width: 10, Height: 10}}}
	l, err := Normalize(raw, 100, Options{})
	assert.True(t, errors.Is(err, errors.ErrCodeMissingStart))
	assert.True(t, l.IsEmpty())
}

func TestNormalizeDoesNotAlias(t *testing.T) {
	raw, err := ComputeLayout(context.Background(), scenarioEngine(), scenarioGraph(), scenarioDims(), Options{})
	require.NoError(t, err)
	before := geom.Clone(raw.Edges["A, B"].Points)

	l, err := Normalize(raw, 800, Options{})
	require.NoError(t, err)
	l.Edges["A, B"].Points[0].X = -1

	assert.Equal(t, before, raw.Edges["A, B"].Points)
}

func TestNormalizeYOffset(t *testing.T) {
	raw := Raw{Nodes: map[string]RawNode{"Start": {Key: "Start", X: 0, Y: 10, Width: 20, Height: 20}}}

	l, err := Normalize(raw, 100, Options{YOffset: -1})
	require.NoError(t, err)
	assert.Equal(t, 0.0, l.Nodes["Start"].Y)

	l, err = Normalize(raw, 100, Options{YOffset: 40})
	require.NoError(t, err)
	assert.Equal(t, 40.0, l.Nodes["Start"].Y)
}

// =============================================================================
// Layout accessors
// =============================================================================

func TestBox(t *testing.T) {
	l, err := ComputeAndNormalize(context.Background(), scenarioEngine(), scenarioGraph(), scenarioDims(), NewExpansion(), 800, Options{})
	require.NoError(t, err)

	b, ok := l.Box("A")
	assert.True(t, ok)
	assert.Equal(t, "A", b.Key)

	b, ok = l.Box("Ghost")
	assert.False(t, ok)
	assert.Equal(t, geom.OffCanvas, geom.Point{X: b.X, Y: b.Y})
}

func TestExpandedStamped(t *testing.T) {
	exp := NewExpansion()
	exp.Click("B")

	l, err := ComputeAndNormalize(context.Background(), scenarioEngine(), scenarioGraph(), scenarioDims(), exp, 800, Options{})
	require.NoError(t, err)
	assert.True(t, l.Nodes["B"].Expanded)
	assert.False(t, l.Nodes["A"].Expanded)
}

func TestExtentOf(t *testing.T) {
	l := Layout{Nodes: map[string]NodeBox{
		"Start": {X: 10, Y: 16, Width: 40, Height: 20},
		"A":     {X: 100, Y: 80, Width: 60, Height: 30},
		"B":     {X: 0, Y: 200, Width: 20, Height: 30},
	}}
	assert.Equal(t, Extent{MaxWidth: 160, MaxHeight: 200}, ExtentOf(l))
	assert.Equal(t, Extent{}, ExtentOf(Layout{}))
}

func TestEdgeName(t *testing.T) {
	assert.Equal(t, "A, B", EdgeName("A", "B"))
}

func TestDocumentRoundTrip(t *testing.T) {
	exp := NewExpansion()
	exp.Click("A")
	l, err := ComputeAndNormalize(context.Background(), scenarioEngine(), scenarioGraph(), scenarioDims(), exp, 800, Options{})
	require.NoError(t, err)

	doc := NewDocument("scenario", "stub", 800, exp, l)
	data, err := MarshalDocument(doc)
	require.NoError(t, err)

	got, err := UnmarshalDocument(data)
	require.NoError(t, err)
	assert.Equal(t, doc, got)
	assert.Equal(t, []string{"A"}, got.Expanded)

	_, err = UnmarshalDocument([]byte(`{"engine":"stub"}`))
	assert.Error(t, err)
}
