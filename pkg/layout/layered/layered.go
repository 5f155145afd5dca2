package layered

import (
	"context"
	"fmt"
	"math"

	"github.com/matzehuels/pathwaygraph/pkg/geom"
	"github.com/matzehuels/pathwaygraph/pkg/layout"
)

const (
	DefaultRankSep = 60.0
	DefaultNodeSep = 40.0
	DefaultPasses  = 8

	// selfLoopReach is how far a self-loop bulges out of the node's right
	// side.
	selfLoopReach = 24.0
)

// Options configures the engine. Zero values fall back to the defaults.
type Options struct {
	RankSep float64 // vertical gap between ranks
	NodeSep float64 // horizontal gap between neighbors in a rank
	Passes  int     // ordering sweeps
}

// Engine is a [layout.Engine] backed by the layered algorithm.
type Engine struct {
	opts Options
}

// New creates an engine.
func New(opts Options) *Engine {
	if opts.RankSep <= 0 {
		opts.RankSep = DefaultRankSep
	}
	if opts.NodeSep <= 0 {
		opts.NodeSep = DefaultNodeSep
	}
	if opts.Passes <= 0 {
		opts.Passes = DefaultPasses
	}
	return &Engine{opts: opts}
}

// Name returns "layered".
func (e *Engine) Name() string { return "layered" }

// Layout computes node centers and edge routes for in.
func (e *Engine) Layout(ctx context.Context, in layout.Input) (layout.Output, error) {
	g, err := build(in)
	if err != nil {
		return layout.Output{}, err
	}
	if len(g.nodes) == 0 {
		return layout.Output{Nodes: map[string]layout.OutputNode{}}, nil
	}

	g.breakCycles()
	g.assignRanks()
	g.subdivide()
	if err := ctx.Err(); err != nil {
		return layout.Output{}, err
	}

	g.order(e.opts.Passes)
	if err := ctx.Err(); err != nil {
		return layout.Output{}, err
	}

	g.placeY(e.opts.RankSep)
	g.placeX(e.opts.NodeSep)

	out := layout.Output{Nodes: make(map[string]layout.OutputNode, g.real)}
	for i := 0; i < g.real; i++ {
		n := g.nodes[i]
		out.Nodes[n.id] = layout.OutputNode{X: n.x, Y: n.y, Width: n.width, Height: n.height}
	}
	for _, ie := range in.Edges {
		pts := g.route(g.index[ie.From], g.index[ie.To])
		oe := layout.OutputEdge{From: ie.From, To: ie.To, Points: pts}
		if ie.Label != "" {
			mid := pts[len(pts)/2]
			oe.Label = &layout.Label{Text: ie.Label, X: mid.X, Y: mid.Y}
		}
		out.Edges = append(out.Edges, oe)
	}
	return out, nil
}

// route returns the points for the edge from u to v.
func (g *graph) route(u, v int) []geom.Point {
	if u == v {
		return g.selfLoop(u)
	}

	var chain []int
	if c, ok := g.chains[[2]int{u, v}]; ok {
		chain = c
	} else {
		c := g.chains[[2]int{v, u}]
		chain = make([]int, len(c))
		for i, idx := range c {
			chain[len(c)-1-i] = idx
		}
	}

	src, dst := g.nodes[chain[0]], g.nodes[chain[len(chain)-1]]
	pts := make([]geom.Point, 0, len(chain)+1)
	pts = append(pts, boundary(src, g.nodes[chain[1]].y))
	for _, idx := range chain[1 : len(chain)-1] {
		pts = append(pts, geom.Point{X: g.nodes[idx].x, Y: g.nodes[idx].y})
	}
	end := boundary(dst, g.nodes[chain[len(chain)-2]].y)
	if len(chain) == 2 {
		pts = append(pts, geom.Point{X: (pts[0].X + end.X) / 2, Y: (pts[0].Y + end.Y) / 2})
	}
	return append(pts, end)
}

// boundary returns the point where a vertical edge towards towardY leaves
// the box of n.
func boundary(n *node, towardY float64) geom.Point {
	if towardY > n.y {
		return geom.Point{X: n.x, Y: n.y + n.height/2}
	}
	return geom.Point{X: n.x, Y: n.y - n.height/2}
}

func (g *graph) selfLoop(i int) []geom.Point {
	n := g.nodes[i]
	right := n.x + n.width/2
	return []geom.Point{
		{X: right, Y: n.y - n.height/4},
		{X: right + selfLoopReach, Y: n.y - n.height/4},
		{X: right + selfLoopReach, Y: n.y + n.height/4},
		{X: right, Y: n.y + n.height/4},
	}
}

func checkSize(id string, w, h float64) error {
	if math.IsNaN(w) || math.IsNaN(h) || math.IsInf(w, 0) || math.IsInf(h, 0) || w < 0 || h < 0 {
		return fmt.Errorf("node %q has invalid size %gx%g", id, w, h)
	}
	return nil
}
