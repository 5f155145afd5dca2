package layered

import (
	"fmt"

	"github.com/matzehuels/pathwaygraph/pkg/layout"
	"github.com/matzehuels/pathwaygraph/pkg/pathway"
)

// node is a real or virtual node. Real nodes occupy indices [0, real).
type node struct {
	id      string
	width   float64
	height  float64
	virtual bool

	rank int
	pos  int // index within its rank
	x, y float64
}

type graph struct {
	nodes []*node
	real  int
	index map[string]int

	out      [][]int // deduplicated input adjacency, self-loops excluded
	reversed map[[2]int]bool

	// dag holds the acyclic edges (u, v) in discovery order.
	dag [][2]int

	// chains maps a dag edge to the node path [u, virtual..., v].
	chains map[[2]int][]int

	// down and up link nodes in adjacent ranks after subdivision.
	down [][]int
	up   [][]int

	layers [][]int
}

func build(in layout.Input) (*graph, error) {
	g := &graph{
		index:    make(map[string]int, len(in.Nodes)),
		reversed: make(map[[2]int]bool),
		chains:   make(map[[2]int][]int),
	}
	for _, n := range in.Nodes {
		if _, dup := g.index[n.ID]; dup {
			return nil, fmt.Errorf("duplicate node %q", n.ID)
		}
		if err := checkSize(n.ID, n.Width, n.Height); err != nil {
			return nil, err
		}
		g.index[n.ID] = len(g.nodes)
		g.nodes = append(g.nodes, &node{id: n.ID, width: n.Width, height: n.Height})
	}
	g.real = len(g.nodes)
	g.out = make([][]int, g.real)

	seen := make(map[[2]int]bool)
	for _, e := range in.Edges {
		u, ok := g.index[e.From]
		if !ok {
			return nil, fmt.Errorf("edge from unknown node %q", e.From)
		}
		v, ok := g.index[e.To]
		if !ok {
			return nil, fmt.Errorf("edge to unknown node %q", e.To)
		}
		if u == v || seen[[2]int{u, v}] {
			continue
		}
		seen[[2]int{u, v}] = true
		g.out[u] = append(g.out[u], v)
	}
	return g, nil
}

// breakCycles marks back edges found by a white/gray/black DFS started from
// Start, then from every source, then from any node left unvisited. Every
// edge into Start is reversed so that Start keeps the top rank.
func (g *graph) breakCycles() {
	const (
		white = iota
		gray
		black
	)
	color := make([]int, g.real)
	indeg := make([]int, g.real)
	for u := range g.out {
		for _, v := range g.out[u] {
			indeg[v]++
		}
	}

	var dfs func(u int)
	dfs = func(u int) {
		color[u] = gray
		for _, v := range g.out[u] {
			switch color[v] {
			case white:
				dfs(v)
			case gray:
				g.reversed[[2]int{u, v}] = true
			}
		}
		color[u] = black
	}
	if s, ok := g.index[pathway.StartKey]; ok {
		for u := range g.out {
			for _, v := range g.out[u] {
				if v == s {
					g.reversed[[2]int{u, v}] = true
				}
			}
		}
		dfs(s)
	}
	for u := 0; u < g.real; u++ {
		if indeg[u] == 0 && color[u] == white {
			dfs(u)
		}
	}
	for u := 0; u < g.real; u++ {
		if color[u] == white {
			dfs(u)
		}
	}

	seen := make(map[[2]int]bool)
	for u := range g.out {
		for _, v := range g.out[u] {
			e := [2]int{u, v}
			if g.reversed[e] {
				e = [2]int{v, u}
			}
			if !seen[e] {
				seen[e] = true
				g.dag = append(g.dag, e)
			}
		}
	}
}

// assignRanks places every node one rank below its deepest parent
// (longest path, Kahn order).
func (g *graph) assignRanks() {
	children := make([][]int, g.real)
	indeg := make([]int, g.real)
	for _, e := range g.dag {
		children[e[0]] = append(children[e[0]], e[1])
		indeg[e[1]]++
	}

	queue := make([]int, 0, g.real)
	for u := 0; u < g.real; u++ {
		if indeg[u] == 0 {
			queue = append(queue, u)
		}
	}
	for len(queue) > 0 {
		u := queue[0]
		queue = queue[1:]
		for _, v := range children[u] {
			if r := g.nodes[u].rank + 1; r > g.nodes[v].rank {
				g.nodes[v].rank = r
			}
			indeg[v]--
			if indeg[v] == 0 {
				queue = append(queue, v)
			}
		}
	}
}

// subdivide replaces every dag edge that spans more than one rank by a
// chain of virtual nodes and fills the rank lists.
func (g *graph) subdivide() {
	maxRank := 0
	for _, n := range g.nodes {
		maxRank = max(maxRank, n.rank)
	}
	g.layers = make([][]int, maxRank+1)
	for i := 0; i < g.real; i++ {
		r := g.nodes[i].rank
		g.layers[r] = append(g.layers[r], i)
	}

	link := func(a, b int) {
		for len(g.down) < len(g.nodes) {
			g.down = append(g.down, nil)
			g.up = append(g.up, nil)
		}
		g.down[a] = append(g.down[a], b)
		g.up[b] = append(g.up[b], a)
	}

	for _, e := range g.dag {
		u, v := e[0], e[1]
		chain := []int{u}
		prev := u
		for r := g.nodes[u].rank + 1; r < g.nodes[v].rank; r++ {
			idx := len(g.nodes)
			g.nodes = append(g.nodes, &node{virtual: true, rank: r})
			g.layers[r] = append(g.layers[r], idx)
			link(prev, idx)
			chain = append(chain, idx)
			prev = idx
		}
		link(prev, v)
		g.chains[e] = append(chain, v)
	}
	for len(g.down) < len(g.nodes) {
		g.down = append(g.down, nil)
		g.up = append(g.up, nil)
	}

	for _, layer := range g.layers {
		for i, idx := range layer {
			g.nodes[idx].pos = i
		}
	}
}
