package layered

import (
	"slices"
)

// order runs alternating barycenter sweeps and keeps the layer ordering
// with the fewest crossings.
func (g *graph) order(passes int) {
	best := cloneLayers(g.layers)
	bestCrossings := g.crossings()

	for pass := 0; pass < passes && bestCrossings > 0; pass++ {
		if pass%2 == 0 {
			for r := 1; r < len(g.layers); r++ {
				g.sortByBarycenter(r, g.up)
			}
		} else {
			for r := len(g.layers) - 2; r >= 0; r-- {
				g.sortByBarycenter(r, g.down)
			}
		}
		if c := g.crossings(); c < bestCrossings {
			bestCrossings = c
			best = cloneLayers(g.layers)
		}
	}

	g.layers = best
	for _, layer := range g.layers {
		for i, idx := range layer {
			g.nodes[idx].pos = i
		}
	}
}

// sortByBarycenter reorders rank r by the mean position of each node's
// neighbors in adj. Nodes without neighbors keep their position.
func (g *graph) sortByBarycenter(r int, adj [][]int) {
	layer := g.layers[r]
	bary := make(map[int]float64, len(layer))
	for _, idx := range layer {
		sum, n := 0.0, 0
		for _, nb := range adj[idx] {
			sum += float64(g.nodes[nb].pos)
			n++
		}
		if n > 0 {
			bary[idx] = sum / float64(n)
		} else {
			bary[idx] = float64(g.nodes[idx].pos)
		}
	}
	slices.SortStableFunc(layer, func(a, b int) int {
		switch {
		case bary[a] < bary[b]:
			return -1
		case bary[a] > bary[b]:
			return 1
		}
		return g.nodes[a].pos - g.nodes[b].pos
	})
	for i, idx := range layer {
		g.nodes[idx].pos = i
	}
}

// crossings counts edge crossings between all adjacent ranks.
func (g *graph) crossings() int {
	total := 0
	for r := 0; r+1 < len(g.layers); r++ {
		total += g.layerCrossings(g.layers[r], len(g.layers[r+1]))
	}
	return total
}

// layerCrossings counts inversions of lower positions when edges are taken
// in upper order, using a Fenwick tree.
func (g *graph) layerCrossings(upper []int, lowerLen int) int {
	type edge struct{ upper, lower int }
	var edges []edge
	for _, idx := range upper {
		for _, child := range g.down[idx] {
			edges = append(edges, edge{g.nodes[idx].pos, g.nodes[child].pos})
		}
	}
	if len(edges) < 2 {
		return 0
	}
	slices.SortFunc(edges, func(a, b edge) int {
		if a.upper != b.upper {
			return a.upper - b.upper
		}
		return a.lower - b.lower
	})

	fenwick := make([]int, lowerLen+1)
	crossings, total := 0, 0
	for _, e := range edges {
		lessOrEqual := 0
		for q := e.lower + 1; q > 0; q -= q & (-q) {
			lessOrEqual += fenwick[q]
		}
		crossings += total - lessOrEqual
		total++
		for i := e.lower + 1; i < len(fenwick); i += i & (-i) {
			fenwick[i]++
		}
	}
	return crossings
}

func cloneLayers(layers [][]int) [][]int {
	out := make([][]int, len(layers))
	for i, l := range layers {
		out[i] = slices.Clone(l)
	}
	return out
}
