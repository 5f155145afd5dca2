package layered

// placeY stacks the ranks top to bottom. Each node is vertically centered
// in its rank, whose height is that of its tallest node.
func (g *graph) placeY(rankSep float64) {
	top := 0.0
	for _, layer := range g.layers {
		h := 0.0
		for _, idx := range layer {
			h = max(h, g.nodes[idx].height)
		}
		for _, idx := range layer {
			g.nodes[idx].y = top + h/2
		}
		top += h + rankSep
	}
}

// placeX packs each rank around x = 0 and then runs alignment sweeps that
// pull nodes towards the mean x of their neighbors, keeping at least
// nodeSep between boxes.
func (g *graph) placeX(nodeSep float64) {
	for _, layer := range g.layers {
		total := 0.0
		for i, idx := range layer {
			if i > 0 {
				total += nodeSep
			}
			total += g.nodes[idx].width
		}
		cursor := -total / 2
		for _, idx := range layer {
			n := g.nodes[idx]
			n.x = cursor + n.width/2
			cursor += n.width + nodeSep
		}
	}

	for pass := 0; pass < 4; pass++ {
		for r := 1; r < len(g.layers); r++ {
			g.align(r, g.up, nodeSep)
		}
		for r := len(g.layers) - 2; r >= 0; r-- {
			g.align(r, g.down, nodeSep)
		}
	}
}

// align moves rank r towards the neighbors in adj. Nodes are placed left to
// right at their desired x or the closest legal spot; the whole rank is then
// shifted so the mean displacement from the desired positions is zero.
func (g *graph) align(r int, adj [][]int, nodeSep float64) {
	layer := g.layers[r]
	if len(layer) == 0 {
		return
	}
	desired := make([]float64, len(layer))
	for i, idx := range layer {
		n := g.nodes[idx]
		desired[i] = n.x
		if len(adj[idx]) == 0 {
			continue
		}
		sum := 0.0
		for _, nb := range adj[idx] {
			sum += g.nodes[nb].x
		}
		desired[i] = sum / float64(len(adj[idx]))
	}

	xs := make([]float64, len(layer))
	for i, idx := range layer {
		xs[i] = desired[i]
		if i > 0 {
			prev := g.nodes[layer[i-1]]
			minX := xs[i-1] + prev.width/2 + nodeSep + g.nodes[idx].width/2
			xs[i] = max(xs[i], minX)
		}
	}

	shift := 0.0
	for i := range xs {
		shift += desired[i] - xs[i]
	}
	shift /= float64(len(xs))
	for i, idx := range layer {
		g.nodes[idx].x = xs[i] + shift
	}
}
