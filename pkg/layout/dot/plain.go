package dot

import (
	"bufio"
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/matzehuels/pathwaygraph/pkg/geom"
	"github.com/matzehuels/pathwaygraph/pkg/layout"
)

// ParsePlain reads Graphviz "plain" output:
//
//	graph scale width height
//	node name x y width height label style shape color fillcolor
//	edge tail head n x1 y1 ... xn yn [label xl yl] style color
//	stop
//
// ids maps DOT node names back to node keys; names missing from ids are
// used as is. Coordinates are converted to top-left-origin pixels.
func ParsePlain(data []byte, ids map[string]string) (layout.Output, error) {
	out := layout.Output{Nodes: make(map[string]layout.OutputNode)}
	key := func(name string) string {
		if k, ok := ids[name]; ok {
			return k
		}
		return name
	}

	var height float64
	seenGraph := false
	sc := bufio.NewScanner(bytes.NewReader(data))
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	line := 0
	for sc.Scan() {
		line++
		f, err := fields(sc.Text())
		if err != nil {
			return layout.Output{}, fmt.Errorf("plain line %d: %w", line, err)
		}
		if len(f) == 0 {
			continue
		}
		switch f[0] {
		case "graph":
			if len(f) < 4 {
				return layout.Output{}, fmt.Errorf("plain line %d: short graph record", line)
			}
			h, err := num(f[3])
			if err != nil {
				return layout.Output{}, fmt.Errorf("plain line %d: %w", line, err)
			}
			height = h
			seenGraph = true

		case "node":
			if !seenGraph {
				return layout.Output{}, fmt.Errorf("plain line %d: node before graph record", line)
			}
			if len(f) < 6 {
				return layout.Output{}, fmt.Errorf("plain line %d: short node record", line)
			}
			v, err := nums(f[2:6])
			if err != nil {
				return layout.Output{}, fmt.Errorf("plain line %d: %w", line, err)
			}
			out.Nodes[key(f[1])] = layout.OutputNode{
				X:      v[0] * PointsPerInch,
				Y:      (height - v[1]) * PointsPerInch,
				Width:  v[2] * PointsPerInch,
				Height: v[3] * PointsPerInch,
			}

		case "edge":
			if !seenGraph {
				return layout.Output{}, fmt.Errorf("plain line %d: edge before graph record", line)
			}
			e, err := parseEdge(f, height, key)
			if err != nil {
				return layout.Output{}, fmt.Errorf("plain line %d: %w", line, err)
			}
			out.Edges = append(out.Edges, e)

		case "stop":
			return out, nil
		}
	}
	if err := sc.Err(); err != nil {
		return layout.Output{}, err
	}
	if !seenGraph {
		return layout.Output{}, fmt.Errorf("plain output has no graph record")
	}
	return out, nil
}

func parseEdge(f []string, height float64, key func(string) string) (layout.OutputEdge, error) {
	if len(f) < 4 {
		return layout.OutputEdge{}, fmt.Errorf("short edge record")
	}
	n, err := strconv.Atoi(f[3])
	if err != nil || n < 0 {
		return layout.OutputEdge{}, fmt.Errorf("bad point count %q", f[3])
	}
	if len(f) < 4+2*n {
		return layout.OutputEdge{}, fmt.Errorf("edge record has fewer than %d points", n)
	}

	e := layout.OutputEdge{From: key(f[1]), To: key(f[2])}
	for i := 0; i < n; i++ {
		v, err := nums(f[4+2*i : 6+2*i])
		if err != nil {
			return layout.OutputEdge{}, err
		}
		e.Points = append(e.Points, geom.Point{X: v[0] * PointsPerInch, Y: (height - v[1]) * PointsPerInch})
	}

	// Remaining fields are "style color" or "label xl yl style color".
	rest := f[4+2*n:]
	if len(rest) >= 5 {
		v, err := nums(rest[1:3])
		if err != nil {
			return layout.OutputEdge{}, err
		}
		e.Label = &layout.Label{
			Text: rest[0],
			X:    v[0] * PointsPerInch,
			Y:    (height - v[1]) * PointsPerInch,
		}
	}
	return e, nil
}

// fields splits a plain record, honoring double-quoted strings with
// backslash escapes.
func fields(s string) ([]string, error) {
	var out []string
	var cur strings.Builder
	inQuote, escaped, have := false, false, false
	for _, r := range s {
		switch {
		case escaped:
			cur.WriteRune(r)
			escaped = false
		case inQuote && r == '\\':
			escaped = true
		case r == '"':
			inQuote = !inQuote
			have = true
		case !inQuote && (r == ' ' || r == '\t'):
			if have {
				out = append(out, cur.String())
				cur.Reset()
				have = false
			}
		default:
			cur.WriteRune(r)
			have = true
		}
	}
	if inQuote {
		return nil, fmt.Errorf("unterminated string")
	}
	if have {
		out = append(out, cur.String())
	}
	return out, nil
}

func num(s string) (float64, error) {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("bad number %q", s)
	}
	return v, nil
}

func nums(ss []string) ([]float64, error) {
	out := make([]float64, len(ss))
	for i, s := range ss {
		v, err := num(s)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}
