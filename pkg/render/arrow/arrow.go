// Package arrow builds SVG connector paths from layout edge routes.
//
// Route points are grouped into cubic Bézier segments. The first group
// starts at index len(points) % 3 so that the last group always ends on the
// final point: a connector ends exactly on its target whatever the number
// of intermediate points the layout engine produced.
package arrow

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/matzehuels/pathwaygraph/pkg/geom"
	"github.com/matzehuels/pathwaygraph/pkg/layout"
	"github.com/matzehuels/pathwaygraph/pkg/pathway"
)

// Op is a path command.
type Op byte

const (
	MoveTo  Op = 'M'
	CurveTo Op = 'C'
)

// Command is one path command with its points: one for MoveTo, three
// (control, control, end) for CurveTo.
type Command struct {
	Op     Op
	Points []geom.Point
}

// Path is a connector path.
type Path struct {
	Commands []Command
}

// Build shifts points right by widthOffset, raises the final point by
// [geom.ArrowheadClearance] and builds the curve. points is not modified.
//
// The raise applies on top of the one [layout.Normalize] already made, so a
// rendered connector ends ArrowheadClearance above its normalized last point.
func Build(points []geom.Point, widthOffset float64) Path {
	pts := make([]geom.Point, len(points))
	for i, p := range points {
		pts[i] = p.Add(widthOffset, 0)
	}
	if n := len(pts); n > 0 {
		pts[n-1].Y -= geom.ArrowheadClearance
	}
	return Curve(pts)
}

// Curve builds the path through points: a MoveTo the first point, then one
// CurveTo per triple starting at len(points) % 3. Two points, which hold no
// complete triple, become a single straight cubic p0 p1 p1.
func Curve(points []geom.Point) Path {
	n := len(points)
	if n == 0 {
		return Path{}
	}
	p := Path{Commands: []Command{{Op: MoveTo, Points: []geom.Point{points[0]}}}}
	if n == 2 {
		p.Commands = append(p.Commands, Command{Op: CurveTo, Points: []geom.Point{points[0], points[1], points[1]}})
		return p
	}
	for i := n % 3; i+2 < n; i += 3 {
		p.Commands = append(p.Commands, Command{
			Op:     CurveTo,
			Points: []geom.Point{points[i], points[i+1], points[i+2]},
		})
	}
	return p
}

// End returns the final point of the path.
func (p Path) End() (geom.Point, bool) {
	if len(p.Commands) == 0 {
		return geom.Point{}, false
	}
	last := p.Commands[len(p.Commands)-1]
	return last.Points[len(last.Points)-1], true
}

// IsEmpty reports whether the path has no commands.
func (p Path) IsEmpty() bool { return len(p.Commands) == 0 }

// String renders p as an SVG path "d" attribute.
func (p Path) String() string {
	var b strings.Builder
	for i, c := range p.Commands {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteByte(byte(c.Op))
		for _, pt := range c.Points {
			b.WriteByte(' ')
			b.WriteString(num(pt.X))
			b.WriteByte(',')
			b.WriteString(num(pt.Y))
		}
	}
	return b.String()
}

func num(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// RenderLabel writes label as an SVG text element at its anchor plus
// (dx, dy). A nil label writes nothing.
func RenderLabel(w io.Writer, label *layout.Label, dx, dy float64) error {
	if label == nil {
		return nil
	}
	_, err := fmt.Fprintf(w, `<text class="edge-label" x="%s" y="%s" text-anchor="middle">%s</text>`,
		num(label.X+dx), num(label.Y+dy), escape(label.Text))
	return err
}

func escape(s string) string {
	var buf bytes.Buffer
	xml.EscapeText(&buf, []byte(s))
	return buf.String()
}

// ActiveBranch reports whether e leaves the current node and that node is a
// branch. Branch edges of the current node are drawn highlighted.
func ActiveBranch(e layout.Edge, g *pathway.Graph, current string) bool {
	if current == "" || e.Start != current {
		return false
	}
	n, ok := g.Node(current)
	if !ok {
		return false
	}
	switch n.Kind {
	case pathway.KindBranch:
		return true
	case pathway.KindStart, pathway.KindAction, pathway.KindReference, pathway.KindOther:
		return false
	default:
		return false
	}
}
