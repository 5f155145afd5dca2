package dot

import (
	"context"
	"reflect"
	"strings"
	"testing"

	"github.com/matzehuels/pathwaygraph/pkg/geom"
	"github.com/matzehuels/pathwaygraph/pkg/layout"
)

func sampleInput() layout.Input {
	return layout.Input{
		Nodes: []layout.InputNode{
			{ID: "A", Width: 60, Height: 30},
			{ID: "B", Width: 60, Height: 30},
			{ID: "Start", Width: 40, Height: 20},
		},
		Edges: []layout.InputEdge{
			{From: "A", To: "B", Label: `say "yes"`},
			{From: "Start", To: "A"},
		},
	}
}

func TestToDOT(t *testing.T) {
	src, ids := ToDOT(sampleInput(), New(Options{}).opts)

	if !strings.Contains(src, "digraph pathway") {
		t.Error("ToDOT() output missing digraph declaration")
	}
	if !strings.Contains(src, "fixedsize=true") {
		t.Error("ToDOT() output missing fixed-size nodes")
	}
	if !strings.Contains(src, "n2 [width=0.5556, height=0.2778];") {
		t.Errorf("ToDOT() output missing sized Start node:\n%s", src)
	}
	if !strings.Contains(src, `n0 -> n1 [label="say \"yes\""];`) {
		t.Errorf("ToDOT() output missing labeled edge:\n%s", src)
	}
	if !strings.Contains(src, "n2 -> n0;") {
		t.Error("ToDOT() output missing unlabeled edge")
	}
	want := map[string]string{"n0": "A", "n1": "B", "n2": "Start"}
	if !reflect.DeepEqual(ids, want) {
		t.Errorf("ToDOT() ids = %v, want %v", ids, want)
	}
}

// loopInput has a transition from B back to Start and a self loop on A.
func loopInput() layout.Input {
	return layout.Input{
		Nodes: []layout.InputNode{
			{ID: "A", Width: 60, Height: 30},
			{ID: "B", Width: 60, Height: 30},
			{ID: "Start", Width: 40, Height: 20},
		},
		Edges: []layout.InputEdge{
			{From: "Start", To: "A"},
			{From: "A", To: "B"},
			{From: "B", To: "Start", Label: "again"},
			{From: "A", To: "A"},
		},
	}
}

func TestToDOTEdgeIntoStart(t *testing.T) {
	src, _ := ToDOT(loopInput(), New(Options{}).opts)

	if !strings.Contains(src, "{rank=min; n2;}") {
		t.Errorf("ToDOT() output does not pin Start to the top rank:\n%s", src)
	}
	if !strings.Contains(src, `n1 -> n2 [label="again", constraint=false];`) {
		t.Errorf("ToDOT() output constrains ranking with the edge into Start:\n%s", src)
	}
	if !strings.Contains(src, "n2 -> n0;") || !strings.Contains(src, "n0 -> n0;") {
		t.Errorf("ToDOT() output changed edges that do not enter Start:\n%s", src)
	}
	if i, j := strings.Index(src, "  n2 ["), strings.Index(src, "  n0 ["); i < 0 || j < 0 || i > j {
		t.Errorf("ToDOT() output does not declare Start first:\n%s", src)
	}
}

const samplePlain = `graph 1 1.5 2.0
node n0 0.75 1.75 0.5556 0.2778 "" solid box black lightgrey
node n1 0.75 0.5 0.8333 0.4167 "" solid box black lightgrey
edge n0 n1 4 0.75 1.5 0.75 1.25 0.75 1.0 0.75 0.75 "has space" 1 1.25 solid black
edge n1 n0 2 0.75 0.75 0.75 1.5 solid black
stop
`

func TestParsePlain(t *testing.T) {
	out, err := ParsePlain([]byte(samplePlain), map[string]string{"n0": "Start", "n1": "A"})
	if err != nil {
		t.Fatalf("ParsePlain() error: %v", err)
	}

	start := out.Nodes["Start"]
	if start.X != 54 || start.Y != 18 {
		t.Errorf("Start = (%v, %v), want (54, 18)", start.X, start.Y)
	}
	if a := out.Nodes["A"]; a.Y != 108 {
		t.Errorf("A.Y = %v, want 108", a.Y)
	}

	if len(out.Edges) != 2 {
		t.Fatalf("got %d edges, want 2", len(out.Edges))
	}
	e := out.Edges[0]
	if e.From != "Start" || e.To != "A" {
		t.Errorf("edge = %s -> %s, want Start -> A", e.From, e.To)
	}
	wantPts := []geom.Point{{X: 54, Y: 36}, {X: 54, Y: 54}, {X: 54, Y: 72}, {X: 54, Y: 90}}
	if !reflect.DeepEqual(e.Points, wantPts) {
		t.Errorf("points = %v, want %v", e.Points, wantPts)
	}
	if e.Label == nil || e.Label.Text != "has space" || e.Label.X != 72 || e.Label.Y != 54 {
		t.Errorf("label = %+v, want has space at (72, 54)", e.Label)
	}
	if out.Edges[1].Label != nil {
		t.Errorf("unlabeled edge got label %+v", out.Edges[1].Label)
	}
}

func TestParsePlainErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"empty", ""},
		{"node before graph", "node n0 1 1 1 1\nstop\n"},
		{"short node", "graph 1 1 1\nnode n0 1 1\n"},
		{"bad number", "graph 1 1 1\nnode n0 x 1 1 1\n"},
		{"short edge", "graph 1 1 1\nedge n0 n1 3 0 0 1 1\n"},
		{"unterminated", "graph 1 1 1\nnode \"n0 1 1 1 1\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ParsePlain([]byte(tt.input), nil); err == nil {
				t.Error("ParsePlain() expected error")
			}
		})
	}
}

func TestFields(t *testing.T) {
	got, err := fields(`edge a "b c" 2 "say \"hi\"" ""`)
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"edge", "a", "b c", "2", `say "hi"`, ""}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("fields() = %q, want %q", got, want)
	}
}

func TestEngineLayout(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping graphviz run in short mode")
	}
	in := sampleInput()
	out, err := New(Options{}).Layout(context.Background(), in)
	if err != nil {
		t.Fatalf("Layout() error: %v", err)
	}

	for _, n := range in.Nodes {
		pos, ok := out.Nodes[n.ID]
		if !ok {
			t.Fatalf("node %s missing", n.ID)
		}
		if pos.Width != n.Width || pos.Height != n.Height {
			t.Errorf("node %s size = %vx%v, want %vx%v", n.ID, pos.Width, pos.Height, n.Width, n.Height)
		}
	}
	if s, a, b := out.Nodes["Start"], out.Nodes["A"], out.Nodes["B"]; !(s.Y < a.Y && a.Y < b.Y) {
		t.Errorf("ranks not top to bottom: Start=%v A=%v B=%v", s.Y, a.Y, b.Y)
	}

	if len(out.Edges) != 2 {
		t.Fatalf("got %d edges, want 2", len(out.Edges))
	}
	for _, e := range out.Edges {
		if len(e.Points) < 2 {
			t.Errorf("edge %s -> %s has %d points", e.From, e.To, len(e.Points))
		}
	}
	for _, e := range out.Edges {
		if e.From == "A" && (e.Label == nil || e.Label.Text != `say "yes"`) {
			t.Errorf("edge A -> B label = %+v", e.Label)
		}
	}
}

func TestEngineLayoutBackEdgeToStart(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping graphviz run in short mode")
	}
	out, err := New(Options{}).Layout(context.Background(), loopInput())
	if err != nil {
		t.Fatalf("Layout() error: %v", err)
	}
	if s, a, b := out.Nodes["Start"], out.Nodes["A"], out.Nodes["B"]; !(s.Y < a.Y && a.Y < b.Y) {
		t.Errorf("Start not on top: Start=%v A=%v B=%v", s.Y, a.Y, b.Y)
	}
	if len(out.Edges) != 4 {
		t.Fatalf("got %d edges, want 4", len(out.Edges))
	}
}
