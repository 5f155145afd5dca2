package source

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"

	"github.com/matzehuels/pathwaygraph/pkg/errors"
	"github.com/matzehuels/pathwaygraph/pkg/pathway"
)

const minimalJSON = `{
  "name": "Minimal",
  "nodes": {
    "Start": {"kind": "start", "transitions": [{"target": "A"}]},
    "A": {"kind": "action", "label": "Treat"}
  }
}`

const minimalYAML = `name: Minimal
nodes:
  Start:
    kind: start
    transitions:
      - target: A
  A:
    kind: action
`

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestFilesLoad(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "minimal.json", minimalJSON)
	writeFile(t, dir, "cardio/chest.yaml", minimalYAML)
	src := NewFiles(dir)
	ctx := context.Background()

	tests := []struct {
		id   string
		want string
	}{
		{"minimal", "minimal"},
		{"minimal.json", "minimal.json"},
		{"cardio/chest", "cardio/chest"},
	}
	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			g, err := src.Load(ctx, tt.id)
			require.NoError(t, err)
			assert.Equal(t, tt.want, g.ID)
			assert.Equal(t, 2, g.NodeCount())
		})
	}
}

func TestFilesLoadErrors(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "broken.json", `{"nodes": {"A": {"kind": "action"}}}`)
	require.NoError(t, os.Mkdir(filepath.Join(dir, "folder.json"), 0o755))
	src := NewFiles(dir)
	ctx := context.Background()

	tests := []struct {
		id   string
		code errors.Code
	}{
		{"missing", errors.ErrCodeNotFound},
		{"../etc/passwd", errors.ErrCodeInvalidPath},
		{"/abs", errors.ErrCodeInvalidPath},
		{"", errors.ErrCodeInvalidPath},
		{"folder", errors.ErrCodeNotFound},
		{"broken", errors.ErrCodeMissingStart},
	}
	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			_, err := src.Load(ctx, tt.id)
			assert.True(t, errors.Is(err, tt.code), "got %v, want %s", err, tt.code)
		})
	}
}

func TestDecodeDocument(t *testing.T) {
	doc := bson.D{
		{Key: "_id", Value: "chest-pain"},
		{Key: "name", Value: "Chest pain"},
		{Key: "nodes", Value: bson.D{
			{Key: "Start", Value: bson.D{
				{Key: "kind", Value: "start"},
				{Key: "transitions", Value: bson.A{bson.D{{Key: "target", Value: "A"}, {Key: "label", Value: "go"}}}},
			}},
			{Key: "A", Value: bson.D{
				{Key: "kind", Value: "branch"},
				{Key: "details", Value: bson.A{"one", "two"}},
			}},
		}},
	}
	raw, err := bson.Marshal(doc)
	require.NoError(t, err)

	g, err := DecodeDocument(raw, "chest-pain")
	require.NoError(t, err)
	assert.Equal(t, "chest-pain", g.ID)
	assert.Equal(t, "Chest pain", g.Name)

	a, ok := g.Node("A")
	require.True(t, ok)
	assert.Equal(t, pathway.KindBranch, a.Kind)
	assert.Equal(t, []string{"one", "two"}, a.Details)
	assert.Equal(t, "go", g.Nodes["Start"].Transitions[0].Label)
}

func TestDecodeDocumentStructural(t *testing.T) {
	raw, err := bson.Marshal(bson.D{
		{Key: "_id", Value: "x"},
		{Key: "nodes", Value: bson.D{
			{Key: "Start", Value: bson.D{
				{Key: "kind", Value: "start"},
				{Key: "transitions", Value: bson.A{bson.D{{Key: "target", Value: "Nowhere"}}}},
			}},
		}},
	})
	require.NoError(t, err)

	_, err = DecodeDocument(raw, "x")
	assert.True(t, errors.Is(err, errors.ErrCodeDanglingTransition), "got %v", err)
}

func TestFunc(t *testing.T) {
	want := pathway.New(&pathway.Node{Key: "Start", Kind: pathway.KindStart})
	var src Source = Func(func(_ context.Context, id string) (*pathway.Graph, error) {
		return want, nil
	})
	got, err := src.Load(context.Background(), "any")
	require.NoError(t, err)
	assert.Same(t, want, got)
}
