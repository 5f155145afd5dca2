package source

import (
	"context"
	"os"
	"path/filepath"

	"github.com/matzehuels/pathwaygraph/pkg/errors"
	"github.com/matzehuels/pathwaygraph/pkg/pathway"
)

// extensions are tried in order when the id has no extension of its own.
var extensions = []string{".json", ".yaml", ".yml"}

// Files loads pathways from files under Dir. An id is a path relative to
// Dir, with or without its extension; ids may not escape Dir.
type Files struct {
	Dir string
}

// NewFiles creates a file source rooted at dir.
func NewFiles(dir string) *Files {
	return &Files{Dir: dir}
}

// Load reads the pathway stored under id.
func (f *Files) Load(ctx context.Context, id string) (*pathway.Graph, error) {
	if err := errors.ValidatePathwayID(id); err != nil {
		return nil, err
	}
	path, err := f.resolve(id)
	if err != nil {
		return nil, err
	}
	g, err := pathway.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return withID(g, id), nil
}

func (f *Files) resolve(id string) (string, error) {
	base := filepath.Join(f.Dir, filepath.FromSlash(id))
	candidates := []string{base}
	if filepath.Ext(base) == "" {
		candidates = candidates[:0]
		for _, ext := range extensions {
			candidates = append(candidates, base+ext)
		}
	}
	for _, p := range candidates {
		info, err := os.Stat(p)
		if err == nil && info.Mode().IsRegular() {
			return p, nil
		}
	}
	return "", errors.New(errors.ErrCodeNotFound, "pathway %q not found", id)
}

var _ Source = (*Files)(nil)
