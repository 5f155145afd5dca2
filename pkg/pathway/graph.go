package pathway

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/matzehuels/pathwaygraph/pkg/errors"
)

// =============================================================================
// Pathway Serialization API
// =============================================================================

// Format is a pathway file encoding.
type Format string

// Supported encodings.
const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// FormatFromPath picks the encoding from a file extension.
// Unknown extensions are treated as JSON.
func FormatFromPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatJSON
	}
}

// ReadFile reads and validates a pathway from a JSON or YAML file.
func ReadFile(path string) (*Graph, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return Read(f, FormatFromPath(path))
}

// Read decodes and validates a pathway.
func Read(r io.Reader, format Format) (*Graph, error) {
	var g Graph
	switch format {
	case FormatYAML:
		if err := yaml.NewDecoder(r).Decode(&g); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "decode yaml")
		}
	case FormatJSON:
		if err := json.NewDecoder(r).Decode(&g); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "decode json")
		}
	default:
		return nil, errors.New(errors.ErrCodeInvalidFormat, "unsupported pathway format %q", format)
	}
	if err := g.bindKeys(); err != nil {
		return nil, err
	}
	if err := g.Validate(); err != nil {
		return nil, err
	}
	return &g, nil
}

// Unmarshal decodes a JSON pathway and validates it.
func Unmarshal(data []byte) (*Graph, error) {
	return Read(bytes.NewReader(data), FormatJSON)
}

// Marshal encodes g as indented JSON. Map keys are sorted by encoding/json,
// so the output is deterministic.
func Marshal(g *Graph) ([]byte, error) {
	return json.MarshalIndent(g, "", "  ")
}

// Write encodes g to w in the given format.
func Write(g *Graph, w io.Writer, format Format) error {
	switch format {
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(g); err != nil {
			return fmt.Errorf("encode: %w", err)
		}
		return enc.Close()
	default:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(g); err != nil {
			return fmt.Errorf("encode: %w", err)
		}
		return nil
	}
}

// bindKeys copies map keys into Node.Key, rejecting nodes that declare a
// different key than the one they are stored under.
func (g *Graph) bindKeys() error {
	for key, n := range g.Nodes {
		if n == nil {
			g.Nodes[key] = &Node{Key: key}
			continue
		}
		if n.Key != "" && n.Key != key {
			return errors.New(errors.ErrCodeInvalidInput, "node stored under %q declares key %q", key, n.Key)
		}
		n.Key = key
	}
	return nil
}
