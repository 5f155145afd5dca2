package layout

import (
	"encoding/json"
	"fmt"
	"os"
)

// =============================================================================
// Document - Serialized Layout
// =============================================================================

// Document is the serialization format written by `pathwaygraph layout`,
// returned by the HTTP API and stored in the layout cache.
type Document struct {
	Pathway       string   `json:"pathway,omitempty"`
	Engine        string   `json:"engine"`
	ViewportWidth float64  `json:"viewport_width"`
	Expanded      []string `json:"expanded,omitempty"`
	LastSelected  string   `json:"last_selected,omitempty"`
	Extent        Extent   `json:"extent"`
	Layout        Layout   `json:"layout"`
}

// NewDocument wraps l with the inputs that produced it.
func NewDocument(pathwayID, engine string, viewportWidth float64, exp *Expansion, l Layout) Document {
	return Document{
		Pathway:       pathwayID,
		Engine:        engine,
		ViewportWidth: viewportWidth,
		Expanded:      exp.Expanded(),
		LastSelected:  exp.LastSelected(),
		Extent:        ExtentOf(l),
		Layout:        l,
	}
}

// MarshalDocument serializes a Document to pretty-printed JSON bytes.
func MarshalDocument(d Document) ([]byte, error) {
	return json.MarshalIndent(d, "", "  ")
}

// UnmarshalDocument deserializes JSON bytes into a Document.
func UnmarshalDocument(data []byte) (Document, error) {
	var d Document
	if err := json.Unmarshal(data, &d); err != nil {
		return Document{}, fmt.Errorf("unmarshal layout: %w", err)
	}
	if d.Layout.Nodes == nil {
		return Document{}, fmt.Errorf("layout document has no nodes")
	}
	if d.Layout.Edges == nil {
		d.Layout.Edges = map[string]Edge{}
	}
	return d, nil
}

// WriteDocumentFile writes a Document to a JSON file.
func WriteDocumentFile(d Document, path string) error {
	data, err := MarshalDocument(d)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// ReadDocumentFile reads a Document from a JSON file.
func ReadDocumentFile(path string) (Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Document{}, err
	}
	return UnmarshalDocument(data)
}
