// Package pipeline runs the measure → layout → render pipeline with caching.
//
// The CLI, the HTTP server and the explorer all go through a [Runner], so
// defaults, validation and cache keys are identical on every surface.
//
// # Architecture
//
// The pipeline consists of two stages:
//
//  1. Layout: adapter and normalizer over the selected engine
//  2. Render: SVG, JSON document, and PNG/PDF through rsvg-convert
//
// A layout pass is idempotent, so a layout is cached under a hash of every
// input that can change it: the pathway, the dimensions, the expanded keys,
// the viewport width, the engine name and the y offset. Artifacts are
// cached under the pathway and layout hashes plus the render options.
//
// # Usage
//
//	runner := pipeline.NewRunner(cache, nil, nil, logger)
//	res, err := runner.Render(ctx, pipeline.Request{
//	    Graph:         g,
//	    Measurer:      measure.NewText(measure.DefaultTextOptions),
//	    ViewportWidth: 1200,
//	}, []string{pipeline.FormatSVG})
//	if err != nil {
//	    return err
//	}
//	svg := res.Artifacts[pipeline.FormatSVG]
package pipeline

import (
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/pathwaygraph/pkg/cache"
	"github.com/matzehuels/pathwaygraph/pkg/errors"
	"github.com/matzehuels/pathwaygraph/pkg/layout"
	"github.com/matzehuels/pathwaygraph/pkg/pathway"
)

// =============================================================================
// Default Values - Single Source of Truth for CLI, API, and Explorer
// =============================================================================

// Engine names.
const (
	EngineDot     = "dot"
	EngineLayered = "layered"
)

// DefaultEngine is the engine used when a request names none.
const DefaultEngine = EngineDot

// DefaultScale is the PNG scale factor.
const DefaultScale = 2.0

// Format constants for output formats.
const (
	FormatSVG  = "svg"
	FormatPNG  = "png"
	FormatPDF  = "pdf"
	FormatJSON = "json"
)

// ValidFormats is the set of supported output formats.
var ValidFormats = map[string]bool{
	FormatSVG:  true,
	FormatPNG:  true,
	FormatPDF:  true,
	FormatJSON: true,
}

// ValidEngines is the set of supported layout engines.
var ValidEngines = map[string]bool{
	EngineDot:     true,
	EngineLayered: true,
}

// =============================================================================
// Request - Pipeline Input
// =============================================================================

// Request is one layout (and optionally render) pass.
type Request struct {
	Graph     *pathway.Graph
	PathwayID string // informational, copied into the JSON document

	// Dimensions are the measured node sizes. When nil, Measurer is asked;
	// when both are nil every node gets the default size.
	Dimensions layout.Dimensions
	Measurer   layout.Measurer

	Expansion     *layout.Expansion
	ViewportWidth float64
	Engine        string
	YOffset       float64

	// Render options
	Current string
	Scale   float64

	// Refresh skips cache reads; results are still written.
	Refresh bool

	Logger *log.Logger

	validated bool
}

// Result contains the outputs of a pipeline run.
type Result struct {
	Layout    layout.Layout
	Document  layout.Document
	Artifacts map[string][]byte
	Stats     Stats
	CacheInfo CacheInfo
}

// Stats contains pipeline execution statistics.
type Stats struct {
	NodeCount  int
	EdgeCount  int
	Pending    int
	LayoutTime time.Duration
	RenderTime time.Duration
}

// CacheInfo tracks cache hits for each pipeline stage.
type CacheInfo struct {
	LayoutHit bool // Whether the layout came from cache
	RenderHit bool // Whether all artifacts came from cache
}

// =============================================================================
// Validation Functions
// =============================================================================

// ValidateFormat checks that a format is valid.
func ValidateFormat(format string) error {
	if !ValidFormats[format] {
		return errors.New(errors.ErrCodeInvalidFormat, "invalid format: %q (must be one of: svg, png, pdf, json)", format)
	}
	return nil
}

// ValidateFormats checks that all formats are valid.
func ValidateFormats(formats []string) error {
	for _, f := range formats {
		if err := ValidateFormat(f); err != nil {
			return err
		}
	}
	return nil
}

// ValidateEngine checks that an engine name is valid.
func ValidateEngine(name string) error {
	if !ValidEngines[name] {
		return errors.New(errors.ErrCodeInvalidEngine, "invalid engine: %q (must be one of: dot, layered)", name)
	}
	return nil
}

// =============================================================================
// Request Methods
// =============================================================================

// ValidateAndSetDefaults checks required fields and applies defaults.
// This method is idempotent.
func (r *Request) ValidateAndSetDefaults() error {
	if r.validated {
		return nil
	}
	if r.Graph == nil {
		return errors.New(errors.ErrCodeMissingStart, "no pathway loaded")
	}
	if r.Engine == "" {
		r.Engine = DefaultEngine
	}
	if err := ValidateEngine(r.Engine); err != nil {
		return err
	}
	if r.ViewportWidth == 0 {
		r.ViewportWidth = layout.DefaultViewportWidth
	}
	if err := errors.ValidateViewportWidth(r.ViewportWidth); err != nil {
		return err
	}
	if r.Expansion == nil {
		r.Expansion = layout.NewExpansion()
	}
	if r.Scale <= 0 {
		r.Scale = DefaultScale
	}
	if r.Logger == nil {
		r.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	r.validated = true
	return nil
}

// dimensions returns the explicit dimensions or asks the measurer. The
// measurement always happens before the layout of the same pass.
func (r *Request) dimensions() layout.Dimensions {
	if r.Dimensions != nil {
		return r.Dimensions
	}
	if r.Measurer != nil {
		return r.Measurer.Measure(r.Graph, r.Expansion.IsExpanded)
	}
	return layout.Dimensions{}
}

func (r *Request) layoutOptions() layout.Options {
	return layout.Options{YOffset: r.YOffset, Logger: r.Logger}
}

// LayoutKeyOpts returns cache key options for layout computation.
func (r *Request) LayoutKeyOpts(dims layout.Dimensions) (cache.LayoutKeyOpts, error) {
	dimsHash, err := cache.HashJSON(dims)
	if err != nil {
		return cache.LayoutKeyOpts{}, err
	}
	return cache.LayoutKeyOpts{
		Engine:         r.Engine,
		ViewportWidth:  r.ViewportWidth,
		Expanded:       r.Expansion.Expanded(),
		DimensionsHash: dimsHash,
		YOffset:        r.YOffset,
	}, nil
}

// ArtifactKeyOpts returns cache key options for artifact rendering.
func (r *Request) ArtifactKeyOpts(format string) cache.ArtifactKeyOpts {
	opts := cache.ArtifactKeyOpts{Format: format, Current: r.Current}
	if format == FormatPNG {
		opts.Scale = r.Scale
	}
	return opts
}

func (r *Request) document(l layout.Layout) layout.Document {
	id := r.PathwayID
	if id == "" {
		id = r.Graph.ID
	}
	return layout.NewDocument(id, r.Engine, r.ViewportWidth, r.Expansion, l)
}

func (r *Request) String() string {
	return fmt.Sprintf("engine=%s width=%g expanded=%v", r.Engine, r.ViewportWidth, r.Expansion.Expanded())
}
