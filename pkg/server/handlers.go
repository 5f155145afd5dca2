package server

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/matzehuels/pathwaygraph/pkg/errors"
	"github.com/matzehuels/pathwaygraph/pkg/layout"
	"github.com/matzehuels/pathwaygraph/pkg/pathway"
	"github.com/matzehuels/pathwaygraph/pkg/pipeline"
	"github.com/matzehuels/pathwaygraph/pkg/render/svg"
)

// LayoutRequest is the body of POST /api/v1/layout. Either Pathway (inline
// JSON) or PathwayID (looked up in the configured source) is required.
type LayoutRequest struct {
	Pathway       json.RawMessage   `json:"pathway,omitempty"`
	PathwayID     string            `json:"pathway_id,omitempty"`
	Dimensions    layout.Dimensions `json:"dimensions,omitempty"`
	Expanded      []string          `json:"expanded,omitempty"`
	LastSelected  string            `json:"last_selected,omitempty"`
	ViewportWidth float64           `json:"viewport_width,omitempty"`
	Engine        string            `json:"engine,omitempty"`
	YOffset       float64           `json:"y_offset,omitempty"`
}

// RenderRequest is the body of POST /api/v1/render.
type RenderRequest struct {
	LayoutRequest
	Format  string  `json:"format,omitempty"` // default svg
	Current string  `json:"current,omitempty"`
	Scale   float64 `json:"scale,omitempty"`
}

var contentTypes = map[string]string{
	pipeline.FormatSVG:  "image/svg+xml",
	pipeline.FormatPNG:  "image/png",
	pipeline.FormatPDF:  "application/pdf",
	pipeline.FormatJSON: "application/json",
}

// loadPathway decodes an inline pathway or loads one by id.
func (s *Server) loadPathway(ctx context.Context, raw json.RawMessage, id string) (*pathway.Graph, error) {
	switch {
	case len(raw) > 0:
		g, err := pathway.Unmarshal(raw)
		if err != nil {
			return nil, err
		}
		if g.ID == "" {
			g.ID = id
		}
		return g, nil
	case id != "":
		if s.source == nil {
			return nil, errors.New(errors.ErrCodeUnsupported, "pathway_id lookups are not configured")
		}
		return s.source.Load(ctx, id)
	default:
		return nil, errors.New(errors.ErrCodeInvalidInput, "pathway or pathway_id is required")
	}
}

func (s *Server) pipelineRequest(g *pathway.Graph, req LayoutRequest) pipeline.Request {
	expanded := make(map[string]bool, len(req.Expanded))
	for _, k := range req.Expanded {
		expanded[k] = true
	}
	engine := req.Engine
	if engine == "" {
		engine = s.engine
	}
	return pipeline.Request{
		Graph:         g,
		PathwayID:     g.ID,
		Dimensions:    req.Dimensions,
		Expansion:     layout.RestoreExpansion(expanded, req.LastSelected),
		ViewportWidth: req.ViewportWidth,
		Engine:        engine,
		YOffset:       req.YOffset,
		Logger:        s.logger,
	}
}

func (s *Server) handleLayout(w http.ResponseWriter, r *http.Request) {
	var req LayoutRequest
	if err := s.decodeJSON(w, r, &req); err != nil {
		s.respondError(w, r, err)
		return
	}
	g, err := s.loadPathway(r.Context(), req.Pathway, req.PathwayID)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	preq := s.pipelineRequest(g, req)
	l, _, err := s.runner.Layout(r.Context(), preq)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, layout.NewDocument(g.ID, preq.Engine, viewportWidth(preq), preq.Expansion, l))
}

func (s *Server) handleRender(w http.ResponseWriter, r *http.Request) {
	var req RenderRequest
	if err := s.decodeJSON(w, r, &req); err != nil {
		s.respondError(w, r, err)
		return
	}
	if req.Format == "" {
		req.Format = pipeline.FormatSVG
	}
	if err := pipeline.ValidateFormat(req.Format); err != nil {
		s.respondError(w, r, err)
		return
	}

	g, err := s.loadPathway(r.Context(), req.Pathway, req.PathwayID)
	if err != nil {
		s.respondRenderError(w, r, req.Format, err)
		return
	}

	preq := s.pipelineRequest(g, req.LayoutRequest)
	preq.Current = req.Current
	preq.Scale = req.Scale
	res, err := s.runner.Render(r.Context(), preq, []string{req.Format})
	if err != nil {
		s.respondRenderError(w, r, req.Format, err)
		return
	}
	writeArtifact(w, req.Format, res.Artifacts[req.Format])
}

// respondRenderError answers structural errors on SVG requests with the
// fallback diagram, so an <img> still shows something legible.
func (s *Server) respondRenderError(w http.ResponseWriter, r *http.Request, format string, err error) {
	if format == pipeline.FormatSVG && errors.IsStructural(err) {
		w.Header().Set("X-Pathwaygraph-Error", string(errors.GetCode(err)))
		writeArtifact(w, format, svg.RenderFallback(svg.NoPathway))
		return
	}
	s.respondError(w, r, err)
}

func writeArtifact(w http.ResponseWriter, format string, data []byte) {
	w.Header().Set("Content-Type", contentTypes[format])
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// viewportWidth mirrors the pipeline default for documents built here.
func viewportWidth(req pipeline.Request) float64 {
	if req.ViewportWidth == 0 {
		return layout.DefaultViewportWidth
	}
	return req.ViewportWidth
}
