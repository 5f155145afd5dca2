package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/pathwaygraph/pkg/cache"
	"github.com/matzehuels/pathwaygraph/pkg/errors"
	"github.com/matzehuels/pathwaygraph/pkg/layout"
	"github.com/matzehuels/pathwaygraph/pkg/observability"
	"github.com/matzehuels/pathwaygraph/pkg/pathway"
	"github.com/matzehuels/pathwaygraph/pkg/pipeline"
	"github.com/matzehuels/pathwaygraph/pkg/session"
	"github.com/matzehuels/pathwaygraph/pkg/source"
)

const demoPathway = `{
  "id": "demo",
  "nodes": {
    "Start": {"kind": "start", "transitions": [{"target": "A"}]},
    "A": {"kind": "branch", "label": "Assess", "transitions": [
      {"target": "B", "label": "stable"},
      {"target": "C", "label": "unstable"}
    ]},
    "B": {"kind": "action", "label": "Discharge"},
    "C": {"kind": "action", "label": "Admit"}
  }
}`

func setupTestServer(t *testing.T) *Server {
	t.Helper()

	src := source.Func(func(_ context.Context, id string) (*pathway.Graph, error) {
		if id != "demo" {
			return nil, errors.New(errors.ErrCodeNotFound, "pathway %q not found", id)
		}
		return pathway.Unmarshal([]byte(demoPathway))
	})
	prom := observability.NewPrometheus()

	s, err := New(Config{
		Runner:   pipeline.NewRunner(cache.NewMemoryCache(), nil, nil, nil),
		Sessions: session.NewMemoryStore(),
		Source:   src,
		Metrics:  prom.Handler(),
		Engine:   pipeline.EngineLayered,
	})
	require.NoError(t, err)
	return s
}

func doJSON(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		switch b := body.(type) {
		case string:
			buf.WriteString(b)
		default:
			require.NoError(t, json.NewEncoder(&buf).Encode(b))
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func TestNewRequiresCollaborators(t *testing.T) {
	_, err := New(Config{Sessions: session.NewMemoryStore()})
	assert.Error(t, err)
	_, err = New(Config{Runner: pipeline.NewRunner(nil, nil, nil, nil)})
	assert.Error(t, err)
	_, err = New(Config{
		Runner:   pipeline.NewRunner(nil, nil, nil, nil),
		Sessions: session.NewMemoryStore(),
		Engine:   "neato",
	})
	assert.Error(t, err)
}

func TestHealthAndMetrics(t *testing.T) {
	s := setupTestServer(t)

	rec := doJSON(t, s, http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())

	rec = doJSON(t, s, http.MethodGet, "/metrics", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestLayoutEndpoint(t *testing.T) {
	s := setupTestServer(t)

	body := `{"pathway": ` + demoPathway + `, "viewport_width": 800, "expanded": ["A"],
		"dimensions": {"Start": {"width": 100, "height": 40}}}`
	rec := doJSON(t, s, http.MethodPost, "/api/v1/layout", body)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	doc := decode[layout.Document](t, rec)
	assert.Equal(t, "demo", doc.Pathway)
	assert.Equal(t, pipeline.EngineLayered, doc.Engine)
	assert.Equal(t, []string{"A"}, doc.Expanded)
	require.Len(t, doc.Layout.Nodes, 4)
	assert.True(t, doc.Layout.Nodes["A"].Expanded)

	start := doc.Layout.Nodes["Start"]
	assert.Equal(t, 100.0, start.Width)
	assert.InDelta(t, 400+doc.Layout.Correction, start.X+start.Width/2, 1e-9)
	assert.ElementsMatch(t, []string{"A", "B", "C"}, doc.Layout.Pending)
	assert.Contains(t, doc.Layout.Edges, layout.EdgeName("A", "B"))
}

func TestLayoutEndpointByID(t *testing.T) {
	s := setupTestServer(t)

	rec := doJSON(t, s, http.MethodPost, "/api/v1/layout", map[string]any{"pathway_id": "demo"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = doJSON(t, s, http.MethodPost, "/api/v1/layout", map[string]any{"pathway_id": "nope"})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestLayoutEndpointErrors(t *testing.T) {
	s := setupTestServer(t)

	tests := []struct {
		name   string
		body   string
		status int
		code   errors.Code
	}{
		{"missing start", `{"pathway": {"nodes": {"A": {"kind": "action"}}}}`, http.StatusUnprocessableEntity, errors.ErrCodeMissingStart},
		{"dangling", `{"pathway": {"nodes": {"Start": {"kind": "start", "transitions": [{"target": "X"}]}}}}`, http.StatusUnprocessableEntity, errors.ErrCodeDanglingTransition},
		{"no pathway", `{}`, http.StatusBadRequest, errors.ErrCodeInvalidInput},
		{"unknown field", `{"pathway_id": "demo", "zoom": 2}`, http.StatusBadRequest, errors.ErrCodeInvalidInput},
		{"bad json", `{`, http.StatusBadRequest, errors.ErrCodeInvalidInput},
		{"bad engine", `{"pathway_id": "demo", "engine": "neato"}`, http.StatusBadRequest, errors.ErrCodeInvalidEngine},
		{"bad width", `{"pathway_id": "demo", "viewport_width": -1}`, http.StatusBadRequest, errors.ErrCodeInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doJSON(t, s, http.MethodPost, "/api/v1/layout", tt.body)
			assert.Equal(t, tt.status, rec.Code, rec.Body.String())
			resp := decode[ErrorResponse](t, rec)
			assert.Equal(t, tt.code, resp.Code)
			assert.NotEmpty(t, resp.Error)
		})
	}
}

func TestRenderEndpoint(t *testing.T) {
	s := setupTestServer(t)

	rec := doJSON(t, s, http.MethodPost, "/api/v1/render", map[string]any{"pathway_id": "demo", "current": "A"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "image/svg+xml", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Body.String(), `class="edge active"`)

	rec = doJSON(t, s, http.MethodPost, "/api/v1/render", map[string]any{"pathway_id": "demo", "format": "json"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	_, err := layout.UnmarshalDocument(rec.Body.Bytes())
	assert.NoError(t, err)

	rec = doJSON(t, s, http.MethodPost, "/api/v1/render", map[string]any{"pathway_id": "demo", "format": "gif"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRenderEndpointFallback(t *testing.T) {
	s := setupTestServer(t)

	rec := doJSON(t, s, http.MethodPost, "/api/v1/render", `{"pathway": {"nodes": {"A": {"kind": "action"}}}}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, string(errors.ErrCodeMissingStart), rec.Header().Get("X-Pathwaygraph-Error"))
	assert.Contains(t, rec.Body.String(), "no pathway loaded")

	// non-SVG formats get the JSON error
	rec = doJSON(t, s, http.MethodPost, "/api/v1/render", `{"format": "json", "pathway": {"nodes": {"A": {"kind": "action"}}}}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func createSession(t *testing.T, h http.Handler) SessionView {
	t.Helper()
	rec := doJSON(t, h, http.MethodPost, "/api/v1/sessions", map[string]any{"pathway_id": "demo", "viewport_width": 1000})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return decode[SessionView](t, rec)
}

func TestSessionLifecycle(t *testing.T) {
	s := setupTestServer(t)
	view := createSession(t, s)
	assert.True(t, session.ValidID(view.ID))
	assert.Equal(t, "demo", view.PathwayID)
	assert.Equal(t, pipeline.EngineLayered, view.Engine)
	assert.Empty(t, view.Expanded)
	base := "/api/v1/sessions/" + view.ID

	rec := doJSON(t, s, http.MethodGet, base, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, view.ID, decode[SessionView](t, rec).ID)

	rec = doJSON(t, s, http.MethodDelete, base, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = doJSON(t, s, http.MethodGet, base, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, errors.ErrCodeSessionNotFound, decode[ErrorResponse](t, rec).Code)
}

func TestSessionClick(t *testing.T) {
	s := setupTestServer(t)
	base := "/api/v1/sessions/" + createSession(t, s).ID

	steps := []struct {
		key      string
		expanded []string
		last     string
	}{
		{"Start", []string{}, "Start"},
		{"A", []string{"A"}, "A"},
		{"A", []string{}, "A"},
		{"B", []string{"B"}, "B"},
		{"A", []string{"A", "B"}, "A"},
	}
	for _, step := range steps {
		rec := doJSON(t, s, http.MethodPost, base+"/click", map[string]string{"key": step.key})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		resp := decode[ClickResponse](t, rec)
		assert.True(t, resp.Invalidate)
		assert.Equal(t, step.expanded, resp.Session.Expanded, "after click %s", step.key)
		assert.Equal(t, step.last, resp.Session.LastSelected)
	}

	rec := doJSON(t, s, http.MethodPost, base+"/click", map[string]string{"key": "Nope"})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSessionViewportAndDimensions(t *testing.T) {
	s := setupTestServer(t)
	base := "/api/v1/sessions/" + createSession(t, s).ID

	rec := doJSON(t, s, http.MethodPut, base+"/viewport", map[string]float64{"width": 1000})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, decode[ViewportResponse](t, rec).Changed)

	rec = doJSON(t, s, http.MethodPut, base+"/viewport", map[string]float64{"width": 640})
	require.Equal(t, http.StatusOK, rec.Code)
	resp := decode[ViewportResponse](t, rec)
	assert.True(t, resp.Changed)
	assert.Equal(t, 640.0, resp.Session.ViewportWidth)

	rec = doJSON(t, s, http.MethodPut, base+"/viewport", map[string]float64{"width": -3})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	dims := map[string]any{"dimensions": map[string]layout.Size{
		"Start": {Width: 120, Height: 40},
		"A":     {Width: 180, Height: 64},
	}}
	rec = doJSON(t, s, http.MethodPut, base+"/dimensions", dims)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 2, decode[SessionView](t, rec).Measured)

	rec = doJSON(t, s, http.MethodGet, base+"/layout", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	doc := decode[layout.Document](t, rec)
	assert.Equal(t, 640.0, doc.ViewportWidth)
	assert.Equal(t, 180.0, doc.Layout.Nodes["A"].Width)
	start := doc.Layout.Nodes["Start"]
	assert.InDelta(t, 320+doc.Layout.Correction, start.X+start.Width/2, 1e-9)
	assert.ElementsMatch(t, []string{"B", "C"}, doc.Layout.Pending)
}

func TestSessionSVG(t *testing.T) {
	s := setupTestServer(t)
	base := "/api/v1/sessions/" + createSession(t, s).ID

	rec := doJSON(t, s, http.MethodGet, base+"/svg", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, strings.Contains(rec.Body.String(), `class="edge active"`))

	rec = doJSON(t, s, http.MethodPut, base+"/current", map[string]string{"key": "A"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "A", decode[SessionView](t, rec).Current)

	rec = doJSON(t, s, http.MethodGet, base+"/svg", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/svg+xml", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Body.String(), `class="edge active"`)

	rec = doJSON(t, s, http.MethodPut, base+"/current", map[string]string{"key": "Nope"})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSessionBadID(t *testing.T) {
	s := setupTestServer(t)
	for _, path := range []string{
		"/api/v1/sessions/not-a-uuid",
		"/api/v1/sessions/7a0e54a8-4a8f-4c39-9a4c-1b0c3e7e2f10/layout",
	} {
		rec := doJSON(t, s, http.MethodGet, path, nil)
		assert.Equal(t, http.StatusNotFound, rec.Code, path)
	}
}

func TestStatusFor(t *testing.T) {
	tests := map[errors.Code]int{
		errors.ErrCodeInvalidInput:       http.StatusBadRequest,
		errors.ErrCodeMissingStart:       http.StatusUnprocessableEntity,
		errors.ErrCodeDanglingTransition: http.StatusUnprocessableEntity,
		errors.ErrCodeSessionNotFound:    http.StatusNotFound,
		errors.ErrCodeLayoutFailed:       http.StatusInternalServerError,
		errors.ErrCodeUnsupported:        http.StatusNotImplemented,
	}
	for code, want := range tests {
		assert.Equal(t, want, statusFor(code), code)
	}
}
