package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/matzehuels/pathwaygraph/pkg/errors"
	"github.com/matzehuels/pathwaygraph/pkg/layout"
	"github.com/matzehuels/pathwaygraph/pkg/pipeline"
	"github.com/matzehuels/pathwaygraph/pkg/session"
)

// CreateSessionRequest is the body of POST /api/v1/sessions.
type CreateSessionRequest struct {
	Pathway       json.RawMessage `json:"pathway,omitempty"`
	PathwayID     string          `json:"pathway_id,omitempty"`
	ViewportWidth float64         `json:"viewport_width,omitempty"`
	Engine        string          `json:"engine,omitempty"`
}

// SessionView is the public form of a session.
type SessionView struct {
	ID            string    `json:"id"`
	PathwayID     string    `json:"pathway_id,omitempty"`
	Engine        string    `json:"engine"`
	Expanded      []string  `json:"expanded"`
	LastSelected  string    `json:"last_selected,omitempty"`
	Current       string    `json:"current,omitempty"`
	ViewportWidth float64   `json:"viewport_width"`
	Measured      int       `json:"measured"`
	ExpiresAt     time.Time `json:"expires_at"`
}

// ClickResponse reports that the layout must be recomputed. Clicks always
// invalidate.
type ClickResponse struct {
	Invalidate bool        `json:"invalidate"`
	Session    SessionView `json:"session"`
}

// ViewportResponse reports whether the width changed.
type ViewportResponse struct {
	Changed bool        `json:"changed"`
	Session SessionView `json:"session"`
}

type keyRequest struct {
	Key string `json:"key"`
}

type dimensionsRequest struct {
	Dimensions layout.Dimensions `json:"dimensions"`
}

type viewportRequest struct {
	Width float64 `json:"width"`
}

func viewOf(sess *session.Session) SessionView {
	expanded := sess.Expansion().Expanded()
	if expanded == nil {
		expanded = []string{}
	}
	return SessionView{
		ID:            sess.ID,
		PathwayID:     sess.Pathway.ID,
		Engine:        sess.Engine,
		Expanded:      expanded,
		LastSelected:  sess.LastSelected,
		Current:       sess.Current,
		ViewportWidth: sess.ViewportWidth,
		Measured:      len(sess.Dimensions),
		ExpiresAt:     sess.ExpiresAt,
	}
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req CreateSessionRequest
	if err := s.decodeJSON(w, r, &req); err != nil {
		s.respondError(w, r, err)
		return
	}
	if req.ViewportWidth == 0 {
		req.ViewportWidth = layout.DefaultViewportWidth
	}
	if err := errors.ValidateViewportWidth(req.ViewportWidth); err != nil {
		s.respondError(w, r, err)
		return
	}
	if req.Engine == "" {
		req.Engine = s.engine
	}
	if err := pipeline.ValidateEngine(req.Engine); err != nil {
		s.respondError(w, r, err)
		return
	}

	g, err := s.loadPathway(r.Context(), req.Pathway, req.PathwayID)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	sess := session.New(g, req.ViewportWidth, s.ttl)
	sess.Engine = req.Engine
	if err := s.sessions.Set(r.Context(), sess); err != nil {
		s.respondError(w, r, err)
		return
	}
	s.logger.Debug("session created", "id", sess.ID, "pathway", g.ID, "nodes", g.NodeCount())
	respondJSON(w, http.StatusCreated, viewOf(sess))
}

// loadSession fetches the session named in the URL.
func (s *Server) loadSession(w http.ResponseWriter, r *http.Request) (*session.Session, bool) {
	id := chi.URLParam(r, "id")
	if !session.ValidID(id) {
		s.respondError(w, r, session.ErrNotFound)
		return nil, false
	}
	sess, err := s.sessions.Get(r.Context(), id)
	if err != nil {
		s.respondError(w, r, err)
		return nil, false
	}
	return sess, true
}

// saveSession extends and stores sess.
func (s *Server) saveSession(w http.ResponseWriter, r *http.Request, sess *session.Session) bool {
	sess.Touch(s.ttl)
	if err := s.sessions.Set(r.Context(), sess); err != nil {
		s.respondError(w, r, err)
		return false
	}
	return true
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.loadSession(w, r)
	if !ok {
		return
	}
	respondJSON(w, http.StatusOK, viewOf(sess))
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if session.ValidID(id) {
		if err := s.sessions.Delete(r.Context(), id); err != nil {
			s.respondError(w, r, err)
			return
		}
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) requireNode(sess *session.Session, key string) error {
	if _, ok := sess.Pathway.Node(key); !ok {
		return errors.New(errors.ErrCodeNotFound, "node %q not in pathway", key)
	}
	return nil
}

func (s *Server) handleClick(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.loadSession(w, r)
	if !ok {
		return
	}
	var req keyRequest
	if err := s.decodeJSON(w, r, &req); err != nil {
		s.respondError(w, r, err)
		return
	}
	if err := s.requireNode(sess, req.Key); err != nil {
		s.respondError(w, r, err)
		return
	}

	exp := sess.Expansion()
	invalidate := exp.Click(req.Key)
	sess.SetExpansion(exp)
	if !s.saveSession(w, r, sess) {
		return
	}
	respondJSON(w, http.StatusOK, ClickResponse{Invalidate: invalidate, Session: viewOf(sess)})
}

func (s *Server) handleDimensions(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.loadSession(w, r)
	if !ok {
		return
	}
	var req dimensionsRequest
	if err := s.decodeJSON(w, r, &req); err != nil {
		s.respondError(w, r, err)
		return
	}

	// Unmounted nodes are absent from the post and lose their entry.
	sess.Dimensions = req.Dimensions.Clone()
	if sess.Dimensions == nil {
		sess.Dimensions = make(layout.Dimensions)
	}
	if !s.saveSession(w, r, sess) {
		return
	}
	respondJSON(w, http.StatusOK, viewOf(sess))
}

func (s *Server) handleViewport(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.loadSession(w, r)
	if !ok {
		return
	}
	var req viewportRequest
	if err := s.decodeJSON(w, r, &req); err != nil {
		s.respondError(w, r, err)
		return
	}
	if err := errors.ValidateViewportWidth(req.Width); err != nil {
		s.respondError(w, r, err)
		return
	}

	changed := req.Width != sess.ViewportWidth
	if changed {
		sess.ViewportWidth = req.Width
		if !s.saveSession(w, r, sess) {
			return
		}
	}
	respondJSON(w, http.StatusOK, ViewportResponse{Changed: changed, Session: viewOf(sess)})
}

func (s *Server) handleCurrent(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.loadSession(w, r)
	if !ok {
		return
	}
	var req keyRequest
	if err := s.decodeJSON(w, r, &req); err != nil {
		s.respondError(w, r, err)
		return
	}
	if req.Key != "" {
		if err := s.requireNode(sess, req.Key); err != nil {
			s.respondError(w, r, err)
			return
		}
	}
	sess.Current = req.Key
	if !s.saveSession(w, r, sess) {
		return
	}
	respondJSON(w, http.StatusOK, viewOf(sess))
}

func (s *Server) sessionRequest(sess *session.Session) pipeline.Request {
	return pipeline.Request{
		Graph:         sess.Pathway,
		PathwayID:     sess.Pathway.ID,
		Dimensions:    sess.Dimensions,
		Expansion:     sess.Expansion(),
		ViewportWidth: sess.ViewportWidth,
		Engine:        sess.Engine,
		Current:       sess.Current,
		Logger:        s.logger,
	}
}

func (s *Server) handleSessionLayout(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.loadSession(w, r)
	if !ok {
		return
	}
	req := s.sessionRequest(sess)
	l, _, err := s.runner.Layout(r.Context(), req)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, layout.NewDocument(sess.Pathway.ID, sess.Engine, sess.ViewportWidth, req.Expansion, l))
}

func (s *Server) handleSessionSVG(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.loadSession(w, r)
	if !ok {
		return
	}
	res, err := s.runner.Render(r.Context(), s.sessionRequest(sess), []string{pipeline.FormatSVG})
	if err != nil {
		s.respondRenderError(w, r, pipeline.FormatSVG, err)
		return
	}
	writeArtifact(w, pipeline.FormatSVG, res.Artifacts[pipeline.FormatSVG])
}
