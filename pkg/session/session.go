// Package session keeps per-viewer UI state for the HTTP host.
//
// A session pins one pathway and everything a viewer changes while looking
// at it: which nodes are expanded, the last selected node, the current node,
// the viewport width and the last measured dimensions the browser posted.
// Sessions never write pathways back; the pathway is a read-only copy.
//
// Backends:
//   - [MemoryStore]: in-process, for development and tests
//   - [RedisStore]: shared across server instances
//   - [FileStore]: one JSON file per session, for single-host deployments
//
// # Usage
//
//	sess := session.New(g, layout.DefaultViewportWidth, session.DefaultTTL)
//	if err := store.Set(ctx, sess); err != nil {
//	    return err
//	}
//
//	sess, err := store.Get(ctx, id)
//	if errors.Is(err, session.ErrNotFound) {
//	    // unknown or expired
//	}
//	exp := sess.Expansion()
//	exp.Click("A")
//	sess.SetExpansion(exp)
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/matzehuels/pathwaygraph/pkg/layout"
	"github.com/matzehuels/pathwaygraph/pkg/pathway"
)

// Sentinel errors for session operations.
var (
	// ErrNotFound is returned when a session does not exist or has expired.
	ErrNotFound = errors.New("session not found")
)

// DefaultTTL is the default session duration.
const DefaultTTL = 24 * time.Hour

// Session is the UI state of one viewer.
type Session struct {
	ID            string
	Pathway       *pathway.Graph
	Engine        string
	Expanded      map[string]bool
	LastSelected  string
	Current       string
	ViewportWidth float64
	Dimensions    layout.Dimensions
	CreatedAt     time.Time
	ExpiresAt     time.Time
}

// New creates a session with a fresh id for g.
func New(g *pathway.Graph, viewportWidth float64, ttl time.Duration) *Session {
	now := time.Now()
	return &Session{
		ID:            uuid.NewString(),
		Pathway:       g,
		Expanded:      make(map[string]bool),
		ViewportWidth: viewportWidth,
		Dimensions:    make(layout.Dimensions),
		CreatedAt:     now,
		ExpiresAt:     now.Add(ttl),
	}
}

// IsExpired returns true if the session has expired.
func (s *Session) IsExpired() bool {
	return time.Now().After(s.ExpiresAt)
}

// Touch extends the session by ttl from now.
func (s *Session) Touch(ttl time.Duration) {
	s.ExpiresAt = time.Now().Add(ttl)
}

// Expansion returns a state machine initialized from the session.
// Changes to it are not visible until passed to SetExpansion.
func (s *Session) Expansion() *layout.Expansion {
	return layout.RestoreExpansion(s.Expanded, s.LastSelected)
}

// SetExpansion stores the state of e in the session.
func (s *Session) SetExpansion(e *layout.Expansion) {
	s.Expanded = e.State()
	s.LastSelected = e.LastSelected()
}

// ValidID reports whether id has the shape of a session id. Stores use it
// to reject ids that could escape a key namespace or a directory.
func ValidID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

// Store is the interface for session storage backends.
//
// Implementations are safe for concurrent use. Get returns ErrNotFound
// for unknown and expired sessions alike.
type Store interface {
	Get(ctx context.Context, id string) (*Session, error)
	Set(ctx context.Context, s *Session) error
	Delete(ctx context.Context, id string) error

	// Cleanup removes expired sessions (may be no-op for Redis).
	Cleanup(ctx context.Context) error

	Close() error
}

// wireSession is the stored form. The pathway is kept in its own JSON
// encoding so decoding goes through pathway.Unmarshal and gets validated.
type wireSession struct {
	ID            string            `json:"id"`
	Pathway       json.RawMessage   `json:"pathway"`
	Engine        string            `json:"engine,omitempty"`
	Expanded      map[string]bool   `json:"expanded,omitempty"`
	LastSelected  string            `json:"last_selected,omitempty"`
	Current       string            `json:"current,omitempty"`
	ViewportWidth float64           `json:"viewport_width"`
	Dimensions    layout.Dimensions `json:"dimensions,omitempty"`
	CreatedAt     time.Time         `json:"created_at"`
	ExpiresAt     time.Time         `json:"expires_at"`
}

// Encode serializes s for storage.
func Encode(s *Session) ([]byte, error) {
	if s.Pathway == nil {
		return nil, fmt.Errorf("encode session %s: no pathway", s.ID)
	}
	g, err := json.Marshal(s.Pathway)
	if err != nil {
		return nil, fmt.Errorf("encode session pathway: %w", err)
	}
	return json.Marshal(wireSession{
		ID:            s.ID,
		Pathway:       g,
		Engine:        s.Engine,
		Expanded:      s.Expanded,
		LastSelected:  s.LastSelected,
		Current:       s.Current,
		ViewportWidth: s.ViewportWidth,
		Dimensions:    s.Dimensions,
		CreatedAt:     s.CreatedAt,
		ExpiresAt:     s.ExpiresAt,
	})
}

// Decode parses a session produced by Encode.
func Decode(data []byte) (*Session, error) {
	var w wireSession
	if err := json.Unmarshal(data, &w); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}
	g, err := pathway.Unmarshal(w.Pathway)
	if err != nil {
		return nil, fmt.Errorf("decode session pathway: %w", err)
	}
	s := &Session{
		ID:            w.ID,
		Pathway:       g,
		Engine:        w.Engine,
		Expanded:      w.Expanded,
		LastSelected:  w.LastSelected,
		Current:       w.Current,
		ViewportWidth: w.ViewportWidth,
		Dimensions:    w.Dimensions,
		CreatedAt:     w.CreatedAt,
		ExpiresAt:     w.ExpiresAt,
	}
	if s.Expanded == nil {
		s.Expanded = make(map[string]bool)
	}
	if s.Dimensions == nil {
		s.Dimensions = make(layout.Dimensions)
	}
	return s, nil
}
