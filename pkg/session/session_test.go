package session

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/pathwaygraph/pkg/layout"
	"github.com/matzehuels/pathwaygraph/pkg/pathway"
)

func testGraph() *pathway.Graph {
	return pathway.New(
		&pathway.Node{Key: "Start", Kind: pathway.KindStart, Transitions: []pathway.Transition{{Target: "A"}}},
		&pathway.Node{Key: "A", Label: "Assess", Kind: pathway.KindBranch, Transitions: []pathway.Transition{
			{Target: "B", Label: "yes"},
			{Target: "C", Label: "no"},
		}},
		&pathway.Node{Key: "B", Kind: pathway.KindAction},
		&pathway.Node{Key: "C", Kind: pathway.KindAction, Details: []string{"line one"}},
	)
}

func testSession() *Session {
	s := New(testGraph(), 1200, time.Hour)
	s.Engine = "layered"
	s.Current = "A"
	s.Dimensions["A"] = layout.Size{Width: 160, Height: 60}
	exp := s.Expansion()
	exp.Click("A")
	s.SetExpansion(exp)
	return s
}

func TestNew(t *testing.T) {
	s := New(testGraph(), 800, time.Hour)
	assert.True(t, ValidID(s.ID))
	assert.Equal(t, 800.0, s.ViewportWidth)
	assert.False(t, s.IsExpired())
	assert.NotNil(t, s.Expanded)
	assert.NotNil(t, s.Dimensions)

	other := New(testGraph(), 800, time.Hour)
	assert.NotEqual(t, s.ID, other.ID)
}

func TestExpansionBridge(t *testing.T) {
	s := New(testGraph(), 1200, time.Hour)

	exp := s.Expansion()
	exp.Click("A")
	assert.Empty(t, s.Expanded, "changes stay local until SetExpansion")

	s.SetExpansion(exp)
	assert.Equal(t, map[string]bool{"A": true}, s.Expanded)
	assert.Equal(t, "A", s.LastSelected)

	// clicking the last selected node again collapses it
	exp = s.Expansion()
	exp.Click("A")
	s.SetExpansion(exp)
	assert.False(t, s.Expansion().IsExpanded("A"))
}

func TestTouch(t *testing.T) {
	s := New(testGraph(), 1200, -time.Minute)
	assert.True(t, s.IsExpired())
	s.Touch(time.Hour)
	assert.False(t, s.IsExpired())
}

func TestEncodeDecode(t *testing.T) {
	s := testSession()
	data, err := Encode(s)
	require.NoError(t, err)

	got, err := Decode(data)
	require.NoError(t, err)
	assert.Equal(t, s.ID, got.ID)
	assert.Equal(t, s.Engine, got.Engine)
	assert.Equal(t, s.Expanded, got.Expanded)
	assert.Equal(t, s.LastSelected, got.LastSelected)
	assert.Equal(t, s.Current, got.Current)
	assert.Equal(t, s.Dimensions, got.Dimensions)
	assert.True(t, s.ExpiresAt.Equal(got.ExpiresAt))

	n, ok := got.Pathway.Node("A")
	require.True(t, ok)
	assert.Equal(t, "A", n.Key, "node keys are rebound on decode")
	assert.Equal(t, pathway.KindBranch, n.Kind)
	assert.Equal(t, s.Pathway.Edges(), got.Pathway.Edges())
}

func TestEncodeErrors(t *testing.T) {
	_, err := Encode(&Session{ID: "x"})
	assert.Error(t, err)

	_, err = Decode([]byte("{"))
	assert.Error(t, err)

	// a stored pathway that no longer validates is rejected
	_, err = Decode([]byte(`{"id":"x","pathway":{"nodes":{"A":{"kind":"action"}}}}`))
	assert.Error(t, err)
}

func testStore(t *testing.T, store Store) {
	t.Helper()
	ctx := context.Background()

	_, err := store.Get(ctx, "7a0e54a8-4a8f-4c39-9a4c-1b0c3e7e2f10")
	assert.ErrorIs(t, err, ErrNotFound)

	s := testSession()
	require.NoError(t, store.Set(ctx, s))

	got, err := store.Get(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, s.Expanded, got.Expanded)
	assert.Equal(t, s.Current, got.Current)

	// sessions are copies, not shared state
	got.Current = "B"
	again, err := store.Get(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, "A", again.Current)

	require.NoError(t, store.Delete(ctx, s.ID))
	_, err = store.Get(ctx, s.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, store.Delete(ctx, s.ID))

	expired := testSession()
	expired.ExpiresAt = time.Now().Add(-time.Second)
	require.NoError(t, store.Set(ctx, expired))
	_, err = store.Get(ctx, expired.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStore(t *testing.T) {
	store := NewMemoryStore()
	defer store.Close()
	testStore(t, store)
}

func TestMemoryStoreCleanup(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	live := testSession()
	dead := testSession()
	dead.ExpiresAt = time.Now().Add(-time.Second)
	require.NoError(t, store.Set(ctx, live))
	require.NoError(t, store.Set(ctx, dead))
	assert.Equal(t, 2, store.Len())

	require.NoError(t, store.Cleanup(ctx))
	assert.Equal(t, 1, store.Len())
	_, err := store.Get(ctx, live.ID)
	assert.NoError(t, err)
}

func TestFileStore(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	require.NoError(t, err)
	testStore(t, store)
}

func TestFileStoreRejectsBadIDs(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	store, err := NewFileStore(filepath.Join(dir, "sessions"))
	require.NoError(t, err)

	_, err = store.Get(ctx, "../secret")
	assert.True(t, errors.Is(err, ErrNotFound))

	s := testSession()
	s.ID = "../escape"
	assert.Error(t, store.Set(ctx, s))
	_, statErr := os.Stat(filepath.Join(dir, "escape.json"))
	assert.True(t, os.IsNotExist(statErr))
}

func TestFileStoreCleanup(t *testing.T) {
	ctx := context.Background()
	store, err := NewFileStore(t.TempDir())
	require.NoError(t, err)

	live := testSession()
	dead := testSession()
	dead.ExpiresAt = time.Now().Add(-time.Second)
	require.NoError(t, store.Set(ctx, live))
	require.NoError(t, store.Set(ctx, dead))

	require.NoError(t, store.Cleanup(ctx))
	entries, err := os.ReadDir(store.Path())
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, live.ID+".json", entries[0].Name())
}

func TestValidID(t *testing.T) {
	assert.True(t, ValidID(New(testGraph(), 1, time.Minute).ID))
	assert.False(t, ValidID(""))
	assert.False(t, ValidID("../x"))
}

func TestNewRedisStorePrefix(t *testing.T) {
	assert.Equal(t, DefaultRedisPrefix+"abc", NewRedisStore(nil, "").key("abc"))
	assert.Equal(t, "p:abc", NewRedisStore(nil, "p:").key("abc"))
}
