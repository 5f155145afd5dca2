// Package cache stores computed layouts and rendered artifacts.
//
// Layout computation is idempotent: identical (pathway, dimensions,
// expansion, viewport width, engine, options) always yield the identical
// layout. That makes a content-addressed cache sound: the key is a hash of
// every input, so a hit can be served without recomputation and entries
// never need invalidation, only expiry.
//
// # Backends
//
//   - [FileCache]: one JSON file per entry, for the CLI
//   - [MemoryCache]: process-local map, for tests and single-instance servers
//   - [RedisCache]: shared across server instances
//   - [NullCache]: caching disabled
//
// # Keys
//
// A [Keyer] derives keys. [DefaultKeyer] hashes the inputs;
// [ScopedKeyer] prefixes another keyer's keys for namespacing.
package cache

import (
	"context"
	"time"
)

// Default TTLs.
const (
	TTLLayout   = 24 * time.Hour
	TTLArtifact = 24 * time.Hour
)

// Cache is a byte-oriented key/value store with expiry.
//
// Get returns (nil, false, nil) on a miss; errors are reserved for backend
// failures. A ttl of zero means no expiry.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// LayoutKeyOpts holds every input of a layout pass except the pathway,
// which is hashed separately.
type LayoutKeyOpts struct {
	Engine         string   `json:"engine"`
	ViewportWidth  float64  `json:"viewport_width"`
	Expanded       []string `json:"expanded,omitempty"` // sorted
	DimensionsHash string   `json:"dimensions"`
	YOffset        float64  `json:"y_offset"`
}

// ArtifactKeyOpts identifies a rendered artifact of a layout.
type ArtifactKeyOpts struct {
	Format  string  `json:"format"`
	Current string  `json:"current,omitempty"`
	Scale   float64 `json:"scale,omitempty"`
}

// Keyer derives cache keys.
type Keyer interface {
	LayoutKey(pathwayHash string, opts LayoutKeyOpts) string
	ArtifactKey(layoutHash string, opts ArtifactKeyOpts) string
}

// DefaultKeyer produces "layout:<sha256>" and "artifact:<sha256>" keys.
type DefaultKeyer struct{}

// NewDefaultKeyer creates the default keyer.
func NewDefaultKeyer() Keyer {
	return DefaultKeyer{}
}

// LayoutKey generates a key for a layout.
func (DefaultKeyer) LayoutKey(pathwayHash string, opts LayoutKeyOpts) string {
	return hashKey("layout", pathwayHash, opts)
}

// ArtifactKey generates a key for a rendered artifact.
func (DefaultKeyer) ArtifactKey(layoutHash string, opts ArtifactKeyOpts) string {
	return hashKey("artifact", layoutHash, opts)
}

var _ Keyer = DefaultKeyer{}
