package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/pathwaygraph/pkg/cache"
	"github.com/matzehuels/pathwaygraph/pkg/layout"
	"github.com/matzehuels/pathwaygraph/pkg/observability"
)

// Cache key types reported to observability hooks.
const (
	keyTypeLayout   = "layout"
	keyTypeArtifact = "artifact"
)

// Runner encapsulates pipeline execution with caching.
// Both CLI and API use this to avoid duplicating caching logic.
//
// The Runner is stateless except for the cache, the default engine and the
// logger. Multiple goroutines can safely use the same Runner with
// different requests.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Engine layout.Engine // used when a request's engine matches its name
	Logger *log.Logger
}

// NewRunner creates a runner with the given cache, keyer and engine.
// If keyer is nil, a DefaultKeyer is used.
// If cache is nil, a NullCache is used (caching disabled).
// If engine is nil, requests build their engine with NewEngine.
func NewRunner(c cache.Cache, keyer cache.Keyer, engine layout.Engine, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Cache:  c,
		Keyer:  keyer,
		Engine: engine,
		Logger: logger,
	}
}

func (r *Runner) engineFor(name string) (layout.Engine, error) {
	if r.Engine != nil && r.Engine.Name() == name {
		return r.Engine, nil
	}
	return NewEngine(name)
}

// Layout computes the normalized layout for req and reports whether it came
// from the cache. On error the layout is empty.
func (r *Runner) Layout(ctx context.Context, req Request) (layout.Layout, bool, error) {
	r.applyLogger(&req)
	if err := req.ValidateAndSetDefaults(); err != nil {
		return layout.Layout{}, false, err
	}

	engine, err := r.engineFor(req.Engine)
	if err != nil {
		return layout.Layout{}, false, err
	}

	// Validate before hashing so a broken pathway never reaches the cache.
	if err := req.Graph.Validate(); err != nil {
		return layout.Layout{}, false, err
	}

	dims := req.dimensions()
	key, err := r.layoutKey(req, dims)
	if err != nil {
		return layout.Layout{}, false, fmt.Errorf("layout cache key: %w", err)
	}

	if !req.Refresh {
		var cached layout.Layout
		if err := cache.GetJSON(ctx, r.Cache, key, &cached); err == nil {
			observability.Cache().OnCacheHit(ctx, keyTypeLayout)
			req.Logger.Debug("layout cache hit", "engine", req.Engine)
			return cached, true, nil
		}
		observability.Cache().OnCacheMiss(ctx, keyTypeLayout)
	}

	hooks := observability.Layout()
	hooks.OnLayoutStart(ctx, engine.Name(), req.Graph.NodeCount())
	start := time.Now()
	l, err := layout.ComputeAndNormalize(ctx, engine, req.Graph, dims, req.Expansion, req.ViewportWidth, req.layoutOptions())
	hooks.OnLayoutComplete(ctx, engine.Name(), time.Since(start), err)
	if err != nil {
		return layout.Layout{}, false, err
	}

	if len(l.Pending) > 0 {
		req.Logger.Debug("nodes laid out with default size", "pending", l.Pending)
	}
	r.store(ctx, key, keyTypeLayout, l, cache.TTLLayout)
	return l, false, nil
}

// Render computes the layout for req and draws it in every format.
func (r *Runner) Render(ctx context.Context, req Request, formats []string) (*Result, error) {
	if len(formats) == 0 {
		formats = []string{FormatSVG}
	}
	if err := ValidateFormats(formats); err != nil {
		return nil, err
	}
	r.applyLogger(&req)
	if err := req.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}

	res := &Result{Artifacts: make(map[string][]byte)}
	res.Stats.NodeCount = req.Graph.NodeCount()
	res.Stats.EdgeCount = req.Graph.EdgeCount()

	layoutStart := time.Now()
	l, hit, err := r.Layout(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("layout: %w", err)
	}
	res.Layout = l
	res.Document = req.document(l)
	res.Stats.Pending = len(l.Pending)
	res.Stats.LayoutTime = time.Since(layoutStart)
	res.CacheInfo.LayoutHit = hit

	req.Logger.Info("computed layout",
		"nodes", len(l.Nodes),
		"edges", len(l.Edges),
		"cached", hit,
		"duration", res.Stats.LayoutTime)

	hooks := observability.Layout()
	hooks.OnRenderStart(ctx, formats)
	renderStart := time.Now()
	artifacts, renderHit, err := r.renderWithCache(ctx, l, req, formats)
	res.Stats.RenderTime = time.Since(renderStart)
	hooks.OnRenderComplete(ctx, formats, res.Stats.RenderTime, err)
	if err != nil {
		return nil, err
	}
	res.Artifacts = artifacts
	res.CacheInfo.RenderHit = renderHit

	req.Logger.Info("rendered outputs",
		"formats", formats,
		"duration", res.Stats.RenderTime)
	return res, nil
}

// renderWithCache serves every format from the cache or renders them all.
// JSON documents embed request metadata and are always rebuilt.
func (r *Runner) renderWithCache(ctx context.Context, l layout.Layout, req Request, formats []string) (map[string][]byte, bool, error) {
	base, err := r.artifactBase(req, l)
	if err != nil {
		return nil, false, err
	}

	artifacts := make(map[string][]byte, len(formats))
	var missing []string
	for _, format := range formats {
		if format == FormatJSON || req.Refresh {
			missing = append(missing, format)
			continue
		}
		key := r.Keyer.ArtifactKey(base, req.ArtifactKeyOpts(format))
		if data, hit, err := r.Cache.Get(ctx, key); err == nil && hit {
			observability.Cache().OnCacheHit(ctx, keyTypeArtifact)
			artifacts[format] = data
			continue
		}
		observability.Cache().OnCacheMiss(ctx, keyTypeArtifact)
		missing = append(missing, format)
	}
	if len(missing) == 0 {
		return artifacts, true, nil
	}

	rendered, err := RenderFromLayout(ctx, l, req, missing)
	if err != nil {
		return nil, false, err
	}
	for format, data := range rendered {
		artifacts[format] = data
		if format == FormatJSON {
			continue
		}
		key := r.Keyer.ArtifactKey(base, req.ArtifactKeyOpts(format))
		if err := r.Cache.Set(ctx, key, data, cache.TTLArtifact); err != nil {
			req.Logger.Warn("cache write failed", "format", format, "error", err)
			continue
		}
		observability.Cache().OnCacheSet(ctx, keyTypeArtifact, len(data))
	}
	return artifacts, false, nil
}

func (r *Runner) layoutKey(req Request, dims layout.Dimensions) (string, error) {
	graphHash, err := cache.HashJSON(req.Graph)
	if err != nil {
		return "", err
	}
	opts, err := req.LayoutKeyOpts(dims)
	if err != nil {
		return "", err
	}
	return r.Keyer.LayoutKey(graphHash, opts), nil
}

// artifactBase hashes the pathway together with the layout: the layout
// carries geometry only, labels and details come from the pathway.
func (r *Runner) artifactBase(req Request, l layout.Layout) (string, error) {
	graphHash, err := cache.HashJSON(req.Graph)
	if err != nil {
		return "", err
	}
	layoutHash, err := cache.HashJSON(l)
	if err != nil {
		return "", err
	}
	return cache.Hash([]byte(graphHash + layoutHash)), nil
}

func (r *Runner) store(ctx context.Context, key, keyType string, v any, ttl time.Duration) {
	data, err := json.Marshal(v)
	if err != nil {
		r.Logger.Warn("cache encode failed", "type", keyType, "error", err)
		return
	}
	if err := r.Cache.Set(ctx, key, data, ttl); err != nil {
		r.Logger.Warn("cache write failed", "type", keyType, "error", err)
		return
	}
	observability.Cache().OnCacheSet(ctx, keyType, len(data))
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

// applyLogger sets the runner's logger on the request if not already set.
func (r *Runner) applyLogger(req *Request) {
	if req.Logger == nil {
		req.Logger = r.Logger
	}
}
