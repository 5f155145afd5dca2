package cli

import (
	"context"
	"io"
	"path/filepath"
	"testing"

	"github.com/matzehuels/pathwaygraph/pkg/cache"
	"github.com/matzehuels/pathwaygraph/pkg/pipeline"
)

func TestFileCacheDir(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", "/tmp/xdg")
	c := New(io.Discard, LogInfo)

	dir, err := c.fileCacheDir()
	if err != nil {
		t.Fatalf("fileCacheDir() error: %v", err)
	}
	if want := filepath.Join("/tmp/xdg", "pathwaygraph"); dir != want {
		t.Errorf("fileCacheDir() = %q, want %q", dir, want)
	}

	c.Config.Cache.Dir = "/var/cache/pw"
	if dir, _ := c.fileCacheDir(); dir != "/var/cache/pw" {
		t.Errorf("fileCacheDir() = %q, want configured dir", dir)
	}
}

func TestNewCacheBackends(t *testing.T) {
	ctx := context.Background()
	tests := []struct {
		backend string
		noCache bool
		check   func(cache.Cache) bool
	}{
		{"file", false, func(ch cache.Cache) bool { _, ok := ch.(*cache.FileCache); return ok }},
		{"memory", false, func(ch cache.Cache) bool { _, ok := ch.(*cache.MemoryCache); return ok }},
		{"none", false, func(ch cache.Cache) bool { _, ok := ch.(cache.NullCache); return ok }},
		{"file", true, func(ch cache.Cache) bool { _, ok := ch.(cache.NullCache); return ok }},
	}
	for _, tt := range tests {
		t.Run(tt.backend, func(t *testing.T) {
			c := New(io.Discard, LogInfo)
			c.Config.Cache.Backend = tt.backend
			c.Config.Cache.Dir = t.TempDir()

			ch, err := c.newCache(ctx, tt.noCache)
			if err != nil {
				t.Fatalf("newCache() error: %v", err)
			}
			defer ch.Close()
			if !tt.check(ch) {
				t.Errorf("newCache(%q, noCache=%v) = %T", tt.backend, tt.noCache, ch)
			}
		})
	}
}

func TestKeyerForSpacing(t *testing.T) {
	opts := cache.LayoutKeyOpts{Engine: "dot", ViewportWidth: 1200}

	def := keyerFor(pipeline.EngineOptions{}).LayoutKey("abc", opts)
	if def != cache.NewDefaultKeyer().LayoutKey("abc", opts) {
		t.Errorf("default spacing should use the default keys, got %q", def)
	}

	wide := keyerFor(pipeline.EngineOptions{RankSep: 80, NodeSep: 40}).LayoutKey("abc", opts)
	if wide != "sep-80-40:"+def {
		t.Errorf("custom spacing key = %q, want scoped %q", wide, def)
	}
}
