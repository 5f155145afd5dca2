package observability

import (
	"context"
	"errors"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestNoopHooksDoNotPanic(t *testing.T) {
	ctx := context.Background()

	l := NoopLayoutHooks{}
	l.OnLayoutStart(ctx, "layered", 12)
	l.OnLayoutComplete(ctx, "layered", time.Second, nil)
	l.OnRenderStart(ctx, []string{"svg"})
	l.OnRenderComplete(ctx, []string{"svg"}, time.Second, nil)

	c := NoopCacheHooks{}
	c.OnCacheHit(ctx, "layout")
	c.OnCacheMiss(ctx, "layout")
	c.OnCacheSet(ctx, "artifact", 1024)

	h := NoopHTTPHooks{}
	h.OnResponse(ctx, "GET", "/healthz", 200, time.Millisecond)
}

func TestGlobalHooksRegistry(t *testing.T) {
	Reset()
	defer Reset()

	if _, ok := Layout().(NoopLayoutHooks); !ok {
		t.Error("Layout() should return NoopLayoutHooks by default")
	}
	if _, ok := Cache().(NoopCacheHooks); !ok {
		t.Error("Cache() should return NoopCacheHooks by default")
	}
	if _, ok := HTTP().(NoopHTTPHooks); !ok {
		t.Error("HTTP() should return NoopHTTPHooks by default")
	}

	customLayout := &testLayoutHooks{}
	SetLayoutHooks(customLayout)
	if Layout() != customLayout {
		t.Error("SetLayoutHooks should set custom hooks")
	}

	customCache := &testCacheHooks{}
	SetCacheHooks(customCache)
	if Cache() != customCache {
		t.Error("SetCacheHooks should set custom hooks")
	}

	// nil must not replace registered hooks
	SetLayoutHooks(nil)
	if Layout() != customLayout {
		t.Error("SetLayoutHooks(nil) should be ignored")
	}

	Reset()
	if _, ok := Layout().(NoopLayoutHooks); !ok {
		t.Error("Reset should restore no-op layout hooks")
	}
}

func TestPrometheusLayout(t *testing.T) {
	p := NewPrometheus()
	ctx := context.Background()

	p.OnLayoutComplete(ctx, "layered", 10*time.Millisecond, nil)
	p.OnLayoutComplete(ctx, "layered", 20*time.Millisecond, nil)
	p.OnLayoutComplete(ctx, "dot", time.Millisecond, errors.New("boom"))

	if got := testutil.ToFloat64(p.LayoutTotal.WithLabelValues("layered", "success")); got != 2 {
		t.Errorf("layered success = %v, want 2", got)
	}
	if got := testutil.ToFloat64(p.LayoutTotal.WithLabelValues("dot", "error")); got != 1 {
		t.Errorf("dot error = %v, want 1", got)
	}
}

func TestPrometheusCacheAndRender(t *testing.T) {
	p := NewPrometheus()
	ctx := context.Background()

	p.OnCacheMiss(ctx, "layout")
	p.OnCacheSet(ctx, "layout", 512)
	p.OnCacheHit(ctx, "layout")
	p.OnCacheHit(ctx, "layout")
	p.OnRenderComplete(ctx, []string{"svg", "png"}, time.Second, nil)

	for event, want := range map[string]float64{"hit": 2, "miss": 1, "set": 1} {
		if got := testutil.ToFloat64(p.CacheEvents.WithLabelValues("layout", event)); got != want {
			t.Errorf("cache %s = %v, want %v", event, got, want)
		}
	}
	if got := testutil.ToFloat64(p.RenderTotal.WithLabelValues("png", "success")); got != 1 {
		t.Errorf("png renders = %v, want 1", got)
	}
}

func TestPrometheusHandler(t *testing.T) {
	p := NewPrometheus()
	p.OnResponse(context.Background(), "GET", "/healthz", 200, time.Millisecond)
	p.OnLayoutComplete(context.Background(), "layered", time.Millisecond, nil)

	rec := httptest.NewRecorder()
	p.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, _ := io.ReadAll(rec.Body)

	for _, name := range []string{
		"pathwaygraph_http_requests_total",
		"pathwaygraph_layout_total",
		"pathwaygraph_layout_duration_seconds",
	} {
		if !strings.Contains(string(body), name) {
			t.Errorf("exposition missing %s", name)
		}
	}
}

func TestPrometheusRegister(t *testing.T) {
	Reset()
	defer Reset()

	p := NewPrometheus()
	p.Register()
	if Layout() != LayoutHooks(p) || Cache() != CacheHooks(p) || HTTP() != HTTPHooks(p) {
		t.Error("Register should install p for every hook category")
	}
}

type testLayoutHooks struct{ NoopLayoutHooks }
type testCacheHooks struct{ NoopCacheHooks }
