package metrics

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/matzehuels/npmmeta/pkg/observability"
)

func TestFetchHooks(t *testing.T) {
	m := New()
	ctx := context.Background()

	m.OnFetchStart(ctx, "vite")
	m.OnFetchComplete(ctx, "vite", 10*time.Millisecond, nil)
	m.OnFetchComplete(ctx, "nuxt", 10*time.Millisecond, errors.New("boom"))
	m.OnCoalesced(ctx, "vite")
	m.OnCoalesced(ctx, "vite")

	if got := testutil.ToFloat64(m.fetchesTotal.WithLabelValues("success")); got != 1 {
		t.Errorf("success fetches = %v", got)
	}
	if got := testutil.ToFloat64(m.fetchesTotal.WithLabelValues("error")); got != 1 {
		t.Errorf("error fetches = %v", got)
	}
	if got := testutil.ToFloat64(m.coalescedTotal); got != 2 {
		t.Errorf("coalesced = %v", got)
	}
}

func TestCacheHooks(t *testing.T) {
	m := New()
	ctx := context.Background()

	m.OnCacheHit(ctx, "manifest")
	m.OnCacheHit(ctx, "manifest")
	m.OnCacheMiss(ctx)
	m.OnCacheExpired(ctx, "error")
	m.OnCacheSet(ctx, "manifest")

	tests := map[string]float64{
		"hit_manifest":  2,
		"miss":          1,
		"expired_error": 1,
		"set_manifest":  1,
	}
	for event, want := range tests {
		if got := testutil.ToFloat64(m.cacheEvents.WithLabelValues(event)); got != want {
			t.Errorf("%s = %v, want %v", event, got, want)
		}
	}
}

func TestHandlerExposesMetrics(t *testing.T) {
	m := New()
	m.RecordHTTPRequest("/versions/*", http.StatusOK, 5*time.Millisecond)
	m.OnResponse(context.Background(), http.MethodGet, "registry.npmjs.org", "/vite", 200, time.Millisecond)

	srv := httptest.NewServer(m.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)

	for _, want := range []string{
		`npmmeta_http_requests_total{route="/versions/*",status="200"} 1`,
		`npmmeta_registry_requests_total{host="registry.npmjs.org",status="200"} 1`,
		"go_goroutines",
	} {
		if !strings.Contains(string(body), want) {
			t.Errorf("metrics output missing %q", want)
		}
	}
}

func TestInstall(t *testing.T) {
	t.Cleanup(observability.Reset)

	m := New()
	m.Install()

	observability.Fetch().OnCoalesced(context.Background(), "vite")
	if got := testutil.ToFloat64(m.coalescedTotal); got != 1 {
		t.Errorf("coalesced = %v after hook call", got)
	}
}
