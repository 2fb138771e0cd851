package client

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/matzehuels/npmmeta/pkg/errors"
)

func fastRetry(retries int) RetryOptions {
	return RetryOptions{Retries: retries, Factor: 2, MinTimeout: time.Millisecond}
}

func newTestClient(t *testing.T, h http.HandlerFunc) (*Client, *atomic.Int32) {
	t.Helper()
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		h(w, r)
	}))
	t.Cleanup(srv.Close)

	c := New(srv.URL)
	c.Retry = fastRetry(3)
	return c, &calls
}

func TestGetLatestVersion(t *testing.T) {
	var gotPath, gotQuery string
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath, gotQuery = r.URL.EscapedPath(), r.URL.RawQuery
		fmt.Fprint(w, `{"name":"vite","specifier":"^5","version":"5.1.0","publishedAt":"2024-01-01T00:00:00.000Z","lastSynced":1}`)
	})

	res, err := c.GetLatestVersion(context.Background(), "vite@^5", LatestOptions{Force: true})
	if err != nil {
		t.Fatalf("GetLatestVersion: %v", err)
	}
	if res.Name != "vite" || res.Version == nil || *res.Version != "5.1.0" {
		t.Errorf("result = %+v", res)
	}
	if gotPath != "/vite@%5E5" {
		t.Errorf("path = %q", gotPath)
	}
	if gotQuery != "force=true" {
		t.Errorf("query = %q", gotQuery)
	}
}

func TestGetLatestVersionBatch(t *testing.T) {
	var gotPath string
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.EscapedPath()
		fmt.Fprint(w, `[{"name":"vite","specifier":"latest","version":"5.1.0","lastSynced":1},{"name":"nope@1","error":"boom"}]`)
	})

	list, err := c.GetLatestVersionBatch(context.Background(), []string{"vite", "@nuxt/kit", "nope@1"}, LatestOptions{NoThrow: true})
	if err != nil {
		t.Fatalf("GetLatestVersionBatch: %v", err)
	}
	if gotPath != "/vite+@nuxt%2Fkit+nope@1" {
		t.Errorf("path = %q", gotPath)
	}
	if len(list) != 2 || list[1].Error != "boom" || list[1].Name != "nope@1" {
		t.Errorf("list = %+v", list)
	}
}

func TestThrowOnItemError(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `[{"name":"vite","version":"5.1.0"},{"name":"nope","error":"not found"}]`)
	})

	_, err := c.GetLatestVersionBatch(context.Background(), []string{"vite", "nope"}, LatestOptions{})
	if !errors.Is(err, errors.ErrCodeBatchFailed) || errors.UserMessage(err) != "not found" {
		t.Errorf("err = %v", err)
	}
}

func TestGetVersions(t *testing.T) {
	var gotPath, gotQuery string
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath, gotQuery = r.URL.EscapedPath(), r.URL.RawQuery
		fmt.Fprint(w, `{"name":"vite","specifier":"^5","distTags":{"latest":"5.1.0"},"versions":["5.0.0","5.1.0"],"time":{"5.0.0":"x"},"lastSynced":1}`)
	})

	res, err := c.GetVersions(context.Background(), "vite@^5", VersionsOptions{Loose: true, After: "2024-01-01", NoThrow: true})
	if err != nil {
		t.Fatalf("GetVersions: %v", err)
	}
	if len(res.Versions) != 2 || res.DistTags["latest"] != "5.1.0" {
		t.Errorf("result = %+v", res)
	}
	if gotPath != "/versions/vite@%5E5" {
		t.Errorf("path = %q", gotPath)
	}
	if gotQuery != "after=2024-01-01&loose=true&throw=false" {
		t.Errorf("query = %q", gotQuery)
	}
}

func TestRetriesServerErrors(t *testing.T) {
	var n atomic.Int32
	c, calls := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if n.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		fmt.Fprint(w, `{"name":"vite","version":"5.1.0"}`)
	})

	if _, err := c.GetLatestVersion(context.Background(), "vite", LatestOptions{}); err != nil {
		t.Fatalf("GetLatestVersion: %v", err)
	}
	if calls.Load() != 3 {
		t.Errorf("calls = %d, want 3", calls.Load())
	}
}

func TestRetriesExhausted(t *testing.T) {
	c, calls := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})
	c.Retry = fastRetry(2)

	_, err := c.GetLatestVersion(context.Background(), "vite", LatestOptions{})
	if err == nil {
		t.Fatal("expected error")
	}
	if calls.Load() != 3 {
		t.Errorf("calls = %d, want 3", calls.Load())
	}
}

func TestClientErrorNotRetried(t *testing.T) {
	c, calls := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprint(w, `{"error":"Invalid package name","code":"BATCH_FAILED"}`)
	})

	_, err := c.GetLatestVersion(context.Background(), "vite", LatestOptions{})
	if !errors.Is(err, errors.ErrCodeBatchFailed) || errors.UserMessage(err) != "Invalid package name" {
		t.Errorf("err = %v", err)
	}
	if calls.Load() != 1 {
		t.Errorf("calls = %d, want 1", calls.Load())
	}
}

func TestRetryDisabled(t *testing.T) {
	c, calls := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	c.Retry = RetryOptions{Disabled: true}

	if _, err := c.GetLatestVersion(context.Background(), "vite", LatestOptions{}); err == nil {
		t.Fatal("expected error")
	}
	if calls.Load() != 1 {
		t.Errorf("calls = %d, want 1", calls.Load())
	}
}

func TestEndpointWithPath(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		fmt.Fprint(w, `{"name":"vite"}`)
	}))
	defer srv.Close()

	c := New(srv.URL + "/api")
	if _, err := c.GetLatestVersion(context.Background(), "vite", LatestOptions{}); err != nil {
		t.Fatal(err)
	}
	if gotPath != "/api/vite" {
		t.Errorf("path = %q", gotPath)
	}
}

func TestNoPackages(t *testing.T) {
	c := New("")
	if c.Endpoint != DefaultEndpoint {
		t.Errorf("Endpoint = %q", c.Endpoint)
	}
	if _, err := c.GetLatestVersionBatch(context.Background(), nil, LatestOptions{}); !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("err = %v", err)
	}
}
