package observability

import (
	"context"
	"testing"
	"time"
)

func TestNoopHooksDoNotPanic(t *testing.T) {
	ctx := context.Background()

	f := NoopFetchHooks{}
	f.OnFetchStart(ctx, "vite")
	f.OnFetchComplete(ctx, "vite", time.Second, nil)
	f.OnCoalesced(ctx, "vite")

	c := NoopCacheHooks{}
	c.OnCacheHit(ctx, "manifest")
	c.OnCacheMiss(ctx)
	c.OnCacheExpired(ctx, "error")
	c.OnCacheSet(ctx, "manifest")

	h := NoopHTTPHooks{}
	h.OnRequest(ctx, "GET", "registry.npmjs.org", "/vite")
	h.OnResponse(ctx, "GET", "registry.npmjs.org", "/vite", 200, time.Second)
	h.OnError(ctx, "GET", "registry.npmjs.org", "/vite", nil)
}

func TestGlobalHooksRegistry(t *testing.T) {
	Reset()

	if _, ok := Fetch().(NoopFetchHooks); !ok {
		t.Error("Fetch() should return NoopFetchHooks by default")
	}
	if _, ok := Cache().(NoopCacheHooks); !ok {
		t.Error("Cache() should return NoopCacheHooks by default")
	}
	if _, ok := HTTP().(NoopHTTPHooks); !ok {
		t.Error("HTTP() should return NoopHTTPHooks by default")
	}

	customFetch := &testFetchHooks{}
	SetFetchHooks(customFetch)
	if Fetch() != customFetch {
		t.Error("SetFetchHooks should set custom hooks")
	}

	customCache := &testCacheHooks{}
	SetCacheHooks(customCache)
	if Cache() != customCache {
		t.Error("SetCacheHooks should set custom hooks")
	}

	customHTTP := &testHTTPHooks{}
	SetHTTPHooks(customHTTP)
	if HTTP() != customHTTP {
		t.Error("SetHTTPHooks should set custom hooks")
	}

	Reset()
	if _, ok := Fetch().(NoopFetchHooks); !ok {
		t.Error("Reset() should restore NoopFetchHooks")
	}
}

func TestSetNilHooksIsIgnored(t *testing.T) {
	Reset()

	custom := &testFetchHooks{}
	SetFetchHooks(custom)
	SetFetchHooks(nil)

	if Fetch() != custom {
		t.Error("SetFetchHooks(nil) should be ignored")
	}

	Reset()
}

// Test implementations
type testFetchHooks struct{ NoopFetchHooks }
type testCacheHooks struct{ NoopCacheHooks }
type testHTTPHooks struct{ NoopHTTPHooks }

func TestSettersKeepOtherHooks(t *testing.T) {
	Reset()
	defer Reset()

	fetch := &testFetchHooks{}
	SetFetchHooks(fetch)
	SetCacheHooks(&testCacheHooks{})

	if Fetch() != fetch {
		t.Error("SetCacheHooks replaced the fetch hooks")
	}
	if _, ok := HTTP().(NoopHTTPHooks); !ok {
		t.Error("HTTP hooks changed without being set")
	}
}

func TestConcurrentInstall(t *testing.T) {
	Reset()
	defer Reset()

	done := make(chan struct{})
	for i := 0; i < 8; i++ {
		go func() {
			defer func() { done <- struct{}{} }()
			for j := 0; j < 100; j++ {
				SetFetchHooks(&testFetchHooks{})
				SetCacheHooks(&testCacheHooks{})
				Fetch().OnFetchStart(context.Background(), "vite")
				Cache().OnCacheMiss(context.Background())
			}
		}()
	}
	for i := 0; i < 8; i++ {
		<-done
	}
	if _, ok := Fetch().(*testFetchHooks); !ok {
		t.Errorf("Fetch() = %T", Fetch())
	}
	if _, ok := Cache().(*testCacheHooks); !ok {
		t.Errorf("Cache() = %T", Cache())
	}
}
