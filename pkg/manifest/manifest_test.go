package manifest

import (
	"context"
	"encoding/json"
	"reflect"
	"testing"
	"time"

	"github.com/matzehuels/npmmeta/pkg/cache"
	"github.com/matzehuels/npmmeta/pkg/errors"
)

func TestSortedVersions(t *testing.T) {
	m := &Manifest{Versions: []string{"1.10.0", "1.2.0", "1.0.0-beta.1", "1.0.0", "0.9.0"}}
	want := []string{"0.9.0", "1.0.0-beta.1", "1.0.0", "1.2.0", "1.10.0"}

	got := m.SortedVersions()
	if !reflect.DeepEqual(got, want) {
		t.Errorf("SortedVersions() = %v, want %v", got, want)
	}
	if m.Versions[0] != "1.10.0" {
		t.Error("SortedVersions should not reorder the manifest in place")
	}
}

func TestSortedVersionsAlreadySorted(t *testing.T) {
	m := &Manifest{Versions: []string{"1.0.0", "1.2.0", "2.0.0"}}
	got := m.SortedVersions()
	if &got[0] != &m.Versions[0] {
		t.Error("sorted input should be returned without copying")
	}
}

func TestEntryJSON(t *testing.T) {
	t.Run("manifest", func(t *testing.T) {
		in := Entry{Manifest: &Manifest{
			Name:         "vite",
			DistTags:     map[string]string{"latest": "5.0.2"},
			Versions:     []string{"5.0.2"},
			VersionsMeta: map[string]VersionMeta{"5.0.2": {Time: "2023-11-21T00:00:00.000Z"}},
			LastSynced:   1700000000000,
		}}
		data, err := json.Marshal(in)
		if err != nil {
			t.Fatal(err)
		}

		var probe map[string]any
		_ = json.Unmarshal(data, &probe)
		if probe["kind"] != "manifest" {
			t.Errorf("kind = %v, want manifest", probe["kind"])
		}

		var out Entry
		if err := json.Unmarshal(data, &out); err != nil {
			t.Fatal(err)
		}
		if out.Failure != nil || !reflect.DeepEqual(out.Manifest, in.Manifest) {
			t.Errorf("decoded = %+v, want %+v", out, in)
		}
	})

	t.Run("error", func(t *testing.T) {
		data, err := json.Marshal(Entry{Failure: &Failure{Error: "boom", LastSynced: 42}})
		if err != nil {
			t.Fatal(err)
		}
		if string(data) != `{"kind":"error","error":"boom","lastSynced":42}` {
			t.Errorf("encoded = %s", data)
		}

		var out Entry
		if err := json.Unmarshal(data, &out); err != nil {
			t.Fatal(err)
		}
		if out.Manifest != nil || out.Failure == nil || out.Failure.Error != "boom" || out.Failure.LastSynced != 42 {
			t.Errorf("decoded = %+v", out)
		}
	})
}

func TestEntryJSONInvalid(t *testing.T) {
	if _, err := json.Marshal(Entry{}); err == nil {
		t.Error("marshaling an empty entry should fail")
	}
	if _, err := json.Marshal(Entry{Manifest: &Manifest{}, Failure: &Failure{}}); err == nil {
		t.Error("marshaling an entry with both branches should fail")
	}

	for _, data := range []string{
		`{"kind":"weird"}`,
		`{}`,
		`{"kind":"manifest"}`,
		`{"kind":"manifest","manifest":{"name":"x"},"error":"boom"}`,
		`{"kind":"error","error":"boom","manifest":{"name":"x"}}`,
	} {
		var e Entry
		err := json.Unmarshal([]byte(data), &e)
		if err == nil {
			t.Errorf("Unmarshal(%s) should fail", data)
			continue
		}
		if !errors.Is(err, errors.ErrCodeInvalidEntry) {
			t.Errorf("Unmarshal(%s) code = %v", data, errors.GetCode(err))
		}
	}
}

func TestEntryFresh(t *testing.T) {
	synced := time.UnixMilli(1_700_000_000_000)
	timeout := 15 * time.Minute
	e := Entry{Manifest: &Manifest{LastSynced: synced.UnixMilli()}}

	tests := []struct {
		name string
		now  time.Time
		want bool
	}{
		{"just synced", synced, true},
		{"one ms before timeout", synced.Add(timeout - time.Millisecond), true},
		{"exactly at timeout", synced.Add(timeout), false},
		{"one ms after timeout", synced.Add(timeout + time.Millisecond), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := e.Fresh(tt.now, timeout); got != tt.want {
				t.Errorf("Fresh() = %v, want %v", got, tt.want)
			}
		})
	}

	failure := Entry{Failure: &Failure{LastSynced: synced.UnixMilli()}}
	if !failure.Fresh(synced.Add(time.Second), timeout) {
		t.Error("failure entries follow the same freshness rule")
	}
}

func TestStore(t *testing.T) {
	ctx := context.Background()
	s := NewStore(cache.NewMemoryCache(), time.Hour)

	if _, ok, err := s.Get(ctx, "vite"); ok || err != nil {
		t.Fatalf("empty store Get = %v, %v", ok, err)
	}

	e := Entry{Failure: &Failure{Error: "boom", LastSynced: 1}}
	if err := s.Set(ctx, "vite", e); err != nil {
		t.Fatal(err)
	}
	got, ok, err := s.Get(ctx, "vite")
	if err != nil || !ok || got.Failure == nil || got.Failure.Error != "boom" {
		t.Fatalf("Get = %+v, %v, %v", got, ok, err)
	}

	if err := s.Delete(ctx, "vite"); err != nil {
		t.Fatal(err)
	}
	if _, ok, _ := s.Get(ctx, "vite"); ok {
		t.Error("Get after Delete should miss")
	}
}

func TestStoreCorruptEntry(t *testing.T) {
	ctx := context.Background()
	mem := cache.NewMemoryCache()
	s := NewStore(mem, 0)

	_ = mem.Set(ctx, "vite", []byte(`{"kind":"nope"}`), 0)
	if _, ok, err := s.Get(ctx, "vite"); ok || err == nil {
		t.Errorf("corrupt entry Get = %v, %v; want error", ok, err)
	}
}
