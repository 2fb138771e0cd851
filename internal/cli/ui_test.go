package cli

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/matzehuels/npmmeta/pkg/batch"
	"github.com/matzehuels/npmmeta/pkg/manifest"
	"github.com/matzehuels/npmmeta/pkg/resolve"
)

func strPtr(s string) *string { return &s }

func TestFormatLatest(t *testing.T) {
	tests := []struct {
		name string
		item batch.Item[*resolve.ResolvedVersion]
		want []string
	}{
		{
			name: "resolved",
			item: batch.Item[*resolve.ResolvedVersion]{Value: &resolve.ResolvedVersion{
				Name: "vite", Specifier: "^5", Version: strPtr("5.1.0"), PublishedAt: strPtr("2024-01-02T10:00:00.000Z"),
			}},
			want: []string{"vite@^5", "5.1.0", "2024-01-02"},
		},
		{
			name: "no match",
			item: batch.Item[*resolve.ResolvedVersion]{Value: &resolve.ResolvedVersion{Name: "vite", Specifier: "nope"}},
			want: []string{"vite@nope", "no matching version"},
		},
		{
			name: "deprecated",
			item: batch.Item[*resolve.ResolvedVersion]{Value: &resolve.ResolvedVersion{
				Name: "request", Specifier: "latest", Version: strPtr("2.88.2"),
				VersionMeta: &manifest.VersionMeta{Deprecated: "request has been deprecated"},
			}},
			want: []string{"2.88.2", "deprecated"},
		},
		{
			name: "failed",
			item: batch.Item[*resolve.ResolvedVersion]{Err: &batch.ItemError{Name: "no-such-pkg", Error: "404 Not Found"}},
			want: []string{"no-such-pkg", "404 Not Found"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := formatLatest(tt.item)
			for _, w := range tt.want {
				if !strings.Contains(got, w) {
					t.Errorf("formatLatest() = %q, missing %q", got, w)
				}
			}
		})
	}
}

func TestFormatVersionsNewestFirst(t *testing.T) {
	item := batch.Item[*resolve.VersionsInfo]{Value: &resolve.VersionsInfo{
		Name:      "vite",
		Specifier: "^5",
		DistTags:  map[string]string{"latest": "5.1.0", "beta": "5.1.0"},
		Versions:  []string{"5.0.0", "5.1.0"},
		Time:      map[string]string{"5.0.0": "2023-11-16T00:00:00.000Z"},
	}}

	got := formatVersions(item)
	if !strings.Contains(got, "(2 versions)") {
		t.Errorf("missing count in %q", got)
	}
	if strings.Index(got, "5.1.0") > strings.Index(got, "5.0.0") {
		t.Errorf("versions not newest first: %q", got)
	}
	if !strings.Contains(got, "beta, latest") {
		t.Errorf("tags not listed: %q", got)
	}
	if !strings.Contains(got, "2023-11-16") {
		t.Errorf("publish date missing: %q", got)
	}
}

func TestTagsByVersion(t *testing.T) {
	got := tagsByVersion(map[string]string{"latest": "1.0.0", "next": "2.0.0-rc.1", "stable": "1.0.0"})
	if strings.Join(got["1.0.0"], ",") != "latest,stable" {
		t.Errorf("tags for 1.0.0 = %v", got["1.0.0"])
	}
	if len(got["2.0.0-rc.1"]) != 1 {
		t.Errorf("tags for 2.0.0-rc.1 = %v", got["2.0.0-rc.1"])
	}
}

func testVersionList() VersionListModel {
	return NewVersionListModel(&resolve.VersionsInfo{
		Name:     "left-pad",
		DistTags: map[string]string{"latest": "1.3.0"},
		Versions: []string{"1.0.0", "1.1.0", "1.2.0", "1.3.0"},
		VersionsMeta: map[string]manifest.VersionMeta{
			"1.0.0": {Time: "2016-03-23T00:00:00.000Z", Deprecated: "use String.prototype.padStart()"},
			"1.1.0": {Time: "2016-03-24T00:00:00.000Z"},
			"1.2.0": {Time: "2017-01-01T00:00:00.000Z", Engines: map[string]string{"node": ">=0.10"}},
			"1.3.0": {Time: "2018-04-09T00:00:00.000Z"},
		},
	})
}

func press(m VersionListModel, key string) VersionListModel {
	next, _ := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(key)})
	return next.(VersionListModel)
}

func TestVersionListNavigation(t *testing.T) {
	m := testVersionList()
	if m.Versions[0] != "1.3.0" {
		t.Fatalf("first version = %s, want newest", m.Versions[0])
	}

	m = press(m, "j")
	m = press(m, "j")
	if m.Cursor != 2 {
		t.Errorf("cursor = %d, want 2", m.Cursor)
	}
	m = press(m, "G")
	if m.Cursor != 3 {
		t.Errorf("cursor after G = %d, want 3", m.Cursor)
	}
	m = press(m, "j")
	if m.Cursor != 3 {
		t.Errorf("cursor moved past the end: %d", m.Cursor)
	}
	m = press(m, "g")
	m = press(m, "k")
	if m.Cursor != 0 {
		t.Errorf("cursor moved before the start: %d", m.Cursor)
	}
}

func TestVersionListScrolls(t *testing.T) {
	m := testVersionList()
	next, _ := m.Update(tea.WindowSizeMsg{Width: 80, Height: 10})
	m = next.(VersionListModel)
	m.Height = 2

	m = press(m, "j")
	m = press(m, "j")
	if m.Offset != 1 {
		t.Errorf("offset = %d, want 1", m.Offset)
	}
}

func TestVersionListQuit(t *testing.T) {
	_, cmd := testVersionList().Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	if cmd == nil {
		t.Fatal("expected quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("q did not quit")
	}
}

func TestVersionListView(t *testing.T) {
	m := press(press(press(testVersionList(), "j"), "j"), "j")
	view := m.View()

	for _, want := range []string{"left-pad", "1.3.0", "node >=0.10", "deprecated: use String.prototype.padStart()", "[4/4]"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q", want)
		}
	}
}

func TestVersionListEmpty(t *testing.T) {
	m := NewVersionListModel(&resolve.VersionsInfo{Name: "vite", Time: map[string]string{}})
	if !strings.Contains(m.View(), "no matching versions") {
		t.Error("empty list not reported")
	}
}

func TestFormatEngines(t *testing.T) {
	if got := formatEngines(map[string]string{"npm": ">=7", "node": ">=18"}); got != "node >=18, npm >=7" {
		t.Errorf("formatEngines() = %q", got)
	}
	if got := formatEngines(nil); got != "—" {
		t.Errorf("formatEngines(nil) = %q", got)
	}
}
