// Package manifest defines the normalized registry metadata npmmeta serves
// and the store that persists it between requests.
package manifest

import (
	"sort"

	"github.com/Masterminds/semver/v3"
)

// VersionMeta is the per-version metadata kept from the registry document.
type VersionMeta struct {
	Time       string            `json:"time,omitempty"`
	Engines    map[string]string `json:"engines,omitempty"`
	Deprecated string            `json:"deprecated,omitempty"`
}

// Manifest is the normalized view of one package. Versions lists every key
// of VersionsMeta in ascending semver order.
type Manifest struct {
	Name         string                 `json:"name"`
	DistTags     map[string]string      `json:"distTags"`
	Versions     []string               `json:"versions"`
	VersionsMeta map[string]VersionMeta `json:"versionsMeta"`
	TimeCreated  string                 `json:"timeCreated,omitempty"`
	TimeModified string                 `json:"timeModified,omitempty"`
	LastSynced   int64                  `json:"lastSynced"`
}

// Latest returns the "latest" dist-tag, or "" when the package has none.
func (m *Manifest) Latest() string {
	return m.DistTags["latest"]
}

// SortedVersions returns Versions in ascending semver order. Manifests built
// by the npm client are already sorted; older or hand-built ones are sorted
// on a copy.
func (m *Manifest) SortedVersions() []string {
	if sort.SliceIsSorted(m.Versions, func(i, j int) bool { return lessVersion(m.Versions[i], m.Versions[j]) }) {
		return m.Versions
	}
	out := append([]string(nil), m.Versions...)
	SortVersions(out)
	return out
}

// SortVersions sorts vs in place in ascending semver order. Strings that are
// not valid versions sort first, lexically.
func SortVersions(vs []string) {
	sort.SliceStable(vs, func(i, j int) bool { return lessVersion(vs[i], vs[j]) })
}

func lessVersion(a, b string) bool {
	va, errA := semver.StrictNewVersion(a)
	vb, errB := semver.StrictNewVersion(b)
	switch {
	case errA != nil && errB != nil:
		return a < b
	case errA != nil:
		return true
	case errB != nil:
		return false
	}
	return va.LessThan(vb)
}
