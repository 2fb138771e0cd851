// Package resolve maps parsed specifiers onto manifests: a single version
// for "latest" style queries, or the list of matching versions.
package resolve

import (
	"github.com/matzehuels/npmmeta/pkg/errors"
	"github.com/matzehuels/npmmeta/pkg/manifest"
	"github.com/matzehuels/npmmeta/pkg/spec"
)

// ResolvedVersion is the answer to a single-version query. When metadata was
// requested the matched version's metadata is inlined.
type ResolvedVersion struct {
	Name        string  `json:"name"`
	Specifier   string  `json:"specifier"`
	Version     *string `json:"version"`
	PublishedAt *string `json:"publishedAt"`
	LastSynced  int64   `json:"lastSynced"`

	*manifest.VersionMeta
}

// LatestVersion resolves p against m.
//
// A tag resolves through dist-tags; a missing tag yields a nil Version
// rather than an error. "*" and "latest" resolve to the latest tag. Other
// ranges prefer the latest tag when it satisfies the range, and otherwise
// the highest satisfying version. Exact versions are returned as given.
func LatestVersion(p spec.Parsed, m *manifest.Manifest, includeMetadata bool) (*ResolvedVersion, error) {
	var (
		specifier string
		version   string
	)

	switch p.Type {
	case spec.TypeTag:
		specifier = p.FetchSpec
		version = m.DistTags[p.FetchSpec]

	case spec.TypeRange:
		if p.FetchSpec == "*" || p.FetchSpec == "latest" {
			specifier = "latest"
			version = m.Latest()
			break
		}
		specifier = p.FetchSpec
		v, err := maxSatisfying(m, p.FetchSpec)
		if err != nil {
			return nil, err
		}
		version = v

	case spec.TypeVersion:
		specifier = p.FetchSpec
		version = p.FetchSpec

	default:
		return nil, errors.UnsupportedSpecifier(p.Raw, string(p.Type))
	}

	r := &ResolvedVersion{Name: p.Name, Specifier: specifier, LastSynced: m.LastSynced}
	if version == "" {
		return r, nil
	}
	r.Version = &version

	meta, ok := m.VersionsMeta[version]
	if ok && meta.Time != "" {
		t := meta.Time
		r.PublishedAt = &t
	}
	if includeMetadata && ok {
		r.VersionMeta = &meta
	}
	return r, nil
}

// maxSatisfying scans versions in ascending order. A satisfying version
// replaces the running answer unless it is above the latest tag, when the
// latest tag itself satisfies the range.
func maxSatisfying(m *manifest.Manifest, rng string) (string, error) {
	match, err := newRangeMatcher(rng)
	if err != nil {
		return "", errors.InvalidSpecifier(rng, "invalid semver range")
	}

	maxVersion := m.Latest()
	if maxVersion != "" && !match.satisfies(maxVersion) {
		maxVersion = ""
	}

	var version string
	for _, v := range m.SortedVersions() {
		if !match.satisfies(v) {
			continue
		}
		if maxVersion == "" || lte(v, maxVersion) {
			version = v
		}
	}
	return version, nil
}
