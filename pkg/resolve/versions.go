package resolve

import (
	"time"

	"github.com/matzehuels/npmmeta/pkg/errors"
	"github.com/matzehuels/npmmeta/pkg/manifest"
	"github.com/matzehuels/npmmeta/pkg/spec"
)

// Options controls [ListVersions].
type Options struct {
	// Loose widens a range match to every version below some satisfying one.
	Loose bool
	// After drops versions not published strictly after it. Zero disables.
	After time.Time
	// IncludeMetadata returns per-version metadata instead of the time map.
	IncludeMetadata bool
}

// VersionsInfo is the answer to an "all matching versions" query. Exactly one
// of Time and VersionsMeta is set.
type VersionsInfo struct {
	Name         string                          `json:"name"`
	Specifier    string                          `json:"specifier"`
	DistTags     map[string]string               `json:"distTags"`
	Versions     []string                        `json:"versions"`
	Time         map[string]string               `json:"time,omitempty"`
	VersionsMeta map[string]manifest.VersionMeta `json:"versionsMeta,omitempty"`
	LastSynced   int64                           `json:"lastSynced"`
}

// EnginesInfo maps each matching version to its declared engines.
type EnginesInfo struct {
	Name            string                       `json:"name"`
	VersionsEngines map[string]map[string]string `json:"versionsEngines"`
	LastSynced      int64                        `json:"lastSynced"`
}

// ListVersions lists the versions of m selected by p, ascending.
func ListVersions(p spec.Parsed, m *manifest.Manifest, opts Options) (*VersionsInfo, error) {
	versions, err := selectVersions(p, m, opts.Loose)
	if err != nil {
		return nil, err
	}

	if !opts.After.IsZero() {
		versions = publishedAfter(versions, m, opts.After)
	}

	info := &VersionsInfo{
		Name:       p.Name,
		Specifier:  p.FetchSpec,
		DistTags:   m.DistTags,
		Versions:   versions,
		LastSynced: m.LastSynced,
	}

	if opts.IncludeMetadata {
		info.VersionsMeta = make(map[string]manifest.VersionMeta, len(versions))
		for _, v := range versions {
			info.VersionsMeta[v] = m.VersionsMeta[v]
		}
		return info, nil
	}

	info.Time = make(map[string]string, len(versions)+2)
	if m.TimeCreated != "" {
		info.Time["created"] = m.TimeCreated
	}
	if m.TimeModified != "" {
		info.Time["modified"] = m.TimeModified
	}
	for _, v := range versions {
		if t := m.VersionsMeta[v].Time; t != "" {
			info.Time[v] = t
		}
	}
	return info, nil
}

// ListEngines reports the engines of every version selected by p. Versions
// that declare no engines are left out.
func ListEngines(p spec.Parsed, m *manifest.Manifest, loose bool) (*EnginesInfo, error) {
	versions, err := selectVersions(p, m, loose)
	if err != nil {
		return nil, err
	}

	info := &EnginesInfo{
		Name:            p.Name,
		VersionsEngines: make(map[string]map[string]string, len(versions)),
		LastSynced:      m.LastSynced,
	}
	for _, v := range versions {
		if engines := m.VersionsMeta[v].Engines; len(engines) > 0 {
			info.VersionsEngines[v] = engines
		}
	}
	return info, nil
}

// selectVersions narrows the ascending version list by specifier type.
func selectVersions(p spec.Parsed, m *manifest.Manifest, loose bool) ([]string, error) {
	all := m.SortedVersions()

	switch p.Type {
	case spec.TypeRange:
		if p.FetchSpec == "*" || p.FetchSpec == "latest" {
			return append([]string(nil), all...), nil
		}
		match, err := newRangeMatcher(p.FetchSpec)
		if err != nil {
			return nil, errors.InvalidSpecifier(p.Raw, "invalid semver range")
		}
		return filterRange(all, match, loose), nil

	case spec.TypeTag:
		if v, ok := m.DistTags[p.FetchSpec]; ok && v != "" {
			return []string{v}, nil
		}
		return []string{}, nil

	case spec.TypeVersion:
		return append([]string(nil), all...), nil

	default:
		return nil, errors.UnsupportedSpecifier(p.Raw, string(p.Type))
	}
}

// filterRange keeps satisfying versions. With loose, a version is also kept
// when it is strictly below some satisfying version. all is ascending, so
// that is every version below the highest satisfying one.
func filterRange(all []string, match rangeMatcher, loose bool) []string {
	out := []string{}
	if !loose {
		for _, v := range all {
			if match.satisfies(v) {
				out = append(out, v)
			}
		}
		return out
	}

	var highest string
	for _, v := range all {
		if match.satisfies(v) && (highest == "" || lt(highest, v)) {
			highest = v
		}
	}
	if highest == "" {
		return out
	}
	for _, v := range all {
		if match.satisfies(v) || lt(v, highest) {
			out = append(out, v)
		}
	}
	return out
}

func publishedAfter(versions []string, m *manifest.Manifest, after time.Time) []string {
	out := make([]string, 0, len(versions))
	for _, v := range versions {
		published, ok := parseTime(m.VersionsMeta[v].Time)
		if ok && published.After(after) {
			out = append(out, v)
		}
	}
	return out
}
