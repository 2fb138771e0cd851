package npm

import (
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/Masterminds/semver/v3"

	"github.com/matzehuels/npmmeta/pkg/manifest"
)

type packument struct {
	Name     string                `json:"name"`
	DistTags map[string]string     `json:"dist-tags"`
	Versions map[string]versionDoc `json:"versions"`
	Time     map[string]string     `json:"time"`
}

type versionDoc struct {
	Engines    Engines    `json:"engines,omitempty"`
	Deprecated Deprecated `json:"deprecated,omitempty"`
}

// Engines is the "engines" field of a version. Old publishes used several
// shapes; all are folded into a name -> range map.
type Engines map[string]string

func (e *Engines) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*e = nil
		return nil
	}

	{
		// try decoding as { name: string; version: string }[]
		var t []struct {
			Name    string `json:"name"`
			Version string `json:"version"`
		}
		if err := json.Unmarshal(data, &t); err == nil {
			*e = make(map[string]string, len(t))
			for _, v := range t {
				if v.Name != "" {
					(*e)[v.Name] = v.Version
				}
			}
			return nil
		} else if !isTypeError(err) {
			return err
		}
	}

	{
		// try decoding as string[]
		var t []string
		if err := json.Unmarshal(data, &t); err == nil {
			*e = make(map[string]string, len(t))
			for _, v := range t {
				name, rng, _ := strings.Cut(strings.TrimSpace(v), " ")
				(*e)[name] = strings.TrimSpace(rng)
			}
			return nil
		} else if !isTypeError(err) {
			return err
		}
	}

	{
		// try decoding as "node >= 0.6"
		var t string
		if err := json.Unmarshal(data, &t); err == nil {
			*e = make(map[string]string, 1)
			if name, rng, _ := strings.Cut(strings.TrimSpace(t), " "); name != "" {
				(*e)[name] = strings.TrimSpace(rng)
			}
			return nil
		} else if !isTypeError(err) {
			return err
		}
	}

	// Object values are occasionally non-strings; keep the string ones.
	var t map[string]any
	if err := json.Unmarshal(data, &t); err != nil {
		if isTypeError(err) {
			*e = nil
			return nil
		}
		return err
	}
	*e = make(map[string]string, len(t))
	for k, v := range t {
		if s, ok := v.(string); ok {
			(*e)[k] = s
		}
	}
	return nil
}

// Deprecated is the "deprecated" field of a version: a message, or
// occasionally a bare boolean.
type Deprecated string

func (d *Deprecated) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*d = Deprecated(s)
		return nil
	}
	var b bool
	if err := json.Unmarshal(data, &b); err == nil {
		if b {
			*d = "true"
		} else {
			*d = ""
		}
		return nil
	}
	*d = ""
	return nil
}

func isTypeError(err error) bool {
	var jsonErr *json.UnmarshalTypeError
	return errors.As(err, &jsonErr)
}

// normalize converts a decoded packument into a manifest synced at now.
func normalize(doc *packument, now time.Time) *manifest.Manifest {
	m := &manifest.Manifest{
		Name:         doc.Name,
		DistTags:     make(map[string]string, len(doc.DistTags)+1),
		Versions:     make([]string, 0, len(doc.Versions)),
		VersionsMeta: make(map[string]manifest.VersionMeta, len(doc.Versions)),
		TimeCreated:  doc.Time["created"],
		TimeModified: doc.Time["modified"],
		LastSynced:   now.UnixMilli(),
	}

	for tag, v := range doc.DistTags {
		m.DistTags[tag] = v
	}
	if _, ok := m.DistTags["latest"]; !ok {
		m.DistTags["latest"] = ""
	}

	for v, vd := range doc.Versions {
		if _, err := semver.StrictNewVersion(v); err != nil {
			continue
		}
		meta := manifest.VersionMeta{
			Time:       doc.Time[v],
			Deprecated: string(vd.Deprecated),
		}
		if len(vd.Engines) > 0 {
			meta.Engines = map[string]string(vd.Engines)
		}
		m.Versions = append(m.Versions, v)
		m.VersionsMeta[v] = meta
	}
	manifest.SortVersions(m.Versions)

	return m
}
