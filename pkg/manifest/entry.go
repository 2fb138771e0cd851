package manifest

import (
	"encoding/json"
	"time"

	"github.com/matzehuels/npmmeta/pkg/errors"
)

// Failure records a failed registry fetch so it can be served from the
// store until it expires.
type Failure struct {
	Error      string `json:"error"`
	LastSynced int64  `json:"lastSynced"`
}

// Entry is what the store holds for a package name: exactly one of Manifest
// or Failure is set.
type Entry struct {
	Manifest *Manifest
	Failure  *Failure
}

const (
	kindManifest = "manifest"
	kindError    = "error"
)

type entryJSON struct {
	Kind       string    `json:"kind"`
	Manifest   *Manifest `json:"manifest,omitempty"`
	Error      string    `json:"error,omitempty"`
	LastSynced int64     `json:"lastSynced,omitempty"`
}

// LastSynced returns the sync time of whichever branch is set.
func (e Entry) LastSynced() int64 {
	switch {
	case e.Manifest != nil:
		return e.Manifest.LastSynced
	case e.Failure != nil:
		return e.Failure.LastSynced
	}
	return 0
}

// Fresh reports whether the entry was synced less than timeout before now.
func (e Entry) Fresh(now time.Time, timeout time.Duration) bool {
	return now.UnixMilli()-e.LastSynced() < timeout.Milliseconds()
}

func (e Entry) validate() error {
	if (e.Manifest == nil) == (e.Failure == nil) {
		return errors.New(errors.ErrCodeInvalidEntry, "entry must hold exactly one of manifest or error")
	}
	return nil
}

// MarshalJSON encodes the entry with a "kind" discriminator.
func (e Entry) MarshalJSON() ([]byte, error) {
	if err := e.validate(); err != nil {
		return nil, err
	}
	if e.Manifest != nil {
		return json.Marshal(entryJSON{Kind: kindManifest, Manifest: e.Manifest})
	}
	return json.Marshal(entryJSON{Kind: kindError, Error: e.Failure.Error, LastSynced: e.Failure.LastSynced})
}

// UnmarshalJSON decodes an entry and rejects unknown kinds.
func (e *Entry) UnmarshalJSON(data []byte) error {
	var raw entryJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	switch raw.Kind {
	case kindManifest:
		if raw.Manifest == nil || raw.Error != "" {
			return errors.New(errors.ErrCodeInvalidEntry, "manifest entry must carry only a manifest")
		}
		*e = Entry{Manifest: raw.Manifest}
	case kindError:
		if raw.Manifest != nil {
			return errors.New(errors.ErrCodeInvalidEntry, "error entry must not carry a manifest")
		}
		*e = Entry{Failure: &Failure{Error: raw.Error, LastSynced: raw.LastSynced}}
	default:
		return errors.New(errors.ErrCodeInvalidEntry, "unknown entry kind %q", raw.Kind)
	}
	return nil
}
