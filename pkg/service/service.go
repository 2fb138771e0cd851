// Package service binds the manifest fetcher and the version resolver into
// the batch queries served over HTTP and from the command line.
package service

import (
	"context"
	"time"

	"github.com/matzehuels/npmmeta/pkg/batch"
	"github.com/matzehuels/npmmeta/pkg/errors"
	"github.com/matzehuels/npmmeta/pkg/manifest"
	"github.com/matzehuels/npmmeta/pkg/resolve"
	"github.com/matzehuels/npmmeta/pkg/spec"
)

// ManifestResolver returns the manifest of one package. [registry.Fetcher]
// is the production implementation.
type ManifestResolver interface {
	ResolveManifest(ctx context.Context, name string, force bool) (*manifest.Manifest, error)
}

// QueryOptions are the per-request knobs shared by all queries.
type QueryOptions struct {
	Force    bool
	Loose    bool
	Metadata bool
	After    time.Time
	Throw    bool
}

func (o QueryOptions) batch() batch.Options {
	return batch.Options{ThrowOnError: o.Throw}
}

// Service answers specifier queries.
type Service struct {
	manifests ManifestResolver
}

// New creates a Service backed by manifests.
func New(manifests ManifestResolver) *Service {
	return &Service{manifests: manifests}
}

// Latest resolves each specifier of raw to one concrete version.
func (s *Service) Latest(ctx context.Context, raw string, opts QueryOptions) (batch.Result[*resolve.ResolvedVersion], error) {
	return batch.Run(ctx, raw, opts.batch(), func(ctx context.Context, p spec.Parsed) (*resolve.ResolvedVersion, error) {
		m, err := s.manifest(ctx, p, opts)
		if err != nil {
			return nil, err
		}
		return resolve.LatestVersion(p, m, opts.Metadata)
	})
}

// Versions lists the versions matching each specifier of raw.
func (s *Service) Versions(ctx context.Context, raw string, opts QueryOptions) (batch.Result[*resolve.VersionsInfo], error) {
	return batch.Run(ctx, raw, opts.batch(), func(ctx context.Context, p spec.Parsed) (*resolve.VersionsInfo, error) {
		m, err := s.manifest(ctx, p, opts)
		if err != nil {
			return nil, err
		}
		return resolve.ListVersions(p, m, resolve.Options{
			Loose:           opts.Loose,
			After:           opts.After,
			IncludeMetadata: opts.Metadata,
		})
	})
}

// Engines reports the engines of the versions matching each specifier.
func (s *Service) Engines(ctx context.Context, raw string, opts QueryOptions) (batch.Result[*resolve.EnginesInfo], error) {
	return batch.Run(ctx, raw, opts.batch(), func(ctx context.Context, p spec.Parsed) (*resolve.EnginesInfo, error) {
		m, err := s.manifest(ctx, p, opts)
		if err != nil {
			return nil, err
		}
		return resolve.ListEngines(p, m, opts.Loose)
	})
}

// Full returns the normalized manifest of each package in raw. The version
// part of a specifier is ignored.
func (s *Service) Full(ctx context.Context, raw string, opts QueryOptions) (batch.Result[*manifest.Manifest], error) {
	return batch.Run(ctx, raw, opts.batch(), func(ctx context.Context, p spec.Parsed) (*manifest.Manifest, error) {
		return s.manifests.ResolveManifest(ctx, p.Name, opts.Force)
	})
}

// manifest rejects specifiers that cannot be answered from registry
// metadata before any network traffic happens.
func (s *Service) manifest(ctx context.Context, p spec.Parsed, opts QueryOptions) (*manifest.Manifest, error) {
	if !p.Type.Registry() {
		return nil, errors.UnsupportedSpecifier(p.Raw, string(p.Type))
	}
	return s.manifests.ResolveManifest(ctx, p.Name, opts.Force)
}
