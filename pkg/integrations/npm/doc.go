// Package npm provides an HTTP client for the npm registry API.
//
// # Overview
//
// This package fetches packuments (the per-package registry document) from
// an npm-compatible registry, https://registry.npmjs.org by default, and
// normalizes them into [manifest.Manifest] values.
//
// # Usage
//
//	client := npm.NewClient(npm.DefaultRegistry, "npmmeta/1.0", true)
//
//	m, err := client.FetchManifest(ctx, "vite")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	fmt.Println(m.Name, m.Latest())
//
// # Document Format
//
// The full document (Accept: application/json) carries publish times and
// deprecation notices. The abbreviated install document is smaller but
// lacks both; set fullDocument=false to request it.
//
// # Normalization
//
// Only versions that are valid semver are kept, in ascending order. Engines
// are decoded tolerantly: the registry holds objects, arrays of
// {name, version}, arrays of strings and bare strings from older publishes.
//
// [manifest.Manifest]: github.com/matzehuels/npmmeta/pkg/manifest.Manifest
package npm
