// Package pkg holds the public libraries of npmmeta, a service that resolves
// npm package specifiers against registry metadata.
//
// # Overview
//
// A query flows through these packages:
//
//	raw path segment "vite@^5+nuxt@latest"
//	         ↓
//	    [spec] package (split the batch, parse each specifier)
//	         ↓
//	    [batch] package (run one handler per specifier, keep order)
//	         ↓
//	    [registry] package (coalesced, cached manifest fetch)
//	         ↓
//	    [resolve] package (tag, range and version resolution)
//
// [service] binds these together for the HTTP server and the CLI.
// [client] is a Go client for the HTTP API.
//
// Supporting packages:
//
//   - [manifest]: normalized package manifests and their stored entries
//   - [cache]: byte stores (file, memory, Redis, MongoDB)
//   - [integrations]: registry HTTP transport with circuit breaking
//   - [httputil]: retry policy
//   - [config]: defaults, TOML file and environment overrides
//   - [errors]: coded errors and their HTTP status
//   - [observability]: fetch, cache and HTTP hooks
//   - [buildinfo]: version metadata
package pkg
