// Package integrations provides the HTTP plumbing shared by registry API
// clients.
//
// # Overview
//
// [Client] performs JSON GET requests against a registry. Every request:
//
//   - carries the client's default headers (user agent, accept)
//   - is retried on network errors, 5xx and 429 via [httputil.Retry]
//   - passes through a per-host circuit breaker that opens after five
//     consecutive transient failures
//   - resolves hosts through a shared, periodically refreshed DNS cache
//
// Failures are reported as [StatusError] or [RequestError], whose messages
// take the form `[GET] "<url>": <detail>`. Both unwrap to [ErrNotFound] or
// [ErrNetwork] for errors.Is checks.
//
// Registry specifics live in subpackages:
//
//   - [npm]: npm packuments, normalized into manifests
//
// [httputil.Retry]: github.com/matzehuels/npmmeta/pkg/httputil.Retry
// [npm]: github.com/matzehuels/npmmeta/pkg/integrations/npm
package integrations
