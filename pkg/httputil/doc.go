// Package httputil provides the retry policy shared by the registry client
// and the API client.
//
// # Retry
//
// [Retry] wraps an operation with automatic retry for transient failures:
//
//   - Network errors
//   - 5xx server errors
//   - 429 rate limit responses
//
// Only errors wrapped in [RetryableError] are retried; everything else is
// returned on the first attempt. Delays follow an exponential schedule from
// github.com/cenk/backoff:
//
//	err := httputil.Retry(ctx, 3, time.Second, func() error {
//	    return fetch(ctx)
//	})
//
// [RetryBackOff] accepts any [backoff.BackOff], for callers that want jitter
// or a capped interval.
package httputil
