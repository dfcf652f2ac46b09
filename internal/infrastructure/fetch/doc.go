// Package fetch downloads remote modules from the package host.
//
// The client is resty over a pooled retryablehttp transport. Every request
// waits on a token bucket limiter and passes through a circuit breaker, so a
// failing host degrades builds to stub modules instead of stalling them.
// Redirects are followed and the final served URL is reported, because
// relative imports inside a module resolve against it.
package fetch
