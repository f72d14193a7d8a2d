// Package retry wraps fallible outbound calls with bounded exponential backoff.
//
// Only failures matching the Caller's Retryable predicate are retried; by
// default that is the source-hosting client's transient-network variant, so a
// 404 or a 500 propagates on the first attempt. The delay before retry n
// (counted from 0) is min(MaxDelay, MinDelay*Factor^n).
//
// Retried operations must be idempotent. Reads are; gist creation is retried
// on the assumption that a request that never reached the server had no
// effect.
package retry
