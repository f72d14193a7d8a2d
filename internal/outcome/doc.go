// ABOUTME: Package outcome names the user-facing results of bootstrap and export failures
// ABOUTME: and classifies tagged boundary errors into them

// Package outcome maps failures to a small fixed set of tags.
//
// Classification is two-tier. Expected failures (not found, a cancelled
// sign-in, a network failure during sign-in) get a specific tag and are not
// reported. Everything else becomes a generic "-error" tag and is forwarded
// to telemetry so it is never silently swallowed.
package outcome
