// Package telemetry reports unexpected failures and exposes the gateway's
// prometheus metrics.
//
// # Error Reporting
//
// Reporter is best-effort: Report never blocks on a remote collector and never
// returns an error to the caller. Failures that are genuine Go errors are
// reported as exceptions; bare values such as provider error codes are wrapped
// with Opaque so the report records that no stack-bearing error existed.
//
// # Metrics
//
// Collectors are registered on the default prometheus registry with promauto:
//
//   - popcode_bootstrap_runs_total{path,action}
//   - popcode_bootstrap_notifications_total{tag}
//   - popcode_bootstrap_duration_seconds{path}
//   - popcode_retry_attempts_total{op}
//   - popcode_telemetry_reports_total{kind}
package telemetry
