// ABOUTME: Best-effort error reporter for failures that escape the expected taxonomy
// ABOUTME: Logs through slog and counts reports, distinguishing exceptions from opaque values

package telemetry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
)

// Reporter receives failures that should be diagnosed later.
type Reporter interface {
	Report(ctx context.Context, err error)
}

// OpaqueError carries a failure value that was not a real error when it was
// produced, such as a bare provider code.
type OpaqueError struct {
	Value any
}

func (e *OpaqueError) Error() string {
	return fmt.Sprintf("opaque failure: %v", e.Value)
}

// Opaque wraps a non-error failure value for reporting.
func Opaque(value any) error {
	return &OpaqueError{Value: value}
}

// IsOpaque reports whether err was produced by Opaque.
func IsOpaque(err error) bool {
	var oe *OpaqueError
	return errors.As(err, &oe)
}

// SlogReporter writes reports to a structured logger.
type SlogReporter struct {
	logger *slog.Logger
}

// NewSlogReporter creates a reporter. A nil logger uses slog.Default().
func NewSlogReporter(logger *slog.Logger) *SlogReporter {
	if logger == nil {
		logger = slog.Default()
	}
	return &SlogReporter{logger: logger.With("component", "telemetry")}
}

// Report logs err. It never fails.
func (r *SlogReporter) Report(ctx context.Context, err error) {
	if err == nil {
		return
	}
	kind := "exception"
	if IsOpaque(err) {
		kind = "opaque"
	}
	reportsTotal.WithLabelValues(kind).Inc()
	r.logger.ErrorContext(ctx, "unexpected failure reported",
		"exception", kind == "exception",
		"error_type", fmt.Sprintf("%T", err),
		"error", err.Error(),
	)
}

// Discard drops every report.
type Discard struct{}

// Report implements Reporter.
func (Discard) Report(context.Context, error) {}
