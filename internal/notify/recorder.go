// ABOUTME: Per-run notifier that keeps and persists the first emitted notification
// ABOUTME: Further emissions in the same run are logged as defects and dropped

package notify

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/2389/popcode-gateway/internal/store"
)

// Notifier enqueues a notification for display.
type Notifier interface {
	Emit(ctx context.Context, n Notification)
}

// Recorder is the Notifier for one run.
type Recorder struct {
	runID  string
	store  store.Store
	logger *slog.Logger

	mu      sync.Mutex
	first   *Notification
	dropped int
}

// NewRecorder creates a Recorder for runID. A nil store skips persistence.
func NewRecorder(runID string, st store.Store, logger *slog.Logger) *Recorder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Recorder{
		runID:  runID,
		store:  st,
		logger: logger.With("component", "notify", "run_id", runID),
	}
}

// Emit records n if it is the first notification of the run.
func (r *Recorder) Emit(ctx context.Context, n Notification) {
	r.mu.Lock()
	if r.first != nil {
		r.dropped++
		r.mu.Unlock()
		r.logger.Error("dropping extra notification in one run",
			"kept", r.first.Type,
			"dropped", n.Type,
		)
		return
	}
	r.first = &n
	r.mu.Unlock()

	if r.store == nil {
		return
	}
	err := r.store.SaveNotification(ctx, &store.NotificationRecord{
		ID:        uuid.NewString(),
		RunID:     r.runID,
		Type:      string(n.Type),
		Severity:  string(n.Severity),
		Metadata:  n.Metadata,
		CreatedAt: time.Now().UTC(),
	})
	if err != nil {
		r.logger.Warn("failed to persist notification", "type", n.Type, "error", err)
	}
}

// Notification returns the recorded notification, or nil.
func (r *Recorder) Notification() *Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.first == nil {
		return nil
	}
	n := *r.first
	return &n
}

// Dropped returns how many extra emissions were discarded.
func (r *Recorder) Dropped() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.dropped
}
