// ABOUTME: Tests for the per-run notification recorder
// ABOUTME: Only the first notification is kept and persisted

package notify

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/2389/popcode-gateway/internal/outcome"
	"github.com/2389/popcode-gateway/internal/store"
)

func TestRecorder_KeepsFirst(t *testing.T) {
	st := store.NewMockStore()
	r := NewRecorder("run-1", st, nil)
	c := DefaultCatalog(nil)
	ctx := context.Background()

	assert.Nil(t, r.Notification())

	r.Emit(ctx, c.Build(outcome.URLQueryError, nil))
	r.Emit(ctx, c.Build(outcome.AuthError, nil))

	got := r.Notification()
	require.NotNil(t, got)
	assert.Equal(t, outcome.URLQueryError, got.Type)
	assert.Equal(t, 1, r.Dropped())

	records, err := st.ListNotifications(ctx, "run-1")
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "url-query-error", records[0].Type)
	assert.Equal(t, "error", records[0].Severity)
}

func TestRecorder_NilStore(t *testing.T) {
	r := NewRecorder("run-2", nil, nil)
	r.Emit(context.Background(), DefaultCatalog(nil).Build(outcome.EmptyGist, nil))
	assert.Equal(t, outcome.EmptyGist, r.Notification().Type)
}
