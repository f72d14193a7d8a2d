// ABOUTME: Tests for the retrying caller and backoff policy
// ABOUTME: Covers transient retries, immediate propagation, exhaustion and delay math

package retry

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/2389/popcode-gateway/internal/config"
	"github.com/2389/popcode-gateway/internal/github"
	"github.com/2389/popcode-gateway/internal/telemetry"
)

// recordSleeps returns a sleep func that records delays without waiting.
func recordSleeps(delays *[]time.Duration) Option {
	return WithSleep(func(_ context.Context, d time.Duration) error {
		*delays = append(*delays, d)
		return nil
	})
}

func transient() error {
	return &github.Error{Kind: github.KindTransient, Op: "read gist", Err: errors.New("connection refused")}
}

func TestDo_RetriesTransientThenSucceeds(t *testing.T) {
	var delays []time.Duration
	c := NewCaller(DefaultPolicy().WithRetries(3), recordSleeps(&delays))

	calls := 0
	got, err := Do(context.Background(), c, "test-transient", func(context.Context) (string, error) {
		calls++
		if calls <= 2 {
			return "", transient()
		}
		return "ok", nil
	})

	require.NoError(t, err)
	assert.Equal(t, "ok", got)
	assert.Equal(t, 3, calls)
	assert.Equal(t, []time.Duration{time.Second, 2 * time.Second}, delays)
}

func TestDo_NonTransientFailsImmediately(t *testing.T) {
	var delays []time.Duration
	c := NewCaller(DefaultPolicy(), recordSleeps(&delays))

	notFound := &github.Error{Kind: github.KindNotFound, Op: "read gist", Status: 404, Err: errors.New("Not Found")}
	calls := 0
	_, err := Do(context.Background(), c, "test-permanent", func(context.Context) (int, error) {
		calls++
		return 0, notFound
	})

	require.Error(t, err)
	assert.Same(t, notFound, err)
	assert.Equal(t, 1, calls)
	assert.Empty(t, delays)
}

func TestDo_ExhaustsRetries(t *testing.T) {
	var delays []time.Duration
	c := NewCaller(DefaultPolicy().WithRetries(3), recordSleeps(&delays))

	calls := 0
	_, err := Do(context.Background(), c, "test-exhaust", func(context.Context) (struct{}, error) {
		calls++
		return struct{}{}, transient()
	})

	require.Error(t, err)
	assert.Equal(t, 4, calls, "one attempt plus three retries")
	assert.True(t, github.IsTransient(err), "last failure stays reachable through wrapping")
	assert.Len(t, delays, 3)
}

func TestDo_ZeroRetries(t *testing.T) {
	c := NewCaller(DefaultPolicy().WithRetries(0), recordSleeps(new([]time.Duration)))

	calls := 0
	_, err := Do(context.Background(), c, "test-zero", func(context.Context) (int, error) {
		calls++
		return 0, transient()
	})

	require.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestDo_CountsRetries(t *testing.T) {
	c := NewCaller(DefaultPolicy().WithRetries(2), recordSleeps(new([]time.Duration)))
	before := testutil.ToFloat64(telemetry.RetryCount("test-metric"))

	_, _ = Do(context.Background(), c, "test-metric", func(context.Context) (int, error) {
		return 0, transient()
	})

	assert.Equal(t, before+2, testutil.ToFloat64(telemetry.RetryCount("test-metric")))
}

func TestDo_CustomRetryable(t *testing.T) {
	sentinel := errors.New("flaky")
	c := NewCaller(DefaultPolicy().WithRetries(1),
		recordSleeps(new([]time.Duration)),
		WithRetryable(func(err error) bool { return errors.Is(err, sentinel) }),
	)

	calls := 0
	_, err := Do(context.Background(), c, "test-custom", func(context.Context) (int, error) {
		calls++
		if calls == 1 {
			return 0, sentinel
		}
		return 7, nil
	})

	require.NoError(t, err)
	assert.Equal(t, 2, calls)
}

func TestDo_ContextCanceledDuringBackoff(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	c := NewCaller(Policy{Retries: 3, Factor: 2, MinDelay: time.Hour, MaxDelay: time.Hour})

	calls := 0
	done := make(chan error, 1)
	go func() {
		_, err := Do(ctx, c, "test-cancel", func(context.Context) (int, error) {
			calls++
			return 0, transient()
		})
		done <- err
	}()

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("Do did not return after cancellation")
	}
	assert.Equal(t, 1, calls)
}

func TestPolicy_Delay(t *testing.T) {
	p := Policy{Retries: 10, Factor: 2, MinDelay: time.Second, MaxDelay: 10 * time.Second}

	assert.Equal(t, time.Second, p.Delay(0))
	assert.Equal(t, 2*time.Second, p.Delay(1))
	assert.Equal(t, 4*time.Second, p.Delay(2))
	assert.Equal(t, 8*time.Second, p.Delay(3))
	assert.Equal(t, 10*time.Second, p.Delay(4), "capped at max delay")
	assert.Equal(t, 10*time.Second, p.Delay(5000), "no overflow for huge attempts")
}

func TestPolicy_Validate(t *testing.T) {
	assert.NoError(t, DefaultPolicy().Validate())
	assert.Error(t, Policy{Retries: -1, Factor: 2}.Validate())
	assert.Error(t, Policy{Retries: 1, Factor: 1}.Validate())
	assert.Error(t, Policy{Retries: 1, Factor: 2, MinDelay: -time.Second}.Validate())
	assert.Error(t, Policy{Retries: 1, Factor: 2, MinDelay: 2 * time.Second, MaxDelay: time.Second}.Validate())
}

func TestDo_CreateGistNotRepeatedAfterServerTimeout(t *testing.T) {
	var posts atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		posts.Add(1)
		select {
		case <-time.After(200 * time.Millisecond):
		case <-r.Context().Done():
		}
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(github.Gist{ID: "late"})
	}))
	t.Cleanup(srv.Close)

	client := github.New(config.GitHubConfig{APIURL: srv.URL, Timeout: 50 * time.Millisecond}, nil)
	var delays []time.Duration
	c := NewCaller(DefaultPolicy(), recordSleeps(&delays))

	_, err := Do(context.Background(), c, "create gist", func(ctx context.Context) (*github.Gist, error) {
		return client.CreateGist(ctx, "tok", &github.NewGist{
			Files: map[string]github.NewGistFile{"index.html": {Content: "<p>hi</p>"}},
		})
	})

	require.Error(t, err)
	assert.Equal(t, int32(1), posts.Load(), "a request the server received is not sent again")
	assert.Empty(t, delays)
}
