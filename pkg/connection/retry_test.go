package connection

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/devnotes/devnotes.go/pkg/constants"
)

func TestRetryConfig_NextDelay(t *testing.T) {
	r := RetryConfig{InitialWait: time.Second, MaxWait: 5 * time.Second, Multiplier: 2}

	var got []time.Duration
	for attempt := 0; attempt < 5; attempt++ {
		d, ok := r.NextDelay(attempt, nil)
		require.True(t, ok)
		got = append(got, d)
	}
	assert.Equal(t, []time.Duration{time.Second, 2 * time.Second, 4 * time.Second, 5 * time.Second, 5 * time.Second}, got)

	r.MaxAttempts = 2
	_, ok := r.NextDelay(2, nil)
	assert.False(t, ok)
}

func TestRetryConfig_Jitter(t *testing.T) {
	r := RetryConfig{InitialWait: time.Second, Multiplier: 1, JitterFactor: 0.5}
	for i := 0; i < 50; i++ {
		d, _ := r.NextDelay(0, nil)
		assert.GreaterOrEqual(t, d, 500*time.Millisecond)
		assert.LessOrEqual(t, d, 1500*time.Millisecond)
	}
}

func TestDefaultRetryConfig(t *testing.T) {
	r := DefaultRetryConfig()
	d, ok := r.NextDelay(0, nil)
	assert.True(t, ok)
	assert.Equal(t, constants.DefaultValidateWait, d)
	d, _ = r.NextDelay(100, nil)
	assert.Equal(t, constants.DefaultValidateMax, d)
}

func TestWithRetry(t *testing.T) {
	fast := RetryConfig{InitialWait: time.Millisecond, MaxWait: time.Millisecond, Multiplier: 2}

	t.Run("retries transient failures", func(t *testing.T) {
		calls := 0
		got, err := WithRetry(context.Background(), fast, func(context.Context) (string, error) {
			calls++
			if calls < 3 {
				return "", constants.ErrNetworkFailure
			}
			return "ok", nil
		})
		require.NoError(t, err)
		assert.Equal(t, "ok", got)
		assert.Equal(t, 3, calls)
	})

	t.Run("stops on auth rejection", func(t *testing.T) {
		calls := 0
		_, err := WithRetry(context.Background(), fast, func(context.Context) (int, error) {
			calls++
			return 0, &StatusError{Op: "validate", StatusCode: 401}
		})
		assert.ErrorIs(t, err, constants.ErrUnauthorized)
		assert.Equal(t, 1, calls)
	})

	t.Run("gives up after max attempts", func(t *testing.T) {
		limited := fast
		limited.MaxAttempts = 2
		calls := 0
		_, err := WithRetry(context.Background(), limited, func(context.Context) (int, error) {
			calls++
			return 0, constants.ErrServerError
		})
		assert.ErrorIs(t, err, constants.ErrServerError)
		assert.Equal(t, 3, calls)
	})

	t.Run("honours context", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		slow := RetryConfig{InitialWait: time.Hour, Multiplier: 1}
		_, err := WithRetry(ctx, slow, func(context.Context) (int, error) {
			cancel()
			return 0, constants.ErrNetworkFailure
		})
		assert.True(t, errors.Is(err, context.Canceled))
	})
}

type doerFunc func(ctx context.Context, req Request) (*Response, error)

func (f doerFunc) Do(ctx context.Context, req Request) (*Response, error) { return f(ctx, req) }

func TestRetrying(t *testing.T) {
	fast := RetryConfig{InitialWait: time.Millisecond, MaxWait: time.Millisecond, Multiplier: 2, MaxAttempts: 3}

	flaky := func(failures int, calls *int) Doer {
		return doerFunc(func(context.Context, Request) (*Response, error) {
			*calls++
			if *calls <= failures {
				return nil, constants.ErrNetworkFailure
			}
			return &Response{StatusCode: http.StatusOK}, nil
		})
	}

	for _, method := range []string{http.MethodGet, http.MethodPut, http.MethodDelete} {
		t.Run(method+" is retried", func(t *testing.T) {
			calls := 0
			resp, err := Retrying(flaky(2, &calls), fast).Do(context.Background(), Request{Method: method, Path: "/notes"})
			require.NoError(t, err)
			assert.Equal(t, http.StatusOK, resp.StatusCode)
			assert.Equal(t, 3, calls)
		})
	}

	t.Run("POST goes through once", func(t *testing.T) {
		calls := 0
		_, err := Retrying(flaky(1, &calls), fast).Do(context.Background(), Request{Method: http.MethodPost, Path: "/notes"})
		assert.ErrorIs(t, err, constants.ErrNetworkFailure)
		assert.Equal(t, 1, calls)
	})

	t.Run("status answers are not retried", func(t *testing.T) {
		calls := 0
		d := doerFunc(func(context.Context, Request) (*Response, error) {
			calls++
			return &Response{StatusCode: http.StatusServiceUnavailable}, nil
		})
		resp, err := Retrying(d, fast).Do(context.Background(), Request{Method: http.MethodGet, Path: "/tags"})
		require.NoError(t, err)
		assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
		assert.Equal(t, 1, calls)
	})
}
