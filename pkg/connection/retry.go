package connection

import (
	"context"
	"math"
	"math/rand"
	"net/http"
	"time"

	"github.com/devnotes/devnotes.go/pkg/constants"
)

// Retryer decides how long to wait before the next attempt.
type Retryer interface {
	// NextDelay returns the delay before retry number attempt (0-based) and
	// whether to retry at all.
	NextDelay(attempt int, lastErr error) (time.Duration, bool)
}

// RetryConfig is an exponential backoff policy.
type RetryConfig struct {
	InitialWait time.Duration
	MaxWait     time.Duration
	Multiplier  float64
	// MaxAttempts caps the number of retries. Zero retries forever.
	MaxAttempts int
	// JitterFactor spreads delays by up to +/- this fraction.
	JitterFactor float64
}

// DefaultRetryConfig is the policy used for token validation.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		InitialWait: constants.DefaultValidateWait,
		MaxWait:     constants.DefaultValidateMax,
		Multiplier:  2.0,
	}
}

var _ Retryer = RetryConfig{}

// NextDelay implements Retryer
func (r RetryConfig) NextDelay(attempt int, _ error) (time.Duration, bool) {
	if r.MaxAttempts > 0 && attempt >= r.MaxAttempts {
		return 0, false
	}

	multiplier := r.Multiplier
	if multiplier < 1 {
		multiplier = 1
	}
	delay := float64(r.InitialWait) * math.Pow(multiplier, float64(attempt))
	if r.MaxWait > 0 && delay > float64(r.MaxWait) {
		delay = float64(r.MaxWait)
	}

	if r.JitterFactor > 0 {
		//nolint:gosec // jitter only
		delay += delay * r.JitterFactor * (2*rand.Float64() - 1)
		if delay < 0 {
			delay = float64(r.InitialWait)
		}
	}

	return time.Duration(delay), true
}

// WithRetry calls fn until it succeeds, returns a non-retryable error, the
// retryer gives up or ctx is done.
func WithRetry[T any](ctx context.Context, r Retryer, fn func(context.Context) (T, error)) (T, error) {
	var zero T
	for attempt := 0; ; attempt++ {
		result, err := fn(ctx)
		if err == nil {
			return result, nil
		}
		if !Retryable(err) {
			return zero, err
		}

		delay, ok := r.NextDelay(attempt, err)
		if !ok {
			return zero, err
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return zero, ctx.Err()
		case <-timer.C:
		}
	}
}

// Retrying returns a Doer that retries idempotent requests (GET, PUT and
// DELETE) on network failures. Other methods go through once, since the
// server may have applied a request whose answer was lost.
func Retrying(d Doer, r Retryer) Doer {
	return retryingDoer{next: d, retryer: r}
}

type retryingDoer struct {
	next    Doer
	retryer Retryer
}

func (d retryingDoer) Do(ctx context.Context, req Request) (*Response, error) {
	switch req.Method {
	case http.MethodGet, http.MethodPut, http.MethodDelete:
	default:
		return d.next.Do(ctx, req)
	}
	return WithRetry(ctx, d.retryer, func(ctx context.Context) (*Response, error) {
		return d.next.Do(ctx, req)
	})
}
