package providers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/sony/gobreaker"
)

// RetryPolicy controls bounded retries with exponential backoff for outbound
// provider calls. Retries happen only for transport errors, 429 and 5xx
// responses; everything else fails fast.
type RetryPolicy struct {
	MaxAttempts  int
	BaseInterval time.Duration
	MaxInterval  time.Duration
}

// defaultRetryPolicy matches the upstream contract: three attempts, 300ms
// base delay doubling up to a 2s cap.
func defaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts:  3,
		BaseInterval: 300 * time.Millisecond,
		MaxInterval:  2 * time.Second,
	}
}

var (
	errRateLimited     = errors.New("rate limited")
	errServerError     = errors.New("server error")
	errUnexpectedState = errors.New("unexpected status code")
	errCircuitOpen     = errors.New("circuit breaker open")
)

func retryable(err error) bool {
	return errors.Is(err, errRateLimited) || errors.Is(err, errServerError)
}

// doWithRetry executes an HTTP request through the circuit breaker, retrying
// retryable failures per policy. The breaker guards each individual attempt;
// an open breaker aborts immediately without consuming attempts.
func doWithRetry(
	ctx context.Context,
	client *http.Client,
	cb *gobreaker.CircuitBreaker,
	policy RetryPolicy,
	buildRequest func() (*http.Request, error),
) (*http.Response, error) {
	if policy.MaxAttempts <= 0 {
		policy = defaultRetryPolicy()
	}

	var lastErr error
	for attempt := 1; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		req, err := buildRequest()
		if err != nil {
			return nil, err
		}
		req = req.WithContext(ctx)

		result, err := cb.Execute(func() (interface{}, error) {
			resp, execErr := client.Do(req)
			if execErr != nil {
				return nil, execErr
			}
			switch {
			case resp.StatusCode == http.StatusTooManyRequests:
				resp.Body.Close()
				return nil, errRateLimited
			case resp.StatusCode >= 500:
				resp.Body.Close()
				return nil, errServerError
			case resp.StatusCode < 200 || resp.StatusCode >= 300:
				resp.Body.Close()
				return nil, fmt.Errorf("%w: %d", errUnexpectedState, resp.StatusCode)
			}
			return resp, nil
		})
		if err == nil {
			return result.(*http.Response), nil
		}

		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, fmt.Errorf("%w: %v", errCircuitOpen, err)
		}

		lastErr = err
		if !retryable(err) || attempt >= policy.MaxAttempts {
			return nil, lastErr
		}

		delay := policy.BaseInterval << (attempt - 1)
		if policy.MaxInterval > 0 && delay > policy.MaxInterval {
			delay = policy.MaxInterval
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}
}

// newBreaker returns the circuit breaker settings shared by all providers.
func newBreaker(name string) *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: 5,
		Interval:    1 * time.Minute,
		Timeout:     2 * time.Minute,
	})
}

// validCoordinates reports whether lat/lon fall within geographic ranges.
func validCoordinates(lat, lon float64) bool {
	return lat >= -90 && lat <= 90 && lon >= -180 && lon <= 180
}
