// Package transport provides http.RoundTripper decorators for calls to the
// storefront backend.
package transport

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/abgdnv/gocommerce-storefront/pkg/config"
	"github.com/cenkalti/backoff/v4"
	"github.com/sony/gobreaker/v2"
)

// RoundTripperFunc adapts a function to http.RoundTripper.
type RoundTripperFunc func(*http.Request) (*http.Response, error)

func (f RoundTripperFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

// errServerFailure marks a response that should count against the breaker.
var errServerFailure = errors.New("server failure")

// transientStatus reports whether a status code is worth retrying and counts
// as a backend failure.
func transientStatus(code int) bool {
	switch code {
	case http.StatusTooManyRequests, http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return true
	default:
		return code >= http.StatusInternalServerError
	}
}

// idempotent reports whether a request may be sent again without side effects.
// Cart and order mutations are never retried.
func idempotent(method string) bool {
	return method == http.MethodGet || method == http.MethodHead
}

type retryTransport struct {
	next http.RoundTripper
	cfg  config.RetryConfig
}

// NewRetryTransport retries idempotent requests on transport errors and
// transient statuses with exponential backoff. MaxAttempts counts the first
// attempt too.
func NewRetryTransport(next http.RoundTripper, cfg config.RetryConfig) http.RoundTripper {
	return &retryTransport{next: next, cfg: cfg}
}

func (t *retryTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if !idempotent(req.Method) || t.cfg.MaxAttempts <= 1 {
		return t.next.RoundTrip(req)
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = t.cfg.InitialBackoff
	if t.cfg.MaxBackoff > 0 {
		b.MaxInterval = t.cfg.MaxBackoff
	}
	b.MaxElapsedTime = 0
	policy := backoff.WithContext(backoff.WithMaxRetries(b, uint64(t.cfg.MaxAttempts-1)), req.Context())

	var (
		resp    *http.Response
		attempt uint
	)
	op := func() error {
		attempt++
		r, err := t.next.RoundTrip(req.Clone(req.Context()))
		if err != nil {
			if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) || req.Context().Err() != nil {
				return backoff.Permanent(err)
			}
			return err
		}
		if transientStatus(r.StatusCode) && attempt < t.cfg.MaxAttempts {
			drain(r)
			return fmt.Errorf("%w: status %d", errServerFailure, r.StatusCode)
		}
		resp = r
		return nil
	}
	if err := backoff.Retry(op, policy); err != nil {
		return nil, err
	}
	return resp, nil
}

// CircuitBreakerTransport is an http.RoundTripper guarded by a circuit breaker.
type CircuitBreakerTransport struct {
	next    http.RoundTripper
	breaker *gobreaker.CircuitBreaker[*http.Response]
}

// NewCircuitBreakerTransport wraps calls in a circuit breaker. Only transport
// errors and 5xx/429 responses count as failures; other 4xx responses are
// business outcomes and leave the breaker alone.
func NewCircuitBreakerTransport(next http.RoundTripper, name string, cfg config.CircuitBreakerConfig) *CircuitBreakerTransport {
	st := gobreaker.Settings{
		Name:        name,
		MaxRequests: cfg.HalfOpenRequests,
		Timeout:     cfg.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures > cfg.ConsecutiveFailures ||
				(counts.TotalSuccesses+counts.TotalFailures > cfg.ConsecutiveFailures &&
					float64(counts.TotalFailures)/float64(counts.TotalSuccesses+counts.TotalFailures)*100 > float64(cfg.ErrorRatePercent))
		},
		IsSuccessful: func(err error) bool {
			if err == nil {
				return true
			}
			// The caller gave up; that says nothing about the backend.
			return errors.Is(err, errCallerCanceled)
		},
	}
	return &CircuitBreakerTransport{
		next:    next,
		breaker: gobreaker.NewCircuitBreaker[*http.Response](st),
	}
}

var errCallerCanceled = errors.New("caller canceled")

func (t *CircuitBreakerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	var callerErr error
	resp, err := t.breaker.Execute(func() (*http.Response, error) {
		r, err := t.next.RoundTrip(req)
		if err != nil {
			if req.Context().Err() != nil {
				callerErr = err
				return nil, errCallerCanceled
			}
			return nil, err
		}
		if transientStatus(r.StatusCode) {
			return r, errServerFailure
		}
		return r, nil
	})
	if errors.Is(err, errServerFailure) && resp != nil {
		return resp, nil
	}
	if errors.Is(err, errCallerCanceled) {
		return nil, callerErr
	}
	return resp, err
}

// State exposes the breaker state for health reporting.
func (t *CircuitBreakerTransport) State() gobreaker.State {
	return t.breaker.State()
}

func drain(r *http.Response) {
	_, _ = io.Copy(io.Discard, io.LimitReader(r.Body, 4096))
	_ = r.Body.Close()
}
