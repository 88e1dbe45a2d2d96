package transport

import (
	"net/http"
	"time"

	"github.com/abgdnv/gocommerce-storefront/pkg/config"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// NewHTTPClient builds the backend client stack: retry outside the breaker
// so every attempt is counted, and otelhttp innermost so each attempt gets
// its own client span. The breaker is returned for health reporting.
func NewHTTPClient(timeout time.Duration, resilience config.ResilienceConfig) (*http.Client, *CircuitBreakerTransport) {
	breaker := NewCircuitBreakerTransport(otelhttp.NewTransport(http.DefaultTransport), "storefront-backend", resilience.CircuitBreaker)
	return &http.Client{
		Timeout:   timeout,
		Transport: NewRetryTransport(breaker, resilience.Retry),
	}, breaker
}
