package errors

import (
	"net/http"

	"github.com/go-chi/render"
)

// APIError is an HTTP-level refusal that has nothing to do with the
// dataset: a rate limit, or an endpoint switched off by configuration. It
// carries its own problem type, so the handler maps it without guessing
// from the status code.
type APIError struct {
	StatusCode  int    `json:"status_code"`
	ErrorCode   string `json:"error_code"`
	Message     string `json:"message"`
	Details     string `json:"details,omitempty"`
	ProblemType string `json:"-"`
	// RetryAfter is a client back-off hint in seconds; 0 means none.
	RetryAfter int `json:"-"`
}

func (e *APIError) Error() string {
	return e.Message
}

// Render implements render.Renderer
func (e *APIError) Render(w http.ResponseWriter, r *http.Request) error {
	render.Status(r, e.StatusCode)
	return nil
}

var (
	// ErrRateLimitExceeded is returned by the rate limiter. Rendering the page
	// reads the whole dataset, so clients are asked to back off for a minute.
	ErrRateLimitExceeded = &APIError{
		StatusCode:  http.StatusTooManyRequests,
		ErrorCode:   "RATE_LIMIT_EXCEEDED",
		Message:     "Too many requests, retry later",
		ProblemType: TypeRateLimit,
		RetryAfter:  60,
	}

	// ErrMetricsDisabled answers /metrics when telemetry.metric_exporter is "none".
	ErrMetricsDisabled = ServiceUnavailable("metrics", "metric exporter is disabled (telemetry.metric_exporter=none)")
)

// ServiceUnavailable creates a 503 error naming the unavailable dependency
func ServiceUnavailable(dependency, reason string) *APIError {
	return &APIError{
		StatusCode:  http.StatusServiceUnavailable,
		ErrorCode:   "SERVICE_UNAVAILABLE",
		Message:     dependency + " is not available",
		Details:     reason,
		ProblemType: TypeServiceDown,
	}
}
