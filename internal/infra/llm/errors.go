package llm

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
)

// Classified provider errors. Adapters wrap vendor detail around these
// sentinels so callers can branch with errors.Is without parsing messages.
var (
	// ErrAuth means the credential was rejected. Never retried.
	ErrAuth = errors.New("llm: authentication failed")
	// ErrRateLimited means the vendor throttled the request.
	ErrRateLimited = errors.New("llm: rate limited")
	// ErrTimeout means the call exceeded its deadline or was cancelled
	// by the transport before a response arrived.
	ErrTimeout = errors.New("llm: request timed out")
	// ErrInvalidRequest means the vendor rejected the request shape.
	ErrInvalidRequest = errors.New("llm: invalid request")
	// ErrUnavailable means the vendor endpoint could not serve the call.
	ErrUnavailable = errors.New("llm: provider unavailable")
)

// Retryable reports whether err is a transient provider failure that a
// bounded retry may recover. Auth and request-shape errors fail fast.
func Retryable(err error) bool {
	return errors.Is(err, ErrRateLimited) ||
		errors.Is(err, ErrTimeout) ||
		errors.Is(err, ErrUnavailable)
}

// classifyStatus maps an HTTP response status to a classified error.
// Returns nil for 2xx.
func classifyStatus(provider string, status int) error {
	switch {
	case status >= 200 && status < 300:
		return nil
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return fmt.Errorf("%s: status %d: %w", provider, status, ErrAuth)
	case status == http.StatusTooManyRequests:
		return fmt.Errorf("%s: status %d: %w", provider, status, ErrRateLimited)
	case status == http.StatusRequestTimeout || status == http.StatusGatewayTimeout:
		return fmt.Errorf("%s: status %d: %w", provider, status, ErrTimeout)
	case status >= 400 && status < 500:
		return fmt.Errorf("%s: status %d: %w", provider, status, ErrInvalidRequest)
	default:
		return fmt.Errorf("%s: status %d: %w", provider, status, ErrUnavailable)
	}
}

// classifyTransport maps a transport-level failure (http.Client.Do error)
// to a classified error. Context cancellation and deadline expiry count as
// timeouts so the caller's retry policy can decide what to do with them.
func classifyTransport(provider string, err error) error {
	var netErr net.Error
	switch {
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return fmt.Errorf("%s: %w: %w", provider, ErrTimeout, err)
	case errors.As(err, &netErr) && netErr.Timeout():
		return fmt.Errorf("%s: %w: %w", provider, ErrTimeout, err)
	default:
		return fmt.Errorf("%s: %w: %w", provider, ErrUnavailable, err)
	}
}
