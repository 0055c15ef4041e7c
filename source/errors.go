package source

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
)

// ErrUnsupportedScheme is returned for locations that are neither local
// paths nor http(s) URLs.
var ErrUnsupportedScheme = errors.New("source: unsupported scheme")

// ErrTimeout indicates a timeout while downloading a source.
type ErrTimeout struct {
	Err error
}

func (e ErrTimeout) Error() string {
	return fmt.Errorf("timeout: %w", e.Err).Error()
}

func (e ErrTimeout) Unwrap() error {
	return e.Err
}

// ErrConnection indicates a network connectivity failure.
type ErrConnection struct {
	Err error
}

func (e ErrConnection) Error() string {
	return fmt.Errorf("connection: %w", e.Err).Error()
}

func (e ErrConnection) Unwrap() error {
	return e.Err
}

// ErrForbidden indicates a forbidden response (HTTP 401 or 403).
type ErrForbidden struct {
	Err error
}

func (e ErrForbidden) Error() string {
	return fmt.Errorf("forbidden: %w", e.Err).Error()
}

func (e ErrForbidden) Unwrap() error {
	return e.Err
}

// ErrNotFound indicates a missing source (HTTP 404).
type ErrNotFound struct {
	Err error
}

func (e ErrNotFound) Error() string {
	return fmt.Errorf("not_found: %w", e.Err).Error()
}

func (e ErrNotFound) Unwrap() error {
	return e.Err
}

// ErrRateLimited indicates the host rate-limited the request.
type ErrRateLimited struct {
	Err error
}

func (e ErrRateLimited) Error() string {
	return fmt.Errorf("rate_limited: %w", e.Err).Error()
}

func (e ErrRateLimited) Unwrap() error {
	return e.Err
}

// ErrServer indicates a 5xx response.
type ErrServer struct {
	Err error
}

func (e ErrServer) Error() string {
	return fmt.Errorf("server: %w", e.Err).Error()
}

func (e ErrServer) Unwrap() error {
	return e.Err
}

func classifyError(err error, statusCode int) error {
	if err == nil && statusCode == 0 {
		return nil
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return ErrTimeout{Err: err}
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return ErrTimeout{Err: err}
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return ErrConnection{Err: err}
	}

	if statusCode != 0 {
		wrapped := err
		if wrapped == nil {
			wrapped = fmt.Errorf("http status %d", statusCode)
		}
		switch {
		case statusCode == http.StatusUnauthorized, statusCode == http.StatusForbidden:
			return ErrForbidden{Err: wrapped}
		case statusCode == http.StatusNotFound, statusCode == http.StatusGone:
			return ErrNotFound{Err: wrapped}
		case statusCode == http.StatusTooManyRequests:
			return ErrRateLimited{Err: wrapped}
		case statusCode >= http.StatusInternalServerError:
			return ErrServer{Err: wrapped}
		}
	}

	if err == nil {
		return nil
	}
	return err
}

// retryable reports whether another attempt could succeed.
func retryable(err error) bool {
	switch errorTypeLabel(err) {
	case "forbidden", "not_found", "unknown":
		return false
	default:
		return !errors.Is(err, context.Canceled)
	}
}

func errorTypeLabel(err error) string {
	if err == nil {
		return "unknown"
	}
	var timeout ErrTimeout
	if errors.As(err, &timeout) {
		return "timeout"
	}
	var conn ErrConnection
	if errors.As(err, &conn) {
		return "connection"
	}
	var forbidden ErrForbidden
	if errors.As(err, &forbidden) {
		return "forbidden"
	}
	var notFound ErrNotFound
	if errors.As(err, &notFound) {
		return "not_found"
	}
	var rateLimited ErrRateLimited
	if errors.As(err, &rateLimited) {
		return "rate_limited"
	}
	var server ErrServer
	if errors.As(err, &server) {
		return "server"
	}
	return "other"
}
