package httputil

import (
	"context"
	"errors"
	"net/http"
	"time"

	cerrors "github.com/matzehuels/chartsnap/pkg/errors"
)

// DefaultTimeout bounds a single request.
const DefaultTimeout = 30 * time.Second

// NewHTTPClient creates an HTTP client with the given timeout, or
// [DefaultTimeout] when timeout is not positive.
func NewHTTPClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &http.Client{Timeout: timeout}
}

// RetryableError wraps an error to indicate it should trigger a retry.
// Wrap transient failures (network timeouts, 5xx responses) with this type
// so that [Retry] knows to attempt the operation again.
type RetryableError struct{ Err error }

func (e *RetryableError) Error() string { return e.Err.Error() }
func (e *RetryableError) Unwrap() error { return e.Err }

// Retry executes fn up to attempts times with exponential backoff.
// It only retries errors wrapped with [RetryableError]; other errors are
// returned immediately. The delay doubles after each failed attempt.
// Returns the last error if all attempts fail, or ctx.Err() if cancelled.
func Retry(ctx context.Context, attempts int, delay time.Duration, fn func() error) error {
	attempts = max(attempts, 1)
	var lastErr error

	for i := range attempts {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := fn(); err == nil {
			return nil
		} else if lastErr = err; !IsRetryable(err) {
			return err
		}

		if i < attempts-1 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
				delay *= 2
			}
		}
	}
	return lastErr
}

// IsRetryable reports whether err is marked with [RetryableError].
func IsRetryable(err error) bool {
	return errors.As(err, new(*RetryableError))
}

// CheckStatus converts an HTTP status code to an error. 2xx is success,
// 404 is not found, 429 and 5xx are retryable network errors, anything else
// is a plain network error.
func CheckStatus(code int) error {
	switch {
	case code >= 200 && code < 300:
		return nil
	case code == http.StatusNotFound:
		return cerrors.New(cerrors.ErrCodeNotFound, "status %d", code)
	case code == http.StatusTooManyRequests || code >= 500:
		return &RetryableError{Err: cerrors.New(cerrors.ErrCodeNetwork, "status %d", code)}
	default:
		return cerrors.New(cerrors.ErrCodeNetwork, "status %d", code)
	}
}
