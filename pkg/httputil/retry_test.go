package httputil

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	cerrors "github.com/matzehuels/chartsnap/pkg/errors"
)

var errTransient = errors.New("transient")

func TestRetry(t *testing.T) {
	ctx := context.Background()

	calls := 0
	err := Retry(ctx, 3, time.Millisecond, func() error {
		calls++
		return nil
	})
	if err != nil || calls != 1 {
		t.Errorf("success: err %v, calls %d", err, calls)
	}

	permanent := errors.New("permanent")
	calls = 0
	err = Retry(ctx, 3, time.Millisecond, func() error {
		calls++
		return permanent
	})
	if err != permanent || calls != 1 {
		t.Errorf("non-retryable: err %v, calls %d", err, calls)
	}

	calls = 0
	err = Retry(ctx, 3, time.Millisecond, func() error {
		calls++
		if calls < 3 {
			return &RetryableError{Err: errTransient}
		}
		return nil
	})
	if err != nil || calls != 3 {
		t.Errorf("retry until success: err %v, calls %d", err, calls)
	}

	calls = 0
	err = Retry(ctx, 2, time.Millisecond, func() error {
		calls++
		return &RetryableError{Err: errTransient}
	})
	if !errors.Is(err, errTransient) || calls != 2 {
		t.Errorf("exhausted: err %v, calls %d", err, calls)
	}
}

func TestRetryContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	calls := 0
	err := Retry(ctx, 3, time.Second, func() error {
		calls++
		return &RetryableError{Err: errTransient}
	})
	if err != context.Canceled {
		t.Errorf("err = %v, want context.Canceled", err)
	}
	if calls != 0 {
		t.Errorf("fn called %d times after cancellation", calls)
	}
}

func TestCheckStatus(t *testing.T) {
	tests := []struct {
		code      int
		wantErr   bool
		retryable bool
		errCode   cerrors.Code
	}{
		{http.StatusOK, false, false, ""},
		{http.StatusNoContent, false, false, ""},
		{http.StatusNotFound, true, false, cerrors.ErrCodeNotFound},
		{http.StatusTooManyRequests, true, true, cerrors.ErrCodeNetwork},
		{http.StatusBadGateway, true, true, cerrors.ErrCodeNetwork},
		{http.StatusBadRequest, true, false, cerrors.ErrCodeNetwork},
	}
	for _, tt := range tests {
		t.Run(http.StatusText(tt.code), func(t *testing.T) {
			err := CheckStatus(tt.code)
			if (err != nil) != tt.wantErr {
				t.Fatalf("CheckStatus(%d) = %v", tt.code, err)
			}
			if IsRetryable(err) != tt.retryable {
				t.Errorf("retryable = %v, want %v", IsRetryable(err), tt.retryable)
			}
			if err != nil && !cerrors.Is(err, tt.errCode) {
				t.Errorf("code = %v, want %v", cerrors.GetCode(err), tt.errCode)
			}
		})
	}
}

func TestNewHTTPClient(t *testing.T) {
	if c := NewHTTPClient(0); c.Timeout != DefaultTimeout {
		t.Errorf("Timeout = %v, want %v", c.Timeout, DefaultTimeout)
	}
	if c := NewHTTPClient(time.Second); c.Timeout != time.Second {
		t.Errorf("Timeout = %v, want 1s", c.Timeout)
	}
}
