package session

import (
	"context"
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"
	"k8s.io/apimachinery/pkg/util/wait"
)

// RetryPolicy retries a request at a fixed interval.
type RetryPolicy struct {
	Interval time.Duration
	Attempts int
}

var DefaultRetryPolicy = RetryPolicy{Interval: time.Second, Attempts: 5}

func isCommonError(resp *Response, err error) bool {
	if err != nil {
		return !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded)
	}
	switch resp.StatusCode {
	case http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return true
	}
	return false
}

// do returns the last response or error once attempts are exhausted.
func (p RetryPolicy) do(ctx context.Context, send func(ctx context.Context) (*Response, error)) (*Response, error) {
	attempts := p.Attempts
	if attempts < 1 {
		attempts = 1
	}

	var (
		resp    *Response
		sendErr error
		attempt int
	)
	backoff := wait.Backoff{Duration: p.Interval, Factor: 1, Steps: attempts}
	err := wait.ExponentialBackoffWithContext(ctx, backoff, func(ctx context.Context) (bool, error) {
		attempt++
		resp, sendErr = send(ctx)
		if !isCommonError(resp, sendErr) {
			return true, nil
		}
		if sendErr != nil {
			zap.S().Named("session").Debugw("retrying request", "attempt", attempt, "error", sendErr)
		} else {
			zap.S().Named("session").Debugw("retrying request", "attempt", attempt, "url", resp.URL, "status", resp.StatusCode)
		}
		return false, nil
	})
	// Cancelled between attempts.
	if err != nil && ctx.Err() != nil {
		return nil, ctx.Err()
	}
	if err != nil && (!wait.Interrupted(err) || attempt == 0) {
		return nil, err
	}
	return resp, sendErr
}
