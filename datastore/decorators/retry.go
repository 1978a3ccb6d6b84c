/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package decorators

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"net/http"
	"time"

	"go.uber.org/zap"

	scanerrors "github.com/a11yscan/scanstore/errors"
	"github.com/a11yscan/scanstore/storagemodels"
)

// RetryConfig configures retry behavior for page requests.
type RetryConfig struct {
	MaxRetries    int           // Maximum number of retry attempts
	InitialDelay  time.Duration // Initial delay before first retry
	MaxDelay      time.Duration // Maximum delay between retries
	BackoffFactor float64       // Multiplier for exponential backoff (e.g., 2.0)
	JitterFactor  float64       // Random jitter factor (0.0 to 1.0)

	// RetryableError decides whether a transport error is worth another attempt.
	// Nil means transport errors are never retried.
	RetryableError func(error) bool

	// OnRetry is called before each retry with the attempt number and the reason
	OnRetry func(attempt int, reason error)
}

// DefaultRetryConfig returns the defaults used by the CLI.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:    3,
		InitialDelay:  100 * time.Millisecond,
		MaxDelay:      5 * time.Second,
		BackoffFactor: 2.0,
		JitterFactor:  0.1,
	}
}

// RetryExecutor retries page requests that failed transiently: pages with status
// 408, 429 or 5xx, and transport errors accepted by RetryConfig.RetryableError.
// Page requests are reads, so every one of them is safe to repeat.
type RetryExecutor[T any] struct {
	inner  storagemodels.QueryExecutor[T]
	config RetryConfig
	logger *zap.Logger
}

// WithRetry wraps inner with retries.
func WithRetry[T any](inner storagemodels.QueryExecutor[T], config RetryConfig) *RetryExecutor[T] {
	return &RetryExecutor[T]{
		inner:  inner,
		config: config,
		logger: zap.L().Named("retry_query_executor"),
	}
}

// ExecuteQuery implements storagemodels.QueryExecutor. When retries run out the
// last failed page or error is returned unchanged.
func (r *RetryExecutor[T]) ExecuteQuery(ctx context.Context, req storagemodels.QueryRequest) (*storagemodels.PageResponse[T], error) {
	for attempt := 0; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("context cancelled before attempt %d: %w", attempt, err)
		}

		resp, err := r.inner.ExecuteQuery(ctx, req)

		reason := r.retryReason(resp, err)
		if reason == nil {
			if attempt > 0 {
				r.logger.Info("page request succeeded after retry", zap.Int("attempt", attempt))
			}
			return resp, err
		}
		if attempt >= r.config.MaxRetries {
			r.logger.Warn("page request failed after retries",
				zap.Int("attempts", attempt+1),
				zap.Error(reason),
			)
			return resp, err
		}

		delay := r.calculateDelay(attempt)

		if r.config.OnRetry != nil {
			r.config.OnRetry(attempt+1, reason)
		}

		r.logger.Warn("retrying page request",
			zap.Int("attempt", attempt+1),
			zap.Duration("delay", delay),
			zap.Error(reason),
		)

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return nil, fmt.Errorf("context cancelled during retry delay: %w", ctx.Err())
		}
	}
}

// retryReason returns nil when the outcome is final.
func (r *RetryExecutor[T]) retryReason(resp *storagemodels.PageResponse[T], err error) error {
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil
		}
		if r.config.RetryableError != nil && r.config.RetryableError(err) {
			return err
		}
		return nil
	}

	if resp != nil && IsTransientStatus(resp.StatusCode) {
		return scanerrors.NewQueryExecutionError(resp.StatusCode, resp.Diagnostics)
	}
	return nil
}

// calculateDelay calculates the delay before the next retry attempt.
func (r *RetryExecutor[T]) calculateDelay(attempt int) time.Duration {
	baseDelay := float64(r.config.InitialDelay) * math.Pow(r.config.BackoffFactor, float64(attempt))

	if r.config.MaxDelay > 0 && baseDelay > float64(r.config.MaxDelay) {
		baseDelay = float64(r.config.MaxDelay)
	}

	jitter := r.config.JitterFactor * baseDelay * (rand.Float64()*2 - 1)
	finalDelay := baseDelay + jitter

	if finalDelay < 0 {
		finalDelay = 0
	}

	return time.Duration(finalDelay)
}

// IsTransientStatus reports whether a page status is worth retrying.
func IsTransientStatus(status int) bool {
	switch {
	case status == http.StatusRequestTimeout, status == http.StatusTooManyRequests:
		return true
	case status == http.StatusNotImplemented:
		return false
	default:
		return status >= http.StatusInternalServerError
	}
}
