/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package decorators

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"github.com/a11yscan/scanstore/storagemodels"
)

// BreakerConfig holds configuration for the circuit breaker
type BreakerConfig struct {
	Name        string
	MaxRequests uint32
	Interval    time.Duration
	Timeout     time.Duration
	// FailureThreshold and MinRequests decide when to trip
	FailureThreshold float64
	MinRequests      uint32
}

// DefaultBreakerConfig returns a default configuration for the circuit breaker
func DefaultBreakerConfig(name string) BreakerConfig {
	return BreakerConfig{
		Name:             name,
		MaxRequests:      5,
		Interval:         30 * time.Second,
		Timeout:          60 * time.Second,
		FailureThreshold: 0.8,
		MinRequests:      5,
	}
}

var errServerPage = errors.New("server error page")

// BreakerExecutor stops sending page requests to a backend that keeps failing.
// Transport errors and 5xx pages count as failures. While the breaker is open,
// requests are answered with a 503 page without reaching the backend.
type BreakerExecutor[T any] struct {
	inner storagemodels.QueryExecutor[T]
	cb    *gobreaker.CircuitBreaker
	name  string
}

// WithCircuitBreaker wraps inner with a circuit breaker.
func WithCircuitBreaker[T any](inner storagemodels.QueryExecutor[T], config BreakerConfig) *BreakerExecutor[T] {
	logger := zap.L().Named("circuit_breaker")

	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        config.Name,
		MaxRequests: config.MaxRequests,
		Interval:    config.Interval,
		Timeout:     config.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < config.MinRequests {
				return false
			}

			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return failureRatio >= config.FailureThreshold
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Warn("circuit breaker state changed",
				zap.String("name", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
		IsSuccessful: func(err error) bool {
			// A cancelled caller says nothing about the backend.
			return err == nil || errors.Is(err, context.Canceled)
		},
	})

	return &BreakerExecutor[T]{inner: inner, cb: cb, name: config.Name}
}

// ExecuteQuery implements storagemodels.QueryExecutor.
func (b *BreakerExecutor[T]) ExecuteQuery(ctx context.Context, req storagemodels.QueryRequest) (*storagemodels.PageResponse[T], error) {
	var resp *storagemodels.PageResponse[T]

	_, err := b.cb.Execute(func() (interface{}, error) {
		r, err := b.inner.ExecuteQuery(ctx, req)
		resp = r
		if err != nil {
			return nil, err
		}
		if r != nil && r.StatusCode >= http.StatusInternalServerError {
			return nil, errServerPage
		}
		return nil, nil
	})

	switch {
	case err == nil, errors.Is(err, errServerPage):
		return resp, nil
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		return &storagemodels.PageResponse[T]{
			StatusCode:  http.StatusServiceUnavailable,
			Diagnostics: fmt.Sprintf("circuit breaker %q: %v", b.name, err),
		}, nil
	default:
		return nil, err
	}
}

// State returns the breaker's current state
func (b *BreakerExecutor[T]) State() gobreaker.State {
	return b.cb.State()
}
