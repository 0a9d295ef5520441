package util

import (
	"context"
	"errors"
	"time"
)

const defaultBackoffBase = 500 * time.Millisecond

// RetryWithBackoff calls fn up to maxTries times until it returns a nil
// error, sleeping between attempts with exponential backoff starting at
// base (500ms if base <= 0), or until ctx is done. Context errors stop
// the loop immediately, both when fn returns one and between attempts.
func RetryWithBackoff[T any](ctx context.Context, maxTries int, base time.Duration, fn func(context.Context) (T, error)) (T, error) {
	if maxTries <= 0 {
		maxTries = 1
	}
	if base <= 0 {
		base = defaultBackoffBase
	}

	var lastErr error
	var zero T
	delay := base
	for i := 0; i < maxTries; i++ {
		if ctx.Err() != nil {
			return zero, ctx.Err()
		}
		result, err := fn(ctx)
		if err == nil {
			return result, nil
		}
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return zero, err
		}
		lastErr = err

		if i < maxTries-1 {
			select {
			case <-ctx.Done():
				return zero, ctx.Err()
			case <-time.After(delay):
			}
			delay *= 2
		}
	}
	return zero, lastErr
}

// RetryErrWithBackoff is RetryWithBackoff for functions that only return
// an error.
func RetryErrWithBackoff(ctx context.Context, maxTries int, base time.Duration, fn func(context.Context) error) error {
	_, err := RetryWithBackoff(ctx, maxTries, base, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, fn(ctx)
	})
	return err
}

// Retry2WithBackoff calls fn up to maxTries times until it returns two
// results and nil error, with the same backoff and context semantics as
// RetryWithBackoff.
func Retry2WithBackoff[A, B any](ctx context.Context, maxTries int, base time.Duration, fn func(context.Context) (A, B, error)) (A, B, error) {
	type pair struct {
		a A
		b B
	}
	p, err := RetryWithBackoff(ctx, maxTries, base, func(ctx context.Context) (pair, error) {
		a, b, err := fn(ctx)
		return pair{a: a, b: b}, err
	})
	return p.a, p.b, err
}
