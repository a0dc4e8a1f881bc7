// File: internal/resilience/resilience.go
// Description: Generic retry, timeout-race, validation, and
// graceful-degradation primitives that wrap arbitrary operations against
// the browser. The rest of the suite layers these over locator queries and
// clicks so that a flaky storefront page degrades into a retried or
// descriptive failure instead of a brittle one.
//
// Operations passed to RetryWithBackoff are treated as idempotent-safe to
// repeat; callers must not wrap non-idempotent mutations here without
// compensating logic of their own.
package resilience

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// RetryPolicy governs RetryWithBackoff. The delay between attempt k and
// k+1 grows as BaseDelay * 2^(k-1), so the total wall-clock cost of delays
// is bounded by BaseDelay * (2^MaxAttempts - 1).
type RetryPolicy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	Description string
}

// Validate checks the policy for sane values.
func (p RetryPolicy) Validate() error {
	if p.MaxAttempts < 1 {
		return fmt.Errorf("retry policy %q: max attempts must be >= 1, got %d", p.Description, p.MaxAttempts)
	}
	if p.BaseDelay <= 0 {
		return fmt.Errorf("retry policy %q: base delay must be positive, got %v", p.Description, p.BaseDelay)
	}
	return nil
}

// RetryWithBackoff invokes op up to policy.MaxAttempts times with
// exponential backoff between failures. On exhaustion it returns the last
// error annotated with the policy description and attempt count.
func RetryWithBackoff[T any](ctx context.Context, policy RetryPolicy, logger *zap.Logger, op func(context.Context) (T, error)) (T, error) {
	var zero T
	if err := policy.Validate(); err != nil {
		return zero, err
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = policy.BaseDelay
	b.Multiplier = 2
	// Deterministic delays: the backoff law is part of the contract here,
	// jitter would break the wall-clock bound callers plan around.
	b.RandomizationFactor = 0
	b.MaxInterval = policy.BaseDelay << uint(policy.MaxAttempts)
	b.MaxElapsedTime = 0

	attempts := 0
	operation := func() (T, error) {
		attempts++
		v, err := op(ctx)
		if err != nil && ctx.Err() != nil {
			// Cancellation is not retryable.
			return zero, backoff.Permanent(err)
		}
		return v, err
	}
	notify := func(err error, wait time.Duration) {
		logger.Debug("Operation failed; backing off before retry.",
			zap.String("operation", policy.Description),
			zap.Int("attempt", attempts),
			zap.Duration("wait", wait),
			zap.Error(err))
	}

	wrapped := backoff.WithContext(backoff.WithMaxRetries(b, uint64(policy.MaxAttempts-1)), ctx)
	v, err := backoff.RetryNotifyWithData(operation, wrapped, notify)
	if err != nil {
		return zero, fmt.Errorf("%s failed after %d attempt(s): %w", policy.Description, attempts, err)
	}
	if attempts > 1 {
		logger.Info("Operation succeeded after retries.",
			zap.String("operation", policy.Description),
			zap.Int("attempts", attempts))
	}
	return v, nil
}

// SafeElementOperation races primary against a timeout. On primary failure
// (error or timeout) the fallback, when supplied, is invoked and its result
// returned; if the fallback also fails, a combined error describing both
// failures propagates. Without a fallback the primary's error propagates
// unchanged.
func SafeElementOperation[T any](ctx context.Context, timeout time.Duration, logger *zap.Logger, description string, primary func(context.Context) (T, error), fallback func(context.Context) (T, error)) (T, error) {
	primaryVal, primaryErr := raceTimeout(ctx, timeout, primary)
	if primaryErr == nil {
		return primaryVal, nil
	}

	if fallback == nil {
		var zero T
		return zero, fmt.Errorf("%s: %w", description, primaryErr)
	}

	logger.Debug("Primary operation failed; trying fallback.",
		zap.String("operation", description),
		zap.Error(primaryErr))

	fallbackVal, fallbackErr := fallback(ctx)
	if fallbackErr == nil {
		return fallbackVal, nil
	}

	var zero T
	return zero, fmt.Errorf("%s: primary and fallback both failed: %w", description,
		multierr.Append(
			fmt.Errorf("primary: %w", primaryErr),
			fmt.Errorf("fallback: %w", fallbackErr),
		))
}

// raceTimeout runs op under a derived deadline and also enforces the
// deadline externally, so an op that ignores its context still fails fast.
// The op goroutine is left to finish on its own in that case.
func raceTimeout[T any](ctx context.Context, timeout time.Duration, op func(context.Context) (T, error)) (T, error) {
	opCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	type outcome struct {
		val T
		err error
	}
	done := make(chan outcome, 1)
	go func() {
		v, err := op(opCtx)
		done <- outcome{v, err}
	}()

	select {
	case out := <-done:
		return out.val, out.err
	case <-opCtx.Done():
		var zero T
		return zero, fmt.Errorf("timed out after %v: %w", timeout, opCtx.Err())
	}
}

// Rule is one validation predicate with its failure message.
type Rule[T any] struct {
	Check   func(T) bool
	Message string
}

// ValidateData evaluates every rule against data and aggregates all
// failing messages into a single error instead of stopping at the first.
// A caller seeing "name empty; price missing" learns about both problems
// in one failure.
func ValidateData[T any](data T, rules []Rule[T], label string) error {
	var combined error
	for _, rule := range rules {
		if !rule.Check(data) {
			combined = multierr.Append(combined, fmt.Errorf("%s", rule.Message))
		}
	}
	if combined != nil {
		return fmt.Errorf("validation failed for %s: %w", label, combined)
	}
	return nil
}

// WithGracefulDegradation runs op and, on any failure, logs it and returns
// fallbackValue instead of propagating. Only strictly optional steps
// belong here.
func WithGracefulDegradation[T any](ctx context.Context, logger *zap.Logger, description string, fallbackValue T, op func(context.Context) (T, error)) T {
	v, err := op(ctx)
	if err != nil {
		logger.Warn("Optional step failed; continuing with fallback value.",
			zap.String("operation", description),
			zap.Error(err))
		return fallbackValue
	}
	return v
}

// networkErrorPatterns are the textual fingerprints of transient network
// failures that deserve a retry recommendation.
var networkErrorPatterns = []string{
	"timeout",
	"timed out",
	"deadline exceeded",
	"dns",
	"no such host",
	"connection refused",
	"connection reset",
	"network is unreachable",
	"host unreachable",
	"temporarily unavailable",
}

// networkRetryPolicy holds the tuned constants applied when a caller opts
// into automatic retries.
func networkRetryPolicy(description string) RetryPolicy {
	return RetryPolicy{MaxAttempts: 3, BaseDelay: 2 * time.Second, Description: description}
}

// WithNetworkResilience applies RetryWithBackoff with tuned constants when
// shouldRetry is true. When false, it inspects a failure's message for
// network-error patterns and annotates it with a retry recommendation;
// non-network failures pass through unchanged.
func WithNetworkResilience[T any](ctx context.Context, logger *zap.Logger, description string, shouldRetry bool, op func(context.Context) (T, error)) (T, error) {
	if shouldRetry {
		return RetryWithBackoff(ctx, networkRetryPolicy(description), logger, op)
	}

	v, err := op(ctx)
	if err == nil {
		return v, nil
	}
	if IsNetworkError(err) {
		var zero T
		return zero, fmt.Errorf("%s hit a transient network failure (consider retrying): %w", description, err)
	}
	return v, err
}

// IsNetworkError reports whether an error's text matches a known transient
// network pattern.
func IsNetworkError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	for _, pattern := range networkErrorPatterns {
		if strings.Contains(msg, pattern) {
			return true
		}
	}
	return false
}
