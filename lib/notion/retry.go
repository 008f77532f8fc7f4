// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package notion

import (
	"context"
	"errors"
	"time"

	"github.com/bureau-foundation/notionbot/lib/clock"
)

// MaxBackoff caps the exponential backoff between attempts. A
// server-supplied Retry-After hint is capped by MaxRetryAfter instead.
const MaxBackoff = time.Minute

// RetryPolicy bounds how [Retry] repeats a failing operation.
type RetryPolicy struct {
	// MaxAttempts is the total number of calls, including the first.
	// Values below 1 are treated as 1.
	MaxAttempts int

	// BaseDelay is the backoff before the second attempt. Attempt n
	// (1-based) that fails waits BaseDelay * 2^(n-1), capped at
	// [MaxBackoff].
	BaseDelay time.Duration

	// MaxBaseDelay caps BaseDelay before the exponent is applied.
	// Zero means no cap.
	MaxBaseDelay time.Duration

	// MaxRetryAfter caps a server-supplied Retry-After wait. Zero
	// means the hint is honored as sent.
	MaxRetryAfter time.Duration

	// OnRetry, when set, is called before each backoff sleep.
	OnRetry func(attempt int, delay time.Duration, err error)
}

// DefaultRetryPolicy is three attempts starting at one second.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts: 3,
		BaseDelay:   time.Second,
	}
}

// DevelopmentRetryPolicy shortens every wait so that a local run
// against a throttled integration does not stall for minutes.
func DevelopmentRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts:   3,
		BaseDelay:     time.Second,
		MaxBaseDelay:  500 * time.Millisecond,
		MaxRetryAfter: time.Second,
	}
}

// delay returns the wait after the given failed attempt (1-based).
func (policy RetryPolicy) delay(attempt int, err error) time.Duration {
	if hint := retryAfterHint(err); hint > 0 {
		if policy.MaxRetryAfter > 0 && hint > policy.MaxRetryAfter {
			return policy.MaxRetryAfter
		}
		return hint
	}
	backoff := policy.BaseDelay
	if policy.MaxBaseDelay > 0 && backoff > policy.MaxBaseDelay {
		backoff = policy.MaxBaseDelay
	}
	if backoff <= 0 {
		return 0
	}
	for doubling := 1; doubling < attempt && backoff < MaxBackoff; doubling++ {
		backoff *= 2
	}
	return min(backoff, MaxBackoff)
}

// retryAfterHint returns the RetryAfter of a rate-limited *Error.
func retryAfterHint(err error) time.Duration {
	var notionError *Error
	if !errors.As(err, &notionError) || notionError.Code != CodeRateLimited {
		return 0
	}
	return notionError.RetryAfter
}

// Retry calls operation until it succeeds, returns an error that is
// not retryable (see [IsRetryable]), or MaxAttempts calls have been
// made. The last error is returned unchanged so callers can still
// classify it. Context cancellation during a backoff sleep returns
// ctx.Err().
//
// Retrying a non-idempotent operation such as page creation can
// duplicate the side effect when a request succeeded upstream but its
// response was lost. Notion offers no idempotency key for page
// creation; callers accept that risk.
func Retry[T any](ctx context.Context, clk clock.Clock, policy RetryPolicy, operation func(context.Context) (T, error)) (T, error) {
	maxAttempts := max(policy.MaxAttempts, 1)

	var result T
	var err error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		result, err = operation(ctx)
		if err == nil {
			return result, nil
		}
		if !IsRetryable(err) || attempt == maxAttempts {
			return result, err
		}

		wait := policy.delay(attempt, err)
		if policy.OnRetry != nil {
			policy.OnRetry(attempt, wait, err)
		}

		select {
		case <-clk.After(wait):
		case <-ctx.Done():
			var zero T
			return zero, ctx.Err()
		}
	}
	return result, err
}
