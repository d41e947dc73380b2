package core

import (
	"errors"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/prasadguuduru/book-management-sub002/internal/notifications/email"
	"github.com/prasadguuduru/book-management-sub002/internal/types"
)

// RetryPolicy defines the exponential backoff parameters for delivery retries.
type RetryPolicy struct {
	MaxAttempts   int
	BaseDelay     time.Duration
	MaxDelay      time.Duration
	BackoffFactor float64
	// Jitter enables a ±25% uniform perturbation of the computed delay to
	// avoid thundering-herd retries.
	Jitter bool
}

// PublishRetryPolicy is the default policy for the publisher retry loop.
var PublishRetryPolicy = RetryPolicy{
	MaxAttempts:   3,
	BaseDelay:     1 * time.Second,
	MaxDelay:      30 * time.Second,
	BackoffFactor: 2.0,
	Jitter:        true,
}

// MaxReceiveCount is the consumer's own retry ceiling, checked before the
// transport's redrive limit.
const MaxReceiveCount = 3

// CalculateNextRetry computes the delay before the next retry attempt using
// exponential backoff: delay = min(BaseDelay * BackoffFactor^attempt, MaxDelay).
// The attempt argument is zero-based; negative attempts are treated as 0.
func CalculateNextRetry(policy RetryPolicy, attempt int) time.Duration {
	if attempt < 0 {
		attempt = 0
	}

	delay := float64(policy.BaseDelay)
	for i := 0; i < attempt; i++ {
		delay *= policy.BackoffFactor
	}

	d := time.Duration(delay)
	if d > policy.MaxDelay {
		d = policy.MaxDelay
	}
	if d < 0 {
		// Guard against overflow
		d = policy.MaxDelay
	}

	return d
}

// BackoffScheduler produces retry delays from a RetryPolicy, optionally
// jittered. Delays are deterministic for a fixed seed, which tests rely on.
type BackoffScheduler struct {
	policy RetryPolicy
	rng    *rand.Rand
}

// NewBackoffScheduler creates a scheduler seeded from the system source.
func NewBackoffScheduler(policy RetryPolicy) *BackoffScheduler {
	return NewSeededBackoffScheduler(policy, rand.Uint64())
}

// NewSeededBackoffScheduler creates a scheduler with a fixed seed.
func NewSeededBackoffScheduler(policy RetryPolicy, seed uint64) *BackoffScheduler {
	return &BackoffScheduler{
		policy: policy,
		rng:    rand.New(rand.NewPCG(seed, 0)),
	}
}

// Delay returns the wait before the next attempt. The attempt argument is
// one-based (the attempt that just failed). The returned duration is capped
// at MaxDelay before jitter and never negative after it.
func (s *BackoffScheduler) Delay(attempt int) time.Duration {
	d := CalculateNextRetry(s.policy, attempt-1)
	if !s.policy.Jitter {
		return d
	}

	// Uniform draw in [0.75, 1.25).
	factor := 0.75 + s.rng.Float64()*0.5
	jittered := time.Duration(float64(d) * factor)
	if jittered < 0 {
		return 0
	}
	return jittered
}

// Names for the matched redelivery rule, logged for auditability.
const (
	RuleValidationError  = "validation_error"
	RuleMaxRetries       = "max_retries_exceeded"
	RulePermanentAddress = "permanent_delivery_failure"
	RuleCCConfiguration  = "cc_configuration_error"
	RuleCCTransient      = "cc_transient_error"
	RuleClassified       = "classified"
)

// RetryDecision is the outcome of DecideRetry: whether the record should be
// redelivered and which rule produced that verdict.
type RetryDecision struct {
	Retry bool
	Rule  string
	// Category is set when the verdict came from the error taxonomy.
	Category types.ErrorCategory
}

// permanentAddressSubstrings identify delivery-destination problems that no
// amount of retrying will fix.
var permanentAddressSubstrings = []string{
	"address is not verified",
	"email address is not verified",
	"invalid recipient",
	"address is invalid",
	"invalid email address",
	"sending quota exceeded",
}

// DecideRetry determines whether a failed record should be redelivered or
// abandoned to the dead-letter path. It is pure: callers log the matched rule.
//
// Rules, in order:
//  1. structural/schema validation failures are permanent
//  2. the retry ceiling has been reached
//  3. permanent delivery-destination problems are not retried
//  4. secondary-recipient-only failures: configuration errors are permanent,
//     transient delivery errors are retried (the retried unit of work must be
//     idempotent at the business layer — the primary may already have been
//     delivered)
//  5. otherwise consult the error taxonomy; unclassified errors retry
func DecideRetry(err error, receiveCount int, maxRetries int) RetryDecision {
	if isValidationError(err) {
		return RetryDecision{Retry: false, Rule: RuleValidationError}
	}

	if receiveCount >= maxRetries {
		return RetryDecision{Retry: false, Rule: RuleMaxRetries}
	}

	if isPermanentAddressError(err) {
		return RetryDecision{Retry: false, Rule: RulePermanentAddress}
	}

	var ccErr *email.CCDeliveryError
	if errors.As(err, &ccErr) {
		if ccErr.Permanent {
			return RetryDecision{Retry: false, Rule: RuleCCConfiguration}
		}
		return RetryDecision{Retry: true, Rule: RuleCCTransient}
	}

	category := types.Classify(err)
	return RetryDecision{
		Retry:    category.Retryable(),
		Rule:     RuleClassified,
		Category: category,
	}
}

// isValidationError reports whether the failure is a structural or schema
// validation error. Validation failures are terminal regardless of the
// delivery attempt count.
func isValidationError(err error) bool {
	var app *types.AppError
	if errors.As(err, &app) {
		switch app.Code {
		case types.ErrCodeInvalidEnvelope, types.ErrCodeInvalidEvent,
			types.ErrCodeValidationMissingField:
			return true
		}
	}

	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "validation failed") ||
		strings.Contains(msg, "invalid envelope") ||
		strings.Contains(msg, "schema validation")
}

func isPermanentAddressError(err error) bool {
	var app *types.AppError
	if errors.As(err, &app) && app.Code == types.ErrCodeEmailBlocked {
		return true
	}

	msg := strings.ToLower(err.Error())
	for _, s := range permanentAddressSubstrings {
		if strings.Contains(msg, s) {
			return true
		}
	}
	return false
}
