package types

import (
	"context"
	"errors"
	"strings"
)

// ErrorCategory is the closed taxonomy every delivery failure maps into.
// Downstream retry logic switches on this enum, never on raw error strings.
type ErrorCategory string

const (
	CategoryTimeout            ErrorCategory = "TIMEOUT"
	CategoryNetworkError       ErrorCategory = "NETWORK_ERROR"
	CategoryThrottling         ErrorCategory = "THROTTLING"
	CategoryInvalidParameter   ErrorCategory = "INVALID_PARAMETER"
	CategoryAccessDenied       ErrorCategory = "ACCESS_DENIED"
	CategoryServiceUnavailable ErrorCategory = "SERVICE_UNAVAILABLE"
	CategoryTopicNotFound      ErrorCategory = "TOPIC_NOT_FOUND"
	CategoryMessageTooLarge    ErrorCategory = "MESSAGE_TOO_LARGE"
	CategoryUnknown            ErrorCategory = "UNKNOWN"
)

// Retryable reports whether failures in this category are worth retrying.
// This table is the single source of truth for both the publisher retry loop
// and the consumer's redelivery decision. UNKNOWN is retryable by default:
// silently dropping unclassified failures would lose data.
func (c ErrorCategory) Retryable() bool {
	switch c {
	case CategoryTimeout, CategoryNetworkError, CategoryThrottling,
		CategoryServiceUnavailable, CategoryUnknown:
		return true
	default:
		return false
	}
}

// networkSubstrings identify transport-level connectivity failures.
var networkSubstrings = []string{
	"connection refused",
	"connection reset",
	"no such host",
	"network is unreachable",
	"broken pipe",
	"timed out",
}

// Machine-readable codes grouped by category. AWS service codes come from
// smithy API errors; the upstream_* entries are our own AppError codes so
// provider-mapped errors classify without re-inspecting message text.
var (
	throttlingCodes = map[string]bool{
		"Throttling":                       true,
		"ThrottlingException":              true,
		"TooManyRequestsException":         true,
		"RequestThrottled":                 true,
		string(ErrCodeUpstreamRateLimited): true,
	}
	parameterCodes = map[string]bool{
		"InvalidParameter":          true,
		"InvalidParameterException": true,
		"InvalidParameterValue":     true,
		"ValidationError":           true,
		"ValidationException":       true,
	}
	accessCodes = map[string]bool{
		"AccessDenied":           true,
		"AccessDeniedException":  true,
		"AuthorizationError":     true,
		"UnauthorizedOperation":  true,
		"NotAuthorizedException": true,
	}
	unavailableCodes = map[string]bool{
		"ServiceUnavailable":               true,
		"ServiceUnavailableException":      true,
		"InternalError":                    true,
		"InternalFailure":                  true,
		"InternalServiceError":             true,
		string(ErrCodeUpstreamUnavailable): true,
	}
)

// coder is satisfied by smithy API errors and anything else carrying a
// machine-readable error code string.
type coder interface {
	ErrorCode() string
}

// errorCode extracts an optional machine-readable code from the error chain.
// Returns "" when no code is present.
func errorCode(err error) string {
	var c coder
	if errors.As(err, &c) {
		return c.ErrorCode()
	}
	var app *AppError
	if errors.As(err, &app) {
		return string(app.Code)
	}
	return ""
}

// Classify maps an opaque failure into the ErrorCategory taxonomy. It is a
// total function: every error maps to exactly one category, and classifying
// the same error twice yields the same result.
//
// Rules are checked in order, first match wins:
//  1. deadline exceeded or "timeout" in the message
//  2. known network-failure substrings
//  3. throttling code
//  4. parameter/validation code
//  5. authorization code
//  6. service-unavailable/internal code
//  7. destination topic does not exist
//  8. payload exceeds the size limit
//  9. UNKNOWN
func Classify(err error) ErrorCategory {
	if err == nil {
		return CategoryUnknown
	}

	msg := strings.ToLower(err.Error())

	if errors.Is(err, context.DeadlineExceeded) || strings.Contains(msg, "timeout") {
		return CategoryTimeout
	}

	for _, s := range networkSubstrings {
		if strings.Contains(msg, s) {
			return CategoryNetworkError
		}
	}

	switch code := errorCode(err); {
	case throttlingCodes[code]:
		return CategoryThrottling
	case parameterCodes[code]:
		return CategoryInvalidParameter
	case accessCodes[code]:
		return CategoryAccessDenied
	case unavailableCodes[code]:
		return CategoryServiceUnavailable
	case code == "NotFound" || code == "NotFoundException" || code == "ResourceNotFoundException":
		return CategoryTopicNotFound
	}

	if strings.Contains(msg, "topic does not exist") || strings.Contains(msg, "topic not found") {
		return CategoryTopicNotFound
	}

	if strings.Contains(msg, "message too long") ||
		strings.Contains(msg, "message too large") ||
		strings.Contains(msg, "exceeds the maximum message size") {
		return CategoryMessageTooLarge
	}

	return CategoryUnknown
}
