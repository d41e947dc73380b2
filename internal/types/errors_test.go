package types

import (
	"errors"
	"fmt"
	"testing"
)

// TestAppErrorImplementsError verifies that *AppError satisfies the error interface.
func TestAppErrorImplementsError(t *testing.T) {
	var _ error = (*AppError)(nil)
}

// TestAppErrorErrorFormat verifies the Error() method produces "code: message".
func TestAppErrorErrorFormat(t *testing.T) {
	appErr := &AppError{
		Code:    ErrCodeValidationInvalidEmail,
		Message: "primary recipient address is malformed",
	}

	expected := "validation_invalid_email: primary recipient address is malformed"
	if appErr.Error() != expected {
		t.Errorf("Error() = %q, want %q", appErr.Error(), expected)
	}
}

// TestAppErrorUnwrap verifies the error chain support via Unwrap.
func TestAppErrorUnwrap(t *testing.T) {
	underlying := errors.New("database connection failed")
	appErr := &AppError{
		Code:    ErrCodeInternalDB,
		Message: "failed to record dead letter",
		Err:     underlying,
	}

	if appErr.Unwrap() != underlying {
		t.Errorf("Unwrap() returned unexpected error: got %v, want %v", appErr.Unwrap(), underlying)
	}
}

// TestAppErrorUnwrapNil verifies Unwrap returns nil when no underlying error exists.
func TestAppErrorUnwrapNil(t *testing.T) {
	appErr := &AppError{
		Code:    ErrCodeInvalidEvent,
		Message: "event failed schema validation",
	}

	if appErr.Unwrap() != nil {
		t.Errorf("Unwrap() should return nil when Err is nil, got %v", appErr.Unwrap())
	}
}

// TestAppErrorErrorsAs verifies that errors.As can extract AppError from an error chain.
func TestAppErrorErrorsAs(t *testing.T) {
	appErr := &AppError{
		Code:    ErrCodeEmailBlocked,
		Message: "recipient address suppressed",
	}
	wrappedErr := fmt.Errorf("process record: %w", appErr)

	var target *AppError
	if !errors.As(wrappedErr, &target) {
		t.Fatal("errors.As should find AppError in the chain")
	}
	if target.Code != ErrCodeEmailBlocked {
		t.Errorf("extracted Code = %q, want %q", target.Code, ErrCodeEmailBlocked)
	}
}

// TestNewAppError verifies the standard constructor.
func TestNewAppError(t *testing.T) {
	underlying := errors.New("dial tcp: connection refused")
	appErr := NewAppError(ErrCodeUpstreamUnavailable, "provider unreachable", underlying)

	if appErr.Code != ErrCodeUpstreamUnavailable {
		t.Errorf("Code = %q, want %q", appErr.Code, ErrCodeUpstreamUnavailable)
	}
	if !errors.Is(appErr, underlying) {
		t.Error("errors.Is should match the wrapped error")
	}
}

// TestAppErrorWithDetails verifies details are merged without mutating the original.
func TestAppErrorWithDetails(t *testing.T) {
	original := NewAppError(ErrCodePublishExhausted, "all publish attempts failed", nil).
		WithDetails(map[string]any{"attempts": 3})

	enriched := original.WithDetails(map[string]any{"topic": "book-events"})

	if len(original.Details) != 1 {
		t.Errorf("original should be unchanged, got details %v", original.Details)
	}
	if enriched.Details["attempts"] != 3 || enriched.Details["topic"] != "book-events" {
		t.Errorf("merged details incorrect: %v", enriched.Details)
	}
	if enriched.Code != original.Code {
		t.Errorf("WithDetails changed the code: %q", enriched.Code)
	}
}
