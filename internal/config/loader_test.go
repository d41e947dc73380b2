package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "dev", cfg.Environment)
	assert.Equal(t, "book-notification-service", cfg.Service)
	assert.Equal(t, 3, cfg.Retry.MaxAttempts)
	assert.Equal(t, 1*time.Second, cfg.Retry.BaseDelay)
	assert.Equal(t, 30*time.Second, cfg.Retry.MaxDelay)
	assert.Equal(t, 2.0, cfg.Retry.BackoffFactor)
	assert.True(t, cfg.Retry.Jitter)
	assert.Equal(t, 3, cfg.Retry.MaxReceiveCount)
	assert.Equal(t, 10*time.Second, cfg.Retry.AttemptTimeout)
	assert.False(t, cfg.IsLocal())
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("APP_ENV", "local")
	t.Setenv("SNS_BOOK_EVENTS_TOPIC", "arn:aws:sns:us-east-1:123456789012:book-events")
	t.Setenv("EMAIL_NOTIFY_ADDRESS", "team@example.com")
	t.Setenv("EMAIL_CC_ADDRESSES", "a@example.com,b@example.com")
	t.Setenv("PUBLISH_MAX_ATTEMPTS", "5")
	t.Setenv("RETRY_BASE_DELAY", "500ms")

	cfg, err := Load()
	require.NoError(t, err)

	assert.True(t, cfg.IsLocal())
	assert.Equal(t, "arn:aws:sns:us-east-1:123456789012:book-events", cfg.AWS.BookEventsTopicARN)
	assert.Equal(t, "team@example.com", cfg.Email.NotifyAddress)
	assert.Equal(t, []string{"a@example.com", "b@example.com"}, cfg.Email.CCAddresses)
	assert.Equal(t, 5, cfg.Retry.MaxAttempts)
	assert.Equal(t, 500*time.Millisecond, cfg.Retry.BaseDelay)
}

func TestLoad_InvalidEnvironment(t *testing.T) {
	t.Setenv("APP_ENV", "production") // not in the allowed set

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "validation failed")
}

func TestLoad_InvalidNotifyAddress(t *testing.T) {
	t.Setenv("EMAIL_NOTIFY_ADDRESS", "not-an-email")

	_, err := Load()
	require.Error(t, err)
}

func TestLoad_InvalidRetryBounds(t *testing.T) {
	t.Setenv("PUBLISH_MAX_ATTEMPTS", "0")

	_, err := Load()
	require.Error(t, err)
}

func TestLoad_UnparseableDuration(t *testing.T) {
	t.Setenv("PUBLISH_ATTEMPT_TIMEOUT", "soon")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to process environment")
}
