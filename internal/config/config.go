// Package config defines the configuration for the book-workflow event
// delivery service. Configuration is loaded once at process initialization
// (Lambda cold start) and is immutable thereafter, following 12-Factor
// principles. Any missing required value or invalid format fails startup
// immediately.
package config

import "time"

// Config is the top-level configuration struct. It is populated once during
// process initialization and never modified. Components receive only the
// subsets they require.
type Config struct {
	Environment string `envconfig:"APP_ENV" default:"dev" validate:"required,oneof=local dev staging prod"`
	Service     string `envconfig:"SERVICE_NAME" default:"book-notification-service"`
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info"`

	AWS      AWSConfig
	Email    EmailConfig
	Retry    RetryConfig
	Database DatabaseConfig
}

// AWSConfig holds AWS resource identifiers and regional configuration.
type AWSConfig struct {
	Region string `envconfig:"AWS_REGION" default:"us-east-1"`

	// BookEventsTopicARN is the pub/sub topic workflow events publish to.
	BookEventsTopicARN string `envconfig:"SNS_BOOK_EVENTS_TOPIC"`

	// DlqURL receives records the consumer abandons. Optional; abandoned
	// records are still logged and stored when unset.
	DlqURL string `envconfig:"SQS_DLQ"`

	// SESConfigSet is the SES configuration set name for delivery tracking.
	SESConfigSet string `envconfig:"SES_CONFIG_SET"`

	// EndpointURL points AWS clients at LocalStack. Empty in prod.
	EndpointURL string `envconfig:"AWS_ENDPOINT_URL"`
}

// EmailConfig holds notification addressing.
type EmailConfig struct {
	FromAddress string `envconfig:"EMAIL_FROM_ADDRESS" default:"notifications@bookworkflow.local"`
	FromName    string `envconfig:"EMAIL_FROM_NAME" default:"Book Workflow"`

	// NotifyAddress is the primary recipient for workflow notifications.
	NotifyAddress string `envconfig:"EMAIL_NOTIFY_ADDRESS" validate:"omitempty,email"`

	// CCAddresses are copied on every notification (comma-separated).
	CCAddresses []string `envconfig:"EMAIL_CC_ADDRESSES"`
}

// RetryConfig tunes the publisher retry loop and the consumer's redelivery
// ceiling.
type RetryConfig struct {
	MaxAttempts    int           `envconfig:"PUBLISH_MAX_ATTEMPTS" default:"3" validate:"min=1,max=10"`
	AttemptTimeout time.Duration `envconfig:"PUBLISH_ATTEMPT_TIMEOUT" default:"10s"`
	BaseDelay      time.Duration `envconfig:"RETRY_BASE_DELAY" default:"1s"`
	MaxDelay       time.Duration `envconfig:"RETRY_MAX_DELAY" default:"30s"`
	BackoffFactor  float64       `envconfig:"RETRY_BACKOFF_FACTOR" default:"2.0" validate:"min=1"`
	Jitter         bool          `envconfig:"RETRY_JITTER" default:"true"`

	// MaxReceiveCount is the consumer's own retry ceiling, independent of
	// the transport's redrive policy.
	MaxReceiveCount int `envconfig:"MAX_RECEIVE_COUNT" default:"3" validate:"min=1"`
}

// DatabaseConfig holds the optional dead-letter accounting database.
type DatabaseConfig struct {
	// URL enables the pgx-backed dead-letter store when set.
	URL string `envconfig:"DATABASE_URL" validate:"omitempty,url"`

	MaxConns int `envconfig:"DB_MAX_CONNS" default:"4"`
}

// IsLocal reports whether the service runs in local development mode.
func (c *Config) IsLocal() bool {
	return c.Environment == "local"
}
