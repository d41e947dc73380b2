package core

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	snsTypes "github.com/aws/aws-sdk-go-v2/service/sns/types"

	"github.com/prasadguuduru/book-management-sub002/internal/events"
	"github.com/prasadguuduru/book-management-sub002/internal/types"
)

// SNSPublisherAPI abstracts the SNS Publish operation for testability.
// Production code uses the *sns.Client from aws-sdk-go-v2.
type SNSPublisherAPI interface {
	Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

// PublishResult reports a successful publish: the transport-assigned message
// id and how many retries the attempt loop consumed (0 for first-try success).
type PublishResult struct {
	MessageID  string
	RetryCount int
}

// DefaultAttemptTimeout bounds each individual publish attempt.
const DefaultAttemptTimeout = 10 * time.Second

// EventPublisher drives repeated publish attempts against the pub/sub topic
// until success, a non-retryable classification, or attempt exhaustion.
//
// Each attempt runs under its own timeout; exceeding it classifies as
// TIMEOUT. The event's EventID is stable across all attempts of the same
// logical publish, so downstream consumers can deduplicate.
type EventPublisher struct {
	client         SNSPublisherAPI
	topicARN       string
	policy         RetryPolicy
	backoff        *BackoffScheduler
	attemptTimeout time.Duration
	metrics        DeliveryMetrics
	logger         *slog.Logger

	// sleep is swapped by tests to avoid real delays.
	sleep func(ctx context.Context, d time.Duration) error
}

// EventPublisherConfig holds the dependencies for an EventPublisher.
type EventPublisherConfig struct {
	Client   SNSPublisherAPI
	TopicARN string
	// Policy defaults to PublishRetryPolicy when zero-valued.
	Policy RetryPolicy
	// AttemptTimeout defaults to DefaultAttemptTimeout when zero.
	AttemptTimeout time.Duration
	Metrics        DeliveryMetrics
	Logger         *slog.Logger
}

// NewEventPublisher creates an EventPublisher with the given configuration.
func NewEventPublisher(cfg EventPublisherConfig) *EventPublisher {
	policy := cfg.Policy
	if policy.MaxAttempts == 0 {
		policy = PublishRetryPolicy
	}

	timeout := cfg.AttemptTimeout
	if timeout == 0 {
		timeout = DefaultAttemptTimeout
	}

	metrics := cfg.Metrics
	if metrics == nil {
		metrics = NoopMetrics{}
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &EventPublisher{
		client:         cfg.Client,
		topicARN:       cfg.TopicARN,
		policy:         policy,
		backoff:        NewBackoffScheduler(policy),
		attemptTimeout: timeout,
		metrics:        metrics,
		logger:         logger,
		sleep:          sleepContext,
	}
}

// Publish serializes the event and sends it to the topic, retrying transient
// failures with exponential backoff. On success the result carries the
// transport message id and the number of retries consumed. Non-retryable
// classifications abort immediately; exhaustion returns a terminal error
// wrapping the last underlying failure.
func (p *EventPublisher) Publish(ctx context.Context, ev *events.Event) (PublishResult, error) {
	body, err := json.Marshal(ev)
	if err != nil {
		return PublishResult{}, types.NewAppError(types.ErrCodeInternalUnexpected,
			"failed to marshal event", err)
	}

	input := &sns.PublishInput{
		TopicArn: aws.String(p.topicARN),
		Message:  aws.String(string(body)),
		MessageAttributes: map[string]snsTypes.MessageAttributeValue{
			"eventType": {
				DataType:    aws.String("String"),
				StringValue: aws.String(string(ev.EventType)),
			},
			"source": {
				DataType:    aws.String("String"),
				StringValue: aws.String(ev.Source),
			},
		},
	}

	var lastErr error
	for attempt := 1; attempt <= p.policy.MaxAttempts; attempt++ {
		attemptCtx, cancel := context.WithTimeout(ctx, p.attemptTimeout)
		out, err := p.client.Publish(attemptCtx, input)
		cancel()

		if err == nil {
			result := PublishResult{
				MessageID:  aws.ToString(out.MessageId),
				RetryCount: attempt - 1,
			}
			p.logger.InfoContext(ctx, "event published",
				"event_id", ev.EventID,
				"event_type", string(ev.EventType),
				"message_id", result.MessageID,
				"retry_count", result.RetryCount,
			)
			p.metrics.RecordPublishOutcome(ctx, MetricSuccess, result.RetryCount)
			return result, nil
		}

		lastErr = err
		category := types.Classify(err)

		p.logger.WarnContext(ctx, "publish attempt failed",
			"event_id", ev.EventID,
			"attempt", attempt,
			"max_attempts", p.policy.MaxAttempts,
			"category", string(category),
			"retryable", category.Retryable(),
			"error", err.Error(),
		)

		if !category.Retryable() {
			p.metrics.RecordPublishOutcome(ctx, MetricFailed, attempt-1)
			return PublishResult{}, fmt.Errorf("publish aborted on non-retryable %s error: %w", category, err)
		}

		if attempt < p.policy.MaxAttempts {
			delay := p.backoff.Delay(attempt)
			p.logger.InfoContext(ctx, "retrying publish",
				"event_id", ev.EventID,
				"next_attempt", attempt+1,
				"delay_ms", delay.Milliseconds(),
			)
			if err := p.sleep(ctx, delay); err != nil {
				p.metrics.RecordPublishOutcome(ctx, MetricFailed, attempt-1)
				return PublishResult{}, fmt.Errorf("publish cancelled during backoff: %w", err)
			}
		}
	}

	p.metrics.RecordPublishOutcome(ctx, MetricFailed, p.policy.MaxAttempts-1)
	return PublishResult{}, types.NewAppError(types.ErrCodePublishExhausted,
		fmt.Sprintf("publish failed after %d attempts", p.policy.MaxAttempts), lastErr)
}

// sleepContext waits for the duration but returns early with the context's
// error if it is cancelled first.
func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
