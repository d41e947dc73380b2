// Package main is the entrypoint for the Event Publisher Lambda function.
//
// The Event Publisher receives a book status change (direct invocation from
// the workflow service), wraps it in a versioned event, and publishes it to
// the book events SNS topic with exponential-backoff retries. The returned
// result carries the SNS message id and the number of retries consumed so
// callers can surface delivery telemetry.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/aws/aws-lambda-go/lambda"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	"github.com/aws/aws-sdk-go-v2/service/sns"

	"github.com/prasadguuduru/book-management-sub002/internal/config"
	"github.com/prasadguuduru/book-management-sub002/internal/events"
	"github.com/prasadguuduru/book-management-sub002/internal/notifications/core"
)

// PublishRequest is the direct-invocation payload: the status change facts,
// with optional overrides for event identity when the caller replays a
// previously constructed event.
type PublishRequest struct {
	Data events.BookStatusChangeData `json:"data"`

	// EventID reuses an existing event id instead of minting one. Replays
	// keep their identity so downstream consumers can deduplicate.
	EventID string `json:"eventId,omitempty"`
}

// PublishResponse reports the outcome of one publish operation.
type PublishResponse struct {
	EventID    string `json:"eventId"`
	MessageID  string `json:"messageId"`
	RetryCount int    `json:"retryCount"`
}

// Handler holds the dependencies for the event publisher Lambda handler.
type Handler struct {
	publisher *core.EventPublisher
	logger    *slog.Logger
}

// Handle constructs the event from the request and publishes it.
func (h *Handler) Handle(ctx context.Context, req PublishRequest) (PublishResponse, error) {
	ev := events.NewBookStatusChangeEvent(req.Data)
	if req.EventID != "" {
		ev.EventID = req.EventID
	}

	if outcome := ev.Validate(); !outcome.Valid {
		h.logger.ErrorContext(ctx, "rejecting invalid event",
			"event_id", ev.EventID,
			"validation_errors", outcome.Errors,
		)
		return PublishResponse{}, fmt.Errorf("invalid event: %v", outcome.Errors)
	}

	result, err := h.publisher.Publish(ctx, ev)
	if err != nil {
		return PublishResponse{}, err
	}

	return PublishResponse{
		EventID:    ev.EventID,
		MessageID:  result.MessageID,
		RetryCount: result.RetryCount,
	}, nil
}

func logLevel(name string) slog.Level {
	switch name {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel(cfg.LogLevel),
	})).With("service", cfg.Service)

	logger.Info("Event Publisher Lambda initializing (cold start)")

	ctx := context.Background()

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.AWS.Region))
	if err != nil {
		logger.Error("Failed to load AWS SDK config", "error", err)
		os.Exit(1)
	}

	snsClient := sns.NewFromConfig(awsCfg)
	cwClient := cloudwatch.NewFromConfig(awsCfg)

	var metrics core.DeliveryMetrics = core.NewCloudWatchDeliveryMetrics(cwClient, logger)
	if cfg.IsLocal() {
		metrics = core.NoopMetrics{}
	}

	publisher := core.NewEventPublisher(core.EventPublisherConfig{
		Client:   snsClient,
		TopicARN: cfg.AWS.BookEventsTopicARN,
		Policy: core.RetryPolicy{
			MaxAttempts:   cfg.Retry.MaxAttempts,
			BaseDelay:     cfg.Retry.BaseDelay,
			MaxDelay:      cfg.Retry.MaxDelay,
			BackoffFactor: cfg.Retry.BackoffFactor,
			Jitter:        cfg.Retry.Jitter,
		},
		AttemptTimeout: cfg.Retry.AttemptTimeout,
		Metrics:        metrics,
		Logger:         logger,
	})

	handler := &Handler{publisher: publisher, logger: logger}

	logger.Info("Event Publisher Lambda initialized",
		"environment", cfg.Environment,
		"topic_arn", cfg.AWS.BookEventsTopicARN,
		"max_attempts", cfg.Retry.MaxAttempts,
	)

	// Local mode: read a PublishRequest from stdin and print the response.
	// Usage: echo '{"data":{"bookId":"b-1",...}}' | go run ./cmd/event-publisher
	if cfg.IsLocal() {
		logger.Info("APP_ENV=local: reading publish request from stdin")
		payload, err := io.ReadAll(os.Stdin)
		if err != nil {
			logger.Error("Failed to read stdin", "error", err)
			os.Exit(1)
		}
		var req PublishRequest
		if err := json.Unmarshal(payload, &req); err != nil {
			logger.Error("Failed to parse stdin as publish request", "error", err)
			os.Exit(1)
		}
		resp, err := handler.Handle(ctx, req)
		if err != nil {
			logger.Error("Publish failed", "error", err)
			os.Exit(1)
		}
		out, _ := json.MarshalIndent(resp, "", "  ")
		fmt.Println(string(out))
		return
	}

	lambda.Start(handler.Handle)
}
