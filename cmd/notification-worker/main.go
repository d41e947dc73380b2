// Package main is the entrypoint for the Notification Worker Lambda function.
//
// The Notification Worker consumes book workflow events from the notification
// SQS queue (subscribed to the book events SNS topic), decodes the SNS
// envelope, and delivers email notifications with per-recipient tracking. It
// implements the SQS Lambda handler pattern where each invocation receives a
// batch of SQS messages.
//
// Cold Start (main):
//  1. Initialize structured logger.
//  2. Load configuration from the environment.
//  3. Load AWS SDK configuration.
//  4. Initialize SQS client, CloudWatch client, email provider.
//  5. Initialize Renderer, Sender, and email Processor.
//  6. Initialize the optional pgx dead-letter store and the DLQ reporter.
//  7. Initialize BatchProcessor and metrics.
//  8. Register handler and call lambda.Start.
//
// Handler flow per batch:
//
//	For each SQS record:
//	  1. Decode the SNS envelope and the embedded event; validate.
//	  2. Flag stale events, then render and deliver the notification.
//	  3. On failure, decide retry vs abandon; abandoned records go to the
//	     DLQ reporter, retryable ones are returned in batchItemFailures.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"

	lambdaevents "github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/prasadguuduru/book-management-sub002/internal/config"
	"github.com/prasadguuduru/book-management-sub002/internal/db"
	"github.com/prasadguuduru/book-management-sub002/internal/external"
	"github.com/prasadguuduru/book-management-sub002/internal/notifications/core"
	emailpkg "github.com/prasadguuduru/book-management-sub002/internal/notifications/email"
	"github.com/prasadguuduru/book-management-sub002/internal/types"
)

// Handler holds the dependencies for the notification worker Lambda handler.
type Handler struct {
	batch  *core.BatchProcessor
	logger *slog.Logger
}

// Handle processes an SQS event containing one or more book workflow events.
// Each record is processed independently. Lambda SQS integration uses partial
// batch responses: only the records named in batchItemFailures are redelivered.
func (h *Handler) Handle(ctx context.Context, sqsEvent lambdaevents.SQSEvent) (lambdaevents.SQSEventResponse, error) {
	result := h.batch.ProcessBatch(ctx, sqsEvent.Records)

	response := lambdaevents.SQSEventResponse{}
	for _, id := range result.RetryIdentifiers {
		response.BatchItemFailures = append(response.BatchItemFailures,
			lambdaevents.SQSBatchItemFailure{ItemIdentifier: id},
		)
	}

	h.logger.InfoContext(ctx, "batch processed",
		"total", result.TotalRecords,
		"succeeded", result.Succeeded,
		"failed", result.Failed,
		"retrying", len(result.RetryIdentifiers),
	)

	return response, nil
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

	// Initialize structured logger at startup (Cold Start).
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel(cfg.LogLevel),
	})).With("service", cfg.Service)

	logger.Info("Notification Worker Lambda initializing (cold start)")

	ctx := context.Background()

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.AWS.Region))
	if err != nil {
		logger.Error("Failed to load AWS SDK config", "error", err)
		os.Exit(1)
	}

	sqsClient := sqs.NewFromConfig(awsCfg)
	cwClient := cloudwatch.NewFromConfig(awsCfg)

	// Email provider: SES in deployed environments, a logging stub locally.
	var provider external.EmailProvider
	if cfg.IsLocal() {
		logger.Warn("APP_ENV=local, using stub email provider")
		provider = external.NewStubEmailProvider(logger)
	} else {
		provider = external.NewSESClient(awsCfg, external.SESClientConfig{
			ConfigSetName: cfg.AWS.SESConfigSet,
			Logger:        logger,
		})
	}
	provider = external.NewBreakerEmailProvider(provider, "email-provider", logger)

	renderer, err := emailpkg.NewRenderer()
	if err != nil {
		logger.Error("Failed to initialize renderer", "error", err)
		os.Exit(1)
	}

	sender := emailpkg.NewSender(provider, types.SenderIdentity{
		Name:    cfg.Email.FromName,
		Address: cfg.Email.FromAddress,
	}, logger)

	processor := emailpkg.NewProcessor(emailpkg.ProcessorConfig{
		Renderer: renderer,
		Sender:   sender,
		Primary:  cfg.Email.NotifyAddress,
		CC:       cfg.Email.CCAddresses,
		Logger:   logger,
	})

	// Dead-letter accounting store is optional: a worker without a database
	// still forwards abandoned records to the DLQ and logs them.
	var store core.DeadLetterStore
	if cfg.Database.URL != "" {
		pool, err := pgxpool.New(ctx, cfg.Database.URL)
		if err != nil {
			logger.Error("Failed to create database pool", "error", err)
			os.Exit(1)
		}
		store = db.NewDeadLetterRepository(pool)
	}

	reporter := core.NewDeadLetterReporter(sqsClient, cfg.AWS.DlqURL, store, logger)

	var metrics core.DeliveryMetrics = core.NewCloudWatchDeliveryMetrics(cwClient, logger)
	if cfg.IsLocal() {
		metrics = core.NoopMetrics{}
	}

	batch := core.NewBatchProcessor(core.BatchProcessorConfig{
		Processor:   processor,
		DeadLetters: reporter,
		Metrics:     metrics,
		MaxRetries:  cfg.Retry.MaxReceiveCount,
		Logger:      logger,
	})

	handler := &Handler{batch: batch, logger: logger}

	logger.Info("Notification Worker Lambda initialized",
		"environment", cfg.Environment,
		"notify_address", cfg.Email.NotifyAddress,
		"cc_count", len(cfg.Email.CCAddresses),
		"dlq_configured", cfg.AWS.DlqURL != "",
		"dead_letter_store", store != nil,
	)

	// Local mode: read a JSON SQS event from stdin instead of starting the
	// Lambda runtime. This enables local integration testing without the
	// AWS Lambda RIE.
	// Usage: echo '{"Records":[{"messageId":"1","body":"{...}"}]}' | go run ./cmd/notification-worker
	if cfg.IsLocal() {
		logger.Info("APP_ENV=local: reading SQS event from stdin")
		payload, err := io.ReadAll(os.Stdin)
		if err != nil {
			logger.Error("Failed to read stdin", "error", err)
			os.Exit(1)
		}
		if len(payload) == 0 {
			logger.Error("No input received on stdin")
			os.Exit(1)
		}
		var sqsEvent lambdaevents.SQSEvent
		if err := json.Unmarshal(payload, &sqsEvent); err != nil {
			logger.Error("Failed to parse stdin as SQS event", "error", err)
			os.Exit(1)
		}
		response, err := handler.Handle(ctx, sqsEvent)
		if err != nil {
			logger.Error("Handler execution failed", "error", err)
			os.Exit(1)
		}
		if len(response.BatchItemFailures) > 0 {
			respJSON, _ := json.MarshalIndent(response, "", "  ")
			fmt.Fprintln(os.Stderr, string(respJSON))
		}
		logger.Info("Handler execution completed",
			"records_processed", len(sqsEvent.Records),
			"failures", len(response.BatchItemFailures),
		)
		return
	}

	lambda.Start(handler.Handle)
}
