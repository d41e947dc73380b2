package core

import (
	"context"
	"log/slog"
	"strconv"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	sqsTypes "github.com/aws/aws-sdk-go-v2/service/sqs/types"
)

// SQSSender abstracts the SQS SendMessage operation for testability.
// Production code uses the *sqs.Client from aws-sdk-go-v2.
type SQSSender interface {
	SendMessage(ctx context.Context, params *sqs.SendMessageInput, optFns ...func(*sqs.Options)) (*sqs.SendMessageOutput, error)
}

// DeadLetterStore persists abandoned records for later inspection.
type DeadLetterStore interface {
	RecordDeadLetter(ctx context.Context, rec DeadLetterRecord) error
}

// DeadLetterReporter implements DeadLetterSink by forwarding the original
// record body to a dedicated dead-letter queue and inserting an accounting
// row. Both targets are optional and both are fire-and-forget: failures are
// logged, never propagated.
type DeadLetterReporter struct {
	client SQSSender
	dlqURL string
	store  DeadLetterStore
	logger *slog.Logger
}

// NewDeadLetterReporter creates a reporter. client/dlqURL enable the queue
// forward; store enables the accounting insert. Either may be unset.
func NewDeadLetterReporter(client SQSSender, dlqURL string, store DeadLetterStore, logger *slog.Logger) *DeadLetterReporter {
	if logger == nil {
		logger = slog.Default()
	}
	return &DeadLetterReporter{
		client: client,
		dlqURL: dlqURL,
		store:  store,
		logger: logger,
	}
}

// Report forwards the abandoned record to the dead-letter queue and records
// it in the accounting store.
func (r *DeadLetterReporter) Report(ctx context.Context, rec DeadLetterRecord) {
	r.logger.ErrorContext(ctx, "record abandoned to dead-letter path",
		"message_id", rec.MessageID,
		"event_id", rec.EventID,
		"reason", rec.Reason,
		"receive_count", rec.ReceiveCount,
	)

	if r.client != nil && r.dlqURL != "" {
		input := &sqs.SendMessageInput{
			QueueUrl:    aws.String(r.dlqURL),
			MessageBody: aws.String(rec.Body),
			MessageAttributes: map[string]sqsTypes.MessageAttributeValue{
				"reason": {
					DataType:    aws.String("String"),
					StringValue: aws.String(rec.Reason),
				},
				"receiveCount": {
					DataType:    aws.String("Number"),
					StringValue: aws.String(strconv.Itoa(rec.ReceiveCount)),
				},
			},
		}
		if _, err := r.client.SendMessage(ctx, input); err != nil {
			r.logger.ErrorContext(ctx, "failed to forward record to dead-letter queue",
				"message_id", rec.MessageID,
				"error", err.Error(),
			)
		}
	}

	if r.store != nil {
		if err := r.store.RecordDeadLetter(ctx, rec); err != nil {
			r.logger.ErrorContext(ctx, "failed to record dead-letter entry",
				"message_id", rec.MessageID,
				"error", err.Error(),
			)
		}
	}
}

// Compile-time assertion that DeadLetterReporter implements DeadLetterSink.
var _ DeadLetterSink = (*DeadLetterReporter)(nil)
