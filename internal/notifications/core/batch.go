package core

import (
	"context"
	"log/slog"
	"strconv"
	"time"

	lambdaevents "github.com/aws/aws-lambda-go/events"

	"github.com/prasadguuduru/book-management-sub002/internal/events"
)

// BatchProcessor converts a delivered queue batch into per-record outcomes.
// Records are processed sequentially and independently: one record's failure
// never aborts the rest of the batch, and each outcome is appended to the
// accumulator with no shared state across records.
type BatchProcessor struct {
	processor   EventProcessor
	deadLetters DeadLetterSink
	metrics     DeliveryMetrics
	maxRetries  int
	logger      *slog.Logger
	now         func() time.Time
}

// BatchProcessorConfig holds the dependencies for a BatchProcessor.
type BatchProcessorConfig struct {
	Processor EventProcessor
	// DeadLetters may be nil; abandoned records are then only logged.
	DeadLetters DeadLetterSink
	Metrics     DeliveryMetrics
	// MaxRetries defaults to MaxReceiveCount when zero.
	MaxRetries int
	Logger     *slog.Logger
}

// NewBatchProcessor creates a BatchProcessor with the given configuration.
func NewBatchProcessor(cfg BatchProcessorConfig) *BatchProcessor {
	maxRetries := cfg.MaxRetries
	if maxRetries == 0 {
		maxRetries = MaxReceiveCount
	}

	metrics := cfg.Metrics
	if metrics == nil {
		metrics = NoopMetrics{}
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &BatchProcessor{
		processor:   cfg.Processor,
		deadLetters: cfg.DeadLetters,
		metrics:     metrics,
		maxRetries:  maxRetries,
		logger:      logger,
		now:         time.Now,
	}
}

// ProcessBatch decodes and dispatches every record in the batch, aggregating
// per-record outcomes into a BatchResult. Decode failures are permanent and
// never retried; processing failures are routed through DecideRetry. Ids in
// the returned RetryIdentifiers are the only channel for requesting
// redelivery.
func (b *BatchProcessor) ProcessBatch(ctx context.Context, records []lambdaevents.SQSMessage) BatchResult {
	res := BatchResult{TotalRecords: len(records)}

	for _, rec := range records {
		b.processRecord(ctx, rec, &res)
	}

	b.metrics.RecordBatch(ctx, res)

	b.logger.InfoContext(ctx, "batch processed",
		"total", res.TotalRecords,
		"succeeded", res.Succeeded,
		"failed", res.Failed,
		"retrying", len(res.RetryIdentifiers),
	)

	return res
}

func (b *BatchProcessor) processRecord(ctx context.Context, rec lambdaevents.SQSMessage, res *BatchResult) {
	receiveCount := receiveCount(rec)

	ev, err := events.Decode([]byte(rec.Body))
	if err != nil {
		// Structural failures are permanent: the record is never handed to
		// the processor and never retried.
		res.Failed++
		res.RecordErrors = append(res.RecordErrors, RecordError{
			MessageID: rec.MessageId,
			Error:     err.Error(),
		})

		b.logger.ErrorContext(ctx, "record failed envelope decoding",
			"message_id", rec.MessageId,
			"receive_count", receiveCount,
			"error", err.Error(),
		)

		if receiveCount >= b.maxRetries {
			b.reportDeadLetter(ctx, rec, "", "", err.Error(), receiveCount)
		}
		return
	}

	if age := ev.Age(b.now()); ev.IsStale(b.now()) {
		b.logger.WarnContext(ctx, "processing stale event",
			"event_id", ev.EventID,
			"age", age.String(),
		)
		b.metrics.RecordStaleEvent(ctx, age)
	}

	perr := b.processor.Process(ctx, ev)
	if perr == nil {
		res.Succeeded++
		return
	}

	res.Failed++
	res.RecordErrors = append(res.RecordErrors, RecordError{
		MessageID: rec.MessageId,
		Error:     perr.Error(),
	})

	decision := DecideRetry(perr, receiveCount, b.maxRetries)

	logArgs := []any{
		"message_id", rec.MessageId,
		"event_id", ev.EventID,
		"receive_count", receiveCount,
		"rule", decision.Rule,
		"retry", decision.Retry,
		"error", perr.Error(),
	}
	if decision.Category != "" {
		logArgs = append(logArgs, "category", string(decision.Category))
	}
	b.logger.WarnContext(ctx, "record processing failed", logArgs...)

	if decision.Retry {
		res.RetryIdentifiers = append(res.RetryIdentifiers, rec.MessageId)
		return
	}

	if decision.Rule == RuleMaxRetries || receiveCount >= b.maxRetries {
		b.reportDeadLetter(ctx, rec, ev.EventID, string(ev.EventType), perr.Error(), receiveCount)
	}
}

func (b *BatchProcessor) reportDeadLetter(ctx context.Context, rec lambdaevents.SQSMessage, eventID, eventType, reason string, receiveCount int) {
	if b.deadLetters == nil {
		b.logger.ErrorContext(ctx, "record abandoned with no dead-letter sink configured",
			"message_id", rec.MessageId,
			"reason", reason,
		)
		return
	}

	b.deadLetters.Report(ctx, DeadLetterRecord{
		MessageID:    rec.MessageId,
		EventID:      eventID,
		EventType:    eventType,
		Reason:       reason,
		ReceiveCount: receiveCount,
		Body:         rec.Body,
		SourceARN:    rec.EventSourceARN,
		AbandonedAt:  b.now().UTC(),
	})
}

// receiveCount reads the transport's delivery attempt counter from the
// record attributes. The transport counts from 1; an absent or unparseable
// attribute is treated as the first delivery.
func receiveCount(rec lambdaevents.SQSMessage) int {
	raw, ok := rec.Attributes["ApproximateReceiveCount"]
	if !ok {
		return 1
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return 1
	}
	return n
}
