// Package core provides the shared delivery infrastructure for the
// book-workflow notification pipeline: the publisher retry loop, the batch
// consumer, backoff scheduling, the redelivery decision, and observability.
package core

import (
	"context"
	"time"

	"github.com/prasadguuduru/book-management-sub002/internal/events"
)

// EventProcessor is the single-event business handler the batch consumer
// dispatches to. Implementations must be idempotent per EventID: a retried
// record re-runs the whole unit of work.
type EventProcessor interface {
	Process(ctx context.Context, ev *events.Event) error
}

// RecordError captures the failure of one queue record.
type RecordError struct {
	MessageID string `json:"messageId"`
	Error     string `json:"error"`
}

// BatchResult aggregates the per-record outcomes of one consumed batch.
// RetryIdentifiers is the authoritative output surfaced to the transport:
// every listed id failed for a retryable reason below the retry ceiling and
// will be redelivered. Anything omitted is terminally resolved or abandoned.
type BatchResult struct {
	TotalRecords     int
	Succeeded        int
	Failed           int
	RecordErrors     []RecordError
	RetryIdentifiers []string
}

// DeadLetterRecord describes a record abandoned by the consumer, for
// dead-letter accounting and manual inspection.
type DeadLetterRecord struct {
	MessageID    string
	EventID      string
	EventType    string
	Reason       string
	ReceiveCount int
	Body         string
	SourceARN    string
	AbandonedAt  time.Time
}

// DeadLetterSink receives abandoned records. Implementations are
// fire-and-forget: a sink failure must never fail batch processing.
type DeadLetterSink interface {
	Report(ctx context.Context, rec DeadLetterRecord)
}

// MetricResult categorizes a terminal delivery outcome for metrics reporting.
type MetricResult string

const (
	MetricSuccess MetricResult = "success"
	MetricFailed  MetricResult = "failed"
)

// DeliveryMetrics abstracts the observability sink. Implementations are
// fire-and-forget: metric emission failures never fail the core operation.
type DeliveryMetrics interface {
	// RecordPublishOutcome is emitted once per terminal publish outcome.
	RecordPublishOutcome(ctx context.Context, result MetricResult, retries int)
	// RecordBatch is emitted once per processed batch with the aggregates.
	RecordBatch(ctx context.Context, res BatchResult)
	// RecordStaleEvent flags an event observed more than an hour after
	// creation. The event is still processed.
	RecordStaleEvent(ctx context.Context, age time.Duration)
}
