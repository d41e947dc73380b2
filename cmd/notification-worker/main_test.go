package main

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"testing"

	lambdaevents "github.com/aws/aws-lambda-go/events"

	"github.com/prasadguuduru/book-management-sub002/internal/events"
	"github.com/prasadguuduru/book-management-sub002/internal/notifications/core"
)

type recordingProcessor struct {
	failWith map[string]error
}

func (p *recordingProcessor) Process(ctx context.Context, ev *events.Event) error {
	if err, ok := p.failWith[ev.EventID]; ok {
		return err
	}
	return nil
}

func record(t *testing.T, eventID, messageID string, receiveCount int) lambdaevents.SQSMessage {
	t.Helper()
	ev := events.NewBookStatusChangeEvent(events.BookStatusChangeData{
		BookID:    "book-1",
		Title:     "Title",
		Author:    "Author",
		NewStatus: events.StatusPublished,
		ChangedBy: "user-1",
	})
	ev.EventID = eventID

	body, err := events.Encode(ev)
	if err != nil {
		t.Fatal(err)
	}
	return lambdaevents.SQSMessage{
		MessageId: messageID,
		Body:      string(body),
		Attributes: map[string]string{
			"ApproximateReceiveCount": strconv.Itoa(receiveCount),
		},
	}
}

func TestHandle_PartialBatchResponse(t *testing.T) {
	proc := &recordingProcessor{failWith: map[string]error{
		"ev-2": errors.New("request timeout"),
	}}
	h := &Handler{
		batch: core.NewBatchProcessor(core.BatchProcessorConfig{
			Processor: proc,
		}),
		logger: slog.Default(),
	}

	resp, err := h.Handle(context.Background(), lambdaevents.SQSEvent{
		Records: []lambdaevents.SQSMessage{
			record(t, "ev-1", "m-1", 1),
			record(t, "ev-2", "m-2", 1),
			record(t, "ev-3", "m-3", 1),
		},
	})
	if err != nil {
		t.Fatalf("Handle failed: %v", err)
	}

	if len(resp.BatchItemFailures) != 1 {
		t.Fatalf("expected 1 batch item failure, got %d", len(resp.BatchItemFailures))
	}
	if resp.BatchItemFailures[0].ItemIdentifier != "m-2" {
		t.Errorf("failures should name the retryable record, got %q", resp.BatchItemFailures[0].ItemIdentifier)
	}
}

func TestHandle_AbandonedRecordNotInFailures(t *testing.T) {
	proc := &recordingProcessor{failWith: map[string]error{
		"ev-1": errors.New("request timeout"),
	}}
	h := &Handler{
		batch: core.NewBatchProcessor(core.BatchProcessorConfig{
			Processor:  proc,
			MaxRetries: 3,
		}),
		logger: slog.Default(),
	}

	// Third delivery of a failing record: abandoned, so the transport must
	// not redeliver it.
	resp, err := h.Handle(context.Background(), lambdaevents.SQSEvent{
		Records: []lambdaevents.SQSMessage{record(t, "ev-1", "m-1", 3)},
	})
	if err != nil {
		t.Fatalf("Handle failed: %v", err)
	}
	if len(resp.BatchItemFailures) != 0 {
		t.Errorf("abandoned record must be acked, got failures %v", resp.BatchItemFailures)
	}
}
