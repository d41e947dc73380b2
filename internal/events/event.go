// Package events defines the book-workflow event model and the transport
// envelope codec used between the publisher and the notification workers.
package events

import (
	"time"

	"github.com/google/uuid"
)

// EventType identifies the kind of workflow fact an Event describes.
type EventType string

const (
	// EventBookStatusChanged is emitted whenever a book transitions between
	// workflow states.
	EventBookStatusChanged EventType = "book_status_changed"
)

// BookStatus enumerates the book workflow states.
type BookStatus string

const (
	StatusDraft     BookStatus = "DRAFT"
	StatusSubmitted BookStatus = "SUBMITTED_FOR_EDITING"
	StatusReady     BookStatus = "READY_FOR_PUBLICATION"
	StatusPublished BookStatus = "PUBLISHED"
)

// SchemaVersion is stamped on every event produced by this service.
const SchemaVersion = "1.0"

// DefaultSource identifies this service as the event origin.
const DefaultSource = "book-workflow-service"

// Event is an immutable fact about the book workflow. EventID is assigned
// once at creation and never reused: two observations of the same EventID are
// the same logical occurrence, and the ID stays stable across retries of the
// same publish.
type Event struct {
	EventID   string               `json:"eventId"`
	EventType EventType            `json:"eventType"`
	Timestamp string               `json:"timestamp"`
	Source    string               `json:"source"`
	Version   string               `json:"version"`
	Data      BookStatusChangeData `json:"data"`
}

// BookStatusChangeData is the payload of a book status transition event.
type BookStatusChangeData struct {
	BookID         string         `json:"bookId"`
	Title          string         `json:"title"`
	Author         string         `json:"author"`
	PreviousStatus BookStatus     `json:"previousStatus,omitempty"`
	NewStatus      BookStatus     `json:"newStatus"`
	ChangedBy      string         `json:"changedBy"`
	ChangeReason   string         `json:"changeReason,omitempty"`
	Metadata       map[string]any `json:"metadata,omitempty"`
}

// NewBookStatusChangeEvent creates a fully-populated Event for a status
// transition. The EventID is a fresh UUID and the timestamp is the current
// UTC instant in RFC3339 format.
func NewBookStatusChangeEvent(data BookStatusChangeData) *Event {
	return &Event{
		EventID:   uuid.New().String(),
		EventType: EventBookStatusChanged,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Source:    DefaultSource,
		Version:   SchemaVersion,
		Data:      data,
	}
}

// ParsedTimestamp returns the event timestamp as a time.Time. The zero time
// and an error are returned when the timestamp is not a valid RFC3339 instant.
func (e *Event) ParsedTimestamp() (time.Time, error) {
	return time.Parse(time.RFC3339, e.Timestamp)
}

// Age returns how long ago the event was created relative to now. Events with
// unparseable timestamps report zero age; Validate rejects those separately.
func (e *Event) Age(now time.Time) time.Duration {
	ts, err := e.ParsedTimestamp()
	if err != nil {
		return 0
	}
	return now.Sub(ts)
}

// StaleThreshold is the age beyond which an event is flagged for
// observability. Stale events are still processed.
const StaleThreshold = time.Hour

// IsStale reports whether the event is older than StaleThreshold.
func (e *Event) IsStale(now time.Time) bool {
	return e.Age(now) > StaleThreshold
}
