package events

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/prasadguuduru/book-management-sub002/internal/types"
)

// Envelope is the pub/sub transport's outer wrapper around a serialized
// Event. The queue delivers the topic notification verbatim, so the Message
// field carries the Event JSON as a string.
type Envelope struct {
	Type      string `json:"Type,omitempty"`
	MessageID string `json:"MessageId,omitempty"`
	TopicArn  string `json:"TopicArn,omitempty"`
	Message   string `json:"Message"`
	Timestamp string `json:"Timestamp,omitempty"`
}

// ValidationOutcome reports the result of structural event validation. An
// event is either fully usable or rejected; callers never act on a partially
// valid event.
type ValidationOutcome struct {
	Valid  bool
	Errors []string
}

// Validate checks the structural requirements for a decoded Event: required
// identity fields, required payload fields, and a parseable timestamp. Age is
// deliberately not checked here; stale events are accepted and flagged by the
// consumer.
func (e *Event) Validate() ValidationOutcome {
	var errs []string

	required := []struct {
		name  string
		value string
	}{
		{"eventId", e.EventID},
		{"eventType", string(e.EventType)},
		{"data.bookId", e.Data.BookID},
		{"data.title", e.Data.Title},
		{"data.author", e.Data.Author},
		{"data.newStatus", string(e.Data.NewStatus)},
		{"data.changedBy", e.Data.ChangedBy},
	}
	for _, f := range required {
		if strings.TrimSpace(f.value) == "" {
			errs = append(errs, fmt.Sprintf("missing required field %s", f.name))
		}
	}

	if _, err := e.ParsedTimestamp(); err != nil {
		errs = append(errs, fmt.Sprintf("timestamp %q is not a valid RFC3339 instant", e.Timestamp))
	}

	return ValidationOutcome{Valid: len(errs) == 0, Errors: errs}
}

// Decode unwraps a raw queue record body into a validated Event.
//
// Decoding is two-stage: the outer envelope is parsed and its Message field
// extracted, then the Message is parsed as an Event and structurally
// validated. Failures at either stage return a nil Event with an AppError
// carrying ErrCodeInvalidEnvelope or ErrCodeInvalidEvent respectively.
func Decode(raw []byte) (*Event, error) {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, types.NewAppError(types.ErrCodeInvalidEnvelope,
			"malformed transport envelope", err)
	}
	if env.Message == "" {
		return nil, types.NewAppError(types.ErrCodeInvalidEnvelope,
			"envelope has no Message field", nil)
	}

	var ev Event
	if err := json.Unmarshal([]byte(env.Message), &ev); err != nil {
		return nil, types.NewAppError(types.ErrCodeInvalidEvent,
			"envelope Message is not valid event JSON", err)
	}

	if outcome := ev.Validate(); !outcome.Valid {
		return nil, types.NewAppError(types.ErrCodeInvalidEvent,
			strings.Join(outcome.Errors, "; "), nil)
	}

	return &ev, nil
}

// Encode wraps an Event in the transport envelope, producing the byte shape
// the queue would deliver. It is the inverse of Decode and is used by local
// mode and tests.
func Encode(ev *Event) ([]byte, error) {
	body, err := json.Marshal(ev)
	if err != nil {
		return nil, fmt.Errorf("events: failed to marshal event: %w", err)
	}

	env := Envelope{
		Type:      "Notification",
		MessageID: ev.EventID,
		Message:   string(body),
		Timestamp: ev.Timestamp,
	}

	raw, err := json.Marshal(env)
	if err != nil {
		return nil, fmt.Errorf("events: failed to marshal envelope: %w", err)
	}

	return raw, nil
}
