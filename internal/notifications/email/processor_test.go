package email

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prasadguuduru/book-management-sub002/internal/events"
)

func statusEvent(t *testing.T, status events.BookStatus) *events.Event {
	t.Helper()
	ev := events.NewBookStatusChangeEvent(events.BookStatusChangeData{
		BookID:         "book-1",
		Title:          "The Art of Computer Programming",
		Author:         "D. Knuth",
		PreviousStatus: events.StatusReady,
		NewStatus:      status,
		ChangedBy:      "publisher-2",
	})
	return ev
}

func newTestProcessor(t *testing.T, provider *mockProvider, cc []string) *Processor {
	t.Helper()
	renderer, err := NewRenderer()
	require.NoError(t, err)
	return NewProcessor(ProcessorConfig{
		Renderer: renderer,
		Sender:   testSender(provider),
		Primary:  "team@example.com",
		CC:       cc,
	})
}

func TestProcess_Success(t *testing.T) {
	provider := &mockProvider{msgID: "ses-1"}
	p := newTestProcessor(t, provider, []string{"cc@example.com"})

	err := p.Process(context.Background(), statusEvent(t, events.StatusPublished))

	require.NoError(t, err)
	require.Len(t, provider.inputs, 1)
	assert.Equal(t, "team@example.com", provider.inputs[0].To)
	assert.Contains(t, provider.inputs[0].Subject, "The Art of Computer Programming")
	assert.Contains(t, provider.inputs[0].BodyText, "D. Knuth")
}

func TestProcess_ProviderFailurePropagates(t *testing.T) {
	cause := errors.New("request timeout")
	provider := &mockProvider{err: cause}
	p := newTestProcessor(t, provider, nil)

	err := p.Process(context.Background(), statusEvent(t, events.StatusSubmitted))

	require.Error(t, err)
	assert.ErrorIs(t, err, cause)

	var ccErr *CCDeliveryError
	assert.False(t, errors.As(err, &ccErr), "whole-unit failure is not a CC error")
}

func TestProcess_PermanentCCFailure(t *testing.T) {
	provider := &mockProvider{msgID: "ses-1"}
	p := newTestProcessor(t, provider, []string{"not-an-email"})

	err := p.Process(context.Background(), statusEvent(t, events.StatusReady))

	var ccErr *CCDeliveryError
	require.ErrorAs(t, err, &ccErr)
	assert.True(t, ccErr.Permanent, "address-format failures are configuration problems")
	require.Len(t, ccErr.Failed, 1)
	assert.Equal(t, "not-an-email", ccErr.Failed[0].Address)

	// Primary delivery still happened.
	require.Len(t, provider.inputs, 1)
	assert.Empty(t, provider.inputs[0].CC)
}

func TestCCDeliveryError_Message(t *testing.T) {
	transient := &CCDeliveryError{
		Failed: []RecipientStatus{
			{Address: "not-an-email", Error: errAddressFormat},
			{Address: "cc@example.com", Error: "connection reset"},
		},
	}
	assert.Contains(t, transient.Error(), "transient")
	assert.Contains(t, transient.Error(), "not-an-email")
	assert.Contains(t, transient.Error(), "cc@example.com")

	permanent := &CCDeliveryError{
		Permanent: true,
		Failed:    []RecipientStatus{{Address: "not-an-email", Error: errAddressFormat}},
	}
	assert.Contains(t, permanent.Error(), "permanent")
}

func TestProcess_StaleEventStillDelivered(t *testing.T) {
	provider := &mockProvider{msgID: "ses-1"}
	p := newTestProcessor(t, provider, nil)

	ev := statusEvent(t, events.StatusPublished)
	ev.Timestamp = time.Now().UTC().Add(-3 * time.Hour).Format(time.RFC3339)

	require.NoError(t, p.Process(context.Background(), ev))
	assert.Len(t, provider.inputs, 1)
}
