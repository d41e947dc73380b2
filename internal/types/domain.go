// Package types defines the shared domain types and the application error
// model for the book-workflow notification service.
package types

// SenderIdentity defines the sender for outgoing emails.
type SenderIdentity struct {
	Name    string
	Address string
}

// SendInput defines the contract for email transmission. Content arrives
// pre-rendered; the provider performs no templating of its own.
type SendInput struct {
	// To is the primary recipient address.
	To string
	// CC lists secondary recipient addresses. The provider accepts all
	// addressees atomically: there is no per-address acknowledgment.
	CC []string

	From     SenderIdentity
	Subject  string
	BodyHTML string
	BodyText string

	// ReferenceID correlates the message with the originating event.
	ReferenceID string
}
