// Package external provides the anti-corruption layer between the
// notification pipeline and third-party providers. Provider errors are
// mapped into domain AppErrors so downstream retry logic never inspects
// vendor-specific types.
package external

import (
	"context"

	"github.com/prasadguuduru/book-management-sub002/internal/types"
)

// EmailProvider abstracts the email delivery service (AWS SES).
// Implementations transmit pre-rendered content and return the provider's
// message id for correlation. All addressees in the input are accepted
// atomically: when Send succeeds, the provider has accepted the message for
// every recipient.
type EmailProvider interface {
	Send(ctx context.Context, input types.SendInput) (string, error)
}
