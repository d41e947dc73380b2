package email

import (
	"context"
	"log/slog"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/prasadguuduru/book-management-sub002/internal/external"
	"github.com/prasadguuduru/book-management-sub002/internal/types"
)

// errAddressFormat is the recorded failure reason for CC addresses rejected
// before the send. The processor keys permanence off this value.
const errAddressFormat = "invalid email address format"

// RecipientStatus tracks the outcome for one secondary (CC) address. It is
// owned by the Sender for the duration of a single send and handed to the
// caller in the SendOutcome.
type RecipientStatus struct {
	Address   string
	Succeeded bool
	Error     string
}

// SendOutcome reports one multi-recipient send: the primary outcome, the
// provider message id on success, and one status per tracked CC address.
type SendOutcome struct {
	PrimarySucceeded bool
	MessageID        string
	Recipients       []RecipientStatus
}

// Sender delivers one email to a primary recipient plus zero or more CC
// recipients, tracking per-recipient outcomes without letting secondary
// failures affect the primary delivery.
type Sender struct {
	provider external.EmailProvider
	from     types.SenderIdentity
	validate *validator.Validate
	logger   *slog.Logger
}

// NewSender creates a Sender delivering via the given provider.
func NewSender(provider external.EmailProvider, from types.SenderIdentity, logger *slog.Logger) *Sender {
	if logger == nil {
		logger = slog.Default()
	}
	return &Sender{
		provider: provider,
		from:     from,
		validate: validator.New(),
		logger:   logger,
	}
}

// validAddress reports whether addr is a syntactically valid email address.
func (s *Sender) validAddress(addr string) bool {
	return s.validate.Var(addr, "required,email") == nil
}

// SendWithRecipients validates the primary and CC addresses, then performs
// one provider send covering every deliverable address.
//
//   - An invalid primary address short-circuits: no send is attempted and an
//     ErrCodeValidationInvalidEmail error is returned.
//   - Invalid CC addresses are recorded as failed in the outcome but excluded
//     from the outbound send; they never block primary delivery.
//   - CC addresses equal to the primary (case-insensitively), and repeated CC
//     addresses, are silently dropped before sending.
//   - If the provider call fails, the primary outcome is false and every
//     tracked CC address is marked failed with the same underlying error.
//   - If the provider call succeeds, every valid CC address is marked
//     succeeded: the transport accepts all addressees atomically and offers
//     no per-address acknowledgment.
func (s *Sender) SendWithRecipients(ctx context.Context, primary string, cc []string, content RenderedEmail, referenceID string) (SendOutcome, error) {
	primary = strings.TrimSpace(primary)
	if !s.validAddress(primary) {
		return SendOutcome{}, types.NewAppError(types.ErrCodeValidationInvalidEmail,
			"invalid email address for primary recipient", nil)
	}

	outcome := SendOutcome{}
	var sendList []string
	sendIdx := make([]int, 0, len(cc)) // outcome index per sendList entry
	seen := map[string]bool{strings.ToLower(primary): true}

	for _, addr := range cc {
		addr = strings.TrimSpace(addr)
		if addr == "" {
			continue
		}
		if seen[strings.ToLower(addr)] {
			// Duplicate of the primary or an earlier CC; one mailbox gets
			// one copy.
			continue
		}
		seen[strings.ToLower(addr)] = true

		if !s.validAddress(addr) {
			outcome.Recipients = append(outcome.Recipients, RecipientStatus{
				Address: addr,
				Error:   errAddressFormat,
			})
			continue
		}

		outcome.Recipients = append(outcome.Recipients, RecipientStatus{Address: addr})
		sendList = append(sendList, addr)
		sendIdx = append(sendIdx, len(outcome.Recipients)-1)
	}

	msgID, err := s.provider.Send(ctx, types.SendInput{
		To:          primary,
		CC:          sendList,
		From:        s.from,
		Subject:     content.Subject,
		BodyHTML:    content.BodyHTML,
		BodyText:    content.BodyText,
		ReferenceID: referenceID,
	})
	if err != nil {
		for _, i := range sendIdx {
			outcome.Recipients[i].Error = err.Error()
		}
		s.logger.ErrorContext(ctx, "email send failed",
			"reference_id", referenceID,
			"cc_count", len(sendList),
			"error", err.Error(),
		)
		return outcome, err
	}

	outcome.PrimarySucceeded = true
	outcome.MessageID = msgID
	for _, i := range sendIdx {
		outcome.Recipients[i].Succeeded = true
	}

	s.logger.InfoContext(ctx, "email sent",
		"reference_id", referenceID,
		"message_id", msgID,
		"cc_delivered", len(sendList),
		"cc_rejected", len(outcome.Recipients)-len(sendList),
	)

	return outcome, nil
}
