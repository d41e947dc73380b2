package external

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/prasadguuduru/book-management-sub002/internal/types"
)

// StubEmailProvider implements EmailProvider by logging calls and returning
// predictable message ids. Used when APP_ENV=local so the worker can boot
// without SES credentials.
type StubEmailProvider struct {
	logger *slog.Logger
}

// NewStubEmailProvider creates a new StubEmailProvider.
func NewStubEmailProvider(logger *slog.Logger) *StubEmailProvider {
	if logger == nil {
		logger = slog.Default()
	}
	return &StubEmailProvider{logger: logger}
}

func (s *StubEmailProvider) Send(ctx context.Context, input types.SendInput) (string, error) {
	s.logger.InfoContext(ctx, "stub: Send called",
		"to", input.To,
		"cc_count", len(input.CC),
		"subject", input.Subject,
		"reference_id", input.ReferenceID,
	)
	return fmt.Sprintf("stub-%s", uuid.New().String()), nil
}

// Compile-time assertion that StubEmailProvider satisfies EmailProvider.
var _ EmailProvider = (*StubEmailProvider)(nil)
