package email

import (
	"context"
	"log/slog"

	"github.com/prasadguuduru/book-management-sub002/internal/events"
)

// Processor is the single-event business handler for book status change
// events: it renders the notification email and delivers it to the
// configured primary recipient plus CC list.
//
// Processing the same EventID twice sends the same email twice; the
// downstream mailbox tolerates duplicates and the queue layer minimizes them
// by only redelivering failed records.
type Processor struct {
	renderer *Renderer
	sender   *Sender
	primary  string
	cc       []string
	logger   *slog.Logger
}

// ProcessorConfig holds the dependencies for a Processor.
type ProcessorConfig struct {
	Renderer *Renderer
	Sender   *Sender
	// Primary is the main notification recipient.
	Primary string
	// CC lists secondary recipients copied on every notification.
	CC     []string
	Logger *slog.Logger
}

// NewProcessor creates a Processor with the given configuration.
func NewProcessor(cfg ProcessorConfig) *Processor {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Processor{
		renderer: cfg.Renderer,
		sender:   cfg.Sender,
		primary:  cfg.Primary,
		cc:       cfg.CC,
		logger:   logger,
	}
}

// Process renders and delivers the notification for one event.
//
// Outcome mapping:
//   - render or provider failure → the underlying error (whole unit failed)
//   - primary delivered, all CC delivered → nil
//   - primary delivered, some CC failed → *CCDeliveryError, Permanent when
//     every failure is an address-format problem
func (p *Processor) Process(ctx context.Context, ev *events.Event) error {
	content, err := p.renderer.Render(ev)
	if err != nil {
		return err
	}

	outcome, err := p.sender.SendWithRecipients(ctx, p.primary, p.cc, content, ev.EventID)
	if err != nil {
		return err
	}

	var failed []RecipientStatus
	allFormat := true
	for _, rec := range outcome.Recipients {
		if rec.Succeeded {
			continue
		}
		failed = append(failed, rec)
		if rec.Error != errAddressFormat {
			allFormat = false
		}
	}

	if len(failed) == 0 {
		p.logger.InfoContext(ctx, "notification delivered",
			"event_id", ev.EventID,
			"book_id", ev.Data.BookID,
			"message_id", outcome.MessageID,
			"cc_count", len(outcome.Recipients),
		)
		return nil
	}

	ccErr := &CCDeliveryError{Permanent: allFormat, Failed: failed}
	p.logger.WarnContext(ctx, "notification delivered to primary with secondary failures",
		"event_id", ev.EventID,
		"message_id", outcome.MessageID,
		"failed_cc", len(failed),
		"permanent", ccErr.Permanent,
	)
	return ccErr
}
