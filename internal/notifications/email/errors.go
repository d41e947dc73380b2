// Package email implements the book-status email channel: rendering,
// multi-recipient delivery tracking, and the single-event processor the
// batch consumer dispatches to.
package email

import (
	"fmt"
	"strings"
)

// CCDeliveryError signals that the primary delivery succeeded but one or
// more secondary (CC) recipients failed. Permanent is true when every CC
// failure is a configuration problem (malformed address) that retrying
// cannot fix.
//
// A retry of a CCDeliveryError re-runs the whole unit of work, so the
// primary recipient may receive a duplicate email. The business layer owns
// idempotency per EventID; this package only surfaces the distinction.
type CCDeliveryError struct {
	Permanent bool
	Failed    []RecipientStatus
}

func (e *CCDeliveryError) Error() string {
	addrs := make([]string, 0, len(e.Failed))
	for _, r := range e.Failed {
		addrs = append(addrs, r.Address)
	}
	kind := "transient"
	if e.Permanent {
		kind = "permanent"
	}
	return fmt.Sprintf("secondary recipient delivery failed (%s): %s", kind, strings.Join(addrs, ", "))
}
