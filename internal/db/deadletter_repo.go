package db

import (
	"context"
	"time"

	"github.com/prasadguuduru/book-management-sub002/internal/notifications/core"
	"github.com/prasadguuduru/book-management-sub002/internal/types"
)

// DeadLetterRepository provides insert-only accounting for records the
// consumer abandoned. Rows exist for manual inspection and redrive tooling;
// the consumer itself never reads them back.
//
// Schema:
//
//	CREATE TABLE dead_letter_events (
//	    id            BIGSERIAL PRIMARY KEY,
//	    message_id    TEXT NOT NULL,
//	    event_id      TEXT,
//	    event_type    TEXT,
//	    reason        TEXT NOT NULL,
//	    receive_count INT NOT NULL,
//	    body          TEXT NOT NULL,
//	    source_arn    TEXT,
//	    abandoned_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
//	);
type DeadLetterRepository struct {
	db DBTX
}

// NewDeadLetterRepository creates a repository backed by the given database
// connection (pool or transaction).
func NewDeadLetterRepository(db DBTX) *DeadLetterRepository {
	return &DeadLetterRepository{db: db}
}

// RecordDeadLetter inserts one accounting row for an abandoned record.
func (r *DeadLetterRepository) RecordDeadLetter(ctx context.Context, rec core.DeadLetterRecord) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO dead_letter_events
		 (message_id, event_id, event_type, reason, receive_count, body, source_arn, abandoned_at)
		 VALUES ($1, NULLIF($2, ''), NULLIF($3, ''), $4, $5, $6, NULLIF($7, ''), $8)`,
		rec.MessageID,
		rec.EventID,
		rec.EventType,
		rec.Reason,
		rec.ReceiveCount,
		rec.Body,
		rec.SourceARN,
		rec.AbandonedAt,
	)
	if err != nil {
		return types.NewAppError(types.ErrCodeInternalDB, "failed to record dead-letter event", err)
	}
	return nil
}

// DeadLetterEntry is a row read back for inspection tooling.
type DeadLetterEntry struct {
	ID           int64
	MessageID    string
	EventID      string
	EventType    string
	Reason       string
	ReceiveCount int
	AbandonedAt  time.Time
}

// ListRecent returns the most recently abandoned records, newest first.
func (r *DeadLetterRepository) ListRecent(ctx context.Context, limit int) ([]DeadLetterEntry, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := r.db.Query(ctx,
		`SELECT id, message_id, COALESCE(event_id, ''), COALESCE(event_type, ''),
		        reason, receive_count, abandoned_at
		 FROM dead_letter_events
		 ORDER BY abandoned_at DESC
		 LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to list dead-letter events", err)
	}
	defer rows.Close()

	var entries []DeadLetterEntry
	for rows.Next() {
		var e DeadLetterEntry
		if err := rows.Scan(&e.ID, &e.MessageID, &e.EventID, &e.EventType,
			&e.Reason, &e.ReceiveCount, &e.AbandonedAt); err != nil {
			return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to scan dead-letter row", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to iterate dead-letter rows", err)
	}

	return entries, nil
}

// Compile-time assertion that DeadLetterRepository satisfies the consumer's
// store interface.
var _ core.DeadLetterStore = (*DeadLetterRepository)(nil)
