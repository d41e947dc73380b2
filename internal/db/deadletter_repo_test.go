package db

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/prasadguuduru/book-management-sub002/internal/notifications/core"
	"github.com/prasadguuduru/book-management-sub002/internal/types"
)

// --- Mock DBTX ---

type mockDBTX struct {
	mock.Mock
}

func (m *mockDBTX) Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error) {
	args := m.Called(ctx, sql, arguments)
	return args.Get(0).(pgconn.CommandTag), args.Error(1)
}

func (m *mockDBTX) Query(ctx context.Context, sql string, arguments ...any) (pgx.Rows, error) {
	args := m.Called(ctx, sql, arguments)
	if r := args.Get(0); r != nil {
		return r.(pgx.Rows), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockDBTX) QueryRow(ctx context.Context, sql string, arguments ...any) pgx.Row {
	args := m.Called(ctx, sql, arguments)
	return args.Get(0).(pgx.Row)
}

// --- Mock Rows for Query ---

type mockRows struct {
	data   [][]any
	idx    int
	closed bool
	errVal error
}

func newMockRows(data [][]any) *mockRows {
	return &mockRows{data: data, idx: -1}
}

func (r *mockRows) Next() bool {
	if r.closed {
		return false
	}
	r.idx++
	return r.idx < len(r.data)
}

func (r *mockRows) Scan(dest ...any) error {
	row := r.data[r.idx]
	for i, d := range dest {
		switch v := d.(type) {
		case *int64:
			*v = row[i].(int64)
		case *string:
			*v = row[i].(string)
		case *int:
			*v = row[i].(int)
		case *time.Time:
			*v = row[i].(time.Time)
		}
	}
	return nil
}

func (r *mockRows) Close()                                       { r.closed = true }
func (r *mockRows) Err() error                                   { return r.errVal }
func (r *mockRows) CommandTag() pgconn.CommandTag                { return pgconn.CommandTag{} }
func (r *mockRows) FieldDescriptions() []pgconn.FieldDescription { return nil }
func (r *mockRows) RawValues() [][]byte                          { return nil }
func (r *mockRows) Values() ([]any, error)                       { return nil, nil }
func (r *mockRows) Conn() *pgx.Conn                              { return nil }

// --- DeadLetterRepository Tests ---

func sampleRecord() core.DeadLetterRecord {
	return core.DeadLetterRecord{
		MessageID:    "m-1",
		EventID:      "ev-1",
		EventType:    "book_status_changed",
		Reason:       "request timeout",
		ReceiveCount: 3,
		Body:         `{"Message":"{}"}`,
		SourceARN:    "arn:aws:sqs:us-east-1:123456789012:book-notifications",
		AbandonedAt:  time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestDeadLetterRepository_Record_Success(t *testing.T) {
	db := new(mockDBTX)
	repo := NewDeadLetterRepository(db)
	ctx := context.Background()

	db.On("Exec", ctx, mock.AnythingOfType("string"), mock.Anything).
		Return(pgconn.NewCommandTag("INSERT 0 1"), nil)

	err := repo.RecordDeadLetter(ctx, sampleRecord())
	require.NoError(t, err)
	db.AssertExpectations(t)
}

func TestDeadLetterRepository_Record_DBError(t *testing.T) {
	db := new(mockDBTX)
	repo := NewDeadLetterRepository(db)
	ctx := context.Background()

	db.On("Exec", ctx, mock.AnythingOfType("string"), mock.Anything).
		Return(pgconn.CommandTag{}, errors.New("connection refused"))

	err := repo.RecordDeadLetter(ctx, sampleRecord())
	require.Error(t, err)

	var appErr *types.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, types.ErrCodeInternalDB, appErr.Code)
}

func TestDeadLetterRepository_ListRecent(t *testing.T) {
	db := new(mockDBTX)
	repo := NewDeadLetterRepository(db)
	ctx := context.Background()

	abandoned := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	rows := newMockRows([][]any{
		{int64(2), "m-2", "ev-2", "book_status_changed", "request timeout", 3, abandoned},
		{int64(1), "m-1", "", "", "malformed transport envelope", 3, abandoned.Add(-time.Hour)},
	})

	db.On("Query", ctx, mock.AnythingOfType("string"), mock.Anything).
		Return(rows, nil)

	entries, err := repo.ListRecent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "m-2", entries[0].MessageID)
	assert.Equal(t, "ev-2", entries[0].EventID)
	assert.Equal(t, 3, entries[0].ReceiveCount)
	assert.Empty(t, entries[1].EventID, "decode failures have no event id")
}

func TestDeadLetterRepository_ListRecent_QueryError(t *testing.T) {
	db := new(mockDBTX)
	repo := NewDeadLetterRepository(db)
	ctx := context.Background()

	db.On("Query", ctx, mock.AnythingOfType("string"), mock.Anything).
		Return(nil, errors.New("relation does not exist"))

	_, err := repo.ListRecent(ctx, 10)
	require.Error(t, err)

	var appErr *types.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, types.ErrCodeInternalDB, appErr.Code)
}
