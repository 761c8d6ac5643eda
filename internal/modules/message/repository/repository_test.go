package repository

import (
	"context"
	"database/sql/driver"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/emmanuel-Sabato/ThePlanetScholarService-sub001/internal/entity"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		SkipDefaultTransaction: true,
		TranslateError:         true,
		Logger:                 logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	return db, mock
}

// microsecondTime matches a time argument already at postgres precision.
type microsecondTime struct{}

func (microsecondTime) Match(v driver.Value) bool {
	ts, ok := v.(time.Time)
	return ok && ts.Equal(ts.Truncate(time.Microsecond))
}

func TestMessageRepository_Create_TimestampSurvivesStorage(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewMessageRepository(db)

	mock.ExpectExec(`INSERT INTO "messages"`).
		WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), microsecondTime{}).
		WillReturnResult(sqlmock.NewResult(0, 1))

	msg := &entity.Message{SenderID: uuid.New(), ReceiverID: uuid.New(), Content: "when is the deadline?"}
	require.NoError(t, repo.Create(context.Background(), msg))

	assert.NotEqual(t, uuid.Nil, msg.ID)
	assert.False(t, msg.CreatedAt.IsZero())
	assert.Equal(t, msg.CreatedAt.Truncate(time.Microsecond), msg.CreatedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMessageRepository_Create_TruncatesSuppliedTimestamp(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewMessageRepository(db)
	at := time.Date(2026, 3, 1, 10, 0, 0, 928002024, time.UTC)

	mock.ExpectExec(`INSERT INTO "messages"`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	msg := &entity.Message{SenderID: uuid.New(), ReceiverID: uuid.New(), Content: "hi", CreatedAt: at}
	require.NoError(t, repo.Create(context.Background(), msg))
	assert.Equal(t, time.Date(2026, 3, 1, 10, 0, 0, 928002000, time.UTC), msg.CreatedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMessageRepository_MarkConversationRead(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewMessageRepository(db)
	reader, sender := uuid.New(), uuid.New()

	mock.ExpectExec(regexp.QuoteMeta(`UPDATE "messages" SET "is_read"=$1 WHERE receiver_id = $2 AND sender_id = $3 AND is_read = $4`)).
		WithArgs(true, reader, sender, false).
		WillReturnResult(sqlmock.NewResult(0, 2))

	n, err := repo.MarkConversationRead(context.Background(), reader, sender)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMessageRepository_FindConversation_BothDirectionsAscending(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewMessageRepository(db)
	a, b := uuid.New(), uuid.New()
	t0 := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	mock.ExpectQuery(`(?s)SELECT \* FROM "messages" WHERE .*sender_id = \$1 AND receiver_id = \$2.*ORDER BY created_at asc, id asc`).
		WithArgs(a, b, b, a).
		WillReturnRows(sqlmock.NewRows([]string{"id", "sender_id", "receiver_id", "content", "is_read", "created_at"}).
			AddRow(uuid.NewString(), a.String(), b.String(), "hello", true, t0).
			AddRow(uuid.NewString(), b.String(), a.String(), "hi", false, t0.Add(time.Second)))

	msgs, err := repo.FindConversation(context.Background(), a, b)
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, "hello", msgs[0].Content)
	assert.Equal(t, b, msgs[1].SenderID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMessageRepository_ListThreads(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewMessageRepository(db)
	admin, student := uuid.New(), uuid.New()
	at := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	mock.ExpectQuery(`(?s)WITH thread AS .*DISTINCT ON \(counterpart_id\).*ORDER BY l.created_at DESC`).
		WillReturnRows(sqlmock.NewRows([]string{"counterpart_id", "last_message", "last_message_at", "last_sender_id", "unread_count"}).
			AddRow(student.String(), "see attached", at, student.String(), 2))

	rows, err := repo.ListThreads(context.Background(), admin)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, student, rows[0].CounterpartID)
	assert.Equal(t, int64(2), rows[0].UnreadCount)
	assert.True(t, at.Equal(rows[0].LastMessageAt))
	assert.NoError(t, mock.ExpectationsWereMet())
}
