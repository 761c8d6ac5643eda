package repository

import (
	"context"
	"time"

	"github.com/emmanuel-Sabato/ThePlanetScholarService-sub001/internal/entity"
	"github.com/emmanuel-Sabato/ThePlanetScholarService-sub001/pkg/database"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ThreadRow is one conversation as seen by a participant.
type ThreadRow struct {
	CounterpartID uuid.UUID
	LastMessage   string
	LastMessageAt time.Time
	LastSenderID  uuid.UUID
	UnreadCount   int64
}

type MessageRepository interface {
	Create(ctx context.Context, message *entity.Message) error
	FindConversation(ctx context.Context, userA, userB uuid.UUID) ([]entity.Message, error)
	// MarkConversationRead flags every unread message from sender to reader as
	// read and returns how many rows changed.
	MarkConversationRead(ctx context.Context, readerID, senderID uuid.UUID) (int64, error)
	ListThreads(ctx context.Context, userID uuid.UUID) ([]ThreadRow, error)
	CountUnread(ctx context.Context, userID uuid.UUID) (int64, error)
	DeleteConversation(ctx context.Context, userA, userB uuid.UUID) (int64, error)
}

type messageRepository struct {
	db *gorm.DB
}

func NewMessageRepository(db *gorm.DB) MessageRepository {
	return &messageRepository{db: db}
}

func (r *messageRepository) Create(ctx context.Context, message *entity.Message) error {
	return database.TranslateError(r.db.WithContext(ctx).Create(message).Error)
}

func (r *messageRepository) FindConversation(ctx context.Context, userA, userB uuid.UUID) ([]entity.Message, error) {
	var messages []entity.Message
	err := r.db.WithContext(ctx).
		Where("(sender_id = ? AND receiver_id = ?) OR (sender_id = ? AND receiver_id = ?)", userA, userB, userB, userA).
		Order("created_at asc, id asc").
		Find(&messages).Error
	if err != nil {
		return nil, database.TranslateError(err)
	}
	return messages, nil
}

func (r *messageRepository) MarkConversationRead(ctx context.Context, readerID, senderID uuid.UUID) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&entity.Message{}).
		Where("receiver_id = ? AND sender_id = ? AND is_read = ?", readerID, senderID, false).
		Update("is_read", true)
	if res.Error != nil {
		return 0, database.TranslateError(res.Error)
	}
	return res.RowsAffected, nil
}

const threadsQuery = `
WITH thread AS (
	SELECT
		CASE WHEN sender_id = @user THEN receiver_id ELSE sender_id END AS counterpart_id,
		id, sender_id, receiver_id, content, is_read, created_at
	FROM messages
	WHERE sender_id = @user OR receiver_id = @user
), latest AS (
	SELECT DISTINCT ON (counterpart_id)
		counterpart_id, content, created_at, sender_id
	FROM thread
	ORDER BY counterpart_id, created_at DESC, id DESC
), unread AS (
	SELECT counterpart_id, COUNT(*) AS unread_count
	FROM thread
	WHERE receiver_id = @user AND is_read = false
	GROUP BY counterpart_id
)
SELECT
	l.counterpart_id,
	l.content AS last_message,
	l.created_at AS last_message_at,
	l.sender_id AS last_sender_id,
	COALESCE(u.unread_count, 0) AS unread_count
FROM latest l
LEFT JOIN unread u ON u.counterpart_id = l.counterpart_id
ORDER BY l.created_at DESC, l.counterpart_id ASC`

func (r *messageRepository) ListThreads(ctx context.Context, userID uuid.UUID) ([]ThreadRow, error) {
	var rows []ThreadRow
	err := r.db.WithContext(ctx).
		Raw(threadsQuery, map[string]interface{}{"user": userID}).
		Scan(&rows).Error
	if err != nil {
		return nil, database.TranslateError(err)
	}
	return rows, nil
}

func (r *messageRepository) CountUnread(ctx context.Context, userID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&entity.Message{}).
		Where("receiver_id = ? AND is_read = ?", userID, false).
		Count(&count).Error
	if err != nil {
		return 0, database.TranslateError(err)
	}
	return count, nil
}

func (r *messageRepository) DeleteConversation(ctx context.Context, userA, userB uuid.UUID) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("(sender_id = ? AND receiver_id = ?) OR (sender_id = ? AND receiver_id = ?)", userA, userB, userB, userA).
		Delete(&entity.Message{})
	if res.Error != nil {
		return 0, database.TranslateError(res.Error)
	}
	return res.RowsAffected, nil
}
