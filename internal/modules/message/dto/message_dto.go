package dto

import (
	"time"

	commonDto "github.com/emmanuel-Sabato/ThePlanetScholarService-sub001/pkg/dto"
	"github.com/google/uuid"
)

type SendMessageInput struct {
	ReceiverID uuid.UUID `json:"receiver_id" binding:"required"`
	Content    string    `json:"content" binding:"max=5000"`
	// ClientID is the sender's correlation id, echoed back on the stored message.
	ClientID *string `json:"client_id" binding:"omitempty,max=64"`
}

type ConversationSummary struct {
	User          commonDto.UserSummary `json:"user"`
	LastMessage   string                `json:"last_message"`
	LastMessageAt time.Time             `json:"last_message_at"`
	LastSenderID  uuid.UUID             `json:"last_sender_id"`
	UnreadCount   int64                 `json:"unread_count"`
}

type UnreadCountResponse struct {
	Count int64 `json:"count"`
}
