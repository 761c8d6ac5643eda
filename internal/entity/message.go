package entity

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Message is a directed edge between two users. A conversation is the set of
// messages between an unordered pair.
type Message struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	SenderID   uuid.UUID `gorm:"type:uuid;not null;index:idx_messages_pair,priority:1" json:"sender_id"`
	ReceiverID uuid.UUID `gorm:"type:uuid;not null;index:idx_messages_pair,priority:2;index:idx_messages_inbox,priority:1" json:"receiver_id"`
	Content    string    `gorm:"type:text;not null" json:"content"`
	IsRead     bool      `gorm:"not null;default:false;index:idx_messages_inbox,priority:2" json:"read"`
	ClientID   *string   `gorm:"size:64" json:"client_id,omitempty"`
	CreatedAt  time.Time `gorm:"autoCreateTime;index:idx_messages_pair,priority:3" json:"timestamp"`

	Sender   *User `gorm:"foreignKey:SenderID;constraint:OnDelete:CASCADE" json:"-"`
	Receiver *User `gorm:"foreignKey:ReceiverID;constraint:OnDelete:CASCADE" json:"-"`
}

// BeforeCreate stamps CreatedAt at the microsecond precision postgres
// stores, so the value returned on send matches later reads.
func (m *Message) BeforeCreate(tx *gorm.DB) (err error) {
	if m.ID == uuid.Nil {
		m.ID, err = uuid.NewV7()
	}
	if m.CreatedAt.IsZero() {
		m.CreatedAt = tx.NowFunc()
	}
	m.CreatedAt = m.CreatedAt.Truncate(time.Microsecond)
	return
}

// Counterpart returns the participant that is not userID.
func (m *Message) Counterpart(userID uuid.UUID) uuid.UUID {
	if m.SenderID == userID {
		return m.ReceiverID
	}
	return m.SenderID
}
