package entity

import (
	"time"

	"github.com/google/uuid"
)

// Document is an uploaded file owned by a user. Applications reference it by
// URL inside their payload.
type Document struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;index" json:"user_id"`
	User      *User     `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	FileName  string    `gorm:"size:255" json:"file_name"`
	FileURL   string    `gorm:"type:text;not null" json:"file_url"`
	FileType  string    `gorm:"size:100" json:"file_type"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}
