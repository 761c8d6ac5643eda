package entity

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Scholarship struct {
	ID          uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	Name        string     `gorm:"size:200;not null" json:"name"`
	University  string     `gorm:"size:200;not null" json:"university"`
	Degree      string     `gorm:"size:100;not null" json:"degree"`
	Country     string     `gorm:"size:100" json:"country"`
	Description string     `gorm:"type:text" json:"description"`
	Deadline    *time.Time `json:"deadline,omitempty"`
	CreatedAt   time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

func (s *Scholarship) BeforeCreate(tx *gorm.DB) (err error) {
	if s.ID == uuid.Nil {
		s.ID, err = uuid.NewV7()
	}
	return
}
