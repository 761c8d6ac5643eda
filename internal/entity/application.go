package entity

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ApplicationStatus string

const (
	StatusDraft    ApplicationStatus = "Draft"
	StatusApproved ApplicationStatus = "Approved"
	StatusRejected ApplicationStatus = "Rejected"

	// statusLegacyDraft is found in migrated rows and means Draft.
	statusLegacyDraft ApplicationStatus = "UNEnded"
)

// NormalizeStatus folds case and the legacy alias onto the three known states.
// Unknown values are returned unchanged so callers can reject them.
func NormalizeStatus(s ApplicationStatus) ApplicationStatus {
	trimmed := strings.TrimSpace(string(s))
	switch {
	case strings.EqualFold(trimmed, string(StatusDraft)), strings.EqualFold(trimmed, string(statusLegacyDraft)):
		return StatusDraft
	case strings.EqualFold(trimmed, string(StatusApproved)):
		return StatusApproved
	case strings.EqualFold(trimmed, string(StatusRejected)):
		return StatusRejected
	default:
		return ApplicationStatus(trimmed)
	}
}

// DraftStatuses lists the stored values that count as Draft.
func DraftStatuses() []ApplicationStatus {
	return []ApplicationStatus{StatusDraft, statusLegacyDraft}
}

func (s ApplicationStatus) IsDecided() bool {
	n := NormalizeStatus(s)
	return n == StatusApproved || n == StatusRejected
}

// Payload is the applicant's profile and document bundle. Its keys are opaque
// to the lifecycle rules.
type Payload map[string]interface{}

func (p Payload) Value() (driver.Value, error) {
	if p == nil {
		return "{}", nil
	}
	b, err := json.Marshal(p)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (p *Payload) Scan(value interface{}) error {
	var raw []byte
	switch v := value.(type) {
	case nil:
		*p = Payload{}
		return nil
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("payload: unsupported scan type %T", value)
	}
	if len(raw) == 0 {
		*p = Payload{}
		return nil
	}
	return json.Unmarshal(raw, p)
}

// Merge returns a copy of p with the top-level keys of patch written over it,
// the same result as jsonb concatenation in postgres.
func (p Payload) Merge(patch Payload) Payload {
	out := make(Payload, len(p)+len(patch))
	for k, v := range p {
		out[k] = v
	}
	for k, v := range patch {
		out[k] = v
	}
	return out
}

type Application struct {
	ID     uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_applications_user_id" json:"user_id"`
	User   *User     `gorm:"constraint:OnDelete:CASCADE" json:"user,omitempty"`

	ScholarshipID   uuid.UUID `gorm:"type:uuid;not null;index" json:"scholarship_id"`
	ScholarshipName string    `gorm:"size:200" json:"scholarship_name"`
	University      string    `gorm:"size:200" json:"university"`
	Degree          string    `gorm:"size:100" json:"degree"`

	Status     ApplicationStatus `gorm:"size:20;not null;default:Draft;index" json:"status"`
	Payload    Payload           `gorm:"type:jsonb;not null;default:'{}'" json:"payload"`
	CanReapply bool              `gorm:"not null;default:false" json:"can_reapply"`

	SubmittedAt time.Time `json:"submitted_at"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (a *Application) BeforeCreate(tx *gorm.DB) (err error) {
	if a.ID == uuid.Nil {
		a.ID, err = uuid.NewV7()
	}
	if a.Status == "" {
		a.Status = StatusDraft
	}
	if a.Payload == nil {
		a.Payload = Payload{}
	}
	return
}

func (a *Application) AfterFind(tx *gorm.DB) error {
	a.Status = NormalizeStatus(a.Status)
	return nil
}

// SnapshotScholarship copies the catalog fields that are frozen at submission.
func (a *Application) SnapshotScholarship(s *Scholarship) {
	a.ScholarshipID = s.ID
	a.ScholarshipName = s.Name
	a.University = s.University
	a.Degree = s.Degree
}
