package dto

import (
	"github.com/emmanuel-Sabato/ThePlanetScholarService-sub001/internal/entity"
	commonDto "github.com/emmanuel-Sabato/ThePlanetScholarService-sub001/pkg/dto"
	"github.com/google/uuid"
)

type CreateApplicationInput struct {
	ScholarshipID uuid.UUID      `json:"scholarship_id" binding:"required"`
	Payload       entity.Payload `json:"payload"`
}

// UpdateApplicationInput is a patch. Pointer fields distinguish "absent" from
// a zero value so a student sending can_reapply:false is still refused.
type UpdateApplicationInput struct {
	Status     *string        `json:"status"`
	CanReapply *bool          `json:"can_reapply"`
	Payload    entity.Payload `json:"payload"`
}

type ToggleReapplyResponse struct {
	ID         uuid.UUID `json:"id"`
	CanReapply bool      `json:"can_reapply"`
	Message    string    `json:"message"`
}

type ListApplicationsQuery struct {
	commonDto.PaginationQuery
	Status string `form:"status"`
}

type PaginatedApplications struct {
	Data []entity.Application     `json:"data"`
	Meta commonDto.PaginationMeta `json:"meta"`
}
