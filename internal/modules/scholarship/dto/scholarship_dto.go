package dto

import (
	"time"

	"github.com/emmanuel-Sabato/ThePlanetScholarService-sub001/internal/entity"
	commonDto "github.com/emmanuel-Sabato/ThePlanetScholarService-sub001/pkg/dto"
)

type CreateScholarshipRequest struct {
	Name        string     `json:"name" binding:"required,max=200"`
	University  string     `json:"university" binding:"required,max=200"`
	Degree      string     `json:"degree" binding:"required,max=100"`
	Country     string     `json:"country" binding:"max=100"`
	Description string     `json:"description"`
	Deadline    *time.Time `json:"deadline"`
}

type ScholarshipFilter struct {
	commonDto.PaginationQuery
	Search string `form:"search"`
}

type PaginatedScholarships struct {
	Data []entity.Scholarship     `json:"data"`
	Meta commonDto.PaginationMeta `json:"meta"`
}
