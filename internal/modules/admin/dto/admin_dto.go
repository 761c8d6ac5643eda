package dto

import (
	"github.com/emmanuel-Sabato/ThePlanetScholarService-sub001/internal/entity"
	commonDto "github.com/emmanuel-Sabato/ThePlanetScholarService-sub001/pkg/dto"
)

type CreateUserInput struct {
	Name     string `json:"name" binding:"required,max=150"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8,max=72"`
	Role     string `json:"role" binding:"required,oneof=customer manager admin"`
}

type UpdateRoleInput struct {
	Role string `json:"role" binding:"required,oneof=customer manager admin"`
}

type UserFilter struct {
	commonDto.PaginationQuery
	Search string `form:"search"`
}

type PaginatedUsers struct {
	Data []entity.User            `json:"data"`
	Meta commonDto.PaginationMeta `json:"meta"`
}
