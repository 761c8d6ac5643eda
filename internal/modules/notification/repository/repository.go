package repository

import (
	"context"
	"time"

	"github.com/emmanuel-Sabato/ThePlanetScholarService-sub001/internal/entity"
	"github.com/emmanuel-Sabato/ThePlanetScholarService-sub001/pkg/database"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ApplicationState is the slice of an application a dashboard badge needs.
type ApplicationState struct {
	ID         uuid.UUID                `json:"id"`
	Status     entity.ApplicationStatus `json:"status"`
	CanReapply bool                     `json:"can_reapply"`
	UpdatedAt  time.Time                `json:"updated_at"`
}

// NotificationRepository is the read model behind the polling endpoints.
type NotificationRepository interface {
	CountUnread(ctx context.Context, userID uuid.UUID) (int64, error)
	ApplicationStates(ctx context.Context, userID uuid.UUID) ([]ApplicationState, error)
}

type notificationRepository struct {
	db *gorm.DB
}

func NewNotificationRepository(db *gorm.DB) NotificationRepository {
	return &notificationRepository{db: db}
}

func (r *notificationRepository) CountUnread(ctx context.Context, userID uuid.UUID) (int64, error) {
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

func (r *notificationRepository) ApplicationStates(ctx context.Context, userID uuid.UUID) ([]ApplicationState, error) {
	var states []ApplicationState
	err := r.db.WithContext(ctx).
		Model(&entity.Application{}).
		Select("id", "status", "can_reapply", "updated_at").
		Where("user_id = ?", userID).
		Order("updated_at desc").
		Scan(&states).Error
	if err != nil {
		return nil, database.TranslateError(err)
	}
	for i := range states {
		states[i].Status = entity.NormalizeStatus(states[i].Status)
	}
	return states, nil
}
