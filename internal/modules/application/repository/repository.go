package repository

import (
	"context"
	"errors"
	"time"

	"github.com/emmanuel-Sabato/ThePlanetScholarService-sub001/internal/entity"
	"github.com/emmanuel-Sabato/ThePlanetScholarService-sub001/pkg/apperror"
	"github.com/emmanuel-Sabato/ThePlanetScholarService-sub001/pkg/database"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrGuardFailed means the conditional update matched no row: the
// application is gone or no longer in the state the guard requires.
var ErrGuardFailed = errors.New("application is not in the expected state")

// Guard is the precondition a conditional update checks in its WHERE clause.
type Guard int

const (
	GuardNone Guard = iota
	// GuardDraft requires status Draft (or its legacy alias).
	GuardDraft
	// GuardReapply requires can_reapply = true.
	GuardReapply
)

// Changes describes one conditional write. Zero fields are left untouched.
type Changes struct {
	Status         *entity.ApplicationStatus
	MergePayload   entity.Payload
	ReplacePayload entity.Payload
	Scholarship    *entity.Scholarship
	ClearReapply   bool
	Resubmit       bool
}

type ListFilter struct {
	Status entity.ApplicationStatus
	Offset int
	Limit  int
}

type ApplicationRepository interface {
	// Create returns database.ErrDuplicateKey when the user already owns an application.
	Create(ctx context.Context, app *entity.Application) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Application, error)
	FindLatestByUser(ctx context.Context, userID uuid.UUID) (*entity.Application, error)
	FindByOwnerEmail(ctx context.Context, email string) ([]entity.Application, error)
	FindAll(ctx context.Context, filter ListFilter) ([]entity.Application, int64, error)
	// Update applies changes in one statement guarded by guard and returns the
	// row as stored afterwards, or ErrGuardFailed.
	Update(ctx context.Context, id uuid.UUID, guard Guard, changes Changes) (*entity.Application, error)
	// ToggleReapply flips can_reapply in place and returns the updated row.
	ToggleReapply(ctx context.Context, id uuid.UUID) (*entity.Application, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type applicationRepository struct {
	db *gorm.DB
}

func NewApplicationRepository(db *gorm.DB) ApplicationRepository {
	return &applicationRepository{db: db}
}

func (r *applicationRepository) Create(ctx context.Context, app *entity.Application) error {
	return database.TranslateError(r.db.WithContext(ctx).Create(app).Error)
}

func (r *applicationRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Application, error) {
	var app entity.Application
	if err := r.db.WithContext(ctx).First(&app, "id = ?", id).Error; err != nil {
		return nil, database.TranslateError(err)
	}
	return &app, nil
}

func (r *applicationRepository) FindLatestByUser(ctx context.Context, userID uuid.UUID) (*entity.Application, error) {
	var app entity.Application
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at desc").
		First(&app).Error
	if err != nil {
		return nil, database.TranslateError(err)
	}
	return &app, nil
}

func (r *applicationRepository) FindByOwnerEmail(ctx context.Context, email string) ([]entity.Application, error) {
	var apps []entity.Application
	err := r.db.WithContext(ctx).
		Joins("JOIN users ON users.id = applications.user_id").
		Where("users.email = ?", entity.NormalizeEmail(email)).
		Order("applications.created_at desc").
		Find(&apps).Error
	if err != nil {
		return nil, database.TranslateError(err)
	}
	return apps, nil
}

func (r *applicationRepository) FindAll(ctx context.Context, filter ListFilter) ([]entity.Application, int64, error) {
	query := r.db.WithContext(ctx).Model(&entity.Application{})
	if filter.Status != "" {
		if filter.Status == entity.StatusDraft {
			query = query.Where("status IN ?", entity.DraftStatuses())
		} else {
			query = query.Where("status = ?", filter.Status)
		}
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, database.TranslateError(err)
	}

	var apps []entity.Application
	err := query.Preload("User").
		Order("updated_at desc").
		Offset(filter.Offset).
		Limit(filter.Limit).
		Find(&apps).Error
	if err != nil {
		return nil, 0, database.TranslateError(err)
	}
	return apps, total, nil
}

func (r *applicationRepository) Update(ctx context.Context, id uuid.UUID, guard Guard, changes Changes) (*entity.Application, error) {
	now := time.Now()
	updates := map[string]interface{}{"updated_at": now}

	if changes.Status != nil {
		updates["status"] = *changes.Status
	}
	if changes.ReplacePayload != nil {
		updates["payload"] = changes.ReplacePayload
	} else if len(changes.MergePayload) > 0 {
		updates["payload"] = gorm.Expr("payload || ?::jsonb", changes.MergePayload)
	}
	if s := changes.Scholarship; s != nil {
		updates["scholarship_id"] = s.ID
		updates["scholarship_name"] = s.Name
		updates["university"] = s.University
		updates["degree"] = s.Degree
	}
	if changes.ClearReapply {
		updates["can_reapply"] = false
	}
	if changes.Resubmit {
		updates["submitted_at"] = now
	}

	var app entity.Application
	query := r.db.WithContext(ctx).Model(&app).Clauses(clause.Returning{}).Where("id = ?", id)
	switch guard {
	case GuardDraft:
		query = query.Where("status IN ?", entity.DraftStatuses())
	case GuardReapply:
		query = query.Where("can_reapply = ?", true)
	}

	res := query.Updates(updates)
	if res.Error != nil {
		return nil, database.TranslateError(res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, ErrGuardFailed
	}

	app.Status = entity.NormalizeStatus(app.Status)
	return &app, nil
}

// ToggleReapply is a single UPDATE so two concurrent toggles serialise on the
// row lock and both flips are applied.
func (r *applicationRepository) ToggleReapply(ctx context.Context, id uuid.UUID) (*entity.Application, error) {
	var app entity.Application
	res := r.db.WithContext(ctx).
		Model(&app).
		Clauses(clause.Returning{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"can_reapply": gorm.Expr("NOT can_reapply"),
			"updated_at":  time.Now(),
		})
	if res.Error != nil {
		return nil, database.TranslateError(res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, apperror.ErrNotFound
	}

	app.Status = entity.NormalizeStatus(app.Status)
	return &app, nil
}

func (r *applicationRepository) Delete(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&entity.Application{})
	if res.Error != nil {
		return database.TranslateError(res.Error)
	}
	if res.RowsAffected == 0 {
		return apperror.ErrNotFound
	}
	return nil
}
