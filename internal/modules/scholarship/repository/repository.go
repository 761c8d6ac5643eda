package repository

import (
	"context"

	"github.com/emmanuel-Sabato/ThePlanetScholarService-sub001/internal/entity"
	"github.com/emmanuel-Sabato/ThePlanetScholarService-sub001/pkg/apperror"
	"github.com/emmanuel-Sabato/ThePlanetScholarService-sub001/pkg/database"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ScholarshipRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Scholarship, error)
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]entity.Scholarship, error)
	FindAll(ctx context.Context, search string, offset, limit int) ([]entity.Scholarship, int64, error)
	Create(ctx context.Context, scholarship *entity.Scholarship) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type scholarshipRepository struct {
	db *gorm.DB
}

func NewScholarshipRepository(db *gorm.DB) ScholarshipRepository {
	return &scholarshipRepository{db: db}
}

func (r *scholarshipRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Scholarship, error) {
	var scholarship entity.Scholarship
	if err := r.db.WithContext(ctx).First(&scholarship, "id = ?", id).Error; err != nil {
		return nil, database.TranslateError(err)
	}
	return &scholarship, nil
}

func (r *scholarshipRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]entity.Scholarship, error) {
	if len(ids) == 0 {
		return []entity.Scholarship{}, nil
	}
	var scholarships []entity.Scholarship
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&scholarships).Error; err != nil {
		return nil, database.TranslateError(err)
	}
	return scholarships, nil
}

func (r *scholarshipRepository) FindAll(ctx context.Context, search string, offset, limit int) ([]entity.Scholarship, int64, error) {
	query := r.db.WithContext(ctx).Model(&entity.Scholarship{})
	if search != "" {
		like := "%" + search + "%"
		query = query.Where("name ILIKE ? OR university ILIKE ? OR country ILIKE ?", like, like, like)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, database.TranslateError(err)
	}

	var scholarships []entity.Scholarship
	err := query.Order("deadline asc nulls last, name asc").
		Offset(offset).
		Limit(limit).
		Find(&scholarships).Error
	if err != nil {
		return nil, 0, database.TranslateError(err)
	}
	return scholarships, total, nil
}

func (r *scholarshipRepository) Create(ctx context.Context, scholarship *entity.Scholarship) error {
	return database.TranslateError(r.db.WithContext(ctx).Create(scholarship).Error)
}

func (r *scholarshipRepository) Delete(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&entity.Scholarship{})
	if res.Error != nil {
		return database.TranslateError(res.Error)
	}
	if res.RowsAffected == 0 {
		return apperror.ErrNotFound
	}
	return nil
}
