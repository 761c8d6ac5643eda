package repository

import (
	"context"

	"github.com/emmanuel-Sabato/ThePlanetScholarService-sub001/internal/entity"
	"github.com/emmanuel-Sabato/ThePlanetScholarService-sub001/pkg/apperror"
	"github.com/emmanuel-Sabato/ThePlanetScholarService-sub001/pkg/database"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type DocumentRepository interface {
	Create(ctx context.Context, document *entity.Document) error
	FindByID(ctx context.Context, id uint) (*entity.Document, error)
	FindByUser(ctx context.Context, userID uuid.UUID) ([]entity.Document, error)
	Delete(ctx context.Context, id uint) error
}

type documentRepository struct {
	db *gorm.DB
}

func NewDocumentRepository(db *gorm.DB) DocumentRepository {
	return &documentRepository{db: db}
}

func (r *documentRepository) Create(ctx context.Context, document *entity.Document) error {
	return database.TranslateError(r.db.WithContext(ctx).Create(document).Error)
}

func (r *documentRepository) FindByUser(ctx context.Context, userID uuid.UUID) ([]entity.Document, error) {
	var documents []entity.Document
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at desc").
		Find(&documents).Error
	if err != nil {
		return nil, database.TranslateError(err)
	}
	return documents, nil
}

func (r *documentRepository) FindByID(ctx context.Context, id uint) (*entity.Document, error) {
	var document entity.Document
	if err := r.db.WithContext(ctx).First(&document, id).Error; err != nil {
		return nil, database.TranslateError(err)
	}
	return &document, nil
}

func (r *documentRepository) Delete(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Delete(&entity.Document{}, id)
	if res.Error != nil {
		return database.TranslateError(res.Error)
	}
	if res.RowsAffected == 0 {
		return apperror.ErrNotFound
	}
	return nil
}
