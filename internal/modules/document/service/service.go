package service

import (
	"context"
	"fmt"
	"mime/multipart"
	"path/filepath"
	"strings"

	"github.com/emmanuel-Sabato/ThePlanetScholarService-sub001/internal/entity"
	"github.com/emmanuel-Sabato/ThePlanetScholarService-sub001/internal/modules/document/dto"
	"github.com/emmanuel-Sabato/ThePlanetScholarService-sub001/internal/modules/document/repository"
	"github.com/emmanuel-Sabato/ThePlanetScholarService-sub001/pkg/apperror"
	"github.com/emmanuel-Sabato/ThePlanetScholarService-sub001/pkg/storage"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	MaxDocumentSize = 10 << 20
	documentFolder  = "documents"
)

var allowedExtensions = map[string]bool{
	".pdf":  true,
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".doc":  true,
	".docx": true,
}

type DocumentService interface {
	UploadDocument(ctx context.Context, userID uuid.UUID, file *multipart.FileHeader) (*dto.UploadDocumentResponse, error)
	ListDocuments(ctx context.Context, userID uuid.UUID) ([]dto.DocumentResponse, error)
	DeleteDocument(ctx context.Context, userID uuid.UUID, id uint) error
}

type documentService struct {
	repo        repository.DocumentRepository
	fileStorage storage.FileStorage
	logger      *zap.Logger
}

// NewDocumentService wires uploads. fileStorage may be nil when cloudinary is
// not configured; uploads then fail with ErrStorageUnavailable.
func NewDocumentService(repo repository.DocumentRepository, fileStorage storage.FileStorage, logger *zap.Logger) DocumentService {
	return &documentService{repo: repo, fileStorage: fileStorage, logger: logger}
}

func (s *documentService) UploadDocument(ctx context.Context, userID uuid.UUID, file *multipart.FileHeader) (*dto.UploadDocumentResponse, error) {
	if file.Size > MaxDocumentSize {
		return nil, fmt.Errorf("%w: file exceeds %d MB", apperror.ErrBadRequest, MaxDocumentSize>>20)
	}
	if !allowedExtensions[strings.ToLower(filepath.Ext(file.Filename))] {
		return nil, fmt.Errorf("%w: only pdf, doc, docx, jpg and png files are accepted", apperror.ErrBadRequest)
	}
	if s.fileStorage == nil {
		return nil, fmt.Errorf("%w: document storage is not configured", apperror.ErrStorageUnavailable)
	}

	f, err := file.Open()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperror.ErrBadRequest, err)
	}
	defer f.Close()

	url, err := s.fileStorage.UploadFile(ctx, f, documentFolder+"/"+userID.String(), file.Filename)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperror.ErrStorageUnavailable, err)
	}

	document := &entity.Document{
		UserID:   userID,
		FileName: file.Filename,
		FileURL:  url,
		FileType: file.Header.Get("Content-Type"),
	}
	if err := s.repo.Create(ctx, document); err != nil {
		if delErr := s.fileStorage.DeleteFile(ctx, url); delErr != nil {
			s.logger.Warn("failed to remove orphaned upload", zap.String("url", url), zap.Error(delErr))
		}
		return nil, err
	}

	s.logger.Info("document uploaded",
		zap.Uint("document_id", document.ID),
		zap.String("user_id", userID.String()),
	)
	return &dto.UploadDocumentResponse{
		ID:       document.ID,
		FileName: document.FileName,
		FileURL:  document.FileURL,
		FileType: document.FileType,
	}, nil
}

func (s *documentService) ListDocuments(ctx context.Context, userID uuid.UUID) ([]dto.DocumentResponse, error) {
	documents, err := s.repo.FindByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	out := make([]dto.DocumentResponse, 0, len(documents))
	for _, d := range documents {
		out = append(out, dto.DocumentResponse{
			ID:        d.ID,
			FileName:  d.FileName,
			FileURL:   d.FileURL,
			FileType:  d.FileType,
			CreatedAt: d.CreatedAt,
		})
	}
	return out, nil
}

func (s *documentService) DeleteDocument(ctx context.Context, userID uuid.UUID, id uint) error {
	document, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if document.UserID != userID {
		return fmt.Errorf("%w: not your document", apperror.ErrForbidden)
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	if s.fileStorage != nil {
		if err := s.fileStorage.DeleteFile(ctx, document.FileURL); err != nil {
			s.logger.Warn("failed to delete stored file", zap.String("url", document.FileURL), zap.Error(err))
		}
	}
	return nil
}
