package service

import (
	"context"
	"strings"

	"github.com/emmanuel-Sabato/ThePlanetScholarService-sub001/internal/entity"
	"github.com/emmanuel-Sabato/ThePlanetScholarService-sub001/internal/modules/scholarship/dto"
	"github.com/emmanuel-Sabato/ThePlanetScholarService-sub001/internal/modules/scholarship/repository"
	searchService "github.com/emmanuel-Sabato/ThePlanetScholarService-sub001/internal/modules/search/service"
	commonDto "github.com/emmanuel-Sabato/ThePlanetScholarService-sub001/pkg/dto"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type ScholarshipService interface {
	CreateScholarship(ctx context.Context, req dto.CreateScholarshipRequest) (*entity.Scholarship, error)
	GetScholarship(ctx context.Context, id uuid.UUID) (*entity.Scholarship, error)
	GetAllScholarships(ctx context.Context, filter dto.ScholarshipFilter) (*dto.PaginatedScholarships, error)
	DeleteScholarship(ctx context.Context, id uuid.UUID) error
}

type scholarshipService struct {
	repo   repository.ScholarshipRepository
	index  searchService.ScholarshipIndex
	logger *zap.Logger
}

// NewScholarshipService wires the catalog. index may be nil, in which case
// search falls back to a database match.
func NewScholarshipService(repo repository.ScholarshipRepository, index searchService.ScholarshipIndex, logger *zap.Logger) ScholarshipService {
	return &scholarshipService{repo: repo, index: index, logger: logger}
}

func (s *scholarshipService) CreateScholarship(ctx context.Context, req dto.CreateScholarshipRequest) (*entity.Scholarship, error) {
	scholarship := &entity.Scholarship{
		Name:        strings.TrimSpace(req.Name),
		University:  strings.TrimSpace(req.University),
		Degree:      strings.TrimSpace(req.Degree),
		Country:     strings.TrimSpace(req.Country),
		Description: req.Description,
		Deadline:    req.Deadline,
	}
	if err := s.repo.Create(ctx, scholarship); err != nil {
		return nil, err
	}

	if s.index != nil {
		if err := s.index.IndexScholarship(scholarship); err != nil {
			s.logger.Warn("failed to index scholarship", zap.String("scholarship_id", scholarship.ID.String()), zap.Error(err))
		}
	}
	return scholarship, nil
}

func (s *scholarshipService) GetScholarship(ctx context.Context, id uuid.UUID) (*entity.Scholarship, error) {
	return s.repo.FindByID(ctx, id)
}

func (s *scholarshipService) GetAllScholarships(ctx context.Context, filter dto.ScholarshipFilter) (*dto.PaginatedScholarships, error) {
	offset := filter.Normalize()
	search := strings.TrimSpace(filter.Search)

	if search != "" && s.index != nil {
		res, err := s.searchIndex(ctx, search, offset, filter.PaginationQuery)
		if err == nil {
			return res, nil
		}
		s.logger.Warn("search index unavailable, using database match", zap.Error(err))
	}

	scholarships, total, err := s.repo.FindAll(ctx, search, offset, filter.Limit)
	if err != nil {
		return nil, err
	}
	if scholarships == nil {
		scholarships = []entity.Scholarship{}
	}

	return &dto.PaginatedScholarships{
		Data: scholarships,
		Meta: commonDto.NewPaginationMeta(filter.Page, filter.Limit, total),
	}, nil
}

func (s *scholarshipService) searchIndex(ctx context.Context, search string, offset int, page commonDto.PaginationQuery) (*dto.PaginatedScholarships, error) {
	ids, total, err := s.index.Search(search, offset, page.Limit)
	if err != nil {
		return nil, err
	}

	found, err := s.repo.FindByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[uuid.UUID]entity.Scholarship, len(found))
	for _, sc := range found {
		byID[sc.ID] = sc
	}

	// keep relevance order; ids deleted since indexing are skipped
	ordered := make([]entity.Scholarship, 0, len(ids))
	for _, id := range ids {
		if sc, ok := byID[id]; ok {
			ordered = append(ordered, sc)
		}
	}

	return &dto.PaginatedScholarships{
		Data: ordered,
		Meta: commonDto.NewPaginationMeta(page.Page, page.Limit, total),
	}, nil
}

func (s *scholarshipService) DeleteScholarship(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	if s.index != nil {
		if err := s.index.DeleteScholarship(id); err != nil {
			s.logger.Warn("failed to remove scholarship from index", zap.String("scholarship_id", id.String()), zap.Error(err))
		}
	}
	return nil
}
