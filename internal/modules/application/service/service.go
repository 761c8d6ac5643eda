package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/emmanuel-Sabato/ThePlanetScholarService-sub001/internal/entity"
	"github.com/emmanuel-Sabato/ThePlanetScholarService-sub001/internal/modules/application/dto"
	appRepo "github.com/emmanuel-Sabato/ThePlanetScholarService-sub001/internal/modules/application/repository"
	notifService "github.com/emmanuel-Sabato/ThePlanetScholarService-sub001/internal/modules/notification/service"
	scholarshipRepo "github.com/emmanuel-Sabato/ThePlanetScholarService-sub001/internal/modules/scholarship/repository"
	userRepo "github.com/emmanuel-Sabato/ThePlanetScholarService-sub001/internal/modules/user/repository"
	"github.com/emmanuel-Sabato/ThePlanetScholarService-sub001/pkg/apperror"
	"github.com/emmanuel-Sabato/ThePlanetScholarService-sub001/pkg/database"
	commonDto "github.com/emmanuel-Sabato/ThePlanetScholarService-sub001/pkg/dto"
	"github.com/emmanuel-Sabato/ThePlanetScholarService-sub001/pkg/metrics"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	errStudentStatusChange = fmt.Errorf("%w: status and re-apply permission are set by the scholarship office", apperror.ErrForbidden)
	errApplicationLocked   = fmt.Errorf("%w: application has been decided and re-apply is not granted", apperror.ErrForbidden)
	errNotOwner            = fmt.Errorf("%w: not your application", apperror.ErrForbidden)
	errAdminOnly           = fmt.Errorf("%w: admin access required", apperror.ErrForbidden)
)

type ApplicationService interface {
	CreateApplication(ctx context.Context, userID uuid.UUID, input dto.CreateApplicationInput) (*entity.Application, error)
	GetApplication(ctx context.Context, id uuid.UUID, caller commonDto.Caller) (*entity.Application, error)
	UpdateApplication(ctx context.Context, id uuid.UUID, caller commonDto.Caller, input dto.UpdateApplicationInput) (*entity.Application, error)
	ToggleReapply(ctx context.Context, id uuid.UUID, caller commonDto.Caller) (*dto.ToggleReapplyResponse, error)
	DeleteApplication(ctx context.Context, id uuid.UUID, caller commonDto.Caller) error
	ListByEmail(ctx context.Context, caller commonDto.Caller, email string) ([]entity.Application, error)
	ListApplications(ctx context.Context, caller commonDto.Caller, query dto.ListApplicationsQuery) (*dto.PaginatedApplications, error)
}

type applicationService struct {
	repo         appRepo.ApplicationRepository
	scholarships scholarshipRepo.ScholarshipRepository
	users        userRepo.UserRepository
	publisher    notifService.Publisher
	logger       *zap.Logger
}

func NewApplicationService(
	repo appRepo.ApplicationRepository,
	scholarships scholarshipRepo.ScholarshipRepository,
	users userRepo.UserRepository,
	publisher notifService.Publisher,
	logger *zap.Logger,
) ApplicationService {
	return &applicationService{
		repo:         repo,
		scholarships: scholarships,
		users:        users,
		publisher:    publisher,
		logger:       logger,
	}
}

func (s *applicationService) CreateApplication(ctx context.Context, userID uuid.UUID, input dto.CreateApplicationInput) (*entity.Application, error) {
	scholarship, err := s.scholarships.FindByID(ctx, input.ScholarshipID)
	if err != nil {
		return nil, fmt.Errorf("scholarship lookup: %w", err)
	}

	payload := input.Payload
	if payload == nil {
		payload = entity.Payload{}
	}

	existing, err := s.repo.FindLatestByUser(ctx, userID)
	switch {
	case errors.Is(err, apperror.ErrNotFound):
		return s.insert(ctx, userID, scholarship, payload)
	case err != nil:
		return nil, err
	case !existing.CanReapply:
		metrics.ApplicationsRejectedDuplicate.Inc()
		return nil, apperror.NewDuplicateApplication(existing.ID)
	}

	// Re-apply granted: the existing row is overwritten in place so the user
	// keeps exactly one application.
	draft := entity.StatusDraft
	app, err := s.repo.Update(ctx, existing.ID, appRepo.GuardReapply, appRepo.Changes{
		Status:         &draft,
		ReplacePayload: payload,
		Scholarship:    scholarship,
		ClearReapply:   true,
		Resubmit:       true,
	})
	if errors.Is(err, appRepo.ErrGuardFailed) {
		// another request consumed the grant first
		metrics.ApplicationsRejectedDuplicate.Inc()
		return nil, apperror.NewDuplicateApplication(existing.ID)
	}
	if err != nil {
		return nil, err
	}

	metrics.ApplicationsCreated.WithLabelValues("resubmitted").Inc()
	s.logger.Info("application resubmitted",
		zap.String("application_id", app.ID.String()),
		zap.String("user_id", userID.String()),
	)
	s.notifyOwner(ctx, app)
	return app, nil
}

func (s *applicationService) insert(ctx context.Context, userID uuid.UUID, scholarship *entity.Scholarship, payload entity.Payload) (*entity.Application, error) {
	app := &entity.Application{
		UserID:      userID,
		Status:      entity.StatusDraft,
		Payload:     payload,
		SubmittedAt: time.Now(),
	}
	app.SnapshotScholarship(scholarship)

	if err := s.repo.Create(ctx, app); err != nil {
		if errors.Is(err, database.ErrDuplicateKey) {
			// lost a concurrent double-submit; point the caller at the winner
			metrics.ApplicationsRejectedDuplicate.Inc()
			winner, findErr := s.repo.FindLatestByUser(ctx, userID)
			if findErr != nil {
				return nil, apperror.NewDuplicateApplication(uuid.Nil)
			}
			return nil, apperror.NewDuplicateApplication(winner.ID)
		}
		return nil, err
	}

	metrics.ApplicationsCreated.WithLabelValues("new").Inc()
	s.logger.Info("application created",
		zap.String("application_id", app.ID.String()),
		zap.String("user_id", userID.String()),
		zap.String("scholarship_id", scholarship.ID.String()),
	)
	s.notifyOwner(ctx, app)
	return app, nil
}

func (s *applicationService) GetApplication(ctx context.Context, id uuid.UUID, caller commonDto.Caller) (*entity.Application, error) {
	app, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !caller.IsAdmin() && app.UserID != caller.ID {
		return nil, errNotOwner
	}
	return app, nil
}

func (s *applicationService) UpdateApplication(ctx context.Context, id uuid.UUID, caller commonDto.Caller, input dto.UpdateApplicationInput) (*entity.Application, error) {
	app, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if caller.IsAdmin() {
		return s.adminUpdate(ctx, app, input)
	}
	if app.UserID != caller.ID {
		return nil, errNotOwner
	}
	if input.Status != nil || input.CanReapply != nil {
		return nil, errStudentStatusChange
	}

	var updated *entity.Application
	switch {
	case app.Status == entity.StatusDraft:
		if len(input.Payload) == 0 {
			return app, nil
		}
		updated, err = s.repo.Update(ctx, id, appRepo.GuardDraft, appRepo.Changes{MergePayload: input.Payload})
	case app.CanReapply:
		draft := entity.StatusDraft
		updated, err = s.repo.Update(ctx, id, appRepo.GuardReapply, appRepo.Changes{
			Status:       &draft,
			MergePayload: input.Payload,
			ClearReapply: true,
			Resubmit:     true,
		})
	default:
		return nil, errApplicationLocked
	}

	if errors.Is(err, appRepo.ErrGuardFailed) {
		// state moved between the read and the conditional write
		if _, findErr := s.repo.FindByID(ctx, id); errors.Is(findErr, apperror.ErrNotFound) {
			return nil, apperror.ErrNotFound
		}
		return nil, errApplicationLocked
	}
	if err != nil {
		return nil, err
	}

	s.notifyOwner(ctx, updated)
	return updated, nil
}

func (s *applicationService) adminUpdate(ctx context.Context, app *entity.Application, input dto.UpdateApplicationInput) (*entity.Application, error) {
	if input.CanReapply != nil {
		return nil, fmt.Errorf("%w: use toggle-reapply to change re-apply permission", apperror.ErrBadRequest)
	}

	changes := appRepo.Changes{MergePayload: input.Payload}
	if input.Status != nil {
		status := entity.NormalizeStatus(entity.ApplicationStatus(*input.Status))
		if !status.IsDecided() {
			return nil, fmt.Errorf("%w: status must be Approved or Rejected", apperror.ErrBadRequest)
		}
		changes.Status = &status
	}
	if changes.Status == nil && len(changes.MergePayload) == 0 {
		return nil, fmt.Errorf("%w: nothing to update", apperror.ErrBadRequest)
	}

	updated, err := s.repo.Update(ctx, app.ID, appRepo.GuardNone, changes)
	if errors.Is(err, appRepo.ErrGuardFailed) {
		return nil, apperror.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	if changes.Status != nil {
		s.logger.Info("application decided",
			zap.String("application_id", updated.ID.String()),
			zap.String("status", string(updated.Status)),
		)
	}
	s.notifyOwner(ctx, updated)
	return updated, nil
}

func (s *applicationService) ToggleReapply(ctx context.Context, id uuid.UUID, caller commonDto.Caller) (*dto.ToggleReapplyResponse, error) {
	if !caller.IsAdmin() {
		return nil, errAdminOnly
	}

	app, err := s.repo.ToggleReapply(ctx, id)
	if err != nil {
		return nil, err
	}

	metrics.ReapplyToggles.WithLabelValues(strconv.FormatBool(app.CanReapply)).Inc()
	s.notifyOwner(ctx, app)

	message := "Re-apply permission revoked"
	if app.CanReapply {
		message = "Re-apply permission granted"
	}
	return &dto.ToggleReapplyResponse{
		ID:         app.ID,
		CanReapply: app.CanReapply,
		Message:    message,
	}, nil
}

func (s *applicationService) DeleteApplication(ctx context.Context, id uuid.UUID, caller commonDto.Caller) error {
	if !caller.IsAdmin() {
		return errAdminOnly
	}

	app, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	s.logger.Info("application deleted", zap.String("application_id", id.String()))
	s.publisher.Publish(ctx, app.UserID, notifService.Event{
		Type: notifService.EventApplicationUpdated,
		Data: map[string]interface{}{"id": id, "deleted": true},
	})
	return nil
}

func (s *applicationService) ListByEmail(ctx context.Context, caller commonDto.Caller, email string) ([]entity.Application, error) {
	if email == "" {
		return nil, fmt.Errorf("%w: email is required", apperror.ErrBadRequest)
	}

	if !caller.IsAdmin() {
		user, err := s.users.FindByID(ctx, caller.ID)
		if err != nil {
			return nil, err
		}
		if user.Email != entity.NormalizeEmail(email) {
			return nil, fmt.Errorf("%w: you can only list your own applications", apperror.ErrForbidden)
		}
	}

	apps, err := s.repo.FindByOwnerEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if apps == nil {
		apps = []entity.Application{}
	}
	return apps, nil
}

func (s *applicationService) ListApplications(ctx context.Context, caller commonDto.Caller, query dto.ListApplicationsQuery) (*dto.PaginatedApplications, error) {
	if !caller.IsAdmin() {
		return nil, errAdminOnly
	}

	offset := query.Normalize()
	filter := appRepo.ListFilter{Offset: offset, Limit: query.Limit}
	if query.Status != "" {
		status := entity.NormalizeStatus(entity.ApplicationStatus(query.Status))
		switch status {
		case entity.StatusDraft, entity.StatusApproved, entity.StatusRejected:
			filter.Status = status
		default:
			return nil, fmt.Errorf("%w: unknown status %q", apperror.ErrBadRequest, query.Status)
		}
	}

	apps, total, err := s.repo.FindAll(ctx, filter)
	if err != nil {
		return nil, err
	}
	if apps == nil {
		apps = []entity.Application{}
	}

	return &dto.PaginatedApplications{
		Data: apps,
		Meta: commonDto.NewPaginationMeta(query.Page, query.Limit, total),
	}, nil
}

func (s *applicationService) notifyOwner(ctx context.Context, app *entity.Application) {
	s.publisher.Publish(ctx, app.UserID, notifService.Event{
		Type: notifService.EventApplicationUpdated,
		Data: map[string]interface{}{
			"id":          app.ID,
			"status":      app.Status,
			"can_reapply": app.CanReapply,
		},
	})
}
