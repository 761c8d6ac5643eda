package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/emmanuel-Sabato/ThePlanetScholarService-sub001/internal/entity"
	"github.com/emmanuel-Sabato/ThePlanetScholarService-sub001/internal/modules/admin/dto"
	userRepo "github.com/emmanuel-Sabato/ThePlanetScholarService-sub001/internal/modules/user/repository"
	"github.com/emmanuel-Sabato/ThePlanetScholarService-sub001/pkg/apperror"
	"github.com/emmanuel-Sabato/ThePlanetScholarService-sub001/pkg/database"
	commonDto "github.com/emmanuel-Sabato/ThePlanetScholarService-sub001/pkg/dto"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

var errSelfChange = fmt.Errorf("%w: admins cannot change or delete their own account here", apperror.ErrBadRequest)

type AdminService interface {
	GetAllUsers(ctx context.Context, filter dto.UserFilter) (*dto.PaginatedUsers, error)
	CreateUser(ctx context.Context, input dto.CreateUserInput) (*entity.User, error)
	UpdateUserRole(ctx context.Context, actorID, userID uuid.UUID, input dto.UpdateRoleInput) (*entity.User, error)
	// DeleteUser removes the account with its applications, documents and
	// every message it sent or received.
	DeleteUser(ctx context.Context, actorID, userID uuid.UUID) error
}

type adminService struct {
	users  userRepo.UserRepository
	logger *zap.Logger
}

func NewAdminService(users userRepo.UserRepository, logger *zap.Logger) AdminService {
	return &adminService{users: users, logger: logger}
}

func (s *adminService) GetAllUsers(ctx context.Context, filter dto.UserFilter) (*dto.PaginatedUsers, error) {
	offset := filter.Normalize()
	users, total, err := s.users.FindAll(ctx, strings.TrimSpace(filter.Search), offset, filter.Limit)
	if err != nil {
		return nil, err
	}
	if users == nil {
		users = []entity.User{}
	}
	return &dto.PaginatedUsers{
		Data: users,
		Meta: commonDto.NewPaginationMeta(filter.Page, filter.Limit, total),
	}, nil
}

func (s *adminService) CreateUser(ctx context.Context, input dto.CreateUserInput) (*entity.User, error) {
	role, err := s.users.FindRoleByName(ctx, input.Role)
	if err != nil {
		return nil, fmt.Errorf("role %q: %w", input.Role, err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &entity.User{
		Name:         strings.TrimSpace(input.Name),
		Email:        input.Email,
		PasswordHash: string(hash),
		RoleID:       &role.ID,
		Role:         *role,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, database.ErrDuplicateKey) {
			return nil, apperror.New(http.StatusConflict, "email is already registered", nil)
		}
		return nil, err
	}

	s.logger.Info("user created by admin",
		zap.String("user_id", user.ID.String()),
		zap.String("role", role.Name),
	)
	user.PasswordHash = ""
	return user, nil
}

func (s *adminService) UpdateUserRole(ctx context.Context, actorID, userID uuid.UUID, input dto.UpdateRoleInput) (*entity.User, error) {
	if actorID == userID {
		return nil, errSelfChange
	}

	role, err := s.users.FindRoleByName(ctx, input.Role)
	if err != nil {
		return nil, fmt.Errorf("role %q: %w", input.Role, err)
	}
	if err := s.users.UpdateRole(ctx, userID, role.ID); err != nil {
		return nil, err
	}

	s.logger.Info("user role changed",
		zap.String("user_id", userID.String()),
		zap.String("role", role.Name),
		zap.String("by", actorID.String()),
	)
	return s.users.FindByID(ctx, userID)
}

func (s *adminService) DeleteUser(ctx context.Context, actorID, userID uuid.UUID) error {
	if actorID == userID {
		return errSelfChange
	}
	if err := s.users.Delete(ctx, userID); err != nil {
		return err
	}

	s.logger.Info("user deleted",
		zap.String("user_id", userID.String()),
		zap.String("by", actorID.String()),
	)
	return nil
}
