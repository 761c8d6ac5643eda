package service

import (
	"context"
	"time"

	"github.com/emmanuel-Sabato/ThePlanetScholarService-sub001/internal/modules/notification/dto"
	notifRepo "github.com/emmanuel-Sabato/ThePlanetScholarService-sub001/internal/modules/notification/repository"
	"github.com/google/uuid"
)

type NotificationService interface {
	// Summary is the single payload a dashboard polls for its badges.
	Summary(ctx context.Context, userID uuid.UUID) (*dto.SummaryResponse, error)
	UnreadCount(ctx context.Context, userID uuid.UUID) (int64, error)
}

type notificationService struct {
	repo                 notifRepo.NotificationRepository
	conversationInterval time.Duration
	badgeInterval        time.Duration
	pushEnabled          bool
}

func NewNotificationService(repo notifRepo.NotificationRepository, conversationInterval, badgeInterval time.Duration, pushEnabled bool) NotificationService {
	return &notificationService{
		repo:                 repo,
		conversationInterval: conversationInterval,
		badgeInterval:        badgeInterval,
		pushEnabled:          pushEnabled,
	}
}

func (s *notificationService) Summary(ctx context.Context, userID uuid.UUID) (*dto.SummaryResponse, error) {
	unread, err := s.repo.CountUnread(ctx, userID)
	if err != nil {
		return nil, err
	}

	apps, err := s.repo.ApplicationStates(ctx, userID)
	if err != nil {
		return nil, err
	}
	if apps == nil {
		apps = []notifRepo.ApplicationState{}
	}

	return &dto.SummaryResponse{
		UnreadCount:  unread,
		Applications: apps,
		Poll: dto.PollIntervals{
			ConversationMS: s.conversationInterval.Milliseconds(),
			BadgeMS:        s.badgeInterval.Milliseconds(),
		},
		PushEnabled: s.pushEnabled,
	}, nil
}

func (s *notificationService) UnreadCount(ctx context.Context, userID uuid.UUID) (int64, error) {
	return s.repo.CountUnread(ctx, userID)
}
