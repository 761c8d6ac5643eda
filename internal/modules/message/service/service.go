package service

import (
	"context"
	"errors"
	"fmt"
	"html"
	"sort"
	"strings"

	"github.com/emmanuel-Sabato/ThePlanetScholarService-sub001/internal/entity"
	"github.com/emmanuel-Sabato/ThePlanetScholarService-sub001/internal/modules/message/dto"
	msgRepo "github.com/emmanuel-Sabato/ThePlanetScholarService-sub001/internal/modules/message/repository"
	notifService "github.com/emmanuel-Sabato/ThePlanetScholarService-sub001/internal/modules/notification/service"
	userRepo "github.com/emmanuel-Sabato/ThePlanetScholarService-sub001/internal/modules/user/repository"
	"github.com/emmanuel-Sabato/ThePlanetScholarService-sub001/pkg/apperror"
	commonDto "github.com/emmanuel-Sabato/ThePlanetScholarService-sub001/pkg/dto"
	"github.com/emmanuel-Sabato/ThePlanetScholarService-sub001/pkg/metrics"
	"github.com/emmanuel-Sabato/ThePlanetScholarService-sub001/pkg/ratelimiter"
	"github.com/google/uuid"
	"github.com/microcosm-cc/bluemonday"
	"go.uber.org/zap"
)

const (
	previewRunes   = 80
	sendRateAction = "send_message"
)

var errAdminOnly = fmt.Errorf("%w: admin access required", apperror.ErrForbidden)

type MessageService interface {
	SendMessage(ctx context.Context, senderID uuid.UUID, input dto.SendMessageInput) (*entity.Message, error)
	GetConversation(ctx context.Context, callerID, otherID uuid.UUID) ([]entity.Message, error)
	ListConversations(ctx context.Context, caller commonDto.Caller) ([]dto.ConversationSummary, error)
	GetTotalUnreadCount(ctx context.Context, userID uuid.UUID) (int64, error)
	DeleteConversation(ctx context.Context, callerID, otherID uuid.UUID) error
	// SupportContact returns the admin account students write to.
	SupportContact(ctx context.Context) (*commonDto.UserSummary, error)
}

type messageService struct {
	repo       msgRepo.MessageRepository
	users      userRepo.UserRepository
	publisher  notifService.Publisher
	limiter    *ratelimiter.Limiter
	sanitizer  *bluemonday.Policy
	adminEmail string
	logger     *zap.Logger
}

func NewMessageService(
	repo msgRepo.MessageRepository,
	users userRepo.UserRepository,
	publisher notifService.Publisher,
	limiter *ratelimiter.Limiter,
	adminEmail string,
	logger *zap.Logger,
) MessageService {
	return &messageService{
		repo:       repo,
		users:      users,
		publisher:  publisher,
		limiter:    limiter,
		sanitizer:  bluemonday.StrictPolicy(),
		adminEmail: adminEmail,
		logger:     logger,
	}
}

// cleanContent strips markup, decodes the entities the policy leaves behind
// and trims surrounding whitespace.
func (s *messageService) cleanContent(raw string) string {
	return strings.TrimSpace(html.UnescapeString(s.sanitizer.Sanitize(raw)))
}

func (s *messageService) SendMessage(ctx context.Context, senderID uuid.UUID, input dto.SendMessageInput) (*entity.Message, error) {
	content := s.cleanContent(input.Content)
	if content == "" {
		return nil, apperror.ErrInvalidMessage
	}
	if input.ReceiverID == senderID {
		return nil, fmt.Errorf("%w: cannot message yourself", apperror.ErrInvalidInput)
	}

	sender, err := s.users.FindByID(ctx, senderID)
	if err != nil {
		return nil, fmt.Errorf("sender: %w", err)
	}
	receiver, err := s.users.FindByID(ctx, input.ReceiverID)
	if err != nil {
		return nil, fmt.Errorf("receiver: %w", err)
	}
	if !sender.IsAdmin() && !receiver.IsAdmin() {
		return nil, fmt.Errorf("%w: conversations must include the scholarship office", apperror.ErrForbidden)
	}

	if err := s.limiter.Acquire(ctx, senderID, sendRateAction); err != nil {
		if errors.Is(err, apperror.ErrRateLimitExceeded) {
			return nil, err
		}
		// redis trouble must not block messaging
		s.logger.Warn("rate limiter unavailable", zap.Error(err))
	}

	msg := &entity.Message{
		SenderID:   senderID,
		ReceiverID: receiver.ID,
		Content:    content,
		ClientID:   input.ClientID,
	}
	if err := s.repo.Create(ctx, msg); err != nil {
		if relErr := s.limiter.Release(ctx, senderID, sendRateAction); relErr != nil {
			s.logger.Warn("failed to release rate limit", zap.Error(relErr))
		}
		return nil, err
	}

	metrics.MessagesSent.Inc()
	s.logger.Debug("message sent",
		zap.String("message_id", msg.ID.String()),
		zap.String("sender_id", senderID.String()),
		zap.String("receiver_id", receiver.ID.String()),
	)

	event := notifService.Event{Type: notifService.EventMessageNew, Data: msg}
	s.publisher.Publish(ctx, receiver.ID, event)
	s.publisher.Publish(ctx, senderID, event)
	s.publishUnread(ctx, receiver.ID)

	return msg, nil
}

func (s *messageService) GetConversation(ctx context.Context, callerID, otherID uuid.UUID) ([]entity.Message, error) {
	if _, err := s.users.FindByID(ctx, otherID); err != nil {
		return nil, err
	}

	marked, err := s.markConversationRead(ctx, callerID, otherID)
	if err != nil {
		return nil, err
	}

	messages, err := s.repo.FindConversation(ctx, callerID, otherID)
	if err != nil {
		return nil, err
	}
	if messages == nil {
		messages = []entity.Message{}
	}

	if marked > 0 {
		s.publisher.Publish(ctx, otherID, notifService.Event{
			Type: notifService.EventConversationRead,
			Data: map[string]interface{}{"reader_id": callerID, "count": marked},
		})
		s.publishUnread(ctx, callerID)
	}
	return messages, nil
}

// markConversationRead acknowledges everything other has sent to reader.
// Opening a thread is the only way messages become read.
func (s *messageService) markConversationRead(ctx context.Context, readerID, otherID uuid.UUID) (int64, error) {
	n, err := s.repo.MarkConversationRead(ctx, readerID, otherID)
	if err != nil {
		return 0, fmt.Errorf("mark conversation read: %w", err)
	}
	return n, nil
}

func (s *messageService) ListConversations(ctx context.Context, caller commonDto.Caller) ([]dto.ConversationSummary, error) {
	if !caller.IsAdmin() {
		return nil, errAdminOnly
	}

	rows, err := s.repo.ListThreads(ctx, caller.ID)
	if err != nil {
		return nil, err
	}
	sort.Slice(rows, func(i, j int) bool {
		if !rows[i].LastMessageAt.Equal(rows[j].LastMessageAt) {
			return rows[i].LastMessageAt.After(rows[j].LastMessageAt)
		}
		return rows[i].CounterpartID.String() < rows[j].CounterpartID.String()
	})

	ids := make([]uuid.UUID, len(rows))
	for i, row := range rows {
		ids[i] = row.CounterpartID
	}
	users, err := s.users.FindByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[uuid.UUID]entity.User, len(users))
	for _, u := range users {
		byID[u.ID] = u
	}

	summaries := make([]dto.ConversationSummary, 0, len(rows))
	for _, row := range rows {
		u, ok := byID[row.CounterpartID]
		if !ok {
			continue
		}
		summaries = append(summaries, dto.ConversationSummary{
			User:          toUserSummary(&u),
			LastMessage:   preview(row.LastMessage),
			LastMessageAt: row.LastMessageAt,
			LastSenderID:  row.LastSenderID,
			UnreadCount:   row.UnreadCount,
		})
	}
	return summaries, nil
}

func (s *messageService) GetTotalUnreadCount(ctx context.Context, userID uuid.UUID) (int64, error) {
	return s.repo.CountUnread(ctx, userID)
}

func (s *messageService) DeleteConversation(ctx context.Context, callerID, otherID uuid.UUID) error {
	n, err := s.repo.DeleteConversation(ctx, callerID, otherID)
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("conversation: %w", apperror.ErrNotFound)
	}

	s.logger.Info("conversation deleted",
		zap.String("user_id", callerID.String()),
		zap.String("other_user_id", otherID.String()),
		zap.Int64("messages", n),
	)

	for _, id := range []uuid.UUID{callerID, otherID} {
		s.publisher.Publish(ctx, id, notifService.Event{
			Type: notifService.EventConversationDeleted,
			Data: map[string]interface{}{"user_a": callerID, "user_b": otherID},
		})
		s.publishUnread(ctx, id)
	}
	return nil
}

func (s *messageService) SupportContact(ctx context.Context) (*commonDto.UserSummary, error) {
	admin, err := s.users.FindByEmail(ctx, s.adminEmail)
	if err != nil {
		return nil, fmt.Errorf("support contact: %w", err)
	}
	summary := toUserSummary(admin)
	return &summary, nil
}

func (s *messageService) publishUnread(ctx context.Context, userID uuid.UUID) {
	count, err := s.repo.CountUnread(ctx, userID)
	if err != nil {
		s.logger.Warn("unread count for event failed", zap.String("user_id", userID.String()), zap.Error(err))
		return
	}
	s.publisher.Publish(ctx, userID, notifService.Event{
		Type: notifService.EventUnreadCount,
		Data: dto.UnreadCountResponse{Count: count},
	})
}

func preview(content string) string {
	runes := []rune(content)
	if len(runes) <= previewRunes {
		return content
	}
	return string(runes[:previewRunes]) + "…"
}

func toUserSummary(u *entity.User) commonDto.UserSummary {
	return commonDto.UserSummary{
		ID:    u.ID.String(),
		Name:  u.Name,
		Email: u.Email,
		Role:  u.Role.Name,
	}
}
