package service

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/alicebob/miniredis/v2"
	"github.com/emmanuel-Sabato/ThePlanetScholarService-sub001/internal/entity"
	"github.com/emmanuel-Sabato/ThePlanetScholarService-sub001/internal/modules/message/dto"
	notifService "github.com/emmanuel-Sabato/ThePlanetScholarService-sub001/internal/modules/notification/service"
	"github.com/emmanuel-Sabato/ThePlanetScholarService-sub001/internal/testutil"
	"github.com/emmanuel-Sabato/ThePlanetScholarService-sub001/pkg/apperror"
	commonDto "github.com/emmanuel-Sabato/ThePlanetScholarService-sub001/pkg/dto"
	"github.com/emmanuel-Sabato/ThePlanetScholarService-sub001/pkg/ratelimiter"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events map[uuid.UUID][]string
}

func (p *recordingPublisher) Publish(ctx context.Context, userID uuid.UUID, event notifService.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.events == nil {
		p.events = make(map[uuid.UUID][]string)
	}
	p.events[userID] = append(p.events[userID], event.Type)
}

func (p *recordingPublisher) types(userID uuid.UUID) []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.events[userID]...)
}

type fixture struct {
	store   *testutil.Store
	svc     MessageService
	pub     *recordingPublisher
	admin   *entity.User
	student *entity.User
}

func newFixture(t *testing.T, limiter *ratelimiter.Limiter) *fixture {
	t.Helper()
	store := testutil.NewStore()
	pub := &recordingPublisher{}
	f := &fixture{
		store:   store,
		pub:     pub,
		admin:   store.AddUser("Scholarship Office", "admin@theplanetscholar.com", entity.RoleAdmin),
		student: store.AddUser("Amina", "amina@example.com", entity.RoleCustomer),
	}
	f.svc = NewMessageService(store.Messages(), store.Users(), pub, limiter, "admin@theplanetscholar.com", zap.NewNop())
	return f
}

func (f *fixture) send(t *testing.T, from, to *entity.User, content string) *entity.Message {
	t.Helper()
	msg, err := f.svc.SendMessage(context.Background(), from.ID, dto.SendMessageInput{ReceiverID: to.ID, Content: content})
	require.NoError(t, err)
	return msg
}

func adminCaller(u *entity.User) commonDto.Caller {
	return commonDto.Caller{ID: u.ID, Role: entity.RoleAdmin}
}

func TestSendMessage_RoundTrip(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	clientID := uuid.NewString()
	sent, err := f.svc.SendMessage(ctx, f.student.ID, dto.SendMessageInput{
		ReceiverID: f.admin.ID,
		Content:    "  hello  ",
		ClientID:   &clientID,
	})
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, sent.ID)
	assert.Equal(t, "hello", sent.Content)
	assert.False(t, sent.IsRead)
	require.NotNil(t, sent.ClientID)
	assert.Equal(t, clientID, *sent.ClientID)

	count, err := f.svc.GetTotalUnreadCount(ctx, f.admin.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	fromStudent, err := f.svc.GetConversation(ctx, f.student.ID, f.admin.ID)
	require.NoError(t, err)
	require.Len(t, fromStudent, 1)

	// the sender fetching does not acknowledge the receiver's copy
	count, err = f.svc.GetTotalUnreadCount(ctx, f.admin.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	fromAdmin, err := f.svc.GetConversation(ctx, f.admin.ID, f.student.ID)
	require.NoError(t, err)
	require.Len(t, fromAdmin, 1)
	assert.Equal(t, fromStudent[0].ID, fromAdmin[0].ID)
	assert.Equal(t, fromStudent[0].Content, fromAdmin[0].Content)
	assert.True(t, fromStudent[0].CreatedAt.Equal(fromAdmin[0].CreatedAt))
	assert.True(t, fromAdmin[0].IsRead)

	count, err = f.svc.GetTotalUnreadCount(ctx, f.admin.ID)
	require.NoError(t, err)
	assert.Zero(t, count)

	assert.Contains(t, f.pub.types(f.admin.ID), notifService.EventMessageNew)
	assert.Contains(t, f.pub.types(f.student.ID), notifService.EventMessageNew)
	assert.Contains(t, f.pub.types(f.student.ID), notifService.EventConversationRead)
}

func TestSendMessage_RejectsBlankContent(t *testing.T) {
	f := newFixture(t, nil)

	for _, content := range []string{"", "   ", "\n\t", "<b> </b>", "<script>alert(1)</script>"} {
		_, err := f.svc.SendMessage(context.Background(), f.student.ID, dto.SendMessageInput{ReceiverID: f.admin.ID, Content: content})
		assert.ErrorIs(t, err, apperror.ErrInvalidMessage, "content %q", content)
	}
	assert.Zero(t, f.store.MessageCount())
}

func TestSendMessage_StripsMarkup(t *testing.T) {
	f := newFixture(t, nil)

	msg := f.send(t, f.student, f.admin, `<a href="x">Transcript</a> attached & GPA < 4`)
	assert.Equal(t, "Transcript attached & GPA < 4", msg.Content)
}

func TestSendMessage_ParticipantRules(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	other := f.store.AddUser("Kofi", "kofi@example.com", entity.RoleCustomer)

	_, err := f.svc.SendMessage(ctx, f.student.ID, dto.SendMessageInput{ReceiverID: other.ID, Content: "hi"})
	assert.ErrorIs(t, err, apperror.ErrForbidden)

	_, err = f.svc.SendMessage(ctx, f.student.ID, dto.SendMessageInput{ReceiverID: uuid.New(), Content: "hi"})
	assert.ErrorIs(t, err, apperror.ErrNotFound)

	_, err = f.svc.SendMessage(ctx, f.admin.ID, dto.SendMessageInput{ReceiverID: f.admin.ID, Content: "hi"})
	assert.ErrorIs(t, err, apperror.ErrInvalidInput)

	assert.Zero(t, f.store.MessageCount())
}

func TestAdminMessageAcknowledgedByStudent(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	f.send(t, f.admin, f.student, "Please upload your transcript")

	count, err := f.svc.GetTotalUnreadCount(ctx, f.student.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	msgs, err := f.svc.GetConversation(ctx, f.student.ID, f.admin.ID)
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, "Please upload your transcript", msgs[0].Content)

	count, err = f.svc.GetTotalUnreadCount(ctx, f.student.ID)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestGetConversation_Idempotent(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	f.send(t, f.student, f.admin, "first")
	f.send(t, f.admin, f.student, "second")
	f.send(t, f.student, f.admin, "third")

	first, err := f.svc.GetConversation(ctx, f.admin.ID, f.student.ID)
	require.NoError(t, err)
	eventsAfterFirst := len(f.pub.types(f.student.ID))

	second, err := f.svc.GetConversation(ctx, f.admin.ID, f.student.ID)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	require.Len(t, second, 3)
	assert.Equal(t, []string{"first", "second", "third"}, []string{second[0].Content, second[1].Content, second[2].Content})
	// nothing new was marked, so nothing new was announced
	assert.Len(t, f.pub.types(f.student.ID), eventsAfterFirst)
}

func TestGetConversation_UnknownCounterpart(t *testing.T) {
	f := newFixture(t, nil)

	_, err := f.svc.GetConversation(context.Background(), f.admin.ID, uuid.New())
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

func TestListConversations(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	kofi := f.store.AddUser("Kofi", "kofi@example.com", entity.RoleCustomer)
	lena := f.store.AddUser("Lena", "lena@example.com", entity.RoleCustomer)

	f.send(t, f.student, f.admin, "older thread")
	f.send(t, lena, f.admin, strings.Repeat("é", 120))
	f.send(t, kofi, f.admin, "one")
	f.send(t, kofi, f.admin, "two")
	f.send(t, f.admin, lena, "reply to lena")

	summaries, err := f.svc.ListConversations(ctx, adminCaller(f.admin))
	require.NoError(t, err)
	require.Len(t, summaries, 3)

	assert.Equal(t, lena.ID.String(), summaries[0].User.ID)
	assert.Equal(t, "reply to lena", summaries[0].LastMessage)
	assert.Equal(t, f.admin.ID, summaries[0].LastSenderID)
	assert.Equal(t, int64(1), summaries[0].UnreadCount)

	assert.Equal(t, kofi.ID.String(), summaries[1].User.ID)
	assert.Equal(t, "two", summaries[1].LastMessage)
	assert.Equal(t, int64(2), summaries[1].UnreadCount)

	assert.Equal(t, f.student.ID.String(), summaries[2].User.ID)
	assert.Equal(t, entity.RoleCustomer, summaries[2].User.Role)

	for i := 1; i < len(summaries); i++ {
		assert.False(t, summaries[i].LastMessageAt.After(summaries[i-1].LastMessageAt))
	}

	_, err = f.svc.GetConversation(ctx, f.admin.ID, kofi.ID)
	require.NoError(t, err)
	summaries, err = f.svc.ListConversations(ctx, adminCaller(f.admin))
	require.NoError(t, err)
	assert.Zero(t, summaries[1].UnreadCount)

	_, err = f.svc.ListConversations(ctx, commonDto.Caller{ID: f.student.ID, Role: entity.RoleCustomer})
	assert.ErrorIs(t, err, apperror.ErrForbidden)
}

func TestPreview(t *testing.T) {
	assert.Equal(t, "short", preview("short"))

	long := preview(strings.Repeat("é", 120))
	assert.Equal(t, previewRunes+1, utf8.RuneCountInString(long))
	assert.True(t, strings.HasSuffix(long, "…"))
}

func TestDeleteConversation(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	f.send(t, f.student, f.admin, "hello")
	f.send(t, f.admin, f.student, "hi")

	require.NoError(t, f.svc.DeleteConversation(ctx, f.student.ID, f.admin.ID))
	assert.Zero(t, f.store.MessageCount())
	assert.Contains(t, f.pub.types(f.admin.ID), notifService.EventConversationDeleted)
	assert.Contains(t, f.pub.types(f.student.ID), notifService.EventConversationDeleted)

	err := f.svc.DeleteConversation(ctx, f.student.ID, f.admin.ID)
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

func TestSupportContact(t *testing.T) {
	f := newFixture(t, nil)

	contact, err := f.svc.SupportContact(context.Background())
	require.NoError(t, err)
	assert.Equal(t, f.admin.ID.String(), contact.ID)
	assert.Equal(t, entity.RoleAdmin, contact.Role)
}

func TestSendMessage_RateLimited(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	f := newFixture(t, ratelimiter.New(rdb, time.Minute))
	ctx := context.Background()

	f.send(t, f.student, f.admin, "first")
	_, err = f.svc.SendMessage(ctx, f.student.ID, dto.SendMessageInput{ReceiverID: f.admin.ID, Content: "second"})
	assert.ErrorIs(t, err, apperror.ErrRateLimitExceeded)
	assert.Equal(t, 1, f.store.MessageCount())

	// the cool-down is per sender
	f.send(t, f.admin, f.student, "reply")

	mr.FastForward(time.Minute + time.Second)
	f.send(t, f.student, f.admin, "third")
	assert.Equal(t, 3, f.store.MessageCount())
}

func TestSendMessage_RedisDownDoesNotBlock(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	mr.Close()

	f := newFixture(t, ratelimiter.New(rdb, time.Minute))
	f.send(t, f.student, f.admin, "still delivered")
	assert.Equal(t, 1, f.store.MessageCount())
}
