package service

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/emmanuel-Sabato/ThePlanetScholarService-sub001/internal/entity"
	notifRepo "github.com/emmanuel-Sabato/ThePlanetScholarService-sub001/internal/modules/notification/repository"
	"github.com/emmanuel-Sabato/ThePlanetScholarService-sub001/pkg/apperror"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeNotificationRepo struct {
	unread int64
	apps   []notifRepo.ApplicationState
	err    error
}

func (f *fakeNotificationRepo) CountUnread(ctx context.Context, userID uuid.UUID) (int64, error) {
	return f.unread, f.err
}

func (f *fakeNotificationRepo) ApplicationStates(ctx context.Context, userID uuid.UUID) ([]notifRepo.ApplicationState, error) {
	return f.apps, f.err
}

func setupRedis(t *testing.T) *redis.Client {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	return redis.NewClient(&redis.Options{Addr: mr.Addr()})
}

func TestSummary(t *testing.T) {
	appID := uuid.New()
	repo := &fakeNotificationRepo{
		unread: 3,
		apps:   []notifRepo.ApplicationState{{ID: appID, Status: entity.StatusApproved, CanReapply: true}},
	}
	svc := NewNotificationService(repo, 5*time.Second, 10*time.Second, true)

	got, err := svc.Summary(context.Background(), uuid.New())
	require.NoError(t, err)
	assert.Equal(t, int64(3), got.UnreadCount)
	require.Len(t, got.Applications, 1)
	assert.Equal(t, appID, got.Applications[0].ID)
	assert.Equal(t, int64(5000), got.Poll.ConversationMS)
	assert.Equal(t, int64(10000), got.Poll.BadgeMS)
	assert.True(t, got.PushEnabled)
}

func TestSummary_EmptyApplicationsIsNotNull(t *testing.T) {
	svc := NewNotificationService(&fakeNotificationRepo{}, time.Second, time.Second, false)

	got, err := svc.Summary(context.Background(), uuid.New())
	require.NoError(t, err)

	raw, err := json.Marshal(got)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"applications":[]`)
}

func TestSummary_StorageError(t *testing.T) {
	svc := NewNotificationService(&fakeNotificationRepo{err: apperror.ErrStorageUnavailable}, time.Second, time.Second, false)

	_, err := svc.Summary(context.Background(), uuid.New())
	assert.ErrorIs(t, err, apperror.ErrStorageUnavailable)
}

func TestPublisher_DeliversToUserChannel(t *testing.T) {
	rdb := setupRedis(t)
	ctx := context.Background()
	userID := uuid.New()

	sub := rdb.Subscribe(ctx, ChannelName(userID))
	defer sub.Close()
	_, err := sub.Receive(ctx)
	require.NoError(t, err)

	pub := NewPublisher(rdb, zap.NewNop())
	pub.Publish(ctx, userID, Event{Type: EventUnreadCount, Data: map[string]int64{"count": 2}})

	select {
	case msg := <-sub.Channel():
		var ev Event
		require.NoError(t, json.Unmarshal([]byte(msg.Payload), &ev))
		assert.Equal(t, EventUnreadCount, ev.Type)
		assert.False(t, ev.At.IsZero())
		assert.Equal(t, float64(2), ev.Data.(map[string]interface{})["count"])
	case <-time.After(2 * time.Second):
		t.Fatal("event not delivered")
	}
}

func TestPublisher_NilClientIsNoop(t *testing.T) {
	pub := NewPublisher(nil, zap.NewNop())
	assert.NotPanics(t, func() {
		pub.Publish(context.Background(), uuid.New(), Event{Type: EventMessageNew})
	})
}
