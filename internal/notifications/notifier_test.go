package notifications

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNotifier_NilRedisIsNoop(t *testing.T) {
	n := NewNotifier(nil)
	assert.NoError(t, n.PublishUser(context.Background(), 1, Event{Type: EventFollowed}))
	assert.NoError(t, n.PublishModeration(context.Background(), ModerationEvent{TargetType: "post"}))
	assert.NoError(t, n.StartModerationSubscriber(context.Background(), func(ModerationEvent) {}))

	var nilNotifier *Notifier
	assert.NoError(t, nilNotifier.PublishUser(context.Background(), 1, Event{}))
}

func TestUserChannel(t *testing.T) {
	t.Parallel()
	tests := []struct {
		userID   uint
		expected string
	}{
		{1, "notifications:user:1"},
		{100, "notifications:user:100"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, UserChannel(tt.userID))
	}
}

func newTestRedis(t *testing.T) *redis.Client {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return rdb
}

func TestNotifier_PublishUser(t *testing.T) {
	rdb := newTestRedis(t)
	ctx := context.Background()

	sub := rdb.Subscribe(ctx, UserChannel(7))
	defer func() { _ = sub.Close() }()
	_, err := sub.Receive(ctx)
	require.NoError(t, err)

	n := NewNotifier(rdb)
	require.NoError(t, n.PublishUser(ctx, 7, Event{Type: EventPostLiked, ActorUsername: "friendly_fan", Target: "abc"}))

	select {
	case msg := <-sub.Channel():
		var event Event
		require.NoError(t, json.Unmarshal([]byte(msg.Payload), &event))
		assert.Equal(t, EventPostLiked, event.Type)
		assert.Equal(t, "friendly_fan", event.ActorUsername)
		assert.False(t, event.CreatedAt.IsZero())
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for user event")
	}
}

func TestNotifier_ModerationSubscriber(t *testing.T) {
	rdb := newTestRedis(t)
	n := NewNotifier(rdb)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	received := make(chan ModerationEvent, 1)
	require.NoError(t, n.StartModerationSubscriber(ctx, func(event ModerationEvent) {
		received <- event
	}))

	require.NoError(t, n.PublishModeration(ctx, ModerationEvent{TargetType: "comment", Target: "xyz", ReportCount: 6}))

	select {
	case event := <-received:
		assert.Equal(t, "comment", event.TargetType)
		assert.Equal(t, int64(6), event.ReportCount)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for moderation event")
	}
}

type recordingPublisher struct {
	users      []uint
	moderation int
}

func (r *recordingPublisher) PublishUser(_ context.Context, userID uint, _ Event) error {
	r.users = append(r.users, userID)
	return nil
}

func (r *recordingPublisher) PublishModeration(context.Context, ModerationEvent) error {
	r.moderation++
	return nil
}

func TestGated(t *testing.T) {
	t.Parallel()
	next := &recordingPublisher{}
	p := Gated(next, func(userID uint) bool { return userID%2 == 0 })

	for id := uint(1); id <= 4; id++ {
		require.NoError(t, p.PublishUser(context.Background(), id, Event{Type: EventFollowed}))
	}
	require.NoError(t, p.PublishModeration(context.Background(), ModerationEvent{TargetType: "post"}))

	assert.Equal(t, []uint{2, 4}, next.users)
	assert.Equal(t, 1, next.moderation)
	assert.Same(t, next, Gated(next, nil))
}
