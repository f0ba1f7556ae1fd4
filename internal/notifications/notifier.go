// Package notifications publishes activity and moderation events to Redis.
package notifications

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"runtime/debug"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// Event types.
const (
	EventPostLiked     = "post_liked"
	EventCommentLiked  = "comment_liked"
	EventCommented     = "commented"
	EventReplied       = "replied"
	EventFollowed      = "followed"
	EventContentHidden = "content_hidden"
)

// ModerationChannel carries every hide decision.
const ModerationChannel = "moderation:events"

// Event is delivered to the user it concerns.
type Event struct {
	Type          string    `json:"type"`
	ActorUsername string    `json:"actor_username,omitempty"`
	Target        string    `json:"target,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

// ModerationEvent records content hidden by the report threshold.
type ModerationEvent struct {
	TargetType  string    `json:"target_type"`
	Target      string    `json:"target"`
	ReportCount int64     `json:"report_count"`
	CreatedAt   time.Time `json:"created_at"`
}

// Publisher is the part of Notifier the services depend on.
type Publisher interface {
	PublishUser(ctx context.Context, userID uint, event Event) error
	PublishModeration(ctx context.Context, event ModerationEvent) error
}

// Notifier provides helpers to publish notifications into Redis channels
type Notifier struct {
	rdb *redis.Client
}

// NewNotifier creates a new Notifier instance using the provided Redis client.
// A nil client turns every publish into a no-op.
func NewNotifier(rdb *redis.Client) *Notifier {
	return &Notifier{rdb: rdb}
}

func (n *Notifier) publish(ctx context.Context, channel string, payload any) error {
	if n == nil || n.rdb == nil {
		return nil
	}
	payloadJSON, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}
	return n.rdb.Publish(ctx, channel, string(payloadJSON)).Err()
}

// PublishUser sends an event to a user's channel.
func (n *Notifier) PublishUser(ctx context.Context, userID uint, event Event) error {
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now().UTC()
	}
	return n.publish(ctx, UserChannel(userID), event)
}

// PublishModeration announces a hide decision.
func (n *Notifier) PublishModeration(ctx context.Context, event ModerationEvent) error {
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now().UTC()
	}
	return n.publish(ctx, ModerationChannel, event)
}

// StartModerationSubscriber subscribes to ModerationChannel and calls onEvent
// for each decoded event until ctx is done.
func (n *Notifier) StartModerationSubscriber(
	ctx context.Context, onEvent func(event ModerationEvent),
) error {
	if n == nil || n.rdb == nil {
		return nil
	}
	sub := n.rdb.Subscribe(ctx, ModerationChannel)
	// Wait for the subscription so no event published after return is lost.
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return fmt.Errorf("subscribe %s: %w", ModerationChannel, err)
	}
	ch := sub.Channel()

	go func() {
		defer func() { _ = sub.Close() }()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				var event ModerationEvent
				if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
					slog.WarnContext(ctx, "dropping malformed moderation event", slog.String("error", err.Error()))
					continue
				}
				func() {
					defer func() {
						if r := recover(); r != nil {
							slog.ErrorContext(ctx, "panic in moderation subscriber",
								slog.Any("panic", r),
								slog.String("stack", string(debug.Stack())))
						}
					}()
					onEvent(event)
				}()
			}
		}
	}()

	return nil
}

// UserChannel derives the Redis channel name for a user.
func UserChannel(userID uint) string {
	return "notifications:user:" + strconv.FormatUint(uint64(userID), 10)
}
