package notifications

import "context"

type gated struct {
	next  Publisher
	allow func(userID uint) bool
}

// Gated wraps next so user events are only published for recipients that
// pass allow. Moderation events always go through.
func Gated(next Publisher, allow func(userID uint) bool) Publisher {
	if allow == nil {
		return next
	}
	return &gated{next: next, allow: allow}
}

func (g *gated) PublishUser(ctx context.Context, userID uint, event Event) error {
	if !g.allow(userID) {
		return nil
	}
	return g.next.PublishUser(ctx, userID, event)
}

func (g *gated) PublishModeration(ctx context.Context, event ModerationEvent) error {
	return g.next.PublishModeration(ctx, event)
}
