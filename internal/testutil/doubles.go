// Package testutil provides shared test doubles and fixtures for backend tests.
package testutil

import (
	"context"
	"sync"
	"time"

	"positiveonly/internal/mailer"
	"positiveonly/internal/notifications"
)

// MailRecorder is a mailer.Sender that keeps every message in memory.
type MailRecorder struct {
	mu       sync.Mutex
	messages []mailer.Message
	Err      error
	sent     chan mailer.Message
}

// NewMailRecorder returns a MailRecorder that also signals each send on Sent.
func NewMailRecorder() *MailRecorder {
	return &MailRecorder{sent: make(chan mailer.Message, 16)}
}

// Send records msg and returns Err.
func (m *MailRecorder) Send(_ context.Context, msg mailer.Message) error {
	m.mu.Lock()
	m.messages = append(m.messages, msg)
	m.mu.Unlock()
	select {
	case m.sent <- msg:
	default:
	}
	return m.Err
}

// Sent delivers messages as they are sent.
func (m *MailRecorder) Sent() <-chan mailer.Message {
	return m.sent
}

// Messages returns a copy of everything sent so far.
func (m *MailRecorder) Messages() []mailer.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]mailer.Message(nil), m.messages...)
}

// PublishRecorder is a notifications.Publisher that keeps events in memory.
type PublishRecorder struct {
	mu         sync.Mutex
	users      map[uint][]notifications.Event
	moderation []notifications.ModerationEvent
}

// NewPublishRecorder returns an empty PublishRecorder.
func NewPublishRecorder() *PublishRecorder {
	return &PublishRecorder{users: make(map[uint][]notifications.Event)}
}

func (p *PublishRecorder) PublishUser(_ context.Context, userID uint, event notifications.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.users[userID] = append(p.users[userID], event)
	return nil
}

func (p *PublishRecorder) PublishModeration(_ context.Context, event notifications.ModerationEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.moderation = append(p.moderation, event)
	return nil
}

// UserEvents returns the events published to userID.
func (p *PublishRecorder) UserEvents(userID uint) []notifications.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]notifications.Event(nil), p.users[userID]...)
}

// ModerationEvents returns every published moderation event.
func (p *PublishRecorder) ModerationEvents() []notifications.ModerationEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]notifications.ModerationEvent(nil), p.moderation...)
}

// Clock is a settable time source.
type Clock struct {
	mu  sync.Mutex
	now time.Time
}

// NewClock returns a Clock fixed at now.
func NewClock(now time.Time) *Clock {
	return &Clock{now: now.UTC()}
}

// Now returns the current fake time.
func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Advance moves the clock forward by d.
func (c *Clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}
