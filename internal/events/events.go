// Package events announces progression changes (XP, level-ups, badges,
// streaks) to other services. Publishing is best-effort: the database is the
// source of truth and a lost event never rolls back a committed change.
package events

import (
	"context"
	"sync"
	"time"
)

const (
	TypeXPAwarded     = "xp_awarded"
	TypeLevelUp       = "level_up"
	TypeBadgeAwarded  = "badge_awarded"
	TypeStreakUpdated = "streak_updated"
)

type Event struct {
	Type       string         `json:"type"`
	UserID     uint           `json:"user_id"`
	Payload    map[string]any `json:"payload,omitempty"`
	OccurredAt time.Time      `json:"occurred_at"`
}

func New(eventType string, userID uint, payload map[string]any) Event {
	return Event{Type: eventType, UserID: userID, Payload: payload, OccurredAt: time.Now().UTC()}
}

type Publisher interface {
	Publish(ctx context.Context, e Event) error
	Close() error
}

type NoopPublisher struct{}

func (NoopPublisher) Publish(context.Context, Event) error { return nil }
func (NoopPublisher) Close() error                         { return nil }

// Recorder keeps published events in memory; used by tests.
type Recorder struct {
	mu     sync.Mutex
	Events []Event
}

func (r *Recorder) Publish(_ context.Context, e Event) error {
	r.mu.Lock()
	r.Events = append(r.Events, e)
	r.mu.Unlock()
	return nil
}

func (r *Recorder) Close() error { return nil }

func (r *Recorder) Types() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.Events))
	for i, e := range r.Events {
		out[i] = e.Type
	}
	return out
}
