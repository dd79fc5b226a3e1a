package llm

import (
	"context"
	"encoding/json"
	"errors"
	"sync/atomic"
)

// ErrNotConfigured is returned by Unavailable.
var ErrNotConfigured = errors.New("llm: no generative backend configured")

// Unavailable fails every call, so callers take their fallback paths.
type Unavailable struct{}

func (Unavailable) GenerateStructured(context.Context, string) (json.RawMessage, error) {
	return nil, ErrNotConfigured
}

func (Unavailable) Chat(context.Context, string, []Message) (string, error) {
	return "", ErrNotConfigured
}

type box struct{ g Generator }

// Swappable forwards to a generator that can be replaced at runtime, e.g.
// when the model name changes on config reload.
type Swappable struct {
	cur atomic.Pointer[box]
}

func NewSwappable(g Generator) *Swappable {
	s := &Swappable{}
	s.Swap(g)
	return s
}

func (s *Swappable) Swap(g Generator) {
	if g == nil {
		g = Unavailable{}
	}
	s.cur.Store(&box{g: g})
}

func (s *Swappable) GenerateStructured(ctx context.Context, prompt string) (json.RawMessage, error) {
	return s.cur.Load().g.GenerateStructured(ctx, prompt)
}

func (s *Swappable) Chat(ctx context.Context, system string, history []Message) (string, error) {
	return s.cur.Load().g.Chat(ctx, system, history)
}
