package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"interview_prep_backend/internal/config"
	"interview_prep_backend/internal/llm"
	"interview_prep_backend/internal/model"
	"interview_prep_backend/internal/session"
	"interview_prep_backend/internal/util"
)

// CoachService runs the mock-interview chat. Each user has one conversation
// kept in the session store; it expires after the configured idle TTL and
// holds at most MaxTurns exchanges.
type CoachService struct {
	Generator llm.Generator
	Store     session.Store
	Cfg       *config.Config

	locks *session.UserLocker
}

func NewCoachService(generator llm.Generator, store session.Store, cfg *config.Config) *CoachService {
	return &CoachService{Generator: generator, Store: store, Cfg: cfg, locks: session.NewUserLocker()}
}

func coachKey(userID uint) string {
	return fmt.Sprintf("coach:%d", userID)
}

func (s *CoachService) Chat(ctx context.Context, userID uint, message string) (*model.CoachReply, error) {
	message = strings.TrimSpace(message)

	unlock := s.locks.Lock(userID)
	defer unlock()

	history, err := s.history(ctx, userID)
	if err != nil {
		return nil, err
	}
	history = append(history, llm.Message{Role: llm.RoleUser, Content: message})

	reply, err := s.Generator.Chat(ctx, llm.CoachSystemPrompt, history)
	if err != nil {
		return nil, fmt.Errorf("%w: coach: %v", util.ErrExternalService, err)
	}
	history = append(history, llm.Message{Role: llm.RoleModel, Content: reply})

	if limit := 2 * s.Cfg.AI.CoachMaxTurns; limit > 0 && len(history) > limit {
		history = history[len(history)-limit:]
	}
	raw, err := json.Marshal(history)
	if err != nil {
		return nil, err
	}
	if err := s.Store.Put(ctx, coachKey(userID), raw, s.Cfg.AI.CoachSessionTTL); err != nil {
		return nil, fmt.Errorf("save coach history: %w", err)
	}

	return &model.CoachReply{Reply: reply, Turns: len(history) / 2}, nil
}

// Reset forgets the user's conversation.
func (s *CoachService) Reset(ctx context.Context, userID uint) error {
	return s.Store.Delete(ctx, coachKey(userID))
}

func (s *CoachService) history(ctx context.Context, userID uint) ([]llm.Message, error) {
	raw, err := s.Store.Get(ctx, coachKey(userID))
	if errors.Is(err, session.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load coach history: %w", err)
	}
	var history []llm.Message
	if err := json.Unmarshal(raw, &history); err != nil {
		// 历史损坏时从头开始
		return nil, nil
	}
	return history, nil
}
