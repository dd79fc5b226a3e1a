package service

import (
	"context"
	"errors"
	"time"

	"interview_prep_backend/internal/config"
	"interview_prep_backend/internal/events"
	"interview_prep_backend/internal/gamification"
	"interview_prep_backend/internal/model"
	"interview_prep_backend/internal/repository"
	"interview_prep_backend/internal/session"
	"interview_prep_backend/internal/util"
	"interview_prep_backend/pkg/logger"
	"interview_prep_backend/pkg/monitoring"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// XP sources, used as the metrics label and in events.
const (
	SourceManual      = "manual"
	SourceTest        = "test"
	SourceAnalysis    = "analysis"
	SourceProjectStep = "project_step"
)

// GamificationService is the only writer of a user's progression fields.
// Every mutation holds the per-user lock and runs read-modify-write inside a
// transaction that row-locks the user, so concurrent requests from the same
// user cannot interleave.
type GamificationService struct {
	DB          *gorm.DB
	UserRepo    *repository.UserRepository
	ProjectRepo *repository.ProjectProgressRepository
	Engine      *gamification.Engine
	Publisher   events.Publisher
	Cfg         config.GamificationConfig

	locks *session.UserLocker
	now   func() time.Time
}

func NewGamificationService(
	db *gorm.DB,
	userRepo *repository.UserRepository,
	projectRepo *repository.ProjectProgressRepository,
	publisher events.Publisher,
	cfg config.GamificationConfig,
) *GamificationService {
	if publisher == nil {
		publisher = events.NoopPublisher{}
	}
	return &GamificationService{
		DB:          db,
		UserRepo:    userRepo,
		ProjectRepo: projectRepo,
		Engine:      gamification.NewEngine(cfg.LevelStep),
		Publisher:   publisher,
		Cfg:         cfg,
		locks:       session.NewUserLocker(),
		now:         time.Now,
	}
}

// progression collects what happened during one mutation so it can be
// reported once the transaction has committed.
type progression struct {
	source string
	xp     []gamification.XPOutcome
	streak *gamification.StreakOutcome
	badge  *int
}

func (s *GamificationService) mutate(ctx context.Context, userID uint, source string,
	fn func(tx *gorm.DB, u *model.User, p *progression) error) (*model.User, error) {

	unlock := s.locks.Lock(userID)
	defer unlock()

	p := &progression{source: source}
	var user *model.User
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		users := s.UserRepo.WithTx(tx)
		u, err := users.FindByIDForUpdate(ctx, userID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return util.ErrUserNotFound
		}
		if err != nil {
			return err
		}

		if err := fn(tx, u, p); err != nil {
			return err
		}

		if err := gamification.CheckInvariant(u); err != nil {
			logger.Log.Error("Progression invariant violated, rolling back",
				zap.Uint("user_id", userID),
				zap.String("source", source),
				zap.Error(err))
			return err
		}

		if err := users.SaveProgression(ctx, u); err != nil {
			return err
		}
		user = u
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.report(ctx, user, p)
	return user, nil
}

func (s *GamificationService) award(u *model.User, points int, p *progression) {
	out := s.Engine.AwardXP(u, points, s.now())
	p.xp = append(p.xp, out)
}

// report updates metrics and publishes events. Failures are logged only;
// the change is already committed.
func (s *GamificationService) report(ctx context.Context, u *model.User, p *progression) {
	var evs []events.Event
	for _, out := range p.xp {
		monitoring.XPAwarded.WithLabelValues(p.source).Add(float64(out.Points))
		evs = append(evs, events.New(events.TypeXPAwarded, u.ID, map[string]any{
			"points": out.Points,
			"source": p.source,
			"xp":     out.XP,
			"level":  out.Level,
		}))
		if out.LevelsGained > 0 {
			monitoring.LevelUps.Add(float64(out.LevelsGained))
			evs = append(evs, events.New(events.TypeLevelUp, u.ID, map[string]any{
				"levels_gained": out.LevelsGained,
				"level":         out.Level,
			}))
		}
	}
	if p.streak != nil && p.streak.Changed() {
		evs = append(evs, events.New(events.TypeStreakUpdated, u.ID, map[string]any{
			"previous": p.streak.Previous,
			"streak":   p.streak.Current,
		}))
	}
	if p.badge != nil {
		evs = append(evs, events.New(events.TypeBadgeAwarded, u.ID, map[string]any{
			"badge_id": *p.badge,
		}))
	}

	for _, e := range evs {
		if err := s.Publisher.Publish(ctx, e); err != nil {
			logger.Log.Warn("Failed to publish progression event",
				zap.String("type", e.Type),
				zap.Uint("user_id", u.ID),
				zap.Error(err))
		}
	}
}

// AddXP grants amount XP for an externally tracked activity. amount must be
// in 1..gamification.MaxAward.
func (s *GamificationService) AddXP(ctx context.Context, userID uint, amount int) (*model.User, error) {
	if amount <= 0 || amount > gamification.MaxAward {
		return nil, util.ErrInvalidXPAmount
	}
	return s.mutate(ctx, userID, SourceManual, func(_ *gorm.DB, u *model.User, p *progression) error {
		s.award(u, amount, p)
		return nil
	})
}

// RecordActivity awards xp and advances the daily streak in one transaction.
// Analysis runs go through here.
func (s *GamificationService) RecordActivity(ctx context.Context, userID uint, source string, xp int) (*model.User, error) {
	return s.RecordActivityWith(ctx, userID, source, xp, nil)
}

// RecordActivityWith is RecordActivity plus extra writes that must commit or
// roll back together with the progression change, like a graded test result.
func (s *GamificationService) RecordActivityWith(ctx context.Context, userID uint, source string, xp int,
	with func(tx *gorm.DB) error) (*model.User, error) {

	return s.mutate(ctx, userID, source, func(tx *gorm.DB, u *model.User, p *progression) error {
		if with != nil {
			if err := with(tx); err != nil {
				return err
			}
		}
		s.award(u, xp, p)
		out := gamification.UpdateStreak(u, s.now())
		p.streak = &out
		return nil
	})
}

func (s *GamificationService) AwardBadge(ctx context.Context, userID uint, badgeID int) (*model.User, error) {
	return s.mutate(ctx, userID, SourceManual, func(_ *gorm.DB, u *model.User, p *progression) error {
		if gamification.GiveBadge(u, badgeID) {
			id := badgeID
			p.badge = &id
		}
		return nil
	})
}

// UpdateProjectStep overwrites the completed step set of a project and always
// pays the project-step bonus, even when the set is unchanged.
func (s *GamificationService) UpdateProjectStep(ctx context.Context, userID uint, projectID string, steps []int) (*model.ProjectProgress, error) {
	var project *model.ProjectProgress
	_, err := s.mutate(ctx, userID, SourceProjectStep, func(tx *gorm.DB, u *model.User, p *progression) error {
		var err error
		project, err = s.ProjectRepo.WithTx(tx).Upsert(ctx, userID, projectID, gamification.NormalizeSteps(steps))
		if err != nil {
			return err
		}
		s.award(u, s.Cfg.XPPerProjectStep, p)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return project, nil
}
