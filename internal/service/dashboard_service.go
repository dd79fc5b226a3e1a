package service

import (
	"context"
	"errors"

	"interview_prep_backend/internal/model"
	"interview_prep_backend/internal/repository"
	"interview_prep_backend/internal/util"

	"gorm.io/gorm"
)

const recentTestLimit = 10

// DashboardService builds a read-only summary; it never creates rows or
// touches progression.
type DashboardService struct {
	UserRepo     *repository.UserRepository
	AnalysisRepo *repository.AnalysisRepository
	ProgressRepo *repository.ProgressRepository
	ResultRepo   *repository.TestResultRepository
	ProjectRepo  *repository.ProjectProgressRepository
}

func NewDashboardService(
	userRepo *repository.UserRepository,
	analysisRepo *repository.AnalysisRepository,
	progressRepo *repository.ProgressRepository,
	resultRepo *repository.TestResultRepository,
	projectRepo *repository.ProjectProgressRepository,
) *DashboardService {
	return &DashboardService{
		UserRepo:     userRepo,
		AnalysisRepo: analysisRepo,
		ProgressRepo: progressRepo,
		ResultRepo:   resultRepo,
		ProjectRepo:  projectRepo,
	}
}

func (s *DashboardService) Get(ctx context.Context, userID uint) (*model.Dashboard, error) {
	user, err := s.UserRepo.FindByID(ctx, userID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, util.ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}

	d := &model.Dashboard{
		UserName:         user.Name,
		Email:            user.Email,
		XP:               user.XP,
		Level:            user.Level,
		XPToNext:         user.XPToNext,
		Streak:           user.Streak,
		EarnedBadges:     nonNilInts(user.EarnedBadges),
		DailyXP:          user.DailyXP,
		MatchedSkills:    []string{},
		MissingSkills:    []string{},
		CompletedSkills:  []string{},
		RecentTestScores: []model.RecentTestScore{},
	}
	if d.DailyXP == nil {
		d.DailyXP = map[string]int{}
	}

	analysis, err := s.AnalysisRepo.FindLatestByUser(ctx, userID)
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
	case err != nil:
		return nil, err
	default:
		pct := analysis.MatchPercentage
		d.MatchPercentage = &pct
		d.MatchedSkills = nonNilStrings(analysis.MatchedSkills)
		d.MissingSkills = nonNilStrings(analysis.MissingSkills)
	}

	progress, err := s.ProgressRepo.FindByUser(ctx, userID)
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
	case err != nil:
		return nil, err
	default:
		d.TotalProgressPercentage = progress.TotalProgressPercentage
		d.CompletedSkills = nonNilStrings(progress.CompletedSkills)
	}

	results, err := s.ResultRepo.FindRecentByUser(ctx, userID, recentTestLimit)
	if err != nil {
		return nil, err
	}
	for _, r := range results {
		d.RecentTestScores = append(d.RecentTestScores, model.RecentTestScore{
			SkillName: r.SkillName,
			Score:     r.Score,
			TakenAt:   r.TakenAt,
		})
	}

	d.ProjectProgress, err = s.ProjectRepo.FindByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if d.ProjectProgress == nil {
		d.ProjectProgress = []model.ProjectProgress{}
	}
	return d, nil
}

func nonNilStrings(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func nonNilInts(s []int) []int {
	if s == nil {
		return []int{}
	}
	return s
}
