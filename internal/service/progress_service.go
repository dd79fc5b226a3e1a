package service

import (
	"context"
	"errors"
	"strings"

	"interview_prep_backend/internal/model"
	"interview_prep_backend/internal/repository"
	"interview_prep_backend/internal/util"
)

type ProgressService struct {
	ProgressRepo *repository.ProgressRepository
	Analysis     *AnalysisService
}

func NewProgressService(progressRepo *repository.ProgressRepository, analysis *AnalysisService) *ProgressService {
	return &ProgressService{ProgressRepo: progressRepo, Analysis: analysis}
}

func (s *ProgressService) Get(ctx context.Context, userID uint) (*model.Progress, error) {
	return s.ProgressRepo.FindOrCreate(ctx, userID)
}

// Update replaces the completed skill list and recomputes the percentage of
// the latest analysis' missing skills that are now covered.
func (s *ProgressService) Update(ctx context.Context, userID uint, completed []string) (*model.Progress, error) {
	p, err := s.ProgressRepo.FindOrCreate(ctx, userID)
	if err != nil {
		return nil, err
	}

	p.CompletedSkills = CleanSkills(completed)
	p.TotalProgressPercentage = 0

	analysis, err := s.Analysis.Latest(ctx, userID)
	switch {
	case errors.Is(err, util.ErrNoAnalysis):
	case err != nil:
		return nil, err
	default:
		p.TotalProgressPercentage = coverage(p.CompletedSkills, analysis.MissingSkills)
	}

	if err := s.ProgressRepo.Save(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// coverage is |completed ∩ missing| / |missing| * 100, compared case-insensitively.
func coverage(completed, missing []string) float64 {
	if len(missing) == 0 {
		return 0
	}
	done := make(map[string]struct{}, len(completed))
	for _, c := range completed {
		done[strings.ToLower(strings.TrimSpace(c))] = struct{}{}
	}
	hit := 0
	for _, m := range CleanSkills(missing) {
		if _, ok := done[strings.ToLower(m)]; ok {
			hit++
		}
	}
	return util.Percentage(hit, len(CleanSkills(missing)))
}
