package service

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"strconv"
	"strings"

	"interview_prep_backend/internal/config"
	"interview_prep_backend/internal/llm"
	"interview_prep_backend/internal/model"
	"interview_prep_backend/internal/repository"
	"interview_prep_backend/internal/util"
	"interview_prep_backend/pkg/logger"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

type AnalysisService struct {
	Resumes      *ResumeService
	AnalysisRepo *repository.AnalysisRepository
	Generator    llm.Generator
	Gamification *GamificationService
	Cfg          *config.Config
}

func NewAnalysisService(
	resumes *ResumeService,
	analysisRepo *repository.AnalysisRepository,
	generator llm.Generator,
	gamification *GamificationService,
	cfg *config.Config,
) *AnalysisService {
	return &AnalysisService{
		Resumes:      resumes,
		AnalysisRepo: analysisRepo,
		Generator:    generator,
		Gamification: gamification,
		Cfg:          cfg,
	}
}

// RunAnalysis compares the latest resume with the latest job description and
// stores a new immutable analysis. A failed or malformed generation yields
// the empty analysis instead of an error.
func (s *AnalysisService) RunAnalysis(ctx context.Context, userID uint) (*model.SkillAnalysis, error) {
	resume, err := s.Resumes.Latest(ctx, userID)
	if err != nil {
		return nil, err
	}
	jd, err := s.Resumes.LatestJobDescription(ctx, userID)
	if err != nil {
		return nil, err
	}

	analysis := &model.SkillAnalysis{
		UserID:           userID,
		ResumeID:         resume.ID,
		JobDescriptionID: jd.ID,
		MatchedSkills:    []string{},
		MissingSkills:    []string{},
	}

	raw, err := s.Generator.GenerateStructured(ctx, llm.SkillGapPrompt(resume.ResumeText, jd.JDText))
	if err == nil {
		err = decodeSkillGap(raw, analysis)
	}
	if err != nil {
		logger.Log.Warn("Skill-gap analysis degraded to empty result",
			zap.Uint("user_id", userID), zap.Error(err))
	}

	if err := s.AnalysisRepo.Create(ctx, analysis); err != nil {
		return nil, err
	}

	if _, err := s.Gamification.RecordActivity(ctx, userID, SourceAnalysis, s.Cfg.Gamification.XPPerAnalysis); err != nil {
		return nil, err
	}
	return analysis, nil
}

func (s *AnalysisService) Latest(ctx context.Context, userID uint) (*model.SkillAnalysis, error) {
	a, err := s.AnalysisRepo.FindLatestByUser(ctx, userID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, util.ErrNoAnalysis
	}
	return a, err
}

type skillGapOutput struct {
	MatchedSkills   []string        `json:"matched_skills"`
	MissingSkills   []string        `json:"missing_skills"`
	MatchPercentage json.RawMessage `json:"match_percentage"`
}

func decodeSkillGap(raw json.RawMessage, into *model.SkillAnalysis) error {
	var out skillGapOutput
	if err := json.Unmarshal(raw, &out); err != nil {
		return err
	}
	into.MatchedSkills = CleanSkills(out.MatchedSkills)
	into.MissingSkills = CleanSkills(out.MissingSkills)
	into.MatchPercentage = clampPercentage(parsePercentage(out.MatchPercentage))
	return nil
}

// CleanSkills trims entries, drops empties and removes case-insensitive duplicates.
func CleanSkills(in []string) []string {
	out := make([]string, 0, len(in))
	seen := make(map[string]struct{}, len(in))
	for _, s := range in {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		key := strings.ToLower(s)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, s)
	}
	return out
}

// parsePercentage accepts 65, 65.5, "65" and "65%".
func parsePercentage(raw json.RawMessage) float64 {
	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		return f
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		f, _ = strconv.ParseFloat(strings.TrimSuffix(strings.TrimSpace(s), "%"), 64)
		return f
	}
	return 0
}

func clampPercentage(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return util.Round2(math.Max(0, math.Min(100, v)))
}
