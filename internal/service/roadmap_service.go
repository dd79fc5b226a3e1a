package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"interview_prep_backend/internal/config"
	"interview_prep_backend/internal/llm"
	"interview_prep_backend/internal/model"
	"interview_prep_backend/internal/repository"
	"interview_prep_backend/pkg/logger"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

var projectDifficulties = map[string]bool{"beginner": true, "intermediate": true, "advanced": true}

// RoadmapService caches one generated roadmap (plus a project batch) per
// analysis. Concurrent first requests for the same analysis share a single
// generation; across processes the unique index on (user_id, analysis_id)
// keeps one winner.
type RoadmapService struct {
	Analysis    *AnalysisService
	RoadmapRepo *repository.RoadmapRepository
	Generator   llm.Generator
	Cfg         config.RoadmapConfig

	group singleflight.Group
}

func NewRoadmapService(analysis *AnalysisService, roadmapRepo *repository.RoadmapRepository, generator llm.Generator, cfg config.RoadmapConfig) *RoadmapService {
	if cfg.Weeks <= 0 {
		cfg.Weeks = 4
	}
	if cfg.ProjectsPerBatch <= 0 {
		cfg.ProjectsPerBatch = 3
	}
	return &RoadmapService{Analysis: analysis, RoadmapRepo: roadmapRepo, Generator: generator, Cfg: cfg}
}

func (s *RoadmapService) GetRoadmap(ctx context.Context, userID uint) (*model.RoadmapView, error) {
	analysis, err := s.Analysis.Latest(ctx, userID)
	if err != nil {
		return nil, err
	}

	rm, err := s.RoadmapRepo.FindByAnalysis(ctx, userID, analysis.ID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		key := fmt.Sprintf("%d:%d", userID, analysis.ID)
		v, err, _ := s.group.Do(key, func() (interface{}, error) {
			// 共享调用不应被首个请求的取消所中断
			return s.generate(context.WithoutCancel(ctx), analysis)
		})
		if err != nil {
			return nil, err
		}
		rm = v.(*model.GeneratedRoadmap)
	} else if err != nil {
		return nil, err
	}

	var weeks []model.RoadmapWeek
	if err := json.Unmarshal(rm.RoadmapData, &weeks); err != nil {
		return nil, fmt.Errorf("decode cached roadmap %d: %w", rm.ID, err)
	}
	projects, err := s.RoadmapRepo.FindProjectsByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	return &model.RoadmapView{
		UserID:          userID,
		AnalysisID:      analysis.ID,
		MatchPercentage: analysis.MatchPercentage,
		Roadmap:         weeks,
		MiniProjects:    projects,
	}, nil
}

func (s *RoadmapService) generate(ctx context.Context, analysis *model.SkillAnalysis) (*model.GeneratedRoadmap, error) {
	// another caller may have finished between our miss and taking the flight
	if rm, err := s.RoadmapRepo.FindByAnalysis(ctx, analysis.UserID, analysis.ID); err == nil {
		return rm, nil
	}

	var (
		weeks    []model.RoadmapWeek
		projects []model.GeneratedProject
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		weeks = s.buildRoadmap(gctx, analysis.MissingSkills)
		return nil
	})
	g.Go(func() error {
		projects = s.buildProjects(gctx, analysis)
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	data, err := json.Marshal(weeks)
	if err != nil {
		return nil, err
	}
	rm := &model.GeneratedRoadmap{
		UserID:      analysis.UserID,
		AnalysisID:  analysis.ID,
		RoadmapData: datatypes.JSON(data),
	}
	if err := s.RoadmapRepo.CreateWithProjects(ctx, rm, projects); err != nil {
		if existing, findErr := s.RoadmapRepo.FindByAnalysis(ctx, analysis.UserID, analysis.ID); findErr == nil {
			return existing, nil
		}
		return nil, err
	}
	return rm, nil
}

func (s *RoadmapService) buildRoadmap(ctx context.Context, missing []string) []model.RoadmapWeek {
	if len(missing) == 0 {
		return allSetRoadmap()
	}

	raw, err := s.Generator.GenerateStructured(ctx, llm.RoadmapPrompt(missing, s.Cfg.Weeks))
	if err == nil {
		if weeks := validRoadmap(raw); len(weeks) > 0 {
			return weeks
		}
		err = errors.New("no usable weeks in generator output")
	}
	logger.Log.Warn("Roadmap generation failed, using fallback", zap.Error(err))
	return fallbackRoadmap(missing)
}

func allSetRoadmap() []model.RoadmapWeek {
	return []model.RoadmapWeek{{
		Week:      1,
		Title:     "You're all set!",
		Skills:    []string{},
		Notes:     "Your resume already covers the JD requirements. Keep practising!",
		Resources: []model.RoadmapResource{},
	}}
}

func fallbackRoadmap(missing []string) []model.RoadmapWeek {
	head := missing
	if len(head) > 3 {
		head = head[:3]
	}
	resources := make([]model.RoadmapResource, len(missing))
	for i, skill := range missing {
		resources[i] = model.RoadmapResource{Skill: skill, URL: searchURL(skill)}
	}
	return []model.RoadmapWeek{{
		Week:      1,
		Title:     "Week 1: Start Learning " + strings.Join(head, ", "),
		Skills:    append([]string(nil), missing...),
		Notes:     "Focus on learning: " + strings.Join(missing, ", ") + ". Start with official documentation.",
		Resources: resources,
	}}
}

func searchURL(skill string) string {
	return "https://www.google.com/search?q=" + url.QueryEscape("learn "+skill)
}

// validRoadmap keeps weeks with a title, renumbers them from 1 and drops
// resources that are not http(s) links.
func validRoadmap(raw json.RawMessage) []model.RoadmapWeek {
	var weeks []model.RoadmapWeek
	if err := json.Unmarshal(raw, &weeks); err != nil {
		var wrapped struct {
			Roadmap []model.RoadmapWeek `json:"roadmap"`
		}
		if err := json.Unmarshal(raw, &wrapped); err != nil {
			return nil
		}
		weeks = wrapped.Roadmap
	}

	out := make([]model.RoadmapWeek, 0, len(weeks))
	for _, w := range weeks {
		w.Title = strings.TrimSpace(w.Title)
		if w.Title == "" {
			continue
		}
		w.Week = len(out) + 1
		w.Skills = CleanSkills(w.Skills)
		resources := make([]model.RoadmapResource, 0, len(w.Resources))
		for _, r := range w.Resources {
			u, err := url.Parse(strings.TrimSpace(r.URL))
			if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
				continue
			}
			resources = append(resources, model.RoadmapResource{Skill: strings.TrimSpace(r.Skill), URL: u.String()})
		}
		w.Resources = resources
		out = append(out, w)
	}
	return out
}

type projectOutput struct {
	Title       string   `json:"title"`
	Difficulty  string   `json:"difficulty"`
	Description string   `json:"description"`
	Features    []string `json:"features"`
}

func (s *RoadmapService) buildProjects(ctx context.Context, analysis *model.SkillAnalysis) []model.GeneratedProject {
	missing := analysis.MissingSkills
	if len(missing) == 0 {
		return nil
	}
	n := s.Cfg.ProjectsPerBatch

	raw, err := s.Generator.GenerateStructured(ctx, llm.ProjectsPrompt(missing, n))
	if err == nil {
		var list []projectOutput
		if err = json.Unmarshal(raw, &list); err == nil {
			projects := make([]model.GeneratedProject, 0, n)
			for _, p := range list {
				if len(projects) == n {
					break
				}
				title := strings.TrimSpace(p.Title)
				if title == "" {
					continue
				}
				difficulty := strings.ToLower(strings.TrimSpace(p.Difficulty))
				if !projectDifficulties[difficulty] {
					difficulty = "beginner"
				}
				projects = append(projects, model.GeneratedProject{
					UserID:      analysis.UserID,
					AnalysisID:  analysis.ID,
					Title:       title,
					Difficulty:  difficulty,
					Description: strings.TrimSpace(p.Description),
					Features:    CleanSkills(p.Features),
				})
			}
			if len(projects) > 0 {
				return projects
			}
			err = errors.New("no usable projects in generator output")
		}
	}
	logger.Log.Warn("Project generation failed, using fallback", zap.Error(err))
	return fallbackProjects(analysis, n)
}

// fallbackProjects proposes one beginner project per missing skill.
func fallbackProjects(analysis *model.SkillAnalysis, n int) []model.GeneratedProject {
	skills := analysis.MissingSkills
	if len(skills) > n {
		skills = skills[:n]
	}
	out := make([]model.GeneratedProject, len(skills))
	for i, skill := range skills {
		out[i] = model.GeneratedProject{
			UserID:      analysis.UserID,
			AnalysisID:  analysis.ID,
			Title:       skill + " starter project",
			Difficulty:  "beginner",
			Description: "Build a small, complete application that uses " + skill + " end to end and publish it with a README.",
			Features: []string{
				"Set up a project skeleton using " + skill,
				"Implement one core feature with " + skill,
				"Add tests and document how to run it",
			},
		}
	}
	return out
}
