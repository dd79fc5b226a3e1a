package repository

import (
	"context"

	"interview_prep_backend/internal/model"

	"gorm.io/gorm"
)

type RoadmapRepository struct {
	DB *gorm.DB
}

func NewRoadmapRepository(db *gorm.DB) *RoadmapRepository {
	return &RoadmapRepository{DB: db}
}

func (r *RoadmapRepository) FindByAnalysis(ctx context.Context, userID, analysisID uint) (*model.GeneratedRoadmap, error) {
	var rm model.GeneratedRoadmap
	err := r.DB.WithContext(ctx).
		Where("user_id = ? AND analysis_id = ?", userID, analysisID).
		First(&rm).Error
	return &rm, err
}

// CreateWithProjects stores a roadmap and its project batch atomically. A
// concurrent insert for the same (user, analysis) fails on the unique index
// and rolls back the projects with it.
func (r *RoadmapRepository) CreateWithProjects(ctx context.Context, rm *model.GeneratedRoadmap, projects []model.GeneratedProject) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(rm).Error; err != nil {
			return err
		}
		if len(projects) == 0 {
			return nil
		}
		return tx.Create(&projects).Error
	})
}

// FindProjectsByUser returns every generated project of the user, newest first.
func (r *RoadmapRepository) FindProjectsByUser(ctx context.Context, userID uint) ([]model.GeneratedProject, error) {
	var projects []model.GeneratedProject
	err := r.DB.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("id DESC").
		Find(&projects).Error
	return projects, err
}
