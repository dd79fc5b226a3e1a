package repository

import (
	"context"

	"interview_prep_backend/internal/model"

	"gorm.io/gorm"
)

type AnalysisRepository struct {
	DB *gorm.DB
}

func NewAnalysisRepository(db *gorm.DB) *AnalysisRepository {
	return &AnalysisRepository{DB: db}
}

func (r *AnalysisRepository) Create(ctx context.Context, a *model.SkillAnalysis) error {
	return r.DB.WithContext(ctx).Create(a).Error
}

// FindLatestByUser returns the most recent analysis; ids grow monotonically
// so ordering by id is ordering by recency.
func (r *AnalysisRepository) FindLatestByUser(ctx context.Context, userID uint) (*model.SkillAnalysis, error) {
	var a model.SkillAnalysis
	err := r.DB.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("id DESC").
		First(&a).Error
	return &a, err
}
