package repository

import (
	"context"
	"errors"

	"interview_prep_backend/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ProgressRepository struct {
	DB *gorm.DB
}

func NewProgressRepository(db *gorm.DB) *ProgressRepository {
	return &ProgressRepository{DB: db}
}

func (r *ProgressRepository) FindByUser(ctx context.Context, userID uint) (*model.Progress, error) {
	var p model.Progress
	err := r.DB.WithContext(ctx).Where("user_id = ?", userID).First(&p).Error
	return &p, err
}

// FindOrCreate 不存在时创建空记录；user_id 唯一，并发创建时以先写入者为准
func (r *ProgressRepository) FindOrCreate(ctx context.Context, userID uint) (*model.Progress, error) {
	p, err := r.FindByUser(ctx, userID)
	if err == nil {
		return p, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	p = &model.Progress{UserID: userID, CompletedSkills: []string{}}
	if err := r.DB.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "user_id"}}, DoNothing: true}).
		Create(p).Error; err != nil {
		return nil, err
	}
	return r.FindByUser(ctx, userID)
}

func (r *ProgressRepository) Save(ctx context.Context, p *model.Progress) error {
	return r.DB.WithContext(ctx).Save(p).Error
}

type ProjectProgressRepository struct {
	DB *gorm.DB
}

func NewProjectProgressRepository(db *gorm.DB) *ProjectProgressRepository {
	return &ProjectProgressRepository{DB: db}
}

func (r *ProjectProgressRepository) WithTx(tx *gorm.DB) *ProjectProgressRepository {
	return &ProjectProgressRepository{DB: tx}
}

// Upsert replaces the completed step set of (user, project), creating the row on first use.
func (r *ProjectProgressRepository) Upsert(ctx context.Context, userID uint, projectID string, steps []int) (*model.ProjectProgress, error) {
	var p model.ProjectProgress
	err := r.DB.WithContext(ctx).
		Where("user_id = ? AND project_id = ?", userID, projectID).
		First(&p).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		p = model.ProjectProgress{UserID: userID, ProjectID: projectID, CompletedSteps: steps}
		if err := r.DB.WithContext(ctx).Create(&p).Error; err != nil {
			return nil, err
		}
	case err != nil:
		return nil, err
	default:
		p.CompletedSteps = steps
		if err := r.DB.WithContext(ctx).Model(&p).Select("completed_steps").Updates(&p).Error; err != nil {
			return nil, err
		}
	}
	return &p, nil
}

func (r *ProjectProgressRepository) FindByUser(ctx context.Context, userID uint) ([]model.ProjectProgress, error) {
	var list []model.ProjectProgress
	err := r.DB.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("updated_at DESC").
		Find(&list).Error
	return list, err
}
