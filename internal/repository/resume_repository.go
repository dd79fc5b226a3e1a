package repository

import (
	"context"

	"interview_prep_backend/internal/model"

	"gorm.io/gorm"
)

type ResumeRepository struct {
	DB *gorm.DB
}

func NewResumeRepository(db *gorm.DB) *ResumeRepository {
	return &ResumeRepository{DB: db}
}

func (r *ResumeRepository) Create(ctx context.Context, resume *model.Resume) error {
	return r.DB.WithContext(ctx).Create(resume).Error
}

func (r *ResumeRepository) FindLatestByUser(ctx context.Context, userID uint) (*model.Resume, error) {
	var resume model.Resume
	err := r.DB.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("id DESC").
		First(&resume).Error
	return &resume, err
}

type JobDescriptionRepository struct {
	DB *gorm.DB
}

func NewJobDescriptionRepository(db *gorm.DB) *JobDescriptionRepository {
	return &JobDescriptionRepository{DB: db}
}

func (r *JobDescriptionRepository) Create(ctx context.Context, jd *model.JobDescription) error {
	return r.DB.WithContext(ctx).Create(jd).Error
}

func (r *JobDescriptionRepository) FindLatestByUser(ctx context.Context, userID uint) (*model.JobDescription, error) {
	var jd model.JobDescription
	err := r.DB.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("id DESC").
		First(&jd).Error
	return &jd, err
}
