package repository

import (
	"context"

	"interview_prep_backend/internal/model"

	"gorm.io/gorm"
)

type TestResultRepository struct {
	DB *gorm.DB
}

func NewTestResultRepository(db *gorm.DB) *TestResultRepository {
	return &TestResultRepository{DB: db}
}

func (r *TestResultRepository) WithTx(tx *gorm.DB) *TestResultRepository {
	return &TestResultRepository{DB: tx}
}

func (r *TestResultRepository) Create(ctx context.Context, result *model.TestResult) error {
	return r.DB.WithContext(ctx).Create(result).Error
}

// FindRecentByUser returns results newest first; limit <= 0 means all.
func (r *TestResultRepository) FindRecentByUser(ctx context.Context, userID uint, limit int) ([]model.TestResult, error) {
	var results []model.TestResult
	q := r.DB.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("taken_at DESC, id DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	err := q.Find(&results).Error
	return results, err
}
