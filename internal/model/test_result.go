package model

import "time"

// TestResult 一次模拟测试的成绩
type TestResult struct {
	BaseModel
	UserID         uint      `gorm:"index:idx_test_results_user_taken,priority:1;not null" json:"user_id"`
	SkillName      string    `gorm:"size:255;not null" json:"skill_name"`
	Score          float64   `gorm:"not null;default:0" json:"score"`
	TotalQuestions int       `gorm:"not null;default:0" json:"total_questions"`
	CorrectCount   int       `gorm:"not null;default:0" json:"correct_count"`
	TakenAt        time.Time `gorm:"index:idx_test_results_user_taken,priority:2;not null" json:"taken_at"`
}

func (TestResult) TableName() string {
	return "test_results"
}
