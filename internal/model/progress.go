package model

// Progress tracks which missing skills the user reports as learned.
type Progress struct {
	BaseModel
	UserID                  uint     `gorm:"uniqueIndex;not null" json:"user_id"`
	CompletedSkills         []string `gorm:"serializer:json;type:text" json:"completed_skills"`
	TotalProgressPercentage float64  `gorm:"not null;default:0" json:"total_progress_percentage"`
}

func (Progress) TableName() string {
	return "progress"
}

// ProjectProgress 每个 (用户, 项目) 一条，步骤集合整体覆盖
type ProjectProgress struct {
	BaseModel
	UserID         uint   `gorm:"uniqueIndex:idx_project_progress_user_project,priority:1;not null" json:"user_id"`
	ProjectID      string `gorm:"size:191;uniqueIndex:idx_project_progress_user_project,priority:2;not null" json:"project_id"`
	CompletedSteps []int  `gorm:"serializer:json;type:text" json:"completed_steps"`
}

func (ProjectProgress) TableName() string {
	return "project_progress"
}
