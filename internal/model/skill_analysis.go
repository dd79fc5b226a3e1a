package model

// SkillAnalysis is written once per analysis run and never updated.
type SkillAnalysis struct {
	BaseModel
	UserID           uint     `gorm:"index;not null" json:"user_id"`
	ResumeID         uint     `json:"resume_id"`
	JobDescriptionID uint     `json:"job_description_id"`
	MatchedSkills    []string `gorm:"serializer:json;type:text" json:"matched_skills"`
	MissingSkills    []string `gorm:"serializer:json;type:text" json:"missing_skills"`
	MatchPercentage  float64  `gorm:"not null;default:0" json:"match_percentage"`
}

func (SkillAnalysis) TableName() string {
	return "skill_analyses"
}
