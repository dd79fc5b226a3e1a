package model

import "gorm.io/datatypes"

// GeneratedRoadmap caches the generated plan for one analysis of one user.
type GeneratedRoadmap struct {
	BaseModel
	UserID      uint           `gorm:"uniqueIndex:idx_roadmap_user_analysis,priority:1;not null" json:"user_id"`
	AnalysisID  uint           `gorm:"uniqueIndex:idx_roadmap_user_analysis,priority:2;not null" json:"analysis_id"`
	RoadmapData datatypes.JSON `gorm:"not null" json:"roadmap"`
}

func (GeneratedRoadmap) TableName() string {
	return "generated_roadmaps"
}

// swagger:model GeneratedProject
type GeneratedProject struct {
	BaseModel
	UserID      uint     `gorm:"index;not null" json:"user_id"`
	AnalysisID  uint     `gorm:"index" json:"analysis_id"`
	Title       string   `gorm:"size:255;not null" json:"title"`
	Difficulty  string   `gorm:"size:50;not null" json:"difficulty"`
	Description string   `gorm:"type:text;not null" json:"description"`
	Features    []string `gorm:"serializer:json;type:text" json:"features"`
}

func (GeneratedProject) TableName() string {
	return "generated_projects"
}

// RoadmapWeek is one entry of a generated roadmap.
type RoadmapWeek struct {
	Week      int               `json:"week"`
	Title     string            `json:"title"`
	Skills    []string          `json:"skills"`
	Notes     string            `json:"notes"`
	Resources []RoadmapResource `json:"resources"`
}

type RoadmapResource struct {
	Skill string `json:"skill"`
	URL   string `json:"url"`
}
