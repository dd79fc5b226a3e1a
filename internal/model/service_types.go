package model

import "time"

// PublicQuestion is what a client sees while a test is in progress.
type PublicQuestion struct {
	ID       int      `json:"id"`
	Question string   `json:"question"`
	Options  []string `json:"options"`
}

type GeneratedTest struct {
	TestID    string           `json:"test_id"`
	SkillName string           `json:"skill_name"`
	Questions []PublicQuestion `json:"questions"`
}

type SubmittedAnswer struct {
	QuestionID     int    `json:"question_id"`
	SelectedAnswer string `json:"selected_answer"`
}

type QuestionResult struct {
	QuestionID     int    `json:"question_id"`
	Question       string `json:"question"`
	SelectedAnswer string `json:"selected_answer"`
	CorrectAnswer  string `json:"correct_answer"`
	IsCorrect      bool   `json:"is_correct"`
	Explanation    string `json:"explanation,omitempty"`
}

type TestCheckResult struct {
	SkillName      string           `json:"skill_name"`
	TotalQuestions int              `json:"total_questions"`
	CorrectCount   int              `json:"correct_count"`
	Score          float64          `json:"score"`
	Results        []QuestionResult `json:"results"`
}

type RoadmapView struct {
	UserID          uint               `json:"user_id"`
	AnalysisID      uint               `json:"analysis_id"`
	MatchPercentage float64            `json:"match_percentage"`
	Roadmap         []RoadmapWeek      `json:"roadmap"`
	MiniProjects    []GeneratedProject `json:"mini_projects"`
}

type RecentTestScore struct {
	SkillName string    `json:"skill_name"`
	Score     float64   `json:"score"`
	TakenAt   time.Time `json:"taken_at"`
}

// Dashboard is a read-only snapshot; MatchPercentage is nil until the first analysis.
type Dashboard struct {
	UserName                string            `json:"user_name"`
	Email                   string            `json:"email"`
	XP                      int               `json:"xp"`
	Level                   int               `json:"level"`
	XPToNext                int               `json:"xp_to_next"`
	Streak                  int               `json:"streak"`
	EarnedBadges            []int             `json:"earned_badges"`
	DailyXP                 map[string]int    `json:"daily_xp"`
	MatchPercentage         *float64          `json:"match_percentage"`
	MatchedSkills           []string          `json:"matched_skills"`
	MissingSkills           []string          `json:"missing_skills"`
	TotalProgressPercentage float64           `json:"total_progress_percentage"`
	CompletedSkills         []string          `json:"completed_skills"`
	RecentTestScores        []RecentTestScore `json:"recent_test_scores"`
	ProjectProgress         []ProjectProgress `json:"project_progress"`
}

type CoachReply struct {
	Reply string `json:"reply"`
	Turns int    `json:"turns"`
}
