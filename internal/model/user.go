package model

import (
	"time"
)

const (
	InitialLevel    = 1
	InitialXPToNext = 500
)

// swagger:model User
type User struct {
	BaseModel
	Name     string `gorm:"size:100;not null" json:"name"`
	Email    string `gorm:"size:191;uniqueIndex;not null" json:"email"`
	Password string `gorm:"size:100;not null" json:"-"`

	// 游戏化字段，仅由 gamification 包修改
	XP             int            `gorm:"not null;default:0" json:"xp"`
	Level          int            `gorm:"not null;default:1" json:"level"`
	XPToNext       int            `gorm:"column:xp_to_next;not null;default:500" json:"xp_to_next"`
	Streak         int            `gorm:"not null;default:0" json:"streak"`
	LastActiveDate *time.Time     `gorm:"type:date" json:"last_active_date,omitempty"`
	EarnedBadges   []int          `gorm:"serializer:json;type:text" json:"earned_badges"`
	DailyXP        map[string]int `gorm:"column:daily_xp;serializer:json;type:text" json:"daily_xp"`
}

func (User) TableName() string {
	return "users"
}

// NewUser returns a user with the starting progression state.
func NewUser(name, email, hashedPassword string) *User {
	return &User{
		Name:         name,
		Email:        email,
		Password:     hashedPassword,
		Level:        InitialLevel,
		XPToNext:     InitialXPToNext,
		EarnedBadges: []int{},
		DailyXP:      map[string]int{},
	}
}
