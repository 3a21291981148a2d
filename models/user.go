package models

import (
	"strings"
	"time"

	"gorm.io/gorm"
)

type Role string

const (
	RoleAdmin   Role = "admin"
	RoleTeacher Role = "teacher"
	RoleStudent Role = "student"
)

// RoleFrom picks the most privileged known role out of gateway-supplied role names.
func RoleFrom(names []string) Role {
	role := RoleStudent
	for _, n := range names {
		switch Role(strings.ToLower(strings.TrimSpace(n))) {
		case RoleAdmin:
			return RoleAdmin
		case RoleTeacher:
			role = RoleTeacher
		}
	}
	return role
}

// User is the local learner record. Identity is owned by the gateway/profile
// service; points, level and streak are owned here.
type User struct {
	ID             string `gorm:"primaryKey;type:uuid" json:"id"`
	ExternalUserID string `gorm:"uniqueIndex;not null" json:"external_user_id"`

	Name     string `json:"name"`
	Email    string `gorm:"index" json:"email,omitempty"`
	Image    string `gorm:"type:text" json:"image,omitempty"`
	Role     Role   `gorm:"type:varchar(16);index;default:'student'" json:"role"`
	School   string `gorm:"index" json:"school,omitempty"`
	Grade    string `json:"grade,omitempty"`
	City     string `json:"city,omitempty"`
	State    string `json:"state,omitempty"`
	Language string `gorm:"size:8;default:'en'" json:"language"` // "en" or "pa"
	Bio      string `gorm:"type:text" json:"bio,omitempty"`

	// Gamification
	TotalPoints    int64      `gorm:"not null;default:0;index" json:"total_points"`
	Level          int        `gorm:"not null;default:1" json:"level"`
	Streak         int        `gorm:"not null;default:0" json:"streak"`
	LastActiveDate string     `gorm:"size:10" json:"last_active_date,omitempty"` // YYYY-MM-DD, UTC
	LastLevelUpAt  *time.Time `json:"last_level_up_at,omitempty"`

	Timestamps
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	ensureID(&u.ID)
	return nil
}

// DisplayName falls back to "Anonymous" for users without a profile name.
func (u *User) DisplayName() string {
	if u == nil || u.Name == "" {
		return "Anonymous"
	}
	return u.Name
}
