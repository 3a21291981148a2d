package models

import (
	"time"

	"gorm.io/gorm"
)

type BadgeType string

const (
	BadgeBronze          BadgeType = "bronze"
	BadgeSilver          BadgeType = "silver"
	BadgeGold            BadgeType = "gold"
	BadgePlatinum        BadgeType = "platinum"
	BadgeEcoWarrior      BadgeType = "eco_warrior"
	BadgeQuizMaster      BadgeType = "quiz_master"
	BadgeCommunityLeader BadgeType = "community_leader"
)

// UserBadge is an awarded badge. A user holds each badge type at most once
// and badges are never revoked.
type UserBadge struct {
	ID          string    `gorm:"primaryKey;type:uuid" json:"id"`
	UserID      string    `gorm:"type:uuid;not null;uniqueIndex:idx_badge_user_type;index" json:"user_id"`
	BadgeType   BadgeType `gorm:"type:varchar(32);not null;uniqueIndex:idx_badge_user_type;index" json:"badge_type"`
	Title       string    `gorm:"not null" json:"title"`
	Description string    `json:"description"`
	ImageURL    string    `gorm:"type:text" json:"image_url,omitempty"`
	EarnedAt    time.Time `gorm:"not null" json:"earned_at"`
	Criteria    string    `json:"criteria"`
}

func (b *UserBadge) BeforeCreate(tx *gorm.DB) error {
	ensureID(&b.ID)
	return nil
}

// Certification is issued on the first completion of a module.
type Certification struct {
	ID               string    `gorm:"primaryKey;type:uuid" json:"id"`
	UserID           string    `gorm:"type:uuid;not null;uniqueIndex:idx_cert_user_module;index" json:"user_id"`
	ModuleID         *string   `gorm:"type:uuid;uniqueIndex:idx_cert_user_module;index" json:"module_id,omitempty"`
	Title            string    `gorm:"not null" json:"title"`
	Description      string    `json:"description"`
	IssueDate        time.Time `gorm:"not null" json:"issue_date"`
	CertificateURL   string    `gorm:"type:text" json:"certificate_url,omitempty"`
	VerificationCode string    `gorm:"uniqueIndex;not null;size:32" json:"verification_code"`
}

func (c *Certification) BeforeCreate(tx *gorm.DB) error {
	ensureID(&c.ID)
	return nil
}
