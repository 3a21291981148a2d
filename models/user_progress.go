package models

import (
	"time"

	"gorm.io/gorm"
)

// UserProgress records completion of one module by one user. The composite
// unique index is what makes re-completion an update instead of a new row.
type UserProgress struct {
	ID          string     `gorm:"primaryKey;type:uuid" json:"id"`
	UserID      string     `gorm:"type:uuid;not null;uniqueIndex:idx_progress_user_module;index" json:"user_id"`
	ModuleID    string     `gorm:"type:uuid;not null;uniqueIndex:idx_progress_user_module;index" json:"module_id"`
	Completed   bool       `gorm:"not null;default:false" json:"completed"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	TimeSpent   int64      `gorm:"not null;default:0" json:"time_spent"` // seconds
	Score       *int       `json:"score,omitempty"`
	CreatedAt   time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

func (UserProgress) TableName() string {
	return "user_progress"
}

func (p *UserProgress) BeforeCreate(tx *gorm.DB) error {
	ensureID(&p.ID)
	return nil
}
