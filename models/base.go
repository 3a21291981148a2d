package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Timestamps adds GORM auto-times
type Timestamps struct {
	CreatedAt time.Time      `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time      `json:"updated_at" gorm:"autoUpdateTime"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`
}

// ensureID assigns a UUID when the caller has not chosen one.
func ensureID(id *string) {
	if *id == "" {
		*id = uuid.NewString()
	}
}

// All lists every table the service owns, in migration order.
func All() []interface{} {
	return []interface{}{
		&User{},
		&Module{},
		&Quiz{},
		&Challenge{},
		&UserProgress{},
		&QuizAttempt{},
		&Submission{},
		&UserBadge{},
		&Certification{},
		&ForumPost{},
		&ForumReply{},
		&Opportunity{},
		&AnalyticsEvent{},
	}
}
