package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// QuizAnswer is one submitted answer before scoring.
type QuizAnswer struct {
	QuestionIndex  int `json:"question_index"`
	SelectedAnswer int `json:"selected_answer"`
}

// AttemptAnswer is a scored answer, kept for audit and display.
type AttemptAnswer struct {
	QuestionIndex  int  `json:"question_index"`
	SelectedAnswer int  `json:"selected_answer"`
	IsCorrect      bool `json:"is_correct"`
}

// QuizAttempt is written once per scoring pass and never updated.
// PointsEarned is what the attempt is worth; PointsAwarded is what was
// actually credited under the configured attempt policy.
type QuizAttempt struct {
	ID             string                             `gorm:"primaryKey;type:uuid" json:"id"`
	UserID         string                             `gorm:"type:uuid;not null;index:idx_attempt_user_quiz" json:"user_id"`
	QuizID         string                             `gorm:"type:uuid;not null;index:idx_attempt_user_quiz;index" json:"quiz_id"`
	ModuleID       string                             `gorm:"type:uuid;not null;index" json:"module_id"`
	Score          int                                `gorm:"not null" json:"score"`
	TotalQuestions int                                `gorm:"not null" json:"total_questions"`
	CorrectAnswers int                                `gorm:"not null" json:"correct_answers"`
	TimeSpent      int64                              `gorm:"not null;default:0" json:"time_spent"`
	Answers        datatypes.JSONSlice[AttemptAnswer] `json:"answers"`
	Passed         bool                               `gorm:"not null;default:false" json:"passed"`
	PointsEarned   int64                              `gorm:"not null;default:0" json:"points_earned"`
	PointsAwarded  int64                              `gorm:"not null;default:0" json:"points_awarded"`
	CreatedAt      time.Time                          `gorm:"autoCreateTime" json:"created_at"`
}

func (a *QuizAttempt) BeforeCreate(tx *gorm.DB) error {
	ensureID(&a.ID)
	return nil
}
