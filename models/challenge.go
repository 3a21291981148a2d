package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type ChallengeType string

const (
	ChallengeTypeQuiz      ChallengeType = "quiz"
	ChallengeTypeEcoTask   ChallengeType = "eco_task"
	ChallengeTypeProject   ChallengeType = "project"
	ChallengeTypeCommunity ChallengeType = "community"
)

type Challenge struct {
	ID                   string                     `gorm:"primaryKey;type:uuid" json:"id"`
	Title                string                     `gorm:"not null" json:"title"`
	TitlePunjabi         string                     `json:"title_pa,omitempty"`
	Description          string                     `gorm:"type:text" json:"description"`
	DescriptionPunjabi   string                     `gorm:"type:text" json:"description_pa,omitempty"`
	Type                 ChallengeType              `gorm:"type:varchar(16);index;not null" json:"type"`
	Category             string                     `gorm:"index" json:"category"`
	Difficulty           string                     `gorm:"type:varchar(16)" json:"difficulty"`
	Points               int64                      `gorm:"not null;default:0" json:"points"`
	ImageURL             string                     `gorm:"type:text" json:"image_url,omitempty"`
	Instructions         datatypes.JSONSlice[string] `json:"instructions"`
	InstructionsPunjabi  datatypes.JSONSlice[string] `json:"instructions_pa,omitempty"`
	IsActive             bool                       `gorm:"index;not null;default:false" json:"is_active"`
	StartDate            string                     `gorm:"size:32" json:"start_date,omitempty"`
	EndDate              string                     `gorm:"size:32;index" json:"end_date,omitempty"`
	MaxParticipants      int                        `json:"max_participants,omitempty"`
	RequiresVerification bool                       `gorm:"not null;default:false" json:"requires_verification"`

	Timestamps
}

func (c *Challenge) BeforeCreate(tx *gorm.DB) error {
	ensureID(&c.ID)
	return nil
}

type SubmissionStatus string

const (
	SubmissionPending  SubmissionStatus = "pending"
	SubmissionApproved SubmissionStatus = "approved"
	SubmissionRejected SubmissionStatus = "rejected"
	SubmissionFlagged  SubmissionStatus = "flagged"
)

// SubmissionMetadata replaces the open metadata map with the fields the
// client actually sends.
type SubmissionMetadata struct {
	Location     string `json:"location,omitempty"`
	Weather      string `json:"weather,omitempty"`
	PlantSpecies string `json:"plant_species,omitempty"`
}

// Submission is a user's claim of challenge completion.
type Submission struct {
	ID                  string                                  `gorm:"primaryKey;type:uuid" json:"id"`
	UserID              string                                  `gorm:"type:uuid;not null;index" json:"user_id"`
	ChallengeID         string                                  `gorm:"type:uuid;not null;index" json:"challenge_id"`
	Title               string                                  `gorm:"not null" json:"title"`
	Description         string                                  `gorm:"type:text" json:"description"`
	ImageURL            string                                  `gorm:"type:text" json:"image_url,omitempty"`
	VideoURL            string                                  `gorm:"type:text" json:"video_url,omitempty"`
	Status              SubmissionStatus                        `gorm:"type:varchar(16);index;not null;default:'pending'" json:"status"`
	ReviewedBy          *string                                 `gorm:"type:uuid;index" json:"reviewed_by,omitempty"`
	ReviewedAt          *time.Time                              `json:"reviewed_at,omitempty"`
	ReviewNotes         string                                  `gorm:"type:text" json:"review_notes,omitempty"`
	PointsEarned        int64                                   `gorm:"not null;default:0" json:"points_earned"`
	AIVerificationScore *float64                                `json:"ai_verification_score,omitempty"`
	Metadata            datatypes.JSONType[SubmissionMetadata] `json:"metadata"`
	CreatedAt           time.Time                               `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt           time.Time                               `gorm:"autoUpdateTime" json:"updated_at"`
}

func (s *Submission) BeforeCreate(tx *gorm.DB) error {
	ensureID(&s.ID)
	return nil
}
