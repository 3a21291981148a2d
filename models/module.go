package models

import (
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Module is a static unit of learning content with a fixed point reward.
type Module struct {
	ID                 string `gorm:"primaryKey;type:uuid" json:"id"`
	Title              string `gorm:"not null" json:"title"`
	TitlePunjabi       string `json:"title_pa,omitempty"`
	Description        string `gorm:"type:text" json:"description"`
	DescriptionPunjabi string `gorm:"type:text" json:"description_pa,omitempty"`
	Content            string `gorm:"type:text" json:"content"`
	ContentPunjabi     string `gorm:"type:text" json:"content_pa,omitempty"`
	ImageURL           string `gorm:"type:text" json:"image_url,omitempty"`
	Difficulty         string `gorm:"type:varchar(16);index" json:"difficulty"` // beginner, intermediate, advanced
	EstimatedTime      int    `json:"estimated_time"`                           // minutes
	Points             int64  `gorm:"not null;default:0" json:"points"`
	Category           string `gorm:"index" json:"category"`
	IsPublished        bool   `gorm:"index;not null;default:false" json:"is_published"`
	Order              int    `gorm:"column:sort_order;not null;default:0" json:"order"`

	Timestamps
}

func (m *Module) BeforeCreate(tx *gorm.DB) error {
	ensureID(&m.ID)
	return nil
}

// QuizQuestion is stored inline on the quiz as a JSON array element.
type QuizQuestion struct {
	Question           string   `json:"question"`
	QuestionPunjabi    string   `json:"question_pa,omitempty"`
	Options            []string `json:"options"`
	OptionsPunjabi     []string `json:"options_pa,omitempty"`
	CorrectAnswer      int      `json:"correct_answer"`
	Explanation        string   `json:"explanation,omitempty"`
	ExplanationPunjabi string   `json:"explanation_pa,omitempty"`
}

type Quiz struct {
	ID           string                           `gorm:"primaryKey;type:uuid" json:"id"`
	ModuleID     string                           `gorm:"type:uuid;not null;index" json:"module_id"`
	Title        string                           `gorm:"not null" json:"title"`
	TitlePunjabi string                           `json:"title_pa,omitempty"`
	Questions    datatypes.JSONSlice[QuizQuestion] `json:"questions"`
	TimeLimit    int                              `json:"time_limit,omitempty"` // seconds
	PassingScore int                              `gorm:"not null" json:"passing_score"` // percentage
	Points       int64                            `gorm:"not null;default:0" json:"points"`

	Timestamps
}

func (q *Quiz) BeforeCreate(tx *gorm.DB) error {
	ensureID(&q.ID)
	return nil
}
