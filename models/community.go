package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type ForumPost struct {
	ID       string                     `gorm:"primaryKey;type:uuid" json:"id"`
	UserID   string                     `gorm:"type:uuid;not null;index" json:"user_id"`
	Title    string                     `gorm:"not null" json:"title"`
	Slug     string                     `gorm:"uniqueIndex;not null" json:"slug"`
	Content  string                     `gorm:"type:text;not null" json:"content"`
	Category string                     `gorm:"index;not null" json:"category"`
	Tags     datatypes.JSONSlice[string] `json:"tags"`
	Likes    int                        `gorm:"not null;default:0" json:"likes"`
	Views    int                        `gorm:"not null;default:0" json:"views"`
	IsPinned bool                       `gorm:"index;not null;default:false" json:"is_pinned"`
	IsLocked bool                       `gorm:"not null;default:false" json:"is_locked"`

	Timestamps
}

func (p *ForumPost) BeforeCreate(tx *gorm.DB) error {
	ensureID(&p.ID)
	return nil
}

type ForumReply struct {
	ID            string    `gorm:"primaryKey;type:uuid" json:"id"`
	PostID        string    `gorm:"type:uuid;not null;index" json:"post_id"`
	UserID        string    `gorm:"type:uuid;not null;index" json:"user_id"`
	Content       string    `gorm:"type:text;not null" json:"content"`
	Likes         int       `gorm:"not null;default:0" json:"likes"`
	ParentReplyID *string   `gorm:"type:uuid;index" json:"parent_reply_id,omitempty"`
	CreatedAt     time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (r *ForumReply) BeforeCreate(tx *gorm.DB) error {
	ensureID(&r.ID)
	return nil
}

// Opportunity is an internship, volunteer role, job or scholarship listing.
type Opportunity struct {
	ID                 string                     `gorm:"primaryKey;type:uuid" json:"id"`
	Title              string                     `gorm:"not null" json:"title"`
	TitlePunjabi       string                     `json:"title_pa,omitempty"`
	Description        string                     `gorm:"type:text" json:"description"`
	DescriptionPunjabi string                     `gorm:"type:text" json:"description_pa,omitempty"`
	Organization       string                     `gorm:"not null" json:"organization"`
	Location           string                     `json:"location"`
	Type               string                     `gorm:"type:varchar(16);index" json:"type"` // internship, volunteer, job, scholarship
	Category           string                     `gorm:"index" json:"category"`
	Requirements       datatypes.JSONSlice[string] `json:"requirements"`
	ApplicationURL     string                     `gorm:"type:text" json:"application_url,omitempty"`
	Deadline           string                     `gorm:"size:32;index" json:"deadline,omitempty"`
	IsActive           bool                       `gorm:"index;not null;default:false" json:"is_active"`
	ImageURL           string                     `gorm:"type:text" json:"image_url,omitempty"`
	ContactEmail       string                     `json:"contact_email,omitempty"`

	Timestamps
}

func (o *Opportunity) BeforeCreate(tx *gorm.DB) error {
	ensureID(&o.ID)
	return nil
}

// EventData is the typed payload of an analytics event.
type EventData struct {
	Action   string            `json:"action"`
	Category string            `json:"category,omitempty"`
	Value    *float64          `json:"value,omitempty"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

type AnalyticsEvent struct {
	ID        string                         `gorm:"primaryKey;type:uuid" json:"id"`
	UserID    *string                        `gorm:"type:uuid;index" json:"user_id,omitempty"`
	EventType string                         `gorm:"index;not null" json:"event_type"`
	EventData datatypes.JSONType[EventData] `json:"event_data"`
	SessionID string                         `json:"session_id,omitempty"`
	UserAgent string                         `gorm:"type:text" json:"user_agent,omitempty"`
	CreatedAt time.Time                      `gorm:"autoCreateTime;index" json:"created_at"`
}

func (e *AnalyticsEvent) BeforeCreate(tx *gorm.DB) error {
	ensureID(&e.ID)
	return nil
}
