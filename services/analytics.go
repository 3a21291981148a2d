package services

import (
	"context"
	"strings"

	"greened-backend/models"

	"golang.org/x/sync/errgroup"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const recentActivityLimit = 10

type TrackEventInput struct {
	EventType string
	EventData models.EventData
	SessionID string
	UserAgent string
}

type Dashboard struct {
	TotalUsers          int64                   `json:"total_users"`
	UsersByRole         map[string]int64        `json:"users_by_role"`
	TotalSubmissions    int64                   `json:"total_submissions"`
	SubmissionsByStatus map[string]int64        `json:"submissions_by_status"`
	RecentActivity      []models.AnalyticsEvent `json:"recent_activity"`
}

type AnalyticsService struct {
	DB *gorm.DB
}

func NewAnalyticsService(db *gorm.DB) *AnalyticsService {
	return &AnalyticsService{DB: db}
}

// Track stores an event. Anonymous callers are allowed.
func (s *AnalyticsService) Track(ctx context.Context, sess *Session, in TrackEventInput) (*models.AnalyticsEvent, error) {
	if strings.TrimSpace(in.EventType) == "" || strings.TrimSpace(in.EventData.Action) == "" {
		return nil, invalid("event_type and event_data.action are required")
	}
	ev := models.AnalyticsEvent{
		UserID:    sess.UserID(),
		EventType: in.EventType,
		EventData: datatypes.NewJSONType(in.EventData),
		SessionID: in.SessionID,
		UserAgent: in.UserAgent,
	}
	if err := s.DB.WithContext(ctx).Create(&ev).Error; err != nil {
		return nil, err
	}
	return &ev, nil
}

type groupCount struct {
	Label string
	Count int64
}

// Dashboard aggregates platform counts for admins.
func (s *AnalyticsService) Dashboard(ctx context.Context, sess *Session) (*Dashboard, error) {
	if _, err := sess.requireUser(); err != nil {
		return nil, err
	}
	if !sess.IsAdmin() {
		return nil, ErrUnauthorized
	}

	db := s.DB.WithContext(ctx)
	var (
		roleRows   []groupCount
		statusRows []groupCount
		recent     []models.AnalyticsEvent
	)
	g, _ := errgroup.WithContext(ctx)
	g.Go(func() error {
		return db.Model(&models.User{}).
			Select("COALESCE(role, '') AS label, COUNT(*) AS count").
			Group("COALESCE(role, '')").
			Scan(&roleRows).Error
	})
	g.Go(func() error {
		return db.Model(&models.Submission{}).
			Select("status AS label, COUNT(*) AS count").
			Group("status").
			Scan(&statusRows).Error
	})
	g.Go(func() error {
		return db.Order("created_at DESC").Limit(recentActivityLimit).Find(&recent).Error
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := &Dashboard{
		UsersByRole:         make(map[string]int64),
		SubmissionsByStatus: make(map[string]int64),
		RecentActivity:      recent,
	}
	for _, r := range roleRows {
		key := r.Label
		if key == "" {
			key = string(models.RoleStudent)
		}
		out.UsersByRole[key] += r.Count
		out.TotalUsers += r.Count
	}
	for _, r := range statusRows {
		out.SubmissionsByStatus[r.Label] += r.Count
		out.TotalSubmissions += r.Count
	}
	if out.RecentActivity == nil {
		out.RecentActivity = []models.AnalyticsEvent{}
	}
	return out, nil
}
