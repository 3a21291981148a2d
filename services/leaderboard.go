package services

import (
	"context"

	"greened-backend/models"

	"gorm.io/gorm"
)

const DefaultLeaderboardLimit = 10

type LeaderboardEntry struct {
	Rank        int    `json:"rank"`
	Name        string `json:"name"`
	School      string `json:"school,omitempty"`
	TotalPoints int64  `json:"total_points"`
	Level       int    `json:"level"`
}

type LeaderboardService struct {
	DB *gorm.DB
}

func NewLeaderboardService(db *gorm.DB) *LeaderboardService {
	return &LeaderboardService{DB: db}
}

// ClampLeaderboardLimit maps a missing or non-positive limit to the default.
// Larger limits pass through; the board is never longer than the user count.
func ClampLeaderboardLimit(limit int) int {
	if limit <= 0 {
		return DefaultLeaderboardLimit
	}
	return limit
}

// Top ranks users by total points. Ties go to the earlier account, then id.
func (s *LeaderboardService) Top(ctx context.Context, limit int) ([]LeaderboardEntry, error) {
	var users []models.User
	err := s.DB.WithContext(ctx).
		Select("id", "name", "school", "total_points", "level", "created_at").
		Order("total_points DESC").
		Order("created_at ASC").
		Order("id ASC").
		Limit(ClampLeaderboardLimit(limit)).
		Find(&users).Error
	if err != nil {
		return nil, err
	}

	out := make([]LeaderboardEntry, len(users))
	for i := range users {
		u := &users[i]
		level := u.Level
		if level < 1 {
			level = 1
		}
		out[i] = LeaderboardEntry{
			Rank:        i + 1,
			Name:        u.DisplayName(),
			School:      u.School,
			TotalPoints: u.TotalPoints,
			Level:       level,
		}
	}
	return out, nil
}
