package services

import (
	"context"
	"errors"
	"strings"

	"greened-backend/logger"
	"greened-backend/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Identity is what the gateway asserts about the caller.
type Identity struct {
	ExternalUserID string
	Name           string
	Email          string
	Roles          []string
}

type UserService struct {
	DB  *gorm.DB
	Log *logger.Logger
}

func NewUserService(db *gorm.DB, log *logger.Logger) *UserService {
	return &UserService{DB: db, Log: log.With("service", "UserService")}
}

// EnsureUser resolves the gateway identity to a local user, creating the row
// on first sight. Gateway roles win over the stored role when present.
func (s *UserService) EnsureUser(ctx context.Context, id Identity) (*Session, error) {
	extID := strings.TrimSpace(id.ExternalUserID)
	if extID == "" {
		return nil, ErrNotAuthenticated
	}
	db := s.DB.WithContext(ctx)

	candidate := models.User{
		ExternalUserID: extID,
		Name:           strings.TrimSpace(id.Name),
		Email:          strings.TrimSpace(id.Email),
		Role:           models.RoleFrom(id.Roles),
		Language:       "en",
		Level:          1,
	}
	res := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "external_user_id"}},
		DoNothing: true,
	}).Create(&candidate)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected > 0 {
		s.Log.Info("user created", "user_id", candidate.ID, "external_user_id", extID, "role", candidate.Role)
	}

	var user models.User
	if err := db.Where("external_user_id = ?", extID).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFound("user")
		}
		return nil, err
	}

	updates := map[string]interface{}{}
	if len(id.Roles) > 0 {
		if role := models.RoleFrom(id.Roles); role != user.Role {
			updates["role"] = role
			user.Role = role
		}
	}
	if user.Name == "" && candidate.Name != "" {
		updates["name"] = candidate.Name
		user.Name = candidate.Name
	}
	if user.Email == "" && candidate.Email != "" {
		updates["email"] = candidate.Email
		user.Email = candidate.Email
	}
	if len(updates) > 0 {
		if err := db.Model(&models.User{}).Where("id = ?", user.ID).Updates(updates).Error; err != nil {
			return nil, err
		}
	}

	roles := make([]models.Role, 0, len(id.Roles))
	for _, r := range id.Roles {
		if r = strings.ToLower(strings.TrimSpace(r)); r != "" {
			roles = append(roles, models.Role(r))
		}
	}
	return &Session{User: &user, Roles: roles}, nil
}

// Profile is the caller's own view of their standing.
type Profile struct {
	models.User
	NextLevelAt int64 `json:"next_level_at"`
	BadgeCount  int64 `json:"badge_count"`
}

func (s *UserService) Me(ctx context.Context, sess *Session) (*Profile, error) {
	user, err := sess.requireUser()
	if err != nil {
		return nil, err
	}
	var fresh models.User
	if err := s.DB.WithContext(ctx).Where("id = ?", user.ID).First(&fresh).Error; err != nil {
		return nil, err
	}
	var badges int64
	if err := s.DB.WithContext(ctx).Model(&models.UserBadge{}).
		Where("user_id = ?", user.ID).Count(&badges).Error; err != nil {
		return nil, err
	}
	return &Profile{
		User:        fresh,
		NextLevelAt: PointsForLevel(fresh.Level + 1),
		BadgeCount:  badges,
	}, nil
}

// UserSummary is the admin search row; it leaves out contact details beyond email.
type UserSummary struct {
	ID             string      `json:"id"`
	ExternalUserID string      `json:"external_user_id"`
	Name           string      `json:"name"`
	Email          string      `json:"email"`
	Role           models.Role `json:"role"`
	School         string      `json:"school,omitempty"`
	TotalPoints    int64       `json:"total_points"`
	Level          int         `json:"level"`
}

// Search matches users by name or email, case-insensitively. Admin only.
func (s *UserService) Search(ctx context.Context, sess *Session, query string, limit int) ([]UserSummary, error) {
	if _, err := sess.requireUser(); err != nil {
		return nil, err
	}
	if !sess.IsAdmin() {
		return nil, ErrUnauthorized
	}

	db := s.DB.WithContext(ctx).Model(&models.User{}).Limit(limit).Order("name ASC")
	if query = strings.ToLower(strings.TrimSpace(query)); query != "" {
		term := "%" + query + "%"
		db = db.Where("LOWER(name) LIKE ? OR LOWER(email) LIKE ?", term, term)
	}

	var users []models.User
	if err := db.Find(&users).Error; err != nil {
		return nil, err
	}
	res := make([]UserSummary, len(users))
	for i, u := range users {
		res[i] = UserSummary{
			ID:             u.ID,
			ExternalUserID: u.ExternalUserID,
			Name:           u.Name,
			Email:          u.Email,
			Role:           u.Role,
			School:         u.School,
			TotalPoints:    u.TotalPoints,
			Level:          u.Level,
		}
	}
	return res, nil
}
