package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"greened-backend/logger"
	"greened-backend/models"

	"gopkg.in/yaml.v3"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// BadgeTier is one row of the point-threshold badge table.
type BadgeTier struct {
	Type        models.BadgeType `yaml:"type" json:"type"`
	Threshold   int64            `yaml:"threshold" json:"threshold"`
	Title       string           `yaml:"title" json:"title"`
	Description string           `yaml:"description" json:"description"`
	ImageURL    string           `yaml:"image_url" json:"image_url,omitempty"`
}

// Criteria is the human-readable rule stored with an awarded badge.
func (t BadgeTier) Criteria() string {
	return fmt.Sprintf("Earn %d points", t.Threshold)
}

var DefaultBadgeTiers = []BadgeTier{
	{Type: models.BadgeBronze, Threshold: 100, Title: "Bronze Explorer", Description: "Earned 100 points"},
	{Type: models.BadgeSilver, Threshold: 250, Title: "Silver Guardian", Description: "Earned 250 points"},
	{Type: models.BadgeGold, Threshold: 500, Title: "Gold Protector", Description: "Earned 500 points"},
	{Type: models.BadgePlatinum, Threshold: 1000, Title: "Platinum Champion", Description: "Earned 1000 points"},
}

// BadgesEarned returns, in table order, every tier whose threshold the total meets.
func BadgesEarned(tiers []BadgeTier, totalPoints int64) []BadgeTier {
	var out []BadgeTier
	for _, t := range tiers {
		if totalPoints >= t.Threshold {
			out = append(out, t)
		}
	}
	return out
}

// ParseBadgeTiers reads a YAML tier table:
//
//	tiers:
//	  - type: bronze
//	    threshold: 100
//	    title: Bronze Explorer
//	    description: Earned 100 points
func ParseBadgeTiers(data []byte) ([]BadgeTier, error) {
	var doc struct {
		Tiers []BadgeTier `yaml:"tiers"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse badge tiers: %w", err)
	}
	if len(doc.Tiers) == 0 {
		return nil, errors.New("badge tiers: table is empty")
	}
	seen := make(map[models.BadgeType]bool, len(doc.Tiers))
	for i, t := range doc.Tiers {
		switch {
		case t.Type == "":
			return nil, fmt.Errorf("badge tiers: row %d has no type", i)
		case seen[t.Type]:
			return nil, fmt.Errorf("badge tiers: duplicate type %q", t.Type)
		case t.Threshold <= 0:
			return nil, fmt.Errorf("badge tiers: %q needs a positive threshold", t.Type)
		case t.Title == "":
			return nil, fmt.Errorf("badge tiers: %q has no title", t.Type)
		}
		seen[t.Type] = true
	}
	return doc.Tiers, nil
}

type BadgeService struct {
	DB     *gorm.DB
	Tiers  []BadgeTier
	Log    *logger.Logger
	Now    func() time.Time
	Locker Locker // shared with the ledger; ReconcileAll skips locking when nil
}

func NewBadgeService(db *gorm.DB, tiers []BadgeTier, log *logger.Logger) *BadgeService {
	if len(tiers) == 0 {
		tiers = DefaultBadgeTiers
	}
	return &BadgeService{DB: db, Tiers: tiers, Log: log.With("service", "BadgeService"), Now: time.Now}
}

// Sweep grants every qualifying badge the user does not hold yet. It runs on
// the caller's transaction and is idempotent: the existence check skips held
// badges and the unique (user, type) index absorbs a concurrent duplicate.
func (s *BadgeService) Sweep(tx *gorm.DB, userID string, totalPoints int64) ([]models.UserBadge, error) {
	var awarded []models.UserBadge
	for _, tier := range BadgesEarned(s.Tiers, totalPoints) {
		var count int64
		if err := tx.Model(&models.UserBadge{}).
			Where("user_id = ? AND badge_type = ?", userID, tier.Type).
			Count(&count).Error; err != nil {
			return nil, err
		}
		if count > 0 {
			continue
		}

		badge := models.UserBadge{
			UserID:      userID,
			BadgeType:   tier.Type,
			Title:       tier.Title,
			Description: tier.Description,
			ImageURL:    tier.ImageURL,
			EarnedAt:    s.Now().UTC(),
			Criteria:    tier.Criteria(),
		}
		res := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&badge)
		if res.Error != nil {
			return nil, res.Error
		}
		if res.RowsAffected == 0 {
			continue
		}
		awarded = append(awarded, badge)
		s.Log.Info("badge awarded", "user_id", userID, "badge", tier.Type, "total_points", totalPoints)
	}
	return awarded, nil
}

// ListForUser returns a user's badges, oldest first.
func (s *BadgeService) ListForUser(ctx context.Context, sess *Session) ([]models.UserBadge, error) {
	user, err := sess.requireUser()
	if err != nil {
		return nil, err
	}
	var badges []models.UserBadge
	err = s.DB.WithContext(ctx).
		Where("user_id = ?", user.ID).
		Order("earned_at ASC").
		Find(&badges).Error
	return badges, err
}

// ReconcileAll re-runs the sweep for every user at or above the lowest
// threshold. Used by the scheduler to repair badges after tier table changes.
func (s *BadgeService) ReconcileAll(ctx context.Context) (int, error) {
	if len(s.Tiers) == 0 {
		return 0, nil
	}
	lowest := s.Tiers[0].Threshold
	for _, t := range s.Tiers[1:] {
		if t.Threshold < lowest {
			lowest = t.Threshold
		}
	}

	granted := 0
	var users []models.User
	res := s.DB.WithContext(ctx).
		Select("id").
		Where("total_points >= ?", lowest).
		FindInBatches(&users, 200, func(batch *gorm.DB, _ int) error {
			for _, u := range users {
				n, err := s.reconcileUser(ctx, u.ID)
				if err != nil {
					return fmt.Errorf("sweep user %s: %w", u.ID, err)
				}
				granted += n
			}
			return nil
		})
	return granted, res.Error
}

// reconcileUser sweeps one user under the ledger lock, reading the balance
// inside the transaction. It reports badges only once they are committed.
func (s *BadgeService) reconcileUser(ctx context.Context, userID string) (int, error) {
	if s.Locker != nil {
		release, err := s.Locker.Lock(ctx, userLockKey(userID))
		if err != nil {
			return 0, err
		}
		defer release()
	}

	var awarded []models.UserBadge
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var user models.User
		if err := tx.Select("id", "total_points").Where("id = ?", userID).First(&user).Error; err != nil {
			return err
		}
		var err error
		awarded, err = s.Sweep(tx, user.ID, user.TotalPoints)
		return err
	})
	if err != nil {
		return 0, err
	}
	return len(awarded), nil
}
