package services

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"greened-backend/models"
)

// BadgeStreamInterval is how often an open stream polls for new badges.
const BadgeStreamInterval = 2 * time.Second

// BadgeCursor marks how far a stream has read. Seen holds the ids already
// delivered at exactly EarnedAt, so a badge stamped at that same instant by
// another writer is still picked up on the next poll.
type BadgeCursor struct {
	EarnedAt time.Time
	Seen     []string
}

// Advance moves the cursor past badges, which must be ordered oldest first.
func (c *BadgeCursor) Advance(badges []models.UserBadge) {
	for _, b := range badges {
		if b.EarnedAt.After(c.EarnedAt) {
			c.EarnedAt = b.EarnedAt
			c.Seen = nil
		}
		if b.EarnedAt.Equal(c.EarnedAt) {
			c.Seen = append(c.Seen, b.ID)
		}
	}
}

// LatestBadgeCursor points just past the user's newest badges. A user with no
// badges gets the zero cursor. Streams start from here.
func (s *BadgeService) LatestBadgeCursor(ctx context.Context, userID string) (BadgeCursor, error) {
	var latest []models.UserBadge
	err := s.DB.WithContext(ctx).
		Select("earned_at").
		Where("user_id = ?", userID).
		Order("earned_at DESC").
		Limit(1).
		Find(&latest).Error
	if err != nil || len(latest) == 0 {
		return BadgeCursor{}, err
	}

	cursor := BadgeCursor{EarnedAt: latest[0].EarnedAt}
	err = s.DB.WithContext(ctx).
		Model(&models.UserBadge{}).
		Where("user_id = ? AND earned_at = ?", userID, cursor.EarnedAt).
		Pluck("id", &cursor.Seen).Error
	return cursor, err
}

// BadgesSince returns badges at or after the cursor that it has not seen yet,
// oldest first.
func (s *BadgeService) BadgesSince(ctx context.Context, userID string, cursor BadgeCursor) ([]models.UserBadge, error) {
	q := s.DB.WithContext(ctx).Where("user_id = ? AND earned_at >= ?", userID, cursor.EarnedAt)
	if len(cursor.Seen) > 0 {
		q = q.Where("id NOT IN ?", cursor.Seen)
	}
	var rows []models.UserBadge
	err := q.Order("earned_at ASC").Order("id ASC").Find(&rows).Error
	return rows, err
}

// WriteBadgeEvents writes one "badge" server-sent event per badge.
func WriteBadgeEvents(w io.Writer, badges []models.UserBadge) error {
	for _, b := range badges {
		payload, err := json.Marshal(b)
		if err != nil {
			return err
		}
		if _, err := fmt.Fprintf(w, "event: badge\ndata: %s\n\n", payload); err != nil {
			return err
		}
	}
	return nil
}

// StreamBadges polls for newly earned badges and writes them to w until ctx
// ends or a flush fails, which is how a client disconnect surfaces.
func (s *BadgeService) StreamBadges(ctx context.Context, userID string, w *bufio.Writer, interval time.Duration) {
	if interval <= 0 {
		interval = BadgeStreamInterval
	}
	cursor, err := s.LatestBadgeCursor(ctx, userID)
	if err != nil {
		s.Log.Warn("badge stream init failed", "user_id", userID, "error", err)
	}

	// keepalive comment so proxies open the stream
	_, _ = w.WriteString(":\n\n")
	if err := w.Flush(); err != nil {
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			fresh, err := s.BadgesSince(ctx, userID, cursor)
			if err != nil {
				s.Log.Warn("badge stream query failed", "user_id", userID, "error", err)
				continue
			}
			if len(fresh) == 0 {
				_, _ = w.WriteString(":\n\n")
			} else {
				cursor.Advance(fresh)
				if err := WriteBadgeEvents(w, fresh); err != nil {
					return
				}
			}
			if err := w.Flush(); err != nil {
				return
			}
		case <-ctx.Done():
			return
		}
	}
}
