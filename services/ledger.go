package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"greened-backend/logger"
	"greened-backend/models"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// LedgerService owns every operation that moves a user's point total.
// Each one runs in a single transaction behind a per-user lock.
type LedgerService struct {
	DB             *gorm.DB
	Badges         *BadgeService
	Locker         Locker
	Log            *logger.Logger
	Now            func() time.Time
	ReawardModules bool
	QuizPolicy     QuizPointsPolicy
}

func NewLedgerService(db *gorm.DB, badges *BadgeService, locker Locker, log *logger.Logger) *LedgerService {
	if locker == nil {
		locker = NewLocalLocker()
	}
	return &LedgerService{
		DB:             db,
		Badges:         badges,
		Locker:         locker,
		Log:            log.With("service", "LedgerService"),
		Now:            time.Now,
		ReawardModules: true,
		QuizPolicy:     QuizPointsEvery,
	}
}

// LedgerState is the user's standing after a point event.
type LedgerState struct {
	TotalPoints int64              `json:"total_points"`
	Level       int                `json:"level"`
	Streak      int                `json:"streak"`
	LeveledUp   bool               `json:"leveled_up"`
	NewBadges   []models.UserBadge `json:"new_badges"`
}

func (s *LedgerService) withUserLock(ctx context.Context, userID string, fn func(tx *gorm.DB) error) error {
	release, err := s.Locker.Lock(ctx, userLockKey(userID))
	if err != nil {
		return fmt.Errorf("lock user %s: %w", userID, err)
	}
	defer release()
	return s.DB.WithContext(ctx).Transaction(fn)
}

// credit adds points, recomputes level and streak, then runs the badge sweep,
// all on tx. points may be zero; activity still counts toward the streak.
func (s *LedgerService) credit(tx *gorm.DB, userID string, points int64) (*LedgerState, error) {
	if points < 0 {
		return nil, invalid("points must not be negative")
	}
	if points > 0 {
		res := tx.Model(&models.User{}).
			Where("id = ?", userID).
			Update("total_points", gorm.Expr("total_points + ?", points))
		if res.Error != nil {
			return nil, res.Error
		}
		if res.RowsAffected == 0 {
			return nil, notFound("user")
		}
	}

	var user models.User
	if err := tx.Where("id = ?", userID).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFound("user")
		}
		return nil, err
	}

	now := s.Now().UTC()
	level := LevelFor(user.TotalPoints)
	streak, today := NextStreak(user.Streak, user.LastActiveDate, now)
	updates := map[string]interface{}{
		"level":            level,
		"streak":           streak,
		"last_active_date": today,
	}
	leveledUp := level > user.Level
	if leveledUp {
		updates["last_level_up_at"] = now
	}
	if err := tx.Model(&models.User{}).Where("id = ?", userID).Updates(updates).Error; err != nil {
		return nil, err
	}

	badges, err := s.Badges.Sweep(tx, userID, user.TotalPoints)
	if err != nil {
		return nil, fmt.Errorf("badge sweep: %w", err)
	}
	if badges == nil {
		badges = []models.UserBadge{}
	}

	if points > 0 {
		s.Log.Info("points credited",
			"user_id", userID, "points", points, "total_points", user.TotalPoints, "level", level)
	}
	return &LedgerState{
		TotalPoints: user.TotalPoints,
		Level:       level,
		Streak:      streak,
		LeveledUp:   leveledUp,
		NewBadges:   badges,
	}, nil
}

// ---------- Module completion ----------

type ModuleCompletion struct {
	Success         bool   `json:"success"`
	PointsEarned    int64  `json:"points_earned"`
	FirstCompletion bool   `json:"first_completion"`
	CertificationID string `json:"certification_id,omitempty"`
	LedgerState
}

// CompleteModule marks a module complete for the caller and credits its points.
func (s *LedgerService) CompleteModule(ctx context.Context, sess *Session, moduleID string, timeSpent int64, score *int) (*ModuleCompletion, error) {
	user, err := sess.requireUser()
	if err != nil {
		return nil, err
	}
	if timeSpent < 0 {
		return nil, invalid("time_spent must not be negative")
	}
	if score != nil && (*score < 0 || *score > 100) {
		return nil, invalid("score must be between 0 and 100")
	}

	var out *ModuleCompletion
	err = s.withUserLock(ctx, user.ID, func(tx *gorm.DB) error {
		module, err := findByID[models.Module](tx, moduleID, "module")
		if err != nil {
			return err
		}

		var prior models.UserProgress
		first := false
		err = tx.Where("user_id = ? AND module_id = ?", user.ID, module.ID).First(&prior).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			first = true
		case err != nil:
			return err
		default:
			first = !prior.Completed
		}

		now := s.Now().UTC()
		progress := models.UserProgress{
			UserID:      user.ID,
			ModuleID:    module.ID,
			Completed:   true,
			CompletedAt: &now,
			TimeSpent:   timeSpent,
			Score:       score,
		}
		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "module_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"completed", "completed_at", "time_spent", "score", "updated_at"}),
		}).Create(&progress).Error; err != nil {
			return err
		}

		var points int64
		if first || s.ReawardModules {
			points = module.Points
		}
		state, err := s.credit(tx, user.ID, points)
		if err != nil {
			return err
		}

		out = &ModuleCompletion{
			Success:         true,
			PointsEarned:    points,
			FirstCompletion: first,
			LedgerState:     *state,
		}
		if first {
			cert, err := s.issueCertification(tx, user.ID, module, now)
			if err != nil {
				return err
			}
			if cert != nil {
				out.CertificationID = cert.ID
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// newVerificationCode returns a 16 character upper-case code.
func newVerificationCode() string {
	return strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))[:16]
}

func (s *LedgerService) issueCertification(tx *gorm.DB, userID string, module *models.Module, now time.Time) (*models.Certification, error) {
	moduleID := module.ID
	cert := models.Certification{
		UserID:           userID,
		ModuleID:         &moduleID,
		Title:            "Certificate of Completion: " + module.Title,
		Description:      fmt.Sprintf("Awarded for completing %q", module.Title),
		IssueDate:        now,
		VerificationCode: newVerificationCode(),
	}
	res := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&cert)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, nil
	}
	s.Log.Info("certification issued", "user_id", userID, "module_id", moduleID, "code", cert.VerificationCode)
	return &cert, nil
}

// ---------- Quiz attempts ----------

type QuizAttemptResult struct {
	AttemptID      string                 `json:"attempt_id"`
	Score          int                    `json:"score"`
	CorrectAnswers int                    `json:"correct_answers"`
	TotalQuestions int                    `json:"total_questions"`
	PointsEarned   int64                  `json:"points_earned"`
	PointsAwarded  int64                  `json:"points_awarded"`
	Passed         bool                   `json:"passed"`
	Answers        []models.AttemptAnswer `json:"answers"`
	LedgerState
}

// SubmitQuizAttempt scores answers, records the attempt and credits the
// points allowed by the configured attempt policy.
func (s *LedgerService) SubmitQuizAttempt(ctx context.Context, sess *Session, quizID string, answers []models.QuizAnswer, timeSpent int64) (*QuizAttemptResult, error) {
	user, err := sess.requireUser()
	if err != nil {
		return nil, err
	}
	if timeSpent < 0 {
		return nil, invalid("time_spent must not be negative")
	}

	var out *QuizAttemptResult
	err = s.withUserLock(ctx, user.ID, func(tx *gorm.DB) error {
		quiz, err := findByID[models.Quiz](tx, quizID, "quiz")
		if err != nil {
			return err
		}

		var prior struct {
			Attempts int64
			Awarded  int64
		}
		if err := tx.Model(&models.QuizAttempt{}).
			Select("COUNT(*) AS attempts, COALESCE(SUM(points_awarded), 0) AS awarded").
			Where("user_id = ? AND quiz_id = ?", user.ID, quiz.ID).
			Scan(&prior).Error; err != nil {
			return err
		}

		result := ScoreQuiz(quiz.Questions, answers, quiz.PassingScore, quiz.Points)
		awarded := s.QuizPolicy.Award(result.PointsEarned, prior.Attempts, prior.Awarded)

		attempt := models.QuizAttempt{
			UserID:         user.ID,
			QuizID:         quiz.ID,
			ModuleID:       quiz.ModuleID,
			Score:          result.Score,
			TotalQuestions: result.TotalQuestions,
			CorrectAnswers: result.CorrectAnswers,
			TimeSpent:      timeSpent,
			Answers:        result.Answers,
			Passed:         result.Passed,
			PointsEarned:   result.PointsEarned,
			PointsAwarded:  awarded,
		}
		if err := tx.Create(&attempt).Error; err != nil {
			return err
		}

		state, err := s.credit(tx, user.ID, awarded)
		if err != nil {
			return err
		}
		out = &QuizAttemptResult{
			AttemptID:      attempt.ID,
			Score:          result.Score,
			CorrectAnswers: result.CorrectAnswers,
			TotalQuestions: result.TotalQuestions,
			PointsEarned:   result.PointsEarned,
			PointsAwarded:  awarded,
			Passed:         result.Passed,
			Answers:        result.Answers,
			LedgerState:    *state,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// ---------- Challenge submissions ----------

type SubmissionInput struct {
	ChallengeID string
	Title       string
	Description string
	ImageURL    string
	VideoURL    string
	Metadata    models.SubmissionMetadata
}

type SubmissionResult struct {
	SubmissionID string                  `json:"submission_id"`
	Status       models.SubmissionStatus `json:"status"`
	PointsEarned int64                   `json:"points_earned"`
	AutoApproved bool                    `json:"auto_approved"`
	*LedgerState
}

// SubmitChallenge records a submission. Challenges that need no verification
// are approved and credited in the same transaction.
func (s *LedgerService) SubmitChallenge(ctx context.Context, sess *Session, in SubmissionInput) (*SubmissionResult, error) {
	user, err := sess.requireUser()
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(in.Title) == "" {
		return nil, invalid("title is required")
	}

	var out *SubmissionResult
	err = s.withUserLock(ctx, user.ID, func(tx *gorm.DB) error {
		challenge, err := findByID[models.Challenge](tx, in.ChallengeID, "challenge")
		if err != nil {
			return err
		}

		sub := models.Submission{
			UserID:      user.ID,
			ChallengeID: challenge.ID,
			Title:       in.Title,
			Description: in.Description,
			ImageURL:    in.ImageURL,
			VideoURL:    in.VideoURL,
			Status:      models.SubmissionPending,
		}
		sub.Metadata = datatypes.NewJSONType(in.Metadata)
		if err := tx.Create(&sub).Error; err != nil {
			return err
		}

		out = &SubmissionResult{SubmissionID: sub.ID, Status: models.SubmissionPending}
		if challenge.RequiresVerification {
			return nil
		}

		now := s.Now().UTC()
		if err := tx.Model(&sub).Updates(map[string]interface{}{
			"status":        models.SubmissionApproved,
			"reviewed_at":   now,
			"points_earned": challenge.Points,
		}).Error; err != nil {
			return err
		}
		state, err := s.credit(tx, user.ID, challenge.Points)
		if err != nil {
			return err
		}
		out.Status = models.SubmissionApproved
		out.PointsEarned = challenge.Points
		out.AutoApproved = true
		out.LedgerState = state
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// ReviewSubmission lets a teacher or admin decide a pending or flagged
// submission. Approval credits the challenge points exactly once.
func (s *LedgerService) ReviewSubmission(ctx context.Context, sess *Session, submissionID string, status models.SubmissionStatus, notes string) (*models.Submission, error) {
	reviewer, err := sess.requireUser()
	if err != nil {
		return nil, err
	}
	if !sess.HasRole(models.RoleAdmin, models.RoleTeacher) {
		return nil, ErrUnauthorized
	}
	switch status {
	case models.SubmissionApproved, models.SubmissionRejected, models.SubmissionFlagged:
	default:
		return nil, invalid("status must be approved, rejected or flagged")
	}

	sub, err := findByID[models.Submission](s.DB.WithContext(ctx), submissionID, "submission")
	if err != nil {
		return nil, err
	}

	err = s.withUserLock(ctx, sub.UserID, func(tx *gorm.DB) error {
		current, err := findByID[models.Submission](tx, submissionID, "submission")
		if err != nil {
			return err
		}
		if current.Status != models.SubmissionPending && current.Status != models.SubmissionFlagged {
			return fmt.Errorf("%w: submission already %s", ErrConflict, current.Status)
		}

		now := s.Now().UTC()
		reviewerID := reviewer.ID
		updates := map[string]interface{}{
			"status":       status,
			"reviewed_by":  reviewerID,
			"reviewed_at":  now,
			"review_notes": notes,
		}
		var points int64
		if status == models.SubmissionApproved {
			challenge, err := findByID[models.Challenge](tx, current.ChallengeID, "challenge")
			if err != nil {
				return err
			}
			points = challenge.Points
			updates["points_earned"] = points
		}

		// Guard on the status read above so a concurrent review cannot double credit.
		res := tx.Model(&models.Submission{}).
			Where("id = ? AND status = ?", current.ID, current.Status).
			Updates(updates)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("%w: submission changed during review", ErrConflict)
		}

		if points > 0 {
			if _, err := s.credit(tx, current.UserID, points); err != nil {
				return err
			}
		}
		s.Log.Info("submission reviewed",
			"submission_id", current.ID, "status", status, "reviewer", reviewerID, "points", points)
		sub, err = findByID[models.Submission](tx, current.ID, "submission")
		return err
	})
	if err != nil {
		return nil, err
	}
	return sub, nil
}

// ---------- Reads ----------

// Progress returns the caller's progress rows, most recently updated first.
func (s *LedgerService) Progress(ctx context.Context, sess *Session) ([]models.UserProgress, error) {
	user, err := sess.requireUser()
	if err != nil {
		return nil, err
	}
	var rows []models.UserProgress
	err = s.DB.WithContext(ctx).
		Where("user_id = ?", user.ID).
		Order("updated_at DESC").
		Find(&rows).Error
	return rows, err
}

// QuizAttempts returns the caller's attempts, newest first, optionally for one module.
func (s *LedgerService) QuizAttempts(ctx context.Context, sess *Session, moduleID string) ([]models.QuizAttempt, error) {
	user, err := sess.requireUser()
	if err != nil {
		return nil, err
	}
	q := s.DB.WithContext(ctx).Where("user_id = ?", user.ID)
	if moduleID != "" {
		q = q.Where("module_id = ?", moduleID)
	}
	var rows []models.QuizAttempt
	err = q.Order("created_at DESC").Find(&rows).Error
	return rows, err
}

// Submissions returns the caller's challenge submissions, newest first.
func (s *LedgerService) Submissions(ctx context.Context, sess *Session) ([]models.Submission, error) {
	user, err := sess.requireUser()
	if err != nil {
		return nil, err
	}
	var rows []models.Submission
	err = s.DB.WithContext(ctx).
		Where("user_id = ?", user.ID).
		Order("created_at DESC").
		Find(&rows).Error
	return rows, err
}
