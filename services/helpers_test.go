package services

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"greened-backend/logger"
	"greened-backend/models"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// newTestDB opens a private in-memory SQLite database migrated with every model.
// One connection keeps the shared-cache database alive for the whole test.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", name)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(models.All()...))
	return db
}

func fixedClock(ts string) func() time.Time {
	t, err := time.Parse(time.RFC3339, ts)
	if err != nil {
		panic(err)
	}
	return func() time.Time { return t }
}

type ledgerFixture struct {
	db     *gorm.DB
	ledger *LedgerService
	badges *BadgeService
}

func newLedgerFixture(t *testing.T) *ledgerFixture {
	t.Helper()
	db := newTestDB(t)
	log := logger.NewNop()
	clock := fixedClock("2026-03-10T09:00:00Z")

	badges := NewBadgeService(db, DefaultBadgeTiers, log)
	badges.Now = clock
	locker := NewLocalLocker()
	badges.Locker = locker
	ledger := NewLedgerService(db, badges, locker, log)
	ledger.Now = clock
	return &ledgerFixture{db: db, ledger: ledger, badges: badges}
}

func createUser(t *testing.T, db *gorm.DB, name string, role models.Role) *Session {
	t.Helper()
	u := models.User{
		ExternalUserID: "ext-" + name,
		Name:           name,
		Role:           role,
		Language:       "en",
		Level:          1,
	}
	require.NoError(t, db.Create(&u).Error)
	return &Session{User: &u}
}

func createModule(t *testing.T, db *gorm.DB, title string, points int64) *models.Module {
	t.Helper()
	m := models.Module{Title: title, Points: points, IsPublished: true, Difficulty: "beginner"}
	require.NoError(t, db.Create(&m).Error)
	return &m
}

func createQuiz(t *testing.T, db *gorm.DB, moduleID string, points int64, passing int) *models.Quiz {
	t.Helper()
	q := models.Quiz{
		ModuleID: moduleID,
		Title:    "Basics",
		Questions: []models.QuizQuestion{
			{Question: "Q1", Options: []string{"a", "b", "c", "d"}, CorrectAnswer: 1},
			{Question: "Q2", Options: []string{"a", "b", "c", "d"}, CorrectAnswer: 1},
		},
		PassingScore: passing,
		Points:       points,
	}
	require.NoError(t, db.Create(&q).Error)
	return &q
}

func createChallenge(t *testing.T, db *gorm.DB, points int64, requiresVerification bool) *models.Challenge {
	t.Helper()
	c := models.Challenge{
		Title:                "Plant a tree",
		Type:                 models.ChallengeTypeEcoTask,
		Category:             "conservation",
		Points:               points,
		IsActive:             true,
		RequiresVerification: requiresVerification,
	}
	require.NoError(t, db.Create(&c).Error)
	return &c
}

func reloadUser(t *testing.T, db *gorm.DB, id string) models.User {
	t.Helper()
	var u models.User
	require.NoError(t, db.Where("id = ?", id).First(&u).Error)
	return u
}
