package services

import (
	"context"
	"testing"

	"greened-backend/logger"
	"greened-backend/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnsureUserCreatesOnce(t *testing.T) {
	db := newTestDB(t)
	svc := NewUserService(db, logger.NewNop())
	ctx := context.Background()

	sess, err := svc.EnsureUser(ctx, Identity{ExternalUserID: "ext-1", Roles: []string{"Teacher"}})
	require.NoError(t, err)
	require.NotNil(t, sess.User)
	assert.NotEmpty(t, sess.User.ID)
	assert.Equal(t, models.RoleTeacher, sess.User.Role)
	assert.Equal(t, []models.Role{models.RoleTeacher}, sess.Roles)
	assert.True(t, sess.HasRole(models.RoleTeacher))

	again, err := svc.EnsureUser(ctx, Identity{ExternalUserID: "ext-1", Name: "Simran", Email: "simran@example.org"})
	require.NoError(t, err)
	assert.Equal(t, sess.User.ID, again.User.ID)
	assert.Equal(t, "Simran", again.User.Name, "blank name is filled in")
	assert.Equal(t, models.RoleTeacher, again.User.Role, "no gateway roles keeps the stored role")

	var count int64
	require.NoError(t, db.Model(&models.User{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)

	promoted, err := svc.EnsureUser(ctx, Identity{ExternalUserID: "ext-1", Name: "Other", Roles: []string{"admin"}})
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, promoted.User.Role)
	assert.Equal(t, "Simran", promoted.User.Name, "existing name is kept")
	assert.True(t, promoted.IsAdmin())
}

func TestEnsureUserRequiresExternalID(t *testing.T) {
	svc := NewUserService(newTestDB(t), logger.NewNop())
	_, err := svc.EnsureUser(context.Background(), Identity{ExternalUserID: "  "})
	assert.ErrorIs(t, err, ErrNotAuthenticated)
}

func TestMeReportsNextLevelAndBadges(t *testing.T) {
	f := newLedgerFixture(t)
	svc := NewUserService(f.db, logger.NewNop())
	sess := createUser(t, f.db, "asha", models.RoleStudent)
	m := createModule(t, f.db, "Intro", 120)

	_, err := f.ledger.CompleteModule(context.Background(), sess, m.ID, 0, nil)
	require.NoError(t, err)

	me, err := svc.Me(context.Background(), sess)
	require.NoError(t, err)
	assert.Equal(t, int64(120), me.TotalPoints)
	assert.Equal(t, int64(1), me.BadgeCount)
	assert.Equal(t, PointsForLevel(me.Level+1), me.NextLevelAt)

	_, err = svc.Me(context.Background(), nil)
	assert.ErrorIs(t, err, ErrNotAuthenticated)
}

func TestSearchIsAdminOnly(t *testing.T) {
	db := newTestDB(t)
	svc := NewUserService(db, logger.NewNop())
	admin := createUser(t, db, "root", models.RoleAdmin)
	student := createUser(t, db, "Harpreet", models.RoleStudent)
	createUser(t, db, "Manjit", models.RoleStudent)

	_, err := svc.Search(context.Background(), student, "", 10)
	assert.ErrorIs(t, err, ErrUnauthorized)

	rows, err := svc.Search(context.Background(), admin, "HARP", 10)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "Harpreet", rows[0].Name)

	rows, err = svc.Search(context.Background(), admin, "", 10)
	require.NoError(t, err)
	assert.Len(t, rows, 3)
}
