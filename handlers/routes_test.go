package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"greened-backend/logger"
	"greened-backend/middleware"
	"greened-backend/models"
	"greened-backend/services"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

type testApp struct {
	app *fiber.App
	db  *gorm.DB
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: gormlogger.Default.LogMode(gormlogger.Silent)})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, db.AutoMigrate(models.All()...))

	log := logger.NewNop()
	users := services.NewUserService(db, log)
	badges := services.NewBadgeService(db, services.DefaultBadgeTiers, log)
	ledger := services.NewLedgerService(db, badges, services.NewLocalLocker(), log)

	app := fiber.New()
	app.Use(middleware.GatewayAuthMiddleware("gw-secret", log))
	app.Use(middleware.Locale())
	app.Use(middleware.UserContextMiddleware(users, log))
	secured := app.Group("/s", middleware.RequireUser())
	r := Routers{Public: app, Secured: secured, Admin: secured.Group("/admin")}

	SetupLedgerRoutes(r, users, ledger, badges, services.NewLeaderboardService(db), services.NewEvidenceService(db, nil, log))
	SetupContentRoutes(r, services.NewContentService(db), services.NewCertificationService(db))
	SetupCommunityRoutes(r, services.NewForumService(db), services.NewOpportunityService(db),
		services.NewAnalyticsService(db), services.NewChatService(log, services.NewTemplateResponder()),
		services.NewSeedService(db, log))
	return &testApp{app: app, db: db}
}

type caller struct {
	id    string
	roles string
}

var (
	anonymous = caller{}
	student   = caller{id: "student-1", roles: "student"}
	teacher   = caller{id: "teacher-1", roles: "teacher"}
	admin     = caller{id: "admin-1", roles: "admin"}
)

func (a *testApp) do(t *testing.T, who caller, method, path string, body interface{}) (int, []byte) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Authorization", "Bearer gw-secret")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if who.id != "" {
		req.Header.Set("X-User-ID", who.id)
		req.Header.Set("X-User-Name", who.id)
		req.Header.Set("X-User-Roles", who.roles)
	}
	resp, err := a.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	out, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, out
}

func decode[T any](t *testing.T, raw []byte) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(raw, &v), string(raw))
	return v
}

func TestGatewayTokenRequired(t *testing.T) {
	a := newTestApp(t)
	req := httptest.NewRequest(http.MethodGet, "/leaderboard", nil)
	resp, err := a.app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	req = httptest.NewRequest(http.MethodGet, "/leaderboard", nil)
	req.Header.Set("Authorization", "Bearer wrong")
	resp, err = a.app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestSecuredRoutesNeedUser(t *testing.T) {
	a := newTestApp(t)
	status, _ := a.do(t, anonymous, http.MethodGet, "/s/me", nil)
	assert.Equal(t, http.StatusUnauthorized, status)

	status, body := a.do(t, student, http.MethodGet, "/s/me", nil)
	require.Equal(t, http.StatusOK, status, string(body))
	me := decode[map[string]interface{}](t, body)
	assert.Equal(t, "student-1", me["external_user_id"])
	assert.EqualValues(t, 1, me["level"])
}

func TestLedgerFlowOverHTTP(t *testing.T) {
	a := newTestApp(t)

	status, body := a.do(t, admin, http.MethodPost, "/s/admin/seed", nil)
	require.Equal(t, http.StatusOK, status, string(body))
	assert.True(t, decode[services.SeedResult](t, body).Seeded)

	status, body = a.do(t, anonymous, http.MethodGet, "/modules", nil)
	require.Equal(t, http.StatusOK, status)
	modules := decode[[]services.ModuleView](t, body)
	require.Len(t, modules, 3)

	status, body = a.do(t, student, http.MethodPost, "/s/modules/"+modules[0].ID+"/complete", map[string]interface{}{"time_spent": 120})
	require.Equal(t, http.StatusOK, status, string(body))
	done := decode[services.ModuleCompletion](t, body)
	assert.Equal(t, int64(50), done.PointsEarned)
	assert.NotEmpty(t, done.CertificationID)

	status, body = a.do(t, anonymous, http.MethodGet, "/modules/"+modules[0].ID+"/quiz", nil)
	require.Equal(t, http.StatusOK, status)
	quiz := decode[services.QuizView](t, body)
	assert.NotContains(t, string(body), "correct_answer")

	answers := []models.QuizAnswer{{QuestionIndex: 0, SelectedAnswer: 0}, {QuestionIndex: 1, SelectedAnswer: 0}}
	status, body = a.do(t, student, http.MethodPost, "/s/quizzes/"+quiz.ID+"/attempts", map[string]interface{}{"answers": answers})
	require.Equal(t, http.StatusCreated, status, string(body))
	attempt := decode[services.QuizAttemptResult](t, body)
	assert.Equal(t, 2, attempt.TotalQuestions)

	status, body = a.do(t, anonymous, http.MethodGet, "/leaderboard?limit=5", nil)
	require.Equal(t, http.StatusOK, status)
	board := decode[[]services.LeaderboardEntry](t, body)
	require.Len(t, board, 2, "the seeding admin is ranked too")
	assert.Equal(t, "student-1", board[0].Name)
	assert.Equal(t, attempt.TotalPoints, board[0].TotalPoints)
}

func TestSubmissionReviewOverHTTP(t *testing.T) {
	a := newTestApp(t)
	ch := models.Challenge{Title: "Plant", Type: models.ChallengeTypeEcoTask, Points: 100, IsActive: true, RequiresVerification: true}
	require.NoError(t, a.db.Create(&ch).Error)

	status, body := a.do(t, student, http.MethodPost, "/s/challenges/"+ch.ID+"/submissions", map[string]interface{}{})
	assert.Equal(t, http.StatusBadRequest, status, "title is required")

	status, body = a.do(t, student, http.MethodPost, "/s/challenges/"+ch.ID+"/submissions",
		map[string]interface{}{"title": "Neem sapling", "metadata": map[string]string{"plant_species": "neem"}})
	require.Equal(t, http.StatusCreated, status, string(body))
	sub := decode[services.SubmissionResult](t, body)
	assert.Equal(t, models.SubmissionPending, sub.Status)

	path := "/s/admin/submissions/" + sub.SubmissionID + "/review"
	status, _ = a.do(t, student, http.MethodPatch, path, map[string]string{"status": "approved"})
	assert.Equal(t, http.StatusForbidden, status)

	status, _ = a.do(t, teacher, http.MethodPatch, path, map[string]string{"status": "maybe"})
	assert.Equal(t, http.StatusBadRequest, status)

	status, body = a.do(t, teacher, http.MethodPatch, path, map[string]string{"status": "approved", "notes": "great"})
	require.Equal(t, http.StatusOK, status, string(body))

	status, _ = a.do(t, teacher, http.MethodPatch, path, map[string]string{"status": "approved"})
	assert.Equal(t, http.StatusConflict, status)

	status, body = a.do(t, student, http.MethodGet, "/s/me", nil)
	require.Equal(t, http.StatusOK, status)
	me := decode[map[string]interface{}](t, body)
	assert.EqualValues(t, 100, me["total_points"])
	assert.EqualValues(t, 1, me["badge_count"])
}

func TestNotFoundMapping(t *testing.T) {
	a := newTestApp(t)
	status, body := a.do(t, student, http.MethodPost, "/s/modules/3f0e4a9c-2b7d-4d8e-9a51-6c2f0b1d7e44/complete", nil)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Contains(t, string(body), "module not found")

	status, _ = a.do(t, anonymous, http.MethodGet, "/certifications/verify/UNKNOWN", nil)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestLocaleNegotiation(t *testing.T) {
	a := newTestApp(t)
	m := models.Module{Title: "Water", TitlePunjabi: "ਪਾਣੀ", IsPublished: true}
	require.NoError(t, a.db.Create(&m).Error)

	req := httptest.NewRequest(http.MethodGet, "/modules", nil)
	req.Header.Set("Authorization", "Bearer gw-secret")
	req.Header.Set("Accept-Language", "pa-IN,pa;q=0.9,en;q=0.5")
	resp, err := a.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "pa", resp.Header.Get("Content-Language"))
	raw, _ := io.ReadAll(resp.Body)
	views := decode[[]services.ModuleView](t, raw)
	require.Len(t, views, 1)
	assert.Equal(t, "ਪਾਣੀ", views[0].Title)

	status, body := a.do(t, anonymous, http.MethodGet, "/modules?lang=en", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Water", decode[[]services.ModuleView](t, body)[0].Title)
}

func TestCommunityOverHTTP(t *testing.T) {
	a := newTestApp(t)

	status, body := a.do(t, student, http.MethodPost, "/s/forums/posts",
		map[string]interface{}{"title": "Composting tips", "content": "Share yours", "category": "Waste Management"})
	require.Equal(t, http.StatusCreated, status, string(body))
	post := decode[models.ForumPost](t, body)
	assert.Equal(t, "waste-management", post.Category)

	status, body = a.do(t, teacher, http.MethodPost, "/s/forums/posts/"+post.ID+"/replies", map[string]string{"content": "Use dry leaves"})
	require.Equal(t, http.StatusCreated, status, string(body))

	status, body = a.do(t, anonymous, http.MethodGet, "/forums/posts/"+post.ID, nil)
	require.Equal(t, http.StatusOK, status)
	full := decode[services.PostWithReplies](t, body)
	require.Len(t, full.Replies, 1)
	assert.Equal(t, "teacher-1", full.Replies[0].Author.Name)

	status, body = a.do(t, anonymous, http.MethodPost, "/analytics/events",
		map[string]interface{}{"event_type": "page_view", "event_data": map[string]string{"action": "open"}})
	require.Equal(t, http.StatusCreated, status, string(body))
	assert.NotEmpty(t, decode[map[string]string](t, body)["id"])

	status, _ = a.do(t, student, http.MethodGet, "/s/admin/analytics", nil)
	assert.Equal(t, http.StatusForbidden, status)
	status, body = a.do(t, admin, http.MethodGet, "/s/admin/analytics", nil)
	require.Equal(t, http.StatusOK, status, string(body))
	dash := decode[services.Dashboard](t, body)
	assert.Equal(t, int64(3), dash.TotalUsers)

	status, body = a.do(t, anonymous, http.MethodPost, "/chat",
		map[string]interface{}{"messages": []map[string]string{{"role": "user", "content": "How do I compost?"}}})
	require.Equal(t, http.StatusOK, status, string(body))
	assert.Equal(t, "template", decode[services.ChatReply](t, body).Source)

	status, _ = a.do(t, anonymous, http.MethodPost, "/chat", map[string]interface{}{"messages": []map[string]string{}})
	assert.Equal(t, http.StatusBadRequest, status)

	status, body = a.do(t, anonymous, http.MethodPost, "/chat",
		map[string]interface{}{"messages": []map[string]string{{"role": "user", "content": "hello there"}}})
	require.Equal(t, http.StatusOK, status, string(body))
	greeting := decode[services.ChatReply](t, body)
	assert.Equal(t, "template", greeting.Source)
	assert.Contains(t, greeting.Content, "EcoMentor")
}
