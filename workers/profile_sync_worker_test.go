package workers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"greened-backend/logger"
	"greened-backend/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: gormlogger.Default.LogMode(gormlogger.Silent)})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, db.AutoMigrate(models.All()...))
	return db
}

type profileFeed struct {
	mu     sync.Mutex
	pages  [][]RemoteProfile
	sinces []string
	tokens []string
}

func (f *profileFeed) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sinces = append(f.sinces, r.URL.Query().Get("since"))
	f.tokens = append(f.tokens, r.Header.Get("X-Service-Token"))
	var page []RemoteProfile
	if len(f.pages) > 0 {
		page, f.pages = f.pages[0], f.pages[1:]
	}
	_ = json.NewEncoder(w).Encode(profileChangesResponse{Users: page})
}

func TestSyncOnceUpsertsProfilesWithoutTouchingPoints(t *testing.T) {
	db := newTestDB(t)
	existing := models.User{ExternalUserID: "ext-1", Name: "Old", Role: models.RoleStudent, Language: "en", Level: 3, TotalPoints: 400}
	require.NoError(t, db.Create(&existing).Error)

	t1 := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	t2 := t1.Add(time.Hour)
	feed := &profileFeed{pages: [][]RemoteProfile{
		{
			{ExternalID: "ext-1", Name: "Simran Kaur", Role: "Teacher", School: "GSSS Mohali", Language: "PA", UpdatedAt: t1},
			{ExternalID: "ext-2", Name: "Arjun", Role: "student", Language: "hi", UpdatedAt: t2},
			{ExternalID: "", Name: "nobody"},
		},
	}}
	srv := httptest.NewServer(feed)
	defer srv.Close()

	w := NewProfileSyncWorker(db, logger.NewNop(), srv.URL, "/api/v1/public/profiles", "svc-token", time.Minute, srv.Client())
	n, err := w.SyncOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	var u models.User
	require.NoError(t, db.Where("external_user_id = ?", "ext-1").First(&u).Error)
	assert.Equal(t, existing.ID, u.ID)
	assert.Equal(t, "Simran Kaur", u.Name)
	assert.Equal(t, models.RoleTeacher, u.Role)
	assert.Equal(t, "pa", u.Language)
	assert.Equal(t, int64(400), u.TotalPoints, "ledger columns are not overwritten")
	assert.Equal(t, 3, u.Level)

	var fresh models.User
	require.NoError(t, db.Where("external_user_id = ?", "ext-2").First(&fresh).Error)
	assert.Equal(t, "en", fresh.Language)
	assert.Equal(t, 1, fresh.Level)

	n, err = w.SyncOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	feed.mu.Lock()
	defer feed.mu.Unlock()
	require.Len(t, feed.sinces, 2)
	assert.Equal(t, time.Time{}.Format(time.RFC3339), feed.sinces[0])
	assert.Equal(t, t2.Format(time.RFC3339), feed.sinces[1], "cursor advances to the newest change")
	assert.Equal(t, []string{"svc-token", "svc-token"}, feed.tokens)
}

func TestSyncOnceReportsServiceErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down for maintenance", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	w := NewProfileSyncWorker(newTestDB(t), logger.NewNop(), srv.URL, "/profiles", "", 0, srv.Client())
	_, err := w.SyncOnce(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "503")
	assert.Contains(t, err.Error(), "down for maintenance")
}
