package workers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"greened-backend/logger"
	"greened-backend/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// RemoteProfile is one row of the profile service's change feed.
type RemoteProfile struct {
	ExternalID string    `json:"external_id"`
	Name       string    `json:"name"`
	Email      string    `json:"email"`
	Image      string    `json:"image"`
	Role       string    `json:"role"`
	School     string    `json:"school"`
	Grade      string    `json:"grade"`
	City       string    `json:"city"`
	State      string    `json:"state"`
	Language   string    `json:"language"`
	Bio        string    `json:"bio"`
	UpdatedAt  time.Time `json:"updated_at"`
}

type profileChangesResponse struct {
	Users []RemoteProfile `json:"users"`
}

// profileColumns are the only columns the sync may overwrite; points, level
// and streak belong to the ledger.
var profileColumns = []string{
	"name", "email", "image", "role", "school", "grade", "city", "state", "language", "bio", "updated_at",
}

type ProfileSyncWorker struct {
	db           *gorm.DB
	log          *logger.Logger
	interval     time.Duration
	baseURL      string
	endpointPath string
	serviceToken string
	httpClient   *http.Client

	mu       sync.Mutex
	lastSync time.Time
}

func NewProfileSyncWorker(db *gorm.DB, log *logger.Logger, baseURL, endpointPath, serviceToken string, interval time.Duration, client *http.Client) *ProfileSyncWorker {
	if interval <= 0 {
		interval = time.Minute
	}
	return &ProfileSyncWorker{
		db:           db,
		log:          log.With("worker", "ProfileSyncWorker"),
		interval:     interval,
		baseURL:      baseURL,
		endpointPath: endpointPath,
		serviceToken: serviceToken,
		httpClient:   client,
	}
}

func (w *ProfileSyncWorker) Start(ctx context.Context) {
	w.log.Info("starting profile sync worker", "base_url", w.baseURL, "interval", w.interval.String())
	go w.run(ctx)
}

func (w *ProfileSyncWorker) run(ctx context.Context) {
	if _, err := w.SyncOnce(ctx); err != nil {
		w.log.Warn("initial profile sync failed", "error", err)
	}

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			if _, err := w.SyncOnce(ctx); err != nil {
				w.log.Error("profile sync failed", "error", err)
			}
		case <-ctx.Done():
			w.log.Info("profile sync worker stopped")
			return
		}
	}
}

// SyncOnce pulls changes since the newest profile seen so far and upserts
// them. It returns the number of users written.
func (w *ProfileSyncWorker) SyncOnce(ctx context.Context) (int, error) {
	w.mu.Lock()
	since := w.lastSync
	w.mu.Unlock()

	profiles, err := w.fetch(ctx, since)
	if err != nil {
		return 0, err
	}
	if len(profiles) == 0 {
		w.log.Debug("no profile changes", "since", since.UTC().Format(time.RFC3339))
		return 0, nil
	}

	var upserted, failed int
	latest := since
	for _, p := range profiles {
		if strings.TrimSpace(p.ExternalID) == "" {
			failed++
			continue
		}
		if err := w.upsert(ctx, p); err != nil {
			failed++
			w.log.Warn("failed to upsert profile", "external_user_id", p.ExternalID, "error", err)
			continue
		}
		upserted++
		if p.UpdatedAt.After(latest) {
			latest = p.UpdatedAt
		}
	}

	w.mu.Lock()
	if latest.After(w.lastSync) {
		w.lastSync = latest
	}
	w.mu.Unlock()

	w.log.Info("profiles synced", "received", len(profiles), "upserted", upserted, "failed", failed)
	return upserted, nil
}

func (w *ProfileSyncWorker) fetch(ctx context.Context, since time.Time) ([]RemoteProfile, error) {
	base, err := url.Parse(w.baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid profile service URL %q: %w", w.baseURL, err)
	}
	endpoint := base.JoinPath(w.endpointPath)
	q := endpoint.Query()
	q.Set("since", since.UTC().Format(time.RFC3339))
	endpoint.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if w.serviceToken != "" {
		req.Header.Set("X-Service-Token", w.serviceToken)
	}

	resp, err := w.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("profile service request failed: %w", err)
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("profile service returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var out profileChangesResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("failed to decode profile changes: %w", err)
	}
	return out.Users, nil
}

func (w *ProfileSyncWorker) upsert(ctx context.Context, p RemoteProfile) error {
	lang := strings.ToLower(strings.TrimSpace(p.Language))
	if lang != "pa" {
		lang = "en"
	}
	updatedAt := p.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = time.Now().UTC()
	}
	user := models.User{
		ExternalUserID: p.ExternalID,
		Name:           p.Name,
		Email:          p.Email,
		Image:          p.Image,
		Role:           models.RoleFrom([]string{strings.ToLower(p.Role)}),
		School:         p.School,
		Grade:          p.Grade,
		City:           p.City,
		State:          p.State,
		Language:       lang,
		Bio:            p.Bio,
		Level:          1,
	}
	user.UpdatedAt = updatedAt

	return w.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "external_user_id"}},
		DoUpdates: clause.AssignmentColumns(profileColumns),
	}).Create(&user).Error
}
