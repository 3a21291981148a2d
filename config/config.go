package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config is everything main needs to wire the service, read once at startup.
type Config struct {
	Env            string
	Port           string
	DatabaseURL    string
	AllowedOrigins []string
	GatewayToken   string
	RedisAddr      string

	R2          R2Config
	Chat        ChatConfig
	ProfileSync ProfileSyncConfig

	BadgeTiersFile     string
	BadgeSweepInterval time.Duration

	ReawardModules   bool
	QuizPointsPolicy string
	SeedOnStart      bool
}

type R2Config struct {
	AccountID       string
	AccessKeyID     string
	AccessKeySecret string
	Bucket          string
	CDNBaseURL      string
}

// Enabled reports whether enough credentials are present to talk to R2.
func (c R2Config) Enabled() bool {
	return c.AccountID != "" && c.AccessKeyID != "" && c.AccessKeySecret != "" && c.Bucket != ""
}

type ChatConfig struct {
	APIKey       string
	URL          string
	Model        string
	KnowledgeURL string
	Timeout      time.Duration
}

type ProfileSyncConfig struct {
	URL          string
	EndpointPath string
	Token        string
	Interval     time.Duration
}

var ErrMissingDatabaseURL = errors.New("DATABASE_URL environment variable not set")

// Load reads .env (when present) and the process environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, reading environment variables directly")
	}
	return FromEnv()
}

// FromEnv builds a Config from the current environment without touching .env.
func FromEnv() (*Config, error) {
	cfg := &Config{
		Env:            getEnv("APP_ENV", "development"),
		Port:           getEnv("PORT", "5200"),
		DatabaseURL:    strings.TrimSpace(os.Getenv("DATABASE_URL")),
		AllowedOrigins: splitList(getEnv("ALLOWED_ORIGINS", "http://localhost:3000")),
		GatewayToken:   strings.TrimSpace(os.Getenv("GATEWAY_TOKEN")),
		RedisAddr:      strings.TrimSpace(os.Getenv("REDIS_ADDR")),
		R2: R2Config{
			AccountID:       os.Getenv("CLOUDFLARE_ACCOUNT_ID"),
			AccessKeyID:     os.Getenv("R2_ACCESS_KEY_ID"),
			AccessKeySecret: os.Getenv("R2_ACCESS_KEY_SECRET"),
			Bucket:          os.Getenv("R2_BUCKET_NAME"),
			CDNBaseURL:      os.Getenv("CDN_BASE_URL"),
		},
		Chat: ChatConfig{
			APIKey:       strings.TrimSpace(os.Getenv("OPENROUTER_API_KEY")),
			URL:          getEnv("OPENROUTER_URL", "https://openrouter.ai/api/v1/chat/completions"),
			Model:        getEnv("CHAT_MODEL", "openai/gpt-4o"),
			KnowledgeURL: getEnv("KNOWLEDGE_URL", "https://en.wikipedia.org/api/rest_v1/page/summary"),
		},
		ProfileSync: ProfileSyncConfig{
			URL:          strings.TrimSpace(os.Getenv("PROFILE_SYNC_URL")),
			EndpointPath: getEnv("PROFILE_SYNC_PATH", "/api/v1/public/profiles"),
			Token:        os.Getenv("PROFILE_SYNC_TOKEN"),
		},
		BadgeTiersFile:   strings.TrimSpace(os.Getenv("BADGE_TIERS_FILE")),
		QuizPointsPolicy: strings.ToLower(getEnv("LEDGER_QUIZ_POINTS_POLICY", "every")),
	}

	var err error
	if cfg.Chat.Timeout, err = getDuration("CHAT_TIMEOUT", 60*time.Second); err != nil {
		return nil, err
	}
	if cfg.ProfileSync.Interval, err = getDuration("PROFILE_SYNC_INTERVAL", time.Minute); err != nil {
		return nil, err
	}
	if cfg.BadgeSweepInterval, err = getDuration("BADGE_SWEEP_INTERVAL", 15*time.Minute); err != nil {
		return nil, err
	}
	if cfg.ReawardModules, err = getBool("LEDGER_REAWARD_MODULES", true); err != nil {
		return nil, err
	}
	if cfg.SeedOnStart, err = getBool("SEED_ON_START", false); err != nil {
		return nil, err
	}

	switch cfg.QuizPointsPolicy {
	case "every", "first", "best":
	default:
		return nil, fmt.Errorf("LEDGER_QUIZ_POINTS_POLICY must be every, first or best (got %q)", cfg.QuizPointsPolicy)
	}

	if cfg.DatabaseURL == "" {
		return nil, ErrMissingDatabaseURL
	}
	return cfg, nil
}

func getEnv(name, def string) string {
	if v := strings.TrimSpace(os.Getenv(name)); v != "" {
		return v
	}
	return def
}

func getDuration(name string, def time.Duration) (time.Duration, error) {
	v := strings.TrimSpace(os.Getenv(name))
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("%s: invalid duration %q", name, v)
	}
	return d, nil
}

func getBool(name string, def bool) (bool, error) {
	v := strings.TrimSpace(os.Getenv(name))
	if v == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("%s: invalid bool %q", name, v)
	}
	return b, nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
