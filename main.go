package main

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"greened-backend/config"
	"greened-backend/handlers"
	"greened-backend/logger"
	"greened-backend/middleware"
	"greened-backend/models"
	"greened-backend/services"
	"greened-backend/utils"
	"greened-backend/workers"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	goredis "github.com/redis/go-redis/v9"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	log, err := logger.New(cfg.Env)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := gorm.Open(postgres.Open(cfg.DatabaseURL), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Warn),
	})
	if err != nil {
		log.Fatal("failed to connect to database", "error", err)
	}
	if err := db.AutoMigrate(models.All()...); err != nil {
		log.Fatal("failed to migrate database", "error", err)
	}

	tiers := services.DefaultBadgeTiers
	if cfg.BadgeTiersFile != "" {
		raw, err := os.ReadFile(cfg.BadgeTiersFile)
		if err != nil {
			log.Fatal("failed to read badge tiers", "file", cfg.BadgeTiersFile, "error", err)
		}
		if tiers, err = services.ParseBadgeTiers(raw); err != nil {
			log.Fatal("invalid badge tiers", "file", cfg.BadgeTiersFile, "error", err)
		}
		log.Info("badge tiers loaded", "file", cfg.BadgeTiersFile, "tiers", len(tiers))
	}

	var locker services.Locker = services.NewLocalLocker()
	if cfg.RedisAddr != "" {
		rdb := goredis.NewClient(&goredis.Options{Addr: cfg.RedisAddr})
		if err := rdb.Ping(ctx).Err(); err != nil {
			log.Fatal("failed to reach redis", "addr", cfg.RedisAddr, "error", err)
		}
		defer rdb.Close()
		locker = services.NewRedisLocker(rdb, 10*time.Second)
		log.Info("using redis per-user locks", "addr", cfg.RedisAddr)
	}

	var store utils.MediaStore
	if cfg.R2.Enabled() {
		store, err = utils.NewR2Store(ctx, cfg.R2.AccountID, cfg.R2.AccessKeyID, cfg.R2.AccessKeySecret, cfg.R2.Bucket, cfg.R2.CDNBaseURL)
		if err != nil {
			log.Fatal("failed to initialize R2 client", "error", err)
		}
	} else {
		log.Warn("R2 credentials not set, storing evidence on local disk")
		if store, err = utils.NewLocalStore("uploads", "/uploads"); err != nil {
			log.Fatal("failed to ensure upload dir", "error", err)
		}
	}

	userService := services.NewUserService(db, log)
	badgeService := services.NewBadgeService(db, tiers, log)
	badgeService.Locker = locker
	ledgerService := services.NewLedgerService(db, badgeService, locker, log)
	ledgerService.ReawardModules = cfg.ReawardModules
	ledgerService.QuizPolicy = services.QuizPointsPolicy(cfg.QuizPointsPolicy)
	leaderboardService := services.NewLeaderboardService(db)
	contentService := services.NewContentService(db)
	certService := services.NewCertificationService(db)
	evidenceService := services.NewEvidenceService(db, store, log)
	forumService := services.NewForumService(db)
	opportunityService := services.NewOpportunityService(db)
	analyticsService := services.NewAnalyticsService(db)
	seedService := services.NewSeedService(db, log)
	chatService := services.NewHTTPChatService(log, utils.NewHTTPClient(cfg.Chat.Timeout),
		cfg.Chat.APIKey, cfg.Chat.URL, cfg.Chat.KnowledgeURL)
	chatService.Model = cfg.Chat.Model

	if cfg.SeedOnStart {
		if _, err := seedService.Seed(ctx); err != nil {
			log.Error("seeding failed", "error", err)
		}
	}

	jobs := &services.Jobs{
		Badges:             badgeService,
		Content:            contentService,
		Opportunities:      opportunityService,
		Log:                log.With("component", "scheduler"),
		BadgeSweepInterval: cfg.BadgeSweepInterval,
	}
	sched, err := jobs.StartScheduler(ctx)
	if err != nil {
		log.Fatal("failed to start scheduler", "error", err)
	}

	if cfg.ProfileSync.URL != "" {
		workers.NewProfileSyncWorker(db, log, cfg.ProfileSync.URL, cfg.ProfileSync.EndpointPath,
			cfg.ProfileSync.Token, cfg.ProfileSync.Interval, utils.NewHTTPClient(30*time.Second)).Start(ctx)
	} else {
		log.Info("PROFILE_SYNC_URL not set, profile sync disabled")
	}

	app := fiber.New(fiber.Config{
		BodyLimit: 12 * 1024 * 1024,
	})

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	app.Use(cors.New(cors.Config{
		AllowOrigins:     strings.Join(cfg.AllowedOrigins, ","),
		AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS,PATCH,HEAD",
		AllowHeaders:     "Origin, Content-Type, Accept, Accept-Language, Authorization, X-Requested-With, X-Request-ID, X-User-ID, X-User-Roles, X-User-Name, X-User-Email",
		ExposeHeaders:    "Content-Length, Content-Type, Content-Language, X-Request-ID",
		AllowCredentials: true,
		MaxAge:           86400,
	}))
	app.Use(middleware.GatewayAuthMiddleware(cfg.GatewayToken, log))
	app.Use(middleware.Locale())
	app.Use(middleware.UserContextMiddleware(userService, log))

	secured := app.Group("/s", middleware.RequireUser())
	routers := handlers.Routers{
		Public:  app,
		Secured: secured,
		Admin:   secured.Group("/admin"),
	}
	handlers.SetupLedgerRoutes(routers, userService, ledgerService, badgeService, leaderboardService, evidenceService)
	handlers.SetupContentRoutes(routers, contentService, certService)
	handlers.SetupCommunityRoutes(routers, forumService, opportunityService, analyticsService, chatService, seedService)

	app.Static("/uploads", "./uploads")

	go func() {
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.Error("server error", "error", err)
			stop()
		}
	}()
	log.Info("server running", "port", cfg.Port, "env", cfg.Env, "quiz_policy", cfg.QuizPointsPolicy)

	<-ctx.Done()
	log.Info("shutting down server")
	if err := sched.Shutdown(); err != nil {
		log.Warn("scheduler shutdown", "error", err)
	}
	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		log.Warn("server shutdown", "error", err)
	}
}
