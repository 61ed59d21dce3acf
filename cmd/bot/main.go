// Package main - entry point for the Loser Challenge Hub service.
//
// One process carries the whole hub: the weekly goal challenge engine,
// the daily puzzle leaderboard, the cron scheduler that drives cycle
// boundaries, the Discord notifier, and the admin HTTP surface.
//
// The layout follows Clean Architecture:
// - Domain: challenge and puzzle rules with no external dependencies
// - Application: command/query handlers and event fallout
// - Infrastructure: postgres/redis persistence, Discord REST, scheduler
// - Interface: admin HTTP endpoints
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/loser-hub/loser-challenge-hub/config"

	// Application layer
	"github.com/loser-hub/loser-challenge-hub/internal/application/command"
	"github.com/loser-hub/loser-challenge-hub/internal/application/eventhandler"
	"github.com/loser-hub/loser-challenge-hub/internal/application/query"
	"github.com/loser-hub/loser-challenge-hub/internal/domain/goal"
	"github.com/loser-hub/loser-challenge-hub/internal/domain/notification"
	"github.com/loser-hub/loser-challenge-hub/internal/domain/shared"

	// Infrastructure layer
	"github.com/loser-hub/loser-challenge-hub/internal/infrastructure/backup"
	"github.com/loser-hub/loser-challenge-hub/internal/infrastructure/external/discord"
	"github.com/loser-hub/loser-challenge-hub/internal/infrastructure/messaging"
	"github.com/loser-hub/loser-challenge-hub/internal/infrastructure/persistence/postgres"
	"github.com/loser-hub/loser-challenge-hub/internal/infrastructure/persistence/redis"
	"github.com/loser-hub/loser-challenge-hub/internal/infrastructure/scheduler"
	"github.com/loser-hub/loser-challenge-hub/internal/infrastructure/scheduler/jobs"

	// Interface layer
	httpserver "github.com/loser-hub/loser-challenge-hub/internal/interface/http"

	// Packages
	"github.com/loser-hub/loser-challenge-hub/pkg/logger"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "fatal error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	// ─────────────────────────────────────────────────────────────────────────
	// 1. CONFIGURATION
	// ─────────────────────────────────────────────────────────────────────────
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 2. LOGGING
	// ─────────────────────────────────────────────────────────────────────────
	log := setupLogger(cfg)
	log.Info("starting Loser Challenge Hub",
		"env", cfg.App.Environment,
		"debug", cfg.App.Debug,
		"version", cfg.App.Version,
		"timezone", cfg.App.Timezone,
	)

	// ─────────────────────────────────────────────────────────────────────────
	// 3. DATABASE (PostgreSQL)
	// ─────────────────────────────────────────────────────────────────────────
	log.Info("connecting to database...")
	dbConn, err := postgres.NewConnectionFromURL(ctx, cfg.Database.URL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer func() {
		log.Info("closing database connection...")
		dbConn.Close()
	}()

	if err := dbConn.Ping(ctx); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}
	log.Info("database connection established")

	// ─────────────────────────────────────────────────────────────────────────
	// 4. MIGRATIONS
	// ─────────────────────────────────────────────────────────────────────────
	log.Info("running database migrations...")
	migrator := postgres.NewMigrator(dbConn)
	if err := migrator.Migrate(ctx); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	log.Info("migrations completed")

	// ─────────────────────────────────────────────────────────────────────────
	// 5. REDIS (optional)
	// ─────────────────────────────────────────────────────────────────────────
	var redisCache *redis.Cache
	var goalCache *redis.GoalCache

	if !cfg.Redis.Disabled {
		log.Info("connecting to Redis...")
		redisCfg := redis.DefaultConfig()
		redisCfg.Host = cfg.Redis.Host
		redisCfg.Port = cfg.Redis.Port
		redisCfg.Password = cfg.Redis.Password
		redisCfg.DB = cfg.Redis.DB
		redisCfg.PoolSize = cfg.Redis.PoolSize
		redisCfg.MinIdleConns = cfg.Redis.MinIdleConns
		redisCfg.DialTimeout = cfg.Redis.DialTimeout
		redisCfg.ReadTimeout = cfg.Redis.ReadTimeout
		redisCfg.WriteTimeout = cfg.Redis.WriteTimeout

		redisCache, err = redis.NewCache(redisCfg)
		if err != nil {
			log.Warn("failed to connect to Redis, caching disabled", "error", err)
			redisCache = nil
		} else {
			defer redisCache.Close()
			goalCache = redis.NewGoalCache(redisCache)
			log.Info("Redis connection established")
		}
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 6. EVENT BUS AND DISPATCHER
	// ─────────────────────────────────────────────────────────────────────────
	log.Info("initializing event bus...")

	busConfig := messaging.DefaultInMemoryEventBusConfig()
	busConfig.Logger = log

	var eventBus shared.EventBus
	if cfg.Redis.EventBus && redisCache != nil {
		redisBus, err := messaging.NewRedisEventBus(messaging.RedisEventBusConfig{
			Client:         messaging.NewGoRedisClient(redisCache.Client()),
			LocalBusConfig: busConfig,
			Logger:         log,
		})
		if err != nil {
			return fmt.Errorf("failed to create redis event bus: %w", err)
		}
		eventBus = redisBus
		log.Info("event bus backed by Redis Pub/Sub")
	} else {
		eventBus = messaging.NewInMemoryEventBus(busConfig)
	}
	defer func() {
		log.Info("closing event bus...")
		if closer, ok := eventBus.(interface{ Close() error }); ok {
			_ = closer.Close()
		}
	}()

	dispatcher := messaging.NewDispatcher(messaging.DispatcherConfig{
		EventBus:            eventBus,
		WorkerPoolSize:      5,
		DeadLetterQueueSize: 100,
		Logger:              log,
	})
	dispatcher.Use(messaging.RecoveryMiddleware(log))
	dispatcher.Use(messaging.LoggingMiddleware(log))

	// ─────────────────────────────────────────────────────────────────────────
	// 7. DISCORD CLIENT
	// ─────────────────────────────────────────────────────────────────────────
	log.Info("initializing Discord client...")

	discordCfg := discord.DefaultClientConfig(cfg.Discord.Token)
	discordCfg.GuildID = cfg.Discord.GuildID
	discordCfg.PenaltyRoleID = cfg.Discord.PenaltyRoleID
	discordCfg.ChallengeChannelID = cfg.Discord.ChallengeChannelID
	discordCfg.PuzzleChannelID = cfg.Discord.PuzzleChannelID
	discordCfg.Timeout = cfg.Discord.RequestTimeout
	discordCfg.Logger = log
	discordCfg.Debug = cfg.App.Debug

	discordClient, err := discord.NewClient(discordCfg)
	if err != nil {
		return fmt.Errorf("failed to create Discord client: %w", err)
	}

	if err := discordClient.Ping(ctx); err != nil {
		log.Warn("Discord API not reachable at startup", "error", err)
	}

	var notifier notification.Notifier = discordClient
	var roleSync notification.RoleSync
	if cfg.Notify.PenaltyRoleSync && cfg.Discord.GuildID != "" {
		roleSync = discordClient
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 8. REPOSITORIES
	// ─────────────────────────────────────────────────────────────────────────
	log.Info("initializing repositories...")
	participantRepo := postgres.NewParticipantRepository(dbConn)
	goalRepo := postgres.NewGoalRepository(dbConn)
	progressRepo := postgres.NewProgressRepository(dbConn)
	logRepo := postgres.NewLogRepository(dbConn)
	verdictRepo := postgres.NewVerdictRepository(dbConn)
	streakRepo := postgres.NewStreakRepository(dbConn)
	puzzleRepo := postgres.NewPuzzleRepository(dbConn)
	podiumRepo := postgres.NewPodiumRepository(dbConn)
	skipStore := postgres.NewSkipStore(dbConn)
	watermarkRepo := postgres.NewWatermarkRepository(dbConn)

	// ─────────────────────────────────────────────────────────────────────────
	// 9. BACKUP STORE
	// ─────────────────────────────────────────────────────────────────────────
	snapshotStore, err := backup.NewFileStore(cfg.Backup.Dir)
	if err != nil {
		return fmt.Errorf("failed to open backup store: %w", err)
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 10. APPLICATION LAYER
	// ─────────────────────────────────────────────────────────────────────────
	log.Info("initializing application layer...")

	evaluateHandler := command.NewEvaluateCycleHandler(
		participantRepo, goalRepo, progressRepo, verdictRepo, streakRepo,
		roleSync, notifier, eventBus,
	)
	resetHandler := command.NewResetCycleHandler(progressRepo, participantRepo, eventBus)
	penaltyHandler := command.NewApplyDailyPenaltyHandler(puzzleRepo, skipStore, notifier, eventBus)
	closePuzzlesHandler := command.NewClosePuzzleCycleHandler(puzzleRepo, podiumRepo, skipStore, notifier, eventBus)
	backupHandler := command.NewCreateBackupHandler(
		participantRepo, goalRepo, progressRepo, streakRepo, puzzleRepo, snapshotStore,
	)
	restoreHandler := command.NewRestoreBackupHandler(
		participantRepo, goalRepo, progressRepo, streakRepo, puzzleRepo, snapshotStore,
	)

	teamSummaryQuery := query.NewGetTeamSummaryHandler(participantRepo, goalRepo, progressRepo, streakRepo)
	memberSummaryQuery := query.NewGetMemberSummaryHandler(goalRepo, progressRepo, logRepo, goalCacheOrNil(goalCache))
	standingsQuery := query.NewGetPuzzleStandingsHandler(puzzleRepo, podiumRepo)
	historyQuery := query.NewGetVerdictHistoryHandler(verdictRepo, streakRepo)
	activityLogQuery := query.NewGetActivityLogHandler(logRepo)

	// ─────────────────────────────────────────────────────────────────────────
	// 11. EVENT HANDLERS
	// ─────────────────────────────────────────────────────────────────────────
	log.Info("registering event handlers...")

	progressFallout := eventhandler.NewOnProgressLoggedHandler(goalCacheOrNil(goalCache), log)
	for _, eventType := range progressFallout.EventTypes() {
		if err := dispatcher.Register(eventType, "on_progress_logged", progressFallout.Handle); err != nil {
			return fmt.Errorf("failed to register event handler: %w", err)
		}
	}

	boundaryFallout := eventhandler.NewOnCycleBoundaryHandler(participantRepo, goalCacheOrNil(goalCache), log)
	for _, eventType := range boundaryFallout.EventTypes() {
		if err := dispatcher.Register(eventType, "on_cycle_boundary", boundaryFallout.Handle); err != nil {
			return fmt.Errorf("failed to register event handler: %w", err)
		}
	}

	if err := dispatcher.Start(); err != nil {
		return fmt.Errorf("failed to start dispatcher: %w", err)
	}
	defer func() {
		log.Info("stopping dispatcher...")
		_ = dispatcher.Stop()
	}()

	// ─────────────────────────────────────────────────────────────────────────
	// 12. SCHEDULER
	// ─────────────────────────────────────────────────────────────────────────
	var sched *scheduler.Scheduler

	if cfg.Scheduler.Enabled {
		log.Info("initializing scheduler...")

		guard := scheduler.NewGuard(watermarkRepo, log)

		sched = scheduler.New(scheduler.Config{
			Logger:   log,
			Timezone: cfg.App.Location,
		})

		kickoffNotifier := notifier
		if !cfg.Notify.WeeklyKickoff {
			kickoffNotifier = nil
		}
		reminderNotifier := notifier
		if !cfg.Notify.NightlyReminder {
			reminderNotifier = nil
		}

		type jobSpec struct {
			job      scheduler.Job
			expr     string
			override string
		}
		specs := []jobSpec{
			{jobs.NewEvaluateWeekJob(guard, evaluateHandler, backupHandler, log), scheduler.ExprEvaluateWeek, cfg.Scheduler.EvaluateWeekCron},
			{jobs.NewResetWeekJob(guard, resetHandler, log), scheduler.ExprResetWeek, cfg.Scheduler.ResetWeekCron},
			{jobs.NewDailyPenaltyJob(guard, penaltyHandler, log), scheduler.ExprDailyPenalty, cfg.Scheduler.DailyPenaltyCron},
			{jobs.NewClosePuzzlesJob(guard, closePuzzlesHandler, log), scheduler.ExprClosePuzzles, cfg.Scheduler.ClosePuzzlesCron},
			{jobs.NewWeeklyKickoffJob(guard, participantRepo, goalRepo, kickoffNotifier, log), scheduler.ExprWeeklyKickoff, cfg.Scheduler.WeeklyKickoffCron},
			{jobs.NewNightlyReminderJob(guard, puzzleRepo, skipStore, reminderNotifier, log), scheduler.ExprNightlyReminder, cfg.Scheduler.NightlyReminderCron},
		}

		for _, spec := range specs {
			expr := spec.expr
			if spec.override != "" {
				expr = spec.override
			}
			schedule, err := scheduler.NewCronSchedule(expr, cfg.App.Location)
			if err != nil {
				return fmt.Errorf("invalid cron expression for %s: %w", spec.job.Name(), err)
			}
			if err := sched.Register(spec.job, schedule); err != nil {
				return fmt.Errorf("failed to register job %s: %w", spec.job.Name(), err)
			}
		}

		if err := sched.Start(ctx); err != nil {
			return fmt.Errorf("failed to start scheduler: %w", err)
		}
		defer func() {
			log.Info("stopping scheduler...")
			_ = sched.Stop()
		}()

		log.Info("scheduler started", "jobs", len(specs))
	} else {
		log.Info("scheduler disabled")
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 13. HTTP SERVER
	// ─────────────────────────────────────────────────────────────────────────
	var httpServer *httpserver.Server
	errCh := make(chan error, 1)

	if cfg.HTTP.Enabled {
		log.Info("initializing HTTP server...")

		httpConfig := httpserver.DefaultConfig()
		httpConfig.Host = cfg.HTTP.Host
		httpConfig.Port = cfg.HTTP.Port
		httpConfig.RateLimitPerMinute = cfg.HTTP.RateLimitPerMinute
		httpConfig.APIKeys = cfg.HTTP.APIKeys

		httpDeps := httpserver.Dependencies{
			TeamSummaryHandler:     teamSummaryQuery,
			MemberSummaryHandler:   memberSummaryQuery,
			PuzzleStandingsHandler: standingsQuery,
			VerdictHistoryHandler:  historyQuery,
			ActivityLogHandler:     activityLogQuery,
			Scheduler:              sched,
			CreateBackupHandler:    backupHandler,
			RestoreBackupHandler:   restoreHandler,
			SnapshotStore:          snapshotStore,
			SkipStore:              skipStore,
			Postgres:               dbConn,
			Redis:                  redisCacheOrNil(redisCache),
			Logger:                 logger.Default(),
		}

		httpServer = httpserver.NewServer(httpConfig, httpDeps)

		go func() {
			if err := httpServer.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- fmt.Errorf("http server error: %w", err)
			}
		}()
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 14. GRACEFUL SHUTDOWN
	// ─────────────────────────────────────────────────────────────────────────
	log.Info("Loser Challenge Hub is running",
		"http_enabled", cfg.HTTP.Enabled,
		"scheduler_enabled", cfg.Scheduler.Enabled,
	)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)

	select {
	case sig := <-sigCh:
		log.Info("received shutdown signal", "signal", sig.String())
	case err := <-errCh:
		log.Error("service error, shutting down", "error", err)
	case <-ctx.Done():
		log.Info("context cancelled, shutting down")
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.App.ShutdownTimeout)
	defer shutdownCancel()

	if httpServer != nil {
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			log.Warn("http server shutdown error", "error", err)
		}
	}

	log.Info("shutdown complete")
	return nil
}

// ══════════════════════════════════════════════════════════════════════════════
// HELPERS
// ══════════════════════════════════════════════════════════════════════════════

// setupLogger builds the slog logger used across infrastructure.
func setupLogger(cfg *config.Config) *slog.Logger {
	level := slog.LevelInfo
	switch cfg.Observability.LogLevel {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	if cfg.App.Debug {
		level = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if cfg.Observability.LogFormat == "text" {
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}

	log := slog.New(handler)
	slog.SetDefault(log)
	return log
}

// goalCacheOrNil converts the typed nil that a failed Redis connection
// leaves behind into an untyped nil interface.
func goalCacheOrNil(c *redis.GoalCache) goal.Cache {
	if c == nil {
		return nil
	}
	return c
}

// redisCacheOrNil does the same for the health checker dependency.
func redisCacheOrNil(c *redis.Cache) httpserver.ComponentChecker {
	if c == nil {
		return nil
	}
	return c
}
