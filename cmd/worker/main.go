// Package main - entry point for the standalone scheduler worker.
//
// The worker runs only the background jobs: weekly evaluation and
// reset, daily puzzle penalty, podium settlement, kickoff and reminder
// announcements. Deployments that split the admin surface from the
// cron load run this next to a bot instance with SCHEDULER_ENABLED=false.
//
// A best-effort Redis lock keeps a second worker from double-firing on
// the same minute; the watermark guard remains the real idempotency
// barrier either way.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/loser-hub/loser-challenge-hub/config"

	"github.com/loser-hub/loser-challenge-hub/internal/application/command"
	"github.com/loser-hub/loser-challenge-hub/internal/domain/notification"

	"github.com/loser-hub/loser-challenge-hub/internal/infrastructure/backup"
	"github.com/loser-hub/loser-challenge-hub/internal/infrastructure/external/discord"
	"github.com/loser-hub/loser-challenge-hub/internal/infrastructure/persistence/postgres"
	"github.com/loser-hub/loser-challenge-hub/internal/infrastructure/persistence/redis"
	"github.com/loser-hub/loser-challenge-hub/internal/infrastructure/scheduler"
	"github.com/loser-hub/loser-challenge-hub/internal/infrastructure/scheduler/jobs"
)

const leaderLockTTL = 90 * time.Second

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
	// 1. CONFIGURATION AND LOGGING
	// ─────────────────────────────────────────────────────────────────────────
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	log := setupLogger(cfg)
	log.Info("starting challenge hub worker",
		"env", cfg.App.Environment,
		"timezone", cfg.App.Timezone,
	)

	// ─────────────────────────────────────────────────────────────────────────
	// 2. DATABASE
	// ─────────────────────────────────────────────────────────────────────────
	dbConn, err := postgres.NewConnectionFromURL(ctx, cfg.Database.URL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer dbConn.Close()

	if err := dbConn.Ping(ctx); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}

	migrator := postgres.NewMigrator(dbConn)
	if err := migrator.Migrate(ctx); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 3. LEADERSHIP LOCK (optional)
	// ─────────────────────────────────────────────────────────────────────────
	var leaderLock *redis.Lock

	if !cfg.Redis.Disabled {
		redisCfg := redis.DefaultConfig()
		redisCfg.Host = cfg.Redis.Host
		redisCfg.Port = cfg.Redis.Port
		redisCfg.Password = cfg.Redis.Password
		redisCfg.DB = cfg.Redis.DB

		redisCache, err := redis.NewCache(redisCfg)
		if err != nil {
			log.Warn("Redis unavailable, running without leadership lock", "error", err)
		} else {
			defer redisCache.Close()

			leaderLock = redis.NewLock(redisCache, "worker:leader", leaderLockTTL)
			acquired, err := leaderLock.Acquire(ctx)
			if err != nil {
				log.Warn("leadership lock error, continuing anyway", "error", err)
				leaderLock = nil
			} else if !acquired {
				return fmt.Errorf("another worker holds the leadership lock")
			} else {
				defer func() {
					releaseCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
					defer cancel()
					_ = leaderLock.Release(releaseCtx)
				}()
				go refreshLock(ctx, leaderLock, log)
				log.Info("leadership lock acquired")
			}
		}
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 4. DISCORD CLIENT
	// ─────────────────────────────────────────────────────────────────────────
	discordCfg := discord.DefaultClientConfig(cfg.Discord.Token)
	discordCfg.GuildID = cfg.Discord.GuildID
	discordCfg.PenaltyRoleID = cfg.Discord.PenaltyRoleID
	discordCfg.ChallengeChannelID = cfg.Discord.ChallengeChannelID
	discordCfg.PuzzleChannelID = cfg.Discord.PuzzleChannelID
	discordCfg.Timeout = cfg.Discord.RequestTimeout
	discordCfg.Logger = log

	discordClient, err := discord.NewClient(discordCfg)
	if err != nil {
		return fmt.Errorf("failed to create Discord client: %w", err)
	}

	var notifier notification.Notifier = discordClient
	var roleSync notification.RoleSync
	if cfg.Notify.PenaltyRoleSync && cfg.Discord.GuildID != "" {
		roleSync = discordClient
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 5. REPOSITORIES AND HANDLERS
	// ─────────────────────────────────────────────────────────────────────────
	participantRepo := postgres.NewParticipantRepository(dbConn)
	goalRepo := postgres.NewGoalRepository(dbConn)
	progressRepo := postgres.NewProgressRepository(dbConn)
	verdictRepo := postgres.NewVerdictRepository(dbConn)
	streakRepo := postgres.NewStreakRepository(dbConn)
	puzzleRepo := postgres.NewPuzzleRepository(dbConn)
	podiumRepo := postgres.NewPodiumRepository(dbConn)
	skipStore := postgres.NewSkipStore(dbConn)
	watermarkRepo := postgres.NewWatermarkRepository(dbConn)

	snapshotStore, err := backup.NewFileStore(cfg.Backup.Dir)
	if err != nil {
		return fmt.Errorf("failed to open backup store: %w", err)
	}

	evaluateHandler := command.NewEvaluateCycleHandler(
		participantRepo, goalRepo, progressRepo, verdictRepo, streakRepo,
		roleSync, notifier, nil,
	)
	resetHandler := command.NewResetCycleHandler(progressRepo, participantRepo, nil)
	penaltyHandler := command.NewApplyDailyPenaltyHandler(puzzleRepo, skipStore, notifier, nil)
	closePuzzlesHandler := command.NewClosePuzzleCycleHandler(puzzleRepo, podiumRepo, skipStore, notifier, nil)
	backupHandler := command.NewCreateBackupHandler(
		participantRepo, goalRepo, progressRepo, streakRepo, puzzleRepo, snapshotStore,
	)

	// ─────────────────────────────────────────────────────────────────────────
	// 6. SCHEDULER
	// ─────────────────────────────────────────────────────────────────────────
	guard := scheduler.NewGuard(watermarkRepo, log)

	sched := scheduler.New(scheduler.Config{
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

	log.Info("worker is running", "jobs", len(specs))

	// ─────────────────────────────────────────────────────────────────────────
	// 7. WAIT FOR SHUTDOWN
	// ─────────────────────────────────────────────────────────────────────────
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)

	select {
	case sig := <-sigCh:
		log.Info("received shutdown signal", "signal", sig.String())
	case <-ctx.Done():
		log.Info("context cancelled, shutting down")
	}

	log.Info("shutdown complete")
	return nil
}

// refreshLock keeps the leadership lock alive until the context ends.
func refreshLock(ctx context.Context, lock *redis.Lock, log *slog.Logger) {
	ticker := time.NewTicker(leaderLockTTL / 3)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := lock.Refresh(ctx); err != nil {
				log.Warn("failed to refresh leadership lock", "error", err)
			}
		}
	}
}

// setupLogger builds the worker's slog logger.
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
