package background

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// ExpiredTokenCleaner removes revocation records whose tokens have expired anyway.
type ExpiredTokenCleaner interface {
	CleanupExpiredTokens(ctx context.Context) (int64, error)
}

// AuthLogPruner deletes auth log rows older than a cutoff.
type AuthLogPruner interface {
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

// CleanupConfig controls the housekeeping schedule.
type CleanupConfig struct {
	Schedule         string        // cron spec or descriptor, e.g. "@every 1h"
	AuthLogRetention time.Duration // zero keeps auth logs forever
	Timeout          time.Duration
}

// CleanupManager periodically prunes expired revoked tokens and old auth logs.
type CleanupManager struct {
	tokens  ExpiredTokenCleaner
	logs    AuthLogPruner
	config  CleanupConfig
	logger  *slog.Logger
	cron    *cron.Cron
	now     func() time.Time
	baseCtx context.Context
	cancel  context.CancelFunc
}

func NewCleanupManager(tokens ExpiredTokenCleaner, logs AuthLogPruner, config CleanupConfig, logger *slog.Logger) *CleanupManager {
	if config.Schedule == "" {
		config.Schedule = "@every 1h"
	}
	if config.Timeout <= 0 {
		config.Timeout = 30 * time.Second
	}

	cronLogger := cron.PrintfLogger(slog.NewLogLogger(logger.Handler(), slog.LevelInfo))
	ctx, cancel := context.WithCancel(context.Background())

	return &CleanupManager{
		tokens:  tokens,
		logs:    logs,
		config:  config,
		logger:  logger,
		cron:    cron.New(cron.WithChain(cron.Recover(cronLogger), cron.SkipIfStillRunning(cronLogger))),
		now:     time.Now,
		baseCtx: ctx,
		cancel:  cancel,
	}
}

// Start registers the cleanup job, runs it once, and starts the scheduler.
func (cm *CleanupManager) Start() error {
	if _, err := cm.cron.AddFunc(cm.config.Schedule, cm.RunOnce); err != nil {
		return fmt.Errorf("invalid cleanup schedule %q: %w", cm.config.Schedule, err)
	}

	go cm.RunOnce()
	cm.cron.Start()
	cm.logger.Info("cleanup manager started", slog.String("schedule", cm.config.Schedule))
	return nil
}

// Stop halts the scheduler and waits for a running job to finish.
func (cm *CleanupManager) Stop() {
	cm.cancel()
	<-cm.cron.Stop().Done()
	cm.logger.Info("cleanup manager stopped")
}

// RunOnce performs a single cleanup pass.
func (cm *CleanupManager) RunOnce() {
	ctx, cancel := context.WithTimeout(cm.baseCtx, cm.config.Timeout)
	defer cancel()

	if cm.tokens != nil {
		deleted, err := cm.tokens.CleanupExpiredTokens(ctx)
		if err != nil {
			cm.logger.Error("failed to cleanup expired tokens", slog.Any("error", err))
		} else if deleted > 0 {
			cm.logger.Info("expired token cleanup completed", slog.Int64("rows_deleted", deleted))
		}
	}

	if cm.logs != nil && cm.config.AuthLogRetention > 0 {
		cutoff := cm.now().Add(-cm.config.AuthLogRetention)
		deleted, err := cm.logs.DeleteOlderThan(ctx, cutoff)
		if err != nil {
			cm.logger.Error("failed to prune auth logs", slog.Any("error", err))
		} else if deleted > 0 {
			cm.logger.Info("auth log pruning completed",
				slog.Int64("rows_deleted", deleted),
				slog.Time("cutoff", cutoff),
			)
		}
	}
}
