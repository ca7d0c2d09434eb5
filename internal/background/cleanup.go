package background

import (
	"context"
	"log/slog"
	"time"
)

// AttemptSweeper evicts stale attempt records. Only the in-memory store
// needs sweeping; redis records expire on their own TTL.
type AttemptSweeper interface {
	Sweep(ctx context.Context) (int, error)
}

// CleanupManager periodically drops attempt records that can no longer
// influence a rate-limit decision.
type CleanupManager struct {
	store    AttemptSweeper
	logger   *slog.Logger
	interval time.Duration
	stopCh   chan struct{}
}

func NewCleanupManager(store AttemptSweeper, logger *slog.Logger, interval time.Duration) *CleanupManager {
	return &CleanupManager{
		store:    store,
		logger:   logger,
		interval: interval,
		stopCh:   make(chan struct{}),
	}
}

// Start begins the periodic sweep and blocks until stopped or the
// context is cancelled.
func (cm *CleanupManager) Start(ctx context.Context) {
	ticker := time.NewTicker(cm.interval)
	defer ticker.Stop()

	cm.runSweep(ctx)

	for {
		select {
		case <-ticker.C:
			cm.runSweep(ctx)
		case <-cm.stopCh:
			cm.logger.Info("cleanup manager stopped")
			return
		case <-ctx.Done():
			cm.logger.Info("cleanup manager context cancelled")
			return
		}
	}
}

func (cm *CleanupManager) runSweep(ctx context.Context) {
	sweepCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	removed, err := cm.store.Sweep(sweepCtx)
	if err != nil {
		cm.logger.Error("failed to sweep attempt records", slog.Any("error", err))
		return
	}

	if removed > 0 {
		cm.logger.Info("stale attempt records removed", slog.Int("count", removed))
	}
}

// Stop signals the cleanup manager to stop
func (cm *CleanupManager) Stop() {
	close(cm.stopCh)
}
