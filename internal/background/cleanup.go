package background

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Sweeper evicts idle entries and reports how many it removed
type Sweeper interface {
	Sweep(ttl time.Duration) int
}

// CleanupManager periodically evicts idle console tabs
type CleanupManager struct {
	sweeper  Sweeper
	logger   *slog.Logger
	interval time.Duration
	idleTTL  time.Duration
	stopCh   chan struct{}
	stopOnce sync.Once
}

// NewCleanupManager creates a new cleanup manager
func NewCleanupManager(
	sweeper Sweeper,
	logger *slog.Logger,
	interval time.Duration,
	idleTTL time.Duration,
) *CleanupManager {
	return &CleanupManager{
		sweeper:  sweeper,
		logger:   logger,
		interval: interval,
		idleTTL:  idleTTL,
		stopCh:   make(chan struct{}),
	}
}

// Start runs the sweep every interval until Stop or ctx is done
func (cm *CleanupManager) Start(ctx context.Context) {
	ticker := time.NewTicker(cm.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			cm.runCleanup()
		case <-cm.stopCh:
			cm.logger.Info("cleanup manager stopped")
			return
		case <-ctx.Done():
			cm.logger.Info("cleanup manager context cancelled")
			return
		}
	}
}

func (cm *CleanupManager) runCleanup() {
	evicted := cm.sweeper.Sweep(cm.idleTTL)
	if evicted > 0 {
		cm.logger.Info("idle tab cleanup completed", slog.Int("tabs_evicted", evicted))
	}
}

// Stop signals the cleanup manager to stop. It is safe to call more than once.
func (cm *CleanupManager) Stop() {
	cm.stopOnce.Do(func() { close(cm.stopCh) })
}
