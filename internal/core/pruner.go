package core

// pruner.go deletes old run history in the background while the server runs.

import (
	"context"
	"log/slog"
	"time"
)

// PruneConfig holds the history retention settings.
type PruneConfig struct {
	Retention time.Duration // runs older than this are deleted
	Interval  time.Duration // how often to check
}

// StartHistoryPruner prunes immediately, then every Interval, until ctx ends.
// Failures are logged and retried on the next tick.
func (s *Service) StartHistoryPruner(ctx context.Context, cfg PruneConfig) {
	if cfg.Retention <= 0 || cfg.Interval <= 0 {
		slog.Info("history pruner disabled")
		return
	}
	slog.Info("history pruner started",
		"retention", cfg.Retention.String(),
		"interval", cfg.Interval.String(),
	)

	s.pruneHistory(ctx, cfg.Retention)

	ticker := time.NewTicker(cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("history pruner stopped")
			return
		case <-ticker.C:
			s.pruneHistory(ctx, cfg.Retention)
		}
	}
}

func (s *Service) pruneHistory(ctx context.Context, retention time.Duration) {
	start := time.Now()
	pruned, err := s.history.Prune(ctx, s.now().Add(-retention))
	if err != nil {
		slog.Error("history prune failed", "error", err)
		return
	}
	slog.Info("history pruned",
		"runs_deleted", pruned,
		"duration_ms", time.Since(start).Milliseconds(),
	)
}
