package main

import (
	"context"
	"errors"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/JonMunkholm/datops/internal/application"
	"github.com/JonMunkholm/datops/internal/core"
	"github.com/JonMunkholm/datops/internal/web"
)

// memoryHistoryRuns is how many runs serve keeps without a database.
const memoryHistoryRuns = 1000

func (a *app) serveCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the JSON API and the compare report over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.serve(cmd.Context())
		},
	}
}

func (a *app) serve(ctx context.Context) error {
	cfg := a.cfg

	var history core.HistoryStore = core.NewMemoryHistory(memoryHistoryRuns)
	if cfg.History.Enabled() {
		h, err := a.openHistory(ctx)
		if err != nil {
			return err
		}
		history = h
		slog.Info("run history stored in database")
	} else {
		slog.Info("no database configured, keeping run history in memory", "runs", memoryHistoryRuns)
	}

	limiter := core.NewLimiter(cfg.Limits.MaxConcurrent, cfg.Limits.MaxWait)
	svc := a.newService(history, limiter)

	server, err := web.NewServer(svc, cfg)
	if err != nil {
		return err
	}

	slog.Info("configuration loaded",
		"addr", cfg.Server.Addr(),
		"history", cfg.History.Enabled(),
		"max_concurrent", cfg.Limits.MaxConcurrent,
		"rate_limit_enabled", cfg.Rate.Enabled,
	)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return server.Start(cfg.Server.Addr())
	})

	g.Go(func() error {
		svc.StartHistoryPruner(gctx, core.PruneConfig{
			Retention: cfg.History.Retention,
			Interval:  cfg.History.PruneInterval,
		})
		return nil
	})

	// Graceful shutdown on signal or server failure
	g.Go(func() error {
		<-gctx.Done()
		slog.Info("shutting down...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		if status := limiter.Status(); status.Active > 0 {
			slog.Info("waiting for operations to complete", "active", status.Active)
			if err := limiter.WaitForDrain(shutdownCtx); err != nil {
				slog.Warn("operations did not complete in time", "error", err)
			}
		}
		return server.Shutdown(shutdownCtx)
	})

	err = g.Wait()
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func (a *app) menuCommand() *cobra.Command {
	var dir string
	cmd := &cobra.Command{
		Use:   "menu",
		Short: "Browse the DAT files in a directory interactively",
		Args:  cobra.NoArgs,
		RunE: func(*cobra.Command, []string) error {
			if dir == "" {
				wd, err := os.Getwd()
				if err != nil {
					return err
				}
				dir = wd
			}
			return application.Run(a.svc, dir, a.output(), a.input())
		},
	}
	cmd.Flags().StringVar(&dir, "dir", "", "directory to list (default: current directory)")
	return cmd
}

func (a *app) historyCommand() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recent runs from the history database",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if limit < 1 || limit > 1000 {
				return usagef("--limit must be between 1 and 1000")
			}
			if !a.cfg.History.Enabled() {
				return errors.New("no history database configured: set DATABASE_URL")
			}
			runs, err := a.svc.History().List(cmd.Context(), limit)
			if err != nil {
				return err
			}
			a.print(runs)
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "number of runs to show")
	return cmd
}
