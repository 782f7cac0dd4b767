package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/felixgeelhaar/cyclist/internal/app"
	"github.com/felixgeelhaar/cyclist/pkg/config"
	"github.com/felixgeelhaar/cyclist/pkg/observability"
)

const shutdownTimeout = 5 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		observability.LoggerFor("development", "info").Error("failed to load config", observability.ErrorKey, err)
		os.Exit(1)
	}

	logger := observability.LoggerFor(cfg.AppEnv, cfg.LogLevel)
	logger.Info("starting cyclist worker")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("worker stopped", observability.ErrorKey, err)
		os.Exit(1)
	}
	logger.Info("worker shutdown complete")
}

// run wires the container and blocks until ctx is cancelled or one of the
// worker's components fails.
func run(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	container, err := app.NewContainer(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer container.Close()

	consumer, err := container.NewEventConsumer()
	if err != nil {
		return err
	}
	defer consumer.Close()

	if err := container.OutboxProcessor.Start(ctx); err != nil {
		return err
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return ignoreCanceled(consumer.Start(ctx))
	})

	g.Go(func() error {
		return ignoreCanceled(container.ReminderWorker.Run(ctx))
	})

	if cfg.WorkerHealthAddr != "" {
		srv := &http.Server{
			Addr:              cfg.WorkerHealthAddr,
			Handler:           app.NewHealthMux(container),
			ReadHeaderTimeout: 5 * time.Second,
		}
		g.Go(func() error {
			logger.Info("health server starting", "addr", cfg.WorkerHealthAddr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})
		g.Go(func() error {
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		})
	}

	if cfg.ReminderStatsInterval > 0 {
		g.Go(func() error {
			logStats(ctx, container, cfg.ReminderStatsInterval, logger)
			return nil
		})
	}

	return g.Wait()
}

// logStats reports reminder and outbox progress every interval.
func logStats(ctx context.Context, c *app.Container, interval time.Duration, logger *slog.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			stats := c.ReminderWorker.Stats()
			logger.Info("reminder stats",
				"running", stats.Running,
				"ticks", stats.Ticks,
				"skipped_ticks", stats.SkippedTicks,
				"failed_ticks", stats.FailedTicks,
				"sent", stats.Sent,
				"failed", stats.Failed,
				"duplicates", stats.Duplicates,
				"last_tick_at", stats.LastTickAt,
				"last_error", stats.LastError,
			)
			outbox := c.OutboxProcessor.GetStats()
			logger.Info("outbox stats",
				"published", outbox.PublishedCount,
				"failed", outbox.FailedCount,
				"dead", outbox.DeadCount,
				"pruned", outbox.PrunedCount,
				"lag_seconds", outbox.LagSeconds,
			)
		}
	}
}

func ignoreCanceled(err error) error {
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
