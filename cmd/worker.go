package cmd

import (
	"context"
	"errors"
	"fmt"

	"edusync/infrastructure/eventstream"
	"edusync/infrastructure/persistence/gormstore"
	"edusync/pkg/logger"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Redeliver result change events whose post-commit publish failed",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := bootstrap()
		if err != nil {
			return err
		}
		defer logger.Sync()

		if cfg.Database.Driver == "memory" {
			return fmt.Errorf("outbox worker needs a relational database, got driver %q", cfg.Database.Driver)
		}

		db, err := openDatabase(cfg)
		if err != nil {
			return err
		}
		publisher, err := eventstream.New(cfg.Events)
		if err != nil {
			return fmt.Errorf("failed to create event publisher: %w", err)
		}
		defer publisher.Close(context.Background())

		worker, err := gormstore.NewOutboxWorker(
			gormstore.NewOutboxRepository(db),
			publisher,
			cfg.Worker.PollInterval,
			cfg.Worker.BatchSize,
			cfg.Worker.MaxRetries,
		)
		if err != nil {
			return fmt.Errorf("failed to create outbox worker: %w", err)
		}
		worker.WithPublishTimeout(cfg.Events.PublishTimeout).
			WithProcessingLease(cfg.Worker.ProcessingLease)

		ctx, cancel := signalContext(cmd.Context())
		defer cancel()

		logger.Info("Outbox worker started",
			zap.String("events_provider", cfg.Events.Provider),
			zap.Duration("poll_interval", cfg.Worker.PollInterval),
			zap.Int("batch_size", cfg.Worker.BatchSize),
			zap.Int("max_retries", cfg.Worker.MaxRetries),
			zap.Duration("processing_lease", cfg.Worker.ProcessingLease),
		)

		if err := worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			return fmt.Errorf("outbox worker exited with error: %w", err)
		}

		logger.Info("Outbox worker stopped")
		return nil
	},
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the database schema",
	RunE: func(_ *cobra.Command, _ []string) error {
		cfg, err := bootstrap()
		if err != nil {
			return err
		}
		defer logger.Sync()

		if cfg.Database.Driver == "memory" {
			logger.Info("Nothing to migrate for the in-memory store")
			return nil
		}

		cfg.Database.AutoMigrate = false
		db, err := openDatabase(cfg)
		if err != nil {
			return err
		}
		if err := gormstore.AutoMigrate(db); err != nil {
			return err
		}
		logger.Info("Database schema is up to date", zap.String("driver", cfg.Database.Driver))
		return nil
	},
}
