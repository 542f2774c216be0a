package gormstore

import (
	"context"
	"fmt"
	"time"

	"edusync/domain/shared"
	"edusync/infrastructure/persistence/gormstore/po"
	"edusync/pkg/logger"

	"go.uber.org/zap"
)

// Worker defaults; see WithProcessingLease and WithPublishTimeout.
const (
	DefaultProcessingLease = 5 * time.Minute
	DefaultPublishTimeout  = 10 * time.Second

	markTimeout = 5 * time.Second
)

// OutboxWorker redelivers events recorded after a failed post-commit publish.
// A claim older than the processing lease is taken over by the next poll.
type OutboxWorker struct {
	repository     *OutboxRepository
	publisher      shared.EventPublisher
	pollInterval   time.Duration
	batchSize      int
	maxRetries     int
	lease          time.Duration
	publishTimeout time.Duration
}

func NewOutboxWorker(
	repository *OutboxRepository,
	publisher shared.EventPublisher,
	pollInterval time.Duration,
	batchSize int,
	maxRetries int,
) (*OutboxWorker, error) {
	if repository == nil {
		return nil, fmt.Errorf("outbox repository is required")
	}
	if publisher == nil {
		return nil, fmt.Errorf("outbox publisher is required")
	}
	if pollInterval <= 0 {
		return nil, fmt.Errorf("poll interval must be positive")
	}
	if batchSize <= 0 {
		return nil, fmt.Errorf("batch size must be positive")
	}
	if maxRetries <= 0 {
		return nil, fmt.Errorf("max retries must be positive")
	}

	return &OutboxWorker{
		repository:     repository,
		publisher:      publisher,
		pollInterval:   pollInterval,
		batchSize:      batchSize,
		maxRetries:     maxRetries,
		lease:          DefaultProcessingLease,
		publishTimeout: DefaultPublishTimeout,
	}, nil
}

// WithProcessingLease sets how long a claim blocks other pollers. It must
// exceed the publish timeout.
func (w *OutboxWorker) WithProcessingLease(d time.Duration) *OutboxWorker {
	if d > 0 {
		w.lease = d
	}
	return w
}

// WithPublishTimeout bounds each redelivery call.
func (w *OutboxWorker) WithPublishTimeout(d time.Duration) *OutboxWorker {
	if d > 0 {
		w.publishTimeout = d
	}
	return w
}

func (w *OutboxWorker) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if _, err := w.ProcessBatch(ctx); err != nil {
				logger.Named("outbox").Error("Outbox batch processing failed", zap.Error(err))
			}
		}
	}
}

// ProcessBatch handles one poll and reports how many events were delivered.
// State marks after a delivery attempt are detached from ctx so shutdown
// never leaves an event claimed.
func (w *OutboxWorker) ProcessBatch(ctx context.Context) (int, error) {
	log := logger.Named("outbox")
	staleBefore := time.Now().UTC().Add(-w.lease)

	events, err := w.repository.GetPendingEvents(ctx, w.batchSize, staleBefore)
	if err != nil {
		return 0, err
	}

	delivered := 0
	for _, event := range events {
		if ctx.Err() != nil {
			break
		}
		if err := w.repository.MarkEventProcessing(ctx, event.ID, staleBefore); err != nil {
			log.Warn("Skip outbox event due to lock contention",
				zap.String("event_id", event.ID),
				zap.Error(err),
			)
			continue
		}
		if event.Status == string(po.EventStatusProcessing) {
			log.Info("Reclaimed stale outbox claim",
				zap.String("event_id", event.ID),
				zap.Time("claimed_at", event.UpdatedAt),
			)
		}

		pctx, cancel := context.WithTimeout(ctx, w.publishTimeout)
		err := w.publisher.Publish(pctx, event.EventType, []byte(event.Payload))
		cancel()

		mctx, mcancel := context.WithTimeout(context.WithoutCancel(ctx), markTimeout)
		if err != nil {
			log.Warn("Outbox redelivery failed",
				zap.String("event_id", event.ID),
				zap.String("event_type", event.EventType),
				zap.Int("retry_count", event.RetryCount+1),
				zap.Error(err),
			)
			if failErr := w.repository.MarkEventFailed(mctx, event.ID, w.maxRetries, err); failErr != nil {
				log.Error("Failed to mark outbox event as failed",
					zap.String("event_id", event.ID),
					zap.Error(failErr),
				)
			}
			mcancel()
			continue
		}

		if err := w.repository.MarkEventPublished(mctx, event.ID); err != nil {
			log.Error("Failed to mark outbox event as published",
				zap.String("event_id", event.ID),
				zap.Error(err),
			)
			mcancel()
			continue
		}
		mcancel()
		delivered++
	}

	return delivered, nil
}
