package workers

import (
	"context"
	"log/slog"
	"time"

	application "concourse/contexts/federation/activity-core/application"
	"concourse/contexts/federation/activity-core/ports"
)

// OutboxRelay publishes persisted outbox records to the event bus.
type OutboxRelay struct {
	Outbox    ports.OutboxRepository
	Publisher ports.EventPublisher
	Clock     ports.Clock
	BatchSize int
	Logger    *slog.Logger
}

// RunOnce publishes a bounded batch of pending outbox rows and marks each
// row published only after bus publish succeeds. It stops on the first
// failure so the retry loop can reprocess remaining rows safely.
func (r OutboxRelay) RunOnce(ctx context.Context) error {
	logger := application.ResolveLogger(r.Logger)
	limit := r.BatchSize
	if limit <= 0 {
		limit = 100
	}

	pending, err := r.Outbox.ListPendingOutbox(ctx, limit)
	if err != nil {
		logger.Error("federation outbox list failed",
			"event", "federation_outbox_list_failed",
			"module", "federation/activity-core",
			"layer", "worker",
			"error", err.Error(),
		)
		return err
	}
	if len(pending) == 0 {
		logger.Debug("federation outbox relay found no pending rows",
			"event", "federation_outbox_relay_noop",
			"module", "federation/activity-core",
			"layer", "worker",
			"batch_size", limit,
		)
		return nil
	}

	now := time.Now().UTC()
	if r.Clock != nil {
		now = r.Clock.Now().UTC()
	}

	for _, row := range pending {
		if err := r.Publisher.Publish(ctx, row.EventType, row.PartitionKey, row.Payload); err != nil {
			logger.Error("federation outbox publish failed",
				"event", "federation_outbox_publish_failed",
				"module", "federation/activity-core",
				"layer", "worker",
				"outbox_id", row.OutboxID,
				"event_type", row.EventType,
				"error", err.Error(),
			)
			return err
		}
		if err := r.Outbox.MarkOutboxPublished(ctx, row.OutboxID, now); err != nil {
			logger.Error("federation outbox mark published failed",
				"event", "federation_outbox_mark_published_failed",
				"module", "federation/activity-core",
				"layer", "worker",
				"outbox_id", row.OutboxID,
				"error", err.Error(),
			)
			return err
		}
	}

	logger.Info("federation outbox relay cycle completed",
		"event", "federation_outbox_relay_completed",
		"module", "federation/activity-core",
		"layer", "worker",
		"published_count", len(pending),
	)
	return nil
}
