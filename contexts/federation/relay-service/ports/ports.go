package ports

import (
	"context"
	"encoding/json"
	"time"

	"concourse/contexts/federation/relay-service/domain/entities"
)

// ForwardLedger is the persisted dedup set keyed by activity id. Record
// reports whether the id was seen for the first time; only first-time
// records may be forwarded.
type ForwardLedger interface {
	Record(ctx context.Context, activityID string, communityURI string, forwardedAt time.Time) (bool, error)
	PruneBefore(ctx context.Context, cutoff time.Time) (int, error)
}

type FollowerRepository interface {
	ListFollowers(ctx context.Context, communityURI string) ([]entities.Follower, error)
	AddFollower(ctx context.Context, follower entities.Follower) error
	RemoveFollower(ctx context.Context, communityURI string, actorURI string) error
}

// Deliverer redelivers an announcement to follower inboxes. Retry and
// backoff live behind this port.
type Deliverer interface {
	Deliver(ctx context.Context, announcement entities.Announcement, inboxes []string) error
}

// EventEnvelope mirrors the canonical bus payload shape produced by the
// activity core's outbox.
type EventEnvelope struct {
	EventID       string          `json:"event_id"`
	EventType     string          `json:"event_type"`
	OccurredAt    time.Time       `json:"occurred_at"`
	SourceService string          `json:"source_service"`
	TraceID       string          `json:"trace_id"`
	SchemaVersion int             `json:"schema_version"`
	PartitionKey  string          `json:"partition_key"`
	Data          json.RawMessage `json:"data"`
}

type EventSubscriber interface {
	Subscribe(ctx context.Context, topic string, consumerGroup string, handler func(context.Context, []byte) error) error
}

type Clock interface {
	Now() time.Time
}

type IDGenerator interface {
	NewID(ctx context.Context) (string, error)
}
