package ports

import (
	"context"
	"encoding/json"
	"time"

	"concourse/contexts/federation/activity-core/domain/entities"
)

// Document is the decoded form of a remotely fetched actor or object. The
// resolver only reads the fields it needs; Raw keeps the rest.
type Document struct {
	ID                string          `json:"id"`
	Type              string          `json:"type"`
	PreferredUsername string          `json:"preferredUsername,omitempty"`
	Inbox             string          `json:"inbox,omitempty"`
	AttributedTo      string          `json:"attributedTo,omitempty"`
	Audience          string          `json:"audience,omitempty"`
	Raw               json.RawMessage `json:"-"`
}

// Fetcher performs the network fetch of a remote reference. Transport-level
// signature handling and retries live behind this port, not in the core.
type Fetcher interface {
	Fetch(ctx context.Context, uri string) (Document, error)
}

// Deliverer hands an assembled envelope to the delivery collaborator.
// Retry and backoff for failed deliveries are its responsibility.
type Deliverer interface {
	Deliver(ctx context.Context, envelope entities.Envelope, directRecipients []string, origin entities.Actor) error
}

type ActorRepository interface {
	GetActorByURI(ctx context.Context, uri string) (entities.Actor, bool, error)
	UpsertActor(ctx context.Context, actor entities.Actor) error
}

type ObjectRepository interface {
	GetObjectByURI(ctx context.Context, uri string) (entities.Object, bool, error)
	UpsertObject(ctx context.Context, object entities.Object) error
}

type CommunityRepository interface {
	GetCommunity(ctx context.Context, communityID string) (entities.Community, error)
	GetCommunityByURI(ctx context.Context, uri string) (entities.Community, bool, error)
	IsMember(ctx context.Context, communityURI string, actorURI string) (bool, error)
	AddMember(ctx context.Context, communityURI string, actorURI string, joinedAt time.Time) error
}

// VoteRepository owns the per-actor vote records and the per-object score
// aggregates. ApplyVote is the sole mutation path for both: it nets the new
// value against any previous vote by the same actor on the same object and
// must serialize concurrent applications per object.
type VoteRepository interface {
	GetVote(ctx context.Context, actorURI string, objectURI string) (entities.VoteRecord, bool, error)
	ApplyVote(ctx context.Context, vote entities.VoteRecord) (entities.ObjectScore, error)
	GetObjectScore(ctx context.Context, objectURI string) (entities.ObjectScore, error)
	ListObjectScoresByCommunity(ctx context.Context, communityURI string) ([]entities.ObjectScore, error)
}

type OutboxMessage struct {
	OutboxID     string
	EventType    string
	PartitionKey string
	Payload      []byte
	CreatedAt    time.Time
}

type OutboxWriter interface {
	AppendOutbox(ctx context.Context, message OutboxMessage) error
}

type OutboxRepository interface {
	OutboxWriter
	ListPendingOutbox(ctx context.Context, limit int) ([]OutboxMessage, error)
	MarkOutboxPublished(ctx context.Context, outboxID string, publishedAt time.Time) error
}

// EventEnvelope is the canonical payload shape published on the platform
// bus. Consumers in other modules decode it from the raw payload bytes.
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

type EventPublisher interface {
	Publish(ctx context.Context, topic string, key string, payload []byte) error
}

type Clock interface {
	Now() time.Time
}

type IDGenerator interface {
	NewID(ctx context.Context) (string, error)
}
