package postgresadapter

import (
	"strings"
	"time"

	"concourse/contexts/federation/activity-core/domain/entities"
)

const (
	outboxStatusPending   = "pending"
	outboxStatusPublished = "published"
)

type actorModel struct {
	URI           string    `gorm:"column:uri;primaryKey"`
	PreferredName string    `gorm:"column:preferred_name"`
	InboxURI      string    `gorm:"column:inbox_uri"`
	Local         bool      `gorm:"column:local"`
	RefreshedAt   time.Time `gorm:"column:refreshed_at"`
	CreatedAt     time.Time `gorm:"column:created_at"`
	UpdatedAt     time.Time `gorm:"column:updated_at"`
}

func (actorModel) TableName() string {
	return "actors"
}

func actorModelFromEntity(actor entities.Actor) actorModel {
	row := actorModel{
		URI:           strings.TrimSpace(actor.URI),
		PreferredName: strings.TrimSpace(actor.PreferredName),
		InboxURI:      strings.TrimSpace(actor.InboxURI),
		Local:         actor.Local,
		RefreshedAt:   actor.RefreshedAt.UTC(),
		CreatedAt:     actor.CreatedAt.UTC(),
		UpdatedAt:     actor.UpdatedAt.UTC(),
	}
	if row.CreatedAt.IsZero() {
		row.CreatedAt = time.Now().UTC()
	}
	if row.UpdatedAt.IsZero() {
		row.UpdatedAt = row.CreatedAt
	}
	return row
}

func (m actorModel) toEntity() entities.Actor {
	return entities.Actor{
		URI:           m.URI,
		PreferredName: m.PreferredName,
		InboxURI:      m.InboxURI,
		Local:         m.Local,
		RefreshedAt:   m.RefreshedAt.UTC(),
		CreatedAt:     m.CreatedAt.UTC(),
		UpdatedAt:     m.UpdatedAt.UTC(),
	}
}

type objectModel struct {
	URI          string    `gorm:"column:uri;primaryKey"`
	Kind         string    `gorm:"column:kind"`
	AuthorURI    string    `gorm:"column:author_uri"`
	CommunityURI string    `gorm:"column:community_uri"`
	CreatedAt    time.Time `gorm:"column:created_at"`
	UpdatedAt    time.Time `gorm:"column:updated_at"`
}

func (objectModel) TableName() string {
	return "remote_objects"
}

func objectModelFromEntity(object entities.Object) objectModel {
	row := objectModel{
		URI:          strings.TrimSpace(object.URI),
		Kind:         string(object.Kind),
		AuthorURI:    strings.TrimSpace(object.AuthorURI),
		CommunityURI: strings.TrimSpace(object.CommunityURI),
		CreatedAt:    object.CreatedAt.UTC(),
		UpdatedAt:    object.UpdatedAt.UTC(),
	}
	if row.CreatedAt.IsZero() {
		row.CreatedAt = time.Now().UTC()
	}
	if row.UpdatedAt.IsZero() {
		row.UpdatedAt = row.CreatedAt
	}
	return row
}

func (m objectModel) toEntity() entities.Object {
	return entities.Object{
		URI:          m.URI,
		Kind:         entities.ObjectKind(m.Kind),
		AuthorURI:    m.AuthorURI,
		CommunityURI: m.CommunityURI,
		CreatedAt:    m.CreatedAt.UTC(),
		UpdatedAt:    m.UpdatedAt.UTC(),
	}
}

type communityModel struct {
	ID        string    `gorm:"column:id;primaryKey"`
	URI       string    `gorm:"column:uri"`
	Name      string    `gorm:"column:name"`
	InboxURI  string    `gorm:"column:inbox_uri"`
	Local     bool      `gorm:"column:local"`
	CreatedAt time.Time `gorm:"column:created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at"`
}

func (communityModel) TableName() string {
	return "communities"
}

func (m communityModel) toEntity() entities.Community {
	return entities.Community{
		ID:        m.ID,
		URI:       m.URI,
		Name:      m.Name,
		InboxURI:  m.InboxURI,
		Local:     m.Local,
		CreatedAt: m.CreatedAt.UTC(),
		UpdatedAt: m.UpdatedAt.UTC(),
	}
}

type memberModel struct {
	CommunityURI string    `gorm:"column:community_uri;primaryKey"`
	ActorURI     string    `gorm:"column:actor_uri;primaryKey"`
	JoinedAt     time.Time `gorm:"column:joined_at"`
}

func (memberModel) TableName() string {
	return "community_members"
}

type voteModel struct {
	ActorURI  string    `gorm:"column:actor_uri;primaryKey"`
	ObjectURI string    `gorm:"column:object_uri;primaryKey"`
	Value     int16     `gorm:"column:value"`
	CreatedAt time.Time `gorm:"column:created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at"`
}

func (voteModel) TableName() string {
	return "votes"
}

func voteModelFromEntity(vote entities.VoteRecord) voteModel {
	row := voteModel{
		ActorURI:  strings.TrimSpace(vote.ActorURI),
		ObjectURI: strings.TrimSpace(vote.ObjectURI),
		Value:     vote.Value,
		CreatedAt: vote.CreatedAt.UTC(),
		UpdatedAt: vote.UpdatedAt.UTC(),
	}
	if row.CreatedAt.IsZero() {
		row.CreatedAt = time.Now().UTC()
	}
	if row.UpdatedAt.IsZero() {
		row.UpdatedAt = row.CreatedAt
	}
	return row
}

func (m voteModel) toEntity() entities.VoteRecord {
	return entities.VoteRecord{
		ActorURI:  m.ActorURI,
		ObjectURI: m.ObjectURI,
		Value:     m.Value,
		CreatedAt: m.CreatedAt.UTC(),
		UpdatedAt: m.UpdatedAt.UTC(),
	}
}

type scoreModel struct {
	ObjectURI string    `gorm:"column:object_uri;primaryKey"`
	Kind      string    `gorm:"column:kind"`
	Score     int64     `gorm:"column:score"`
	Upvotes   int64     `gorm:"column:upvotes"`
	Downvotes int64     `gorm:"column:downvotes"`
	UpdatedAt time.Time `gorm:"column:updated_at"`
}

func (scoreModel) TableName() string {
	return "object_scores"
}

func (m scoreModel) toEntity() entities.ObjectScore {
	return entities.ObjectScore{
		ObjectURI: m.ObjectURI,
		Kind:      entities.ObjectKind(m.Kind),
		Score:     m.Score,
		Upvotes:   m.Upvotes,
		Downvotes: m.Downvotes,
		UpdatedAt: m.UpdatedAt.UTC(),
	}
}

type outboxModel struct {
	ID           string     `gorm:"column:id;primaryKey"`
	EventType    string     `gorm:"column:event_type"`
	PartitionKey string     `gorm:"column:partition_key"`
	Payload      []byte     `gorm:"column:payload"`
	Status       string     `gorm:"column:status"`
	CreatedAt    time.Time  `gorm:"column:created_at"`
	PublishedAt  *time.Time `gorm:"column:published_at"`
}

func (outboxModel) TableName() string {
	return "federation_outbox"
}
