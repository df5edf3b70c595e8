package postgresadapter

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"concourse/contexts/federation/activity-core/domain/entities"
	domainerrors "concourse/contexts/federation/activity-core/domain/errors"
	"concourse/contexts/federation/activity-core/ports"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Repository struct {
	db     *gorm.DB
	logger *slog.Logger
}

func NewRepository(db *gorm.DB, logger *slog.Logger) *Repository {
	if logger == nil {
		logger = slog.Default()
	}
	return &Repository{
		db:     db,
		logger: logger,
	}
}

func (r *Repository) GetActorByURI(ctx context.Context, uri string) (entities.Actor, bool, error) {
	var row actorModel
	err := r.db.WithContext(ctx).
		Where("uri = ?", strings.TrimSpace(uri)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Actor{}, false, nil
		}
		return entities.Actor{}, false, r.logError("federation_repo_get_actor_failed", err, "uri", strings.TrimSpace(uri))
	}
	return row.toEntity(), true, nil
}

func (r *Repository) UpsertActor(ctx context.Context, actor entities.Actor) error {
	row := actorModelFromEntity(actor)
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "uri"}},
		DoUpdates: clause.Assignments(map[string]any{
			"preferred_name": row.PreferredName,
			"inbox_uri":      row.InboxURI,
			"local":          row.Local,
			"refreshed_at":   row.RefreshedAt,
			"updated_at":     row.UpdatedAt,
		}),
	}).Create(&row).Error
	if err != nil {
		return r.logError("federation_repo_upsert_actor_failed", err, "uri", strings.TrimSpace(actor.URI))
	}
	return nil
}

func (r *Repository) GetObjectByURI(ctx context.Context, uri string) (entities.Object, bool, error) {
	var row objectModel
	err := r.db.WithContext(ctx).
		Where("uri = ?", strings.TrimSpace(uri)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Object{}, false, nil
		}
		return entities.Object{}, false, r.logError("federation_repo_get_object_failed", err, "uri", strings.TrimSpace(uri))
	}
	return row.toEntity(), true, nil
}

func (r *Repository) UpsertObject(ctx context.Context, object entities.Object) error {
	row := objectModelFromEntity(object)
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "uri"}},
		DoUpdates: clause.Assignments(map[string]any{
			"kind":          row.Kind,
			"author_uri":    row.AuthorURI,
			"community_uri": row.CommunityURI,
			"updated_at":    row.UpdatedAt,
		}),
	}).Create(&row).Error
	if err != nil {
		return r.logError("federation_repo_upsert_object_failed", err, "uri", strings.TrimSpace(object.URI))
	}
	return nil
}

func (r *Repository) GetCommunity(ctx context.Context, communityID string) (entities.Community, error) {
	var row communityModel
	err := r.db.WithContext(ctx).
		Where("id = ?", strings.TrimSpace(communityID)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Community{}, domainerrors.ErrCommunityNotFound
		}
		return entities.Community{}, r.logError("federation_repo_get_community_failed", err, "community_id", strings.TrimSpace(communityID))
	}
	return row.toEntity(), nil
}

func (r *Repository) GetCommunityByURI(ctx context.Context, uri string) (entities.Community, bool, error) {
	var row communityModel
	err := r.db.WithContext(ctx).
		Where("uri = ?", strings.TrimSpace(uri)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Community{}, false, nil
		}
		return entities.Community{}, false, r.logError("federation_repo_get_community_by_uri_failed", err, "uri", strings.TrimSpace(uri))
	}
	return row.toEntity(), true, nil
}

func (r *Repository) IsMember(ctx context.Context, communityURI string, actorURI string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&memberModel{}).
		Where("community_uri = ?", strings.TrimSpace(communityURI)).
		Where("actor_uri = ?", strings.TrimSpace(actorURI)).
		Count(&count).
		Error
	if err != nil {
		return false, r.logError("federation_repo_is_member_failed", err,
			"community_uri", strings.TrimSpace(communityURI),
			"actor_uri", strings.TrimSpace(actorURI),
		)
	}
	return count > 0, nil
}

func (r *Repository) AddMember(ctx context.Context, communityURI string, actorURI string, joinedAt time.Time) error {
	row := memberModel{
		CommunityURI: strings.TrimSpace(communityURI),
		ActorURI:     strings.TrimSpace(actorURI),
		JoinedAt:     joinedAt.UTC(),
	}
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "community_uri"}, {Name: "actor_uri"}},
		DoNothing: true,
	}).Create(&row).Error
	if err != nil && !isUniqueViolation(err) {
		return r.logError("federation_repo_add_member_failed", err,
			"community_uri", row.CommunityURI,
			"actor_uri", row.ActorURI,
		)
	}
	return nil
}

func (r *Repository) GetVote(ctx context.Context, actorURI string, objectURI string) (entities.VoteRecord, bool, error) {
	var row voteModel
	err := r.db.WithContext(ctx).
		Where("actor_uri = ?", strings.TrimSpace(actorURI)).
		Where("object_uri = ?", strings.TrimSpace(objectURI)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.VoteRecord{}, false, nil
		}
		return entities.VoteRecord{}, false, r.logError("federation_repo_get_vote_failed", err,
			"actor_uri", strings.TrimSpace(actorURI),
			"object_uri", strings.TrimSpace(objectURI),
		)
	}
	return row.toEntity(), true, nil
}

// ApplyVote runs the per-object read-modify-write inside one transaction,
// locking the score row so concurrent votes on the same object serialize.
// Votes on distinct objects lock distinct rows and proceed in parallel.
func (r *Repository) ApplyVote(ctx context.Context, vote entities.VoteRecord) (entities.ObjectScore, error) {
	if vote.Value != 1 && vote.Value != -1 {
		return entities.ObjectScore{}, domainerrors.ErrInvalidVoteValue
	}
	actorURI := strings.TrimSpace(vote.ActorURI)
	objectURI := strings.TrimSpace(vote.ObjectURI)

	var result entities.ObjectScore
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var scoreRow scoreModel
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("object_uri = ?", objectURI).
			First(&scoreRow).
			Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			scoreRow = scoreModel{ObjectURI: objectURI}
			var objectRow objectModel
			if lookupErr := tx.Where("uri = ?", objectURI).First(&objectRow).Error; lookupErr == nil {
				scoreRow.Kind = objectRow.Kind
			}
			if createErr := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "object_uri"}},
				DoNothing: true,
			}).Create(&scoreRow).Error; createErr != nil {
				return createErr
			}
			// Re-read under lock in case a concurrent vote created the row first.
			if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
				Where("object_uri = ?", objectURI).
				First(&scoreRow).
				Error; err != nil {
				return err
			}
		} else if err != nil {
			return err
		}

		var previous voteModel
		hadPrevious := true
		err = tx.Where("actor_uri = ?", actorURI).
			Where("object_uri = ?", objectURI).
			First(&previous).
			Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			hadPrevious = false
		} else if err != nil {
			return err
		}

		if hadPrevious && previous.Value == vote.Value {
			result = scoreRow.toEntity()
			return nil
		}

		if hadPrevious {
			if previous.Value > 0 {
				scoreRow.Upvotes--
			} else {
				scoreRow.Downvotes--
			}
			scoreRow.Score -= int64(previous.Value)
			vote.CreatedAt = previous.CreatedAt
		}
		if vote.Value > 0 {
			scoreRow.Upvotes++
		} else {
			scoreRow.Downvotes++
		}
		scoreRow.Score += int64(vote.Value)
		scoreRow.UpdatedAt = vote.UpdatedAt.UTC()

		voteRow := voteModelFromEntity(vote)
		if err := tx.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "actor_uri"}, {Name: "object_uri"}},
			DoUpdates: clause.Assignments(map[string]any{
				"value":      voteRow.Value,
				"updated_at": voteRow.UpdatedAt,
			}),
		}).Create(&voteRow).Error; err != nil {
			return err
		}
		if err := tx.Model(&scoreModel{}).
			Where("object_uri = ?", objectURI).
			Updates(map[string]any{
				"score":      scoreRow.Score,
				"upvotes":    scoreRow.Upvotes,
				"downvotes":  scoreRow.Downvotes,
				"updated_at": scoreRow.UpdatedAt,
			}).Error; err != nil {
			return err
		}
		result = scoreRow.toEntity()
		return nil
	})
	if err != nil {
		return entities.ObjectScore{}, r.logError("federation_repo_apply_vote_failed", err,
			"actor_uri", actorURI,
			"object_uri", objectURI,
		)
	}
	return result, nil
}

func (r *Repository) GetObjectScore(ctx context.Context, objectURI string) (entities.ObjectScore, error) {
	var row scoreModel
	err := r.db.WithContext(ctx).
		Where("object_uri = ?", strings.TrimSpace(objectURI)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.ObjectScore{}, domainerrors.ErrObjectNotFound
		}
		return entities.ObjectScore{}, r.logError("federation_repo_get_score_failed", err, "object_uri", strings.TrimSpace(objectURI))
	}
	return row.toEntity(), nil
}

func (r *Repository) ListObjectScoresByCommunity(ctx context.Context, communityURI string) ([]entities.ObjectScore, error) {
	var rows []scoreModel
	tx := r.db.WithContext(ctx).Model(&scoreModel{}).
		Joins("JOIN remote_objects ON remote_objects.uri = object_scores.object_uri")
	if strings.TrimSpace(communityURI) != "" {
		tx = tx.Where("remote_objects.community_uri = ?", strings.TrimSpace(communityURI))
	}
	if err := tx.Find(&rows).Error; err != nil {
		return nil, r.logError("federation_repo_list_scores_failed", err, "community_uri", strings.TrimSpace(communityURI))
	}
	items := make([]entities.ObjectScore, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toEntity())
	}
	return items, nil
}

func (r *Repository) AppendOutbox(ctx context.Context, message ports.OutboxMessage) error {
	row := outboxModel{
		ID:           strings.TrimSpace(message.OutboxID),
		EventType:    strings.TrimSpace(message.EventType),
		PartitionKey: strings.TrimSpace(message.PartitionKey),
		Payload:      message.Payload,
		Status:       outboxStatusPending,
		CreatedAt:    message.CreatedAt.UTC(),
	}
	if row.CreatedAt.IsZero() {
		row.CreatedAt = time.Now().UTC()
	}
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		if isUniqueViolation(err) {
			return nil
		}
		return r.logError("federation_repo_append_outbox_failed", err, "outbox_id", row.ID)
	}
	return nil
}

func (r *Repository) ListPendingOutbox(ctx context.Context, limit int) ([]ports.OutboxMessage, error) {
	if limit <= 0 {
		limit = 100
	}
	var rows []outboxModel
	err := r.db.WithContext(ctx).
		Where("status = ?", outboxStatusPending).
		Order("created_at asc").
		Limit(limit).
		Find(&rows).
		Error
	if err != nil {
		return nil, r.logError("federation_repo_list_outbox_failed", err)
	}
	items := make([]ports.OutboxMessage, 0, len(rows))
	for _, row := range rows {
		items = append(items, ports.OutboxMessage{
			OutboxID:     row.ID,
			EventType:    row.EventType,
			PartitionKey: row.PartitionKey,
			Payload:      row.Payload,
			CreatedAt:    row.CreatedAt.UTC(),
		})
	}
	return items, nil
}

func (r *Repository) MarkOutboxPublished(ctx context.Context, outboxID string, publishedAt time.Time) error {
	at := publishedAt.UTC()
	err := r.db.WithContext(ctx).Model(&outboxModel{}).
		Where("id = ?", strings.TrimSpace(outboxID)).
		Updates(map[string]any{
			"status":       outboxStatusPublished,
			"published_at": &at,
		}).Error
	if err != nil {
		return r.logError("federation_repo_mark_outbox_failed", err, "outbox_id", strings.TrimSpace(outboxID))
	}
	return nil
}

type SystemClock struct{}

func (SystemClock) Now() time.Time {
	return time.Now().UTC()
}

type UUIDGenerator struct{}

func (UUIDGenerator) NewID(_ context.Context) (string, error) {
	return uuid.NewString(), nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}

func (r *Repository) logError(event string, err error, attrs ...any) error {
	fields := make([]any, 0, len(attrs)+8)
	fields = append(fields,
		"event", event,
		"module", "federation/activity-core",
		"layer", "adapter",
		"error", err.Error(),
	)
	fields = append(fields, attrs...)
	r.logger.Error("federation repository operation failed", fields...)
	return err
}
