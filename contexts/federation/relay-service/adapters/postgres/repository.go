package postgresadapter

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"concourse/contexts/federation/relay-service/domain/entities"

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

// Record relies on the ledger primary key for the first-seen check: a
// conflicting insert affects zero rows, which is exactly the duplicate
// signal the relay needs.
func (r *Repository) Record(ctx context.Context, activityID string, communityURI string, forwardedAt time.Time) (bool, error) {
	row := forwardModel{
		ActivityID:   strings.TrimSpace(activityID),
		CommunityURI: strings.TrimSpace(communityURI),
		ForwardedAt:  forwardedAt.UTC(),
	}
	result := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "community_uri"}, {Name: "activity_id"}},
		DoNothing: true,
	}).Create(&row)
	if result.Error != nil {
		if isUniqueViolation(result.Error) {
			return false, nil
		}
		return false, r.logError("relay_repo_record_failed", result.Error,
			"activity_id", row.ActivityID,
			"community_uri", row.CommunityURI,
		)
	}
	return result.RowsAffected > 0, nil
}

func (r *Repository) PruneBefore(ctx context.Context, cutoff time.Time) (int, error) {
	result := r.db.WithContext(ctx).
		Where("forwarded_at < ?", cutoff.UTC()).
		Delete(&forwardModel{})
	if result.Error != nil {
		return 0, r.logError("relay_repo_prune_failed", result.Error)
	}
	return int(result.RowsAffected), nil
}

func (r *Repository) ListFollowers(ctx context.Context, communityURI string) ([]entities.Follower, error) {
	var rows []followerModel
	err := r.db.WithContext(ctx).
		Where("community_uri = ?", strings.TrimSpace(communityURI)).
		Order("actor_uri asc").
		Find(&rows).
		Error
	if err != nil {
		return nil, r.logError("relay_repo_list_followers_failed", err, "community_uri", strings.TrimSpace(communityURI))
	}
	items := make([]entities.Follower, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toEntity())
	}
	return items, nil
}

func (r *Repository) AddFollower(ctx context.Context, follower entities.Follower) error {
	row := followerModel{
		CommunityURI: strings.TrimSpace(follower.CommunityURI),
		ActorURI:     strings.TrimSpace(follower.ActorURI),
		InboxURI:     strings.TrimSpace(follower.InboxURI),
		CreatedAt:    follower.CreatedAt.UTC(),
	}
	if row.CreatedAt.IsZero() {
		row.CreatedAt = time.Now().UTC()
	}
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "community_uri"}, {Name: "actor_uri"}},
		DoUpdates: clause.Assignments(map[string]any{
			"inbox_uri": row.InboxURI,
		}),
	}).Create(&row).Error
	if err != nil {
		return r.logError("relay_repo_add_follower_failed", err,
			"community_uri", row.CommunityURI,
			"actor_uri", row.ActorURI,
		)
	}
	return nil
}

func (r *Repository) RemoveFollower(ctx context.Context, communityURI string, actorURI string) error {
	err := r.db.WithContext(ctx).
		Where("community_uri = ?", strings.TrimSpace(communityURI)).
		Where("actor_uri = ?", strings.TrimSpace(actorURI)).
		Delete(&followerModel{}).
		Error
	if err != nil {
		return r.logError("relay_repo_remove_follower_failed", err,
			"community_uri", strings.TrimSpace(communityURI),
			"actor_uri", strings.TrimSpace(actorURI),
		)
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
		"module", "federation/relay-service",
		"layer", "adapter",
		"error", err.Error(),
	)
	fields = append(fields, attrs...)
	r.logger.Error("relay repository operation failed", fields...)
	return err
}

type forwardModel struct {
	CommunityURI string    `gorm:"column:community_uri;primaryKey"`
	ActivityID   string    `gorm:"column:activity_id;primaryKey"`
	ForwardedAt  time.Time `gorm:"column:forwarded_at"`
}

func (forwardModel) TableName() string {
	return "forward_ledger"
}

type followerModel struct {
	CommunityURI string    `gorm:"column:community_uri;primaryKey"`
	ActorURI     string    `gorm:"column:actor_uri;primaryKey"`
	InboxURI     string    `gorm:"column:inbox_uri"`
	CreatedAt    time.Time `gorm:"column:created_at"`
}

func (followerModel) TableName() string {
	return "community_followers"
}

func (m followerModel) toEntity() entities.Follower {
	return entities.Follower{
		CommunityURI: m.CommunityURI,
		ActorURI:     m.ActorURI,
		InboxURI:     m.InboxURI,
		CreatedAt:    m.CreatedAt.UTC(),
	}
}
