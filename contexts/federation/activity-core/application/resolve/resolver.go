package resolve

import (
	"context"
	"log/slog"
	"net/url"
	"strings"
	"time"

	application "concourse/contexts/federation/activity-core/application"
	"concourse/contexts/federation/activity-core/domain/entities"
	domainerrors "concourse/contexts/federation/activity-core/domain/errors"
	"concourse/contexts/federation/activity-core/ports"
)

const defaultRefreshInterval = 24 * time.Hour

// Resolver is the fetch-or-create cache for remote actors and objects.
// Every network fetch is charged against the caller-owned request budget so
// one inbound activity cannot trigger unbounded fetch chains.
type Resolver struct {
	Actors          ports.ActorRepository
	Objects         ports.ObjectRepository
	Fetcher         ports.Fetcher
	Clock           ports.Clock
	RefreshInterval time.Duration
	Logger          *slog.Logger
}

// ResolveActor returns the local record for uri, fetching and upserting it
// when missing or stale. Cache hits consume no budget.
func (r Resolver) ResolveActor(ctx context.Context, uri string, budget *entities.RequestBudget) (entities.Actor, error) {
	logger := application.ResolveLogger(r.Logger)
	uri = strings.TrimSpace(uri)
	if uri == "" {
		return entities.Actor{}, domainerrors.ErrUnresolvableReference
	}

	now := r.now()
	existing, found, err := r.Actors.GetActorByURI(ctx, uri)
	if err != nil {
		return entities.Actor{}, err
	}
	if found && !r.stale(existing.RefreshedAt, now) {
		return existing, nil
	}

	if !budget.Spend() {
		if found {
			// Stale record, empty budget: serve the cached identity rather
			// than fail the whole run over a refresh.
			return existing, nil
		}
		logger.Warn("actor resolution budget exhausted",
			"event", "federation_resolve_budget_exhausted",
			"module", "federation/activity-core",
			"layer", "application",
			"uri", uri,
		)
		return entities.Actor{}, domainerrors.ErrRecursionBudgetExceeded
	}

	doc, err := r.Fetcher.Fetch(ctx, uri)
	if err != nil {
		logger.Warn("actor fetch failed",
			"event", "federation_resolve_actor_fetch_failed",
			"module", "federation/activity-core",
			"layer", "application",
			"uri", uri,
			"error", err.Error(),
		)
		if found {
			return existing, nil
		}
		return entities.Actor{}, err
	}
	if !sameIdentity(doc.ID, uri) {
		logger.Warn("actor document identity mismatch",
			"event", "federation_resolve_domain_mismatch",
			"module", "federation/activity-core",
			"layer", "application",
			"uri", uri,
			"declared_id", doc.ID,
		)
		return entities.Actor{}, domainerrors.ErrDomainMismatch
	}

	actor := entities.Actor{
		URI:           uri,
		PreferredName: strings.TrimSpace(doc.PreferredUsername),
		InboxURI:      strings.TrimSpace(doc.Inbox),
		Local:         false,
		RefreshedAt:   now,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if found {
		actor.CreatedAt = existing.CreatedAt
	}
	if err := r.Actors.UpsertActor(ctx, actor); err != nil {
		return entities.Actor{}, err
	}
	logger.Info("actor resolved and upserted",
		"event", "federation_resolve_actor_upserted",
		"module", "federation/activity-core",
		"layer", "application",
		"uri", uri,
		"budget_remaining", budget.Remaining(),
	)
	return actor, nil
}

// ResolveObject returns the local record for a remote post/comment,
// resolving the object's author through the same budget when needed.
func (r Resolver) ResolveObject(ctx context.Context, uri string, budget *entities.RequestBudget) (entities.Object, error) {
	logger := application.ResolveLogger(r.Logger)
	uri = strings.TrimSpace(uri)
	if uri == "" {
		return entities.Object{}, domainerrors.ErrUnresolvableReference
	}

	now := r.now()
	existing, found, err := r.Objects.GetObjectByURI(ctx, uri)
	if err != nil {
		return entities.Object{}, err
	}
	if found {
		return existing, nil
	}

	if !budget.Spend() {
		logger.Warn("object resolution budget exhausted",
			"event", "federation_resolve_budget_exhausted",
			"module", "federation/activity-core",
			"layer", "application",
			"uri", uri,
		)
		return entities.Object{}, domainerrors.ErrRecursionBudgetExceeded
	}

	doc, err := r.Fetcher.Fetch(ctx, uri)
	if err != nil {
		logger.Warn("object fetch failed",
			"event", "federation_resolve_object_fetch_failed",
			"module", "federation/activity-core",
			"layer", "application",
			"uri", uri,
			"error", err.Error(),
		)
		return entities.Object{}, err
	}
	if !sameIdentity(doc.ID, uri) {
		logger.Warn("object document identity mismatch",
			"event", "federation_resolve_domain_mismatch",
			"module", "federation/activity-core",
			"layer", "application",
			"uri", uri,
			"declared_id", doc.ID,
		)
		return entities.Object{}, domainerrors.ErrDomainMismatch
	}

	kind, err := objectKindFromType(doc.Type)
	if err != nil {
		return entities.Object{}, err
	}

	authorURI := strings.TrimSpace(doc.AttributedTo)
	if authorURI != "" {
		// The author is resolved through the same budget instance so the
		// whole chain stays bounded.
		if _, err := r.ResolveActor(ctx, authorURI, budget); err != nil {
			return entities.Object{}, err
		}
	}

	object := entities.Object{
		URI:          uri,
		Kind:         kind,
		AuthorURI:    authorURI,
		CommunityURI: strings.TrimSpace(doc.Audience),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := r.Objects.UpsertObject(ctx, object); err != nil {
		return entities.Object{}, err
	}
	logger.Info("object resolved and upserted",
		"event", "federation_resolve_object_upserted",
		"module", "federation/activity-core",
		"layer", "application",
		"uri", uri,
		"kind", string(kind),
		"budget_remaining", budget.Remaining(),
	)
	return object, nil
}

func (r Resolver) now() time.Time {
	if r.Clock != nil {
		return r.Clock.Now().UTC()
	}
	return time.Now().UTC()
}

func (r Resolver) stale(refreshedAt time.Time, now time.Time) bool {
	interval := r.RefreshInterval
	if interval <= 0 {
		interval = defaultRefreshInterval
	}
	return !refreshedAt.IsZero() && now.Sub(refreshedAt) > interval
}

func objectKindFromType(docType string) (entities.ObjectKind, error) {
	switch strings.TrimSpace(docType) {
	case "Page":
		return entities.ObjectKindPost, nil
	case "Note":
		return entities.ObjectKindComment, nil
	default:
		return "", domainerrors.ErrUnresolvableReference
	}
}

// sameIdentity enforces domain confinement: the fetched document must
// declare exactly the identity that was requested. Hosts compare
// case-insensitively, the rest of the URI does not.
func sameIdentity(declared string, requested string) bool {
	declared = strings.TrimRight(strings.TrimSpace(declared), "/")
	requested = strings.TrimRight(strings.TrimSpace(requested), "/")
	if declared == "" || requested == "" {
		return false
	}
	du, err := url.Parse(declared)
	if err != nil {
		return false
	}
	ru, err := url.Parse(requested)
	if err != nil {
		return false
	}
	if !strings.EqualFold(du.Host, ru.Host) {
		return false
	}
	return du.Scheme == ru.Scheme && du.Path == ru.Path
}
