package commands

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"time"

	application "concourse/contexts/federation/activity-core/application"
	"concourse/contexts/federation/activity-core/application/resolve"
	"concourse/contexts/federation/activity-core/domain/entities"
	domainerrors "concourse/contexts/federation/activity-core/domain/errors"
	"concourse/contexts/federation/activity-core/ports"
)

const defaultFetchBudget = 25

// InboundUseCase is the verification gate and dispatcher for activities
// delivered by remote nodes. Envelopes reaching it are assumed to have
// passed transport-level signature verification already.
type InboundUseCase struct {
	Resolver    resolve.Resolver
	Communities ports.CommunityRepository
	Votes       ports.VoteRepository
	Outbox      ports.OutboxWriter
	Clock       ports.Clock
	IDGen       ports.IDGenerator
	FetchBudget int
	Logger      *slog.Logger
}

// Process runs one inbound activity end to end: structural verification,
// actor authorization, type-directed receive, then relay hand-off through
// the outbox. It mints a fresh request budget owned by this run alone.
func (uc InboundUseCase) Process(ctx context.Context, env entities.Envelope) error {
	logger := application.ResolveLogger(uc.Logger)
	logger.Info("inbound activity processing started",
		"event", "federation_inbound_started",
		"module", "federation/activity-core",
		"layer", "application",
		"activity_id", strings.TrimSpace(env.ID),
		"kind", string(env.Kind),
		"actor", strings.TrimSpace(env.Actor),
	)

	budget := entities.NewRequestBudget(uc.resolveFetchBudget())
	if err := uc.Verify(ctx, env, budget); err != nil {
		logger.Warn("inbound activity rejected",
			"event", "federation_inbound_rejected",
			"module", "federation/activity-core",
			"layer", "application",
			"activity_id", strings.TrimSpace(env.ID),
			"kind", string(env.Kind),
			"error", err.Error(),
		)
		return err
	}
	if err := uc.Receive(ctx, env, budget); err != nil {
		logger.Warn("inbound activity receive failed",
			"event", "federation_inbound_receive_failed",
			"module", "federation/activity-core",
			"layer", "application",
			"activity_id", strings.TrimSpace(env.ID),
			"kind", string(env.Kind),
			"error", err.Error(),
		)
		return err
	}

	if announceable(env.Kind) {
		if err := uc.appendAcceptedEvent(ctx, env); err != nil {
			return err
		}
	}
	logger.Info("inbound activity accepted",
		"event", "federation_inbound_accepted",
		"module", "federation/activity-core",
		"layer", "application",
		"activity_id", strings.TrimSpace(env.ID),
		"kind", string(env.Kind),
		"community_uri", env.CommunityURI(),
	)
	return nil
}

// Verify performs the structural and authorization checks for env without
// applying any of its payload. Trust failures here are terminal for the
// activity; retrying a forged or malformed activity cannot succeed.
func (uc InboundUseCase) Verify(ctx context.Context, env entities.Envelope, budget *entities.RequestBudget) error {
	if err := validateEnvelope(env); err != nil {
		return err
	}
	handler, err := uc.handlerFor(env.Kind)
	if err != nil {
		return err
	}
	return handler.Verify(ctx, env, budget)
}

// Receive dispatches a verified activity to the handler for its kind.
func (uc InboundUseCase) Receive(ctx context.Context, env entities.Envelope, budget *entities.RequestBudget) error {
	handler, err := uc.handlerFor(env.Kind)
	if err != nil {
		return err
	}
	return handler.Receive(ctx, env, budget)
}

// activityHandler is implemented once per receivable activity kind. The
// dispatch set is closed: handlerFor enumerates it exhaustively.
type activityHandler interface {
	Verify(ctx context.Context, env entities.Envelope, budget *entities.RequestBudget) error
	Receive(ctx context.Context, env entities.Envelope, budget *entities.RequestBudget) error
}

func (uc InboundUseCase) handlerFor(kind entities.ActivityKind) (activityHandler, error) {
	switch kind {
	case entities.KindLike, entities.KindDislike:
		return voteHandler{uc: uc}, nil
	case entities.KindFollow:
		return followHandler{uc: uc}, nil
	default:
		return nil, domainerrors.ErrUnsupportedActivity
	}
}

func announceable(kind entities.ActivityKind) bool {
	switch kind {
	case entities.KindLike, entities.KindDislike:
		return true
	default:
		return false
	}
}

func validateEnvelope(env entities.Envelope) error {
	if strings.TrimSpace(env.ID) == "" ||
		strings.TrimSpace(env.Actor) == "" ||
		strings.TrimSpace(string(env.Kind)) == "" ||
		strings.TrimSpace(env.Object) == "" ||
		strings.TrimSpace(env.CommunityURI()) == "" {
		return domainerrors.ErrMalformedActivity
	}
	return nil
}

type voteHandler struct {
	uc InboundUseCase
}

// Verify resolves the voting actor and checks membership of the community
// named in the first cc entry. This is the anti-forgery gate: without it
// any remote actor could cast votes attributed to any community.
func (h voteHandler) Verify(ctx context.Context, env entities.Envelope, budget *entities.RequestBudget) error {
	actor, err := h.uc.Resolver.ResolveActor(ctx, env.Actor, budget)
	if err != nil {
		return err
	}
	communityURI := env.CommunityURI()
	if _, found, err := h.uc.Communities.GetCommunityByURI(ctx, communityURI); err != nil {
		return err
	} else if !found {
		return domainerrors.ErrCommunityNotFound
	}
	member, err := h.uc.Communities.IsMember(ctx, communityURI, actor.URI)
	if err != nil {
		return err
	}
	if !member {
		return domainerrors.ErrUnauthorizedActor
	}
	return nil
}

func (h voteHandler) Receive(ctx context.Context, env entities.Envelope, budget *entities.RequestBudget) error {
	logger := application.ResolveLogger(h.uc.Logger)
	actor, err := h.uc.Resolver.ResolveActor(ctx, env.Actor, budget)
	if err != nil {
		return err
	}
	object, err := h.uc.Resolver.ResolveObject(ctx, env.Object, budget)
	if err != nil {
		return err
	}
	voteType, err := entities.VoteTypeFromKind(env.Kind)
	if err != nil {
		return err
	}
	value, err := voteType.Delta()
	if err != nil {
		return err
	}

	switch object.Kind {
	case entities.ObjectKindPost:
		return h.apply(ctx, logger, actor, object, value, "federation_vote_post_applied")
	case entities.ObjectKindComment:
		return h.apply(ctx, logger, actor, object, value, "federation_vote_comment_applied")
	default:
		return domainerrors.ErrUnresolvableReference
	}
}

func (h voteHandler) apply(
	ctx context.Context,
	logger *slog.Logger,
	actor entities.Actor,
	object entities.Object,
	value int16,
	event string,
) error {
	now := h.uc.now()
	score, err := h.uc.Votes.ApplyVote(ctx, entities.VoteRecord{
		ActorURI:  actor.URI,
		ObjectURI: object.URI,
		Value:     value,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		return err
	}
	logger.Info("vote applied",
		"event", event,
		"module", "federation/activity-core",
		"layer", "application",
		"actor", actor.URI,
		"object", object.URI,
		"value", value,
		"score", score.Score,
	)
	return nil
}

type followHandler struct {
	uc InboundUseCase
}

// Verify for follows only requires a resolvable actor and a local target
// community; the actor is by definition not yet a member.
func (h followHandler) Verify(ctx context.Context, env entities.Envelope, budget *entities.RequestBudget) error {
	if _, err := h.uc.Resolver.ResolveActor(ctx, env.Actor, budget); err != nil {
		return err
	}
	if _, found, err := h.uc.Communities.GetCommunityByURI(ctx, env.Object); err != nil {
		return err
	} else if !found {
		return domainerrors.ErrCommunityNotFound
	}
	return nil
}

func (h followHandler) Receive(ctx context.Context, env entities.Envelope, budget *entities.RequestBudget) error {
	logger := application.ResolveLogger(h.uc.Logger)
	actor, err := h.uc.Resolver.ResolveActor(ctx, env.Actor, budget)
	if err != nil {
		return err
	}
	community, found, err := h.uc.Communities.GetCommunityByURI(ctx, env.Object)
	if err != nil {
		return err
	}
	if !found {
		return domainerrors.ErrCommunityNotFound
	}
	now := h.uc.now()
	if err := h.uc.Communities.AddMember(ctx, community.URI, actor.URI, now); err != nil {
		return err
	}
	if err := h.uc.appendFollowedEvent(ctx, community, actor, now); err != nil {
		return err
	}
	logger.Info("community follow recorded",
		"event", "federation_follow_recorded",
		"module", "federation/activity-core",
		"layer", "application",
		"community_uri", community.URI,
		"actor", actor.URI,
	)
	return nil
}

func (uc InboundUseCase) now() time.Time {
	if uc.Clock != nil {
		return uc.Clock.Now().UTC()
	}
	return time.Now().UTC()
}

func (uc InboundUseCase) resolveFetchBudget() int {
	if uc.FetchBudget <= 0 {
		return defaultFetchBudget
	}
	return uc.FetchBudget
}

func (uc InboundUseCase) appendAcceptedEvent(ctx context.Context, env entities.Envelope) error {
	// Outbox is optional for pure read/test wiring, so nil is treated as no-op.
	if uc.Outbox == nil {
		return nil
	}
	eventID, err := uc.IDGen.NewID(ctx)
	if err != nil {
		return err
	}
	payload, err := json.Marshal(map[string]any{
		"id":     env.ID,
		"actor":  env.Actor,
		"to":     env.To,
		"type":   string(env.Kind),
		"object": env.Object,
		"cc":     env.CC,
	})
	if err != nil {
		return err
	}
	now := uc.now()
	envelope, err := newFederationEnvelope(eventID, TopicActivityAccepted, env.CommunityURI(), now, map[string]any{
		"activity_id":   env.ID,
		"community_uri": env.CommunityURI(),
		"actor":         env.Actor,
		"kind":          string(env.Kind),
		"object":        env.Object,
		"payload":       json.RawMessage(payload),
	})
	if err != nil {
		return err
	}
	raw, err := json.Marshal(envelope)
	if err != nil {
		return err
	}
	return uc.Outbox.AppendOutbox(ctx, ports.OutboxMessage{
		OutboxID:     eventID,
		EventType:    TopicActivityAccepted,
		PartitionKey: env.CommunityURI(),
		Payload:      raw,
		CreatedAt:    now,
	})
}

func (uc InboundUseCase) appendFollowedEvent(ctx context.Context, community entities.Community, actor entities.Actor, occurredAt time.Time) error {
	if uc.Outbox == nil {
		return nil
	}
	eventID, err := uc.IDGen.NewID(ctx)
	if err != nil {
		return err
	}
	envelope, err := newFederationEnvelope(eventID, TopicCommunityFollowed, community.URI, occurredAt, map[string]any{
		"community_uri":  community.URI,
		"follower_uri":   actor.URI,
		"follower_inbox": actor.InboxURI,
	})
	if err != nil {
		return err
	}
	raw, err := json.Marshal(envelope)
	if err != nil {
		return err
	}
	return uc.Outbox.AppendOutbox(ctx, ports.OutboxMessage{
		OutboxID:     eventID,
		EventType:    TopicCommunityFollowed,
		PartitionKey: community.URI,
		Payload:      raw,
		CreatedAt:    occurredAt,
	})
}
