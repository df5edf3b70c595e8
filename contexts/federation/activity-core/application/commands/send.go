package commands

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	application "concourse/contexts/federation/activity-core/application"
	"concourse/contexts/federation/activity-core/domain/entities"
	domainerrors "concourse/contexts/federation/activity-core/domain/errors"
	"concourse/contexts/federation/activity-core/ports"
)

// SendVoteCommand is the write-model input for an outbound vote activity.
type SendVoteCommand struct {
	ActorURI    string
	ObjectURI   string
	CommunityID string
	Kind        entities.ActivityKind
}

// OutboundUseCase builds addressed, identified outbound activities from
// local actions and hands them to the delivery collaborator. Fan-out to
// followers happens on the receiving community's relay, not here.
type OutboundUseCase struct {
	Actors      ports.ActorRepository
	Objects     ports.ObjectRepository
	Communities ports.CommunityRepository
	Votes       ports.VoteRepository
	Deliverer   ports.Deliverer
	Clock       ports.Clock
	IDGen       ports.IDGenerator
	BaseURL     string
	Logger      *slog.Logger
}

// SendVote persists the local vote effect and delivers the envelope with an
// empty direct-recipient list. Delivery failures are surfaced, not retried;
// redelivery is the delivery queue's concern.
func (uc OutboundUseCase) SendVote(ctx context.Context, cmd SendVoteCommand) (entities.Envelope, error) {
	logger := application.ResolveLogger(uc.Logger)
	logger.Info("outbound vote processing started",
		"event", "federation_send_vote_started",
		"module", "federation/activity-core",
		"layer", "application",
		"actor", strings.TrimSpace(cmd.ActorURI),
		"object", strings.TrimSpace(cmd.ObjectURI),
		"community_id", strings.TrimSpace(cmd.CommunityID),
		"kind", string(cmd.Kind),
	)
	if strings.TrimSpace(cmd.ActorURI) == "" ||
		strings.TrimSpace(cmd.ObjectURI) == "" ||
		strings.TrimSpace(cmd.CommunityID) == "" {
		return entities.Envelope{}, domainerrors.ErrMalformedActivity
	}
	voteType, err := entities.VoteTypeFromKind(cmd.Kind)
	if err != nil {
		return entities.Envelope{}, err
	}
	value, err := voteType.Delta()
	if err != nil {
		return entities.Envelope{}, err
	}

	actor, found, err := uc.Actors.GetActorByURI(ctx, strings.TrimSpace(cmd.ActorURI))
	if err != nil {
		return entities.Envelope{}, err
	}
	if !found {
		return entities.Envelope{}, domainerrors.ErrActorNotFound
	}
	if !actor.Local {
		return entities.Envelope{}, domainerrors.ErrActorNotLocal
	}

	object, found, err := uc.Objects.GetObjectByURI(ctx, strings.TrimSpace(cmd.ObjectURI))
	if err != nil {
		return entities.Envelope{}, err
	}
	if !found {
		return entities.Envelope{}, domainerrors.ErrObjectNotFound
	}

	community, err := uc.Communities.GetCommunity(ctx, strings.TrimSpace(cmd.CommunityID))
	if err != nil {
		return entities.Envelope{}, err
	}

	activityID, err := uc.mintActivityID(ctx, cmd.Kind)
	if err != nil {
		return entities.Envelope{}, err
	}
	envelope := entities.Envelope{
		ID:     activityID,
		Actor:  actor.URI,
		To:     entities.PublicAudience,
		Kind:   cmd.Kind,
		Object: object.URI,
		CC:     []string{community.URI},
	}

	now := uc.now()
	score, err := uc.Votes.ApplyVote(ctx, entities.VoteRecord{
		ActorURI:  actor.URI,
		ObjectURI: object.URI,
		Value:     value,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		return entities.Envelope{}, err
	}

	if err := uc.Deliverer.Deliver(ctx, envelope, nil, actor); err != nil {
		logger.Error("outbound vote delivery hand-off failed",
			"event", "federation_send_vote_delivery_failed",
			"module", "federation/activity-core",
			"layer", "application",
			"activity_id", activityID,
			"community_uri", community.URI,
			"error", err.Error(),
		)
		return entities.Envelope{}, err
	}

	logger.Info("outbound vote sent",
		"event", "federation_send_vote_completed",
		"module", "federation/activity-core",
		"layer", "application",
		"activity_id", activityID,
		"actor", actor.URI,
		"object", object.URI,
		"community_uri", community.URI,
		"value", value,
		"score", score.Score,
	)
	return envelope, nil
}

// mintActivityID produces a fresh, kind-scoped, globally unique activity
// identifier under this node's base URL. Identifiers are never reused.
func (uc OutboundUseCase) mintActivityID(ctx context.Context, kind entities.ActivityKind) (string, error) {
	id, err := uc.IDGen.NewID(ctx)
	if err != nil {
		return "", err
	}
	base := strings.TrimRight(strings.TrimSpace(uc.BaseURL), "/")
	return fmt.Sprintf("%s/activities/%s/%s", base, strings.ToLower(string(kind)), id), nil
}

func (uc OutboundUseCase) now() time.Time {
	if uc.Clock != nil {
		return uc.Clock.Now().UTC()
	}
	return time.Now().UTC()
}
