package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	application "concourse/contexts/federation/relay-service/application"
	"concourse/contexts/federation/relay-service/domain/entities"
	domainerrors "concourse/contexts/federation/relay-service/domain/errors"
	"concourse/contexts/federation/relay-service/ports"
)

// ForwardCommand asks a community to announce one accepted activity to its
// followers.
type ForwardCommand struct {
	CommunityURI string
	ActivityID   string
	Payload      json.RawMessage
}

// ForwardUseCase is the fan-out relay. The ledger write happens before
// delivery so that a redelivered activity id can never be announced twice,
// even when the duplicate arrives from a different peer.
type ForwardUseCase struct {
	Ledger    ports.ForwardLedger
	Followers ports.FollowerRepository
	Deliverer ports.Deliverer
	Clock     ports.Clock
	IDGen     ports.IDGenerator
	BaseURL   string
	Logger    *slog.Logger
}

// Forward announces the activity to the community's followers. It reports
// whether a forward actually happened; duplicates are a logged no-op.
func (uc ForwardUseCase) Forward(ctx context.Context, cmd ForwardCommand) (bool, error) {
	logger := application.ResolveLogger(uc.Logger)
	communityURI := strings.TrimSpace(cmd.CommunityURI)
	activityID := strings.TrimSpace(cmd.ActivityID)
	if communityURI == "" || activityID == "" || len(cmd.Payload) == 0 {
		logger.Warn("forward validation failed",
			"event", "relay_forward_validation_failed",
			"module", "federation/relay-service",
			"layer", "application",
			"community_uri", communityURI,
			"activity_id", activityID,
		)
		return false, domainerrors.ErrInvalidForwardInput
	}

	now := uc.now()
	first, err := uc.Ledger.Record(ctx, activityID, communityURI, now)
	if err != nil {
		logger.Error("forward ledger record failed",
			"event", "relay_forward_ledger_failed",
			"module", "federation/relay-service",
			"layer", "application",
			"community_uri", communityURI,
			"activity_id", activityID,
			"error", err.Error(),
		)
		return false, err
	}
	if !first {
		logger.Info("forward skipped for already-forwarded activity",
			"event", "relay_forward_duplicate",
			"module", "federation/relay-service",
			"layer", "application",
			"community_uri", communityURI,
			"activity_id", activityID,
		)
		return false, nil
	}

	followers, err := uc.Followers.ListFollowers(ctx, communityURI)
	if err != nil {
		return false, err
	}
	if len(followers) == 0 {
		logger.Info("forward recorded with no followers to deliver to",
			"event", "relay_forward_no_followers",
			"module", "federation/relay-service",
			"layer", "application",
			"community_uri", communityURI,
			"activity_id", activityID,
		)
		return true, nil
	}

	announceID, err := uc.mintAnnounceID(ctx)
	if err != nil {
		return false, err
	}
	announcement := entities.Announcement{
		ID:       announceID,
		ActorURI: communityURI,
		To:       entities.PublicAudience,
		Kind:     entities.KindAnnounce,
		Object:   cmd.Payload,
		CC:       []string{},
	}

	inboxes := make([]string, 0, len(followers))
	seen := make(map[string]struct{}, len(followers))
	for _, follower := range followers {
		inbox := strings.TrimSpace(follower.InboxURI)
		if inbox == "" {
			continue
		}
		if _, dup := seen[inbox]; dup {
			continue
		}
		seen[inbox] = struct{}{}
		inboxes = append(inboxes, inbox)
	}

	if err := uc.Deliverer.Deliver(ctx, announcement, inboxes); err != nil {
		logger.Error("forward delivery hand-off failed",
			"event", "relay_forward_delivery_failed",
			"module", "federation/relay-service",
			"layer", "application",
			"community_uri", communityURI,
			"activity_id", activityID,
			"announce_id", announceID,
			"error", err.Error(),
		)
		return false, err
	}

	logger.Info("activity forwarded to followers",
		"event", "relay_forward_completed",
		"module", "federation/relay-service",
		"layer", "application",
		"community_uri", communityURI,
		"activity_id", activityID,
		"announce_id", announceID,
		"inbox_count", len(inboxes),
	)
	return true, nil
}

func (uc ForwardUseCase) mintAnnounceID(ctx context.Context) (string, error) {
	id, err := uc.IDGen.NewID(ctx)
	if err != nil {
		return "", err
	}
	base := strings.TrimRight(strings.TrimSpace(uc.BaseURL), "/")
	return fmt.Sprintf("%s/activities/announce/%s", base, id), nil
}

func (uc ForwardUseCase) now() time.Time {
	if uc.Clock != nil {
		return uc.Clock.Now().UTC()
	}
	return time.Now().UTC()
}
