package workers

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"time"

	application "concourse/contexts/federation/relay-service/application"
	"concourse/contexts/federation/relay-service/domain/entities"
	domainerrors "concourse/contexts/federation/relay-service/domain/errors"
	"concourse/contexts/federation/relay-service/ports"
)

const (
	communityFollowedTopic = "community.followed"
	defaultFollowerCG      = "relay-service-follower-cg"
)

type communityFollowedData struct {
	CommunityURI  string `json:"community_uri"`
	FollowerURI   string `json:"follower_uri"`
	FollowerInbox string `json:"follower_inbox"`
}

// FollowerConsumer keeps the relay's follower set in sync with accepted
// follow activities from the core.
type FollowerConsumer struct {
	Subscriber    ports.EventSubscriber
	Followers     ports.FollowerRepository
	Clock         ports.Clock
	ConsumerGroup string
	Disabled      bool
	Logger        *slog.Logger
}

func (c FollowerConsumer) Start(ctx context.Context) error {
	logger := application.ResolveLogger(c.Logger)
	if c.Disabled {
		logger.Info("relay follower consumer disabled by feature flag",
			"event", "relay_follower_consumer_disabled",
			"module", "federation/relay-service",
			"layer", "worker",
		)
		return nil
	}
	group := strings.TrimSpace(c.ConsumerGroup)
	if group == "" {
		group = defaultFollowerCG
	}
	logger.Info("relay follower consumer starting subscription",
		"event", "relay_follower_consumer_starting",
		"module", "federation/relay-service",
		"layer", "worker",
		"consumer_group", group,
	)
	return c.Subscriber.Subscribe(ctx, communityFollowedTopic, group, c.handleFollowed)
}

func (c FollowerConsumer) handleFollowed(ctx context.Context, payload []byte) error {
	logger := application.ResolveLogger(c.Logger)
	var envelope ports.EventEnvelope
	if err := json.Unmarshal(payload, &envelope); err != nil {
		logger.Error("relay follower event decode failed",
			"event", "relay_follower_decode_failed",
			"module", "federation/relay-service",
			"layer", "worker",
			"error", err.Error(),
		)
		return err
	}
	var data communityFollowedData
	if err := json.Unmarshal(envelope.Data, &data); err != nil {
		return err
	}
	if strings.TrimSpace(data.CommunityURI) == "" || strings.TrimSpace(data.FollowerURI) == "" {
		return domainerrors.ErrInvalidFollowerInput
	}

	now := time.Now().UTC()
	if c.Clock != nil {
		now = c.Clock.Now().UTC()
	}
	if err := c.Followers.AddFollower(ctx, entities.Follower{
		CommunityURI: strings.TrimSpace(data.CommunityURI),
		ActorURI:     strings.TrimSpace(data.FollowerURI),
		InboxURI:     strings.TrimSpace(data.FollowerInbox),
		CreatedAt:    now,
	}); err != nil {
		return err
	}
	logger.Info("relay follower recorded",
		"event", "relay_follower_recorded",
		"module", "federation/relay-service",
		"layer", "worker",
		"community_uri", strings.TrimSpace(data.CommunityURI),
		"follower_uri", strings.TrimSpace(data.FollowerURI),
	)
	return nil
}
