package workers

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"

	application "concourse/contexts/federation/relay-service/application"
	"concourse/contexts/federation/relay-service/application/commands"
	"concourse/contexts/federation/relay-service/ports"
)

const (
	activityAcceptedTopic = "activity.accepted"
	defaultActivityCG     = "relay-service-activity-cg"
)

type acceptedActivityData struct {
	ActivityID   string          `json:"activity_id"`
	CommunityURI string          `json:"community_uri"`
	Payload      json.RawMessage `json:"payload"`
}

// ActivityConsumer drives the fan-out relay from core-accepted activities.
type ActivityConsumer struct {
	Subscriber    ports.EventSubscriber
	Forwarder     commands.ForwardUseCase
	ConsumerGroup string
	Disabled      bool
	Logger        *slog.Logger
}

func (c ActivityConsumer) Start(ctx context.Context) error {
	logger := application.ResolveLogger(c.Logger)
	if c.Disabled {
		logger.Info("relay activity consumer disabled by feature flag",
			"event", "relay_activity_consumer_disabled",
			"module", "federation/relay-service",
			"layer", "worker",
		)
		return nil
	}
	group := strings.TrimSpace(c.ConsumerGroup)
	if group == "" {
		group = defaultActivityCG
	}
	logger.Info("relay activity consumer starting subscription",
		"event", "relay_activity_consumer_starting",
		"module", "federation/relay-service",
		"layer", "worker",
		"consumer_group", group,
	)
	return c.Subscriber.Subscribe(ctx, activityAcceptedTopic, group, c.handleAccepted)
}

func (c ActivityConsumer) handleAccepted(ctx context.Context, payload []byte) error {
	logger := application.ResolveLogger(c.Logger)
	var envelope ports.EventEnvelope
	if err := json.Unmarshal(payload, &envelope); err != nil {
		logger.Error("relay activity event decode failed",
			"event", "relay_activity_decode_failed",
			"module", "federation/relay-service",
			"layer", "worker",
			"error", err.Error(),
		)
		return err
	}
	var data acceptedActivityData
	if err := json.Unmarshal(envelope.Data, &data); err != nil {
		logger.Error("relay activity data decode failed",
			"event", "relay_activity_data_decode_failed",
			"module", "federation/relay-service",
			"layer", "worker",
			"event_id", envelope.EventID,
			"error", err.Error(),
		)
		return err
	}

	_, err := c.Forwarder.Forward(ctx, commands.ForwardCommand{
		CommunityURI: data.CommunityURI,
		ActivityID:   data.ActivityID,
		Payload:      data.Payload,
	})
	return err
}
