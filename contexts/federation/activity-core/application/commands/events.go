package commands

import (
	"encoding/json"
	"time"

	"concourse/contexts/federation/activity-core/ports"
)

const (
	// TopicActivityAccepted carries verified-and-applied activities to the
	// relay module for community fan-out.
	TopicActivityAccepted = "activity.accepted"
	// TopicCommunityFollowed announces new community memberships so the
	// relay can maintain its follower set.
	TopicCommunityFollowed = "community.followed"
)

// newFederationEnvelope builds canonical envelopes for core-produced events.
func newFederationEnvelope(
	eventID string,
	eventType string,
	partitionKey string,
	occurredAt time.Time,
	data map[string]any,
) (ports.EventEnvelope, error) {
	payload, err := json.Marshal(data)
	if err != nil {
		return ports.EventEnvelope{}, err
	}
	return ports.EventEnvelope{
		EventID:       eventID,
		EventType:     eventType,
		OccurredAt:    occurredAt.UTC(),
		SourceService: "activity-core",
		TraceID:       eventID,
		SchemaVersion: 1,
		PartitionKey:  partitionKey,
		Data:          payload,
	}, nil
}
