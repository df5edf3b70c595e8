package bootstrap

import (
	"context"
	"encoding/json"
	"fmt"

	activityentities "concourse/contexts/federation/activity-core/domain/entities"
	activityports "concourse/contexts/federation/activity-core/ports"
	relayentities "concourse/contexts/federation/relay-service/domain/entities"
	"concourse/internal/platform/delivery"
)

// wireActivity is the outbound activity document shape. It mirrors the
// inbound ActivityRequest so peers round-trip cleanly.
type wireActivity struct {
	ID     string   `json:"id"`
	Actor  string   `json:"actor"`
	To     string   `json:"to"`
	Type   string   `json:"type"`
	Object string   `json:"object"`
	CC     []string `json:"cc"`
}

// activityDeliverer resolves envelope addressing into concrete inboxes and
// hands the serialized document to the platform delivery client. Remote
// community inboxes come from the cc audience; direct recipients are
// already inbox URIs.
type activityDeliverer struct {
	communities activityports.CommunityRepository
	client      *delivery.Client
}

func (d activityDeliverer) Deliver(
	ctx context.Context,
	envelope activityentities.Envelope,
	directRecipients []string,
	origin activityentities.Actor,
) error {
	payload, err := json.Marshal(wireActivity{
		ID:     envelope.ID,
		Actor:  envelope.Actor,
		To:     envelope.To,
		Type:   string(envelope.Kind),
		Object: envelope.Object,
		CC:     envelope.CC,
	})
	if err != nil {
		return fmt.Errorf("encode outbound activity: %w", err)
	}

	seen := make(map[string]struct{}, len(directRecipients)+len(envelope.CC))
	inboxes := make([]string, 0, len(directRecipients)+len(envelope.CC))
	appendInbox := func(inbox string) {
		if inbox == "" || inbox == origin.InboxURI {
			return
		}
		if _, dup := seen[inbox]; dup {
			return
		}
		seen[inbox] = struct{}{}
		inboxes = append(inboxes, inbox)
	}

	for _, inbox := range directRecipients {
		appendInbox(inbox)
	}
	for _, audience := range envelope.CC {
		if audience == activityentities.PublicAudience {
			continue
		}
		community, found, err := d.communities.GetCommunityByURI(ctx, audience)
		if err != nil {
			return err
		}
		if !found || community.Local {
			continue
		}
		appendInbox(community.InboxURI)
	}
	return d.client.Post(ctx, inboxes, payload)
}

// relayDeliverer serializes an announcement and posts it to follower
// inboxes as-is; the forwarder has already deduplicated them.
type relayDeliverer struct {
	client *delivery.Client
}

func (d relayDeliverer) Deliver(ctx context.Context, announcement relayentities.Announcement, inboxes []string) error {
	payload, err := json.Marshal(announcement)
	if err != nil {
		return fmt.Errorf("encode announcement: %w", err)
	}
	return d.client.Post(ctx, inboxes, payload)
}
