package commands_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	relayservice "concourse/contexts/federation/relay-service"
	"concourse/contexts/federation/relay-service/application/commands"
	"concourse/contexts/federation/relay-service/domain/entities"
	domainerrors "concourse/contexts/federation/relay-service/domain/errors"
)

type stubDeliverer struct {
	announcements []entities.Announcement
	inboxes       [][]string
}

func (d *stubDeliverer) Deliver(_ context.Context, announcement entities.Announcement, inboxes []string) error {
	d.announcements = append(d.announcements, announcement)
	d.inboxes = append(d.inboxes, inboxes)
	return nil
}

const communityURI = "https://local.example/c/birds"

func forwardCommand(activityID string) commands.ForwardCommand {
	return commands.ForwardCommand{
		CommunityURI: communityURI,
		ActivityID:   activityID,
		Payload:      json.RawMessage(`{"type":"Like"}`),
	}
}

func TestForwardDeliversToFollowers(t *testing.T) {
	deliverer := &stubDeliverer{}
	module := relayservice.NewInMemoryModule(deliverer, "https://local.example", nil)
	seedFollower(t, module, "https://a.example/u/1", "https://a.example/inbox")
	seedFollower(t, module, "https://b.example/u/2", "https://b.example/inbox")

	forwarded, err := module.Forwarder.Forward(context.Background(), forwardCommand("https://remote.example/activities/like/1"))
	if err != nil {
		t.Fatalf("forward failed: %v", err)
	}
	if !forwarded {
		t.Fatalf("expected first forward to happen")
	}
	if len(deliverer.inboxes) != 1 || len(deliverer.inboxes[0]) != 2 {
		t.Fatalf("expected one delivery to two inboxes, got %+v", deliverer.inboxes)
	}

	announcement := deliverer.announcements[0]
	if announcement.Kind != entities.KindAnnounce {
		t.Fatalf("expected announce kind, got %s", announcement.Kind)
	}
	if announcement.ActorURI != communityURI {
		t.Fatalf("announcements are attributed to the community, got %s", announcement.ActorURI)
	}
	if announcement.To != entities.PublicAudience {
		t.Fatalf("expected public audience, got %s", announcement.To)
	}
	if string(announcement.Object) != `{"type":"Like"}` {
		t.Fatalf("announcement must wrap the original payload, got %s", announcement.Object)
	}
}

func TestForwardDeduplicatesAcrossRedeliveries(t *testing.T) {
	deliverer := &stubDeliverer{}
	module := relayservice.NewInMemoryModule(deliverer, "https://local.example", nil)
	seedFollower(t, module, "https://a.example/u/1", "https://a.example/inbox")

	first, err := module.Forwarder.Forward(context.Background(), forwardCommand("https://remote.example/activities/like/1"))
	if err != nil || !first {
		t.Fatalf("first forward failed: forwarded=%v err=%v", first, err)
	}

	// The same id arriving again, even via a different peer, is a no-op.
	second, err := module.Forwarder.Forward(context.Background(), forwardCommand("https://remote.example/activities/like/1"))
	if err != nil {
		t.Fatalf("duplicate forward errored: %v", err)
	}
	if second {
		t.Fatalf("duplicate must not be forwarded")
	}
	if len(deliverer.announcements) != 1 {
		t.Fatalf("expected exactly one delivery, got %d", len(deliverer.announcements))
	}
}

func TestForwardWithNoFollowersStillRecords(t *testing.T) {
	deliverer := &stubDeliverer{}
	module := relayservice.NewInMemoryModule(deliverer, "https://local.example", nil)

	forwarded, err := module.Forwarder.Forward(context.Background(), forwardCommand("https://remote.example/activities/like/1"))
	if err != nil {
		t.Fatalf("forward failed: %v", err)
	}
	if !forwarded {
		t.Fatalf("forward with empty follower set still counts as handled")
	}
	if len(deliverer.announcements) != 0 {
		t.Fatalf("nothing to deliver without followers, got %d", len(deliverer.announcements))
	}

	// Ledger entry exists, so a later redelivery stays suppressed.
	again, err := module.Forwarder.Forward(context.Background(), forwardCommand("https://remote.example/activities/like/1"))
	if err != nil {
		t.Fatalf("redelivery errored: %v", err)
	}
	if again {
		t.Fatalf("redelivery after empty fan-out must be deduplicated")
	}
}

func TestForwardValidatesInput(t *testing.T) {
	module := relayservice.NewInMemoryModule(&stubDeliverer{}, "https://local.example", nil)

	_, err := module.Forwarder.Forward(context.Background(), commands.ForwardCommand{
		CommunityURI: communityURI,
	})
	if !errors.Is(err, domainerrors.ErrInvalidForwardInput) {
		t.Fatalf("expected invalid forward input, got %v", err)
	}
}

func seedFollower(t *testing.T, module relayservice.Module, actorURI string, inboxURI string) {
	t.Helper()
	if err := module.Store.AddFollower(context.Background(), entities.Follower{
		CommunityURI: communityURI,
		ActorURI:     actorURI,
		InboxURI:     inboxURI,
	}); err != nil {
		t.Fatalf("seed follower failed: %v", err)
	}
}
