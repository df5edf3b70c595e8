package commands_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	activitycore "concourse/contexts/federation/activity-core"
	"concourse/contexts/federation/activity-core/application/commands"
	"concourse/contexts/federation/activity-core/domain/entities"
	domainerrors "concourse/contexts/federation/activity-core/domain/errors"
)

func newSendModule(t *testing.T, deliverer *stubDeliverer) activitycore.Module {
	t.Helper()
	module := activitycore.NewInMemoryModule(&stubFetcher{}, deliverer, "https://local.example/", nil)
	module.Store.SetActor(entities.Actor{
		URI:      "https://local.example/u/dana",
		Local:    true,
		InboxURI: "https://local.example/u/dana/inbox",
	})
	module.Store.SetObject(entities.Object{
		URI:          postURI,
		Kind:         entities.ObjectKindPost,
		CommunityURI: communityURI,
	})
	module.Store.SetCommunity(entities.Community{
		ID:  "birds",
		URI: communityURI,
	})
	return module
}

func TestSendVoteBuildsAddressedEnvelope(t *testing.T) {
	deliverer := &stubDeliverer{}
	module := newSendModule(t, deliverer)

	envelope, err := module.Outbound.SendVote(context.Background(), commands.SendVoteCommand{
		ActorURI:    "https://local.example/u/dana",
		ObjectURI:   postURI,
		CommunityID: "birds",
		Kind:        entities.KindLike,
	})
	if err != nil {
		t.Fatalf("send vote failed: %v", err)
	}

	if envelope.To != entities.PublicAudience {
		t.Fatalf("expected public audience, got %s", envelope.To)
	}
	if len(envelope.CC) != 1 || envelope.CC[0] != communityURI {
		t.Fatalf("expected community in cc, got %v", envelope.CC)
	}
	if !strings.HasPrefix(envelope.ID, "https://local.example/activities/like/") {
		t.Fatalf("unexpected activity id %s", envelope.ID)
	}
	if envelope.ID == "https://local.example/activities/like/" {
		t.Fatalf("activity id must carry a unique suffix")
	}

	if len(deliverer.envelopes) != 1 {
		t.Fatalf("expected one delivery hand-off, got %d", len(deliverer.envelopes))
	}
	if len(deliverer.recipients[0]) != 0 {
		t.Fatalf("vote activities carry no direct recipients, got %v", deliverer.recipients[0])
	}

	score, err := module.Store.GetObjectScore(context.Background(), postURI)
	if err != nil {
		t.Fatalf("score lookup failed: %v", err)
	}
	if score.Score != 1 {
		t.Fatalf("expected local vote applied before delivery, got %+v", score)
	}
}

func TestSendVoteMintsFreshIDs(t *testing.T) {
	module := newSendModule(t, &stubDeliverer{})

	first, err := module.Outbound.SendVote(context.Background(), commands.SendVoteCommand{
		ActorURI:    "https://local.example/u/dana",
		ObjectURI:   postURI,
		CommunityID: "birds",
		Kind:        entities.KindLike,
	})
	if err != nil {
		t.Fatalf("first send failed: %v", err)
	}
	second, err := module.Outbound.SendVote(context.Background(), commands.SendVoteCommand{
		ActorURI:    "https://local.example/u/dana",
		ObjectURI:   postURI,
		CommunityID: "birds",
		Kind:        entities.KindDislike,
	})
	if err != nil {
		t.Fatalf("second send failed: %v", err)
	}
	if first.ID == second.ID {
		t.Fatalf("activity ids must never be reused, got %s twice", first.ID)
	}
}

func TestSendVoteRejectsRemoteActor(t *testing.T) {
	module := newSendModule(t, &stubDeliverer{})
	module.Store.SetActor(entities.Actor{
		URI:   actorURI,
		Local: false,
	})

	_, err := module.Outbound.SendVote(context.Background(), commands.SendVoteCommand{
		ActorURI:    actorURI,
		ObjectURI:   postURI,
		CommunityID: "birds",
		Kind:        entities.KindLike,
	})
	if !errors.Is(err, domainerrors.ErrActorNotLocal) {
		t.Fatalf("expected actor not local, got %v", err)
	}
}

func TestSendVoteUnknownCommunity(t *testing.T) {
	module := newSendModule(t, &stubDeliverer{})

	_, err := module.Outbound.SendVote(context.Background(), commands.SendVoteCommand{
		ActorURI:    "https://local.example/u/dana",
		ObjectURI:   postURI,
		CommunityID: "missing",
		Kind:        entities.KindLike,
	})
	if !errors.Is(err, domainerrors.ErrCommunityNotFound) {
		t.Fatalf("expected community not found, got %v", err)
	}
}
