package commands_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	activitycore "concourse/contexts/federation/activity-core"
	"concourse/contexts/federation/activity-core/application/commands"
	"concourse/contexts/federation/activity-core/domain/entities"
	domainerrors "concourse/contexts/federation/activity-core/domain/errors"
	"concourse/contexts/federation/activity-core/ports"
)

type stubFetcher struct {
	docs  map[string]ports.Document
	calls int
}

func (f *stubFetcher) Fetch(_ context.Context, uri string) (ports.Document, error) {
	f.calls++
	doc, ok := f.docs[uri]
	if !ok {
		return ports.Document{}, domainerrors.ErrUnresolvableReference
	}
	return doc, nil
}

type stubDeliverer struct {
	envelopes  [][2]string
	recipients [][]string
}

func (d *stubDeliverer) Deliver(_ context.Context, envelope entities.Envelope, directRecipients []string, _ entities.Actor) error {
	d.envelopes = append(d.envelopes, [2]string{envelope.ID, string(envelope.Kind)})
	d.recipients = append(d.recipients, directRecipients)
	return nil
}

const (
	communityURI = "https://local.example/c/birds"
	actorURI     = "https://remote.example/u/alice"
	postURI      = "https://remote.example/post/1"
)

func newVotingModule(t *testing.T, fetcher *stubFetcher) activitycore.Module {
	t.Helper()
	module := activitycore.NewInMemoryModule(fetcher, &stubDeliverer{}, "https://local.example", nil)
	module.Store.SetCommunity(entities.Community{
		ID:    "birds",
		URI:   communityURI,
		Local: true,
	})
	module.Store.SetActor(entities.Actor{
		URI:         actorURI,
		InboxURI:    "https://remote.example/u/alice/inbox",
		RefreshedAt: module.Store.Now(),
	})
	module.Store.SetObject(entities.Object{
		URI:          postURI,
		Kind:         entities.ObjectKindPost,
		CommunityURI: communityURI,
	})
	return module
}

func likeEnvelope(id string, kind entities.ActivityKind) entities.Envelope {
	return entities.Envelope{
		ID:     id,
		Actor:  actorURI,
		To:     entities.PublicAudience,
		Kind:   kind,
		Object: postURI,
		CC:     []string{communityURI},
	}
}

func TestInboundRejectsMalformedEnvelope(t *testing.T) {
	module := newVotingModule(t, &stubFetcher{})
	env := likeEnvelope("https://remote.example/activities/like/1", entities.KindLike)
	env.CC = nil

	err := module.Inbound.Process(context.Background(), env)
	if !errors.Is(err, domainerrors.ErrMalformedActivity) {
		t.Fatalf("expected malformed activity, got %v", err)
	}
}

func TestInboundRejectsUnsupportedKind(t *testing.T) {
	module := newVotingModule(t, &stubFetcher{})
	env := likeEnvelope("https://remote.example/activities/create/1", entities.ActivityKind("Create"))

	err := module.Inbound.Process(context.Background(), env)
	if !errors.Is(err, domainerrors.ErrUnsupportedActivity) {
		t.Fatalf("expected unsupported activity, got %v", err)
	}
}

func TestInboundRejectsNonMemberWithoutApplyingVote(t *testing.T) {
	module := newVotingModule(t, &stubFetcher{})
	env := likeEnvelope("https://remote.example/activities/like/1", entities.KindLike)

	err := module.Inbound.Process(context.Background(), env)
	if !errors.Is(err, domainerrors.ErrUnauthorizedActor) {
		t.Fatalf("expected unauthorized actor, got %v", err)
	}
	score, err := module.Store.GetObjectScore(context.Background(), postURI)
	if err != nil {
		t.Fatalf("score lookup failed: %v", err)
	}
	if score.Score != 0 || score.Upvotes != 0 || score.Downvotes != 0 {
		t.Fatalf("rejected activity must not change the score, got %+v", score)
	}
}

func TestInboundVoteAppliesAndRedeliveryIsIdempotent(t *testing.T) {
	module := newVotingModule(t, &stubFetcher{})
	module.Store.SetMember(communityURI, actorURI)
	env := likeEnvelope("https://remote.example/activities/like/1", entities.KindLike)

	if err := module.Inbound.Process(context.Background(), env); err != nil {
		t.Fatalf("first delivery failed: %v", err)
	}
	if err := module.Inbound.Process(context.Background(), env); err != nil {
		t.Fatalf("redelivery failed: %v", err)
	}

	score, err := module.Store.GetObjectScore(context.Background(), postURI)
	if err != nil {
		t.Fatalf("score lookup failed: %v", err)
	}
	if score.Score != 1 || score.Upvotes != 1 || score.Downvotes != 0 {
		t.Fatalf("expected single counted upvote, got %+v", score)
	}
}

func TestInboundVoteOverwriteNetsDelta(t *testing.T) {
	module := newVotingModule(t, &stubFetcher{})
	module.Store.SetMember(communityURI, actorURI)

	if err := module.Inbound.Process(context.Background(), likeEnvelope("https://remote.example/activities/like/1", entities.KindLike)); err != nil {
		t.Fatalf("like failed: %v", err)
	}
	if err := module.Inbound.Process(context.Background(), likeEnvelope("https://remote.example/activities/dislike/2", entities.KindDislike)); err != nil {
		t.Fatalf("dislike failed: %v", err)
	}

	score, err := module.Store.GetObjectScore(context.Background(), postURI)
	if err != nil {
		t.Fatalf("score lookup failed: %v", err)
	}
	if score.Score != -1 || score.Upvotes != 0 || score.Downvotes != 1 {
		t.Fatalf("expected overwrite to net to -1, got %+v", score)
	}
}

func TestInboundVoteAppendsAcceptedEvent(t *testing.T) {
	module := newVotingModule(t, &stubFetcher{})
	module.Store.SetMember(communityURI, actorURI)
	env := likeEnvelope("https://remote.example/activities/like/1", entities.KindLike)

	if err := module.Inbound.Process(context.Background(), env); err != nil {
		t.Fatalf("delivery failed: %v", err)
	}

	pending, err := module.Store.ListPendingOutbox(context.Background(), 10)
	if err != nil {
		t.Fatalf("outbox list failed: %v", err)
	}
	if len(pending) != 1 {
		t.Fatalf("expected one outbox row, got %d", len(pending))
	}
	if pending[0].EventType != commands.TopicActivityAccepted {
		t.Fatalf("unexpected event type %s", pending[0].EventType)
	}
	if pending[0].PartitionKey != communityURI {
		t.Fatalf("unexpected partition key %s", pending[0].PartitionKey)
	}

	var envelope ports.EventEnvelope
	if err := json.Unmarshal(pending[0].Payload, &envelope); err != nil {
		t.Fatalf("decode event envelope: %v", err)
	}
	var data struct {
		ActivityID   string          `json:"activity_id"`
		CommunityURI string          `json:"community_uri"`
		Payload      json.RawMessage `json:"payload"`
	}
	if err := json.Unmarshal(envelope.Data, &data); err != nil {
		t.Fatalf("decode event data: %v", err)
	}
	if data.ActivityID != env.ID || data.CommunityURI != communityURI {
		t.Fatalf("unexpected event data: %+v", data)
	}
	if len(data.Payload) == 0 {
		t.Fatalf("expected embedded activity payload")
	}
}

func TestInboundFollowRecordsMembershipAndEnablesVoting(t *testing.T) {
	module := newVotingModule(t, &stubFetcher{})

	follow := entities.Envelope{
		ID:     "https://remote.example/activities/follow/1",
		Actor:  actorURI,
		To:     communityURI,
		Kind:   entities.KindFollow,
		Object: communityURI,
		CC:     []string{communityURI},
	}
	if err := module.Inbound.Process(context.Background(), follow); err != nil {
		t.Fatalf("follow failed: %v", err)
	}

	member, err := module.Store.IsMember(context.Background(), communityURI, actorURI)
	if err != nil || !member {
		t.Fatalf("expected membership after follow, member=%v err=%v", member, err)
	}

	pending, err := module.Store.ListPendingOutbox(context.Background(), 10)
	if err != nil {
		t.Fatalf("outbox list failed: %v", err)
	}
	if len(pending) != 1 || pending[0].EventType != commands.TopicCommunityFollowed {
		t.Fatalf("expected one community.followed row, got %+v", pending)
	}

	if err := module.Inbound.Process(context.Background(), likeEnvelope("https://remote.example/activities/like/9", entities.KindLike)); err != nil {
		t.Fatalf("vote after follow failed: %v", err)
	}
}

func TestInboundBudgetExhaustionLeavesNoPartialVote(t *testing.T) {
	fetcher := &stubFetcher{docs: map[string]ports.Document{
		"https://remote.example/u/carol": {
			ID:    "https://remote.example/u/carol",
			Type:  "Person",
			Inbox: "https://remote.example/u/carol/inbox",
		},
		postURI: {
			ID:           postURI,
			Type:         "Page",
			AttributedTo: "https://remote.example/u/carol",
			Audience:     communityURI,
		},
	}}
	module := activitycore.NewInMemoryModule(fetcher, &stubDeliverer{}, "https://local.example", nil)
	module.Store.SetCommunity(entities.Community{ID: "birds", URI: communityURI, Local: true})
	module.Store.SetMember(communityURI, "https://remote.example/u/carol")
	module.Inbound.FetchBudget = 1

	env := entities.Envelope{
		ID:     "https://remote.example/activities/like/1",
		Actor:  "https://remote.example/u/carol",
		To:     entities.PublicAudience,
		Kind:   entities.KindLike,
		Object: postURI,
		CC:     []string{communityURI},
	}
	err := module.Inbound.Process(context.Background(), env)
	if !errors.Is(err, domainerrors.ErrRecursionBudgetExceeded) {
		t.Fatalf("expected budget exceeded, got %v", err)
	}
	if _, found, _ := module.Store.GetObjectByURI(context.Background(), postURI); found {
		t.Fatalf("partially resolved object must not be stored")
	}
	if _, err := module.Store.GetObjectScore(context.Background(), postURI); !errors.Is(err, domainerrors.ErrObjectNotFound) {
		t.Fatalf("expected no score for unapplied vote, got %v", err)
	}
}
