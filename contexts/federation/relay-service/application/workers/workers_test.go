package workers_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"concourse/contexts/federation/relay-service/adapters/memory"
	"concourse/contexts/federation/relay-service/application/commands"
	"concourse/contexts/federation/relay-service/application/workers"
	"concourse/contexts/federation/relay-service/domain/entities"
	"concourse/contexts/federation/relay-service/ports"
)

type stubSubscriber struct {
	topic   string
	group   string
	handler func(context.Context, []byte) error
}

func (s *stubSubscriber) Subscribe(_ context.Context, topic string, group string, handler func(context.Context, []byte) error) error {
	s.topic = topic
	s.group = group
	s.handler = handler
	return nil
}

type stubDeliverer struct {
	deliveries int
}

func (d *stubDeliverer) Deliver(_ context.Context, _ entities.Announcement, _ []string) error {
	d.deliveries++
	return nil
}

type fixedClock struct {
	now time.Time
}

func (c fixedClock) Now() time.Time {
	return c.now
}

func eventPayload(t *testing.T, eventType string, data any) []byte {
	t.Helper()
	raw, err := json.Marshal(data)
	if err != nil {
		t.Fatalf("marshal event data: %v", err)
	}
	payload, err := json.Marshal(ports.EventEnvelope{
		EventID:       "evt-1",
		EventType:     eventType,
		OccurredAt:    time.Now().UTC(),
		SourceService: "activity-core",
		SchemaVersion: 1,
		Data:          raw,
	})
	if err != nil {
		t.Fatalf("marshal event envelope: %v", err)
	}
	return payload
}

func TestActivityConsumerForwardsAcceptedActivities(t *testing.T) {
	store := memory.NewStore()
	deliverer := &stubDeliverer{}
	if err := store.AddFollower(context.Background(), entities.Follower{
		CommunityURI: "https://local.example/c/birds",
		ActorURI:     "https://a.example/u/1",
		InboxURI:     "https://a.example/inbox",
	}); err != nil {
		t.Fatalf("seed follower failed: %v", err)
	}

	subscriber := &stubSubscriber{}
	consumer := workers.ActivityConsumer{
		Subscriber: subscriber,
		Forwarder: commands.ForwardUseCase{
			Ledger:    store,
			Followers: store,
			Deliverer: deliverer,
			Clock:     store,
			IDGen:     store,
			BaseURL:   "https://local.example",
		},
	}
	if err := consumer.Start(context.Background()); err != nil {
		t.Fatalf("consumer start failed: %v", err)
	}
	if subscriber.topic != "activity.accepted" {
		t.Fatalf("unexpected topic %s", subscriber.topic)
	}

	payload := eventPayload(t, "activity.accepted", map[string]any{
		"activity_id":   "https://remote.example/activities/like/1",
		"community_uri": "https://local.example/c/birds",
		"payload":       json.RawMessage(`{"type":"Like"}`),
	})
	if err := subscriber.handler(context.Background(), payload); err != nil {
		t.Fatalf("handle accepted event failed: %v", err)
	}
	if deliverer.deliveries != 1 {
		t.Fatalf("expected one fan-out delivery, got %d", deliverer.deliveries)
	}

	// Redelivered bus event hits the ledger, not the deliverer.
	if err := subscriber.handler(context.Background(), payload); err != nil {
		t.Fatalf("handle duplicate event failed: %v", err)
	}
	if deliverer.deliveries != 1 {
		t.Fatalf("duplicate event must not deliver again, got %d", deliverer.deliveries)
	}
}

func TestActivityConsumerDisabledSkipsSubscription(t *testing.T) {
	subscriber := &stubSubscriber{}
	consumer := workers.ActivityConsumer{
		Subscriber: subscriber,
		Disabled:   true,
	}
	if err := consumer.Start(context.Background()); err != nil {
		t.Fatalf("disabled consumer start failed: %v", err)
	}
	if subscriber.handler != nil {
		t.Fatalf("disabled consumer must not subscribe")
	}
}

func TestFollowerConsumerRecordsFollower(t *testing.T) {
	store := memory.NewStore()
	subscriber := &stubSubscriber{}
	consumer := workers.FollowerConsumer{
		Subscriber: subscriber,
		Followers:  store,
		Clock:      store,
	}
	if err := consumer.Start(context.Background()); err != nil {
		t.Fatalf("consumer start failed: %v", err)
	}
	if subscriber.topic != "community.followed" {
		t.Fatalf("unexpected topic %s", subscriber.topic)
	}

	payload := eventPayload(t, "community.followed", map[string]any{
		"community_uri":  "https://local.example/c/birds",
		"follower_uri":   "https://a.example/u/1",
		"follower_inbox": "https://a.example/inbox",
	})
	if err := subscriber.handler(context.Background(), payload); err != nil {
		t.Fatalf("handle followed event failed: %v", err)
	}

	followers, err := store.ListFollowers(context.Background(), "https://local.example/c/birds")
	if err != nil {
		t.Fatalf("list followers failed: %v", err)
	}
	if len(followers) != 1 || followers[0].InboxURI != "https://a.example/inbox" {
		t.Fatalf("unexpected follower set: %+v", followers)
	}
}

func TestLedgerPrunerDropsExpiredEntries(t *testing.T) {
	store := memory.NewStore()
	now := time.Now().UTC()
	if _, err := store.Record(context.Background(), "old", "https://local.example/c/birds", now.Add(-10*24*time.Hour)); err != nil {
		t.Fatalf("record failed: %v", err)
	}
	if _, err := store.Record(context.Background(), "fresh", "https://local.example/c/birds", now.Add(-time.Hour)); err != nil {
		t.Fatalf("record failed: %v", err)
	}

	pruner := workers.LedgerPruner{
		Ledger:  store,
		Clock:   fixedClock{now: now},
		Horizon: 7 * 24 * time.Hour,
	}
	if err := pruner.RunOnce(context.Background()); err != nil {
		t.Fatalf("prune run failed: %v", err)
	}

	first, err := store.Record(context.Background(), "old", "https://local.example/c/birds", now)
	if err != nil || !first {
		t.Fatalf("expected expired entry pruned, first=%v err=%v", first, err)
	}
	dup, err := store.Record(context.Background(), "fresh", "https://local.example/c/birds", now)
	if err != nil || dup {
		t.Fatalf("fresh entry must survive pruning, first=%v err=%v", dup, err)
	}
}
