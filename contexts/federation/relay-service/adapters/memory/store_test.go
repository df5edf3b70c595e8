package memory

import (
	"context"
	"testing"
	"time"

	"concourse/contexts/federation/relay-service/domain/entities"
)

func followerFixture(actorURI string, inboxURI string) entities.Follower {
	return entities.Follower{
		CommunityURI: "https://local.example/c/birds",
		ActorURI:     actorURI,
		InboxURI:     inboxURI,
	}
}

func TestRecordReportsFirstSeenOnce(t *testing.T) {
	store := NewStore()
	now := time.Now().UTC()

	first, err := store.Record(context.Background(), "activity-1", "https://local.example/c/birds", now)
	if err != nil {
		t.Fatalf("record failed: %v", err)
	}
	if !first {
		t.Fatalf("expected first record to report first seen")
	}

	again, err := store.Record(context.Background(), "activity-1", "https://local.example/c/birds", now.Add(time.Minute))
	if err != nil {
		t.Fatalf("duplicate record failed: %v", err)
	}
	if again {
		t.Fatalf("duplicate record must not report first seen")
	}

	// Same id against another community is a distinct ledger entry.
	other, err := store.Record(context.Background(), "activity-1", "https://local.example/c/fish", now)
	if err != nil || !other {
		t.Fatalf("expected distinct community entry, first=%v err=%v", other, err)
	}
}

func TestPruneBeforeRemovesOnlyOldEntries(t *testing.T) {
	store := NewStore()
	now := time.Now().UTC()

	if _, err := store.Record(context.Background(), "old", "https://local.example/c/birds", now.Add(-8*24*time.Hour)); err != nil {
		t.Fatalf("record failed: %v", err)
	}
	if _, err := store.Record(context.Background(), "fresh", "https://local.example/c/birds", now); err != nil {
		t.Fatalf("record failed: %v", err)
	}

	pruned, err := store.PruneBefore(context.Background(), now.Add(-7*24*time.Hour))
	if err != nil {
		t.Fatalf("prune failed: %v", err)
	}
	if pruned != 1 {
		t.Fatalf("expected one pruned entry, got %d", pruned)
	}

	// A pruned id can be forwarded again; retention is a deliberate bound.
	first, err := store.Record(context.Background(), "old", "https://local.example/c/birds", now)
	if err != nil || !first {
		t.Fatalf("expected pruned id to be recordable again, first=%v err=%v", first, err)
	}
}

func TestFollowerSetUpsertsByActor(t *testing.T) {
	store := NewStore()

	if err := store.AddFollower(context.Background(), followerFixture("https://a.example/u/1", "https://a.example/inbox")); err != nil {
		t.Fatalf("add follower failed: %v", err)
	}
	if err := store.AddFollower(context.Background(), followerFixture("https://a.example/u/1", "https://a.example/shared-inbox")); err != nil {
		t.Fatalf("re-add follower failed: %v", err)
	}

	followers, err := store.ListFollowers(context.Background(), "https://local.example/c/birds")
	if err != nil {
		t.Fatalf("list followers failed: %v", err)
	}
	if len(followers) != 1 {
		t.Fatalf("expected follower upsert, got %d entries", len(followers))
	}
	if followers[0].InboxURI != "https://a.example/shared-inbox" {
		t.Fatalf("expected refreshed inbox, got %s", followers[0].InboxURI)
	}

	if err := store.RemoveFollower(context.Background(), "https://local.example/c/birds", "https://a.example/u/1"); err != nil {
		t.Fatalf("remove follower failed: %v", err)
	}
	followers, err = store.ListFollowers(context.Background(), "https://local.example/c/birds")
	if err != nil {
		t.Fatalf("list followers failed: %v", err)
	}
	if len(followers) != 0 {
		t.Fatalf("expected empty follower set, got %d", len(followers))
	}
}
