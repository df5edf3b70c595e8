package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"concourse/contexts/federation/activity-core/domain/entities"
	domainerrors "concourse/contexts/federation/activity-core/domain/errors"
	"concourse/contexts/federation/activity-core/ports"
)

func outboxMessage(id string, createdAt time.Time) ports.OutboxMessage {
	return ports.OutboxMessage{
		OutboxID:     id,
		EventType:    "activity.accepted",
		PartitionKey: "https://local.example/c/birds",
		Payload:      []byte(`{}`),
		CreatedAt:    createdAt,
	}
}

func TestApplyVoteNetsAgainstPreviousVote(t *testing.T) {
	store := NewStore()
	store.SetObject(entities.Object{
		URI:  "https://remote.example/post/1",
		Kind: entities.ObjectKindPost,
	})
	now := time.Now().UTC()

	vote := entities.VoteRecord{
		ActorURI:  "https://remote.example/u/alice",
		ObjectURI: "https://remote.example/post/1",
		Value:     1,
		CreatedAt: now,
		UpdatedAt: now,
	}
	score, err := store.ApplyVote(context.Background(), vote)
	if err != nil {
		t.Fatalf("apply vote failed: %v", err)
	}
	if score.Score != 1 || score.Upvotes != 1 || score.Downvotes != 0 {
		t.Fatalf("unexpected score after first vote: %+v", score)
	}

	// Identical re-vote is a no-op.
	score, err = store.ApplyVote(context.Background(), vote)
	if err != nil {
		t.Fatalf("re-vote failed: %v", err)
	}
	if score.Score != 1 || score.Upvotes != 1 {
		t.Fatalf("identical re-vote must not change the aggregate: %+v", score)
	}

	// Overwrite removes the old contribution before adding the new one.
	vote.Value = -1
	vote.UpdatedAt = now.Add(time.Minute)
	score, err = store.ApplyVote(context.Background(), vote)
	if err != nil {
		t.Fatalf("overwrite failed: %v", err)
	}
	if score.Score != -1 || score.Upvotes != 0 || score.Downvotes != 1 {
		t.Fatalf("unexpected score after overwrite: %+v", score)
	}

	stored, found, err := store.GetVote(context.Background(), vote.ActorURI, vote.ObjectURI)
	if err != nil || !found {
		t.Fatalf("expected stored vote, found=%v err=%v", found, err)
	}
	if !stored.CreatedAt.Equal(now) {
		t.Fatalf("overwrite must preserve the original created at, got %s", stored.CreatedAt)
	}
	if stored.Value != -1 {
		t.Fatalf("expected overwritten value -1, got %d", stored.Value)
	}
}

func TestApplyVoteRejectsOutOfRangeValue(t *testing.T) {
	store := NewStore()
	for _, value := range []int16{0, 2, -3} {
		_, err := store.ApplyVote(context.Background(), entities.VoteRecord{
			ActorURI:  "https://remote.example/u/alice",
			ObjectURI: "https://remote.example/post/1",
			Value:     value,
		})
		if !errors.Is(err, domainerrors.ErrInvalidVoteValue) {
			t.Fatalf("expected invalid vote value for %d, got %v", value, err)
		}
	}
}

func TestVotesFromDistinctActorsAccumulate(t *testing.T) {
	store := NewStore()
	now := time.Now().UTC()
	for _, actor := range []string{"https://a.example/u/1", "https://b.example/u/2", "https://c.example/u/3"} {
		if _, err := store.ApplyVote(context.Background(), entities.VoteRecord{
			ActorURI:  actor,
			ObjectURI: "https://remote.example/post/1",
			Value:     1,
			CreatedAt: now,
			UpdatedAt: now,
		}); err != nil {
			t.Fatalf("apply vote for %s failed: %v", actor, err)
		}
	}
	score, err := store.GetObjectScore(context.Background(), "https://remote.example/post/1")
	if err != nil {
		t.Fatalf("score lookup failed: %v", err)
	}
	if score.Score != 3 || score.Upvotes != 3 {
		t.Fatalf("expected three accumulated upvotes, got %+v", score)
	}
}

func TestOutboxPendingLifecycle(t *testing.T) {
	store := NewStore()
	now := time.Now().UTC()
	if err := store.AppendOutbox(context.Background(), outboxMessage("evt-1", now)); err != nil {
		t.Fatalf("append failed: %v", err)
	}
	if err := store.AppendOutbox(context.Background(), outboxMessage("evt-2", now.Add(time.Second))); err != nil {
		t.Fatalf("append failed: %v", err)
	}

	pending, err := store.ListPendingOutbox(context.Background(), 10)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(pending) != 2 || pending[0].OutboxID != "evt-1" {
		t.Fatalf("expected two pending rows oldest first, got %+v", pending)
	}

	if err := store.MarkOutboxPublished(context.Background(), "evt-1", now.Add(time.Minute)); err != nil {
		t.Fatalf("mark published failed: %v", err)
	}
	pending, err = store.ListPendingOutbox(context.Background(), 10)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(pending) != 1 || pending[0].OutboxID != "evt-2" {
		t.Fatalf("expected only evt-2 pending, got %+v", pending)
	}
}
