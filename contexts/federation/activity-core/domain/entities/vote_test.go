package entities

import (
	"errors"
	"testing"

	domainerrors "concourse/contexts/federation/activity-core/domain/errors"
)

func TestVoteTypeDeltaRoundTrip(t *testing.T) {
	for _, voteType := range []VoteType{VoteTypeLike, VoteTypeDislike} {
		value, err := voteType.Delta()
		if err != nil {
			t.Fatalf("delta for %s failed: %v", voteType, err)
		}
		back, err := VoteTypeFromDelta(value)
		if err != nil {
			t.Fatalf("round trip for %s failed: %v", voteType, err)
		}
		if back != voteType {
			t.Fatalf("expected %s after round trip, got %s", voteType, back)
		}
	}
}

func TestVoteTypeFromDeltaRejectsOutOfRange(t *testing.T) {
	for _, value := range []int16{0, 2, -2, 10, -128} {
		if _, err := VoteTypeFromDelta(value); !errors.Is(err, domainerrors.ErrInvalidVoteValue) {
			t.Fatalf("expected invalid vote value for %d, got %v", value, err)
		}
	}
}

func TestVoteTypeFromKindRejectsNonVotes(t *testing.T) {
	if _, err := VoteTypeFromKind(KindFollow); !errors.Is(err, domainerrors.ErrInvalidVoteValue) {
		t.Fatalf("expected invalid vote value for follow kind, got %v", err)
	}
	voteType, err := VoteTypeFromKind(KindDislike)
	if err != nil {
		t.Fatalf("dislike kind failed: %v", err)
	}
	if voteType != VoteTypeDislike {
		t.Fatalf("expected dislike vote type, got %s", voteType)
	}
}

func TestRequestBudgetSpendsToZero(t *testing.T) {
	budget := NewRequestBudget(2)
	if !budget.Spend() || !budget.Spend() {
		t.Fatalf("expected two successful spends")
	}
	if budget.Spend() {
		t.Fatalf("expected third spend to fail")
	}
	if budget.Remaining() != 0 {
		t.Fatalf("expected zero remaining, got %d", budget.Remaining())
	}

	var nilBudget *RequestBudget
	if nilBudget.Spend() {
		t.Fatalf("nil budget must not grant spends")
	}
}
