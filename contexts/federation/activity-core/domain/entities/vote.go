package entities

import (
	"time"

	domainerrors "concourse/contexts/federation/activity-core/domain/errors"
)

type VoteType string

const (
	VoteTypeLike    VoteType = "Like"
	VoteTypeDislike VoteType = "Dislike"
)

// Delta maps the two vote variants onto the interoperable integer encoding.
// Any other value fails; there is no third representable vote.
func (t VoteType) Delta() (int16, error) {
	switch t {
	case VoteTypeLike:
		return 1, nil
	case VoteTypeDislike:
		return -1, nil
	default:
		return 0, domainerrors.ErrInvalidVoteValue
	}
}

// VoteTypeFromDelta accepts exactly +1 and -1. Out-of-range input is
// rejected, never clamped, because a different integer breaks
// interoperability with peer nodes.
func VoteTypeFromDelta(value int16) (VoteType, error) {
	switch value {
	case 1:
		return VoteTypeLike, nil
	case -1:
		return VoteTypeDislike, nil
	default:
		return "", domainerrors.ErrInvalidVoteValue
	}
}

// VoteTypeFromKind narrows an activity kind to a vote variant.
func VoteTypeFromKind(kind ActivityKind) (VoteType, error) {
	switch kind {
	case KindLike:
		return VoteTypeLike, nil
	case KindDislike:
		return VoteTypeDislike, nil
	default:
		return "", domainerrors.ErrInvalidVoteValue
	}
}

// VoteRecord is the stored per-actor vote. Each actor holds at most one
// active vote per object; re-votes overwrite.
type VoteRecord struct {
	ActorURI  string
	ObjectURI string
	Value     int16
	CreatedAt time.Time
	UpdatedAt time.Time
}

// ObjectScore is the persisted aggregate effect of all votes on one object.
type ObjectScore struct {
	ObjectURI string
	Kind      ObjectKind
	Score     int64
	Upvotes   int64
	Downvotes int64
	UpdatedAt time.Time
}
