package entities

import (
	"encoding/json"
	"time"
)

// PublicAudience is the well-known addressing marker for publicly visible
// activities.
const PublicAudience = "https://www.w3.org/ns/activitystreams#Public"

// KindAnnounce is the forwarding activity kind used for fan-out.
const KindAnnounce = "Announce"

// Announcement wraps an accepted activity for redelivery to a community's
// followers. The original activity travels verbatim in Object.
type Announcement struct {
	ID       string          `json:"id"`
	ActorURI string          `json:"actor"`
	To       string          `json:"to"`
	Kind     string          `json:"type"`
	Object   json.RawMessage `json:"object"`
	CC       []string        `json:"cc"`
}

// Follower is one remote subscriber of a community.
type Follower struct {
	CommunityURI string
	ActorURI     string
	InboxURI     string
	CreatedAt    time.Time
}

// ForwardRecord marks one activity id as already forwarded by a community.
// Records are pruned after a retention horizon once redelivery of the same
// id is practically impossible.
type ForwardRecord struct {
	ActivityID   string
	CommunityURI string
	ForwardedAt  time.Time
}
