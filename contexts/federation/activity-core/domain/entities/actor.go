package entities

import "time"

// Actor is the resolved local record for a federated identity, keyed by
// URI. Created on first resolution, refreshed on every later one.
type Actor struct {
	URI           string
	PreferredName string
	InboxURI      string
	Local         bool
	RefreshedAt   time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

type ObjectKind string

const (
	ObjectKindPost    ObjectKind = "post"
	ObjectKindComment ObjectKind = "comment"
)

// Object is the resolved local record for a remote post or comment,
// polymorphic over ObjectKind and cached with the same upsert discipline
// as Actor.
type Object struct {
	URI          string
	Kind         ObjectKind
	AuthorURI    string
	CommunityURI string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Community is a relay hub: it is addressed through cc on inbound
// activities and fans accepted ones out to its remote followers.
type Community struct {
	ID        string
	URI       string
	Name      string
	InboxURI  string
	Local     bool
	CreatedAt time.Time
	UpdatedAt time.Time
}
