package entities

// PublicAudience is the well-known addressing marker for publicly visible
// activities. Outbound envelopes always carry it in To.
const PublicAudience = "https://www.w3.org/ns/activitystreams#Public"

type ActivityKind string

const (
	KindLike    ActivityKind = "Like"
	KindDislike ActivityKind = "Dislike"
	KindFollow  ActivityKind = "Follow"
)

// Envelope is the ephemeral wire-level view of one activity. It is built
// per send/receive and never persisted verbatim; only its effects are.
type Envelope struct {
	ID     string
	Actor  string
	To     string
	Kind   ActivityKind
	Object string
	CC     []string
}

// CommunityURI returns the relay community the envelope is addressed to.
// By construction the target community is always the first cc entry.
func (e Envelope) CommunityURI() string {
	if len(e.CC) == 0 {
		return ""
	}
	return e.CC[0]
}
