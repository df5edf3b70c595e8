package http

type InboxAcceptedResponse struct {
	Status     string `json:"status"`
	ActivityID string `json:"activity_id"`
}

type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ActivityRequest is the decoded inbound activity document, post
// transport-level signature verification.
type ActivityRequest struct {
	ID     string   `json:"id"`
	Actor  string   `json:"actor"`
	To     string   `json:"to"`
	Type   string   `json:"type"`
	Object string   `json:"object"`
	CC     []string `json:"cc"`
}

type SendVoteRequest struct {
	ActorURI    string `json:"actor_uri"`
	ObjectURI   string `json:"object_uri"`
	CommunityID string `json:"community_id"`
	Kind        string `json:"kind"`
}

type SendVoteResponse struct {
	ActivityID   string   `json:"activity_id"`
	Actor        string   `json:"actor"`
	Object       string   `json:"object"`
	To           string   `json:"to"`
	CC           []string `json:"cc"`
	Kind         string   `json:"kind"`
	ObjectScore  int64    `json:"object_score"`
	CommunityURI string   `json:"community_uri"`
}

type ObjectScoreResponse struct {
	ObjectURI string `json:"object_uri"`
	Kind      string `json:"kind"`
	Score     int64  `json:"score"`
	Upvotes   int64  `json:"upvotes"`
	Downvotes int64  `json:"downvotes"`
}

type CommunityTopResponse struct {
	CommunityURI string                `json:"community_uri"`
	Items        []ObjectScoreResponse `json:"items"`
}
