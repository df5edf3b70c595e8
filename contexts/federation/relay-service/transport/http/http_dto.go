package http

import "time"

type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type FollowerResponse struct {
	ActorURI  string    `json:"actor_uri"`
	InboxURI  string    `json:"inbox_uri"`
	CreatedAt time.Time `json:"created_at"`
}

type CommunityFollowersResponse struct {
	CommunityURI string             `json:"community_uri"`
	Items        []FollowerResponse `json:"items"`
}
