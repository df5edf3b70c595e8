package httpadapter

import (
	"context"
	"log/slog"

	"concourse/contexts/federation/relay-service/application/queries"
	httptransport "concourse/contexts/federation/relay-service/transport/http"
)

type Handler struct {
	Followers queries.FollowerUseCase
	Logger    *slog.Logger
}

func (h Handler) CommunityFollowersHandler(ctx context.Context, communityURI string) (httptransport.CommunityFollowersResponse, error) {
	followers, err := h.Followers.CommunityFollowers(ctx, communityURI)
	if err != nil {
		return httptransport.CommunityFollowersResponse{}, err
	}
	items := make([]httptransport.FollowerResponse, 0, len(followers))
	for _, follower := range followers {
		items = append(items, httptransport.FollowerResponse{
			ActorURI:  follower.ActorURI,
			InboxURI:  follower.InboxURI,
			CreatedAt: follower.CreatedAt,
		})
	}
	return httptransport.CommunityFollowersResponse{
		CommunityURI: communityURI,
		Items:        items,
	}, nil
}
