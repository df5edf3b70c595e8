package queries

import (
	"context"
	"strings"

	"concourse/contexts/federation/relay-service/domain/entities"
	"concourse/contexts/federation/relay-service/ports"
)

type FollowerUseCase struct {
	Followers ports.FollowerRepository
}

// CommunityFollowers lists the remote subscribers a community fans out to.
func (uc FollowerUseCase) CommunityFollowers(ctx context.Context, communityURI string) ([]entities.Follower, error) {
	return uc.Followers.ListFollowers(ctx, strings.TrimSpace(communityURI))
}
