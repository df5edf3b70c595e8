package queries

import (
	"context"
	"sort"
	"strings"

	"concourse/contexts/federation/activity-core/domain/entities"
	"concourse/contexts/federation/activity-core/ports"
)

type ScoreUseCase struct {
	Votes ports.VoteRepository
}

func (uc ScoreUseCase) ObjectScore(ctx context.Context, objectURI string) (entities.ObjectScore, error) {
	return uc.Votes.GetObjectScore(ctx, strings.TrimSpace(objectURI))
}

// CommunityTopObjects lists a community's objects ordered by aggregate
// score, ties broken by URI for stable output.
func (uc ScoreUseCase) CommunityTopObjects(ctx context.Context, communityURI string) ([]entities.ObjectScore, error) {
	scores, err := uc.Votes.ListObjectScoresByCommunity(ctx, strings.TrimSpace(communityURI))
	if err != nil {
		return nil, err
	}
	sort.Slice(scores, func(i, j int) bool {
		if scores[i].Score == scores[j].Score {
			return scores[i].ObjectURI < scores[j].ObjectURI
		}
		return scores[i].Score > scores[j].Score
	})
	return scores, nil
}
