package httpadapter

import (
	"context"
	"log/slog"

	"concourse/contexts/federation/activity-core/application/commands"
	"concourse/contexts/federation/activity-core/application/queries"
	"concourse/contexts/federation/activity-core/domain/entities"
	httptransport "concourse/contexts/federation/activity-core/transport/http"
)

type Handler struct {
	Inbound  commands.InboundUseCase
	Outbound commands.OutboundUseCase
	Scores   queries.ScoreUseCase
	Logger   *slog.Logger
}

// InboxHandler processes one signature-verified inbound activity.
func (h Handler) InboxHandler(ctx context.Context, req httptransport.ActivityRequest) error {
	return h.Inbound.Process(ctx, entities.Envelope{
		ID:     req.ID,
		Actor:  req.Actor,
		To:     req.To,
		Kind:   entities.ActivityKind(req.Type),
		Object: req.Object,
		CC:     req.CC,
	})
}

func (h Handler) SendVoteHandler(ctx context.Context, req httptransport.SendVoteRequest) (httptransport.SendVoteResponse, error) {
	envelope, err := h.Outbound.SendVote(ctx, commands.SendVoteCommand{
		ActorURI:    req.ActorURI,
		ObjectURI:   req.ObjectURI,
		CommunityID: req.CommunityID,
		Kind:        entities.ActivityKind(req.Kind),
	})
	if err != nil {
		return httptransport.SendVoteResponse{}, err
	}
	score, err := h.Scores.ObjectScore(ctx, envelope.Object)
	if err != nil {
		return httptransport.SendVoteResponse{}, err
	}
	return httptransport.SendVoteResponse{
		ActivityID:   envelope.ID,
		Actor:        envelope.Actor,
		Object:       envelope.Object,
		To:           envelope.To,
		CC:           envelope.CC,
		Kind:         string(envelope.Kind),
		ObjectScore:  score.Score,
		CommunityURI: envelope.CommunityURI(),
	}, nil
}

func (h Handler) ObjectScoreHandler(ctx context.Context, objectURI string) (httptransport.ObjectScoreResponse, error) {
	score, err := h.Scores.ObjectScore(ctx, objectURI)
	if err != nil {
		return httptransport.ObjectScoreResponse{}, err
	}
	return mapScore(score), nil
}

func (h Handler) CommunityTopHandler(ctx context.Context, communityURI string) (httptransport.CommunityTopResponse, error) {
	scores, err := h.Scores.CommunityTopObjects(ctx, communityURI)
	if err != nil {
		return httptransport.CommunityTopResponse{}, err
	}
	items := make([]httptransport.ObjectScoreResponse, 0, len(scores))
	for _, score := range scores {
		items = append(items, mapScore(score))
	}
	return httptransport.CommunityTopResponse{
		CommunityURI: communityURI,
		Items:        items,
	}, nil
}

func mapScore(score entities.ObjectScore) httptransport.ObjectScoreResponse {
	return httptransport.ObjectScoreResponse{
		ObjectURI: score.ObjectURI,
		Kind:      string(score.Kind),
		Score:     score.Score,
		Upvotes:   score.Upvotes,
		Downvotes: score.Downvotes,
	}
}
