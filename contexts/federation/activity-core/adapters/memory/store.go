package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"concourse/contexts/federation/activity-core/domain/entities"
	domainerrors "concourse/contexts/federation/activity-core/domain/errors"
	"concourse/contexts/federation/activity-core/ports"

	"github.com/google/uuid"
)

type outboxRecord struct {
	message   ports.OutboxMessage
	published bool
}

// Store is the in-memory adapter behind every activity-core port. One
// mutex guards all maps, which also serializes the vote read-modify-write.
type Store struct {
	mu sync.RWMutex

	actors      map[string]entities.Actor
	objects     map[string]entities.Object
	communities map[string]entities.Community
	members     map[string]map[string]time.Time
	votes       map[string]entities.VoteRecord
	scores      map[string]entities.ObjectScore
	outbox      map[string]outboxRecord
}

func NewStore() *Store {
	return &Store{
		actors:      make(map[string]entities.Actor),
		objects:     make(map[string]entities.Object),
		communities: make(map[string]entities.Community),
		members:     make(map[string]map[string]time.Time),
		votes:       make(map[string]entities.VoteRecord),
		scores:      make(map[string]entities.ObjectScore),
		outbox:      make(map[string]outboxRecord),
	}
}

func (s *Store) SetActor(actor entities.Actor) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.actors[strings.TrimSpace(actor.URI)] = actor
}

func (s *Store) SetObject(object entities.Object) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[strings.TrimSpace(object.URI)] = object
}

func (s *Store) SetCommunity(community entities.Community) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.communities[strings.TrimSpace(community.ID)] = community
}

func (s *Store) SetMember(communityURI string, actorURI string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.addMemberLocked(strings.TrimSpace(communityURI), strings.TrimSpace(actorURI), time.Now().UTC())
}

func (s *Store) GetActorByURI(_ context.Context, uri string) (entities.Actor, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	actor, ok := s.actors[strings.TrimSpace(uri)]
	return actor, ok, nil
}

func (s *Store) UpsertActor(_ context.Context, actor entities.Actor) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.actors[strings.TrimSpace(actor.URI)] = actor
	return nil
}

func (s *Store) GetObjectByURI(_ context.Context, uri string) (entities.Object, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	object, ok := s.objects[strings.TrimSpace(uri)]
	return object, ok, nil
}

func (s *Store) UpsertObject(_ context.Context, object entities.Object) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[strings.TrimSpace(object.URI)] = object
	return nil
}

func (s *Store) GetCommunity(_ context.Context, communityID string) (entities.Community, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	community, ok := s.communities[strings.TrimSpace(communityID)]
	if !ok {
		return entities.Community{}, domainerrors.ErrCommunityNotFound
	}
	return community, nil
}

func (s *Store) GetCommunityByURI(_ context.Context, uri string) (entities.Community, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	uri = strings.TrimSpace(uri)
	for _, community := range s.communities {
		if community.URI == uri {
			return community, true, nil
		}
	}
	return entities.Community{}, false, nil
}

func (s *Store) IsMember(_ context.Context, communityURI string, actorURI string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	set, ok := s.members[strings.TrimSpace(communityURI)]
	if !ok {
		return false, nil
	}
	_, member := set[strings.TrimSpace(actorURI)]
	return member, nil
}

func (s *Store) AddMember(_ context.Context, communityURI string, actorURI string, joinedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.addMemberLocked(strings.TrimSpace(communityURI), strings.TrimSpace(actorURI), joinedAt)
	return nil
}

func (s *Store) addMemberLocked(communityURI string, actorURI string, joinedAt time.Time) {
	set, ok := s.members[communityURI]
	if !ok {
		set = make(map[string]time.Time)
		s.members[communityURI] = set
	}
	if _, exists := set[actorURI]; !exists {
		set[actorURI] = joinedAt
	}
}

func (s *Store) GetVote(_ context.Context, actorURI string, objectURI string) (entities.VoteRecord, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	vote, ok := s.votes[voteKey(actorURI, objectURI)]
	return vote, ok, nil
}

// ApplyVote nets the new value against any previous vote by the same actor
// on the same object and updates the aggregate under the store lock. An
// identical re-vote leaves the aggregate untouched.
func (s *Store) ApplyVote(_ context.Context, vote entities.VoteRecord) (entities.ObjectScore, error) {
	if vote.Value != 1 && vote.Value != -1 {
		return entities.ObjectScore{}, domainerrors.ErrInvalidVoteValue
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	key := voteKey(vote.ActorURI, vote.ObjectURI)
	objectURI := strings.TrimSpace(vote.ObjectURI)

	score, ok := s.scores[objectURI]
	if !ok {
		score = entities.ObjectScore{ObjectURI: objectURI}
		if object, exists := s.objects[objectURI]; exists {
			score.Kind = object.Kind
		}
	}

	previous, hadPrevious := s.votes[key]
	if hadPrevious && previous.Value == vote.Value {
		return score, nil
	}

	if hadPrevious {
		if previous.Value > 0 {
			score.Upvotes--
		} else {
			score.Downvotes--
		}
		score.Score -= int64(previous.Value)
		vote.CreatedAt = previous.CreatedAt
	}
	if vote.Value > 0 {
		score.Upvotes++
	} else {
		score.Downvotes++
	}
	score.Score += int64(vote.Value)
	score.UpdatedAt = vote.UpdatedAt

	s.votes[key] = vote
	s.scores[objectURI] = score
	return score, nil
}

func (s *Store) GetObjectScore(_ context.Context, objectURI string) (entities.ObjectScore, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	objectURI = strings.TrimSpace(objectURI)
	score, ok := s.scores[objectURI]
	if !ok {
		if _, exists := s.objects[objectURI]; !exists {
			return entities.ObjectScore{}, domainerrors.ErrObjectNotFound
		}
		score = entities.ObjectScore{ObjectURI: objectURI, Kind: s.objects[objectURI].Kind}
	}
	return score, nil
}

func (s *Store) ListObjectScoresByCommunity(_ context.Context, communityURI string) ([]entities.ObjectScore, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	communityURI = strings.TrimSpace(communityURI)
	items := make([]entities.ObjectScore, 0)
	for uri, object := range s.objects {
		if communityURI != "" && object.CommunityURI != communityURI {
			continue
		}
		score, ok := s.scores[uri]
		if !ok {
			score = entities.ObjectScore{ObjectURI: uri, Kind: object.Kind}
		}
		items = append(items, score)
	}
	return items, nil
}

func (s *Store) AppendOutbox(_ context.Context, message ports.OutboxMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.outbox[strings.TrimSpace(message.OutboxID)] = outboxRecord{message: message}
	return nil
}

func (s *Store) ListPendingOutbox(_ context.Context, limit int) ([]ports.OutboxMessage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	pending := make([]ports.OutboxMessage, 0)
	for _, record := range s.outbox {
		if !record.published {
			pending = append(pending, record.message)
		}
	}
	sort.Slice(pending, func(i, j int) bool {
		return pending[i].CreatedAt.Before(pending[j].CreatedAt)
	})
	if limit > 0 && len(pending) > limit {
		pending = pending[:limit]
	}
	return pending, nil
}

func (s *Store) MarkOutboxPublished(_ context.Context, outboxID string, _ time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	record, ok := s.outbox[strings.TrimSpace(outboxID)]
	if !ok {
		return nil
	}
	record.published = true
	s.outbox[strings.TrimSpace(outboxID)] = record
	return nil
}

func (s *Store) Now() time.Time {
	return time.Now().UTC()
}

func (s *Store) NewID(_ context.Context) (string, error) {
	return uuid.NewString(), nil
}

func voteKey(actorURI string, objectURI string) string {
	return strings.TrimSpace(actorURI) + "|" + strings.TrimSpace(objectURI)
}
