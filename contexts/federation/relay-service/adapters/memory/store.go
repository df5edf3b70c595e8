package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"concourse/contexts/federation/relay-service/domain/entities"

	"github.com/google/uuid"
)

// Store is the in-memory adapter behind the relay ports.
type Store struct {
	mu sync.RWMutex

	ledger    map[string]entities.ForwardRecord
	followers map[string]map[string]entities.Follower
}

func NewStore() *Store {
	return &Store{
		ledger:    make(map[string]entities.ForwardRecord),
		followers: make(map[string]map[string]entities.Follower),
	}
}

// Record inserts the activity id into the ledger, reporting whether it was
// first seen now. The check and insert happen under one lock so concurrent
// redeliveries of the same id cannot both observe "first".
func (s *Store) Record(_ context.Context, activityID string, communityURI string, forwardedAt time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := ledgerKey(activityID, communityURI)
	if _, exists := s.ledger[key]; exists {
		return false, nil
	}
	s.ledger[key] = entities.ForwardRecord{
		ActivityID:   strings.TrimSpace(activityID),
		CommunityURI: strings.TrimSpace(communityURI),
		ForwardedAt:  forwardedAt.UTC(),
	}
	return true, nil
}

func (s *Store) PruneBefore(_ context.Context, cutoff time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	pruned := 0
	for key, record := range s.ledger {
		if record.ForwardedAt.Before(cutoff) {
			delete(s.ledger, key)
			pruned++
		}
	}
	return pruned, nil
}

func (s *Store) ListFollowers(_ context.Context, communityURI string) ([]entities.Follower, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	set, ok := s.followers[strings.TrimSpace(communityURI)]
	if !ok {
		return nil, nil
	}
	items := make([]entities.Follower, 0, len(set))
	for _, follower := range set {
		items = append(items, follower)
	}
	sort.Slice(items, func(i, j int) bool {
		return items[i].ActorURI < items[j].ActorURI
	})
	return items, nil
}

func (s *Store) AddFollower(_ context.Context, follower entities.Follower) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	communityURI := strings.TrimSpace(follower.CommunityURI)
	set, ok := s.followers[communityURI]
	if !ok {
		set = make(map[string]entities.Follower)
		s.followers[communityURI] = set
	}
	set[strings.TrimSpace(follower.ActorURI)] = follower
	return nil
}

func (s *Store) RemoveFollower(_ context.Context, communityURI string, actorURI string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if set, ok := s.followers[strings.TrimSpace(communityURI)]; ok {
		delete(set, strings.TrimSpace(actorURI))
	}
	return nil
}

func (s *Store) Now() time.Time {
	return time.Now().UTC()
}

func (s *Store) NewID(_ context.Context) (string, error) {
	return uuid.NewString(), nil
}

func ledgerKey(activityID string, communityURI string) string {
	return strings.TrimSpace(communityURI) + "|" + strings.TrimSpace(activityID)
}
