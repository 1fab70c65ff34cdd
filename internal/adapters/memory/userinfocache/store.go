package userinfocache

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/dayscape/dayscape-backend/internal/ports/out/userinfocache"
)

// Store is an in-memory implementation of userinfocache.Store.
// It is safe for concurrent use.
type Store struct {
	mu      sync.Mutex
	byToken map[string]userinfocache.Entry
}

func NewStore() *Store {
	return &Store{
		byToken: make(map[string]userinfocache.Entry),
	}
}

func (s *Store) Get(ctx context.Context, token string) (userinfocache.Entry, bool, error) {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.byToken[token]
	if !ok {
		return userinfocache.Entry{}, false, nil
	}
	return cloneEntry(e), true, nil
}

func (s *Store) Put(ctx context.Context, e userinfocache.Entry) error {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()
	s.byToken[e.Token] = cloneEntry(e)
	return nil
}

func (s *Store) PurgeOlderThan(ctx context.Context, cutoff time.Time) (int, error) {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for token, e := range s.byToken {
		if e.CreatedAt.Before(cutoff) {
			delete(s.byToken, token)
			n++
		}
	}
	return n, nil
}

func cloneEntry(e userinfocache.Entry) userinfocache.Entry {
	cp := e
	if e.Data != nil {
		cp.Data = append(json.RawMessage(nil), e.Data...)
	}
	return cp
}
