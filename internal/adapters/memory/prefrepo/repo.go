package prefrepo

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/dayscape/dayscape-backend/internal/domain"
)

// Repo is an in-memory implementation of prefrepo.Repository.
// It is safe for concurrent use.
type Repo struct {
	mu        sync.RWMutex
	bySubject map[domain.SubjectID]json.RawMessage
}

func NewRepo() *Repo {
	return &Repo{
		bySubject: make(map[domain.SubjectID]json.RawMessage),
	}
}

func (r *Repo) Upsert(ctx context.Context, subject domain.SubjectID, data json.RawMessage) error {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()
	r.bySubject[subject] = append(json.RawMessage(nil), data...)
	return nil
}

func (r *Repo) Get(ctx context.Context, subject domain.SubjectID) (json.RawMessage, bool, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.bySubject[subject]
	if !ok {
		return nil, false, nil
	}
	return append(json.RawMessage(nil), d...), true, nil
}
