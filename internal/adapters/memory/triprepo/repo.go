package triprepo

import (
	"context"
	"encoding/json"
	"sort"
	"sync"

	"github.com/dayscape/dayscape-backend/internal/domain"
	"github.com/dayscape/dayscape-backend/internal/ports/out/triprepo"
)

// Repo is an in-memory implementation of triprepo.Repository.
// It is safe for concurrent use.
//
// InTx stages all changes on a deep copy of the map and swaps it in only when
// fn succeeds, so a failing fn leaves no observable effects. This matches the
// commit-or-rollback contract the postgres adapter gets from a transaction.
type Repo struct {
	mu   sync.Mutex
	byID map[domain.TripID]triprepo.Trip
}

func NewRepo() *Repo {
	return &Repo{
		byID: make(map[domain.TripID]triprepo.Trip),
	}
}

func (r *Repo) InTx(ctx context.Context, fn func(tx triprepo.Tx) error) error {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()

	staged := make(map[domain.TripID]triprepo.Trip, len(r.byID))
	for id, t := range r.byID {
		staged[id] = cloneTrip(t)
	}
	if err := fn(&memTx{byID: staged}); err != nil {
		return err
	}
	r.byID = staged
	return nil
}

type memTx struct {
	byID map[domain.TripID]triprepo.Trip
}

func (tx *memTx) GetByID(ctx context.Context, id domain.TripID) (triprepo.Trip, error) {
	_ = ctx
	t, ok := tx.byID[id]
	if !ok {
		return triprepo.Trip{}, triprepo.ErrNotFound
	}
	return cloneTrip(t), nil
}

func (tx *memTx) Insert(ctx context.Context, t triprepo.Trip) error {
	_ = ctx
	if _, ok := tx.byID[t.ID]; ok {
		return triprepo.ErrAlreadyExists
	}
	tx.byID[t.ID] = cloneTrip(t)
	return nil
}

func (tx *memTx) Update(ctx context.Context, t triprepo.Trip) error {
	_ = ctx
	if _, ok := tx.byID[t.ID]; !ok {
		return triprepo.ErrNotFound
	}
	tx.byID[t.ID] = cloneTrip(t)
	return nil
}

func (tx *memTx) Delete(ctx context.Context, id domain.TripID) error {
	_ = ctx
	if _, ok := tx.byID[id]; !ok {
		return triprepo.ErrNotFound
	}
	delete(tx.byID, id)
	return nil
}

func (tx *memTx) ListByOwner(ctx context.Context, owner domain.SubjectID) ([]domain.TripHeader, error) {
	_ = ctx
	out := make([]domain.TripHeader, 0)
	for _, t := range tx.byID {
		if t.Owner == owner {
			out = append(out, domain.TripHeader{ID: t.ID, Name: cloneStringPtr(t.Name)})
		}
	}
	sortHeaders(out)
	return out, nil
}

func (tx *memTx) ListSharedWith(ctx context.Context, subject domain.SubjectID) ([]domain.TripHeader, error) {
	_ = ctx
	out := make([]domain.TripHeader, 0)
	for _, t := range tx.byID {
		if t.Owner == subject {
			continue
		}
		if containsSubject(t.Viewers, subject) || containsSubject(t.Editors, subject) {
			out = append(out, domain.TripHeader{ID: t.ID, Name: cloneStringPtr(t.Name)})
		}
	}
	sortHeaders(out)
	return out, nil
}

func containsSubject(list []domain.SubjectID, s domain.SubjectID) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func sortHeaders(hs []domain.TripHeader) {
	sort.Slice(hs, func(i, j int) bool { return hs[i].ID < hs[j].ID })
}

func cloneTrip(t triprepo.Trip) triprepo.Trip {
	cp := t
	cp.Name = cloneStringPtr(t.Name)
	if t.Viewers != nil {
		cp.Viewers = append([]domain.SubjectID(nil), t.Viewers...)
	}
	if t.Editors != nil {
		cp.Editors = append([]domain.SubjectID(nil), t.Editors...)
	}
	if t.Data != nil {
		cp.Data = append(json.RawMessage(nil), t.Data...)
	}
	return cp
}

func cloneStringPtr(p *string) *string {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
