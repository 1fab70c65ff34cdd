package trips

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/google/uuid"

	"github.com/dayscape/dayscape-backend/internal/domain"
	"github.com/dayscape/dayscape-backend/internal/ports/out/triprepo"
)

// Service enforces the owner/editor/viewer access model over trips.
//
// Owners hold full rights including grant changes and deletion; editors may
// read and write content but not grants; viewers are read-only. Every
// operation takes the caller's verified subject explicitly and runs its
// authorization check in the same transaction as the mutation it guards.
type Service struct {
	repo triprepo.Repository

	newTripID func() domain.TripID
}

func NewService(repo triprepo.Repository) *Service {
	return &Service{
		repo: repo,
		newTripID: func() domain.TripID {
			return domain.TripID(uuid.NewString())
		},
	}
}

// SetNewTripIDForTest overrides trip ID generation for deterministic tests.
// It should not be used in production code.
func (s *Service) SetNewTripIDForTest(fn func() domain.TripID) {
	if fn != nil {
		s.newTripID = fn
	}
}

// Save creates a trip when in.TripID is empty and updates one otherwise.
//
// An ID that matches no record fails with ErrNotAuthorized, not ErrNotFound:
// clients never choose IDs, so an unknown one is treated as an attempted
// privilege violation rather than revealing whether the ID exists.
func (s *Service) Save(ctx context.Context, caller domain.SubjectID, in SaveInput) (domain.TripID, error) {
	var id domain.TripID
	err := s.repo.InTx(ctx, func(tx triprepo.Tx) error {
		if in.TripID == "" {
			t := triprepo.Trip{
				ID:    s.newTripID(),
				Owner: caller,
			}
			applyName(&t, in.Name)
			applyData(&t, in.Data)
			if in.Viewers.IsSpecified() {
				t.Viewers = normalizeGrants(in.Viewers.Value(), caller)
			}
			if in.Editors.IsSpecified() {
				t.Editors = normalizeGrants(in.Editors.Value(), caller)
			}
			id = t.ID
			return tx.Insert(ctx, t)
		}

		t, err := tx.GetByID(ctx, in.TripID)
		if err != nil {
			if errors.Is(err, triprepo.ErrNotFound) {
				return ErrNotAuthorized
			}
			return err
		}
		switch roleOf(t, caller) {
		case domain.RoleOwner:
			// Grant changes are owner-only.
			if in.Viewers.IsSpecified() {
				t.Viewers = normalizeGrants(in.Viewers.Value(), t.Owner)
			}
			if in.Editors.IsSpecified() {
				t.Editors = normalizeGrants(in.Editors.Value(), t.Owner)
			}
		case domain.RoleEditor:
			// Grant lists submitted by an editor are silently ignored.
		default:
			return ErrNotAuthorized
		}

		applyName(&t, in.Name)
		applyData(&t, in.Data)

		id = t.ID
		return tx.Update(ctx, t)
	})
	if err != nil {
		return "", err
	}
	return id, nil
}

// Get returns the trip body. Owner, editors, and viewers may read it.
func (s *Service) Get(ctx context.Context, caller domain.SubjectID, id domain.TripID) (json.RawMessage, error) {
	var data json.RawMessage
	err := s.repo.InTx(ctx, func(tx triprepo.Tx) error {
		t, err := s.getReadable(ctx, tx, caller, id)
		if err != nil {
			return err
		}
		data = cloneRaw(t.Data)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return data, nil
}

// GetName returns the trip's display name under the same policy as Get.
func (s *Service) GetName(ctx context.Context, caller domain.SubjectID, id domain.TripID) (*string, error) {
	var name *string
	err := s.repo.InTx(ctx, func(tx triprepo.Tx) error {
		t, err := s.getReadable(ctx, tx, caller, id)
		if err != nil {
			return err
		}
		name = cloneStringPtr(t.Name)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return name, nil
}

// GetViewers returns the viewer grant list. Owner only: editors and viewers
// may read trip content but not who else has access.
func (s *Service) GetViewers(ctx context.Context, caller domain.SubjectID, id domain.TripID) ([]domain.SubjectID, error) {
	return s.getGrants(ctx, caller, id, func(t triprepo.Trip) []domain.SubjectID { return t.Viewers })
}

// GetEditors returns the editor grant list. Owner only.
func (s *Service) GetEditors(ctx context.Context, caller domain.SubjectID, id domain.TripID) ([]domain.SubjectID, error) {
	return s.getGrants(ctx, caller, id, func(t triprepo.Trip) []domain.SubjectID { return t.Editors })
}

// Delete removes a trip. Owner only.
func (s *Service) Delete(ctx context.Context, caller domain.SubjectID, id domain.TripID) error {
	return s.repo.InTx(ctx, func(tx triprepo.Tx) error {
		t, err := tx.GetByID(ctx, id)
		if err != nil {
			if errors.Is(err, triprepo.ErrNotFound) {
				return ErrNotFound
			}
			return err
		}
		if t.Owner != caller {
			return ErrNotAuthorized
		}
		return tx.Delete(ctx, id)
	})
}

// ListOwned returns headers for every trip the subject owns.
func (s *Service) ListOwned(ctx context.Context, caller domain.SubjectID) ([]domain.TripHeader, error) {
	var out []domain.TripHeader
	err := s.repo.InTx(ctx, func(tx triprepo.Tx) error {
		hs, err := tx.ListByOwner(ctx, caller)
		if err != nil {
			return err
		}
		out = hs
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// ListShared returns headers for every trip shared with the subject as a
// viewer or editor, excluding trips the subject owns.
func (s *Service) ListShared(ctx context.Context, caller domain.SubjectID) ([]domain.TripHeader, error) {
	var out []domain.TripHeader
	err := s.repo.InTx(ctx, func(tx triprepo.Tx) error {
		hs, err := tx.ListSharedWith(ctx, caller)
		if err != nil {
			return err
		}
		out = hs
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Service) getReadable(ctx context.Context, tx triprepo.Tx, caller domain.SubjectID, id domain.TripID) (triprepo.Trip, error) {
	t, err := tx.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, triprepo.ErrNotFound) {
			return triprepo.Trip{}, ErrNotFound
		}
		return triprepo.Trip{}, err
	}
	if roleOf(t, caller) == domain.RoleNone {
		return triprepo.Trip{}, ErrNotAuthorized
	}
	return t, nil
}

func (s *Service) getGrants(ctx context.Context, caller domain.SubjectID, id domain.TripID, pick func(triprepo.Trip) []domain.SubjectID) ([]domain.SubjectID, error) {
	var out []domain.SubjectID
	err := s.repo.InTx(ctx, func(tx triprepo.Tx) error {
		t, err := tx.GetByID(ctx, id)
		if err != nil {
			if errors.Is(err, triprepo.ErrNotFound) {
				return ErrNotFound
			}
			return err
		}
		if t.Owner != caller {
			return ErrNotAuthorized
		}
		out = append([]domain.SubjectID{}, pick(t)...)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// roleOf evaluates the caller's highest tier; owner is checked first.
func roleOf(t triprepo.Trip, subject domain.SubjectID) domain.Role {
	if t.Owner == subject {
		return domain.RoleOwner
	}
	for _, e := range t.Editors {
		if e == subject {
			return domain.RoleEditor
		}
	}
	for _, v := range t.Viewers {
		if v == subject {
			return domain.RoleViewer
		}
	}
	return domain.RoleNone
}

// normalizeGrants dedupes a grant list and strips the owner: ownership is
// exclusive and never redundantly listed.
func normalizeGrants(in []domain.SubjectID, owner domain.SubjectID) []domain.SubjectID {
	out := make([]domain.SubjectID, 0, len(in))
	seen := make(map[domain.SubjectID]struct{}, len(in))
	for _, s := range in {
		if s == "" || s == owner {
			continue
		}
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}

func applyName(t *triprepo.Trip, o Optional[string]) {
	if !o.IsSpecified() {
		return
	}
	if o.IsNull() {
		t.Name = nil
		return
	}
	v := o.Value()
	t.Name = &v
}

func applyData(t *triprepo.Trip, o Optional[json.RawMessage]) {
	if !o.IsSpecified() {
		return
	}
	if o.IsNull() {
		t.Data = nil
		return
	}
	t.Data = cloneRaw(o.Value())
}

func cloneRaw(d json.RawMessage) json.RawMessage {
	if d == nil {
		return nil
	}
	return append(json.RawMessage(nil), d...)
}

func cloneStringPtr(p *string) *string {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
