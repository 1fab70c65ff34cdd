package preferences

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/dayscape/dayscape-backend/internal/domain"
	"github.com/dayscape/dayscape-backend/internal/ports/out/prefrepo"
)

// Service stores one opaque preference blob per subject. A save overwrites
// the whole blob; there is no merge and no delete.
type Service struct {
	repo prefrepo.Repository
}

func NewService(repo prefrepo.Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) Save(ctx context.Context, caller domain.SubjectID, data json.RawMessage) error {
	if err := s.repo.Upsert(ctx, caller, data); err != nil {
		return fmt.Errorf("save preferences: %w", err)
	}
	return nil
}

// Get returns the stored blob. ok=false means the subject has never saved
// preferences, which is not an error.
func (s *Service) Get(ctx context.Context, caller domain.SubjectID) (json.RawMessage, bool, error) {
	data, ok, err := s.repo.Get(ctx, caller)
	if err != nil {
		return nil, false, fmt.Errorf("load preferences: %w", err)
	}
	return data, ok, nil
}
