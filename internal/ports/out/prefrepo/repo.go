package prefrepo

import (
	"context"
	"encoding/json"

	"github.com/dayscape/dayscape-backend/internal/domain"
)

// Repository stores one preference blob per subject. Saves overwrite the
// whole blob; there is no partial merge and no delete.
type Repository interface {
	// Upsert creates the record on first save and replaces it afterwards,
	// atomically.
	Upsert(ctx context.Context, subject domain.SubjectID, data json.RawMessage) error

	// Get returns the stored blob. ok=false means the subject has never
	// saved preferences; that is not an error.
	Get(ctx context.Context, subject domain.SubjectID) (data json.RawMessage, ok bool, err error)
}
