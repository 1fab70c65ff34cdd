package trips

import (
	"encoding/json"

	"github.com/dayscape/dayscape-backend/internal/domain"
)

// Optional is a tri-state field used to distinguish:
// - unspecified (omitted)
// - specified as null
// - specified with a value
type Optional[T any] struct {
	specified bool
	isNull    bool
	value     T
}

func Unspecified[T any]() Optional[T] { return Optional[T]{} }
func Null[T any]() Optional[T]        { return Optional[T]{specified: true, isNull: true} }
func Some[T any](v T) Optional[T]     { return Optional[T]{specified: true, value: v} }

func (o Optional[T]) IsSpecified() bool { return o.specified }
func (o Optional[T]) IsNull() bool      { return o.specified && o.isNull }
func (o Optional[T]) Value() T          { return o.value }

// SaveInput carries a create-or-update request. TripID empty means "create".
// Every other field follows omitted-means-unchanged semantics on update;
// on create, omitted fields take empty defaults.
type SaveInput struct {
	TripID domain.TripID

	Name Optional[string]
	Data Optional[json.RawMessage]

	// Viewers and Editors are grant lists; only the owner's submissions take
	// effect. Null clears the list.
	Viewers Optional[[]domain.SubjectID]
	Editors Optional[[]domain.SubjectID]
}
