package triprepo

import (
	"context"
	"encoding/json"

	"github.com/dayscape/dayscape-backend/internal/domain"
)

// Trip is the persistence shape used by the trip repository.
// It is not an HTTP DTO.
type Trip struct {
	ID domain.TripID

	// Owner is set at creation and is immutable thereafter. The owner never
	// appears in Viewers or Editors.
	Owner domain.SubjectID

	Name *string

	Viewers []domain.SubjectID
	Editors []domain.SubjectID

	// Data is the opaque document body. nil means no body has been stored.
	Data json.RawMessage
}

// Tx is the set of trip operations available inside one transaction.
// Everything called on a Tx observes a single consistent snapshot and commits
// or rolls back as a unit.
type Tx interface {
	GetByID(ctx context.Context, id domain.TripID) (Trip, error)

	Insert(ctx context.Context, t Trip) error
	Update(ctx context.Context, t Trip) error
	Delete(ctx context.Context, id domain.TripID) error

	// ListByOwner returns headers for trips owned by the subject,
	// ordered by trip ID ascending.
	ListByOwner(ctx context.Context, owner domain.SubjectID) ([]domain.TripHeader, error)

	// ListSharedWith returns headers for trips where the subject is a viewer
	// or editor, excluding trips the subject owns, ordered by trip ID ascending.
	ListSharedWith(ctx context.Context, subject domain.SubjectID) ([]domain.TripHeader, error)
}

// Repository provides transactionally scoped access to persisted trips.
//
// InTx runs fn inside one transaction: commit when fn returns nil, rollback
// otherwise. An error returned by fn is propagated unchanged so callers can
// surface authorization failures decided inside the transaction.
type Repository interface {
	InTx(ctx context.Context, fn func(tx Tx) error) error
}
