package triprepo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	postgres "github.com/dayscape/dayscape-backend/internal/adapters/postgres"
	"github.com/dayscape/dayscape-backend/internal/domain"
	"github.com/dayscape/dayscape-backend/internal/ports/out/triprepo"
)

// Repo is a Postgres implementation of triprepo.Repository.
//
// InTx wraps fn in one database transaction via pgx.BeginFunc: commit when fn
// returns nil, rollback otherwise, including on panic. Authorization failures
// decided inside fn therefore leave no observable effects.
type Repo struct {
	pool *pgxpool.Pool
}

func NewRepo(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

func (r *Repo) InTx(ctx context.Context, fn func(tx triprepo.Tx) error) error {
	if r.pool == nil {
		return errors.New("nil postgres pool")
	}
	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(&pgTx{tx: tx})
	})
}

type pgTx struct {
	tx pgx.Tx
}

func (t *pgTx) GetByID(ctx context.Context, id domain.TripID) (triprepo.Trip, error) {
	tripUUID, err := uuid.Parse(string(id))
	if err != nil {
		return triprepo.Trip{}, triprepo.ErrNotFound
	}

	row := t.tx.QueryRow(ctx, `
		SELECT id, owner, name, viewers, editors, trip_data
		FROM trip
		WHERE id = $1
	`, tripUUID)

	var (
		extID   uuid.UUID
		owner   string
		name    *string
		viewers []string
		editors []string
		data    []byte
	)
	if err := row.Scan(&extID, &owner, &name, &viewers, &editors, &data); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return triprepo.Trip{}, triprepo.ErrNotFound
		}
		return triprepo.Trip{}, err
	}

	return triprepo.Trip{
		ID:      domain.TripID(extID.String()),
		Owner:   domain.SubjectID(owner),
		Name:    name,
		Viewers: toSubjects(viewers),
		Editors: toSubjects(editors),
		Data:    json.RawMessage(data),
	}, nil
}

func (t *pgTx) Insert(ctx context.Context, tr triprepo.Trip) error {
	tripUUID, err := uuid.Parse(string(tr.ID))
	if err != nil {
		return fmt.Errorf("invalid trip id: %w", err)
	}

	_, err = t.tx.Exec(ctx, `
		INSERT INTO trip (id, owner, name, viewers, editors, trip_data)
		VALUES ($1, $2, $3, $4, $5, $6)
	`,
		tripUUID,
		string(tr.Owner),
		tr.Name,
		toStrings(tr.Viewers),
		toStrings(tr.Editors),
		[]byte(tr.Data),
	)
	if err != nil {
		if pe, ok := postgres.AsPgError(err); ok && pe.Code == postgres.UniqueViolationCode {
			return triprepo.ErrAlreadyExists
		}
		return err
	}
	return nil
}

func (t *pgTx) Update(ctx context.Context, tr triprepo.Trip) error {
	tripUUID, err := uuid.Parse(string(tr.ID))
	if err != nil {
		return triprepo.ErrNotFound
	}

	// Owner is immutable and deliberately not part of the SET list.
	tag, err := t.tx.Exec(ctx, `
		UPDATE trip
		SET name = $2,
		    viewers = $3,
		    editors = $4,
		    trip_data = $5
		WHERE id = $1
	`,
		tripUUID,
		tr.Name,
		toStrings(tr.Viewers),
		toStrings(tr.Editors),
		[]byte(tr.Data),
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return triprepo.ErrNotFound
	}
	return nil
}

func (t *pgTx) Delete(ctx context.Context, id domain.TripID) error {
	tripUUID, err := uuid.Parse(string(id))
	if err != nil {
		return triprepo.ErrNotFound
	}
	tag, err := t.tx.Exec(ctx, `DELETE FROM trip WHERE id = $1`, tripUUID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return triprepo.ErrNotFound
	}
	return nil
}

func (t *pgTx) ListByOwner(ctx context.Context, owner domain.SubjectID) ([]domain.TripHeader, error) {
	rows, err := t.tx.Query(ctx, `
		SELECT id, name
		FROM trip
		WHERE owner = $1
		ORDER BY id ASC
	`, string(owner))
	if err != nil {
		return nil, err
	}
	return scanHeaders(rows)
}

func (t *pgTx) ListSharedWith(ctx context.Context, subject domain.SubjectID) ([]domain.TripHeader, error) {
	rows, err := t.tx.Query(ctx, `
		SELECT id, name
		FROM trip
		WHERE ($1 = ANY(viewers) OR $1 = ANY(editors))
		  AND owner <> $1
		ORDER BY id ASC
	`, string(subject))
	if err != nil {
		return nil, err
	}
	return scanHeaders(rows)
}

func scanHeaders(rows pgx.Rows) ([]domain.TripHeader, error) {
	defer rows.Close()
	out := make([]domain.TripHeader, 0)
	for rows.Next() {
		var (
			id   uuid.UUID
			name *string
		)
		if err := rows.Scan(&id, &name); err != nil {
			return nil, err
		}
		out = append(out, domain.TripHeader{ID: domain.TripID(id.String()), Name: name})
	}
	return out, rows.Err()
}

func toStrings(in []domain.SubjectID) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		out = append(out, string(s))
	}
	return out
}

func toSubjects(in []string) []domain.SubjectID {
	out := make([]domain.SubjectID, 0, len(in))
	for _, s := range in {
		out = append(out, domain.SubjectID(s))
	}
	return out
}
