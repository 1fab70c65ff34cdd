package prefrepo

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dayscape/dayscape-backend/internal/domain"
)

// Repo is a Postgres implementation of prefrepo.Repository.
type Repo struct {
	pool *pgxpool.Pool
}

func NewRepo(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

func (r *Repo) Upsert(ctx context.Context, subject domain.SubjectID, data json.RawMessage) error {
	if r.pool == nil {
		return errors.New("nil postgres pool")
	}
	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, `
			INSERT INTO preference (email, preferences_data)
			VALUES ($1, $2)
			ON CONFLICT (email) DO UPDATE SET preferences_data = EXCLUDED.preferences_data
		`, string(subject), []byte(data))
		return err
	})
}

func (r *Repo) Get(ctx context.Context, subject domain.SubjectID) (json.RawMessage, bool, error) {
	if r.pool == nil {
		return nil, false, errors.New("nil postgres pool")
	}
	var data []byte
	err := r.pool.QueryRow(ctx, `
		SELECT preferences_data FROM preference WHERE email = $1
	`, string(subject)).Scan(&data)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return json.RawMessage(data), true, nil
}
