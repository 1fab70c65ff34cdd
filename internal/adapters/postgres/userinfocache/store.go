package userinfocache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dayscape/dayscape-backend/internal/ports/out/userinfocache"
)

// Store is a Postgres implementation of userinfocache.Store.
//
// Put upserts on the token key so two resolvers racing to fill the same miss
// both succeed; the second write simply wins.
type Store struct {
	pool *pgxpool.Pool
}

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

func (s *Store) Get(ctx context.Context, token string) (userinfocache.Entry, bool, error) {
	if s.pool == nil {
		return userinfocache.Entry{}, false, errors.New("nil postgres pool")
	}
	var (
		data      []byte
		createdAt time.Time
	)
	err := s.pool.QueryRow(ctx, `
		SELECT data, created_at FROM userinfo WHERE token = $1
	`, token).Scan(&data, &createdAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return userinfocache.Entry{}, false, nil
		}
		return userinfocache.Entry{}, false, err
	}
	return userinfocache.Entry{
		Token:     token,
		Data:      json.RawMessage(data),
		CreatedAt: createdAt.UTC(),
	}, true, nil
}

func (s *Store) Put(ctx context.Context, e userinfocache.Entry) error {
	if s.pool == nil {
		return errors.New("nil postgres pool")
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO userinfo (token, data, created_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (token) DO UPDATE SET data = EXCLUDED.data, created_at = EXCLUDED.created_at
	`, e.Token, []byte(e.Data), e.CreatedAt.UTC())
	return err
}

func (s *Store) PurgeOlderThan(ctx context.Context, cutoff time.Time) (int, error) {
	if s.pool == nil {
		return 0, errors.New("nil postgres pool")
	}
	tag, err := s.pool.Exec(ctx, `
		DELETE FROM userinfo WHERE created_at < $1
	`, cutoff.UTC())
	if err != nil {
		return 0, err
	}
	return int(tag.RowsAffected()), nil
}
