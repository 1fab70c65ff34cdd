package contracttest

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/dayscape/dayscape-backend/internal/domain"
	prefrepoport "github.com/dayscape/dayscape-backend/internal/ports/out/prefrepo"
	triprepoport "github.com/dayscape/dayscape-backend/internal/ports/out/triprepo"
	userinfocacheport "github.com/dayscape/dayscape-backend/internal/ports/out/userinfocache"
)

type CleanupFunc = func()

type TripRepoFactory func(t *testing.T) (triprepoport.Repository, CleanupFunc)
type PrefRepoFactory func(t *testing.T) (prefrepoport.Repository, CleanupFunc)
type UserInfoCacheFactory func(t *testing.T) (userinfocacheport.Store, CleanupFunc)

// RunTripRepo exercises the transactional trip store contract.
func RunTripRepo(t *testing.T, newRepo TripRepoFactory) {
	t.Helper()
	ctx := context.Background()

	repo, cleanup := newRepo(t)
	if cleanup != nil {
		t.Cleanup(cleanup)
	}

	owner := domain.SubjectID("owner@example.com")
	viewer := domain.SubjectID("viewer@example.com")
	editor := domain.SubjectID("editor@example.com")

	id := domain.TripID(uuid.NewString())
	name := "Coast Loop"
	trip := triprepoport.Trip{
		ID:      id,
		Owner:   owner,
		Name:    &name,
		Viewers: []domain.SubjectID{viewer},
		Editors: []domain.SubjectID{editor},
		Data:    json.RawMessage(`{"stops":["SF","Monterey"]}`),
	}

	if err := repo.InTx(ctx, func(tx triprepoport.Tx) error {
		return tx.Insert(ctx, trip)
	}); err != nil {
		t.Fatalf("Insert: %v", err)
	}

	// Duplicate insert reports ErrAlreadyExists.
	err := repo.InTx(ctx, func(tx triprepoport.Tx) error {
		return tx.Insert(ctx, trip)
	})
	if !errors.Is(err, triprepoport.ErrAlreadyExists) {
		t.Fatalf("err=%v", err)
	}

	if err := repo.InTx(ctx, func(tx triprepoport.Tx) error {
		got, err := tx.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if got.Owner != owner || got.Name == nil || *got.Name != name {
			t.Fatalf("got=%+v", got)
		}
		if len(got.Viewers) != 1 || got.Viewers[0] != viewer {
			t.Fatalf("viewers=%v", got.Viewers)
		}
		if len(got.Editors) != 1 || got.Editors[0] != editor {
			t.Fatalf("editors=%v", got.Editors)
		}
		if string(got.Data) != `{"stops":["SF","Monterey"]}` {
			t.Fatalf("data=%s", got.Data)
		}
		return nil
	}); err != nil {
		t.Fatalf("GetByID: %v", err)
	}

	// A failing fn rolls back every staged change.
	boom := errors.New("boom")
	newName := "Changed"
	err = repo.InTx(ctx, func(tx triprepoport.Tx) error {
		updated := trip
		updated.Name = &newName
		if err := tx.Update(ctx, updated); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("err=%v", err)
	}
	if err := repo.InTx(ctx, func(tx triprepoport.Tx) error {
		got, err := tx.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if got.Name == nil || *got.Name != name {
			t.Fatalf("rollback leaked: name=%v", got.Name)
		}
		return nil
	}); err != nil {
		t.Fatalf("GetByID after rollback: %v", err)
	}

	// Listings.
	otherID := domain.TripID(uuid.NewString())
	otherName := "Not Shared"
	if err := repo.InTx(ctx, func(tx triprepoport.Tx) error {
		return tx.Insert(ctx, triprepoport.Trip{
			ID:    otherID,
			Owner: "stranger@example.com",
			Name:  &otherName,
		})
	}); err != nil {
		t.Fatalf("Insert other: %v", err)
	}

	if err := repo.InTx(ctx, func(tx triprepoport.Tx) error {
		owned, err := tx.ListByOwner(ctx, owner)
		if err != nil {
			return err
		}
		if len(owned) != 1 || owned[0].ID != id {
			t.Fatalf("owned=%v", owned)
		}
		for _, sub := range []domain.SubjectID{viewer, editor} {
			shared, err := tx.ListSharedWith(ctx, sub)
			if err != nil {
				return err
			}
			if len(shared) != 1 || shared[0].ID != id {
				t.Fatalf("shared for %s=%v", sub, shared)
			}
		}
		// The owner's own trips never show up as shared.
		shared, err := tx.ListSharedWith(ctx, owner)
		if err != nil {
			return err
		}
		if len(shared) != 0 {
			t.Fatalf("shared=%v", shared)
		}
		return nil
	}); err != nil {
		t.Fatalf("listings: %v", err)
	}

	// Delete and ErrNotFound behaviors.
	if err := repo.InTx(ctx, func(tx triprepoport.Tx) error {
		return tx.Delete(ctx, id)
	}); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	err = repo.InTx(ctx, func(tx triprepoport.Tx) error {
		_, err := tx.GetByID(ctx, id)
		return err
	})
	if !errors.Is(err, triprepoport.ErrNotFound) {
		t.Fatalf("err=%v", err)
	}
	err = repo.InTx(ctx, func(tx triprepoport.Tx) error {
		return tx.Delete(ctx, id)
	})
	if !errors.Is(err, triprepoport.ErrNotFound) {
		t.Fatalf("err=%v", err)
	}
	err = repo.InTx(ctx, func(tx triprepoport.Tx) error {
		return tx.Update(ctx, trip)
	})
	if !errors.Is(err, triprepoport.ErrNotFound) {
		t.Fatalf("err=%v", err)
	}
}

// RunPrefRepo exercises the preference store contract.
func RunPrefRepo(t *testing.T, newRepo PrefRepoFactory) {
	t.Helper()
	ctx := context.Background()

	repo, cleanup := newRepo(t)
	if cleanup != nil {
		t.Cleanup(cleanup)
	}

	subject := domain.SubjectID(uuid.NewString() + "@example.com")

	if _, ok, err := repo.Get(ctx, subject); err != nil || ok {
		t.Fatalf("ok=%v err=%v", ok, err)
	}
	if err := repo.Upsert(ctx, subject, json.RawMessage(`{"a":1}`)); err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	if err := repo.Upsert(ctx, subject, json.RawMessage(`{"b":2}`)); err != nil {
		t.Fatalf("Upsert overwrite: %v", err)
	}
	data, ok, err := repo.Get(ctx, subject)
	if err != nil || !ok {
		t.Fatalf("ok=%v err=%v", ok, err)
	}
	if string(data) != `{"b":2}` {
		t.Fatalf("data=%s", data)
	}
}

// RunUserInfoCache exercises the identity cache store contract.
func RunUserInfoCache(t *testing.T, newStore UserInfoCacheFactory) {
	t.Helper()
	ctx := context.Background()

	store, cleanup := newStore(t)
	if cleanup != nil {
		t.Cleanup(cleanup)
	}

	base := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	fresh := userinfocacheport.Entry{
		Token:     "tok-" + uuid.NewString(),
		Data:      json.RawMessage(`{"email":"fresh@example.com"}`),
		CreatedAt: base,
	}
	stale := userinfocacheport.Entry{
		Token:     "tok-" + uuid.NewString(),
		Data:      json.RawMessage(`{"email":"stale@example.com"}`),
		CreatedAt: base.Add(-11 * time.Hour),
	}

	if err := store.Put(ctx, fresh); err != nil {
		t.Fatalf("Put fresh: %v", err)
	}
	if err := store.Put(ctx, stale); err != nil {
		t.Fatalf("Put stale: %v", err)
	}

	got, ok, err := store.Get(ctx, fresh.Token)
	if err != nil || !ok {
		t.Fatalf("ok=%v err=%v", ok, err)
	}
	if string(got.Data) != string(fresh.Data) || !got.CreatedAt.Equal(fresh.CreatedAt) {
		t.Fatalf("got=%+v", got)
	}

	// Overwrite on the same token is allowed (racing fills tolerate this).
	refilled := fresh
	refilled.Data = json.RawMessage(`{"email":"refilled@example.com"}`)
	refilled.CreatedAt = base.Add(time.Minute)
	if err := store.Put(ctx, refilled); err != nil {
		t.Fatalf("Put refill: %v", err)
	}
	got, ok, err = store.Get(ctx, fresh.Token)
	if err != nil || !ok || string(got.Data) != string(refilled.Data) {
		t.Fatalf("got=%+v ok=%v err=%v", got, ok, err)
	}

	// Purge removes only entries strictly older than the cutoff.
	n, err := store.PurgeOlderThan(ctx, base.Add(-10*time.Hour))
	if err != nil {
		t.Fatalf("PurgeOlderThan: %v", err)
	}
	if n < 1 {
		t.Fatalf("purged=%d", n)
	}
	if _, ok, err := store.Get(ctx, stale.Token); err != nil || ok {
		t.Fatalf("stale survived: ok=%v err=%v", ok, err)
	}
	if _, ok, err := store.Get(ctx, fresh.Token); err != nil || !ok {
		t.Fatalf("fresh purged: ok=%v err=%v", ok, err)
	}
}
