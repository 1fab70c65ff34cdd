package trips_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	memtriprepo "github.com/dayscape/dayscape-backend/internal/adapters/memory/triprepo"
	"github.com/dayscape/dayscape-backend/internal/app/trips"
	"github.com/dayscape/dayscape-backend/internal/domain"
)

func newService(repo *memtriprepo.Repo) *trips.Service {
	svc := trips.NewService(repo)
	n := 0
	svc.SetNewTripIDForTest(func() domain.TripID {
		n++
		return domain.TripID(fmt.Sprintf("trip-%d", n))
	})
	return svc
}

func mustSave(t *testing.T, svc *trips.Service, caller domain.SubjectID, in trips.SaveInput) domain.TripID {
	t.Helper()
	id, err := svc.Save(context.Background(), caller, in)
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	return id
}

func TestService_Save_CreateDefaults(t *testing.T) {
	t.Parallel()

	repo := memtriprepo.NewRepo()
	svc := newService(repo)

	id := mustSave(t, svc, "a@x.com", trips.SaveInput{})
	if id != "trip-1" {
		t.Fatalf("id=%s", id)
	}

	name, err := svc.GetName(context.Background(), "a@x.com", id)
	if err != nil {
		t.Fatalf("GetName: %v", err)
	}
	if name != nil {
		t.Fatalf("name=%v", *name)
	}
	viewers, err := svc.GetViewers(context.Background(), "a@x.com", id)
	if err != nil {
		t.Fatalf("GetViewers: %v", err)
	}
	if len(viewers) != 0 {
		t.Fatalf("viewers=%v", viewers)
	}
}

func TestService_Save_CreateIgnoresClientChosenID(t *testing.T) {
	t.Parallel()

	repo := memtriprepo.NewRepo()
	svc := newService(repo)

	// A client-supplied ID that matches nothing must fail as an authorization
	// error, never create a record, and never reveal whether the ID exists.
	_, err := svc.Save(context.Background(), "a@x.com", trips.SaveInput{TripID: "made-up"})
	if !errors.Is(err, trips.ErrNotAuthorized) {
		t.Fatalf("err=%v", err)
	}
	if _, err := svc.Get(context.Background(), "a@x.com", "made-up"); !errors.Is(err, trips.ErrNotFound) {
		t.Fatalf("expected no record, got err=%v", err)
	}
}

func TestService_Save_OwnerImmutableAcrossUpdates(t *testing.T) {
	t.Parallel()

	repo := memtriprepo.NewRepo()
	svc := newService(repo)

	id := mustSave(t, svc, "a@x.com", trips.SaveInput{
		Editors: trips.Some([]domain.SubjectID{"b@x.com"}),
	})
	for i := 0; i < 3; i++ {
		mustSave(t, svc, "a@x.com", trips.SaveInput{TripID: id, Name: trips.Some(fmt.Sprintf("v%d", i))})
		mustSave(t, svc, "b@x.com", trips.SaveInput{TripID: id, Data: trips.Some(json.RawMessage(`{"i":1}`))})
	}

	// Only the owner can read grant lists; b being refused proves b never
	// became owner.
	if _, err := svc.GetViewers(context.Background(), "b@x.com", id); !errors.Is(err, trips.ErrNotAuthorized) {
		t.Fatalf("err=%v", err)
	}
	if _, err := svc.GetViewers(context.Background(), "a@x.com", id); err != nil {
		t.Fatalf("owner lost access: %v", err)
	}
	owned, err := svc.ListOwned(context.Background(), "a@x.com")
	if err != nil {
		t.Fatalf("ListOwned: %v", err)
	}
	if len(owned) != 1 || owned[0].ID != id {
		t.Fatalf("owned=%v", owned)
	}
}

func TestService_Save_EditorGrantChangesIgnored(t *testing.T) {
	t.Parallel()

	repo := memtriprepo.NewRepo()
	svc := newService(repo)

	id := mustSave(t, svc, "a@x.com", trips.SaveInput{
		Viewers: trips.Some([]domain.SubjectID{}),
		Editors: trips.Some([]domain.SubjectID{"b@x.com"}),
	})

	// The editor's grant submissions must be dropped silently while the data
	// change still applies.
	mustSave(t, svc, "b@x.com", trips.SaveInput{
		TripID:  id,
		Editors: trips.Some([]domain.SubjectID{"c@x.com"}),
		Data:    trips.Some(json.RawMessage(`{"d":1}`)),
	})

	editors, err := svc.GetEditors(context.Background(), "a@x.com", id)
	if err != nil {
		t.Fatalf("GetEditors: %v", err)
	}
	if len(editors) != 1 || editors[0] != "b@x.com" {
		t.Fatalf("editors=%v", editors)
	}
	data, err := svc.Get(context.Background(), "a@x.com", id)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if string(data) != `{"d":1}` {
		t.Fatalf("data=%s", data)
	}
	// c never gained access.
	if _, err := svc.Get(context.Background(), "c@x.com", id); !errors.Is(err, trips.ErrNotAuthorized) {
		t.Fatalf("err=%v", err)
	}
}

func TestService_Save_OwnerChangesGrants(t *testing.T) {
	t.Parallel()

	repo := memtriprepo.NewRepo()
	svc := newService(repo)

	id := mustSave(t, svc, "a@x.com", trips.SaveInput{})
	mustSave(t, svc, "a@x.com", trips.SaveInput{
		TripID:  id,
		Viewers: trips.Some([]domain.SubjectID{"v@x.com", "v@x.com", "a@x.com"}),
		Editors: trips.Some([]domain.SubjectID{"e@x.com"}),
	})

	// Duplicates collapse and the owner is never listed as a grantee.
	viewers, err := svc.GetViewers(context.Background(), "a@x.com", id)
	if err != nil {
		t.Fatalf("GetViewers: %v", err)
	}
	if len(viewers) != 1 || viewers[0] != "v@x.com" {
		t.Fatalf("viewers=%v", viewers)
	}

	// Null clears a grant list.
	mustSave(t, svc, "a@x.com", trips.SaveInput{TripID: id, Viewers: trips.Null[[]domain.SubjectID]()})
	viewers, err = svc.GetViewers(context.Background(), "a@x.com", id)
	if err != nil {
		t.Fatalf("GetViewers: %v", err)
	}
	if len(viewers) != 0 {
		t.Fatalf("viewers=%v", viewers)
	}
}

func TestService_Save_OmittedFieldsUnchanged(t *testing.T) {
	t.Parallel()

	repo := memtriprepo.NewRepo()
	svc := newService(repo)

	id := mustSave(t, svc, "a@x.com", trips.SaveInput{
		Name: trips.Some("Lisbon"),
		Data: trips.Some(json.RawMessage(`{"days":3}`)),
	})
	mustSave(t, svc, "a@x.com", trips.SaveInput{TripID: id, Name: trips.Some("Lisbon 2026")})

	name, err := svc.GetName(context.Background(), "a@x.com", id)
	if err != nil || name == nil || *name != "Lisbon 2026" {
		t.Fatalf("name=%v err=%v", name, err)
	}
	data, err := svc.Get(context.Background(), "a@x.com", id)
	if err != nil || string(data) != `{"days":3}` {
		t.Fatalf("data=%s err=%v", data, err)
	}
}

func TestService_Get_Authorization(t *testing.T) {
	t.Parallel()

	repo := memtriprepo.NewRepo()
	svc := newService(repo)

	id := mustSave(t, svc, "a@x.com", trips.SaveInput{
		Viewers: trips.Some([]domain.SubjectID{"v@x.com"}),
		Editors: trips.Some([]domain.SubjectID{"e@x.com"}),
		Data:    trips.Some(json.RawMessage(`{"k":true}`)),
	})

	for _, caller := range []domain.SubjectID{"a@x.com", "v@x.com", "e@x.com"} {
		if _, err := svc.Get(context.Background(), caller, id); err != nil {
			t.Fatalf("Get as %s: %v", caller, err)
		}
		if _, err := svc.GetName(context.Background(), caller, id); err != nil {
			t.Fatalf("GetName as %s: %v", caller, err)
		}
	}

	// Unlisted subject on an existing trip: not authorized, never the data.
	if _, err := svc.Get(context.Background(), "z@y.com", id); !errors.Is(err, trips.ErrNotAuthorized) {
		t.Fatalf("err=%v", err)
	}
	// Unknown id on a read: not found.
	if _, err := svc.Get(context.Background(), "z@y.com", "missing"); !errors.Is(err, trips.ErrNotFound) {
		t.Fatalf("err=%v", err)
	}
}

func TestService_GrantLists_OwnerOnly(t *testing.T) {
	t.Parallel()

	repo := memtriprepo.NewRepo()
	svc := newService(repo)

	id := mustSave(t, svc, "a@x.com", trips.SaveInput{
		Viewers: trips.Some([]domain.SubjectID{"v@x.com"}),
		Editors: trips.Some([]domain.SubjectID{"e@x.com"}),
	})

	// Editors and viewers may read content but not the grant lists.
	for _, caller := range []domain.SubjectID{"v@x.com", "e@x.com", "z@y.com"} {
		if _, err := svc.GetViewers(context.Background(), caller, id); !errors.Is(err, trips.ErrNotAuthorized) {
			t.Fatalf("GetViewers as %s: err=%v", caller, err)
		}
		if _, err := svc.GetEditors(context.Background(), caller, id); !errors.Is(err, trips.ErrNotAuthorized) {
			t.Fatalf("GetEditors as %s: err=%v", caller, err)
		}
	}
	if _, err := svc.GetViewers(context.Background(), "a@x.com", "missing"); !errors.Is(err, trips.ErrNotFound) {
		t.Fatalf("err=%v", err)
	}
}

func TestService_Delete_OwnerOnly(t *testing.T) {
	t.Parallel()

	repo := memtriprepo.NewRepo()
	svc := newService(repo)

	id := mustSave(t, svc, "a@x.com", trips.SaveInput{
		Editors: trips.Some([]domain.SubjectID{"e@x.com"}),
		Data:    trips.Some(json.RawMessage(`{"keep":1}`)),
	})

	if err := svc.Delete(context.Background(), "e@x.com", id); !errors.Is(err, trips.ErrNotAuthorized) {
		t.Fatalf("err=%v", err)
	}
	// The failed delete rolled back cleanly; the record is unchanged.
	data, err := svc.Get(context.Background(), "a@x.com", id)
	if err != nil || string(data) != `{"keep":1}` {
		t.Fatalf("data=%s err=%v", data, err)
	}

	if err := svc.Delete(context.Background(), "a@x.com", "missing"); !errors.Is(err, trips.ErrNotFound) {
		t.Fatalf("err=%v", err)
	}
	if err := svc.Delete(context.Background(), "a@x.com", id); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := svc.Get(context.Background(), "a@x.com", id); !errors.Is(err, trips.ErrNotFound) {
		t.Fatalf("err=%v", err)
	}
}

func TestService_ListOwnedAndShared(t *testing.T) {
	t.Parallel()

	repo := memtriprepo.NewRepo()
	svc := newService(repo)

	id1 := mustSave(t, svc, "a@x.com", trips.SaveInput{Name: trips.Some("one")})
	id2 := mustSave(t, svc, "a@x.com", trips.SaveInput{Name: trips.Some("two")})
	id3 := mustSave(t, svc, "z@y.com", trips.SaveInput{
		Name:    trips.Some("theirs"),
		Viewers: trips.Some([]domain.SubjectID{"a@x.com"}),
	})

	owned, err := svc.ListOwned(context.Background(), "a@x.com")
	if err != nil {
		t.Fatalf("ListOwned: %v", err)
	}
	if len(owned) != 2 {
		t.Fatalf("owned=%v", owned)
	}
	got := map[domain.TripID]string{}
	for _, h := range owned {
		if h.Name == nil {
			t.Fatalf("nil name in %v", owned)
		}
		got[h.ID] = *h.Name
	}
	if got[id1] != "one" || got[id2] != "two" {
		t.Fatalf("owned=%v", got)
	}

	shared, err := svc.ListShared(context.Background(), "a@x.com")
	if err != nil {
		t.Fatalf("ListShared: %v", err)
	}
	if len(shared) != 1 || shared[0].ID != id3 {
		t.Fatalf("shared=%v", shared)
	}

	// Shared listing excludes trips the subject owns.
	sharedZ, err := svc.ListShared(context.Background(), "z@y.com")
	if err != nil {
		t.Fatalf("ListShared: %v", err)
	}
	if len(sharedZ) != 0 {
		t.Fatalf("shared=%v", sharedZ)
	}
}
