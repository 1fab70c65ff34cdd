package httpapi

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	memprefrepo "github.com/dayscape/dayscape-backend/internal/adapters/memory/prefrepo"
	memtriprepo "github.com/dayscape/dayscape-backend/internal/adapters/memory/triprepo"
	"github.com/dayscape/dayscape-backend/internal/app/preferences"
	"github.com/dayscape/dayscape-backend/internal/app/trips"
)

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()

	tripSvc := trips.NewService(memtriprepo.NewRepo())
	prefSvc := preferences.NewService(memprefrepo.NewRepo())
	api := NewServer(tripSvc, prefSvc, nil)

	return NewRouter(api, RouterOptions{
		Auth: NewDevAuthMiddleware(""),
	})
}

func doJSON(t *testing.T, h http.Handler, method, path, subject string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	if subject != "" {
		req.Header.Set("X-Debug-Subject", subject)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func createTrip(t *testing.T, h http.Handler, subject string, body map[string]any) string {
	t.Helper()

	rec := doJSON(t, h, http.MethodPost, "/api/trip", subject, body)
	if rec.Code != http.StatusOK {
		t.Fatalf("create status=%d body=%s", rec.Code, rec.Body.String())
	}
	var resp saveTripResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode create response: %v", err)
	}
	if resp.TripID == "" {
		t.Fatal("create returned empty tripId")
	}
	return resp.TripID
}

func TestSaveAndGetTrip(t *testing.T) {
	t.Parallel()

	h := newTestRouter(t)
	id := createTrip(t, h, "owner@x.com", map[string]any{
		"name": "Lisbon",
		"data": map[string]any{"days": 3},
	})

	rec := doJSON(t, h, http.MethodGet, "/api/trip/"+id, "owner@x.com", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("get status=%d", rec.Code)
	}
	var data map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &data); err != nil {
		t.Fatalf("decode trip data: %v", err)
	}
	if data["days"] != float64(3) {
		t.Fatalf("data=%v, want days=3", data)
	}

	rec = doJSON(t, h, http.MethodGet, "/api/trip/"+id+"/name", "owner@x.com", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("get name status=%d", rec.Code)
	}
	var nameResp struct {
		Name *string `json:"name"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &nameResp); err != nil {
		t.Fatalf("decode name: %v", err)
	}
	if nameResp.Name == nil || *nameResp.Name != "Lisbon" {
		t.Fatalf("name=%v, want Lisbon", nameResp.Name)
	}
}

func TestGetTrip_Unknown_404(t *testing.T) {
	t.Parallel()

	h := newTestRouter(t)
	rec := doJSON(t, h, http.MethodGet, "/api/trip/no-such-id", "owner@x.com", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status=%d, want 404", rec.Code)
	}
}

func TestGetTrip_StrangerForbidden(t *testing.T) {
	t.Parallel()

	h := newTestRouter(t)
	id := createTrip(t, h, "owner@x.com", map[string]any{"name": "private"})

	rec := doJSON(t, h, http.MethodGet, "/api/trip/"+id, "stranger@x.com", nil)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("status=%d, want 403", rec.Code)
	}
}

func TestSaveTrip_UnknownID_403(t *testing.T) {
	t.Parallel()

	h := newTestRouter(t)
	rec := doJSON(t, h, http.MethodPost, "/api/trip", "owner@x.com", map[string]any{
		"tripId": "made-up-id",
		"name":   "sneaky",
	})
	if rec.Code != http.StatusForbidden {
		t.Fatalf("status=%d, want 403", rec.Code)
	}
}

func TestGrantLists_OwnerOnly(t *testing.T) {
	t.Parallel()

	h := newTestRouter(t)
	id := createTrip(t, h, "owner@x.com", map[string]any{
		"viewers": []string{"viewer@x.com"},
		"editors": []string{"editor@x.com"},
	})

	rec := doJSON(t, h, http.MethodGet, "/api/trip/"+id+"/viewers", "owner@x.com", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("owner viewers status=%d", rec.Code)
	}
	var vr struct {
		Viewers []string `json:"viewers"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &vr); err != nil {
		t.Fatalf("decode viewers: %v", err)
	}
	if len(vr.Viewers) != 1 || vr.Viewers[0] != "viewer@x.com" {
		t.Fatalf("viewers=%v", vr.Viewers)
	}

	// An editor can read content but not the grant lists.
	rec = doJSON(t, h, http.MethodGet, "/api/trip/"+id, "editor@x.com", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("editor content status=%d", rec.Code)
	}
	rec = doJSON(t, h, http.MethodGet, "/api/trip/"+id+"/editors", "editor@x.com", nil)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("editor grant status=%d, want 403", rec.Code)
	}
}

func TestDeleteTrip_OwnerOnly(t *testing.T) {
	t.Parallel()

	h := newTestRouter(t)
	id := createTrip(t, h, "owner@x.com", map[string]any{
		"editors": []string{"editor@x.com"},
	})

	rec := doJSON(t, h, http.MethodDelete, "/api/trip/"+id, "editor@x.com", nil)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("editor delete status=%d, want 403", rec.Code)
	}

	rec = doJSON(t, h, http.MethodDelete, "/api/trip/"+id, "owner@x.com", nil)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("owner delete status=%d, want 204", rec.Code)
	}

	rec = doJSON(t, h, http.MethodGet, "/api/trip/"+id, "owner@x.com", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("get after delete status=%d, want 404", rec.Code)
	}
}

func TestListOwnedAndShared(t *testing.T) {
	t.Parallel()

	h := newTestRouter(t)
	owned := createTrip(t, h, "a@x.com", map[string]any{"name": "mine"})
	shared := createTrip(t, h, "b@x.com", map[string]any{
		"name":    "theirs",
		"viewers": []string{"a@x.com"},
	})

	rec := doJSON(t, h, http.MethodGet, "/api/trips/owned", "a@x.com", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("owned status=%d", rec.Code)
	}
	var list tripListResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &list); err != nil {
		t.Fatalf("decode owned: %v", err)
	}
	if len(list.Trips) != 1 || list.Trips[0].TripID != owned {
		t.Fatalf("owned=%+v, want [%s]", list.Trips, owned)
	}

	rec = doJSON(t, h, http.MethodGet, "/api/trips/shared", "a@x.com", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("shared status=%d", rec.Code)
	}
	list = tripListResponse{}
	if err := json.Unmarshal(rec.Body.Bytes(), &list); err != nil {
		t.Fatalf("decode shared: %v", err)
	}
	if len(list.Trips) != 1 || list.Trips[0].TripID != shared {
		t.Fatalf("shared=%+v, want [%s]", list.Trips, shared)
	}
}

func TestSaveTrip_NullClearsName(t *testing.T) {
	t.Parallel()

	h := newTestRouter(t)
	id := createTrip(t, h, "owner@x.com", map[string]any{"name": "before"})

	rec := doJSON(t, h, http.MethodPost, "/api/trip", "owner@x.com", map[string]any{
		"tripId": id,
		"name":   nil,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("update status=%d", rec.Code)
	}

	rec = doJSON(t, h, http.MethodGet, "/api/trip/"+id+"/name", "owner@x.com", nil)
	var nameResp struct {
		Name *string `json:"name"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &nameResp); err != nil {
		t.Fatalf("decode name: %v", err)
	}
	if nameResp.Name != nil {
		t.Fatalf("name=%v, want null", *nameResp.Name)
	}
}

func TestHealthz_Unauthenticated(t *testing.T) {
	t.Parallel()

	h := newTestRouter(t)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status=%d, want 200", rec.Code)
	}
}
