package httpapi

import (
	"context"
	"encoding/json"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/oapi-codegen/nullable"

	"github.com/dayscape/dayscape-backend/internal/app/preferences"
	"github.com/dayscape/dayscape-backend/internal/app/trips"
	"github.com/dayscape/dayscape-backend/internal/domain"
)

// TypeMatcher converts free-text interests into place type identifiers.
// *places.Matcher satisfies this; tests substitute a stub.
type TypeMatcher interface {
	Match(ctx context.Context, inputs []string) ([]string, error)
}

// Server is the HTTP adapter: it decodes requests, calls the app services
// with the subject taken from request context, and encodes responses. All
// policy lives in the services.
type Server struct {
	Trips   *trips.Service
	Prefs   *preferences.Service
	Matcher TypeMatcher
}

func NewServer(tripsSvc *trips.Service, prefsSvc *preferences.Service, matcher TypeMatcher) *Server {
	return &Server{
		Trips:   tripsSvc,
		Prefs:   prefsSvc,
		Matcher: matcher,
	}
}

type saveTripRequest struct {
	TripID  string                             `json:"tripId,omitempty"`
	Name    nullable.Nullable[string]          `json:"name,omitempty"`
	Data    nullable.Nullable[json.RawMessage] `json:"data,omitempty"`
	Viewers nullable.Nullable[[]string]        `json:"viewers,omitempty"`
	Editors nullable.Nullable[[]string]        `json:"editors,omitempty"`
}

type saveTripResponse struct {
	TripID string `json:"tripId"`
}

func (s *Server) SaveTrip(w http.ResponseWriter, r *http.Request) {
	sub, ok := SubjectFromContext(r.Context())
	if !ok {
		writeError(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "missing subject")
		return
	}

	var req saveTripRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "malformed request body")
		return
	}

	in := trips.SaveInput{
		TripID:  domain.TripID(req.TripID),
		Name:    optionalFromNullable(req.Name),
		Data:    optionalFromNullable(req.Data),
		Viewers: optionalSubjects(req.Viewers),
		Editors: optionalSubjects(req.Editors),
	}

	id, err := s.Trips.Save(r.Context(), sub, in)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, saveTripResponse{TripID: string(id)})
}

func (s *Server) GetTrip(w http.ResponseWriter, r *http.Request) {
	sub, ok := SubjectFromContext(r.Context())
	if !ok {
		writeError(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "missing subject")
		return
	}

	data, err := s.Trips.Get(r.Context(), sub, domain.TripID(chi.URLParam(r, "tripID")))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeRawJSON(w, http.StatusOK, data)
}

type tripNameResponse struct {
	Name nullable.Nullable[string] `json:"name"`
}

func (s *Server) GetTripName(w http.ResponseWriter, r *http.Request) {
	sub, ok := SubjectFromContext(r.Context())
	if !ok {
		writeError(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "missing subject")
		return
	}

	name, err := s.Trips.GetName(r.Context(), sub, domain.TripID(chi.URLParam(r, "tripID")))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	resp := tripNameResponse{Name: nullable.NewNullNullable[string]()}
	if name != nil {
		resp.Name = nullable.NewNullableWithValue(*name)
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) GetTripViewers(w http.ResponseWriter, r *http.Request) {
	s.getGrantList(w, r, "viewers", s.Trips.GetViewers)
}

func (s *Server) GetTripEditors(w http.ResponseWriter, r *http.Request) {
	s.getGrantList(w, r, "editors", s.Trips.GetEditors)
}

func (s *Server) getGrantList(
	w http.ResponseWriter,
	r *http.Request,
	field string,
	fetch func(context.Context, domain.SubjectID, domain.TripID) ([]domain.SubjectID, error),
) {
	sub, ok := SubjectFromContext(r.Context())
	if !ok {
		writeError(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "missing subject")
		return
	}

	subjects, err := fetch(r.Context(), sub, domain.TripID(chi.URLParam(r, "tripID")))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	out := make([]string, 0, len(subjects))
	for _, sub := range subjects {
		out = append(out, string(sub))
	}
	writeJSON(w, http.StatusOK, map[string][]string{field: out})
}

func (s *Server) DeleteTrip(w http.ResponseWriter, r *http.Request) {
	sub, ok := SubjectFromContext(r.Context())
	if !ok {
		writeError(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "missing subject")
		return
	}

	if err := s.Trips.Delete(r.Context(), sub, domain.TripID(chi.URLParam(r, "tripID"))); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type tripHeaderDTO struct {
	TripID string                    `json:"tripId"`
	Name   nullable.Nullable[string] `json:"name"`
}

type tripListResponse struct {
	Trips []tripHeaderDTO `json:"trips"`
}

func (s *Server) ListOwnedTrips(w http.ResponseWriter, r *http.Request) {
	s.listTrips(w, r, s.Trips.ListOwned)
}

func (s *Server) ListSharedTrips(w http.ResponseWriter, r *http.Request) {
	s.listTrips(w, r, s.Trips.ListShared)
}

func (s *Server) listTrips(
	w http.ResponseWriter,
	r *http.Request,
	list func(context.Context, domain.SubjectID) ([]domain.TripHeader, error),
) {
	sub, ok := SubjectFromContext(r.Context())
	if !ok {
		writeError(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "missing subject")
		return
	}

	hs, err := list(r.Context(), sub)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	resp := tripListResponse{Trips: make([]tripHeaderDTO, 0, len(hs))}
	for _, h := range hs {
		dto := tripHeaderDTO{TripID: string(h.ID), Name: nullable.NewNullNullable[string]()}
		if h.Name != nil {
			dto.Name = nullable.NewNullableWithValue(*h.Name)
		}
		resp.Trips = append(resp.Trips, dto)
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) GetPreferences(w http.ResponseWriter, r *http.Request) {
	sub, ok := SubjectFromContext(r.Context())
	if !ok {
		writeError(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "missing subject")
		return
	}

	data, found, err := s.Prefs.Get(r.Context(), sub)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	// Never-saved preferences read as null, not as an error.
	if !found {
		writeRawJSON(w, http.StatusOK, nil)
		return
	}
	writeRawJSON(w, http.StatusOK, data)
}

func (s *Server) SavePreferences(w http.ResponseWriter, r *http.Request) {
	sub, ok := SubjectFromContext(r.Context())
	if !ok {
		writeError(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "missing subject")
		return
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, r, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "unreadable request body")
		return
	}
	if !json.Valid(body) {
		writeError(w, r, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "body is not valid JSON")
		return
	}

	if err := s.Prefs.Save(r.Context(), sub, body); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type matchTypesRequest struct {
	Inputs []string `json:"inputs"`
}

type matchTypesResponse struct {
	Types []string `json:"types"`
}

func (s *Server) MatchPlaceTypes(w http.ResponseWriter, r *http.Request) {
	if _, ok := SubjectFromContext(r.Context()); !ok {
		writeError(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "missing subject")
		return
	}
	if s.Matcher == nil {
		writeError(w, r, http.StatusServiceUnavailable, "MATCHER_DISABLED", "place type matching is not configured")
		return
	}

	var req matchTypesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "malformed request body")
		return
	}
	if len(req.Inputs) == 0 {
		writeJSON(w, http.StatusOK, matchTypesResponse{Types: []string{}})
		return
	}

	types, err := s.Matcher.Match(r.Context(), req.Inputs)
	if err != nil {
		writeError(w, r, http.StatusBadGateway, "MATCHER_ERROR", "place type matching failed")
		return
	}
	if types == nil {
		types = []string{}
	}
	writeJSON(w, http.StatusOK, matchTypesResponse{Types: types})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeRawJSON emits a stored blob verbatim. nil reads as JSON null.
func writeRawJSON(w http.ResponseWriter, status int, raw json.RawMessage) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if raw == nil {
		_, _ = w.Write([]byte("null"))
		return
	}
	_, _ = w.Write(raw)
}

func optionalFromNullable[T any](n nullable.Nullable[T]) trips.Optional[T] {
	if !n.IsSpecified() {
		return trips.Unspecified[T]()
	}
	if n.IsNull() {
		return trips.Null[T]()
	}
	v, err := n.Get()
	if err != nil {
		return trips.Null[T]()
	}
	return trips.Some(v)
}

func optionalSubjects(n nullable.Nullable[[]string]) trips.Optional[[]domain.SubjectID] {
	o := optionalFromNullable(n)
	if !o.IsSpecified() {
		return trips.Unspecified[[]domain.SubjectID]()
	}
	if o.IsNull() {
		return trips.Null[[]domain.SubjectID]()
	}
	in := o.Value()
	out := make([]domain.SubjectID, 0, len(in))
	for _, s := range in {
		out = append(out, domain.SubjectID(s))
	}
	return trips.Some(out)
}
