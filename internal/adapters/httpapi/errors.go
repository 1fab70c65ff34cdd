package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/oapi-codegen/nullable"

	"github.com/dayscape/dayscape-backend/internal/app/identity"
	"github.com/dayscape/dayscape-backend/internal/app/trips"
	"github.com/dayscape/dayscape-backend/internal/ports/out/identityprovider"
)

type errorBody struct {
	Error struct {
		Code      string                    `json:"code"`
		Message   string                    `json:"message"`
		RequestID nullable.Nullable[string] `json:"requestId,omitempty"`
	} `json:"error"`
}

func writeError(w http.ResponseWriter, r *http.Request, status int, code string, message string) {
	var eb errorBody
	eb.Error.Code = code
	eb.Error.Message = message
	if rid := middleware.GetReqID(r.Context()); rid != "" {
		eb.Error.RequestID = nullable.NewNullableWithValue(rid)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(eb)
}

// writeServiceError maps core errors onto transport statuses. The core never
// carries HTTP knowledge, so the mapping lives entirely here.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, trips.ErrNotFound):
		writeError(w, r, http.StatusNotFound, "NOT_FOUND", "trip not found")
	case errors.Is(err, trips.ErrNotAuthorized):
		writeError(w, r, http.StatusForbidden, "FORBIDDEN", "not authorized")
	case errors.Is(err, identity.ErrMissingEmail):
		writeError(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "identity has no email")
	default:
		var ue *identityprovider.UpstreamError
		if errors.As(err, &ue) {
			// The provider's verdict on the token is forwarded as-is.
			writeError(w, r, ue.StatusCode, "IDENTITY_PROVIDER_ERROR", "identity provider rejected the request")
			return
		}
		writeError(w, r, http.StatusInternalServerError, "INTERNAL", "internal error")
	}
}
