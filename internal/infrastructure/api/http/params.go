package http

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/Gimbo67/evokeessence-crypto-exchange-sub002/internal/errors"
)

// URL parameter names shared by routers and handlers.
const (
	IDParam    = "id"
	AssetParam = "asset"
)

// IDFromURL returns the {id} parameter. Ids that are not UUIDs cannot exist,
// so they are reported as not found for resource.
func IDFromURL(r *http.Request, resource string) (string, error) {
	id := chi.URLParam(r, IDParam)
	if _, err := uuid.Parse(id); err != nil {
		return "", errors.NewNotFoundError(resource, id)
	}
	return id, nil
}

// DecodeJSON decodes the request body into dst.
func DecodeJSON(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return errors.NewBadRequestError(errors.ErrInvalidRequestBody)
	}
	return nil
}

// WriteJSON writes v with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
