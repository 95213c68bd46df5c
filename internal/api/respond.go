package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/dharsanguruparan/careplanner/internal/attachments"
	"github.com/dharsanguruparan/careplanner/internal/model"
	"github.com/dharsanguruparan/careplanner/internal/repository"
	"github.com/dharsanguruparan/careplanner/internal/signing"
	"github.com/dharsanguruparan/careplanner/internal/storage"
)

type errorBody struct {
	Error string `json:"error"`
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.log.WithError(err).Warn("encode response")
	}
}

func (s *Server) respondError(w http.ResponseWriter, err error) {
	s.respondJSON(w, statusFor(err), errorBody{Error: err.Error()})
}

// statusFor maps domain errors onto HTTP statuses. Anything unrecognised came
// from the index or the object store and is reported as a bad gateway.
func statusFor(err error) int {
	switch {
	case errors.Is(err, model.ErrUnknownOwnerKind),
		errors.Is(err, model.ErrEmptyOwnerID),
		errors.Is(err, attachments.ErrNoFile),
		errors.Is(err, attachments.ErrInvalidName),
		errors.Is(err, signing.ErrMalformed):
		return http.StatusBadRequest
	case errors.Is(err, signing.ErrBadSignature),
		errors.Is(err, signing.ErrExpired):
		return http.StatusForbidden
	case errors.Is(err, repository.ErrNotFound),
		errors.Is(err, storage.ErrObjectNotFound):
		return http.StatusNotFound
	case errors.Is(err, storage.ErrObjectExists):
		return http.StatusConflict
	case errors.Is(err, attachments.ErrTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, attachments.ErrTypeNotAllowed):
		return http.StatusUnsupportedMediaType
	default:
		return http.StatusBadGateway
	}
}
