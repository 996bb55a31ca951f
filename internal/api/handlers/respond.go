package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/isdelr/charsheet-be/internal/auth"
	"github.com/isdelr/charsheet-be/internal/common"
	"github.com/isdelr/charsheet-be/internal/models"
	"github.com/rs/zerolog/hlog"
)

// messageResponse is the body of every error and acknowledgement.
type messageResponse struct {
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeMessage(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, messageResponse{Message: msg})
}

// writeError maps the error taxonomy to a status code. Anything unclassified
// becomes a 500 whose detail only reaches the log.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	logger := hlog.FromRequest(r)

	var status int
	var msg string
	switch {
	case errors.Is(err, common.ErrValidation):
		status, msg = http.StatusBadRequest, clientMessage(err)
	case errors.Is(err, common.ErrDuplicateUser):
		status, msg = http.StatusBadRequest, "User already exists"
	case errors.Is(err, common.ErrMaxLevelReached):
		status, msg = http.StatusBadRequest, "Character is already at max level"
	case errors.Is(err, common.ErrInvalidCredentials):
		status, msg = http.StatusUnauthorized, "Invalid email or password"
	case errors.Is(err, common.ErrUnauthenticated):
		status, msg = http.StatusUnauthorized, "Not authorized"
	case errors.Is(err, common.ErrForbidden):
		status, msg = http.StatusForbidden, "Not authorized to access this character"
	case errors.Is(err, common.ErrNotFound):
		status, msg = http.StatusNotFound, "Character not found"
	default:
		logger.Error().Err(err).Str("path", r.URL.Path).Msg("Unhandled error")
		writeMessage(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	logger.Debug().Err(err).Int("status", status).Msg("Request failed")
	writeMessage(w, status, msg)
}

// clientMessage strips the sentinel prefix from a validation error so the
// client sees only the detail, e.g. "missing required fields: name".
func clientMessage(err error) string {
	msg := err.Error()
	if detail, ok := strings.CutPrefix(msg, common.ErrValidation.Error()+": "); ok {
		return detail
	}
	return msg
}

// decodeJSON decodes the request body into v, reporting malformed bodies as
// validation errors.
func decodeJSON(r *http.Request, v interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return fmt.Errorf("%w: invalid request body", common.ErrValidation)
	}
	return nil
}

// identityFrom returns the identity resolved by the auth middleware.
func identityFrom(w http.ResponseWriter, r *http.Request) (models.Identity, bool) {
	identity, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		hlog.FromRequest(r).Error().Msg("Could not retrieve identity from context")
		writeError(w, r, common.ErrUnauthenticated)
		return models.Identity{}, false
	}
	return identity, true
}
