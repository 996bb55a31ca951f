package handlers

import (
	"net/http"

	"github.com/isdelr/charsheet-be/internal/auth"
	"github.com/isdelr/charsheet-be/internal/models"
	"github.com/isdelr/charsheet-be/internal/services"
	"github.com/rs/zerolog/hlog"
)

// UserHandler handles HTTP requests for user accounts and sessions.
type UserHandler struct {
	service services.UserServiceProvider
	tokens  *auth.TokenCodec
	cookies auth.CookiePolicy
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(service services.UserServiceProvider, tokens *auth.TokenCodec, cookies auth.CookiePolicy) *UserHandler {
	return &UserHandler{service: service, tokens: tokens, cookies: cookies}
}

// AuthPayload defines the structure for login requests.
type AuthPayload struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// RegisterPayload defines the structure for registration requests.
type RegisterPayload struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Register handles new user registration and starts a session.
func (h *UserHandler) Register(w http.ResponseWriter, r *http.Request) {
	var payload RegisterPayload
	if err := decodeJSON(r, &payload); err != nil {
		writeError(w, r, err)
		return
	}

	user, err := h.service.Register(r.Context(), payload.Name, payload.Email, payload.Password)
	if err != nil {
		hlog.FromRequest(r).Warn().Err(err).Str("email", payload.Email).Msg("Failed to register user")
		writeError(w, r, err)
		return
	}

	// The account is already committed here. Minting only fails for an empty
	// signing key, which config.Validate rejects at startup.
	if !h.startSession(w, r, user) {
		return
	}
	writeJSON(w, http.StatusCreated, user.Identity())
}

// Login handles user authentication and session creation.
func (h *UserHandler) Login(w http.ResponseWriter, r *http.Request) {
	var payload AuthPayload
	if err := decodeJSON(r, &payload); err != nil {
		writeError(w, r, err)
		return
	}

	user, err := h.service.Authenticate(r.Context(), payload.Email, payload.Password)
	if err != nil {
		hlog.FromRequest(r).Warn().Err(err).Str("email", payload.Email).Msg("Failed authentication attempt")
		writeError(w, r, err)
		return
	}

	if !h.startSession(w, r, user) {
		return
	}
	writeJSON(w, http.StatusOK, user.Identity())
}

// Logout clears the session cookie. It always succeeds.
func (h *UserHandler) Logout(w http.ResponseWriter, r *http.Request) {
	h.cookies.Clear(w)
	writeMessage(w, http.StatusOK, "Logged out successfully")
}

// Profile returns the identity resolved from the session.
func (h *UserHandler) Profile(w http.ResponseWriter, r *http.Request) {
	identity, ok := identityFrom(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, identity)
}

func (h *UserHandler) startSession(w http.ResponseWriter, r *http.Request, user models.User) bool {
	token, expires, err := h.tokens.Mint(user.ID)
	if err != nil {
		hlog.FromRequest(r).Error().Err(err).Str("user_id", user.ID).Msg("Failed to generate JWT")
		writeError(w, r, err)
		return false
	}
	h.cookies.Set(w, token, expires)
	return true
}
