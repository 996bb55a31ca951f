package handlers

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/isdelr/charsheet-be/internal/common"
	"github.com/isdelr/charsheet-be/internal/models"
	"github.com/isdelr/charsheet-be/internal/services"
)

// CharacterHandler handles HTTP requests related to characters.
type CharacterHandler struct {
	service services.CharacterServiceProvider
}

// NewCharacterHandler creates a new CharacterHandler.
func NewCharacterHandler(service services.CharacterServiceProvider) *CharacterHandler {
	return &CharacterHandler{service: service}
}

// LevelUpPayload carries the client's hit point roll.
type LevelUpPayload struct {
	HPRoll *int `json:"hpRoll"`
}

// Create handles the request to create a new character.
func (h *CharacterHandler) Create(w http.ResponseWriter, r *http.Request) {
	identity, ok := identityFrom(w, r)
	if !ok {
		return
	}

	var payload models.NewCharacter
	if err := decodeJSON(r, &payload); err != nil {
		writeError(w, r, err)
		return
	}

	character, err := h.service.CreateCharacter(r.Context(), identity, payload)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, character)
}

// GetAll handles the request to list the caller's characters.
func (h *CharacterHandler) GetAll(w http.ResponseWriter, r *http.Request) {
	identity, ok := identityFrom(w, r)
	if !ok {
		return
	}

	characters, err := h.service.GetCharactersForUser(r.Context(), identity)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, characters)
}

// Get handles the request to get a single character by its ID.
func (h *CharacterHandler) Get(w http.ResponseWriter, r *http.Request) {
	identity, ok := identityFrom(w, r)
	if !ok {
		return
	}

	character, err := h.service.GetCharacter(r.Context(), identity, chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, character)
}

// Update handles the request to update an existing character.
func (h *CharacterHandler) Update(w http.ResponseWriter, r *http.Request) {
	identity, ok := identityFrom(w, r)
	if !ok {
		return
	}

	var patch models.CharacterPatch
	if err := decodeJSON(r, &patch); err != nil {
		writeError(w, r, err)
		return
	}

	character, err := h.service.UpdateCharacter(r.Context(), identity, chi.URLParam(r, "id"), patch)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, character)
}

// Delete handles the request to delete a character.
func (h *CharacterHandler) Delete(w http.ResponseWriter, r *http.Request) {
	identity, ok := identityFrom(w, r)
	if !ok {
		return
	}

	if err := h.service.DeleteCharacter(r.Context(), identity, chi.URLParam(r, "id")); err != nil {
		writeError(w, r, err)
		return
	}
	writeMessage(w, http.StatusOK, "Character removed")
}

// LevelUp handles the request to advance a character by one level.
func (h *CharacterHandler) LevelUp(w http.ResponseWriter, r *http.Request) {
	identity, ok := identityFrom(w, r)
	if !ok {
		return
	}

	var payload LevelUpPayload
	if err := decodeJSON(r, &payload); err != nil {
		writeError(w, r, err)
		return
	}
	if payload.HPRoll == nil {
		writeError(w, r, fmt.Errorf("%w: hpRoll is required", common.ErrValidation))
		return
	}

	character, err := h.service.LevelUpCharacter(r.Context(), identity, chi.URLParam(r, "id"), *payload.HPRoll)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, character)
}
