package handlers

import (
	"net/http"

	"github.com/oggyb/elite-matchmaking/internal/service/profile"
	"github.com/oggyb/elite-matchmaking/internal/viewer"
)

// ProfileHandler serves onboarding and the caller's profile page.
type ProfileHandler struct {
	profiles *profile.Service
}

func NewProfileHandler(profiles *profile.Service) *ProfileHandler {
	return &ProfileHandler{profiles: profiles}
}

type uploadRequest struct {
	ContentType string `json:"content_type"`
}

func (h *ProfileHandler) Countries(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.profiles.Countries())
}

func (h *ProfileHandler) Create(w http.ResponseWriter, r *http.Request) {
	var in profile.CreateInput
	if err := decodeJSON(r, &in); err != nil {
		respondError(w, r, err)
		return
	}
	p, err := h.profiles.Create(r.Context(), viewer.FromContext(r.Context()), in)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, p)
}

func (h *ProfileHandler) Get(w http.ResponseWriter, r *http.Request) {
	o, err := h.profiles.Get(r.Context(), viewer.FromContext(r.Context()))
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, o)
}

func (h *ProfileHandler) PhotoUpload(w http.ResponseWriter, r *http.Request) {
	var req uploadRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	up, err := h.profiles.PresignPhoto(r.Context(), viewer.FromContext(r.Context()), req.ContentType)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, up)
}
