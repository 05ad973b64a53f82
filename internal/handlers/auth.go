package handlers

import (
	"net/http"
	"time"

	"github.com/oggyb/elite-matchmaking/internal/db"
	"github.com/oggyb/elite-matchmaking/internal/service/session"
	"github.com/oggyb/elite-matchmaking/internal/viewer"
)

// AuthHandler serves sign-in, session lookup and the routing gate.
type AuthHandler struct {
	sessions *session.Service
}

func NewAuthHandler(sessions *session.Service) *AuthHandler {
	return &AuthHandler{sessions: sessions}
}

type magicLinkRequest struct {
	Email      string `json:"email"`
	RedirectTo string `json:"redirect_to"`
}

type callbackRequest struct {
	Token string `json:"token"`
}

type gateResponse struct {
	Gate string `json:"gate"`
}

type sessionResponse struct {
	Gate      string      `json:"gate"`
	Account   db.Account  `json:"account"`
	Profile   *db.Profile `json:"profile"`
	ExpiresAt time.Time   `json:"expires_at"`
}

// Gate reports where the caller belongs: login, onboarding or app.
func (h *AuthHandler) Gate(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, gateResponse{Gate: viewer.Gate(viewer.FromContext(r.Context()))})
}

func (h *AuthHandler) RequestMagicLink(w http.ResponseWriter, r *http.Request) {
	var req magicLinkRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	if err := h.sessions.RequestLink(r.Context(), req.Email, req.RedirectTo); err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusAccepted, map[string]bool{"sent": true})
}

func (h *AuthHandler) Callback(w http.ResponseWriter, r *http.Request) {
	var req callbackRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	s, err := h.sessions.Callback(r.Context(), req.Token)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, s)
}

func (h *AuthHandler) Session(w http.ResponseWriter, r *http.Request) {
	v := viewer.FromContext(r.Context())
	resp := sessionResponse{
		Gate:    viewer.Gate(v),
		Account: v.Account,
		Profile: v.Profile,
	}
	if v.Claims != nil && v.Claims.ExpiresAt != nil {
		resp.ExpiresAt = v.Claims.ExpiresAt.Time
	}
	respondJSON(w, http.StatusOK, resp)
}

func (h *AuthHandler) SignOut(w http.ResponseWriter, r *http.Request) {
	if err := h.sessions.SignOut(r.Context(), viewer.FromContext(r.Context())); err != nil {
		respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
