package handlers

import (
	"net/http"

	"github.com/oggyb/elite-matchmaking/internal/db"
	"github.com/oggyb/elite-matchmaking/internal/service/explore"
	"github.com/oggyb/elite-matchmaking/internal/viewer"
)

// DiscoverHandler serves the candidate feed and swipes.
type DiscoverHandler struct {
	explore *explore.Service
}

func NewDiscoverHandler(svc *explore.Service) *DiscoverHandler {
	return &DiscoverHandler{explore: svc}
}

type decisionRequest struct {
	TargetID  string `json:"target_id"`
	Direction string `json:"direction"`
}

func (h *DiscoverHandler) Candidates(w http.ResponseWriter, r *http.Request) {
	ps, err := h.explore.Candidates(r.Context(), viewer.FromContext(r.Context()))
	if err != nil {
		respondError(w, r, err)
		return
	}
	if ps == nil {
		ps = []db.Profile{}
	}
	respondJSON(w, http.StatusOK, map[string]any{"profiles": ps})
}

func (h *DiscoverHandler) Decide(w http.ResponseWriter, r *http.Request) {
	var req decisionRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	res, err := h.explore.Decide(r.Context(), viewer.FromContext(r.Context()), req.TargetID, req.Direction)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, res)
}

// Reset is "Start Over": the caller's decisions are forgotten.
func (h *DiscoverHandler) Reset(w http.ResponseWriter, r *http.Request) {
	n, err := h.explore.Reset(r.Context(), viewer.FromContext(r.Context()))
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]int{"deleted": n})
}
