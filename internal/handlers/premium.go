package handlers

import (
	"net/http"

	"github.com/oggyb/elite-matchmaking/internal/service/premium"
	"github.com/oggyb/elite-matchmaking/internal/viewer"
)

// PremiumHandler serves the membership offer and checkout.
type PremiumHandler struct {
	premium *premium.Service
}

func NewPremiumHandler(svc *premium.Service) *PremiumHandler {
	return &PremiumHandler{premium: svc}
}

func (h *PremiumHandler) Offer(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.premium.Offer(viewer.FromContext(r.Context())))
}

func (h *PremiumHandler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	c, err := h.premium.CreateOrder(r.Context(), viewer.FromContext(r.Context()))
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, c)
}

func (h *PremiumHandler) Confirm(w http.ResponseWriter, r *http.Request) {
	var in premium.ConfirmInput
	if err := decodeJSON(r, &in); err != nil {
		respondError(w, r, err)
		return
	}
	o, err := h.premium.Confirm(r.Context(), viewer.FromContext(r.Context()), in)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, o)
}
