package handlers

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	svcErr "github.com/oggyb/elite-matchmaking/internal/errors"
	"github.com/oggyb/elite-matchmaking/internal/service/chat"
	"github.com/oggyb/elite-matchmaking/internal/viewer"
)

// ChatHandler serves conversations and messages.
type ChatHandler struct {
	chat *chat.Service
}

func NewChatHandler(svc *chat.Service) *ChatHandler {
	return &ChatHandler{chat: svc}
}

type sendRequest struct {
	Content  string `json:"content"`
	ClientID string `json:"client_id"`
}

func (h *ChatHandler) Conversations(w http.ResponseWriter, r *http.Request) {
	convs, err := h.chat.Conversations(r.Context(), viewer.FromContext(r.Context()))
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"conversations": convs})
}

func (h *ChatHandler) Messages(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	var after *string
	if s := q.Get("after"); s != "" {
		after = &s
	}
	limit := 0
	if s := q.Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil {
			respondError(w, r, svcErr.InvalidArgument("limit must be a number"))
			return
		}
		limit = n
	}

	page, err := h.chat.Messages(r.Context(), viewer.FromContext(r.Context()), chi.URLParam(r, "id"), after, limit)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, page)
}

func (h *ChatHandler) Send(w http.ResponseWriter, r *http.Request) {
	var req sendRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	msg, err := h.chat.Send(r.Context(), viewer.FromContext(r.Context()), chi.URLParam(r, "id"), req.Content, req.ClientID)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, msg)
}

func (h *ChatHandler) Attachment(w http.ResponseWriter, r *http.Request) {
	var req uploadRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	up, err := h.chat.PresignAttachment(r.Context(), viewer.FromContext(r.Context()), chi.URLParam(r, "id"), req.ContentType)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, up)
}
