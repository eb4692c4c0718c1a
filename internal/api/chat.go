package api

import (
	"net/http"
)

type chatRequest struct {
	Message   string `json:"message"`
	SessionID string `json:"sessionId"`
}

func (h *Handler) Chat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := decodeJSON(r, &req); err != nil {
		badRequest(w, err)
		return
	}

	reply, err := h.svc.Chat(r.Context(), req.SessionID, req.Message)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, reply)
}

func (h *Handler) ChatHistory(w http.ResponseWriter, r *http.Request) {
	history, err := h.svc.ChatHistory(r.Context(), r.URL.Query().Get("sessionId"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, history)
}

func (h *Handler) ClearChat(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.ClearChat(r.Context(), r.URL.Query().Get("sessionId")); err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "History cleared"})
}
