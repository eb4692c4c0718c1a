package api

import (
	"errors"
	"io"
	"net/http"

	"github.com/xaenox/cash-copilot/internal/models"
	"github.com/xaenox/cash-copilot/internal/service"
)

func (h *Handler) RunAnalysis(w http.ResponseWriter, r *http.Request) {
	var req service.AnalysisRequest
	// An empty body is an analysis with zero cash
	if err := decodeJSON(r, &req); err != nil && !errors.Is(err, io.EOF) {
		badRequest(w, err)
		return
	}

	snapshot, err := h.svc.RunAnalysis(r.Context(), req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, snapshot)
}

func (h *Handler) ListAnalyses(w http.ResponseWriter, r *http.Request) {
	analyses, err := h.svc.Analyses(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, analyses)
}

func (h *Handler) LatestAnalysis(w http.ResponseWriter, r *http.Request) {
	latest, err := h.svc.LatestAnalysis(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if latest == nil {
		writeJSON(w, http.StatusOK, struct{}{})
		return
	}
	writeJSON(w, http.StatusOK, latest)
}

func (h *Handler) ListMemory(w http.ResponseWriter, r *http.Request) {
	entries, err := h.svc.Memory(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

func (h *Handler) CreateMemory(w http.ResponseWriter, r *http.Request) {
	var e models.MemoryEntry
	if err := decodeJSON(r, &e); err != nil {
		badRequest(w, err)
		return
	}
	if err := h.svc.AddMemory(r.Context(), &e); err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, e)
}

func (h *Handler) MemoryStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.svc.MemoryStats(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (h *Handler) Alerts(w http.ResponseWriter, r *http.Request) {
	alerts, err := h.svc.Alerts(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, alerts)
}

func (h *Handler) Clients(w http.ResponseWriter, r *http.Request) {
	clients, err := h.svc.Clients(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, clients)
}
