package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/xaenox/cash-copilot/internal/models"
	"github.com/xaenox/cash-copilot/internal/service"
	"github.com/xaenox/cash-copilot/internal/storage"
	"go.uber.org/zap"
)

// maxBodyBytes bounds every request body
const maxBodyBytes = 1 << 20

type Handler struct {
	svc    *service.Service
	logger *zap.Logger
}

func NewHandler(svc *service.Service, logger *zap.Logger) *Handler {
	return &Handler{svc: svc, logger: logger}
}

// Router registers every route of the HTTP API
func (h *Handler) Router() *mux.Router {
	r := mux.NewRouter()
	r.Use(h.logRequests, h.recoverPanics)

	r.HandleFunc("/health", h.Health).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	api := r.PathPrefix("/api").Subrouter()

	api.HandleFunc("/salaries", h.ListSalaries).Methods(http.MethodGet)
	api.HandleFunc("/salaries", h.CreateSalary).Methods(http.MethodPost)
	api.HandleFunc("/salaries/{id}", h.deleteRecord(models.KindSalary)).Methods(http.MethodDelete)

	api.HandleFunc("/bills", h.ListBills).Methods(http.MethodGet)
	api.HandleFunc("/bills", h.CreateBill).Methods(http.MethodPost)
	api.HandleFunc("/bills/{id}", h.deleteRecord(models.KindBill)).Methods(http.MethodDelete)

	api.HandleFunc("/receivables", h.ListReceivables).Methods(http.MethodGet)
	api.HandleFunc("/receivables", h.CreateReceivable).Methods(http.MethodPost)
	api.HandleFunc("/receivables/{id}", h.deleteRecord(models.KindReceivable)).Methods(http.MethodDelete)

	api.HandleFunc("/run-analysis", h.RunAnalysis).Methods(http.MethodPost)
	api.HandleFunc("/analysis-results", h.ListAnalyses).Methods(http.MethodGet)
	api.HandleFunc("/analysis-results/latest", h.LatestAnalysis).Methods(http.MethodGet)

	api.HandleFunc("/memory", h.ListMemory).Methods(http.MethodGet)
	api.HandleFunc("/memory", h.CreateMemory).Methods(http.MethodPost)
	api.HandleFunc("/memory/stats", h.MemoryStats).Methods(http.MethodGet)

	api.HandleFunc("/alerts", h.Alerts).Methods(http.MethodGet)
	api.HandleFunc("/clients", h.Clients).Methods(http.MethodGet)

	api.HandleFunc("/chat", h.Chat).Methods(http.MethodPost)
	api.HandleFunc("/chat/history", h.ChatHistory).Methods(http.MethodGet)
	api.HandleFunc("/chat/history", h.ClearChat).Methods(http.MethodDelete)

	return r
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "active", "system": "cash-copilot"})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

func (h *Handler) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		h.logger.Debug("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", rec.status),
			zap.Duration("elapsed", time.Since(start)))
	})
}

// recoverPanics answers a handler panic with a 500 and logs the stack
func (h *Handler) recoverPanics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			if rec == http.ErrAbortHandler {
				panic(rec)
			}
			h.logger.Error("Handler panicked",
				zap.Any("panic", rec),
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Stack("stack"))
			writeJSON(w, http.StatusInternalServerError, errorResponse{
				Error:  "internal error",
				Detail: fmt.Sprint(rec),
			})
		}()
		next.ServeHTTP(w, r)
	})
}

func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(nil, r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

type errorResponse struct {
	Error  string   `json:"error"`
	Detail string   `json:"detail,omitempty"`
	Fields []string `json:"fields,omitempty"`
}

// writeError maps service errors onto status codes. Anything unrecognised is a 500.
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *models.ValidationError
	switch {
	case errors.As(err, &verr):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: verr.Error(), Fields: verr.Fields})
	case errors.Is(err, storage.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorResponse{Error: err.Error()})
	case errors.Is(err, service.ErrEmptyMessage):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
	case errors.Is(err, service.ErrAssistantUnavailable):
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: err.Error()})
	default:
		h.logger.Error("Request failed",
			zap.Error(err),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path))
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error", Detail: err.Error()})
	}
}

func badRequest(w http.ResponseWriter, err error) {
	writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
}
