package api

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/xaenox/cash-copilot/internal/models"
)

func (h *Handler) ListSalaries(w http.ResponseWriter, r *http.Request) {
	salaries, err := h.svc.Salaries(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, salaries)
}

func (h *Handler) CreateSalary(w http.ResponseWriter, r *http.Request) {
	var in models.SalaryInput
	if err := decodeJSON(r, &in); err != nil {
		badRequest(w, err)
		return
	}
	v, err := in.Record()
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if err := h.svc.AddSalary(r.Context(), v); err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, v)
}

func (h *Handler) ListBills(w http.ResponseWriter, r *http.Request) {
	bills, err := h.svc.Bills(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, bills)
}

func (h *Handler) CreateBill(w http.ResponseWriter, r *http.Request) {
	var in models.BillInput
	if err := decodeJSON(r, &in); err != nil {
		badRequest(w, err)
		return
	}
	v, err := in.Record()
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if err := h.svc.AddBill(r.Context(), v); err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, v)
}

func (h *Handler) ListReceivables(w http.ResponseWriter, r *http.Request) {
	receivables, err := h.svc.Receivables(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, receivables)
}

func (h *Handler) CreateReceivable(w http.ResponseWriter, r *http.Request) {
	var in models.ReceivableInput
	if err := decodeJSON(r, &in); err != nil {
		badRequest(w, err)
		return
	}
	v, err := in.Record()
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if err := h.svc.AddReceivable(r.Context(), v); err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, v)
}

func (h *Handler) deleteRecord(kind models.RecordKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := mux.Vars(r)["id"]
		if err := h.svc.DeleteRecord(r.Context(), kind, id); err != nil {
			h.writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"message": string(kind) + " deleted successfully"})
	}
}
