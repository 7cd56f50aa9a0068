// Package api serves the expense store's JSON API.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"spendwise/internal/core"
	"spendwise/internal/log"
	"spendwise/internal/services"
	"spendwise/internal/store/wire"
)

const requestTimeout = 7 * time.Second

type response map[string]any

// Handler exposes services.ExpenseService over HTTP.
type Handler struct {
	svc    *services.ExpenseService
	logger *log.Logger
}

func NewHandler(svc *services.ExpenseService, logger *log.Logger) *Handler {
	return &Handler{svc: svc, logger: logger.WithComponent(log.ComponentAPI)}
}

func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/expenses", h.listExpenses)
	mux.HandleFunc("POST /api/expenses", h.createExpense)
	mux.HandleFunc("PUT /api/expenses/{id}", h.updateExpense)
	mux.HandleFunc("DELETE /api/expenses/{id}", h.deleteExpense)
	mux.HandleFunc("GET /api/alternatives", h.listAlternatives)
	mux.HandleFunc("POST /api/alternatives", h.createAlternative)
	mux.HandleFunc("DELETE /api/alternatives/{id}", h.deleteAlternative)
	mux.HandleFunc("GET /api/stats", h.stats)
}

func (h *Handler) listExpenses(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	expenses, err := h.svc.ListExpenses(ctx)
	if err != nil {
		h.fail(w, r, err, "")
		return
	}
	out := make([]wire.Expense, 0, len(expenses))
	for _, e := range expenses {
		out = append(out, wire.FromExpense(e))
	}
	writeJSON(w, http.StatusOK, response{"success": true, "expenses": out})
}

func (h *Handler) createExpense(w http.ResponseWriter, r *http.Request) {
	var in expenseInput
	if err := decodeBody(r, &in, expenseRequired...); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	d, err := in.draft()
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	e, err := h.svc.CreateExpense(ctx, d)
	if err != nil {
		h.fail(w, r, err, "")
		return
	}
	log.FromContext(r.Context()).InfoContext(ctx, "Expense created",
		log.NewFields().WithOperation(log.OpCreate).WithExpense(e.ID, e.Description, e.Amount.Fixed(), e.Category.String()).ToSlice()...)
	writeJSON(w, http.StatusCreated, response{
		"success": true,
		"message": "Expense added successfully",
		"expense": wire.FromExpense(e),
	})
}

func (h *Handler) updateExpense(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var in expenseInput
	if err := decodeBody(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	p, err := in.patch()
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	e, err := h.svc.UpdateExpense(ctx, id, p)
	if err != nil {
		h.fail(w, r, err, "Expense not found")
		return
	}
	writeJSON(w, http.StatusOK, response{
		"success": true,
		"message": "Expense updated successfully",
		"expense": wire.FromExpense(e),
	})
}

func (h *Handler) deleteExpense(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	if err := h.svc.DeleteExpense(ctx, id); err != nil {
		h.fail(w, r, err, "Expense not found")
		return
	}
	writeJSON(w, http.StatusOK, response{"success": true, "message": "Expense deleted successfully"})
}

func (h *Handler) listAlternatives(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	alts, err := h.svc.ListAlternatives(ctx)
	if err != nil {
		h.fail(w, r, err, "")
		return
	}
	out := make([]wire.Alternative, 0, len(alts))
	for _, a := range alts {
		out = append(out, wire.FromAlternative(a))
	}
	writeJSON(w, http.StatusOK, response{"success": true, "alternatives": out})
}

func (h *Handler) createAlternative(w http.ResponseWriter, r *http.Request) {
	var in alternativeInput
	if err := decodeBody(r, &in, alternativeRequired...); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	d, err := in.draft()
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	if _, err := h.svc.GetExpense(ctx, d.ExpenseID); err != nil {
		h.fail(w, r, err, "Expense not found")
		return
	}
	a, err := h.svc.CreateAlternative(ctx, d)
	if err != nil {
		h.fail(w, r, err, "Expense not found")
		return
	}
	writeJSON(w, http.StatusCreated, response{
		"success":     true,
		"message":     "Alternative added successfully",
		"alternative": wire.FromAlternative(a),
	})
}

func (h *Handler) deleteAlternative(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	if err := h.svc.DeleteAlternative(ctx, id); err != nil {
		h.fail(w, r, err, "Alternative not found")
		return
	}
	writeJSON(w, http.StatusOK, response{"success": true, "message": "Alternative deleted successfully"})
}

func (h *Handler) stats(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	st, err := h.svc.Stats(ctx)
	if err != nil {
		h.fail(w, r, err, "")
		return
	}
	cats := make(map[string]core.Money, len(st.Categories))
	for _, c := range st.Categories {
		cats[c.Category.String()] = c.Amount
	}
	writeJSON(w, http.StatusOK, response{
		"success": true,
		"stats": wire.Stats{
			Total:            st.Total,
			Necessary:        st.Necessary,
			Unnecessary:      st.Unnecessary,
			PotentialSavings: st.PotentialSavings,
			Categories:       cats,
			ExpenseCount:     st.ExpenseCount,
		},
	})
}

// fail maps service errors to status codes. notFound is the message for
// missing records.
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error, notFound string) {
	switch {
	case errors.Is(err, core.ErrNotFound):
		if notFound == "" {
			notFound = "Not found"
		}
		writeError(w, http.StatusNotFound, notFound)
	case core.IsValidation(err):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		h.logger.ErrorContext(r.Context(), "Store request timed out",
			log.FieldPath, r.URL.Path,
			log.FieldError, err,
			"error_type", log.ErrorTypeTimeout)
		writeError(w, http.StatusGatewayTimeout, "Request timed out")
	default:
		h.logger.ErrorContext(r.Context(), "Store request failed",
			log.FieldMethod, r.Method,
			log.FieldPath, r.URL.Path,
			log.FieldError, err,
			"error_type", log.ErrorTypeDatabase)
		writeError(w, http.StatusInternalServerError, "Internal server error")
	}
}

func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, "Invalid id")
		return 0, false
	}
	return id, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, response{"success": false, "error": msg})
}
