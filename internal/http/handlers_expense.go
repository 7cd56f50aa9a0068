package http

import (
	"context"
	"errors"
	"net/http"
	"time"

	"spendwise/internal/core"
	"spendwise/internal/log"
	"spendwise/internal/state"
)

// Store writes get longer than page renders: a write plus the reload after it.
const mutationTimeout = 15 * time.Second

const (
	msgExpenseAdded       = "Expense added successfully!"
	msgExpenseAddFailed   = "Error adding expense"
	msgExpenseDeleted     = "Expense deleted successfully!"
	msgExpenseDeleteFail  = "Error deleting expense"
	msgAlternativeAdded   = "Alternative added successfully!"
	msgAlternativeFailed  = "Error adding alternative"
	msgAlternativeDeleted = "Alternative deleted successfully!"
	msgAlternativeDelFail = "Error deleting alternative"
	msgPending            = "Request already in progress"
	msgRefreshed          = "Data refreshed"
)

func (s *Server) handleCreateExpense(w http.ResponseWriter, r *http.Request) {
	logger := log.FromContext(r.Context())
	p := NewRequestBodyParser(r)
	if err := p.Parse(); err != nil {
		BadRequestError("Invalid request format").Write(w)
		return
	}
	d, err := ParseExpenseDraft(p)
	if err != nil {
		logger.WarnContext(r.Context(), "Rejected expense form",
			log.FieldError, err,
			"error_type", log.ErrorTypeValidation)
		UnprocessableEntityError("Invalid data: " + err.Error()).Write(w)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), mutationTimeout)
	defer cancel()

	if err := s.svc.CreateExpense(ctx, d); err != nil {
		s.mutationFailed(w, r, err, msgExpenseAddFailed, "")
		return
	}
	s.appMetrics.mutations.Add(1)
	logger.InfoContext(ctx, "Expense created",
		log.FieldOperation, log.OpCreate,
		log.FieldDescription, d.Description,
		log.FieldAmount, d.Amount.Fixed(),
		log.FieldCategory, d.Category.String())

	NewHTMXResponse().
		Status(http.StatusCreated).
		TriggerExpensesChanged(s.svc.Snapshot().Version).
		TriggerFormReset().
		TriggerModalClose().
		TriggerSuccessNotification(msgExpenseAdded).
		Write(w)
}

func (s *Server) handleDeleteExpense(w http.ResponseWriter, r *http.Request) {
	id, err := PathID(r)
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), mutationTimeout)
	defer cancel()

	if err := s.svc.DeleteExpense(ctx, id); err != nil {
		s.mutationFailed(w, r, err, msgExpenseDeleteFail, "Expense not found")
		return
	}
	s.appMetrics.mutations.Add(1)
	log.FromContext(ctx).InfoContext(ctx, "Expense deleted",
		log.FieldOperation, log.OpDelete,
		log.FieldExpenseID, id)

	NewHTMXResponse().
		TriggerExpensesChanged(s.svc.Snapshot().Version).
		TriggerSuccessNotification(msgExpenseDeleted).
		Write(w)
}

// handleCreateAlternative switches the browser to the alternatives view on
// success.
func (s *Server) handleCreateAlternative(w http.ResponseWriter, r *http.Request) {
	p := NewRequestBodyParser(r)
	if err := p.Parse(); err != nil {
		BadRequestError("Invalid request format").Write(w)
		return
	}
	d, err := ParseAlternativeDraft(p)
	if err != nil {
		UnprocessableEntityError("Invalid data: " + err.Error()).Write(w)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), mutationTimeout)
	defer cancel()

	if err := s.svc.CreateAlternative(ctx, d); err != nil {
		s.mutationFailed(w, r, err, msgAlternativeFailed, "Expense not found")
		return
	}
	s.appMetrics.mutations.Add(1)
	log.FromContext(ctx).InfoContext(ctx, "Alternative created",
		log.FieldOperation, log.OpCreate,
		log.FieldExpenseID, d.ExpenseID)

	NewHTMXResponse().
		Status(http.StatusCreated).
		TriggerExpensesChanged(s.svc.Snapshot().Version).
		TriggerModalClose().
		TriggerSuccessNotification(msgAlternativeAdded).
		Redirect("/alternatives").
		Write(w)
}

func (s *Server) handleDeleteAlternative(w http.ResponseWriter, r *http.Request) {
	id, err := PathID(r)
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), mutationTimeout)
	defer cancel()

	if err := s.svc.DeleteAlternative(ctx, id); err != nil {
		s.mutationFailed(w, r, err, msgAlternativeDelFail, "Alternative not found")
		return
	}
	s.appMetrics.mutations.Add(1)
	log.FromContext(ctx).InfoContext(ctx, "Alternative deleted",
		log.FieldOperation, log.OpDelete,
		log.FieldAlternativeID, id)

	NewHTMXResponse().
		TriggerExpensesChanged(s.svc.Snapshot().Version).
		TriggerSuccessNotification(msgAlternativeDeleted).
		Write(w)
}

// handleRefresh re-reads both collections from the store.
func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), mutationTimeout)
	defer cancel()

	snap := s.svc.Refresh(ctx)
	NewHTMXResponse().
		TriggerExpensesChanged(snap.Version).
		TriggerNotification(NotificationInfo, msgRefreshed, 2000).
		Write(w)
}

// mutationFailed maps a write error to a response. Nothing was changed
// locally, so there is nothing to roll back.
func (s *Server) mutationFailed(w http.ResponseWriter, r *http.Request, err error, failMsg, notFoundMsg string) {
	logger := log.FromContext(r.Context())
	switch {
	case errors.Is(err, state.ErrPending):
		s.appMetrics.conflicts.Add(1)
		logger.InfoContext(r.Context(), "Duplicate write rejected",
			log.FieldPath, r.URL.Path,
			"error_type", log.ErrorTypeConflict)
		ConflictError(msgPending).Write(w)
	case notFoundMsg != "" && errors.Is(err, core.ErrNotFound):
		s.appMetrics.failures.Add(1)
		NotFoundError(notFoundMsg).Write(w)
	case core.IsValidation(err):
		s.appMetrics.failures.Add(1)
		UnprocessableEntityError("Invalid data: " + err.Error()).Write(w)
	default:
		s.appMetrics.failures.Add(1)
		logger.ErrorContext(r.Context(), "Store write failed",
			log.FieldMethod, r.Method,
			log.FieldPath, r.URL.Path,
			log.FieldError, err,
			"error_type", log.ErrorTypeNetwork)
		InternalServerError(failMsg).Write(w)
	}
}
