package services

import (
	"context"
	"fmt"
	"log/slog"

	"spendwise/internal/amqp"
	"spendwise/internal/analytics"
	"spendwise/internal/core"
	"spendwise/internal/store"
)

// Publisher announces store changes to other processes.
type Publisher interface {
	PublishChange(ctx context.Context, ev *amqp.ChangeEvent) error
}

// StoreStats is the store-side summary served by /api/stats. Potential
// savings cover every stored alternative, not only the latest per expense.
type StoreStats struct {
	Total            core.Money
	Necessary        core.Money
	Unnecessary      core.Money
	PotentialSavings core.Money
	Categories       []core.CategoryAmount
	ExpenseCount     int
}

// ExpenseService orchestrates store operations across the repository and AMQP.
type ExpenseService struct {
	repo      store.Repository
	publisher Publisher
}

// NewExpenseService accepts a nil publisher; change events are then skipped.
func NewExpenseService(repo store.Repository, publisher Publisher) *ExpenseService {
	return &ExpenseService{
		repo:      repo,
		publisher: publisher,
	}
}

func (s *ExpenseService) ListExpenses(ctx context.Context) ([]core.Expense, error) {
	return s.repo.ListExpenses(ctx)
}

func (s *ExpenseService) GetExpense(ctx context.Context, id int64) (core.Expense, error) {
	return s.repo.GetExpense(ctx, id)
}

func (s *ExpenseService) ListAlternatives(ctx context.Context) ([]core.Alternative, error) {
	return s.repo.ListAlternatives(ctx)
}

// CreateExpense saves the expense and publishes a change event.
func (s *ExpenseService) CreateExpense(ctx context.Context, d core.ExpenseDraft) (core.Expense, error) {
	e, err := s.repo.CreateExpense(ctx, d)
	if err != nil {
		return core.Expense{}, fmt.Errorf("save expense: %w", err)
	}
	s.publish(ctx, amqp.NewChangeEvent(amqp.EntityExpense, amqp.ActionCreated, e.ID, 0))
	return e, nil
}

func (s *ExpenseService) UpdateExpense(ctx context.Context, id int64, p core.ExpensePatch) (core.Expense, error) {
	e, err := s.repo.UpdateExpense(ctx, id, p)
	if err != nil {
		return core.Expense{}, fmt.Errorf("update expense: %w", err)
	}
	s.publish(ctx, amqp.NewChangeEvent(amqp.EntityExpense, amqp.ActionUpdated, id, 0))
	return e, nil
}

// DeleteExpense removes the expense with its alternatives.
func (s *ExpenseService) DeleteExpense(ctx context.Context, id int64) error {
	if err := s.repo.DeleteExpense(ctx, id); err != nil {
		return fmt.Errorf("delete expense: %w", err)
	}
	s.publish(ctx, amqp.NewChangeEvent(amqp.EntityExpense, amqp.ActionDeleted, id, 0))
	return nil
}

func (s *ExpenseService) CreateAlternative(ctx context.Context, d core.AlternativeDraft) (core.Alternative, error) {
	a, err := s.repo.CreateAlternative(ctx, d)
	if err != nil {
		return core.Alternative{}, fmt.Errorf("save alternative: %w", err)
	}
	s.publish(ctx, amqp.NewChangeEvent(amqp.EntityAlternative, amqp.ActionCreated, a.ID, a.ExpenseID))
	return a, nil
}

func (s *ExpenseService) DeleteAlternative(ctx context.Context, id int64) error {
	if err := s.repo.DeleteAlternative(ctx, id); err != nil {
		return fmt.Errorf("delete alternative: %w", err)
	}
	s.publish(ctx, amqp.NewChangeEvent(amqp.EntityAlternative, amqp.ActionDeleted, id, 0))
	return nil
}

func (s *ExpenseService) Stats(ctx context.Context) (StoreStats, error) {
	expenses, err := s.repo.ListExpenses(ctx)
	if err != nil {
		return StoreStats{}, err
	}
	alternatives, err := s.repo.ListAlternatives(ctx)
	if err != nil {
		return StoreStats{}, err
	}

	totals := analytics.ComputeStats(expenses)
	savings := core.Zero
	for _, a := range alternatives {
		savings = savings.Add(a.Savings)
	}
	return StoreStats{
		Total:            totals.Total,
		Necessary:        totals.Necessary,
		Unnecessary:      totals.Unnecessary,
		PotentialSavings: savings,
		Categories:       analytics.GroupByCategory(expenses),
		ExpenseCount:     len(expenses),
	}, nil
}

func (s *ExpenseService) publish(ctx context.Context, ev *amqp.ChangeEvent) {
	if s.publisher == nil {
		slog.DebugContext(ctx, "AMQP publisher not available, skipping change event")
		return
	}
	if err := s.publisher.PublishChange(ctx, ev); err != nil {
		slog.ErrorContext(ctx, "Failed to publish change event",
			"entity", ev.Entity,
			"action", ev.Action,
			"id", ev.ID,
			"error", err)
	}
}

// Ping checks the repository when it supports health checks.
func (s *ExpenseService) Ping(ctx context.Context) error {
	if p, ok := s.repo.(interface{ Ping(context.Context) error }); ok {
		return p.Ping(ctx)
	}
	return nil
}

// Close closes the repository.
func (s *ExpenseService) Close() error {
	if s.repo == nil {
		return nil
	}
	if err := s.repo.Close(); err != nil {
		return fmt.Errorf("close repository: %w", err)
	}
	return nil
}
