package services

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"spendwise/internal/core"
	"spendwise/internal/state"
	"spendwise/internal/store"
)

// DashboardService performs the dashboard's mutations: write to the store,
// then refresh the in-memory state. Each mutation target admits one request
// at a time; a duplicate gets state.ErrPending.
type DashboardService struct {
	store store.Store
	state *state.AppState
	guard *state.PendingGuard
}

func NewDashboardService(st store.Store, app *state.AppState) *DashboardService {
	return &DashboardService{
		store: st,
		state: app,
		guard: state.NewPendingGuard(),
	}
}

func (s *DashboardService) Snapshot() state.Snapshot {
	return s.state.Snapshot()
}

// Reload re-reads both collections, joining a load already in flight.
// Failures degrade to empty collections and are only logged.
func (s *DashboardService) Reload(ctx context.Context) state.Snapshot {
	snap, err := s.state.Reload(ctx)
	if err != nil {
		slog.WarnContext(ctx, "Reload completed with errors", "version", snap.Version, "error", err)
	}
	return snap
}

// Refresh re-reads both collections after the store is known to have
// changed. It starts a new load instead of joining one that may have read
// the store before the change.
func (s *DashboardService) Refresh(ctx context.Context) state.Snapshot {
	snap, err := s.state.Refresh(ctx)
	if err != nil {
		slog.WarnContext(ctx, "Refresh completed with errors", "version", snap.Version, "error", err)
	}
	return snap
}

func (s *DashboardService) CreateExpense(ctx context.Context, d core.ExpenseDraft) error {
	return s.mutate(ctx, "expense:create", func() error {
		if _, err := s.store.CreateExpense(ctx, d); err != nil {
			return fmt.Errorf("create expense: %w", err)
		}
		return nil
	})
}

func (s *DashboardService) DeleteExpense(ctx context.Context, id int64) error {
	return s.mutate(ctx, "expense:delete:"+strconv.FormatInt(id, 10), func() error {
		if err := s.store.DeleteExpense(ctx, id); err != nil {
			return fmt.Errorf("delete expense %d: %w", id, err)
		}
		return nil
	})
}

func (s *DashboardService) CreateAlternative(ctx context.Context, d core.AlternativeDraft) error {
	return s.mutate(ctx, "alternative:create:"+strconv.FormatInt(d.ExpenseID, 10), func() error {
		if _, err := s.store.CreateAlternative(ctx, d); err != nil {
			return fmt.Errorf("create alternative: %w", err)
		}
		return nil
	})
}

func (s *DashboardService) DeleteAlternative(ctx context.Context, id int64) error {
	return s.mutate(ctx, "alternative:delete:"+strconv.FormatInt(id, 10), func() error {
		if err := s.store.DeleteAlternative(ctx, id); err != nil {
			return fmt.Errorf("delete alternative %d: %w", id, err)
		}
		return nil
	})
}

// mutate runs write under the guard for key and refreshes state on success.
// A failed refresh does not fail the mutation.
func (s *DashboardService) mutate(ctx context.Context, key string, write func() error) error {
	release, err := s.guard.TryAcquire(key)
	if err != nil {
		return err
	}
	defer release()

	if err := write(); err != nil {
		return err
	}
	if snap, err := s.state.Refresh(ctx); err != nil {
		slog.WarnContext(ctx, "Refresh after write completed with errors", "key", key, "version", snap.Version, "error", err)
	}
	return nil
}
