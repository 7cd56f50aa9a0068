package services

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"spendwise/internal/core"
	"spendwise/internal/state"
	"spendwise/internal/store"
	"spendwise/internal/store/memory"
)

// blockingStore holds CreateExpense until release is closed.
type blockingStore struct {
	store.Store
	entered chan struct{}
	release chan struct{}
	fail    error
}

func (b *blockingStore) CreateExpense(ctx context.Context, d core.ExpenseDraft) (core.Expense, error) {
	b.entered <- struct{}{}
	<-b.release
	if b.fail != nil {
		return core.Expense{}, b.fail
	}
	return b.Store.CreateExpense(ctx, d)
}

// slowFirstList holds the first ListExpenses call after it has read the store.
type slowFirstList struct {
	store.Store
	calls   atomic.Int32
	release chan struct{}
}

func (s *slowFirstList) ListExpenses(ctx context.Context) ([]core.Expense, error) {
	list, err := s.Store.ListExpenses(ctx)
	if s.calls.Add(1) == 1 {
		<-s.release
	}
	return list, err
}

func newDashboard(st store.Store) *DashboardService {
	return NewDashboardService(st, state.New(st, time.Second))
}

func TestDashboardService_CreateRefreshesState(t *testing.T) {
	ctx := context.Background()
	svc := newDashboard(memory.New())

	require.NoError(t, svc.CreateExpense(ctx, lunch()))
	snap := svc.Snapshot()
	require.Len(t, snap.Expenses, 1)
	assert.Equal(t, uint64(1), snap.Version)

	id := snap.Expenses[0].ID
	require.NoError(t, svc.CreateAlternative(ctx, core.AlternativeDraft{ExpenseID: id, Suggestion: "Pack lunch", Savings: core.MoneyFromCents(800)}))
	snap = svc.Snapshot()
	require.NotNil(t, snap.Expenses[0].Alternative)
	assert.Len(t, snap.Alternatives, 1)

	require.NoError(t, svc.DeleteAlternative(ctx, snap.Alternatives[0].ID))
	require.NoError(t, svc.DeleteExpense(ctx, id))
	snap = svc.Snapshot()
	assert.Empty(t, snap.Expenses)
	assert.Empty(t, snap.Alternatives)
}

func TestDashboardService_WriteFailureLeavesStateAlone(t *testing.T) {
	svc := newDashboard(memory.New())

	err := svc.DeleteExpense(context.Background(), 5)
	assert.ErrorIs(t, err, core.ErrNotFound)
	assert.Zero(t, svc.Snapshot().Version)
}

func TestDashboardService_DuplicateSubmissionIsRejected(t *testing.T) {
	bs := &blockingStore{Store: memory.New(), entered: make(chan struct{}, 1), release: make(chan struct{})}
	svc := newDashboard(bs)

	done := make(chan error, 1)
	go func() { done <- svc.CreateExpense(context.Background(), lunch()) }()
	<-bs.entered

	err := svc.CreateExpense(context.Background(), lunch())
	assert.ErrorIs(t, err, state.ErrPending)

	close(bs.release)
	require.NoError(t, <-done)
	assert.Len(t, svc.Snapshot().Expenses, 1)

	bs.release = make(chan struct{})
	close(bs.release)
	bs.fail = errors.New("store down")
	err = svc.CreateExpense(context.Background(), lunch())
	assert.ErrorContains(t, err, "store down")
	<-bs.entered
}

func TestDashboardService_ReloadDegrades(t *testing.T) {
	svc := newDashboard(memory.New())
	snap := svc.Reload(context.Background())
	assert.Equal(t, uint64(1), snap.Version)
	assert.Empty(t, snap.Expenses)
}

func TestDashboardService_RefreshSeesChangeDuringLoad(t *testing.T) {
	ctx := context.Background()
	mem := memory.New()
	st := &slowFirstList{Store: mem, release: make(chan struct{})}
	svc := newDashboard(st)

	done := make(chan state.Snapshot, 1)
	go func() { done <- svc.Reload(ctx) }()
	require.Eventually(t, func() bool { return st.calls.Load() == 1 }, time.Second, 5*time.Millisecond)

	// Written by another process; the dashboard only hears about it.
	_, err := mem.CreateExpense(ctx, lunch())
	require.NoError(t, err)

	snap := svc.Refresh(ctx)
	assert.Len(t, snap.Expenses, 1)

	close(st.release)
	<-done
	assert.Len(t, svc.Snapshot().Expenses, 1)
	assert.Equal(t, snap.Version, svc.Snapshot().Version)
}
