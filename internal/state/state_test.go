package state

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"spendwise/internal/core"
)

type fakeSource struct {
	expenses     []core.Expense
	alternatives []core.Alternative
	expErr       error
	altErr       error
	calls        atomic.Int32
	gate         chan struct{}
}

func (f *fakeSource) ListExpenses(ctx context.Context) ([]core.Expense, error) {
	f.calls.Add(1)
	if f.gate != nil {
		<-f.gate
	}
	return f.expenses, f.expErr
}

func (f *fakeSource) ListAlternatives(context.Context) ([]core.Alternative, error) {
	return f.alternatives, f.altErr
}

func expense(id int64, cents int64, necessary bool) core.Expense {
	return core.Expense{
		ID:          id,
		Description: "item",
		Amount:      core.MoneyFromCents(cents),
		Category:    core.CategoryFood,
		Date:        core.NewDate(2024, 3, 1),
		Necessary:   necessary,
	}
}

func alternative(id, expenseID, cents int64, suggestion string) core.Alternative {
	return core.Alternative{ID: id, ExpenseID: expenseID, Suggestion: suggestion, Savings: core.MoneyFromCents(cents)}
}

func TestInitialSnapshotIsEmpty(t *testing.T) {
	s := New(&fakeSource{}, time.Second)
	snap := s.Snapshot()
	assert.Zero(t, snap.Version)
	assert.NotNil(t, snap.Expenses)
	assert.Empty(t, snap.Expenses)
	assert.NotNil(t, snap.Alternatives)
}

func TestReloadReconcilesAlternatives(t *testing.T) {
	embedded := alternative(9, 1, 500, "embedded")
	e1 := expense(1, 2000, false).WithAlternative(&embedded)
	src := &fakeSource{
		expenses: []core.Expense{e1, expense(2, 1000, false), expense(3, 700, true)},
		alternatives: []core.Alternative{
			alternative(12, 2, 300, "newest"),
			alternative(11, 2, 400, "older"),
			alternative(10, 1, 100, "ignored"),
		},
	}
	s := New(src, time.Second)

	snap, err := s.Reload(context.Background())
	require.NoError(t, err)
	assert.Equal(t, uint64(1), snap.Version)

	require.NotNil(t, snap.Expenses[0].Alternative)
	assert.Equal(t, "embedded", snap.Expenses[0].Alternative.Suggestion)
	require.NotNil(t, snap.Expenses[1].Alternative)
	assert.Equal(t, "newest", snap.Expenses[1].Alternative.Suggestion)
	assert.Nil(t, snap.Expenses[2].Alternative)
	assert.Nil(t, src.expenses[1].Alternative, "source slice must not be modified")
}

func TestReloadDegradesToEmpty(t *testing.T) {
	src := &fakeSource{
		expenses: []core.Expense{expense(1, 100, true)},
		altErr:   errors.New("store unreachable"),
	}
	s := New(src, time.Second)

	snap, err := s.Reload(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "load alternatives")
	assert.Len(t, snap.Expenses, 1)
	assert.Empty(t, snap.Alternatives)

	src.expErr = errors.New("boom")
	snap, err = s.Reload(context.Background())
	require.Error(t, err)
	assert.Empty(t, snap.Expenses)
	assert.Equal(t, uint64(2), snap.Version)
}

func TestConcurrentReloadsShareOneLoad(t *testing.T) {
	src := &fakeSource{gate: make(chan struct{})}
	s := New(src, time.Second)

	var wg sync.WaitGroup
	for range 5 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = s.Reload(context.Background())
		}()
	}
	require.Eventually(t, func() bool { return src.calls.Load() == 1 }, time.Second, 5*time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	close(src.gate)
	wg.Wait()

	assert.Equal(t, int32(1), src.calls.Load())
	assert.Equal(t, uint64(1), s.Snapshot().Version)
}

// changingSource serves whatever it holds when a list call starts. The first
// ListExpenses call waits on gate after reading.
type changingSource struct {
	mu       sync.Mutex
	expenses []core.Expense
	started  atomic.Int32
	gate     chan struct{}
}

func (c *changingSource) set(expenses ...core.Expense) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.expenses = expenses
}

func (c *changingSource) ListExpenses(context.Context) ([]core.Expense, error) {
	c.mu.Lock()
	out := append([]core.Expense(nil), c.expenses...)
	c.mu.Unlock()
	if c.started.Add(1) == 1 {
		<-c.gate
	}
	return out, nil
}

func (c *changingSource) ListAlternatives(context.Context) ([]core.Alternative, error) {
	return nil, nil
}

func TestRefreshDoesNotJoinStaleLoad(t *testing.T) {
	src := &changingSource{gate: make(chan struct{})}
	src.set(expense(1, 1000, true))
	s := New(src, 5*time.Second)

	stale := make(chan Snapshot, 1)
	go func() {
		snap, _ := s.Reload(context.Background())
		stale <- snap
	}()
	require.Eventually(t, func() bool { return src.started.Load() == 1 }, time.Second, 5*time.Millisecond)

	src.set(expense(1, 1000, true), expense(2, 500, false))
	snap, err := s.Refresh(context.Background())
	require.NoError(t, err)
	assert.Len(t, snap.Expenses, 2)
	assert.Len(t, s.Snapshot().Expenses, 2)

	close(src.gate)
	<-stale
	assert.Len(t, s.Snapshot().Expenses, 2, "an older load must not overwrite a newer one")
	assert.Equal(t, snap.Version, s.Snapshot().Version)
}

func TestOnReloadListeners(t *testing.T) {
	s := New(&fakeSource{}, time.Second)
	var versions []uint64
	s.OnReload(func(snap Snapshot) { versions = append(versions, snap.Version) })

	_, _ = s.Reload(context.Background())
	_, _ = s.Refresh(context.Background())
	assert.Equal(t, []uint64{1, 2}, versions)
}

func TestSnapshotExpenseByID(t *testing.T) {
	snap := Snapshot{Expenses: []core.Expense{expense(4, 100, true)}}
	e, ok := snap.ExpenseByID(4)
	assert.True(t, ok)
	assert.Equal(t, int64(4), e.ID)
	_, ok = snap.ExpenseByID(5)
	assert.False(t, ok)
}

func TestPendingGuard(t *testing.T) {
	g := NewPendingGuard()

	release, err := g.TryAcquire("expense:create")
	require.NoError(t, err)
	assert.True(t, g.Busy("expense:create"))

	_, err = g.TryAcquire("expense:create")
	assert.ErrorIs(t, err, ErrPending)

	other, err := g.TryAcquire("expense:delete:1")
	require.NoError(t, err)
	other()

	release()
	release()
	assert.False(t, g.Busy("expense:create"))
	_, err = g.TryAcquire("expense:create")
	assert.NoError(t, err)
}
