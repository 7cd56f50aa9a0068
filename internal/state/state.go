// Package state holds the dashboard's in-memory copy of the store.
//
// The AppState is the single owner of the loaded expenses and alternatives.
// Views read immutable snapshots; reloads replace the snapshot atomically.
package state

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"spendwise/internal/core"
	"spendwise/internal/store"
)

const reloadKey = "reload"

// Source is the read side of the store.
type Source interface {
	store.ExpenseLister
	store.AlternativeLister
}

// Snapshot is a consistent view of the loaded collections. Callers must not
// modify the slices.
type Snapshot struct {
	Version      uint64
	Expenses     []core.Expense
	Alternatives []core.Alternative
	LoadedAt     time.Time
}

// ExpenseByID finds a loaded expense.
func (s Snapshot) ExpenseByID(id int64) (core.Expense, bool) {
	for _, e := range s.Expenses {
		if e.ID == id {
			return e, true
		}
	}
	return core.Expense{}, false
}

type AppState struct {
	src     Source
	timeout time.Duration

	mu        sync.RWMutex
	snap      Snapshot
	committed uint64

	seq atomic.Uint64
	sf  singleflight.Group

	lmu       sync.Mutex
	listeners []func(Snapshot)
}

func New(src Source, timeout time.Duration) *AppState {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &AppState{
		src:     src,
		timeout: timeout,
		snap: Snapshot{
			Expenses:     []core.Expense{},
			Alternatives: []core.Alternative{},
		},
	}
}

func (s *AppState) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap
}

// OnReload registers fn to run after every committed reload.
func (s *AppState) OnReload(fn func(Snapshot)) {
	s.lmu.Lock()
	defer s.lmu.Unlock()
	s.listeners = append(s.listeners, fn)
}

// Reload fetches both collections, joining a reload already in flight. A
// collection that fails to load is replaced by an empty one; the returned
// error reports what failed, the snapshot is committed regardless.
func (s *AppState) Reload(ctx context.Context) (Snapshot, error) {
	return s.reload(ctx)
}

// Refresh is Reload after a write: it never joins a load that may have
// started before the write completed.
func (s *AppState) Refresh(ctx context.Context) (Snapshot, error) {
	s.sf.Forget(reloadKey)
	return s.reload(ctx)
}

type reloadResult struct {
	snap Snapshot
	err  error
}

func (s *AppState) reload(ctx context.Context) (Snapshot, error) {
	ch := s.sf.DoChan(reloadKey, func() (any, error) {
		// The shared load must not die with whichever caller started it.
		lctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.timeout)
		defer cancel()
		snap, err := s.load(lctx)
		return reloadResult{snap: snap, err: err}, nil
	})
	select {
	case <-ctx.Done():
		return s.Snapshot(), ctx.Err()
	case res := <-ch:
		r := res.Val.(reloadResult)
		return r.snap, r.err
	}
}

func (s *AppState) load(ctx context.Context) (Snapshot, error) {
	seq := s.seq.Add(1)

	var (
		expenses     []core.Expense
		alternatives []core.Alternative
		expErr       error
		altErr       error
		g            errgroup.Group
	)
	g.Go(func() error {
		expenses, expErr = s.src.ListExpenses(ctx)
		return nil
	})
	g.Go(func() error {
		alternatives, altErr = s.src.ListAlternatives(ctx)
		return nil
	})
	_ = g.Wait()

	if expErr != nil {
		slog.WarnContext(ctx, "Failed to load expenses, using empty list", "error", expErr)
		expenses = nil
		expErr = fmt.Errorf("load expenses: %w", expErr)
	}
	if altErr != nil {
		slog.WarnContext(ctx, "Failed to load alternatives, using empty list", "error", altErr)
		alternatives = nil
		altErr = fmt.Errorf("load alternatives: %w", altErr)
	}
	if expenses == nil {
		expenses = []core.Expense{}
	}
	if alternatives == nil {
		alternatives = []core.Alternative{}
	}

	snap := s.commit(seq, Reconcile(expenses, alternatives), alternatives)
	return snap, errors.Join(expErr, altErr)
}

// commit stores the result unless a later load already landed.
func (s *AppState) commit(seq uint64, expenses []core.Expense, alternatives []core.Alternative) Snapshot {
	s.mu.Lock()
	if seq <= s.committed {
		snap := s.snap
		s.mu.Unlock()
		return snap
	}
	s.committed = seq
	s.snap = Snapshot{
		Version:      s.snap.Version + 1,
		Expenses:     expenses,
		Alternatives: alternatives,
		LoadedAt:     time.Now().UTC(),
	}
	snap := s.snap
	s.mu.Unlock()

	s.lmu.Lock()
	listeners := append([]func(Snapshot){}, s.listeners...)
	s.lmu.Unlock()
	for _, fn := range listeners {
		fn(snap)
	}
	return snap
}

// Reconcile attaches to each expense lacking an embedded alternative the
// first matching entry of alternatives, which is ordered newest first.
// Expenses that already carry one keep it.
func Reconcile(expenses []core.Expense, alternatives []core.Alternative) []core.Expense {
	first := make(map[int64]core.Alternative, len(alternatives))
	for _, a := range alternatives {
		if _, ok := first[a.ExpenseID]; !ok {
			first[a.ExpenseID] = a
		}
	}
	out := make([]core.Expense, len(expenses))
	for i, e := range expenses {
		if e.Alternative == nil {
			if a, ok := first[e.ID]; ok {
				e = e.WithAlternative(&a)
			}
		}
		out[i] = e
	}
	return out
}
