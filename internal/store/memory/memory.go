package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"sync"
	"time"

	"spendwise/internal/core"
	"spendwise/internal/store"
	"spendwise/internal/store/wire"
)

var _ store.Repository = (*Store)(nil)

// Store keeps expenses and alternatives in process memory.
type Store struct {
	mu           sync.Mutex
	nextExpense  int64
	nextAlt      int64
	expenses     map[int64]core.Expense
	alternatives map[int64]core.Alternative
	now          func() time.Time
}

func New() *Store {
	return &Store{
		expenses:     make(map[int64]core.Expense),
		alternatives: make(map[int64]core.Alternative),
		now:          time.Now,
	}
}

// NewFromFile seeds the store from a JSON array of expense drafts in wire
// form. A missing file yields an empty store.
func NewFromFile(path string) (*Store, error) {
	s := New()
	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}
		return nil, fmt.Errorf("read seed file: %w", err)
	}
	var seed []wire.ExpenseRequest
	if err := json.Unmarshal(b, &seed); err != nil {
		return nil, fmt.Errorf("parse seed file: %w", err)
	}
	for i, r := range seed {
		cat, err := core.ParseCategory(r.Category)
		if err != nil {
			return nil, fmt.Errorf("seed entry %d: %w", i, err)
		}
		date, err := core.ParseDate(r.Date)
		if err != nil {
			return nil, fmt.Errorf("seed entry %d: %w", i, err)
		}
		d := core.ExpenseDraft{
			Description: r.Description,
			Amount:      r.Amount,
			Category:    cat,
			Date:        date,
			Necessary:   r.IsNecessary,
			Notes:       r.Notes,
		}
		if _, err := s.CreateExpense(context.Background(), d); err != nil {
			return nil, fmt.Errorf("seed entry %d: %w", i, err)
		}
	}
	return s, nil
}

func (s *Store) ListExpenses(_ context.Context) ([]core.Expense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.Expense, 0, len(s.expenses))
	for _, e := range s.expenses {
		out = append(out, s.withLatestAlternative(e))
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date.Time) {
			return out[i].Date.After(out[j].Date.Time)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

func (s *Store) GetExpense(_ context.Context, id int64) (core.Expense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.expenses[id]
	if !ok {
		return core.Expense{}, fmt.Errorf("expense %d: %w", id, core.ErrNotFound)
	}
	return s.withLatestAlternative(e), nil
}

func (s *Store) CreateExpense(_ context.Context, d core.ExpenseDraft) (core.Expense, error) {
	if err := d.Validate(); err != nil {
		return core.Expense{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextExpense++
	e := core.Expense{
		ID:          s.nextExpense,
		Description: d.Description,
		Amount:      d.Amount,
		Category:    d.Category,
		Date:        d.Date,
		Necessary:   d.Necessary,
		Notes:       d.Notes,
		CreatedAt:   s.now().UTC(),
	}
	s.expenses[e.ID] = e
	return e, nil
}

func (s *Store) UpdateExpense(_ context.Context, id int64, p core.ExpensePatch) (core.Expense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.expenses[id]
	if !ok {
		return core.Expense{}, fmt.Errorf("expense %d: %w", id, core.ErrNotFound)
	}
	updated, err := p.Apply(e)
	if err != nil {
		return core.Expense{}, err
	}
	s.expenses[id] = updated
	return s.withLatestAlternative(updated), nil
}

// DeleteExpense removes the expense together with its alternatives.
func (s *Store) DeleteExpense(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.expenses[id]; !ok {
		return fmt.Errorf("expense %d: %w", id, core.ErrNotFound)
	}
	delete(s.expenses, id)
	for altID, a := range s.alternatives {
		if a.ExpenseID == id {
			delete(s.alternatives, altID)
		}
	}
	return nil
}

func (s *Store) ListAlternatives(_ context.Context) ([]core.Alternative, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.Alternative, 0, len(s.alternatives))
	for _, a := range s.alternatives {
		out = append(out, a)
	}
	sortNewestFirst(out)
	return out, nil
}

func (s *Store) CreateAlternative(_ context.Context, d core.AlternativeDraft) (core.Alternative, error) {
	if err := d.Validate(); err != nil {
		return core.Alternative{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.expenses[d.ExpenseID]; !ok {
		return core.Alternative{}, fmt.Errorf("expense %d: %w", d.ExpenseID, core.ErrNotFound)
	}
	s.nextAlt++
	a := core.Alternative{
		ID:         s.nextAlt,
		ExpenseID:  d.ExpenseID,
		Suggestion: d.Suggestion,
		Savings:    d.Savings,
		Benefits:   d.Benefits,
		CreatedAt:  s.now().UTC(),
	}
	s.alternatives[a.ID] = a
	return a, nil
}

func (s *Store) DeleteAlternative(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.alternatives[id]; !ok {
		return fmt.Errorf("alternative %d: %w", id, core.ErrNotFound)
	}
	delete(s.alternatives, id)
	return nil
}

func (s *Store) Close() error { return nil }

// withLatestAlternative must be called with mu held.
func (s *Store) withLatestAlternative(e core.Expense) core.Expense {
	var latest *core.Alternative
	for _, a := range s.alternatives {
		if a.ExpenseID != e.ID {
			continue
		}
		if latest == nil || newer(a, *latest) {
			cp := a
			latest = &cp
		}
	}
	return e.WithAlternative(latest)
}

func newer(a, b core.Alternative) bool {
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.After(b.CreatedAt)
	}
	return a.ID > b.ID
}

func sortNewestFirst(alts []core.Alternative) {
	sort.Slice(alts, func(i, j int) bool { return newer(alts[i], alts[j]) })
}
