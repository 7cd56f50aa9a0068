package memory

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"spendwise/internal/core"
)

func draft(desc string, cents int64, cat core.Category, day int, necessary bool) core.ExpenseDraft {
	return core.ExpenseDraft{
		Description: desc,
		Amount:      core.MoneyFromCents(cents),
		Category:    cat,
		Date:        core.NewDate(2024, 3, day),
		Necessary:   necessary,
	}
}

func TestMemoryStoreCreateAndListOrder(t *testing.T) {
	ctx := context.Background()
	s := New()

	for _, d := range []core.ExpenseDraft{
		draft("Rent", 100000, core.CategoryBills, 1, true),
		draft("Cinema", 1500, core.CategoryEntertainment, 5, false),
		draft("Lunch", 1200, core.CategoryFood, 5, true),
	} {
		if _, err := s.CreateExpense(ctx, d); err != nil {
			t.Fatalf("create %q: %v", d.Description, err)
		}
	}

	list, err := s.ListExpenses(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	got := []string{list[0].Description, list[1].Description, list[2].Description}
	want := []string{"Lunch", "Cinema", "Rent"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("unexpected order: got %v want %v", got, want)
		}
	}
}

func TestMemoryStoreRejectsInvalidDraft(t *testing.T) {
	s := New()
	_, err := s.CreateExpense(context.Background(), core.ExpenseDraft{Description: " ", Category: core.CategoryFood, Date: core.NewDate(2024, 1, 1)})
	if !errors.Is(err, core.ErrEmptyDescription) {
		t.Fatalf("expected ErrEmptyDescription, got %v", err)
	}
}

func TestMemoryStoreAlternativesEmbedLatest(t *testing.T) {
	ctx := context.Background()
	s := New()
	clock := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time {
		clock = clock.Add(time.Minute)
		return clock
	}

	e, _ := s.CreateExpense(ctx, draft("Taxi", 2000, core.CategoryTransport, 2, false))
	if _, err := s.CreateAlternative(ctx, core.AlternativeDraft{ExpenseID: e.ID, Suggestion: "Walk", Savings: core.MoneyFromCents(2000)}); err != nil {
		t.Fatalf("create alternative: %v", err)
	}
	if _, err := s.CreateAlternative(ctx, core.AlternativeDraft{ExpenseID: e.ID, Suggestion: "Bus", Savings: core.MoneyFromCents(1500)}); err != nil {
		t.Fatalf("create alternative: %v", err)
	}

	alts, _ := s.ListAlternatives(ctx)
	if len(alts) != 2 || alts[0].Suggestion != "Bus" {
		t.Fatalf("expected newest first, got %+v", alts)
	}

	got, err := s.GetExpense(ctx, e.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Alternative == nil || got.Alternative.Suggestion != "Bus" {
		t.Fatalf("expected latest alternative embedded, got %+v", got.Alternative)
	}
}

func TestMemoryStoreAlternativeForUnknownExpense(t *testing.T) {
	s := New()
	_, err := s.CreateAlternative(context.Background(), core.AlternativeDraft{ExpenseID: 42, Suggestion: "x"})
	if !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestMemoryStoreDeleteCascades(t *testing.T) {
	ctx := context.Background()
	s := New()
	e, _ := s.CreateExpense(ctx, draft("Taxi", 2000, core.CategoryTransport, 2, false))
	_, _ = s.CreateAlternative(ctx, core.AlternativeDraft{ExpenseID: e.ID, Suggestion: "Bus", Savings: core.MoneyFromCents(1500)})

	if err := s.DeleteExpense(ctx, e.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	alts, _ := s.ListAlternatives(ctx)
	if len(alts) != 0 {
		t.Fatalf("expected alternatives removed, got %d", len(alts))
	}
	if err := s.DeleteExpense(ctx, e.ID); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected ErrNotFound on second delete, got %v", err)
	}
}

func TestMemoryStoreUpdatePartial(t *testing.T) {
	ctx := context.Background()
	s := New()
	e, _ := s.CreateExpense(ctx, draft("Lunch", 1200, core.CategoryFood, 3, true))

	notNecessary := false
	amount := core.MoneyFromCents(1800)
	got, err := s.UpdateExpense(ctx, e.ID, core.ExpensePatch{Necessary: &notNecessary, Amount: &amount})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if got.Necessary || got.Amount.Fixed() != "18.00" || got.Description != "Lunch" {
		t.Fatalf("unexpected update result: %+v", got)
	}

	empty := ""
	if _, err := s.UpdateExpense(ctx, e.ID, core.ExpensePatch{Description: &empty}); !errors.Is(err, core.ErrEmptyDescription) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestNewFromFileSeeds(t *testing.T) {
	dir := t.TempDir()

	s, err := NewFromFile(filepath.Join(dir, "missing.json"))
	if err != nil {
		t.Fatalf("missing file should not fail: %v", err)
	}
	if list, _ := s.ListExpenses(context.Background()); len(list) != 0 {
		t.Fatalf("expected empty store, got %d", len(list))
	}

	path := filepath.Join(dir, "seed.json")
	content := `[
		{"description":"Groceries","amount":54.2,"category":"Food","date":"2024-03-01","is_necessary":true},
		{"description":"Concert","amount":"80","category":"Entertainment","date":"2024-03-04","is_necessary":false,"notes":"impulse"}
	]`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write seed: %v", err)
	}
	s, err = NewFromFile(path)
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
	list, _ := s.ListExpenses(context.Background())
	if len(list) != 2 || list[0].Description != "Concert" || list[0].Notes != "impulse" {
		t.Fatalf("unexpected seeded list: %+v", list)
	}

	if err := os.WriteFile(path, []byte(`[{"description":"x","amount":1,"category":"Pets","date":"2024-03-01"}]`), 0o644); err != nil {
		t.Fatalf("write seed: %v", err)
	}
	if _, err := NewFromFile(path); !errors.Is(err, core.ErrInvalidCategory) {
		t.Fatalf("expected ErrInvalidCategory, got %v", err)
	}
}
