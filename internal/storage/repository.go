package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"spendwise/internal/core"
	"spendwise/internal/store"

	_ "modernc.org/sqlite"
)

// Fixed width so that created_at sorts lexically.
const timeLayout = "2006-01-02T15:04:05.000000Z"

var _ store.Repository = (*SQLiteRepository)(nil)

type SQLiteRepository struct {
	db      *sql.DB
	queries *Queries
	now     func() time.Time
	schema  uint
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// SQLite allows one writer at a time.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	schema, err := migrateSchema(dbPath)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate schema: %w", err)
	}

	return &SQLiteRepository{
		db:      db,
		queries: New(db),
		now:     time.Now,
		schema:  schema,
	}, nil
}

// SchemaVersion is the migration version the database was left at on open.
func (r *SQLiteRepository) SchemaVersion() uint {
	return r.schema
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Ping checks the database connection.
func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func (r *SQLiteRepository) ListExpenses(ctx context.Context) ([]core.Expense, error) {
	rows, err := r.queries.ListExpenses(ctx)
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	alts, err := r.queries.ListAlternatives(ctx)
	if err != nil {
		return nil, fmt.Errorf("list alternatives: %w", err)
	}

	latest := make(map[int64]core.Alternative, len(alts))
	for _, a := range alts {
		if _, ok := latest[a.ExpenseID]; !ok {
			latest[a.ExpenseID] = toAlternative(a)
		}
	}

	out := make([]core.Expense, 0, len(rows))
	for _, row := range rows {
		e, err := toExpense(row)
		if err != nil {
			slog.WarnContext(ctx, "Skipping unreadable expense row", "id", row.ID, "error", err)
			continue
		}
		if a, ok := latest[e.ID]; ok {
			e.Alternative = &a
		}
		out = append(out, e)
	}
	return out, nil
}

func (r *SQLiteRepository) GetExpense(ctx context.Context, id int64) (core.Expense, error) {
	row, err := r.queries.GetExpense(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Expense{}, fmt.Errorf("expense %d: %w", id, core.ErrNotFound)
	}
	if err != nil {
		return core.Expense{}, fmt.Errorf("get expense: %w", err)
	}
	e, err := toExpense(row)
	if err != nil {
		return core.Expense{}, err
	}
	alts, err := r.queries.ListAlternativesByExpense(ctx, id)
	if err != nil {
		return core.Expense{}, fmt.Errorf("list alternatives: %w", err)
	}
	if len(alts) > 0 {
		a := toAlternative(alts[0])
		e.Alternative = &a
	}
	return e, nil
}

func (r *SQLiteRepository) CreateExpense(ctx context.Context, d core.ExpenseDraft) (core.Expense, error) {
	if err := d.Validate(); err != nil {
		return core.Expense{}, err
	}
	row, err := r.queries.CreateExpense(ctx, CreateExpenseParams{
		Description: d.Description,
		AmountCents: d.Amount.Cents(),
		Category:    d.Category.String(),
		Date:        d.Date.String(),
		IsNecessary: d.Necessary,
		Notes:       nullString(d.Notes),
		CreatedAt:   r.now().UTC().Format(timeLayout),
	})
	if err != nil {
		return core.Expense{}, fmt.Errorf("create expense: %w", err)
	}

	slog.InfoContext(ctx, "Expense saved to SQLite",
		"id", row.ID,
		"description", row.Description,
		"amount_cents", row.AmountCents,
		"date", row.Date)

	return toExpense(row)
}

func (r *SQLiteRepository) UpdateExpense(ctx context.Context, id int64, p core.ExpensePatch) (core.Expense, error) {
	current, err := r.GetExpense(ctx, id)
	if err != nil {
		return core.Expense{}, err
	}
	updated, err := p.Apply(current)
	if err != nil {
		return core.Expense{}, err
	}
	n, err := r.queries.UpdateExpense(ctx, UpdateExpenseParams{
		ID:          id,
		Description: updated.Description,
		AmountCents: updated.Amount.Cents(),
		Category:    updated.Category.String(),
		Date:        updated.Date.String(),
		IsNecessary: updated.Necessary,
		Notes:       nullString(updated.Notes),
	})
	if err != nil {
		return core.Expense{}, fmt.Errorf("update expense: %w", err)
	}
	if n == 0 {
		return core.Expense{}, fmt.Errorf("expense %d: %w", id, core.ErrNotFound)
	}
	return updated, nil
}

// DeleteExpense removes the expense and its alternatives in one transaction.
func (r *SQLiteRepository) DeleteExpense(ctx context.Context, id int64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	q := r.queries.WithTx(tx)
	if err := q.DeleteAlternativesByExpense(ctx, id); err != nil {
		return fmt.Errorf("delete alternatives: %w", err)
	}
	n, err := q.DeleteExpense(ctx, id)
	if err != nil {
		return fmt.Errorf("delete expense: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("expense %d: %w", id, core.ErrNotFound)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	slog.InfoContext(ctx, "Expense deleted from SQLite", "id", id)
	return nil
}

func (r *SQLiteRepository) ListAlternatives(ctx context.Context) ([]core.Alternative, error) {
	rows, err := r.queries.ListAlternatives(ctx)
	if err != nil {
		return nil, fmt.Errorf("list alternatives: %w", err)
	}
	out := make([]core.Alternative, 0, len(rows))
	for _, row := range rows {
		out = append(out, toAlternative(row))
	}
	return out, nil
}

func (r *SQLiteRepository) CreateAlternative(ctx context.Context, d core.AlternativeDraft) (core.Alternative, error) {
	if err := d.Validate(); err != nil {
		return core.Alternative{}, err
	}
	if _, err := r.queries.GetExpense(ctx, d.ExpenseID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return core.Alternative{}, fmt.Errorf("expense %d: %w", d.ExpenseID, core.ErrNotFound)
		}
		return core.Alternative{}, fmt.Errorf("get expense: %w", err)
	}
	row, err := r.queries.CreateAlternative(ctx, CreateAlternativeParams{
		ExpenseID:    d.ExpenseID,
		Suggestion:   d.Suggestion,
		SavingsCents: d.Savings.Cents(),
		Benefits:     nullString(d.Benefits),
		CreatedAt:    r.now().UTC().Format(timeLayout),
	})
	if err != nil {
		return core.Alternative{}, fmt.Errorf("create alternative: %w", err)
	}

	slog.InfoContext(ctx, "Alternative saved to SQLite",
		"id", row.ID,
		"expense_id", row.ExpenseID,
		"savings_cents", row.SavingsCents)

	return toAlternative(row), nil
}

func (r *SQLiteRepository) DeleteAlternative(ctx context.Context, id int64) error {
	n, err := r.queries.DeleteAlternative(ctx, id)
	if err != nil {
		return fmt.Errorf("delete alternative: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("alternative %d: %w", id, core.ErrNotFound)
	}
	return nil
}

func toExpense(row Expense) (core.Expense, error) {
	cat, err := core.ParseCategory(row.Category)
	if err != nil {
		return core.Expense{}, err
	}
	date, err := core.ParseDate(row.Date)
	if err != nil {
		return core.Expense{}, err
	}
	return core.Expense{
		ID:          row.ID,
		Description: row.Description,
		Amount:      core.MoneyFromCents(row.AmountCents),
		Category:    cat,
		Date:        date,
		Necessary:   row.IsNecessary,
		Notes:       row.Notes.String,
		CreatedAt:   parseTime(row.CreatedAt),
	}, nil
}

func toAlternative(row Alternative) core.Alternative {
	return core.Alternative{
		ID:         row.ID,
		ExpenseID:  row.ExpenseID,
		Suggestion: row.Suggestion,
		Savings:    core.MoneyFromCents(row.SavingsCents),
		Benefits:   row.Benefits.String,
		CreatedAt:  parseTime(row.CreatedAt),
	}
}

func parseTime(s string) time.Time {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
