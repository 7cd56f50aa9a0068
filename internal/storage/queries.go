package storage

import (
	"context"
	"database/sql"
)

type DBTX interface {
	ExecContext(context.Context, string, ...interface{}) (sql.Result, error)
	QueryContext(context.Context, string, ...interface{}) (*sql.Rows, error)
	QueryRowContext(context.Context, string, ...interface{}) *sql.Row
}

func New(db DBTX) *Queries {
	return &Queries{db: db}
}

type Queries struct {
	db DBTX
}

func (q *Queries) WithTx(tx *sql.Tx) *Queries {
	return &Queries{db: tx}
}

// Expense is a row of the expenses table.
type Expense struct {
	ID          int64
	Description string
	AmountCents int64
	Category    string
	Date        string
	IsNecessary bool
	Notes       sql.NullString
	CreatedAt   string
}

// Alternative is a row of the alternatives table.
type Alternative struct {
	ID           int64
	ExpenseID    int64
	Suggestion   string
	SavingsCents int64
	Benefits     sql.NullString
	CreatedAt    string
}

const expenseColumns = `id, description, amount_cents, category, date, is_necessary, notes, created_at`

const alternativeColumns = `id, expense_id, suggestion, savings_cents, benefits, created_at`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanExpense(row rowScanner) (Expense, error) {
	var i Expense
	err := row.Scan(
		&i.ID,
		&i.Description,
		&i.AmountCents,
		&i.Category,
		&i.Date,
		&i.IsNecessary,
		&i.Notes,
		&i.CreatedAt,
	)
	return i, err
}

func scanAlternative(row rowScanner) (Alternative, error) {
	var i Alternative
	err := row.Scan(
		&i.ID,
		&i.ExpenseID,
		&i.Suggestion,
		&i.SavingsCents,
		&i.Benefits,
		&i.CreatedAt,
	)
	return i, err
}

const createExpense = `INSERT INTO expenses (description, amount_cents, category, date, is_necessary, notes, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?)
RETURNING ` + expenseColumns

type CreateExpenseParams struct {
	Description string
	AmountCents int64
	Category    string
	Date        string
	IsNecessary bool
	Notes       sql.NullString
	CreatedAt   string
}

func (q *Queries) CreateExpense(ctx context.Context, arg CreateExpenseParams) (Expense, error) {
	row := q.db.QueryRowContext(ctx, createExpense,
		arg.Description,
		arg.AmountCents,
		arg.Category,
		arg.Date,
		arg.IsNecessary,
		arg.Notes,
		arg.CreatedAt,
	)
	return scanExpense(row)
}

const getExpense = `SELECT ` + expenseColumns + ` FROM expenses WHERE id = ?`

func (q *Queries) GetExpense(ctx context.Context, id int64) (Expense, error) {
	return scanExpense(q.db.QueryRowContext(ctx, getExpense, id))
}

const listExpenses = `SELECT ` + expenseColumns + ` FROM expenses ORDER BY date DESC, id DESC`

func (q *Queries) ListExpenses(ctx context.Context) ([]Expense, error) {
	rows, err := q.db.QueryContext(ctx, listExpenses)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Expense
	for rows.Next() {
		i, err := scanExpense(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const updateExpense = `UPDATE expenses
SET description = ?, amount_cents = ?, category = ?, date = ?, is_necessary = ?, notes = ?
WHERE id = ?`

type UpdateExpenseParams struct {
	ID          int64
	Description string
	AmountCents int64
	Category    string
	Date        string
	IsNecessary bool
	Notes       sql.NullString
}

func (q *Queries) UpdateExpense(ctx context.Context, arg UpdateExpenseParams) (int64, error) {
	res, err := q.db.ExecContext(ctx, updateExpense,
		arg.Description,
		arg.AmountCents,
		arg.Category,
		arg.Date,
		arg.IsNecessary,
		arg.Notes,
		arg.ID,
	)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

const deleteExpense = `DELETE FROM expenses WHERE id = ?`

func (q *Queries) DeleteExpense(ctx context.Context, id int64) (int64, error) {
	res, err := q.db.ExecContext(ctx, deleteExpense, id)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

const deleteAlternativesByExpense = `DELETE FROM alternatives WHERE expense_id = ?`

func (q *Queries) DeleteAlternativesByExpense(ctx context.Context, expenseID int64) error {
	_, err := q.db.ExecContext(ctx, deleteAlternativesByExpense, expenseID)
	return err
}

const createAlternative = `INSERT INTO alternatives (expense_id, suggestion, savings_cents, benefits, created_at)
VALUES (?, ?, ?, ?, ?)
RETURNING ` + alternativeColumns

type CreateAlternativeParams struct {
	ExpenseID    int64
	Suggestion   string
	SavingsCents int64
	Benefits     sql.NullString
	CreatedAt    string
}

func (q *Queries) CreateAlternative(ctx context.Context, arg CreateAlternativeParams) (Alternative, error) {
	row := q.db.QueryRowContext(ctx, createAlternative,
		arg.ExpenseID,
		arg.Suggestion,
		arg.SavingsCents,
		arg.Benefits,
		arg.CreatedAt,
	)
	return scanAlternative(row)
}

const listAlternatives = `SELECT ` + alternativeColumns + ` FROM alternatives ORDER BY created_at DESC, id DESC`

func (q *Queries) ListAlternatives(ctx context.Context) ([]Alternative, error) {
	return q.queryAlternatives(ctx, listAlternatives)
}

const listAlternativesByExpense = `SELECT ` + alternativeColumns + ` FROM alternatives
WHERE expense_id = ?
ORDER BY created_at DESC, id DESC`

func (q *Queries) ListAlternativesByExpense(ctx context.Context, expenseID int64) ([]Alternative, error) {
	return q.queryAlternatives(ctx, listAlternativesByExpense, expenseID)
}

func (q *Queries) queryAlternatives(ctx context.Context, query string, args ...interface{}) ([]Alternative, error) {
	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Alternative
	for rows.Next() {
		i, err := scanAlternative(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const deleteAlternative = `DELETE FROM alternatives WHERE id = ?`

func (q *Queries) DeleteAlternative(ctx context.Context, id int64) (int64, error) {
	res, err := q.db.ExecContext(ctx, deleteAlternative, id)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
