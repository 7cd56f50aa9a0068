package store

import (
	"context"

	"spendwise/internal/core"
)

// Ports for the expense store. The dashboard only needs Store; the REST
// server that owns the data works against Repository.
type (
	ExpenseLister interface {
		// ListExpenses returns every expense, newest date first, each carrying
		// its most recent alternative when one exists.
		ListExpenses(ctx context.Context) ([]core.Expense, error)
	}

	ExpenseWriter interface {
		CreateExpense(ctx context.Context, d core.ExpenseDraft) (core.Expense, error)
	}

	ExpenseDeleter interface {
		DeleteExpense(ctx context.Context, id int64) error
	}

	AlternativeLister interface {
		// ListAlternatives returns every alternative, newest first.
		ListAlternatives(ctx context.Context) ([]core.Alternative, error)
	}

	AlternativeWriter interface {
		CreateAlternative(ctx context.Context, d core.AlternativeDraft) (core.Alternative, error)
	}

	AlternativeDeleter interface {
		DeleteAlternative(ctx context.Context, id int64) error
	}

	Store interface {
		ExpenseLister
		ExpenseWriter
		ExpenseDeleter
		AlternativeLister
		AlternativeWriter
		AlternativeDeleter
	}

	// Repository is the authoritative side of the store.
	Repository interface {
		Store
		GetExpense(ctx context.Context, id int64) (core.Expense, error)
		UpdateExpense(ctx context.Context, id int64, p core.ExpensePatch) (core.Expense, error)
		Close() error
	}
)
