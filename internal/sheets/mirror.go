// Package sheets renders the expense list into spreadsheet rows for the
// mirror kept by the sheets worker.
package sheets

import (
	"context"

	"spendwise/internal/analytics"
	"spendwise/internal/core"
)

// Mirror replaces the mirrored copy with the given expenses.
type Mirror interface {
	Mirror(ctx context.Context, expenses []core.Expense) error
}

var ExpenseHeader = []string{
	"ID", "Date", "Description", "Category", "Amount", "Type", "Notes", "Alternative", "Potential Savings",
}

var SummaryHeader = []string{"Category", "Total", "Share %", "Transactions"}

// ExpenseRows renders one header row plus one row per expense. Amounts are
// plain two-decimal strings so the sheet parses them as numbers.
func ExpenseRows(expenses []core.Expense) [][]interface{} {
	rows := make([][]interface{}, 0, len(expenses)+1)
	rows = append(rows, toRow(ExpenseHeader))
	for _, e := range expenses {
		suggestion, savings := "", ""
		if e.Alternative != nil {
			suggestion = e.Alternative.Suggestion
			savings = e.Alternative.Savings.Fixed()
		}
		rows = append(rows, []interface{}{
			e.ID,
			e.Date.String(),
			e.Description,
			e.Category.String(),
			e.Amount.Fixed(),
			necessityLabel(e.Necessary),
			e.Notes,
			suggestion,
			savings,
		})
	}
	return rows
}

// SummaryRows renders the per-category totals of the categories present,
// followed by a Total row.
func SummaryRows(expenses []core.Expense) [][]interface{} {
	totals := analytics.GroupByCategory(expenses)
	shares := analytics.PercentageBreakdown(totals)
	counts := make(map[core.Category]int, len(totals))
	for _, e := range expenses {
		counts[e.Category]++
	}

	rows := make([][]interface{}, 0, len(totals)+2)
	rows = append(rows, toRow(SummaryHeader))
	for _, t := range totals {
		rows = append(rows, []interface{}{
			t.Category.String(),
			t.Amount.Fixed(),
			shares[t.Category],
			counts[t.Category],
		})
	}
	rows = append(rows, []interface{}{"Total", analytics.GrandTotal(totals).Fixed(), "", len(expenses)})
	return rows
}

func necessityLabel(necessary bool) string {
	if necessary {
		return "Necessary"
	}
	return "Unnecessary"
}

func toRow(cells []string) []interface{} {
	row := make([]interface{}, len(cells))
	for i, c := range cells {
		row[i] = c
	}
	return row
}
