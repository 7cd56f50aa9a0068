// Package viewmodel turns a state snapshot into the data each dashboard page
// renders. Every figure comes from the analytics package; nothing here does
// arithmetic on amounts.
package viewmodel

import (
	"fmt"
	"strconv"

	"spendwise/internal/analytics"
	"spendwise/internal/core"
	"spendwise/internal/state"
)

const (
	RecentCount = 5

	UnnecessaryNoteFallback = "This expense could be reduced or eliminated to save money."
	MissingExpenseLabel     = "Expense"
)

// Page names double as navigation keys and template names.
const (
	PageDashboard    = "dashboard"
	PageExpenses     = "expenses"
	PageUnnecessary  = "unnecessary"
	PageAlternatives = "alternatives"
	PageAnalytics    = "analytics"
	PageCategories   = "categories"
)

var pageTitles = map[string]string{
	PageDashboard:    "Dashboard",
	PageExpenses:     "All Expenses",
	PageUnnecessary:  "Unnecessary Expenses",
	PageAlternatives: "Alternative Options",
	PageAnalytics:    "Analytics",
	PageCategories:   "Categories",
}

// Title returns the heading for a page, defaulting to the dashboard's.
func Title(page string) string {
	if t, ok := pageTitles[page]; ok {
		return t
	}
	return pageTitles[PageDashboard]
}

// Layout carries what every page shares.
type Layout struct {
	Page       string
	Title      string
	Version    uint64
	Categories []string
	Today      string
}

func newLayout(page string, snap state.Snapshot, today core.Date) Layout {
	cats := make([]string, len(core.Categories))
	for i, c := range core.Categories {
		cats[i] = c.String()
	}
	return Layout{
		Page:       page,
		Title:      Title(page),
		Version:    snap.Version,
		Categories: cats,
		Today:      today.String(),
	}
}

type StatCards struct {
	Total            string
	Necessary        string
	Unnecessary      string
	PotentialSavings string
}

type Transaction struct {
	ID          int64
	Description string
	Category    string
	Date        string
	Amount      string
	Color       string
	Icon        string
}

type CategoryShare struct {
	Category string
	Color    string
	Percent  int
}

type Dashboard struct {
	Layout
	Stats  StatCards
	Shares []CategoryShare
	Recent []Transaction
}

func NewDashboard(snap state.Snapshot, today core.Date) Dashboard {
	stats := analytics.ComputeStats(snap.Expenses)
	totals := analytics.GroupByCategory(snap.Expenses)
	pct := analytics.PercentageBreakdown(totals)

	shares := make([]CategoryShare, 0, len(totals))
	for _, t := range totals {
		shares = append(shares, CategoryShare{
			Category: t.Category.String(),
			Color:    analytics.CategoryColor(t.Category),
			Percent:  pct[t.Category],
		})
	}

	recent := analytics.RecentExpenses(snap.Expenses, RecentCount)
	txs := make([]Transaction, 0, len(recent))
	for _, e := range recent {
		txs = append(txs, Transaction{
			ID:          e.ID,
			Description: e.Description,
			Category:    e.Category.String(),
			Date:        e.Date.String(),
			Amount:      e.Amount.Display(),
			Color:       analytics.CategoryColor(e.Category),
			Icon:        analytics.CategoryIcon(e.Category),
		})
	}

	return Dashboard{
		Layout: newLayout(PageDashboard, snap, today),
		Stats: StatCards{
			Total:            stats.Total.Display(),
			Necessary:        stats.Necessary.Display(),
			Unnecessary:      stats.Unnecessary.Display(),
			PotentialSavings: stats.PotentialSavings.Display(),
		},
		Shares: shares,
		Recent: txs,
	}
}

// FilterForm echoes the raw filter values back into the form controls.
type FilterForm struct {
	Category string
	Type     string
	Date     string
}

type ExpenseRow struct {
	ID             int64
	Date           string
	Description    string
	Category       string
	Amount         string
	Necessary      bool
	TypeLabel      string
	HasAlternative bool
}

type ExpensesPage struct {
	Layout
	Filter FilterForm
	Rows   []ExpenseRow
}

func NewExpensesPage(snap state.Snapshot, f analytics.Filter, today core.Date) ExpensesPage {
	return ExpensesPage{
		Layout: newLayout(PageExpenses, snap, today),
		Filter: formFromFilter(f),
		Rows:   ExpenseRows(analytics.FilterExpenses(snap.Expenses, f)),
	}
}

func ExpenseRows(expenses []core.Expense) []ExpenseRow {
	rows := make([]ExpenseRow, 0, len(expenses))
	for _, e := range expenses {
		label := "Necessary"
		if !e.Necessary {
			label = "Unnecessary"
		}
		rows = append(rows, ExpenseRow{
			ID:             e.ID,
			Date:           e.Date.String(),
			Description:    e.Description,
			Category:       e.Category.String(),
			Amount:         e.Amount.Display(),
			Necessary:      e.Necessary,
			TypeLabel:      label,
			HasAlternative: e.Alternative != nil,
		})
	}
	return rows
}

// Filter type values accepted from the expenses form.
const (
	TypeNecessary   = "necessary"
	TypeUnnecessary = "unnecessary"
)

// ParseFilter builds an analytics.Filter from form values. Empty values
// impose no constraint.
func ParseFilter(category, typ, date string) (analytics.Filter, error) {
	var f analytics.Filter
	if category != "" {
		c, err := core.ParseCategory(category)
		if err != nil {
			return analytics.Filter{}, err
		}
		f.Category = c
	}
	switch typ {
	case "":
	case TypeNecessary, TypeUnnecessary:
		necessary := typ == TypeNecessary
		f.Necessity = &necessary
	default:
		return analytics.Filter{}, fmt.Errorf("invalid type %q", typ)
	}
	if date != "" {
		d, err := core.ParseDate(date)
		if err != nil {
			return analytics.Filter{}, err
		}
		f.Date = d
	}
	return f, nil
}

func formFromFilter(f analytics.Filter) FilterForm {
	form := FilterForm{Category: string(f.Category)}
	if f.Necessity != nil {
		form.Type = TypeUnnecessary
		if *f.Necessity {
			form.Type = TypeNecessary
		}
	}
	if !f.Date.IsZero() {
		form.Date = f.Date.String()
	}
	return form
}

type UnnecessaryCard struct {
	ID          int64
	Description string
	Category    string
	Amount      string
	Note        string
}

type UnnecessaryPage struct {
	Layout
	Total string
	Cards []UnnecessaryCard
}

func NewUnnecessaryPage(snap state.Snapshot, today core.Date) UnnecessaryPage {
	list, total := analytics.Unnecessary(snap.Expenses)
	cards := make([]UnnecessaryCard, 0, len(list))
	for _, e := range list {
		note := e.Notes
		if note == "" {
			note = UnnecessaryNoteFallback
		}
		cards = append(cards, UnnecessaryCard{
			ID:          e.ID,
			Description: e.Description,
			Category:    e.Category.String(),
			Amount:      e.Amount.Display(),
			Note:        note,
		})
	}
	return UnnecessaryPage{
		Layout: newLayout(PageUnnecessary, snap, today),
		Total:  total.Display(),
		Cards:  cards,
	}
}

type AlternativeCard struct {
	ID           int64
	ExpenseID    int64
	ExpenseLabel string
	Savings      string
	Suggestion   string
	Benefits     string
}

type AlternativesPage struct {
	Layout
	Cards []AlternativeCard
}

// NewAlternativesPage lists the alternatives collection in stored order.
func NewAlternativesPage(snap state.Snapshot, today core.Date) AlternativesPage {
	cards := make([]AlternativeCard, 0, len(snap.Alternatives))
	for _, a := range snap.Alternatives {
		label := MissingExpenseLabel
		if e, ok := snap.ExpenseByID(a.ExpenseID); ok {
			label = e.Description
		}
		cards = append(cards, AlternativeCard{
			ID:           a.ID,
			ExpenseID:    a.ExpenseID,
			ExpenseLabel: label,
			Savings:      a.Savings.Display(),
			Suggestion:   a.Suggestion,
			Benefits:     a.Benefits,
		})
	}
	return AlternativesPage{
		Layout: newLayout(PageAlternatives, snap, today),
		Cards:  cards,
	}
}

type AnalyticsPage struct {
	Layout
	Insights []analytics.Insight
}

func NewAnalyticsPage(snap state.Snapshot, today core.Date) AnalyticsPage {
	return AnalyticsPage{
		Layout:   newLayout(PageAnalytics, snap, today),
		Insights: analytics.GenerateInsights(snap.Expenses),
	}
}

type CategoryCard struct {
	Name       string
	Color      string
	Icon       string
	Total      string
	Count      int
	CountLabel string
}

type CategoriesPage struct {
	Layout
	Cards []CategoryCard
}

func NewCategoriesPage(snap state.Snapshot, today core.Date) CategoriesPage {
	summaries := analytics.CategorySummaries(snap.Expenses)
	cards := make([]CategoryCard, 0, len(summaries))
	for _, s := range summaries {
		cards = append(cards, CategoryCard{
			Name:       s.Category.String(),
			Color:      analytics.CategoryColor(s.Category),
			Icon:       analytics.CategoryIcon(s.Category),
			Total:      s.Total.Display(),
			Count:      s.Count,
			CountLabel: TransactionCount(s.Count),
		})
	}
	return CategoriesPage{
		Layout: newLayout(PageCategories, snap, today),
		Cards:  cards,
	}
}

// TransactionCount pluralises "transaction" for n.
func TransactionCount(n int) string {
	if n == 1 {
		return "1 transaction"
	}
	return strconv.Itoa(n) + " transactions"
}
