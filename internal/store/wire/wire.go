// Package wire holds the JSON shapes exchanged with the expense store.
package wire

import (
	"encoding/json"
	"log/slog"
	"strings"
	"time"

	"spendwise/internal/core"
)

// TimeLayout is used for created_at on output. Input also accepts naive
// timestamps without a zone.
const TimeLayout = time.RFC3339

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

type (
	Expense struct {
		ID          int64        `json:"id"`
		Description string       `json:"description"`
		Amount      core.Money   `json:"amount"`
		Category    string       `json:"category"`
		Date        string       `json:"date"`
		IsNecessary *bool        `json:"is_necessary,omitempty"`
		Notes       *string      `json:"notes"`
		Alternative *Alternative `json:"alternative,omitempty"`
		CreatedAt   string       `json:"created_at,omitempty"`
	}

	Alternative struct {
		ID         int64      `json:"id"`
		ExpenseID  int64      `json:"expense_id"`
		Suggestion string     `json:"suggestion"`
		Savings    core.Money `json:"savings"`
		Benefits   *string    `json:"benefits"`
		CreatedAt  string     `json:"created_at,omitempty"`
	}

	// ExpenseRequest is the body of POST /api/expenses.
	ExpenseRequest struct {
		Description string     `json:"description"`
		Amount      core.Money `json:"amount"`
		Category    string     `json:"category"`
		Date        string     `json:"date"`
		IsNecessary bool       `json:"is_necessary"`
		Notes       string     `json:"notes"`
	}

	// AlternativeRequest is the body of POST /api/alternatives.
	AlternativeRequest struct {
		ExpenseID  int64      `json:"expense_id"`
		Suggestion string     `json:"suggestion"`
		Savings    core.Money `json:"savings"`
		Benefits   string     `json:"benefits"`
	}

	// Envelope is the outer object of every store response. Collections are
	// kept raw so records can be validated one at a time.
	Envelope struct {
		Success      bool              `json:"success"`
		Message      string            `json:"message,omitempty"`
		Error        string            `json:"error,omitempty"`
		Expenses     []json.RawMessage `json:"expenses,omitempty"`
		Alternatives []json.RawMessage `json:"alternatives,omitempty"`
		Expense      json.RawMessage   `json:"expense,omitempty"`
		Alternative  json.RawMessage   `json:"alternative,omitempty"`
	}

	Stats struct {
		Total            core.Money            `json:"total"`
		Necessary        core.Money            `json:"necessary"`
		Unnecessary      core.Money            `json:"unnecessary"`
		PotentialSavings core.Money            `json:"potential_savings"`
		Categories       map[string]core.Money `json:"categories"`
		ExpenseCount     int                   `json:"expense_count"`
	}
)

func FromExpense(e core.Expense) Expense {
	necessary := e.Necessary
	notes := e.Notes
	w := Expense{
		ID:          e.ID,
		Description: e.Description,
		Amount:      e.Amount,
		Category:    e.Category.String(),
		Date:        e.Date.String(),
		IsNecessary: &necessary,
		Notes:       &notes,
		CreatedAt:   formatTime(e.CreatedAt),
	}
	if e.Alternative != nil {
		alt := FromAlternative(*e.Alternative)
		w.Alternative = &alt
	}
	return w
}

func FromAlternative(a core.Alternative) Alternative {
	benefits := a.Benefits
	return Alternative{
		ID:         a.ID,
		ExpenseID:  a.ExpenseID,
		Suggestion: a.Suggestion,
		Savings:    a.Savings,
		Benefits:   &benefits,
		CreatedAt:  formatTime(a.CreatedAt),
	}
}

// Expense converts and validates a stored record. A missing is_necessary
// flag means necessary.
func (w Expense) Expense() (core.Expense, error) {
	cat, err := core.ParseCategory(w.Category)
	if err != nil {
		return core.Expense{}, err
	}
	date, err := core.ParseDate(w.Date)
	if err != nil {
		return core.Expense{}, err
	}
	e := core.Expense{
		ID:          w.ID,
		Description: w.Description,
		Amount:      w.Amount,
		Category:    cat,
		Date:        date,
		Necessary:   w.IsNecessary == nil || *w.IsNecessary,
		Notes:       deref(w.Notes),
		CreatedAt:   parseTime(w.CreatedAt),
	}
	if err := e.Validate(); err != nil {
		return core.Expense{}, err
	}
	if w.Alternative != nil {
		alt, err := w.Alternative.Alternative()
		if err != nil {
			// The expense still counts; only the attachment is unusable.
			slog.Warn("Dropping invalid attached alternative",
				"expense_id", w.ID,
				"alternative_id", w.Alternative.ID,
				"error", err)
			return e, nil
		}
		e.Alternative = &alt
	}
	return e, nil
}

func (w Alternative) Alternative() (core.Alternative, error) {
	a := core.Alternative{
		ID:         w.ID,
		ExpenseID:  w.ExpenseID,
		Suggestion: w.Suggestion,
		Savings:    w.Savings,
		Benefits:   deref(w.Benefits),
		CreatedAt:  parseTime(w.CreatedAt),
	}
	if err := a.Validate(); err != nil {
		return core.Alternative{}, err
	}
	return a, nil
}

func NewExpenseRequest(d core.ExpenseDraft) ExpenseRequest {
	return ExpenseRequest{
		Description: d.Description,
		Amount:      d.Amount,
		Category:    d.Category.String(),
		Date:        d.Date.String(),
		IsNecessary: d.Necessary,
		Notes:       d.Notes,
	}
}

func NewAlternativeRequest(d core.AlternativeDraft) AlternativeRequest {
	return AlternativeRequest{
		ExpenseID:  d.ExpenseID,
		Suggestion: d.Suggestion,
		Savings:    d.Savings,
		Benefits:   d.Benefits,
	}
}

// DecodeExpenses validates each raw record. Records that fail are reported
// through skip and left out of the result.
func DecodeExpenses(raw []json.RawMessage, skip func(index int, err error)) []core.Expense {
	out := make([]core.Expense, 0, len(raw))
	for i, r := range raw {
		var w Expense
		if err := json.Unmarshal(r, &w); err != nil {
			skip(i, err)
			continue
		}
		e, err := w.Expense()
		if err != nil {
			skip(i, err)
			continue
		}
		out = append(out, e)
	}
	return out
}

func DecodeAlternatives(raw []json.RawMessage, skip func(index int, err error)) []core.Alternative {
	out := make([]core.Alternative, 0, len(raw))
	for i, r := range raw {
		var w Alternative
		if err := json.Unmarshal(r, &w); err != nil {
			skip(i, err)
			continue
		}
		a, err := w.Alternative()
		if err != nil {
			skip(i, err)
			continue
		}
		out = append(out, a)
	}
	return out
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(TimeLayout)
}

func parseTime(s string) time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC()
		}
	}
	return time.Time{}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
