package analytics

import (
	"spendwise/internal/core"
)

// Filter narrows an expense list. Zero-valued fields impose no constraint and
// set fields combine with AND.
type Filter struct {
	Category  core.Category
	Necessity *bool
	Date      core.Date
}

// IsEmpty reports whether the filter has no criteria.
func (f Filter) IsEmpty() bool {
	return f.Category == "" && f.Necessity == nil && f.Date.IsZero()
}

// Key is a stable representation used for memoising filtered views.
func (f Filter) Key() string {
	necessity := "any"
	if f.Necessity != nil {
		if *f.Necessity {
			necessity = "necessary"
		} else {
			necessity = "unnecessary"
		}
	}
	return string(f.Category) + "|" + necessity + "|" + f.Date.String()
}

func (f Filter) matches(e core.Expense) bool {
	if f.Category != "" && e.Category != f.Category {
		return false
	}
	if f.Necessity != nil && e.Necessary != *f.Necessity {
		return false
	}
	if !f.Date.IsZero() && e.Date.String() != f.Date.String() {
		return false
	}
	return true
}

// FilterExpenses returns a new slice with the matching expenses in their
// input order. The input slice is only read.
func FilterExpenses(expenses []core.Expense, f Filter) []core.Expense {
	out := make([]core.Expense, 0, len(expenses))
	for _, e := range expenses {
		if f.matches(e) {
			out = append(out, e)
		}
	}
	return out
}
