// Package analytics derives every displayed figure from the in-memory expense
// list: totals, per-date/month/category series, filtered views and insights.
//
// All functions are pure. They never modify the slice they receive and return
// freshly allocated results, so callers may pass a shared snapshot.
package analytics

import (
	"spendwise/internal/core"
)

// Stats holds the four dashboard totals.
type Stats struct {
	Total            core.Money
	Necessary        core.Money
	Unnecessary      core.Money
	PotentialSavings core.Money
}

// ComputeStats partitions the list by necessity and sums the savings of
// attached alternatives. Total is always Necessary + Unnecessary.
func ComputeStats(expenses []core.Expense) Stats {
	var s Stats
	for _, e := range expenses {
		if e.Necessary {
			s.Necessary = s.Necessary.Add(e.Amount)
		} else {
			s.Unnecessary = s.Unnecessary.Add(e.Amount)
		}
		if e.Alternative != nil {
			s.PotentialSavings = s.PotentialSavings.Add(e.Alternative.Savings)
		}
	}
	s.Total = s.Necessary.Add(s.Unnecessary)
	return s
}

// DailyAverageDivisor is the fixed number of days the total is spread over.
// It approximates a month and ignores the actual date range of the data.
const DailyAverageDivisor = 30

// DailyAverage returns total / 30.
func (s Stats) DailyAverage() core.Money {
	return s.Total.Div(DailyAverageDivisor)
}

// RecentExpenses returns the last n entries of the list, newest position first.
func RecentExpenses(expenses []core.Expense, n int) []core.Expense {
	if n <= 0 || len(expenses) == 0 {
		return []core.Expense{}
	}
	start := len(expenses) - n
	if start < 0 {
		start = 0
	}
	out := make([]core.Expense, 0, len(expenses)-start)
	for i := len(expenses) - 1; i >= start; i-- {
		out = append(out, expenses[i])
	}
	return out
}

// Unnecessary returns the expenses flagged as not necessary and their sum.
func Unnecessary(expenses []core.Expense) ([]core.Expense, core.Money) {
	necessary := false
	out := FilterExpenses(expenses, Filter{Necessity: &necessary})
	return out, core.Sum(out)
}
