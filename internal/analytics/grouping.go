package analytics

import (
	"sort"

	"github.com/shopspring/decimal"

	"spendwise/internal/core"
)

// TrendWindow is the number of most recent distinct dates shown on the daily chart.
const TrendWindow = 30

// GroupByDate sums amounts per distinct date, sorted ascending.
func GroupByDate(expenses []core.Expense) []core.KeyedAmount {
	return groupByKey(expenses, func(e core.Expense) string { return e.Date.String() })
}

// GroupByMonth sums amounts per YYYY-MM, sorted ascending. No window is applied.
func GroupByMonth(expenses []core.Expense) []core.KeyedAmount {
	return groupByKey(expenses, func(e core.Expense) string { return e.Date.MonthKey() })
}

func groupByKey(expenses []core.Expense, key func(core.Expense) string) []core.KeyedAmount {
	sums := make(map[string]core.Money)
	for _, e := range expenses {
		k := key(e)
		sums[k] = sums[k].Add(e.Amount)
	}
	keys := make([]string, 0, len(sums))
	for k := range sums {
		keys = append(keys, k)
	}
	// ISO dates sort chronologically as strings
	sort.Strings(keys)
	out := make([]core.KeyedAmount, 0, len(keys))
	for _, k := range keys {
		out = append(out, core.KeyedAmount{Key: k, Amount: sums[k]})
	}
	return out
}

// LastN keeps the final n points of an ordered series. These are the most
// recent distinct keys present in the data, not a calendar window.
func LastN(series []core.KeyedAmount, n int) []core.KeyedAmount {
	if n < 0 {
		n = 0
	}
	if len(series) > n {
		series = series[len(series)-n:]
	}
	out := make([]core.KeyedAmount, len(series))
	copy(out, series)
	return out
}

// GroupByCategory sums amounts per category present in the data, in order of
// first appearance. Absent categories are omitted.
func GroupByCategory(expenses []core.Expense) []core.CategoryAmount {
	index := make(map[core.Category]int)
	var out []core.CategoryAmount
	for _, e := range expenses {
		i, ok := index[e.Category]
		if !ok {
			i = len(out)
			index[e.Category] = i
			out = append(out, core.CategoryAmount{Category: e.Category})
		}
		out[i].Amount = out[i].Amount.Add(e.Amount)
	}
	if out == nil {
		out = []core.CategoryAmount{}
	}
	return out
}

// GrandTotal sums a category breakdown.
func GrandTotal(totals []core.CategoryAmount) core.Money {
	sum := core.Zero
	for _, t := range totals {
		sum = sum.Add(t.Amount)
	}
	return sum
}

var hundred = decimal.NewFromInt(100)

// Percent returns 100 * part / whole rounded to places decimals, half-up.
// A zero whole yields zero.
func Percent(part, whole core.Money, places int32) decimal.Decimal {
	if whole.IsZero() {
		return decimal.Zero
	}
	return part.Decimal().Mul(hundred).Div(whole.Decimal()).Round(places)
}

// PercentageBreakdown maps each category to its integer share of the grand
// total. All values are zero when the grand total is zero.
func PercentageBreakdown(totals []core.CategoryAmount) map[core.Category]int {
	grand := GrandTotal(totals)
	out := make(map[core.Category]int, len(totals))
	for _, t := range totals {
		out[t.Category] = int(Percent(t.Amount, grand, 0).IntPart())
	}
	return out
}
