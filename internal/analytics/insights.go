package analytics

import (
	"fmt"

	"spendwise/internal/core"
)

// Insight is a short derived observation shown on the analytics view.
type Insight struct {
	Title       string
	Description string
}

const (
	InsightUnnecessary = "Unnecessary Spending"
	InsightTopCategory = "Top Spending Category"
	InsightSavings     = "Savings Opportunity"
	InsightDaily       = "Daily Average"
)

// GenerateInsights returns up to four insights in a fixed order. Entries whose
// condition does not hold are omitted.
func GenerateInsights(expenses []core.Expense) []Insight {
	insights := []Insight{}
	stats := ComputeStats(expenses)

	if stats.Unnecessary.IsPositive() {
		pct := Percent(stats.Unnecessary, stats.Total, 1)
		insights = append(insights, Insight{
			Title: InsightUnnecessary,
			Description: fmt.Sprintf("%s%% of your expenses (%s) are unnecessary. Consider reducing these to save more.",
				pct.StringFixed(1), stats.Unnecessary.Display()),
		})
	}

	if top, ok := TopCategory(GroupByCategory(expenses)); ok {
		pct := Percent(top.Amount, stats.Total, 1)
		insights = append(insights, Insight{
			Title: InsightTopCategory,
			Description: fmt.Sprintf("You spend the most on %s (%s%% of total). Consider if this aligns with your priorities.",
				top.Category, pct.StringFixed(1)),
		})
	}

	if stats.PotentialSavings.IsPositive() {
		insights = append(insights, Insight{
			Title: InsightSavings,
			Description: fmt.Sprintf("By following suggested alternatives, you could save up to %s per month!",
				stats.PotentialSavings.Display()),
		})
	}

	if len(expenses) > 0 {
		insights = append(insights, Insight{
			Title: InsightDaily,
			Description: fmt.Sprintf("Your average daily spending is %s. Setting a daily budget can help you stay on track.",
				stats.DailyAverage().Display()),
		})
	}

	return insights
}

// TopCategory returns the category with the highest total. Ties go to the
// entry that appears first.
func TopCategory(totals []core.CategoryAmount) (core.CategoryAmount, bool) {
	if len(totals) == 0 {
		return core.CategoryAmount{}, false
	}
	top := totals[0]
	for _, t := range totals[1:] {
		if t.Amount.GreaterThan(top.Amount) {
			top = t
		}
	}
	return top, true
}
