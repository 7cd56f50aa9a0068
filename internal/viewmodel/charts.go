package viewmodel

import (
	"spendwise/internal/analytics"
	"spendwise/internal/core"
)

// Chart is the JSON shape the page script hands to Chart.js.
type Chart struct {
	Type    string    `json:"type"`
	Label   string    `json:"label,omitempty"`
	Labels  []string  `json:"labels"`
	Values  []float64 `json:"values"`
	Colors  []string  `json:"colors,omitempty"`
	Percent []int     `json:"percent,omitempty"`
}

const (
	ChartDaily      = "daily"
	ChartMonthly    = "monthly"
	ChartCategories = "categories"
	ChartDoughnut   = "doughnut"
)

const lineColor = "#8b5cf6"

// DailyChart is the dashboard trend line over the most recent distinct dates.
func DailyChart(expenses []core.Expense) Chart {
	c := seriesChart("line", "Daily Expenses", analytics.LastN(analytics.GroupByDate(expenses), analytics.TrendWindow))
	c.Colors = []string{lineColor}
	return c
}

// MonthlyChart covers every month present, oldest first.
func MonthlyChart(expenses []core.Expense) Chart {
	c := seriesChart("bar", "Monthly Expenses", analytics.GroupByMonth(expenses))
	c.Colors = []string{lineColor}
	return c
}

// CategoryChart is the per-category breakdown in first-appearance order, with
// integer percentages for the doughnut legend.
func CategoryChart(expenses []core.Expense) Chart {
	totals := analytics.GroupByCategory(expenses)
	pct := analytics.PercentageBreakdown(totals)
	c := Chart{
		Type:    "bar",
		Label:   "Category Total",
		Labels:  make([]string, 0, len(totals)),
		Values:  make([]float64, 0, len(totals)),
		Colors:  make([]string, 0, len(totals)),
		Percent: make([]int, 0, len(totals)),
	}
	for _, t := range totals {
		c.Labels = append(c.Labels, t.Category.String())
		c.Values = append(c.Values, t.Amount.Float64())
		c.Colors = append(c.Colors, analytics.CategoryColor(t.Category))
		c.Percent = append(c.Percent, pct[t.Category])
	}
	return c
}

// BuildChart returns the named chart, or false for an unknown name.
func BuildChart(name string, expenses []core.Expense) (Chart, bool) {
	switch name {
	case ChartDaily:
		return DailyChart(expenses), true
	case ChartMonthly:
		return MonthlyChart(expenses), true
	case ChartCategories:
		return CategoryChart(expenses), true
	case ChartDoughnut:
		c := CategoryChart(expenses)
		c.Type = "doughnut"
		return c, true
	}
	return Chart{}, false
}

func seriesChart(typ, label string, series []core.KeyedAmount) Chart {
	c := Chart{
		Type:   typ,
		Label:  label,
		Labels: make([]string, 0, len(series)),
		Values: make([]float64, 0, len(series)),
	}
	for _, p := range series {
		c.Labels = append(c.Labels, p.Key)
		c.Values = append(c.Values, p.Amount.Float64())
	}
	return c
}
