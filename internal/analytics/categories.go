package analytics

import (
	"spendwise/internal/core"
)

const (
	FallbackColor = "#6b7280"
	FallbackIcon  = "fas fa-dollar-sign"
)

var categoryColors = map[core.Category]string{
	core.CategoryFood:          "#ec4899",
	core.CategoryTransport:     "#8b5cf6",
	core.CategoryShopping:      "#3b82f6",
	core.CategoryBills:         "#06b6d4",
	core.CategoryEntertainment: "#f59e0b",
	core.CategoryHealth:        "#10b981",
	core.CategoryOther:         "#6b7280",
}

var categoryIcons = map[core.Category]string{
	core.CategoryFood:          "fas fa-utensils",
	core.CategoryTransport:     "fas fa-car",
	core.CategoryShopping:      "fas fa-shopping-bag",
	core.CategoryBills:         "fas fa-file-invoice-dollar",
	core.CategoryEntertainment: "fas fa-film",
	core.CategoryHealth:        "fas fa-heartbeat",
	core.CategoryOther:         "fas fa-ellipsis-h",
}

func CategoryColor(c core.Category) string {
	if color, ok := categoryColors[c]; ok {
		return color
	}
	return FallbackColor
}

func CategoryIcon(c core.Category) string {
	if icon, ok := categoryIcons[c]; ok {
		return icon
	}
	return FallbackIcon
}

// CategorySummary is one card of the categories view.
type CategorySummary struct {
	Category core.Category
	Total    core.Money
	Count    int
}

// CategorySummaries covers the full fixed category set in display order,
// including categories with no expenses.
func CategorySummaries(expenses []core.Expense) []CategorySummary {
	out := make([]CategorySummary, 0, len(core.Categories))
	for _, c := range core.Categories {
		matched := FilterExpenses(expenses, Filter{Category: c})
		out = append(out, CategorySummary{
			Category: c,
			Total:    core.Sum(matched),
			Count:    len(matched),
		})
	}
	return out
}
