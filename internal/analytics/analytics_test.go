package analytics

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"spendwise/internal/core"
)

func expense(id int64, cents int64, necessary bool, cat core.Category, date string) core.Expense {
	d, err := core.ParseDate(date)
	if err != nil {
		panic(err)
	}
	return core.Expense{
		ID:          id,
		Description: fmt.Sprintf("expense %d", id),
		Amount:      core.MoneyFromCents(cents),
		Category:    cat,
		Date:        d,
		Necessary:   necessary,
	}
}

func sampleExpenses() []core.Expense {
	shopping := expense(2, 3000, false, core.CategoryShopping, "2024-01-01")
	shopping.Alternative = &core.Alternative{ID: 1, ExpenseID: 2, Suggestion: "Wait a week", Savings: core.MoneyFromCents(1000)}
	return []core.Expense{
		expense(1, 5000, true, core.CategoryFood, "2024-01-01"),
		shopping,
	}
}

func money(cents int64) core.Money { return core.MoneyFromCents(cents) }

func assertMoney(t *testing.T, want, got core.Money, msgAndArgs ...any) {
	t.Helper()
	assert.True(t, want.Equal(got), append([]any{"want %s got %s", want, got}, msgAndArgs...)...)
}

func TestComputeStats(t *testing.T) {
	stats := ComputeStats(sampleExpenses())
	assertMoney(t, money(8000), stats.Total)
	assertMoney(t, money(5000), stats.Necessary)
	assertMoney(t, money(3000), stats.Unnecessary)
	assertMoney(t, money(1000), stats.PotentialSavings)
}

func TestComputeStatsEmpty(t *testing.T) {
	stats := ComputeStats(nil)
	assert.True(t, stats.Total.IsZero())
	assert.True(t, stats.Necessary.IsZero())
	assert.True(t, stats.Unnecessary.IsZero())
	assert.True(t, stats.PotentialSavings.IsZero())
}

func TestComputeStatsTotalIsPartitionSum(t *testing.T) {
	lists := [][]core.Expense{
		sampleExpenses(),
		{expense(1, 1, false, core.CategoryOther, "2024-02-01")},
		{expense(1, 999, true, core.CategoryBills, "2024-02-01"), expense(2, 1, true, core.CategoryBills, "2024-02-03")},
	}
	for i, list := range lists {
		s := ComputeStats(list)
		assertMoney(t, s.Necessary.Add(s.Unnecessary), s.Total, "list %d", i)
	}
}

func TestGroupByDate(t *testing.T) {
	list := []core.Expense{
		expense(1, 500, true, core.CategoryFood, "2024-01-03"),
		expense(2, 200, true, core.CategoryFood, "2024-01-01"),
		expense(3, 300, false, core.CategoryFood, "2024-01-01"),
	}
	got := GroupByDate(list)
	require.Len(t, got, 2)
	assert.Equal(t, "2024-01-01", got[0].Key)
	assertMoney(t, money(500), got[0].Amount)
	assert.Equal(t, "2024-01-03", got[1].Key)
	assertMoney(t, money(500), got[1].Amount)
}

func TestLastNKeepsMostRecentDistinctDates(t *testing.T) {
	var list []core.Expense
	for day := 1; day <= 35; day++ {
		// every other calendar day, so the window spans more than 30 days
		d := core.NewDate(2024, 1, 1).AddDate(0, 0, 2*(day-1))
		list = append(list, core.Expense{ID: int64(day), Amount: money(100), Category: core.CategoryFood, Date: core.Date{Time: d}})
	}
	series := LastN(GroupByDate(list), TrendWindow)
	require.Len(t, series, 30)
	assert.Equal(t, core.Date{Time: core.NewDate(2024, 1, 1).AddDate(0, 0, 10)}.String(), series[0].Key)

	short := LastN(GroupByDate(list[:3]), TrendWindow)
	assert.Len(t, short, 3)
}

func TestGroupByMonth(t *testing.T) {
	list := []core.Expense{
		expense(1, 100, true, core.CategoryFood, "2024-02-10"),
		expense(2, 250, true, core.CategoryFood, "2023-12-31"),
		expense(3, 50, false, core.CategoryHealth, "2024-02-01"),
	}
	got := GroupByMonth(list)
	require.Len(t, got, 2)
	assert.Equal(t, "2023-12", got[0].Key)
	assertMoney(t, money(250), got[0].Amount)
	assert.Equal(t, "2024-02", got[1].Key)
	assertMoney(t, money(150), got[1].Amount)
}

func TestGroupByCategoryOnlyPresentInFirstAppearanceOrder(t *testing.T) {
	list := []core.Expense{
		expense(1, 100, true, core.CategoryHealth, "2024-01-01"),
		expense(2, 200, true, core.CategoryFood, "2024-01-01"),
		expense(3, 300, true, core.CategoryHealth, "2024-01-02"),
	}
	got := GroupByCategory(list)
	require.Len(t, got, 2)
	assert.Equal(t, core.CategoryHealth, got[0].Category)
	assertMoney(t, money(400), got[0].Amount)
	assert.Equal(t, core.CategoryFood, got[1].Category)

	assert.Empty(t, GroupByCategory(nil))
}

func TestGroupByCategoryMatchesFilteredSums(t *testing.T) {
	list := append(sampleExpenses(),
		expense(3, 1234, true, core.CategoryFood, "2024-01-05"),
		expense(4, 99, false, core.CategoryTransport, "2024-01-06"),
	)
	for _, ca := range GroupByCategory(list) {
		filtered := FilterExpenses(list, Filter{Category: ca.Category})
		assertMoney(t, core.Sum(filtered), ca.Amount, string(ca.Category))
	}
}

func TestPercentageBreakdown(t *testing.T) {
	t.Run("half up", func(t *testing.T) {
		got := PercentageBreakdown([]core.CategoryAmount{
			{Category: core.CategoryFood, Amount: money(100)},
			{Category: core.CategoryBills, Amount: money(700)},
		})
		assert.Equal(t, 13, got[core.CategoryFood])
		assert.Equal(t, 88, got[core.CategoryBills])
	})

	t.Run("sums to about 100", func(t *testing.T) {
		totals := []core.CategoryAmount{
			{Category: core.CategoryFood, Amount: money(100)},
			{Category: core.CategoryBills, Amount: money(100)},
			{Category: core.CategoryHealth, Amount: money(100)},
		}
		sum := 0
		for _, p := range PercentageBreakdown(totals) {
			sum += p
		}
		assert.InDelta(t, 100, sum, float64(len(totals)))
	})

	t.Run("zero grand total", func(t *testing.T) {
		got := PercentageBreakdown([]core.CategoryAmount{
			{Category: core.CategoryFood, Amount: core.Zero},
			{Category: core.CategoryOther, Amount: core.Zero},
		})
		assert.Equal(t, map[core.Category]int{core.CategoryFood: 0, core.CategoryOther: 0}, got)
	})
}

func TestFilterExpenses(t *testing.T) {
	list := []core.Expense{
		expense(1, 100, true, core.CategoryFood, "2024-01-01"),
		expense(2, 200, false, core.CategoryFood, "2024-01-02"),
		expense(3, 300, false, core.CategoryShopping, "2024-01-02"),
	}
	unnecessary := false
	date, _ := core.ParseDate("2024-01-02")

	cases := []struct {
		name string
		f    Filter
		ids  []int64
	}{
		{"no criteria", Filter{}, []int64{1, 2, 3}},
		{"category", Filter{Category: core.CategoryFood}, []int64{1, 2}},
		{"necessity", Filter{Necessity: &unnecessary}, []int64{2, 3}},
		{"date", Filter{Date: date}, []int64{2, 3}},
		{"all combined", Filter{Category: core.CategoryFood, Necessity: &unnecessary, Date: date}, []int64{2}},
		{"no match", Filter{Category: core.CategoryHealth}, []int64{}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := FilterExpenses(list, tc.f)
			ids := make([]int64, 0, len(got))
			for _, e := range got {
				ids = append(ids, e.ID)
			}
			assert.Equal(t, tc.ids, ids)
		})
	}
}

func TestFilterExpensesDoesNotMutateSource(t *testing.T) {
	list := sampleExpenses()
	before := make([]core.Expense, len(list))
	copy(before, list)

	all := FilterExpenses(list, Filter{})
	assert.Equal(t, before, list)
	assert.Equal(t, list, all)

	all[0].Description = "changed"
	food := FilterExpenses(list, Filter{Category: core.CategoryFood})
	food[0].Amount = money(1)

	assert.Equal(t, before, list)
}

func TestGenerateInsights(t *testing.T) {
	got := GenerateInsights(sampleExpenses())
	require.Len(t, got, 4)

	assert.Equal(t, InsightUnnecessary, got[0].Title)
	assert.Equal(t, "37.5% of your expenses ($30.00) are unnecessary. Consider reducing these to save more.", got[0].Description)

	assert.Equal(t, InsightTopCategory, got[1].Title)
	assert.Equal(t, "You spend the most on Food (62.5% of total). Consider if this aligns with your priorities.", got[1].Description)

	assert.Equal(t, InsightSavings, got[2].Title)
	assert.Equal(t, "By following suggested alternatives, you could save up to $10.00 per month!", got[2].Description)

	assert.Equal(t, InsightDaily, got[3].Title)
	assert.Equal(t, "Your average daily spending is $2.67. Setting a daily budget can help you stay on track.", got[3].Description)
}

func TestGenerateInsightsOmitsUnmetConditions(t *testing.T) {
	assert.Empty(t, GenerateInsights(nil))

	onlyNecessary := []core.Expense{expense(1, 3000, true, core.CategoryBills, "2024-01-01")}
	got := GenerateInsights(onlyNecessary)
	require.Len(t, got, 2)
	assert.Equal(t, InsightTopCategory, got[0].Title)
	assert.Equal(t, InsightDaily, got[1].Title)
	assert.Contains(t, got[0].Description, "Bills (100.0% of total)")
	assert.Contains(t, got[1].Description, "$1.00")
}

func TestTopCategoryTieGoesToFirstEncountered(t *testing.T) {
	list := []core.Expense{
		expense(1, 4000, true, core.CategoryShopping, "2024-01-01"),
		expense(2, 4000, true, core.CategoryFood, "2024-01-01"),
	}
	top, ok := TopCategory(GroupByCategory(list))
	require.True(t, ok)
	assert.Equal(t, core.CategoryShopping, top.Category)

	_, ok = TopCategory(nil)
	assert.False(t, ok)
}

func TestRecentExpenses(t *testing.T) {
	var list []core.Expense
	for i := int64(1); i <= 7; i++ {
		list = append(list, expense(i, 100, true, core.CategoryFood, "2024-01-01"))
	}
	got := RecentExpenses(list, 5)
	ids := make([]int64, 0, len(got))
	for _, e := range got {
		ids = append(ids, e.ID)
	}
	assert.Equal(t, []int64{7, 6, 5, 4, 3}, ids)
	assert.Len(t, RecentExpenses(list[:2], 5), 2)
	assert.Empty(t, RecentExpenses(nil, 5))
}

func TestUnnecessary(t *testing.T) {
	list, total := Unnecessary(sampleExpenses())
	require.Len(t, list, 1)
	assert.Equal(t, int64(2), list[0].ID)
	assertMoney(t, money(3000), total)
}

func TestCategorySummariesCoverFixedSet(t *testing.T) {
	got := CategorySummaries(sampleExpenses())
	require.Len(t, got, 7)
	for i, c := range core.Categories {
		assert.Equal(t, c, got[i].Category)
	}
	assert.Equal(t, 1, got[0].Count)
	assertMoney(t, money(5000), got[0].Total)
	assert.Equal(t, 0, got[1].Count)
	assert.True(t, got[1].Total.IsZero())
}

func TestCategoryPresentation(t *testing.T) {
	assert.Equal(t, "#ec4899", CategoryColor(core.CategoryFood))
	assert.Equal(t, "fas fa-heartbeat", CategoryIcon(core.CategoryHealth))
	assert.Equal(t, FallbackColor, CategoryColor("Travel"))
	assert.Equal(t, FallbackIcon, CategoryIcon("Travel"))
}
