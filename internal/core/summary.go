package core

// CategoryAmount represents an amount aggregated by category.
type CategoryAmount struct {
	Category Category
	Amount   Money
}

// KeyedAmount is one point of an ordered series keyed by date or month.
type KeyedAmount struct {
	Key    string
	Amount Money
}

// Sum adds up the amounts of the given expenses.
func Sum(expenses []Expense) Money {
	total := Zero
	for _, e := range expenses {
		total = total.Add(e.Amount)
	}
	return total
}
