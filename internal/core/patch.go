package core

// ExpensePatch carries a partial update. Nil fields are left unchanged.
type ExpensePatch struct {
	Description *string
	Amount      *Money
	Category    *Category
	Date        *Date
	Necessary   *bool
	Notes       *string
}

// Apply returns e with the patch applied and validates the result.
func (p ExpensePatch) Apply(e Expense) (Expense, error) {
	if p.Description != nil {
		e.Description = *p.Description
	}
	if p.Amount != nil {
		e.Amount = *p.Amount
	}
	if p.Category != nil {
		e.Category = *p.Category
	}
	if p.Date != nil {
		e.Date = *p.Date
	}
	if p.Necessary != nil {
		e.Necessary = *p.Necessary
	}
	if p.Notes != nil {
		e.Notes = *p.Notes
	}
	if err := e.Draft().Validate(); err != nil {
		return Expense{}, err
	}
	return e, nil
}

// IsEmpty reports whether no field is set.
func (p ExpensePatch) IsEmpty() bool {
	return p.Description == nil && p.Amount == nil && p.Category == nil &&
		p.Date == nil && p.Necessary == nil && p.Notes == nil
}
