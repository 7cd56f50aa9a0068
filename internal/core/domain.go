package core

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

const (
	CategoryFood          Category = "Food"
	CategoryTransport     Category = "Transport"
	CategoryShopping      Category = "Shopping"
	CategoryBills         Category = "Bills"
	CategoryEntertainment Category = "Entertainment"
	CategoryHealth        Category = "Health"
	CategoryOther         Category = "Other"
)

// DateLayout is the ISO calendar date format used on the wire and as grouping key.
const DateLayout = "2006-01-02"

const (
	MaxDescriptionLength = 200
	MaxSuggestionLength  = 200
)

// Categories lists the fixed category set in display order.
var Categories = []Category{
	CategoryFood,
	CategoryTransport,
	CategoryShopping,
	CategoryBills,
	CategoryEntertainment,
	CategoryHealth,
	CategoryOther,
}

type (
	Category string

	Date struct {
		time.Time
	}

	Expense struct {
		ID          int64
		Description string
		Amount      Money
		Category    Category
		Date        Date
		Necessary   bool
		Notes       string
		// Alternative is the suggestion attached by the store, if any.
		Alternative *Alternative
		CreatedAt   time.Time
	}

	Alternative struct {
		ID         int64
		ExpenseID  int64
		Suggestion string
		Savings    Money
		Benefits   string
		CreatedAt  time.Time
	}

	// ExpenseDraft is a new expense before the store assigns its identifier.
	ExpenseDraft struct {
		Description string
		Amount      Money
		Category    Category
		Date        Date
		Necessary   bool
		Notes       string
	}

	// AlternativeDraft is a new alternative before the store assigns its identifier.
	AlternativeDraft struct {
		ExpenseID  int64
		Suggestion string
		Savings    Money
		Benefits   string
	}
)

var (
	ErrInvalidDate        = errors.New("invalid date")
	ErrInvalidAmount      = errors.New("invalid amount")
	ErrInvalidSavings     = errors.New("invalid savings")
	ErrInvalidCategory    = errors.New("invalid category")
	ErrEmptyDescription   = errors.New("empty description")
	ErrDescriptionTooLong = fmt.Errorf("description too long (max %d characters)", MaxDescriptionLength)
	ErrEmptySuggestion    = errors.New("empty suggestion")
	ErrSuggestionTooLong  = fmt.Errorf("suggestion too long (max %d characters)", MaxSuggestionLength)
	ErrMissingID          = errors.New("missing identifier")
	ErrMissingExpenseRef  = errors.New("missing expense reference")
	ErrNotFound           = errors.New("not found")
)

// IsValidation reports whether err was produced by record validation.
func IsValidation(err error) bool {
	for _, target := range []error{
		ErrInvalidDate, ErrInvalidAmount, ErrInvalidSavings, ErrInvalidCategory,
		ErrEmptyDescription, ErrDescriptionTooLong, ErrEmptySuggestion,
		ErrSuggestionTooLong, ErrMissingID, ErrMissingExpenseRef,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// ParseCategory matches s against the fixed category set.
func ParseCategory(s string) (Category, error) {
	s = strings.TrimSpace(s)
	for _, c := range Categories {
		if string(c) == s {
			return c, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidCategory, s)
}

func (c Category) Valid() bool {
	_, err := ParseCategory(string(c))
	return err == nil
}

func (c Category) String() string {
	return string(c)
}

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	return Date{Time: t}, nil
}

func (d Date) Validate() error {
	if d.IsZero() {
		return ErrInvalidDate
	}
	return nil
}

// String returns the ISO form used as the per-day grouping key.
func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(DateLayout)
}

// MonthKey returns the first seven characters of the ISO form (YYYY-MM).
func (d Date) MonthKey() string {
	s := d.String()
	if len(s) < 7 {
		return s
	}
	return s[:7]
}

func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.String() + `"`), nil
}

func (d *Date) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "null" {
		*d = Date{}
		return nil
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

func validateDescription(desc string) error {
	if len(strings.TrimSpace(desc)) == 0 {
		return ErrEmptyDescription
	}
	if len([]rune(desc)) > MaxDescriptionLength {
		return ErrDescriptionTooLong
	}
	return nil
}

func (e ExpenseDraft) Validate() error {
	if err := validateDescription(e.Description); err != nil {
		return err
	}
	if e.Amount.IsNegative() {
		return ErrInvalidAmount
	}
	if !e.Category.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidCategory, string(e.Category))
	}
	if err := e.Date.Validate(); err != nil {
		return err
	}
	return nil
}

// Validate checks a stored expense, including its identifier and any attached alternative.
func (e Expense) Validate() error {
	if e.ID <= 0 {
		return ErrMissingID
	}
	if err := e.Draft().Validate(); err != nil {
		return err
	}
	if e.Alternative != nil {
		if err := e.Alternative.Validate(); err != nil {
			return fmt.Errorf("attached alternative: %w", err)
		}
	}
	return nil
}

// Draft returns the user-supplied fields of the expense.
func (e Expense) Draft() ExpenseDraft {
	return ExpenseDraft{
		Description: e.Description,
		Amount:      e.Amount,
		Category:    e.Category,
		Date:        e.Date,
		Necessary:   e.Necessary,
		Notes:       e.Notes,
	}
}

func (a AlternativeDraft) Validate() error {
	if a.ExpenseID <= 0 {
		return ErrMissingExpenseRef
	}
	if len(strings.TrimSpace(a.Suggestion)) == 0 {
		return ErrEmptySuggestion
	}
	if len([]rune(a.Suggestion)) > MaxSuggestionLength {
		return ErrSuggestionTooLong
	}
	if a.Savings.IsNegative() {
		return ErrInvalidSavings
	}
	return nil
}

func (a Alternative) Validate() error {
	if a.ID <= 0 {
		return ErrMissingID
	}
	return a.Draft().Validate()
}

func (a Alternative) Draft() AlternativeDraft {
	return AlternativeDraft{
		ExpenseID:  a.ExpenseID,
		Suggestion: a.Suggestion,
		Savings:    a.Savings,
		Benefits:   a.Benefits,
	}
}

// WithAlternative returns a copy of e carrying alt.
func (e Expense) WithAlternative(alt *Alternative) Expense {
	if alt != nil {
		cp := *alt
		alt = &cp
	}
	e.Alternative = alt
	return e
}
