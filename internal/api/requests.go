package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"spendwise/internal/core"
)

const maxBodyBytes = 1 << 20

var (
	expenseRequired     = []string{"description", "amount", "category", "date"}
	alternativeRequired = []string{"expense_id", "suggestion", "savings"}
)

// errBadBody is returned for bodies that are not a JSON object.
var errBadBody = errors.New("Invalid JSON body")

type missingFieldError struct{ field string }

func (e missingFieldError) Error() string {
	return "Missing required field: " + e.field
}

type expenseInput struct {
	Description *string     `json:"description"`
	Amount      *core.Money `json:"amount"`
	Category    *string     `json:"category"`
	Date        *string     `json:"date"`
	IsNecessary *bool       `json:"is_necessary"`
	Notes       *string     `json:"notes"`
}

type alternativeInput struct {
	ExpenseID  *int64      `json:"expense_id"`
	Suggestion *string     `json:"suggestion"`
	Savings    *core.Money `json:"savings"`
	Benefits   *string     `json:"benefits"`
}

// decodeBody reads a JSON object into dst after checking that every field in
// required is present and not null.
func decodeBody(r *http.Request, dst any, required ...string) error {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		return fmt.Errorf("read body: %w", err)
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil || fields == nil {
		return errBadBody
	}
	for _, f := range required {
		if raw, ok := fields[f]; !ok || string(raw) == "null" {
			return missingFieldError{field: f}
		}
	}

	if err := json.Unmarshal(body, dst); err != nil {
		if errors.Is(err, core.ErrInvalidAmount) {
			return core.ErrInvalidAmount
		}
		return errBadBody
	}
	return nil
}

// draft converts a create request. is_necessary defaults to true.
func (in expenseInput) draft() (core.ExpenseDraft, error) {
	cat, err := core.ParseCategory(*in.Category)
	if err != nil {
		return core.ExpenseDraft{}, err
	}
	date, err := core.ParseDate(*in.Date)
	if err != nil {
		return core.ExpenseDraft{}, err
	}
	d := core.ExpenseDraft{
		Description: strings.TrimSpace(*in.Description),
		Amount:      *in.Amount,
		Category:    cat,
		Date:        date,
		Necessary:   true,
	}
	if in.IsNecessary != nil {
		d.Necessary = *in.IsNecessary
	}
	if in.Notes != nil {
		d.Notes = strings.TrimSpace(*in.Notes)
	}
	return d, d.Validate()
}

// patch converts an update request; absent fields keep their stored value.
func (in expenseInput) patch() (core.ExpensePatch, error) {
	p := core.ExpensePatch{
		Amount:    in.Amount,
		Necessary: in.IsNecessary,
		Notes:     in.Notes,
	}
	if in.Description != nil {
		desc := strings.TrimSpace(*in.Description)
		p.Description = &desc
	}
	if in.Category != nil {
		cat, err := core.ParseCategory(*in.Category)
		if err != nil {
			return core.ExpensePatch{}, err
		}
		p.Category = &cat
	}
	if in.Date != nil {
		date, err := core.ParseDate(*in.Date)
		if err != nil {
			return core.ExpensePatch{}, err
		}
		p.Date = &date
	}
	return p, nil
}

func (in alternativeInput) draft() (core.AlternativeDraft, error) {
	d := core.AlternativeDraft{
		ExpenseID:  *in.ExpenseID,
		Suggestion: strings.TrimSpace(*in.Suggestion),
		Savings:    *in.Savings,
	}
	if in.Benefits != nil {
		d.Benefits = strings.TrimSpace(*in.Benefits)
	}
	return d, d.Validate()
}
