// Package http provides HTTP server and handler implementations.
//
// This file implements utilities for parsing and validating HTTP request data:
// form and JSON bodies, the expense filter query and path identifiers.

package http

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"spendwise/internal/analytics"
	"spendwise/internal/core"
	"spendwise/internal/viewmodel"
)

const maxFormBytes = 64 << 10

// RequestBodyParser handles different content types for request body parsing.
// It supports both JSON and form-encoded data, commonly used with HTMX.
type RequestBodyParser struct {
	body     []byte
	jsonData map[string]any
	formData url.Values
	parsed   bool
	err      error
}

// NewRequestBodyParser creates a parser for the given request.
// It reads the body once and stores it for subsequent parsing.
func NewRequestBodyParser(r *http.Request) *RequestBodyParser {
	p := &RequestBodyParser{}
	p.body, p.err = io.ReadAll(io.LimitReader(r.Body, maxFormBytes))
	return p
}

// Parse attempts to parse the body as JSON or form data.
func (p *RequestBodyParser) Parse() error {
	if p.parsed {
		return p.err
	}
	p.parsed = true

	if p.err != nil {
		return p.err
	}

	if len(p.body) == 0 {
		p.formData = url.Values{}
		return nil
	}

	// Try JSON first if content looks like JSON
	if p.body[0] == '{' || p.body[0] == '[' {
		p.jsonData = make(map[string]any)
		if err := json.Unmarshal(p.body, &p.jsonData); err != nil {
			p.err = err
			return err
		}
		return nil
	}

	// Fall back to form parsing
	p.formData, p.err = url.ParseQuery(string(p.body))
	return p.err
}

// Get returns a string value from the parsed data (JSON or form).
func (p *RequestBodyParser) Get(key string) string {
	if p.jsonData != nil {
		if val, ok := p.jsonData[key]; ok {
			return strings.TrimSpace(sanitizeInput(stringValue(val)))
		}
	}
	if p.formData != nil {
		return strings.TrimSpace(sanitizeInput(p.formData.Get(key)))
	}
	return ""
}

// IsJSON returns true if the parsed content was JSON.
func (p *RequestBodyParser) IsJSON() bool {
	return p.jsonData != nil
}

// stringValue converts a decoded JSON value to string.
func stringValue(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	default:
		return ""
	}
}

// ParseExpenseDraft reads the add-expense form. The necessity flag is set
// only by an explicit true value.
func ParseExpenseDraft(p *RequestBodyParser) (core.ExpenseDraft, error) {
	amount, err := core.ParseAmount(p.Get("amount"))
	if err != nil {
		return core.ExpenseDraft{}, err
	}
	category, err := core.ParseCategory(p.Get("category"))
	if err != nil {
		return core.ExpenseDraft{}, err
	}
	date, err := core.ParseDate(p.Get("date"))
	if err != nil {
		return core.ExpenseDraft{}, err
	}
	d := core.ExpenseDraft{
		Description: p.Get("description"),
		Amount:      amount,
		Category:    category,
		Date:        date,
		Necessary:   parseBool(p.Get("is_necessary")),
		Notes:       p.Get("notes"),
	}
	return d, d.Validate()
}

// ParseAlternativeDraft reads the add-alternative form.
func ParseAlternativeDraft(p *RequestBodyParser) (core.AlternativeDraft, error) {
	id, err := strconv.ParseInt(p.Get("expense_id"), 10, 64)
	if err != nil || id <= 0 {
		return core.AlternativeDraft{}, core.ErrMissingExpenseRef
	}
	savings, err := core.ParseAmount(p.Get("savings"))
	if err != nil {
		return core.AlternativeDraft{}, core.ErrInvalidSavings
	}
	d := core.AlternativeDraft{
		ExpenseID:  id,
		Suggestion: p.Get("suggestion"),
		Savings:    savings,
		Benefits:   p.Get("benefits"),
	}
	return d, d.Validate()
}

// ParseFilterQuery reads the expenses view filter from the query string.
func ParseFilterQuery(q url.Values) (analytics.Filter, error) {
	return viewmodel.ParseFilter(
		strings.TrimSpace(q.Get("category")),
		strings.TrimSpace(q.Get("type")),
		strings.TrimSpace(q.Get("date")),
	)
}

// PathID parses the {id} path segment.
func PathID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q", r.PathValue("id"))
	}
	return id, nil
}
