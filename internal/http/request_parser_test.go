package http

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"spendwise/internal/core"
)

func parserFor(t *testing.T, body string) *RequestBodyParser {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/test", strings.NewReader(body))
	p := NewRequestBodyParser(req)
	if err := p.Parse(); err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	return p
}

func TestRequestBodyParser_JSON(t *testing.T) {
	p := parserFor(t, `{"expense_id": 123, "suggestion": "Cook", "savings": 42.5, "flag": true}`)

	if !p.IsJSON() {
		t.Error("Expected IsJSON() to be true")
	}
	if got := p.Get("expense_id"); got != "123" {
		t.Errorf("Get('expense_id') = %q, want '123'", got)
	}
	if got := p.Get("savings"); got != "42.5" {
		t.Errorf("Get('savings') = %q, want '42.5'", got)
	}
	if got := p.Get("flag"); got != "true" {
		t.Errorf("Get('flag') = %q, want 'true'", got)
	}
}

func TestRequestBodyParser_FormData(t *testing.T) {
	p := parserFor(t, "description=Weekly+shop&amount=12%2C50&notes=%20%20trimmed%01")

	if p.IsJSON() {
		t.Error("Expected IsJSON() to be false for form data")
	}
	if got := p.Get("description"); got != "Weekly shop" {
		t.Errorf("Get('description') = %q", got)
	}
	if got := p.Get("notes"); got != "trimmed" {
		t.Errorf("Get('notes') = %q, control characters should be stripped", got)
	}
}

func TestRequestBodyParser_EmptyBody(t *testing.T) {
	p := parserFor(t, "")
	if val := p.Get("nonexistent"); val != "" {
		t.Errorf("Get('nonexistent') = %q, want empty string", val)
	}
}

func TestRequestBodyParser_MalformedJSON(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/test", strings.NewReader(`{"broken":`))
	if err := NewRequestBodyParser(req).Parse(); err == nil {
		t.Error("expected an error for malformed JSON")
	}
}

func TestParseExpenseDraft(t *testing.T) {
	p := parserFor(t, "description=Lunch&amount=12%2C505&category=Food&date=2024-03-01&is_necessary=true&notes=team")
	d, err := ParseExpenseDraft(p)
	if err != nil {
		t.Fatalf("ParseExpenseDraft() error = %v", err)
	}
	if !d.Amount.Equal(core.MoneyFromCents(1251)) {
		t.Errorf("Amount = %s, want 12.51", d.Amount)
	}
	if d.Category != core.CategoryFood || !d.Necessary || d.Notes != "team" {
		t.Errorf("unexpected draft %+v", d)
	}
	if d.Date.String() != "2024-03-01" {
		t.Errorf("Date = %s", d.Date)
	}

	p = parserFor(t, "description=Lunch&amount=3&category=Food&date=2024-03-01&is_necessary=false")
	d, err = ParseExpenseDraft(p)
	if err != nil {
		t.Fatal(err)
	}
	if d.Necessary {
		t.Error("is_necessary=false should clear the flag")
	}
}

func TestParseExpenseDraft_Invalid(t *testing.T) {
	tests := []struct {
		name string
		body string
		want error
	}{
		{"negative amount", "description=x&amount=-1&category=Food&date=2024-03-01", core.ErrInvalidAmount},
		{"missing amount", "description=x&category=Food&date=2024-03-01", core.ErrInvalidAmount},
		{"unknown category", "description=x&amount=1&category=Pets&date=2024-03-01", core.ErrInvalidCategory},
		{"bad date", "description=x&amount=1&category=Food&date=yesterday", core.ErrInvalidDate},
		{"empty description", "description=&amount=1&category=Food&date=2024-03-01", core.ErrEmptyDescription},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseExpenseDraft(parserFor(t, tt.body))
			if !errors.Is(err, tt.want) {
				t.Errorf("error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestParseAlternativeDraft(t *testing.T) {
	d, err := ParseAlternativeDraft(parserFor(t, `{"expense_id": 4, "suggestion": "Bike", "savings": "7.5", "benefits": "Fitness"}`))
	if err != nil {
		t.Fatalf("ParseAlternativeDraft() error = %v", err)
	}
	if d.ExpenseID != 4 || d.Suggestion != "Bike" || d.Benefits != "Fitness" {
		t.Errorf("unexpected draft %+v", d)
	}
	if !d.Savings.Equal(core.MoneyFromCents(750)) {
		t.Errorf("Savings = %s", d.Savings)
	}

	if _, err := ParseAlternativeDraft(parserFor(t, "expense_id=abc&suggestion=x&savings=1")); !errors.Is(err, core.ErrMissingExpenseRef) {
		t.Errorf("error = %v, want ErrMissingExpenseRef", err)
	}
	if _, err := ParseAlternativeDraft(parserFor(t, "expense_id=1&suggestion=x&savings=-2")); !errors.Is(err, core.ErrInvalidSavings) {
		t.Errorf("error = %v, want ErrInvalidSavings", err)
	}
	if _, err := ParseAlternativeDraft(parserFor(t, "expense_id=1&suggestion=&savings=2")); !errors.Is(err, core.ErrEmptySuggestion) {
		t.Errorf("error = %v, want ErrEmptySuggestion", err)
	}
}

func TestParseFilterQuery(t *testing.T) {
	f, err := ParseFilterQuery(url.Values{"category": {"Bills"}, "type": {"necessary"}})
	if err != nil {
		t.Fatal(err)
	}
	if f.Category != core.CategoryBills || f.Necessity == nil || !*f.Necessity {
		t.Errorf("unexpected filter %+v", f)
	}

	if _, err := ParseFilterQuery(url.Values{"type": {"optional"}}); err == nil {
		t.Error("expected an error for an unknown type")
	}
}

func TestPathID(t *testing.T) {
	mux := http.NewServeMux()
	var got int64
	var gotErr error
	mux.HandleFunc("DELETE /expenses/{id}", func(w http.ResponseWriter, r *http.Request) {
		got, gotErr = PathID(r)
	})

	mux.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodDelete, "/expenses/42", nil))
	if gotErr != nil || got != 42 {
		t.Errorf("PathID = %d, %v", got, gotErr)
	}

	mux.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodDelete, "/expenses/0", nil))
	if gotErr == nil {
		t.Error("expected an error for id 0")
	}
}
