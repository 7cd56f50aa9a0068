// Package remote talks to the expense store over its REST API.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"spendwise/internal/core"
	"spendwise/internal/store"
	"spendwise/internal/store/wire"
)

var _ store.Store = (*Client)(nil)

const maxBodyBytes = 4 << 20

// StatusError is returned for non-2xx store responses.
type StatusError struct {
	Method     string
	Path       string
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s %s: status %d: %s", e.Method, e.Path, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("%s %s: status %d", e.Method, e.Path, e.StatusCode)
}

func (e *StatusError) Unwrap() error {
	if e.StatusCode == http.StatusNotFound {
		return core.ErrNotFound
	}
	return nil
}

type Client struct {
	baseURL string
	http    *http.Client
}

// New creates a client for the store rooted at baseURL (the part before /api).
func New(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

// ListExpenses drops records that fail validation and logs them.
func (c *Client) ListExpenses(ctx context.Context) ([]core.Expense, error) {
	var env wire.Envelope
	if err := c.do(ctx, http.MethodGet, "/api/expenses", nil, &env); err != nil {
		return nil, err
	}
	return wire.DecodeExpenses(env.Expenses, skipLogger(ctx, "expense")), nil
}

func (c *Client) ListAlternatives(ctx context.Context) ([]core.Alternative, error) {
	var env wire.Envelope
	if err := c.do(ctx, http.MethodGet, "/api/alternatives", nil, &env); err != nil {
		return nil, err
	}
	return wire.DecodeAlternatives(env.Alternatives, skipLogger(ctx, "alternative")), nil
}

// CreateExpense only depends on the response status. The returned record is
// zero when the store's body cannot be decoded.
func (c *Client) CreateExpense(ctx context.Context, d core.ExpenseDraft) (core.Expense, error) {
	if err := d.Validate(); err != nil {
		return core.Expense{}, err
	}
	var env wire.Envelope
	if err := c.do(ctx, http.MethodPost, "/api/expenses", wire.NewExpenseRequest(d), &env); err != nil {
		return core.Expense{}, err
	}
	var w wire.Expense
	if len(env.Expense) == 0 || json.Unmarshal(env.Expense, &w) != nil {
		return core.Expense{}, nil
	}
	e, err := w.Expense()
	if err != nil {
		return core.Expense{}, nil
	}
	return e, nil
}

func (c *Client) DeleteExpense(ctx context.Context, id int64) error {
	return c.do(ctx, http.MethodDelete, "/api/expenses/"+strconv.FormatInt(id, 10), nil, nil)
}

func (c *Client) CreateAlternative(ctx context.Context, d core.AlternativeDraft) (core.Alternative, error) {
	if err := d.Validate(); err != nil {
		return core.Alternative{}, err
	}
	var env wire.Envelope
	if err := c.do(ctx, http.MethodPost, "/api/alternatives", wire.NewAlternativeRequest(d), &env); err != nil {
		return core.Alternative{}, err
	}
	var w wire.Alternative
	if len(env.Alternative) == 0 || json.Unmarshal(env.Alternative, &w) != nil {
		return core.Alternative{}, nil
	}
	a, err := w.Alternative()
	if err != nil {
		return core.Alternative{}, nil
	}
	return a, nil
}

func (c *Client) DeleteAlternative(ctx context.Context, id int64) error {
	return c.do(ctx, http.MethodDelete, "/api/alternatives/"+strconv.FormatInt(id, 10), nil, nil)
}

// Stats fetches the store-side summary.
func (c *Client) Stats(ctx context.Context) (wire.Stats, error) {
	var out struct {
		Success bool       `json:"success"`
		Stats   wire.Stats `json:"stats"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/stats", nil, &out); err != nil {
		return wire.Stats{}, err
	}
	return out.Stats, nil
}

// Ping checks that the store answers.
func (c *Client) Ping(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/api/stats", nil, nil)
}

func (c *Client) do(ctx context.Context, method, path string, body any, out any) error {
	var rdr io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode %s %s: %w", method, path, err)
		}
		rdr = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, rdr)
	if err != nil {
		return fmt.Errorf("build %s %s: %w", method, path, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return fmt.Errorf("read %s %s: %w", method, path, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		se := &StatusError{Method: method, Path: path, StatusCode: resp.StatusCode}
		var env wire.Envelope
		if json.Unmarshal(payload, &env) == nil {
			se.Message = env.Error
		}
		return se
	}

	if out == nil || len(payload) == 0 {
		return nil
	}
	if err := json.Unmarshal(payload, out); err != nil {
		// Writes only care about the status; reads must decode.
		if method != http.MethodGet {
			return nil
		}
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	return nil
}

func skipLogger(ctx context.Context, kind string) func(int, error) {
	return func(i int, err error) {
		slog.WarnContext(ctx, "Dropping invalid record from store", "kind", kind, "index", i, "error", err)
	}
}

// IsNotFound reports whether err is a 404 from the store.
func IsNotFound(err error) bool {
	return errors.Is(err, core.ErrNotFound)
}
