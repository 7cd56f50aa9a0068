// Package memory keeps the mirrored rows in process. The sheets worker uses
// it when no spreadsheet is configured.
package memory

import (
	"context"
	"sync"

	"spendwise/internal/core"
	"spendwise/internal/sheets"
)

var _ sheets.Mirror = (*Mirror)(nil)

type Mirror struct {
	mu      sync.Mutex
	rows    [][]interface{}
	summary [][]interface{}
	writes  int
}

func New() *Mirror {
	return &Mirror{}
}

func (m *Mirror) Mirror(_ context.Context, expenses []core.Expense) error {
	rows := sheets.ExpenseRows(expenses)
	summary := sheets.SummaryRows(expenses)
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows = rows
	m.summary = summary
	m.writes++
	return nil
}

// Rows returns the last mirrored expense rows, header included.
func (m *Mirror) Rows() [][]interface{} {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.rows
}

func (m *Mirror) Summary() [][]interface{} {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.summary
}

// Writes counts completed mirror calls.
func (m *Mirror) Writes() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.writes
}
