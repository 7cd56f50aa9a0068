package services

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"spendwise/internal/amqp"
	"spendwise/internal/core"
	"spendwise/internal/store/memory"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []amqp.ChangeEvent
	err    error
}

func (p *recordingPublisher) PublishChange(_ context.Context, ev *amqp.ChangeEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, *ev)
	return p.err
}

func lunch() core.ExpenseDraft {
	return core.ExpenseDraft{
		Description: "Lunch",
		Amount:      core.MoneyFromCents(1250),
		Category:    core.CategoryFood,
		Date:        core.NewDate(2024, 3, 1),
		Necessary:   false,
	}
}

func TestExpenseService_PublishesChanges(t *testing.T) {
	ctx := context.Background()
	pub := &recordingPublisher{}
	svc := NewExpenseService(memory.New(), pub)

	e, err := svc.CreateExpense(ctx, lunch())
	require.NoError(t, err)
	a, err := svc.CreateAlternative(ctx, core.AlternativeDraft{ExpenseID: e.ID, Suggestion: "Pack lunch", Savings: core.MoneyFromCents(800)})
	require.NoError(t, err)
	require.NoError(t, svc.DeleteAlternative(ctx, a.ID))
	require.NoError(t, svc.DeleteExpense(ctx, e.ID))

	require.Len(t, pub.events, 4)
	assert.Equal(t, amqp.EntityExpense, pub.events[0].Entity)
	assert.Equal(t, amqp.ActionCreated, pub.events[0].Action)
	assert.Equal(t, e.ID, pub.events[1].ExpenseID)
	assert.Equal(t, amqp.ActionDeleted, pub.events[3].Action)
}

func TestExpenseService_PublishFailureDoesNotFailWrite(t *testing.T) {
	pub := &recordingPublisher{err: errors.New("circuit breaker is open")}
	svc := NewExpenseService(memory.New(), pub)

	_, err := svc.CreateExpense(context.Background(), lunch())
	assert.NoError(t, err)
}

func TestExpenseService_FailedWriteDoesNotPublish(t *testing.T) {
	pub := &recordingPublisher{}
	svc := NewExpenseService(memory.New(), pub)

	err := svc.DeleteExpense(context.Background(), 99)
	assert.ErrorIs(t, err, core.ErrNotFound)
	assert.Empty(t, pub.events)
}

func TestExpenseService_NilPublisher(t *testing.T) {
	svc := NewExpenseService(memory.New(), nil)
	_, err := svc.CreateExpense(context.Background(), lunch())
	assert.NoError(t, err)
	assert.NoError(t, svc.Close())
}

func TestExpenseService_StatsCountsEveryAlternative(t *testing.T) {
	ctx := context.Background()
	svc := NewExpenseService(memory.New(), nil)

	e, _ := svc.CreateExpense(ctx, lunch())
	rent := lunch()
	rent.Description = "Rent"
	rent.Category = core.CategoryBills
	rent.Amount = core.MoneyFromCents(50000)
	rent.Necessary = true
	_, _ = svc.CreateExpense(ctx, rent)
	_, _ = svc.CreateAlternative(ctx, core.AlternativeDraft{ExpenseID: e.ID, Suggestion: "A", Savings: core.MoneyFromCents(500)})
	_, _ = svc.CreateAlternative(ctx, core.AlternativeDraft{ExpenseID: e.ID, Suggestion: "B", Savings: core.MoneyFromCents(300)})

	stats, err := svc.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, "512.50", stats.Total.Fixed())
	assert.Equal(t, "500.00", stats.Necessary.Fixed())
	assert.Equal(t, "12.50", stats.Unnecessary.Fixed())
	assert.Equal(t, "8.00", stats.PotentialSavings.Fixed())
	assert.Equal(t, 2, stats.ExpenseCount)
	assert.Len(t, stats.Categories, 2)
}
