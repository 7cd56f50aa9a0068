package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"spendwise/internal/core"
	sheetsmem "spendwise/internal/sheets/memory"
	"spendwise/internal/store/memory"
)

type flakyMirror struct {
	mu    sync.Mutex
	fails int
	calls int
}

func (f *flakyMirror) Mirror(context.Context, []core.Expense) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.fails > 0 {
		f.fails--
		return errors.New("quota exceeded")
	}
	return nil
}

func (f *flakyMirror) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func fastConfig() MirrorProcessorConfig {
	return MirrorProcessorConfig{
		PollInterval:   10 * time.Millisecond,
		ResyncInterval: time.Hour,
		MaxRetries:     3,
	}
}

func TestDefaultMirrorProcessorConfig(t *testing.T) {
	config := DefaultMirrorProcessorConfig()

	if config.PollInterval != 2*time.Second {
		t.Errorf("expected PollInterval 2s, got %v", config.PollInterval)
	}
	if config.ResyncInterval != time.Hour {
		t.Errorf("expected ResyncInterval 1h, got %v", config.ResyncInterval)
	}
	if config.MaxRetries != 3 {
		t.Errorf("expected MaxRetries 3, got %d", config.MaxRetries)
	}
}

func TestMirrorProcessor_SyncNowReconciles(t *testing.T) {
	ctx := context.Background()
	st := memory.New()
	e, _ := st.CreateExpense(ctx, lunch())
	_, _ = st.CreateAlternative(ctx, core.AlternativeDraft{ExpenseID: e.ID, Suggestion: "Pack lunch", Savings: core.MoneyFromCents(800)})

	mirror := sheetsmem.New()
	p := NewMirrorProcessor(st, mirror, fastConfig())
	if err := p.SyncNow(ctx); err != nil {
		t.Fatalf("sync: %v", err)
	}

	rows := mirror.Rows()
	if len(rows) != 2 || rows[1][7] != "Pack lunch" {
		t.Fatalf("unexpected rows: %v", rows)
	}
	if stats := p.Stats(); stats.Synced != 1 || stats.LastSync.IsZero() {
		t.Errorf("unexpected stats: %+v", stats)
	}
}

func TestMirrorProcessor_StartTwice(t *testing.T) {
	p := NewMirrorProcessor(memory.New(), sheetsmem.New(), fastConfig())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := p.Start(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := p.Start(ctx); err == nil {
		t.Error("expected error when starting already running processor")
	}
	if !p.IsRunning() {
		t.Error("processor should be running")
	}
	if err := p.Stop(context.Background()); err != nil {
		t.Fatalf("stop: %v", err)
	}
	if p.IsRunning() {
		t.Error("processor should be stopped")
	}
}

func TestMirrorProcessor_StopNotRunning(t *testing.T) {
	p := NewMirrorProcessor(nil, nil, fastConfig())
	if err := p.Stop(context.Background()); err != nil {
		t.Errorf("Stop should not error when not running: %v", err)
	}
}

func TestMirrorProcessor_CoalescesChanges(t *testing.T) {
	mirror := sheetsmem.New()
	p := NewMirrorProcessor(memory.New(), mirror, fastConfig())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := p.Start(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer p.Stop(context.Background())

	waitFor(t, func() bool { return mirror.Writes() == 1 })

	for range 20 {
		p.MarkDirty()
	}
	waitFor(t, func() bool { return mirror.Writes() >= 2 })
	time.Sleep(50 * time.Millisecond)
	if got := mirror.Writes(); got != 2 {
		t.Errorf("expected a burst to collapse into one write, got %d writes", got)
	}
}

func TestMirrorProcessor_RetriesThenGivesUp(t *testing.T) {
	mirror := &flakyMirror{fails: 10}
	p := NewMirrorProcessor(memory.New(), mirror, fastConfig())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := p.Start(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer p.Stop(context.Background())

	waitFor(t, func() bool { return mirror.Calls() >= 3 })
	time.Sleep(60 * time.Millisecond)
	if got := mirror.Calls(); got != 3 {
		t.Errorf("expected 3 attempts before giving up, got %d", got)
	}
	if p.Stats().Pending {
		t.Error("processor should stop retrying until the next change")
	}
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met in time")
}
