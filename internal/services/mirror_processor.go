package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"spendwise/internal/sheets"
	"spendwise/internal/state"
)

// MirrorProcessorConfig holds configuration for the mirror processor
type MirrorProcessorConfig struct {
	// PollInterval is how often pending changes are flushed (default: 2s)
	PollInterval time.Duration

	// ResyncInterval forces a full rewrite even without changes (default: 1h)
	ResyncInterval time.Duration

	// MaxRetries is how many consecutive failed flushes are attempted before
	// waiting for the next change (default: 3)
	MaxRetries int
}

func DefaultMirrorProcessorConfig() MirrorProcessorConfig {
	return MirrorProcessorConfig{
		PollInterval:   2 * time.Second,
		ResyncInterval: time.Hour,
		MaxRetries:     3,
	}
}

// MirrorStats describes the processor's progress.
type MirrorStats struct {
	LastSync time.Time
	Synced   int64
	Failures int
	Pending  bool
}

// MirrorProcessor rewrites the spreadsheet mirror from the store. Change
// notifications only mark the mirror dirty; bursts collapse into one write
// per poll interval.
type MirrorProcessor struct {
	source state.Source
	mirror sheets.Mirror
	config MirrorProcessorConfig

	dirty atomic.Bool

	statsMu  sync.Mutex
	lastSync time.Time
	synced   int64
	failures int

	// Lifecycle management
	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

func NewMirrorProcessor(source state.Source, mirror sheets.Mirror, config MirrorProcessorConfig) *MirrorProcessor {
	return &MirrorProcessor{
		source: source,
		mirror: mirror,
		config: config,
	}
}

// Start begins the processing loop. Returns an error if already running.
func (p *MirrorProcessor) Start(ctx context.Context) error {
	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		return fmt.Errorf("mirror processor is already running")
	}
	p.running = true
	p.stopCh = make(chan struct{})
	p.doneCh = make(chan struct{})
	p.mu.Unlock()

	p.MarkDirty()
	go p.runLoop(ctx)

	slog.InfoContext(ctx, "Mirror processor started",
		"poll_interval", p.config.PollInterval,
		"resync_interval", p.config.ResyncInterval)

	return nil
}

// Stop gracefully stops the processor and waits for completion.
func (p *MirrorProcessor) Stop(ctx context.Context) error {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return nil
	}
	stopCh, doneCh := p.stopCh, p.doneCh
	p.mu.Unlock()

	close(stopCh)

	select {
	case <-doneCh:
		slog.InfoContext(ctx, "Mirror processor stopped gracefully")
	case <-ctx.Done():
		slog.WarnContext(ctx, "Mirror processor stop timed out")
		return ctx.Err()
	}

	p.mu.Lock()
	p.running = false
	p.mu.Unlock()

	return nil
}

func (p *MirrorProcessor) IsRunning() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.running
}

// MarkDirty schedules a rewrite on the next poll.
func (p *MirrorProcessor) MarkDirty() {
	p.dirty.Store(true)
}

func (p *MirrorProcessor) Stats() MirrorStats {
	p.statsMu.Lock()
	defer p.statsMu.Unlock()
	return MirrorStats{
		LastSync: p.lastSync,
		Synced:   p.synced,
		Failures: p.failures,
		Pending:  p.dirty.Load(),
	}
}

// SyncNow reads the full expense list and rewrites the mirror.
func (p *MirrorProcessor) SyncNow(ctx context.Context) error {
	expenses, err := p.source.ListExpenses(ctx)
	if err != nil {
		return fmt.Errorf("list expenses: %w", err)
	}
	alternatives, err := p.source.ListAlternatives(ctx)
	if err != nil {
		return fmt.Errorf("list alternatives: %w", err)
	}
	expenses = state.Reconcile(expenses, alternatives)

	if err := p.mirror.Mirror(ctx, expenses); err != nil {
		return fmt.Errorf("write mirror: %w", err)
	}

	p.statsMu.Lock()
	p.lastSync = time.Now()
	p.synced++
	p.failures = 0
	p.statsMu.Unlock()
	return nil
}

func (p *MirrorProcessor) runLoop(ctx context.Context) {
	defer close(p.doneCh)

	pollTicker := time.NewTicker(p.config.PollInterval)
	defer pollTicker.Stop()

	resyncTicker := time.NewTicker(p.config.ResyncInterval)
	defer resyncTicker.Stop()

	p.flush(ctx)

	for {
		select {
		case <-p.stopCh:
			return
		case <-ctx.Done():
			return
		case <-pollTicker.C:
			p.flush(ctx)
		case <-resyncTicker.C:
			p.MarkDirty()
		}
	}
}

func (p *MirrorProcessor) flush(ctx context.Context) {
	if !p.dirty.Swap(false) {
		return
	}
	err := p.SyncNow(ctx)
	if err == nil {
		slog.DebugContext(ctx, "Mirror flushed")
		return
	}

	p.statsMu.Lock()
	p.failures++
	failures := p.failures
	p.statsMu.Unlock()

	if failures >= p.config.MaxRetries {
		slog.ErrorContext(ctx, "Mirror sync failed after max retries, waiting for next change",
			"attempts", failures,
			"error", err)
		p.statsMu.Lock()
		p.failures = 0
		p.statsMu.Unlock()
		return
	}

	slog.WarnContext(ctx, "Mirror sync failed, will retry",
		"attempt", failures,
		"error", err)
	p.MarkDirty()
}
