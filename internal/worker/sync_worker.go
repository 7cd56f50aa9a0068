package worker

import (
	"context"
	"fmt"
	"log/slog"

	"spendwise/internal/amqp"
)

// Flusher is the part of the mirror processor the worker drives.
type Flusher interface {
	MarkDirty()
	SyncNow(ctx context.Context) error
}

// HeaderChecker is implemented by mirrors that can verify their layout.
type HeaderChecker interface {
	CheckHeader(ctx context.Context) (bool, error)
}

// Consumer delivers change events from the broker.
type Consumer interface {
	Consume(ctx context.Context, handler func(context.Context, *amqp.ChangeEvent) error) error
}

// SyncWorker keeps the spreadsheet mirror in step with store change events.
type SyncWorker struct {
	flusher Flusher
	checker HeaderChecker
}

// NewSyncWorker accepts a nil checker.
func NewSyncWorker(flusher Flusher, checker HeaderChecker) *SyncWorker {
	return &SyncWorker{
		flusher: flusher,
		checker: checker,
	}
}

// HandleChange marks the mirror dirty; the processor rewrites it on its next poll.
func (w *SyncWorker) HandleChange(ctx context.Context, msg *amqp.ChangeEvent) error {
	slog.InfoContext(ctx, "Processing change event",
		"entity", msg.Entity,
		"action", msg.Action,
		"id", msg.ID,
		"timestamp", msg.Timestamp)
	w.flusher.MarkDirty()
	return nil
}

// StartupSyncCheck verifies the sheet layout and rewrites the mirror once,
// recovering from events missed while the worker was down.
func (w *SyncWorker) StartupSyncCheck(ctx context.Context) error {
	if w.checker != nil {
		ok, err := w.checker.CheckHeader(ctx)
		if err != nil {
			slog.WarnContext(ctx, "Could not verify mirror header", "error", err)
		} else if !ok {
			slog.WarnContext(ctx, "Mirror header differs from expected layout, it will be overwritten")
		}
	}

	if err := w.flusher.SyncNow(ctx); err != nil {
		return fmt.Errorf("startup sync: %w", err)
	}
	slog.InfoContext(ctx, "Startup sync completed")
	return nil
}

// Run consumes change events until ctx ends.
func (w *SyncWorker) Run(ctx context.Context, consumer Consumer) error {
	return consumer.Consume(ctx, w.HandleChange)
}
