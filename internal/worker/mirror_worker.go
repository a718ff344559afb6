// Package worker keeps the spreadsheet mirror in step with ledger events.
package worker

import (
	"context"
	"fmt"
	"log/slog"

	"taktsiv/internal/amqp"
	"taktsiv/internal/sheets"
	"taktsiv/internal/storage"
)

// MirrorWorker applies ledger events to the spreadsheet mirror. The store
// is the source of truth; events only say which part to re-read.
type MirrorWorker struct {
	store  *storage.Store
	mirror sheets.ExpenseMirror
	logger *slog.Logger
}

func NewMirrorWorker(store *storage.Store, mirror sheets.ExpenseMirror, logger *slog.Logger) *MirrorWorker {
	return &MirrorWorker{
		store:  store,
		mirror: mirror,
		logger: logger,
	}
}

// HandleEvent dispatches one ledger event. Returning an error makes the
// consumer nack-requeue the delivery.
func (w *MirrorWorker) HandleEvent(ctx context.Context, event *amqp.LedgerEvent) error {
	switch event.Kind {
	case amqp.EventExpensePosted:
		return w.handlePosted(ctx, event.ExpenseID)
	case amqp.EventExpenseDeleted:
		return w.handleDeleted(ctx, event.ExpenseID)
	case amqp.EventRolloverCompleted:
		return w.handleRollover(ctx, event.Month)
	default:
		w.logger.WarnContext(ctx, "unknown ledger event kind, dropping",
			"component", "worker",
			"kind", event.Kind)
		return nil
	}
}

func (w *MirrorWorker) handlePosted(ctx context.Context, id string) error {
	ledger, err := w.store.LoadLedger(ctx)
	if err != nil {
		return fmt.Errorf("load ledger: %w", err)
	}
	e, ok := ledger.FindExpense(id)
	if !ok {
		// Deleted before the mirror caught up; nothing to append.
		w.logger.WarnContext(ctx, "expense vanished before mirroring",
			"component", "worker",
			"id", id)
		return nil
	}

	ref, err := w.mirror.AppendExpense(ctx, e)
	if err != nil {
		return fmt.Errorf("append expense %s: %w", id, err)
	}
	w.logger.InfoContext(ctx, "expense mirrored",
		"component", "worker",
		"id", id,
		"row", ref)
	return nil
}

func (w *MirrorWorker) handleDeleted(ctx context.Context, id string) error {
	if err := w.mirror.DeleteExpense(ctx, id); err != nil {
		return fmt.Errorf("delete expense row %s: %w", id, err)
	}
	w.logger.InfoContext(ctx, "expense row removed from mirror",
		"component", "worker",
		"id", id)
	return nil
}

// handleRollover re-mirrors the archived month from its report so the
// sheet matches the snapshot exactly.
func (w *MirrorWorker) handleRollover(ctx context.Context, month string) error {
	archive, err := w.store.LoadArchive(ctx)
	if err != nil {
		return fmt.Errorf("load archive: %w", err)
	}
	report, ok := archive[month]
	if !ok {
		return fmt.Errorf("archived report %s not found", month)
	}

	if err := w.mirror.ReplaceMonth(ctx, month, report.Expenses); err != nil {
		return fmt.Errorf("replace month %s: %w", month, err)
	}
	w.logger.InfoContext(ctx, "archived month re-mirrored",
		"component", "worker",
		"month", month,
		"rows", len(report.Expenses))
	return nil
}
