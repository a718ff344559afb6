package worker

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"taktsiv/internal/amqp"
	"taktsiv/internal/core"
	"taktsiv/internal/sheets/memory"
	"taktsiv/internal/storage"
)

func newTestWorker(t *testing.T) (*MirrorWorker, *storage.Store, *memory.Store) {
	t.Helper()
	store := storage.NewStore(storage.NewMemoryDriver())
	mirror := memory.New()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewMirrorWorker(store, mirror, logger), store, mirror
}

func seedExpense(t *testing.T, store *storage.Store, e core.Expense) {
	t.Helper()
	ledger, err := store.LoadLedger(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	ledger.Expenses = append(ledger.Expenses, e)
	if err := store.SaveLedger(context.Background(), ledger); err != nil {
		t.Fatal(err)
	}
}

func TestHandlePostedMirrorsExpense(t *testing.T) {
	w, store, mirror := newTestWorker(t)
	ctx := context.Background()

	e := core.Expense{
		ID:       "e1",
		Category: core.CategoryFuel,
		Amount:   core.FromShekels(50),
		Date:     time.Date(2025, time.March, 15, 0, 0, 0, 0, core.Location()),
	}
	seedExpense(t, store, e)

	if err := w.HandleEvent(ctx, amqp.NewLedgerEvent(amqp.EventExpensePosted, "e1", "")); err != nil {
		t.Fatal(err)
	}
	rows := mirror.Rows()
	if len(rows) != 1 || rows[0].ID != "e1" {
		t.Errorf("mirror rows = %+v", rows)
	}
}

func TestHandlePostedVanishedExpense(t *testing.T) {
	w, _, mirror := newTestWorker(t)

	// Posted then deleted before the worker ran: drop, don't requeue.
	if err := w.HandleEvent(context.Background(), amqp.NewLedgerEvent(amqp.EventExpensePosted, "gone", "")); err != nil {
		t.Fatalf("vanished expense should not error: %v", err)
	}
	if len(mirror.Rows()) != 0 {
		t.Error("nothing should be mirrored")
	}
}

func TestHandleDeletedRemovesRow(t *testing.T) {
	w, store, mirror := newTestWorker(t)
	ctx := context.Background()

	e := core.Expense{
		ID:       "e1",
		Category: core.CategoryFuel,
		Amount:   core.FromShekels(50),
		Date:     time.Date(2025, time.March, 15, 0, 0, 0, 0, core.Location()),
	}
	seedExpense(t, store, e)
	if err := w.HandleEvent(ctx, amqp.NewLedgerEvent(amqp.EventExpensePosted, "e1", "")); err != nil {
		t.Fatal(err)
	}

	if err := w.HandleEvent(ctx, amqp.NewLedgerEvent(amqp.EventExpenseDeleted, "e1", "")); err != nil {
		t.Fatal(err)
	}
	if len(mirror.Rows()) != 0 {
		t.Errorf("mirror rows after delete = %+v", mirror.Rows())
	}
}

func TestHandleRolloverReplacesMonth(t *testing.T) {
	w, store, mirror := newTestWorker(t)
	ctx := context.Background()

	feb := time.Date(2025, time.February, 10, 0, 0, 0, 0, core.Location())
	report := core.MonthlyReport{
		Month: "02/2025",
		Expenses: []core.Expense{
			{ID: "a", Category: core.CategoryFuel, Amount: core.FromShekels(100), Date: feb},
			{ID: "b", Category: core.CategoryGroceries, Amount: core.FromShekels(200), Date: feb},
		},
	}
	if err := store.SaveArchive(ctx, core.Archive{"02/2025": report}); err != nil {
		t.Fatal(err)
	}

	if err := w.HandleEvent(ctx, amqp.NewLedgerEvent(amqp.EventRolloverCompleted, "", "02/2025")); err != nil {
		t.Fatal(err)
	}
	if len(mirror.Rows()) != 2 {
		t.Errorf("mirror rows = %+v", mirror.Rows())
	}
}

func TestHandleRolloverMissingReport(t *testing.T) {
	w, _, _ := newTestWorker(t)
	if err := w.HandleEvent(context.Background(), amqp.NewLedgerEvent(amqp.EventRolloverCompleted, "", "01/2020")); err == nil {
		t.Error("missing report should error so the delivery is requeued")
	}
}
