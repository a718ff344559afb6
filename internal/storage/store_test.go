package storage

import (
	"context"
	"errors"
	"testing"
	"time"

	"taktsiv/internal/core"
)

func TestStoreZeroStateReads(t *testing.T) {
	store := NewStore(NewMemoryDriver())
	ctx := context.Background()

	ledger, err := store.LoadLedger(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(ledger.Expenses) != 0 {
		t.Errorf("fresh ledger has %d expenses", len(ledger.Expenses))
	}

	archive, err := store.LoadArchive(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(archive) != 0 {
		t.Errorf("fresh archive has %d reports", len(archive))
	}

	alloc, err := store.LoadAllocation(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if err := alloc.Validate(); err != nil {
		t.Errorf("fresh allocation should be the valid default: %v", err)
	}
}

func TestStoreLedgerRoundTrip(t *testing.T) {
	store := NewStore(NewMemoryDriver())
	ctx := context.Background()

	in := core.Ledger{
		Expenses: []core.Expense{{
			ID:       "e1",
			Category: core.CategoryFuel,
			Amount:   core.FromShekels(50),
			Date:     time.Date(2025, time.March, 15, 10, 0, 0, 0, core.Location()),
			Note:     "בדרך לעבודה",
		}},
		LastUpdated: time.Date(2025, time.March, 15, 10, 0, 0, 0, core.Location()),
	}
	if err := store.SaveLedger(ctx, in); err != nil {
		t.Fatal(err)
	}
	out, err := store.LoadLedger(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(out.Expenses) != 1 || out.Expenses[0].ID != "e1" || out.Expenses[0].Note != "בדרך לעבודה" {
		t.Errorf("round trip = %+v", out)
	}
}

func TestStoreRejectsInvalidAllocation(t *testing.T) {
	store := NewStore(NewMemoryDriver())
	alloc := core.DefaultAllocation()
	delete(alloc, core.CategoryFuel)

	if err := store.SaveAllocation(context.Background(), alloc); !errors.Is(err, core.ErrIncompleteMapping) {
		t.Errorf("SaveAllocation error = %v, want ErrIncompleteMapping", err)
	}
}

func TestApplyRolloverWritesBothOrNeither(t *testing.T) {
	driver := NewMemoryDriver()
	store := NewStore(driver)
	ctx := context.Background()

	ledger := core.Ledger{}
	archive := core.Archive{"02/2025": {Month: "02/2025"}}

	driver.FailNextSave = errors.New("disk full")
	if err := store.ApplyRollover(ctx, ledger, archive); err == nil {
		t.Fatal("expected write failure")
	}
	got, err := store.LoadArchive(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 0 {
		t.Fatal("failed rollover must not leave a partial archive")
	}

	if err := store.ApplyRollover(ctx, ledger, archive); err != nil {
		t.Fatal(err)
	}
	got, err = store.LoadArchive(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := got["02/2025"]; !ok {
		t.Error("archive missing rolled-over report")
	}
}
