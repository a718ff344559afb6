package ledger

import (
	"context"
	"errors"
	"testing"

	"taktsiv/internal/core"
)

func TestCustomLedgerEntries(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	income, err := svc.AddCustomIncome(ctx, "בונוס", core.FromShekels(500))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := svc.AddCustomExpense(ctx, "מתנה", core.FromShekels(200)); err != nil {
		t.Fatal(err)
	}

	_, balance, err := svc.Custom(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if balance != core.FromShekels(300) {
		t.Errorf("balance = %v, want ₪300.00", balance)
	}

	if err := svc.DeleteCustomEntry(ctx, income.ID); err != nil {
		t.Fatal(err)
	}
	_, balance, err = svc.Custom(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if balance != core.FromShekels(-200) {
		t.Errorf("balance after income removal = %v, want -₪200.00", balance)
	}
}

func TestDeleteCustomEntryUnknownID(t *testing.T) {
	svc, _, _ := newTestService(t)
	if err := svc.DeleteCustomEntry(context.Background(), "missing"); !errors.Is(err, ErrEntryNotFound) {
		t.Errorf("error = %v, want ErrEntryNotFound", err)
	}
}

func TestSmallCashFromArchivedSavings(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	// No archive yet: nothing accumulated.
	if got := svc.SmallCash(ctx); got.Agorot != 0 {
		t.Errorf("SmallCash() = %v, want zero", got)
	}

	// Archive February with everything unspent: savings = full allocation.
	if _, err := svc.Rollover(ctx); err != nil {
		t.Fatal(err)
	}
	total := svc.Allocation(ctx).Total()
	want := core.Money{Agorot: int64(float64(total.Agorot) * core.SmallCashRate)}
	if got := svc.SmallCash(ctx); got != want {
		t.Errorf("SmallCash() = %v, want %v", got, want)
	}
}

func TestAnalyticsSharesAndSavings(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	svc.PostExpense(ctx, core.CategoryFuel, core.FromShekels(300), "")
	svc.PostExpense(ctx, core.CategoryGroceries, core.FromShekels(100), "")
	if _, err := svc.Rollover(ctx); err != nil {
		t.Fatal(err)
	}

	report := svc.Analytics(ctx)
	if report.TotalSpent != core.FromShekels(400) {
		t.Errorf("TotalSpent = %v, want ₪400.00", report.TotalSpent)
	}
	if len(report.Shares) != 2 {
		t.Fatalf("shares = %+v, want 2 entries", report.Shares)
	}
	for _, share := range report.Shares {
		switch share.Category {
		case core.CategoryFuel:
			if share.Percent != 75 {
				t.Errorf("fuel share = %v%%, want 75", share.Percent)
			}
		case core.CategoryGroceries:
			if share.Percent != 25 {
				t.Errorf("groceries share = %v%%, want 25", share.Percent)
			}
		default:
			t.Errorf("unexpected category in shares: %s", share.Category)
		}
	}
	if len(report.Savings) != 1 || report.Savings[0].Month != "02/2025" {
		t.Errorf("savings series = %+v", report.Savings)
	}
}
