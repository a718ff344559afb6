package google

import (
	"testing"
	"time"

	"taktsiv/internal/core"
)

func TestYearPrefixedName(t *testing.T) {
	if got := yearPrefixedName("Expenses", 2025); got != "2025 Expenses" {
		t.Errorf("yearPrefixedName() = %q, want %q", got, "2025 Expenses")
	}
}

func TestSearchSheetsCoversPreviousYear(t *testing.T) {
	c := &Client{sheetBase: "Expenses"}

	// A delete arriving in early January must still find rows mirrored in
	// December, so the previous year's sheet is searched too.
	got := c.searchSheets(2026)
	want := []string{"2026 Expenses", "2025 Expenses"}
	if len(got) != len(want) {
		t.Fatalf("searchSheets() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("searchSheets()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestExpenseRowLayout(t *testing.T) {
	date := time.Date(2025, 3, 15, 12, 0, 0, 0, core.Location())
	row := expenseRow(core.Expense{
		ID:       "abc",
		Category: core.CategoryFuel,
		Amount:   core.Money{Agorot: 5230},
		Date:     date,
		Note:     "מילוי",
	})

	if len(row) != 6 {
		t.Fatalf("row has %d columns, want 6", len(row))
	}
	if row[0] != "abc" {
		t.Errorf("ID column = %v", row[0])
	}
	if row[1] != "15.03.2025" {
		t.Errorf("date column = %v, want 15.03.2025", row[1])
	}
	if row[2] != "דלק" {
		t.Errorf("category column = %v", row[2])
	}
	if row[3] != 52.3 {
		t.Errorf("amount column = %v, want 52.3", row[3])
	}
	if row[5] != "03/2025" {
		t.Errorf("month column = %v, want 03/2025", row[5])
	}
}
