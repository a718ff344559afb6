package core

import (
	"sort"
	"time"
)

// MonthlyReport is an immutable end-of-month snapshot: the closing balances
// and the expenses that produced them.
type MonthlyReport struct {
	Month     string          `json:"month"`
	Balances  CategoryBalance `json:"balances"`
	Expenses  []Expense       `json:"expenses"`
	CreatedAt time.Time       `json:"createdAt"`
}

// Savings is the unspent budget at close: Σ max(balance, 0) counts only
// categories that finished in the black; overspend does not claw back.
func (r MonthlyReport) Savings() Money {
	var total Money
	for _, bal := range r.Balances {
		if !bal.IsNegative() {
			total = total.Add(bal)
		}
	}
	return total
}

// Archive holds monthly reports keyed by "MM/YYYY". Writing an existing key
// overwrites the report, so a re-run rollover converges instead of
// duplicating.
type Archive map[string]MonthlyReport

// Put stores the report under its month key, replacing any existing entry.
func (a Archive) Put(r MonthlyReport) {
	a[r.Month] = r
}

// Months returns the archive keys in chronological order.
func (a Archive) Months() []string {
	keys := make([]string, 0, len(a))
	for k := range a {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		// "MM/YYYY" sorts chronologically as "YYYYMM".
		return keys[i][3:]+keys[i][:2] < keys[j][3:]+keys[j][:2]
	})
	return keys
}

// TotalSavings accumulates savings across every archived month.
func (a Archive) TotalSavings() Money {
	var total Money
	for _, r := range a {
		total = total.Add(r.Savings())
	}
	return total
}

// SmallCashRate is the share of accumulated savings released as
// discretionary small cash.
const SmallCashRate = 0.30

// SmallCash returns 30% of the accumulated savings, rounded down to whole
// agorot.
func (a Archive) SmallCash() Money {
	return Money{Agorot: int64(float64(a.TotalSavings().Agorot) * SmallCashRate)}
}

// CustomEntry is a line in the off-category ledger: side income and
// irregular expenses tracked outside the monthly budget.
type CustomEntry struct {
	ID          string    `json:"id"`
	Description string    `json:"description"`
	Amount      Money     `json:"amount"`
	Date        time.Time `json:"date"`
}

func (e CustomEntry) Validate() error {
	if e.ID == "" {
		return ErrEmptyID
	}
	if err := e.Amount.Validate(); err != nil {
		return err
	}
	if e.Date.IsZero() {
		return ErrZeroDate
	}
	return nil
}

// CustomLedger is the free-form side ledger. Its balance is incomes minus
// expenses and, like category balances, may go negative.
type CustomLedger struct {
	Incomes  []CustomEntry `json:"incomes"`
	Expenses []CustomEntry `json:"expenses"`
}

// Balance returns Σ incomes − Σ expenses.
func (c CustomLedger) Balance() Money {
	var total Money
	for _, in := range c.Incomes {
		total = total.Add(in.Amount)
	}
	for _, ex := range c.Expenses {
		total = total.Sub(ex.Amount)
	}
	return total
}

// Clone returns an independent copy of the custom ledger.
func (c CustomLedger) Clone() CustomLedger {
	out := CustomLedger{
		Incomes:  make([]CustomEntry, len(c.Incomes)),
		Expenses: make([]CustomEntry, len(c.Expenses)),
	}
	copy(out.Incomes, c.Incomes)
	copy(out.Expenses, c.Expenses)
	return out
}
