package core

import (
	"errors"
	"sort"
	"strings"
	"time"
)

var (
	ErrInvalidAmount     = errors.New("invalid amount")
	ErrUnknownCategory   = errors.New("unknown category")
	ErrMissingCategory   = errors.New("missing category")
	ErrIncompleteMapping = errors.New("allocation missing category")
	ErrEmptyID           = errors.New("empty expense id")
	ErrZeroDate          = errors.New("date cannot be zero")
	ErrNoteTooLong       = errors.New("note too long (max 200 characters)")
)

// Expense is a single committed spend against one category. Expenses are
// immutable once created; the only permitted mutation is deletion by ID.
type Expense struct {
	ID       string    `json:"id"`
	Category Category  `json:"category"`
	Amount   Money     `json:"amount"`
	Date     time.Time `json:"date"`
	Note     string    `json:"note,omitempty"`
}

func (e Expense) Validate() error {
	if strings.TrimSpace(e.ID) == "" {
		return ErrEmptyID
	}
	if !e.Category.IsValid() {
		return ErrUnknownCategory
	}
	if err := e.Amount.Validate(); err != nil {
		return err
	}
	if e.Date.IsZero() {
		return ErrZeroDate
	}
	if len(e.Note) > 200 {
		return ErrNoteTooLong
	}
	return nil
}

// Allocation maps every category to its monthly budget. A valid allocation
// carries the complete category set; an absent key is a data-integrity error.
type Allocation map[Category]Money

// DefaultAllocation returns the deployment's baseline monthly budget.
func DefaultAllocation() Allocation {
	return Allocation{
		CategoryFuel:        FromShekels(1200),
		CategoryRestaurants: FromShekels(550),
		CategoryVacations:   FromShekels(400),
		CategoryOutings:     FromShekels(350),
		CategoryClothing:    FromShekels(400),
		CategoryFriends:     FromShekels(300),
		CategoryMaayan:      FromShekels(120),
		CategoryGrooming:    FromShekels(150),
		CategoryGroceries:   FromShekels(1300),
	}
}

// Validate enforces the complete-key invariant and positive budgets.
func (a Allocation) Validate() error {
	for _, c := range categories {
		amt, ok := a[c]
		if !ok {
			return ErrIncompleteMapping
		}
		if err := amt.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// Total sums the monthly budget across all categories.
func (a Allocation) Total() Money {
	var total Money
	for _, amt := range a {
		total = total.Add(amt)
	}
	return total
}

// Clone returns an independent copy of the allocation.
func (a Allocation) Clone() Allocation {
	out := make(Allocation, len(a))
	for c, amt := range a {
		out[c] = amt
	}
	return out
}

// CategoryBalance maps every category to its remaining balance. Balances may
// be negative (overspent); they are never clamped.
type CategoryBalance map[Category]Money

// Clone returns an independent copy of the balance map.
func (b CategoryBalance) Clone() CategoryBalance {
	out := make(CategoryBalance, len(b))
	for c, amt := range b {
		out[c] = amt
	}
	return out
}

// Ledger is the active document: the lifetime expense log plus the timestamp
// of the most recent write. Balances are not stored; they are derived from
// the allocation and the current month's expenses on every read.
type Ledger struct {
	Expenses    []Expense `json:"expenses"`
	LastUpdated time.Time `json:"lastUpdated,omitempty"`
}

// Clone returns an independent copy of the ledger.
func (l Ledger) Clone() Ledger {
	out := Ledger{LastUpdated: l.LastUpdated}
	out.Expenses = make([]Expense, len(l.Expenses))
	copy(out.Expenses, l.Expenses)
	return out
}

// FindExpense locates an expense by ID. Lookup is by identity, never by
// slice index, so deletions stay correct under concurrent edits.
func (l Ledger) FindExpense(id string) (Expense, bool) {
	for _, e := range l.Expenses {
		if e.ID == id {
			return e, true
		}
	}
	return Expense{}, false
}

// ExpensesIn returns the expenses whose date falls inside [from, to),
// ordered by date ascending.
func (l Ledger) ExpensesIn(from, to time.Time) []Expense {
	var out []Expense
	for _, e := range l.Expenses {
		if !e.Date.Before(from) && e.Date.Before(to) {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out
}

// DerivedBalances computes, for the month containing now, the remaining
// balance per category: allocation minus the month's posted expenses.
// The result is a pure function of the expense log, so it self-heals after
// partial failures and is safe to replay.
func (l Ledger) DerivedBalances(alloc Allocation, now time.Time) CategoryBalance {
	from, to := MonthBounds(now)
	balances := make(CategoryBalance, len(categories))
	for _, c := range categories {
		balances[c] = alloc[c]
	}
	for _, e := range l.ExpensesIn(from, to) {
		balances[e.Category] = balances[e.Category].Sub(e.Amount)
	}
	return balances
}
