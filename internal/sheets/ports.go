package sheets

import (
	"context"

	"taktsiv/internal/core"
)

// ExpenseMirror is the outbound port to the spreadsheet copy of the ledger.
// The store stays authoritative; the mirror is convenience output.
type ExpenseMirror interface {
	// AppendExpense adds one row and returns a row reference.
	AppendExpense(ctx context.Context, e core.Expense) (rowRef string, err error)

	// DeleteExpense removes the row carrying the given expense ID.
	DeleteExpense(ctx context.Context, id string) error

	// ReplaceMonth rewrites every row of one "MM/YYYY" month in place.
	ReplaceMonth(ctx context.Context, month string, expenses []core.Expense) error
}
