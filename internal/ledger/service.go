// Package ledger orchestrates the budget: posting and deleting expenses,
// deriving balances, monthly rollover and allocation updates.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"taktsiv/internal/amqp"
	"taktsiv/internal/core"
	"taktsiv/internal/storage"
)

var ErrExpenseNotFound = errors.New("expense not found")

// Publisher emits ledger events. Satisfied by the AMQP client; nil disables
// publishing.
type Publisher interface {
	PublishLedgerEvent(ctx context.Context, event *amqp.LedgerEvent) error
}

// signature is a cheap fingerprint of ledger content, used to verify a
// persisted write and to suppress duplicate saves.
type signature struct {
	count     int
	sumAgorot int64
	lastID    string
}

func sigOf(l core.Ledger) signature {
	sig := signature{count: len(l.Expenses)}
	for _, e := range l.Expenses {
		sig.sumAgorot += e.Amount.Agorot
	}
	if n := len(l.Expenses); n > 0 {
		sig.lastID = l.Expenses[n-1].ID
	}
	return sig
}

// Service holds the authoritative in-memory state and keeps it in lockstep
// with the document store. Every mutation follows write-verify-apply: build
// the next state, persist it, re-read and compare, and only then swap the
// in-memory copy. A failed write leaves the previous state untouched.
type Service struct {
	store     *storage.Store
	publisher Publisher
	logger    *slog.Logger
	now       func() time.Time
	newID     func() string

	mu      sync.Mutex
	ledger  core.Ledger
	archive core.Archive
	alloc   core.Allocation
	lastSig signature
}

func NewService(ctx context.Context, store *storage.Store, publisher Publisher, logger *slog.Logger) (*Service, error) {
	ledger, err := store.LoadLedger(ctx)
	if err != nil {
		return nil, fmt.Errorf("load ledger: %w", err)
	}
	archive, err := store.LoadArchive(ctx)
	if err != nil {
		return nil, fmt.Errorf("load archive: %w", err)
	}
	alloc, err := store.LoadAllocation(ctx)
	if err != nil {
		return nil, fmt.Errorf("load allocation: %w", err)
	}

	return &Service{
		store:     store,
		publisher: publisher,
		logger:    logger,
		now:       func() time.Time { return time.Now().In(core.Location()) },
		newID:     uuid.NewString,
		ledger:    ledger,
		archive:   archive,
		alloc:     alloc,
		lastSig:   sigOf(ledger),
	}, nil
}

// SetClock overrides the service clock. Test hook.
func (s *Service) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

// PostExpense validates and commits a new expense dated now.
func (s *Service) PostExpense(ctx context.Context, category core.Category, amount core.Money, note string) (core.Expense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e := core.Expense{
		ID:       s.newID(),
		Category: category,
		Amount:   amount,
		Date:     s.now(),
		Note:     note,
	}
	if err := e.Validate(); err != nil {
		return core.Expense{}, err
	}

	next := s.ledger.Clone()
	next.Expenses = append(next.Expenses, e)
	if err := s.persistLedger(ctx, next); err != nil {
		return core.Expense{}, err
	}

	s.logger.InfoContext(ctx, "expense posted",
		"component", "ledger",
		"id", e.ID,
		"category", e.Category,
		"amount", e.Amount.String())
	s.emit(ctx, amqp.NewLedgerEvent(amqp.EventExpensePosted, e.ID, ""))
	return e, nil
}

// ImportExpenses commits a batch of pre-dated expenses in one write.
// Entries without an ID get one assigned.
func (s *Service) ImportExpenses(ctx context.Context, rows []core.Expense) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.ledger.Clone()
	for _, e := range rows {
		if e.ID == "" {
			e.ID = s.newID()
		}
		if err := e.Validate(); err != nil {
			return 0, fmt.Errorf("imported expense: %w", err)
		}
		next.Expenses = append(next.Expenses, e)
	}
	if err := s.persistLedger(ctx, next); err != nil {
		return 0, err
	}

	s.logger.InfoContext(ctx, "expenses imported",
		"component", "ledger",
		"count", len(rows))
	return len(rows), nil
}

// DeleteExpense removes one expense by ID. Derived balances pick the
// reversal up on the next read; nothing else moves.
func (s *Service) DeleteExpense(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.ledger.FindExpense(id); !ok {
		return fmt.Errorf("%w: %s", ErrExpenseNotFound, id)
	}

	next := s.ledger.Clone()
	kept := next.Expenses[:0]
	for _, e := range next.Expenses {
		if e.ID != id {
			kept = append(kept, e)
		}
	}
	next.Expenses = kept
	if err := s.persistLedger(ctx, next); err != nil {
		return err
	}

	s.logger.InfoContext(ctx, "expense deleted", "component", "ledger", "id", id)
	s.emit(ctx, amqp.NewLedgerEvent(amqp.EventExpenseDeleted, id, ""))
	return nil
}

// Balances derives the current month's remaining balance per category.
func (s *Service) Balances(ctx context.Context) (core.CategoryBalance, core.Allocation) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ledger.DerivedBalances(s.alloc, s.now()), s.alloc.Clone()
}

// Expenses returns the current month's expenses, oldest first.
func (s *Service) Expenses(ctx context.Context) []core.Expense {
	s.mu.Lock()
	defer s.mu.Unlock()
	from, to := core.MonthBounds(s.now())
	return s.ledger.ExpensesIn(from, to)
}

// AllExpenses returns the lifetime expense log.
func (s *Service) AllExpenses(ctx context.Context) []core.Expense {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ledger.Clone().Expenses
}

// Allocation returns the active allocation.
func (s *Service) Allocation(ctx context.Context) core.Allocation {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.alloc.Clone()
}

// UpdateAllocation replaces the allocation and returns the stored value.
// Balances are derived on read, so the change applies to the current month
// retroactively without touching the expense log.
func (s *Service) UpdateAllocation(ctx context.Context, alloc core.Allocation) (core.Allocation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := alloc.Validate(); err != nil {
		return nil, err
	}
	if err := s.store.SaveAllocation(ctx, alloc); err != nil {
		return nil, err
	}
	s.alloc = alloc.Clone()
	s.logger.InfoContext(ctx, "allocation updated",
		"component", "ledger",
		"total", s.alloc.Total().String())
	return s.alloc.Clone(), nil
}

// Reports returns the archived monthly reports.
func (s *Service) Reports(ctx context.Context) core.Archive {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := core.Archive{}
	for k, r := range s.archive {
		out[k] = r
	}
	return out
}

// Report returns one archived report by its "MM/YYYY" key.
func (s *Service) Report(ctx context.Context, month string) (core.MonthlyReport, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.archive[month]
	return r, ok
}

// Rollover snapshots the previous month into the archive. Re-running for
// the same month overwrites the existing report, so the operation converges.
// Ledger and archive are persisted in one store transaction.
func (s *Service) Rollover(ctx context.Context) (core.MonthlyReport, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rolloverLocked(ctx)
}

// RolloverIfDue runs the rollover only when the previous month has no
// archived report yet. Scheduler fires and startup checks go through here,
// so double triggers are harmless. A deployment with no expenses and no
// archive has no month to close, so the automatic path stays quiet until
// something has actually been ledgered; manual Rollover is not gated.
func (s *Service) RolloverIfDue(ctx context.Context) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.ledger.Expenses) == 0 && len(s.archive) == 0 {
		return false, nil
	}
	month := core.PreviousMonthKey(s.now())
	if _, ok := s.archive[month]; ok {
		return false, nil
	}
	if _, err := s.rolloverLocked(ctx); err != nil {
		return false, err
	}
	return true, nil
}

func (s *Service) rolloverLocked(ctx context.Context) (core.MonthlyReport, error) {
	now := s.now()
	curStart, _ := core.MonthBounds(now)
	prevStart, prevEnd := core.MonthBounds(curStart.AddDate(0, 0, -1))
	month := core.MonthKey(prevStart)

	report := core.MonthlyReport{
		Month:     month,
		Balances:  s.ledger.DerivedBalances(s.alloc, prevStart),
		Expenses:  s.ledger.ExpensesIn(prevStart, prevEnd),
		CreatedAt: now,
	}

	nextLedger := s.ledger.Clone()
	nextLedger.LastUpdated = now
	nextArchive := core.Archive{}
	for k, r := range s.archive {
		nextArchive[k] = r
	}
	nextArchive.Put(report)

	if err := s.store.ApplyRollover(ctx, nextLedger, nextArchive); err != nil {
		return core.MonthlyReport{}, err
	}
	verified, err := s.store.LoadArchive(ctx)
	if err != nil {
		return core.MonthlyReport{}, fmt.Errorf("verify rollover: %w", err)
	}
	if _, ok := verified[month]; !ok {
		return core.MonthlyReport{}, fmt.Errorf("verify rollover: report %s missing after write", month)
	}

	s.ledger = nextLedger
	s.archive = nextArchive
	s.lastSig = sigOf(nextLedger)

	s.logger.InfoContext(ctx, "rollover completed",
		"component", "ledger",
		"month", month,
		"savings", report.Savings().String())
	s.emit(ctx, amqp.NewLedgerEvent(amqp.EventRolloverCompleted, "", month))
	return report, nil
}

// ClearExpenses drops every expense of the current month, restoring all
// balances to their full allocation.
func (s *Service) ClearExpenses(ctx context.Context) error {
	return s.dropExpenses(ctx, func(e core.Expense) bool { return true }, "expenses cleared")
}

// ResetCategory drops the current month's expenses of one category,
// restoring its balance to the allocated amount.
func (s *Service) ResetCategory(ctx context.Context, c core.Category) error {
	if !c.IsValid() {
		return core.ErrUnknownCategory
	}
	return s.dropExpenses(ctx, func(e core.Expense) bool { return e.Category == c }, "category reset")
}

func (s *Service) dropExpenses(ctx context.Context, match func(core.Expense) bool, msg string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	from, to := core.MonthBounds(s.now())
	next := s.ledger.Clone()
	kept := next.Expenses[:0]
	dropped := 0
	for _, e := range next.Expenses {
		inMonth := !e.Date.Before(from) && e.Date.Before(to)
		if inMonth && match(e) {
			dropped++
			continue
		}
		kept = append(kept, e)
	}
	next.Expenses = kept

	if err := s.persistLedger(ctx, next); err != nil {
		return err
	}
	s.logger.InfoContext(ctx, msg, "component", "ledger", "dropped", dropped)
	return nil
}

// persistLedger is the write-verify-apply step. Callers hold the lock.
func (s *Service) persistLedger(ctx context.Context, next core.Ledger) error {
	nextSig := sigOf(next)
	if nextSig == s.lastSig {
		// Content unchanged since the last verified write.
		return nil
	}

	next.LastUpdated = s.now()
	if err := s.store.SaveLedger(ctx, next); err != nil {
		return fmt.Errorf("save ledger: %w", err)
	}
	verified, err := s.store.LoadLedger(ctx)
	if err != nil {
		return fmt.Errorf("verify ledger write: %w", err)
	}
	if sigOf(verified) != nextSig {
		return fmt.Errorf("verify ledger write: stored state diverges")
	}

	s.ledger = verified
	s.lastSig = nextSig
	return nil
}

// emit publishes best effort. Local persistence is authoritative; a dead
// broker must never fail the request.
func (s *Service) emit(ctx context.Context, event *amqp.LedgerEvent) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishLedgerEvent(ctx, event); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish ledger event",
			"component", "ledger",
			"kind", event.Kind,
			"error", err)
	}
}
