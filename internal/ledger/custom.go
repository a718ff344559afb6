package ledger

import (
	"context"
	"errors"
	"fmt"

	"taktsiv/internal/core"
)

var ErrEntryNotFound = errors.New("custom entry not found")

// Custom returns the off-category ledger and its balance.
func (s *Service) Custom(ctx context.Context) (core.CustomLedger, core.Money, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	custom, err := s.store.LoadCustom(ctx)
	if err != nil {
		return core.CustomLedger{}, core.Money{}, err
	}
	return custom, custom.Balance(), nil
}

// AddCustomIncome records a side income.
func (s *Service) AddCustomIncome(ctx context.Context, description string, amount core.Money) (core.CustomEntry, error) {
	return s.addCustomEntry(ctx, description, amount, false)
}

// AddCustomExpense records an off-category expense.
func (s *Service) AddCustomExpense(ctx context.Context, description string, amount core.Money) (core.CustomEntry, error) {
	return s.addCustomEntry(ctx, description, amount, true)
}

func (s *Service) addCustomEntry(ctx context.Context, description string, amount core.Money, isExpense bool) (core.CustomEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry := core.CustomEntry{
		ID:          s.newID(),
		Description: description,
		Amount:      amount,
		Date:        s.now(),
	}
	if err := entry.Validate(); err != nil {
		return core.CustomEntry{}, err
	}

	custom, err := s.store.LoadCustom(ctx)
	if err != nil {
		return core.CustomEntry{}, err
	}
	next := custom.Clone()
	if isExpense {
		next.Expenses = append(next.Expenses, entry)
	} else {
		next.Incomes = append(next.Incomes, entry)
	}
	if err := s.store.SaveCustom(ctx, next); err != nil {
		return core.CustomEntry{}, err
	}

	s.logger.InfoContext(ctx, "custom entry added",
		"component", "ledger",
		"id", entry.ID,
		"expense", isExpense,
		"amount", amount.String())
	return entry, nil
}

// DeleteCustomEntry removes an entry from either side of the custom ledger.
func (s *Service) DeleteCustomEntry(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	custom, err := s.store.LoadCustom(ctx)
	if err != nil {
		return err
	}
	next := custom.Clone()
	found := false
	next.Incomes, found = dropEntry(next.Incomes, id)
	if !found {
		next.Expenses, found = dropEntry(next.Expenses, id)
	}
	if !found {
		return fmt.Errorf("%w: %s", ErrEntryNotFound, id)
	}

	if err := s.store.SaveCustom(ctx, next); err != nil {
		return err
	}
	s.logger.InfoContext(ctx, "custom entry deleted", "component", "ledger", "id", id)
	return nil
}

func dropEntry(entries []core.CustomEntry, id string) ([]core.CustomEntry, bool) {
	for i, e := range entries {
		if e.ID == id {
			return append(entries[:i], entries[i+1:]...), true
		}
	}
	return entries, false
}

// SmallCash returns the discretionary share of accumulated savings.
func (s *Service) SmallCash(ctx context.Context) core.Money {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.archive.SmallCash()
}
