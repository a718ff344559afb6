// Package memory is an in-process expense mirror for tests and local runs.
package memory

import (
	"context"
	"fmt"
	"sync"

	"taktsiv/internal/core"
	ports "taktsiv/internal/sheets"
)

type Store struct {
	mu   sync.Mutex
	rows []core.Expense
}

var _ ports.ExpenseMirror = (*Store)(nil)

func New() *Store {
	return &Store{}
}

func (s *Store) AppendExpense(_ context.Context, e core.Expense) (string, error) {
	if err := e.Validate(); err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rows = append(s.rows, e)
	return fmt.Sprintf("row-%d", len(s.rows)), nil
}

func (s *Store) DeleteExpense(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, e := range s.rows {
		if e.ID == id {
			s.rows = append(s.rows[:i], s.rows[i+1:]...)
			return nil
		}
	}
	return nil
}

func (s *Store) ReplaceMonth(_ context.Context, month string, expenses []core.Expense) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.rows[:0]
	for _, e := range s.rows {
		if core.MonthKey(e.Date) != month {
			kept = append(kept, e)
		}
	}
	s.rows = append(kept, expenses...)
	return nil
}

// Rows returns a copy of the mirrored rows.
func (s *Store) Rows() []core.Expense {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.Expense, len(s.rows))
	copy(out, s.rows)
	return out
}
