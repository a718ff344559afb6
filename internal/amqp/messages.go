package amqp

import (
	"encoding/json"
	"time"
)

// EventKind discriminates ledger events on the wire.
type EventKind string

const (
	EventExpensePosted     EventKind = "expense_posted"
	EventExpenseDeleted    EventKind = "expense_deleted"
	EventRolloverCompleted EventKind = "rollover_completed"
)

// LedgerEvent is a lightweight notification that the ledger changed.
// Consumers fetch the current state from the store; the event only says
// what moved.
type LedgerEvent struct {
	Kind      EventKind `json:"kind"`
	ExpenseID string    `json:"expenseId,omitempty"`
	Month     string    `json:"month,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// NewLedgerEvent creates an event stamped with the current time.
func NewLedgerEvent(kind EventKind, expenseID, month string) *LedgerEvent {
	return &LedgerEvent{
		Kind:      kind,
		ExpenseID: expenseID,
		Month:     month,
		Timestamp: time.Now(),
	}
}

// ToJSON converts the event to JSON bytes
func (e *LedgerEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// LedgerEventFromJSON creates an event from JSON bytes
func LedgerEventFromJSON(data []byte) (*LedgerEvent, error) {
	var e LedgerEvent
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, err
	}
	return &e, nil
}
