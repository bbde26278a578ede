package amqp

import (
	"encoding/json"
	"fmt"
	"time"
)

// EventType names what happened to the ledger.
type EventType string

const (
	ExpenseCreated     EventType = "expense.created"
	ExpenseDeleted     EventType = "expense.deleted"
	IncomeCreated      EventType = "income.created"
	IncomeDeleted      EventType = "income.deleted"
	InstallmentsPaid   EventType = "installments.paid"
	FixedExpensePaid   EventType = "fixed_expense.paid"
	FixedExpenseUnpaid EventType = "fixed_expense.unpaid"
)

// LedgerEvent is a lightweight notification of a committed write.
// Consumers fetch the full records they need from the store.
type LedgerEvent struct {
	Type        EventType `json:"type"`
	HouseholdID string    `json:"household_id"`
	EntityID    string    `json:"entity_id"`
	// IDs lists affected children, e.g. the installments an invoice payment touched.
	IDs        []string  `json:"ids,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

// NewLedgerEvent stamps a new event with the current time.
func NewLedgerEvent(t EventType, householdID, entityID string, ids ...string) *LedgerEvent {
	return &LedgerEvent{
		Type:        t,
		HouseholdID: householdID,
		EntityID:    entityID,
		IDs:         ids,
		OccurredAt:  time.Now().UTC(),
	}
}

// ToJSON converts the event to JSON bytes
func (e *LedgerEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// LedgerEventFromJSON decodes and sanity checks an event.
func LedgerEventFromJSON(data []byte) (*LedgerEvent, error) {
	var ev LedgerEvent
	if err := json.Unmarshal(data, &ev); err != nil {
		return nil, err
	}
	if ev.Type == "" || ev.HouseholdID == "" || ev.EntityID == "" {
		return nil, fmt.Errorf("incomplete ledger event: %q", data)
	}
	return &ev, nil
}
