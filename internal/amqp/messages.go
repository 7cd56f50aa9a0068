package amqp

import (
	"encoding/json"
	"fmt"
	"time"
)

// RoutingKey is used for every change notification published by the store.
const RoutingKey = "expenses.changed"

type (
	Entity string
	Action string
)

const (
	EntityExpense     Entity = "expense"
	EntityAlternative Entity = "alternative"

	ActionCreated Action = "created"
	ActionUpdated Action = "updated"
	ActionDeleted Action = "deleted"
)

// ChangeEvent tells consumers that store data changed. It carries identifiers
// only; consumers re-read the store for the current state.
type ChangeEvent struct {
	Entity    Entity    `json:"entity"`
	Action    Action    `json:"action"`
	ID        int64     `json:"id"`
	ExpenseID int64     `json:"expense_id,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

func NewChangeEvent(entity Entity, action Action, id, expenseID int64) *ChangeEvent {
	return &ChangeEvent{
		Entity:    entity,
		Action:    action,
		ID:        id,
		ExpenseID: expenseID,
		Timestamp: time.Now().UTC(),
	}
}

func (m *ChangeEvent) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func ChangeEventFromJSON(data []byte) (*ChangeEvent, error) {
	var msg ChangeEvent
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	switch msg.Entity {
	case EntityExpense, EntityAlternative:
	default:
		return nil, fmt.Errorf("unknown entity %q", msg.Entity)
	}
	switch msg.Action {
	case ActionCreated, ActionUpdated, ActionDeleted:
	default:
		return nil, fmt.Errorf("unknown action %q", msg.Action)
	}
	return &msg, nil
}
