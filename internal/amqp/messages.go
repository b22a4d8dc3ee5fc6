package amqp

import (
	"encoding/json"
	"time"
)

// Entities that can appear in a change event.
const (
	EntityTransaction = "transaction"
	EntityCategory    = "category"
	EntityBudget      = "budget"
	EntityRecurring   = "recurring_rule"
)

// Actions that can appear in a change event.
const (
	ActionCreated = "created"
	ActionUpdated = "updated"
	ActionDeleted = "deleted"
)

// ChangeEvent announces that a user's data changed. It carries only
// identifiers; consumers fetch the current state from the database.
type ChangeEvent struct {
	Entity    string    `json:"entity"`
	Action    string    `json:"action"`
	UserID    string    `json:"user_id"`
	EntityID  string    `json:"entity_id"`
	Timestamp time.Time `json:"timestamp"`
}

// NewChangeEvent creates a change event stamped with the current time.
func NewChangeEvent(entity, action, userID, entityID string) *ChangeEvent {
	return &ChangeEvent{
		Entity:    entity,
		Action:    action,
		UserID:    userID,
		EntityID:  entityID,
		Timestamp: time.Now(),
	}
}

// ToJSON converts the event to JSON bytes
func (e *ChangeEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// ChangeEventFromJSON creates an event from JSON bytes
func ChangeEventFromJSON(data []byte) (*ChangeEvent, error) {
	var e ChangeEvent
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, err
	}
	return &e, nil
}
