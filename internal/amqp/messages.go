package amqp

import (
	"encoding/json"
	"fmt"
	"time"
)

// EventType names a change to an expense store.
type EventType string

const (
	EventExpenseRecorded EventType = "expense.recorded"
	EventCostsCleared    EventType = "costs.cleared"
)

// Event is a lightweight change notification. It carries only the record ID
// and store name; consumers read the store for the full record.
type Event struct {
	Type      EventType `json:"type"`
	ID        int64     `json:"id,omitempty"`
	Store     string    `json:"store"`
	Timestamp time.Time `json:"timestamp"`
}

// NewExpenseRecorded creates an event for a freshly inserted expense.
func NewExpenseRecorded(store string, id int64) *Event {
	return &Event{
		Type:      EventExpenseRecorded,
		ID:        id,
		Store:     store,
		Timestamp: time.Now().UTC(),
	}
}

// NewCostsCleared creates an event for a store that was emptied.
func NewCostsCleared(store string) *Event {
	return &Event{
		Type:      EventCostsCleared,
		Store:     store,
		Timestamp: time.Now().UTC(),
	}
}

// ToJSON converts the event to JSON bytes
func (e *Event) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// EventFromJSON decodes an event and rejects unknown types.
func EventFromJSON(data []byte) (*Event, error) {
	var ev Event
	if err := json.Unmarshal(data, &ev); err != nil {
		return nil, err
	}
	switch ev.Type {
	case EventExpenseRecorded, EventCostsCleared:
	default:
		return nil, fmt.Errorf("unknown event type %q", ev.Type)
	}
	return &ev, nil
}
