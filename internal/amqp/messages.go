package amqp

import (
	"encoding/json"
	"fmt"
	"time"

	"fintrack/internal/core"
)

const (
	ActionUpsert ReminderAction = "upsert"
	ActionCancel ReminderAction = "cancel"
	ActionReload ReminderAction = "reload"
)

type ReminderAction string

// ReminderMessage instructs the reminder delivery service. Reminder is set
// for upserts, ID for cancels; reload carries neither.
type ReminderMessage struct {
	Action    ReminderAction `json:"action"`
	ID        string         `json:"id,omitempty"`
	Reminder  *core.Reminder `json:"reminder,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
}

func NewUpsertMessage(r core.Reminder) *ReminderMessage {
	return &ReminderMessage{
		Action:    ActionUpsert,
		ID:        r.ID,
		Reminder:  &r,
		Timestamp: time.Now(),
	}
}

func NewCancelMessage(id string) *ReminderMessage {
	return &ReminderMessage{
		Action:    ActionCancel,
		ID:        id,
		Timestamp: time.Now(),
	}
}

func NewReloadMessage() *ReminderMessage {
	return &ReminderMessage{
		Action:    ActionReload,
		Timestamp: time.Now(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *ReminderMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// ReminderMessageFromJSON decodes and validates a message.
func ReminderMessageFromJSON(data []byte) (*ReminderMessage, error) {
	var msg ReminderMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	switch msg.Action {
	case ActionUpsert:
		if msg.Reminder == nil {
			return nil, fmt.Errorf("upsert message without reminder")
		}
	case ActionCancel:
		if msg.ID == "" {
			return nil, fmt.Errorf("cancel message without id")
		}
	case ActionReload:
	default:
		return nil, fmt.Errorf("unknown reminder action %q", msg.Action)
	}
	return &msg, nil
}
