package amqp

import (
	"encoding/json"
	"time"
)

// Reminder kinds carried on the queue.
const (
	KindExpenseDue     = "expense_due"
	KindExpenseOverdue = "expense_overdue"
	KindIncomeExpected = "income_expected"
	KindIncomeOverdue  = "income_overdue"
)

// ReminderMessage is a lightweight notification about a schedule item.
// Consumers fetch the full record from the database by ItemID.
type ReminderMessage struct {
	Kind      string    `json:"kind"`
	ItemID    string    `json:"itemId"`
	Name      string    `json:"name"`
	DueDate   string    `json:"dueDate"`
	Timestamp time.Time `json:"timestamp"`
}

// NewReminderMessage creates a reminder message stamped with the current time
func NewReminderMessage(kind, itemID, name, dueDate string) *ReminderMessage {
	return &ReminderMessage{
		Kind:      kind,
		ItemID:    itemID,
		Name:      name,
		DueDate:   dueDate,
		Timestamp: time.Now(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *ReminderMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// ReminderMessageFromJSON creates a message from JSON bytes
func ReminderMessageFromJSON(data []byte) (*ReminderMessage, error) {
	var msg ReminderMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
