package amqp

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// BudgetAlertMessage tells the alerts worker that a budget-exceeded
// notification was recorded and needs delivery. It carries the structured
// numbers; the worker fetches the persisted notification by ID.
type BudgetAlertMessage struct {
	NotificationID int64           `json:"notification_id"`
	UserID         int64           `json:"user_id"`
	BudgetID       int64           `json:"budget_id"`
	BudgetAmount   decimal.Decimal `json:"budget_amount"`
	UsedAmount     decimal.Decimal `json:"used_amount"`
	CategoryName   string          `json:"category_name,omitempty"`
	Timestamp      time.Time       `json:"timestamp"`
}

func NewBudgetAlertMessage(notificationID, userID, budgetID int64, budgetAmount, usedAmount decimal.Decimal, categoryName string) *BudgetAlertMessage {
	return &BudgetAlertMessage{
		NotificationID: notificationID,
		UserID:         userID,
		BudgetID:       budgetID,
		BudgetAmount:   budgetAmount,
		UsedAmount:     usedAmount,
		CategoryName:   categoryName,
		Timestamp:      time.Now().UTC(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *BudgetAlertMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// BudgetAlertMessageFromJSON creates a message from JSON bytes
func BudgetAlertMessageFromJSON(data []byte) (*BudgetAlertMessage, error) {
	var msg BudgetAlertMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
