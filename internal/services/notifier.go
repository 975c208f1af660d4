package services

import (
	"context"
	"fmt"
	"log/slog"

	"fintrack/internal/amqp"
	"fintrack/internal/core"

	"github.com/shopspring/decimal"
)

// NotificationService records user notifications and, when an AMQP client
// is configured, publishes budget alerts for out-of-band delivery. A nil
// client degrades to store-only notifications.
type NotificationService struct {
	store      NotificationStore
	amqpClient *amqp.Client
}

func NewNotificationService(store NotificationStore, amqpClient *amqp.Client) *NotificationService {
	return &NotificationService{store: store, amqpClient: amqpClient}
}

func (s *NotificationService) record(ctx context.Context, userID int64, kind core.NotificationType, message string) (*core.Notification, error) {
	n := &core.Notification{
		UserID:  userID,
		Type:    kind,
		Message: message,
	}
	if err := s.store.CreateNotification(ctx, n); err != nil {
		return nil, fmt.Errorf("create notification: %w", err)
	}
	return n, nil
}

// TransactionCreated records a confirmation for a newly logged transaction.
func (s *NotificationService) TransactionCreated(ctx context.Context, userID int64, txType core.TransactionType, amount decimal.Decimal, description string) error {
	desc := ""
	if description != "" {
		desc = fmt.Sprintf(" for %q", description)
	}
	message := fmt.Sprintf("Recorded %s of %s%s.", txType, amount.StringFixed(2), desc)
	_, err := s.record(ctx, userID, core.NotificationTransactionCreated, message)
	return err
}

// TransactionDeleted records the removal of a transaction.
func (s *NotificationService) TransactionDeleted(ctx context.Context, userID int64, txType core.TransactionType, amount decimal.Decimal, description string) error {
	desc := ""
	if description != "" {
		desc = fmt.Sprintf(" %q", description)
	}
	message := fmt.Sprintf("Deleted %s%s of %s from your records.", txType, desc, amount.StringFixed(2))
	_, err := s.record(ctx, userID, core.NotificationTransactionDeleted, message)
	return err
}

// BudgetCreated records the creation of a budget.
func (s *NotificationService) BudgetCreated(ctx context.Context, userID int64, amount decimal.Decimal, categoryName string) error {
	category := ""
	if categoryName != "" {
		category = fmt.Sprintf(" for category %q", categoryName)
	}
	message := fmt.Sprintf("New budget%s of %s created. Keep an eye on your spending to stay on plan.", category, amount.StringFixed(2))
	_, err := s.record(ctx, userID, core.NotificationBudgetCreated, message)
	return err
}

// BudgetDeleted records the removal of a budget.
func (s *NotificationService) BudgetDeleted(ctx context.Context, userID int64, amount decimal.Decimal, categoryName string) error {
	category := ""
	if categoryName != "" {
		category = fmt.Sprintf(" for category %q", categoryName)
	}
	message := fmt.Sprintf("Budget%s of %s removed from your budgets.", category, amount.StringFixed(2))
	_, err := s.record(ctx, userID, core.NotificationBudgetDeleted, message)
	return err
}

// BudgetExceeded records an exceeded alert and publishes it to the alert
// exchange. The stored notification is the source of truth: a publish
// failure is logged but does not undo the recorded notification.
func (s *NotificationService) BudgetExceeded(ctx context.Context, userID, budgetID int64, budgetAmount, usedAmount decimal.Decimal, categoryName string) error {
	category := ""
	if categoryName != "" {
		category = fmt.Sprintf(" %q", categoryName)
	}
	over := usedAmount.Sub(budgetAmount)
	message := fmt.Sprintf(
		"Attention! Your budget%s has been exceeded. Budget limit: %s, total spending: %s (over by %s). Consider reviewing your expenses.",
		category, budgetAmount.StringFixed(2), usedAmount.StringFixed(2), over.StringFixed(2))

	n, err := s.record(ctx, userID, core.NotificationBudgetExceeded, message)
	if err != nil {
		return err
	}

	if s.amqpClient == nil {
		slog.DebugContext(ctx, "Alert exchange not configured, notification stored only",
			"notification_id", n.ID,
			"user_id", userID)
		return nil
	}

	msg := amqp.NewBudgetAlertMessage(n.ID, userID, budgetID, budgetAmount, usedAmount, categoryName)
	if err := s.amqpClient.PublishBudgetAlert(ctx, msg); err != nil {
		slog.ErrorContext(ctx, "Failed to publish budget alert",
			"error", err,
			"notification_id", n.ID,
			"user_id", userID)
	}

	return nil
}

// BudgetWarning records a consumption warning when usage approaches the
// budget limit.
func (s *NotificationService) BudgetWarning(ctx context.Context, userID int64, budgetAmount, usedAmount decimal.Decimal, percent float64, categoryName string) error {
	category := ""
	if categoryName != "" {
		category = fmt.Sprintf(" %q", categoryName)
	}
	remaining := budgetAmount.Sub(usedAmount)
	message := fmt.Sprintf(
		"Warning! Your budget%s has reached %.0f%%. Total spending: %s of %s. Remaining: %s.",
		category, percent, usedAmount.StringFixed(2), budgetAmount.StringFixed(2), remaining.StringFixed(2))
	_, err := s.record(ctx, userID, core.NotificationBudgetWarning, message)
	return err
}
