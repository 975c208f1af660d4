package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"fintrack/internal/amqp"
	"fintrack/internal/core"
	"fintrack/internal/services"
)

// AlertsWorker delivers budget-exceeded alerts consumed from the alert
// queue. Delivery here means handing the alert to the out-of-band channel
// (currently the process log, the hook for mail/push integrations) and
// stamping the stored notification as dispatched.
type AlertsWorker struct {
	store services.NotificationStore
}

func NewAlertsWorker(store services.NotificationStore) *AlertsWorker {
	return &AlertsWorker{store: store}
}

// HandleAlert processes a single budget alert message.
func (w *AlertsWorker) HandleAlert(ctx context.Context, msg *amqp.BudgetAlertMessage) error {
	slog.InfoContext(ctx, "Delivering budget alert",
		"notification_id", msg.NotificationID,
		"user_id", msg.UserID,
		"budget_id", msg.BudgetID,
		"budget_amount", msg.BudgetAmount.String(),
		"used_amount", msg.UsedAmount.String(),
		"category", msg.CategoryName)

	err := w.store.MarkNotificationDispatched(ctx, msg.NotificationID)
	if errors.Is(err, core.ErrNotFound) {
		// The notification was deleted between publish and delivery;
		// nothing left to stamp.
		slog.WarnContext(ctx, "Alert references missing notification",
			"notification_id", msg.NotificationID)
		return nil
	}
	if err != nil {
		return fmt.Errorf("mark notification dispatched: %w", err)
	}

	return nil
}
