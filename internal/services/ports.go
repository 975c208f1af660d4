// Package services orchestrates the aggregation engine and the CRUD
// collaborators over the store and notification ports.
package services

import (
	"context"
	"time"

	"fintrack/internal/core"
)

// TransactionFilter narrows a transaction listing. The date range is
// half-open [From, To) unless ToInclusive is set, which closes the upper
// bound; budget windows are inclusive on both ends while reporting
// intervals are not.
type TransactionFilter struct {
	From        time.Time
	To          time.Time
	ToInclusive bool
	Type        core.TypeFilter
	CategoryID  *int64
}

type TransactionStore interface {
	CreateTransaction(ctx context.Context, tx *core.Transaction) error
	GetTransaction(ctx context.Context, id int64) (core.Transaction, error)
	UpdateTransaction(ctx context.Context, tx *core.Transaction) error
	DeleteTransaction(ctx context.Context, id int64) error
	// ListTransactionsByUser returns every transaction of the user,
	// newest first.
	ListTransactionsByUser(ctx context.Context, userID int64) ([]core.Transaction, error)
	// ListTransactions returns the user's transactions matching the
	// filter, in no particular order.
	ListTransactions(ctx context.Context, userID int64, f TransactionFilter) ([]core.Transaction, error)
}

type BudgetStore interface {
	CreateBudget(ctx context.Context, b *core.Budget) error
	GetBudget(ctx context.Context, id int64) (core.Budget, error)
	UpdateBudget(ctx context.Context, b *core.Budget) error
	DeleteBudget(ctx context.Context, id int64) error
	// ListBudgetsByUser returns every budget of the user, latest window
	// first.
	ListBudgetsByUser(ctx context.Context, userID int64) ([]core.Budget, error)
	// ListBudgetsOverlapping selects budgets whose own window touches
	// [from, to] under the inclusive overlap rule of core.Budget.Overlaps,
	// optionally limited to one category.
	ListBudgetsOverlapping(ctx context.Context, userID int64, from, to time.Time, categoryID *int64) ([]core.Budget, error)
}

type CategoryStore interface {
	CreateCategory(ctx context.Context, c *core.Category) error
	GetCategory(ctx context.Context, id int64) (core.Category, error)
	UpdateCategory(ctx context.Context, c *core.Category) error
	DeleteCategory(ctx context.Context, id int64) error
	// ListCategories returns the user's own categories plus the shared
	// ones, name ascending.
	ListCategories(ctx context.Context, userID int64) ([]core.Category, error)
	// CategoryNames resolves display names for the given ids. Ids that
	// resolve to nothing are simply absent from the result.
	CategoryNames(ctx context.Context, ids []int64) (map[int64]string, error)
}

type NotificationStore interface {
	CreateNotification(ctx context.Context, n *core.Notification) error
	ListNotifications(ctx context.Context, userID int64, unreadOnly bool) ([]core.Notification, error)
	MarkNotificationRead(ctx context.Context, userID, id int64) error
	MarkAllNotificationsRead(ctx context.Context, userID int64) error
	UnreadNotificationCount(ctx context.Context, userID int64) (int64, error)
	MarkNotificationDispatched(ctx context.Context, id int64) error
}

// Store is the full data-access surface the service layer runs on.
type Store interface {
	TransactionStore
	BudgetStore
	CategoryStore
	NotificationStore
}
