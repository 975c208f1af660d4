package core

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	Expense TransactionType = "expense"
	Income  TransactionType = "income"
)

const (
	FilterExpense TypeFilter = "expense"
	FilterIncome  TypeFilter = "income"
	FilterBoth    TypeFilter = "both"
)

type (
	TransactionType string

	// TypeFilter selects which transaction types an aggregation considers.
	TypeFilter string

	Transaction struct {
		ID          int64
		UserID      int64
		CategoryID  *int64 // nil = uncategorized
		Type        TransactionType
		Amount      decimal.Decimal
		Description string
		Source      string
		Date        time.Time // stored UTC
		CreatedAt   time.Time
	}

	// Budget is a target amount over the user's own calendar window.
	// PeriodStart and PeriodEnd are both inclusive dates, independent of
	// any reporting period.
	Budget struct {
		ID          int64
		UserID      int64
		CategoryID  *int64 // nil = applies across all categories
		Amount      decimal.Decimal
		PeriodStart time.Time
		PeriodEnd   time.Time
	}

	Category struct {
		ID     int64
		UserID *int64 // nil = shared across users
		Name   string
	}

	Notification struct {
		ID           int64
		UserID       int64
		Type         NotificationType
		Message      string
		Read         bool
		CreatedAt    time.Time
		DispatchedAt *time.Time
	}

	NotificationType string
)

const (
	NotificationTransactionCreated NotificationType = "TRANSACTION_CREATED"
	NotificationTransactionDeleted NotificationType = "TRANSACTION_DELETED"
	NotificationBudgetCreated      NotificationType = "BUDGET_CREATED"
	NotificationBudgetDeleted      NotificationType = "BUDGET_DELETED"
	NotificationBudgetExceeded     NotificationType = "BUDGET_EXCEEDED"
	NotificationBudgetWarning      NotificationType = "BUDGET_WARNING"
)

// ParseTransactionType validates a transaction type literal.
func ParseTransactionType(s string) (TransactionType, error) {
	switch TransactionType(s) {
	case Expense, Income:
		return TransactionType(s), nil
	default:
		return "", ErrInvalidType
	}
}

// ParseTypeFilter validates an aggregation type filter literal.
func ParseTypeFilter(s string) (TypeFilter, error) {
	switch TypeFilter(s) {
	case FilterExpense, FilterIncome, FilterBoth:
		return TypeFilter(s), nil
	default:
		return "", ErrInvalidType
	}
}

// Matches reports whether a transaction type passes the filter.
func (f TypeFilter) Matches(t TransactionType) bool {
	return f == FilterBoth || TransactionType(f) == t
}

func (t Transaction) Validate() error {
	if _, err := ParseTransactionType(string(t.Type)); err != nil {
		return err
	}
	if t.Amount.IsNegative() {
		return ErrInvalidAmount
	}
	if len(t.Description) > 200 {
		return ErrDescriptionTooLong
	}
	return nil
}

func (b Budget) Validate() error {
	if b.Amount.IsNegative() {
		return ErrInvalidAmount
	}
	if b.PeriodStart.IsZero() || b.PeriodEnd.IsZero() {
		return ErrInvalidWindow
	}
	if b.PeriodEnd.Before(b.PeriodStart) {
		return ErrInvalidWindow
	}
	return nil
}

func (c Category) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return ErrEmptyName
	}
	return nil
}

// OwnedBy reports whether the category is usable by the given user:
// either shared or owned by that user.
func (c Category) OwnedBy(userID int64) bool {
	return c.UserID == nil || *c.UserID == userID
}
