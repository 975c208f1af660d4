package core

import (
	"errors"
	"fmt"
)

// Error kinds. Callers classify failures with errors.Is against these
// four; everything below wraps one of them.
var (
	ErrInvalidArgument  = errors.New("invalid argument")
	ErrNotFound         = errors.New("not found")
	ErrPermissionDenied = errors.New("permission denied")
	ErrStorage          = errors.New("storage failure")
)

var (
	ErrInvalidPeriod      = fmt.Errorf("invalid period: %w", ErrInvalidArgument)
	ErrInvalidDate        = fmt.Errorf("invalid date: %w", ErrInvalidArgument)
	ErrInvalidType        = fmt.Errorf("invalid transaction type: %w", ErrInvalidArgument)
	ErrInvalidAmount      = fmt.Errorf("invalid amount: %w", ErrInvalidArgument)
	ErrInvalidWindow      = fmt.Errorf("invalid budget window: %w", ErrInvalidArgument)
	ErrEmptyName          = fmt.Errorf("empty name: %w", ErrInvalidArgument)
	ErrDescriptionTooLong = fmt.Errorf("description too long (max 200 characters): %w", ErrInvalidArgument)

	ErrBudgetNotFound      = fmt.Errorf("budget %w", ErrNotFound)
	ErrTransactionNotFound = fmt.Errorf("transaction %w", ErrNotFound)
	ErrCategoryNotFound    = fmt.Errorf("category %w", ErrNotFound)
	ErrCategoryInUse       = fmt.Errorf("category still referenced: %w", ErrInvalidArgument)
)
