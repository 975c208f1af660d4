// Package memory provides an in-memory implementation of the service
// store ports, used as the test double and the zero-setup dev backend.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"fintrack/internal/core"
	"fintrack/internal/services"
)

type Store struct {
	mu sync.Mutex

	nextID        int64
	transactions  map[int64]core.Transaction
	budgets       map[int64]core.Budget
	categories    map[int64]core.Category
	notifications map[int64]core.Notification
}

func New() *Store {
	return &Store{
		transactions:  make(map[int64]core.Transaction),
		budgets:       make(map[int64]core.Budget),
		categories:    make(map[int64]core.Category),
		notifications: make(map[int64]core.Notification),
	}
}

var _ services.Store = (*Store)(nil)

func (s *Store) id() int64 {
	s.nextID++
	return s.nextID
}

// --- transactions ---

func (s *Store) CreateTransaction(_ context.Context, tx *core.Transaction) error {
	if err := tx.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	tx.ID = s.id()
	if tx.CreatedAt.IsZero() {
		tx.CreatedAt = time.Now().UTC()
	}
	s.transactions[tx.ID] = *tx
	return nil
}

func (s *Store) GetTransaction(_ context.Context, id int64) (core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	tx, ok := s.transactions[id]
	if !ok {
		return core.Transaction{}, core.ErrTransactionNotFound
	}
	return tx, nil
}

func (s *Store) UpdateTransaction(_ context.Context, tx *core.Transaction) error {
	if err := tx.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.transactions[tx.ID]; !ok {
		return core.ErrTransactionNotFound
	}
	s.transactions[tx.ID] = *tx
	return nil
}

func (s *Store) DeleteTransaction(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.transactions[id]; !ok {
		return core.ErrTransactionNotFound
	}
	delete(s.transactions, id)
	return nil
}

func (s *Store) ListTransactionsByUser(_ context.Context, userID int64) ([]core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []core.Transaction{}
	for _, tx := range s.transactions {
		if tx.UserID == userID {
			out = append(out, tx)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.After(out[j].Date) })
	return out, nil
}

func (s *Store) ListTransactions(_ context.Context, userID int64, f services.TransactionFilter) ([]core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []core.Transaction{}
	for _, tx := range s.transactions {
		if tx.UserID != userID {
			continue
		}
		if !matchesDateRange(tx.Date, f) {
			continue
		}
		if f.Type != "" && !f.Type.Matches(tx.Type) {
			continue
		}
		if f.CategoryID != nil && (tx.CategoryID == nil || *tx.CategoryID != *f.CategoryID) {
			continue
		}
		out = append(out, tx)
	}
	return out, nil
}

// matchesDateRange applies the half-open [From, To) range, closed at the
// top when ToInclusive is set.
func matchesDateRange(date time.Time, f services.TransactionFilter) bool {
	if date.Before(f.From) {
		return false
	}
	if f.ToInclusive {
		return !date.After(f.To)
	}
	return date.Before(f.To)
}

// --- budgets ---

func (s *Store) CreateBudget(_ context.Context, b *core.Budget) error {
	if err := b.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	b.ID = s.id()
	s.budgets[b.ID] = *b
	return nil
}

func (s *Store) GetBudget(_ context.Context, id int64) (core.Budget, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.budgets[id]
	if !ok {
		return core.Budget{}, core.ErrBudgetNotFound
	}
	return b, nil
}

func (s *Store) UpdateBudget(_ context.Context, b *core.Budget) error {
	if err := b.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.budgets[b.ID]; !ok {
		return core.ErrBudgetNotFound
	}
	s.budgets[b.ID] = *b
	return nil
}

func (s *Store) DeleteBudget(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.budgets[id]; !ok {
		return core.ErrBudgetNotFound
	}
	delete(s.budgets, id)
	return nil
}

func (s *Store) ListBudgetsByUser(_ context.Context, userID int64) ([]core.Budget, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []core.Budget{}
	for _, b := range s.budgets {
		if b.UserID == userID {
			out = append(out, b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PeriodStart.After(out[j].PeriodStart) })
	return out, nil
}

func (s *Store) ListBudgetsOverlapping(_ context.Context, userID int64, from, to time.Time, categoryID *int64) ([]core.Budget, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	interval := core.Interval{Start: from, End: to}
	out := []core.Budget{}
	for _, b := range s.budgets {
		if b.UserID != userID {
			continue
		}
		if !b.Overlaps(interval) {
			continue
		}
		if categoryID != nil && (b.CategoryID == nil || *b.CategoryID != *categoryID) {
			continue
		}
		out = append(out, b)
	}
	return out, nil
}

// --- categories ---

func (s *Store) CreateCategory(_ context.Context, c *core.Category) error {
	if err := c.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	c.ID = s.id()
	s.categories[c.ID] = *c
	return nil
}

func (s *Store) GetCategory(_ context.Context, id int64) (core.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.categories[id]
	if !ok {
		return core.Category{}, core.ErrCategoryNotFound
	}
	return c, nil
}

func (s *Store) UpdateCategory(_ context.Context, c *core.Category) error {
	if err := c.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.categories[c.ID]; !ok {
		return core.ErrCategoryNotFound
	}
	s.categories[c.ID] = *c
	return nil
}

func (s *Store) DeleteCategory(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.categories[id]; !ok {
		return core.ErrCategoryNotFound
	}
	for _, tx := range s.transactions {
		if tx.CategoryID != nil && *tx.CategoryID == id {
			return core.ErrCategoryInUse
		}
	}
	for _, b := range s.budgets {
		if b.CategoryID != nil && *b.CategoryID == id {
			return core.ErrCategoryInUse
		}
	}
	delete(s.categories, id)
	return nil
}

func (s *Store) ListCategories(_ context.Context, userID int64) ([]core.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []core.Category{}
	for _, c := range s.categories {
		if c.OwnedBy(userID) {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *Store) CategoryNames(_ context.Context, ids []int64) (map[int64]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[int64]string, len(ids))
	for _, id := range ids {
		if c, ok := s.categories[id]; ok {
			out[id] = c.Name
		}
	}
	return out, nil
}

// --- notifications ---

func (s *Store) CreateNotification(_ context.Context, n *core.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	n.ID = s.id()
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now().UTC()
	}
	s.notifications[n.ID] = *n
	return nil
}

func (s *Store) ListNotifications(_ context.Context, userID int64, unreadOnly bool) ([]core.Notification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []core.Notification{}
	for _, n := range s.notifications {
		if n.UserID != userID {
			continue
		}
		if unreadOnly && n.Read {
			continue
		}
		out = append(out, n)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *Store) MarkNotificationRead(_ context.Context, userID, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, ok := s.notifications[id]
	if !ok || n.UserID != userID {
		return core.ErrNotFound
	}
	n.Read = true
	s.notifications[id] = n
	return nil
}

func (s *Store) MarkAllNotificationsRead(_ context.Context, userID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, n := range s.notifications {
		if n.UserID == userID && !n.Read {
			n.Read = true
			s.notifications[id] = n
		}
	}
	return nil
}

func (s *Store) UnreadNotificationCount(_ context.Context, userID int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var count int64
	for _, n := range s.notifications {
		if n.UserID == userID && !n.Read {
			count++
		}
	}
	return count, nil
}

func (s *Store) MarkNotificationDispatched(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, ok := s.notifications[id]
	if !ok {
		return core.ErrNotFound
	}
	now := time.Now().UTC()
	n.DispatchedAt = &now
	s.notifications[id] = n
	return nil
}
