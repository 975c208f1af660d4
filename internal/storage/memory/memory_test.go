package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"fintrack/internal/core"
	"fintrack/internal/services"

	"github.com/shopspring/decimal"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func mustCreateTransaction(t *testing.T, s *Store, tx core.Transaction) core.Transaction {
	t.Helper()
	if err := s.CreateTransaction(context.Background(), &tx); err != nil {
		t.Fatalf("CreateTransaction: %v", err)
	}
	return tx
}

func TestListTransactionsDateRange(t *testing.T) {
	s := New()
	const userID = int64(1)

	amount := decimal.NewFromInt(10)
	for _, d := range []time.Time{
		day(2025, 10, 31),
		day(2025, 11, 1),
		day(2025, 11, 15),
		day(2025, 11, 30),
		day(2025, 12, 1),
	} {
		mustCreateTransaction(t, s, core.Transaction{UserID: userID, Type: core.Expense, Amount: amount, Date: d})
	}

	tests := []struct {
		name   string
		filter services.TransactionFilter
		want   int
	}{
		{
			"half-open excludes the upper bound",
			services.TransactionFilter{From: day(2025, 11, 1), To: day(2025, 12, 1)},
			3,
		},
		{
			"inclusive closes the upper bound",
			services.TransactionFilter{From: day(2025, 11, 1), To: day(2025, 12, 1), ToInclusive: true},
			4,
		},
		{
			"lower bound is always included",
			services.TransactionFilter{From: day(2025, 12, 1), To: day(2025, 12, 2)},
			1,
		},
		{
			"empty range matches nothing",
			services.TransactionFilter{From: day(2025, 11, 15), To: day(2025, 11, 15)},
			0,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := s.ListTransactions(context.Background(), userID, tt.filter)
			if err != nil {
				t.Fatalf("ListTransactions: %v", err)
			}
			if len(got) != tt.want {
				t.Errorf("matched %d transactions, want %d", len(got), tt.want)
			}
		})
	}
}

func TestListTransactionsTypeAndCategory(t *testing.T) {
	s := New()
	const userID = int64(1)
	catA, catB := int64(100), int64(200)

	amount := decimal.NewFromInt(10)
	mustCreateTransaction(t, s, core.Transaction{UserID: userID, CategoryID: &catA, Type: core.Expense, Amount: amount, Date: day(2025, 11, 5)})
	mustCreateTransaction(t, s, core.Transaction{UserID: userID, CategoryID: &catB, Type: core.Expense, Amount: amount, Date: day(2025, 11, 6)})
	mustCreateTransaction(t, s, core.Transaction{UserID: userID, CategoryID: &catA, Type: core.Income, Amount: amount, Date: day(2025, 11, 7)})
	mustCreateTransaction(t, s, core.Transaction{UserID: userID, Type: core.Expense, Amount: amount, Date: day(2025, 11, 8)})
	mustCreateTransaction(t, s, core.Transaction{UserID: 2, CategoryID: &catA, Type: core.Expense, Amount: amount, Date: day(2025, 11, 5)})

	window := services.TransactionFilter{From: day(2025, 11, 1), To: day(2025, 12, 1)}

	all, err := s.ListTransactions(context.Background(), userID, window)
	if err != nil {
		t.Fatalf("ListTransactions: %v", err)
	}
	if len(all) != 4 {
		t.Errorf("no type filter matched %d, want 4", len(all))
	}

	expenseOnly := window
	expenseOnly.Type = core.FilterExpense
	got, err := s.ListTransactions(context.Background(), userID, expenseOnly)
	if err != nil {
		t.Fatalf("ListTransactions: %v", err)
	}
	if len(got) != 3 {
		t.Errorf("expense filter matched %d, want 3", len(got))
	}

	catOnly := window
	catOnly.CategoryID = &catA
	got, err = s.ListTransactions(context.Background(), userID, catOnly)
	if err != nil {
		t.Fatalf("ListTransactions: %v", err)
	}
	// The uncategorized transaction never matches a category filter.
	if len(got) != 2 {
		t.Errorf("category filter matched %d, want 2", len(got))
	}
}

func TestListBudgetsOverlapping(t *testing.T) {
	s := New()
	const userID = int64(1)
	amount := decimal.NewFromInt(100)

	mk := func(start, end time.Time) core.Budget {
		b := core.Budget{UserID: userID, Amount: amount, PeriodStart: start, PeriodEnd: end}
		if err := s.CreateBudget(context.Background(), &b); err != nil {
			t.Fatalf("CreateBudget: %v", err)
		}
		return b
	}

	inside := mk(day(2025, 11, 5), day(2025, 11, 20))
	touchingStart := mk(day(2025, 10, 1), day(2025, 11, 1))
	touchingEnd := mk(day(2025, 11, 30), day(2025, 12, 15))
	before := mk(day(2025, 10, 1), day(2025, 10, 31))
	after := mk(day(2025, 12, 1), day(2025, 12, 31))

	got, err := s.ListBudgetsOverlapping(context.Background(), userID, day(2025, 11, 1), day(2025, 11, 30), nil)
	if err != nil {
		t.Fatalf("ListBudgetsOverlapping: %v", err)
	}

	found := map[int64]bool{}
	for _, b := range got {
		found[b.ID] = true
	}
	for _, want := range []core.Budget{inside, touchingStart, touchingEnd} {
		if !found[want.ID] {
			t.Errorf("budget [%s, %s] missing from overlap result", want.PeriodStart.Format("2006-01-02"), want.PeriodEnd.Format("2006-01-02"))
		}
	}
	for _, not := range []core.Budget{before, after} {
		if found[not.ID] {
			t.Errorf("disjoint budget [%s, %s] included in overlap result", not.PeriodStart.Format("2006-01-02"), not.PeriodEnd.Format("2006-01-02"))
		}
	}
}

func TestDeleteCategoryInUse(t *testing.T) {
	s := New()
	userID := int64(1)

	c := core.Category{UserID: &userID, Name: "Groceries"}
	if err := s.CreateCategory(context.Background(), &c); err != nil {
		t.Fatalf("CreateCategory: %v", err)
	}
	tx := mustCreateTransaction(t, s, core.Transaction{UserID: userID, CategoryID: &c.ID, Type: core.Expense, Amount: decimal.NewFromInt(5), Date: day(2025, 11, 1)})

	if err := s.DeleteCategory(context.Background(), c.ID); !errors.Is(err, core.ErrCategoryInUse) {
		t.Errorf("delete referenced category = %v, want %v", err, core.ErrCategoryInUse)
	}

	if err := s.DeleteTransaction(context.Background(), tx.ID); err != nil {
		t.Fatalf("DeleteTransaction: %v", err)
	}
	if err := s.DeleteCategory(context.Background(), c.ID); err != nil {
		t.Errorf("delete after unreferencing = %v, want nil", err)
	}
}

func TestListCategoriesIncludesShared(t *testing.T) {
	s := New()
	const userID = int64(1)

	shared := core.Category{Name: "Utilities"}
	own := core.Category{UserID: ptr(userID), Name: "Hobbies"}
	foreign := core.Category{UserID: ptr(int64(2)), Name: "Secret"}
	for _, c := range []*core.Category{&shared, &own, &foreign} {
		if err := s.CreateCategory(context.Background(), c); err != nil {
			t.Fatalf("CreateCategory: %v", err)
		}
	}

	got, err := s.ListCategories(context.Background(), userID)
	if err != nil {
		t.Fatalf("ListCategories: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("listed %d categories, want 2", len(got))
	}
	// Name ascending.
	if got[0].Name != "Hobbies" || got[1].Name != "Utilities" {
		t.Errorf("order = [%s, %s], want [Hobbies, Utilities]", got[0].Name, got[1].Name)
	}
}

func TestNotificationLifecycle(t *testing.T) {
	s := New()
	const userID = int64(1)

	for i := 0; i < 3; i++ {
		n := core.Notification{UserID: userID, Type: core.NotificationBudgetExceeded, Message: "over"}
		if err := s.CreateNotification(context.Background(), &n); err != nil {
			t.Fatalf("CreateNotification: %v", err)
		}
	}

	count, err := s.UnreadNotificationCount(context.Background(), userID)
	if err != nil {
		t.Fatalf("UnreadNotificationCount: %v", err)
	}
	if count != 3 {
		t.Errorf("unread = %d, want 3", count)
	}

	all, err := s.ListNotifications(context.Background(), userID, false)
	if err != nil {
		t.Fatalf("ListNotifications: %v", err)
	}
	if err := s.MarkNotificationRead(context.Background(), userID, all[0].ID); err != nil {
		t.Fatalf("MarkNotificationRead: %v", err)
	}
	if err := s.MarkNotificationRead(context.Background(), 2, all[1].ID); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("foreign mark read = %v, want not found", err)
	}

	unread, err := s.ListNotifications(context.Background(), userID, true)
	if err != nil {
		t.Fatalf("ListNotifications unread: %v", err)
	}
	if len(unread) != 2 {
		t.Errorf("unread listed = %d, want 2", len(unread))
	}

	if err := s.MarkAllNotificationsRead(context.Background(), userID); err != nil {
		t.Fatalf("MarkAllNotificationsRead: %v", err)
	}
	count, _ = s.UnreadNotificationCount(context.Background(), userID)
	if count != 0 {
		t.Errorf("unread after read-all = %d, want 0", count)
	}

	if err := s.MarkNotificationDispatched(context.Background(), all[0].ID); err != nil {
		t.Fatalf("MarkNotificationDispatched: %v", err)
	}
	got, _ := s.ListNotifications(context.Background(), userID, false)
	var dispatched bool
	for _, n := range got {
		if n.ID == all[0].ID && n.DispatchedAt != nil {
			dispatched = true
		}
	}
	if !dispatched {
		t.Error("dispatched timestamp not recorded")
	}
}

func ptr(id int64) *int64 { return &id }
