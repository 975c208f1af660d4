package services_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"fintrack/internal/core"
	"fintrack/internal/services"
	"fintrack/internal/storage/memory"

	"github.com/shopspring/decimal"
)

type fakeNotifier struct {
	calls []exceededCall
	err   error
}

type exceededCall struct {
	userID       int64
	budgetID     int64
	budgetAmount decimal.Decimal
	usedAmount   decimal.Decimal
	categoryName string
}

func (f *fakeNotifier) BudgetExceeded(_ context.Context, userID, budgetID int64, budgetAmount, usedAmount decimal.Decimal, categoryName string) error {
	f.calls = append(f.calls, exceededCall{userID, budgetID, budgetAmount, usedAmount, categoryName})
	return f.err
}

func dec(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	if err != nil {
		t.Fatalf("bad decimal literal %q: %v", s, err)
	}
	return d
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func seedCategory(t *testing.T, store *memory.Store, userID *int64, name string) int64 {
	t.Helper()
	c := core.Category{UserID: userID, Name: name}
	if err := store.CreateCategory(context.Background(), &c); err != nil {
		t.Fatalf("seed category %q: %v", name, err)
	}
	return c.ID
}

func seedTransaction(t *testing.T, store *memory.Store, userID int64, categoryID *int64, txType core.TransactionType, amount string, day time.Time) {
	t.Helper()
	tx := core.Transaction{
		UserID:     userID,
		CategoryID: categoryID,
		Type:       txType,
		Amount:     dec(t, amount),
		Date:       day,
	}
	if err := store.CreateTransaction(context.Background(), &tx); err != nil {
		t.Fatalf("seed transaction: %v", err)
	}
}

func seedBudget(t *testing.T, store *memory.Store, userID int64, categoryID *int64, amount string, start, end time.Time) int64 {
	t.Helper()
	b := core.Budget{
		UserID:      userID,
		CategoryID:  categoryID,
		Amount:      dec(t, amount),
		PeriodStart: start,
		PeriodEnd:   end,
	}
	if err := store.CreateBudget(context.Background(), &b); err != nil {
		t.Fatalf("seed budget: %v", err)
	}
	return b.ID
}

func TestResolveGoalsMonthly(t *testing.T) {
	store := memory.New()
	notifier := &fakeNotifier{}
	svc := services.NewGoalService(store, notifier)

	const userID = int64(1)
	groceries := seedCategory(t, store, ptr(userID), "Groceries")
	travel := seedCategory(t, store, ptr(userID), "Travel")

	// Inside November 2025.
	seedTransaction(t, store, userID, &groceries, core.Expense, "100", date(2025, 11, 5))
	seedTransaction(t, store, userID, &groceries, core.Expense, "100", date(2025, 11, 30))
	seedTransaction(t, store, userID, &travel, core.Expense, "400", date(2025, 11, 25))
	seedTransaction(t, store, userID, nil, core.Expense, "50", date(2025, 11, 10))
	// Income is filtered out by the default expense filter.
	seedTransaction(t, store, userID, &groceries, core.Income, "9999", date(2025, 11, 12))
	// Outside the window.
	seedTransaction(t, store, userID, &groceries, core.Expense, "777", date(2025, 12, 1))
	seedTransaction(t, store, userID, &groceries, core.Expense, "777", date(2025, 10, 31))
	// Another user's spending never leaks in.
	seedTransaction(t, store, 2, &groceries, core.Expense, "777", date(2025, 11, 15))

	seedBudget(t, store, userID, &groceries, "600", date(2025, 11, 1), date(2025, 11, 30))
	// Overlapping window from another month still counts.
	seedBudget(t, store, userID, &travel, "300", date(2025, 11, 20), date(2025, 12, 20))
	// Disjoint window is ignored.
	seedBudget(t, store, userID, &travel, "5000", date(2025, 12, 2), date(2025, 12, 31))

	report, err := svc.ResolveGoals(context.Background(), userID, "monthly", "2025-11-25", "expense", nil)
	if err != nil {
		t.Fatalf("ResolveGoals: %v", err)
	}

	if got, want := report.Period.Start, date(2025, 11, 1); !got.Equal(want) {
		t.Errorf("period start = %v, want %v", got, want)
	}
	if got, want := report.Period.End, date(2025, 12, 1); !got.Equal(want) {
		t.Errorf("period end = %v, want %v", got, want)
	}

	entries := make(map[string]core.GoalEntry, len(report.Data))
	for _, e := range report.Data {
		entries[e.CategoryName] = e
	}
	if len(entries) != 3 {
		t.Fatalf("entries = %d, want 3 (%v)", len(entries), report.Data)
	}

	g := entries["Groceries"]
	if !g.BudgetAmount.Equal(dec(t, "600")) || !g.Spent.Equal(dec(t, "200")) {
		t.Errorf("groceries = %s/%s, want 200/600", g.Spent, g.BudgetAmount)
	}
	if !g.Percent.Equal(dec(t, "33.33")) {
		t.Errorf("groceries percent = %s, want 33.33", g.Percent)
	}
	if g.OverBudget {
		t.Error("groceries should not be over budget")
	}
	if !g.Remaining.Equal(dec(t, "400")) {
		t.Errorf("groceries remaining = %s, want 400", g.Remaining)
	}

	tr := entries["Travel"]
	if !tr.BudgetAmount.Equal(dec(t, "300")) || !tr.Spent.Equal(dec(t, "400")) {
		t.Errorf("travel = %s/%s, want 400/300", tr.Spent, tr.BudgetAmount)
	}
	if !tr.Percent.Equal(dec(t, "133.33")) {
		t.Errorf("travel percent = %s, want 133.33", tr.Percent)
	}
	if !tr.OverBudget {
		t.Error("travel should be over budget")
	}

	un := entries[core.UncategorizedName]
	if !un.BudgetAmount.IsZero() || !un.Spent.Equal(dec(t, "50")) {
		t.Errorf("uncategorized = %s/%s, want 50/0", un.Spent, un.BudgetAmount)
	}

	if !report.Totals.TotalBudget.Equal(dec(t, "900")) {
		t.Errorf("total budget = %s, want 900", report.Totals.TotalBudget)
	}
	if !report.Totals.TotalSpent.Equal(dec(t, "650")) {
		t.Errorf("total spent = %s, want 650", report.Totals.TotalSpent)
	}

	if len(notifier.calls) != 0 {
		t.Errorf("report resolution emitted %d notifications, want 0", len(notifier.calls))
	}
}

func TestResolveGoalsWindowBoundaries(t *testing.T) {
	store := memory.New()
	svc := services.NewGoalService(store, &fakeNotifier{})

	const userID = int64(1)
	// Transactions live in a half-open window: the first instant counts,
	// the end instant belongs to the next period.
	seedTransaction(t, store, userID, nil, core.Expense, "10", date(2025, 11, 1))
	seedTransaction(t, store, userID, nil, core.Expense, "20", date(2025, 12, 1))

	// Budget windows are edge-inclusive on both sides.
	seedBudget(t, store, userID, nil, "100", date(2025, 10, 1), date(2025, 11, 1))
	seedBudget(t, store, userID, nil, "200", date(2025, 12, 1), date(2025, 12, 31))

	report, err := svc.ResolveGoals(context.Background(), userID, "monthly", "2025-11-25", "expense", nil)
	if err != nil {
		t.Fatalf("ResolveGoals: %v", err)
	}
	if len(report.Data) != 1 {
		t.Fatalf("entries = %d, want 1", len(report.Data))
	}
	e := report.Data[0]
	if !e.Spent.Equal(dec(t, "10")) {
		t.Errorf("spent = %s, want 10 (end-of-window transaction must be excluded)", e.Spent)
	}
	if !e.BudgetAmount.Equal(dec(t, "300")) {
		t.Errorf("budget = %s, want 300 (edge-touching budgets must be included)", e.BudgetAmount)
	}
}

func TestResolveGoalsCategoryFilterNarrowsBudgetsOnly(t *testing.T) {
	store := memory.New()
	svc := services.NewGoalService(store, &fakeNotifier{})

	const userID = int64(1)
	groceries := seedCategory(t, store, ptr(userID), "Groceries")
	travel := seedCategory(t, store, ptr(userID), "Travel")

	seedTransaction(t, store, userID, &groceries, core.Expense, "100", date(2025, 11, 5))
	seedTransaction(t, store, userID, &travel, core.Expense, "200", date(2025, 11, 5))
	seedBudget(t, store, userID, &groceries, "600", date(2025, 11, 1), date(2025, 11, 30))
	seedBudget(t, store, userID, &travel, "300", date(2025, 11, 1), date(2025, 11, 30))

	report, err := svc.ResolveGoals(context.Background(), userID, "monthly", "2025-11-25", "expense", &groceries)
	if err != nil {
		t.Fatalf("ResolveGoals: %v", err)
	}

	entries := make(map[string]core.GoalEntry, len(report.Data))
	for _, e := range report.Data {
		entries[e.CategoryName] = e
	}
	// The travel spending still shows, but its budget is filtered out.
	if tr, ok := entries["Travel"]; !ok || !tr.BudgetAmount.IsZero() || !tr.Spent.Equal(dec(t, "200")) {
		t.Errorf("travel entry = %+v, want spent 200 with no budget", tr)
	}
	if g := entries["Groceries"]; !g.BudgetAmount.Equal(dec(t, "600")) {
		t.Errorf("groceries budget = %s, want 600", g.BudgetAmount)
	}
}

func TestResolveGoalsEmpty(t *testing.T) {
	store := memory.New()
	svc := services.NewGoalService(store, &fakeNotifier{})

	report, err := svc.ResolveGoals(context.Background(), 1, "weekly", "2025-11-25", "both", nil)
	if err != nil {
		t.Fatalf("ResolveGoals: %v", err)
	}
	if report.Data == nil || len(report.Data) != 0 {
		t.Errorf("data = %#v, want empty non-nil slice", report.Data)
	}
	if !report.Totals.TotalBudget.IsZero() || !report.Totals.TotalSpent.IsZero() || !report.Totals.Percent.IsZero() {
		t.Errorf("totals = %+v, want all zero", report.Totals)
	}
}

func TestResolveGoalsIdempotent(t *testing.T) {
	store := memory.New()
	svc := services.NewGoalService(store, &fakeNotifier{})

	const userID = int64(1)
	groceries := seedCategory(t, store, ptr(userID), "Groceries")
	seedTransaction(t, store, userID, &groceries, core.Expense, "100", date(2025, 11, 5))
	seedBudget(t, store, userID, &groceries, "600", date(2025, 11, 1), date(2025, 11, 30))

	first, err := svc.ResolveGoals(context.Background(), userID, "monthly", "2025-11-25", "expense", nil)
	if err != nil {
		t.Fatalf("first ResolveGoals: %v", err)
	}
	second, err := svc.ResolveGoals(context.Background(), userID, "monthly", "2025-11-25", "expense", nil)
	if err != nil {
		t.Fatalf("second ResolveGoals: %v", err)
	}
	if len(first.Data) != len(second.Data) {
		t.Fatalf("entry counts differ: %d vs %d", len(first.Data), len(second.Data))
	}
	for i := range first.Data {
		a, b := first.Data[i], second.Data[i]
		if a.CategoryName != b.CategoryName || !a.Spent.Equal(b.Spent) || !a.BudgetAmount.Equal(b.BudgetAmount) || !a.Percent.Equal(b.Percent) {
			t.Errorf("entry %d differs between identical calls: %+v vs %+v", i, a, b)
		}
	}
}

func TestResolveGoalsInvalidInput(t *testing.T) {
	svc := services.NewGoalService(memory.New(), &fakeNotifier{})

	tests := []struct {
		name       string
		period     string
		anchor     string
		typeFilter string
		want       error
	}{
		{"unknown period", "quarterly", "2025-11-25", "expense", core.ErrInvalidPeriod},
		{"case sensitive period", "Monthly", "2025-11-25", "expense", core.ErrInvalidPeriod},
		{"bad anchor", "monthly", "25-11-2025", "expense", core.ErrInvalidDate},
		{"bad type filter", "monthly", "2025-11-25", "everything", core.ErrInvalidType},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.ResolveGoals(context.Background(), 1, tt.period, tt.anchor, tt.typeFilter, nil)
			if !errors.Is(err, tt.want) {
				t.Errorf("error = %v, want %v", err, tt.want)
			}
			if !errors.Is(err, core.ErrInvalidArgument) {
				t.Errorf("error = %v, want it classified as invalid argument", err)
			}
		})
	}
}

func TestEvaluateUsageExceeded(t *testing.T) {
	store := memory.New()
	notifier := &fakeNotifier{}
	svc := services.NewGoalService(store, notifier)

	const userID = int64(1)
	rent := seedCategory(t, store, ptr(userID), "Rent")
	budgetID := seedBudget(t, store, userID, &rent, "1000000", date(2025, 11, 1), date(2025, 11, 30))

	seedTransaction(t, store, userID, &rent, core.Expense, "700000", date(2025, 11, 10))
	// Landing exactly on the inclusive end date still counts.
	seedTransaction(t, store, userID, &rent, core.Expense, "500000", date(2025, 11, 30))
	// Income and other categories stay out of the usage sum.
	seedTransaction(t, store, userID, &rent, core.Income, "900000", date(2025, 11, 15))
	seedTransaction(t, store, userID, nil, core.Expense, "900000", date(2025, 11, 15))

	usage, err := svc.EvaluateUsage(context.Background(), userID, budgetID)
	if err != nil {
		t.Fatalf("EvaluateUsage: %v", err)
	}

	if !usage.Used.Equal(dec(t, "1200000")) {
		t.Errorf("used = %s, want 1200000", usage.Used)
	}
	if !usage.Total.Equal(dec(t, "1000000")) {
		t.Errorf("total = %s, want 1000000", usage.Total)
	}
	if !usage.Percent.Equal(dec(t, "120")) {
		t.Errorf("percent = %s, want 120", usage.Percent)
	}

	if len(notifier.calls) != 1 {
		t.Fatalf("notifications = %d, want exactly 1", len(notifier.calls))
	}
	call := notifier.calls[0]
	if call.userID != userID || call.budgetID != budgetID {
		t.Errorf("notified for user %d budget %d, want user %d budget %d", call.userID, call.budgetID, userID, budgetID)
	}
	if !call.usedAmount.Equal(dec(t, "1200000")) || !call.budgetAmount.Equal(dec(t, "1000000")) {
		t.Errorf("notified amounts = %s/%s, want 1200000/1000000", call.usedAmount, call.budgetAmount)
	}
	if call.categoryName != "Rent" {
		t.Errorf("notified category = %q, want Rent", call.categoryName)
	}
}

func TestEvaluateUsageWithinBudget(t *testing.T) {
	store := memory.New()
	notifier := &fakeNotifier{}
	svc := services.NewGoalService(store, notifier)

	const userID = int64(1)
	budgetID := seedBudget(t, store, userID, nil, "500", date(2025, 11, 1), date(2025, 11, 30))
	seedTransaction(t, store, userID, nil, core.Expense, "500", date(2025, 11, 10))

	usage, err := svc.EvaluateUsage(context.Background(), userID, budgetID)
	if err != nil {
		t.Fatalf("EvaluateUsage: %v", err)
	}
	// Spending equal to the limit is at 100%, not over it.
	if !usage.Percent.Equal(dec(t, "100")) {
		t.Errorf("percent = %s, want 100", usage.Percent)
	}
	if len(notifier.calls) != 0 {
		t.Errorf("notifications = %d, want 0", len(notifier.calls))
	}
}

func TestEvaluateUsageZeroBudget(t *testing.T) {
	store := memory.New()
	notifier := &fakeNotifier{}
	svc := services.NewGoalService(store, notifier)

	const userID = int64(1)
	budgetID := seedBudget(t, store, userID, nil, "0", date(2025, 11, 1), date(2025, 11, 30))
	seedTransaction(t, store, userID, nil, core.Expense, "100", date(2025, 11, 10))

	usage, err := svc.EvaluateUsage(context.Background(), userID, budgetID)
	if err != nil {
		t.Fatalf("EvaluateUsage: %v", err)
	}
	if !usage.Percent.IsZero() {
		t.Errorf("percent = %s, want 0 for a zero budget", usage.Percent)
	}
	if len(notifier.calls) != 0 {
		t.Errorf("notifications = %d, want 0 for a zero budget", len(notifier.calls))
	}
}

func TestEvaluateUsageAccessErrors(t *testing.T) {
	store := memory.New()
	svc := services.NewGoalService(store, &fakeNotifier{})

	budgetID := seedBudget(t, store, 1, nil, "100", date(2025, 11, 1), date(2025, 11, 30))

	if _, err := svc.EvaluateUsage(context.Background(), 2, budgetID); !errors.Is(err, core.ErrPermissionDenied) {
		t.Errorf("foreign budget error = %v, want permission denied", err)
	}
	if _, err := svc.EvaluateUsage(context.Background(), 1, 9999); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("missing budget error = %v, want not found", err)
	}
}

func TestEvaluateUsageNotifierFailureSurfaces(t *testing.T) {
	store := memory.New()
	notifier := &fakeNotifier{err: errors.New("broker down")}
	svc := services.NewGoalService(store, notifier)

	const userID = int64(1)
	budgetID := seedBudget(t, store, userID, nil, "100", date(2025, 11, 1), date(2025, 11, 30))
	seedTransaction(t, store, userID, nil, core.Expense, "150", date(2025, 11, 10))

	usage, err := svc.EvaluateUsage(context.Background(), userID, budgetID)
	if err == nil {
		t.Fatal("expected error from failing notifier")
	}
	// The computed usage still comes back alongside the error.
	if !usage.Used.Equal(dec(t, "150")) {
		t.Errorf("used = %s, want 150", usage.Used)
	}
}

func ptr(id int64) *int64 { return &id }
