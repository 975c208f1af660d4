package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"fintrack/internal/core"

	"github.com/shopspring/decimal"
)

// BudgetNotifier receives the budget-exceeded side effect of the usage
// evaluator. The call is awaited; its failure is the caller's to handle.
type BudgetNotifier interface {
	BudgetExceeded(ctx context.Context, userID, budgetID int64, budgetAmount, usedAmount decimal.Decimal, categoryName string) error
}

// GoalService is the budget goal aggregation engine. It is stateless;
// every call reads its inputs fresh from the store.
type GoalService struct {
	store    Store
	notifier BudgetNotifier
	now      func() time.Time
}

func NewGoalService(store Store, notifier BudgetNotifier) *GoalService {
	return &GoalService{store: store, notifier: notifier, now: time.Now}
}

// ResolveGoals computes the per-category budget-vs-spend report for one
// user, calendar period and type filter. The optional category id narrows
// the budget selection. The two feeding lookups are independent and run
// concurrently; both join before the merge.
func (s *GoalService) ResolveGoals(ctx context.Context, userID int64, period, anchorDate, typeFilter string, categoryID *int64) (core.GoalReport, error) {
	interval, err := core.ResolvePeriod(period, anchorDate, s.now())
	if err != nil {
		return core.GoalReport{}, err
	}
	filter, err := core.ParseTypeFilter(typeFilter)
	if err != nil {
		return core.GoalReport{}, err
	}

	var (
		spent    map[int64]decimal.Decimal
		budgeted map[int64]decimal.Decimal
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		txs, err := s.store.ListTransactions(gctx, userID, TransactionFilter{
			From: interval.Start,
			To:   interval.End,
			Type: filter,
		})
		if err != nil {
			return fmt.Errorf("list transactions: %w", err)
		}
		spent = core.SumTransactionsByCategory(txs, filter)
		return nil
	})
	g.Go(func() error {
		budgets, err := s.store.ListBudgetsOverlapping(gctx, userID, interval.Start, interval.End, categoryID)
		if err != nil {
			return fmt.Errorf("list budgets: %w", err)
		}
		budgeted = core.SumBudgetsByCategory(budgets)
		return nil
	})
	if err := g.Wait(); err != nil {
		return core.GoalReport{}, err
	}

	names, err := s.resolveNames(ctx, budgeted, spent)
	if err != nil {
		return core.GoalReport{}, err
	}

	report := core.MergeGoals(interval, budgeted, spent, names)

	slog.DebugContext(ctx, "Resolved goals",
		"user_id", userID,
		"period", period,
		"type_filter", typeFilter,
		"entries", len(report.Data))

	return report, nil
}

// EvaluateUsage sums the expense spending inside one budget's own window
// and category. The budget window is inclusive on both ends, unlike
// reporting intervals. When spending exceeds a positive budget, exactly
// one exceeded notification is emitted and awaited before returning.
func (s *GoalService) EvaluateUsage(ctx context.Context, userID, budgetID int64) (core.BudgetUsage, error) {
	budget, err := s.store.GetBudget(ctx, budgetID)
	if err != nil {
		return core.BudgetUsage{}, err
	}
	if budget.UserID != userID {
		return core.BudgetUsage{}, fmt.Errorf("budget %d: %w", budgetID, core.ErrPermissionDenied)
	}

	txs, err := s.store.ListTransactions(ctx, userID, TransactionFilter{
		From:        budget.PeriodStart,
		To:          budget.PeriodEnd,
		ToInclusive: true,
		Type:        core.FilterExpense,
		CategoryID:  budget.CategoryID,
	})
	if err != nil {
		return core.BudgetUsage{}, fmt.Errorf("list transactions: %w", err)
	}

	var used decimal.Decimal
	for _, tx := range txs {
		used = used.Add(tx.Amount)
	}

	usage := core.BudgetUsage{Used: used, Total: budget.Amount}
	if usage.Total.IsPositive() {
		usage.Percent = used.Div(usage.Total).Mul(decimal.NewFromInt(100))
	}

	if usage.Total.IsPositive() && used.GreaterThan(usage.Total) {
		categoryName, err := s.budgetCategoryName(ctx, budget)
		if err != nil {
			return usage, err
		}
		if err := s.notifier.BudgetExceeded(ctx, userID, budgetID, usage.Total, used, categoryName); err != nil {
			return usage, fmt.Errorf("notify budget exceeded: %w", err)
		}
	}

	return usage, nil
}

func (s *GoalService) resolveNames(ctx context.Context, budgeted, spent map[int64]decimal.Decimal) (map[int64]string, error) {
	ids := make([]int64, 0, len(budgeted)+len(spent))
	seen := make(map[int64]struct{}, cap(ids))
	for _, m := range []map[int64]decimal.Decimal{budgeted, spent} {
		for id := range m {
			if id == core.UncategorizedKey {
				continue
			}
			if _, ok := seen[id]; ok {
				continue
			}
			seen[id] = struct{}{}
			ids = append(ids, id)
		}
	}
	if len(ids) == 0 {
		return nil, nil
	}

	names, err := s.store.CategoryNames(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("resolve category names: %w", err)
	}
	return names, nil
}

func (s *GoalService) budgetCategoryName(ctx context.Context, budget core.Budget) (string, error) {
	if budget.CategoryID == nil {
		return "", nil
	}
	names, err := s.store.CategoryNames(ctx, []int64{*budget.CategoryID})
	if err != nil {
		return "", fmt.Errorf("resolve category name: %w", err)
	}
	if name, ok := names[*budget.CategoryID]; ok {
		return name, nil
	}
	return core.UnknownCategoryName, nil
}
