package core

import (
	"time"

	"github.com/shopspring/decimal"
)

// UncategorizedKey is the category key used for transactions and budgets
// that carry no category. Real category ids start at 1.
const UncategorizedKey int64 = 0

const (
	UncategorizedName   = "Uncategorized"
	UnknownCategoryName = "Unknown"
)

type (
	// GoalEntry is the derived budget-vs-spend figure for one category key.
	// Percent and Remaining are recomputed on every query, never stored.
	GoalEntry struct {
		CategoryID   *int64          `json:"idCategory"`
		CategoryName string          `json:"category"`
		BudgetAmount decimal.Decimal `json:"budgetAmount"`
		Spent        decimal.Decimal `json:"spent"`
		Percent      decimal.Decimal `json:"percent"`
		OverBudget   bool            `json:"overBudget"`
		Remaining    decimal.Decimal `json:"remaining"`
	}

	GoalTotals struct {
		TotalBudget decimal.Decimal `json:"totalBudget"`
		TotalSpent  decimal.Decimal `json:"totalSpent"`
		Percent     decimal.Decimal `json:"percent"`
	}

	GoalPeriod struct {
		Start time.Time  `json:"start"`
		End   time.Time  `json:"end"`
		Kind  PeriodKind `json:"period"`
	}

	// GoalReport is the per-category budget consumption report for one
	// user, period and type filter. Data carries no defined order; treat
	// it as a set keyed by category id.
	GoalReport struct {
		Period GoalPeriod  `json:"period"`
		Totals GoalTotals  `json:"totals"`
		Data   []GoalEntry `json:"data"`
	}

	// BudgetUsage is the single-budget consumption figure. Percent is
	// intentionally unrounded.
	BudgetUsage struct {
		Used    decimal.Decimal `json:"used"`
		Total   decimal.Decimal `json:"total"`
		Percent decimal.Decimal `json:"percent"`
	}
)

var hundred = decimal.NewFromInt(100)

func categoryKey(id *int64) int64 {
	if id == nil {
		return UncategorizedKey
	}
	return *id
}

// SumTransactionsByCategory groups transactions by category key and sums
// amounts per group. Transactions rejected by the filter are skipped;
// groups with no matching rows are absent, not zero.
func SumTransactionsByCategory(txs []Transaction, filter TypeFilter) map[int64]decimal.Decimal {
	out := make(map[int64]decimal.Decimal, len(txs))
	for _, tx := range txs {
		if !filter.Matches(tx.Type) {
			continue
		}
		key := categoryKey(tx.CategoryID)
		out[key] = out[key].Add(tx.Amount)
	}
	return out
}

// SumBudgetsByCategory sums budget amounts per category key. Stacked
// budgets for one category are additive.
func SumBudgetsByCategory(budgets []Budget) map[int64]decimal.Decimal {
	out := make(map[int64]decimal.Decimal, len(budgets))
	for _, b := range budgets {
		key := categoryKey(b.CategoryID)
		out[key] = out[key].Add(b.Amount)
	}
	return out
}

// Overlaps reports whether a budget's own window touches the reporting
// interval: periodStart <= End AND periodEnd >= Start, inclusive on both
// budget bounds. A budget ending exactly at the interval start, or
// starting exactly at its end, still counts. This is deliberately looser
// than the half-open rule for transaction dates: budgets are user-defined
// calendar windows, not sampled instants.
func (b Budget) Overlaps(iv Interval) bool {
	return !b.PeriodStart.After(iv.End) && !b.PeriodEnd.Before(iv.Start)
}

// MergeGoals joins the per-category budget and spend maps into one report
// over the union of their keys. names maps real category ids to display
// names; a key with figures but no resolvable name degrades to "Unknown"
// rather than failing, since a dangling category reference must not block
// a financial report.
func MergeGoals(iv Interval, budgeted, spent map[int64]decimal.Decimal, names map[int64]string) GoalReport {
	report := GoalReport{
		Period: GoalPeriod{Start: iv.Start, End: iv.End, Kind: iv.Kind},
		Data:   []GoalEntry{},
	}

	keys := make(map[int64]struct{}, len(budgeted)+len(spent))
	for k := range budgeted {
		keys[k] = struct{}{}
	}
	for k := range spent {
		keys[k] = struct{}{}
	}

	for key := range keys {
		entry := GoalEntry{
			CategoryName: resolveName(key, names),
			BudgetAmount: budgeted[key],
			Spent:        spent[key],
		}
		if key != UncategorizedKey {
			id := key
			entry.CategoryID = &id
		}
		if entry.BudgetAmount.IsPositive() {
			entry.Percent = entry.Spent.Div(entry.BudgetAmount).Mul(hundred).Round(2)
			entry.OverBudget = entry.Spent.GreaterThan(entry.BudgetAmount)
		}
		entry.Remaining = entry.BudgetAmount.Sub(entry.Spent).Round(2)

		report.Totals.TotalBudget = report.Totals.TotalBudget.Add(entry.BudgetAmount)
		report.Totals.TotalSpent = report.Totals.TotalSpent.Add(entry.Spent)
		report.Data = append(report.Data, entry)
	}

	// The grand-total percentage carries full precision; only per-entry
	// percentages are rounded.
	if report.Totals.TotalBudget.IsPositive() {
		report.Totals.Percent = report.Totals.TotalSpent.Div(report.Totals.TotalBudget).Mul(hundred)
	}

	return report
}

func resolveName(key int64, names map[int64]string) string {
	if key == UncategorizedKey {
		return UncategorizedName
	}
	if name, ok := names[key]; ok {
		return name
	}
	return UnknownCategoryName
}
