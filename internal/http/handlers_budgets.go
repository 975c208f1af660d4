package http

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"fintrack/internal/core"

	"github.com/shopspring/decimal"
)

const dateLayout = "2006-01-02"

type createBudgetRequest struct {
	CategoryID  *int64          `json:"idCategory"`
	Amount      decimal.Decimal `json:"amount"`
	PeriodStart string          `json:"periodStart"`
	PeriodEnd   string          `json:"periodEnd"`
}

type updateBudgetRequest struct {
	CategoryID  *int64           `json:"idCategory"`
	Amount      *decimal.Decimal `json:"amount"`
	PeriodStart *string          `json:"periodStart"`
	PeriodEnd   *string          `json:"periodEnd"`
}

type budgetResponse struct {
	ID          int64           `json:"id"`
	CategoryID  *int64          `json:"idCategory"`
	Amount      decimal.Decimal `json:"amount"`
	PeriodStart string          `json:"periodStart"`
	PeriodEnd   string          `json:"periodEnd"`
}

func toBudgetResponse(b core.Budget) budgetResponse {
	return budgetResponse{
		ID:          b.ID,
		CategoryID:  b.CategoryID,
		Amount:      b.Amount,
		PeriodStart: b.PeriodStart.UTC().Format(dateLayout),
		PeriodEnd:   b.PeriodEnd.UTC().Format(dateLayout),
	}
}

func (s *Server) handleCreateBudget(w http.ResponseWriter, r *http.Request) {
	userID, err := requestUserID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	var req createBudgetRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	start, err := core.ParseAnchorDate(req.PeriodStart)
	if err != nil {
		writeError(w, r, fmt.Errorf("periodStart: %w", err))
		return
	}
	end, err := core.ParseAnchorDate(req.PeriodEnd)
	if err != nil {
		writeError(w, r, fmt.Errorf("periodEnd: %w", err))
		return
	}

	budget := core.Budget{
		UserID:      userID,
		CategoryID:  req.CategoryID,
		Amount:      req.Amount,
		PeriodStart: start,
		PeriodEnd:   end,
	}
	if err := budget.Validate(); err != nil {
		writeError(w, r, err)
		return
	}

	categoryName := ""
	if req.CategoryID != nil {
		category, err := s.requireCategory(r.Context(), userID, *req.CategoryID)
		if err != nil {
			writeError(w, r, err)
			return
		}
		categoryName = category.Name
	}

	if err := s.store.CreateBudget(r.Context(), &budget); err != nil {
		writeError(w, r, err)
		return
	}

	if err := s.notifier.BudgetCreated(r.Context(), userID, budget.Amount, categoryName); err != nil {
		slog.ErrorContext(r.Context(), "Failed to record budget notification",
			"error", err, "budget_id", budget.ID)
	}

	writeJSON(w, http.StatusCreated, toBudgetResponse(budget))
}

func (s *Server) handleListBudgets(w http.ResponseWriter, r *http.Request) {
	userID, err := requestUserID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	budgets, err := s.store.ListBudgetsByUser(r.Context(), userID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	out := make([]budgetResponse, len(budgets))
	for i, b := range budgets {
		out[i] = toBudgetResponse(b)
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleGetBudget(w http.ResponseWriter, r *http.Request) {
	userID, err := requestUserID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	budget, err := s.requireBudget(r.Context(), userID, id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toBudgetResponse(budget))
}

func (s *Server) handleUpdateBudget(w http.ResponseWriter, r *http.Request) {
	userID, err := requestUserID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	var req updateBudgetRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	budget, err := s.requireBudget(r.Context(), userID, id)
	if err != nil {
		writeError(w, r, err)
		return
	}

	// Absent fields keep their current values.
	if req.CategoryID != nil {
		if _, err := s.requireCategory(r.Context(), userID, *req.CategoryID); err != nil {
			writeError(w, r, err)
			return
		}
		budget.CategoryID = req.CategoryID
	}
	if req.Amount != nil {
		budget.Amount = *req.Amount
	}
	if req.PeriodStart != nil {
		start, err := core.ParseAnchorDate(*req.PeriodStart)
		if err != nil {
			writeError(w, r, fmt.Errorf("periodStart: %w", err))
			return
		}
		budget.PeriodStart = start
	}
	if req.PeriodEnd != nil {
		end, err := core.ParseAnchorDate(*req.PeriodEnd)
		if err != nil {
			writeError(w, r, fmt.Errorf("periodEnd: %w", err))
			return
		}
		budget.PeriodEnd = end
	}

	if err := budget.Validate(); err != nil {
		writeError(w, r, err)
		return
	}
	if err := s.store.UpdateBudget(r.Context(), &budget); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toBudgetResponse(budget))
}

func (s *Server) handleDeleteBudget(w http.ResponseWriter, r *http.Request) {
	userID, err := requestUserID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	budget, err := s.requireBudget(r.Context(), userID, id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := s.store.DeleteBudget(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}

	categoryName := ""
	if budget.CategoryID != nil {
		if names, err := s.store.CategoryNames(r.Context(), []int64{*budget.CategoryID}); err == nil {
			categoryName = names[*budget.CategoryID]
		}
	}
	if err := s.notifier.BudgetDeleted(r.Context(), userID, budget.Amount, categoryName); err != nil {
		slog.ErrorContext(r.Context(), "Failed to record budget notification",
			"error", err, "budget_id", id)
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "Budget deleted"})
}

// handleBudgetUsage serves the single-budget consumption figure:
// GET /api/budgets/{id}/usage
func (s *Server) handleBudgetUsage(w http.ResponseWriter, r *http.Request) {
	userID, err := requestUserID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	usage, err := s.goals.EvaluateUsage(r.Context(), userID, id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, usage)
}

func (s *Server) requireBudget(ctx context.Context, userID, id int64) (core.Budget, error) {
	budget, err := s.store.GetBudget(ctx, id)
	if err != nil {
		return core.Budget{}, err
	}
	if budget.UserID != userID {
		return core.Budget{}, fmt.Errorf("budget %d: %w", id, core.ErrPermissionDenied)
	}
	return budget, nil
}

// requireCategory checks that a category exists and is usable by the
// user: shared, or owned by them.
func (s *Server) requireCategory(ctx context.Context, userID, id int64) (core.Category, error) {
	category, err := s.store.GetCategory(ctx, id)
	if err != nil {
		return core.Category{}, err
	}
	if !category.OwnedBy(userID) {
		return core.Category{}, fmt.Errorf("category %d: %w", id, core.ErrPermissionDenied)
	}
	return category, nil
}
