package http

import (
	"net/http"
)

// handleGoals serves the per-category budget-vs-spend report:
// GET /api/goals?period=monthly&date=2025-11-01&type=expense&idCategory=1
func (s *Server) handleGoals(w http.ResponseWriter, r *http.Request) {
	userID, err := requestUserID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	q := r.URL.Query()
	period := q.Get("period")
	anchorDate := q.Get("date")
	typeFilter := q.Get("type")
	if typeFilter == "" {
		typeFilter = "expense"
	}

	categoryID, err := queryCategoryID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	report, err := s.goals.ResolveGoals(r.Context(), userID, period, anchorDate, typeFilter, categoryID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, report)
}
