package http

import (
	"context"
	"fmt"
	"net/http"

	"fintrack/internal/core"
)

type categoryRequest struct {
	Name string `json:"name"`
}

type categoryResponse struct {
	ID     int64  `json:"id"`
	UserID *int64 `json:"idUser"`
	Name   string `json:"name"`
	Shared bool   `json:"shared"`
}

func toCategoryResponse(c core.Category) categoryResponse {
	return categoryResponse{
		ID:     c.ID,
		UserID: c.UserID,
		Name:   c.Name,
		Shared: c.UserID == nil,
	}
}

func (s *Server) handleCreateCategory(w http.ResponseWriter, r *http.Request) {
	userID, err := requestUserID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	var req categoryRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	category := core.Category{UserID: &userID, Name: req.Name}
	if err := category.Validate(); err != nil {
		writeError(w, r, err)
		return
	}
	if err := s.store.CreateCategory(r.Context(), &category); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toCategoryResponse(category))
}

func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	userID, err := requestUserID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	categories, err := s.store.ListCategories(r.Context(), userID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	out := make([]categoryResponse, len(categories))
	for i, c := range categories {
		out[i] = toCategoryResponse(c)
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleGetCategory(w http.ResponseWriter, r *http.Request) {
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

	category, err := s.requireCategory(r.Context(), userID, id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toCategoryResponse(category))
}

func (s *Server) handleUpdateCategory(w http.ResponseWriter, r *http.Request) {
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

	var req categoryRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	category, err := s.requireOwnCategory(r.Context(), userID, id)
	if err != nil {
		writeError(w, r, err)
		return
	}

	category.Name = req.Name
	if err := category.Validate(); err != nil {
		writeError(w, r, err)
		return
	}
	if err := s.store.UpdateCategory(r.Context(), &category); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toCategoryResponse(category))
}

func (s *Server) handleDeleteCategory(w http.ResponseWriter, r *http.Request) {
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

	if _, err := s.requireOwnCategory(r.Context(), userID, id); err != nil {
		writeError(w, r, err)
		return
	}
	if err := s.store.DeleteCategory(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Category deleted"})
}

// requireOwnCategory is stricter than requireCategory: shared categories
// can be read and referenced, but only the owner may modify theirs.
func (s *Server) requireOwnCategory(ctx context.Context, userID, id int64) (core.Category, error) {
	category, err := s.store.GetCategory(ctx, id)
	if err != nil {
		return core.Category{}, err
	}
	if category.UserID == nil || *category.UserID != userID {
		return core.Category{}, fmt.Errorf("category %d: %w", id, core.ErrPermissionDenied)
	}
	return category, nil
}
