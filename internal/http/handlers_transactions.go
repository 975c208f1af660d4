package http

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"fintrack/internal/core"

	"github.com/shopspring/decimal"
)

type createTransactionRequest struct {
	CategoryID  *int64          `json:"idCategory"`
	Type        string          `json:"type"`
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description"`
	Source      string          `json:"source"`
	Date        string          `json:"date"`
}

type updateTransactionRequest struct {
	CategoryID  *int64           `json:"idCategory"`
	Type        *string          `json:"type"`
	Amount      *decimal.Decimal `json:"amount"`
	Description *string          `json:"description"`
	Source      *string          `json:"source"`
	Date        *string          `json:"date"`
}

type transactionResponse struct {
	ID          int64           `json:"id"`
	CategoryID  *int64          `json:"idCategory"`
	Type        string          `json:"type"`
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description"`
	Source      string          `json:"source,omitempty"`
	Date        string          `json:"date"`
}

func toTransactionResponse(tx core.Transaction) transactionResponse {
	return transactionResponse{
		ID:          tx.ID,
		CategoryID:  tx.CategoryID,
		Type:        string(tx.Type),
		Amount:      tx.Amount,
		Description: tx.Description,
		Source:      tx.Source,
		Date:        tx.Date.UTC().Format(dateLayout),
	}
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	userID, err := requestUserID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	var req createTransactionRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	txType, err := core.ParseTransactionType(req.Type)
	if err != nil {
		writeError(w, r, err)
		return
	}

	date := time.Now().UTC()
	if req.Date != "" {
		date, err = core.ParseAnchorDate(req.Date)
		if err != nil {
			writeError(w, r, fmt.Errorf("date: %w", err))
			return
		}
	}

	if req.CategoryID != nil {
		if _, err := s.requireCategory(r.Context(), userID, *req.CategoryID); err != nil {
			writeError(w, r, err)
			return
		}
	}

	tx := core.Transaction{
		UserID:      userID,
		CategoryID:  req.CategoryID,
		Type:        txType,
		Amount:      req.Amount,
		Description: req.Description,
		Source:      req.Source,
		Date:        date,
	}
	if err := tx.Validate(); err != nil {
		writeError(w, r, err)
		return
	}
	if err := s.store.CreateTransaction(r.Context(), &tx); err != nil {
		writeError(w, r, err)
		return
	}

	if err := s.notifier.TransactionCreated(r.Context(), userID, tx.Type, tx.Amount, tx.Description); err != nil {
		slog.ErrorContext(r.Context(), "Failed to record transaction notification",
			"error", err, "transaction_id", tx.ID)
	}

	writeJSON(w, http.StatusCreated, toTransactionResponse(tx))
}

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	userID, err := requestUserID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	txs, err := s.store.ListTransactionsByUser(r.Context(), userID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	out := make([]transactionResponse, len(txs))
	for i, tx := range txs {
		out[i] = toTransactionResponse(tx)
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleGetTransaction(w http.ResponseWriter, r *http.Request) {
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

	tx, err := s.requireTransaction(r.Context(), userID, id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toTransactionResponse(tx))
}

func (s *Server) handleUpdateTransaction(w http.ResponseWriter, r *http.Request) {
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

	var req updateTransactionRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	tx, err := s.requireTransaction(r.Context(), userID, id)
	if err != nil {
		writeError(w, r, err)
		return
	}

	if req.CategoryID != nil {
		if _, err := s.requireCategory(r.Context(), userID, *req.CategoryID); err != nil {
			writeError(w, r, err)
			return
		}
		tx.CategoryID = req.CategoryID
	}
	if req.Type != nil {
		txType, err := core.ParseTransactionType(*req.Type)
		if err != nil {
			writeError(w, r, err)
			return
		}
		tx.Type = txType
	}
	if req.Amount != nil {
		tx.Amount = *req.Amount
	}
	if req.Description != nil {
		tx.Description = *req.Description
	}
	if req.Source != nil {
		tx.Source = *req.Source
	}
	if req.Date != nil {
		date, err := core.ParseAnchorDate(*req.Date)
		if err != nil {
			writeError(w, r, fmt.Errorf("date: %w", err))
			return
		}
		tx.Date = date
	}

	if err := tx.Validate(); err != nil {
		writeError(w, r, err)
		return
	}
	if err := s.store.UpdateTransaction(r.Context(), &tx); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toTransactionResponse(tx))
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
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

	tx, err := s.requireTransaction(r.Context(), userID, id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := s.store.DeleteTransaction(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}

	if err := s.notifier.TransactionDeleted(r.Context(), userID, tx.Type, tx.Amount, tx.Description); err != nil {
		slog.ErrorContext(r.Context(), "Failed to record transaction notification",
			"error", err, "transaction_id", id)
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "Transaction deleted"})
}

func (s *Server) requireTransaction(ctx context.Context, userID, id int64) (core.Transaction, error) {
	tx, err := s.store.GetTransaction(ctx, id)
	if err != nil {
		return core.Transaction{}, err
	}
	if tx.UserID != userID {
		return core.Transaction{}, fmt.Errorf("transaction %d: %w", id, core.ErrPermissionDenied)
	}
	return tx, nil
}
