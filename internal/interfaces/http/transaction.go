package http

import (
	"encoding/json"
	"log"
	"net/http"
	"strconv"

	"ledgerlink/internal/domain/transaction"
)

const (
	defaultTransactionLimit = 50
	maxTransactionLimit     = 200
)

// TransactionHandler serves transactions across a user's linked accounts
type TransactionHandler struct {
	repo transaction.Repository
}

func NewTransactionHandler(repo transaction.Repository) *TransactionHandler {
	return &TransactionHandler{repo: repo}
}

// HandleListTransactions lists the authenticated user's transactions,
// newest first, with limit/offset pagination
func (h *TransactionHandler) HandleListTransactions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	userID, ok := userIDFrom(r)
	if !ok {
		http.Error(w, "Authentication required", http.StatusUnauthorized)
		return
	}

	limit := defaultTransactionLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			http.Error(w, "Invalid limit", http.StatusBadRequest)
			return
		}
		if n > maxTransactionLimit {
			n = maxTransactionLimit
		}
		limit = n
	}

	offset := 0
	if v := r.URL.Query().Get("offset"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			http.Error(w, "Invalid offset", http.StatusBadRequest)
			return
		}
		offset = n
	}

	transactions, err := h.repo.ListByUserID(r.Context(), userID, limit, offset)
	if err != nil {
		log.Printf("Error listing transactions for user %d: %v", userID, err)
		http.Error(w, "Failed to list transactions", http.StatusInternalServerError)
		return
	}

	if transactions == nil {
		transactions = []*transaction.Transaction{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(transactions)
}
