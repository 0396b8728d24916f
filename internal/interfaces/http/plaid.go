package http

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"ledgerlink/internal/domain/link"
	plaidclient "ledgerlink/internal/infrastructure/plaid"
)

// PlaidHandler serves the link lifecycle: link token creation, public token
// exchange, listing linked accounts, and unlinking.
type PlaidHandler struct {
	links    *link.Service
	exchange *link.ExchangeService
}

func NewPlaidHandler(links *link.Service, exchange *link.ExchangeService) *PlaidHandler {
	return &PlaidHandler{links: links, exchange: exchange}
}

type LinkTokenResponse struct {
	LinkToken string `json:"linkToken"`
}

type ExchangeRequest struct {
	PublicToken string `json:"publicToken"`
}

// HandleCreateLinkToken requests a short-lived link token from the provider
func (h *PlaidHandler) HandleCreateLinkToken(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	userID, ok := userIDFrom(r)
	if !ok {
		http.Error(w, "Authentication required", http.StatusUnauthorized)
		return
	}

	token, err := h.links.CreateLinkToken(r.Context(), userID)
	if err != nil {
		log.Printf("Error creating link token for user %d: %v", userID, err)
		if errors.Is(err, plaidclient.ErrProviderUnavailable) {
			http.Error(w, "Provider unavailable", http.StatusBadGateway)
			return
		}
		http.Error(w, "Failed to create link token", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(LinkTokenResponse{LinkToken: token})
}

// HandleExchangePublicToken exchanges a public token for a durable link and
// runs the initial sync. The response reports per-stage outcomes; a partial
// failure after the exchange is still a 200.
func (h *PlaidHandler) HandleExchangePublicToken(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	userID, ok := userIDFrom(r)
	if !ok {
		http.Error(w, "Authentication required", http.StatusUnauthorized)
		return
	}

	var req ExchangeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	outcome, err := h.exchange.ExchangeAndSync(r.Context(), userID, req.PublicToken)
	if err != nil {
		switch {
		case errors.Is(err, link.ErrInvalidPublicToken):
			http.Error(w, "Public token is malformed", http.StatusBadRequest)
		case errors.Is(err, link.ErrDuplicateLink):
			http.Error(w, "This institution is already linked", http.StatusBadRequest)
		case errors.Is(err, plaidclient.ErrProviderUnavailable):
			http.Error(w, "Provider unavailable", http.StatusBadGateway)
		default:
			log.Printf("Error exchanging public token for user %d: %v", userID, err)
			http.Error(w, "Failed to exchange token", http.StatusInternalServerError)
		}
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(outcome)
}

// HandleAccounts lists the authenticated user's linked accounts
func (h *PlaidHandler) HandleAccounts(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	userID, ok := userIDFrom(r)
	if !ok {
		http.Error(w, "Authentication required", http.StatusUnauthorized)
		return
	}

	accounts, err := h.links.ListAccounts(r.Context(), userID)
	if err != nil {
		log.Printf("Error listing linked accounts for user %d: %v", userID, err)
		http.Error(w, "Failed to list linked accounts", http.StatusInternalServerError)
		return
	}

	if accounts == nil {
		accounts = []*link.LinkedAccount{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(accounts)
}

// HandleAccountByID removes a linked account (DELETE /api/plaid/accounts/{id})
func (h *PlaidHandler) HandleAccountByID(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodDelete {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	userID, ok := userIDFrom(r)
	if !ok {
		http.Error(w, "Authentication required", http.StatusUnauthorized)
		return
	}

	id := r.PathValue("id")
	if id == "" {
		http.Error(w, "Account ID is required", http.StatusBadRequest)
		return
	}

	if err := h.links.Unlink(r.Context(), id, userID); err != nil {
		switch {
		case errors.Is(err, link.ErrLinkNotFound):
			http.Error(w, "Linked account not found", http.StatusNotFound)
		case errors.Is(err, link.ErrForbidden):
			http.Error(w, "Access forbidden", http.StatusForbidden)
		default:
			log.Printf("Error unlinking account %s for user %d: %v", id, userID, err)
			http.Error(w, "Failed to unlink account", http.StatusInternalServerError)
		}
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
