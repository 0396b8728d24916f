package http

import (
	"encoding/json"
	"log"
	"net/http"

	"ledgerlink/internal/domain/insight"
)

// InsightHandler serves generated insights
type InsightHandler struct {
	service *insight.Service
}

func NewInsightHandler(service *insight.Service) *InsightHandler {
	return &InsightHandler{service: service}
}

// HandleListInsights returns the most recently generated insights for the
// authenticated user. A user without enough data simply gets an empty list.
func (h *InsightHandler) HandleListInsights(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	userID, ok := userIDFrom(r)
	if !ok {
		http.Error(w, "Authentication required", http.StatusUnauthorized)
		return
	}

	insights, err := h.service.Latest(r.Context(), userID)
	if err != nil {
		log.Printf("Error listing insights for user %d: %v", userID, err)
		http.Error(w, "Failed to list insights", http.StatusInternalServerError)
		return
	}

	if insights == nil {
		insights = []insight.Insight{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(insights)
}
