package http

import (
	"net/http"

	"ledgerlink/internal/shared/middleware"
)

// userIDFrom extracts the authenticated user ID placed in the request
// context by the auth middleware
func userIDFrom(r *http.Request) (int64, bool) {
	userID, ok := r.Context().Value(middleware.UserIDKey).(int64)
	return userID, ok
}
