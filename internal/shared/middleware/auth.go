package middleware

import (
	"context"
	"net/http"
	"strings"

	"ledgerlink/internal/shared/auth"
)

type ContextKey string

// UserIDKey carries the authenticated user's ID through the request context.
const UserIDKey ContextKey = "user_id"

// authCookieName matches the cookie the auth handlers set on login.
const authCookieName = "access_token"

// Auth validates the request's JWT and puts the user ID in the context.
// Browser clients carry the token in an HttpOnly cookie; API clients send
// a Bearer header.
func Auth(jwt *auth.JWT) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := requestToken(r)
			if !ok {
				http.Error(w, "Authentication required", http.StatusUnauthorized)
				return
			}

			claims, err := jwt.Validate(token)
			if err != nil {
				http.Error(w, "Invalid or expired token", http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), UserIDKey, claims.UserID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// requestToken pulls the JWT from the auth cookie, falling back to the
// Authorization header.
func requestToken(r *http.Request) (string, bool) {
	if cookie, err := r.Cookie(authCookieName); err == nil && cookie.Value != "" {
		return cookie.Value, true
	}

	token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
	if !ok || token == "" {
		return "", false
	}
	return token, true
}
