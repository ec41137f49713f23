package middleware

import (
	"context"
	"net/http"
	"strings"
)

type contextKey string

// userIDKey is the request context key carrying the authenticated user ID.
const userIDKey contextKey = "user_id"

// TokenValidator validates a bearer token and returns the user ID it
// belongs to.
type TokenValidator interface {
	ValidateToken(token string) (string, error)
}

// RequireAuth rejects requests without a valid bearer token and stores the
// authenticated user ID in the request context.
func RequireAuth(validator TokenValidator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID, ok := userIDFromRequest(r, validator)
			if !ok {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnauthorized)
				w.Write([]byte(`{"error":"you must be logged in"}`))
				return
			}
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), userIDKey, userID)))
		})
	}
}

// OptionalAuth stores the user ID in the context when a valid bearer token
// is present and passes the request through untouched otherwise.
func OptionalAuth(validator TokenValidator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if userID, ok := userIDFromRequest(r, validator); ok {
				r = r.WithContext(context.WithValue(r.Context(), userIDKey, userID))
			}
			next.ServeHTTP(w, r)
		})
	}
}

// UserID returns the authenticated user ID from the context, if any.
func UserID(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(userIDKey).(string)
	return id, ok && id != ""
}

func userIDFromRequest(r *http.Request, validator TokenValidator) (string, bool) {
	auth := r.Header.Get("Authorization")
	if !strings.HasPrefix(auth, "Bearer ") {
		return "", false
	}
	userID, err := validator.ValidateToken(strings.TrimPrefix(auth, "Bearer "))
	if err != nil {
		return "", false
	}
	return userID, true
}
