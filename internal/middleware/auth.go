package middleware

import (
	"context"
	"crypto/subtle"
	"net/http"
	"strings"

	"giftlist-api/pkg/apierror"
)

// UserIDKey is the context key of the authenticated owner's id.
const UserIDKey contextKey = "user_id"

// Authenticator resolves a session token to a user id.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (string, error)
}

// RequireOwner rejects requests without a valid session token and stores
// the owner's id in the request context.
func RequireOwner(auth Authenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := SessionToken(r)
			if token == "" {
				writeError(w, apierror.Unauthorized("Authentication required. Use X-Token or Authorization: Bearer."))
				return
			}

			userID, err := auth.Authenticate(r.Context(), token)
			if err != nil {
				writeError(w, apierror.Unauthorized("Invalid or expired token"))
				return
			}

			ctx := context.WithValue(r.Context(), UserIDKey, userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// LoginKeyHeader carries the operator key for admin endpoints.
const LoginKeyHeader = "X-Login-Key"

// RequireLoginKey admits only requests whose X-Login-Key equals key. An
// empty key rejects every request.
func RequireLoginKey(key string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			given := r.Header.Get(LoginKeyHeader)
			if given == "" {
				writeError(w, apierror.Unauthorized("Admin login key required. Use X-Login-Key."))
				return
			}
			if key == "" || subtle.ConstantTimeCompare([]byte(given), []byte(key)) != 1 {
				writeError(w, apierror.Forbidden("Invalid login key"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// SessionToken returns the token from X-Token or a Bearer Authorization
// header.
func SessionToken(r *http.Request) string {
	if token := r.Header.Get("X-Token"); token != "" {
		return token
	}
	auth := r.Header.Get("Authorization")
	if strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))
	}
	return ""
}

// GetUserID retrieves the authenticated owner's id from context.
func GetUserID(ctx context.Context) string {
	if id, ok := ctx.Value(UserIDKey).(string); ok {
		return id
	}
	return ""
}

// writeError writes an API error response.
func writeError(w http.ResponseWriter, err *apierror.Error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(err.StatusCode)
	w.Write(err.ToJSON())
}
