package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/kevinaaaquil/readinglist/utils"
)

type contextKey string

const UserIDKey contextKey = "userID"

// Auth rejects requests without a valid HS256 bearer token signed with jwtSecret.
func Auth(jwtSecret string) func(next http.Handler) http.Handler {
	secret := []byte(jwtSecret)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			auth := r.Header.Get("Authorization")
			if auth == "" {
				unauthorized(w, "missing authorization header")
				return
			}
			parts := strings.SplitN(auth, " ", 2)
			if len(parts) != 2 || parts[0] != "Bearer" {
				unauthorized(w, "invalid authorization format")
				return
			}
			claims, err := utils.ParseToken(secret, parts[1])
			if err != nil {
				unauthorized(w, "invalid or expired token")
				return
			}
			if claims.UserID == "" {
				unauthorized(w, "invalid user id")
				return
			}
			ctx := context.WithValue(r.Context(), UserIDKey, claims.UserID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func UserIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(UserIDKey).(string)
	return id, ok && id != ""
}

func unauthorized(w http.ResponseWriter, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	w.Write([]byte(`{"detail":"` + msg + `"}`))
}
