package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"github.com/homebake/api/internal/auth"
	"github.com/homebake/api/internal/enum"
)

type contextKey string

const sessionKey contextKey = "owner_session"

// Authenticate loads the owner session from the bearer token. Owner sessions
// last auth.SessionTTL; an expired token gets its own message so the
// dashboard can send the baker back to the login screen.
func Authenticate(jwtSecret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r)
			if !ok {
				writeError(w, http.StatusUnauthorized, "owner session required")
				return
			}

			claims, err := auth.ValidateToken(jwtSecret, token)
			switch {
			case errors.Is(err, jwt.ErrTokenExpired):
				writeError(w, http.StatusUnauthorized, "owner session expired, please log in again")
				return
			case err != nil:
				writeError(w, http.StatusUnauthorized, "invalid owner session")
				return
			}

			ctx := context.WithValue(r.Context(), sessionKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireOwner lets through sessions carrying the OWNER role. It must run
// after Authenticate.
func RequireOwner(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims := ClaimsFromContext(r.Context())
		if claims == nil {
			writeError(w, http.StatusUnauthorized, "owner session required")
			return
		}
		if claims.Role != enum.UserRoleOwner {
			writeError(w, http.StatusForbidden, "menu management is limited to the bakery owner")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// ClaimsFromContext returns the owner session, or nil outside Authenticate.
func ClaimsFromContext(ctx context.Context) *auth.Claims {
	claims, _ := ctx.Value(sessionKey).(*auth.Claims)
	return claims
}

func bearerToken(r *http.Request) (string, bool) {
	scheme, token, found := strings.Cut(r.Header.Get("Authorization"), " ")
	if !found || !strings.EqualFold(scheme, "bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
