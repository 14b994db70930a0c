package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/kevinaaaquil/bookshelf/models"
)

type contextKey string

const authKey contextKey = "auth"

// TokenParser turns a bearer token into the caller identity.
type TokenParser interface {
	ParseToken(token string) (*models.AuthContext, error)
}

func bearer(r *http.Request) (string, bool) {
	h := r.Header.Get("Authorization")
	scheme, token, ok := strings.Cut(h, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
		return "", false
	}
	return strings.TrimSpace(token), true
}

// Auth rejects requests without a valid bearer token.
func Auth(tokens TokenParser) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Header.Get("Authorization") == "" {
				writeError(w, http.StatusUnauthorized, "missing authorization header")
				return
			}
			raw, ok := bearer(r)
			if !ok {
				writeError(w, http.StatusUnauthorized, "invalid authorization format")
				return
			}
			ac, err := tokens.ParseToken(raw)
			if err != nil {
				writeError(w, http.StatusUnauthorized, "invalid or expired token")
				return
			}
			next.ServeHTTP(w, r.WithContext(WithAuth(r.Context(), ac)))
		})
	}
}

// Optional attaches the caller when a valid token is present and otherwise
// lets the request through anonymously. A token that is present but invalid
// is still rejected.
func Optional(tokens TokenParser) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Header.Get("Authorization") == "" {
				next.ServeHTTP(w, r)
				return
			}
			Auth(tokens)(next).ServeHTTP(w, r)
		})
	}
}

// RequireRole must run after Auth.
func RequireRole(role string) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ac := FromContext(r.Context())
			if ac == nil {
				writeError(w, http.StatusUnauthorized, "unauthorized")
				return
			}
			if ac.Role != role {
				writeError(w, http.StatusForbidden, "forbidden")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func WithAuth(ctx context.Context, ac *models.AuthContext) context.Context {
	return context.WithValue(ctx, authKey, ac)
}

// FromContext returns the caller, or nil for anonymous requests.
func FromContext(ctx context.Context) *models.AuthContext {
	ac, _ := ctx.Value(authKey).(*models.AuthContext)
	return ac
}

type errorBody struct {
	Error string `json:"error"`
}

func writeError(w http.ResponseWriter, code int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(errorBody{Error: msg}); err != nil {
		log.Error().Err(err).Msg("encode error response")
	}
}
