// Package auth provides optional bearer-token authentication for the API.
// When no signing key is configured the middleware is a no-op, which keeps
// local development and tests friction-free.
package auth

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	dErrors "memento/pkg/domain-errors"
	"memento/pkg/platform/httputil"
)

// Middleware validates Bearer JWTs signed with the configured HMAC key.
type Middleware struct {
	signingKey []byte
	logger     *slog.Logger
}

// New builds the auth middleware. An empty signing key disables enforcement.
func New(signingKey string, logger *slog.Logger) *Middleware {
	var key []byte
	if signingKey != "" {
		key = []byte(signingKey)
	}
	return &Middleware{signingKey: key, logger: logger}
}

// Enabled reports whether token validation is enforced.
func (m *Middleware) Enabled() bool { return len(m.signingKey) > 0 }

// RequireToken rejects requests without a valid bearer token when enabled.
func (m *Middleware) RequireToken(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !m.Enabled() {
			next.ServeHTTP(w, r)
			return
		}

		header := r.Header.Get("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "bearer token required"))
			return
		}

		parsed, err := jwt.Parse(token, func(t *jwt.Token) (any, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, jwt.ErrSignatureInvalid
			}
			return m.signingKey, nil
		}, jwt.WithValidMethods([]string{"HS256"}))
		if err != nil || !parsed.Valid {
			if m.logger != nil {
				m.logger.WarnContext(r.Context(), "token rejected", "error", err)
			}
			httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "invalid token"))
			return
		}

		next.ServeHTTP(w, r)
	})
}
