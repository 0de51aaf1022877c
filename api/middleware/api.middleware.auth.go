package middleware

import (
	"crypto/subtle"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/itsatony/w4b_v3/server/sensorhub/internal/errors"
)

// BearerConfig configures the static bearer token check. An empty Token disables it.
type BearerConfig struct {
	Token string
}

type BearerMiddleware struct {
	config BearerConfig
}

func NewBearerMiddleware(config BearerConfig) *BearerMiddleware {
	return &BearerMiddleware{config: config}
}

// Authenticate rejects requests that do not carry the configured bearer token.
func (b *BearerMiddleware) Authenticate(next http.Handler) http.Handler {
	if b.config.Token == "" {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := extractToken(r)
		if token == "" {
			handleError(w, errors.NewAuthError("no token provided", nil))
			return
		}
		if subtle.ConstantTimeCompare([]byte(token), []byte(b.config.Token)) != 1 {
			handleError(w, errors.NewAuthError("invalid token", nil))
			return
		}
		next.ServeHTTP(w, r)
	})
}

func extractToken(r *http.Request) string {
	parts := strings.Fields(r.Header.Get("Authorization"))
	if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
		return parts[1]
	}
	return ""
}

func handleError(w http.ResponseWriter, err *errors.APIError) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("WWW-Authenticate", "Bearer")
	w.WriteHeader(err.Code)
	json.NewEncoder(w).Encode(err)
}
