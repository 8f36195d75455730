package api

import (
	"crypto/subtle"
	"net/http"

	"github.com/FocuswithJustin/tcvalidate/core/errors"
	"github.com/FocuswithJustin/tcvalidate/internal/logging"
)

// AuthConfig holds authentication configuration.
type AuthConfig struct {
	Enabled bool
	APIKey  string
}

// minAPIKeyLength is the shortest key accepted when auth is enabled.
const minAPIKeyLength = 16

// AuthMiddleware checks for API key authentication when enabled.
// Requests must carry the key in the X-API-Key header, or as the api_key
// query parameter for websocket upgrades where browsers cannot set headers.
// Health endpoints always bypass authentication.
func AuthMiddleware(authCfg AuthConfig, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !authCfg.Enabled || isPublicEndpoint(r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}

		apiKey := r.Header.Get("X-API-Key")
		if apiKey == "" && r.URL.Path == "/ws" {
			apiKey = r.URL.Query().Get("api_key")
		}
		if apiKey == "" {
			logging.WarnContext(r.Context(), "unauthorized request",
				"path", r.URL.Path,
				"reason", "missing API key")
			respondError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Missing X-API-Key header")
			return
		}

		if !constantTimeCompare(apiKey, authCfg.APIKey) {
			logging.WarnContext(r.Context(), "unauthorized request",
				"path", r.URL.Path,
				"reason", "invalid API key")
			respondError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Invalid API key")
			return
		}

		next.ServeHTTP(w, r)
	})
}

// isPublicEndpoint returns true if the endpoint should always be accessible
// without authentication.
func isPublicEndpoint(path string) bool {
	switch path {
	case "/", "/api/health":
		return true
	}
	return false
}

// ValidateAuthConfig validates the authentication configuration.
func ValidateAuthConfig(cfg AuthConfig) error {
	if !cfg.Enabled {
		return nil
	}
	if cfg.APIKey == "" {
		return errors.NewValidation("apiKey", "API key is required when authentication is enabled")
	}
	if len(cfg.APIKey) < minAPIKeyLength {
		return errors.NewValidation("apiKey", "API key must be at least 16 characters")
	}
	return nil
}

func constantTimeCompare(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}
