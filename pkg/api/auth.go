package api

import (
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"net/http"
	"strings"

	"github.com/psaab/foamdict/pkg/dictionary"
)

// AuthConfig holds authentication credentials for the API middleware.
type AuthConfig struct {
	Users   map[string]string // username -> password
	APIKeys map[string]bool   // valid API key tokens
}

// LoadAuthConfig reads credentials from a dictionary file of the form
//
//	users   { admin secret; }
//	apiKeys (token1 token2);
func LoadAuthConfig(path string) (*AuthConfig, error) {
	d, err := dictionary.ReadFile(path, dictionary.ParseOptions{InputMode: dictionary.InputError})
	if err != nil {
		return nil, fmt.Errorf("auth config: %w", err)
	}
	cfg := &AuthConfig{
		Users:   make(map[string]string),
		APIKeys: make(map[string]bool),
	}
	users := d.SubDictOrEmpty("users", dictionary.MatchLiteral)
	for _, name := range users.Keys() {
		pass, err := dictionary.Get[string](users, name, dictionary.MatchLiteral)
		if err != nil {
			return nil, fmt.Errorf("auth config: %w", err)
		}
		cfg.Users[name] = pass
	}
	var keys []string
	if d.Found("apiKeys", dictionary.MatchLiteral) {
		if keys, err = dictionary.Get[[]string](d, "apiKeys", dictionary.MatchLiteral); err != nil {
			return nil, fmt.Errorf("auth config: %w", err)
		}
	}
	for _, k := range keys {
		cfg.APIKeys[k] = true
	}
	if len(cfg.Users) == 0 && len(cfg.APIKeys) == 0 {
		return nil, fmt.Errorf("auth config %s: no users or apiKeys", path)
	}
	return cfg, nil
}

// authMiddleware wraps an http.Handler with Basic Auth / Bearer / X-API-Key checks.
// Requests to /health and /metrics bypass authentication.
func authMiddleware(cfg AuthConfig, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" || r.URL.Path == "/metrics" {
			next.ServeHTTP(w, r)
			return
		}
		if auth := r.Header.Get("Authorization"); auth != "" && checkAuthorization(auth, cfg) {
			next.ServeHTTP(w, r)
			return
		}
		if key := r.Header.Get("X-API-Key"); key != "" && cfg.APIKeys[key] {
			next.ServeHTTP(w, r)
			return
		}

		w.Header().Set("WWW-Authenticate", `Basic realm="foamdict API"`)
		writeError(w, http.StatusUnauthorized, "authentication required")
	})
}

// checkAuthorization validates an Authorization header value.
func checkAuthorization(auth string, cfg AuthConfig) bool {
	if token, ok := strings.CutPrefix(auth, "Bearer "); ok {
		return cfg.APIKeys[token]
	}
	if payload, ok := strings.CutPrefix(auth, "Basic "); ok {
		raw, err := base64.StdEncoding.DecodeString(payload)
		if err != nil {
			return false
		}
		user, pass, ok := strings.Cut(string(raw), ":")
		if !ok {
			return false
		}
		expected, exists := cfg.Users[user]
		if !exists {
			return false
		}
		return subtle.ConstantTimeCompare([]byte(pass), []byte(expected)) == 1
	}
	return false
}
