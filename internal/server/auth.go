package server

import (
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"net/http"
	"strings"

	"github.com/vanshika/momoledger/internal/config"
)

const (
	msgAuthRequired      = "Authentication required"
	msgAuthHeaderInvalid = "Invalid authentication header format"
	msgAuthInvalid       = "Invalid credentials"
)

// basicAuthMiddleware rejects requests without the configured credentials.
// A disabled config passes every request through.
func basicAuthMiddleware(cfg config.AuthConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if !cfg.Enabled() {
			return next
		}
		challenge := fmt.Sprintf("Basic realm=%q", cfg.Realm)

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" || !strings.HasPrefix(header, "Basic ") {
				unauthorized(w, challenge, msgAuthRequired)
				return
			}

			username, password, ok := decodeBasicCredentials(strings.TrimPrefix(header, "Basic "))
			if !ok {
				unauthorized(w, challenge, msgAuthHeaderInvalid)
				return
			}

			userOK := subtle.ConstantTimeCompare([]byte(username), []byte(cfg.Username)) == 1
			passOK := subtle.ConstantTimeCompare([]byte(password), []byte(cfg.Password)) == 1
			if !userOK || !passOK {
				unauthorized(w, challenge, msgAuthInvalid)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func decodeBasicCredentials(encoded string) (string, string, bool) {
	decoded, err := base64.StdEncoding.DecodeString(strings.TrimSpace(encoded))
	if err != nil {
		return "", "", false
	}
	username, password, ok := strings.Cut(string(decoded), ":")
	if !ok {
		return "", "", false
	}
	return username, password, true
}

func unauthorized(w http.ResponseWriter, challenge, msg string) {
	w.Header().Set("WWW-Authenticate", challenge)
	writeError(w, http.StatusUnauthorized, msg)
}
