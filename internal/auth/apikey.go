// Package auth verifies API keys supplied in the X-API-Key header. Keys are
// either statically configured or dynamically issued and looked up in the
// cache under their SHA-256 hash.
package auth

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/Jayanth7416/healthcare-analytics-platform/internal/cache"
	"github.com/Jayanth7416/healthcare-analytics-platform/internal/logging"
)

// Header is the request header carrying the API key.
const Header = "X-API-Key"

var (
	ErrMissingKey = errors.New("auth: missing API key")
	ErrInvalidKey = errors.New("auth: invalid API key")
)

// KeyInfo describes an API key's owner and permissions.
type KeyInfo struct {
	Name       string   `json:"name"`
	ProviderID string   `json:"provider_id"`
	Scopes     []string `json:"scopes"`
}

// HasScope reports whether the key carries the required scope. The admin
// scope implies every other scope.
func (k *KeyInfo) HasScope(scope string) bool {
	for _, s := range k.Scopes {
		if s == scope || s == "admin" {
			return true
		}
	}
	return false
}

// Verifier resolves API keys against static configuration and the cache.
type Verifier struct {
	static map[string]KeyInfo
	cache  *cache.Cache
	logger *logging.Logger
}

// NewVerifier builds a verifier. cache may be nil, disabling dynamic keys.
func NewVerifier(static map[string]KeyInfo, c *cache.Cache, logger *logging.Logger) *Verifier {
	if static == nil {
		static = make(map[string]KeyInfo)
	}
	return &Verifier{static: static, cache: c, logger: logger}
}

// Verify resolves an API key to its KeyInfo.
func (v *Verifier) Verify(ctx context.Context, key string) (*KeyInfo, error) {
	if key == "" {
		return nil, ErrMissingKey
	}

	if info, ok := v.static[key]; ok {
		return &info, nil
	}

	if v.cache != nil {
		var info KeyInfo
		found, err := v.cache.Get(ctx, "api_key:"+HashKey(key), &info)
		if err != nil {
			v.logger.WarnContext(ctx, "api key cache lookup failed", logging.Error(err))
		}
		if found {
			return &info, nil
		}
	}

	return nil, ErrInvalidKey
}

// Middleware enforces a valid API key with the required scope on every
// request it wraps.
func (v *Verifier) Middleware(requiredScope string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			info, err := v.Verify(r.Context(), r.Header.Get(Header))
			if err != nil {
				status := http.StatusUnauthorized
				msg := "Invalid API key"
				if errors.Is(err, ErrMissingKey) {
					msg = "Missing API key. Provide " + Header + " header."
				}
				writeAuthError(w, status, msg)
				return
			}

			if requiredScope != "" && !info.HasScope(requiredScope) {
				writeAuthError(w, http.StatusForbidden, "Insufficient permissions. Required scope: "+requiredScope)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func writeAuthError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

// HashKey returns the hex SHA-256 hash under which a key is stored.
func HashKey(key string) string {
	sum := sha256.Sum256([]byte(key))
	return hex.EncodeToString(sum[:])
}

// GenerateKey creates a new API key.
func GenerateKey() (string, error) {
	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		return "", err
	}
	return "hap_" + base64.RawURLEncoding.EncodeToString(raw), nil
}
