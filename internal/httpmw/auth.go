// Package httpmw holds the fiber middleware the HTTP server applies to
// every request: API-key authentication and Redis-backed rate limiting.
package httpmw

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
)

// KeyContext holds the identity of the caller for the lifetime of a request.
type KeyContext struct {
	KeyID string
}

// KeySet is the set of valid API keys (sha256 hex digest -> key id), loaded
// once at startup from configuration. There is no partner/tier table behind
// it: every key in the set has the same access.
type KeySet map[string]string

// NewKeySet builds a KeySet from a list of raw API keys, hashing each the
// way AuthMiddleware looks them up.
func NewKeySet(rawKeys []string) KeySet {
	set := make(KeySet, len(rawKeys))
	for i, k := range rawKeys {
		set[hashKey(k)] = "key-" + strconv.Itoa(i)
	}
	return set
}

// AuthMiddleware validates the Authorization: Bearer <key> header against
// the configured key set.
func AuthMiddleware(keys KeySet) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return c.Status(401).JSON(fiber.Map{
				"error":   "missing_api_key",
				"message": "API key is required. Use Authorization: Bearer YOUR_API_KEY",
			})
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
			return c.Status(401).JSON(fiber.Map{
				"error":   "invalid_auth_format",
				"message": "Authorization header must be in format: Bearer YOUR_API_KEY",
			})
		}

		apiKey := strings.TrimSpace(parts[1])
		keyID, ok := keys[hashKey(apiKey)]
		if !ok {
			return c.Status(401).JSON(fiber.Map{
				"error":   "invalid_api_key",
				"message": "The provided API key is invalid",
			})
		}

		c.Locals("apiKey", &KeyContext{KeyID: keyID})
		return c.Next()
	}
}

func hashKey(key string) string {
	h := sha256.Sum256([]byte(key))
	return hex.EncodeToString(h[:])
}
