package httpmw

import (
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestApp(keys KeySet) *fiber.App {
	app := fiber.New()
	app.Use(AuthMiddleware(keys))
	app.Get("/ping", func(c *fiber.Ctx) error {
		return c.SendString("pong")
	})
	return app
}

func TestAuthMiddlewareRejectsMissingHeader(t *testing.T) {
	app := newTestApp(NewKeySet([]string{"secret"}))
	req := httptest.NewRequest("GET", "/ping", nil)

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, 401, resp.StatusCode)
}

func TestAuthMiddlewareRejectsMalformedHeader(t *testing.T) {
	app := newTestApp(NewKeySet([]string{"secret"}))
	req := httptest.NewRequest("GET", "/ping", nil)
	req.Header.Set("Authorization", "secret")

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, 401, resp.StatusCode)
}

func TestAuthMiddlewareRejectsUnknownKey(t *testing.T) {
	app := newTestApp(NewKeySet([]string{"secret"}))
	req := httptest.NewRequest("GET", "/ping", nil)
	req.Header.Set("Authorization", "Bearer wrong")

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, 401, resp.StatusCode)
}

func TestAuthMiddlewareAcceptsKnownKey(t *testing.T) {
	app := newTestApp(NewKeySet([]string{"secret"}))
	req := httptest.NewRequest("GET", "/ping", nil)
	req.Header.Set("Authorization", "Bearer secret")

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)
}

func TestNewKeySetHashesDistinctKeysDistinctly(t *testing.T) {
	keys := NewKeySet([]string{"one", "two"})
	assert.Len(t, keys, 2)
}
