package auth

import (
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMatches(t *testing.T) {
	prefixes := []string{"/auth/login", "/checkalive", "/auth/"}

	assert.True(t, Matches("/auth/login", prefixes))
	assert.True(t, Matches("/checkalive", prefixes))
	assert.True(t, Matches("/auth", prefixes))
	assert.True(t, Matches("/auth/status", prefixes))
	assert.False(t, Matches("/authx", prefixes))
	assert.False(t, Matches("/users", prefixes))
	assert.False(t, Matches("/checkalive2", prefixes))
}

func TestNew(t *testing.T) {
	gate := func(name string) fiber.Handler {
		return func(c *fiber.Ctx) error {
			c.Set("X-Gate", name)
			return c.Next()
		}
	}

	app := fiber.New()
	app.Use(New(Config{
		Public:       []string{"/auth/login", "/checkalive"},
		SessionOnly:  []string{"/auth"},
		Authenticate: gate("session"),
		Authorize:    gate("policy"),
	}))

	app.All("/*", func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusNoContent)
	})

	tests := []struct {
		method string
		path   string
		want   string
	}{
		{fiber.MethodPost, "/auth/login", ""},
		{fiber.MethodGet, "/checkalive", ""},
		{fiber.MethodGet, "/auth/status", "session"},
		{fiber.MethodGet, "/auth", "session"},
		{fiber.MethodGet, "/users", "policy"},
		{fiber.MethodDelete, "/person/ana", "policy"},
		{fiber.MethodOptions, "/users", ""},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			resp, err := app.Test(httptest.NewRequest(tt.method, tt.path, nil))
			require.NoError(t, err)
			assert.Equal(t, tt.want, resp.Header.Get("X-Gate"))
		})
	}
}

func TestNewPanicsWithoutHandlers(t *testing.T) {
	assert.Panics(t, func() {
		New(Config{})
	})
}
