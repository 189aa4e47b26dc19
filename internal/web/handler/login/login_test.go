package login

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rollcall-admin/rollcall/internal/apperr"
	"github.com/rollcall-admin/rollcall/internal/auth"
	"github.com/rollcall-admin/rollcall/internal/config"
	"github.com/rollcall-admin/rollcall/internal/db/controller/user"
	"github.com/rollcall-admin/rollcall/internal/db/dbtest"
	"github.com/rollcall-admin/rollcall/internal/db/models"
	"github.com/rollcall-admin/rollcall/internal/web/handler"
)

const testPassword = "correct-horse"

func newTestApp(t *testing.T) *fiber.App {
	t.Helper()

	db := dbtest.New(t)
	require.NoError(t, user.Create(db, &models.User{
		Username: "jdoe",
		Name:     "JOHN DOE",
		Password: models.HashPassword(testPassword),
		Role:     models.RoleOperator,
	}))

	cfg := &config.Config{
		Auth: config.Auth{
			JWTSecret:  "test-secret",
			TokenTTL:   time.Hour,
			Carrier:    config.CarrierBoth,
			CookieName: "token",
		},
	}

	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := apperr.Status(err)

			var fe *fiber.Error
			if errors.As(err, &fe) {
				code = fe.Code
			}

			return c.SendStatus(code)
		},
	})

	deps := &handler.Deps{
		DB:        db,
		Sessions:  auth.NewSessionService(db, auth.NewCodec(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL), false),
		Transport: auth.NewTransport(&cfg.Auth, false),
	}

	require.NoError(t, new(Service).Init(app, cfg, deps))

	return app
}

func postLogin(t *testing.T, app *fiber.App, body string) *http.Response {
	t.Helper()

	req := httptest.NewRequest(fiber.MethodPost, LoginPath, strings.NewReader(body))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	req.Header.Set(fiber.HeaderUserAgent, "login-test")

	resp, err := app.Test(req, -1)
	require.NoError(t, err)

	return resp
}

func TestInitRejectsNil(t *testing.T) {
	require.Error(t, new(Service).Init(nil, nil, nil))
}

func TestLoginHandler(t *testing.T) {
	app := newTestApp(t)

	resp := postLogin(t, app, `{"username":"jdoe","password":"`+testPassword+`"}`)
	defer resp.Body.Close()

	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var body struct {
		Message string        `json:"message"`
		Token   string        `json:"token"`
		User    auth.Identity `json:"user"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))

	assert.NotEmpty(t, body.Token)
	assert.Equal(t, "jdoe", body.User.Username)
	assert.Equal(t, models.RoleOperator, body.User.Role)

	var cookie *http.Cookie
	for _, c := range resp.Cookies() {
		if c.Name == "token" {
			cookie = c
		}
	}

	require.NotNil(t, cookie, "session cookie missing")
	assert.True(t, cookie.HttpOnly)
	assert.Equal(t, body.Token, cookie.Value)
}

func TestLoginHandlerRejects(t *testing.T) {
	app := newTestApp(t)

	tests := []struct {
		name string
		body string
		want int
	}{
		{"wrong password", `{"username":"jdoe","password":"nope"}`, fiber.StatusUnauthorized},
		{"missing password", `{"username":"jdoe"}`, fiber.StatusBadRequest},
		{"malformed body", `{"username":`, fiber.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := postLogin(t, app, tt.body)
			defer resp.Body.Close()

			assert.Equal(t, tt.want, resp.StatusCode)
		})
	}
}

func TestStatusWithoutIdentity(t *testing.T) {
	app := newTestApp(t)

	resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, StatusPath, nil), -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)
}
