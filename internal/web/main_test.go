package web

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/rollcall-admin/rollcall/internal/apperr"
	"github.com/rollcall-admin/rollcall/internal/auth"
	"github.com/rollcall-admin/rollcall/internal/config"
	"github.com/rollcall-admin/rollcall/internal/db/controller/person"
	"github.com/rollcall-admin/rollcall/internal/db/controller/session"
	"github.com/rollcall-admin/rollcall/internal/db/controller/user"
	"github.com/rollcall-admin/rollcall/internal/db/dbtest"
	"github.com/rollcall-admin/rollcall/internal/db/models"
	"github.com/rollcall-admin/rollcall/internal/ingest"
	"github.com/rollcall-admin/rollcall/internal/notify"
	"github.com/rollcall-admin/rollcall/internal/validate"
	"github.com/rollcall-admin/rollcall/internal/web/handler"
)

const testPassword = "correct-horse"

type fakeQueue struct {
	batches []notify.Batch
}

func (f *fakeQueue) Enqueue(b notify.Batch) bool {
	f.batches = append(f.batches, b)
	return true
}

type fixture struct {
	svc   *Service
	db    *gorm.DB
	queue *fakeQueue
}

func newFixture(t *testing.T) fixture {
	t.Helper()

	db := dbtest.New(t)

	cfg := &config.Config{
		Webserver: config.Webserver{Port: 8080, URL: "http://localhost:8080"},
		Auth: config.Auth{
			JWTSecret:       "test-secret",
			TokenTTL:        time.Hour,
			Carrier:         config.CarrierBoth,
			CookieName:      "token",
			PolicyCacheSize: 16,
		},
	}

	sessions := auth.NewSessionService(db, auth.NewCodec(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL), false)
	transport := auth.NewTransport(&cfg.Auth, false)
	v := validate.New()
	queue := &fakeQueue{}

	deps := &handler.Deps{
		DB:        db,
		Validator: v,
		Sessions:  sessions,
		Transport: transport,
		Gate:      auth.NewMiddleware(transport, sessions, auth.NewPolicy(auth.DefaultPolicies(), cfg.Auth.PolicyCacheSize)),
		Pipeline:  ingest.NewPipeline(db, v, ingest.WithNotifier(queue)),
		Notifier:  queue,
	}

	for _, u := range []struct {
		username string
		role     models.Role
	}{
		{"root", models.RoleRoot},
		{"ana", models.RoleAdmin},
		{"jdoe", models.RoleOperator},
		{"bob", models.RoleOperator},
	} {
		require.NoError(t, user.Create(db, &models.User{
			Username: u.username,
			Name:     strings.ToUpper(u.username),
			Password: models.HashPassword(testPassword),
			Role:     u.role,
		}))
	}

	return fixture{svc: New(cfg, deps), db: db, queue: queue}
}

func (f fixture) do(t *testing.T, method, path, token string, body any) (int, map[string]any) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	}

	if token != "" {
		req.Header.Set(fiber.HeaderAuthorization, "Bearer "+token)
	}

	return f.send(t, req)
}

func (f fixture) upload(t *testing.T, path, token, field, filename, content string) (int, map[string]any) {
	t.Helper()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	part, err := w.CreateFormFile(field, filename)
	require.NoError(t, err)

	_, err = part.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set(fiber.HeaderContentType, w.FormDataContentType())
	req.Header.Set(fiber.HeaderAuthorization, "Bearer "+token)

	return f.send(t, req)
}

func (f fixture) send(t *testing.T, req *http.Request) (int, map[string]any) {
	t.Helper()

	resp, err := f.svc.App.Test(req, -1)
	require.NoError(t, err)

	defer resp.Body.Close()

	out := map[string]any{}
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	if len(raw) > 0 && strings.HasPrefix(resp.Header.Get(fiber.HeaderContentType), fiber.MIMEApplicationJSON) {
		require.NoError(t, json.Unmarshal(raw, &out))
	}

	return resp.StatusCode, out
}

func (f fixture) login(t *testing.T, username string) string {
	t.Helper()

	status, body := f.do(t, http.MethodPost, "/auth/login", "", map[string]string{
		"username": username,
		"password": testPassword,
	})
	require.Equal(t, http.StatusOK, status, body)

	token, ok := body["token"].(string)
	require.True(t, ok)

	return token
}

func TestLogin(t *testing.T) {
	f := newFixture(t)

	tests := []struct {
		name   string
		body   map[string]string
		status int
	}{
		{"missing password", map[string]string{"username": "jdoe"}, http.StatusBadRequest},
		{"unknown user", map[string]string{"username": "nobody", "password": "x"}, http.StatusNotFound},
		{"wrong password", map[string]string{"username": "jdoe", "password": "wrong"}, http.StatusUnauthorized},
		{"valid", map[string]string{"username": "jdoe", "password": testPassword}, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, body := f.do(t, http.MethodPost, "/auth/login", "", tt.body)
			assert.Equal(t, tt.status, status)
			assert.NotEmpty(t, body["message"])
		})
	}
}

func TestStatus(t *testing.T) {
	f := newFixture(t)
	token := f.login(t, "jdoe")

	for _, path := range []string{"/auth/status", "/auth/"} {
		status, body := f.do(t, http.MethodGet, path, token, nil)
		require.Equal(t, http.StatusOK, status, path)

		u := body["user"].(map[string]any)
		assert.Equal(t, "jdoe", u["username"])
		assert.Equal(t, "operator", u["role"])
	}

	status, body := f.do(t, http.MethodGet, "/auth/status", "", nil)
	assert.Equal(t, http.StatusForbidden, status)
	assert.Equal(t, "not logged in", body["message"])

	status, _ = f.do(t, http.MethodGet, "/auth/status", "garbage", nil)
	assert.Equal(t, http.StatusInternalServerError, status)
}

func TestLogout(t *testing.T) {
	f := newFixture(t)
	token := f.login(t, "jdoe")

	status, _ := f.do(t, http.MethodGet, "/auth/logout", token, nil)
	require.Equal(t, http.StatusOK, status)

	status, body := f.do(t, http.MethodGet, "/auth/status", token, nil)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "session revoked", body["message"])

	status, _ = f.do(t, http.MethodGet, "/auth/logout", "", nil)
	assert.Equal(t, http.StatusForbidden, status)
}

func TestOperatorPolicy(t *testing.T) {
	f := newFixture(t)
	token := f.login(t, "jdoe")

	tests := []struct {
		method string
		path   string
		status int
	}{
		{http.MethodGet, "/users", http.StatusOK},
		{http.MethodGet, "/users/bob", http.StatusOK},
		{http.MethodGet, "/users/jdoe", http.StatusOK},
		{http.MethodDelete, "/users/bob", http.StatusForbidden},
		{http.MethodPost, "/users/bob", http.StatusForbidden},
		{http.MethodPost, "/users", http.StatusForbidden},
		{http.MethodGet, "/person", http.StatusOK},
		{http.MethodGet, "/person/stats", http.StatusOK},
		{http.MethodGet, "/person/nobody", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			status, _ := f.do(t, tt.method, tt.path, token, nil)
			assert.Equal(t, tt.status, status)
		})
	}
}

func TestCreateUser(t *testing.T) {
	f := newFixture(t)
	token := f.login(t, "ana")

	status, body := f.do(t, http.MethodPost, "/users", token, map[string]string{
		"name":  "Álvaro Núñez",
		"email": "Alvaro@Example.com",
	})
	require.Equal(t, http.StatusCreated, status, body)

	u := body["user"].(map[string]any)
	assert.Equal(t, "anunez", u["username"])
	assert.Equal(t, "ALVARO NUÑEZ", u["name"])
	assert.Equal(t, "operator", u["role"])
	assert.NotContains(t, u, "password")

	// generated password goes out with the onboarding notification
	require.Len(t, f.queue.batches, 1)
	msg := f.queue.batches[0].Messages[0]
	assert.Equal(t, "alvaro@example.com", msg.Address)
	assert.Len(t, msg.Attributes[notify.AttrPassword], 8)

	status, _ = f.do(t, http.MethodPost, "/users", token, map[string]string{"name": "Alvaro Nunez"})
	assert.Equal(t, http.StatusConflict, status)

	status, body = f.do(t, http.MethodPost, "/users", token, map[string]string{
		"name": "Super User", "username": "super", "role": "root", "password": "long-enough",
	})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.NotEmpty(t, body["fields"])

	status, _ = f.do(t, http.MethodPost, "/users", token, map[string]string{
		"name": "Carla Ruiz", "username": "carla", "role": "admin", "password": "long-enough",
	})
	require.Equal(t, http.StatusCreated, status)
	assert.Len(t, f.queue.batches, 1)
}

func TestDeleteUser(t *testing.T) {
	f := newFixture(t)
	admin := f.login(t, "ana")
	victim := f.login(t, "jdoe")

	status, _ := f.do(t, http.MethodDelete, "/users/ana", admin, nil)
	assert.Equal(t, http.StatusForbidden, status)

	status, _ = f.do(t, http.MethodDelete, "/users/root", admin, nil)
	assert.Equal(t, http.StatusForbidden, status)

	status, _ = f.do(t, http.MethodDelete, "/users/jdoe", admin, nil)
	require.Equal(t, http.StatusOK, status)

	rows, err := session.GetByUsername(f.db, "jdoe")
	require.NoError(t, err)
	assert.Empty(t, rows)

	status, _ = f.do(t, http.MethodGet, "/person", victim, nil)
	assert.Equal(t, http.StatusUnauthorized, status)

	status, _ = f.do(t, http.MethodDelete, "/users/jdoe", admin, nil)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestUpdateSelf(t *testing.T) {
	f := newFixture(t)
	token := f.login(t, "jdoe")

	status, _ := f.do(t, http.MethodPut, "/users", token, map[string]any{"username": "bob", "name": "Bob Ross"})
	assert.Equal(t, http.StatusForbidden, status)

	status, _ = f.do(t, http.MethodPut, "/users", token, map[string]any{"username": "jdoe", "role": "admin"})
	assert.Equal(t, http.StatusForbidden, status)

	status, body := f.do(t, http.MethodPut, "/users", token, map[string]any{"username": "jdoe", "name": "john   smith"})
	require.Equal(t, http.StatusOK, status, body)

	next, ok := body["token"].(string)
	require.True(t, ok)
	assert.NotEqual(t, token, next)

	status, _ = f.do(t, http.MethodGet, "/auth/status", token, nil)
	assert.Equal(t, http.StatusUnauthorized, status)

	status, body = f.do(t, http.MethodGet, "/auth/status", next, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "JOHN SMITH", body["user"].(map[string]any)["name"])
}

func TestAdminRoleChangeRevokesSessions(t *testing.T) {
	f := newFixture(t)
	admin := f.login(t, "ana")
	operator := f.login(t, "bob")

	status, body := f.do(t, http.MethodPut, "/users", admin, map[string]any{"username": "bob", "role": "admin"})
	require.Equal(t, http.StatusOK, status, body)
	assert.NotContains(t, body, "token")

	status, _ = f.do(t, http.MethodGet, "/auth/status", operator, nil)
	assert.Equal(t, http.StatusUnauthorized, status)

	status, _ = f.do(t, http.MethodPut, "/users", admin, map[string]any{"username": "root", "role": "admin"})
	assert.Equal(t, http.StatusForbidden, status)
}

func TestRootEditableOnlyByItself(t *testing.T) {
	f := newFixture(t)
	admin := f.login(t, "ana")

	status, _ := f.do(t, http.MethodPut, "/users", admin, map[string]any{"username": "root", "password": "owned-by-admin"})
	assert.Equal(t, http.StatusForbidden, status)

	status, _ = f.do(t, http.MethodPost, "/auth/login", "", map[string]string{"username": "root", "password": "owned-by-admin"})
	assert.Equal(t, http.StatusUnauthorized, status)

	root := f.login(t, "root")

	status, _ = f.do(t, http.MethodPut, "/users", root, map[string]any{"username": "root", "role": "admin"})
	assert.Equal(t, http.StatusForbidden, status)

	status, body := f.do(t, http.MethodPut, "/users", root, map[string]any{"username": "root", "name": "Super User"})
	require.Equal(t, http.StatusOK, status, body)

	stored, err := user.Get(f.db, "root")
	require.NoError(t, err)
	assert.Equal(t, models.RoleRoot, stored.Role)
	assert.True(t, stored.VerifyPassword(testPassword))
}

func TestPersonLifecycle(t *testing.T) {
	f := newFixture(t)
	token := f.login(t, "jdoe")

	status, body := f.do(t, http.MethodPost, "/person", token, map[string]any{
		"name":   "María José",
		"gender": "f",
		"zone":   "North",
		"email":  "mj@example.com",
	})
	require.Equal(t, http.StatusCreated, status, body)
	assert.Equal(t, "mariajose", body["person"].(map[string]any)["personId"])
	require.Len(t, f.queue.batches, 1)

	status, _ = f.do(t, http.MethodPost, "/person", token, map[string]any{"name": "maria jose"})
	assert.Equal(t, http.StatusConflict, status)

	status, body = f.do(t, http.MethodGet, "/person/mariajose", token, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "MARIA JOSE", body["person"].(map[string]any)["name"])

	status, body = f.do(t, http.MethodPut, "/person", token, map[string]any{
		"personId":   "mariajose",
		"room":       "12",
		"registered": true,
	})
	require.Equal(t, http.StatusOK, status, body)
	assert.Equal(t, "12", body["person"].(map[string]any)["room"])

	status, body = f.do(t, http.MethodGet, "/person/category?name=zone", token, nil)
	require.Equal(t, http.StatusOK, status)
	values := body["values"].([]any)
	require.Len(t, values, 1)
	assert.Equal(t, "North", values[0].(map[string]any)["value"])

	status, _ = f.do(t, http.MethodGet, "/person/category?name=password", token, nil)
	assert.Equal(t, http.StatusBadRequest, status)

	status, body = f.do(t, http.MethodGet, "/person/stats", token, nil)
	require.Equal(t, http.StatusOK, status)
	stats := body["stats"].(map[string]any)
	assert.EqualValues(t, 1, stats["total"])
	assert.EqualValues(t, 1, stats["registered"])

	status, _ = f.do(t, http.MethodDelete, "/person/mariajose", token, nil)
	require.Equal(t, http.StatusOK, status)

	status, _ = f.do(t, http.MethodGet, "/person/mariajose", token, nil)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestBulkCreate(t *testing.T) {
	f := newFixture(t)
	token := f.login(t, "jdoe")

	header := "name,email,gender,cellphone,illness,tutor,zone,branch,room\n"

	status, body := f.upload(t, "/person/bulkcreate", token, "csv", "people.csv", header+
		"María José,mj@example.com,f,,,,North,Main,1\n"+
		"Peña Núñez,,m,,,,South,Main,2\n")
	require.Equal(t, http.StatusCreated, status, body)
	assert.EqualValues(t, 2, body["count"])
	assert.NotEmpty(t, body["batchId"])
	require.Len(t, f.queue.batches, 1)

	status, _ = f.upload(t, "/person/bulkcreate", token, "csv", "people.csv", "name,email,wrongcol\n")
	assert.Equal(t, http.StatusBadRequest, status)

	status, _ = f.upload(t, "/person/bulkcreate", token, "csv", "people.xlsx", header)
	assert.Equal(t, http.StatusBadRequest, status)

	status, _ = f.upload(t, "/person/bulkcreate", token, "file", "people.csv", header)
	assert.Equal(t, http.StatusBadRequest, status)

	// one collision fails the whole file
	status, _ = f.upload(t, "/person/bulkcreate", token, "csv", "people.csv", header+
		"Zoë Adams,,f,,,,,,\n"+
		"Maria Jose,,f,,,,,,\n")
	assert.Equal(t, http.StatusConflict, status)

	all, err := person.GetAll(f.db)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	// operators cannot import accounts
	status, _ = f.upload(t, "/users/bulkcreate", token, "csv", "users.csv", "name,email\nJane Roe,\n")
	assert.Equal(t, http.StatusForbidden, status)

	admin := f.login(t, "ana")
	status, body = f.upload(t, "/users/bulkcreate", admin, "csv", "users.csv", "name,email\nJane Roe,\n")
	require.Equal(t, http.StatusCreated, status, body)
	assert.EqualValues(t, 1, body["count"])
}

func TestAvatarWithoutStorage(t *testing.T) {
	f := newFixture(t)
	token := f.login(t, "jdoe")

	status, _ := f.upload(t, "/users/jdoe", token, "avatar", "me.png", "png")
	assert.Equal(t, http.StatusServiceUnavailable, status)
}

func TestCheckAlive(t *testing.T) {
	f := newFixture(t)

	status, _ := f.do(t, http.MethodGet, CheckAlivePath, "", nil)
	assert.Equal(t, http.StatusOK, status)

	f.svc.alive.Store(false)

	status, _ = f.do(t, http.MethodGet, CheckAlivePath, "", nil)
	assert.Equal(t, http.StatusServiceUnavailable, status)
}

func TestErrorHandler(t *testing.T) {
	for _, devMode := range []bool{false, true} {
		app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler(devMode)})
		app.Get("/conflict", func(_ *fiber.Ctx) error { return apperr.ErrConflict })
		app.Get("/boom", func(_ *fiber.Ctx) error { return errors.New("db password is hunter2") })
		app.Get("/teapot", func(_ *fiber.Ctx) error { return fiber.NewError(fiber.StatusTeapot, "short and stout") })

		read := func(path string) (int, map[string]any) {
			resp, err := app.Test(httptest.NewRequest(http.MethodGet, path, nil))
			require.NoError(t, err)

			defer resp.Body.Close()

			out := map[string]any{}
			require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))

			return resp.StatusCode, out
		}

		status, body := read("/conflict")
		assert.Equal(t, http.StatusConflict, status)
		assert.Equal(t, "already exists", body["message"])

		status, body = read("/teapot")
		assert.Equal(t, http.StatusTeapot, status)
		assert.Equal(t, "short and stout", body["message"])

		status, body = read("/boom")
		assert.Equal(t, http.StatusInternalServerError, status)
		assert.Equal(t, "Internal Server Error", body["message"])

		if devMode {
			assert.Equal(t, "db password is hunter2", body["error"])
		} else {
			assert.NotContains(t, body, "error")
		}
	}
}
