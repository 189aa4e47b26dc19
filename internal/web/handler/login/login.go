// Package login provides the /auth endpoints: login, session status.
package login

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/rollcall-admin/rollcall/internal/auth"
	"github.com/rollcall-admin/rollcall/internal/config"
	"github.com/rollcall-admin/rollcall/internal/logger"
	"github.com/rollcall-admin/rollcall/internal/web/handler"
)

const (
	// Path is the base path of the auth endpoints.
	Path = "/auth"
	// LoginPath is the path of the login endpoint.
	LoginPath = Path + "/login"
	// StatusPath is the path of the session status endpoint.
	StatusPath = Path + "/status"
)

// Service is the login handler service.
type Service struct {
	handler.Service
	cfg       *config.Config
	sessions  *auth.SessionService
	transport *auth.Transport
}

type credentials struct {
	Username string `json:"username" form:"username"`
	Password string `json:"password" form:"password"`
}

// Init initializes the login handler.
func (s *Service) Init(app *fiber.App, cfg *config.Config, deps *handler.Deps) error {
	if app == nil || cfg == nil || deps == nil {
		return errors.New(handler.ErrNilACDFatalLogMsg)
	}

	s.cfg = cfg
	s.sessions = deps.Sessions
	s.transport = deps.Transport

	// register routes
	app.Route(Path, func(router fiber.Router) {
		router.Post("/login", s.Login)
		router.Get(handler.RootPath, s.Status)
		router.Get("/status", s.Status)
	})

	return nil
}

// Login checks the credentials, opens a session and hands out the token.
func (s *Service) Login(c *fiber.Ctx) error {
	in := new(credentials)

	if err := c.BodyParser(in); err != nil {
		return ErrInvalidFormData
	}

	res, err := s.sessions.Login(c.UserContext(), in.Username, in.Password, c.Get(fiber.HeaderUserAgent))
	if err != nil {
		log.Info().Err(err).Str("user", in.Username).Str("ip", c.IP()).Msg("login failed")
		return err
	}

	logger.Audit(res.Identity.Username, logger.ActionLogin, "SESSION", res.Identity.Username)

	body := fiber.Map{
		"user":      res.Identity,
		"expiresAt": res.ExpiresAt,
	}

	if s.transport.Attach(c, res.Token, res.ExpiresAt) {
		body["token"] = res.Token
	}

	return handler.JSON(c, fiber.StatusOK, "successfully logged in", body)
}

// Status returns the identity of the current session.
func (s *Service) Status(c *fiber.Ctx) error {
	id, ok := auth.FromCtx(c)
	if !ok {
		return fiber.NewError(fiber.StatusForbidden, "not logged in")
	}

	return handler.JSON(c, fiber.StatusOK, "logged in", fiber.Map{"user": id})
}
