// Package logout ends the session of the presented token.
package logout

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/rollcall-admin/rollcall/internal/auth"
	"github.com/rollcall-admin/rollcall/internal/config"
	"github.com/rollcall-admin/rollcall/internal/logger"
	"github.com/rollcall-admin/rollcall/internal/web/handler"
	"github.com/rollcall-admin/rollcall/internal/web/handler/login"
)

// Path is the logout endpoint. It bypasses the gate so expired tokens can still log out.
const Path = login.Path + "/logout"

// Service is the logout handler service.
type Service struct {
	handler.Service
	sessions  *auth.SessionService
	transport *auth.Transport
}

// Init initializes the logout handler.
func (s *Service) Init(app *fiber.App, cfg *config.Config, deps *handler.Deps) error {
	if app == nil || cfg == nil || deps == nil {
		return errors.New(handler.ErrNilACDFatalLogMsg)
	}

	s.sessions = deps.Sessions
	s.transport = deps.Transport

	app.Get(Path, s.Logout)
	app.Post(Path, s.Logout)

	return nil
}

// Logout removes the session row and clears the cookie.
func (s *Service) Logout(c *fiber.Ctx) error {
	token, ok := s.transport.Extract(c)
	if !ok {
		return fiber.NewError(fiber.StatusForbidden, "not logged in")
	}

	// the actor is only needed for the audit trail
	actor := ""
	if id, err := s.sessions.Resolve(c.UserContext(), token); err == nil {
		actor = id.Username
	}

	if err := s.sessions.Logout(c.UserContext(), token); err != nil {
		log.Error().Err(err).Msg("failed to delete session")
		return err
	}

	s.transport.Revoke(c)

	if actor != "" {
		logger.Audit(actor, logger.ActionLogout, "SESSION", actor)
	}

	return handler.JSON(c, fiber.StatusOK, "logged out", nil)
}
