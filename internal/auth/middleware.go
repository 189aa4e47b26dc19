package auth

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
)

// Middleware is the request gatekeeper.
type Middleware struct {
	transport *Transport
	sessions  *SessionService
	policy    *Policy
}

// NewMiddleware creates the gatekeeper.
func NewMiddleware(transport *Transport, sessions *SessionService, policy *Policy) *Middleware {
	return &Middleware{
		transport: transport,
		sessions:  sessions,
		policy:    policy,
	}
}

// Authenticate resolves the token and attaches the identity without checking the policy.
func (m *Middleware) Authenticate() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if _, err := m.authenticate(c); err != nil {
			return err
		}

		return c.Next()
	}
}

// Authorize authenticates the request and then checks the policy for its path and verb.
func (m *Middleware) Authorize() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := m.authenticate(c)
		if err != nil {
			return err
		}

		if !m.policy.Authorize(id.Role, id.Username, c.Path(), c.Method()) {
			log.Warn().Str("user", id.Username).Str("role", string(id.Role)).
				Str("method", c.Method()).Str("path", c.Path()).
				Msg("request denied by policy")

			return fiber.NewError(fiber.StatusForbidden, "unauthorized")
		}

		return c.Next()
	}
}

func (m *Middleware) authenticate(c *fiber.Ctx) (Identity, error) {
	token, ok := m.transport.Extract(c)
	if !ok {
		return Identity{}, fiber.NewError(fiber.StatusForbidden, "not logged in")
	}

	id, err := m.sessions.Resolve(c.UserContext(), token)

	switch {
	case errors.Is(err, ErrTokenExpired):
		m.transport.Revoke(c)
		return Identity{}, fiber.NewError(fiber.StatusUnauthorized, "session expired")
	case errors.Is(err, ErrTokenRevoked):
		m.transport.Revoke(c)
		return Identity{}, fiber.NewError(fiber.StatusUnauthorized, "session revoked")
	case errors.Is(err, ErrTokenInvalid):
		log.Error().Err(err).Str("ip", c.IP()).Msg("token verification failed")
		return Identity{}, fiber.NewError(fiber.StatusInternalServerError, err.Error())
	case err != nil:
		return Identity{}, err
	}

	attach(c, id, token)

	return id, nil
}
