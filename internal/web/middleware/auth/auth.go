package auth

import (
	"strings"

	"github.com/gofiber/fiber/v2"
)

// Config implements fiber middleware struct.
type Config struct {
	// Next defines a function to skip this middleware when returned true.
	//
	// Optional. Default: nil
	Next func(c *fiber.Ctx) bool

	// Public paths and their sub paths bypass the gate.
	Public []string

	// SessionOnly paths and their sub paths need a session but no policy.
	SessionOnly []string

	// Authenticate resolves the session.
	Authenticate fiber.Handler

	// Authorize resolves the session and checks the policy.
	Authorize fiber.Handler
}

// New creates the gate middleware.
func New(cfg Config) fiber.Handler {
	if cfg.Authenticate == nil || cfg.Authorize == nil {
		panic("auth middleware: Authenticate and Authorize are required")
	}

	return func(c *fiber.Ctx) error {
		if cfg.Next != nil && cfg.Next(c) {
			return c.Next()
		}

		path := c.Path()

		switch {
		case c.Method() == fiber.MethodOptions:
			// cors preflight
			return c.Next()
		case Matches(path, cfg.Public):
			return c.Next()
		case Matches(path, cfg.SessionOnly):
			return cfg.Authenticate(c)
		default:
			return cfg.Authorize(c)
		}
	}
}

// Matches reports whether path equals one of prefixes or lies below it.
func Matches(path string, prefixes []string) bool {
	for _, p := range prefixes {
		p = strings.TrimSuffix(p, "/")
		if path == p || strings.HasPrefix(path, p+"/") {
			return true
		}
	}

	return false
}
