package auth

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/rollcall-admin/rollcall/internal/config"
)

const bearerPrefix = "Bearer "

// Transport binds tokens to requests and responses.
type Transport struct {
	carrier    string
	cookieName string
	devMode    bool
}

// NewTransport creates a transport for the configured carrier.
func NewTransport(cfg *config.Auth, devMode bool) *Transport {
	carrier := cfg.Carrier
	if carrier == "" {
		carrier = config.CarrierBoth
	}

	name := cfg.CookieName
	if name == "" {
		name = "token"
	}

	return &Transport{
		carrier:    carrier,
		cookieName: name,
		devMode:    devMode,
	}
}

func (t *Transport) cookies() bool {
	return t.carrier == config.CarrierCookie || t.carrier == config.CarrierBoth
}

func (t *Transport) bearer() bool {
	return t.carrier == config.CarrierBearer || t.carrier == config.CarrierBoth
}

// Attach sets the session cookie when the carrier allows cookies. It reports whether
// the token must be returned in the response body for bearer clients.
func (t *Transport) Attach(c *fiber.Ctx, token string, expires time.Time) bool {
	if t.cookies() {
		c.Cookie(t.cookie(c, token, expires))
	}

	return t.bearer()
}

// Extract returns the token of the request. The bearer header wins over the cookie.
func (t *Transport) Extract(c *fiber.Ctx) (string, bool) {
	if t.bearer() {
		header := c.Get(fiber.HeaderAuthorization)
		if len(header) > len(bearerPrefix) && strings.EqualFold(header[:len(bearerPrefix)], bearerPrefix) {
			if token := strings.TrimSpace(header[len(bearerPrefix):]); token != "" {
				return token, true
			}
		}
	}

	if t.cookies() {
		if token := c.Cookies(t.cookieName); token != "" {
			return token, true
		}
	}

	return "", false
}

// Revoke clears the session cookie. Calling it without a cookie is harmless.
func (t *Transport) Revoke(c *fiber.Ctx) {
	if !t.cookies() {
		return
	}

	c.Cookie(t.cookie(c, "", time.Unix(0, 0)))
}

func (t *Transport) cookie(c *fiber.Ctx, value string, expires time.Time) *fiber.Cookie {
	sameSite := fiber.CookieSameSiteStrictMode
	if t.devMode {
		sameSite = fiber.CookieSameSiteLaxMode
	}

	return &fiber.Cookie{
		Name:     t.cookieName,
		Value:    value,
		Path:     "/",
		Expires:  expires,
		HTTPOnly: true,
		Secure:   secureRequest(c),
		SameSite: sameSite,
	}
}

func secureRequest(c *fiber.Ctx) bool {
	return c.Secure() || strings.EqualFold(c.Get(fiber.HeaderXForwardedProto), "https")
}
