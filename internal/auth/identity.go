package auth

import (
	"context"

	"github.com/gofiber/fiber/v2"

	"github.com/rollcall-admin/rollcall/internal/db/models"
)

const (
	localsIdentity = "identity"
	localsToken    = "token"
)

// Identity is the authenticated principal carried by a token.
type Identity struct {
	Username string      `json:"username"`
	Name     string      `json:"name"`
	Role     models.Role `json:"role"`
	Avatar   string      `json:"avatar,omitempty"`
	Email    string      `json:"email,omitempty"`
}

// IdentityOf snapshots a user row.
func IdentityOf(u *models.User) Identity {
	return Identity{
		Username: u.Username,
		Name:     u.Name,
		Role:     u.Role,
		Avatar:   u.Avatar,
		Email:    u.EmailAddress(),
	}
}

type identityContextKey struct{}

// WithIdentity stores the identity on the context for downstream consumers.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityContextKey{}, id)
}

// FromContext retrieves the identity from the context.
func FromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityContextKey{}).(Identity)
	return id, ok
}

// FromCtx retrieves the identity attached by the middleware.
func FromCtx(c *fiber.Ctx) (Identity, bool) {
	id, ok := c.Locals(localsIdentity).(Identity)
	return id, ok
}

// TokenFromCtx retrieves the raw token the request was authenticated with.
func TokenFromCtx(c *fiber.Ctx) string {
	token, _ := c.Locals(localsToken).(string)
	return token
}

func attach(c *fiber.Ctx, id Identity, token string) {
	c.Locals(localsIdentity, id)
	c.Locals(localsToken, token)
	c.SetUserContext(WithIdentity(c.UserContext(), id))
}
