// Package auth provides authentication and authorization for the API.
//
// # Tokens
//
// Codec issues and verifies HS256 JSON Web Tokens. The claim is a full snapshot of the
// identity (username, name, role, avatar, email) so requests can be authorized without
// a store lookup. Role changes therefore only reach existing tokens after they are
// re-issued, unless Auth.Rehydrate is enabled and the identity is reloaded per request.
//
// # Sessions
//
// Every issued token is stored as a session row. Deleting the row revokes the token
// even though its signature is still valid. SessionService covers login, logout,
// revocation of all sessions of a user, re-issue after a self edit and the periodic
// purge of expired rows.
//
// Transport binds the token to the HTTP boundary: an HTTP-only cookie, an
// "Authorization: Bearer" header, or both.
//
// # Authorization
//
// PolicyTable maps a role to an ordered list of rules, each a path pattern with the
// allowed verbs. The first rule whose pattern matches the path decides. No match denies.
// Operator policies are personalised with a rule for the operator's own user path and
// are cached per (role, username).
//
// Middleware runs the request state machine:
//
//	no token          -> 403 not logged in
//	invalid signature -> 500
//	expired           -> 401 session expired (session row removed)
//	revoked           -> 401 session revoked
//	policy denies     -> 403 unauthorized
//	otherwise         -> next handler with the identity in the request context
//
// Example usage:
//
//	codec := auth.NewCodec(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
//	sessions := auth.NewSessionService(db, codec, cfg.Auth.Rehydrate)
//	mw := auth.NewMiddleware(auth.NewTransport(&cfg.Auth, cfg.DevMode), sessions, policy)
//
//	app.Get("/users", mw.Authorize(), handler)
package auth
