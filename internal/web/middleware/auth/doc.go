// Package auth places the session gate in front of every route.
//
// Each request falls in one of three classes, decided by path:
//   - public paths (login, logout, health, metrics) pass untouched
//   - session paths (the rest of /auth) need a valid session only
//   - every other path needs a valid session and a policy that allows it
//
// Usage:
//
//	app.Use(authmiddleware.New(authmiddleware.Config{
//		Public:       []string{"/auth/login", "/checkalive"},
//		SessionOnly:  []string{"/auth"},
//		Authenticate: gate.Authenticate(),
//		Authorize:    gate.Authorize(),
//	}))
package auth
