// Package middleware provides HTTP middleware for authentication,
// role checks and login rate limiting.
//
// # Authentication
//
//	authMW := middleware.NewAuthMiddleware(tokens, users)
//	protected.Use(authMW.Handler)
//
// The middleware validates the bearer token and re-resolves the user on
// every request, so deleting a user immediately invalidates their
// outstanding tokens.
//
// # Role checks
//
//	admin.Use(middleware.RequireRole(auth.RoleAdmin))
//
// # Login rate limiting
//
// Failed-login floods are throttled per client IP, either in-memory or
// through Redis when the service runs more than one replica.
package middleware
