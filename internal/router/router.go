// Package router wires HTTP routes to their handlers. All API routes
// live under /api/v1; register/login/refresh are the only endpoints
// reachable without a bearer token.
package router

import (
	"github.com/labstack/echo/v4"

	"github.com/healthtrack/sync-server/internal/handler"
)

// RegisterRoutes registers the unauthenticated liveness endpoints.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/", handler.Root)
	e.GET("/health", handler.Health)
}

// RegisterAuth registers the authentication endpoints. Logout and
// verify run behind the guard; the token-issuing endpoints do not.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, guard echo.MiddlewareFunc) {
	g := e.Group("/api/v1/auth")
	g.POST("/register", a.Register)
	g.POST("/login", a.Login)
	g.POST("/refresh", a.Refresh)
	g.POST("/logout", a.Logout, guard)
	g.GET("/verify", a.Verify, guard)
}

// RegisterUsers registers the user administration endpoints.
func RegisterUsers(e *echo.Echo, u *handler.UserHandler, guard echo.MiddlewareFunc) {
	g := e.Group("/api/v1/users", guard)
	g.GET("", u.List)
	g.POST("", u.Create)
	g.GET("/:id", u.GetByID)
	g.DELETE("/:id", u.Delete)
}

// RegisterSync registers the backup and incremental sync endpoints.
func RegisterSync(e *echo.Echo, s *handler.SyncHandler, guard echo.MiddlewareFunc) {
	g := e.Group("/api/v1/sync", guard)
	g.POST("/backup", s.UploadBackup)
	g.GET("/backup/:id", s.DownloadBackup)
	g.GET("/backups", s.ListBackups)
	g.DELETE("/backup/:id", s.DeleteBackup)
	g.POST("/incremental", s.SyncIncremental)
	g.GET("/changes", s.GetChanges)
	g.GET("/status", s.GetSyncStatus)
}
