package main

import (
	"context"
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/healthtrack/sync-server/internal/config"
	"github.com/healthtrack/sync-server/internal/database"
	"github.com/healthtrack/sync-server/internal/handler"
	"github.com/healthtrack/sync-server/internal/middleware"
	"github.com/healthtrack/sync-server/internal/repository"
	"github.com/healthtrack/sync-server/internal/router"
	"github.com/healthtrack/sync-server/internal/service"
)

func main() {
	_ = godotenv.Load() // .env is optional; real deployments set the environment directly
	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()
	if err := database.Migrate(db); err != nil {
		log.Fatalf("migrations: %v", err)
	}

	cache := config.NewRedisClient()
	if cache == nil {
		log.Printf("redis unavailable, sync-status cache disabled")
	}

	users := repository.NewUserRepo(db)
	tokens := repository.NewTokenRepo(db)
	changes := repository.NewSyncChangeRepo(db)
	backups := repository.NewBackupRepo(db)

	authSvc := service.NewAuthService(
		users, tokens, cfg.JWTSecret,
		time.Duration(cfg.AccessTTLMin)*time.Minute,
		time.Duration(cfg.RefreshTTLDays)*24*time.Hour,
		cfg.BcryptCost,
	)
	syncSvc := service.NewSyncService(changes, backups, cache)
	guard := middleware.Authenticate(authSvc, users)

	e := echo.New()
	e.Use(echomw.Logger())
	e.Use(echomw.Recover())

	router.RegisterRoutes(e)
	router.RegisterAuth(e, handler.NewAuthHandler(authSvc), guard)
	router.RegisterUsers(e, handler.NewUserHandler(users, cfg.BcryptCost), guard)
	router.RegisterSync(e, handler.NewSyncHandler(syncSvc), guard)

	go reapExpiredTokens(authSvc)

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)
	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}

// reapExpiredTokens passively cleans up refresh tokens whose expiry has
// passed. Expired tokens are also removed on use; this loop catches the
// ones never presented again.
func reapExpiredTokens(auth *service.AuthService) {
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()
	for range ticker.C {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		n, err := auth.ReapExpiredTokens(ctx)
		cancel()
		if err != nil {
			log.Printf("token reaper: %v", err)
		} else if n > 0 {
			log.Printf("token reaper: removed %d expired refresh tokens", n)
		}
	}
}
