package main

import (
	"context"
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/eventhub/server/internal/config"
	"github.com/eventhub/server/internal/database"
	"github.com/eventhub/server/internal/handler"
	"github.com/eventhub/server/internal/middleware"
	"github.com/eventhub/server/internal/queue"
	"github.com/eventhub/server/internal/repository"
	"github.com/eventhub/server/internal/router"
	queue_publisher "github.com/eventhub/server/internal/service"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database connect: %v", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	if err := database.EnsureSchema(ctx, db); err != nil {
		cancel()
		log.Fatalf("database schema: %v", err)
	}
	cancel()

	// Repositories share the one connection pool; it is constructed
	// here and injected, never imported.
	userRepo := repository.NewUserRepo(db)
	tokenRepo := repository.NewTokenRepo(db)
	eventRepo := repository.NewEventRepo(db)
	registrationRepo := repository.NewRegistrationRepo(db)

	debug := !cfg.Production()

	authHandler := handler.NewAuthHandler(cfg, userRepo, tokenRepo)
	eventHandler := handler.NewEventHandler(eventRepo, debug)
	registrationHandler := handler.NewRegistrationHandler(registrationRepo, eventRepo, debug)

	// Queue notifications are best-effort: publish errors are logged
	// inside the publisher and dropped here.
	registrationHandler.NotifyConfirmed = func(ctx context.Context, ev queue.RegistrationEvent) {
		_ = queue_publisher.PublishRegistrationConfirmed(ctx, ev)
	}
	registrationHandler.NotifyCancelled = func(ctx context.Context, ev queue.RegistrationEvent) {
		_ = queue_publisher.PublishRegistrationCancelled(ctx, ev)
	}
	go queue.StartRegistrationConsumer()

	e := echo.New()
	e.HideBanner = true
	e.Use(echomw.Logger())
	e.Use(echomw.Recover())
	if len(cfg.CORSOrigins) > 0 {
		// Only the allow-listed origins may make cross-origin calls;
		// requests without an Origin header are not CORS requests and
		// pass through untouched.
		e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
			AllowOrigins:     cfg.CORSOrigins,
			AllowCredentials: true,
		}))
	}

	// Redis-backed extras for the public listing surface. A nil client
	// (Redis down or unconfigured) turns both into pass-throughs.
	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Printf("redis unavailable; response cache and rate limiting disabled")
	}
	reads := []echo.MiddlewareFunc{
		middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb),
		middleware.NewRedisCache(config.LoadCacheConfig(), rdb),
	}

	router.RegisterRoutes(e)
	router.RegisterAuth(e, authHandler, cfg.JWTSecret)
	router.RegisterEvents(e, eventHandler, reads...)
	router.RegisterRegistrations(e, registrationHandler, cfg.JWTSecret)

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)
	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
