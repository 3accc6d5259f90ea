package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	authhandler "auth-boilerplate/backend/internal/auth/handler"
	"auth-boilerplate/backend/internal/authz"
	"auth-boilerplate/backend/internal/config"
	"auth-boilerplate/backend/internal/db"
	healthhandler "auth-boilerplate/backend/internal/health/handler"
	"auth-boilerplate/backend/internal/ratelimit"
	"auth-boilerplate/backend/internal/security"
	"auth-boilerplate/backend/internal/server"
	"auth-boilerplate/backend/internal/telemetry"
	otelsetup "auth-boilerplate/backend/internal/telemetry/otel"
	userhandler "auth-boilerplate/backend/internal/user/handler"
	"auth-boilerplate/backend/internal/user/repository"
	"auth-boilerplate/backend/internal/user/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if cfg.DatabaseURL == "" {
		log.Fatal("DATABASE_URL is not set; create a .env from .env.example or set DATABASE_URL")
	}

	conn, err := db.Open(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer conn.Close()

	ctx := context.Background()
	providers, err := otelsetup.NewProviders(ctx, cfg.OTLPEndpoint, "auth-backend", cfg.OTLPInsecure)
	if err != nil {
		log.Fatalf("telemetry: %v", err)
	}
	providers.SetGlobal()

	policy, err := authz.NewEvaluator(ctx)
	if err != nil {
		log.Fatalf("authz: %v", err)
	}

	limiter := newLimiter(cfg)
	hasher := security.NewHasher(cfg.BcryptCost)
	tokens := security.NewTokenIssuer([]byte(cfg.JWTSecret), cfg.AccessTTL())
	users := service.New(repository.NewPostgresRepository(conn), hasher, tokens)
	events := otelsetup.NewEventEmitter(providers.LoggerProvider)

	router := server.NewRouter(server.Deps{
		Auth:              authhandler.New(users, events),
		Users:             userhandler.New(users, policy, events),
		Health:            healthhandler.New(conn),
		Verifier:          users,
		Limiter:           limiter,
		CORSOrigins:       cfg.CORSOriginsList(),
		TrustProxyHeaders: cfg.TrustProxyHeaders,
	})

	srv := server.New(cfg.HTTPAddr, router)
	serveErr := srv.Run()

	// Let in-flight async telemetry emits drain before the providers go away.
	time.Sleep(telemetry.ShutdownDrainDuration)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := providers.Shutdown(shutdownCtx); err != nil {
		log.Printf("telemetry: shutdown: %v", err)
	}

	if serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
		log.Fatalf("serve: %v", serveErr)
	}
}

// newLimiter picks the rate limiter backend: Redis when configured, the
// in-memory fixed window otherwise, and the pass-through when limiting is
// switched off (tests, local runs).
func newLimiter(cfg *config.Config) ratelimit.Limiter {
	if !cfg.RateLimitEnabled {
		log.Println("ratelimit: disabled")
		return ratelimit.Disabled{}
	}
	if cfg.RedisURL != "" {
		limiter, err := ratelimit.NewRedisLimiterFromURL(cfg.RedisURL)
		if err != nil {
			log.Fatalf("ratelimit: redis: %v", err)
		}
		log.Println("ratelimit: using redis backend")
		return limiter
	}
	return ratelimit.NewMemoryLimiter()
}
