package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	_ "github.com/userauth/auth-service/docs"
	"github.com/userauth/auth-service/internal/api"
	"github.com/userauth/auth-service/internal/api/handler"
	"github.com/userauth/auth-service/internal/core/domain"
	"github.com/userauth/auth-service/internal/core/service"
	mongodb "github.com/userauth/auth-service/internal/infrastructure/db/mongo"
	redisdb "github.com/userauth/auth-service/internal/infrastructure/db/redis"
	opshttp "github.com/userauth/auth-service/internal/infrastructure/http"
	"github.com/userauth/auth-service/internal/infrastructure/http/handlers"
	"github.com/userauth/auth-service/internal/infrastructure/queue"
	"github.com/userauth/auth-service/internal/infrastructure/security"
	"github.com/userauth/auth-service/internal/pkg/config"
	"github.com/userauth/auth-service/pkg/logger"
)

// @title                       User Auth API
// @version                     1.0
// @description                 Username/password authentication with role-based access control and an admin user-management API.
// @host                        localhost:5000
// @BasePath                    /api
// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
// @description                 Type "Bearer" followed by a space and the access token.
func main() {
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		bootLog := logger.Init(logger.Options{})
		bootLog.Fatal().Err(err).Msg("failed to load configuration")
	}

	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  !cfg.IsProduction(),
		Service: "auth-service",
		Env:     cfg.Env,
	})

	if err := run(ctx, cfg, log); err != nil {
		log.Fatal().Err(err).Msg("server exited with error")
	}
	log.Info().Msg("server stopped gracefully")
}

func run(ctx context.Context, cfg *config.Config, log zerolog.Logger) error {
	mongoClient, db, err := mongodb.Connect(ctx, mongodb.Config{
		URI:         cfg.Mongo.URI,
		Database:    cfg.Mongo.Database,
		Timeout:     cfg.Mongo.Timeout,
		MaxPoolSize: cfg.Mongo.MaxPoolSize,
	})
	if err != nil {
		return err
	}
	defer func() {
		dctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := mongoClient.Disconnect(dctx); err != nil {
			log.Error().Err(err).Msg("mongo disconnect")
		}
	}()
	log.Info().Str("database", cfg.Mongo.Database).Msg("connected to MongoDB")

	rdb, err := redisdb.Connect(ctx, redisdb.Config{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
	if err != nil {
		return err
	}
	defer rdb.Close()
	log.Info().Str("addr", cfg.Redis.Addr).Msg("connected to Redis")

	users := mongodb.NewUserRepository(db)
	if err := users.EnsureIndexes(ctx); err != nil {
		return err
	}
	auditRepo := mongodb.NewAuditRepository(db)
	if err := auditRepo.EnsureIndexes(ctx); err != nil {
		return err
	}

	issuer, err := security.NewJWTIssuer(security.JWTConfig{
		AccessSecret:  cfg.JWT.Secret,
		RefreshSecret: cfg.JWT.RefreshSecret,
		AccessTTL:     cfg.JWT.ExpiresIn,
		RefreshTTL:    cfg.JWT.RefreshExpiresIn,
		Issuer:        cfg.JWT.Issuer,
	})
	if err != nil {
		return err
	}
	hasher := security.NewBcryptHasher(cfg.Security.BcryptCost)

	// The dispatcher outlives the HTTP servers so in-flight events are drained.
	auditCtx, stopAudit := context.WithCancel(context.Background())
	dispatcher := queue.NewAuditDispatcher(cfg.AuditWorkers, auditRepo, log)
	dispatcher.Start(auditCtx)
	defer func() {
		stopAudit()
		dispatcher.Wait()
	}()

	authService := service.NewAuthService(users, hasher, issuer, dispatcher, log,
		service.WithLockoutPolicy(domain.LockoutPolicy{
			MaxAttempts:  cfg.Security.MaxLoginAttempts,
			LockDuration: cfg.Security.LockDuration,
		}),
	)
	adminService := service.NewAdminService(users, dispatcher, log)

	proxies, err := cfg.TrustedProxyNets()
	if err != nil {
		return err
	}

	apiRouter := api.NewRouter(api.Deps{
		AuthService:  authService,
		AdminService: adminService,
		Limiter:      redisdb.NewRateLimiter(rdb, cfg.RateLimit.Limit, cfg.RateLimit.Window),
		Cookies:      handler.CookieConfig{Secure: cfg.Security.CookieSecure, TTL: cfg.JWT.RefreshExpiresIn},
		CORSOrigins:  api.ParseOrigins(cfg.CORSOrigin),
		Logger:       log,

		TrustedProxies: proxies,
	})
	opsRouter := opshttp.NewOpsRouter(map[string]handlers.Check{
		"mongodb": handlers.MongoCheck(db),
		"redis":   handlers.RedisCheck(rdb),
	})

	errCh := make(chan error, 2)
	serve(apiRouter, ":"+cfg.Port, "api", log, errCh)
	serve(opsRouter, ":"+cfg.MetricsPort, "ops", log, errCh)

	select {
	case <-ctx.Done():
		log.Info().Msg("shutdown signal received")
	case err := <-errCh:
		log.Error().Err(err).Msg("listener failed, shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	var errs []error
	for _, e := range []*echo.Echo{apiRouter, opsRouter} {
		if err := e.Shutdown(shutdownCtx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func serve(e *echo.Echo, addr, name string, log zerolog.Logger, errCh chan<- error) {
	go func() {
		log.Info().Str("server", name).Str("addr", addr).Msg("listening")
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()
}
