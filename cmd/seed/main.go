// Command seed creates the demo admin and regular accounts when they are absent.
package main

import (
	"context"
	"errors"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/sethvargo/go-envconfig"

	"github.com/userauth/auth-service/internal/core/domain"
	"github.com/userauth/auth-service/internal/core/ports"
	mongodb "github.com/userauth/auth-service/internal/infrastructure/db/mongo"
	"github.com/userauth/auth-service/internal/infrastructure/security"
	"github.com/userauth/auth-service/internal/pkg/config"
	"github.com/userauth/auth-service/pkg/logger"
)

type seedConfig struct {
	LogLevel string `env:"LOG_LEVEL, default=info"`
	Mongo    config.MongoConfig
	Security config.SecurityConfig
}

type demoAccount struct {
	firstName, lastName string
	email, password     string
	role                domain.Role
}

var demoAccounts = []demoAccount{
	{"System", "Administrator", "admin@example.com", "Admin123!", domain.RoleAdmin},
	{"John", "Doe", "user@example.com", "User123!", domain.RoleUser},
}

func main() {
	_ = godotenv.Load()
	ctx := context.Background()

	var cfg seedConfig
	if err := envconfig.Process(ctx, &cfg); err != nil {
		bootLog := logger.Init(logger.Options{})
		bootLog.Fatal().Err(err).Msg("failed to load configuration")
	}
	log := logger.Init(logger.Options{Level: cfg.LogLevel, Pretty: true, Service: "auth-seed"})

	client, db, err := mongodb.Connect(ctx, mongodb.Config{URI: cfg.Mongo.URI, Database: cfg.Mongo.Database, Timeout: cfg.Mongo.Timeout})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to MongoDB")
	}
	defer client.Disconnect(context.Background())

	users := mongodb.NewUserRepository(db)
	if err := users.EnsureIndexes(ctx); err != nil {
		log.Fatal().Err(err).Msg("failed to ensure indexes")
	}

	hasher := security.NewBcryptHasher(cfg.Security.BcryptCost)
	for _, a := range demoAccounts {
		if err := seedAccount(ctx, users, hasher, a, log); err != nil {
			log.Fatal().Err(err).Str("email", a.email).Msg("seeding failed")
		}
	}
	log.Info().Msg("database seeding completed")
}

func seedAccount(ctx context.Context, repo ports.UserRepository, hasher ports.PasswordHasher, a demoAccount, log zerolog.Logger) error {
	_, err := repo.FindByEmail(ctx, a.email)
	if err == nil {
		log.Info().Str("email", a.email).Msg("demo account already exists")
		return nil
	}
	if !errors.Is(err, domain.ErrUserNotFound) {
		return err
	}

	hash, err := hasher.Hash(a.password)
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	_, err = repo.Create(ctx, &domain.User{
		FirstName:     a.firstName,
		LastName:      a.lastName,
		Email:         a.email,
		PasswordHash:  hash,
		Role:          a.role,
		IsActive:      true,
		RefreshTokens: []string{},
		CreatedAt:     now,
		UpdatedAt:     now,
	})
	if err != nil {
		return err
	}
	log.Info().Str("email", a.email).Str("role", a.role.String()).Msg("demo account created")
	return nil
}
