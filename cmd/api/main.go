// Command api serves the memory-api HTTP interface.
//
// @title                       memory-api
// @version                     1.0
// @description                 Authentication, authorization and project assignment API.
// @BasePath                    /
// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
// @description                 Type "Bearer" followed by a space and the token.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/sethvargo/go-envconfig"

	"github.com/memory-app/memory-api/internal/api"
	"github.com/memory-app/memory-api/internal/api/handler"
	"github.com/memory-app/memory-api/internal/api/middleware"
	"github.com/memory-app/memory-api/internal/core/service"
	"github.com/memory-app/memory-api/internal/core/token"
	mongodb "github.com/memory-app/memory-api/internal/infrastructure/db/mongo"
	rediscache "github.com/memory-app/memory-api/internal/infrastructure/db/redis"
	"github.com/memory-app/memory-api/internal/infrastructure/queue"
	"github.com/memory-app/memory-api/internal/pkg/config"
	"github.com/memory-app/memory-api/pkg/logger"
)

const shutdownTimeout = 15 * time.Second

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, envconfig.OsLookuper(), os.Stdout); err != nil {
		log := logger.Init(logger.Options{})
		log.Fatal().Err(err).Msg("memory-api stopped")
	}
}

// run wires the service and blocks until ctx is cancelled or the listener
// fails. Configuration and secret errors return before any connection is made.
func run(ctx context.Context, lookuper envconfig.Lookuper, out io.Writer) error {
	cfg, err := config.LoadWith(ctx, lookuper)
	if err != nil {
		return err
	}

	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  cfg.LogPretty,
		Output:  out,
		Service: "memory-api",
		Env:     cfg.Env,
	})

	secret, err := token.ResolveSecret(cfg.JWT.Secret, cfg.Env, logger.Component("token"))
	if err != nil {
		return fmt.Errorf("refusing to start without a signing secret: %w", err)
	}
	codec, err := token.NewCodec(secret)
	if err != nil {
		return fmt.Errorf("token codec: %w", err)
	}
	verifier := token.NewVerifier(codec, token.NewValidator(cfg.JWT.Issuer, cfg.JWT.Audience), time.Now)

	// --- Storage ---
	client, db, err := mongodb.Connect(ctx, mongodb.Config{URI: cfg.Mongo.URI, Database: cfg.Mongo.Database})
	if err != nil {
		return err
	}
	defer func() {
		disconnectCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = client.Disconnect(disconnectCtx)
	}()

	users := mongodb.NewUserRepository(db)
	projects := mongodb.NewProjectRepository(db)
	assignments := mongodb.NewAssignmentRepository(db)
	audits := mongodb.NewAuditRepository(db)
	if err := mongodb.EnsureIndexes(ctx, users, projects, assignments, audits); err != nil {
		return fmt.Errorf("mongo indexes: %w", err)
	}

	var rdb *goredis.Client
	if cfg.Redis.Enabled {
		rdb, err = rediscache.Connect(ctx, rediscache.Config{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			PoolSize: cfg.Redis.PoolSize,
		})
		if err != nil {
			log.Warn().Err(err).Msg("redis unavailable, serving without cache")
		} else {
			defer rdb.Close()
		}
	}
	cache := rediscache.NewCache(rdb, logger.Component("cache"))

	// --- Audit trail ---
	dispatcher := queue.NewDispatcher(cfg.Audit.Workers, audits, logger.Component("audit"))
	workerCtx, stopWorkers := context.WithCancel(context.Background())
	dispatcher.Start(workerCtx)
	defer func() {
		stopWorkers()
		dispatcher.Wait()
	}()

	// --- Services ---
	cachedUsers := service.NewUserCache(users, cache, cfg.Redis.CacheTTL)
	authService := service.NewAuthService(cachedUsers, codec, verifier, dispatcher, service.AuthConfig{
		Token: token.Options{
			Issuer:   cfg.JWT.Issuer,
			Audience: cfg.JWT.Audience,
			TTL:      cfg.JWT.TTL,
		},
		BcryptCost: cfg.Security.BcryptCost,
	}, logger.Component("auth"))
	projectService := service.NewProjectService(projects, dispatcher, logger.Component("projects"))
	assignmentService := service.NewAssignmentService(
		cachedUsers, projects, assignments, cache, cfg.Redis.CacheTTL, dispatcher, logger.Component("assignments"),
	)

	if cfg.Bootstrap.Enabled() {
		created, err := authService.EnsureAdmin(ctx, cfg.Bootstrap.Username, cfg.Bootstrap.Email, cfg.Bootstrap.Password)
		if err != nil {
			return fmt.Errorf("bootstrap admin: %w", err)
		}
		if !created {
			log.Debug().Msg("user store not empty, skipping admin bootstrap")
		}
	}

	// --- HTTP ---
	var cachePinger handler.Pinger
	if cache.Enabled() {
		cachePinger = cache
	}
	health := handler.NewHealthHandler(handler.PingFunc(func(ctx context.Context) error {
		return mongodb.Ping(ctx, client)
	}), cachePinger)

	e := api.NewRouter(api.Deps{
		Auth:               authService,
		Projects:           projectService,
		Assignments:        assignmentService,
		Authenticator:      middleware.NewAuthenticator(verifier, logger.Component("auth_middleware")),
		Health:             health,
		LoginRatePerMinute: cfg.Security.LoginRatePerMinute,
		LoginBurst:         cfg.Security.LoginBurst,
		Log:                logger.Component("http"),
	})

	serveErr := make(chan error, 1)
	go func() {
		log.Info().Str("port", cfg.Port).Msg("http server listening")
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	select {
	case err := <-serveErr:
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("http shutdown")
	}
	log.Info().Msg("stopped")
	return nil
}
