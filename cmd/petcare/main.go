package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/petland/petcare-console/internal/api"
	"github.com/petland/petcare-console/internal/core/ports"
	"github.com/petland/petcare-console/internal/core/service"
	"github.com/petland/petcare-console/internal/infrastructure/db/file"
	"github.com/petland/petcare-console/internal/infrastructure/db/memory"
	mongostore "github.com/petland/petcare-console/internal/infrastructure/db/mongo"
	redisstore "github.com/petland/petcare-console/internal/infrastructure/db/redis"
	"github.com/petland/petcare-console/internal/infrastructure/petapi"
	"github.com/petland/petcare-console/internal/infrastructure/queue"
	"github.com/petland/petcare-console/internal/pkg/config"
	"github.com/petland/petcare-console/pkg/logger"
)

const shutdownTimeout = 10 * time.Second

// @title PetLand Console API
// @version 1.0
// @description Session, authorization and navigation surface of the PetLand pet-care dashboard.
// @host localhost:8787
// @BasePath /
// @schemes http
func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "petcare: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	cfg, err := config.Load(ctx)
	if err != nil {
		return err
	}

	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  !cfg.IsProduction(),
		Service: "petcare-console",
	})

	store, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	client := petapi.NewClient(cfg.API.BaseURL, cfg.API.Timeout, logger.Component("petapi"))
	session := service.NewSessionService(petapi.NewIdentity(client), store, logger.Component("session"))

	notifier := queue.NewNotifier(logger.Component("notifier"), queue.LogSink(logger.Component("audit")))
	notifier.Start(ctx)
	unsubscribe := session.Subscribe(notifier.Enqueue)

	e := api.NewRouter(api.Deps{
		Session:    session,
		Resources:  petapi.NewGateway(client, session),
		Store:      store,
		Log:        logger.Component("http"),
		Registerer: prometheus.DefaultRegisterer,
		Gatherer:   prometheus.DefaultGatherer,
	})

	// Restore in the background; guarded routes answer 503 until it finishes.
	go func() {
		if err := session.Init(ctx); err != nil {
			log.Warn().Err(err).Msg("persisted session discarded")
		}
	}()

	serveErr := make(chan error, 1)
	go func() {
		addr := ":" + cfg.Port
		log.Info().
			Str("addr", addr).
			Str("api", cfg.API.BaseURL).
			Str("session_backend", cfg.Session.Backend).
			Msg("petcare console listening")
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("server start: %w", err)
		}
	case <-ctx.Done():
		log.Info().Msg("shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("http shutdown")
	}
	unsubscribe()
	session.Dispose()
	if err := notifier.Stop(shutdownCtx); err != nil {
		log.Warn().Err(err).Msg("notifier did not drain")
	}
	return nil
}

// openStore builds the configured persisted-state backend and its cleanup.
func openStore(ctx context.Context, cfg *config.Config) (ports.StateStore, func(), error) {
	log := logger.Component("store")
	noop := func() {}

	switch cfg.Session.Backend {
	case config.BackendMemory:
		log.Warn().Msg("memory session backend: the session is lost on restart")
		return memory.NewStateStore(), noop, nil

	case config.BackendRedis:
		client, err := redisstore.Connect(ctx, redisstore.Config{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("redis: %w", err)
		}
		closeFn := func() {
			if err := client.Close(); err != nil {
				log.Warn().Err(err).Msg("redis close")
			}
		}
		return redisstore.NewStateStore(client, cfg.Session.Namespace, cfg.Session.TTL), closeFn, nil

	case config.BackendMongo:
		client, db, err := mongostore.Connect(ctx, mongostore.Config{
			URI:      cfg.Mongo.URI,
			Database: cfg.Mongo.Database,
			AppName:  "petcare-console",
		})
		if err != nil {
			return nil, nil, fmt.Errorf("mongo: %w", err)
		}
		if err := mongostore.EnsureIndexes(ctx, db); err != nil {
			_ = client.Disconnect(context.Background())
			return nil, nil, fmt.Errorf("mongo indexes: %w", err)
		}
		closeFn := func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := client.Disconnect(ctx); err != nil {
				log.Warn().Err(err).Msg("mongo disconnect")
			}
		}
		return mongostore.NewStateStore(db, cfg.Session.Namespace), closeFn, nil

	default:
		if cfg.Session.Secret == "" {
			log.Info().Str("path", cfg.Session.File).Msg("session file is stored unencrypted, set SESSION_SECRET to encrypt it")
		}
		return file.NewStateStore(cfg.Session.File, cfg.Session.Secret), noop, nil
	}
}
