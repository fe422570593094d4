package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	_ "github.com/tablehub/backend/docs"
	"github.com/tablehub/backend/internal/api"
	"github.com/tablehub/backend/internal/core/ports"
	"github.com/tablehub/backend/internal/core/service"
	"github.com/tablehub/backend/internal/infrastructure/config"
	"github.com/tablehub/backend/internal/infrastructure/db/memory"
	"github.com/tablehub/backend/internal/infrastructure/db/mongo"
	"github.com/tablehub/backend/internal/infrastructure/db/postgres"
	"github.com/tablehub/backend/internal/infrastructure/db/redis"
	infrahttp "github.com/tablehub/backend/internal/infrastructure/http"
	"github.com/tablehub/backend/pkg/logger"
)

// @title                       TableHub API
// @version                     1.0
// @description                 Multi-tenant CRUD backend with a generic, policy checked table dispatcher.
// @BasePath                    /
// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
func main() {
	cfg := config.Load(zerolog.New(os.Stderr).With().Timestamp().Logger())

	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  !cfg.IsProduction(),
		Service: "tablehub-api",
	})

	ctx := context.Background()
	health := map[string]ports.Pinger{}
	var closers []func(context.Context) error

	var store ports.TableStore
	switch cfg.StoreDriver {
	case config.DriverMongo:
		client, db, err := mongo.Connect(ctx, mongo.Config{
			URI:         cfg.Mongo.URI,
			Database:    cfg.Mongo.Database,
			MaxPoolSize: cfg.Mongo.MaxPoolSize,
		})
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect mongo")
		}
		closers = append(closers, client.Disconnect)
		mongoStore := mongo.NewTableStore(db)
		if err := mongoStore.EnsureIndexes(ctx); err != nil {
			log.Fatal().Err(err).Msg("failed to ensure mongo indexes")
		}
		store = mongoStore
		health["mongo"] = mongoStore
	case config.DriverPostgres:
		pool, err := postgres.Connect(ctx, postgres.Config{DSN: cfg.Postgres.DSN, MaxConns: cfg.Postgres.MaxConns})
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect postgres")
		}
		closers = append(closers, func(context.Context) error { pool.Close(); return nil })
		pgStore := postgres.NewTableStore(pool)
		if err := pgStore.Migrate(ctx); err != nil {
			log.Fatal().Err(err).Msg("failed to migrate postgres schema")
		}
		store = pgStore
		health["postgres"] = pgStore
	default:
		log.Warn().Msg("using in-memory store; data is lost on restart")
		store = memory.NewStore()
	}

	var codes ports.CodeReserver
	if cfg.Redis.Enabled {
		rdb, err := redis.Connect(ctx, redis.Config{Addr: cfg.Redis.Addr, DB: cfg.Redis.DB, Password: cfg.Redis.Password})
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect redis")
		}
		closers = append(closers, func(context.Context) error { return rdb.Close() })
		codes = redis.NewCodeReserver(rdb)
		health["redis"] = redis.NewPinger(rdb)
	}

	ids := service.NewIDGenerator(store)
	authService := service.NewAuthService(store, ids, codes, cfg.JWTSecret, cfg.TokenTTL, log.With().Str("component", "auth").Logger())
	tableService := service.NewTableService(store, log.With().Str("component", "dispatcher").Logger())
	recordService := service.NewRecordService(store, ids, log.With().Str("component", "records").Logger())

	e := api.NewRouter(api.Deps{
		Auth:              authService,
		Tables:            tableService,
		Records:           recordService,
		Health:            health,
		Logger:            log,
		ExposeErrorDetail: cfg.ExposeDetail(),
	})
	srv := infrahttp.NewServer(cfg.Port, e, log)

	go func() {
		if err := srv.Start(); err != nil {
			log.Fatal().Err(err).Msg("http server failed")
		}
	}()

	waitForShutdown(log, srv, closers)
}

func waitForShutdown(log zerolog.Logger, srv *infrahttp.Server, closers []func(context.Context) error) {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()
	log.Info().Msg("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}

	for i := len(closers) - 1; i >= 0; i-- {
		if err := closers[i](shutdownCtx); err != nil {
			log.Error().Err(err).Msg("close error")
		}
	}

	log.Info().Msg("server exited cleanly")
}
