package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/oggyb/concert-buddy/internal/app"
	"github.com/oggyb/concert-buddy/internal/cache"
	"github.com/oggyb/concert-buddy/internal/catalog"
	"github.com/oggyb/concert-buddy/internal/config"
	"github.com/oggyb/concert-buddy/internal/db"
	"github.com/oggyb/concert-buddy/internal/logger"
	"github.com/oggyb/concert-buddy/internal/metrics"
	"github.com/oggyb/concert-buddy/internal/server"
	"github.com/oggyb/concert-buddy/internal/service/buddy"
)

func main() {
	cfg := config.New()

	// Init logger (global singleton)
	logger.InitFromConfig(cfg)
	log := logger.L() // slog.Logger pointer

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Init DB
	database, err := db.NewDB(cfg)
	if err != nil {
		log.Error("failed to init db", "err", err)
		return
	}

	// Init Redis
	redisCache := cache.NewRedisCache(cfg)
	if err := redisCache.Ping(ctx); err != nil {
		log.Error("failed to connect to redis", "err", err)
		return
	}

	if cfg.App.ENV == "development" && cfg.App.SeedOnStart {
		if err := db.SeedDemoData(database); err != nil {
			log.Error("failed to seed", "err", err)
		}
	}

	if cfg.Metrics.Addr != "" {
		go func() {
			if err := metrics.Serve(ctx, cfg.Metrics.Addr, log); err != nil {
				log.Error("metrics server stopped", "err", err)
			}
		}()
	}

	// Inject loggers into app context
	appCtx := app.New(database, redisCache, log, logger.Alerts())

	store := catalog.NewStore(database)
	events := catalog.NewCachedEventCatalog(store, redisCache, log)

	registrars := []server.Registrar{
		buddy.NewRegistrar(appCtx, store.Collaborators(events)),
	}

	addr := cfg.GRPC.Host + ":" + cfg.GRPC.Port
	log.Info("starting gRPC server", "addr", addr)

	if err := server.StartGRPCServer(ctx, cfg, log, registrars...); err != nil {
		log.Error("failed to start gRPC server", "err", err)
	}
}
