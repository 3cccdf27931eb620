package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/mamadbah2/caskwarehouse/internal/config"
	"github.com/mamadbah2/caskwarehouse/internal/repository"
	"github.com/mamadbah2/caskwarehouse/internal/repository/filestore"
	"github.com/mamadbah2/caskwarehouse/internal/repository/mongodb"
	"github.com/mamadbah2/caskwarehouse/internal/server/handlers"
	"github.com/mamadbah2/caskwarehouse/internal/server/router"
	"github.com/mamadbah2/caskwarehouse/internal/service/portfolio"
	"github.com/mamadbah2/caskwarehouse/internal/service/warehouse"
	"github.com/mamadbah2/caskwarehouse/pkg/logger"
)

func main() {
	cfg, err := config.Load("")
	if err != nil {
		panic(err)
	}

	baseLogger := logger.Must(logger.New(cfg.Log.Level))
	defer func() { _ = baseLogger.Sync() }()

	zap.ReplaceGlobals(baseLogger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var repo repository.PortfolioRepository
	switch cfg.Storage.Backend {
	case config.StorageMongoDB:
		mongoRepo, err := mongodb.NewMongoDBRepository(ctx, cfg.MongoDB.URI, cfg.MongoDB.DBName)
		if err != nil {
			baseLogger.Fatal("failed to init mongodb repository", zap.Error(err))
		}
		defer func() {
			if err := mongoRepo.Close(context.Background()); err != nil {
				baseLogger.Error("failed to close mongodb connection", zap.Error(err))
			}
		}()
		repo = mongoRepo
	default:
		repo = filestore.NewRepository(cfg.Storage.DataPath, baseLogger.Named("repo.file"))
	}

	store := portfolio.NewStore(repo, baseLogger.Named("svc.portfolio"))
	if err := store.Init(ctx); err != nil {
		baseLogger.Fatal("failed to initialize portfolio store", zap.Error(err))
	}

	adapter := warehouse.NewMockAdapter(store)
	warehouseHandler := handlers.NewWarehouseHandler(adapter, baseLogger.Named("handlers.warehouse"))
	lifecycleHandler := handlers.NewLifecycleHandler(adapter, cfg.Server.LifecycleAPIKey, baseLogger.Named("handlers.lifecycle"))
	if cfg.Server.LifecycleAPIKey == "" {
		baseLogger.Warn("LIFECYCLE_API_KEY not set, lifecycle writes are unauthenticated")
	}
	engine := router.New(warehouseHandler, lifecycleHandler, baseLogger.Named("router"))

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      engine,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		baseLogger.Info("server starting",
			zap.String("port", cfg.Server.Port),
			zap.String("storage", cfg.Storage.Backend))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			baseLogger.Fatal("http server crashed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	baseLogger.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		baseLogger.Error("graceful shutdown failed", zap.Error(err))
	}
}
