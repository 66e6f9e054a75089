package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/vytor/openingdrill/internal/api"
	"github.com/vytor/openingdrill/internal/catalog"
	"github.com/vytor/openingdrill/internal/config"
	"github.com/vytor/openingdrill/internal/db"
	"github.com/vytor/openingdrill/internal/jobs"
	"github.com/vytor/openingdrill/internal/logger"
	"github.com/vytor/openingdrill/internal/repository"
	"github.com/vytor/openingdrill/internal/repository/redisstore"
	"github.com/vytor/openingdrill/internal/repository/sqlite"
	"github.com/vytor/openingdrill/internal/roulette"
	"github.com/vytor/openingdrill/internal/services"
	"github.com/vytor/openingdrill/internal/worker"
)

type store struct {
	progress repository.ProgressRepository
	history  repository.SessionHistoryRepository
	ping     func() error
	close    func() error
}

func openStore(cfg config.Config, log *logger.Logger) (*store, error) {
	if cfg.StoreBackend == "redis" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return nil, err
		}
		rdb := redis.NewClient(opts)
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := rdb.Ping(ctx).Err(); err != nil {
			_ = rdb.Close()
			return nil, err
		}
		log.Info("using redis store at %s", opts.Addr)
		rs := redisstore.New(rdb)
		return &store{
			progress: rs.Progress(),
			history:  rs.History(),
			ping:     func() error { return rdb.Ping(context.Background()).Err() },
			close:    rdb.Close,
		}, nil
	}

	database, err := db.Open(cfg.DBPath)
	if err != nil {
		return nil, err
	}
	log.Info("using sqlite store at %s", cfg.DBPath)
	return &store{
		progress: sqlite.NewProgressRepository(database.DB),
		history:  sqlite.NewSessionHistoryRepository(database.DB),
		ping:     database.Ping,
		close:    database.Close,
	}, nil
}

func main() {
	cfg := config.Load()

	// Initialize logger
	log := logger.New(
		logger.WithLevel(logger.ParseLevel(cfg.LogLevel)),
		logger.WithFormat(cfg.LogFormat),
		logger.WithColors(cfg.LogFormat == "console"),
	)
	logger.SetDefault(log)
	defer func() { _ = log.Sync() }()

	log.Info("===========================================")
	log.Info("Opening Drill Server Starting")
	log.Info("===========================================")

	if err := cfg.Validate(); err != nil {
		log.Error("%v", err)
		os.Exit(1)
	}
	log.Info("configuration loaded")
	log.Debug("addr=%s", cfg.Addr)
	log.Debug("store_backend=%s", cfg.StoreBackend)
	log.Debug("log_level=%s", cfg.LogLevel)
	log.Debug("catalog_path=%s", cfg.CatalogPath)
	log.Debug("opponent_delay_ms=%d", cfg.OpponentDelayMS)
	log.Debug("persist_worker_count=%d", cfg.PersistWorkerCount)
	log.Debug("persist_queue_size=%d", cfg.PersistQueueSize)

	st, err := openStore(cfg, log)
	if err != nil {
		log.Error("failed to open store: %v", err)
		os.Exit(1)
	}
	defer func() {
		log.Debug("closing store")
		_ = st.close()
	}()

	openings, err := catalog.Load(cfg.CatalogPath)
	if err != nil {
		log.Error("failed to load opening catalog: %v", err)
		os.Exit(1)
	}
	log.Info("loaded %d openings", openings.Len())

	selector := roulette.New(roulette.Config{
		HardWeight:    cfg.RouletteHardWeight,
		GoodWeight:    cfg.RouletteGoodWeight,
		EasyWeight:    cfg.RouletteEasyWeight,
		UnratedWeight: cfg.RouletteUnratedWeight,
		DecayEnabled:  cfg.RouletteDecayEnabled,
		DecayDays:     cfg.RouletteDecayDays,
		MaxMultiplier: cfg.RouletteDecayMax,
		FuzzFactor:    cfg.RouletteFuzz,
	})

	// Persistence runs off the request path.
	persistPool := worker.NewPool(cfg.PersistWorkerCount, cfg.PersistQueueSize)
	ctx, cancel := context.WithCancel(context.Background())
	persistPool.Start(ctx)
	queue := jobs.NewWorkerQueue(persistPool, st.progress, st.history)

	practiceService := services.NewPracticeService(
		openings, selector, st.progress, st.history, queue,
		services.WithOpponentDelay(time.Duration(cfg.OpponentDelayMS)*time.Millisecond),
	)

	srv := &api.Server{
		PracticeService: practiceService,
		Ping:            st.ping,
	}

	// Configure HTTP server
	httpServer := &http.Server{
		Addr:         cfg.Addr,
		Handler:      srv.Routes(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info("HTTP server listening on %s", cfg.Addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("HTTP server error: %v", err)
			os.Exit(1)
		}
	}()

	// Wait for shutdown signal
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	sig := <-stop

	log.Info("received signal %v, initiating graceful shutdown", sig)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	log.Debug("shutting down HTTP server")
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP server shutdown error: %v", err)
	}

	// Drain queued saves before the store closes.
	log.Debug("stopping persistence pool")
	persistPool.Stop()
	cancel()

	log.Info("===========================================")
	log.Info("Opening Drill Server Stopped")
	log.Info("===========================================")
}
