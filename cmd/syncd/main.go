package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/subosito/gotenv"
	"go.uber.org/zap"

	"github.com/printocards/expense-sync/internal/api"
	"github.com/printocards/expense-sync/internal/config"
	"github.com/printocards/expense-sync/internal/httpapi"
	"github.com/printocards/expense-sync/internal/netmon"
	"github.com/printocards/expense-sync/internal/notify"
	"github.com/printocards/expense-sync/internal/queue"
	"github.com/printocards/expense-sync/internal/session"
	"github.com/printocards/expense-sync/internal/submit"
	"github.com/printocards/expense-sync/internal/syncer"
	"github.com/printocards/expense-sync/internal/worker"
	"github.com/printocards/expense-sync/pkg/database"
	"github.com/printocards/expense-sync/pkg/logging"
)

func main() {
	configPath := flag.String("config", "configs/config.yaml", "path to config file")
	flag.Parse()

	_ = gotenv.Load()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger, err := logging.New(logging.Config{
		Level:      cfg.Logger.Level,
		OutputPath: cfg.Logger.OutputPath,
		Format:     cfg.Logger.Format,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("Starting offline expense sync daemon",
		zap.String("api_base_url", cfg.API.BaseURL),
		zap.Int("port", cfg.Server.Port))

	if dir := filepath.Dir(cfg.Database.Path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			logger.Fatal("Failed to create data directory", zap.Error(err))
		}
	}

	db, err := database.New(database.Config{
		Path:            cfg.Database.Path,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
	}, logger)
	if err != nil {
		logger.Fatal("Failed to open local queue database", zap.Error(err))
	}
	defer db.Close()

	if err := queue.Migrate(db, logger); err != nil {
		logger.Fatal("Failed to run queue migrations", zap.Error(err))
	}

	store := queue.NewStore(db.DB, logger)
	sess := session.New()
	hub := notify.NewHub(logger)

	client := api.NewClient(api.Config{
		BaseURL: cfg.API.BaseURL,
		Timeout: cfg.API.Timeout,
	}, logger)

	prober := netmon.NewHTTPProber(
		netmon.HealthURL(cfg.API.BaseURL, cfg.API.HealthPath),
		cfg.Monitor.ProbeTimeout,
	)
	monitor := netmon.NewMonitor(prober, cfg.Monitor.ProbeInterval, logger)

	engine := syncer.NewEngine(store, client, sess, hub, logger)
	syncWorker := syncer.NewWorker(engine, monitor, cfg.Sync.RetryInterval, logger)
	trigger := syncer.NewTrigger(nil, syncWorker, logger)
	submitter := submit.NewSubmitter(client, store, sess, trigger, hub, logger)

	manager := worker.NewManager(logger)
	manager.Register(monitor)
	manager.Register(syncWorker)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := manager.StartAll(ctx); err != nil {
		logger.Fatal("Failed to start workers", zap.Error(err))
	}

	handlers := httpapi.NewHandlers(submitter, store, engine, monitor, sess, hub, logger)
	server := httpapi.NewServer(httpapi.ServerConfig{
		Host:         cfg.Server.Host,
		Port:         cfg.Server.Port,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}, handlers, logger)

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil {
			logger.Error("Control API stopped unexpectedly", zap.Error(err))
		}
	case sig := <-quit:
		logger.Info("Shutting down", zap.String("signal", sig.String()))
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Control API shutdown failed", zap.Error(err))
	}
	manager.StopAll()

	logger.Info("Daemon stopped")
}
