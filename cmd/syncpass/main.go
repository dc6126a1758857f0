// Command syncpass runs a single drain pass of the offline queue and exits.
// Useful from cron or a platform background-task hook, which is exactly the
// "background sync" role when the daemon itself is not running.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/subosito/gotenv"
	"go.uber.org/zap"

	"github.com/printocards/expense-sync/internal/api"
	"github.com/printocards/expense-sync/internal/config"
	"github.com/printocards/expense-sync/internal/notify"
	"github.com/printocards/expense-sync/internal/queue"
	"github.com/printocards/expense-sync/internal/session"
	"github.com/printocards/expense-sync/internal/syncer"
	"github.com/printocards/expense-sync/pkg/database"
	"github.com/printocards/expense-sync/pkg/logging"
)

func main() {
	configPath := flag.String("config", "configs/config.yaml", "path to config file")
	userID := flag.String("user", "", "active user id for ownership filtering")
	token := flag.String("token", "", "bearer token fallback for entries with no captured token")
	timeout := flag.Duration("timeout", 2*time.Minute, "overall pass timeout")
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

	sess := session.New()
	if *userID != "" || *token != "" {
		sess.Set(*userID, *token)
	}

	client := api.NewClient(api.Config{
		BaseURL: cfg.API.BaseURL,
		Timeout: cfg.API.Timeout,
	}, logger)

	store := queue.NewStore(db.DB, logger)
	engine := syncer.NewEngine(store, client, sess, notify.NewHub(logger), logger)

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	synced, err := engine.RunSyncPass(ctx)
	if err != nil {
		logger.Fatal("Sync pass failed", zap.Error(err))
	}

	fmt.Printf("synced %d offline expense(s)\n", synced)
}
