package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/matteusmanoel/granaguru-backend/internal/config"
	"github.com/matteusmanoel/granaguru-backend/internal/database"
	"github.com/matteusmanoel/granaguru-backend/internal/logger"
	"github.com/matteusmanoel/granaguru-backend/internal/recurrence"
	"github.com/matteusmanoel/granaguru-backend/internal/router"
	"github.com/matteusmanoel/granaguru-backend/internal/scheduler"
)

func main() {
	// load configuration
	cfg, err := config.Load("config.yaml")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	appLog := logger.New(cfg.Log.Level)

	// ensure basic directories exist
	if err := ensureDir(filepath.Dir(cfg.Database.Path)); err != nil {
		log.Fatalf("create data dir: %v", err)
	}

	// init database
	db, err := database.Init(cfg.Database)
	if err != nil {
		log.Fatalf("init database: %v", err)
	}

	// run migrations
	if err := database.AutoMigrate(db); err != nil {
		log.Fatalf("migrate database: %v", err)
	}

	// recurrence core + background catch-up
	processor := recurrence.NewProcessor(db, appLog, cfg.Scheduler.MaxPerPass)
	recurringService := recurrence.NewService(db, processor)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go scheduler.New(processor, cfg.Scheduler.Interval, appLog).Run(ctx)

	// setup router
	r := router.SetupRouter(cfg, db, recurringService, appLog)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Address, cfg.Server.Port)
	appLog.Info().Str("addr", addr).Msg("server listening")
	if err := r.Run(addr); err != nil {
		log.Fatalf("run server: %v", err)
	}
}

func ensureDir(dir string) error {
	if dir == "" || dir == "." {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}
