package main

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	log "github.com/sirupsen/logrus"

	"github.com/galaxysched/console/api"
	"github.com/galaxysched/console/internal/config"
	"github.com/galaxysched/console/internal/console"
	"github.com/galaxysched/console/internal/db"
	"github.com/galaxysched/console/internal/quota"
	"github.com/galaxysched/console/internal/scheduler"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	dbpool, err := pgxpool.New(context.Background(), cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer dbpool.Close()

	repo := db.NewRepository(dbpool)
	admission := quota.NewController(quota.NewLedger(repo))
	gate := console.NewPermissionGate(repo)
	clients := scheduler.NewHTTPFactory(time.Duration(cfg.SchedulerTimeout) * time.Second)
	orchestrator := console.NewOrchestrator(repo, admission, gate, clients)

	router := api.SetupRouter(orchestrator, repo, cfg)
	log.Infof("console listening on %s", cfg.ServerAddress)
	log.Fatal(router.Run(cfg.ServerAddress))
}
