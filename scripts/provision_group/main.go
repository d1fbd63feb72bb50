package main

import (
	"context"
	"flag"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
	log "github.com/sirupsen/logrus"

	"github.com/galaxysched/console/internal/config"
	"github.com/galaxysched/console/internal/db"
	"github.com/galaxysched/console/internal/seedstore"
)

// One-shot provisioning tool: creates a group with its quota and attaches
// members. Group and membership rows are only ever written here; the console
// itself treats them as read-only.
func main() {
	var (
		name        = flag.String("name", "", "group name")
		master      = flag.String("master", "", "galaxy master endpoint for the group's jobs")
		millicores  = flag.Int64("millicores", 0, "group cpu quota in millicores")
		memory      = flag.String("memory", "", "group memory quota, accepts T/G/M suffix")
		maxCPULimit = flag.Int64("max-cpu-limit", 0, "per-job cpu limit cap, 0 for none")
		members     = flag.String("members", "", "comma separated usernames to add")
	)
	flag.Parse()

	if *name == "" || *master == "" || *millicores <= 0 || *memory == "" {
		log.Fatal("name, master, millicores and memory are required")
	}

	memBytes, err := seedstore.ParseMemory(*memory)
	if err != nil {
		log.Fatalf("invalid memory quota: %v", err)
	}

	ctx := context.Background()
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	defer pool.Close()

	repo := db.NewRepository(pool)
	groupID, err := repo.CreateGroup(ctx, db.Group{
		Name:         *name,
		GalaxyMaster: *master,
		CPUQuota:     *millicores,
		MemQuota:     memBytes,
		MaxCPULimit:  *maxCPULimit,
	})
	if err != nil {
		log.Fatalf("failed to create group: %v", err)
	}
	log.Infof("created group %s with id %d", *name, groupID)

	for _, member := range strings.Split(*members, ",") {
		member = strings.TrimSpace(member)
		if member == "" {
			continue
		}
		if err := repo.UpsertUser(ctx, db.User{Name: member}); err != nil {
			log.Errorf("failed to ensure user %s: %v", member, err)
			continue
		}
		if err := repo.AddGroupMember(ctx, member, groupID); err != nil {
			log.Errorf("failed to add %s to group %d: %v", member, groupID, err)
			continue
		}
		log.Infof("added %s to group %d", member, groupID)
	}
}
