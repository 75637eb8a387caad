package main

import (
	"context"
	"log"
	"os"
	"time"

	"prodman/internal/cli"
	"prodman/internal/config"
	"prodman/internal/domain"
	"prodman/internal/pricing"
	"prodman/internal/service"
	"prodman/internal/store"
	"prodman/internal/store/memory"
	pgstore "prodman/internal/store/postgres"
)

func main() {
	cfg := config.Load()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var repo store.Repository
	var closeStore func() error

	if cfg.DatabaseURL != "" {
		pg, err := pgstore.New(ctx, cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("postgres unavailable: %v", err)
		}
		if err := pg.Migrate(); err != nil {
			log.Fatalf("migrations failed: %v", err)
		}
		repo = pg
		closeStore = pg.Close
	} else {
		repo = memory.NewSeeded()
	}

	svc := service.New(repo, pricing.NewEngine(nil, 0))
	console := cli.New(svc, os.Stdin, os.Stdout)

	// The console is a trusted local surface, so it runs with admin rights.
	runCtx := service.WithActor(context.Background(), domain.Actor{Username: "console", Role: domain.RoleAdmin})
	if err := console.Run(runCtx); err != nil {
		log.Fatalf("console error: %v", err)
	}

	if closeStore != nil {
		if err := closeStore(); err != nil {
			log.Printf("close error: %v", err)
		}
	}
}
