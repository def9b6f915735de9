package main

import (
	"context"
	"log"

	"github.com/adminboard/go-admin-backend/config"
	"github.com/adminboard/go-admin-backend/internal/bootstrap"
	"github.com/adminboard/go-admin-backend/internal/storage/postgres"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	bootstrap.SetGinMode(cfg.App.Environment)

	ctx := context.Background()

	pool, err := bootstrap.OpenDB(ctx, bootstrap.DBOptions{DSN: cfg.Database.URL})
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer pool.Close()

	if err := postgres.Migrate(ctx, cfg.Database.URL); err != nil {
		log.Fatalf("migrate: %v", err)
	}

	if err := bootstrap.Seed(ctx, pool); err != nil {
		log.Fatalf("seed: %v", err)
	}

	r := bootstrap.BuildRouter(bootstrap.RouterDeps{
		ServiceName: "admin-backend",
		Version:     cfg.App.Version,
		WebOrigin:   cfg.Auth.WebOrigin,
		JWTSecret:   cfg.Auth.JWTSecret,
		DB:          pool,
		StaticDir:   "web/static",
	})

	addr := cfg.Server.Host + ":" + cfg.Server.Port
	log.Printf("listening on %s", addr)
	if err := r.Run(addr); err != nil {
		log.Fatal(err)
	}
}
