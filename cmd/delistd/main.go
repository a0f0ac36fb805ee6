package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/user/delistd/internal/api"
	"github.com/user/delistd/internal/config"
	"github.com/user/delistd/internal/db"
	"github.com/user/delistd/internal/delist"
	"github.com/user/delistd/internal/hub"
	"github.com/user/delistd/internal/portal"
	"github.com/user/delistd/internal/profile"
	"github.com/user/delistd/internal/server"
)

func main() {
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})))

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	database, err := db.Open(ctx, cfg.DBPath)
	if err != nil {
		slog.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer database.Close()

	prof, err := profile.Load(cfg.ProfilePath)
	if err != nil {
		slog.Error("failed to load portal profile", "error", err)
		os.Exit(1)
	}

	client, err := portal.NewClient(prof)
	if err != nil {
		slog.Error("failed to build portal client", "error", err)
		os.Exit(1)
	}

	h := hub.New(cfg.Token)
	go h.Run(ctx)

	engine, err := delist.New(delist.Config{
		Portal:  client,
		Cache:   delist.NewRepoCache(db.NewHandleRepo(database.SQL())),
		Profile: prof,
		OnProgress: func(ev delist.Event) {
			h.Broadcast(map[string]any{"type": "delist_progress", "data": ev})
		},
	})
	if err != nil {
		slog.Error("failed to build delist engine", "error", err)
		os.Exit(1)
	}

	router := api.NewRouter(database.SQL(), engine, client, cfg.Token)
	srv := server.New(cfg, h, router)

	fmt.Printf("\ndelistd running at http://localhost:%d (token %s)\n\n", cfg.Port, cfg.Token)

	if err := srv.Start(ctx); err != nil {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}
}
