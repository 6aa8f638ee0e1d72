package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"poflow/internal/config"
	"poflow/internal/listener"
	"poflow/internal/storage"
)

func main() {
	cfg, err := config.Load()
	must(err)

	rules, err := config.LoadRules(cfg.RulesPath)
	must(err)

	db, err := storage.Open(cfg.DBPath)
	must(err)
	defer db.Close()

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	svc := listener.NewService(db, cfg, rules, logger)
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	must(svc.Run(ctx))
}

func must(err error) {
	if err == nil {
		return
	}
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
	os.Exit(1)
}
