package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/log"

	"github.com/kurobon/gitlanes/internal/config"
	"github.com/kurobon/gitlanes/internal/server"
	"github.com/kurobon/gitlanes/internal/state"
)

func main() {
	logger := log.NewWithOptions(os.Stderr, log.Options{ReportTimestamp: true})

	cfg, err := config.Load(os.Getenv("GITLANES_CONFIG"))
	if err != nil {
		logger.Fatal("load config", "err", err)
	}

	srv := server.NewServer(state.NewSessionManager(cfg.CacheSize), cfg.GraphOptions(), logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := server.ListenAndServe(ctx, &http.Server{Addr: cfg.Addr, Handler: srv}, logger); err != nil {
		logger.Fatal("serve", "err", err)
	}
}
