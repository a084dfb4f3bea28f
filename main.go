package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/longregen/zap/bus"
	"github.com/longregen/zap/config"
	"github.com/longregen/zap/server"
	"github.com/longregen/zap/store"
)

func main() {
	cfg := config.Load()

	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, nil)))
	slog.Info("starting zap gateway")
	slog.Info("server configured", "host", cfg.Server.Host, "port", cfg.Server.Port)

	slog.Info("connecting to scylla", "host", cfg.Scylla.Host, "keyspace", cfg.Scylla.Keyspace)
	s, err := store.Connect(cfg.Scylla)
	if err != nil {
		slog.Error("failed to connect to scylla", "error", err)
		os.Exit(1)
	}
	defer s.Close()
	slog.Info("scylla connected")

	slog.Info("connecting to nats", "url", cfg.NATS.URL)
	b, err := bus.Connect(cfg.NATS)
	if err != nil {
		slog.Error("failed to connect to nats", "error", err)
		os.Exit(1)
	}
	defer b.Close()
	slog.Info("nats connected")

	srv := server.NewServer(cfg, s, b)

	errCh := make(chan error, 1)
	go func() {
		slog.Info("http server listening", "host", cfg.Server.Host, "port", cfg.Server.Port)
		errCh <- srv.Start()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		slog.Error("server error", "error", err)
		os.Exit(1)
	case sig := <-sigCh:
		slog.Info("received signal, shutting down", "signal", sig)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Stop(shutdownCtx); err != nil {
			slog.Error("shutdown error", "error", err)
		}
		slog.Info("server stopped")
	}
}
