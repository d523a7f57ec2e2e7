// Command server runs the MongoDB tech adapter HTTP API.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/agile-lab-dev/witboost-mongodb-tech-adapter/internal/app"
	"github.com/agile-lab-dev/witboost-mongodb-tech-adapter/internal/config"
	"github.com/agile-lab-dev/witboost-mongodb-tech-adapter/internal/mongodb"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.LoadFromEnv()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.SlogLevel()}))
	slog.SetDefault(logger)
	for _, w := range cfg.Warnings {
		logger.Warn(w)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer cancel()

	connectCtx, connectCancel := context.WithTimeout(ctx, 15*time.Second)
	client, err := mongodb.Connect(connectCtx, cfg.MongoDB.URI)
	connectCancel()
	if err != nil {
		return fmt.Errorf("mongodb connect: %w", err)
	}
	defer func() {
		disconnectCtx, disconnectCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer disconnectCancel()
		_ = client.Disconnect(disconnectCtx)
	}()
	logger.Info("connected to MongoDB")

	gateway := mongodb.NewGateway(client, cfg.MongoDB.UsersDatabase, logger.With("component", "mongodb"))

	application, err := app.New(ctx, app.Deps{Cfg: cfg, Gateway: gateway, Logger: logger})
	if err != nil {
		return fmt.Errorf("wiring: %w", err)
	}
	defer application.Close()

	srv := &http.Server{
		Addr:         cfg.ListenAddr,
		Handler:      application.Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// Graceful shutdown
	go func() {
		<-ctx.Done()
		logger.Info("shutting down")
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	logger.Info("tech adapter listening", "addr", cfg.ListenAddr, "env", cfg.Env)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server: %w", err)
	}
	return nil
}
