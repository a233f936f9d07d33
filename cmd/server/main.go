package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"codeberg.org/seoscribe/dashboard/internal/config"
	"codeberg.org/seoscribe/dashboard/internal/logger"
)

// @title SEOScribe Dashboard Gateway
// @version 1.0
// @description Entitlement gateway for the SEOScribe dashboard
// @description
// @description Features:
// @description - Plan and daily usage per device, reconciled with the SEOScribe API
// @description - Gated article generation and SEO tools
// @description - Live entitlement snapshots over WebSockets

// @contact.name API Support
// @contact.url https://codeberg.org/seoscribe/dashboard

func main() {
	logger.Info("starting seoscribe gateway")

	cfg, err := config.LoadEnvironmentVariables()
	if err != nil {
		logger.Fatal("failed to load configuration", "error", err)
	}

	srv, err := NewServer(context.Background(), cfg)
	if err != nil {
		logger.Fatal("failed to create server", "error", err)
	}

	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.Port),
		Handler:           srv.router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	// start server in goroutine
	go func() {
		logger.Info("server listening", "port", cfg.Port, "api_url", cfg.APIURL)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server failed to start", "error", err)
		}
	}()

	// start websocket hub
	go srv.hub.Run()

	if srv.pruner != nil {
		if err := srv.pruner.Start(); err != nil {
			logger.ErrorErr(err, "failed to schedule usage prune, continuing without it")
		}
	}

	// wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// notify websocket clients and close connections first
	if err := srv.hub.Shutdown(ctx); err != nil {
		logger.Warn("websocket hub did not drain in time", "error", err)
	}

	if err := httpServer.Shutdown(ctx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
	}

	if srv.pruner != nil {
		srv.pruner.Stop()
	}

	// cancels per-device watchers
	srv.devices.Stop()

	srv.closeBackend()

	logger.Info("server stopped")
}
