package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"pdf-toolkit/internal/config"
	"pdf-toolkit/internal/handler"

	"github.com/joho/godotenv"
)

const shutdownTimeout = 15 * time.Second

func main() {
	// Load environment variables from .env file
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: .env file not found or could not be loaded: %v", err)
	}
	// Wiring
	container := config.NewContainer()
	cfg := container.Config

	// Handlers
	conversionHandler := handler.NewConversionHandler(
		container.Dispatcher,
		cfg.GetMaxFiles(),
		cfg.GetMaxFileSize(),
		container.Logger,
	)

	progressHandler := handler.NewProgressHandler(
		container.Progress,
		container.Dispatcher.Current,
		cfg.GetAllowedOrigins(),
		container.Logger,
	)

	// Router
	router := handler.NewRouter(
		conversionHandler,
		progressHandler,
		cfg.GetAllowedOrigins(),
		container.Logger,
	)

	// start server
	server := &http.Server{
		Addr:              ":" + cfg.GetServerPort(),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Run server
	go func() {
		container.Logger.Info("Server listening", "address", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			container.Logger.Error("Server failed to start", err)
			os.Exit(1)
		}
	}()
	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	container.Logger.Info("Shutting down server...")
	// A running conversion is abandoned rather than awaited.
	container.Dispatcher.Reset()

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		container.Logger.Error("Server shutdown failed", err)
		_ = server.Close()
	}

	container.Logger.Info("Server exited")
}
