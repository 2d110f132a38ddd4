package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/joho/godotenv"

	"importador/internal/config"
	"importador/internal/ingest"
	"importador/internal/kvstore"
	"importador/internal/layout"
	"importador/internal/logging"
	"importador/internal/session"
	"importador/internal/web"
)

func main() {
	// Load .env file if it exists (Overload overwrites existing env vars)
	if err := godotenv.Overload(); err != nil {
		slog.Info("no .env file found, using environment variables")
	} else {
		slog.Info("loaded .env file (overwriting existing env vars)")
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)

	slog.Info("configuration loaded",
		"port", cfg.Server.Port,
		"data_dir", cfg.Storage.DataDir,
		"rate_limit_enabled", cfg.Rate.Enabled,
	)

	catalog := layout.NewCatalog()
	ingestor := ingest.New()

	store, err := layout.NewStore(filepath.Join(cfg.Storage.DataDir, "layouts"), catalog)
	if err != nil {
		slog.Error("failed to open layout store", "error", err)
		os.Exit(1)
	}

	prefs, err := kvstore.New(filepath.Join(cfg.Storage.DataDir, "preferences"))
	if err != nil {
		slog.Error("failed to open preference store", "error", err)
		os.Exit(1)
	}

	sessions := session.NewManager(ingestor, store, catalog)

	slog.Info("field catalog loaded",
		"fields", catalog.Len(),
		"categories", len(catalog.Categories()),
	)

	server := web.NewServer(cfg, ingestor, store, catalog, sessions, prefs)

	// Graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		slog.Info("shutting down...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("shutdown error", "error", err)
		}
	}()

	slog.Info("server starting", "addr", cfg.Server.Addr())
	if err := server.Start(cfg.Server.Addr()); err != nil {
		slog.Info("server stopped", "error", err)
	}
}
