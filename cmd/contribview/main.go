package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "golang.org/x/crypto/x509roots/fallback" // Embed CA certs for scratch container

	githubadapter "github.com/mkendall/contribview/internal/adapter/driven/github"
	sqliteadapter "github.com/mkendall/contribview/internal/adapter/driven/sqlite"
	httphandler "github.com/mkendall/contribview/internal/adapter/driving/http"
	webhandler "github.com/mkendall/contribview/internal/adapter/driving/web"
	"github.com/mkendall/contribview/internal/application"
	"github.com/mkendall/contribview/internal/config"
)

func main() {
	if err := run(); err != nil {
		slog.Error("fatal error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// 1. Load configuration (fail fast on a missing or invalid config file).
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	slog.Info("config loaded",
		"repo", cfg.Repository.Owner+"/"+cfg.Repository.Name,
		"listen_addr", cfg.Server.ListenAddr,
		"db_path", cfg.Storage.DBPath,
		"per_page", cfg.Fetch.PerPage,
		"max_pages", cfg.Fetch.MaxPages,
		"authenticated", cfg.GitHubToken != "",
	)

	// 2. Setup signal-based context (SIGINT, SIGTERM).
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 3. Open database (dual reader/writer with WAL mode).
	db, err := sqliteadapter.NewDB(cfg.Storage.DBPath)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := db.Close(); closeErr != nil {
			slog.Error("error closing database", "error", closeErr)
		}
	}()
	slog.Info("database opened", "path", cfg.Storage.DBPath)

	// 4. Run migrations on writer connection.
	if err := sqliteadapter.RunMigrations(db.Writer); err != nil {
		return err
	}
	slog.Info("migrations complete")

	// 5. Wire adapters.
	snapshots := sqliteadapter.NewSnapshotRepo(db)
	ghClient := githubadapter.NewClient(cfg.GitHubToken)

	// 6. Create the feed service and warm it from the last snapshot.
	feed := application.NewFeedService(
		ghClient,
		snapshots,
		cfg.Repository.Owner,
		cfg.Repository.Name,
		cfg.Fetch.PerPage,
		cfg.Fetch.MaxPages,
		cfg.Fetch.PageTimeoutDuration(),
		cfg.Exclusions.Authors,
		slog.Default(),
	)
	if err := feed.LoadSnapshot(ctx); err != nil {
		slog.Warn("snapshot load failed, starting cold", "error", err)
	}

	// 7. Kick off the initial fetch in the background so startup never
	// blocks on GitHub.
	go func() {
		if err := feed.Refresh(ctx); err != nil {
			slog.Error("initial fetch failed", "error", err)
		}
	}()

	// 8. Register API and GUI routes.
	mux := http.NewServeMux()
	apiHandler := httphandler.NewHandler(feed, slog.Default())
	httphandler.RegisterAPIRoutes(mux, apiHandler)

	webHandler := webhandler.NewHandler(feed, slog.Default())
	webhandler.RegisterRoutes(mux, webHandler)

	handler := httphandler.ApplyMiddleware(mux, slog.Default())

	srv := &http.Server{
		Addr:              cfg.Server.ListenAddr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		slog.Info("http server starting", "addr", cfg.Server.ListenAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("http server error", "error", err)
		}
	}()

	slog.Info("contribview started",
		"repo", cfg.Repository.Owner+"/"+cfg.Repository.Name,
		"listen_addr", cfg.Server.ListenAddr,
	)

	// 9. Wait for shutdown signal.
	<-ctx.Done()
	slog.Info("shutting down")

	// 10. Graceful shutdown with 10s timeout for HTTP server drain.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("http server shutdown error", "error", err)
	}

	slog.Info("shutdown complete")
	return nil
}
