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

	gmailadapter "github.com/ericfisherdev/mailbridge/internal/adapter/driven/gmail"
	"github.com/ericfisherdev/mailbridge/internal/adapter/driven/googleauth"
	sqliteadapter "github.com/ericfisherdev/mailbridge/internal/adapter/driven/sqlite"
	"github.com/ericfisherdev/mailbridge/internal/adapter/driven/tokenfile"
	httphandler "github.com/ericfisherdev/mailbridge/internal/adapter/driving/http"
	"github.com/ericfisherdev/mailbridge/internal/application"
	"github.com/ericfisherdev/mailbridge/internal/config"
	"github.com/ericfisherdev/mailbridge/internal/domain/port/driven"
)

func main() {
	if err := run(); err != nil {
		slog.Error("fatal error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// 1. Load configuration (fail fast on invalid env vars).
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	slog.Info("config loaded",
		"listen_addr", cfg.ListenAddr,
		"db_path", cfg.DBPath,
		"token_path", cfg.TokenPath,
		"scopes", cfg.Scopes,
	)

	// 2. Setup signal-based context (SIGINT, SIGTERM).
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 3. Open database (dual reader/writer with WAL mode).
	db, err := sqliteadapter.NewDB(cfg.DBPath)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := db.Close(); closeErr != nil {
			slog.Error("error closing database", "error", closeErr)
		}
	}()
	slog.Info("database opened", "path", cfg.DBPath)

	// 4. Run migrations on writer connection.
	if err := sqliteadapter.RunMigrations(db.Writer); err != nil {
		return err
	}
	slog.Info("migrations complete")

	// 5. Create token refresher (nil without an OAuth client file; stored
	// tokens then work until they expire).
	var refresher driven.TokenRefresher
	if cfg.HasClientCredentials() {
		refresher, err = googleauth.NewRefresherFromClientFile(cfg.ClientFilePath, cfg.Scopes)
		if err != nil {
			return err
		}
		slog.Info("token refresher created", "client_file", cfg.ClientFilePath)
	} else {
		slog.Warn("no oauth client file configured, expired tokens cannot be refreshed")
	}

	// 6. Create the credential store.
	tokens := tokenfile.NewStore(cfg.TokenPath, refresher, cfg.RefreshTimeout, slog.Default())

	// 7. Create the mail client. A client is built unconditionally; each
	// request loads a fresh token from the store, so authorization completed
	// after startup takes effect without a restart.
	mailClient, err := gmailadapter.NewClient(ctx, tokens)
	if err != nil {
		return err
	}
	provider := application.NewMailClientProvider(mailClient)

	// 8. Wire application services.
	auditStore := sqliteadapter.NewAuditRepo(db)
	mailSvc := application.NewMailService(provider, auditStore, cfg.MaxResultsCap, slog.Default())
	authSvc := application.NewAuthService(tokens, slog.Default())

	// 9. Create HTTP handler with middleware.
	apiHandler := httphandler.NewHandler(mailSvc, authSvc, slog.Default())
	handler := httphandler.NewServeMux(apiHandler, slog.Default())

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		slog.Info("http server starting", "addr", cfg.ListenAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("http server error", "error", err)
		}
	}()

	slog.Info("mailbridge started", "listen_addr", cfg.ListenAddr)

	// 10. Wait for shutdown signal.
	<-ctx.Done()
	slog.Info("shutting down")

	// 11. Graceful shutdown with 10s timeout.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("http server shutdown error", "error", err)
	}

	slog.Info("shutdown complete")
	return nil
}
