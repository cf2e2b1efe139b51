package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"verbitskysystems.com/website/internal/api"
	"verbitskysystems.com/website/internal/config"
	"verbitskysystems.com/website/internal/core"
	"verbitskysystems.com/website/internal/mail"
	"verbitskysystems.com/website/internal/metrics"
	"verbitskysystems.com/website/internal/store"
)

func main() {
	// Load configuration
	config.LoadConfig()
	cfg := config.AppConfig

	// Setup logging
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
		Level(level).
		With().Timestamp().Logger()

	metrics.MustRegister()

	// Initialize the document catalog store
	library, err := store.NewSQLiteStore(cfg.DatabaseURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to initialize database")
	}
	defer library.Close()

	// Pick the mailer: real SMTP when configured, noop otherwise so the
	// contact flow still works end to end in development.
	var mailer mail.Mailer
	if cfg.SMTPHost != "" {
		mailer = mail.NewSMTPMailer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUsername,
			cfg.SMTPPassword, cfg.ContactFrom, cfg.ContactTo, logger)
	} else {
		logger.Warn().Msg("SMTP not configured, contact emails will be logged only")
		mailer = mail.NewNoopMailer(logger)
	}

	// The shell wires the page controllers together
	shell := core.NewShell(core.ShellOptions{
		Logger:       logger,
		RelayURL:     cfg.RelayURL,
		Operator:     cfg.ContactTo,
		ChatDelayMin: time.Duration(cfg.ChatDelayMinMs) * time.Millisecond,
		ChatDelayMax: time.Duration(cfg.ChatDelayMaxMs) * time.Millisecond,
	})
	defer shell.Close()

	apiHandler := api.NewAPIHandler(shell, library, logger)
	relay := api.NewRelayHandler(mailer, cfg.ContactLogPath, logger)
	router := api.NewRouter(apiHandler, relay)

	serverAddr := fmt.Sprintf(":%s", cfg.HTTPPort)
	srv := &http.Server{
		Addr:         serverAddr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// Graceful shutdown handling
	go func() {
		logger.Info().Str("addr", serverAddr).Msg("Starting server. Press Ctrl+C to quit.")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Str("addr", serverAddr).Msg("Could not listen")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info().Msg("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	// shell.Close() and library.Close() run via their defers.
	logger.Info().Msg("Server exiting gracefully")
}
