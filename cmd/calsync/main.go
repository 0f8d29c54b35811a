package main

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"

	"github.com/polyhub/calsync/internal/api"
	"github.com/polyhub/calsync/internal/auth"
	"github.com/polyhub/calsync/internal/config"
	"github.com/polyhub/calsync/internal/radicale"
	"github.com/polyhub/calsync/internal/storage/sqlstore"
	"github.com/polyhub/calsync/internal/syncer"
	caldav "github.com/polyhub/calsync/server"
)

func main() {
	// Load .env file first, but don't error if it doesn't exist.
	_ = godotenv.Load()

	app := &cli.App{
		Name:  "calsync",
		Usage: "Calendar backend with CalDAV read surface and Radicale sync.",
		Commands: []*cli.Command{
			serveCommand(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		slog.Error("Application failed", "error", err)
		os.Exit(1)
	}
}

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run the calendar HTTP server.",
		Action: func(c *cli.Context) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("failed to load configuration: %w", err)
			}
			logger := setupLogger(cfg.LogLevel)

			store, err := sqlstore.Open(cfg.DatabasePath)
			if err != nil {
				return fmt.Errorf("failed to open event store: %w", err)
			}

			remote := radicale.NewClient(radicale.Config{
				BaseURL:  cfg.CalDAVBaseURL,
				Password: cfg.CalDAVPassword,
			}, logger)

			s := syncer.New(store, remote, logger)
			authenticator := auth.NewStatic(cfg.Users)
			requireAuth := auth.Middleware(authenticator, cfg.Realm)

			mux := http.NewServeMux()
			api.NewHandler(s, logger).Register(mux)
			mux.Handle("/caldav/", caldav.NewHandler("/caldav/", store, logger))

			logger.Info("starting server",
				"addr", cfg.ListenAddr,
				"caldav_base_url", cfg.CalDAVBaseURL)
			return http.ListenAndServe(cfg.ListenAddr, requireAuth(mux))
		},
	}
}

func setupLogger(level string) *slog.Logger {
	var logLevel slog.Level
	switch strings.ToLower(level) {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel}))
}
