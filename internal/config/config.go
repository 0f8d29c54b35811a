// Package config loads deployment settings from the environment into an
// injected value object; nothing reads configuration from ambient state.
package config

import (
	"fmt"
	"os"
	"strings"
)

// Config holds the per-deployment settings.
type Config struct {
	// ListenAddr is the HTTP bind address.
	ListenAddr string
	// DatabasePath is the sqlite database file.
	DatabasePath string
	// CalDAVBaseURL is the external CalDAV (Radicale) server the sync
	// orchestrator pushes to.
	CalDAVBaseURL string
	// CalDAVPassword is the shared secret for Basic auth against the
	// external server.
	CalDAVPassword string
	// Realm is the Basic auth realm served to clients.
	Realm string
	// LogLevel is one of debug, info, warn, error.
	LogLevel string
	// Users maps usernames to passwords for the built-in authenticator.
	Users map[string]string
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// Load reads the configuration from the environment.
func Load() (Config, error) {
	cfg := Config{
		ListenAddr:     getenv("LISTEN_ADDR", ":8000"),
		DatabasePath:   getenv("DATABASE_PATH", "calsync.db"),
		CalDAVBaseURL:  getenv("CALDAV_BASE_URL", "http://127.0.0.1:5232"),
		CalDAVPassword: getenv("CALDAV_PASSWORD", "12345"),
		Realm:          getenv("CALDAV_REALM", "PolyHub Calendar"),
		LogLevel:       getenv("LOG_LEVEL", "info"),
	}

	users, err := parseUsers(os.Getenv("BASIC_AUTH_USERS"))
	if err != nil {
		return Config{}, err
	}
	cfg.Users = users

	return cfg, nil
}

// parseUsers parses a comma-separated list of user:password pairs.
func parseUsers(raw string) (map[string]string, error) {
	users := make(map[string]string)
	if raw == "" {
		return users, nil
	}

	for _, pair := range strings.Split(raw, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		name, password, found := strings.Cut(pair, ":")
		if !found || name == "" || password == "" {
			return nil, fmt.Errorf("invalid BASIC_AUTH_USERS entry %q, expected user:password", pair)
		}
		users[name] = password
	}

	return users, nil
}
