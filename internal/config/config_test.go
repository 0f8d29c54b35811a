package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":8000", cfg.ListenAddr)
	assert.Equal(t, "http://127.0.0.1:5232", cfg.CalDAVBaseURL)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Empty(t, cfg.Users)
}

func TestLoad_FromEnv(t *testing.T) {
	t.Setenv("LISTEN_ADDR", ":9999")
	t.Setenv("CALDAV_BASE_URL", "http://radicale.internal:5232")
	t.Setenv("BASIC_AUTH_USERS", "alice:pw1, bob:pw2")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":9999", cfg.ListenAddr)
	assert.Equal(t, "http://radicale.internal:5232", cfg.CalDAVBaseURL)
	assert.Equal(t, map[string]string{"alice": "pw1", "bob": "pw2"}, cfg.Users)
}

func TestLoad_InvalidUsers(t *testing.T) {
	t.Setenv("BASIC_AUTH_USERS", "alice")

	_, err := Load()
	assert.Error(t, err)
}

func TestParseUsers(t *testing.T) {
	users, err := parseUsers("a:1,b:2,")
	require.NoError(t, err)
	assert.Len(t, users, 2)

	_, err = parseUsers(":nopass")
	assert.Error(t, err)
}
