package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(New())
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, ":8080", cfg.Addr())
	assert.Equal(t, AuthMemory, cfg.AuthProvider)
	assert.Equal(t, DataMemory, cfg.DataProvider)
	assert.Equal(t, "pawtastic", cfg.AppName)
	assert.Equal(t, 10*time.Second, cfg.HTTPTimeout)

	assert.Equal(t, "UTC", cfg.Timezone)
	loc, err := cfg.Location()
	require.NoError(t, err)
	assert.Equal(t, time.UTC, loc)
}

func TestLoad_Env(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("DATA_PROVIDER", "Postgres")
	t.Setenv("DB_DSN", "postgres://localhost/pawtastic")
	t.Setenv("HTTP_TIMEOUT", "3s")

	cfg, err := Load(New())
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, DataPostgres, cfg.DataProvider)
	assert.Equal(t, "postgres://localhost/pawtastic", cfg.DBDSN)
	assert.Equal(t, 3*time.Second, cfg.HTTPTimeout)
}

func TestLoad_Timezone(t *testing.T) {
	t.Setenv("TIMEZONE", "America/Argentina/Buenos_Aires")

	cfg, err := Load(New())
	require.NoError(t, err)

	loc, err := cfg.Location()
	require.NoError(t, err)
	assert.Equal(t, "America/Argentina/Buenos_Aires", loc.String())

	at := time.Date(2026, 3, 10, 12, 0, 0, 0, loc)
	assert.Equal(t, "2026-03-10T15:00:00Z", at.UTC().Format(time.RFC3339))

	t.Setenv("TIMEZONE", "Mars/Olympus")
	_, err = Load(New())
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestLoad_File(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "pawtastic.yaml")
	require.NoError(t, os.WriteFile(path, []byte("port: \"7070\"\nlog_format: json\n"), 0o600))

	v := New()
	v.SetConfigFile(path)

	cfg, err := Load(v)
	require.NoError(t, err)
	assert.Equal(t, "7070", cfg.Port)
	assert.Equal(t, "json", cfg.LogFormat)
}

func TestValidate(t *testing.T) {
	base := Config{Port: "8080", AuthProvider: AuthMemory, DataProvider: DataMemory}
	require.NoError(t, base.Validate())

	cases := map[string]func(c *Config){
		"postgres without dsn":  func(c *Config) { c.DataProvider = DataPostgres },
		"gotrue without url":    func(c *Config) { c.AuthProvider = AuthGoTrue },
		"unknown auth":          func(c *Config) { c.AuthProvider = "firebase" },
		"unknown data":          func(c *Config) { c.DataProvider = "mongo" },
		"empty port":            func(c *Config) { c.Port = "" },
		"supabase with memory":  func(c *Config) { c.DataProvider = DataSupabase; c.SupabaseURL = "http://x"; c.SupabaseAnonKey = "k" },
		"negative http timeout": func(c *Config) { c.HTTPTimeout = -time.Second },
		"unknown timezone":      func(c *Config) { c.Timezone = "Nowhere/City" },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			c := base
			mutate(&c)
			assert.ErrorIs(t, c.Validate(), ErrInvalidConfig)
		})
	}

	ok := base
	ok.AuthProvider = AuthGoTrue
	ok.DataProvider = DataSupabase
	ok.SupabaseURL = "http://localhost:54321"
	ok.SupabaseAnonKey = "anon"
	assert.NoError(t, ok.Validate())
}
