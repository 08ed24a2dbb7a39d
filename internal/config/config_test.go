package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("MODEL_PROVIDER", "")
	t.Setenv("SESSION_TTL", "")
	t.Setenv("WORKER_CONCURRENCY", "")
	t.Setenv("FETCH_ALLOW_PRIVATE", "")

	cfg := Load()

	assert.Equal(t, "3000", cfg.Server.Port)
	assert.Equal(t, "gemini", cfg.Model.Provider)
	assert.Equal(t, time.Hour, cfg.Session.TTL)
	assert.Equal(t, 3, cfg.Worker.Concurrency)
	assert.Equal(t, int64(10485760), cfg.Storage.MaxFileSize)
	assert.False(t, cfg.Session.Persist)
	assert.False(t, cfg.Fetch.AllowPrivate)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("MODEL_PROVIDER", "fake")
	t.Setenv("FETCH_TIMEOUT", "3s")
	t.Setenv("SESSION_PERSIST", "true")
	t.Setenv("GEMINI_TEMPERATURE", "0.9")
	t.Setenv("FETCH_MAX_CHARS", "not-a-number")
	t.Setenv("FETCH_ALLOW_PRIVATE", "true")

	cfg := Load()

	assert.Equal(t, "fake", cfg.Model.Provider)
	assert.Equal(t, 3*time.Second, cfg.Fetch.Timeout)
	assert.True(t, cfg.Session.Persist)
	assert.InDelta(t, 0.9, cfg.Gemini.Temperature, 0.0001)
	assert.Equal(t, 20000, cfg.Fetch.MaxChars)
	assert.True(t, cfg.Fetch.AllowPrivate)
}

func TestValidate(t *testing.T) {
	t.Setenv("MODEL_PROVIDER", "gemini")
	t.Setenv("GEMINI_API_KEY", "")
	cfg := Load()
	require.Error(t, cfg.Validate())

	cfg.Model.Provider = "fake"
	require.NoError(t, cfg.Validate())

	cfg.Model.Provider = "openai"
	assert.Error(t, cfg.Validate())

	cfg.Model.Provider = "fake"
	cfg.Worker.Concurrency = 0
	assert.Error(t, cfg.Validate())
}

func TestGetDatabaseDSN(t *testing.T) {
	cfg := &Config{Database: DatabaseConfig{Host: "db", Port: "5433", User: "u", Password: "p", DBName: "n"}}
	assert.Equal(t, "host=db port=5433 user=u password=p dbname=n sslmode=disable", cfg.GetDatabaseDSN())
}
