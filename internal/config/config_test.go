package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, 10*time.Second, cfg.HTTPTimeout)
	assert.Equal(t, 8, cfg.EnrichConcurrency)
	assert.Empty(t, cfg.CatalogDataDir)
}

func TestLoadOverridesAndTrims(t *testing.T) {
	t.Setenv("GUNDAM_API_URL", "https://api.example.com/")
	t.Setenv("GUNDAM_PUBLIC_ORIGIN", "https://gundam.example.com/")
	t.Setenv("GUNDAM_HTTP_TIMEOUT", "3s")
	t.Setenv("GUNDAM_LOG_JSON", "true")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "https://api.example.com", cfg.APIURL)
	assert.Equal(t, "https://gundam.example.com", cfg.PublicOrigin)
	assert.Equal(t, 3*time.Second, cfg.HTTPTimeout)
	assert.True(t, cfg.LogJSON)
}

func TestLoadRejectsZeroConcurrency(t *testing.T) {
	t.Setenv("GUNDAM_ENRICH_CONCURRENCY", "0")

	_, err := Load()
	assert.Error(t, err)
}
