package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	var c Config
	c.LoadDefaults()

	assert.Equal(t, "http://127.0.0.1:8080", c.APIBaseURL)
	assert.Equal(t, 1500*time.Millisecond, c.ReconnectDelay)
	assert.Equal(t, 3*time.Second, c.ReadyTimeout)
	assert.Equal(t, "guests.db", c.LocalDBPath)
	assert.Empty(t, c.MetricsAddr)
}

func TestLoadConfig_UsesDefaultsBeforeParsing(t *testing.T) {
	cfg := LoadConfig()

	require.NotNil(t, cfg, "LoadConfig must not return nil")
	assert.Equal(t, "http://127.0.0.1:8080", cfg.APIBaseURL)
	assert.Equal(t, 1500*time.Millisecond, cfg.ReconnectDelay)
	assert.Equal(t, 3*time.Second, cfg.ReadyTimeout)
}
