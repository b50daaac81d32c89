package server

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "server.hcl")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadConfigDefaultsWhenMissing(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "missing.hcl"))
	require.NoError(t, err)
	assert.Equal(t, "localhost:8080", cfg.GetServerAddress())
	assert.Equal(t, 30*time.Second, cfg.GetTurnTimeout())
	require.Len(t, cfg.Tables, 1)
	assert.Equal(t, "main", cfg.Tables[0].Name)
	require.NoError(t, cfg.Validate())
}

func TestLoadConfigFromHCL(t *testing.T) {
	path := writeConfig(t, `
server {
  address              = "0.0.0.0"
  port                 = 9000
  log_level            = "debug"
  turn_timeout_seconds = 15
}

table "main" {
  small_blind = 5
  big_blind   = 10
}

table "high-stakes" {
  max_players = 9
  small_blind = 50
  big_blind   = 100
  buy_in      = 20000
}
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "0.0.0.0:9000", cfg.GetServerAddress())
	assert.Equal(t, "debug", cfg.Server.LogLevel)
	assert.Equal(t, 15*time.Second, cfg.GetTurnTimeout())
	assert.Equal(t, 3*time.Second, cfg.GetHandDelay())

	require.Len(t, cfg.Tables, 2)
	// Omitted fields take defaults
	assert.Equal(t, 6, cfg.Tables[0].MaxPlayers)
	assert.Equal(t, 1000, cfg.Tables[0].BuyIn)
	assert.Equal(t, 9, cfg.Tables[1].MaxPlayers)
	assert.Equal(t, 20000, cfg.Tables[1].BuyIn)
}

func TestTurnTimeoutExplicitZeroDisables(t *testing.T) {
	path := writeConfig(t, `
server {
  turn_timeout_seconds = 0
}

table "main" {
  small_blind = 5
  big_blind   = 10
}
`)
	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())
	assert.Negative(t, cfg.GetTurnTimeout())
}

func TestLoadConfigRejectsMalformedHCL(t *testing.T) {
	path := writeConfig(t, `table "broken" { small_blind = `)
	_, err := LoadConfig(path)
	assert.Error(t, err)
}

func TestValidateRejections(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"no tables", func(c *Config) { c.Tables = nil }},
		{"bad port", func(c *Config) { c.Server.Port = 70000 }},
		{"blind order", func(c *Config) { c.Tables[0].BigBlind = c.Tables[0].SmallBlind }},
		{"zero small blind", func(c *Config) { c.Tables[0].SmallBlind = 0 }},
		{"too many seats", func(c *Config) { c.Tables[0].MaxPlayers = 11 }},
		{"buy-in below big blind", func(c *Config) { c.Tables[0].BuyIn = 5 }},
		{"duplicate names", func(c *Config) { c.Tables = append(c.Tables, c.Tables[0]) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
