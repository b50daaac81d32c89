package server

import (
	"fmt"
	"os"
	"time"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
)

// Config is the complete server configuration
type Config struct {
	Server ServerSettings `hcl:"server,block"`
	Tables []TableConfig  `hcl:"table,block"`
}

// ServerSettings contains server-level configuration. TurnTimeoutSeconds
// distinguishes unset (default 30) from an explicit 0, which disables the
// turn clock.
type ServerSettings struct {
	Address            string `hcl:"address,optional"`
	Port               int    `hcl:"port,optional"`
	LogLevel           string `hcl:"log_level,optional"`
	TurnTimeoutSeconds *int   `hcl:"turn_timeout_seconds,optional"`
	HandDelaySeconds   int    `hcl:"hand_delay_seconds,optional"`
}

// TableConfig defines one poker table
type TableConfig struct {
	Name       string `hcl:"name,label"`
	MaxPlayers int    `hcl:"max_players,optional"`
	SmallBlind int    `hcl:"small_blind"`
	BigBlind   int    `hcl:"big_blind"`
	BuyIn      int    `hcl:"buy_in,optional"`
}

// defaultTurnTimeoutSeconds applies when turn_timeout_seconds is unset
const defaultTurnTimeoutSeconds = 30

// DefaultConfig returns the configuration used when no file is present
func DefaultConfig() *Config {
	return &Config{
		Server: ServerSettings{
			Address:          "localhost",
			Port:             8080,
			LogLevel:         "info",
			HandDelaySeconds: 3,
		},
		Tables: []TableConfig{
			{
				Name:       "main",
				MaxPlayers: 6,
				SmallBlind: 5,
				BigBlind:   10,
				BuyIn:      1000,
			},
		},
	}
}

// LoadConfig loads configuration from an HCL file, falling back to defaults
// when the file does not exist.
func LoadConfig(filename string) (*Config, error) {
	if _, err := os.Stat(filename); os.IsNotExist(err) {
		return DefaultConfig(), nil
	}

	parser := hclparse.NewParser()
	file, diags := parser.ParseHCLFile(filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL file: %s", diags.Error())
	}

	var config Config
	diags = gohcl.DecodeBody(file.Body, nil, &config)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode HCL: %s", diags.Error())
	}

	if config.Server.Address == "" {
		config.Server.Address = "localhost"
	}
	if config.Server.Port == 0 {
		config.Server.Port = 8080
	}
	if config.Server.LogLevel == "" {
		config.Server.LogLevel = "info"
	}
	if config.Server.HandDelaySeconds == 0 {
		config.Server.HandDelaySeconds = 3
	}

	for i := range config.Tables {
		if config.Tables[i].MaxPlayers == 0 {
			config.Tables[i].MaxPlayers = 6
		}
		if config.Tables[i].BuyIn == 0 {
			config.Tables[i].BuyIn = config.Tables[i].BigBlind * 100
		}
	}

	return &config, nil
}

// Validate checks the configuration for inconsistencies
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Server.Port)
	}
	if c.Server.TurnTimeoutSeconds != nil && *c.Server.TurnTimeoutSeconds < 0 {
		return fmt.Errorf("turn timeout must not be negative")
	}

	if len(c.Tables) == 0 {
		return fmt.Errorf("at least one table must be configured")
	}

	seen := make(map[string]bool)
	for _, table := range c.Tables {
		if seen[table.Name] {
			return fmt.Errorf("duplicate table name: %s", table.Name)
		}
		seen[table.Name] = true

		if table.SmallBlind <= 0 {
			return fmt.Errorf("table %s: small blind must be positive", table.Name)
		}
		if table.BigBlind <= table.SmallBlind {
			return fmt.Errorf("table %s: big blind must be greater than small blind", table.Name)
		}
		if table.MaxPlayers < 2 || table.MaxPlayers > 10 {
			return fmt.Errorf("table %s: max players must be between 2 and 10", table.Name)
		}
		if table.BuyIn < table.BigBlind {
			return fmt.Errorf("table %s: buy-in must cover at least one big blind", table.Name)
		}
	}

	return nil
}

// GetServerAddress returns the listen address
func (c *Config) GetServerAddress() string {
	return fmt.Sprintf("%s:%d", c.Server.Address, c.Server.Port)
}

// GetTurnTimeout resolves the turn clock duration: unset takes the default,
// an explicit 0 disables it.
func (c *Config) GetTurnTimeout() time.Duration {
	if c.Server.TurnTimeoutSeconds == nil {
		return defaultTurnTimeoutSeconds * time.Second
	}
	if *c.Server.TurnTimeoutSeconds == 0 {
		return -1
	}
	return time.Duration(*c.Server.TurnTimeoutSeconds) * time.Second
}

// GetHandDelay resolves the pause between hands
func (c *Config) GetHandDelay() time.Duration {
	return time.Duration(c.Server.HandDelaySeconds) * time.Second
}
