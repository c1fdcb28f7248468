// Package config loads the crucible server configuration from YAML with
// CRUCIBLE_* environment overrides.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/lawnchairsociety/crucible/internal/antispam"
	"github.com/lawnchairsociety/crucible/internal/database"
	"gopkg.in/yaml.v3"
)

// CrucibleConfig holds server-wide configuration settings.
type CrucibleConfig struct {
	Listen      ListenConfig      `yaml:"listen"`
	Data        DataConfig        `yaml:"data"`
	RNG         RNGConfig         `yaml:"rng"`
	Journal     JournalConfig     `yaml:"journal"`
	WebSocket   WebSocketConfig   `yaml:"websocket"`
	Connections ConnectionsConfig `yaml:"connections"`
	Session     SessionConfig     `yaml:"session"`
	Antispam    antispam.Config   `yaml:"antispam"`
}

// ListenConfig holds the listener addresses. An empty address disables
// that listener.
type ListenConfig struct {
	Telnet    string `yaml:"telnet" env:"CRUCIBLE_TELNET_ADDR"`
	WebSocket string `yaml:"websocket" env:"CRUCIBLE_WS_ADDR"`
}

// DataConfig points at the modifier pool and item base files.
type DataConfig struct {
	ModsFile  string `yaml:"mods_file" env:"CRUCIBLE_MODS_FILE"`
	BasesFile string `yaml:"bases_file" env:"CRUCIBLE_BASES_FILE"`

	// Watch reloads both files when they change. Open benches keep the
	// data they started with.
	Watch bool `yaml:"watch" env:"CRUCIBLE_DATA_WATCH"`
}

// RNGConfig seeds the random source. Zero seeds from the clock.
type RNGConfig struct {
	Seed int64 `yaml:"seed" env:"CRUCIBLE_SEED"`
}

// JournalConfig controls transaction persistence.
type JournalConfig struct {
	Enabled bool `yaml:"enabled" env:"CRUCIBLE_JOURNAL_ENABLED"`

	Database database.Config `yaml:"database"`
}

// ConnectionsConfig holds connection limit settings.
type ConnectionsConfig struct {
	// MaxPerIP is the maximum concurrent connections from one IP. 0 is unlimited.
	MaxPerIP int `yaml:"max_per_ip"`

	// MaxTotal is the maximum concurrent connections. 0 is unlimited.
	MaxTotal int `yaml:"max_total"`
}

// SessionConfig holds per-connection crafting session settings.
type SessionConfig struct {
	// UndoDepth bounds the local undo stack.
	UndoDepth int `yaml:"undo_depth"`

	// IdleTimeout closes connections with no input for this long. 0 disables it.
	IdleTimeout time.Duration `yaml:"idle_timeout" env:"CRUCIBLE_IDLE_TIMEOUT"`
}

// WebSocketConfig holds WebSocket-specific settings.
type WebSocketConfig struct {
	// AllowedOrigins is a list of origins allowed to connect via WebSocket.
	// Empty list enforces same-origin policy.
	// Use "*" to allow all origins (not recommended for production).
	AllowedOrigins []string `yaml:"allowed_origins" env:"CRUCIBLE_ALLOWED_ORIGINS"`

	// MaxMessageSize is the maximum WebSocket message size in bytes.
	MaxMessageSize int64 `yaml:"max_message_size"`
}

// DefaultConfig returns a CrucibleConfig with secure defaults.
func DefaultConfig() *CrucibleConfig {
	return &CrucibleConfig{
		Listen: ListenConfig{
			Telnet:    ":4000",
			WebSocket: ":8080",
		},
		Data: DataConfig{
			ModsFile:  "data/mods.yaml",
			BasesFile: "data/bases.yaml",
		},
		Journal: JournalConfig{
			Database: database.DefaultConfig("data/crucible.db"),
		},
		WebSocket: WebSocketConfig{
			AllowedOrigins: []string{}, // Same-origin only by default
			MaxMessageSize: 4096,
		},
		Connections: ConnectionsConfig{
			MaxPerIP: 3,
			MaxTotal: 100,
		},
		Session: SessionConfig{
			UndoDepth:   50,
			IdleTimeout: 30 * time.Minute,
		},
		Antispam: antispam.DefaultConfig(),
	}
}

// LoadConfig loads configuration from a YAML file and applies environment
// overrides. A missing file yields the defaults.
func LoadConfig(path string) (*CrucibleConfig, error) {
	config := DefaultConfig()

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("failed to read config file: %w", err)
	default:
		if err := yaml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	if err := env.Parse(config); err != nil {
		return nil, fmt.Errorf("failed to apply env overrides: %w", err)
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// Validate checks settings that would otherwise fail later at startup.
func (c *CrucibleConfig) Validate() error {
	if c.Listen.Telnet == "" && c.Listen.WebSocket == "" {
		return errors.New("config: at least one listener address is required")
	}
	if c.Data.ModsFile == "" || c.Data.BasesFile == "" {
		return errors.New("config: data.mods_file and data.bases_file are required")
	}
	if c.Session.UndoDepth < 0 {
		return fmt.Errorf("config: session.undo_depth must not be negative, got %d", c.Session.UndoDepth)
	}
	if c.Journal.Enabled {
		if err := c.Journal.Database.Validate(); err != nil {
			return fmt.Errorf("config: journal: %w", err)
		}
	}
	return nil
}

// IsOriginAllowed checks if the given origin is allowed based on the config.
// Returns true if:
// - AllowedOrigins contains "*" (allow all)
// - AllowedOrigins contains the exact origin
// - AllowedOrigins is empty and origin matches the request host (same-origin)
func (c *WebSocketConfig) IsOriginAllowed(origin, requestHost string) bool {
	if len(c.AllowedOrigins) == 0 {
		return isSameOrigin(origin, requestHost)
	}

	for _, allowed := range c.AllowedOrigins {
		if allowed == "*" || allowed == origin {
			return true
		}
	}
	return false
}

// isSameOrigin checks if the origin matches the request host (same-origin policy).
func isSameOrigin(origin, requestHost string) bool {
	if origin == "" {
		return true // No origin header means same-origin (e.g., non-browser client)
	}

	// "http://localhost:3000" -> "localhost:3000"
	originHost := origin
	if idx := strings.Index(origin, "://"); idx != -1 {
		originHost = origin[idx+3:]
	}
	originHost = strings.TrimSuffix(originHost, "/")

	return originHost == requestHost
}
