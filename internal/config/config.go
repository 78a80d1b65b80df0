package config

import (
	"embed"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

//go:embed example.yaml
var exampleConfig embed.FS

// Config represents the complete rapbattle configuration
type Config struct {
	Site     Site     `yaml:"site"`
	Identity Identity `yaml:"identity"`
	Relays   Relays   `yaml:"relays"`
	Polling  Polling  `yaml:"polling"`
	Server   Server   `yaml:"server"`
	Logging  Logging  `yaml:"logging"`
}

// Site contains site metadata
type Site struct {
	Title    string `yaml:"title"`
	Operator string `yaml:"operator"`
}

// Identity contains the publishing identity. The secret key is never read
// from the config file; it comes from the RAPBATTLE_NSEC environment
// variable only. An empty key disables the write side.
type Identity struct {
	Nsec string `yaml:"-"`
}

// Relays contains relay configuration
type Relays struct {
	Seeds  []string    `yaml:"seeds"`
	Policy RelayPolicy `yaml:"policy"`
}

// RelayPolicy contains relay query policies
type RelayPolicy struct {
	QueryTimeoutMs       int `yaml:"query_timeout_ms"`
	LeaderboardTimeoutMs int `yaml:"leaderboard_timeout_ms"`
}

// Polling contains the per-view refresh intervals
type Polling struct {
	RoomsSeconds       int `yaml:"rooms_seconds"`
	RoomSeconds        int `yaml:"room_seconds"`
	VersesSeconds      int `yaml:"verses_seconds"`
	LeaderboardSeconds int `yaml:"leaderboard_seconds"`
}

// Server contains the JSON API server settings
type Server struct {
	Enabled        bool     `yaml:"enabled"`
	Bind           string   `yaml:"bind"`
	Port           int      `yaml:"port"`
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// Logging contains logging settings
type Logging struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// QueryTimeout returns the bound for a single-view query cycle.
func (p *RelayPolicy) QueryTimeout() time.Duration {
	if p.QueryTimeoutMs <= 0 {
		return 3 * time.Second
	}
	return time.Duration(p.QueryTimeoutMs) * time.Millisecond
}

// LeaderboardTimeout returns the shared bound for the leaderboard's
// concurrent queries.
func (p *RelayPolicy) LeaderboardTimeout() time.Duration {
	if p.LeaderboardTimeoutMs <= 0 {
		return 5 * time.Second
	}
	return time.Duration(p.LeaderboardTimeoutMs) * time.Millisecond
}

// RoomsInterval returns the rooms-list refresh interval.
func (p *Polling) RoomsInterval() time.Duration {
	return time.Duration(p.RoomsSeconds) * time.Second
}

// RoomInterval returns the single-room refresh interval.
func (p *Polling) RoomInterval() time.Duration {
	return time.Duration(p.RoomSeconds) * time.Second
}

// VersesInterval returns the room-verses refresh interval.
func (p *Polling) VersesInterval() time.Duration {
	return time.Duration(p.VersesSeconds) * time.Second
}

// LeaderboardInterval returns the leaderboard refresh interval.
func (p *Polling) LeaderboardInterval() time.Duration {
	return time.Duration(p.LeaderboardSeconds) * time.Second
}

// Load reads, defaults, and validates a configuration file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	applyDefaults(&cfg)

	if err := applyEnvOverrides(&cfg); err != nil {
		return nil, fmt.Errorf("failed to apply environment overrides: %w", err)
	}

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// applyDefaults fills in missing configuration fields with sensible defaults
func applyDefaults(cfg *Config) {
	defaults := Default()

	if cfg.Site.Title == "" {
		cfg.Site.Title = defaults.Site.Title
	}
	if len(cfg.Relays.Seeds) == 0 {
		cfg.Relays.Seeds = defaults.Relays.Seeds
	}
	if cfg.Relays.Policy.QueryTimeoutMs == 0 {
		cfg.Relays.Policy.QueryTimeoutMs = defaults.Relays.Policy.QueryTimeoutMs
	}
	if cfg.Relays.Policy.LeaderboardTimeoutMs == 0 {
		cfg.Relays.Policy.LeaderboardTimeoutMs = defaults.Relays.Policy.LeaderboardTimeoutMs
	}
	if cfg.Polling.RoomsSeconds == 0 {
		cfg.Polling.RoomsSeconds = defaults.Polling.RoomsSeconds
	}
	if cfg.Polling.RoomSeconds == 0 {
		cfg.Polling.RoomSeconds = defaults.Polling.RoomSeconds
	}
	if cfg.Polling.VersesSeconds == 0 {
		cfg.Polling.VersesSeconds = defaults.Polling.VersesSeconds
	}
	if cfg.Polling.LeaderboardSeconds == 0 {
		cfg.Polling.LeaderboardSeconds = defaults.Polling.LeaderboardSeconds
	}
	if cfg.Server.Bind == "" {
		cfg.Server.Bind = defaults.Server.Bind
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = defaults.Server.Port
	}
	if len(cfg.Server.AllowedOrigins) == 0 {
		cfg.Server.AllowedOrigins = defaults.Server.AllowedOrigins
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = defaults.Logging.Level
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = defaults.Logging.Format
	}
}

// applyEnvOverrides applies environment variable overrides to config
func applyEnvOverrides(cfg *Config) error {
	if nsec := os.Getenv("RAPBATTLE_NSEC"); nsec != "" {
		cfg.Identity.Nsec = nsec
	}
	return nil
}

// GetExampleConfig returns the embedded example configuration
func GetExampleConfig() ([]byte, error) {
	return exampleConfig.ReadFile("example.yaml")
}

// Default returns a configuration with sensible defaults
func Default() *Config {
	return &Config{
		Site: Site{
			Title:    "Nostr Rap Battle",
			Operator: "Anonymous",
		},
		Relays: Relays{
			Seeds: []string{
				"wss://relay.damus.io",
				"wss://relay.primal.net",
				"wss://nos.lol",
			},
			Policy: RelayPolicy{
				QueryTimeoutMs:       3000,
				LeaderboardTimeoutMs: 5000,
			},
		},
		Polling: Polling{
			RoomsSeconds:       10,
			RoomSeconds:        5,
			VersesSeconds:      3,
			LeaderboardSeconds: 30,
		},
		Server: Server{
			Enabled:        true,
			Bind:           "127.0.0.1",
			Port:           8080,
			AllowedOrigins: []string{"*"},
		},
		Logging: Logging{
			Level:  "info",
			Format: "text",
		},
	}
}

var validLogLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

// Validate checks a configuration for inconsistencies
func Validate(cfg *Config) error {
	if len(cfg.Relays.Seeds) == 0 {
		return fmt.Errorf("at least one relay seed is required")
	}
	for _, seed := range cfg.Relays.Seeds {
		if !strings.HasPrefix(seed, "wss://") && !strings.HasPrefix(seed, "ws://") {
			return fmt.Errorf("relay seed must start with ws:// or wss://: %s", seed)
		}
	}

	if cfg.Identity.Nsec != "" && !strings.HasPrefix(cfg.Identity.Nsec, "nsec1") {
		return fmt.Errorf("RAPBATTLE_NSEC must be a bech32 nsec1 key")
	}

	if cfg.Server.Enabled && (cfg.Server.Port < 1 || cfg.Server.Port > 65535) {
		return fmt.Errorf("server port must be between 1 and 65535")
	}

	if cfg.Polling.RoomsSeconds < 1 || cfg.Polling.RoomSeconds < 1 ||
		cfg.Polling.VersesSeconds < 1 || cfg.Polling.LeaderboardSeconds < 1 {
		return fmt.Errorf("polling intervals must be at least 1 second")
	}

	if !validLogLevels[cfg.Logging.Level] {
		return fmt.Errorf("invalid log level: %s (must be one of: debug, info, warn, error)", cfg.Logging.Level)
	}

	return nil
}
