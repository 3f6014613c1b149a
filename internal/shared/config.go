package shared

import (
	_ "embed"
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

//go:embed config.example.toml
var exampleConf []byte

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	Server   ServerConfig   `toml:"server"`
	Database DatabaseConfig `toml:"database"`
	Spotify  SpotifyConfig  `toml:"spotify"`
	Settings SettingsConfig `toml:"settings"`
	Poller   PollerConfig   `toml:"poller"`
	Export   ExportConfig   `toml:"export"`
}

// ServerConfig contains HTTP server settings for the overlay and OAuth callback.
type ServerConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
	// LogPath receives log output when the terminal is occupied by the
	// status view. Empty means logs stay on stderr.
	LogPath string `toml:"log_path"`
}

// Addr returns the host:port listen address.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// DatabaseConfig contains database connection settings.
type DatabaseConfig struct {
	Path         string `toml:"path"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
}

// SpotifyConfig contains provider settings that are not credentials.
//
// The client id/secret live in the database (store.RegistrationStore), not here,
// so the config file stays safe to commit.
type SpotifyConfig struct {
	RedirectURI string `toml:"redirect_uri"`
}

// SettingsConfig locates the durable settings document.
type SettingsConfig struct {
	Path string `toml:"path"`
}

// PollerConfig holds the cadences for the background loops.
//
// All values are configurable defaults; zero values are replaced by Normalize.
type PollerConfig struct {
	PollIntervalSecs   int `toml:"poll_interval"`
	RefreshCheckSecs   int `toml:"refresh_check_interval"`
	IdleWaitSecs       int `toml:"idle_wait"`
	RateLimitPauseSecs int `toml:"rate_limit_pause"`
	ExpiryMarginSecs   int `toml:"expiry_margin"`
}

// ExportConfig configures the snapshot exporter collaborator.
type ExportConfig struct {
	Path string `toml:"path"`
}

// Normalize replaces unset cadences with their defaults.
func (p *PollerConfig) Normalize() {
	if p.PollIntervalSecs <= 0 {
		p.PollIntervalSecs = 2
	}
	if p.RefreshCheckSecs <= 0 {
		p.RefreshCheckSecs = 10
	}
	if p.IdleWaitSecs <= 0 {
		p.IdleWaitSecs = 1
	}
	if p.RateLimitPauseSecs <= 0 {
		p.RateLimitPauseSecs = 2
	}
	if p.ExpiryMarginSecs <= 0 {
		p.ExpiryMarginSecs = 30
	}
}

func (p PollerConfig) PollInterval() time.Duration   { return time.Duration(p.PollIntervalSecs) * time.Second }
func (p PollerConfig) RefreshCheck() time.Duration   { return time.Duration(p.RefreshCheckSecs) * time.Second }
func (p PollerConfig) IdleWait() time.Duration       { return time.Duration(p.IdleWaitSecs) * time.Second }
func (p PollerConfig) RateLimitPause() time.Duration { return time.Duration(p.RateLimitPauseSecs) * time.Second }
func (p PollerConfig) ExpiryMargin() time.Duration   { return time.Duration(p.ExpiryMarginSecs) * time.Second }

// LoadConfig reads and parses a TOML configuration file from the specified path.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrMissingConfig, path)
	}

	var config Config
	if err := toml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	config.Poller.Normalize()
	return &config, nil
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	config.Poller.Normalize()
	return &config
}

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := os.WriteFile(path, exampleConf, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
