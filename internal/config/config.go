package config

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

//go:embed default.yaml
var DefaultConfigYAML []byte

type Config struct {
	Source  Source  `yaml:"source"`
	Fetch   Fetch   `yaml:"fetch"`
	Sync    Sync    `yaml:"sync"`
	Output  Output  `yaml:"output"`
	Server  Server  `yaml:"server"`
	Logging Logging `yaml:"logging"`
}

// Source points at the upstream alert site.
type Source struct {
	ListingURL string `yaml:"listing_url"`
	BaseURL    string `yaml:"base_url"`
}

type Fetch struct {
	TimeoutSeconds int `yaml:"timeout_seconds"`
}

type Sync struct {
	// Schedule is a cron expression (robfig/cron v3 syntax, descriptors
	// like "@hourly" allowed) driving periodic sync passes.
	Schedule string `yaml:"schedule"`
}

type Output struct {
	DataDir string `yaml:"data_dir"`
}

type Server struct {
	Port int `yaml:"port"`
}

type Logging struct {
	Level string `yaml:"level"`
}

// ConfigDir returns the XDG config directory for edccmon.
func ConfigDir() string {
	return filepath.Join(homeDir(), ".config", "edccmon")
}

// DataDir returns the XDG data directory for edccmon.
func DataDir() string {
	return filepath.Join(homeDir(), ".local", "share", "edccmon")
}

// ResolveConfigPath finds the config file following priority:
// explicit path > ~/.config/edccmon/config.yaml > ./config.yaml
func ResolveConfigPath(explicit string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return "", fmt.Errorf("config file not found: %s", explicit)
		}
		return explicit, nil
	}

	xdgConfig := filepath.Join(ConfigDir(), "config.yaml")
	if _, err := os.Stat(xdgConfig); err == nil {
		return xdgConfig, nil
	}

	cwdConfig := "config.yaml"
	if _, err := os.Stat(cwdConfig); err == nil {
		return cwdConfig, nil
	}

	return "", fmt.Errorf(
		"no config file found; searched:\n  %s\n  ./config.yaml\n\nRun 'edccmon init' to create a default config",
		xdgConfig,
	)
}

// Load reads and parses a config YAML file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	return parse(data)
}

// parse parses YAML bytes into a Config, applying defaults.
func parse(data []byte) (*Config, error) {
	cfg := &Config{
		Source: Source{
			ListingURL: "https://equinediseasecc.org/alerts",
			BaseURL:    "https://equinediseasecc.org",
		},
		Fetch:   Fetch{TimeoutSeconds: 15},
		Sync:    Sync{Schedule: "@hourly"},
		Server:  Server{Port: 8000},
		Logging: Logging{Level: "INFO"},
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	return cfg, nil
}

// GetDataDir returns the effective data directory from config or XDG default.
func (c *Config) GetDataDir() string {
	if c.Output.DataDir != "" {
		return c.Output.DataDir
	}
	return DataDir()
}

// FetchTimeout returns the configured HTTP timeout for page fetches.
func (c *Config) FetchTimeout() time.Duration {
	if c.Fetch.TimeoutSeconds <= 0 {
		return 15 * time.Second
	}
	return time.Duration(c.Fetch.TimeoutSeconds) * time.Second
}

func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}
