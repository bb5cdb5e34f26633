package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	QuietWindowMs         int    `yaml:"quiet_window_ms"`
	MaxDelayMs            int    `yaml:"max_delay_ms"`
	RescanIntervalSeconds int    `yaml:"rescan_interval_seconds"`
	SourceExtension       string `yaml:"source_extension"`
	OutputPath            string `yaml:"output_path"`
	HistoryDBPath         string `yaml:"history_db_path"`
	LogLevel              string `yaml:"log_level"`
}

func DefaultConfig() *Config {
	homeDir, _ := os.UserHomeDir()
	return &Config{
		QuietWindowMs:         200,
		MaxDelayMs:            2000,
		RescanIntervalSeconds: 0,
		SourceExtension:       ".nox",
		OutputPath:            "output.ts",
		HistoryDBPath:         filepath.Join(homeDir, ".config", "noxical", "history.db"),
		LogLevel:              "info",
	}
}

// QuietWindow is the debounce quiet period.
func (c *Config) QuietWindow() time.Duration {
	return time.Duration(c.QuietWindowMs) * time.Millisecond
}

// MaxDelay caps how long a continuous burst of changes can hold a rebuild
// off. Zero disables the cap.
func (c *Config) MaxDelay() time.Duration {
	return time.Duration(c.MaxDelayMs) * time.Millisecond
}

// RescanInterval is the period of the full-rescan fallback. Zero disables it.
func (c *Config) RescanInterval() time.Duration {
	return time.Duration(c.RescanIntervalSeconds) * time.Second
}

func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return cfg, nil // Return defaults if can't find home
		}
		path = filepath.Join(homeDir, ".config", "noxical", "config.yaml")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil // Use defaults if config doesn't exist
		}
		return nil, fmt.Errorf("reading config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	// Expand paths
	cfg.OutputPath = expandPath(cfg.OutputPath)
	cfg.HistoryDBPath = expandPath(cfg.HistoryDBPath)

	return cfg, nil
}

func expandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(homeDir, path[2:])
	}
	return path
}

// EnsureDirectories creates the directory holding the history database.
func (c *Config) EnsureDirectories() error {
	historyDir := filepath.Dir(c.HistoryDBPath)
	if err := os.MkdirAll(historyDir, 0o755); err != nil {
		return fmt.Errorf("creating history directory: %w", err)
	}
	return nil
}

// ConfigPath returns the default config file path
func ConfigPath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(homeDir, ".config", "noxical", "config.yaml")
}

// Save writes the config to the specified path
func (c *Config) Save(path string) error {
	if path == "" {
		path = ConfigPath()
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}

	return nil
}

// Get returns a config value by key name
func (c *Config) Get(key string) (string, error) {
	switch key {
	case "quiet_window_ms":
		return fmt.Sprintf("%d", c.QuietWindowMs), nil
	case "max_delay_ms":
		return fmt.Sprintf("%d", c.MaxDelayMs), nil
	case "rescan_interval_seconds":
		return fmt.Sprintf("%d", c.RescanIntervalSeconds), nil
	case "source_extension":
		return c.SourceExtension, nil
	case "output_path":
		return c.OutputPath, nil
	case "history_db_path":
		return c.HistoryDBPath, nil
	case "log_level":
		return c.LogLevel, nil
	default:
		return "", fmt.Errorf("unknown config key: %s", key)
	}
}

// Set sets a config value by key name
func (c *Config) Set(key, value string) error {
	switch key {
	case "quiet_window_ms":
		var v int
		if _, err := fmt.Sscanf(value, "%d", &v); err != nil {
			return fmt.Errorf("invalid value for quiet_window_ms: %w", err)
		}
		c.QuietWindowMs = v
	case "max_delay_ms":
		var v int
		if _, err := fmt.Sscanf(value, "%d", &v); err != nil {
			return fmt.Errorf("invalid value for max_delay_ms: %w", err)
		}
		c.MaxDelayMs = v
	case "rescan_interval_seconds":
		var v int
		if _, err := fmt.Sscanf(value, "%d", &v); err != nil {
			return fmt.Errorf("invalid value for rescan_interval_seconds: %w", err)
		}
		c.RescanIntervalSeconds = v
	case "source_extension":
		if !strings.HasPrefix(value, ".") {
			value = "." + value
		}
		c.SourceExtension = value
	case "output_path":
		c.OutputPath = expandPath(value)
	case "history_db_path":
		c.HistoryDBPath = expandPath(value)
	case "log_level":
		c.LogLevel = value
	default:
		return fmt.Errorf("unknown config key: %s", key)
	}
	return nil
}
