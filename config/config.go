package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the global controller configuration
type Config struct {
	// General configuration
	General struct {
		// ControllerID is this controller's unique identifier
		ControllerID string `yaml:"controllerId"`

		// DataDir is the data storage directory
		DataDir string `yaml:"dataDir"`

		// LogLevel is the logging level
		LogLevel string `yaml:"logLevel"`
	} `yaml:"general"`

	// HTTP server configuration
	HTTP struct {
		// Address to bind the HTTP server
		Address string `yaml:"address"`

		// Port to bind the HTTP server
		Port int `yaml:"port"`

		// TLS enables TLS
		TLS bool `yaml:"tls"`

		// CertFile is the TLS certificate path
		CertFile string `yaml:"certFile"`

		// KeyFile is the TLS private key path
		KeyFile string `yaml:"keyFile"`
	} `yaml:"http"`

	// Session table configuration
	Session struct {
		// MaxSessions is the session table capacity
		MaxSessions int `yaml:"maxSessions"`

		// TimeoutSeconds is the idle timeout before a session expires
		TimeoutSeconds int `yaml:"timeoutSeconds"`
	} `yaml:"session"`

	// Pump timer configuration
	Pump struct {
		// DefaultDurationSeconds is used when a start request carries no duration
		DefaultDurationSeconds int64 `yaml:"defaultDurationSeconds"`

		// MaxDurationSeconds is the failsafe ceiling on a single run
		MaxDurationSeconds int64 `yaml:"maxDurationSeconds"`

		// InputInMinutes interprets start durations as minutes instead of seconds
		InputInMinutes bool `yaml:"inputInMinutes"`

		// TickInterval is the cadence of the expiry check
		TickInterval time.Duration `yaml:"tickInterval"`

		// Relay output configuration
		Relay struct {
			// Driver selects the relay backend: "gpio" or "memory"
			Driver string `yaml:"driver"`

			// Pin is the GPIO line number
			Pin int `yaml:"pin"`

			// ActiveHigh inverts the line polarity when false
			ActiveHigh bool `yaml:"activeHigh"`
		} `yaml:"relay"`
	} `yaml:"pump"`

	// Storage configuration
	Storage struct {
		// UsersFile is the credential record file
		UsersFile string `yaml:"usersFile"`

		// StateFile is the pump state file used for power failure recovery
		StateFile string `yaml:"stateFile"`

		// WatchUsersFile reloads credentials when the users file changes on disk
		WatchUsersFile bool `yaml:"watchUsersFile"`
	} `yaml:"storage"`

	Logging struct {
		Level       string `yaml:"level"` // "ERROR", "WARN", "INFO", "DEBUG"
		ChannelSize int    `yaml:"channelSize"`
	} `yaml:"logging"`
}

// DefaultConfig returns a default configuration
func DefaultConfig() *Config {
	c := &Config{}

	c.General.ControllerID = "pumphouse1"
	c.General.DataDir = "./data"
	c.General.LogLevel = "info"

	c.HTTP.Address = "0.0.0.0"
	c.HTTP.Port = 8080
	c.HTTP.TLS = false
	c.HTTP.CertFile = ""
	c.HTTP.KeyFile = ""

	c.Session.MaxSessions = 10
	c.Session.TimeoutSeconds = 180

	c.Pump.DefaultDurationSeconds = 1200 // 20 minutes
	c.Pump.MaxDurationSeconds = 1800     // 30 minutes failsafe
	c.Pump.InputInMinutes = true
	c.Pump.TickInterval = time.Second
	c.Pump.Relay.Driver = "memory"
	c.Pump.Relay.Pin = 5
	c.Pump.Relay.ActiveHigh = true

	c.Storage.UsersFile = "users.json"
	c.Storage.StateFile = "state.json"
	c.Storage.WatchUsersFile = true

	c.Logging.Level = "INFO"
	c.Logging.ChannelSize = 1000

	return c
}

// LoadConfig loads the configuration from a file
func LoadConfig(path string) (*Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("config file not found: %s", path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// file values override the defaults
	config := DefaultConfig()

	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	// Complete relative paths
	if !filepath.IsAbs(config.General.DataDir) {
		dir, err := filepath.Abs(filepath.Dir(path))
		if err != nil {
			return nil, fmt.Errorf("failed to get absolute path: %w", err)
		}
		config.General.DataDir = filepath.Join(dir, config.General.DataDir)
	}

	if !filepath.IsAbs(config.Storage.UsersFile) {
		config.Storage.UsersFile = filepath.Join(config.General.DataDir, config.Storage.UsersFile)
	}

	if !filepath.IsAbs(config.Storage.StateFile) {
		config.Storage.StateFile = filepath.Join(config.General.DataDir, config.Storage.StateFile)
	}

	if err := validateConfig(config); err != nil {
		return nil, err
	}

	return config, nil
}

// SaveConfig saves the configuration to a file
func SaveConfig(config *Config, path string) error {
	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// validateConfig validates the configuration
func validateConfig(config *Config) error {
	logLevel := strings.ToLower(config.General.LogLevel)
	if logLevel != "debug" && logLevel != "info" && logLevel != "warn" && logLevel != "error" {
		return fmt.Errorf("invalid log level: %s", config.General.LogLevel)
	}

	if config.HTTP.Port < 1 || config.HTTP.Port > 65535 {
		return fmt.Errorf("invalid HTTP port: %d", config.HTTP.Port)
	}

	if config.Session.MaxSessions < 1 {
		return fmt.Errorf("invalid session table capacity: %d", config.Session.MaxSessions)
	}

	if config.Session.TimeoutSeconds < 1 {
		return fmt.Errorf("invalid session timeout: %d", config.Session.TimeoutSeconds)
	}

	if config.Pump.DefaultDurationSeconds < 1 {
		return fmt.Errorf("invalid default pump duration: %d", config.Pump.DefaultDurationSeconds)
	}

	if config.Pump.MaxDurationSeconds < config.Pump.DefaultDurationSeconds {
		return fmt.Errorf("max pump duration %d is below the default %d",
			config.Pump.MaxDurationSeconds, config.Pump.DefaultDurationSeconds)
	}

	if config.Pump.TickInterval < 100*time.Millisecond {
		return fmt.Errorf("tick interval too small: %s", config.Pump.TickInterval)
	}

	driver := strings.ToLower(config.Pump.Relay.Driver)
	if driver != "gpio" && driver != "memory" {
		return fmt.Errorf("invalid relay driver: %s", config.Pump.Relay.Driver)
	}

	if config.HTTP.TLS {
		if config.HTTP.CertFile == "" || config.HTTP.KeyFile == "" {
			return fmt.Errorf("TLS enabled but certificate or key file not specified")
		}
		if _, err := os.Stat(config.HTTP.CertFile); os.IsNotExist(err) {
			return fmt.Errorf("certificate file not found: %s", config.HTTP.CertFile)
		}
		if _, err := os.Stat(config.HTTP.KeyFile); os.IsNotExist(err) {
			return fmt.Errorf("key file not found: %s", config.HTTP.KeyFile)
		}
	}

	return nil
}
