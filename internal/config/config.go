// Package config loads the fetch CLI configuration from YAML with
// environment overrides.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the CLI configuration.
type Config struct {
	Client ClientConfig `yaml:"client"`
	Net    NetConfig    `yaml:"net"`
	Log    LogConfig    `yaml:"log"`
}

// ClientConfig holds pool limits and request defaults.
type ClientConfig struct {
	MaxOutstanding  int    `yaml:"max_outstanding"`
	MaxDeferred     int    `yaml:"max_deferred"`
	DisablePooling  bool   `yaml:"disable_pooling"`
	RequestIDHeader string `yaml:"request_id_header"`
}

// NetConfig holds socket timeouts and limits.
type NetConfig struct {
	DialTimeout      time.Duration `yaml:"dial_timeout"`
	ReadTimeout      time.Duration `yaml:"read_timeout"`
	WriteTimeout     time.Duration `yaml:"write_timeout"`
	MaxResponseBytes int64         `yaml:"max_response_bytes"`
}

// LogConfig selects the log level and encoding.
type LogConfig struct {
	Level string `yaml:"level"`
	JSON  bool   `yaml:"json"`
}

// Load reads path. A missing file yields the defaults; a file that does
// not parse is an error. Environment overrides apply in both cases.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("config: parse %s: %w", path, err)
			}
		case !os.IsNotExist(err):
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
	}
	if err := cfg.applyEnvOverrides(); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	return cfg, nil
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() *Config {
	return &Config{
		Net: NetConfig{
			DialTimeout: 5 * time.Second,
			ReadTimeout: 30 * time.Second,
		},
		Log: LogConfig{Level: "info"},
	}
}

func (c *Config) applyEnvOverrides() error {
	var err error
	if c.Client.MaxOutstanding, err = getEnvInt("FETCH_MAX_OUTSTANDING", c.Client.MaxOutstanding); err != nil {
		return err
	}
	if c.Client.MaxDeferred, err = getEnvInt("FETCH_MAX_DEFERRED", c.Client.MaxDeferred); err != nil {
		return err
	}
	if v := os.Getenv("FETCH_DISABLE_POOLING"); v != "" {
		b, perr := strconv.ParseBool(v)
		if perr != nil {
			return fmt.Errorf("config: FETCH_DISABLE_POOLING: %w", perr)
		}
		c.Client.DisablePooling = b
	}
	c.Client.RequestIDHeader = getEnv("FETCH_REQUEST_ID_HEADER", c.Client.RequestIDHeader)
	if c.Net.DialTimeout, err = getEnvDuration("FETCH_DIAL_TIMEOUT", c.Net.DialTimeout); err != nil {
		return err
	}
	if c.Net.ReadTimeout, err = getEnvDuration("FETCH_READ_TIMEOUT", c.Net.ReadTimeout); err != nil {
		return err
	}
	if c.Net.WriteTimeout, err = getEnvDuration("FETCH_WRITE_TIMEOUT", c.Net.WriteTimeout); err != nil {
		return err
	}
	c.Log.Level = getEnv("FETCH_LOG_LEVEL", c.Log.Level)
	return nil
}

func (c *Config) applyDefaults() {
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Net.DialTimeout == 0 {
		c.Net.DialTimeout = 5 * time.Second
	}
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def, fmt.Errorf("config: %s: %w", key, err)
	}
	return n, nil
}

func getEnvDuration(key string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def, fmt.Errorf("config: %s: %w", key, err)
	}
	return d, nil
}
