// Package config loads client settings from an optional YAML file and the
// environment. Environment variables win over the file, the file wins over
// the defaults.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/devnotes/devnotes.go/pkg/constants"
)

// Environment variables read by FromEnv.
const (
	EnvServer            = "DEVNOTES_SERVER"
	EnvLiveURL           = "DEVNOTES_LIVE_URL"
	EnvDataDir           = "DEVNOTES_DATA_DIR"
	EnvPollInterval      = "DEVNOTES_POLL_INTERVAL"
	EnvRequestTimeout    = "DEVNOTES_REQUEST_TIMEOUT"
	EnvRequestsPerSecond = "DEVNOTES_REQUESTS_PER_SECOND"
	EnvValidateBody      = "DEVNOTES_VALIDATE_BODY"
	EnvLogLevel          = "DEVNOTES_LOG_LEVEL"
	EnvLogPath           = "DEVNOTES_LOG_PATH"
)

// ValidateBody selects how /validatetoken receives the token.
type ValidateBody string

const (
	ValidateBodyRaw  ValidateBody = "raw"
	ValidateBodyJSON ValidateBody = "json"
)

type Config struct {
	ServerAddress string `yaml:"server"`
	// LiveURL is the optional WebSocket endpoint for change hints.
	LiveURL           string        `yaml:"live_url"`
	DataDir           string        `yaml:"data_dir"`
	PollInterval      time.Duration `yaml:"poll_interval"`
	RequestTimeout    time.Duration `yaml:"request_timeout"`
	RequestsPerSecond float64       `yaml:"requests_per_second"`
	ValidateBody      ValidateBody  `yaml:"validate_body"`
	LogLevel          string        `yaml:"log_level"`
	LogPath           string        `yaml:"log_path"`
}

// Default returns the built-in settings. DataDir falls back to the working
// directory when the user config dir is unknown.
func Default() Config {
	dataDir, err := os.UserConfigDir()
	if err != nil {
		dataDir = "."
	}
	return Config{
		ServerAddress:  constants.DefaultServerAddress,
		DataDir:        dataDir,
		PollInterval:   constants.DefaultPollInterval,
		RequestTimeout: constants.DefaultHTTPTimeout,
		ValidateBody:   ValidateBodyRaw,
		LogLevel:       "info",
	}
}

// Load reads path over the defaults, then applies the environment. An
// empty path or a missing file only applies the environment.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
		case err != nil:
			return Config{}, fmt.Errorf("read config: %w", err)
		default:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return Config{}, fmt.Errorf("parse config %s: %w", path, err)
			}
		}
	}

	if err := cfg.FromEnv(); err != nil {
		return Config{}, err
	}
	return cfg, cfg.Validate()
}

// FromEnv overrides fields with any DEVNOTES_* variables that are set.
func (c *Config) FromEnv() error {
	c.ServerAddress = GetEnvOrDefault(EnvServer, c.ServerAddress)
	c.LiveURL = GetEnvOrDefault(EnvLiveURL, c.LiveURL)
	c.DataDir = GetEnvOrDefault(EnvDataDir, c.DataDir)
	c.ValidateBody = ValidateBody(GetEnvOrDefault(EnvValidateBody, string(c.ValidateBody)))
	c.LogLevel = GetEnvOrDefault(EnvLogLevel, c.LogLevel)
	c.LogPath = GetEnvOrDefault(EnvLogPath, c.LogPath)

	var err error
	if c.PollInterval, err = durationEnv(EnvPollInterval, c.PollInterval); err != nil {
		return err
	}
	if c.RequestTimeout, err = durationEnv(EnvRequestTimeout, c.RequestTimeout); err != nil {
		return err
	}
	if v := os.Getenv(EnvRequestsPerSecond); v != "" {
		rps, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvRequestsPerSecond, err)
		}
		c.RequestsPerSecond = rps
	}
	return nil
}

// Validate rejects settings the client cannot run with.
func (c Config) Validate() error {
	if strings.TrimSpace(c.ServerAddress) == "" {
		return constants.ErrNoBaseURL
	}
	if err := checkScheme("server", c.ServerAddress, constants.HTTPScheme, constants.HTTPSecureScheme); err != nil {
		return err
	}
	if c.LiveURL != "" {
		if err := checkScheme("live_url", c.LiveURL, constants.WebsocketScheme, constants.WebsocketSecureScheme); err != nil {
			return err
		}
	}
	if c.PollInterval <= 0 {
		return fmt.Errorf("poll interval must be positive, got %s", c.PollInterval)
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("request timeout must be positive, got %s", c.RequestTimeout)
	}
	if c.RequestsPerSecond < 0 {
		return fmt.Errorf("requests per second must not be negative, got %v", c.RequestsPerSecond)
	}
	switch c.ValidateBody {
	case ValidateBodyRaw, ValidateBodyJSON:
	default:
		return fmt.Errorf("validate_body must be %q or %q, got %q", ValidateBodyRaw, ValidateBodyJSON, c.ValidateBody)
	}
	return nil
}

func checkScheme(name, raw string, schemes ...string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	for _, scheme := range schemes {
		if strings.EqualFold(u.Scheme, scheme) && u.Host != "" {
			return nil
		}
	}
	return fmt.Errorf("%s must be a %s URL with a host, got %q", name, strings.Join(schemes, " or "), raw)
}

func GetEnvOrDefault(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	return value
}

func durationEnv(key string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return d, nil
}
