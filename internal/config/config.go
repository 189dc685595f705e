// Package config resolves browserchat settings. Layers apply in order:
// built-in defaults, an optional YAML file, BROWSERCHAT_* environment
// variables, then command-line flags (applied by the caller).
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"browserchat/internal/apperrors"
)

const (
	DefaultEndpoint         = "ws://localhost:8001/ws"
	DefaultHandshakeTimeout = 5 * time.Second
	DefaultLogLevel         = "info"

	EnvConfig           = "BROWSERCHAT_CONFIG"
	EnvEndpoint         = "BROWSERCHAT_ENDPOINT"
	EnvLogFile          = "BROWSERCHAT_LOG_FILE"
	EnvLogLevel         = "BROWSERCHAT_LOG_LEVEL"
	EnvAltScreen        = "BROWSERCHAT_ALT_SCREEN"
	EnvHandshakeTimeout = "BROWSERCHAT_HANDSHAKE_TIMEOUT"
)

// DefaultExamples are offered on the welcome panel before the first message.
var DefaultExamples = []string{
	"Find MacBook Air 13-inch under ₹1,00,000 on Flipkart and give me top 3 with ratings",
	"Search for 'Python programming books' on Amazon and extract the first 5 results",
	"Go to GitHub trending repositories and get the top 3 trending Python projects",
	"Find the latest iPhone models on Apple website with their prices",
}

type Config struct {
	Endpoint         string
	HandshakeTimeout time.Duration
	LogFile          string
	LogLevel         string
	AltScreen        bool
	Mouse            bool
	Examples         []string
}

// fileConfig mirrors Config for YAML. Pointers distinguish "unset" from
// an explicit false.
type fileConfig struct {
	Endpoint         string        `yaml:"endpoint,omitempty"`
	HandshakeTimeout time.Duration `yaml:"handshake_timeout,omitempty"`
	LogFile          string        `yaml:"log_file,omitempty"`
	LogLevel         string        `yaml:"log_level,omitempty"`
	AltScreen        *bool         `yaml:"alt_screen,omitempty"`
	Mouse            *bool         `yaml:"mouse,omitempty"`
	Examples         []string      `yaml:"examples,omitempty"`
}

func Defaults() Config {
	return Config{
		Endpoint:         DefaultEndpoint,
		HandshakeTimeout: DefaultHandshakeTimeout,
		LogLevel:         DefaultLogLevel,
		AltScreen:        true,
		Mouse:            true,
		Examples:         append([]string(nil), DefaultExamples...),
	}
}

// Load applies defaults, then the file at path (skipped when path is empty),
// then the environment read through getenv.
func Load(path string, getenv func(string) string) (Config, error) {
	cfg := Defaults()
	if strings.TrimSpace(path) != "" {
		if err := cfg.MergeFile(path); err != nil {
			return Config{}, err
		}
	}
	cfg.ApplyEnv(getenv)
	return cfg, nil
}

// MergeFile overlays the non-empty values found in a YAML file.
func (c *Config) MergeFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return apperrors.Wrapf(apperrors.ErrInvalidInput, "config.MergeFile", "config file %q not found", path)
		}
		return apperrors.Wrapf(err, "config.MergeFile", "read %q", path)
	}
	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return apperrors.Wrapf(err, "config.MergeFile", "parse %q", path)
	}
	c.merge(fc)
	return nil
}

func (c *Config) merge(fc fileConfig) {
	if strings.TrimSpace(fc.Endpoint) != "" {
		c.Endpoint = strings.TrimSpace(fc.Endpoint)
	}
	if fc.HandshakeTimeout > 0 {
		c.HandshakeTimeout = fc.HandshakeTimeout
	}
	if fc.LogFile != "" {
		c.LogFile = fc.LogFile
	}
	if fc.LogLevel != "" {
		c.LogLevel = fc.LogLevel
	}
	if fc.AltScreen != nil {
		c.AltScreen = *fc.AltScreen
	}
	if fc.Mouse != nil {
		c.Mouse = *fc.Mouse
	}
	if len(fc.Examples) > 0 {
		c.Examples = append([]string(nil), fc.Examples...)
	}
}

// ApplyEnv overlays BROWSERCHAT_* variables. Unparseable values are ignored.
func (c *Config) ApplyEnv(getenv func(string) string) {
	if getenv == nil {
		getenv = os.Getenv
	}
	c.Endpoint = envOr(getenv, EnvEndpoint, c.Endpoint)
	c.LogFile = envOr(getenv, EnvLogFile, c.LogFile)
	c.LogLevel = envOr(getenv, EnvLogLevel, c.LogLevel)
	c.AltScreen = envOrBool(getenv, EnvAltScreen, c.AltScreen)
	c.HandshakeTimeout = envOrDuration(getenv, EnvHandshakeTimeout, c.HandshakeTimeout)
}

// Validate checks that the endpoint is an absolute ws:// or wss:// URL.
func (c Config) Validate() error {
	u, err := url.Parse(strings.TrimSpace(c.Endpoint))
	if err != nil {
		return apperrors.Wrapf(apperrors.ErrInvalidInput, "config.Validate", "endpoint %q: %v", c.Endpoint, err)
	}
	if u.Scheme != "ws" && u.Scheme != "wss" {
		return apperrors.Wrapf(apperrors.ErrInvalidInput, "config.Validate", "endpoint %q must use ws:// or wss://", c.Endpoint)
	}
	if u.Host == "" {
		return apperrors.Wrapf(apperrors.ErrInvalidInput, "config.Validate", "endpoint %q has no host", c.Endpoint)
	}
	if c.HandshakeTimeout <= 0 {
		return apperrors.Wrapf(apperrors.ErrInvalidInput, "config.Validate", "handshake timeout must be positive, got %s", c.HandshakeTimeout)
	}
	return nil
}

func (c Config) String() string {
	return fmt.Sprintf("endpoint=%s handshake=%s log_file=%q log_level=%s alt_screen=%t mouse=%t examples=%d",
		c.Endpoint, c.HandshakeTimeout, c.LogFile, c.LogLevel, c.AltScreen, c.Mouse, len(c.Examples))
}

func envOr(getenv func(string) string, key, fallback string) string {
	value := strings.TrimSpace(getenv(key))
	if value == "" {
		return fallback
	}
	return value
}

func envOrBool(getenv func(string) string, key string, fallback bool) bool {
	value := strings.TrimSpace(strings.ToLower(getenv(key)))
	if value == "" {
		return fallback
	}
	switch value {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return fallback
	}
}

// envOrDuration accepts Go durations ("750ms") or whole seconds ("5").
func envOrDuration(getenv func(string) string, key string, fallback time.Duration) time.Duration {
	value := strings.TrimSpace(getenv(key))
	if value == "" {
		return fallback
	}
	if parsed, err := time.ParseDuration(value); err == nil && parsed > 0 {
		return parsed
	}
	if seconds, err := strconv.Atoi(value); err == nil && seconds > 0 {
		return time.Duration(seconds) * time.Second
	}
	return fallback
}
