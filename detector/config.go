package detector

import (
	"fmt"
	"net/http"
	"os"
	"strconv"
	"time"
)

// Config holds the agent discovery settings for one detection.
// It supports three-layer configuration priority:
//  1. Default values (lowest priority)
//  2. Environment variables (medium priority)
//  3. Functional options (highest priority)
//
// A Config is an immutable snapshot: the environment is read once when the
// config is built, never during detection, so concurrent detections do not
// observe each other's configuration.
//
// Example usage:
//
//	cfg, err := NewConfig(
//	    WithAgentHost("instana-agent.monitoring"),
//	    WithRetryTimeout(10 * time.Second),
//	)
type Config struct {
	// Host is the agent hostname
	Host string `json:"host" env:"INSTANA_AGENT_HOST"`

	// Port is the agent discovery port
	Port int `json:"port" env:"INSTANA_AGENT_PORT"`

	// Timeout bounds a single discovery request
	Timeout time.Duration `json:"timeout" env:"INSTANA_AGENT_TIMEOUT_MS"`

	// RetryTimeout bounds the whole detection attempt
	RetryTimeout time.Duration `json:"retry_timeout" env:"INSTANA_RETRY_TIMEOUT_MS"`

	// Logger receives detection diagnostics. Defaults to NoOpLogger.
	Logger Logger `json:"-"`

	// HTTPClient overrides the probe's HTTP client. Leave nil for the
	// default retrying client. Intended as a test seam.
	HTTPClient *http.Client `json:"-"`
}

// Option is a functional option for configuring the detector.
// Options are applied in order and can return an error if the
// configuration is invalid.
type Option func(*Config) error

// DefaultConfig returns a configuration with the agent's documented
// defaults, adjusted by any environment overrides.
func DefaultConfig() *Config {
	cfg := &Config{
		Host:         DefaultAgentHost,
		Port:         DefaultAgentPort,
		Timeout:      DefaultTimeout,
		RetryTimeout: DefaultRetryTimeout,
		Logger:       &NoOpLogger{},
	}
	cfg.LoadFromEnv()
	return cfg
}

// LoadFromEnv loads configuration from environment variables.
// Environment variables take precedence over defaults but are overridden
// by functional options. Malformed numeric values are ignored and the
// current value is kept.
func (c *Config) LoadFromEnv() {
	if v := os.Getenv(EnvAgentHost); v != "" {
		c.Host = v
	}
	if v := os.Getenv(EnvAgentPort); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.Port = port
		}
	}
	if v := os.Getenv(EnvAgentTimeout); v != "" {
		if ms, err := strconv.Atoi(v); err == nil {
			c.Timeout = time.Duration(ms) * time.Millisecond
		}
	}
	if v := os.Getenv(EnvRetryTimeout); v != "" {
		if ms, err := strconv.Atoi(v); err == nil {
			c.RetryTimeout = time.Duration(ms) * time.Millisecond
		}
	}
}

// NewConfig creates a configuration with the three-layer priority chain
// applied: defaults, then environment, then the given options.
func NewConfig(opts ...Option) (*Config, error) {
	cfg := DefaultConfig()
	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

// WithAgentHost sets the agent hostname
func WithAgentHost(host string) Option {
	return func(c *Config) error {
		if host == "" {
			return fmt.Errorf("agent host cannot be empty")
		}
		c.Host = host
		return nil
	}
}

// WithAgentPort sets the agent discovery port
func WithAgentPort(port int) Option {
	return func(c *Config) error {
		if port <= 0 || port > 65535 {
			return fmt.Errorf("invalid agent port: %d", port)
		}
		c.Port = port
		return nil
	}
}

// WithTimeout sets the per-attempt request timeout
func WithTimeout(timeout time.Duration) Option {
	return func(c *Config) error {
		if timeout <= 0 {
			return fmt.Errorf("timeout must be positive")
		}
		c.Timeout = timeout
		return nil
	}
}

// WithRetryTimeout sets the bound on the whole detection attempt
func WithRetryTimeout(timeout time.Duration) Option {
	return func(c *Config) error {
		if timeout <= 0 {
			return fmt.Errorf("retry timeout must be positive")
		}
		c.RetryTimeout = timeout
		return nil
	}
}

// WithLogger sets the logger used for detection diagnostics
func WithLogger(logger Logger) Option {
	return func(c *Config) error {
		if logger == nil {
			return fmt.Errorf("logger cannot be nil")
		}
		c.Logger = logger
		return nil
	}
}

// WithHTTPClient overrides the probe's HTTP client
func WithHTTPClient(client *http.Client) Option {
	return func(c *Config) error {
		c.HTTPClient = client
		return nil
	}
}

// DiscoveryURL returns the agent discovery endpoint for this configuration
func (c *Config) DiscoveryURL() string {
	return fmt.Sprintf("http://%s:%d%s", c.Host, c.Port, DiscoveryPath)
}
