package config

import (
	"encoding/json"
	"log/slog"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/msig-dev/msig/internal/errors"
)

const (
	// ConfigFileName is the name of the configuration file.
	ConfigFileName = "msig.json"

	// DefaultPort is the default server port.
	DefaultPort = 8080

	// DefaultHost is the default server host.
	DefaultHost = "localhost"

	// DefaultMaxDepth is the default effect cascade bound.
	DefaultMaxDepth = 100

	// DefaultMetricsPath is where Prometheus metrics are served.
	DefaultMetricsPath = "/metrics"

	// DefaultNamespace is the default Prometheus namespace.
	DefaultNamespace = "msig"
)

// Config represents the complete msig.json configuration.
type Config struct {
	// Server contains HTTP server configuration.
	Server ServerConfig `json:"server,omitempty"`

	// Runtime contains reactive runtime configuration.
	Runtime RuntimeConfig `json:"runtime,omitempty"`

	// Metrics contains Prometheus configuration.
	Metrics MetricsConfig `json:"metrics,omitempty"`

	// Demo contains settings for the bundled demo stores.
	Demo DemoConfig `json:"demo,omitempty"`

	// Log contains logging configuration.
	Log LogConfig `json:"log,omitempty"`

	// configPath stores the path where the config was loaded from.
	configPath string
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	// Host is the host to bind to.
	Host string `json:"host,omitempty"`

	// Port is the port to listen on.
	Port int `json:"port,omitempty"`

	// CallTimeout bounds how long a request waits for the runtime (e.g., "5s").
	CallTimeout string `json:"callTimeout,omitempty"`
}

// RuntimeConfig contains reactive runtime settings.
type RuntimeConfig struct {
	// MaxDepth is the maximum nesting of effect runs before a cascade is
	// aborted.
	MaxDepth int `json:"maxDepth,omitempty"`
}

// MetricsConfig contains Prometheus settings.
type MetricsConfig struct {
	// Enabled serves metrics on Path.
	Enabled bool `json:"enabled"`

	// Path is the URL path of the metrics endpoint.
	Path string `json:"path,omitempty"`

	// Namespace prefixes every metric name.
	Namespace string `json:"namespace,omitempty"`
}

// DemoConfig contains demo store settings.
type DemoConfig struct {
	// TickInterval is how often the demo clock advances (e.g., "1s").
	// Empty or "0" disables the clock.
	TickInterval string `json:"tickInterval,omitempty"`
}

// LogConfig contains logging settings.
type LogConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `json:"level,omitempty"`
}

// New creates a new Config with default values.
func New() *Config {
	return &Config{
		Server: ServerConfig{
			Host:        DefaultHost,
			Port:        DefaultPort,
			CallTimeout: "5s",
		},
		Runtime: RuntimeConfig{
			MaxDepth: DefaultMaxDepth,
		},
		Metrics: MetricsConfig{
			Enabled:   true,
			Path:      DefaultMetricsPath,
			Namespace: DefaultNamespace,
		},
		Demo: DemoConfig{
			TickInterval: "1s",
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Load reads configuration from the specified directory.
// It looks for msig.json in the directory.
func Load(dir string) (*Config, error) {
	configPath := filepath.Join(dir, ConfigFileName)
	return LoadFile(configPath)
}

// LoadFile reads configuration from the specified file path.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.New("E141").
				WithDetail("No msig.json found in " + filepath.Dir(path)).
				WithSuggestion("Create msig.json or run without --config to use defaults")
		}
		return nil, errors.New("E120").Wrap(err)
	}

	cfg := New()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, errors.New("E120").
			WithDetail("Failed to parse msig.json: " + err.Error()).
			WithSuggestion("Check that msig.json is valid JSON")
	}

	cfg.configPath = path
	cfg.applyDefaults()

	return cfg, nil
}

// Save writes the configuration to the file it was loaded from.
func (c *Config) Save() error {
	if c.configPath == "" {
		return errors.Newf(errors.CategoryConfig, "no config path set")
	}
	return c.SaveTo(c.configPath)
}

// SaveTo writes the configuration to the specified path.
func (c *Config) SaveTo(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return errors.New("E120").Wrap(err)
	}

	// Add newline at end of file
	data = append(data, '\n')

	if err := os.WriteFile(path, data, 0644); err != nil {
		return errors.New("E120").Wrap(err)
	}

	c.configPath = path
	return nil
}

// Path returns the path where the config was loaded from.
func (c *Config) Path() string {
	return c.configPath
}

// Dir returns the directory containing the config file.
func (c *Config) Dir() string {
	if c.configPath == "" {
		return ""
	}
	return filepath.Dir(c.configPath)
}

// applyDefaults fills in default values for empty fields.
func (c *Config) applyDefaults() {
	if c.Server.Host == "" {
		c.Server.Host = DefaultHost
	}
	if c.Server.Port == 0 {
		c.Server.Port = DefaultPort
	}
	if c.Server.CallTimeout == "" {
		c.Server.CallTimeout = "5s"
	}
	if c.Runtime.MaxDepth == 0 {
		c.Runtime.MaxDepth = DefaultMaxDepth
	}
	if c.Metrics.Path == "" {
		c.Metrics.Path = DefaultMetricsPath
	}
	if c.Metrics.Namespace == "" {
		c.Metrics.Namespace = DefaultNamespace
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return errors.New("E122").
			WithDetail("server.port must be between 0 and 65535")
	}
	if c.Runtime.MaxDepth < 0 {
		return errors.New("E122").
			WithDetail("runtime.maxDepth must not be negative")
	}
	if _, err := c.CallTimeout(); err != nil {
		return errors.New("E122").
			WithDetail("server.callTimeout: " + err.Error())
	}
	if _, err := c.TickInterval(); err != nil {
		return errors.New("E122").
			WithDetail("demo.tickInterval: " + err.Error())
	}
	if c.Metrics.Enabled && !strings.HasPrefix(c.Metrics.Path, "/") {
		return errors.New("E122").
			WithDetail("metrics.path must start with /")
	}
	if _, err := c.LogLevel(); err != nil {
		return errors.New("E122").
			WithDetail("log.level: " + err.Error())
	}
	return nil
}

// Address returns the host:port the server listens on.
func (c *Config) Address() string {
	return net.JoinHostPort(c.Server.Host, strconv.Itoa(c.Server.Port))
}

// CallTimeout returns server.callTimeout as a duration.
func (c *Config) CallTimeout() (time.Duration, error) {
	if c.Server.CallTimeout == "" {
		return 0, nil
	}
	return time.ParseDuration(c.Server.CallTimeout)
}

// TickInterval returns demo.tickInterval as a duration. Zero disables the
// demo clock.
func (c *Config) TickInterval() (time.Duration, error) {
	if c.Demo.TickInterval == "" || c.Demo.TickInterval == "0" {
		return 0, nil
	}
	return time.ParseDuration(c.Demo.TickInterval)
}

// LogLevel returns log.level as a slog level.
func (c *Config) LogLevel() (slog.Level, error) {
	var level slog.Level
	if c.Log.Level == "" {
		return slog.LevelInfo, nil
	}
	err := level.UnmarshalText([]byte(c.Log.Level))
	return level, err
}

// Exists checks if a config file exists in the given directory.
func Exists(dir string) bool {
	path := filepath.Join(dir, ConfigFileName)
	_, err := os.Stat(path)
	return err == nil
}

// FindProjectRoot walks up directories to find the directory holding
// msig.json.
func FindProjectRoot(startDir string) (string, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", err
	}

	for {
		if Exists(dir) {
			return dir, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", errors.New("E141").
				WithDetail("No msig.json found in " + startDir + " or any parent directory")
		}
		dir = parent
	}
}

// LoadFromWorkingDir loads configuration from the current working directory
// or its nearest parent holding msig.json.
func LoadFromWorkingDir() (*Config, error) {
	wd, err := os.Getwd()
	if err != nil {
		return nil, err
	}

	root, err := FindProjectRoot(wd)
	if err != nil {
		return nil, err
	}

	return Load(root)
}
