// Package config loads timegraph settings from a YAML file, TIMEGRAPH_*
// environment variables and built-in defaults, in rising order of precedence
// below command-line flags.
package config

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/Sumatoshi-tech/timegraph/pkg/observability"
)

// Sentinel validation errors.
var (
	ErrInvalidPort        = errors.New("invalid server port")
	ErrInvalidOrientation = errors.New("invalid snapshot orientation")
	ErrInvalidWindow      = errors.New("snapshot window must not be negative")
	ErrInvalidLogLevel    = errors.New("invalid log level")
	ErrInvalidLogFormat   = errors.New("invalid log format")
	ErrInvalidSampleRatio = errors.New("sample ratio must be within [0, 1]")
	ErrUnknownKey         = errors.New("unknown configuration key")
)

const (
	envPrefix  = "TIMEGRAPH"
	configName = "timegraph"
	maxPort    = 65535
)

// Orientation values for SnapshotConfig.Orientation.
const (
	OrientationAuto       = "auto"
	OrientationDirected   = "directed"
	OrientationUndirected = "undirected"
)

// Log formats for LoggingConfig.Format.
const (
	FormatText = "text"
	FormatJSON = "json"
)

// Config holds all timegraph configuration.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Snapshot  SnapshotConfig  `mapstructure:"snapshot"`
	Loader    LoaderConfig    `mapstructure:"loader"`
	Logging   LoggingConfig   `mapstructure:"logging"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
}

// ServerConfig configures the HTTP query service.
type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// Addr returns host:port.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// SnapshotConfig configures the snapshot engine.
type SnapshotConfig struct {
	// WeightAttribute names the edge attribute used as edge weight. Empty
	// weighs every edge 1.
	WeightAttribute string `mapstructure:"weight_attribute"`

	// Orientation is auto (follow the document), directed or undirected.
	Orientation string `mapstructure:"orientation"`

	// Window is the width of the query window placed at a requested time.
	// Zero queries the instant.
	Window float64 `mapstructure:"window"`
}

// LoaderConfig configures document loading.
type LoaderConfig struct {
	ValidateSchema bool `mapstructure:"validate_schema"`
}

// LoggingConfig configures the root logger.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// TelemetryConfig configures tracing and metrics export.
type TelemetryConfig struct {
	Environment  string  `mapstructure:"environment"`
	OTLPEndpoint string  `mapstructure:"otlp_endpoint"`
	OTLPHeaders  string  `mapstructure:"otlp_headers"`
	OTLPInsecure bool    `mapstructure:"otlp_insecure"`
	SampleRatio  float64 `mapstructure:"sample_ratio"`
	TraceVerbose bool    `mapstructure:"trace_verbose"`
	Prometheus   bool    `mapstructure:"prometheus"`
}

// Load reads configuration. An empty path searches timegraph.yaml in ".",
// "./config" and "/etc/timegraph"; a missing file there is not an error.
func Load(path string) (*Config, error) {
	v, err := newViper(path)
	if err != nil {
		return nil, err
	}

	var cfg Config

	err = v.Unmarshal(&cfg)
	if err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	err = cfg.Validate()
	if err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// Settings returns every effective key with its value, nested by section.
func Settings(path string) (map[string]any, error) {
	v, err := newViper(path)
	if err != nil {
		return nil, err
	}

	return v.AllSettings(), nil
}

// Get returns the effective value of one dotted key such as "server.port".
func Get(path, key string) (any, error) {
	v, err := newViper(path)
	if err != nil {
		return nil, err
	}

	if !slices.Contains(v.AllKeys(), strings.ToLower(key)) {
		return nil, fmt.Errorf("%w: %s", ErrUnknownKey, key)
	}

	return v.Get(key), nil
}

// Set writes key=value into the YAML file at path, creating the file if
// needed. value is parsed as a YAML scalar, so "9000" is stored as a number.
// The result must still validate.
func Set(path, key, value string) error {
	file := viper.New()
	file.SetConfigFile(path)
	file.SetConfigType("yaml")

	_, err := os.Stat(path)
	switch {
	case err == nil:
		err = file.ReadInConfig()
		if err != nil {
			return fmt.Errorf("read config file: %w", err)
		}
	case !errors.Is(err, os.ErrNotExist):
		return fmt.Errorf("stat config file: %w", err)
	}

	defaults := viper.New()
	setDefaults(defaults)

	if !slices.Contains(defaults.AllKeys(), strings.ToLower(key)) {
		return fmt.Errorf("%w: %s", ErrUnknownKey, key)
	}

	file.Set(key, parseScalar(value))

	merged := viper.New()
	setDefaults(merged)

	err = merged.MergeConfigMap(file.AllSettings())
	if err != nil {
		return fmt.Errorf("merge config: %w", err)
	}

	var cfg Config

	err = merged.Unmarshal(&cfg)
	if err != nil {
		return fmt.Errorf("unmarshal config: %w", err)
	}

	err = cfg.Validate()
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	err = file.WriteConfigAs(path)
	if err != nil {
		return fmt.Errorf("write config file: %w", err)
	}

	return nil
}

func parseScalar(value string) any {
	var parsed any

	err := yaml.Unmarshal([]byte(value), &parsed)
	if err != nil || parsed == nil {
		return value
	}

	if _, nested := parsed.(map[string]any); nested {
		return value
	}

	if _, list := parsed.([]any); list {
		return value
	}

	return parsed
}

func newViper(path string) (*viper.Viper, error) {
	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName(configName)
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		v.AddConfigPath("/etc/timegraph")
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	err := v.ReadInConfig()
	if err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	return v, nil
}

// Validate checks every section.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > maxPort {
		return fmt.Errorf("%w: %d", ErrInvalidPort, c.Server.Port)
	}

	switch c.Snapshot.Orientation {
	case OrientationAuto, OrientationDirected, OrientationUndirected:
	default:
		return fmt.Errorf("%w: %q", ErrInvalidOrientation, c.Snapshot.Orientation)
	}

	if c.Snapshot.Window < 0 {
		return fmt.Errorf("%w: %g", ErrInvalidWindow, c.Snapshot.Window)
	}

	if _, err := observability.ParseLevel(c.Logging.Level); err != nil {
		return fmt.Errorf("%w: %q", ErrInvalidLogLevel, c.Logging.Level)
	}

	if c.Logging.Format != FormatText && c.Logging.Format != FormatJSON {
		return fmt.Errorf("%w: %q", ErrInvalidLogFormat, c.Logging.Format)
	}

	if c.Telemetry.SampleRatio < 0 || c.Telemetry.SampleRatio > 1 {
		return fmt.Errorf("%w: %g", ErrInvalidSampleRatio, c.Telemetry.SampleRatio)
	}

	return nil
}

// Observability converts the logging and telemetry sections for
// observability.Init.
func (c *Config) Observability(mode observability.AppMode, version string) observability.Config {
	obs := observability.DefaultConfig()
	obs.ServiceVersion = version
	obs.Mode = mode
	obs.Environment = c.Telemetry.Environment
	obs.OTLPEndpoint = c.Telemetry.OTLPEndpoint
	obs.OTLPHeaders = observability.ParseOTLPHeaders(c.Telemetry.OTLPHeaders)
	obs.OTLPInsecure = c.Telemetry.OTLPInsecure
	obs.SampleRatio = c.Telemetry.SampleRatio
	obs.TraceVerbose = c.Telemetry.TraceVerbose
	obs.Prometheus = c.Telemetry.Prometheus
	obs.LogJSON = c.Logging.Format == FormatJSON

	if level, err := observability.ParseLevel(c.Logging.Level); err == nil {
		obs.LogLevel = level
	}

	return obs
}

// Undirected resolves the orientation against a document's own flag.
func (s SnapshotConfig) Undirected(documentDirected bool) bool {
	switch s.Orientation {
	case OrientationDirected:
		return false
	case OrientationUndirected:
		return true
	default:
		return !documentDirected
	}
}
