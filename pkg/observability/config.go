// Package observability wires OpenTelemetry tracing and metrics, a Prometheus
// scrape endpoint and trace-aware slog logging for every timegraph entry
// point (CLI, HTTP service, MCP server).
package observability

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"
)

// AppMode identifies how the binary was launched.
type AppMode string

const (
	// ModeCLI is a one-shot CLI command.
	ModeCLI AppMode = "cli"
	// ModeServe is the HTTP query service.
	ModeServe AppMode = "serve"
	// ModeMCP is the MCP stdio tool server.
	ModeMCP AppMode = "mcp"
)

const (
	defaultServiceName     = "timegraph"
	defaultShutdownTimeout = 5 * time.Second
)

// Config holds all observability configuration.
type Config struct {
	// ServiceName is the OTel resource service name.
	ServiceName string

	// ServiceVersion is the version of the running binary.
	ServiceVersion string

	// Environment is the deployment environment, e.g. "production".
	Environment string

	// Mode identifies how the binary was launched.
	Mode AppMode

	// OTLPEndpoint is the OTLP gRPC collector address. Empty disables export.
	OTLPEndpoint string

	// OTLPHeaders are extra gRPC metadata headers for the exporter.
	OTLPHeaders map[string]string

	// OTLPInsecure disables TLS for the collector connection.
	OTLPInsecure bool

	// Prometheus exposes metrics through Providers.MetricsHandler.
	Prometheus bool

	// DebugTrace samples every trace.
	DebugTrace bool

	// SampleRatio is the root sampling ratio when DebugTrace is off.
	// Zero samples everything.
	SampleRatio float64

	// TraceVerbose keeps per-step replay spans.
	TraceVerbose bool

	// LogLevel is the minimum slog severity.
	LogLevel slog.Level

	// LogJSON selects JSON log output.
	LogJSON bool

	// LogWriter receives log output. Nil means stderr.
	LogWriter io.Writer

	// ShutdownTimeout bounds the final telemetry flush.
	ShutdownTimeout time.Duration
}

// DefaultConfig returns a Config for zero-config startup: no export, info
// logs in text form on stderr.
func DefaultConfig() Config {
	return Config{
		ServiceName:     defaultServiceName,
		Mode:            ModeCLI,
		LogLevel:        slog.LevelInfo,
		ShutdownTimeout: defaultShutdownTimeout,
	}
}

func (c Config) logWriter() io.Writer {
	if c.LogWriter != nil {
		return c.LogWriter
	}

	return os.Stderr
}

// ParseLevel maps "debug", "info", "warn" or "error" to a slog level.
func ParseLevel(name string) (slog.Level, error) {
	var level slog.Level

	err := level.UnmarshalText([]byte(strings.TrimSpace(name)))
	if err != nil {
		return slog.LevelInfo, fmt.Errorf("parse log level %q: %w", name, err)
	}

	return level, nil
}
