package config

import "github.com/spf13/viper"

// Default configuration values.
const (
	DefaultHost            = "127.0.0.1"
	DefaultPort            = 8080
	DefaultReadTimeout     = "15s"
	DefaultWriteTimeout    = "30s"
	DefaultIdleTimeout     = "60s"
	DefaultShutdownTimeout = "10s"

	DefaultOrientation = OrientationAuto
	DefaultWindow      = 0.0

	DefaultValidateSchema = true

	DefaultLogLevel  = "info"
	DefaultLogFormat = FormatText
)

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", DefaultHost)
	v.SetDefault("server.port", DefaultPort)
	v.SetDefault("server.read_timeout", DefaultReadTimeout)
	v.SetDefault("server.write_timeout", DefaultWriteTimeout)
	v.SetDefault("server.idle_timeout", DefaultIdleTimeout)
	v.SetDefault("server.shutdown_timeout", DefaultShutdownTimeout)

	v.SetDefault("snapshot.weight_attribute", "")
	v.SetDefault("snapshot.orientation", DefaultOrientation)
	v.SetDefault("snapshot.window", DefaultWindow)

	v.SetDefault("loader.validate_schema", DefaultValidateSchema)

	v.SetDefault("logging.level", DefaultLogLevel)
	v.SetDefault("logging.format", DefaultLogFormat)

	v.SetDefault("telemetry.environment", "")
	v.SetDefault("telemetry.otlp_endpoint", "")
	v.SetDefault("telemetry.otlp_headers", "")
	v.SetDefault("telemetry.otlp_insecure", false)
	v.SetDefault("telemetry.sample_ratio", 0.0)
	v.SetDefault("telemetry.trace_verbose", false)
	v.SetDefault("telemetry.prometheus", false)
}
