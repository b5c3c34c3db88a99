package logger

import (
	"fmt"
	"io"
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
)

// LoggerConfig drives the zerolog constructor. Zero values resolve to
// sensible per-environment defaults in setDefaults.
type LoggerConfig struct {
	Level          string                 `mapstructure:"level" json:"level,omitempty" validate:"omitempty,oneof=trace debug info warn error"`
	Format         string                 `mapstructure:"format" json:"format,omitempty" validate:"omitempty,oneof=json console"`
	OutputTarget   string                 `mapstructure:"output_target" json:"outputTarget,omitempty" validate:"omitempty,oneof=stdout stderr"`
	TimeField      string                 `mapstructure:"time_field" json:"timeField,omitempty"`
	TimeFormat     string                 `mapstructure:"time_format" json:"timeFormat,omitempty"`
	ServiceName    string                 `mapstructure:"service_name" json:"serviceName,omitempty"`
	ServiceVersion string                 `mapstructure:"service_version" json:"serviceVersion,omitempty"`
	Env            string                 `mapstructure:"env" json:"env,omitempty" validate:"omitempty,oneof=dev staging prod test"`
	WithCaller     bool                   `mapstructure:"with_caller" json:"withCaller,omitempty"`
	Stacktrace     bool                   `mapstructure:"stacktrace" json:"stacktrace,omitempty"`
	Fields         map[string]interface{} `mapstructure:"fields" json:"fields,omitempty"`
}

// New builds the application logger. Production-like environments get
// JSON on stdout; dev gets a human console writer on stderr.
func New(cfg *LoggerConfig) (zerolog.Logger, error) {
	cfg.setDefaults()

	v := validator.New()
	if err := v.Struct(cfg); err != nil {
		return zerolog.Logger{}, fmt.Errorf("logger config validation error: %w", err)
	}

	zerolog.TimestampFieldName = cfg.TimeField
	zerolog.TimeFieldFormat = cfg.TimeFormat

	var writer io.Writer
	switch {
	case cfg.Env == "dev" || cfg.Format == "console":
		writer = zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: cfg.TimeFormat}
	case cfg.OutputTarget == "stderr":
		writer = os.Stderr
	default:
		writer = os.Stdout
	}

	logger := zerolog.New(writer).
		With().
		Timestamp().
		Str("service", cfg.ServiceName).
		Str("version", cfg.ServiceVersion).
		Str("env", cfg.Env).
		Logger()

	if cfg.WithCaller {
		logger = logger.With().Caller().Logger()
	}
	if cfg.Stacktrace {
		logger = logger.With().Stack().Logger()
	}
	if len(cfg.Fields) > 0 {
		logger = logger.With().Fields(cfg.Fields).Logger()
	}

	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil {
		return logger, err
	}
	zerolog.SetGlobalLevel(level)

	return logger, nil
}

func (c *LoggerConfig) setDefaults() {
	if c.Env == "" {
		c.Env = "prod"
	}
	if c.Level == "" {
		if c.Env == "dev" {
			c.Level = "debug"
		} else {
			c.Level = "info"
		}
	}
	if c.Format == "" {
		if c.Env == "dev" {
			c.Format = "console"
		} else {
			c.Format = "json"
		}
	}
	if c.OutputTarget == "" {
		c.OutputTarget = "stdout"
	}
	if c.TimeField == "" {
		c.TimeField = "ts"
	}
	if c.TimeFormat == "" {
		c.TimeFormat = zerolog.TimeFormatUnixMs
	}
	if c.ServiceName == "" {
		c.ServiceName = "volleyball-match-service"
	}
	if c.ServiceVersion == "" {
		c.ServiceVersion = "0.0.1"
	}
	if c.Fields == nil {
		c.Fields = make(map[string]interface{})
	}
}
