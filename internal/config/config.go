package config

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. SHADERLS_LOG_LEVEL.
const EnvPrefix = "SHADERLS"

// Config holds all process configuration.
type Config struct {
	Log       LogConfig       `mapstructure:"log"`
	Validator ValidatorConfig `mapstructure:"validator"`
	Tracing   TracingConfig   `mapstructure:"tracing"`
	Watch     bool            `mapstructure:"watch"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type ValidatorConfig struct {
	// Command is the validator argv; "{stage}" is replaced per entry.
	Command []string      `mapstructure:"command"`
	Vendor  string        `mapstructure:"vendor"`
	Timeout time.Duration `mapstructure:"timeout"`
}

type TracingConfig struct {
	Endpoint   string  `mapstructure:"endpoint"`
	SampleRate float64 `mapstructure:"sample_rate"`
}

// Defaults returns the built-in configuration.
func Defaults() Config {
	return Config{
		Log: LogConfig{Level: "info", Format: "text"},
		Validator: ValidatorConfig{
			Command: []string{"glslangValidator", "--stdin", "-S", "{stage}"},
			Timeout: 30 * time.Second,
		},
		Tracing: TracingConfig{SampleRate: 1.0},
	}
}

// Validate checks configuration for issues and returns warnings.
func (c *Config) Validate() []string {
	var warnings []string

	if _, err := ParseLevel(c.Log.Level); err != nil {
		warnings = append(warnings, err.Error())
	}
	if f := strings.ToLower(c.Log.Format); f != "text" && f != "json" {
		warnings = append(warnings, fmt.Sprintf("log format %q is not one of text|json, using text", c.Log.Format))
	}
	if len(c.Validator.Command) == 0 || strings.TrimSpace(c.Validator.Command[0]) == "" {
		warnings = append(warnings, "validator command is empty, linting will fail")
	}
	if c.Validator.Timeout <= 0 {
		warnings = append(warnings, fmt.Sprintf("validator timeout %s disables the bounded wait", c.Validator.Timeout))
	}
	if c.Tracing.SampleRate < 0 || c.Tracing.SampleRate > 1 {
		warnings = append(warnings, fmt.Sprintf("tracing sample_rate %.2f is outside [0.0, 1.0]", c.Tracing.SampleRate))
	}

	return warnings
}

// Load reads configuration from the optional file at path, the environment
// and overrides, in increasing precedence. Overrides use dotted keys.
func Load(path string, overrides map[string]any) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}
	for key, value := range overrides {
		v.Set(key, value)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}
	if len(cfg.Validator.Command) == 1 {
		// SHADERLS_VALIDATOR_COMMAND arrives as one string
		cfg.Validator.Command = strings.Fields(cfg.Validator.Command[0])
	}

	if warnings := cfg.Validate(); len(warnings) > 0 {
		for _, warning := range warnings {
			fmt.Fprintf(os.Stderr, "Warning: %s\n", warning)
		}
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	d := Defaults()
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.format", d.Log.Format)
	v.SetDefault("validator.command", d.Validator.Command)
	v.SetDefault("validator.vendor", d.Validator.Vendor)
	v.SetDefault("validator.timeout", d.Validator.Timeout)
	v.SetDefault("tracing.endpoint", d.Tracing.Endpoint)
	v.SetDefault("tracing.sample_rate", d.Tracing.SampleRate)
	v.SetDefault("watch", d.Watch)
}

// ParseLevel converts a level name to a slog level.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug", "trace":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return slog.LevelInfo, fmt.Errorf("log level %q is not one of debug|info|warn|error", s)
}
