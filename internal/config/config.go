package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/ZanzyTHEbar/aq10-triage/internal/model"
)

// EnvPrefix is prepended to every environment variable, e.g. AQ10_PORT.
const EnvPrefix = "AQ10"

type Config struct {
	Server    ServerConfig
	Artifacts ArtifactsConfig
	Logging   LoggingConfig
	Security  SecurityConfig
}

type ServerConfig struct {
	Port           string
	RequestTimeout time.Duration
}

type ArtifactsConfig struct {
	Dir           string
	ModelFile     string
	ScalerFile    string
	ColumnsFile   string
	BindingsFile  string
	StrictBinding bool
}

type LoggingConfig struct {
	Level string
}

type SecurityConfig struct {
	RateLimitPerMin int
	AllowedOrigins  []string
	EnableHSTS      bool
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("port", "8080")
	v.SetDefault("request_timeout", "10s")
	v.SetDefault("artifacts_dir", "./artifacts")
	v.SetDefault("model_file", "model.json")
	v.SetDefault("scaler_file", "scaler.json")
	v.SetDefault("columns_file", "columns.json")
	v.SetDefault("bindings_file", "")
	v.SetDefault("strict_binding", true)
	v.SetDefault("log_level", "info")
	v.SetDefault("rate_limit_per_min", 30)
	v.SetDefault("allowed_origins", []string{"http://localhost:5173"})
	v.SetDefault("enable_hsts", false)
}

// Load reads defaults, an optional config.yaml from the working directory or
// configPath, and AQ10_* environment variables, in increasing precedence.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	if configPath != "" {
		v.SetConfigFile(configPath)
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) || configPath != "" {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	cfg := &Config{
		Server: ServerConfig{
			Port:           v.GetString("port"),
			RequestTimeout: v.GetDuration("request_timeout"),
		},
		Artifacts: ArtifactsConfig{
			Dir:           v.GetString("artifacts_dir"),
			ModelFile:     strings.TrimSpace(v.GetString("model_file")),
			ScalerFile:    strings.TrimSpace(v.GetString("scaler_file")),
			ColumnsFile:   strings.TrimSpace(v.GetString("columns_file")),
			BindingsFile:  strings.TrimSpace(v.GetString("bindings_file")),
			StrictBinding: v.GetBool("strict_binding"),
		},
		Logging: LoggingConfig{
			Level: v.GetString("log_level"),
		},
		Security: SecurityConfig{
			RateLimitPerMin: v.GetInt("rate_limit_per_min"),
			AllowedOrigins:  splitList(v.GetStringSlice("allowed_origins")),
			EnableHSTS:      v.GetBool("enable_hsts"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// splitList expands comma-separated entries, as env vars arrive as one string.
func splitList(in []string) []string {
	var out []string
	for _, item := range in {
		for _, part := range strings.Split(item, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

// Validate rejects settings the service cannot start with.
func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("port is required")
	}
	if c.Server.RequestTimeout <= 0 {
		return fmt.Errorf("request_timeout must be positive")
	}
	if c.Artifacts.Dir == "" {
		return fmt.Errorf("artifacts_dir is required")
	}
	if c.Artifacts.ModelFile == "" || c.Artifacts.ScalerFile == "" || c.Artifacts.ColumnsFile == "" {
		return fmt.Errorf("model_file, scaler_file and columns_file are required")
	}
	if c.Security.RateLimitPerMin <= 0 {
		return fmt.Errorf("rate_limit_per_min must be positive")
	}
	if _, err := ParseLevel(c.Logging.Level); err != nil {
		return err
	}
	return nil
}

// Files returns the artifact file names in the form the model loader takes.
func (a ArtifactsConfig) Files() model.Files {
	return model.Files{
		Model:    a.ModelFile,
		Scaler:   a.ScalerFile,
		Columns:  a.ColumnsFile,
		Bindings: a.BindingsFile,
	}
}

// ParseLevel maps a level name onto slog.
func ParseLevel(level string) (slog.Level, error) {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return slog.LevelInfo, fmt.Errorf("unknown log level %q", level)
}
