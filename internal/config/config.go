package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server" mapstructure:"server"`
	Log       LogConfig       `yaml:"log" mapstructure:"log"`
	Store     StoreConfig     `yaml:"store" mapstructure:"store"`
	Adapters  AdaptersConfig  `yaml:"adapters" mapstructure:"adapters"`
	Phases    PhasesConfig    `yaml:"phases" mapstructure:"phases"`
	Pivot     PivotConfig     `yaml:"pivot" mapstructure:"pivot"`
	Phone     PhoneConfig     `yaml:"phone" mapstructure:"phone"`
	Anthropic AnthropicConfig `yaml:"anthropic" mapstructure:"anthropic"`
	Persist   PersistConfig   `yaml:"persist" mapstructure:"persist"`
	Circuit   CircuitConfig   `yaml:"circuit" mapstructure:"circuit"`
	Sentry    SentryConfig    `yaml:"sentry" mapstructure:"sentry"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Port             int   `yaml:"port" mapstructure:"port"`
	ReadTimeoutSecs  int   `yaml:"read_timeout_secs" mapstructure:"read_timeout_secs"`
	WriteTimeoutSecs int   `yaml:"write_timeout_secs" mapstructure:"write_timeout_secs"`
	MaxBodyBytes     int64 `yaml:"max_body_bytes" mapstructure:"max_body_bytes"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// StoreConfig configures the database backend. Driver "none" disables
// persistence.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
	MaxConns    int32  `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns    int32  `yaml:"min_conns" mapstructure:"min_conns"`
}

// AdaptersConfig configures the OSINT adapter endpoints.
type AdaptersConfig struct {
	BaseURL          string            `yaml:"base_url" mapstructure:"base_url"`
	AnonKey          string            `yaml:"anon_key" mapstructure:"anon_key"`
	TimeoutSecs      int               `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	RatePerSec       float64           `yaml:"rate_per_sec" mapstructure:"rate_per_sec"`
	Burst            int               `yaml:"burst" mapstructure:"burst"`
	RetryAttempts    int               `yaml:"retry_attempts" mapstructure:"retry_attempts"`
	RetryBaseDelayMs int               `yaml:"retry_base_delay_ms" mapstructure:"retry_base_delay_ms"`
	Endpoints        map[string]string `yaml:"endpoints" mapstructure:"endpoints"`
}

// PhasesConfig holds the confidence gates between phases.
type PhasesConfig struct {
	Phase2Threshold int `yaml:"phase2_threshold" mapstructure:"phase2_threshold"`
	Phase3Threshold int `yaml:"phase3_threshold" mapstructure:"phase3_threshold"`
}

// PivotConfig selects and configures the pivot extractor.
type PivotConfig struct {
	Mode        string `yaml:"mode" mapstructure:"mode"` // "remote" or "local"
	URL         string `yaml:"url" mapstructure:"url"`
	TimeoutSecs int    `yaml:"timeout_secs" mapstructure:"timeout_secs"`
}

// PhoneConfig configures the phone enrichment lookup. An empty URL disables it.
type PhoneConfig struct {
	URL         string `yaml:"url" mapstructure:"url"`
	Key         string `yaml:"key" mapstructure:"key"`
	TimeoutSecs int    `yaml:"timeout_secs" mapstructure:"timeout_secs"`
}

// AnthropicConfig holds Anthropic API settings for the local pivot extractor.
type AnthropicConfig struct {
	Key       string `yaml:"key" mapstructure:"key"`
	Model     string `yaml:"model" mapstructure:"model"`
	MaxTokens int64  `yaml:"max_tokens" mapstructure:"max_tokens"`
}

// PersistConfig configures session persistence.
type PersistConfig struct {
	Detached    bool `yaml:"detached" mapstructure:"detached"`
	TimeoutSecs int  `yaml:"timeout_secs" mapstructure:"timeout_secs"`
}

// CircuitConfig configures the per-adapter circuit breakers.
type CircuitConfig struct {
	FailureThreshold int `yaml:"failure_threshold" mapstructure:"failure_threshold"`
	ResetTimeoutSecs int `yaml:"reset_timeout_secs" mapstructure:"reset_timeout_secs"`
}

// SentryConfig configures error reporting. An empty DSN disables it.
type SentryConfig struct {
	DSN              string  `yaml:"dsn" mapstructure:"dsn"`
	Environment      string  `yaml:"environment" mapstructure:"environment"`
	TracesSampleRate float64 `yaml:"traces_sample_rate" mapstructure:"traces_sample_rate"`
}

// Load reads configuration from ./config.yaml (if present) and environment.
func Load() (*Config, error) {
	return LoadFile("")
}

// LoadFile reads configuration from path and environment. An empty path
// falls back to an optional config.yaml in the working directory; an explicit
// path must exist.
func LoadFile(path string) (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigType("yaml")
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
	}

	// Environment
	v.SetEnvPrefix("DEEPSEARCH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout_secs", 15)
	v.SetDefault("server.write_timeout_secs", 120)
	v.SetDefault("server.max_body_bytes", 1<<20)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("store.driver", "postgres")
	v.SetDefault("store.database_url", "")
	v.SetDefault("store.max_conns", 10)
	v.SetDefault("store.min_conns", 2)
	v.SetDefault("adapters.base_url", "")
	v.SetDefault("adapters.anon_key", "")
	v.SetDefault("adapters.timeout_secs", 20)
	v.SetDefault("adapters.rate_per_sec", 5.0)
	v.SetDefault("adapters.burst", 5)
	v.SetDefault("adapters.retry_attempts", 2)
	v.SetDefault("adapters.retry_base_delay_ms", 250)
	v.SetDefault("phases.phase2_threshold", 50)
	v.SetDefault("phases.phase3_threshold", 70)
	v.SetDefault("pivot.mode", "remote")
	v.SetDefault("pivot.url", "")
	v.SetDefault("pivot.timeout_secs", 30)
	v.SetDefault("phone.url", "")
	v.SetDefault("phone.key", "")
	v.SetDefault("phone.timeout_secs", 10)
	v.SetDefault("anthropic.key", "")
	v.SetDefault("anthropic.model", "claude-sonnet-4-5-20250929")
	v.SetDefault("anthropic.max_tokens", 3000)
	v.SetDefault("persist.detached", true)
	v.SetDefault("persist.timeout_secs", 10)
	v.SetDefault("circuit.failure_threshold", 5)
	v.SetDefault("circuit.reset_timeout_secs", 30)
	v.SetDefault("sentry.dsn", "")
	v.SetDefault("sentry.environment", "production")
	v.SetDefault("sentry.traces_sample_rate", 0.0)

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// Validate checks the settings a command needs. Mode is one of "serve",
// "search", "searches", or "migrate".
func (c *Config) Validate(mode string) error {
	var errs []string

	switch c.Store.Driver {
	case "postgres", "sqlite":
		if c.Store.DatabaseURL == "" {
			errs = append(errs, "store.database_url is required")
		}
	case "none":
		if mode == "searches" || mode == "migrate" {
			errs = append(errs, fmt.Sprintf("store.driver none cannot be used with %s", mode))
		}
	default:
		errs = append(errs, fmt.Sprintf("store.driver %q must be postgres, sqlite, or none", c.Store.Driver))
	}

	switch mode {
	case "serve", "search":
		errs = append(errs, c.validateSearch()...)
		if mode == "serve" && c.Server.Port <= 0 {
			errs = append(errs, "server.port must be > 0")
		}
	case "searches", "migrate":
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	if len(errs) > 0 {
		return eris.Errorf("config: %s", strings.Join(errs, "; "))
	}
	return nil
}

func (c *Config) validateSearch() []string {
	var errs []string
	if c.Adapters.BaseURL == "" {
		errs = append(errs, "adapters.base_url is required")
	}
	if c.Adapters.AnonKey == "" {
		errs = append(errs, "adapters.anon_key is required")
	}
	if c.Adapters.TimeoutSecs <= 0 {
		errs = append(errs, "adapters.timeout_secs must be > 0")
	}
	if c.Adapters.RatePerSec < 0 {
		errs = append(errs, "adapters.rate_per_sec must be >= 0")
	}
	for _, th := range []struct {
		name string
		v    int
	}{
		{"phases.phase2_threshold", c.Phases.Phase2Threshold},
		{"phases.phase3_threshold", c.Phases.Phase3Threshold},
	} {
		if th.v < 0 || th.v > 100 {
			errs = append(errs, fmt.Sprintf("%s must be between 0 and 100", th.name))
		}
	}
	switch c.Pivot.Mode {
	case "remote":
	case "local":
		if c.Anthropic.Key == "" {
			errs = append(errs, "anthropic.key is required when pivot.mode is local")
		}
	default:
		errs = append(errs, fmt.Sprintf("pivot.mode %q must be remote or local", c.Pivot.Mode))
	}
	if c.Persist.TimeoutSecs <= 0 {
		errs = append(errs, "persist.timeout_secs must be > 0")
	}
	return errs
}

// PivotURL returns the remote extractor URL, derived from the adapter base
// URL when not set explicitly.
func (c *Config) PivotURL() string {
	if c.Pivot.URL != "" {
		return c.Pivot.URL
	}
	return strings.TrimRight(c.Adapters.BaseURL, "/") + "/functions/v1/deepsearch-pivotextract"
}

// AdapterTimeout is the per-call adapter deadline.
func (c *Config) AdapterTimeout() time.Duration {
	return time.Duration(c.Adapters.TimeoutSecs) * time.Second
}

// PivotTimeout is the deadline for the single pivot extract call.
func (c *Config) PivotTimeout() time.Duration {
	return time.Duration(c.Pivot.TimeoutSecs) * time.Second
}

// PersistTimeout bounds one session save.
func (c *Config) PersistTimeout() time.Duration {
	return time.Duration(c.Persist.TimeoutSecs) * time.Second
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}

// EndpointOverrides maps adapter names onto configured URL overrides. Viper
// lowercases map keys, so names are matched case-insensitively.
func (c *Config) EndpointOverrides(names []string) map[string]string {
	out := make(map[string]string)
	for _, name := range names {
		if u, ok := c.Adapters.Endpoints[strings.ToLower(name)]; ok && u != "" {
			out[name] = u
		}
	}
	return out
}
