package config

import (
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Input   InputConfig   `yaml:"input" mapstructure:"input"`
	Geocode GeocodeConfig `yaml:"geocode" mapstructure:"geocode"`
	Cache   CacheConfig   `yaml:"cache" mapstructure:"cache"`
	Output  OutputConfig  `yaml:"output" mapstructure:"output"`
	Server  ServerConfig  `yaml:"server" mapstructure:"server"`
	Log     LogConfig     `yaml:"log" mapstructure:"log"`
}

// InputConfig locates the roster and optionally renames its columns.
type InputConfig struct {
	Path    string        `yaml:"path" mapstructure:"path"`
	Columns ColumnsConfig `yaml:"columns" mapstructure:"columns"`
}

// ColumnsConfig overrides roster column headers. Empty fields keep the
// CALEA export header.
type ColumnsConfig struct {
	Name        string `yaml:"name" mapstructure:"name"`
	City        string `yaml:"city" mapstructure:"city"`
	State       string `yaml:"state" mapstructure:"state"`
	PostalCode  string `yaml:"postal_code" mapstructure:"postal_code"`
	Personnel   string `yaml:"personnel" mapstructure:"personnel"`
	ProgramType string `yaml:"program_type" mapstructure:"program_type"`
	AwardDate   string `yaml:"award_date" mapstructure:"award_date"`
	CEOName     string `yaml:"ceo_name" mapstructure:"ceo_name"`
	CEOTitle    string `yaml:"ceo_title" mapstructure:"ceo_title"`
}

// GeocodeConfig configures providers, pacing and retries.
type GeocodeConfig struct {
	Providers          []string `yaml:"providers" mapstructure:"providers"`
	MapboxToken        string   `yaml:"mapbox_token" mapstructure:"mapbox_token"`
	GoogleKey          string   `yaml:"google_api_key" mapstructure:"google_api_key"`
	NominatimURL       string   `yaml:"nominatim_url" mapstructure:"nominatim_url"`
	NominatimUserAgent string   `yaml:"nominatim_user_agent" mapstructure:"nominatim_user_agent"`
	MinDelayMs         int      `yaml:"min_delay_ms" mapstructure:"min_delay_ms"`
	TimeoutSecs        int      `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	MaxAttempts        int      `yaml:"max_attempts" mapstructure:"max_attempts"`
	InitialBackoffMs   int      `yaml:"initial_backoff_ms" mapstructure:"initial_backoff_ms"`
	Concurrency        int      `yaml:"concurrency" mapstructure:"concurrency"`
}

// MinDelay returns the minimum spacing between provider calls.
func (g GeocodeConfig) MinDelay() time.Duration {
	return time.Duration(g.MinDelayMs) * time.Millisecond
}

// Timeout returns the per-request HTTP timeout.
func (g GeocodeConfig) Timeout() time.Duration {
	return time.Duration(g.TimeoutSecs) * time.Second
}

// Validate checks that every listed provider is known and has credentials.
func (g GeocodeConfig) Validate() error {
	if len(g.Providers) == 0 {
		return eris.New("config: geocode.providers is empty")
	}
	for _, p := range g.Providers {
		switch strings.ToLower(p) {
		case "mapbox":
			if g.MapboxToken == "" {
				return eris.New("config: mapbox provider requires geocode.mapbox_token")
			}
		case "google":
			if g.GoogleKey == "" {
				return eris.New("config: google provider requires geocode.google_api_key")
			}
		case "nominatim":
		default:
			return eris.Errorf("config: unknown geocode provider %q", p)
		}
	}
	return nil
}

// CacheConfig selects the resolution cache backend.
type CacheConfig struct {
	Driver        string `yaml:"driver" mapstructure:"driver"` // memory, sqlite, postgres
	Path          string `yaml:"path" mapstructure:"path"`
	DatabaseURL   string `yaml:"database_url" mapstructure:"database_url"`
	RetryFailures bool   `yaml:"retry_failures" mapstructure:"retry_failures"`
}

// OutputConfig names the batch artifacts.
type OutputConfig struct {
	Dir          string `yaml:"dir" mapstructure:"dir"`
	EnrichedFile string `yaml:"enriched_file" mapstructure:"enriched_file"`
	FailedFile   string `yaml:"failed_file" mapstructure:"failed_file"`
}

// ServerConfig configures the dashboard API.
type ServerConfig struct {
	Port           int      `yaml:"port" mapstructure:"port"`
	AllowedOrigins []string `yaml:"allowed_origins" mapstructure:"allowed_origins"`
	DataFile       string   `yaml:"data_file" mapstructure:"data_file"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Validate checks the settings a command needs. mode is "geocode",
// "serve" or "export".
func (c *Config) Validate(mode string) error {
	var errs []string

	switch mode {
	case "geocode":
		if c.Input.Path == "" {
			errs = append(errs, "input.path is required")
		}
		if err := c.Geocode.Validate(); err != nil {
			errs = append(errs, strings.TrimPrefix(err.Error(), "config: "))
		}
		if c.Geocode.Concurrency < 1 || c.Geocode.Concurrency > 32 {
			errs = append(errs, "geocode.concurrency must be between 1 and 32")
		}
		if c.Geocode.MinDelayMs < 0 {
			errs = append(errs, "geocode.min_delay_ms must be >= 0")
		}
		switch strings.ToLower(c.Cache.Driver) {
		case "", "memory", "sqlite", "postgres":
		default:
			errs = append(errs, "cache.driver must be memory, sqlite or postgres")
		}
	case "serve":
		if c.Server.Port <= 0 {
			errs = append(errs, "server.port must be > 0")
		}
	case "export":
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	if len(errs) > 0 {
		return eris.Errorf("config: %s", strings.Join(errs, "; "))
	}
	return nil
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("AGENCYMAP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	_ = v.BindEnv("geocode.mapbox_token", "AGENCYMAP_GEOCODE_MAPBOX_TOKEN", "MAPBOX_ACCESS_TOKEN")
	_ = v.BindEnv("geocode.google_api_key", "AGENCYMAP_GEOCODE_GOOGLE_API_KEY", "GOOGLE_MAPS_API_KEY")

	// Defaults
	v.SetDefault("input.path", "")
	for _, col := range []string{"name", "city", "state", "postal_code", "personnel", "program_type", "award_date", "ceo_name", "ceo_title"} {
		v.SetDefault("input.columns."+col, "")
	}
	v.SetDefault("geocode.providers", []string{"mapbox"})
	v.SetDefault("geocode.mapbox_token", "")
	v.SetDefault("geocode.google_api_key", "")
	v.SetDefault("geocode.nominatim_url", "https://nominatim.openstreetmap.org/search")
	v.SetDefault("geocode.nominatim_user_agent", "agency-map/1.0")
	v.SetDefault("geocode.min_delay_ms", 100)
	v.SetDefault("geocode.timeout_secs", 30)
	v.SetDefault("geocode.max_attempts", 2)
	v.SetDefault("geocode.initial_backoff_ms", 500)
	v.SetDefault("geocode.concurrency", 4)
	v.SetDefault("cache.driver", "sqlite")
	v.SetDefault("cache.path", ".cache/geocode.db")
	v.SetDefault("cache.database_url", "")
	v.SetDefault("cache.retry_failures", true)
	v.SetDefault("output.dir", ".")
	v.SetDefault("output.enriched_file", "geocoded_results.csv")
	v.SetDefault("output.failed_file", "failed_geocodes.csv")
	v.SetDefault("server.port", 8050)
	v.SetDefault("server.allowed_origins", []string{"*"})
	v.SetDefault("server.data_file", "")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

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
