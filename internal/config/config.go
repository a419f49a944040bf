package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Geocoder GeocoderConfig `yaml:"geocoder" mapstructure:"geocoder"`
	Cache    CacheConfig    `yaml:"cache" mapstructure:"cache"`
	Dataset  DatasetConfig  `yaml:"dataset" mapstructure:"dataset"`
	Report   ReportConfig   `yaml:"report" mapstructure:"report"`
	Log      LogConfig      `yaml:"log" mapstructure:"log"`
}

// GeocoderConfig configures the upstream search client and its rate and
// retry contract. The upstream budget is global and per-process, so one
// client instance is shared by every pass.
type GeocoderConfig struct {
	BaseURL          string `yaml:"base_url" mapstructure:"base_url"`
	UserAgent        string `yaml:"user_agent" mapstructure:"user_agent"`
	MinIntervalMS    int    `yaml:"min_interval_ms" mapstructure:"min_interval_ms"`
	TimeoutSecs      int    `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	MaxAttempts      int    `yaml:"max_attempts" mapstructure:"max_attempts"`
	InitialBackoffMS int    `yaml:"initial_backoff_ms" mapstructure:"initial_backoff_ms"`
	MaxBackoffMS     int    `yaml:"max_backoff_ms" mapstructure:"max_backoff_ms"`
}

// CacheConfig configures the durable resolution cache.
type CacheConfig struct {
	Path            string `yaml:"path" mapstructure:"path"`
	CheckpointEvery int    `yaml:"checkpoint_every" mapstructure:"checkpoint_every"`
}

// DatasetConfig names the geographic columns in the input CSV. All
// other columns pass through to the output unchanged.
type DatasetConfig struct {
	CountryColumn  string `yaml:"country_column" mapstructure:"country_column"`
	ProvinceColumn string `yaml:"province_column" mapstructure:"province_column"`
	RegionColumn   string `yaml:"region_column" mapstructure:"region_column"`
	RegionFallback string `yaml:"region_fallback" mapstructure:"region_fallback"`
}

// ReportConfig configures the per-run YAML report.
type ReportConfig struct {
	Path string `yaml:"path" mapstructure:"path"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("VINEGEO")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("geocoder.base_url", "https://nominatim.openstreetmap.org")
	v.SetDefault("geocoder.user_agent", "vinegeo/1.0 (wine-review geocoding batch)")
	v.SetDefault("geocoder.min_interval_ms", 1600)
	v.SetDefault("geocoder.timeout_secs", 30)
	v.SetDefault("geocoder.max_attempts", 5)
	v.SetDefault("geocoder.initial_backoff_ms", 1000)
	v.SetDefault("geocoder.max_backoff_ms", 60000)
	v.SetDefault("cache.path", "geocache.json")
	v.SetDefault("cache.checkpoint_every", 50)
	v.SetDefault("dataset.country_column", "country")
	v.SetDefault("dataset.province_column", "province")
	v.SetDefault("dataset.region_column", "region_1")
	v.SetDefault("dataset.region_fallback", "region")
	v.SetDefault("report.path", "vinegeo-report.yaml")
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
