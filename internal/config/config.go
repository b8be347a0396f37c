package config

import (
	"fmt"
	"os"
	"reflect"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

// Config captures the runtime configuration for the pacing service.
type Config struct {
	Server        ServerConfig        `mapstructure:"server"`
	Redis         RedisConfig         `mapstructure:"redis"`
	Sheets        SheetsConfig        `mapstructure:"sheets"`
	Relay         RelayConfig         `mapstructure:"relay"`
	Cache         CacheConfig         `mapstructure:"cache"`
	Reporting     ReportingConfig     `mapstructure:"reporting"`
	Observability ObservabilityConfig `mapstructure:"observability"`
}

type ServerConfig struct {
	ListenAddr            string        `mapstructure:"listen_addr"`
	BodyLimitMB           int           `mapstructure:"body_limit_mb"`
	ReadTimeout           time.Duration `mapstructure:"read_timeout"`
	GracefulShutdownDelay time.Duration `mapstructure:"graceful_shutdown_delay"`
}

type RedisConfig struct {
	URL      string `mapstructure:"url"`
	DB       int    `mapstructure:"db"`
	PoolSize int    `mapstructure:"pool_size"`
}

// SheetsConfig points the engine at its tabular data source. BaseURL may
// be the spreadsheet API itself or this service's own relay endpoint.
type SheetsConfig struct {
	BaseURL       string        `mapstructure:"base_url"`
	SpreadsheetID string        `mapstructure:"spreadsheet_id"`
	APIKey        string        `mapstructure:"api_key"`
	ConfigRange   string        `mapstructure:"config_range"`
	FetchTimeout  time.Duration `mapstructure:"fetch_timeout"`
}

// RelayConfig controls the stateless pass-through endpoint.
type RelayConfig struct {
	UpstreamURL string        `mapstructure:"upstream_url"`
	Timeout     time.Duration `mapstructure:"timeout"`
}

type CacheConfig struct {
	RangeTTL time.Duration `mapstructure:"range_ttl"`
}

type ReportingConfig struct {
	Timezone string `mapstructure:"timezone"`
}

type ObservabilityConfig struct {
	OTLPEndpoint  string `mapstructure:"otlp_endpoint"`
	EnableOTLP    bool   `mapstructure:"enable_otlp"`
	EnableMetrics bool   `mapstructure:"enable_metrics"`
}

// Options controls the config loader behavior.
type Options struct {
	ConfigFile string
	EnvFile    string
}

// Load returns the merged configuration sourced from YAML and environment variables.
func Load(opts Options) (*Config, error) {
	if opts.EnvFile != "" {
		_ = godotenv.Load(opts.EnvFile)
	} else {
		_ = godotenv.Load()
	}

	v := viper.New()
	setDefaults(v)

	explicitFile := false
	if opts.ConfigFile != "" {
		v.SetConfigFile(opts.ConfigFile)
		explicitFile = true
	} else {
		if cfg := os.Getenv("PACER_CONFIG_FILE"); cfg != "" {
			v.SetConfigFile(cfg)
			explicitFile = true
		}
	}

	if !explicitFile {
		// Allow standard lookup locations when no explicit file is provided.
		v.SetConfigName("pacer")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	v.SetEnvPrefix("PACER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg, viper.DecodeHook(timeStringToDurationHook())); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate ensures required values are set and fills defaults.
func (c *Config) Validate() error {
	var missing []string

	if c.Redis.URL == "" {
		missing = append(missing, "PACER_REDIS_URL")
	}
	if c.Sheets.SpreadsheetID == "" {
		missing = append(missing, "PACER_SHEETS_SPREADSHEET_ID")
	}
	if c.Sheets.APIKey == "" {
		missing = append(missing, "PACER_SHEETS_API_KEY")
	}

	if len(missing) > 0 {
		return fmt.Errorf("missing required configuration: %s", strings.Join(missing, ", "))
	}

	if strings.TrimSpace(c.Sheets.BaseURL) == "" {
		c.Sheets.BaseURL = "https://sheets.googleapis.com/v4/spreadsheets"
	}
	c.Sheets.BaseURL = strings.TrimRight(c.Sheets.BaseURL, "/")
	if strings.TrimSpace(c.Sheets.ConfigRange) == "" {
		c.Sheets.ConfigRange = "Config!A:G"
	}
	if c.Sheets.FetchTimeout <= 0 {
		c.Sheets.FetchTimeout = 15 * time.Second
	}

	if strings.TrimSpace(c.Relay.UpstreamURL) == "" {
		c.Relay.UpstreamURL = "https://sheets.googleapis.com/v4/spreadsheets"
	}
	c.Relay.UpstreamURL = strings.TrimRight(c.Relay.UpstreamURL, "/")
	if c.Relay.Timeout <= 0 {
		c.Relay.Timeout = 15 * time.Second
	}

	if c.Cache.RangeTTL < 0 {
		return fmt.Errorf("cache.range_ttl must be >= 0")
	}
	if c.Redis.PoolSize < 0 {
		return fmt.Errorf("redis.pool_size must be >= 0")
	}

	reportingTZ := strings.TrimSpace(c.Reporting.Timezone)
	if reportingTZ == "" {
		reportingTZ = "UTC"
	}
	if _, err := time.LoadLocation(reportingTZ); err != nil {
		return fmt.Errorf("invalid reporting.timezone: %w", err)
	}
	c.Reporting.Timezone = reportingTZ

	return nil
}

// Location resolves the validated reporting timezone.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Reporting.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.listen_addr", ":8080")
	v.SetDefault("server.body_limit_mb", 5)
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.graceful_shutdown_delay", "5s")

	v.SetDefault("redis.url", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.pool_size", 20)

	// Empty defaults register the keys so AutomaticEnv can bind them
	// during Unmarshal.
	v.SetDefault("sheets.base_url", "")
	v.SetDefault("sheets.spreadsheet_id", "")
	v.SetDefault("sheets.api_key", "")
	v.SetDefault("sheets.config_range", "Config!A:G")
	v.SetDefault("sheets.fetch_timeout", "15s")

	v.SetDefault("relay.upstream_url", "")

	v.SetDefault("relay.timeout", "15s")

	v.SetDefault("cache.range_ttl", "2m")

	v.SetDefault("reporting.timezone", "UTC")

	v.SetDefault("observability.enable_otlp", false)
	v.SetDefault("observability.enable_metrics", true)
	v.SetDefault("observability.otlp_endpoint", "http://localhost:4317")
}

func timeStringToDurationHook() mapstructure.DecodeHookFunc {
	return func(from reflect.Type, to reflect.Type, data interface{}) (interface{}, error) {
		if to != reflect.TypeOf(time.Duration(0)) {
			return data, nil
		}

		switch v := data.(type) {
		case time.Duration:
			return v, nil
		case string:
			d, err := time.ParseDuration(v)
			if err != nil {
				return nil, err
			}
			return d, nil
		default:
			return nil, fmt.Errorf("cannot decode %T into time.Duration", data)
		}
	}
}
