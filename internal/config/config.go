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
	OCR      OCRConfig      `yaml:"ocr" mapstructure:"ocr"`
	Hunter   HunterConfig   `yaml:"hunter" mapstructure:"hunter"`
	Clearbit ClearbitConfig `yaml:"clearbit" mapstructure:"clearbit"`
	Enrich   EnrichConfig   `yaml:"enrich" mapstructure:"enrich"`
	Store    StoreConfig    `yaml:"store" mapstructure:"store"`
	Export   ExportConfig   `yaml:"export" mapstructure:"export"`
	Batch    BatchConfig    `yaml:"batch" mapstructure:"batch"`
	Server   ServerConfig   `yaml:"server" mapstructure:"server"`
	Log      LogConfig      `yaml:"log" mapstructure:"log"`

	Monitoring MonitoringConfig `yaml:"monitoring" mapstructure:"monitoring"`
}

// OCRConfig configures the recognition engines and the fallback policy.
type OCRConfig struct {
	Languages []string `yaml:"languages" mapstructure:"languages"`
	GPU       bool     `yaml:"gpu" mapstructure:"gpu"`

	// Sufficiency thresholds: primary output below either triggers the
	// fallback engine. Tunable because fallback has a per-card cost.
	MinLines      int     `yaml:"min_lines" mapstructure:"min_lines"`
	MinConfidence float64 `yaml:"min_confidence" mapstructure:"min_confidence"`

	// Fallback engine (Claude vision).
	AnthropicKey    string `yaml:"anthropic_api_key" mapstructure:"anthropic_api_key"`
	FallbackModel   string `yaml:"fallback_model" mapstructure:"fallback_model"`
	FallbackTimeout int    `yaml:"fallback_timeout_secs" mapstructure:"fallback_timeout_secs"`
}

// HunterConfig holds Hunter.io API settings.
type HunterConfig struct {
	Key     string `yaml:"key" mapstructure:"key"`
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
}

// ClearbitConfig holds Clearbit logo/autocomplete settings.
type ClearbitConfig struct {
	LogoBaseURL         string `yaml:"logo_base_url" mapstructure:"logo_base_url"`
	AutocompleteBaseURL string `yaml:"autocomplete_base_url" mapstructure:"autocomplete_base_url"`
}

// EnrichConfig configures the enrichment aggregator.
type EnrichConfig struct {
	TimeoutSecs int `yaml:"timeout_secs" mapstructure:"timeout_secs"`

	// SourceOrder is the merge priority; first non-empty value per field wins.
	SourceOrder []string `yaml:"source_order" mapstructure:"source_order"`
}

// StoreConfig configures the run-log database backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
	Path        string `yaml:"path" mapstructure:"path"`
}

// ExportConfig configures contact export files.
type ExportConfig struct {
	OutputDir string `yaml:"output_dir" mapstructure:"output_dir"`
}

// BatchConfig configures batch processing.
type BatchConfig struct {
	MaxConcurrentImages int `yaml:"max_concurrent_images" mapstructure:"max_concurrent_images"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Port          int `yaml:"port" mapstructure:"port"`
	MaxUploadMB   int `yaml:"max_upload_mb" mapstructure:"max_upload_mb"`
}

// MonitoringConfig configures run-health checks and webhook alerts.
type MonitoringConfig struct {
	WebhookURL string `yaml:"webhook_url" mapstructure:"webhook_url"`

	// Thresholds over the most recent SampleSize runs.
	FailureRateThreshold  float64 `yaml:"failure_rate_threshold" mapstructure:"failure_rate_threshold"`
	FallbackRateThreshold float64 `yaml:"fallback_rate_threshold" mapstructure:"fallback_rate_threshold"`
	SampleSize            int     `yaml:"sample_size" mapstructure:"sample_size"`

	CheckIntervalSecs int `yaml:"check_interval_secs" mapstructure:"check_interval_secs"`
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
	v.SetEnvPrefix("CARDSCAN")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.max_upload_mb", 16)
	v.SetDefault("batch.max_concurrent_images", 4)
	v.SetDefault("ocr.languages", []string{"eng"})
	v.SetDefault("ocr.gpu", false)
	v.SetDefault("ocr.min_lines", 3)
	v.SetDefault("ocr.min_confidence", 0.70)
	v.SetDefault("ocr.fallback_model", "claude-haiku-4-5-20251001")
	// Secrets need a registered key for AutomaticEnv to reach Unmarshal.
	v.SetDefault("ocr.anthropic_api_key", "")
	v.SetDefault("hunter.key", "")
	v.SetDefault("ocr.fallback_timeout_secs", 30)
	v.SetDefault("hunter.base_url", "https://api.hunter.io/v2")
	v.SetDefault("clearbit.logo_base_url", "https://logo.clearbit.com")
	v.SetDefault("clearbit.autocomplete_base_url", "https://autocomplete.clearbit.com")
	v.SetDefault("enrich.timeout_secs", 10)
	v.SetDefault("enrich.source_order", []string{"hunter", "clearbit", "heuristic"})
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.path", "cardscan.db")
	v.SetDefault("export.output_dir", "outputs")
	v.SetDefault("monitoring.failure_rate_threshold", 0.25)
	v.SetDefault("monitoring.fallback_rate_threshold", 0.50)
	v.SetDefault("monitoring.sample_size", 200)
	v.SetDefault("monitoring.check_interval_secs", 300)

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
