package config

import (
	"os"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// Default returns the configuration used when no file or environment
// overrides are present. Kept in sync with the viper defaults in Load.
func Default() *Config {
	return &Config{
		OCR: OCRConfig{
			Languages:       []string{"eng"},
			MinLines:        3,
			MinConfidence:   0.70,
			FallbackModel:   "claude-haiku-4-5-20251001",
			FallbackTimeout: 30,
		},
		Hunter: HunterConfig{
			BaseURL: "https://api.hunter.io/v2",
		},
		Clearbit: ClearbitConfig{
			LogoBaseURL:         "https://logo.clearbit.com",
			AutocompleteBaseURL: "https://autocomplete.clearbit.com",
		},
		Enrich: EnrichConfig{
			TimeoutSecs: 10,
			SourceOrder: []string{"hunter", "clearbit", "heuristic"},
		},
		Store: StoreConfig{
			Driver: "sqlite",
			Path:   "cardscan.db",
		},
		Export: ExportConfig{
			OutputDir: "outputs",
		},
		Batch: BatchConfig{
			MaxConcurrentImages: 4,
		},
		Server: ServerConfig{
			Port:        8080,
			MaxUploadMB: 16,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
		Monitoring: MonitoringConfig{
			FailureRateThreshold:  0.25,
			FallbackRateThreshold: 0.50,
			SampleSize:            200,
			CheckIntervalSecs:     300,
		},
	}
}

// WriteDefault writes a starter config file with all defaults spelled out.
// An existing file is never overwritten.
func WriteDefault(path string) error {
	if _, err := os.Stat(path); err == nil {
		return eris.Errorf("config: %s already exists", path)
	}

	data, err := yaml.Marshal(Default())
	if err != nil {
		return eris.Wrap(err, "config: marshal defaults")
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return eris.Wrap(err, "config: write file")
	}
	return nil
}
