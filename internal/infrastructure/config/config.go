package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"

	"github.com/davidleathers/dependable-endpoint-agent/internal/domain/risk"
)

// Config is the full agent configuration. Uplink settings are controlled by
// server policy, not user preference.
type Config struct {
	DataDir   string `koanf:"data_dir" validate:"required"`
	ModelPath string `koanf:"model_path" validate:"required"`
	DeviceID  string `koanf:"device_id" validate:"required"`
	Secret    string `koanf:"secret" validate:"required"`

	Collectors CollectorsConfig `koanf:"collectors"`
	Features   FeaturesConfig   `koanf:"features"`
	Risk       risk.Thresholds  `koanf:"risk"`
	Uplink     UplinkConfig     `koanf:"uplink"`
	Daemon     DaemonConfig     `koanf:"daemon"`
	Log        LogConfig        `koanf:"log"`
	Metrics    MetricsConfig    `koanf:"metrics"`
}

type CollectorsConfig struct {
	Process       bool `koanf:"process"`
	Network       bool `koanf:"network"`
	FileIntegrity bool `koanf:"file_integrity"`
	Privilege     bool `koanf:"privilege"`

	ProcessInterval time.Duration `koanf:"process_interval" validate:"gte=0"`
	FileInterval    time.Duration `koanf:"file_interval" validate:"gte=0"`
	// FilePaths overrides the built-in integrity scan roots when non-empty.
	FilePaths []string `koanf:"file_paths"`
}

type FeaturesConfig struct {
	WindowEvents int `koanf:"window_events" validate:"gte=1"`
	FeatureDim   int `koanf:"feature_dim" validate:"gte=1"`
}

type UplinkConfig struct {
	Enabled           bool          `koanf:"enabled"`
	Endpoint          string        `koanf:"endpoint" validate:"required_if=Enabled true,omitempty,url"`
	ReportInterval    time.Duration `koanf:"report_interval" validate:"gte=0"`
	RequestsPerSecond int           `koanf:"requests_per_second" validate:"gte=1"`
}

type DaemonConfig struct {
	// Interval between cycles; zero means run one cycle and exit.
	Interval time.Duration `koanf:"interval" validate:"gte=0"`
}

type LogConfig struct {
	Level string `koanf:"level" validate:"oneof=debug info warn error"`
	JSON  bool   `koanf:"json"`
}

type MetricsConfig struct {
	Enabled bool   `koanf:"enabled"`
	Addr    string `koanf:"addr" validate:"omitempty,hostname_port"`
}

// Default returns the stock configuration used when no file or environment
// overrides are present.
func Default() *Config {
	return &Config{
		DataDir:   ".dadm",
		ModelPath: "model.onnx",
		DeviceID:  "local-device",
		Secret:    "device-secret-placeholder",
		Collectors: CollectorsConfig{
			Process:         true,
			Network:         true,
			FileIntegrity:   true,
			Privilege:       true,
			ProcessInterval: 5 * time.Second,
			FileInterval:    60 * time.Second,
		},
		Features: FeaturesConfig{
			WindowEvents: 100,
			FeatureDim:   64,
		},
		Risk: risk.DefaultThresholds(),
		Uplink: UplinkConfig{
			Enabled:           false,
			ReportInterval:    300 * time.Second,
			RequestsPerSecond: 10,
		},
		Daemon: DaemonConfig{
			Interval: 0,
		},
		Log: LogConfig{
			Level: "info",
			JSON:  true,
		},
		Metrics: MetricsConfig{
			Enabled: false,
			Addr:    ":9464",
		},
	}
}

// Load builds the configuration by merging, in order of increasing
// precedence: built-in defaults, the YAML file at path (skipped when absent),
// and DEA_* environment variables. Nested keys in the environment use double
// underscores, e.g. DEA_FEATURES__WINDOW_EVENTS=200.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(Default(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("loading defaults: %w", err)
	}

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			if !errors.Is(err, os.ErrNotExist) {
				return nil, fmt.Errorf("loading config file %s: %w", path, err)
			}
		}
	}

	if err := k.Load(env.Provider("DEA_", ".", func(s string) string {
		return strings.Replace(strings.ToLower(
			strings.TrimPrefix(s, "DEA_")), "__", ".", -1)
	}), nil); err != nil {
		return nil, fmt.Errorf("loading environment variables: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks structural bounds: positive window and dimension, ordered
// thresholds inside [0,1], non-negative intervals.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}
