// Package config loads and validates this program's configuration from CLI
// flags, environment variables, a config file, and defaults, in that order
// of precedence, mirroring the teacher's pkg/config package.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/marmos91/nfsbench/internal/bytesize"
)

// EnvPrefix is the prefix every environment variable override carries, e.g.
// NFSBENCH_MOUNT_PORT.
const EnvPrefix = "NFSBENCH"

// Config is this program's full static configuration. CLI flags bound via
// cobra/viper take precedence over environment variables, which take
// precedence over a config file, which takes precedence over the defaults
// below.
type Config struct {
	// Mount describes the target NFS export and connection shape.
	Mount MountConfig `mapstructure:"mount" yaml:"mount" validate:"required"`

	// Run controls how long and how hard the benchmark drives the mount.
	Run RunSettings `mapstructure:"run" yaml:"run" validate:"required"`

	// Sampler controls the fixed-cadence sampler/reporter.
	Sampler SamplerSettings `mapstructure:"sampler" yaml:"sampler" validate:"required"`

	// Logging controls log output behavior.
	Logging LoggingConfig `mapstructure:"logging" yaml:"logging" validate:"required"`

	// Metrics controls the optional Prometheus/debug HTTP server.
	Metrics MetricsConfig `mapstructure:"metrics" yaml:"metrics"`

	// Output controls where the raw log and gnuplot scripts are written.
	Output OutputConfig `mapstructure:"output" yaml:"output"`
}

// MountConfig identifies the NFS export and how this client connects to it.
type MountConfig struct {
	Host string `mapstructure:"host" yaml:"host" validate:"required"`
	Path string `mapstructure:"path" yaml:"path" validate:"required"`
	// Port is the NFS service port; 0 means resolve via portmap.
	Port int `mapstructure:"port" yaml:"port" validate:"omitempty,min=1,max=65535"`

	BufferSize  bytesize.ByteSize `mapstructure:"buffer_size" yaml:"buffer_size"`
	ReqMax      int               `mapstructure:"req_max" yaml:"req_max" validate:"omitempty,min=2"`
	DialTimeout time.Duration     `mapstructure:"dial_timeout" yaml:"dial_timeout"`
}

// RunSettings controls concurrency and duration of one benchmark run.
type RunSettings struct {
	Duration     time.Duration `mapstructure:"duration" yaml:"duration" validate:"required,gt=0"`
	MaxJobs      int           `mapstructure:"max_jobs" yaml:"max_jobs" validate:"required,min=1"`
	MaxReceivers int           `mapstructure:"max_receivers" yaml:"max_receivers" validate:"required,min=1"`
	// ReadBlockSize is only consulted by the read workload.
	ReadBlockSize bytesize.ByteSize `mapstructure:"read_block_size" yaml:"read_block_size"`
}

// SamplerSettings controls the fixed-cadence sampler/reporter.
type SamplerSettings struct {
	Period      time.Duration `mapstructure:"period" yaml:"period" validate:"required,gt=0"`
	MarkSeconds int           `mapstructure:"mark_seconds" yaml:"mark_seconds" validate:"omitempty,min=0"`
}

// LoggingConfig controls logging behavior, mirroring the teacher's
// internal/logger configuration surface.
type LoggingConfig struct {
	Level  string `mapstructure:"level" yaml:"level" validate:"required,oneof=DEBUG INFO WARN ERROR debug info warn error"`
	Format string `mapstructure:"format" yaml:"format" validate:"required,oneof=text json"`
	Output string `mapstructure:"output" yaml:"output" validate:"required"`
	Color  string `mapstructure:"color" yaml:"color" validate:"omitempty,oneof=auto always never"`
}

// MetricsConfig controls the optional Prometheus/chi debug HTTP server.
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled" yaml:"enabled"`
	Addr    string `mapstructure:"addr" yaml:"addr"`
}

// OutputConfig controls where run artifacts (raw log, gnuplot scripts) land.
type OutputConfig struct {
	Dir         string `mapstructure:"dir" yaml:"dir"`
	GnuplotTerm string `mapstructure:"gnuplot_term" yaml:"gnuplot_term"`
}

// Load reads configuration from configPath (or the default search path if
// empty), layering environment variables over it, and validates the
// result. CLI flags are not bound here; the caller overlays them on the
// returned Config.
func Load(v *viper.Viper, configPath string) (*Config, error) {
	setupViper(v, configPath)

	if _, err := readConfigFile(v); err != nil {
		return nil, err
	}

	// Unmarshal unconditionally, starting from the defaults. Environment
	// overrides apply only to keys viper already knows from the config file;
	// without a config file, no environment variable is applied.
	cfg := Default()
	if err := v.Unmarshal(cfg, viper.DecodeHook(decodeHooks())); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// Default returns a Config populated with this program's defaults; Load
// starts from this before layering file/env/flags on top.
func Default() *Config {
	return &Config{
		Mount: MountConfig{
			BufferSize:  bytesize.ByteSize(256 << 10),
			ReqMax:      1024,
			DialTimeout: 10 * time.Second,
		},
		Run: RunSettings{
			Duration:      10 * time.Second,
			MaxJobs:       1,
			MaxReceivers:  1,
			ReadBlockSize: bytesize.ByteSize(8 << 10),
		},
		Sampler: SamplerSettings{
			Period:      100 * time.Millisecond,
			MarkSeconds: 1,
		},
		Logging: LoggingConfig{
			Level:  "INFO",
			Format: "text",
			Output: "stderr",
			Color:  "auto",
		},
		Metrics: MetricsConfig{
			Enabled: false,
			Addr:    "127.0.0.1:9090",
		},
		Output: OutputConfig{
			GnuplotTerm: "png",
		},
	}
}

// Validate runs struct-tag validation (via go-playground/validator) plus a
// handful of cross-field checks the tag language can't express.
func Validate(cfg *Config) error {
	v := validator.New()
	if err := v.Struct(cfg); err != nil {
		return err
	}
	if cfg.Mount.ReqMax != 0 && cfg.Mount.ReqMax&(cfg.Mount.ReqMax-1) != 0 {
		return fmt.Errorf("mount.req_max must be a power of two, got %d", cfg.Mount.ReqMax)
	}
	return nil
}

func setupViper(v *viper.Viper, configPath string) {
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
		return
	}
	v.AddConfigPath(defaultConfigDir())
	v.SetConfigName("config")
	v.SetConfigType("yaml")
}

func readConfigFile(v *viper.Viper) (bool, error) {
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return false, nil
		}
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("read config file: %w", err)
	}
	return true, nil
}

// decodeHooks composes the custom mapstructure decode hooks this config
// needs: human-readable durations and byte sizes, exactly as the teacher's
// pkg/config does for its own Duration/ByteSize fields.
func decodeHooks() mapstructure.DecodeHookFunc {
	return mapstructure.ComposeDecodeHookFunc(
		durationDecodeHook(),
		byteSizeDecodeHook(),
	)
}

func durationDecodeHook() mapstructure.DecodeHookFunc {
	return func(from, to reflect.Type, data any) (any, error) {
		if to != reflect.TypeOf(time.Duration(0)) {
			return data, nil
		}
		switch v := data.(type) {
		case string:
			return time.ParseDuration(v)
		case int:
			return time.Duration(v), nil
		case int64:
			return time.Duration(v), nil
		case float64:
			return time.Duration(v), nil
		default:
			return data, nil
		}
	}
}

func byteSizeDecodeHook() mapstructure.DecodeHookFunc {
	return func(from, to reflect.Type, data any) (any, error) {
		if to != reflect.TypeOf(bytesize.ByteSize(0)) {
			return data, nil
		}
		switch v := data.(type) {
		case string:
			return bytesize.ParseByteSize(v)
		case int:
			return bytesize.ByteSize(v), nil
		case int64:
			return bytesize.ByteSize(v), nil
		case uint64:
			return bytesize.ByteSize(v), nil
		case float64:
			return bytesize.ByteSize(v), nil
		default:
			return data, nil
		}
	}
}

func defaultConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "nfsbench")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, ".config", "nfsbench")
}

// Save writes cfg to path in YAML form, mirroring the teacher's SaveConfig.
func Save(cfg *Config, path string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}
	return nil
}
