// Package config provides the engine configuration. A single Config structure
// covers the chunk pipeline, spill behavior, object storage access, and
// observability, loaded from YAML with COMET_ environment overrides.
//
// Example usage:
//
//	cfg, err := config.Load("comet.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
package config

import (
	"strings"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/cometdb/comet/pkg/errors"
)

// Config is the engine configuration.
type Config struct {
	// Engine settings control the chunk pipeline
	Engine EngineConfig `yaml:"engine"`

	// Spill settings control the merge mask buffer
	Spill SpillConfig `yaml:"spill"`

	// Storage settings configure object store access
	Storage StorageConfig `yaml:"storage"`

	// Observability settings for logging and tracing
	Observability ObservabilityConfig `yaml:"observability"`
}

// EngineConfig contains the chunk pipeline settings.
type EngineConfig struct {
	// ChunkSize is the soft row-count target of a fetched chunk
	ChunkSize int `yaml:"chunk_size"`
	// MergeKeyColumns is the default sort-key prefix length for merges
	MergeKeyColumns int `yaml:"merge_key_columns"`
	// Dedup enables multi-version supersede semantics during merges
	Dedup bool `yaml:"dedup"`
}

// SpillConfig controls when and how merge masks spill to disk.
type SpillConfig struct {
	// Dir receives spill files (empty means the OS temp dir)
	Dir string `yaml:"dir"`
	// MemoryLimit caps in-memory masks before spilling
	MemoryLimit int `yaml:"memory_limit"`
	// Compression selects the spill frame codec (none, lz4, zstd, s2, snappy, gzip)
	Compression string `yaml:"compression"`
}

// StorageConfig configures S3 access for scan streams.
type StorageConfig struct {
	// Region is the AWS region of the bucket
	Region string `yaml:"region"`
	// Bucket holds the scanned objects
	Bucket string `yaml:"bucket"`
	// ReadAheadSize is the per-stream read-ahead buffer in bytes
	ReadAheadSize int64 `yaml:"read_ahead_size"`
}

// ObservabilityConfig contains logging and tracing settings.
type ObservabilityConfig struct {
	// LogLevel is one of debug, info, warn, error
	LogLevel string `yaml:"log_level"`
	// LogFormat is json or console
	LogFormat string `yaml:"log_format"`
	// EnableTracing turns on span emission per fetch
	EnableTracing bool `yaml:"enable_tracing"`
}

// Default returns a configuration with production defaults.
func Default() *Config {
	return &Config{
		Engine: EngineConfig{
			ChunkSize:       4096,
			MergeKeyColumns: 1,
		},
		Spill: SpillConfig{
			MemoryLimit: 1 << 20,
			Compression: "lz4",
		},
		Storage: StorageConfig{
			Region:        "us-east-1",
			ReadAheadSize: 1 << 20,
		},
		Observability: ObservabilityConfig{
			LogLevel:  "info",
			LogFormat: "json",
		},
	}
}

// Load reads the configuration file at path, layered over the defaults, with
// COMET_ environment variables taking precedence (COMET_ENGINE_CHUNK_SIZE
// overrides engine.chunk_size). An empty path loads defaults and environment
// only.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("COMET")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v, Default())

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.Wrap(err, errors.ErrorTypeConfig, "read configuration file")
		}
	}

	cfg := &Config{}
	decode := func(dec *mapstructure.DecoderConfig) { dec.TagName = "yaml" }
	if err := v.Unmarshal(cfg, decode); err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeConfig, "decode configuration")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("engine.chunk_size", d.Engine.ChunkSize)
	v.SetDefault("engine.merge_key_columns", d.Engine.MergeKeyColumns)
	v.SetDefault("engine.dedup", d.Engine.Dedup)
	v.SetDefault("spill.dir", d.Spill.Dir)
	v.SetDefault("spill.memory_limit", d.Spill.MemoryLimit)
	v.SetDefault("spill.compression", d.Spill.Compression)
	v.SetDefault("storage.region", d.Storage.Region)
	v.SetDefault("storage.bucket", d.Storage.Bucket)
	v.SetDefault("storage.read_ahead_size", d.Storage.ReadAheadSize)
	v.SetDefault("observability.log_level", d.Observability.LogLevel)
	v.SetDefault("observability.log_format", d.Observability.LogFormat)
	v.SetDefault("observability.enable_tracing", d.Observability.EnableTracing)
}

// YAML renders the configuration as a YAML document, suitable for writing an
// example file or inspecting the effective settings.
func (c *Config) YAML() ([]byte, error) {
	out, err := yaml.Marshal(c)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeConfig, "encode configuration")
	}
	return out, nil
}

// Validate checks required fields and value ranges. Call it after loading to
// catch errors early.
func (c *Config) Validate() error {
	if c.Engine.ChunkSize <= 0 {
		return errors.New(errors.ErrorTypeConfig, "engine.chunk_size must be positive")
	}
	if c.Engine.MergeKeyColumns <= 0 {
		return errors.New(errors.ErrorTypeConfig, "engine.merge_key_columns must be positive")
	}
	if c.Spill.MemoryLimit <= 0 {
		return errors.New(errors.ErrorTypeConfig, "spill.memory_limit must be positive")
	}
	switch c.Spill.Compression {
	case "", "none", "lz4", "zstd", "s2", "snappy", "gzip":
	default:
		return errors.Newf(errors.ErrorTypeConfig, "unknown spill compression %q", c.Spill.Compression)
	}
	if c.Storage.ReadAheadSize < 0 {
		return errors.New(errors.ErrorTypeConfig, "storage.read_ahead_size cannot be negative")
	}
	switch c.Observability.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return errors.Newf(errors.ErrorTypeConfig, "unknown log level %q", c.Observability.LogLevel)
	}
	return nil
}
