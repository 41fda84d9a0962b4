package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Config holds runtime parameters for the service.
// Zero values mean "unspecified" and are replaced by defaults in Validate.
type Config struct {
	Addr      string          `json:"addr" yaml:"addr" toml:"addr"`
	LogLevel  string          `json:"log_level" yaml:"log_level" toml:"log_level"`
	GPU       GPUConfig       `json:"gpu" yaml:"gpu" toml:"gpu"`
	MT        MTConfig        `json:"mt" yaml:"mt" toml:"mt"`
	Telemetry TelemetryConfig `json:"telemetry" yaml:"telemetry" toml:"telemetry"`
}

// GPUConfig mirrors the global GPU configuration block.
type GPUConfig struct {
	Enabled          bool `json:"enabled" yaml:"enabled" toml:"enabled"`
	DeviceID         int  `json:"device_id" yaml:"device_id" toml:"device_id"`
	MemoryLimitMB    int  `json:"memory_limit_mb" yaml:"memory_limit_mb" toml:"memory_limit_mb"`
	EnableMemoryPool bool `json:"enable_memory_pool" yaml:"enable_memory_pool" toml:"enable_memory_pool"`
	MemoryPoolSizeMB int  `json:"memory_pool_size_mb" yaml:"memory_pool_size_mb" toml:"memory_pool_size_mb"`
	EnableProfiling  bool `json:"enable_profiling" yaml:"enable_profiling" toml:"enable_profiling"`
}

// ModelGPUConfig is the per-model GPU block.
type ModelGPUConfig struct {
	UseGPU             bool   `json:"use_gpu" yaml:"use_gpu" toml:"use_gpu"`
	DeviceID           int    `json:"device_id" yaml:"device_id" toml:"device_id"`
	BatchSize          int    `json:"batch_size" yaml:"batch_size" toml:"batch_size"`
	EnableQuantization bool   `json:"enable_quantization" yaml:"enable_quantization" toml:"enable_quantization"`
	Precision          string `json:"precision" yaml:"precision" toml:"precision"`
}

// MTConfig is the machine-translation block.
type MTConfig struct {
	ModelsBasePath      string              `json:"models_base_path" yaml:"models_base_path" toml:"models_base_path"`
	SupportedLanguages  []string            `json:"supported_languages" yaml:"supported_languages" toml:"supported_languages"`
	LanguagePairs       map[string][]string `json:"language_pairs" yaml:"language_pairs" toml:"language_pairs"`
	MaxConcurrentModels int                 `json:"max_concurrent_models" yaml:"max_concurrent_models" toml:"max_concurrent_models"`
	Model               ModelGPUConfig      `json:"model_gpu" yaml:"model_gpu" toml:"model_gpu"`
	Batch               BatchConfig         `json:"batch" yaml:"batch" toml:"batch"`
	Streaming           StreamingConfig     `json:"streaming" yaml:"streaming" toml:"streaming"`
	Caching             CachingConfig       `json:"caching" yaml:"caching" toml:"caching"`
	Quality             QualityConfig       `json:"quality" yaml:"quality" toml:"quality"`
	ErrorHandling       ErrorHandlingConfig `json:"error_handling" yaml:"error_handling" toml:"error_handling"`
}

// BatchConfig bounds batch translation.
type BatchConfig struct {
	MaxBatchSize int `json:"max_batch_size" yaml:"max_batch_size" toml:"max_batch_size"`
}

// StreamingConfig bounds streaming sessions.
type StreamingConfig struct {
	SessionTimeoutMinutes int `json:"session_timeout_minutes" yaml:"session_timeout_minutes" toml:"session_timeout_minutes"`
}

// SessionTimeout returns the idle expiry as a duration.
func (s StreamingConfig) SessionTimeout() time.Duration {
	return time.Duration(s.SessionTimeoutMinutes) * time.Minute
}

// CachingConfig controls the translation cache.
type CachingConfig struct {
	Enabled      bool `json:"enabled" yaml:"enabled" toml:"enabled"`
	MaxCacheSize int  `json:"max_cache_size" yaml:"max_cache_size" toml:"max_cache_size"`
}

// QualityConfig holds assessment thresholds and alternative generation knobs.
type QualityConfig struct {
	High                 float64 `json:"high" yaml:"high" toml:"high"`
	Medium               float64 `json:"medium" yaml:"medium" toml:"medium"`
	Low                  float64 `json:"low" yaml:"low" toml:"low"`
	GenerateAlternatives bool    `json:"generate_alternatives" yaml:"generate_alternatives" toml:"generate_alternatives"`
	MaxAlternatives      int     `json:"max_alternatives" yaml:"max_alternatives" toml:"max_alternatives"`
}

// ErrorHandlingConfig configures the recovery engine.
type ErrorHandlingConfig struct {
	EnableRetry             bool    `json:"enable_retry" yaml:"enable_retry" toml:"enable_retry"`
	MaxRetryAttempts        int     `json:"max_retry_attempts" yaml:"max_retry_attempts" toml:"max_retry_attempts"`
	InitialRetryDelayMs     int     `json:"initial_retry_delay_ms" yaml:"initial_retry_delay_ms" toml:"initial_retry_delay_ms"`
	RetryBackoffMultiplier  float64 `json:"retry_backoff_multiplier" yaml:"retry_backoff_multiplier" toml:"retry_backoff_multiplier"`
	MaxRetryDelayMs         int     `json:"max_retry_delay_ms" yaml:"max_retry_delay_ms" toml:"max_retry_delay_ms"`
	TranslationTimeoutMs    int     `json:"translation_timeout_ms" yaml:"translation_timeout_ms" toml:"translation_timeout_ms"`
	EnableDegradedMode      bool    `json:"enable_degraded_mode" yaml:"enable_degraded_mode" toml:"enable_degraded_mode"`
	MaxDegradedDurationMins int     `json:"max_degraded_duration_minutes" yaml:"max_degraded_duration_minutes" toml:"max_degraded_duration_minutes"`
}

// TelemetryConfig configures the metric store and background sampler.
type TelemetryConfig struct {
	MaxDataPoints        int  `json:"max_data_points" yaml:"max_data_points" toml:"max_data_points"`
	CollectionIntervalMs int  `json:"collection_interval_ms" yaml:"collection_interval_ms" toml:"collection_interval_ms"`
	EnableSampler        bool `json:"enable_sampler" yaml:"enable_sampler" toml:"enable_sampler"`
}

// Load reads a configuration file based on its extension.
// Supports: .yaml/.yml, .json, .toml
func Load(path string) (Config, error) {
	var cfg Config
	if path == "" {
		return cfg, fmt.Errorf("empty config path")
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return cfg, err
		}
	case ".json":
		if err := json.Unmarshal(b, &cfg); err != nil {
			return cfg, err
		}
	case ".toml":
		if err := toml.Unmarshal(b, &cfg); err != nil {
			return cfg, err
		}
	default:
		return cfg, fmt.Errorf("unsupported config extension: %s", ext)
	}
	return cfg, nil
}
