package config

import (
	"fmt"

	"github.com/rs/zerolog"

	"mtd/pkg/types"
)

// Defaults substituted when a branch fails validation or is unspecified.
var defaults = Config{
	Addr:     ":8080",
	LogLevel: "info",
	GPU: GPUConfig{
		Enabled:          false,
		DeviceID:         0,
		MemoryLimitMB:    4096,
		EnableMemoryPool: true,
		MemoryPoolSizeMB: 512,
	},
	MT: MTConfig{
		ModelsBasePath:      "models/",
		SupportedLanguages:  []string{"en", "es", "fr", "de"},
		LanguagePairs:       map[string][]string{"en": {"es", "fr", "de"}, "es": {"en"}, "fr": {"en"}, "de": {"en"}},
		MaxConcurrentModels: 4,
		Model:               ModelGPUConfig{BatchSize: 8, Precision: "fp32"},
		Batch:               BatchConfig{MaxBatchSize: 8},
		Streaming:           StreamingConfig{SessionTimeoutMinutes: 5},
		Caching:             CachingConfig{Enabled: true, MaxCacheSize: 1000},
		Quality:             QualityConfig{High: 0.8, Medium: 0.6, Low: 0.4, GenerateAlternatives: true, MaxAlternatives: 3},
		ErrorHandling: ErrorHandlingConfig{
			EnableRetry:             true,
			MaxRetryAttempts:        3,
			InitialRetryDelayMs:     100,
			RetryBackoffMultiplier:  2.0,
			MaxRetryDelayMs:         2000,
			TranslationTimeoutMs:    5000,
			EnableDegradedMode:      true,
			MaxDegradedDurationMins: 10,
		},
	},
	Telemetry: TelemetryConfig{MaxDataPoints: 10000, CollectionIntervalMs: 1000, EnableSampler: true},
}

// Defaults returns a copy of the built-in default configuration.
func Defaults() Config { return defaults }

// Issue records one rejected config value and the default that replaced it.
type Issue struct {
	Path    string
	Message string
}

func (i Issue) String() string { return i.Path + ": " + i.Message }

// Validate checks the tree branch by branch. A violation is reported with
// its path and the offending branch is replaced with defaults; the returned
// config is always usable. Issues are also logged at warn level.
func (c Config) Validate(log zerolog.Logger) (Config, []Issue) {
	var issues []Issue
	reject := func(path, format string, args ...any) {
		is := Issue{Path: path, Message: fmt.Sprintf(format, args...)}
		issues = append(issues, is)
		log.Warn().Str("path", is.Path).Msg("config: " + is.Message)
	}

	out := c
	if out.Addr == "" {
		out.Addr = defaults.Addr
	}
	if out.LogLevel == "" {
		out.LogLevel = defaults.LogLevel
	}

	// GPU memory bounds: 512MB..32GB.
	if out.GPU.MemoryLimitMB == 0 {
		out.GPU.MemoryLimitMB = defaults.GPU.MemoryLimitMB
	} else if out.GPU.MemoryLimitMB < 512 || out.GPU.MemoryLimitMB > 32*1024 {
		reject("gpu.memory_limit_mb", "must be in [512, 32768], got %d", out.GPU.MemoryLimitMB)
		out.GPU.MemoryLimitMB = defaults.GPU.MemoryLimitMB
	}
	if out.GPU.MemoryPoolSizeMB == 0 {
		out.GPU.MemoryPoolSizeMB = defaults.GPU.MemoryPoolSizeMB
	} else if out.GPU.MemoryPoolSizeMB < 0 || out.GPU.MemoryPoolSizeMB > out.GPU.MemoryLimitMB {
		reject("gpu.memory_pool_size_mb", "must be in [0, memory_limit_mb], got %d", out.GPU.MemoryPoolSizeMB)
		out.GPU.MemoryPoolSizeMB = defaults.GPU.MemoryPoolSizeMB
	}
	if out.GPU.DeviceID < 0 {
		reject("gpu.device_id", "must be >= 0, got %d", out.GPU.DeviceID)
		out.GPU.DeviceID = defaults.GPU.DeviceID
	}

	// Model block.
	if out.MT.Model.BatchSize == 0 {
		out.MT.Model.BatchSize = defaults.MT.Model.BatchSize
	} else if out.MT.Model.BatchSize < 1 || out.MT.Model.BatchSize > 32 {
		reject("mt.model_gpu.batch_size", "must be in [1, 32], got %d", out.MT.Model.BatchSize)
		out.MT.Model.BatchSize = defaults.MT.Model.BatchSize
	}
	switch out.MT.Model.Precision {
	case "":
		out.MT.Model.Precision = defaults.MT.Model.Precision
	case "fp32", "fp16", "int8":
	default:
		reject("mt.model_gpu.precision", "must be one of fp32/fp16/int8, got %q", out.MT.Model.Precision)
		out.MT.Model.Precision = defaults.MT.Model.Precision
	}

	// Languages: every code must match [a-z]{2,3}; a bad list is replaced whole.
	if len(out.MT.SupportedLanguages) == 0 {
		out.MT.SupportedLanguages = defaults.MT.SupportedLanguages
	} else {
		for _, code := range out.MT.SupportedLanguages {
			if !types.IsLanguageCode(code) {
				reject("mt.supported_languages", "invalid language code %q", code)
				out.MT.SupportedLanguages = defaults.MT.SupportedLanguages
				break
			}
		}
	}
	if len(out.MT.LanguagePairs) == 0 {
		out.MT.LanguagePairs = defaults.MT.LanguagePairs
	} else {
	pairs:
		for src, tgts := range out.MT.LanguagePairs {
			if !types.IsLanguageCode(src) {
				reject("mt.language_pairs", "invalid source code %q", src)
				out.MT.LanguagePairs = defaults.MT.LanguagePairs
				break
			}
			for _, tgt := range tgts {
				if !types.IsLanguageCode(tgt) || tgt == src {
					reject("mt.language_pairs."+src, "invalid target code %q", tgt)
					out.MT.LanguagePairs = defaults.MT.LanguagePairs
					break pairs
				}
			}
		}
	}
	if out.MT.ModelsBasePath == "" {
		out.MT.ModelsBasePath = defaults.MT.ModelsBasePath
	}
	if out.MT.MaxConcurrentModels == 0 {
		out.MT.MaxConcurrentModels = defaults.MT.MaxConcurrentModels
	} else if out.MT.MaxConcurrentModels < 1 {
		reject("mt.max_concurrent_models", "must be >= 1, got %d", out.MT.MaxConcurrentModels)
		out.MT.MaxConcurrentModels = defaults.MT.MaxConcurrentModels
	}

	if out.MT.Batch.MaxBatchSize == 0 {
		out.MT.Batch.MaxBatchSize = defaults.MT.Batch.MaxBatchSize
	} else if out.MT.Batch.MaxBatchSize < 1 || out.MT.Batch.MaxBatchSize > 32 {
		reject("mt.batch.max_batch_size", "must be in [1, 32], got %d", out.MT.Batch.MaxBatchSize)
		out.MT.Batch.MaxBatchSize = defaults.MT.Batch.MaxBatchSize
	}
	if out.MT.Streaming.SessionTimeoutMinutes == 0 {
		out.MT.Streaming.SessionTimeoutMinutes = defaults.MT.Streaming.SessionTimeoutMinutes
	} else if out.MT.Streaming.SessionTimeoutMinutes < 0 {
		reject("mt.streaming.session_timeout_minutes", "must be > 0, got %d", out.MT.Streaming.SessionTimeoutMinutes)
		out.MT.Streaming.SessionTimeoutMinutes = defaults.MT.Streaming.SessionTimeoutMinutes
	}
	if out.MT.Caching.MaxCacheSize == 0 {
		out.MT.Caching.MaxCacheSize = defaults.MT.Caching.MaxCacheSize
	} else if out.MT.Caching.MaxCacheSize < 0 {
		reject("mt.caching.max_cache_size", "must be >= 0, got %d", out.MT.Caching.MaxCacheSize)
		out.MT.Caching.MaxCacheSize = defaults.MT.Caching.MaxCacheSize
	}

	// Threshold ordering: high > medium > low, each in (0,1).
	q := out.MT.Quality
	if q.High == 0 && q.Medium == 0 && q.Low == 0 {
		out.MT.Quality = defaults.MT.Quality
		out.MT.Quality.GenerateAlternatives = q.GenerateAlternatives
	} else if !(q.High > q.Medium && q.Medium > q.Low && q.Low > 0 && q.High <= 1) {
		reject("mt.quality", "thresholds must satisfy 1 >= high > medium > low > 0, got %.2f/%.2f/%.2f", q.High, q.Medium, q.Low)
		gen, max := q.GenerateAlternatives, q.MaxAlternatives
		out.MT.Quality = defaults.MT.Quality
		out.MT.Quality.GenerateAlternatives = gen
		if max > 0 {
			out.MT.Quality.MaxAlternatives = max
		}
	}
	if out.MT.Quality.MaxAlternatives == 0 {
		out.MT.Quality.MaxAlternatives = defaults.MT.Quality.MaxAlternatives
	} else if out.MT.Quality.MaxAlternatives < 0 {
		reject("mt.quality.max_alternatives", "must be >= 0, got %d", out.MT.Quality.MaxAlternatives)
		out.MT.Quality.MaxAlternatives = defaults.MT.Quality.MaxAlternatives
	}

	// Error handling branch: replace wholesale on any bad numeric.
	eh := out.MT.ErrorHandling
	if eh.MaxRetryAttempts == 0 && eh.InitialRetryDelayMs == 0 && eh.TranslationTimeoutMs == 0 {
		out.MT.ErrorHandling = defaults.MT.ErrorHandling
		out.MT.ErrorHandling.EnableRetry = eh.EnableRetry || !anySet(eh)
		out.MT.ErrorHandling.EnableDegradedMode = eh.EnableDegradedMode || !anySet(eh)
	} else if eh.MaxRetryAttempts < 1 || eh.InitialRetryDelayMs < 0 || eh.RetryBackoffMultiplier < 1 ||
		eh.MaxRetryDelayMs < eh.InitialRetryDelayMs || eh.TranslationTimeoutMs < 1 {
		reject("mt.error_handling", "inconsistent retry/timeout values")
		out.MT.ErrorHandling = defaults.MT.ErrorHandling
	}
	if out.MT.ErrorHandling.MaxDegradedDurationMins <= 0 {
		out.MT.ErrorHandling.MaxDegradedDurationMins = defaults.MT.ErrorHandling.MaxDegradedDurationMins
	}

	// Telemetry.
	if out.Telemetry.MaxDataPoints == 0 {
		out.Telemetry.MaxDataPoints = defaults.Telemetry.MaxDataPoints
	} else if out.Telemetry.MaxDataPoints < 1 {
		reject("telemetry.max_data_points", "must be >= 1, got %d", out.Telemetry.MaxDataPoints)
		out.Telemetry.MaxDataPoints = defaults.Telemetry.MaxDataPoints
	}
	if out.Telemetry.CollectionIntervalMs == 0 {
		out.Telemetry.CollectionIntervalMs = defaults.Telemetry.CollectionIntervalMs
	} else if out.Telemetry.CollectionIntervalMs < 10 {
		reject("telemetry.collection_interval_ms", "must be >= 10, got %d", out.Telemetry.CollectionIntervalMs)
		out.Telemetry.CollectionIntervalMs = defaults.Telemetry.CollectionIntervalMs
	}

	return out, issues
}

func anySet(eh ErrorHandlingConfig) bool {
	return eh.EnableRetry || eh.EnableDegradedMode || eh.MaxRetryAttempts != 0 ||
		eh.InitialRetryDelayMs != 0 || eh.MaxRetryDelayMs != 0 || eh.TranslationTimeoutMs != 0
}
