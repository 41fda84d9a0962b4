package translator

import (
	"time"

	"mtd/internal/config"
	"mtd/internal/recovery"
)

// Options are the hot-swappable knobs of the executor. A full Options value
// replaces the previous one atomically under the config mutex.
type Options struct {
	MaxBatchSize int

	SessionTimeout time.Duration

	CacheEnabled bool
	MaxCacheSize int

	GenerateAlternatives bool
	MaxAlternatives      int

	EnableRetry        bool
	RetryPolicy        recovery.RetryPolicy
	TranslationTimeout time.Duration

	PreferGPU bool
	DeviceID  int

	BeamSize    int
	WordPenalty float64
}

// OptionsFromConfig maps the validated configuration onto executor knobs.
func OptionsFromConfig(cfg config.Config) Options {
	eh := cfg.MT.ErrorHandling
	policy := recovery.RetryPolicy{
		MaxAttempts:       eh.MaxRetryAttempts,
		InitialDelay:      time.Duration(eh.InitialRetryDelayMs) * time.Millisecond,
		MaxDelay:          time.Duration(eh.MaxRetryDelayMs) * time.Millisecond,
		BackoffMultiplier: eh.RetryBackoffMultiplier,
		TotalTimeout:      10 * time.Second,
	}
	if policy.MaxAttempts < 1 {
		policy = recovery.DefaultRetryPolicy()
	}
	timeout := time.Duration(eh.TranslationTimeoutMs) * time.Millisecond
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return Options{
		MaxBatchSize:         cfg.MT.Batch.MaxBatchSize,
		SessionTimeout:       cfg.MT.Streaming.SessionTimeout(),
		CacheEnabled:         cfg.MT.Caching.Enabled,
		MaxCacheSize:         cfg.MT.Caching.MaxCacheSize,
		GenerateAlternatives: cfg.MT.Quality.GenerateAlternatives,
		MaxAlternatives:      cfg.MT.Quality.MaxAlternatives,
		EnableRetry:          eh.EnableRetry,
		RetryPolicy:          policy,
		TranslationTimeout:   timeout,
		PreferGPU:            cfg.MT.Model.UseGPU && cfg.GPU.Enabled,
		DeviceID:             cfg.MT.Model.DeviceID,
		BeamSize:             4,
	}
}
