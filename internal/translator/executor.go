// Package translator runs the end-to-end translation pipeline: cache lookup,
// model borrowing, inference with retry and timeout budgets, quality
// assessment, alternative generation and streaming session handling.
package translator

import (
	"context"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"mtd/internal/gpu"
	"mtd/internal/models"
	"mtd/internal/quality"
	"mtd/internal/recovery"
	"mtd/pkg/types"
)

// Executor is the translation front end. One instance serves all pairs; a
// default pair set by Initialize backs requests that omit their own.
type Executor struct {
	mgr      *models.Manager
	engine   *recovery.Engine
	assessor *quality.Assessor
	facade   *gpu.Facade
	cache    *Cache
	sessions *sessionStore
	log      zerolog.Logger

	// mu serializes inference so a single request owns the backend at a
	// time. Retry sleeps happen outside this lock.
	mu sync.Mutex

	cfgMu sync.RWMutex
	opts  Options

	readyMu sync.RWMutex
	ready   bool
	pair    types.LanguagePair
}

// New wires an executor from its collaborators.
func New(mgr *models.Manager, engine *recovery.Engine, assessor *quality.Assessor, facade *gpu.Facade, opts Options, log zerolog.Logger) *Executor {
	return &Executor{
		mgr:      mgr,
		engine:   engine,
		assessor: assessor,
		facade:   facade,
		cache:    NewCache(opts.CacheEnabled, opts.MaxCacheSize),
		sessions: newSessionStore(opts.SessionTimeout),
		opts:     opts,
		log:      log.With().Str("component", "translator").Logger(),
	}
}

// Initialize loads the model for the default pair and marks the executor
// ready.
func (e *Executor) Initialize(ctx context.Context, src, tgt string) error {
	pair, err := types.NewLanguagePair(src, tgt)
	if err != nil {
		return recovery.New(recovery.CatConfigError, err.Error(), recovery.Context{
			Component: "translator", Operation: "initialize",
		})
	}
	if err := e.mgr.Load(ctx, pair); err != nil {
		return err
	}
	e.readyMu.Lock()
	e.pair = pair
	e.ready = true
	e.readyMu.Unlock()
	e.log.Info().Str("pair", pair.Key()).Msg("translator initialized")
	return nil
}

// InitializeWithGPU initializes like Initialize but pins placement to the
// given device. An invalid device id leaves the executor usable on CPU and
// returns gpuEnabled=false rather than an error.
func (e *Executor) InitializeWithGPU(ctx context.Context, src, tgt string, deviceID int) (bool, error) {
	gpuOK := false
	if e.facade != nil && e.facade.IsAvailable() {
		if _, err := e.facade.DeviceInfo(deviceID); err == nil {
			gpuOK = true
		} else {
			e.log.Warn().Int("device", deviceID).Err(err).Msg("requested gpu device unavailable, using cpu")
		}
	}
	e.mgr.SetPreferGPU(gpuOK, deviceID)
	e.cfgMu.Lock()
	e.opts.PreferGPU = gpuOK
	e.opts.DeviceID = deviceID
	e.cfgMu.Unlock()
	if err := e.Initialize(ctx, src, tgt); err != nil {
		return gpuOK, err
	}
	return gpuOK, nil
}

// IsReady reports whether Initialize completed.
func (e *Executor) IsReady() bool {
	e.readyMu.RLock()
	defer e.readyMu.RUnlock()
	return e.ready
}

// DefaultPair returns the pair set by Initialize.
func (e *Executor) DefaultPair() (types.LanguagePair, bool) {
	e.readyMu.RLock()
	defer e.readyMu.RUnlock()
	return e.pair, e.ready
}

func (e *Executor) options() Options {
	e.cfgMu.RLock()
	defer e.cfgMu.RUnlock()
	return e.opts
}

// Translate runs the synchronous pipeline. It always returns a result;
// failures carry Success=false and an error message.
func (e *Executor) Translate(ctx context.Context, req types.TranslateRequest) types.TranslateResult {
	start := time.Now()
	pair, res, ok := e.resolve(req)
	if !ok {
		res.ProcessingTime = time.Since(start)
		return res
	}

	if cached, hit := e.cache.Get(pair, req.Text); hit {
		cached.SessionID = req.SessionID
		cached.ProcessingTime = time.Since(start)
		return cached
	}

	if e.engine.IsInDegradedMode() {
		res := e.fallbackResult(req.Text, pair, "")
		res.SessionID = req.SessionID
		res.ProcessingTime = time.Since(start)
		return res
	}

	res = e.translateOnce(ctx, pair, req)
	res.SessionID = req.SessionID
	res.ProcessingTime = time.Since(start)

	opts := e.options()
	if res.Success && opts.CacheEnabled {
		e.cache.Put(pair, req.Text, res)
	}
	return res
}

// resolve validates the request and picks the pair. The boolean is false
// when the returned result is already a terminal failure.
func (e *Executor) resolve(req types.TranslateRequest) (types.LanguagePair, types.TranslateResult, bool) {
	if !e.IsReady() {
		return types.LanguagePair{}, failureResult(req, "translator not initialized"), false
	}
	if strings.TrimSpace(req.Text) == "" {
		return types.LanguagePair{}, failureResult(req, "empty text"), false
	}
	if req.SrcLang == "" && req.TgtLang == "" {
		pair, _ := e.DefaultPair()
		return pair, types.TranslateResult{}, true
	}
	src := req.SrcLang
	if src == "" {
		def, _ := e.DefaultPair()
		src = def.Src
	}
	pair, err := types.NewLanguagePair(src, req.TgtLang)
	if err != nil {
		return types.LanguagePair{}, failureResult(req, err.Error()), false
	}
	if !e.mgr.Registry().Supports(pair) {
		return types.LanguagePair{}, failureResult(req, "unsupported language pair: "+pair.Key()), false
	}
	return pair, types.TranslateResult{}, true
}

// translateOnce performs one full inference attempt including retry,
// timeout, recovery and quality assessment.
func (e *Executor) translateOnce(ctx context.Context, pair types.LanguagePair, req types.TranslateRequest) types.TranslateResult {
	opts := e.options()

	output, score, usedGPU, err := e.infer(ctx, pair, req.Text, opts)
	if err != nil {
		outcome := e.engine.HandleError(err, recovery.Context{
			Component: "translator",
			Operation: "translate",
			Pair:      pair.Key(),
		})
		if outcome.Recovered {
			output, score, usedGPU, err = e.infer(ctx, pair, req.Text, opts)
		}
		if err != nil {
			res := e.fallbackResult(req.Text, pair, err.Error())
			return res
		}
	}

	metrics := e.assessor.Assess(req.Text, output, pair.Src, pair.Tgt, nil)
	conf := blendConfidence(score, metrics.Overall)

	res := types.TranslateResult{
		TranslatedText:  output,
		SrcLang:         pair.Src,
		TgtLang:         pair.Tgt,
		Confidence:      conf,
		WordConfidences: metrics.WordConfidences,
		Quality:         &metrics,
		UsedGPU:         usedGPU,
		Success:         true,
	}

	floor := e.assessor.Thresholds().Medium
	if req.QualityFloor > 0 {
		floor = req.QualityFloor
	}
	if metrics.Overall < floor && opts.GenerateAlternatives {
		maxN := opts.MaxAlternatives
		if req.MaxAlternatives > 0 && req.MaxAlternatives < maxN {
			maxN = req.MaxAlternatives
		}
		if maxN > 0 {
			res.Alternatives = e.assessor.GenerateCandidates(req.Text, output, pair.Src, pair.Tgt, maxN)
		}
	}
	return res
}

// infer borrows the model handle and runs the backend under the retry and
// timeout budgets.
func (e *Executor) infer(ctx context.Context, pair types.LanguagePair, text string, opts Options) (string, float64, bool, error) {
	var (
		output  string
		score   float64
		usedGPU bool
	)
	policy := opts.RetryPolicy
	if !opts.EnableRetry {
		policy.MaxAttempts = 1
	}
	err := recovery.ExecuteWithRetry(ctx, policy, func() error {
		// Each attempt writes its own locals. A worker abandoned by the
		// timeout may still complete later; its writes must not land in
		// state shared with the caller or a following attempt.
		var (
			out string
			sc  float64
			gp  bool
		)
		timeoutErr := recovery.ExecuteWithTimeout(ctx, "translate "+pair.Key(), opts.TranslationTimeout, func() error {
			e.mu.Lock()
			defer e.mu.Unlock()
			b, err := e.mgr.Borrow(ctx, pair)
			if err != nil {
				return err
			}
			defer b.Release()
			outputs, scores, err := b.Translate(ctx, []string{text}, models.TranslateOptions{
				BeamSize:    opts.BeamSize,
				Normalize:   true,
				WordPenalty: opts.WordPenalty,
			})
			if err != nil {
				return err
			}
			out = outputs[0]
			sc = scores[0]
			gp = b.OnGPU()
			return nil
		})
		if timeoutErr != nil {
			return timeoutErr
		}
		output, score, usedGPU = out, sc, gp
		return nil
	})
	return output, score, usedGPU, err
}

// fallbackResult renders text without a model. Quality never exceeds medium
// and the original error, if any, is preserved in the message.
func (e *Executor) fallbackResult(text string, pair types.LanguagePair, origErr string) types.TranslateResult {
	out, conf, wordConfs := quality.FallbackTranslate(text, pair)
	success := out != ""
	level := types.QualityMedium
	if origErr != "" || conf < e.assessor.Thresholds().Medium {
		level = types.QualityLow
	}
	if !success {
		out = text
		conf = 0
		level = types.QualityLow
	}
	metrics := types.QualityMetrics{
		Overall:         conf,
		Fluency:         conf,
		Adequacy:        conf,
		Consistency:     conf,
		WordConfidences: wordConfs,
		Level:           level,
		Issues:          []string{"fallback translation"},
	}
	return types.TranslateResult{
		TranslatedText:  out,
		SrcLang:         pair.Src,
		TgtLang:         pair.Tgt,
		Confidence:      conf,
		WordConfidences: wordConfs,
		Quality:         &metrics,
		Success:         true,
		ErrorMessage:    origErr,
	}
}

// Stats merges cache and session counters into the manager's status.
func (e *Executor) Stats() types.StatusResponse {
	st := e.mgr.Statistics()
	st.CacheSize = e.cache.Len()
	st.CacheHitRate = e.cache.HitRate()
	st.Sessions = e.sessions.len()
	degraded, reason, _ := e.engine.DegradedInfo()
	st.DegradedMode = degraded
	st.DegradedReason = reason
	return st
}

// UpdateConfiguration atomically replaces the executor knobs. The cache is
// cleared on disable and shrunk on a smaller budget; GPU preference changes
// propagate to the model manager.
func (e *Executor) UpdateConfiguration(opts Options) {
	e.cfgMu.Lock()
	prev := e.opts
	e.opts = opts
	e.cfgMu.Unlock()

	e.cache.Reconfigure(opts.CacheEnabled, opts.MaxCacheSize)
	e.sessions.setTimeout(opts.SessionTimeout)
	if prev.PreferGPU != opts.PreferGPU || prev.DeviceID != opts.DeviceID {
		e.mgr.SetPreferGPU(opts.PreferGPU, opts.DeviceID)
	}
	e.log.Info().
		Bool("cache", opts.CacheEnabled).
		Bool("gpu", opts.PreferGPU).
		Int("max_batch", opts.MaxBatchSize).
		Msg("configuration updated")
}

func failureResult(req types.TranslateRequest, msg string) types.TranslateResult {
	return types.TranslateResult{
		SrcLang:      req.SrcLang,
		TgtLang:      req.TgtLang,
		SessionID:    req.SessionID,
		Success:      false,
		ErrorMessage: msg,
	}
}

// blendConfidence combines the backend's sentence log-probability with the
// assessor's overall score.
func blendConfidence(logProb, overall float64) float64 {
	modelConf := math.Exp(logProb)
	if modelConf > 1 {
		modelConf = 1
	}
	conf := 0.5*modelConf + 0.5*overall
	if conf < 0 {
		return 0
	}
	if conf > 1 {
		return 1
	}
	return conf
}
